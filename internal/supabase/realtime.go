package supabase

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// RealtimeEvent is a message on the realtime channel protocol.
// Row changes arrive as INSERT, UPDATE, and DELETE events.
type RealtimeEvent struct {
	Type    string          `json:"type,omitempty"`
	Event   string          `json:"event"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

// EventHandler handles a realtime event.
type EventHandler func(event RealtimeEvent)

// RealtimeClient subscribes to Supabase realtime channels over websocket.
type RealtimeClient struct {
	mu       sync.Mutex
	url      string
	conn     *websocket.Conn
	channels map[string]*Channel
	handlers map[string][]EventHandler
	done     chan struct{}
	ref      int
}

// NewRealtimeClient creates a realtime client for a project URL.
func NewRealtimeClient(projectURL, apiKey string) *RealtimeClient {
	wsURL := strings.Replace(projectURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.TrimSuffix(wsURL, "/") + "/realtime/v1/websocket?apikey=" + apiKey + "&vsn=1.0.0"
	return &RealtimeClient{
		url:      wsURL,
		channels: make(map[string]*Channel),
		handlers: make(map[string][]EventHandler),
	}
}

// Connect dials the realtime endpoint and starts the read and
// heartbeat loops.
func (c *RealtimeClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("realtime dial: %w", err)
	}
	c.conn = conn
	c.done = make(chan struct{})

	go c.readLoop(conn, c.done)
	go c.heartbeat(c.done)
	return nil
}

// Disconnect closes the connection and stops the loops.
func (c *RealtimeClient) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	close(c.done)
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Channel returns the channel for a topic, creating it if needed.
// Topics follow the realtime convention, e.g. "realtime:public:time_sessions".
func (c *RealtimeClient) Channel(topic string) *Channel {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.channels[topic]; ok {
		return ch
	}
	ch := &Channel{client: c, topic: topic}
	c.channels[topic] = ch
	return ch
}

func (c *RealtimeClient) send(event RealtimeEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("realtime: not connected")
	}
	return c.conn.WriteJSON(event)
}

func (c *RealtimeClient) nextRef() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ref++
	return fmt.Sprintf("%d", c.ref)
}

func (c *RealtimeClient) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		var event RealtimeEvent
		if err := conn.ReadJSON(&event); err != nil {
			return
		}
		c.dispatch(event)
	}
}

func (c *RealtimeClient) dispatch(event RealtimeEvent) {
	c.mu.Lock()
	handlers := append([]EventHandler(nil), c.handlers[event.Topic+":"+event.Event]...)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

func (c *RealtimeClient) heartbeat(done chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = c.send(RealtimeEvent{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: json.RawMessage("{}"),
				Ref:     c.nextRef(),
			})
		}
	}
}

// Channel is a subscription to a single realtime topic.
type Channel struct {
	client *RealtimeClient
	topic  string
}

// Subscribe joins the channel.
func (ch *Channel) Subscribe() error {
	return ch.client.send(RealtimeEvent{
		Topic:   ch.topic,
		Event:   "phx_join",
		Payload: json.RawMessage("{}"),
		Ref:     ch.client.nextRef(),
	})
}

// Unsubscribe leaves the channel.
func (ch *Channel) Unsubscribe() error {
	return ch.client.send(RealtimeEvent{
		Topic:   ch.topic,
		Event:   "phx_leave",
		Payload: json.RawMessage("{}"),
		Ref:     ch.client.nextRef(),
	})
}

// On registers a handler for an event on this channel.
func (ch *Channel) On(event string, handler EventHandler) {
	ch.client.mu.Lock()
	defer ch.client.mu.Unlock()
	key := ch.topic + ":" + event
	ch.client.handlers[key] = append(ch.client.handlers[key], handler)
}

// OnInsert registers a handler for row inserts.
func (ch *Channel) OnInsert(handler EventHandler) { ch.On("INSERT", handler) }

// OnUpdate registers a handler for row updates.
func (ch *Channel) OnUpdate(handler EventHandler) { ch.On("UPDATE", handler) }

// OnDelete registers a handler for row deletes.
func (ch *Channel) OnDelete(handler EventHandler) { ch.On("DELETE", handler) }
