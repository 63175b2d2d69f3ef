// Package watcher mirrors session table changes from the Supabase
// realtime feed. It keeps the open-session gauge honest when rows are
// written by anything other than this process, e.g. a support tool or
// a second replica.
package watcher

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/hustleboard/hustleboard/internal/app/metrics"
	"github.com/hustleboard/hustleboard/internal/logging"
	supa "github.com/hustleboard/hustleboard/internal/supabase"
)

const sessionsTopic = "realtime:public:time_sessions"

// SessionWatcher is a system.Service subscribed to session row changes.
type SessionWatcher struct {
	rt  *supa.RealtimeClient
	m   *metrics.Registry
	log *logging.Logger
}

// New creates the watcher.
func New(rt *supa.RealtimeClient, m *metrics.Registry, log *logging.Logger) *SessionWatcher {
	return &SessionWatcher{rt: rt, m: m, log: log}
}

// Name implements system.Service.
func (w *SessionWatcher) Name() string { return "session-watcher" }

// Start connects and subscribes to the sessions topic.
func (w *SessionWatcher) Start(ctx context.Context) error {
	if err := w.rt.Connect(); err != nil {
		return err
	}

	ch := w.rt.Channel(sessionsTopic)
	ch.OnInsert(w.onInsert)
	ch.OnUpdate(w.onUpdate)
	return ch.Subscribe()
}

// Stop disconnects the realtime client.
func (w *SessionWatcher) Stop(ctx context.Context) error {
	return w.rt.Disconnect()
}

func (w *SessionWatcher) onInsert(event supa.RealtimeEvent) {
	record := gjson.GetBytes(event.Payload, "record")
	if record.Get("end_time").Type == gjson.Null {
		w.m.OpenSessions.Inc()
	}
	w.log.WithFields(map[string]interface{}{
		"session_id": record.Get("id").String(),
		"project_id": record.Get("project_id").String(),
	}).Debug("session row inserted")
}

func (w *SessionWatcher) onUpdate(event supa.RealtimeEvent) {
	record := gjson.GetBytes(event.Payload, "record")
	old := gjson.GetBytes(event.Payload, "old_record")

	// Only the open -> closed transition moves the gauge.
	if old.Get("end_time").Type == gjson.Null && record.Get("end_time").Type != gjson.Null {
		w.m.OpenSessions.Dec()
	}
	w.log.WithField("session_id", record.Get("id").String()).Debug("session row updated")
}
