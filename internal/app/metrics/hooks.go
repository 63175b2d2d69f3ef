package metrics

import (
	"context"

	"github.com/hustleboard/hustleboard/internal/app/domain/session"
)

// SessionHook feeds session lifecycle events into the counters.
type SessionHook struct {
	m *Registry
}

// NewSessionHook creates the metrics hook.
func NewSessionHook(m *Registry) *SessionHook {
	return &SessionHook{m: m}
}

func (h *SessionHook) SessionStarted(_ context.Context, _ *session.Session) {
	h.m.SessionsStarted.Inc()
	h.m.OpenSessions.Inc()
}

func (h *SessionHook) SessionStopped(_ context.Context, _ *session.Session) {
	h.m.SessionsStopped.Inc()
	h.m.OpenSessions.Dec()
}
