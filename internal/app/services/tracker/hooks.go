package tracker

import (
	"context"

	"github.com/hustleboard/hustleboard/internal/app/domain/session"
)

type multiHook []Hook

func (m multiHook) SessionStarted(ctx context.Context, sess *session.Session) {
	for _, h := range m {
		h.SessionStarted(ctx, sess)
	}
}

func (m multiHook) SessionStopped(ctx context.Context, sess *session.Session) {
	for _, h := range m {
		h.SessionStopped(ctx, sess)
	}
}

// Hooks fans lifecycle events out to several hooks in order.
func Hooks(hooks ...Hook) Hook {
	return multiHook(hooks)
}
