// Package tracker implements the start/stop time-session engine. At
// most one session runs per user across all their projects; starting a
// second is a conflict, not an implicit stop. Stopping computes the
// authoritative duration exactly once, and a stopped session is never
// reopened.
package tracker

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/domain/session"
	"github.com/hustleboard/hustleboard/internal/app/storage"
	"github.com/hustleboard/hustleboard/internal/errors"
	"github.com/hustleboard/hustleboard/internal/logging"
)

// Clock supplies the current time. Tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// Hook observes session lifecycle events. The aggregate recorder uses
// it to fold stopped durations into project totals.
type Hook interface {
	SessionStarted(ctx context.Context, sess *session.Session)
	SessionStopped(ctx context.Context, sess *session.Session)
}

// NopHook ignores all events.
type NopHook struct{}

func (NopHook) SessionStarted(context.Context, *session.Session) {}
func (NopHook) SessionStopped(context.Context, *session.Session) {}

// Service implements the session engine.
type Service struct {
	sessions storage.SessionStore
	projects storage.ProjectStore
	clock    Clock
	hook     Hook
	log      *logging.Logger
}

// NewService creates the tracker service.
func NewService(sessions storage.SessionStore, projects storage.ProjectStore, clock Clock, hook Hook, log *logging.Logger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if hook == nil {
		hook = NopHook{}
	}
	return &Service{
		sessions: sessions,
		projects: projects,
		clock:    clock,
		hook:     hook,
		log:      log,
	}
}

// Start opens a session against the project. When the category is
// empty the project's own category is used. A session already running
// anywhere in the user's portfolio refuses the start.
func (s *Service) Start(ctx context.Context, userID, projectID, category string) (*session.Session, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("project not found")
		}
		return nil, errors.Internal("load project", err)
	}
	if p.UserID != userID {
		return nil, errors.NotFound("project not found")
	}

	cat := p.Category
	if category != "" {
		cat, err = project.ParseCategory(category)
		if err != nil {
			return nil, errors.Validation(err.Error())
		}
	}

	active, err := s.sessions.FindActiveSession(ctx, userID)
	if err == nil {
		return nil, errors.Conflict("a session is already running").
			WithDetails("active_session_id", active.ID).
			WithDetails("active_project_id", active.ProjectID)
	}
	if !stderrors.Is(err, storage.ErrNotFound) {
		return nil, errors.Internal("check active session", err)
	}

	now := s.clock.Now().UTC()
	sess := &session.Session{
		ProjectID: p.ID,
		UserID:    userID,
		StartTime: now,
		Category:  cat,
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, errors.Internal("create session", err)
	}

	s.hook.SessionStarted(ctx, sess)
	s.log.WithFields(map[string]interface{}{
		"session_id": sess.ID,
		"project_id": p.ID,
	}).Info("session started")
	return sess, nil
}

// Stop closes the session, computing the duration as whole seconds
// between start and stop (floored, never negative). Stopping an
// already stopped session is a conflict.
func (s *Service) Stop(ctx context.Context, userID, sessionID, onChainProof string) (*session.Session, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("session not found")
		}
		return nil, errors.Internal("load session", err)
	}
	if sess.UserID != userID {
		return nil, errors.NotFound("session not found")
	}
	if !sess.Open() {
		return nil, errors.Conflict("session already stopped")
	}

	end := s.clock.Now().UTC()
	duration := int64(end.Sub(sess.StartTime) / time.Second)
	if duration < 0 {
		duration = 0
	}

	sess.EndTime = &end
	sess.Duration = duration
	sess.OnChainProof = onChainProof
	if err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return nil, errors.Internal("update session", err)
	}

	s.hook.SessionStopped(ctx, sess)
	s.log.WithFields(map[string]interface{}{
		"session_id": sess.ID,
		"duration":   duration,
	}).Info("session stopped")
	return sess, nil
}

// Active returns the user's running session, or nil when none is
// open. Clients call this on load to resume a timer that survived a
// page refresh.
func (s *Service) Active(ctx context.Context, userID string) (*session.Session, error) {
	sess, err := s.sessions.FindActiveSession(ctx, userID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Internal("find active session", err)
	}
	return sess, nil
}

// Elapsed returns the display elapsed seconds for a session at the
// current clock reading.
func (s *Service) Elapsed(sess *session.Session) int64 {
	return sess.Elapsed(s.clock.Now().UTC())
}

// ListForProject returns a project's sessions newest first, checking
// ownership through the project.
func (s *Service) ListForProject(ctx context.Context, userID, projectID string) ([]*session.Session, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("project not found")
		}
		return nil, errors.Internal("load project", err)
	}
	if p.UserID != userID {
		return nil, errors.NotFound("project not found")
	}

	list, err := s.sessions.ListProjectSessions(ctx, projectID)
	if err != nil {
		return nil, errors.Internal("list sessions", err)
	}
	if list == nil {
		list = []*session.Session{}
	}
	return list, nil
}

// ListForUser returns the user's sessions, optionally bounded to a
// start-time window.
func (s *Service) ListForUser(ctx context.Context, userID string, from, to *time.Time) ([]*session.Session, error) {
	list, err := s.sessions.ListUserSessions(ctx, userID, from, to)
	if err != nil {
		return nil, errors.Internal("list sessions", err)
	}
	if list == nil {
		list = []*session.Session{}
	}
	return list, nil
}
