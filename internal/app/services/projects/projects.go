// Package projects implements the project registry: create, update,
// list, and delete of tracked side businesses. Aggregate totals on a
// project are maintained elsewhere; this service only moves lifecycle
// fields and the stored weekly signal.
package projects

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/storage"
	"github.com/hustleboard/hustleboard/internal/errors"
	"github.com/hustleboard/hustleboard/internal/logging"
)

const maxNameLength = 120

// Service implements project registry operations.
type Service struct {
	projects storage.ProjectStore
	sessions storage.SessionStore
	ledger   storage.LedgerStore
	users    storage.UserStore
	log      *logging.Logger
}

// NewService creates the project service.
func NewService(projects storage.ProjectStore, sessions storage.SessionStore, ledger storage.LedgerStore, users storage.UserStore, log *logging.Logger) *Service {
	return &Service{
		projects: projects,
		sessions: sessions,
		ledger:   ledger,
		users:    users,
		log:      log,
	}
}

// Create registers a new project for the user. New projects start
// active with a yellow signal and zeroed totals.
func (s *Service) Create(ctx context.Context, userID, name, category string) (*project.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("project name is required")
	}
	if len(name) > maxNameLength {
		return nil, errors.Validation("project name too long").WithDetails("max_length", maxNameLength)
	}
	cat, err := project.ParseCategory(category)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}

	now := time.Now().UTC()
	p := &project.Project{
		UserID:       userID,
		Name:         name,
		Status:       project.StatusActive,
		Category:     cat,
		WeeklySignal: project.SignalYellow,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.projects.CreateProject(ctx, p); err != nil {
		return nil, errors.Internal("create project", err)
	}

	if u, err := s.users.GetUser(ctx, userID); err == nil {
		u.TotalProjectsTracked++
		if err := s.users.UpdateUser(ctx, u); err != nil {
			s.log.WithError(err).Warn("failed to bump project count")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"project_id": p.ID,
		"user_id":    userID,
	}).Info("project created")
	return p, nil
}

// Get loads one of the user's projects. Other users' projects are
// indistinguishable from missing ones.
func (s *Service) Get(ctx context.Context, userID, projectID string) (*project.Project, error) {
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
	return p, nil
}

// List returns the user's projects newest first. An empty portfolio is
// an empty slice, not an error.
func (s *Service) List(ctx context.Context, userID string) ([]*project.Project, error) {
	list, err := s.projects.ListProjects(ctx, userID)
	if err != nil {
		return nil, errors.Internal("list projects", err)
	}
	if list == nil {
		list = []*project.Project{}
	}
	return list, nil
}

// Update applies a partial update. An empty patch is a no-op that
// returns the current state without touching the store.
func (s *Service) Update(ctx context.Context, userID, projectID string, patch project.Patch) (*project.Project, error) {
	p, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return p, nil
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, errors.Validation("project name is required")
		}
		if len(name) > maxNameLength {
			return nil, errors.Validation("project name too long").WithDetails("max_length", maxNameLength)
		}
		p.Name = name
	}
	if patch.Status != nil {
		if _, err := project.ParseStatus(string(*patch.Status)); err != nil {
			return nil, errors.Validation(err.Error())
		}
		p.Status = *patch.Status
	}
	if patch.Category != nil {
		if _, err := project.ParseCategory(string(*patch.Category)); err != nil {
			return nil, errors.Validation(err.Error())
		}
		p.Category = *patch.Category
	}

	p.UpdatedAt = time.Now().UTC()
	if err := s.projects.UpdateProject(ctx, p); err != nil {
		return nil, errors.Internal("update project", err)
	}
	return p, nil
}

// SetSignal stores the weekly traffic-light classification computed
// off-platform.
func (s *Service) SetSignal(ctx context.Context, userID, projectID string, signal project.Signal) (*project.Project, error) {
	switch signal {
	case project.SignalGreen, project.SignalYellow, project.SignalRed:
	default:
		return nil, errors.Validation("invalid signal")
	}

	p, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	p.WeeklySignal = signal
	p.UpdatedAt = time.Now().UTC()
	if err := s.projects.UpdateProject(ctx, p); err != nil {
		return nil, errors.Internal("update signal", err)
	}
	return p, nil
}

// Delete removes a project along with its sessions and ledger entries.
// Deleting while a session runs against the project is refused.
func (s *Service) Delete(ctx context.Context, userID, projectID string) error {
	p, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return err
	}

	active, err := s.sessions.FindActiveSession(ctx, userID)
	if err == nil && active.ProjectID == p.ID {
		return errors.Conflict("stop the running session before deleting this project")
	}
	if err != nil && !stderrors.Is(err, storage.ErrNotFound) {
		return errors.Internal("check active session", err)
	}

	if err := s.sessions.DeleteProjectSessions(ctx, p.ID); err != nil {
		return errors.Internal("delete sessions", err)
	}
	if err := s.ledger.DeleteProjectEntries(ctx, p.ID); err != nil {
		return errors.Internal("delete ledger entries", err)
	}
	if err := s.projects.DeleteProject(ctx, p.ID); err != nil {
		return errors.Internal("delete project", err)
	}

	s.log.WithFields(map[string]interface{}{
		"project_id": p.ID,
		"user_id":    userID,
	}).Info("project deleted")
	return nil
}
