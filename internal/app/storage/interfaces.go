// Package storage defines the persistence interfaces the services
// depend on. Backends live in subpackages: memory for tests and
// development, supabase and postgres for production, rediscache as a
// read-through decorator.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/ledger"
	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/domain/session"
	"github.com/hustleboard/hustleboard/internal/app/domain/user"
)

// ErrNotFound is returned when a record does not exist. Backends map
// their own not-found signals to this error.
var ErrNotFound = errors.New("not found")

// UserStore persists user records keyed by id and wallet address.
type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	UpdateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByWallet(ctx context.Context, wallet string) (*user.User, error)
	ListUsers(ctx context.Context) ([]*user.User, error)
}

// ProjectStore persists projects. ListProjects returns the owner's
// projects newest first.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *project.Project) error
	UpdateProject(ctx context.Context, p *project.Project) error
	GetProject(ctx context.Context, id string) (*project.Project, error)
	ListProjects(ctx context.Context, userID string) ([]*project.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// SessionStore persists time sessions. FindActiveSession returns the
// user's open session (nil end time) or ErrNotFound.
type SessionStore interface {
	CreateSession(ctx context.Context, s *session.Session) error
	UpdateSession(ctx context.Context, s *session.Session) error
	GetSession(ctx context.Context, id string) (*session.Session, error)
	FindActiveSession(ctx context.Context, userID string) (*session.Session, error)
	ListProjectSessions(ctx context.Context, projectID string) ([]*session.Session, error)
	ListUserSessions(ctx context.Context, userID string, from, to *time.Time) ([]*session.Session, error)
	DeleteProjectSessions(ctx context.Context, projectID string) error
}

// LedgerStore persists income and expense entries. Lists are newest
// first by entry date.
type LedgerStore interface {
	CreateIncome(ctx context.Context, e *ledger.IncomeEntry) error
	CreateExpense(ctx context.Context, e *ledger.ExpenseEntry) error
	ListIncome(ctx context.Context, projectID string) ([]*ledger.IncomeEntry, error)
	ListExpenses(ctx context.Context, projectID string) ([]*ledger.ExpenseEntry, error)
	DeleteProjectEntries(ctx context.Context, projectID string) error
}
