// Package supabase implements the storage interfaces on top of the
// PostgREST query client. Tables: users, projects, time_sessions,
// income_entries, expense_entries.
package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/ledger"
	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/domain/session"
	"github.com/hustleboard/hustleboard/internal/app/domain/user"
	"github.com/hustleboard/hustleboard/internal/app/storage"
	supa "github.com/hustleboard/hustleboard/internal/supabase"
)

const (
	usersTable    = "users"
	projectsTable = "projects"
	sessionsTable = "time_sessions"
	incomeTable   = "income_entries"
	expensesTable = "expense_entries"
)

// Store implements every storage interface against one Supabase project.
type Store struct {
	client *supa.Client
}

// New creates a store backed by the given client.
func New(client *supa.Client) *Store {
	return &Store{client: client}
}

func mapErr(err error) error {
	if supa.IsNotFound(err) {
		return storage.ErrNotFound
	}
	return err
}

// userRow is the users table wire shape. The domain struct hides the
// nonce from API responses, so it cannot double as the storage
// payload; every column is spelled out here, nonce included and no
// omitempty, so updates can also clear a stored value.
type userRow struct {
	ID                   string    `json:"id"`
	WalletAddress        string    `json:"wallet_address"`
	FarcasterFID         string    `json:"farcaster_fid"`
	Nonce                string    `json:"nonce"`
	TotalProjectsTracked int       `json:"total_projects_tracked"`
	StreakDays           int       `json:"streak_days"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toUserRow(u *user.User) userRow {
	return userRow{
		ID:                   u.ID,
		WalletAddress:        u.WalletAddress,
		FarcasterFID:         u.FarcasterFID,
		Nonce:                u.Nonce,
		TotalProjectsTracked: u.TotalProjectsTracked,
		StreakDays:           u.StreakDays,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func (r userRow) toUser() *user.User {
	return &user.User{
		ID:                   r.ID,
		WalletAddress:        r.WalletAddress,
		FarcasterFID:         r.FarcasterFID,
		Nonce:                r.Nonce,
		TotalProjectsTracked: r.TotalProjectsTracked,
		StreakDays:           r.StreakDays,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	var rows []userRow
	err := s.client.From(usersTable).Insert(toUserRow(u)).ExecuteInto(ctx, &rows)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if len(rows) > 0 {
		*u = *rows[0].toUser()
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	_, err := s.client.From(usersTable).Update(toUserRow(u)).Eq("id", u.ID).Execute(ctx)
	if err != nil {
		return fmt.Errorf("update user: %w", mapErr(err))
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	var r userRow
	err := s.client.From(usersTable).Select("*").Eq("id", id).Single().ExecuteInto(ctx, &r)
	if err != nil {
		return nil, mapErr(err)
	}
	return r.toUser(), nil
}

func (s *Store) GetUserByWallet(ctx context.Context, wallet string) (*user.User, error) {
	var r userRow
	err := s.client.From(usersTable).Select("*").Eq("wallet_address", wallet).Single().ExecuteInto(ctx, &r)
	if err != nil {
		return nil, mapErr(err)
	}
	return r.toUser(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*user.User, error) {
	var rows []userRow
	err := s.client.From(usersTable).Select("*").Order("created_at", false).ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*user.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toUser())
	}
	return out, nil
}

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	var rows []project.Project
	err := s.client.From(projectsTable).Insert(p).ExecuteInto(ctx, &rows)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	if len(rows) > 0 {
		*p = rows[0]
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	_, err := s.client.From(projectsTable).Update(p).Eq("id", p.ID).Execute(ctx)
	if err != nil {
		return fmt.Errorf("update project: %w", mapErr(err))
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	var p project.Project
	err := s.client.From(projectsTable).Select("*").Eq("id", id).Single().ExecuteInto(ctx, &p)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context, userID string) ([]*project.Project, error) {
	var rows []*project.Project
	err := s.client.From(projectsTable).
		Select("*").
		Eq("user_id", userID).
		Order("created_at", true).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return rows, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	rows, err := s.client.From(projectsTable).Delete().Eq("id", id).Execute(ctx)
	if err != nil {
		return fmt.Errorf("delete project: %w", mapErr(err))
	}
	if string(rows) == "[]" {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, sess *session.Session) error {
	var rows []session.Session
	err := s.client.From(sessionsTable).Insert(sess).ExecuteInto(ctx, &rows)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if len(rows) > 0 {
		*sess = rows[0]
	}
	return nil
}

func (s *Store) UpdateSession(ctx context.Context, sess *session.Session) error {
	_, err := s.client.From(sessionsTable).Update(sess).Eq("id", sess.ID).Execute(ctx)
	if err != nil {
		return fmt.Errorf("update session: %w", mapErr(err))
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*session.Session, error) {
	var sess session.Session
	err := s.client.From(sessionsTable).Select("*").Eq("id", id).Single().ExecuteInto(ctx, &sess)
	if err != nil {
		return nil, mapErr(err)
	}
	return &sess, nil
}

func (s *Store) FindActiveSession(ctx context.Context, userID string) (*session.Session, error) {
	var rows []session.Session
	err := s.client.From(sessionsTable).
		Select("*").
		Eq("user_id", userID).
		Is("end_time", "null").
		Order("start_time", true).
		Limit(1).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	return &rows[0], nil
}

func (s *Store) ListProjectSessions(ctx context.Context, projectID string) ([]*session.Session, error) {
	var rows []*session.Session
	err := s.client.From(sessionsTable).
		Select("*").
		Eq("project_id", projectID).
		Order("start_time", true).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list project sessions: %w", err)
	}
	return rows, nil
}

func (s *Store) ListUserSessions(ctx context.Context, userID string, from, to *time.Time) ([]*session.Session, error) {
	q := s.client.From(sessionsTable).
		Select("*").
		Eq("user_id", userID)
	if from != nil {
		q = q.Gte("start_time", from.UTC().Format(time.RFC3339))
	}
	if to != nil {
		q = q.Lte("start_time", to.UTC().Format(time.RFC3339))
	}
	var rows []*session.Session
	if err := q.Order("start_time", true).ExecuteInto(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return rows, nil
}

func (s *Store) DeleteProjectSessions(ctx context.Context, projectID string) error {
	_, err := s.client.From(sessionsTable).Delete().Eq("project_id", projectID).Execute(ctx)
	if err != nil {
		return fmt.Errorf("delete project sessions: %w", err)
	}
	return nil
}

func (s *Store) CreateIncome(ctx context.Context, e *ledger.IncomeEntry) error {
	var rows []ledger.IncomeEntry
	err := s.client.From(incomeTable).Insert(e).ExecuteInto(ctx, &rows)
	if err != nil {
		return fmt.Errorf("create income entry: %w", err)
	}
	if len(rows) > 0 {
		*e = rows[0]
	}
	return nil
}

func (s *Store) CreateExpense(ctx context.Context, e *ledger.ExpenseEntry) error {
	var rows []ledger.ExpenseEntry
	err := s.client.From(expensesTable).Insert(e).ExecuteInto(ctx, &rows)
	if err != nil {
		return fmt.Errorf("create expense entry: %w", err)
	}
	if len(rows) > 0 {
		*e = rows[0]
	}
	return nil
}

func (s *Store) ListIncome(ctx context.Context, projectID string) ([]*ledger.IncomeEntry, error) {
	var rows []*ledger.IncomeEntry
	err := s.client.From(incomeTable).
		Select("*").
		Eq("project_id", projectID).
		Order("date", true).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list income entries: %w", err)
	}
	return rows, nil
}

func (s *Store) ListExpenses(ctx context.Context, projectID string) ([]*ledger.ExpenseEntry, error) {
	var rows []*ledger.ExpenseEntry
	err := s.client.From(expensesTable).
		Select("*").
		Eq("project_id", projectID).
		Order("date", true).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list expense entries: %w", err)
	}
	return rows, nil
}

func (s *Store) DeleteProjectEntries(ctx context.Context, projectID string) error {
	if _, err := s.client.From(incomeTable).Delete().Eq("project_id", projectID).Execute(ctx); err != nil {
		return fmt.Errorf("delete income entries: %w", err)
	}
	if _, err := s.client.From(expensesTable).Delete().Eq("project_id", projectID).Execute(ctx); err != nil {
		return fmt.Errorf("delete expense entries: %w", err)
	}
	return nil
}
