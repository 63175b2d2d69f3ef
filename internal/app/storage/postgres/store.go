// Package postgres implements the storage interfaces on a Postgres
// database via sqlx. Schema migrations are embedded and applied with
// golang-migrate.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/hustleboard/hustleboard/internal/app/domain/ledger"
	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/domain/session"
	"github.com/hustleboard/hustleboard/internal/app/domain/user"
	"github.com/hustleboard/hustleboard/internal/app/storage"
)

// Store implements every storage interface against one Postgres database.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database, applies migrations, and returns a store.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := Migrate(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection without running migrations.
// Used in tests.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, wallet_address, farcaster_fid, nonce, total_projects_tracked, streak_days, created_at, updated_at)
		VALUES (:id, :wallet_address, :farcaster_fid, :nonce, :total_projects_tracked, :streak_days, :created_at, :updated_at)`, u)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE users SET wallet_address = :wallet_address, farcaster_fid = :farcaster_fid,
			nonce = :nonce, total_projects_tracked = :total_projects_tracked,
			streak_days = :streak_days, updated_at = :updated_at
		WHERE id = :id`, u)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) GetUserByWallet(ctx context.Context, wallet string) (*user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE wallet_address = $1`, wallet)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*user.User, error) {
	var list []*user.User
	if err := s.db.SelectContext(ctx, &list, `SELECT * FROM users ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return list, nil
}

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO projects (id, user_id, name, status, category, total_time_invested, total_revenue, total_expenses, weekly_signal, created_at, updated_at)
		VALUES (:id, :user_id, :name, :status, :category, :total_time_invested, :total_revenue, :total_expenses, :weekly_signal, :created_at, :updated_at)`, p)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE projects SET name = :name, status = :status, category = :category,
			total_time_invested = :total_time_invested, total_revenue = :total_revenue,
			total_expenses = :total_expenses, weekly_signal = :weekly_signal, updated_at = :updated_at
		WHERE id = :id`, p)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	var p project.Project
	err := s.db.GetContext(ctx, &p, `SELECT * FROM projects WHERE id = $1`, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context, userID string) ([]*project.Project, error) {
	var list []*project.Project
	err := s.db.SelectContext(ctx, &list, `
		SELECT * FROM projects WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return list, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, sess *session.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO time_sessions (id, project_id, user_id, start_time, end_time, duration, category, on_chain_proof, created_at)
		VALUES (:id, :project_id, :user_id, :start_time, :end_time, :duration, :category, :on_chain_proof, :created_at)`, sess)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Store) UpdateSession(ctx context.Context, sess *session.Session) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE time_sessions SET end_time = :end_time, duration = :duration,
			category = :category, on_chain_proof = :on_chain_proof
		WHERE id = :id`, sess)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*session.Session, error) {
	var sess session.Session
	err := s.db.GetContext(ctx, &sess, `SELECT * FROM time_sessions WHERE id = $1`, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return &sess, nil
}

func (s *Store) FindActiveSession(ctx context.Context, userID string) (*session.Session, error) {
	var sess session.Session
	err := s.db.GetContext(ctx, &sess, `
		SELECT * FROM time_sessions
		WHERE user_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC LIMIT 1`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &sess, nil
}

func (s *Store) ListProjectSessions(ctx context.Context, projectID string) ([]*session.Session, error) {
	var list []*session.Session
	err := s.db.SelectContext(ctx, &list, `
		SELECT * FROM time_sessions WHERE project_id = $1 ORDER BY start_time DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project sessions: %w", err)
	}
	return list, nil
}

func (s *Store) ListUserSessions(ctx context.Context, userID string, from, to *time.Time) ([]*session.Session, error) {
	query := `SELECT * FROM time_sessions WHERE user_id = $1`
	args := []interface{}{userID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND start_time <= $%d", len(args))
	}
	query += " ORDER BY start_time DESC"

	var list []*session.Session
	if err := s.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return list, nil
}

func (s *Store) DeleteProjectSessions(ctx context.Context, projectID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM time_sessions WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("delete project sessions: %w", err)
	}
	return nil
}

func (s *Store) CreateIncome(ctx context.Context, e *ledger.IncomeEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO income_entries (id, project_id, user_id, amount, source, date, is_recurring, created_at)
		VALUES (:id, :project_id, :user_id, :amount, :source, :date, :is_recurring, :created_at)`, e)
	if err != nil {
		return fmt.Errorf("create income entry: %w", err)
	}
	return nil
}

func (s *Store) CreateExpense(ctx context.Context, e *ledger.ExpenseEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO expense_entries (id, project_id, user_id, amount, category, date, created_at)
		VALUES (:id, :project_id, :user_id, :amount, :category, :date, :created_at)`, e)
	if err != nil {
		return fmt.Errorf("create expense entry: %w", err)
	}
	return nil
}

func (s *Store) ListIncome(ctx context.Context, projectID string) ([]*ledger.IncomeEntry, error) {
	var list []*ledger.IncomeEntry
	err := s.db.SelectContext(ctx, &list, `
		SELECT * FROM income_entries WHERE project_id = $1 ORDER BY date DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list income entries: %w", err)
	}
	return list, nil
}

func (s *Store) ListExpenses(ctx context.Context, projectID string) ([]*ledger.ExpenseEntry, error) {
	var list []*ledger.ExpenseEntry
	err := s.db.SelectContext(ctx, &list, `
		SELECT * FROM expense_entries WHERE project_id = $1 ORDER BY date DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list expense entries: %w", err)
	}
	return list, nil
}

func (s *Store) DeleteProjectEntries(ctx context.Context, projectID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM income_entries WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("delete income entries: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM expense_entries WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("delete expense entries: %w", err)
	}
	return nil
}
