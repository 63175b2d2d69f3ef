// Package memory provides in-memory implementations of the storage
// interfaces, used in tests and for local development without a
// database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hustleboard/hustleboard/internal/app/domain/ledger"
	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/domain/session"
	"github.com/hustleboard/hustleboard/internal/app/domain/user"
	"github.com/hustleboard/hustleboard/internal/app/storage"
)

// UserStore is an in-memory storage.UserStore.
type UserStore struct {
	mu       sync.RWMutex
	users    map[string]*user.User
	byWallet map[string]string
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:    make(map[string]*user.User),
		byWallet: make(map[string]string),
	}
}

func (s *UserStore) CreateUser(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	clone := *u
	s.users[clone.ID] = &clone
	s.byWallet[clone.WalletAddress] = clone.ID
	return nil
}

func (s *UserStore) UpdateUser(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.users[u.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if prev.WalletAddress != u.WalletAddress {
		delete(s.byWallet, prev.WalletAddress)
	}
	clone := *u
	s.users[clone.ID] = &clone
	s.byWallet[clone.WalletAddress] = clone.ID
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *UserStore) GetUserByWallet(ctx context.Context, wallet string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byWallet[wallet]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *s.users[id]
	return &clone, nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ProjectStore is an in-memory storage.ProjectStore.
type ProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*project.Project
}

// NewProjectStore creates an empty project store.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{projects: make(map[string]*project.Project)}
}

func (s *ProjectStore) CreateProject(ctx context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	clone := *p
	s.projects[clone.ID] = &clone
	return nil
}

func (s *ProjectStore) UpdateProject(ctx context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; !ok {
		return storage.ErrNotFound
	}
	clone := *p
	s.projects[clone.ID] = &clone
	return nil
}

func (s *ProjectStore) GetProject(ctx context.Context, id string) (*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *ProjectStore) ListProjects(ctx context.Context, userID string) ([]*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*project.Project
	for _, p := range s.projects {
		if p.UserID != userID {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *ProjectStore) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

// SessionStore is an in-memory storage.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*session.Session)}
}

func (s *SessionStore) CreateSession(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	clone := cloneSession(sess)
	s.sessions[clone.ID] = clone
	return nil
}

func (s *SessionStore) UpdateSession(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; !ok {
		return storage.ErrNotFound
	}
	clone := cloneSession(sess)
	s.sessions[clone.ID] = clone
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneSession(sess), nil
}

func (s *SessionStore) FindActiveSession(ctx context.Context, userID string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *session.Session
	for _, sess := range s.sessions {
		if sess.UserID != userID || !sess.Open() {
			continue
		}
		if latest == nil || sess.StartTime.After(latest.StartTime) {
			latest = sess
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return cloneSession(latest), nil
}

func (s *SessionStore) ListProjectSessions(ctx context.Context, projectID string) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*session.Session
	for _, sess := range s.sessions {
		if sess.ProjectID == projectID {
			out = append(out, cloneSession(sess))
		}
	}
	sortSessions(out)
	return out, nil
}

func (s *SessionStore) ListUserSessions(ctx context.Context, userID string, from, to *time.Time) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*session.Session
	for _, sess := range s.sessions {
		if sess.UserID != userID {
			continue
		}
		if from != nil && sess.StartTime.Before(*from) {
			continue
		}
		if to != nil && sess.StartTime.After(*to) {
			continue
		}
		out = append(out, cloneSession(sess))
	}
	sortSessions(out)
	return out, nil
}

func (s *SessionStore) DeleteProjectSessions(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if sess.ProjectID == projectID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func cloneSession(s *session.Session) *session.Session {
	clone := *s
	if s.EndTime != nil {
		end := *s.EndTime
		clone.EndTime = &end
	}
	return &clone
}

func sortSessions(out []*session.Session) {
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
}

// LedgerStore is an in-memory storage.LedgerStore.
type LedgerStore struct {
	mu       sync.RWMutex
	income   map[string]*ledger.IncomeEntry
	expenses map[string]*ledger.ExpenseEntry
}

// NewLedgerStore creates an empty ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		income:   make(map[string]*ledger.IncomeEntry),
		expenses: make(map[string]*ledger.ExpenseEntry),
	}
}

func (s *LedgerStore) CreateIncome(ctx context.Context, e *ledger.IncomeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	clone := *e
	s.income[clone.ID] = &clone
	return nil
}

func (s *LedgerStore) CreateExpense(ctx context.Context, e *ledger.ExpenseEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	clone := *e
	s.expenses[clone.ID] = &clone
	return nil
}

func (s *LedgerStore) ListIncome(ctx context.Context, projectID string) ([]*ledger.IncomeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ledger.IncomeEntry
	for _, e := range s.income {
		if e.ProjectID == projectID {
			clone := *e
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *LedgerStore) ListExpenses(ctx context.Context, projectID string) ([]*ledger.ExpenseEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ledger.ExpenseEntry
	for _, e := range s.expenses {
		if e.ProjectID == projectID {
			clone := *e
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *LedgerStore) DeleteProjectEntries(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.income {
		if e.ProjectID == projectID {
			delete(s.income, id)
		}
	}
	for id, e := range s.expenses {
		if e.ProjectID == projectID {
			delete(s.expenses, id)
		}
	}
	return nil
}
