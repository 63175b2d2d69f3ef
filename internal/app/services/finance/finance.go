// Package finance implements the income and expense ledger. Entries
// are append-only: recording is the only write, and project totals are
// folded forward through the hook rather than recomputed from history.
package finance

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/ledger"
	"github.com/hustleboard/hustleboard/internal/app/storage"
	"github.com/hustleboard/hustleboard/internal/errors"
	"github.com/hustleboard/hustleboard/internal/logging"
)

// Hook observes recorded entries. The aggregate recorder uses it to
// bump project revenue and expense totals.
type Hook interface {
	IncomeRecorded(ctx context.Context, e *ledger.IncomeEntry)
	ExpenseRecorded(ctx context.Context, e *ledger.ExpenseEntry)
}

// NopHook ignores all events.
type NopHook struct{}

func (NopHook) IncomeRecorded(context.Context, *ledger.IncomeEntry)   {}
func (NopHook) ExpenseRecorded(context.Context, *ledger.ExpenseEntry) {}

// Service implements ledger operations.
type Service struct {
	entries  storage.LedgerStore
	projects storage.ProjectStore
	hook     Hook
	log      *logging.Logger
}

// NewService creates the finance service.
func NewService(entries storage.LedgerStore, projects storage.ProjectStore, hook Hook, log *logging.Logger) *Service {
	if hook == nil {
		hook = NopHook{}
	}
	return &Service{entries: entries, projects: projects, hook: hook, log: log}
}

func (s *Service) ownedProject(ctx context.Context, userID, projectID string) error {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("project not found")
		}
		return errors.Internal("load project", err)
	}
	if p.UserID != userID {
		return errors.NotFound("project not found")
	}
	return nil
}

// RecordIncome appends an income entry. Zero and negative amounts are
// rejected; corrections are modeled as expense entries, not negative
// income.
func (s *Service) RecordIncome(ctx context.Context, userID, projectID string, amount float64, source string, date time.Time, recurring bool) (*ledger.IncomeEntry, error) {
	if amount <= 0 {
		return nil, errors.Validation("amount must be positive")
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.Validation("source is required")
	}
	if err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	e := &ledger.IncomeEntry{
		ProjectID: projectID,
		UserID:    userID,
		Amount:    amount,
		Source:    source,
		Date:      date,
		Recurring: recurring,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.entries.CreateIncome(ctx, e); err != nil {
		return nil, errors.Internal("create income entry", err)
	}

	s.hook.IncomeRecorded(ctx, e)
	s.log.WithFields(map[string]interface{}{
		"project_id": projectID,
		"amount":     amount,
	}).Info("income recorded")
	return e, nil
}

// RecordExpense appends an expense entry.
func (s *Service) RecordExpense(ctx context.Context, userID, projectID string, amount float64, category string, date time.Time) (*ledger.ExpenseEntry, error) {
	if amount <= 0 {
		return nil, errors.Validation("amount must be positive")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, errors.Validation("category is required")
	}
	if err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	e := &ledger.ExpenseEntry{
		ProjectID: projectID,
		UserID:    userID,
		Amount:    amount,
		Category:  category,
		Date:      date,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.entries.CreateExpense(ctx, e); err != nil {
		return nil, errors.Internal("create expense entry", err)
	}

	s.hook.ExpenseRecorded(ctx, e)
	s.log.WithFields(map[string]interface{}{
		"project_id": projectID,
		"amount":     amount,
	}).Info("expense recorded")
	return e, nil
}

// ListIncome returns a project's income entries newest first.
func (s *Service) ListIncome(ctx context.Context, userID, projectID string) ([]*ledger.IncomeEntry, error) {
	if err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	list, err := s.entries.ListIncome(ctx, projectID)
	if err != nil {
		return nil, errors.Internal("list income entries", err)
	}
	if list == nil {
		list = []*ledger.IncomeEntry{}
	}
	return list, nil
}

// ListExpenses returns a project's expense entries newest first.
func (s *Service) ListExpenses(ctx context.Context, userID, projectID string) ([]*ledger.ExpenseEntry, error) {
	if err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	list, err := s.entries.ListExpenses(ctx, projectID)
	if err != nil {
		return nil, errors.Internal("list expense entries", err)
	}
	if list == nil {
		list = []*ledger.ExpenseEntry{}
	}
	return list, nil
}
