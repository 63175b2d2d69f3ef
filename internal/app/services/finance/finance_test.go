package finance

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/ledger"
	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/storage/memory"
	"github.com/hustleboard/hustleboard/internal/errors"
	"github.com/hustleboard/hustleboard/internal/logging"
)

type recordingHook struct {
	mu       sync.Mutex
	income   []*ledger.IncomeEntry
	expenses []*ledger.ExpenseEntry
}

func (h *recordingHook) IncomeRecorded(_ context.Context, e *ledger.IncomeEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.income = append(h.income, e)
}

func (h *recordingHook) ExpenseRecorded(_ context.Context, e *ledger.ExpenseEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.expenses = append(h.expenses, e)
}

func newTestService(t *testing.T) (*Service, *recordingHook, string) {
	t.Helper()
	log := logging.NewDefault("finance-test")
	log.SetOutput(io.Discard)

	projects := memory.NewProjectStore()
	p := &project.Project{UserID: "u1", Name: "Shop", Category: project.CategoryBuilding}
	if err := projects.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	hook := &recordingHook{}
	return NewService(memory.NewLedgerStore(), projects, hook, log), hook, p.ID
}

func TestRecordIncomeFiresHook(t *testing.T) {
	ctx := context.Background()
	svc, hook, projectID := newTestService(t)

	e, err := svc.RecordIncome(ctx, "u1", projectID, 49.99, "stripe", time.Now(), true)
	if err != nil {
		t.Fatalf("RecordIncome: %v", err)
	}
	if e.ID == "" {
		t.Fatal("entry has no id")
	}
	if len(hook.income) != 1 {
		t.Fatalf("hook fired %d times, want 1", len(hook.income))
	}

	list, err := svc.ListIncome(ctx, "u1", projectID)
	if err != nil {
		t.Fatalf("ListIncome: %v", err)
	}
	if len(list) != 1 || !list[0].Recurring {
		t.Fatalf("unexpected income list: %+v", list)
	}
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	svc, _, projectID := newTestService(t)

	for _, amount := range []float64{0, -5} {
		_, err := svc.RecordIncome(ctx, "u1", projectID, amount, "stripe", time.Now(), false)
		se := errors.GetServiceError(err)
		if se == nil || se.Code != errors.CodeValidation {
			t.Fatalf("amount %v accepted: %v", amount, err)
		}
		_, err = svc.RecordExpense(ctx, "u1", projectID, amount, "hosting", time.Now())
		se = errors.GetServiceError(err)
		if se == nil || se.Code != errors.CodeValidation {
			t.Fatalf("expense amount %v accepted: %v", amount, err)
		}
	}
}

func TestRecordAgainstForeignProjectIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _, projectID := newTestService(t)

	_, err := svc.RecordExpense(ctx, "intruder", projectID, 12, "ads", time.Now())
	se := errors.GetServiceError(err)
	if se == nil || se.Code != errors.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}
