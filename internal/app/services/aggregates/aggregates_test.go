package aggregates

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/ledger"
	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/domain/session"
	"github.com/hustleboard/hustleboard/internal/app/storage/memory"
	"github.com/hustleboard/hustleboard/internal/logging"
)

func newRecorder(t *testing.T) (*Recorder, *memory.ProjectStore, string) {
	t.Helper()
	log := logging.NewDefault("aggregates-test")
	log.SetOutput(io.Discard)

	projects := memory.NewProjectStore()
	p := &project.Project{UserID: "u1", Name: "Shop", Category: project.CategoryBuilding}
	if err := projects.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return NewRecorder(projects, log), projects, p.ID
}

func TestTotalsRollForward(t *testing.T) {
	ctx := context.Background()
	rec, projects, projectID := newRecorder(t)

	end := time.Now()
	rec.SessionStopped(ctx, &session.Session{ProjectID: projectID, Duration: 3600, EndTime: &end})
	rec.SessionStopped(ctx, &session.Session{ProjectID: projectID, Duration: 1800, EndTime: &end})
	rec.IncomeRecorded(ctx, &ledger.IncomeEntry{ProjectID: projectID, Amount: 100})
	rec.IncomeRecorded(ctx, &ledger.IncomeEntry{ProjectID: projectID, Amount: 50.5})
	rec.ExpenseRecorded(ctx, &ledger.ExpenseEntry{ProjectID: projectID, Amount: 25})

	p, err := projects.GetProject(ctx, projectID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.TotalTimeInvested != 5400 {
		t.Fatalf("TotalTimeInvested = %d, want 5400", p.TotalTimeInvested)
	}
	if p.TotalRevenue != 150.5 {
		t.Fatalf("TotalRevenue = %v, want 150.5", p.TotalRevenue)
	}
	if p.TotalExpenses != 25 {
		t.Fatalf("TotalExpenses = %v, want 25", p.TotalExpenses)
	}
}

func TestMissingProjectIsSkippedQuietly(t *testing.T) {
	ctx := context.Background()
	rec, _, _ := newRecorder(t)

	// Must not panic or error; just log and move on.
	rec.IncomeRecorded(ctx, &ledger.IncomeEntry{ProjectID: "gone", Amount: 10})
}
