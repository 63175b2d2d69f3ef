package projects

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/ledger"
	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/domain/session"
	"github.com/hustleboard/hustleboard/internal/app/domain/user"
	"github.com/hustleboard/hustleboard/internal/app/storage/memory"
	"github.com/hustleboard/hustleboard/internal/errors"
	"github.com/hustleboard/hustleboard/internal/logging"
)

type testEnv struct {
	svc      *Service
	users    *memory.UserStore
	sessions *memory.SessionStore
	ledger   *memory.LedgerStore
	userID   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logging.NewDefault("projects-test")
	log.SetOutput(io.Discard)

	users := memory.NewUserStore()
	sessions := memory.NewSessionStore()
	entries := memory.NewLedgerStore()
	svc := NewService(memory.NewProjectStore(), sessions, entries, users, log)

	u := &user.User{WalletAddress: "0x1"}
	if err := users.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return &testEnv{svc: svc, users: users, sessions: sessions, ledger: entries, userID: u.ID}
}

func TestCreateDefaults(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, err := env.svc.Create(ctx, env.userID, "  SaaS Dashboard  ", "building")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name != "SaaS Dashboard" {
		t.Fatalf("name = %q, want trimmed", p.Name)
	}
	if p.Status != project.StatusActive {
		t.Fatalf("status = %q, want active", p.Status)
	}
	if p.WeeklySignal != project.SignalYellow {
		t.Fatalf("signal = %q, want yellow", p.WeeklySignal)
	}

	u, _ := env.users.GetUser(ctx, env.userID)
	if u.TotalProjectsTracked != 1 {
		t.Fatalf("TotalProjectsTracked = %d, want 1", u.TotalProjectsTracked)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.svc.Create(ctx, env.userID, "", "building"); errors.GetServiceError(err) == nil {
		t.Fatalf("empty name accepted: %v", err)
	}
	if _, err := env.svc.Create(ctx, env.userID, "x", "cooking"); errors.GetServiceError(err) == nil {
		t.Fatalf("invalid category accepted: %v", err)
	}
}

func TestGetHidesOtherUsersProjects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, err := env.svc.Create(ctx, env.userID, "Mine", "building")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = env.svc.Get(ctx, "someone-else", p.ID)
	se := errors.GetServiceError(err)
	if se == nil || se.Code != errors.CodeNotFound {
		t.Fatalf("expected not_found for foreign project, got %v", err)
	}
}

func TestUpdateEmptyPatchIsNoOp(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, err := env.svc.Create(ctx, env.userID, "Newsletter", "marketing")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := env.svc.Update(ctx, env.userID, p.ID, project.Patch{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.UpdatedAt.Equal(p.UpdatedAt) {
		t.Fatal("empty patch touched the record")
	}
}

func TestUpdateAppliesFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, err := env.svc.Create(ctx, env.userID, "Newsletter", "marketing")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	status := project.StatusKilled
	got, err := env.svc.Update(ctx, env.userID, p.ID, project.Patch{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != project.StatusKilled {
		t.Fatalf("status = %q, want killed", got.Status)
	}
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, err := env.svc.Create(ctx, env.userID, "Shop", "building")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	end := time.Now()
	env.sessions.CreateSession(ctx, &session.Session{
		ProjectID: p.ID, UserID: env.userID,
		StartTime: end.Add(-time.Hour), EndTime: &end, Duration: 3600,
		Category: project.CategoryBuilding,
	})
	env.ledger.CreateIncome(ctx, &ledger.IncomeEntry{ProjectID: p.ID, UserID: env.userID, Amount: 10, Source: "sale", Date: end})

	if err := env.svc.Delete(ctx, env.userID, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if sessions, _ := env.sessions.ListProjectSessions(ctx, p.ID); len(sessions) != 0 {
		t.Fatalf("sessions survived delete: %d", len(sessions))
	}
	if income, _ := env.ledger.ListIncome(ctx, p.ID); len(income) != 0 {
		t.Fatalf("income entries survived delete: %d", len(income))
	}
}

func TestDeleteRefusedWhileSessionRuns(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, err := env.svc.Create(ctx, env.userID, "Shop", "building")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.sessions.CreateSession(ctx, &session.Session{
		ProjectID: p.ID, UserID: env.userID,
		StartTime: time.Now(), Category: project.CategoryBuilding,
	})

	err = env.svc.Delete(ctx, env.userID, p.ID)
	se := errors.GetServiceError(err)
	if se == nil || se.Code != errors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
