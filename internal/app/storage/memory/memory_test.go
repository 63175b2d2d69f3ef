package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/domain/session"
	"github.com/hustleboard/hustleboard/internal/app/domain/user"
	"github.com/hustleboard/hustleboard/internal/app/storage"
)

func TestUserStoreWalletLookup(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()

	u := &user.User{WalletAddress: "0xAbC"}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := store.GetUserByWallet(ctx, "0xAbC")
	if err != nil {
		t.Fatalf("GetUserByWallet: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("wallet lookup returned %q, want %q", got.ID, u.ID)
	}

	if _, err := store.GetUserByWallet(ctx, "0xMissing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserStoreUpdateDropsOldWalletKey(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()

	u := &user.User{WalletAddress: "0xOld"}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u.WalletAddress = "0xNew"
	if err := store.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if _, err := store.GetUserByWallet(ctx, "0xOld"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("stale wallet still resolves, err = %v", err)
	}
	got, err := store.GetUserByWallet(ctx, "0xNew")
	if err != nil {
		t.Fatalf("GetUserByWallet: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("new wallet resolved to %q, want %q", got.ID, u.ID)
	}
}

func TestUserStoreClonesOnReturn(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()

	u := &user.User{WalletAddress: "0x1"}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, _ := store.GetUser(ctx, u.ID)
	got.StreakDays = 99

	again, _ := store.GetUser(ctx, u.ID)
	if again.StreakDays != 0 {
		t.Fatal("mutation of a returned user leaked into the store")
	}
}

func TestProjectStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewProjectStore()

	base := time.Now()
	for i, name := range []string{"old", "mid", "new"} {
		p := &project.Project{
			UserID:    "u1",
			Name:      name,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject: %v", err)
		}
	}

	list, err := store.ListProjects(ctx, "u1")
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d projects, want 3", len(list))
	}
	if list[0].Name != "new" || list[2].Name != "old" {
		t.Fatalf("unexpected order: %s, %s, %s", list[0].Name, list[1].Name, list[2].Name)
	}
}

func TestSessionStoreFindActive(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	end := time.Now().Add(-time.Hour)
	closed := &session.Session{UserID: "u1", ProjectID: "p1", StartTime: end.Add(-time.Hour), EndTime: &end, Duration: 3600}
	open := &session.Session{UserID: "u1", ProjectID: "p1", StartTime: time.Now()}
	for _, s := range []*session.Session{closed, open} {
		if err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	got, err := store.FindActiveSession(ctx, "u1")
	if err != nil {
		t.Fatalf("FindActiveSession: %v", err)
	}
	if got.ID != open.ID {
		t.Fatalf("active session = %q, want %q", got.ID, open.ID)
	}

	if _, err := store.FindActiveSession(ctx, "u2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for user without sessions, got %v", err)
	}
}

func TestSessionStoreListUserSessionsRange(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		s := &session.Session{UserID: "u1", ProjectID: "p1", StartTime: base.AddDate(0, 0, i)}
		if err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	from := base.AddDate(0, 0, 1)
	list, err := store.ListUserSessions(ctx, "u1", &from, nil)
	if err != nil {
		t.Fatalf("ListUserSessions: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d sessions in range, want 2", len(list))
	}
}
