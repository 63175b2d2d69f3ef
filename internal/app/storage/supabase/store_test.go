package supabase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/hustleboard/hustleboard/internal/app/domain/user"
	"github.com/hustleboard/hustleboard/internal/app/storage"
	supa "github.com/hustleboard/hustleboard/internal/supabase"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := supa.New(supa.Config{URL: srv.URL, APIKey: "anon"})
	if err != nil {
		t.Fatalf("supabase.New: %v", err)
	}
	return New(client)
}

func TestGetUserNotFoundMapsToStorageErr(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		w.Write([]byte(`{"code":"PGRST116","message":"no rows"}`))
	})

	_, err := store.GetUser(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound, got %v", err)
	}
}

func TestUpdateUserSendsNonce(t *testing.T) {
	var gotBody []byte
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`[]`))
	})

	u := &user.User{ID: "u1", WalletAddress: "0xabc", Nonce: "challenge-123"}
	if err := store.UpdateUser(context.Background(), u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if got := gjson.GetBytes(gotBody, "nonce").String(); got != "challenge-123" {
		t.Fatalf("nonce in payload = %q, want %q (body %s)", got, "challenge-123", gotBody)
	}
	if !gjson.GetBytes(gotBody, "farcaster_fid").Exists() {
		t.Fatalf("farcaster_fid missing from payload, clearing it is impossible (body %s)", gotBody)
	}
}

func TestGetUserByWalletReadsNonce(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"u1","wallet_address":"0xabc","nonce":"challenge-123","total_projects_tracked":2}`))
	})

	u, err := store.GetUserByWallet(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("GetUserByWallet: %v", err)
	}
	if u.Nonce != "challenge-123" {
		t.Fatalf("Nonce = %q, want %q", u.Nonce, "challenge-123")
	}
	if u.TotalProjectsTracked != 2 {
		t.Fatalf("TotalProjectsTracked = %d, want 2", u.TotalProjectsTracked)
	}
}

func TestFindActiveSessionQuery(t *testing.T) {
	var gotQuery string
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	})

	_, err := store.FindActiveSession(context.Background(), "u1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound for empty result, got %v", err)
	}

	want := "select=%2A&user_id=eq.u1&end_time=is.null&order=start_time.desc&limit=1"
	if gotQuery != want {
		t.Fatalf("query = %q, want %q", gotQuery, want)
	}
}

func TestDeleteProjectEmptyRepresentationIsNotFound(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	err := store.DeleteProject(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound, got %v", err)
	}
}
