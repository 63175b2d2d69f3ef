package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL, APIKey: "anon-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, srv
}

func TestQueryBuilderURL(t *testing.T) {
	client, err := New(Config{URL: "https://proj.supabase.co", APIKey: "k"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := client.From("time_sessions").
		Select("*").
		Eq("user_id", "u1").
		Is("end_time", "null").
		Order("start_time", true).
		Limit(1).
		buildURL()

	want := "https://proj.supabase.co/rest/v1/time_sessions?select=%2A&user_id=eq.u1&end_time=is.null&order=start_time.desc&limit=1"
	if got != want {
		t.Fatalf("buildURL = %q, want %q", got, want)
	}
}

func TestQueryBuilderRangeFilters(t *testing.T) {
	client, err := New(Config{URL: "https://proj.supabase.co", APIKey: "k"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := client.From("time_sessions").
		Select("*").
		Gte("start_time", "2026-08-01T00:00:00Z").
		Lte("start_time", "2026-08-31T23:59:59Z").
		buildURL()

	want := "https://proj.supabase.co/rest/v1/time_sessions?select=%2A&start_time=gte.2026-08-01T00:00:00Z&start_time=lte.2026-08-31T23:59:59Z"
	if got != want {
		t.Fatalf("buildURL = %q, want %q", got, want)
	}
}

func TestExecuteSendsHeaders(t *testing.T) {
	var gotAuth, gotKey, gotPrefer string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		gotPrefer = r.Header.Get("Prefer")
		w.Write([]byte(`[{"id":"p1"}]`))
	})

	_, err := client.From("projects").Insert(map[string]string{"name": "x"}).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotAuth != "Bearer anon-key" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotKey != "anon-key" {
		t.Fatalf("apikey = %q", gotKey)
	}
	if gotPrefer != "return=representation" {
		t.Fatalf("Prefer = %q", gotPrefer)
	}
}

func TestSingleNotFoundIsDistinct(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		w.Write([]byte(`{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`))
	})

	_, err := client.From("users").Select("*").Eq("id", "missing").Single().Execute(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound = false for %v", err)
	}
}

func TestTransportErrorIsNotNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	})

	_, err := client.From("users").Select("*").Execute(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if IsNotFound(err) {
		t.Fatalf("IsNotFound = true for %v", err)
	}
}
