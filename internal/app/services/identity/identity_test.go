package identity

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/storage/memory"
	"github.com/hustleboard/hustleboard/internal/errors"
	"github.com/hustleboard/hustleboard/internal/logging"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := logging.NewDefault("identity-test")
	log.SetOutput(io.Discard)
	return NewService(memory.NewUserStore(), AllowAll{}, Config{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}, log)
}

func TestNormalizeAddressChecksum(t *testing.T) {
	got, err := NormalizeAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	if err != nil {
		t.Fatalf("NormalizeAddress: %v", err)
	}
	want := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	if got != want {
		t.Fatalf("checksum = %q, want %q", got, want)
	}
}

func TestNormalizeAddressRejectsMalformed(t *testing.T) {
	for _, addr := range []string{"", "abc", "0x123", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaeZ"} {
		if _, err := NormalizeAddress(addr); err == nil {
			t.Fatalf("NormalizeAddress(%q) accepted a malformed address", addr)
		}
	}
}

func TestResolveOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first, err := svc.ResolveOrCreate(ctx, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}

	// Different case, same wallet.
	second, err := svc.ResolveOrCreate(ctx, "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", "fid-1")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same wallet resolved to two users: %q, %q", first.ID, second.ID)
	}
	if second.FarcasterFID != "fid-1" {
		t.Fatalf("farcaster fid not attached: %q", second.FarcasterFID)
	}
}

func TestSignInFlow(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	wallet := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"

	nonce, err := svc.Nonce(ctx, wallet)
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if nonce == "" {
		t.Fatal("empty nonce")
	}

	token, u, err := svc.SignIn(ctx, wallet, "any-signature")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != u.ID {
		t.Fatalf("token subject = %q, want %q", claims.Subject, u.ID)
	}
	if claims.Wallet != u.WalletAddress {
		t.Fatalf("token wallet = %q, want %q", claims.Wallet, u.WalletAddress)
	}
}

func TestSignInWithoutChallengeIsUnauthorized(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, _, err := svc.SignIn(ctx, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "sig")
	se := errors.GetServiceError(err)
	if se == nil || se.Code != errors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestParseTokenRejectsTampered(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.IssueToken("u1", "0xabc")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := svc.ParseToken(token + "x"); err == nil {
		t.Fatal("tampered token accepted")
	}
}
