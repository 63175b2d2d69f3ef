// Package identity resolves wallet addresses to users and issues
// session tokens. A wallet is the identity; there is no password and
// no email. Sign-in is a nonce challenge: the client fetches a nonce
// for its wallet, signs it, and exchanges the signature for a JWT.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/user"
	"github.com/hustleboard/hustleboard/internal/app/storage"
	"github.com/hustleboard/hustleboard/internal/errors"
	"github.com/hustleboard/hustleboard/internal/logging"
)

// Verifier checks that a signature over the nonce was produced by the
// wallet's key. Production wires an EIP-191 verifier; development and
// tests use AllowAll.
type Verifier interface {
	Verify(ctx context.Context, wallet, nonce, signature string) error
}

// AllowAll accepts any non-empty signature. Development only.
type AllowAll struct{}

func (AllowAll) Verify(ctx context.Context, wallet, nonce, signature string) error {
	if signature == "" {
		return errors.Unauthorized("signature is required")
	}
	return nil
}

// Config holds identity service settings.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Service implements the identity operations.
type Service struct {
	users     storage.UserStore
	verifier  Verifier
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *logging.Logger
}

// NewService creates the identity service.
func NewService(users storage.UserStore, verifier Verifier, cfg Config, log *logging.Logger) *Service {
	if verifier == nil {
		verifier = AllowAll{}
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		users:     users,
		verifier:  verifier,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  ttl,
		log:       log,
	}
}

// Nonce returns a fresh sign-in challenge for the wallet, creating the
// user on first contact.
func (s *Service) Nonce(ctx context.Context, wallet string) (string, error) {
	u, err := s.ResolveOrCreate(ctx, wallet, "")
	if err != nil {
		return "", err
	}

	u.Nonce = newNonce()
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return "", errors.Internal("store nonce", err)
	}
	return u.Nonce, nil
}

// SignIn verifies the signed nonce and issues a session token. The
// nonce is rotated on success so a captured signature cannot be
// replayed.
func (s *Service) SignIn(ctx context.Context, wallet, signature string) (string, *user.User, error) {
	normalized, err := NormalizeAddress(wallet)
	if err != nil {
		return "", nil, errors.Validation(err.Error())
	}

	u, err := s.users.GetUserByWallet(ctx, normalized)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return "", nil, errors.Unauthorized("no sign-in challenge for this wallet")
		}
		return "", nil, errors.Internal("load user", err)
	}
	if u.Nonce == "" {
		return "", nil, errors.Unauthorized("no sign-in challenge for this wallet")
	}

	if err := s.verifier.Verify(ctx, normalized, u.Nonce, signature); err != nil {
		return "", nil, err
	}

	u.Nonce = newNonce()
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return "", nil, errors.Internal("rotate nonce", err)
	}

	token, err := s.IssueToken(u.ID, u.WalletAddress)
	if err != nil {
		return "", nil, errors.Internal("issue token", err)
	}

	s.log.WithField("wallet", u.WalletAddress).Info("wallet signed in")
	return token, u, nil
}

// ResolveOrCreate returns the user for a wallet, creating the record
// on first contact. A provided farcaster fid replaces a differing
// stored one.
func (s *Service) ResolveOrCreate(ctx context.Context, wallet, farcasterFID string) (*user.User, error) {
	normalized, err := NormalizeAddress(wallet)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}

	u, err := s.users.GetUserByWallet(ctx, normalized)
	if err == nil {
		if farcasterFID != "" && u.FarcasterFID != farcasterFID {
			u.FarcasterFID = farcasterFID
			if err := s.users.UpdateUser(ctx, u); err != nil {
				return nil, errors.Internal("attach farcaster fid", err)
			}
		}
		return u, nil
	}
	if !stderrors.Is(err, storage.ErrNotFound) {
		return nil, errors.Internal("load user", err)
	}

	now := time.Now().UTC()
	u = &user.User{
		WalletAddress: normalized,
		FarcasterFID:  farcasterFID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, errors.Internal("create user", err)
	}

	s.log.WithField("wallet", normalized).Info("user created")
	return u, nil
}

// GetUser loads a user profile by id.
func (s *Service) GetUser(ctx context.Context, id string) (*user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("user not found")
		}
		return nil, errors.Internal("load user", err)
	}
	return u, nil
}

func newNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
