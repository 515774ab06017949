package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/dealerhub/domain"
	"github.com/fastygo/dealerhub/pkg/security"
	"github.com/fastygo/dealerhub/repository"
)

const (
	DefaultAccessTTL  = 60 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenCodec signs and verifies claim sets.
type TokenCodec interface {
	Encode(claims security.Claims, expiresAt time.Time) (string, error)
	Decode(raw string) (security.Claims, error)
}

// PasswordVerifier checks plaintext passwords against stored hashes.
type PasswordVerifier interface {
	Verify(password, hash string) bool
	VerifyDecoy(password string) bool
}

// Config holds token lifetimes.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// LoginResult carries the issued pair and the caller's profile for display.
type LoginResult struct {
	Tokens   domain.TokenPair
	Identity *domain.Identity
}

// Option configures the use case.
type Option func(*UseCase)

// WithClock overrides the issuance time source.
func WithClock(fn func() time.Time) Option {
	return func(uc *UseCase) {
		if fn != nil {
			uc.now = fn
		}
	}
}

type UseCase struct {
	credentials repository.CredentialRepository
	identities  repository.IdentityRepository
	passwords   PasswordVerifier
	tokens      TokenCodec
	cfg         Config
	now         func() time.Time
	logger      *zap.Logger
}

func New(
	credentials repository.CredentialRepository,
	identities repository.IdentityRepository,
	passwords PasswordVerifier,
	tokens TokenCodec,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *UseCase {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		credentials: credentials,
		identities:  identities,
		passwords:   passwords,
		tokens:      tokens,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Login verifies the username/password pair and issues a token pair.
// Unknown usernames, wrong passwords and inactive accounts share one error.
// The username is matched exactly as given.
func (uc *UseCase) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		uc.passwords.VerifyDecoy(password)
		return nil, domain.ErrInvalidCredentials
	}

	cred, err := uc.credentials.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			uc.passwords.VerifyDecoy(password)
			uc.logger.Debug("login rejected", zap.String("reason", "unknown_username"))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.WrapError(domain.ErrCodeInternal, "credential lookup failed", err)
	}

	if !uc.passwords.Verify(password, cred.PasswordHash) {
		uc.logger.Debug("login rejected", zap.String("reason", "password_mismatch"), zap.String("identity_id", cred.IdentityID))
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := uc.identities.GetByID(ctx, cred.IdentityID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.WrapError(domain.ErrCodeInternal, "identity lookup failed", err)
	}
	if !identity.IsActive() {
		uc.logger.Info("login rejected", zap.String("reason", "inactive"), zap.String("identity_id", identity.ID))
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := uc.issue(identity)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("login succeeded", zap.String("identity_id", identity.ID), zap.String("role", string(identity.Role)))
	return &LoginResult{Tokens: pair, Identity: identity}, nil
}

// Refresh exchanges a refresh token for a new pair. The subject is re-read
// from the identity store so deactivated accounts cannot keep minting tokens.
// Previously issued tokens remain valid until their own expiry.
func (uc *UseCase) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, domain.ErrRefreshTokenRequired
	}

	claims, err := uc.tokens.Decode(refreshToken)
	if err != nil || !claims.IsRefresh() {
		return nil, domain.ErrInvalidRefreshToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, domain.ErrInvalidRefreshToken
	}

	identity, err := uc.identities.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, domain.WrapError(domain.ErrCodeInternal, "identity lookup failed", err)
	}
	if !identity.IsActive() {
		uc.logger.Info("refresh rejected", zap.String("reason", "inactive"), zap.String("identity_id", identity.ID))
		return nil, domain.ErrInvalidRefreshToken
	}

	pair, err := uc.issue(identity)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (uc *UseCase) issue(identity *domain.Identity) (domain.TokenPair, error) {
	now := uc.now().UTC().Truncate(time.Second)

	claims := security.Claims{Role: string(identity.Role)}
	claims.Subject = identity.ID

	accessExp := now.Add(uc.cfg.AccessTTL)
	access, err := uc.tokens.Encode(claims, accessExp)
	if err != nil {
		return domain.TokenPair{}, domain.WrapError(domain.ErrCodeInternal, "token issuance failed", err)
	}

	claims.Type = security.TokenTypeRefresh
	refreshExp := now.Add(uc.cfg.RefreshTTL)
	refresh, err := uc.tokens.Encode(claims, refreshExp)
	if err != nil {
		return domain.TokenPair{}, domain.WrapError(domain.ErrCodeInternal, "token issuance failed", err)
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        domain.TokenTypeBearer,
		RefreshExpiresAt: refreshExp,
	}, nil
}
