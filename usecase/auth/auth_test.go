package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/dealerhub/domain"
	"github.com/fastygo/dealerhub/pkg/security"
)

const (
	adminID  = "0b6f5f0e-8f4e-4c59-9f5e-1a1a1a1a1a1a"
	dealerID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

type memoryStore struct {
	identities  map[string]*domain.Identity
	credentials map[string]*domain.Credential
	err         error
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	identity, ok := s.identities[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	copied := *identity
	return &copied, nil
}

func (s *memoryStore) GetByUsername(_ context.Context, username string) (*domain.Credential, error) {
	if s.err != nil {
		return nil, s.err
	}
	cred, ok := s.credentials[username]
	if !ok {
		return nil, domain.ErrCredentialNotFound
	}
	return cred, nil
}

type countingHasher struct {
	*security.PasswordHasher
	decoys int
}

func (h *countingHasher) VerifyDecoy(password string) bool {
	h.decoys++
	return h.PasswordHasher.VerifyDecoy(password)
}

type fixture struct {
	uc     *UseCase
	store  *memoryStore
	hasher *countingHasher
	codec  *security.TokenCodec
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher := &countingHasher{PasswordHasher: security.NewPasswordHasher(bcrypt.MinCost)}
	adminHash, err := hasher.Hash("admin123")
	require.NoError(t, err)
	dealerHash, err := hasher.Hash("dealer123")
	require.NoError(t, err)

	store := &memoryStore{
		identities: map[string]*domain.Identity{
			adminID:  {ID: adminID, Username: "admin", Role: domain.RoleAdmin, Active: true},
			dealerID: {ID: dealerID, Username: "acme", Role: domain.RoleDealer, Active: true},
		},
		credentials: map[string]*domain.Credential{
			"admin": {IdentityID: adminID, Username: "admin", PasswordHash: adminHash},
			"acme":  {IdentityID: dealerID, Username: "acme", PasswordHash: dealerHash},
		},
	}

	now := time.Date(2026, 5, 10, 9, 30, 15, 500_000_000, time.UTC)
	clock := func() time.Time { return now }
	codec, err := security.NewTokenCodec("test-secret", "HS256", security.WithClock(clock))
	require.NoError(t, err)

	uc := New(store, store, hasher, codec, Config{AccessTTL: time.Hour}, nil, WithClock(clock))
	return &fixture{uc: uc, store: store, hasher: hasher, codec: codec, now: now}
}

func TestLoginIssuesAccessAndRefreshTokens(t *testing.T) {
	f := newFixture(t)

	result, err := f.uc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, domain.TokenTypeBearer, result.Tokens.TokenType)
	assert.Equal(t, adminID, result.Identity.ID)

	access, err := f.codec.Decode(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, adminID, access.Subject)
	assert.Equal(t, "admin", access.Role)
	assert.False(t, access.IsRefresh())

	issuedAt := f.now.Truncate(time.Second)
	assert.Equal(t, issuedAt.Add(time.Hour).Unix(), access.ExpiresAt.Unix())
	assert.Equal(t, issuedAt.Add(7*24*time.Hour), result.Tokens.RefreshExpiresAt)

	refresh, err := f.codec.Decode(result.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.IsRefresh())
	assert.Equal(t, "admin", refresh.Role)
	assert.Equal(t, issuedAt.Add(7*24*time.Hour).Unix(), refresh.ExpiresAt.Unix())
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.store.identities[dealerID].Active = false

	cases := map[string][2]string{
		"wrong password":   {"admin", "wrong"},
		"unknown username": {"nobody", "admin123"},
		"inactive account": {"acme", "dealer123"},
		"empty username":   {"", "admin123"},
		"empty password":   {"admin", ""},
		"padded username":  {" admin ", "admin123"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := f.uc.Login(context.Background(), in[0], in[1])
			assert.Nil(t, result)
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidCredentials))
		})
	}
}

func TestLoginUnknownUsernameRunsDecoyComparison(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Login(context.Background(), "ghost", "whatever")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, 1, f.hasher.decoys)

	_, err = f.uc.Login(context.Background(), "admin", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, 1, f.hasher.decoys)
}

func TestLoginStoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("db down")

	_, err := f.uc.Login(context.Background(), "admin", "admin123")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
	assert.False(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestRefreshIssuesNewPairWithCurrentRole(t *testing.T) {
	f := newFixture(t)
	login, err := f.uc.Login(context.Background(), "acme", "dealer123")
	require.NoError(t, err)

	f.store.identities[dealerID].Role = domain.RoleAdmin

	pair, err := f.uc.Refresh(context.Background(), login.Tokens.RefreshToken)
	require.NoError(t, err)

	access, err := f.codec.Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, dealerID, access.Subject)
	assert.Equal(t, "admin", access.Role)
	assert.False(t, access.IsRefresh())

	refresh, err := f.codec.Decode(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.IsRefresh())
}

func TestRefreshRejections(t *testing.T) {
	f := newFixture(t)
	login, err := f.uc.Login(context.Background(), "acme", "dealer123")
	require.NoError(t, err)

	_, err = f.uc.Refresh(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrRefreshTokenRequired)

	_, err = f.uc.Refresh(context.Background(), login.Tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken, "access token must not refresh")

	_, err = f.uc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	nonUUID, err := f.codec.Encode(security.Claims{Type: security.TokenTypeRefresh, Role: "admin"}, f.now.Add(time.Hour))
	require.NoError(t, err)
	_, err = f.uc.Refresh(context.Background(), nonUUID)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	f.store.identities[dealerID].Active = false
	_, err = f.uc.Refresh(context.Background(), login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	delete(f.store.identities, dealerID)
	_, err = f.uc.Refresh(context.Background(), login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestRefreshExpiredToken(t *testing.T) {
	f := newFixture(t)
	login, err := f.uc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	later := f.now.Add(8 * 24 * time.Hour)
	codec, err := security.NewTokenCodec("test-secret", "HS256", security.WithClock(func() time.Time { return later }))
	require.NoError(t, err)
	uc := New(f.store, f.store, f.hasher, codec, Config{}, nil, WithClock(func() time.Time { return later }))

	_, err = uc.Refresh(context.Background(), login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestNewAppliesDefaultLifetimes(t *testing.T) {
	uc := New(nil, nil, nil, nil, Config{}, nil)
	assert.Equal(t, DefaultAccessTTL, uc.cfg.AccessTTL)
	assert.Equal(t, DefaultRefreshTTL, uc.cfg.RefreshTTL)
}
