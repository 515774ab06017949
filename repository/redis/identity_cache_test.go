package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/dealerhub/domain"
	"github.com/fastygo/dealerhub/pkg/security"
	"github.com/fastygo/dealerhub/usecase/access"
)

type countingRepo struct {
	mu         sync.Mutex
	calls      atomic.Int32
	stateCalls atomic.Int32
	identity   *domain.Identity
	err        error
}

func (r *countingRepo) GetByID(_ context.Context, _ string) (*domain.Identity, error) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	copied := *r.identity
	if r.identity.Dealer != nil {
		dealer := *r.identity.Dealer
		copied.Dealer = &dealer
	}
	return &copied, nil
}

func (r *countingRepo) GetAccessState(_ context.Context, _ string) (domain.AccessState, error) {
	r.stateCalls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return domain.AccessState{}, r.err
	}
	return domain.StateOf(r.identity), nil
}

func (r *countingRepo) update(fn func(*domain.Identity)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.identity)
}

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redislib.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleIdentity() *domain.Identity {
	address := "88 Harbour Rd"
	ts := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	return &domain.Identity{
		ID:       "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Username: "acme",
		Email:    "ops@acme.test",
		Role:     domain.RoleDealer,
		Active:   true,
		Dealer: &domain.DealerProfile{
			ID:          "d-1",
			CompanyName: "Acme",
			ContactName: "Li",
			Phone:       "123",
			Address:     &address,
			Status:      domain.DealerApproved,
		},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestIdentityCacheReadThrough(t *testing.T) {
	mr, client := newTestClient(t)
	repo := &countingRepo{identity: sampleIdentity()}
	cache := NewIdentityCache(client, repo, repo, 30*time.Second, nil)

	first, err := cache.GetByID(context.Background(), repo.identity.ID)
	require.NoError(t, err)
	second, err := cache.GetByID(context.Background(), repo.identity.ID)
	require.NoError(t, err)

	assert.Equal(t, int32(1), repo.calls.Load())
	assert.True(t, mr.Exists("identity:"+repo.identity.ID))
	assert.Equal(t, first.Username, second.Username)
	require.NotNil(t, second.Dealer)
	assert.Equal(t, domain.DealerApproved, second.Dealer.Status)
	assert.Equal(t, "88 Harbour Rd", *second.Dealer.Address)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
}

func TestIdentityCacheExpires(t *testing.T) {
	mr, client := newTestClient(t)
	repo := &countingRepo{identity: sampleIdentity()}
	cache := NewIdentityCache(client, repo, repo, 10*time.Second, nil)

	_, err := cache.GetByID(context.Background(), repo.identity.ID)
	require.NoError(t, err)

	mr.FastForward(11 * time.Second)

	_, err = cache.GetByID(context.Background(), repo.identity.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.calls.Load())
}

func TestIdentityCacheDoesNotCacheMisses(t *testing.T) {
	mr, client := newTestClient(t)
	repo := &countingRepo{err: domain.ErrIdentityNotFound}
	cache := NewIdentityCache(client, repo, repo, time.Minute, nil)

	_, err := cache.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
	assert.False(t, mr.Exists("identity:missing"))
}

func TestIdentityCacheFallsBackWhenRedisUnavailable(t *testing.T) {
	mr, client := newTestClient(t)
	repo := &countingRepo{identity: sampleIdentity()}
	cache := NewIdentityCache(client, repo, repo, time.Minute, nil)
	mr.Close()

	identity, err := cache.GetByID(context.Background(), repo.identity.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.identity.ID, identity.ID)
}

func TestIdentityCacheDisabled(t *testing.T) {
	_, client := newTestClient(t)
	repo := &countingRepo{identity: sampleIdentity()}

	assert.Same(t, repo, NewIdentityCache(client, repo, repo, 0, nil))
	assert.Same(t, repo, NewIdentityCache(nil, repo, repo, time.Minute, nil))
	assert.Same(t, repo, NewIdentityCache(client, repo, nil, time.Minute, nil))
}

func TestIdentityCacheAppliesFreshAccessState(t *testing.T) {
	_, client := newTestClient(t)
	repo := &countingRepo{identity: sampleIdentity()}
	cache := NewIdentityCache(client, repo, repo, time.Minute, nil)
	ctx := context.Background()

	_, err := cache.GetByID(ctx, repo.identity.ID)
	require.NoError(t, err)

	repo.update(func(identity *domain.Identity) {
		identity.Active = false
		identity.Dealer.Status = domain.DealerSuspended
	})

	identity, err := cache.GetByID(ctx, repo.identity.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.calls.Load())
	assert.Equal(t, int32(2), repo.stateCalls.Load())
	assert.False(t, identity.IsActive())
	assert.False(t, identity.Dealer.IsApproved())
	assert.Equal(t, "Acme", identity.Dealer.CompanyName)
}

func TestIdentityCacheReloadsWhenDealerLinkChanges(t *testing.T) {
	_, client := newTestClient(t)
	repo := &countingRepo{identity: sampleIdentity()}
	cache := NewIdentityCache(client, repo, repo, time.Minute, nil)
	ctx := context.Background()

	_, err := cache.GetByID(ctx, repo.identity.ID)
	require.NoError(t, err)

	repo.update(func(identity *domain.Identity) { identity.Dealer = nil })

	identity, err := cache.GetByID(ctx, repo.identity.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.calls.Load())
	assert.Nil(t, identity.Dealer)
}

func TestGuardSeesDeactivationThroughCache(t *testing.T) {
	_, client := newTestClient(t)
	repo := &countingRepo{identity: sampleIdentity()}
	cache := NewIdentityCache(client, repo, repo, time.Minute, nil)

	codec, err := security.NewTokenCodec("cache-secret", "HS256")
	require.NoError(t, err)
	claims := security.Claims{Role: string(domain.RoleDealer)}
	claims.Subject = repo.identity.ID
	token, err := codec.Encode(claims, time.Now().Add(time.Hour))
	require.NoError(t, err)

	guard := access.NewGuard(cache, codec, nil)
	ctx := context.Background()

	identity, err := guard.Authenticate(ctx, token)
	require.NoError(t, err)
	require.NoError(t, access.RequireApprovedDealer(identity))

	repo.update(func(identity *domain.Identity) { identity.Dealer.Status = domain.DealerSuspended })
	identity, err = guard.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.ErrorIs(t, access.RequireApprovedDealer(identity), domain.ErrDealerNotApproved)

	repo.update(func(identity *domain.Identity) { identity.Active = false })
	_, err = guard.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}
