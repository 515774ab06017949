package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/dealerhub/domain"
	"github.com/fastygo/dealerhub/repository"
)

type identityCache struct {
	client *redislib.Client
	next   repository.IdentityRepository
	state  repository.AccessStateRepository
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewIdentityCache wraps an IdentityRepository with a Redis read-through cache
// for profile fields. Role, active flag and dealer status are read from state
// on every lookup and overwrite the cached copy, so deactivation and
// suspension apply to the next request. Cache failures fall back to next.
// A non-positive ttl disables caching and returns next unchanged.
func NewIdentityCache(
	client *redislib.Client,
	next repository.IdentityRepository,
	state repository.AccessStateRepository,
	ttl time.Duration,
	logger *zap.Logger,
) repository.IdentityRepository {
	if client == nil || state == nil || ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &identityCache{
		client: client,
		next:   next,
		state:  state,
		prefix: "identity:",
		ttl:    ttl,
		logger: logger,
	}
}

func (c *identityCache) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	state, err := c.state.GetAccessState(ctx, id)
	if err != nil {
		return nil, err
	}

	if identity, ok := c.cached(ctx, id); ok {
		if state.Apply(identity) {
			return identity, nil
		}
		c.logger.Debug("cached identity has a stale dealer link", zap.String("identity_id", id))
	}

	identity, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(identity)
	if err != nil {
		return identity, nil
	}
	if err := c.client.Set(ctx, c.key(id), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("identity cache write failed", zap.String("identity_id", id), zap.Error(err))
	}
	return identity, nil
}

func (c *identityCache) cached(ctx context.Context, id string) (*domain.Identity, bool) {
	payload, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redislib.Nil) {
			c.logger.Warn("identity cache read failed", zap.String("identity_id", id), zap.Error(err))
		}
		return nil, false
	}
	var identity domain.Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		c.logger.Warn("discarding undecodable cached identity", zap.String("identity_id", id))
		return nil, false
	}
	return &identity, true
}

func (c *identityCache) key(id string) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}
