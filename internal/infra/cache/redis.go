package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/astro-web3/authz-gatekeeper/internal/domain/gatekeeper"
	"github.com/redis/go-redis/v9"
)

const dayLayout = "20060102"

// UsageTally keeps a per-tenant daily count of authorized requests. It is an
// accounting mirror only and never feeds back into authorization.
type UsageTally interface {
	Increment(ctx context.Context, req gatekeeper.Request, at time.Time) error
	Count(ctx context.Context, tenant string, day time.Time) (int64, error)
}

type redisTally struct {
	client    redis.Cmdable
	retention time.Duration
}

func NewRedisClient(url string, poolSize int) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if poolSize > 0 {
		opt.PoolSize = poolSize
	}

	client := redis.NewClient(opt)

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// NewUsageTally stores counters in client. Keys expire after retention;
// zero keeps them forever.
func NewUsageTally(client redis.Cmdable, retention time.Duration) UsageTally {
	return &redisTally{client: client, retention: retention}
}

func TallyKey(tenant string, day time.Time) string {
	return fmt.Sprintf("gatekeeper:usage:%s:%s", tenant, day.UTC().Format(dayLayout))
}

func (r *redisTally) Increment(ctx context.Context, req gatekeeper.Request, at time.Time) error {
	key := TallyKey(req.OrganizationName, at)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		if r.retention > 0 {
			pipe.Expire(ctx, key, r.retention)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment usage tally: %w", err)
	}

	return nil
}

func (r *redisTally) Count(ctx context.Context, tenant string, day time.Time) (int64, error) {
	n, err := r.client.Get(ctx, TallyKey(tenant, day)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage tally: %w", err)
	}
	return n, nil
}
