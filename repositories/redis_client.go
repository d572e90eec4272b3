package repositories

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"catalog-pipeline/domain"
)

type RunGuard interface {
	MarkVisited(ctx context.Context, scope, url string) (bool, error)
}

// RedisRunGuard keeps a visited set per ingestion scope so concurrent
// operator runs do not scrape the same page twice.
type redisRunGuard struct {
	client *redis.Client
}

func NewRedisRunGuard(host, port string) RunGuard {
	rdb := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port),
	})
	return &redisRunGuard{client: rdb}
}

// MarkVisited atomically records url under the scope's visited set and
// reports whether this call was the first to see it.
func (g *redisRunGuard) MarkVisited(ctx context.Context, scope, url string) (bool, error) {
	key := fmt.Sprintf(domain.RedisKeyVisited, scope)
	added, err := g.client.SAdd(ctx, key, url).Result()
	if err != nil {
		return false, err
	}
	return added > 0, nil
}
