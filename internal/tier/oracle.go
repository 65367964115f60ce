package tier

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const premiumCacheTTL = 5 * time.Minute
const premiumKeyPrefix = "qbot:premium:"

// SubscriptionStore implements PremiumOracle against the subscriptions table
// with a Redis cache in front. The cache is advisory: any Redis failure
// falls through to Postgres, and any Postgres failure surfaces as an oracle
// error the resolver absorbs.
type SubscriptionStore struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewSubscriptionStore(db *pgxpool.Pool, rdb *redis.Client) *SubscriptionStore {
	return &SubscriptionStore{db: db, redis: rdb}
}

func (s *SubscriptionStore) IsPremium(ctx context.Context, identityKey string) (bool, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, premiumKeyPrefix+identityKey).Result()
		if err == nil {
			return cached == "1", nil
		}
	}

	premium, err := s.lookupDB(ctx, identityKey)
	if err != nil {
		return false, err
	}

	if s.redis != nil {
		val := "0"
		if premium {
			val = "1"
		}
		s.redis.Set(ctx, premiumKeyPrefix+identityKey, val, premiumCacheTTL)
	}

	return premium, nil
}

func (s *SubscriptionStore) lookupDB(ctx context.Context, identityKey string) (bool, error) {
	var premium bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE user_id = $1
			  AND status = 'active'
			  AND expires_at > NOW()
		)
	`, identityKey).Scan(&premium)
	if err != nil {
		return false, fmt.Errorf("query subscriptions: %w", err)
	}
	return premium, nil
}
