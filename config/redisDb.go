package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

// GetRedisDB returns nil when REDIS_ADDRESS is not configured or not yet connected.
func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

// ConnectRedisWithRetry connects and sets the global Redis client + lock client.
// Redis is optional here: with no REDIS_ADDRESS it returns immediately, and after
// REDIS_CONNECT_TIMEOUT it gives up so the caller can run without the rate limiter
// and the cross-replica generation guard.
func ConnectRedisWithRetry(ctx context.Context) error {
	s := GetSettings()
	return connectRedis(ctx, s.RedisAddress, s.RedisConnectTimeout)
}

func connectRedis(ctx context.Context, redisAddr string, timeout time.Duration) error {
	if redisAddr == "" {
		log.Printf("REDIS_ADDRESS not set; redis features disabled")
		return nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var attempt int
	for {
		attempt++
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: "",
			DB:       0, // use default DB
			PoolSize: 100,
		})
		err := client.Ping(ctx).Err()
		if err == nil {
			rdb = client
			locker = redislock.New(rdb)
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return nil
		}
		_ = client.Close()

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis %s unavailable after %d attempts: %w", redisAddr, attempt, ctx.Err())
		case <-time.After(sleep):
		}
	}
}
