package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

// RedisConfigured reports whether REDIS_ADDRESS is set. Without it the service runs
// as a single instance and relies on the in-process inventory lock only.
func RedisConfigured() bool {
	return strings.TrimSpace(os.Getenv("REDIS_ADDRESS")) != ""
}

// ConnectRedisWithRetry connects and sets the global Redis client + lock client.
// REDIS_CONNECT_MAX_ATTEMPTS bounds the retries (0 = retry forever).
func ConnectRedisWithRetry(ctx context.Context) error {
	redisAddr := strings.TrimSpace(os.Getenv("REDIS_ADDRESS"))
	if redisAddr == "" {
		return fmt.Errorf("REDIS_ADDRESS is required")
	}

	maxAttempts := intFromEnv("REDIS_CONNECT_MAX_ATTEMPTS", 0)
	logger := GetLogger()
	for attempt := 1; ; attempt++ {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intFromEnv("REDIS_DB", 0),
		})
		err := client.Ping(ctx).Err()
		if err == nil {
			rdb = client
			locker = redislock.New(rdb)
			LogInfo(logger, "redisDb.go", "ConnectRedisWithRetry", "connected to redis", logrus.Fields{"attempt": attempt, "addr": redisAddr})
			return nil
		}
		_ = client.Close()

		if maxAttempts > 0 && attempt >= maxAttempts {
			return fmt.Errorf("connect redis after %d attempts: %w", attempt, err)
		}
		sleep := backoff(attempt)
		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"addr":    redisAddr,
			"retry":   sleep.String(),
		}).Warn("failed to connect redis: " + err.Error())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

func CloseRedis() {
	if rdb != nil {
		_ = rdb.Close()
	}
}
