package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/stock_ledger/config"
)

const mutationLockTTL = 30 * time.Second

// ObtainMutationLock takes the inventory-wide redis lock so only one logical actor
// mutates stock at a time across instances. When redis is not configured it is a
// no-op. The returned release func is always non-nil.
func ObtainMutationLock(ctx context.Context, scope string, moduleName string, functionName string) (func(), error) {
	noop := func() {}
	if !config.RedisConfigured() {
		return noop, nil
	}

	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", scope, errors.New("redis lock is nil"))
		return noop, ErrorServiceNotReady
	}

	lockKey := fmt.Sprintf("stockLock:%s", scope)
	lock, err := locker.Obtain(ctx, lockKey, mutationLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "Could not obtain mutation lock", scope, err)
		return noop, errors.New("inventory is busy, try again")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining mutation lock", scope, err)
		return noop, err
	}

	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			config.LogError(logger, moduleName, functionName, "Release mutation lock", scope, releaseErr)
		}
	}, nil
}
