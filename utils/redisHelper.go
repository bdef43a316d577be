package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/locallens/presence_backend/config"
)

// LocationLock serializes NAP sync runs per location. Two concurrent runs for
// the same location would race on the rolling health-score fields and double
// the request volume against the platform APIs.
//
// The returned release func is a no-op on error paths.
func LocationLock(ctx context.Context, locationId uint, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Avoid nil-pointer panics when Redis lock isn't initialized yet.
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", locationId, errors.New("redis lock is nil"))
		return func() {}, errors.New("service not ready (redis lock not initialized)")
	}

	lockKey := fmt.Sprintf("NAPSync:Location:%d", locationId)
	lock, err := locker.Obtain(ctx, lockKey, 2*time.Minute, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for location", locationId, err)
		return func() {}, errors.New("sync already running for location")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for location", locationId, err)
		return func() {}, err
	}

	return func() { _ = lock.Release(context.Background()) }, nil
}
