package reports

import (
	"time"

	"github.com/mmdropship/settlements_backend/config"
)

func cacheGet[T any](key string, dest *T) (bool, error) {
	return config.GetRedisObject(key, dest)
}

func cacheSet(key string, obj any, ttl time.Duration) error {
	return config.SetRedisObject(key, obj, ttl)
}

func cacheDrop(keys ...string) {
	if len(keys) == 0 {
		return
	}
	_ = config.RemoveRedisKey(keys...)
}
