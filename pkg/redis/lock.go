package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLockHeld = errors.New("lock already held")

// Locker hands out exclusive, expiring locks keyed by name.
type Locker interface {
	// Lock returns ErrLockHeld when another holder owns key.
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, err error)
}

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	rdb redis.Scripter
	set func(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd
}

func NewLocker(rdb *redis.Client) Locker {
	return &redisLocker{rdb: rdb, set: rdb.SetNX}
}

func (l *redisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}

	ok, err := l.set(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
	}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
