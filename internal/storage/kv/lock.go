package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript deletes key only if it still holds the token this
// process set — a plain DEL would risk releasing a lock some other
// replica has since acquired after this one's lease expired.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// Lock is the Redis-backed distributed lock the reaper uses so multiple
// service replicas running the periodic sweep on the same schedule don't
// double-archive the same jobs, carried over from the original's
// RedisRepository.distributed_lock contextmanager.
type Lock struct {
	client *Client
}

// NewLock constructs a Lock around client.
func NewLock(client *Client) *Lock {
	return &Lock{client: client}
}

// Acquire attempts a SET NX PX for key. On success it returns a release
// func that must be called (typically deferred) to drop the lock early;
// on failure ok is false and release is nil, meaning another replica
// already holds it.
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context), ok bool, err error) {
	token := uuid.NewString()
	ok, err = l.client.Raw().SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release = func(releaseCtx context.Context) {
		releaseLockScript.Run(releaseCtx, l.client.Raw(), []string{key}, token)
	}
	return release, true, nil
}
