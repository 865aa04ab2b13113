package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"shortcut/pkg/ulid"
)

// releaseScript deletes the lease key only while it still carries this
// holder's token, so a lease that expired and was re-acquired elsewhere is
// never released by its previous holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// JobLease is a Redis-backed lease granting one holder at a time, used to
// keep a scheduled job single-writer across worker instances. The TTL bounds
// how long a crashed holder can block the next acquisition.
type JobLease struct {
	redis *RedisDB
	key   string
	ttl   time.Duration
	token string
}

// NewJobLease builds a lease on key with a per-instance token.
func NewJobLease(redis *RedisDB, key string, ttl time.Duration) *JobLease {
	return &JobLease{redis: redis, key: key, ttl: ttl, token: ulid.New().String()}
}

// Acquire attempts to take the lease. Returns false when another holder has it.
func (l *JobLease) Acquire(ctx context.Context) (bool, error) {
	return l.redis.Client.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

// Release returns the lease if this instance still holds it.
func (l *JobLease) Release(ctx context.Context) {
	_ = releaseScript.Run(ctx, l.redis.Client, []string{l.key}, l.token).Err()
}
