package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"stock-lookup/configs"
	"stock-lookup/pkg/limiter"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const slotKey = "stock-lookup:db-connections"

type Redisdb struct {
	client *redis.Client
}

func NewRedis(conf *configs.Config) (*Redisdb, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Limits.RedisAddr,
		Password: conf.Limits.RedisPassword,
		DB:       conf.Limits.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis: %w", err)
	}
	return &Redisdb{client: rdb}, nil
}

func (r *Redisdb) Close() error {
	return r.client.Close()
}

// SlotCounter returns a limiter shared by every gateway instance pointed at
// the same Redis.
func (r *Redisdb) SlotCounter(max int, ttl time.Duration) *SlotCounter {
	return NewSlotCounter(r.client, slotKey, max, ttl)
}

// Each held slot is a member of a sorted set scored by its own expiry, so a
// slot leaked by a crashed instance lapses on its own deadline no matter how
// busy the key is, and the count can never go below zero.
const acquireScript = `
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`

const releaseScript = `return redis.call('ZREM', KEYS[1], ARGV[1])`

type scripter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// SlotCounter is a distributed counting semaphore on a single Redis key.
type SlotCounter struct {
	client scripter
	key    string
	max    int
	ttl    time.Duration
	poll   time.Duration
	now    func() time.Time
}

func NewSlotCounter(client scripter, key string, max int, ttl time.Duration) *SlotCounter {
	return &SlotCounter{
		client: client,
		key:    key,
		max:    max,
		ttl:    ttl,
		poll:   50 * time.Millisecond,
		now:    time.Now,
	}
}

func (s *SlotCounter) Acquire(ctx context.Context) (func(), error) {
	member := uuid.NewString()
	logger := zerolog.Ctx(ctx)

	for {
		now := s.now()
		ok, err := s.client.Eval(ctx, acquireScript, []string{s.key},
			s.max,
			strconv.FormatInt(now.UnixMilli(), 10),
			strconv.FormatInt(now.Add(s.ttl).UnixMilli(), 10),
			member,
			s.ttl.Milliseconds(),
		).Int64()
		if err != nil {
			if ctx.Err() != nil {
				return nil, limiter.ErrBusy
			}
			return nil, fmt.Errorf("redis slot counter: %w", err)
		}

		if ok == 1 {
			return limiter.Once(func() {
				relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := s.client.Eval(relCtx, releaseScript, []string{s.key}, member).Err(); err != nil {
					logger.Warn().Err(err).Str("slot", member).Msg("releasing redis connection slot")
				}
			}), nil
		}

		select {
		case <-ctx.Done():
			return nil, limiter.ErrBusy
		case <-time.After(s.poll):
		}
	}
}
