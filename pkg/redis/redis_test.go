package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"stock-lookup/pkg/limiter"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScripter runs the slot scripts against an in-memory sorted set.
type fakeScripter struct {
	mu         sync.Mutex
	sets       map[string]map[string]int64
	releaseErr error
}

func newFakeScripter() *fakeScripter {
	return &fakeScripter{sets: map[string]map[string]int64{}}
}

func argInt(v interface{}) int64 {
	n, _ := strconv.ParseInt(fmt.Sprint(v), 10, 64)
	return n
}

func (f *fakeScripter) Eval(_ context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := f.sets[keys[0]]
	if set == nil {
		set = map[string]int64{}
		f.sets[keys[0]] = set
	}

	switch script {
	case acquireScript:
		max, now, expiry, member := argInt(args[0]), argInt(args[1]), argInt(args[2]), fmt.Sprint(args[3])
		for m, score := range set {
			if score <= now {
				delete(set, m)
			}
		}
		if int64(len(set)) >= max {
			return redis.NewCmdResult(int64(0), nil)
		}
		set[member] = expiry
		return redis.NewCmdResult(int64(1), nil)
	case releaseScript:
		if f.releaseErr != nil {
			return redis.NewCmdResult(nil, f.releaseErr)
		}
		member := fmt.Sprint(args[0])
		if _, ok := set[member]; !ok {
			return redis.NewCmdResult(int64(0), nil)
		}
		delete(set, member)
		return redis.NewCmdResult(int64(1), nil)
	default:
		return redis.NewCmdResult(nil, errors.New("unknown script"))
	}
}

func (f *fakeScripter) held(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sets[key])
}

func newTestCounter(fs *fakeScripter, max int, ttl time.Duration) *SlotCounter {
	sc := NewSlotCounter(fs, "k", max, ttl)
	sc.poll = time.Millisecond
	return sc
}

func TestSlotCounter_AcquireRelease(t *testing.T) {
	fs := newFakeScripter()
	sc := newTestCounter(fs, 1, time.Minute)

	release, err := sc.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fs.held("k"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = sc.Acquire(ctx)
	assert.ErrorIs(t, err, limiter.ErrBusy)
	assert.Equal(t, 1, fs.held("k"))

	release()
	release()
	assert.Equal(t, 0, fs.held("k"))
}

func TestSlotCounter_WaitsForFreedSlot(t *testing.T) {
	fs := newFakeScripter()
	sc := newTestCounter(fs, 1, time.Minute)

	release, err := sc.Acquire(context.Background())
	require.NoError(t, err)

	go func() {
		time.Sleep(5 * time.Millisecond)
		release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	second, err := sc.Acquire(ctx)
	require.NoError(t, err)
	second()
	assert.Equal(t, 0, fs.held("k"))
}

func TestSlotCounter_LeakedSlotExpiresUnderLoad(t *testing.T) {
	fs := newFakeScripter()
	sc := newTestCounter(fs, 2, time.Minute)

	clock := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	sc.now = func() time.Time { return clock }

	// Never released, as if the owning instance crashed.
	_, err := sc.Acquire(context.Background())
	require.NoError(t, err)

	// Steady traffic on the other slot keeps the key alive.
	for i := 0; i < 5; i++ {
		clock = clock.Add(20 * time.Second)
		release, err := sc.Acquire(context.Background())
		require.NoError(t, err)
		release()
	}

	clock = clock.Add(time.Second)
	r1, err := sc.Acquire(context.Background())
	require.NoError(t, err)
	r2, err := sc.Acquire(context.Background())
	require.NoError(t, err, "leaked slot should have lapsed")
	assert.Equal(t, 2, fs.held("k"))
	r1()
	r2()
}

func TestSlotCounter_ReleaseAfterExpiryNeverOverAdmits(t *testing.T) {
	fs := newFakeScripter()
	sc := newTestCounter(fs, 1, time.Minute)

	clock := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	sc.now = func() time.Time { return clock }

	stale, err := sc.Acquire(context.Background())
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	fresh, err := sc.Acquire(context.Background())
	require.NoError(t, err)

	stale()
	assert.Equal(t, 1, fs.held("k"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = sc.Acquire(ctx)
	assert.ErrorIs(t, err, limiter.ErrBusy)
	fresh()
}

func TestSlotCounter_ReleaseErrorDoesNotPanic(t *testing.T) {
	fs := newFakeScripter()
	sc := newTestCounter(fs, 1, time.Minute)

	release, err := sc.Acquire(context.Background())
	require.NoError(t, err)

	fs.releaseErr = errors.New("connection reset")
	assert.NotPanics(t, release)
}
