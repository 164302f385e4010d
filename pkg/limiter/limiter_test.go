package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_BlocksAtCapacity(t *testing.T) {
	l := NewLocal(2)

	r1, err := l.Acquire(context.Background())
	require.NoError(t, err)
	r2, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, l.InUse())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, ErrBusy)

	r1()
	r1()
	assert.Equal(t, 1, l.InUse())

	r3, err := l.Acquire(context.Background())
	require.NoError(t, err)
	r2()
	r3()
	assert.Equal(t, 0, l.InUse())
}

func TestUnlimited(t *testing.T) {
	release, err := Unlimited{}.Acquire(context.Background())
	require.NoError(t, err)
	release()
}
