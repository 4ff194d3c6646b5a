package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codedError int

func (e codedError) Error() string { return "sqlite error" }
func (e codedError) Code() int     { return int(e) }

var fastPolicy = busyPolicy{attempts: 3, initial: time.Millisecond, max: 2 * time.Millisecond}

func TestBusyPolicyRecovers(t *testing.T) {
	calls := 0
	err := fastPolicy.run(context.Background(), "record run r1", func() error {
		calls++
		if calls < 3 {
			return codedError(sqliteBusyCode)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBusyPolicyExhausted(t *testing.T) {
	calls := 0
	err := fastPolicy.run(context.Background(), "record run r1", func() error {
		calls++
		return errors.New("database is locked")
	})
	require.ErrorIs(t, err, ErrStoreBusy)
	assert.Contains(t, err.Error(), "record run r1")
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestBusyPolicyPassesOtherErrors(t *testing.T) {
	boom := errors.New("constraint failed")
	calls := 0
	err := fastPolicy.run(context.Background(), "record run r1", func() error {
		calls++
		return boom
	})
	assert.Same(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestBusyPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := busyPolicy{attempts: 5, initial: time.Hour, max: time.Hour}
	err := slow.run(ctx, "record run r1", func() error { return codedError(sqliteBusyCode) })
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrStoreBusy)
}
