package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrStoreBusy reports a write that kept hitting a locked database after
// every retry was spent.
var ErrStoreBusy = errors.New("history database is busy")

const sqliteBusyCode = 5

// busyPolicy bounds how long a history write waits out a concurrent writer.
type busyPolicy struct {
	attempts int
	initial  time.Duration
	max      time.Duration
}

var defaultBusyPolicy = busyPolicy{attempts: 5, initial: 10 * time.Millisecond, max: 200 * time.Millisecond}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// run calls fn until it succeeds, fails with a non-busy error, or the policy
// runs out. Exhaustion is reported as ErrStoreBusy naming the operation.
func (p busyPolicy) run(ctx context.Context, op string, fn func() error) error {
	delay := p.initial
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		if attempt >= p.attempts {
			return fmt.Errorf("%s: %w after %d attempts: %w", op, ErrStoreBusy, attempt, err)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		delay = min(delay*2, p.max)
	}
}
