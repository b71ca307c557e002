package browser

import (
	"context"
	"time"
)

// Pause waits d or until ctx is done. LawSystem's widgets expose no ready
// signal, so the form choreography relies on fixed pauses between steps.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
