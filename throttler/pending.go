package throttler

import (
	"context"
	"time"
)

// DefaultPendingTimeout bounds the effect of a crashed worker: an
// in-flight counter that is never decremented self-heals after this long
// (spec.md §3, "PendingCounter").
const DefaultPendingTimeout = 200 * time.Second

func pendingKey(action string) string { return action + "_pending" }

// incrPending increments the distributed in-flight counter for action and
// returns the pre-increment value (the count of OTHER workers' in-flight
// requests this worker should fold into its local quota_level).
func (t *Throttler) incrPending(ctx context.Context, action string) (int, error) {
	after, err := t.store.Incr(ctx, pendingKey(action), 1, t.pendingTimeout)
	if err != nil {
		return 0, err
	}
	return after - 1, nil
}

// decrPending decrements the distributed in-flight counter for action,
// refreshing its TTL so a long-running call doesn't let the key expire
// mid-flight.
func (t *Throttler) decrPending(ctx context.Context, action string) error {
	if _, err := t.store.Incr(ctx, pendingKey(action), -1, 0); err != nil {
		return err
	}
	return t.store.Expire(ctx, pendingKey(action), t.pendingTimeout)
}
