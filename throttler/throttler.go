// Package throttler implements the per-action leaky-bucket rate limiter
// that every outbound MWS/PA call passes through, with state shared across
// worker processes via a kvstore.Store (spec.md §4.3, §9).
package throttler

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/garrettmk/broccoli/kvstore"
	"github.com/garrettmk/broccoli/schemas"
)

// Throttler coordinates per-action quota across workers sharing a kvstore.
type Throttler struct {
	store          kvstore.Store
	logger         schemas.Logger
	pendingTimeout time.Duration
}

// New constructs a Throttler. pendingTimeout of 0 uses DefaultPendingTimeout.
func New(store kvstore.Store, logger schemas.Logger, pendingTimeout time.Duration) *Throttler {
	if pendingTimeout <= 0 {
		pendingTimeout = DefaultPendingTimeout
	}
	return &Throttler{store: store, logger: logger, pendingTimeout: pendingTimeout}
}

// Handle represents one acquired slot. Callers must pass it to Release,
// typically via defer, even if Acquire's context was cancelled mid-wait —
// once Acquire has incremented the pending counter it returns a usable
// handle alongside any error, so that increment is never leaked.
type Handle struct {
	action string
	usage  schemas.ActionUsage
	limits schemas.ActionLimits
	known  bool
}

// QuotaLevel returns the quota_level observed after this handle's Acquire
// completed, for callers that want to export it (e.g. as a gauge). Zero for
// an unknown-action handle.
func (h *Handle) QuotaLevel() int {
	if h == nil {
		return 0
	}
	return h.usage.QuotaLevel
}

func usageKey(action string) string { return action + "_usage" }

// restore decays quota_level toward zero based on elapsed time since
// last_request, at one token per restoreRate. When restoreRate is zero or
// last_request has never been set, it only sets last_request to now.
func restore(usage *schemas.ActionUsage, restoreRate time.Duration, now time.Time) {
	if restoreRate <= 0 || usage.LastRequest.IsZero() {
		usage.LastRequest = now
		return
	}
	elapsed := now.Sub(usage.LastRequest)
	decay := int(elapsed / restoreRate)
	if decay > 0 {
		usage.QuotaLevel -= decay
		if usage.QuotaLevel < 0 {
			usage.QuotaLevel = 0
		}
		usage.LastRequest = now
	}
}

// waitTime returns how long to wait before the next call is admitted under
// quotaMax, given the usage left by the most recent restore.
func waitTime(usage schemas.ActionUsage, quotaMax int, restoreRate time.Duration, now time.Time) time.Duration {
	if usage.QuotaLevel < quotaMax {
		return 0
	}
	elapsed := now.Sub(usage.LastRequest)
	owed := time.Duration(usage.QuotaLevel+1-quotaMax) * restoreRate
	wait := owed - elapsed
	if wait < 0 {
		return 0
	}
	return wait
}

func admit(usage *schemas.ActionUsage, now time.Time) {
	usage.QuotaLevel++
	usage.LastRequest = now
}

func loadUsage(ctx context.Context, store kvstore.Store, action string) (schemas.ActionUsage, error) {
	var usage schemas.ActionUsage
	raw, ok, err := store.Get(ctx, usageKey(action))
	if err != nil {
		return usage, err
	}
	if !ok {
		return usage, nil
	}
	if err := json.Unmarshal([]byte(raw), &usage); err != nil {
		// Records written by the legacy worker are a Python dict repr
		// (single-quoted keys/strings), not strict JSON. Retry once against
		// a quoting-normalized copy before giving up, per spec.md's "MUST
		// accept both on read" compatibility note.
		legacy := strings.ReplaceAll(raw, "'", "\"")
		if err := json.Unmarshal([]byte(legacy), &usage); err != nil {
			// Still unreadable: treat as absent rather than fatal. The
			// call is then admitted as if the bucket were empty and the
			// next saveUsage overwrites the record; the gateway never
			// gets stuck on it.
			return schemas.ActionUsage{}, nil
		}
	}
	return usage, nil
}

func saveUsage(ctx context.Context, store kvstore.Store, action string, usage schemas.ActionUsage) error {
	raw, err := json.Marshal(usage)
	if err != nil {
		return err
	}
	return store.Set(ctx, usageKey(action), string(raw), 0)
}

// Acquire blocks until action is admitted under its current quota,
// adjusted for priority and for the restore-rate nudge the calling
// section's ActionSpec carries. It returns a non-nil Handle for an action
// unknown to the limits table and whenever the pending counter was
// incremented — including when ctx is cancelled mid-wait — so the caller
// can unconditionally defer Release. A store error before that point
// returns a nil Handle, which Release also accepts.
func (t *Throttler) Acquire(ctx context.Context, action string, priority int, restoreAdjust time.Duration) (*Handle, error) {
	limits, known := DefaultLimits[action]
	if !known {
		return &Handle{action: action, known: false}, nil
	}
	if quotaMax, ok := resolveQuotaMax(action, priority); ok {
		limits.QuotaMax = quotaMax
	}
	limits.RestoreRate += restoreAdjust

	usage, err := loadUsage(ctx, t.store, action)
	if err != nil {
		return nil, err
	}

	pending, err := t.incrPending(ctx, action)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if pending > 0 {
		usage.QuotaLevel += pending
		usage.LastRequest = now
	}

	restore(&usage, limits.RestoreRate, now)
	wait := waitTime(usage, limits.QuotaMax, limits.RestoreRate, now)

	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return &Handle{action: action, usage: usage, limits: limits, known: true}, ctx.Err()
		}
	}

	// Restore again: tokens earned during the sleep are credited before
	// admit charges this call, so a long wait never overcharges.
	restore(&usage, limits.RestoreRate, time.Now())
	admit(&usage, time.Now())

	return &Handle{action: action, usage: usage, limits: limits, known: true}, nil
}

// Release persists the handle's usage and decrements the distributed
// pending counter. Safe to call on a Handle returned alongside an error
// (including ctx.Err() from a cancelled Acquire) and safe to call on an
// unknown-action Handle, where it is a no-op.
func (t *Throttler) Release(ctx context.Context, h *Handle) error {
	if h == nil || !h.known {
		return nil
	}
	if err := saveUsage(ctx, t.store, h.action, h.usage); err != nil {
		return err
	}
	return t.decrPending(ctx, h.action)
}
