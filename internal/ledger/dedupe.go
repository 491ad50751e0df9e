package ledger

import (
	"context"

	"cosmossdk.io/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// dedupeCacheSize bounds the in-memory seen-set. Old keys aging out is
// acceptable: re-applying an event only triggers a redundant reconciling
// read, which is idempotent.
const dedupeCacheSize = 8192

// EventStore is the optional persistent backing for dedupe, satisfied by the
// journal. MarkEvent records the envelope and reports whether it was new.
type EventStore interface {
	MarkEvent(ctx context.Context, env Envelope) (bool, error)
}

// Deduper drops repeated deliveries of the same event by dedupe key.
type Deduper struct {
	seen   *lru.Cache[string, struct{}]
	store  EventStore
	logger log.Logger
}

// NewDeduper builds a Deduper; store may be nil for memory-only dedupe.
func NewDeduper(store EventStore, logger log.Logger) *Deduper {
	seen, _ := lru.New[string, struct{}](dedupeCacheSize)
	return &Deduper{seen: seen, store: store, logger: logger.With("module", "dedupe")}
}

// Observe reports whether env is fresh. The first delivery of a key returns
// true; every later delivery returns false. Store failures degrade to
// memory-only dedupe rather than blocking the event path.
func (d *Deduper) Observe(ctx context.Context, env Envelope) bool {
	if env.DedupeKey == "" {
		// No identity to dedupe on; pass it through.
		return true
	}
	if _, dup := d.seen.Get(env.DedupeKey); dup {
		return false
	}
	d.seen.Add(env.DedupeKey, struct{}{})

	if d.store != nil {
		fresh, err := d.store.MarkEvent(ctx, env)
		if err != nil {
			d.logger.Error("event journal write failed", "dedupeKey", env.DedupeKey, "err", err)
			return true
		}
		return fresh
	}
	return true
}
