package ledger

import (
	"context"

	"knockoutgames/gateway/internal/state"
)

// Reader serves authoritative snapshots. Reads are ground truth for the
// instant they were taken and always safe to repeat.
type Reader interface {
	ReadInstance(ctx context.Context, gameKind, instanceID string) (*state.GameInstance, error)
}

// Writer submits transactions. Success or failure of the submitted action is
// only ever observed through subsequent reads, never assumed from the
// submission call alone.
type Writer interface {
	SubmitCommit(ctx context.Context, gameKind, instanceID string, round uint64, player, commitment string) error
	SubmitReveal(ctx context.Context, gameKind, instanceID string, round uint64, player string, actionValue uint64, secret string) error
	SubmitSettle(ctx context.Context, gameKind, instanceID string, round uint64, caller string) error
}

// Feed delivers normalized event envelopes for one (contract, instance)
// pair. The stream may duplicate, reorder, or omit events; consumers must be
// correct under all three.
type Feed interface {
	Subscribe(ctx context.Context, contractID, instanceID string) (<-chan Envelope, error)
	Unsubscribe(ctx context.Context, contractID, instanceID string) error
}
