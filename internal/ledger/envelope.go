// Package ledger is the gateway's boundary to the authoritative chain: it
// normalizes heterogeneous ledger notifications into one envelope shape,
// decodes them into typed events, deduplicates, and defines the read/write
// seams the engine consumes.
package ledger

import "fmt"

// Envelope is the uniform shape every ledger notification is normalized to
// before anything downstream touches it.
type Envelope struct {
	// ContractID names the emitting contract (one per game kind).
	ContractID string `json:"contractId"`
	// Name is the event name within the contract.
	Name string `json:"eventName"`
	// DedupeKey is the originating transaction identity plus log position.
	// Two deliveries with the same key are the same event.
	DedupeKey string `json:"dedupeKey"`
	// Height is the ledger height the event was emitted at.
	Height int64 `json:"height"`
	// Attrs carries the raw string attributes; Decode turns them into a
	// typed event exactly once at this boundary.
	Attrs map[string]string `json:"attrs"`
}

// DedupeKey builds the canonical transaction+position key.
func DedupeKey(txHash []byte, logIndex int) string {
	return fmt.Sprintf("%X:%d", txHash, logIndex)
}

// InstanceID returns the event's instance routing attribute, if present.
func (e Envelope) InstanceID() string {
	return e.Attrs["instanceId"]
}
