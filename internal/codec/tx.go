package codec

import (
	"encoding/json"
	"fmt"
)

// TxEnvelope is the ledger transaction container.
//
// Ledger transactions are opaque bytes to the chain's transport. The gateway
// encodes JSON envelopes routed by type; the chain side decodes the same
// shape.
type TxEnvelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// Nonce keeps otherwise-identical tx bytes unique on resubmission.
	Nonce string `json:"nonce,omitempty"`
}

// EncodeTx wraps value in an envelope of the given type.
func EncodeTx(typ string, value any) ([]byte, error) {
	return EncodeTxWithNonce(typ, "", value)
}

// EncodeTxWithNonce wraps value in an envelope carrying a client nonce.
func EncodeTxWithNonce(typ, nonce string, value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode tx value: %w", err)
	}
	b, err := json.Marshal(TxEnvelope{Type: typ, Value: raw, Nonce: nonce})
	if err != nil {
		return nil, fmt.Errorf("encode tx envelope: %w", err)
	}
	return b, nil
}

// DecodeTxEnvelope parses envelope bytes and checks the routing type.
func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// Tx types understood by the knockout contracts.
const (
	TypeCommit = "knockout/commit"
	TypeReveal = "knockout/reveal"
	TypeSettle = "knockout/settle_expired"
)

// CommitTx stores a player's commitment for one round.
type CommitTx struct {
	GameKind   string `json:"gameKind"`
	InstanceID string `json:"instanceId"`
	Round      uint64 `json:"round"`
	Player     string `json:"player"`
	Commitment string `json:"commitment"` // 32-byte hex
}

// RevealTx submits the original action value plus the round secret; the
// ledger verifies the pair against the stored commitment.
type RevealTx struct {
	GameKind    string `json:"gameKind"`
	InstanceID  string `json:"instanceId"`
	Round       uint64 `json:"round"`
	Player      string `json:"player"`
	ActionValue uint64 `json:"actionValue"`
	Secret      string `json:"secret"` // 32-byte hex
}

// SettleTx asks the ledger to settle a round whose deadline elapsed without
// full participation.
type SettleTx struct {
	GameKind   string `json:"gameKind"`
	InstanceID string `json:"instanceId"`
	Round      uint64 `json:"round"`
	Caller     string `json:"caller,omitempty"`
}
