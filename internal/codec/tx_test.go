package codec

import (
	"encoding/json"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b, err := EncodeTx(TypeCommit, CommitTx{
		GameKind:   "descend",
		InstanceID: "7",
		Round:      3,
		Player:     "0xabc",
		Commitment: "deadbeef",
	})
	if err != nil {
		t.Fatalf("EncodeTx: %v", err)
	}

	env, err := DecodeTxEnvelope(b)
	if err != nil {
		t.Fatalf("DecodeTxEnvelope: %v", err)
	}
	if env.Type != TypeCommit {
		t.Fatalf("unexpected type: %q", env.Type)
	}

	var msg CommitTx
	if err := json.Unmarshal(env.Value, &msg); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if msg.InstanceID != "7" || msg.Round != 3 || msg.Commitment != "deadbeef" {
		t.Fatalf("value mismatch: %+v", msg)
	}
}

func TestDecodeTxEnvelope_IgnoresNonce(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"type":  TypeSettle,
		"nonce": "7",
		"value": map[string]any{"gameKind": "sigil", "instanceId": "1", "round": 2},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := DecodeTxEnvelope(b); err != nil {
		t.Fatalf("DecodeTxEnvelope: %v", err)
	}
}

func TestDecodeTxEnvelope_MissingType(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"value": map[string]any{"x": 1},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := DecodeTxEnvelope(b); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecodeTxEnvelope_InvalidJSON(t *testing.T) {
	if _, err := DecodeTxEnvelope([]byte("{not json")); err == nil {
		t.Fatalf("expected error")
	}
}
