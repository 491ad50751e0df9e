// Package commit builds ledger commitments and reveal payloads for the
// commit-reveal protocol.
//
// A commitment binds (actionValue, derivedSecret, player) into one 32-byte
// hash submitted during the commit phase. At reveal time the same secret is
// re-derived and paired with the original value; the ledger is the sole
// arbiter of whether the pair matches the stored commitment.
package commit

import (
	"crypto/sha256"
	"encoding/hex"

	"cosmossdk.io/log"

	"knockoutgames/gateway/internal/apperr"
	"knockoutgames/gateway/internal/hexutil"
	"knockoutgames/gateway/internal/secret"
)

// AddressLen is the byte length of a player identity.
const AddressLen = 20

// Deriver is the secret-derivation seam. Satisfied by *secret.Deriver.
type Deriver interface {
	Derive(scope secret.Scope) (string, error)
}

// Builder constructs commitments.
type Builder struct {
	deriver Deriver
	logger  log.Logger
}

// NewBuilder wires a Builder over a secret deriver.
func NewBuilder(deriver Deriver, logger log.Logger) *Builder {
	return &Builder{deriver: deriver, logger: logger.With("module", "commit")}
}

// ParseAddress validates and decodes a 0x-prefixed 20-byte hex identity.
// Unlike the fixed-width encoder this is strict: malformed identities are
// rejected, not normalized.
func ParseAddress(playerID string) ([AddressLen]byte, error) {
	var out [AddressLen]byte
	if len(playerID) != 2+2*AddressLen || playerID[0] != '0' || (playerID[1] != 'x' && playerID[1] != 'X') {
		return out, apperr.Validationf("player identity %q is not a 0x-prefixed 20-byte hex address", playerID)
	}
	raw, err := hex.DecodeString(playerID[2:])
	if err != nil {
		return out, apperr.Validationf("player identity %q is not valid hex", playerID)
	}
	copy(out[:], raw)
	return out, nil
}

// defaultScope is used when a caller supplies no explicit round scope. It
// pins round 0 of instance 0 for the kind, so commitments built without a
// round scope stay verifiable but never collide with a real round's secret.
func defaultScope(kind Kind) secret.Scope {
	return secret.Scope{GameKind: string(kind), InstanceID: "0", Round: 0}
}

// Pack lays out the commitment preimage in the fixed field order the ledger
// verifies: uint256 action value, bytes32 secret, 20-byte player identity.
func Pack(actionValue uint64, secretHex string, player [AddressLen]byte) []byte {
	value := hexutil.U256(actionValue)
	sec := hexutil.Bytes32(secretHex)
	return hexutil.Concat(value[:], sec[:], player[:])
}

// Hash is the ledger's commitment hash over a packed preimage.
func Hash(packed []byte) string {
	sum := sha256.Sum256(packed)
	return hexutil.FromBytes(sum[:])
}

// Build validates inputs, derives (or reuses) the round secret, and returns
// the 32-byte hex commitment for (actionValue, scope, playerID).
//
// A nil scope falls back to the kind's fixed default scope.
func (b *Builder) Build(kind Kind, actionValue uint64, scope *secret.Scope, playerID string) (string, error) {
	g, err := ByKind(kind)
	if err != nil {
		return "", err
	}
	if err := g.ValidateAction(actionValue); err != nil {
		return "", err
	}
	player, err := ParseAddress(playerID)
	if err != nil {
		return "", err
	}

	sc := b.resolveScope(kind, scope)
	secretHex, err := b.deriver.Derive(sc)
	if err != nil {
		return "", err
	}
	return Hash(Pack(actionValue, secretHex, player)), nil
}

func (b *Builder) resolveScope(kind Kind, scope *secret.Scope) secret.Scope {
	if scope == nil {
		b.logger.Warn("no round scope supplied; using default scope", "gameKind", kind)
		return defaultScope(kind)
	}
	sc := *scope
	if sc.GameKind == "" {
		sc.GameKind = string(kind)
	}
	return sc
}
