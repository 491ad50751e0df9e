// Package secret derives per-round commit-reveal secrets from a single
// process-wide master secret.
//
// Derivation is a pure function of (master secret, round scope), so no
// per-round secret ever needs to be persisted: recomputation is always safe
// and always produces the same value. The cache is an optimization only.
package secret

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"cosmossdk.io/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"knockoutgames/gateway/internal/apperr"
	"knockoutgames/gateway/internal/hexutil"
)

// secretDomainV1 keeps derived secrets disjoint from any other sha256 use in
// the protocol.
const secretDomainV1 = "kog/secret/v1"

// DefaultCacheSize bounds the derivation cache. A long-lived gateway serving
// many rounds must not grow without bound; eviction is harmless because
// derivation is pure.
const DefaultCacheSize = 4096

// Scope identifies one commit/reveal cycle of one game instance. It is
// deterministic and known to all participants.
type Scope struct {
	GameKind   string
	InstanceID string
	Round      uint64
}

// Canonical returns the canonical scope string hashed into the derived secret.
func (s Scope) Canonical() string {
	return fmt.Sprintf("%s|%s|%d", s.GameKind, s.InstanceID, s.Round)
}

// Validate rejects scopes whose fields are empty or not decimal-representable.
func (s Scope) Validate() error {
	if strings.TrimSpace(s.GameKind) == "" {
		return apperr.Validationf("scope gameKind is empty")
	}
	id := strings.TrimSpace(s.InstanceID)
	if id == "" {
		return apperr.Validationf("scope instanceId is empty")
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return apperr.Validationf("scope instanceId %q is not a decimal string", s.InstanceID)
		}
	}
	return nil
}

// Deriver computes (and caches) derived secrets.
type Deriver struct {
	master []byte
	cache  *lru.Cache[string, string]
	logger log.Logger
}

// NewDeriver builds a Deriver over the process master secret. An empty master
// secret is a fatal misconfiguration.
func NewDeriver(master string, logger log.Logger) (*Deriver, error) {
	if master == "" {
		return nil, apperr.Configurationf("master secret is not set")
	}
	cache, err := lru.New[string, string](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("secret cache: %w", err)
	}
	return &Deriver{
		master: []byte(master),
		cache:  cache,
		logger: logger.With("module", "secret"),
	}, nil
}

// Derive returns the 32-byte fixed-width hex secret for scope.
//
// Identical inputs always yield the identical output, across cache eviction
// and across process restarts with the same master secret.
func (d *Deriver) Derive(scope Scope) (string, error) {
	if d == nil || len(d.master) == 0 {
		return "", apperr.Configurationf("master secret is not set")
	}
	if err := scope.Validate(); err != nil {
		return "", err
	}

	key := scope.Canonical()
	if cached, ok := d.cache.Get(key); ok {
		return cached, nil
	}

	h := sha256.New()
	h.Write([]byte(secretDomainV1))
	h.Write([]byte{0})
	h.Write(d.master)
	h.Write([]byte{0})
	h.Write([]byte(key))
	derived := hexutil.ToFixedWidthHex(hex.EncodeToString(h.Sum(nil)))

	// Concurrent duplicate derivation of the same key is harmless; Add keeps
	// whichever insert lands last and both values are identical.
	d.cache.Add(key, derived)
	return derived, nil
}
