package commit

import (
	"cosmossdk.io/log"

	"knockoutgames/gateway/internal/secret"
)

// RevealPayload pairs the original action value with the round secret for
// submission to the ledger. Consumed exactly once per player per round.
type RevealPayload struct {
	ActionValue uint64 `json:"actionValue"`
	Secret      string `json:"secret"`
}

// Coordinator prepares reveal payloads. It performs no local commitment
// check: storing the original action value to pre-validate would defeat
// commit-reveal, and the ledger is the sole arbiter of a match.
type Coordinator struct {
	deriver Deriver
	logger  log.Logger
}

// NewCoordinator wires a Coordinator over a secret deriver.
func NewCoordinator(deriver Deriver, logger log.Logger) *Coordinator {
	return &Coordinator{deriver: deriver, logger: logger.With("module", "reveal")}
}

// PrepareReveal re-derives the round secret (derivation is pure, so the
// result is identical to the one used at commit time) and pairs it with the
// caller's original action value.
//
// A nil scope falls back to the kind's fixed default scope, matching Build.
func (c *Coordinator) PrepareReveal(kind Kind, scope *secret.Scope, actionValue uint64) (RevealPayload, error) {
	g, err := ByKind(kind)
	if err != nil {
		return RevealPayload{}, err
	}
	if err := g.ValidateAction(actionValue); err != nil {
		return RevealPayload{}, err
	}

	sc := c.resolveScope(kind, scope)
	secretHex, err := c.deriver.Derive(sc)
	if err != nil {
		return RevealPayload{}, err
	}
	return RevealPayload{ActionValue: actionValue, Secret: secretHex}, nil
}

// RevealSecret returns just the round secret for a caller entitled to reveal.
func (c *Coordinator) RevealSecret(kind Kind, scope *secret.Scope) (string, error) {
	if _, err := ByKind(kind); err != nil {
		return "", err
	}
	return c.deriver.Derive(c.resolveScope(kind, scope))
}

func (c *Coordinator) resolveScope(kind Kind, scope *secret.Scope) secret.Scope {
	if scope == nil {
		c.logger.Warn("no round scope supplied; using default scope", "gameKind", kind)
		return defaultScope(kind)
	}
	sc := *scope
	if sc.GameKind == "" {
		sc.GameKind = string(kind)
	}
	return sc
}
