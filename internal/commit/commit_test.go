package commit

import (
	"strings"
	"testing"

	"cosmossdk.io/log"

	"knockoutgames/gateway/internal/apperr"
	"knockoutgames/gateway/internal/secret"
)

const testPlayer = "0xabcabcabcabcabcabcabcabcabcabcabcabcabca"

func newTestPair(t *testing.T) (*Builder, *Coordinator) {
	t.Helper()
	d, err := secret.NewDeriver("commit-test-master", log.NewNopLogger())
	if err != nil {
		t.Fatalf("NewDeriver: %v", err)
	}
	logger := log.NewNopLogger()
	return NewBuilder(d, logger), NewCoordinator(d, logger)
}

func TestBuild_DeterministicAndRoundSensitive(t *testing.T) {
	b, _ := newTestPair(t)
	scope := &secret.Scope{GameKind: "descend", InstanceID: "7", Round: 3}

	first, err := b.Build(KindDescend, 2, scope, testPlayer)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	again, err := b.Build(KindDescend, 2, scope, testPlayer)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if again != first {
		t.Fatalf("identical inputs produced different commitments")
	}

	next := &secret.Scope{GameKind: "descend", InstanceID: "7", Round: 4}
	other, err := b.Build(KindDescend, 2, next, testPlayer)
	if err != nil {
		t.Fatalf("Build round 4: %v", err)
	}
	if other == first {
		t.Fatalf("changing only the round must change the commitment")
	}
}

func TestBuildThenReveal_RoundTrip(t *testing.T) {
	b, c := newTestPair(t)
	scope := &secret.Scope{GameKind: "descend", InstanceID: "7", Round: 3}

	commitment, err := b.Build(KindDescend, 4, scope, testPlayer)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	payload, err := c.PrepareReveal(KindDescend, scope, 4)
	if err != nil {
		t.Fatalf("PrepareReveal: %v", err)
	}
	if payload.ActionValue != 4 {
		t.Fatalf("payload action mismatch: %d", payload.ActionValue)
	}

	player, err := ParseAddress(testPlayer)
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	recomputed := Hash(Pack(payload.ActionValue, payload.Secret, player))
	if recomputed != commitment {
		t.Fatalf("reveal pair does not reproduce commitment: %q != %q", recomputed, commitment)
	}
}

func TestBuild_ActionBoundaries(t *testing.T) {
	b, _ := newTestPair(t)
	scope := &secret.Scope{GameKind: "descend", InstanceID: "1", Round: 1}

	cases := []struct {
		kind  Kind
		value uint64
		ok    bool
	}{
		{KindDescend, 0, true},
		{KindDescend, 5, true},
		{KindDescend, 6, false},
		{KindSigil, 1, true},
		{KindSigil, 3, true},
		{KindSigil, 0, false},
		{KindSigil, 4, false},
		{KindAuction, 1, true},
		{KindAuction, 1 << 40, true},
		{KindAuction, 0, false},
	}
	for _, tc := range cases {
		sc := *scope
		sc.GameKind = string(tc.kind)
		_, err := b.Build(tc.kind, tc.value, &sc, testPlayer)
		if tc.ok && err != nil {
			t.Fatalf("%s action=%d: unexpected error %v", tc.kind, tc.value, err)
		}
		if !tc.ok && !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("%s action=%d: expected validation error, got %v", tc.kind, tc.value, err)
		}
	}
}

func TestBuild_InvalidPlayer(t *testing.T) {
	b, _ := newTestPair(t)
	scope := &secret.Scope{GameKind: "descend", InstanceID: "1", Round: 1}
	bad := []string{"", "abc", "0x1234", "0x" + strings.Repeat("g", 40), testPlayer + "00"}
	for _, p := range bad {
		if _, err := b.Build(KindDescend, 1, scope, p); !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("player %q: expected validation error, got %v", p, err)
		}
	}
}

func TestBuild_UnknownKind(t *testing.T) {
	b, _ := newTestPair(t)
	if _, err := b.Build(Kind("roulette"), 1, nil, testPlayer); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuild_DefaultScope(t *testing.T) {
	b, c := newTestPair(t)

	first, err := b.Build(KindSigil, 2, nil, testPlayer)
	if err != nil {
		t.Fatalf("Build with nil scope: %v", err)
	}
	again, err := b.Build(KindSigil, 2, nil, testPlayer)
	if err != nil {
		t.Fatalf("Build with nil scope: %v", err)
	}
	if first != again {
		t.Fatalf("default scope must be stable")
	}

	// Reveal against the default scope reproduces the commitment.
	payload, err := c.PrepareReveal(KindSigil, nil, 2)
	if err != nil {
		t.Fatalf("PrepareReveal: %v", err)
	}
	player, _ := ParseAddress(testPlayer)
	if Hash(Pack(2, payload.Secret, player)) != first {
		t.Fatalf("default-scope reveal does not match commitment")
	}
}

func TestRevealSecret_MatchesDeriver(t *testing.T) {
	_, c := newTestPair(t)
	scope := &secret.Scope{GameKind: "auction", InstanceID: "9", Round: 2}
	s1, err := c.RevealSecret(KindAuction, scope)
	if err != nil {
		t.Fatalf("RevealSecret: %v", err)
	}
	payload, err := c.PrepareReveal(KindAuction, scope, 10)
	if err != nil {
		t.Fatalf("PrepareReveal: %v", err)
	}
	if payload.Secret != s1 {
		t.Fatalf("reveal payload secret must equal the commitment secret")
	}
}
