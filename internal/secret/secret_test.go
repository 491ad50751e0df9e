package secret

import (
	"testing"

	"cosmossdk.io/log"

	"knockoutgames/gateway/internal/apperr"
)

func newTestDeriver(t *testing.T) *Deriver {
	t.Helper()
	d, err := NewDeriver("test-master-secret", log.NewNopLogger())
	if err != nil {
		t.Fatalf("NewDeriver: %v", err)
	}
	return d
}

func TestDerive_Deterministic(t *testing.T) {
	d := newTestDeriver(t)
	scope := Scope{GameKind: "descend", InstanceID: "7", Round: 3}

	first, err := d.Derive(scope)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	for i := 0; i < 5; i++ {
		again, err := d.Derive(scope)
		if err != nil {
			t.Fatalf("Derive: %v", err)
		}
		if again != first {
			t.Fatalf("derivation not deterministic: %q != %q", again, first)
		}
	}
}

func TestDerive_SurvivesCacheEviction(t *testing.T) {
	d := newTestDeriver(t)
	scope := Scope{GameKind: "descend", InstanceID: "7", Round: 3}
	first, err := d.Derive(scope)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	d.cache.Purge()
	again, err := d.Derive(scope)
	if err != nil {
		t.Fatalf("Derive after purge: %v", err)
	}
	if again != first {
		t.Fatalf("derivation changed across eviction: %q != %q", again, first)
	}
}

func TestDerive_SurvivesRestart(t *testing.T) {
	scope := Scope{GameKind: "auction", InstanceID: "42", Round: 1}
	d1 := newTestDeriver(t)
	d2 := newTestDeriver(t)
	s1, err := d1.Derive(scope)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	s2, err := d2.Derive(scope)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("same master secret must derive same value across processes")
	}
}

func TestDerive_DistinctScopes(t *testing.T) {
	d := newTestDeriver(t)
	base := Scope{GameKind: "descend", InstanceID: "7", Round: 3}
	variants := []Scope{
		{GameKind: "sigil", InstanceID: "7", Round: 3},
		{GameKind: "descend", InstanceID: "8", Round: 3},
		{GameKind: "descend", InstanceID: "7", Round: 4},
	}
	ref, err := d.Derive(base)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	for _, v := range variants {
		got, err := d.Derive(v)
		if err != nil {
			t.Fatalf("Derive(%+v): %v", v, err)
		}
		if got == ref {
			t.Fatalf("scope %+v collided with base scope", v)
		}
	}
}

func TestDerive_ScopeValidation(t *testing.T) {
	d := newTestDeriver(t)
	bad := []Scope{
		{GameKind: "", InstanceID: "1"},
		{GameKind: "descend", InstanceID: ""},
		{GameKind: "descend", InstanceID: "abc"},
	}
	for _, scope := range bad {
		if _, err := d.Derive(scope); !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("scope %+v: expected validation error, got %v", scope, err)
		}
	}
}

func TestNewDeriver_MissingMaster(t *testing.T) {
	_, err := NewDeriver("", log.NewNopLogger())
	if !apperr.IsKind(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
