package journal

import (
	"context"
	"path/filepath"
	"testing"

	"knockoutgames/gateway/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMarkEvent_FirstInsertWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	env := ledger.Envelope{
		ContractID: "descend",
		Name:       "RoundStarted",
		DedupeKey:  "AABB:0",
		Height:     12,
	}

	fresh, err := s.MarkEvent(ctx, env)
	if err != nil {
		t.Fatalf("MarkEvent: %v", err)
	}
	if !fresh {
		t.Fatalf("first insert must be fresh")
	}

	again, err := s.MarkEvent(ctx, env)
	if err != nil {
		t.Fatalf("MarkEvent repeat: %v", err)
	}
	if again {
		t.Fatalf("repeat insert must not be fresh")
	}

	n, err := s.EventCount(ctx)
	if err != nil {
		t.Fatalf("EventCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 journaled event, got %d", n)
	}
}

func TestCommitmentRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordCommitment(ctx, "descend", "7", 3, "0xabc", "cafe01"); err != nil {
		t.Fatalf("RecordCommitment: %v", err)
	}
	got, err := s.Commitment(ctx, "descend", "7", 3, "0xabc")
	if err != nil {
		t.Fatalf("Commitment: %v", err)
	}
	if got != "cafe01" {
		t.Fatalf("commitment mismatch: %q", got)
	}

	// Identical inputs re-recorded keep the same value.
	if err := s.RecordCommitment(ctx, "descend", "7", 3, "0xabc", "cafe01"); err != nil {
		t.Fatalf("RecordCommitment repeat: %v", err)
	}

	missing, err := s.Commitment(ctx, "descend", "7", 4, "0xabc")
	if err != nil {
		t.Fatalf("Commitment missing: %v", err)
	}
	if missing != "" {
		t.Fatalf("expected empty commitment for unknown round, got %q", missing)
	}
}
