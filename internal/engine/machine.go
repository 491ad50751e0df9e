// Package engine keeps each watched game instance's local view consistent
// with the authoritative ledger.
//
// Events are hints, not truth: every handler updates phase/round/timer
// fields optimistically for responsiveness and then unconditionally triggers
// a reconciling read. That makes the handler set idempotent under duplicated
// events and convergent under reordered or dropped ones; the worst outcome
// of a lost event is brief staleness until the next read.
package engine

import (
	"knockoutgames/gateway/internal/apperr"
	"knockoutgames/gateway/internal/ledger"
	"knockoutgames/gateway/internal/state"
)

// applyEvent folds one typed event into the instance view. Only lifecycle,
// phase, round and deadline fields are touched; player records are mutated
// exclusively by reconciliation against authoritative reads.
//
// An event implying an edge outside the legal set returns an
// InconsistentTransition error and leaves the view untouched; the caller
// logs and drops it, and the next read self-corrects.
func applyEvent(gi *state.GameInstance, ev ledger.Event) error {
	switch e := ev.(type) {
	case ledger.GameStarted:
		return transition(gi, state.LifecycleActive, state.PhaseCommit, firstRound(gi), 0)
	case ledger.RoundStarted:
		return transition(gi, state.LifecycleActive, state.PhaseCommit, e.Round, e.Deadline)
	case ledger.RevealPhaseStarted:
		return transition(gi, state.LifecycleActive, state.PhaseReveal, e.Round, e.Deadline)
	case ledger.RoundExpired:
		return transition(gi, state.LifecycleWaiting, state.PhaseNone, e.Round, 0)
	case ledger.GameCompleted:
		return transition(gi, state.LifecycleCompleted, state.PhaseNone, gi.CurrentRound, 0)
	case ledger.CommitRecorded, ledger.RevealRecorded, ledger.PlayerEliminated, ledger.Unknown:
		// Record-level facts; no phase edge to apply. The reconciling read
		// the caller schedules picks up the authoritative record state.
		return nil
	}
	return nil
}

func firstRound(gi *state.GameInstance) uint64 {
	if gi.CurrentRound == 0 {
		return 1
	}
	return gi.CurrentRound
}

func transition(gi *state.GameInstance, lc state.Lifecycle, phase state.Phase, round uint64, deadline int64) error {
	edge := gi.EdgeTo(lc, phase, round)
	if !edge.Legal() {
		return apperr.New(apperr.KindInconsistentTransition, "event implies illegal edge %s", edge)
	}
	gi.Lifecycle = lc
	gi.RoundPhase = phase
	gi.CurrentRound = round
	if deadline != 0 {
		gi.RoundDeadline = deadline
	}
	return nil
}

// snapshotChanges reports the one-shot flips a reconciling read produced.
type snapshotChanges struct {
	eliminated []string // tracked players whose record flipped inactive
	completed  bool
	winner     string
}

// applySnapshot reconciles the view against an authoritative read. The read
// is truth for the instant it was taken: it may fast-forward past any number
// of missed events, but it may not imply an edge the legal transitions
// cannot compose (leaving Completed, rewinding a round). Such a snapshot is
// dropped as inconsistent.
func applySnapshot(gi *state.GameInstance, snap *state.GameInstance, tracked []string) (snapshotChanges, error) {
	var ch snapshotChanges
	if snap == nil {
		return ch, apperr.New(apperr.KindInconsistentTransition, "nil snapshot")
	}

	edge := gi.EdgeTo(snap.Lifecycle, snap.RoundPhase, snap.CurrentRound)
	if !edge.Reachable() {
		return ch, apperr.New(apperr.KindInconsistentTransition, "read implies unreachable edge %s", edge)
	}

	wasActive := map[string]bool{}
	for _, p := range tracked {
		if rec := gi.Player(p); rec != nil && rec.IsActive {
			wasActive[p] = true
		}
	}
	wasCompleted := gi.Lifecycle == state.LifecycleCompleted

	gi.Lifecycle = snap.Lifecycle
	gi.RoundPhase = snap.RoundPhase
	gi.CurrentRound = snap.CurrentRound
	gi.RoundDeadline = snap.RoundDeadline

	gi.Players = map[string]*state.PlayerRoundRecord{}
	for id, rec := range snap.Players {
		cp := *rec
		gi.Players[id] = &cp
	}

	for _, p := range tracked {
		if !wasActive[p] {
			continue
		}
		if rec := gi.Player(p); rec == nil || !rec.IsActive {
			ch.eliminated = append(ch.eliminated, p)
		}
	}
	if !wasCompleted && gi.Lifecycle == state.LifecycleCompleted {
		ch.completed = true
		for _, rec := range gi.Players {
			if rec.IsActive {
				ch.winner = rec.PlayerID
				break
			}
		}
	}
	return ch, nil
}
