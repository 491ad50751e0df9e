package state

import "testing"

func edge(fl Lifecycle, fp Phase, fr uint64, tl Lifecycle, tp Phase, tr uint64) Edge {
	return Edge{
		FromLifecycle: fl, FromPhase: fp, FromRound: fr,
		ToLifecycle: tl, ToPhase: tp, ToRound: tr,
	}
}

func TestLegalEdges(t *testing.T) {
	legal := []Edge{
		edge(LifecycleNotInitialized, PhaseNone, 0, LifecyclePregame, PhaseNone, 0),
		edge(LifecyclePregame, PhaseNone, 0, LifecycleActive, PhaseCommit, 1),
		edge(LifecycleActive, PhaseCommit, 1, LifecycleActive, PhaseReveal, 1),
		edge(LifecycleActive, PhaseReveal, 1, LifecycleActive, PhaseCommit, 2),
		edge(LifecycleActive, PhaseReveal, 1, LifecycleWaiting, PhaseNone, 1),
		edge(LifecycleWaiting, PhaseNone, 1, LifecycleActive, PhaseCommit, 2),
		edge(LifecycleActive, PhaseReveal, 3, LifecycleCompleted, PhaseNone, 3),
		edge(LifecycleWaiting, PhaseNone, 2, LifecycleCompleted, PhaseNone, 2),
	}
	for _, e := range legal {
		if !e.Legal() {
			t.Fatalf("expected legal: %s", e)
		}
	}
}

func TestIllegalEdges(t *testing.T) {
	illegal := []Edge{
		edge(LifecycleCompleted, PhaseNone, 3, LifecycleActive, PhaseCommit, 4),
		edge(LifecycleActive, PhaseReveal, 2, LifecycleActive, PhaseCommit, 2),
		edge(LifecycleActive, PhaseCommit, 2, LifecycleActive, PhaseCommit, 3),
		edge(LifecycleActive, PhaseCommit, 2, LifecycleActive, PhaseReveal, 3),
		edge(LifecycleWaiting, PhaseNone, 1, LifecycleActive, PhaseCommit, 1),
		edge(LifecyclePregame, PhaseNone, 0, LifecycleWaiting, PhaseNone, 0),
		edge(LifecycleNotInitialized, PhaseNone, 0, LifecycleActive, PhaseCommit, 1),
	}
	for _, e := range illegal {
		if e.Legal() {
			t.Fatalf("expected illegal: %s", e)
		}
	}
}

func TestSelfEdgeIsLegal(t *testing.T) {
	e := edge(LifecycleActive, PhaseCommit, 2, LifecycleActive, PhaseCommit, 2)
	if !e.Legal() {
		t.Fatalf("self edge must be a legal no-op")
	}
}

func TestReachable_FastForward(t *testing.T) {
	reachable := []Edge{
		// Missed the whole reveal cycle, read shows two rounds later.
		edge(LifecycleActive, PhaseCommit, 1, LifecycleActive, PhaseCommit, 3),
		edge(LifecycleActive, PhaseCommit, 1, LifecycleWaiting, PhaseNone, 2),
		edge(LifecyclePregame, PhaseNone, 0, LifecycleCompleted, PhaseNone, 5),
		edge(LifecycleActive, PhaseCommit, 2, LifecycleActive, PhaseReveal, 2),
		edge(LifecycleActive, PhaseReveal, 2, LifecycleWaiting, PhaseNone, 2),
	}
	for _, e := range reachable {
		if !e.Reachable() {
			t.Fatalf("expected reachable: %s", e)
		}
	}
}

func TestReachable_Rejections(t *testing.T) {
	unreachable := []Edge{
		// Nothing leaves Completed.
		edge(LifecycleCompleted, PhaseNone, 3, LifecycleActive, PhaseCommit, 4),
		edge(LifecycleCompleted, PhaseNone, 3, LifecycleWaiting, PhaseNone, 5),
		// Rounds never go backwards.
		edge(LifecycleActive, PhaseCommit, 3, LifecycleActive, PhaseReveal, 2),
		// Phase never rewinds within a round.
		edge(LifecycleActive, PhaseReveal, 2, LifecycleActive, PhaseCommit, 2),
		// Waiting only exits into the next round.
		edge(LifecycleWaiting, PhaseNone, 2, LifecycleActive, PhaseCommit, 2),
	}
	for _, e := range unreachable {
		if e.Reachable() {
			t.Fatalf("expected unreachable: %s", e)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	gi := NewGameInstance("descend", "7")
	gi.Lifecycle = LifecycleActive
	gi.RoundPhase = PhaseCommit
	gi.CurrentRound = 2
	gi.Players["0xaa"] = &PlayerRoundRecord{PlayerID: "0xaa", IsActive: true, Level: 3}

	cp, err := gi.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	cp.Players["0xaa"].IsActive = false
	cp.CurrentRound = 9

	if !gi.Players["0xaa"].IsActive {
		t.Fatalf("clone mutation leaked into original record")
	}
	if gi.CurrentRound != 2 {
		t.Fatalf("clone mutation leaked into original round")
	}
}
