// Package state holds the client-side model of a ledger game instance and the
// legal lifecycle/phase transition set.
//
// The authoritative copy of every instance lives on the ledger; this model is
// only ever mutated by reconciliation against authoritative reads, plus
// bounded optimistic updates that the next read overwrites.
package state

import (
	"encoding/json"
	"fmt"
)

// Lifecycle is the coarse game-level state.
type Lifecycle string

const (
	LifecycleNotInitialized Lifecycle = "notInitialized"
	LifecyclePregame        Lifecycle = "pregame"
	LifecycleActive         Lifecycle = "active"
	LifecycleWaiting        Lifecycle = "waiting"
	LifecycleCompleted      Lifecycle = "completed"
)

// Phase is the commit-vs-reveal sub-state within an active round.
type Phase string

const (
	PhaseNone   Phase = ""
	PhaseCommit Phase = "commit"
	PhaseReveal Phase = "reveal"
)

// PlayerRoundRecord is one player's per-round view, refreshed from
// authoritative reads. Never mutated speculatively from raw event payloads.
type PlayerRoundRecord struct {
	PlayerID     string `json:"playerId"`
	PlayerNumber uint32 `json:"playerNumber"`
	HasCommitted bool   `json:"hasCommitted"`
	HasRevealed  bool   `json:"hasRevealed"`
	IsActive     bool   `json:"isActive"`

	// Kind-specific fields; unused ones stay zero.
	Points      uint64 `json:"points,omitempty"`
	Level       uint32 `json:"level,omitempty"`
	Team        string `json:"team,omitempty"`
	DoorsOpened uint32 `json:"doorsOpened,omitempty"`
}

// GameInstance is the client-owned view of one game instance.
type GameInstance struct {
	GameKind   string    `json:"gameKind"`
	InstanceID string    `json:"instanceId"`
	Lifecycle  Lifecycle `json:"lifecycleState"`

	CurrentRound  uint64 `json:"currentRound"`
	RoundPhase    Phase  `json:"roundPhase"`
	RoundDeadline int64  `json:"roundDeadline"` // unix seconds; advisory only

	Players map[string]*PlayerRoundRecord `json:"players"`
}

// NewGameInstance returns an empty, not-yet-initialized instance view.
func NewGameInstance(kind, instanceID string) *GameInstance {
	return &GameInstance{
		GameKind:   kind,
		InstanceID: instanceID,
		Lifecycle:  LifecycleNotInitialized,
		Players:    map[string]*PlayerRoundRecord{},
	}
}

// Clone returns a deep copy suitable for handing snapshots to consumers.
func (g *GameInstance) Clone() (*GameInstance, error) {
	if g == nil {
		return nil, fmt.Errorf("instance is nil")
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode instance clone: %w", err)
	}
	var out GameInstance
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode instance clone: %w", err)
	}
	if out.Players == nil {
		out.Players = map[string]*PlayerRoundRecord{}
	}
	return &out, nil
}

// Player returns the record for playerID, or nil.
func (g *GameInstance) Player(playerID string) *PlayerRoundRecord {
	if g == nil || g.Players == nil {
		return nil
	}
	return g.Players[playerID]
}

// Edge is one lifecycle/phase/round transition.
type Edge struct {
	FromLifecycle Lifecycle
	FromPhase     Phase
	FromRound     uint64

	ToLifecycle Lifecycle
	ToPhase     Phase
	ToRound     uint64
}

// Legal reports whether e is in the defined transition set:
//
//	NotInitialized -> Pregame
//	Pregame        -> Active(Commit)
//	Active(Commit) -> Active(Reveal), same round
//	Active(Reveal) -> Active(Commit, round+1) | Waiting | Completed
//	Active         -> Completed
//	Waiting        -> Active(Commit, round+1) | Completed
//
// Completed is terminal. Everything else is an inconsistency to be dropped.
func (e Edge) Legal() bool {
	// Self-transition is a no-op refresh, always acceptable.
	if e.FromLifecycle == e.ToLifecycle && e.FromPhase == e.ToPhase && e.FromRound == e.ToRound {
		return true
	}

	switch e.FromLifecycle {
	case LifecycleNotInitialized:
		return e.ToLifecycle == LifecyclePregame
	case LifecyclePregame:
		return e.ToLifecycle == LifecycleActive && e.ToPhase == PhaseCommit
	case LifecycleActive:
		switch e.ToLifecycle {
		case LifecycleActive:
			if e.FromPhase == PhaseCommit {
				return e.ToPhase == PhaseReveal && e.ToRound == e.FromRound
			}
			// Reveal -> next round's commit.
			return e.ToPhase == PhaseCommit && e.ToRound == e.FromRound+1
		case LifecycleWaiting:
			return true
		case LifecycleCompleted:
			return true
		}
		return false
	case LifecycleWaiting:
		switch e.ToLifecycle {
		case LifecycleActive:
			return e.ToPhase == PhaseCommit && e.ToRound == e.FromRound+1
		case LifecycleCompleted:
			return true
		}
		return false
	case LifecycleCompleted:
		return false
	}
	return false
}

// EdgeTo builds the edge from g's current position to the given target.
func (g *GameInstance) EdgeTo(lc Lifecycle, phase Phase, round uint64) Edge {
	return Edge{
		FromLifecycle: g.Lifecycle,
		FromPhase:     g.RoundPhase,
		FromRound:     g.CurrentRound,
		ToLifecycle:   lc,
		ToPhase:       phase,
		ToRound:       round,
	}
}

func lifecycleRank(lc Lifecycle) int {
	switch lc {
	case LifecycleNotInitialized:
		return 0
	case LifecyclePregame:
		return 1
	case LifecycleActive:
		return 2
	case LifecycleWaiting:
		return 3
	case LifecycleCompleted:
		return 4
	}
	return -1
}

func phaseRank(p Phase) int {
	switch p {
	case PhaseNone:
		return 0
	case PhaseCommit:
		return 1
	case PhaseReveal:
		return 2
	}
	return -1
}

// Reachable reports whether the target of e can be reached from its source by
// composing zero or more legal edges. Authoritative reads are checked against
// this (a read may fast-forward past events the client never saw), while
// individual events are checked against Legal.
func (e Edge) Reachable() bool {
	if lifecycleRank(e.ToLifecycle) < 0 || phaseRank(e.ToPhase) < 0 {
		return false
	}
	if e.FromLifecycle == LifecycleCompleted {
		// Terminal: only an identical snapshot is consistent.
		return e.ToLifecycle == LifecycleCompleted
	}
	if e.ToRound < e.FromRound {
		return false
	}
	if e.ToRound > e.FromRound {
		// A round advance passes through legal cycle edges regardless of the
		// intermediate phases we missed.
		switch e.ToLifecycle {
		case LifecycleActive, LifecycleWaiting, LifecycleCompleted:
			return true
		}
		return false
	}
	// Same round: lifecycle/phase may only move forward.
	if lifecycleRank(e.ToLifecycle) < lifecycleRank(e.FromLifecycle) {
		return false
	}
	if e.FromLifecycle == LifecycleActive && e.ToLifecycle == LifecycleActive {
		return phaseRank(e.ToPhase) >= phaseRank(e.FromPhase)
	}
	if e.FromLifecycle == LifecycleWaiting && e.ToLifecycle == LifecycleActive {
		// Leaving Waiting requires the next round.
		return false
	}
	return true
}

func (e Edge) String() string {
	return fmt.Sprintf("%s(%s,r%d) -> %s(%s,r%d)",
		e.FromLifecycle, e.FromPhase, e.FromRound,
		e.ToLifecycle, e.ToPhase, e.ToRound)
}
