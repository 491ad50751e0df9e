package ledger

import (
	"strconv"

	"knockoutgames/gateway/internal/apperr"
)

// Event is the tagged union of typed ledger events. Each event name carries
// its own strongly-typed field set, decoded once at the subscription
// boundary; handlers never dig through nested dynamic payloads.
type Event interface {
	EventName() string
}

// GameStarted announces that an instance left the pregame lobby.
type GameStarted struct {
	InstanceID  string
	PlayerCount uint32
}

// RoundStarted opens the commit phase of a round.
type RoundStarted struct {
	InstanceID string
	Round      uint64
	Deadline   int64 // unix seconds; advisory for clients
}

// RevealPhaseStarted flips a round from commit to reveal.
type RevealPhaseStarted struct {
	InstanceID string
	Round      uint64
	Deadline   int64
}

// CommitRecorded acknowledges one player's stored commitment.
type CommitRecorded struct {
	InstanceID string
	Round      uint64
	Player     string
}

// RevealRecorded acknowledges one player's verified reveal.
type RevealRecorded struct {
	InstanceID  string
	Round       uint64
	Player      string
	ActionValue uint64
}

// RoundExpired marks a round whose deadline elapsed without full
// participation; the instance waits for an explicit settle.
type RoundExpired struct {
	InstanceID string
	Round      uint64
}

// PlayerEliminated removes a player from the running game.
type PlayerEliminated struct {
	InstanceID string
	Player     string
	Round      uint64
}

// GameCompleted marks the terminal lifecycle state.
type GameCompleted struct {
	InstanceID string
	Winner     string
}

// Unknown preserves events the gateway does not understand; they still
// trigger a reconciling read.
type Unknown struct {
	Name       string
	InstanceID string
}

func (GameStarted) EventName() string        { return "GameStarted" }
func (RoundStarted) EventName() string       { return "RoundStarted" }
func (RevealPhaseStarted) EventName() string { return "RevealPhaseStarted" }
func (CommitRecorded) EventName() string     { return "CommitRecorded" }
func (RevealRecorded) EventName() string     { return "RevealRecorded" }
func (RoundExpired) EventName() string       { return "RoundExpired" }
func (PlayerEliminated) EventName() string   { return "PlayerEliminated" }
func (GameCompleted) EventName() string      { return "GameCompleted" }
func (u Unknown) EventName() string          { return u.Name }

// Decode turns a normalized envelope into its typed event. Garbled numeric
// attributes are a decode failure, not a silent zero.
func Decode(env Envelope) (Event, error) {
	switch env.Name {
	case "GameStarted":
		n, err := attrU64(env, "playerCount")
		if err != nil {
			return nil, err
		}
		return GameStarted{InstanceID: env.InstanceID(), PlayerCount: uint32(n)}, nil
	case "RoundStarted":
		round, err := attrU64(env, "round")
		if err != nil {
			return nil, err
		}
		deadline, err := attrI64(env, "deadline")
		if err != nil {
			return nil, err
		}
		return RoundStarted{InstanceID: env.InstanceID(), Round: round, Deadline: deadline}, nil
	case "RevealPhaseStarted":
		round, err := attrU64(env, "round")
		if err != nil {
			return nil, err
		}
		deadline, err := attrI64(env, "deadline")
		if err != nil {
			return nil, err
		}
		return RevealPhaseStarted{InstanceID: env.InstanceID(), Round: round, Deadline: deadline}, nil
	case "CommitRecorded":
		round, err := attrU64(env, "round")
		if err != nil {
			return nil, err
		}
		return CommitRecorded{InstanceID: env.InstanceID(), Round: round, Player: env.Attrs["player"]}, nil
	case "RevealRecorded":
		round, err := attrU64(env, "round")
		if err != nil {
			return nil, err
		}
		value, err := attrU64(env, "actionValue")
		if err != nil {
			return nil, err
		}
		return RevealRecorded{InstanceID: env.InstanceID(), Round: round, Player: env.Attrs["player"], ActionValue: value}, nil
	case "RoundExpired":
		round, err := attrU64(env, "round")
		if err != nil {
			return nil, err
		}
		return RoundExpired{InstanceID: env.InstanceID(), Round: round}, nil
	case "PlayerEliminated":
		round, err := attrU64(env, "round")
		if err != nil {
			return nil, err
		}
		return PlayerEliminated{InstanceID: env.InstanceID(), Player: env.Attrs["player"], Round: round}, nil
	case "GameCompleted":
		return GameCompleted{InstanceID: env.InstanceID(), Winner: env.Attrs["winner"]}, nil
	default:
		return Unknown{Name: env.Name, InstanceID: env.InstanceID()}, nil
	}
}

func attrU64(env Envelope, key string) (uint64, error) {
	raw, ok := env.Attrs[key]
	if !ok {
		return 0, apperr.Validationf("event %s missing attribute %q", env.Name, key)
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validationf("event %s attribute %q=%q is not a uint", env.Name, key, raw)
	}
	return n, nil
}

func attrI64(env Envelope, key string) (int64, error) {
	raw, ok := env.Attrs[key]
	if !ok {
		// Deadlines are optional on some contracts.
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validationf("event %s attribute %q=%q is not an int", env.Name, key, raw)
	}
	return n, nil
}
