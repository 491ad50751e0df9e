package commit

import "knockoutgames/gateway/internal/apperr"

// Kind names one elimination game variant.
type Kind string

const (
	// KindDescend is the door-descent game: pick one of six doors per round.
	KindDescend Kind = "descend"
	// KindSigil is the sigil game: choose one of three sigils per round.
	KindSigil Kind = "sigil"
	// KindAuction is the sealed-bid game: bid any positive amount per round.
	KindAuction Kind = "auction"
)

// Game describes one game kind: its legal action range, the ledger event
// names it emits, and the per-player record fields it carries. One descriptor
// per kind replaces a handwritten wiring copy per game.
type Game struct {
	Kind Kind

	// Legal inclusive action range. MaxAction == 0 means unbounded above.
	MinAction uint64
	MaxAction uint64

	// Ledger event names this kind's contract emits.
	Events []string

	// Kind-specific PlayerRoundRecord fields surfaced by authoritative reads.
	RecordFields []string
}

var games = map[Kind]Game{
	KindDescend: {
		Kind:         KindDescend,
		MinAction:    0,
		MaxAction:    5,
		Events:       []string{"GameStarted", "RoundStarted", "CommitRecorded", "RevealRecorded", "RoundExpired", "PlayerEliminated", "GameCompleted"},
		RecordFields: []string{"level", "doorsOpened"},
	},
	KindSigil: {
		Kind:         KindSigil,
		MinAction:    1,
		MaxAction:    3,
		Events:       []string{"GameStarted", "RoundStarted", "CommitRecorded", "RevealRecorded", "RoundExpired", "PlayerEliminated", "GameCompleted"},
		RecordFields: []string{"team", "points"},
	},
	KindAuction: {
		Kind:         KindAuction,
		MinAction:    1,
		MaxAction:    0,
		Events:       []string{"GameStarted", "RoundStarted", "CommitRecorded", "RevealRecorded", "RoundExpired", "PlayerEliminated", "GameCompleted"},
		RecordFields: []string{"points"},
	},
}

// ByKind looks up the descriptor for kind.
func ByKind(kind Kind) (Game, error) {
	g, ok := games[kind]
	if !ok {
		return Game{}, apperr.Validationf("unknown game kind %q", kind)
	}
	return g, nil
}

// Kinds returns all registered game kinds.
func Kinds() []Kind {
	out := make([]Kind, 0, len(games))
	for k := range games {
		out = append(out, k)
	}
	return out
}

// ValidateAction checks v against the game's inclusive legal range.
func (g Game) ValidateAction(v uint64) error {
	if v < g.MinAction {
		return apperr.Validationf("%s: action %d below minimum %d", g.Kind, v, g.MinAction)
	}
	if g.MaxAction != 0 && v > g.MaxAction {
		return apperr.Validationf("%s: action %d above maximum %d", g.Kind, v, g.MaxAction)
	}
	return nil
}
