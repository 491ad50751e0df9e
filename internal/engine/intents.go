package engine

// IntentType names a side-effect intent emitted by the state machine.
type IntentType string

const (
	// IntentPlayerEliminated fires when the locally-identified player's
	// record flips inactive. Consumers navigate to a terminal screen.
	IntentPlayerEliminated IntentType = "playerEliminated"
	// IntentGameCompleted fires when the lifecycle reaches its terminal
	// state.
	IntentGameCompleted IntentType = "gameCompleted"
	// IntentNotify carries an advisory message for the UI.
	IntentNotify IntentType = "notify"
)

// Severity grades notify intents.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Intent is a fire-and-forget side-effect request. Consumers must tolerate
// repeats: emitting an intent twice is always safe.
type Intent struct {
	Type       IntentType `json:"type"`
	GameKind   string     `json:"gameKind"`
	InstanceID string     `json:"instanceId"`
	Player     string     `json:"player,omitempty"`
	Message    string     `json:"message,omitempty"`
	Severity   Severity   `json:"severity,omitempty"`
}
