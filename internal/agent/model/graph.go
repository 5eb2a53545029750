package model

// Stage marks how far a turn progressed through the pipeline.
type Stage string

const (
	StageReceived   Stage = "RECEIVED"
	StageClassified Stage = "CLASSIFIED"
	StageExtracted  Stage = "EXTRACTED"
	StageResolved   Stage = "RESOLVED"
	StageGenerated  Stage = "GENERATED"
	StagePersisted  Stage = "PERSISTED"
)

// Outcome names the branch a turn terminated on.
type Outcome string

const (
	OutcomeAnswered     Outcome = "answered"
	OutcomeClarify      Outcome = "clarify"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeParseError   Outcome = "parse_error"
	OutcomeNoData       Outcome = "no_data"
	OutcomeFailed       Outcome = "failed"
)

// TurnState stores per-invocation state for the turn graph.
// It is registered as graph local state and must only be touched inside
// state handlers or compose.ProcessState.
type TurnState struct {
	Username       string
	Stage          Stage
	History        []ChatMessage // recent window, includes the current user message
	Classification *Classification
	Entities       ExtractedEntities

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// TurnInput is the public graph input.
type TurnInput struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// TurnReply is the graph output.
type TurnReply struct {
	Content string
	Outcome Outcome
	Stage   Stage
	Intent  Intent
}

// Extraction is the entity parser result. ParseErr is set instead of
// Entities when the model output was structurally invalid.
type Extraction struct {
	Intent   Intent
	Entities ExtractedEntities
	ParseErr error
}

// Resolution is the query resolver result. Rows keep table order.
type Resolution struct {
	Intent Intent
	Rows   []any
	NoData bool
}
