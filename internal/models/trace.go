package models

import "time"

// StepOutcome classifies how a plan step ended.
type StepOutcome string

const (
	StepSuccess StepOutcome = "success"
	StepFailure StepOutcome = "failure"
	StepSkipped StepOutcome = "skipped"
)

// ExecutionLogEntry records one state machine transition. The sequence is
// append-only and owned by a single run.
type ExecutionLogEntry struct {
	Step         string                 `json:"step"`
	Timestamp    time.Time              `json:"timestamp"`
	Input        map[string]interface{} `json:"input,omitempty"`
	Duration     time.Duration          `json:"duration"`
	Outcome      StepOutcome            `json:"outcome"`
	CacheOutcome CacheOutcome           `json:"cacheOutcome"`
	Error        string                 `json:"error,omitempty"`
}

// Turn is one message in the conversation passed into and out of a run.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// LastUserMessage returns the most recent user turn's content. Only this
// message drives the current plan; older turns are context for the caller.
func LastUserMessage(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" {
			return turns[i].Content
		}
	}
	return ""
}
