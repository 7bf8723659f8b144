package model

// FeedbackStatus is the classified meaning of a user's reply.
type FeedbackStatus string

const (
	FeedbackSatisfied  FeedbackStatus = "satisfied"
	FeedbackNewSearch  FeedbackStatus = "new_search"
	FeedbackRefinement FeedbackStatus = "refinement"
	FeedbackUnclear    FeedbackStatus = "unclear"
)

// Valid reports whether s is a known status.
func (s FeedbackStatus) Valid() bool {
	switch s {
	case FeedbackSatisfied, FeedbackNewSearch, FeedbackRefinement, FeedbackUnclear:
		return true
	}
	return false
}

// Signal is an explicit control instruction carried alongside a status.
type Signal string

const (
	SignalNone Signal = ""
	// SignalBypassClarification re-runs the original request, skipping the
	// generic-request clarification gate.
	SignalBypassClarification Signal = "bypass_clarification"
	// SignalQuit ends the conversation.
	SignalQuit Signal = "quit"
)

// TurnFeedback is the classification of one feedback turn.
type TurnFeedback struct {
	Status   FeedbackStatus    `json:"status"`
	UserText string            `json:"user_text"`
	Changes  map[string]string `json:"changes,omitempty"`
	Signal   Signal            `json:"signal,omitempty"`
}
