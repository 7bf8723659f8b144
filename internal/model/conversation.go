package model

// ConversationalResponse is what the shell renders after every turn.
type ConversationalResponse struct {
	Recommendations    []ActivityRecommendation `json:"recommendations"`
	Message            string                   `json:"message"`
	NeedsClarification bool                     `json:"needs_clarification,omitempty"`
	Intent             *SearchIntent            `json:"intent,omitempty"`
}

// ErrorResponse wraps a pipeline failure into a well-formed response.
func ErrorResponse(err error) ConversationalResponse {
	return ConversationalResponse{
		Recommendations: []ActivityRecommendation{},
		Message:         "I encountered an error processing your request: " + err.Error() + ". Please try again with a different request.",
	}
}

// ConversationState is the orchestrator's per-run memory.
type ConversationState struct {
	ID              string
	OriginalRequest string
	Current         ConversationalResponse
	Turn            int
	MaxTurns        int
	Done            bool
}

// TurnsRemaining reports how many feedback turns are left.
func (s ConversationState) TurnsRemaining() int {
	if s.Done || s.Turn >= s.MaxTurns {
		return 0
	}
	return s.MaxTurns - s.Turn
}
