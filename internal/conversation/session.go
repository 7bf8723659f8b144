package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/model"
)

// DefaultMaxTurns bounds a session's feedback turns.
const DefaultMaxTurns = 5

// ErrConversationOver is returned by Reply once a session has terminated.
var ErrConversationOver = errors.New("conversation is over")

// State is where a session is in the conversation loop.
type State int

const (
	StateAwaitingInitialRequest State = iota
	StateGenerating
	StatePresentingResults
	StateAwaitingFeedback
	StateRefining
	StateSearchingAnew
	StateTerminating
)

func (s State) String() string {
	switch s {
	case StateAwaitingInitialRequest:
		return "awaiting_initial_request"
	case StateGenerating:
		return "generating"
	case StatePresentingResults:
		return "presenting_results"
	case StateAwaitingFeedback:
		return "awaiting_feedback"
	case StateRefining:
		return "refining"
	case StateSearchingAnew:
		return "searching_anew"
	case StateTerminating:
		return "terminating"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session is one conversation. It is not safe for concurrent use.
type Session struct {
	orch  *Orchestrator
	state model.ConversationState
	stage State
	log   *zap.Logger
}

// NewSession starts an empty conversation allowing maxTurns feedback turns.
func (o *Orchestrator) NewSession(maxTurns int) *Session {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	id := uuid.NewString()
	return &Session{
		orch:  o,
		state: model.ConversationState{ID: id, MaxTurns: maxTurns},
		stage: StateAwaitingInitialRequest,
		log:   o.log.With(zap.String("conversation", id)),
	}
}

// Start answers the opening request.
func (s *Session) Start(ctx context.Context, request string) model.ConversationalResponse {
	request = strings.TrimSpace(request)
	s.transition(StateGenerating)
	resp := s.orch.GetRecommendations(ctx, request)

	s.state.OriginalRequest = request
	s.state.Current = resp
	s.present()
	return resp
}

// Reply answers one piece of feedback. The session terminates when the
// feedback is satisfied or a quit, or when the turn budget is spent.
func (s *Session) Reply(ctx context.Context, feedback string) (model.ConversationalResponse, error) {
	if s.Done() {
		return model.ConversationalResponse{}, ErrConversationOver
	}

	s.state.Turn++
	t := s.orch.handle(ctx, feedback, s.state.OriginalRequest, s.state.Current)
	s.transition(t.next)

	s.state.OriginalRequest = t.request
	s.state.Current = t.response

	switch {
	case t.next == StateTerminating:
		s.state.Done = true
	case s.state.Turn >= s.state.MaxTurns:
		s.state.Done = true
		s.state.Current.Message += fmt.Sprintf("\n\nWe've reached the limit of %d refinements for this conversation.", s.state.MaxTurns)
		s.transition(StateTerminating)
	default:
		s.present()
	}
	return s.state.Current, nil
}

// Done reports whether the conversation has ended.
func (s *Session) Done() bool {
	return s.state.Done
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.state.ID }

// Stage returns the current state.
func (s *Session) Stage() State { return s.stage }

// State returns a copy of the conversation state.
func (s *Session) State() model.ConversationState { return s.state }

func (s *Session) present() {
	s.transition(StatePresentingResults)
	s.transition(StateAwaitingFeedback)
}

func (s *Session) transition(next State) {
	if next == s.stage {
		return
	}
	s.log.Debug("state", zap.Stringer("from", s.stage), zap.Stringer("to", next), zap.Int("turn", s.state.Turn))
	s.stage = next
}
