// Package conversation runs the recommend, feedback, re-search loop.
package conversation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/llm"
	"github.com/ppiankov/wayfind/internal/metrics"
	"github.com/ppiankov/wayfind/internal/model"
)

// User-facing messages.
const (
	FeedbackFailedMessage = "I had trouble understanding your feedback. Could you please try rephrasing what you'd like to change?"
	UnclearMessage        = "I'm not sure what you'd like to change. You can ask for a different difficulty, distance or location, or for another activity altogether."
	ShortRequestMessage   = "Please tell me a bit more about the activity you're looking for, for example \"hiking near Vienna\"."
)

// Recommender runs one recommendation pass.
type Recommender interface {
	Run(ctx context.Context, request string, bypass bool) (model.ConversationalResponse, error)
}

// FeedbackClassifier classifies one feedback turn. It never fails.
type FeedbackClassifier interface {
	Classify(ctx context.Context, feedback, original string, previous []model.ActivityRecommendation) model.TurnFeedback
}

// Options configures an Orchestrator.
type Options struct {
	MinRequestLen int
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
}

// Orchestrator answers requests and feedback. Every call returns a
// well-formed response; failures are reported in its message.
type Orchestrator struct {
	recommender Recommender
	feedback    FeedbackClassifier
	llm         llm.Completer
	minLen      int
	log         *zap.Logger
	metrics     *metrics.Metrics
}

// New creates an orchestrator. c merges refinements into the original
// request.
func New(r Recommender, fb FeedbackClassifier, c llm.Completer, opts Options) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		recommender: r,
		feedback:    fb,
		llm:         c,
		minLen:      opts.MinRequestLen,
		log:         log,
		metrics:     opts.Metrics,
	}
}

// GetRecommendations answers a top-level request.
func (o *Orchestrator) GetRecommendations(ctx context.Context, request string) model.ConversationalResponse {
	if len([]rune(strings.TrimSpace(request))) < o.minLen {
		return model.ConversationalResponse{
			Recommendations: []model.ActivityRecommendation{},
			Message:         ShortRequestMessage,
		}
	}
	return o.run(ctx, request, false)
}

// HandleFeedback answers feedback on previous, the response given for
// originalRequest.
func (o *Orchestrator) HandleFeedback(ctx context.Context, feedbackText, originalRequest string, previous model.ConversationalResponse) model.ConversationalResponse {
	return o.handle(ctx, feedbackText, originalRequest, previous).response
}

// turn is the full result of handling one piece of feedback.
type turn struct {
	feedback model.TurnFeedback
	request  string // the top-level request after this turn
	response model.ConversationalResponse
	next     State
}

func (o *Orchestrator) handle(ctx context.Context, text, original string, previous model.ConversationalResponse) turn {
	fb := o.feedback.Classify(ctx, text, original, previous.Recommendations)
	t := turn{feedback: fb, request: original}

	switch {
	case fb.Signal == model.SignalQuit:
		t.next = StateTerminating
		t.response = keep(previous, "Goodbye! Enjoy your time outdoors.")

	case fb.Status == model.FeedbackSatisfied:
		t.next = StateTerminating
		t.response = keep(previous, satisfiedMessage(previous))

	case fb.Signal == model.SignalBypassClarification:
		t.next = StateRefining
		t.response = o.run(ctx, original, true)

	case fb.Status == model.FeedbackNewSearch:
		t.next = StateSearchingAnew
		t.request = fb.UserText
		t.response = o.run(ctx, fb.UserText, false)

	case fb.Status == model.FeedbackRefinement:
		t.next = StateRefining
		t.request = o.merge(ctx, original, fb.UserText)
		t.response = o.run(ctx, t.request, false)

	case fb.Changes["error"] != "":
		t.next = StateAwaitingFeedback
		t.response = keep(previous, FeedbackFailedMessage)

	default:
		t.next = StateAwaitingFeedback
		t.response = keep(previous, UnclearMessage)
	}

	o.log.Info("feedback handled",
		zap.String("status", string(fb.Status)),
		zap.String("signal", string(fb.Signal)),
		zap.String("next", t.next.String()))
	return t
}

// run executes one pipeline pass and turns any failure into a response.
func (o *Orchestrator) run(ctx context.Context, request string, bypass bool) (resp model.ConversationalResponse) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("recommendation pass panicked", zap.Any("panic", r))
			resp = model.ErrorResponse(fmt.Errorf("%v", r))
		}
	}()

	resp, err := o.recommender.Run(ctx, request, bypass)
	if err != nil {
		o.log.Warn("recommendation pass failed", zap.String("request", request), zap.Error(err))
		return model.ErrorResponse(err)
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []model.ActivityRecommendation{}
	}
	return resp
}

func keep(previous model.ConversationalResponse, message string) model.ConversationalResponse {
	recs := previous.Recommendations
	if recs == nil {
		recs = []model.ActivityRecommendation{}
	}
	return model.ConversationalResponse{
		Recommendations: recs,
		Message:         message,
		Intent:          previous.Intent,
	}
}

func satisfiedMessage(previous model.ConversationalResponse) string {
	if previous.Intent != nil && previous.Intent.ActivityType != "" {
		return fmt.Sprintf("Great! Enjoy your %s!", previous.Intent.ActivityType)
	}
	return "Great! Enjoy your activity!"
}
