// Package feedback classifies a user's reply to a set of recommendations.
//
// Classification reconciles two signals. Fixed phrase sets are checked
// first and take precedence; the model's reading is used for everything
// they do not decide.
package feedback

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/keywords"
	"github.com/ppiankov/wayfind/internal/llm"
	"github.com/ppiankov/wayfind/internal/metrics"
	"github.com/ppiankov/wayfind/internal/model"
)

// Phrase sets, matched case-insensitively on whole words. QuitPhrases only
// match a reply that consists of nothing but the phrase.
var (
	ProceedPhrases = []string{"proceed", "go ahead", "continue", "yes"}
	QuitPhrases    = []string{"quit", "exit", "bye", "goodbye", "stop"}

	SatisfiedPhrases = []string{
		"perfect", "great", "excellent", "thanks", "thank you",
		"that's all", "looks good", "sounds good",
	}

	NewSearchPhrases = []string{
		"rather", "instead", "prefer", "different", "something else",
		"how about", "what about", "completely different",
	}
	RefinementPhrases = []string{
		"longer", "shorter", "easier", "harder", "closer", "further",
		"outskirts", "more time", "less time", "duration", "distance",
		"too difficult", "too easy", "too far", "too long", "too short",
	}
)

// Decision sources, recorded as the metrics label.
const (
	sourceProceed   = "proceed"
	sourceQuit      = "quit"
	sourceKeyword   = "keyword"
	sourceSatisfied = "satisfied"
	sourceReasoning = "reasoning"
	sourceModel     = "model"
	sourceError     = "error"
)

// Options configures a Classifier.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Classifier turns free-text feedback into a TurnFeedback.
type Classifier struct {
	llm     llm.Completer
	log     *zap.Logger
	metrics *metrics.Metrics

	proceed    *keywords.Matcher
	newSearch  *keywords.Matcher
	refinement *keywords.Matcher
	satisfied  *keywords.Matcher
	quit       map[string]bool
}

// NewClassifier creates a feedback classifier.
func NewClassifier(c llm.Completer, opts Options) *Classifier {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{
		llm:        c,
		log:        log,
		metrics:    opts.Metrics,
		proceed:    keywords.New(ProceedPhrases...),
		newSearch:  keywords.New(NewSearchPhrases...),
		refinement: keywords.New(RefinementPhrases...),
		satisfied:  keywords.New(SatisfiedPhrases...),
		quit:       phraseSet(QuitPhrases),
	}
}

func phraseSet(phrases []string) map[string]bool {
	set := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		set[strings.ToLower(strings.TrimSpace(p))] = true
	}
	return set
}

// isQuit reports whether the whole reply is a quit phrase, ignoring case
// and trailing punctuation.
func (c *Classifier) isQuit(feedback string) bool {
	reply := strings.TrimRight(strings.ToLower(strings.TrimSpace(feedback)), ".!?,; ")
	return c.quit[reply]
}

var feedbackShape = llm.NewShape("turn_feedback", map[string]any{
	"type":     "object",
	"required": []string{"status"},
	"properties": map[string]any{
		"status": map[string]any{
			"type": "string",
			"enum": []string{"satisfied", "new_search", "refinement", "unclear"},
		},
		"reasoning": map[string]any{"type": []string{"string", "null"}},
		"changes":   map[string]any{"type": []string{"object", "null"}},
	},
})

type verdict struct {
	Status    model.FeedbackStatus `json:"status"`
	Reasoning string               `json:"reasoning"`
	Changes   map[string]any       `json:"changes"`
}

// Classify reads feedback given on the results for original. It never
// fails; an inference error yields unclear unless a phrase set decides.
func (c *Classifier) Classify(ctx context.Context, feedback, original string, previous []model.ActivityRecommendation) model.TurnFeedback {
	feedback = strings.TrimSpace(feedback)
	out := model.TurnFeedback{UserText: feedback, Changes: map[string]string{}}

	switch {
	case c.proceed.Any(feedback):
		out.Status = model.FeedbackRefinement
		out.Signal = model.SignalBypassClarification
		out.Changes["request"] = original
		return c.done(out, sourceProceed)
	case c.isQuit(feedback):
		out.Status = model.FeedbackSatisfied
		out.Signal = model.SignalQuit
		return c.done(out, sourceQuit)
	}

	v, err := llm.Infer[verdict](ctx, c.llm, llm.Call{
		Shape:     feedbackShape,
		System:    feedbackSystem,
		Prompt:    feedbackPrompt(feedback, original, previous),
		MaxTokens: 400,
	})
	if err != nil {
		c.metrics.InferenceFailure(feedbackShape.Name)
		c.log.Warn("feedback classification failed", zap.Error(err))
		out.Changes["error"] = err.Error()
	} else {
		for k, val := range v.Changes {
			if val != nil {
				out.Changes[k] = fmt.Sprint(val)
			}
		}
	}

	pivot := c.newSearch.Find(feedback)
	tweak := c.refinement.Find(feedback)
	pleased := c.satisfied.Find(feedback)
	switch {
	case len(pivot) > 0:
		out.Status = model.FeedbackNewSearch
		out.Changes["keywords"] = strings.Join(pivot, ", ")
		return c.done(out, sourceKeyword)
	case len(tweak) > 0:
		out.Status = model.FeedbackRefinement
		out.Changes["keywords"] = strings.Join(tweak, ", ")
		return c.done(out, sourceKeyword)
	case len(pleased) > 0:
		out.Status = model.FeedbackSatisfied
		out.Changes["keywords"] = strings.Join(pleased, ", ")
		return c.done(out, sourceSatisfied)
	case err != nil:
		out.Status = model.FeedbackUnclear
		return c.done(out, sourceError)
	case strings.Contains(strings.ToLower(v.Reasoning), string(model.FeedbackNewSearch)):
		out.Status = model.FeedbackNewSearch
		return c.done(out, sourceReasoning)
	}

	out.Status = v.Status
	if !out.Status.Valid() {
		out.Status = model.FeedbackUnclear
	}
	return c.done(out, sourceModel)
}

func (c *Classifier) done(tf model.TurnFeedback, source string) model.TurnFeedback {
	if len(tf.Changes) == 0 {
		tf.Changes = nil
	}
	c.metrics.Feedback(string(tf.Status), source)
	c.log.Debug("feedback classified",
		zap.String("status", string(tf.Status)),
		zap.String("source", source),
		zap.String("signal", string(tf.Signal)))
	return tf
}
