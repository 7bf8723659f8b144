// Package extract turns fetched pages into single, non-mixed activity
// records.
package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/fetch"
	"github.com/ppiankov/wayfind/internal/llm"
	"github.com/ppiankov/wayfind/internal/metrics"
	"github.com/ppiankov/wayfind/internal/model"
)

const (
	// DirectConfidence is the classifier confidence above which an
	// individual activity page is extracted without further checks.
	DirectConfidence = 0.6
	// TentativeMinRelevance is the relevance a tentative direct
	// extraction must exceed to be kept.
	TentativeMinRelevance = 0.3
	// fallbackConfidence is assigned when classification itself fails.
	fallbackConfidence = 0.3
)

// Options tunes the extraction components.
type Options struct {
	MaxContentChars int
	MaxCandidates   int
	Concurrency     int
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.MaxContentChars <= 0 {
		o.MaxContentChars = 8000
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = 5
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Classifier decides what kind of page was fetched.
type Classifier struct {
	llm  llm.Completer
	opts Options
}

// NewClassifier creates a page classifier.
func NewClassifier(c llm.Completer, opts Options) *Classifier {
	return &Classifier{llm: c, opts: opts.withDefaults()}
}

// Classify assesses page against intent. It never fails: an inference
// error yields a low-confidence mixed_content assessment.
func (c *Classifier) Classify(ctx context.Context, page *fetch.Page, intent model.SearchIntent) model.PageAssessment {
	prompt := fmt.Sprintf(classifierPrompt,
		intentJSON(intent), page.URL, pageContent(page, c.opts.MaxContentChars))

	a, err := llm.Infer[model.PageAssessment](ctx, c.llm, llm.Call{
		Shape:     assessmentShape,
		System:    classifierSystem,
		Prompt:    prompt,
		MaxTokens: 800,
	})
	if err != nil {
		c.opts.Metrics.InferenceFailure(assessmentShape.Name)
		c.opts.Logger.Warn("page classification failed",
			zap.String("url", page.URL), zap.Error(err))
		return model.FallbackAssessment(fallbackConfidence)
	}

	a.Normalize()
	return a
}

// Route maps an assessment to an extraction strategy:
//  1. individual_activity above DirectConfidence is extracted directly.
//  2. a list of more than one activity follows its best-match sub-URL when
//     there is one, else selects among the listed candidates.
//  3. anything else gets a tentative direct extraction; see Tentative.
func Route(a model.PageAssessment) model.Strategy {
	switch {
	case a.PageType == model.PageIndividualActivity && a.Confidence > DirectConfidence:
		return model.StrategyDirect
	case a.IsMultiList() && strings.TrimSpace(a.BestMatchURL) != "":
		return model.StrategySubPageFollow
	case a.IsMultiList():
		return model.StrategyListSelection
	}
	return model.StrategyDirect
}

// Tentative reports whether a direct extraction routed from a is only kept
// when its relevance exceeds TentativeMinRelevance.
func Tentative(a model.PageAssessment) bool {
	return Route(a) == model.StrategyDirect &&
		!(a.PageType == model.PageIndividualActivity && a.Confidence > DirectConfidence)
}

// pageContent is the page text as the model sees it: truncated, with the
// outbound links listed after it so sub-pages can be named.
func pageContent(page *fetch.Page, limit int) string {
	text := truncate(page.Text, limit)
	if len(page.Links) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\nLINKS:\n")
	for _, l := range page.Links {
		name := l.Text
		if name == "" {
			name = l.URL
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, l.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}
