// Package pipeline runs one recommendation pass: intent, clarification
// gate, search, per-URL extraction, selection and response.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/extract"
	"github.com/ppiankov/wayfind/internal/intent"
	"github.com/ppiankov/wayfind/internal/model"
	"github.com/ppiankov/wayfind/internal/score"
	"github.com/ppiankov/wayfind/internal/search"
)

// ErrEmptyRequest is returned for a blank request.
var ErrEmptyRequest = errors.New("empty request")

// IntentResolver parses a request. Resolution never fails.
type IntentResolver interface {
	Resolve(ctx context.Context, request string) model.SearchIntent
}

// Extractor turns URLs into one outcome each, in input order.
type Extractor interface {
	ExtractAll(ctx context.Context, urls []string, intent model.SearchIntent) []extract.Outcome
}

// Config holds the collaborators of a Pipeline.
type Config struct {
	Intent     IntentResolver
	Search     search.Engine
	Extractor  Extractor
	Selector   *score.Selector
	MaxResults int // search hits requested
	Now        func() time.Time
	Logger     *zap.Logger
}

// Pipeline orchestrates a single recommendation pass
type Pipeline struct {
	intent     IntentResolver
	search     search.Engine
	extractor  Extractor
	selector   *score.Selector
	maxResults int
	now        func() time.Time
	log        *zap.Logger
}

// New creates a pipeline from cfg.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		intent:     cfg.Intent,
		search:     cfg.Search,
		extractor:  cfg.Extractor,
		selector:   cfg.Selector,
		maxResults: cfg.MaxResults,
		now:        cfg.Now,
		log:        cfg.Logger,
	}
	if p.selector == nil {
		p.selector = score.NewSelector(0, 0)
	}
	if p.maxResults <= 0 {
		p.maxResults = 5
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Run recommends activities for request. With bypass set, a generic
// request is searched as is instead of returning clarification questions.
// Only search failures are returned as errors; per-URL failures just
// shrink the result set.
func (p *Pipeline) Run(ctx context.Context, request string, bypass bool) (model.ConversationalResponse, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return model.ConversationalResponse{}, ErrEmptyRequest
	}

	// 1. Intent, with weather for its location
	si := p.intent.Resolve(ctx, request)

	// 2. Clarification gate
	if si.NeedsClarification && !bypass {
		p.log.Info("asking for clarification", zap.String("activity", si.ActivityType))
		return model.ConversationalResponse{
			Recommendations:    []model.ActivityRecommendation{},
			Message:            intent.ClarificationMessage(si),
			NeedsClarification: true,
			Intent:             &si,
		}, nil
	}

	// 3. Search
	query := intent.EnhanceQuery(si, si.WeatherCondition, p.now())
	hits, err := p.search.Search(ctx, query, p.maxResults)
	if err != nil {
		return model.ConversationalResponse{}, fmt.Errorf("search %q: %w", query, err)
	}
	urls := hitURLs(hits)
	p.log.Info("search complete",
		zap.String("engine", p.search.Name()),
		zap.String("query", query),
		zap.Int("urls", len(urls)))

	// 4. Extract and select
	var picks []model.ExtractedActivity
	if len(urls) > 0 {
		outcomes := p.extractor.ExtractAll(ctx, urls, si)
		picks = p.selector.Select(extract.Activities(outcomes))
	}

	// 5. Respond
	recs := make([]model.ActivityRecommendation, 0, len(picks))
	for _, a := range picks {
		recs = append(recs, model.NewRecommendation(a, score.WeatherAdvice(a, si.WeatherCondition)))
	}
	return model.ConversationalResponse{
		Recommendations: recs,
		Message:         presentation(si, recs),
		Intent:          &si,
	}, nil
}

// hitURLs keeps the non-blank, distinct hit URLs in rank order.
func hitURLs(hits []model.SearchHit) []string {
	seen := make(map[string]bool, len(hits))
	var urls []string
	for _, h := range hits {
		u := strings.TrimSpace(h.URL)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}
