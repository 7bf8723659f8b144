package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/wayfind/internal/fetch"
	"github.com/ppiankov/wayfind/internal/llm"
	"github.com/ppiankov/wayfind/internal/model"
)

type state int

const (
	stateFetched state = iota
	stateClassified
	stateDirect
	stateFollow
	stateRanked
	stateFocused
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateFetched:
		return "fetched"
	case stateClassified:
		return "classified"
	case stateDirect:
		return "direct"
	case stateFollow:
		return "follow"
	case stateRanked:
		return "ranked"
	case stateFocused:
		return "focused"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome is the terminal result for one URL.
type Outcome struct {
	Activity model.ExtractedActivity
	Strategy model.Strategy
	// Trace lists the states visited, for logs and tests.
	Trace []string
}

// Coordinator turns URLs into activity records.
type Coordinator struct {
	fetcher    fetch.Fetcher
	classifier *Classifier
	ranker     *Ranker
	extractor  *Extractor
	opts       Options
}

// NewCoordinator wires the classifier, ranker and extractor around fetcher.
func NewCoordinator(fetcher fetch.Fetcher, c llm.Completer, opts Options) *Coordinator {
	opts = opts.withDefaults()
	return &Coordinator{
		fetcher:    fetcher,
		classifier: NewClassifier(c, opts),
		ranker:     NewRanker(c, opts),
		extractor:  NewExtractor(c, opts),
		opts:       opts,
	}
}

// run is the mutable state of one URL's extraction.
type run struct {
	url        string
	intent     model.SearchIntent
	page       *fetch.Page
	assessment model.PageAssessment
	candidates []model.ActivityCandidate
	target     *model.ActivityCandidate
	activity   model.ExtractedActivity
	strategy   model.Strategy
	reason     string
	trace      []string
}

func (r *run) enter(s state, detail string) state {
	if detail != "" {
		r.trace = append(r.trace, s.String()+": "+detail)
	} else {
		r.trace = append(r.trace, s.String())
	}
	return s
}

func (r *run) fail(reason string) state {
	r.reason = reason
	return r.enter(stateFailed, reason)
}

// Extract runs the state machine for one URL. It never fails; every dead
// end yields the sentinel record with strategy failed.
func (c *Coordinator) Extract(ctx context.Context, rawURL string, intent model.SearchIntent) Outcome {
	r := &run{url: rawURL, intent: intent}

	var st state
	page, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		st = r.fail("Failed to fetch content: " + err.Error())
	} else {
		r.page = page
		st = r.enter(stateFetched, "")
	}

	for st != stateDone && st != stateFailed {
		st = c.step(ctx, r, st)
	}

	if st == stateFailed {
		if !r.activity.Failed() {
			r.activity = model.FailedActivity(r.url, r.reason)
		}
		r.strategy = model.StrategyFailed
	}

	c.opts.Metrics.Extraction(string(r.strategy), st == stateFailed)
	c.opts.Logger.Debug("extraction finished",
		zap.String("url", rawURL),
		zap.String("strategy", string(r.strategy)),
		zap.String("activity", r.activity.Name),
		zap.Float64("relevance", r.activity.Relevance),
		zap.Strings("trace", r.trace))

	return Outcome{Activity: r.activity, Strategy: r.strategy, Trace: r.trace}
}

func (c *Coordinator) step(ctx context.Context, r *run, st state) state {
	switch st {
	case stateFetched:
		r.assessment = c.classifier.Classify(ctx, r.page, r.intent)
		return r.enter(stateClassified, fmt.Sprintf("%s count=%d confidence=%.2f",
			r.assessment.PageType, r.assessment.ActivityCount, r.assessment.Confidence))

	case stateClassified:
		switch Route(r.assessment) {
		case model.StrategyDirect:
			return r.enter(stateDirect, "")
		case model.StrategySubPageFollow:
			return r.enter(stateFollow, r.assessment.BestMatchURL)
		case model.StrategyListSelection:
			r.candidates = c.ranker.Rank(ctx, r.page, r.intent)
			return r.enter(stateRanked, fmt.Sprintf("%d candidates", len(r.candidates)))
		}
		return r.fail("Could not determine how to extract activity data")

	case stateDirect:
		r.activity = c.extractor.Extract(ctx, r.page, r.intent, nil, r.assessment.IsMultiList())
		if r.activity.Failed() {
			return r.fail("direct extraction failed")
		}
		if Tentative(r.assessment) && r.activity.Relevance <= TentativeMinRelevance {
			return r.fail(fmt.Sprintf("relevance %.2f too low for %s page", r.activity.Relevance, r.assessment.PageType))
		}
		r.strategy = model.StrategyDirect
		return r.enter(stateDone, r.activity.Name)

	case stateFollow:
		child, err := c.followURL(r)
		if err == nil {
			var page *fetch.Page
			page, err = c.fetcher.Fetch(ctx, child)
			if err == nil {
				// the detail page is extracted as is, never classified again
				r.activity = c.extractor.Extract(ctx, page, r.intent, nil, false)
				if r.activity.Failed() {
					return r.fail("sub-page extraction failed")
				}
				r.strategy = model.StrategySubPageFollow
				return r.enter(stateDone, r.activity.Name)
			}
		}
		c.opts.Logger.Debug("sub-page unavailable, selecting from list",
			zap.String("url", r.url), zap.Error(err))
		r.candidates = c.ranker.Rank(ctx, r.page, r.intent)
		return r.enter(stateRanked, fmt.Sprintf("%d candidates after sub-page failure", len(r.candidates)))

	case stateRanked:
		best, ok := Best(r.candidates)
		if !ok {
			return r.fail("No suitable activity candidates found")
		}
		r.target = &best
		return r.enter(stateFocused, best.Name)

	case stateFocused:
		r.activity = c.extractor.Extract(ctx, r.page, r.intent, r.target, r.assessment.IsMultiList())
		if r.activity.Failed() {
			return r.fail("focused extraction failed")
		}
		r.strategy = model.StrategyListSelection
		return r.enter(stateDone, r.activity.Name)
	}

	return r.fail(fmt.Sprintf("unexpected state %s", st))
}

// followURL resolves the best-match sub-URL against the list page.
func (c *Coordinator) followURL(r *run) (string, error) {
	base := r.page.FinalURL
	if base == "" {
		base = r.url
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimSpace(r.assessment.BestMatchURL))
	if err != nil {
		return "", err
	}
	resolved := baseURL.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.String() == baseURL.String() {
		return "", fmt.Errorf("sub-URL points back at the list page")
	}
	return resolved.String(), nil
}

// ExtractAll extracts every URL concurrently, bounded by the configured
// concurrency. Results keep the order of urls.
func (c *Coordinator) ExtractAll(ctx context.Context, urls []string, intent model.SearchIntent) []Outcome {
	out := make([]Outcome, len(urls))

	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			out[i] = c.Extract(ctx, u, intent)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Activities returns the records of outcomes, in order.
func Activities(outcomes []Outcome) []model.ExtractedActivity {
	out := make([]model.ExtractedActivity, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Activity
	}
	return out
}
