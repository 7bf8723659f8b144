package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/fetch"
	"github.com/ppiankov/wayfind/internal/llm"
	"github.com/ppiankov/wayfind/internal/model"
)

// Ranker pulls named candidates out of a list page.
type Ranker struct {
	llm  llm.Completer
	opts Options
}

// NewRanker creates a candidate ranker.
func NewRanker(c llm.Completer, opts Options) *Ranker {
	return &Ranker{llm: c, opts: opts.withDefaults()}
}

type candidateList struct {
	Candidates []model.ActivityCandidate `json:"candidates"`
}

// Rank returns up to MaxCandidates candidates, best first. An inference
// failure returns an empty list.
func (r *Ranker) Rank(ctx context.Context, page *fetch.Page, intent model.SearchIntent) []model.ActivityCandidate {
	prompt := fmt.Sprintf(rankerPrompt,
		intentJSON(intent), page.URL, pageContent(page, r.opts.MaxContentChars), r.opts.MaxCandidates)

	out, err := llm.Infer[candidateList](ctx, r.llm, llm.Call{
		Shape:     candidatesShape,
		System:    rankerSystem,
		Prompt:    prompt,
		MaxTokens: 600,
	})
	if err != nil {
		r.opts.Metrics.InferenceFailure(candidatesShape.Name)
		r.opts.Logger.Warn("candidate ranking failed",
			zap.String("url", page.URL), zap.Error(err))
		return nil
	}
	return rankCandidates(out.Candidates, r.opts.MaxCandidates)
}

// rankCandidates drops unnamed and duplicate entries, clamps relevance and
// orders by relevance, keeping page order among equals.
func rankCandidates(in []model.ActivityCandidate, limit int) []model.ActivityCandidate {
	seen := make(map[string]bool, len(in))
	out := make([]model.ActivityCandidate, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		key := strings.ToLower(c.Name)
		if c.Name == "" || seen[key] {
			continue
		}
		seen[key] = true
		c.Description = strings.TrimSpace(c.Description)
		c.SubURL = strings.TrimSpace(c.SubURL)
		c.Relevance = model.Clamp01(c.Relevance)
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Best returns the candidate with the highest relevance. Ties go to the
// earliest entry.
func Best(candidates []model.ActivityCandidate) (model.ActivityCandidate, bool) {
	if len(candidates) == 0 {
		return model.ActivityCandidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Relevance > best.Relevance {
			best = c
		}
	}
	return best, true
}
