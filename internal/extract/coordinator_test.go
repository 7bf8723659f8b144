package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/wayfind/internal/fetch"
	"github.com/ppiankov/wayfind/internal/llm/llmtest"
	"github.com/ppiankov/wayfind/internal/model"
)

func TestCoordinator_DirectExtraction(t *testing.T) {
	url := "https://example.com/trails/lake-loop"
	fetcher := newFakeFetcher().add(url, lakeLoopPage)
	script := llmtest.New().
		On("page_assessment", individualJSON).
		On("extracted_activity", lakeLoopJSON)

	out := NewCoordinator(fetcher, script, Options{}).Extract(context.Background(), url, hikingIntent)

	assert.Equal(t, model.StrategyDirect, out.Strategy)
	assert.True(t, out.Activity.DetailsAvailable)
	require.NotNil(t, out.Activity.Metrics.Distance)
	assert.Equal(t, "3.9 mi", *out.Activity.Metrics.Distance)
	assert.Equal(t, "1 hr 25 min", *out.Activity.Metrics.EstimatedTime)
	assert.Equal(t, []string{
		"fetched",
		"classified: individual_activity count=1 confidence=0.92",
		"direct",
		"done: Lake Loop Trail",
	}, out.Trace)
}

func TestCoordinator_ListSelection(t *testing.T) {
	url := "https://example.com/top-trails"
	fetcher := newFakeFetcher().add(url, topTrailsPage)
	script := llmtest.New().
		On("page_assessment", listJSON).
		On("activity_candidates", candidatesJSON).
		On("extracted_activity", eaglePeakJSON)

	out := NewCoordinator(fetcher, script, Options{}).Extract(context.Background(), url, hikingIntent)

	assert.Equal(t, model.StrategyListSelection, out.Strategy)
	assert.Equal(t, "Eagle Peak Loop", out.Activity.Name)
	require.NotNil(t, out.Activity.Metrics.Distance)
	assert.Equal(t, "6.2 mi", *out.Activity.Metrics.Distance)
	assert.Nil(t, out.Activity.Metrics.EstimatedTime)

	reqs := script.Requests("extracted_activity")
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "TARGET ACTIVITY: Eagle Peak Loop", "ties resolve to the first candidate")
}

func TestCoordinator_ListWithoutCandidates(t *testing.T) {
	url := "https://example.com/top-trails"
	fetcher := newFakeFetcher().add(url, topTrailsPage)
	script := llmtest.New().
		On("page_assessment", listJSON).
		On("activity_candidates", `{"candidates":[]}`)

	out := NewCoordinator(fetcher, script, Options{}).Extract(context.Background(), url, hikingIntent)

	assert.Equal(t, model.StrategyFailed, out.Strategy)
	assert.True(t, out.Activity.Failed())
	assert.Contains(t, out.Activity.Description, "No suitable activity candidates found")
	assert.Zero(t, script.Calls("extracted_activity"))
}

func TestCoordinator_SubPageFollow(t *testing.T) {
	listURL := "https://example.com/top-trails"
	childURL := "https://example.com/trails/lake-loop"
	fetcher := newFakeFetcher().
		add(listURL, topTrailsPage, fetch.Link{URL: childURL, Text: "Lake Loop Trail"}).
		add(childURL, lakeLoopPage)
	script := llmtest.New().
		On("page_assessment", `{"page_type":"activity_list","activity_count":4,"confidence":0.9,"sub_urls":["/trails/lake-loop"],"best_match_url":"/trails/lake-loop#reviews"}`).
		On("extracted_activity", lakeLoopJSON)

	out := NewCoordinator(fetcher, script, Options{}).Extract(context.Background(), listURL, hikingIntent)

	assert.Equal(t, model.StrategySubPageFollow, out.Strategy)
	assert.Equal(t, childURL, out.Activity.SourceURL)
	assert.True(t, out.Activity.DetailsAvailable)
	assert.Equal(t, 1, script.Calls("page_assessment"), "the child page is never classified")
	assert.Equal(t, 1, fetcher.count(childURL))
	assert.Contains(t, script.Requests("extracted_activity")[0].Prompt, "SOURCE URL: "+childURL)
}

func TestCoordinator_SubPageFailureFallsBackToList(t *testing.T) {
	listURL := "https://example.com/top-trails"
	childURL := "https://example.com/trails/eagle-peak"
	fetcher := newFakeFetcher().
		add(listURL, topTrailsPage).
		fail(childURL, fetch.ErrInsufficientContent)
	script := llmtest.New().
		On("page_assessment", `{"page_type":"activity_list","activity_count":4,"confidence":0.9,"sub_urls":["`+childURL+`"],"best_match_url":"`+childURL+`"}`).
		On("activity_candidates", candidatesJSON).
		On("extracted_activity", eaglePeakJSON)

	out := NewCoordinator(fetcher, script, Options{}).Extract(context.Background(), listURL, hikingIntent)

	assert.Equal(t, model.StrategyListSelection, out.Strategy)
	assert.Equal(t, "Eagle Peak Loop", out.Activity.Name)
	assert.Equal(t, listURL, out.Activity.SourceURL)
}

func TestCoordinator_TentativeDirect(t *testing.T) {
	url := "https://example.com/blog/weekend"
	tests := []struct {
		name      string
		relevance float64
		want      model.Strategy
	}{
		{"kept above threshold", 0.5, model.StrategyDirect},
		{"dropped at threshold", 0.3, model.StrategyFailed},
		{"dropped below threshold", 0.1, model.StrategyFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newFakeFetcher().add(url, lakeLoopPage)
			script := llmtest.New().
				On("page_assessment", mixedJSON).
				On("extracted_activity", fmt.Sprintf(`{"name":"Lake Loop Trail","relevance":%v}`, tt.relevance))

			out := NewCoordinator(fetcher, script, Options{}).Extract(context.Background(), url, hikingIntent)
			assert.Equal(t, tt.want, out.Strategy)
			if tt.want == model.StrategyFailed {
				assert.True(t, out.Activity.Failed())
				assert.Equal(t, 0.0, out.Activity.Relevance)
			}
		})
	}
}

func TestCoordinator_ClassifierFailureStillExtracts(t *testing.T) {
	url := "https://example.com/trails/lake-loop"
	fetcher := newFakeFetcher().add(url, lakeLoopPage)
	script := llmtest.New().
		Fail("page_assessment", errors.New("model overloaded")).
		On("extracted_activity", lakeLoopJSON)

	out := NewCoordinator(fetcher, script, Options{}).Extract(context.Background(), url, hikingIntent)

	assert.Equal(t, model.StrategyDirect, out.Strategy)
	assert.Equal(t, "Lake Loop Trail", out.Activity.Name)
}

func TestCoordinator_FetchFailure(t *testing.T) {
	url := "https://slow.example.com/trails"
	fetcher := newFakeFetcher().fail(url, context.DeadlineExceeded)
	script := llmtest.New()

	out := NewCoordinator(fetcher, script, Options{}).Extract(context.Background(), url, hikingIntent)

	assert.Equal(t, model.StrategyFailed, out.Strategy)
	assert.True(t, out.Activity.Failed())
	assert.Equal(t, 0.0, out.Activity.Relevance)
	assert.Equal(t, url, out.Activity.SourceURL)
	assert.Zero(t, script.Calls(""), "no inference after a failed fetch")
}

func TestCoordinator_ExtractAll(t *testing.T) {
	urls := []string{
		"https://a.example.com/lake-loop",
		"https://b.example.com/blocked",
		"https://c.example.com/top-trails",
		"https://d.example.com/lake-loop",
	}
	fetcher := newFakeFetcher().
		add(urls[0], lakeLoopPage).
		fail(urls[1], fetch.ErrBlockedDomain).
		add(urls[2], topTrailsPage).
		add(urls[3], lakeLoopPage)
	script := llmtest.New().
		OnPrompt("page_assessment", urls[0], individualJSON).
		OnPrompt("page_assessment", urls[2], listJSON).
		OnPrompt("page_assessment", urls[3], individualJSON).
		On("activity_candidates", candidatesJSON).
		OnPrompt("extracted_activity", "TARGET ACTIVITY", eaglePeakJSON).
		On("extracted_activity", lakeLoopJSON)

	c := NewCoordinator(fetcher, script, Options{Concurrency: 2})
	outs := c.ExtractAll(context.Background(), urls, hikingIntent)
	require.Len(t, outs, len(urls))

	assert.Equal(t, model.StrategyDirect, outs[0].Strategy)
	assert.Equal(t, urls[0], outs[0].Activity.SourceURL)
	assert.Equal(t, model.StrategyFailed, outs[1].Strategy)
	assert.Equal(t, urls[1], outs[1].Activity.SourceURL)
	assert.Equal(t, model.StrategyListSelection, outs[2].Strategy)
	assert.Equal(t, "Eagle Peak Loop", outs[2].Activity.Name)
	assert.Equal(t, urls[3], outs[3].Activity.SourceURL)

	acts := Activities(outs)
	for i, a := range acts {
		assert.GreaterOrEqual(t, a.Relevance, 0.0)
		assert.LessOrEqual(t, a.Relevance, 1.0)
		if a.DetailsAvailable {
			assert.GreaterOrEqual(t, a.Metrics.Count(), model.MinDetailedMetrics, "outcome %d", i)
		}
	}
}

func TestExtractor_MultiListDropsUnfocusedMetrics(t *testing.T) {
	script := llmtest.New().On("extracted_activity", lakeLoopJSON)
	e := NewExtractor(script, Options{})
	list := model.PageAssessment{PageType: model.PageActivityList, ActivityCount: 10}
	page := &fetch.Page{URL: "https://example.com/top", Text: topTrailsPage}

	a := e.Extract(context.Background(), page, hikingIntent, nil, list.IsMultiList())
	assert.Zero(t, a.Metrics.Count())
	assert.False(t, a.DetailsAvailable)

	f := e.Extract(context.Background(), page, hikingIntent, &model.ActivityCandidate{Name: "Lake Loop Trail"}, list.IsMultiList())
	assert.True(t, f.DetailsAvailable)

	single := e.Extract(context.Background(), page, hikingIntent, nil, false)
	assert.True(t, single.DetailsAvailable)
}
