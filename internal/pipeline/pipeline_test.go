package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/wayfind/internal/extract"
	"github.com/ppiankov/wayfind/internal/model"
)

type fakeResolver struct {
	intent   model.SearchIntent
	requests []string
}

func (f *fakeResolver) Resolve(_ context.Context, request string) model.SearchIntent {
	f.requests = append(f.requests, request)
	return f.intent
}

type fakeEngine struct {
	hits    []model.SearchHit
	err     error
	queries []string
	limit   int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Search(_ context.Context, query string, limit int) ([]model.SearchHit, error) {
	f.queries = append(f.queries, query)
	f.limit = limit
	return f.hits, f.err
}

type fakeExtractor struct {
	byURL map[string]model.ExtractedActivity
	urls  []string
}

func (f *fakeExtractor) ExtractAll(_ context.Context, urls []string, _ model.SearchIntent) []extract.Outcome {
	f.urls = urls
	out := make([]extract.Outcome, len(urls))
	for i, u := range urls {
		a, ok := f.byURL[u]
		if !ok {
			a = model.FailedActivity(u, "Failed to fetch content: timeout")
		}
		out[i] = extract.Outcome{Activity: a}
	}
	return out
}

func trail(url, name string, relevance float64) model.ExtractedActivity {
	return model.ExtractedActivity{
		SourceURL:     url,
		Name:          name,
		Difficulty:    "moderate",
		Duration:      "2 hours",
		IndoorOutdoor: model.ModeOutdoor,
		Relevance:     relevance,
	}
}

func hikingIn(location string) model.SearchIntent {
	return model.SearchIntent{
		ActivityType:     "hiking",
		Location:         location,
		SearchQuery:      "hiking trails " + location,
		IndoorOutdoor:    model.ModeOutdoor,
		WeatherCondition: "Light Rain, 10°C, wind 3m/s",
	}
}

func noon() time.Time { return time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC) }

func TestRun_RecommendsBestActivities(t *testing.T) {
	engine := &fakeEngine{hits: []model.SearchHit{
		{URL: "https://a.example/lake"},
		{URL: " "},
		{URL: "https://b.example/ridge"},
		{URL: "https://a.example/lake"},
		{URL: "https://c.example/timeout"},
	}}
	ext := &fakeExtractor{byURL: map[string]model.ExtractedActivity{
		"https://a.example/lake":  trail("https://a.example/lake", "Lake Loop", 0.7),
		"https://b.example/ridge": trail("https://b.example/ridge", "Ridge Walk", 0.9),
	}}
	p := New(Config{
		Intent:    &fakeResolver{intent: hikingIn("Graz")},
		Search:    engine,
		Extractor: ext,
		Now:       noon,
	})

	resp, err := p.Run(context.Background(), "hiking near Graz", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example/lake", "https://b.example/ridge", "https://c.example/timeout"}, ext.urls)
	assert.Equal(t, []string{"hiking trails Graz covered routes"}, engine.queries)
	assert.Equal(t, 5, engine.limit)

	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "Ridge Walk", resp.Recommendations[0].Name)
	assert.Equal(t, "Lake Loop", resp.Recommendations[1].Name)
	assert.Contains(t, resp.Recommendations[0].WeatherRecommendation, "rain gear")
	assert.Contains(t, resp.Message, "Here are my top 2 recommendations for hiking in Graz")
	assert.Contains(t, resp.Message, RefinePrompt)
	assert.False(t, resp.NeedsClarification)
	require.NotNil(t, resp.Intent)
	assert.Equal(t, "Graz", resp.Intent.Location)
}

func TestRun_ClarificationGate(t *testing.T) {
	si := hikingIn("Prague")
	si.IsGeneric, si.NeedsClarification = true, true
	engine := &fakeEngine{hits: []model.SearchHit{{URL: "https://a.example/x"}}}
	ext := &fakeExtractor{byURL: map[string]model.ExtractedActivity{
		"https://a.example/x": trail("https://a.example/x", "Divoká Šárka", 0.8),
	}}
	p := New(Config{Intent: &fakeResolver{intent: si}, Search: engine, Extractor: ext, Now: noon})

	resp, err := p.Run(context.Background(), "hiking near Prague", false)
	require.NoError(t, err)
	assert.True(t, resp.NeedsClarification)
	assert.Empty(t, resp.Recommendations)
	assert.Contains(t, resp.Message, `"proceed"`)
	assert.Empty(t, engine.queries, "no search before clarification")

	resp, err = p.Run(context.Background(), "hiking near Prague", true)
	require.NoError(t, err)
	assert.False(t, resp.NeedsClarification)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "Divoká Šárka", resp.Recommendations[0].Name)
	assert.Equal(t, []string{"hiking trails Prague Czech Republic covered routes"}, engine.queries)
}

func TestRun_SearchFailureIsAnError(t *testing.T) {
	p := New(Config{
		Intent:    &fakeResolver{intent: hikingIn("Graz")},
		Search:    &fakeEngine{err: errors.New("quota exceeded")},
		Extractor: &fakeExtractor{},
		Now:       noon,
	})

	_, err := p.Run(context.Background(), "hiking near Graz", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRun_NoResults(t *testing.T) {
	ext := &fakeExtractor{}
	p := New(Config{
		Intent:    &fakeResolver{intent: hikingIn("Graz")},
		Search:    &fakeEngine{},
		Extractor: ext,
		Now:       noon,
	})

	resp, err := p.Run(context.Background(), "hiking near Graz", false)
	require.NoError(t, err)
	assert.NotNil(t, resp.Recommendations)
	assert.Empty(t, resp.Recommendations)
	assert.Contains(t, resp.Message, "couldn't find specific hiking recommendations in Graz")
	assert.Nil(t, ext.urls, "nothing to extract")
}

func TestRun_AllURLsFail(t *testing.T) {
	p := New(Config{
		Intent:    &fakeResolver{intent: hikingIn("Graz")},
		Search:    &fakeEngine{hits: []model.SearchHit{{URL: "https://a.example/slow"}}},
		Extractor: &fakeExtractor{},
		Now:       noon,
	})

	resp, err := p.Run(context.Background(), "hiking near Graz", false)
	require.NoError(t, err)
	assert.Empty(t, resp.Recommendations)
}

func TestRun_EmptyRequest(t *testing.T) {
	p := New(Config{Intent: &fakeResolver{}, Search: &fakeEngine{}, Extractor: &fakeExtractor{}})
	_, err := p.Run(context.Background(), "   ", false)
	assert.ErrorIs(t, err, ErrEmptyRequest)
}
