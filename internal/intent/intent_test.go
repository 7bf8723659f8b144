package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/wayfind/internal/llm/llmtest"
	"github.com/ppiankov/wayfind/internal/model"
)

type fixedWeather struct {
	summary   string
	locations []string
}

func (w *fixedWeather) Current(_ context.Context, location string) string {
	w.locations = append(w.locations, location)
	return w.summary
}

func TestResolve_ParsesExplicitFields(t *testing.T) {
	script := llmtest.New().On("search_intent", `{
		"activity_type": "Running",
		"location": "Vienna",
		"search_query": "hard running routes Vienna",
		"search_radius_km": 25.0,
		"indoor_outdoor": "outdoor",
		"difficulty": "hard",
		"duration": null,
		"preferences": [],
		"is_generic": false,
		"needs_clarification": true
	}`)
	w := &fixedWeather{summary: "Clear Sky, 18°C, wind 3m/s"}

	got := NewResolver(script, w, Options{}).Resolve(context.Background(), "running route in Vienna, hard")

	assert.Equal(t, "Running", got.ActivityType)
	assert.Equal(t, "Vienna", got.Location)
	assert.Equal(t, 25, got.SearchRadiusKM)
	assert.Equal(t, model.ModeOutdoor, got.IndoorOutdoor)
	require.NotNil(t, got.Difficulty)
	assert.Equal(t, "hard", *got.Difficulty)
	assert.Nil(t, got.Duration)
	assert.False(t, got.IsGeneric)
	assert.False(t, got.NeedsClarification, "only generic requests need clarification")
	assert.Equal(t, "Clear Sky, 18°C, wind 3m/s", got.WeatherCondition)
	assert.Equal(t, []string{"Vienna"}, w.locations)

	reqs := script.Requests("search_intent")
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, `"running route in Vienna, hard"`)
	assert.True(t, reqs[0].JSON)
}

func TestResolve_GenericRequest(t *testing.T) {
	script := llmtest.New().On("search_intent", `{
		"activity_type": "hiking",
		"location": "Prague",
		"search_query": "hiking near Prague",
		"search_radius_km": 15,
		"is_generic": true,
		"needs_clarification": true
	}`)

	got := NewResolver(script, nil, Options{}).Resolve(context.Background(), "hiking near Prague")

	assert.True(t, got.IsGeneric)
	assert.True(t, got.NeedsClarification)
	assert.Equal(t, 15, got.SearchRadiusKM)
	assert.Equal(t, model.ModeEither, got.IndoorOutdoor)
	assert.Empty(t, got.WeatherCondition)
}

func TestResolve_FallsBackOnInferenceFailure(t *testing.T) {
	tests := []struct {
		name   string
		script *llmtest.Script
	}{
		{"provider error", llmtest.New().Fail("search_intent", errors.New("connection refused"))},
		{"malformed json", llmtest.New().On("search_intent", `not json at all`)},
		{"schema violation", llmtest.New().On("search_intent", `{"activity_type": 3}`)},
		{"blank activity", llmtest.New().On("search_intent", `{"activity_type": " ", "location": "", "search_query": "", "is_generic": true, "needs_clarification": true}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fixedWeather{summary: "Light Rain, 9°C, wind 5m/s"}
			got := NewResolver(tt.script, w, Options{}).Resolve(context.Background(), "a quick jog in Budapest please")

			assert.Equal(t, "running", got.ActivityType)
			assert.Equal(t, "Budapest", got.Location)
			assert.Equal(t, "a quick jog in Budapest please", got.SearchQuery)
			assert.False(t, got.NeedsClarification)
			assert.False(t, got.IsGeneric)
			assert.Equal(t, "Light Rain, 9°C, wind 5m/s", got.WeatherCondition)
		})
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		request  string
		activity string
		location string
		mode     string
	}{
		{"Hiking trails near Salzburg Old Town", "hiking", "Salzburg Old Town", model.ModeEither},
		{"indoor climbing in berlin", "climbing", "Berlin", model.ModeIndoor},
		{"something fun outdoors around Graz", DefaultActivity, "Graz", model.ModeOutdoor},
		{"I want to BIKE", "cycling", "", model.ModeEither},
		{"running", "running", "", model.ModeEither},
	}
	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			got := Fallback(tt.request)
			assert.Equal(t, tt.activity, got.ActivityType)
			assert.Equal(t, tt.location, got.Location)
			assert.Equal(t, tt.mode, got.IndoorOutdoor)
			assert.Equal(t, tt.request, got.SearchQuery)
			assert.Equal(t, model.DefaultSearchRadiusKM, got.SearchRadiusKM)
			assert.False(t, got.NeedsClarification)
		})
	}
}
