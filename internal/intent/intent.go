// Package intent turns a free-text request into a structured search intent.
package intent

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/llm"
	"github.com/ppiankov/wayfind/internal/metrics"
	"github.com/ppiankov/wayfind/internal/model"
)

// WeatherSource reports current conditions. It never fails; a placeholder
// is returned when conditions are unknown.
type WeatherSource interface {
	Current(ctx context.Context, location string) string
}

// Options configures a Resolver.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Resolver parses requests with structured inference and attaches the
// current weather for the resolved location.
type Resolver struct {
	llm     llm.Completer
	weather WeatherSource
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewResolver creates a resolver. weather may be nil.
func NewResolver(c llm.Completer, weather WeatherSource, opts Options) *Resolver {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{llm: c, weather: weather, log: log, metrics: opts.Metrics}
}

var intentShape = llm.NewShape("search_intent", map[string]any{
	"type":     "object",
	"required": []string{"activity_type", "location", "search_query", "is_generic", "needs_clarification"},
	"properties": map[string]any{
		"activity_type": map[string]any{"type": "string"},
		"location":      map[string]any{"type": "string"},
		"search_query":  map[string]any{"type": "string"},
		"preferences": map[string]any{
			"type":  []string{"array", "null"},
			"items": map[string]any{"type": "string"},
		},
		"search_radius_km":    map[string]any{"type": []string{"number", "null"}},
		"indoor_outdoor":      map[string]any{"type": []string{"string", "null"}},
		"difficulty":          nullable,
		"duration":            nullable,
		"elevation":           nullable,
		"surface":             nullable,
		"starting_point":      nullable,
		"distance":            nullable,
		"is_generic":          map[string]any{"type": "boolean"},
		"needs_clarification": map[string]any{"type": "boolean"},
	},
})

var nullable = map[string]any{"type": []string{"string", "null"}}

// intentRecord shadows the radius so fractional model output decodes.
type intentRecord struct {
	model.SearchIntent
	SearchRadiusKM *float64 `json:"search_radius_km"`
}

const intentSystem = "You convert activity requests into structured search parameters. Respond with JSON only."

const intentPrompt = `Parse this activity request into search parameters.

REQUEST: %q

RULES:
- activity_type: the activity asked for, in lower case (running, hiking, cycling, ...).
- location: the place named in the request, as written. Empty if none.
- search_query: a concise web search query for the request.
- search_radius_km: 10 for "city center", 15 for "nearby" or "close", 50 or more for "day trip", otherwise 25.
- indoor_outdoor: "indoor", "outdoor" or "either".
- difficulty, duration, elevation, surface, starting_point, distance: fill ONLY when the request states them explicitly. Use null otherwise. Never guess.
- preferences: other explicit wishes, as short phrases.
- is_generic: true when the request names an activity and a place but no specific preferences.
- needs_clarification: true only for very generic requests, and only when is_generic is true.

EXAMPLES:
"hiking near Prague" -> is_generic true, needs_clarification true
"running route in Vienna, hard" -> difficulty "hard", is_generic false, needs_clarification false
"easy 2 hour hike with lake views near Zurich" -> difficulty "easy", duration "2 hours", preferences ["lake views"], is_generic false`

// Resolve parses request. It never fails: when inference fails a
// keyword-derived intent is used instead.
func (r *Resolver) Resolve(ctx context.Context, request string) model.SearchIntent {
	request = strings.TrimSpace(request)

	intent, err := r.parse(ctx, request)
	if err != nil {
		r.metrics.InferenceFailure(intentShape.Name)
		r.log.Warn("intent parsing failed, using keyword fallback", zap.Error(err))
		intent = Fallback(request)
	}

	if r.weather != nil && intent.Location != "" {
		intent.WeatherCondition = r.weather.Current(ctx, intent.Location)
	}

	r.log.Debug("intent resolved",
		zap.String("activity", intent.ActivityType),
		zap.String("location", intent.Location),
		zap.Bool("generic", intent.IsGeneric),
		zap.Bool("clarify", intent.NeedsClarification))
	return intent
}

func (r *Resolver) parse(ctx context.Context, request string) (model.SearchIntent, error) {
	rec, err := llm.Infer[intentRecord](ctx, r.llm, llm.Call{
		Shape:     intentShape,
		System:    intentSystem,
		Prompt:    fmt.Sprintf(intentPrompt, request),
		MaxTokens: 500,
	})
	if err != nil {
		return model.SearchIntent{}, err
	}

	intent := rec.SearchIntent
	if rec.SearchRadiusKM != nil {
		intent.SearchRadiusKM = int(math.Round(*rec.SearchRadiusKM))
	}
	if strings.TrimSpace(intent.ActivityType) == "" {
		return model.SearchIntent{}, fmt.Errorf("infer %s: no activity type", intentShape.Name)
	}
	if !intent.IsGeneric {
		intent.NeedsClarification = false
	}
	intent.Normalize()
	return intent, nil
}
