package extract

import "github.com/ppiankov/wayfind/internal/llm"

var nullableString = map[string]any{"type": []string{"string", "null"}}

var assessmentShape = llm.NewShape("page_assessment", map[string]any{
	"type":     "object",
	"required": []string{"page_type", "activity_count", "confidence"},
	"properties": map[string]any{
		"page_type": map[string]any{
			"type": "string",
			"enum": []string{"individual_activity", "activity_list", "mixed_content"},
		},
		"has_multiple_activities": map[string]any{"type": "boolean"},
		"activity_count":          map[string]any{"type": "integer", "minimum": 0},
		"confidence":              map[string]any{"type": "number"},
		"sub_urls": map[string]any{
			"type":  []string{"array", "null"},
			"items": map[string]any{"type": "string"},
		},
		"best_match_url": nullableString,
	},
})

var candidatesShape = llm.NewShape("activity_candidates", map[string]any{
	"type":     "object",
	"required": []string{"candidates"},
	"properties": map[string]any{
		"candidates": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"name", "relevance"},
				"properties": map[string]any{
					"name":        map[string]any{"type": "string"},
					"description": nullableString,
					"sub_url":     nullableString,
					"relevance":   map[string]any{"type": "number"},
					"has_details": map[string]any{"type": "boolean"},
				},
			},
		},
	},
})

var activityShape = llm.NewShape("extracted_activity", map[string]any{
	"type":     "object",
	"required": []string{"name", "relevance"},
	"properties": map[string]any{
		"name":                nullableString,
		"location":            nullableString,
		"description":         nullableString,
		"difficulty":          nullableString,
		"duration":            nullableString,
		"equipment":           map[string]any{"type": []string{"string", "array", "null"}},
		"weather_suitability": nullableString,
		"indoor_outdoor":      nullableString,
		"metrics": map[string]any{
			"type": []string{"object", "null"},
			"properties": map[string]any{
				"distance":       nullableString,
				"elevation_gain": nullableString,
				"estimated_time": nullableString,
				"average_rating": nullableString,
				"surface_type":   nullableString,
				"starting_point": nullableString,
				"route_type":     nullableString,
			},
		},
		"relevance":             map[string]any{"type": "number"},
		"extraction_confidence": nullableString,
	},
})
