package model

import "strings"

// Indoor/outdoor preference values.
const (
	ModeIndoor  = "indoor"
	ModeOutdoor = "outdoor"
	ModeEither  = "either"
)

// DefaultSearchRadiusKM is used when the request names no distance nuance.
const DefaultSearchRadiusKM = 25

// SearchIntent is the structured form of a user's free-text request.
//
// The pointer fields are only ever copied from explicit user text. A nil
// value means the user did not say it.
type SearchIntent struct {
	ActivityType     string   `json:"activity_type"`
	Location         string   `json:"location"`
	WeatherCondition string   `json:"weather_condition"`
	SearchQuery      string   `json:"search_query"`
	Preferences      []string `json:"preferences"`
	SearchRadiusKM   int      `json:"search_radius_km"`
	IndoorOutdoor    string   `json:"indoor_outdoor"`

	Difficulty    *string `json:"difficulty,omitempty"`
	Duration      *string `json:"duration,omitempty"`
	Elevation     *string `json:"elevation,omitempty"`
	Surface       *string `json:"surface,omitempty"`
	StartingPoint *string `json:"starting_point,omitempty"`
	Distance      *string `json:"distance,omitempty"`

	IsGeneric          bool `json:"is_generic"`
	NeedsClarification bool `json:"needs_clarification"`
}

// Normalize fixes up values a model may return out of range.
func (i *SearchIntent) Normalize() {
	i.ActivityType = strings.TrimSpace(i.ActivityType)
	i.Location = strings.TrimSpace(i.Location)
	if i.SearchRadiusKM <= 0 {
		i.SearchRadiusKM = DefaultSearchRadiusKM
	}
	switch strings.ToLower(i.IndoorOutdoor) {
	case ModeIndoor:
		i.IndoorOutdoor = ModeIndoor
	case ModeOutdoor:
		i.IndoorOutdoor = ModeOutdoor
	default:
		i.IndoorOutdoor = ModeEither
	}
	for _, p := range []**string{&i.Difficulty, &i.Duration, &i.Elevation, &i.Surface, &i.StartingPoint, &i.Distance} {
		if *p != nil && strings.TrimSpace(**p) == "" {
			*p = nil
		}
	}
	if i.NeedsClarification {
		i.IsGeneric = true
	}
	if i.SearchQuery == "" {
		i.SearchQuery = strings.TrimSpace(i.ActivityType + " " + i.Location)
	}
}

// SearchHit is one raw web search result.
type SearchHit struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}
