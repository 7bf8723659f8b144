package model

import (
	"fmt"
	"strings"
)

// Confidence is the extractor's self-reported certainty.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Neutral defaults for fields the page did not state.
const (
	DefaultDifficulty         = "not specified"
	DefaultDuration           = "varies"
	DefaultEquipment          = "not specified"
	DefaultWeatherSuitability = "any weather"
	DefaultIndoorOutdoor      = ModeOutdoor
)

// FailedActivityName marks the sentinel record produced on extraction failure.
const FailedActivityName = "Extraction Failed"

// MinDetailedMetrics is how many metrics must be present before a record
// may claim its details are available.
const MinDetailedMetrics = 2

// Metrics are the detailed, activity-specific measurements. Every field is
// optional and must belong to one named activity.
type Metrics struct {
	Distance      *string `json:"distance,omitempty"`
	ElevationGain *string `json:"elevation_gain,omitempty"`
	EstimatedTime *string `json:"estimated_time,omitempty"`
	AverageRating *string `json:"average_rating,omitempty"`
	SurfaceType   *string `json:"surface_type,omitempty"`
	StartingPoint *string `json:"starting_point,omitempty"`
	RouteType     *string `json:"route_type,omitempty"`
}

func (m *Metrics) fields() []**string {
	return []**string{
		&m.Distance, &m.ElevationGain, &m.EstimatedTime, &m.AverageRating,
		&m.SurfaceType, &m.StartingPoint, &m.RouteType,
	}
}

// Count returns how many metrics carry a non-blank value.
func (m Metrics) Count() int {
	n := 0
	for _, f := range m.fields() {
		if *f != nil && strings.TrimSpace(**f) != "" {
			n++
		}
	}
	return n
}

// compact drops blank values so absence is always nil.
func (m *Metrics) compact() {
	for _, f := range m.fields() {
		if *f != nil {
			v := strings.TrimSpace(**f)
			if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "unknown") {
				*f = nil
				continue
			}
			**f = v
		}
	}
}

// ActivityCandidate is one named entry on a list page.
type ActivityCandidate struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	SubURL      string  `json:"sub_url,omitempty"`
	Relevance   float64 `json:"relevance"`
	HasDetails  bool    `json:"has_details"`
}

// ExtractedActivity is a single, non-mixed activity record.
type ExtractedActivity struct {
	SourceURL          string     `json:"source_url"`
	Name               string     `json:"name"`
	Location           string     `json:"location"`
	Description        string     `json:"description"`
	Difficulty         string     `json:"difficulty"`
	Duration           string     `json:"duration"`
	Equipment          string     `json:"equipment"`
	WeatherSuitability string     `json:"weather_suitability"`
	IndoorOutdoor      string     `json:"indoor_outdoor"`
	Metrics            Metrics    `json:"metrics"`
	Relevance          float64    `json:"relevance"`
	Confidence         Confidence `json:"extraction_confidence"`
	DetailsAvailable   bool       `json:"details_available"`
}

// EnforceInvariants applies defaults and the anti-mixing rule.
//
// When the source page is a list of several activities and the extraction
// was not focused on one candidate, no metric can be trusted to belong to
// the named activity, so all of them are cleared.
func (a *ExtractedActivity) EnforceInvariants(multiList, focused bool) {
	a.Name = strings.TrimSpace(a.Name)
	a.Location = strings.TrimSpace(a.Location)
	a.Difficulty = orDefault(a.Difficulty, DefaultDifficulty)
	a.Duration = orDefault(a.Duration, DefaultDuration)
	a.Equipment = orDefault(a.Equipment, DefaultEquipment)
	a.WeatherSuitability = orDefault(a.WeatherSuitability, DefaultWeatherSuitability)
	a.IndoorOutdoor = orDefault(strings.ToLower(a.IndoorOutdoor), DefaultIndoorOutdoor)
	a.Relevance = Clamp01(a.Relevance)

	switch a.Confidence {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		a.Confidence = ConfidenceLow
	}

	a.Metrics.compact()
	if multiList && !focused {
		a.Metrics = Metrics{}
	}
	a.DetailsAvailable = a.Metrics.Count() >= MinDetailedMetrics
}

// Failed reports whether a is the extraction failure sentinel.
func (a ExtractedActivity) Failed() bool {
	return a.Name == FailedActivityName
}

// FailedActivity builds the sentinel record for a URL that yielded nothing.
func FailedActivity(url, reason string) ExtractedActivity {
	return ExtractedActivity{
		SourceURL:          url,
		Name:               FailedActivityName,
		Location:           "Unknown",
		Description:        fmt.Sprintf("Failed to extract activity data: %s", reason),
		Difficulty:         "unknown",
		Duration:           "unknown",
		Equipment:          "unknown",
		WeatherSuitability: "unknown",
		IndoorOutdoor:      "unknown",
		Relevance:          0,
		Confidence:         ConfidenceLow,
	}
}

// ActivityRecommendation is the display-ready projection of an activity.
type ActivityRecommendation struct {
	Name                  string  `json:"name"`
	Location              string  `json:"location"`
	Description           string  `json:"description"`
	Difficulty            string  `json:"difficulty"`
	Duration              string  `json:"duration"`
	Equipment             string  `json:"equipment"`
	IndoorOutdoor         string  `json:"indoor_outdoor"`
	Metrics               Metrics `json:"metrics"`
	Relevance             float64 `json:"relevance"`
	SourceURL             string  `json:"source_url"`
	WeatherRecommendation string  `json:"weather_recommendation"`
}

// NewRecommendation projects an extracted activity for display.
func NewRecommendation(a ExtractedActivity, weatherAdvice string) ActivityRecommendation {
	return ActivityRecommendation{
		Name:                  a.Name,
		Location:              a.Location,
		Description:           a.Description,
		Difficulty:            a.Difficulty,
		Duration:              a.Duration,
		Equipment:             a.Equipment,
		IndoorOutdoor:         a.IndoorOutdoor,
		Metrics:               a.Metrics,
		Relevance:             a.Relevance,
		SourceURL:             a.SourceURL,
		WeatherRecommendation: weatherAdvice,
	}
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "null") {
		return def
	}
	return v
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}
