// Package score selects which extracted activities are recommended and
// advises on how the current weather suits each one.
package score

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/wayfind/internal/model"
	"github.com/ppiankov/wayfind/internal/weather"
)

// Defaults for a zero Selector.
const (
	DefaultMinRelevance = 0.3
	DefaultMaxResults   = 3
)

// ColdBelowC is the temperature under which warm clothing is advised.
const ColdBelowC = 5.0

// Selector picks the activities worth recommending
type Selector struct {
	MinRelevance float64
	MaxResults   int
}

// NewSelector creates a selector. Non-positive values fall back to the
// defaults.
func NewSelector(minRelevance float64, maxResults int) *Selector {
	if minRelevance <= 0 {
		minRelevance = DefaultMinRelevance
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Selector{MinRelevance: minRelevance, MaxResults: maxResults}
}

// Select filters and orders activities:
//  1. failure sentinels and zero relevance records are dropped.
//  2. records below MinRelevance are dropped, unless that would leave none.
//  3. the rest are sorted by relevance, highest first, preserving input
//     order among equals, and capped at MaxResults.
func (s *Selector) Select(activities []model.ExtractedActivity) []model.ExtractedActivity {
	var usable []model.ExtractedActivity
	for _, a := range activities {
		if a.Failed() || a.Relevance <= 0 {
			continue
		}
		usable = append(usable, a)
	}

	var relevant []model.ExtractedActivity
	for _, a := range usable {
		if a.Relevance >= s.MinRelevance {
			relevant = append(relevant, a)
		}
	}
	if len(relevant) == 0 {
		relevant = usable
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].Relevance > relevant[j].Relevance
	})
	if len(relevant) > s.MaxResults {
		relevant = relevant[:s.MaxResults]
	}
	return relevant
}

var temperature = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*°C`)

// WeatherAdvice says how conditions suit activity.
func WeatherAdvice(activity model.ExtractedActivity, conditions string) string {
	if strings.EqualFold(activity.IndoorOutdoor, model.ModeIndoor) {
		return "Great indoor option regardless of weather"
	}
	if conditions == "" || weather.IsUnavailable(conditions) {
		return "Check the forecast before heading out"
	}

	w := strings.ToLower(conditions)
	switch {
	case containsAny(w, "rain", "drizzle", "thunderstorm", "shower"):
		return "Rain expected: bring rain gear or consider an indoor alternative"
	case below(w, ColdBelowC):
		return "Cold conditions: dress warmly in layers"
	case containsAny(w, "snow"):
		return "Snowy conditions: check trail status and wear proper footwear"
	case containsAny(w, "clear", "sunny"):
		return "Perfect weather for outdoor activity! Bring sunscreen"
	}
	return "Suitable weather for outdoor activity"
}

func below(conditions string, limit float64) bool {
	m := temperature.FindStringSubmatch(conditions)
	if m == nil {
		return false
	}
	t, err := strconv.ParseFloat(m[1], 64)
	return err == nil && t < limit
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
