package intent

import (
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/wayfind/internal/model"
	"github.com/ppiankov/wayfind/internal/weather"
)

// maxEnhancements caps how many terms EnhanceQuery appends.
const maxEnhancements = 2

var fullLocations = map[string]string{
	"vienna":     "Vienna Austria",
	"prague":     "Prague Czech Republic",
	"budapest":   "Budapest Hungary",
	"berlin":     "Berlin Germany",
	"munich":     "Munich Germany",
	"zurich":     "Zurich Switzerland",
	"amsterdam":  "Amsterdam Netherlands",
	"stockholm":  "Stockholm Sweden",
	"copenhagen": "Copenhagen Denmark",
	"oslo":       "Oslo Norway",
	"helsinki":   "Helsinki Finland",
}

// EnhanceQuery builds the web search query for intent, qualifying well
// known cities with their country and appending at most two weather or
// time of day terms.
func EnhanceQuery(intent model.SearchIntent, conditions string, now time.Time) string {
	query := strings.TrimSpace(intent.SearchQuery)
	if query == "" {
		query = strings.TrimSpace(intent.ActivityType + " " + intent.Location)
	}

	if full, ok := fullLocations[strings.ToLower(intent.Location)]; ok {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(intent.Location) + `\b`)
		query = re.ReplaceAllLiteralString(query, full)
	}

	var extra []string
	if term := weatherTerm(intent, conditions); term != "" {
		extra = append(extra, term)
	}
	if term := timeTerm(intent, now); term != "" {
		extra = append(extra, term)
	}
	if len(extra) > maxEnhancements {
		extra = extra[:maxEnhancements]
	}
	if len(extra) == 0 {
		return query
	}
	return query + " " + strings.Join(extra, " ")
}

func weatherTerm(intent model.SearchIntent, conditions string) string {
	if conditions == "" || weather.IsUnavailable(conditions) {
		return ""
	}
	w := strings.ToLower(conditions)
	switch {
	case strings.Contains(w, "sunny"), strings.Contains(w, "clear"):
		return "sunny weather"
	case strings.Contains(w, "rain") && intent.IndoorOutdoor == model.ModeOutdoor:
		return "covered routes"
	case strings.Contains(w, "cloud"), strings.Contains(w, "overcast"):
		return "day trip"
	}
	return ""
}

func timeTerm(intent model.SearchIntent, now time.Time) string {
	if now.IsZero() {
		return ""
	}
	h := now.Hour()
	switch {
	case h >= 6 && h <= 10:
		return "morning"
	case h >= 17 && h <= 20:
		return "evening"
	case h >= 21 || h <= 5:
		activity := strings.ToLower(intent.ActivityType)
		if strings.Contains(activity, "run") || strings.Contains(activity, "cycl") {
			return "well-lit safe routes"
		}
	}
	return ""
}
