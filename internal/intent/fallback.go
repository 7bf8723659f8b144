package intent

import (
	"regexp"
	"strings"

	"github.com/ppiankov/wayfind/internal/keywords"
	"github.com/ppiankov/wayfind/internal/model"
)

// DefaultActivity names requests that match no known activity.
const DefaultActivity = "activity"

var activityTerms = map[string]string{
	"running": "running", "run": "running", "jog": "running", "jogging": "running",
	"hiking": "hiking", "hike": "hiking", "trail": "hiking", "trails": "hiking", "trek": "hiking", "trekking": "hiking",
	"cycling": "cycling", "cycle": "cycling", "bike": "cycling", "biking": "cycling", "bicycle": "cycling",
	"swimming": "swimming", "swim": "swimming",
	"climbing": "climbing", "climb": "climbing", "bouldering": "climbing",
	"yoga": "yoga", "pilates": "yoga",
	"walking": "walking", "walk": "walking",
	"skiing": "skiing", "ski": "skiing",
	"kayaking": "kayaking", "kayak": "kayaking",
}

var cityNames = map[string]string{
	"vienna": "Vienna", "prague": "Prague", "budapest": "Budapest",
	"berlin": "Berlin", "munich": "Munich", "zurich": "Zurich",
	"amsterdam": "Amsterdam", "stockholm": "Stockholm", "copenhagen": "Copenhagen",
	"oslo": "Oslo", "helsinki": "Helsinki",
}

var (
	activityMatcher = keywords.New(keys(activityTerms)...)
	cityMatcher     = keywords.New(keys(cityNames)...)
	indoorMatcher   = keywords.New("indoor", "indoors", "inside")
	outdoorMatcher  = keywords.New("outdoor", "outdoors", "outside")

	placePattern = regexp.MustCompile(`\b(?:in|near|around)\s+(\p{Lu}[\p{L}'-]*(?:\s+\p{Lu}[\p{L}'-]*)*)`)
)

// Fallback derives an intent from request without inference. It is never
// marked for clarification.
func Fallback(request string) model.SearchIntent {
	request = strings.TrimSpace(request)

	activity := DefaultActivity
	if found := activityMatcher.Find(request); len(found) > 0 {
		activity = activityTerms[found[0]]
	}

	mode := model.ModeEither
	switch {
	case indoorMatcher.Any(request):
		mode = model.ModeIndoor
	case outdoorMatcher.Any(request):
		mode = model.ModeOutdoor
	}

	intent := model.SearchIntent{
		ActivityType:  activity,
		Location:      fallbackLocation(request),
		SearchQuery:   request,
		IndoorOutdoor: mode,
	}
	intent.Normalize()
	return intent
}

func fallbackLocation(request string) string {
	if found := cityMatcher.Find(request); len(found) > 0 {
		return cityNames[found[0]]
	}
	if m := placePattern.FindStringSubmatch(request); m != nil {
		return m[1]
	}
	return ""
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
