package intent

import (
	"fmt"
	"strings"

	"github.com/ppiankov/wayfind/internal/model"
)

// ProceedHint closes every clarification message.
const ProceedHint = `Just say "proceed" or "go ahead"!`

// Questions returns the three clarification questions for an activity.
func Questions(activity string) []string {
	a := strings.ToLower(activity)
	switch {
	case strings.Contains(a, "run"), strings.Contains(a, "jog"):
		return []string{
			"What distance are you looking for? (e.g., 5K, 10K, half marathon)",
			"Do you prefer hilly routes or flat terrain?",
			"Would you like trails or paved paths?",
		}
	case strings.Contains(a, "hik"), strings.Contains(a, "walk"):
		return []string{
			"What difficulty level are you comfortable with? (easy, moderate, challenging)",
			"How much time do you have? (a couple of hours, half day, full day)",
			"Do you prefer flat routes or ones with elevation gain?",
		}
	case strings.Contains(a, "cycl"), strings.Contains(a, "bik"):
		return []string{
			"How far would you like to ride?",
			"Do you prefer dedicated bike paths or are you fine riding with traffic?",
			"Flat routes or some hills?",
		}
	}
	return []string{
		fmt.Sprintf("What level of %s are you looking for? (beginner, intermediate, advanced)", activity),
		"How much time do you want to spend?",
		"Any specific preferences for location or type?",
	}
}

// ClarificationMessage asks the user to narrow a generic request, and
// offers to proceed with it as is.
func ClarificationMessage(intent model.SearchIntent) string {
	activity := intent.ActivityType
	if activity == "" {
		activity = DefaultActivity
	}
	location := intent.Location
	if location == "" {
		location = "your area"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found your request for %s in %s! To give you the best recommendations, could you help me with a few details?\n\n", activity, location)
	for _, q := range Questions(activity) {
		fmt.Fprintf(&b, "• %s\n", q)
	}
	fmt.Fprintf(&b, "\nOr if you'd like, I can proceed with general %s options in %s and you can refine from there. %s", activity, location, ProceedHint)
	return b.String()
}
