package pipeline

import (
	"fmt"
	"strings"

	"github.com/ppiankov/wayfind/internal/model"
)

// RefinePrompt closes every message that presents results.
const RefinePrompt = "Would you like me to adjust these? You can ask for longer or shorter routes, a different difficulty, or something else entirely."

func presentation(si model.SearchIntent, recs []model.ActivityRecommendation) string {
	where := ""
	if si.Location != "" {
		where = " in " + si.Location
	}

	if len(recs) == 0 {
		return fmt.Sprintf("I couldn't find specific %s recommendations%s. Try rephrasing your request or choosing a different location.", si.ActivityType, where)
	}

	var b strings.Builder
	if len(recs) == 1 {
		fmt.Fprintf(&b, "Here is my top recommendation for %s%s:\n\n", si.ActivityType, where)
	} else {
		fmt.Fprintf(&b, "Here are my top %d recommendations for %s%s:\n\n", len(recs), si.ActivityType, where)
	}
	for i, r := range recs {
		fmt.Fprintf(&b, "%d. %s (%s, %s)\n", i+1, r.Name, r.Difficulty, r.Duration)
		if r.Description != "" {
			fmt.Fprintf(&b, "   %s\n", r.Description)
		}
		if d := r.Metrics.Distance; d != nil {
			fmt.Fprintf(&b, "   Distance: %s\n", *d)
		}
		if r.WeatherRecommendation != "" {
			fmt.Fprintf(&b, "   Weather: %s\n", r.WeatherRecommendation)
		}
		fmt.Fprintf(&b, "   Source: %s\n", r.SourceURL)
	}
	b.WriteString("\n")
	b.WriteString(RefinePrompt)
	return b.String()
}
