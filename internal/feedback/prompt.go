package feedback

import (
	"fmt"
	"strings"

	"github.com/ppiankov/wayfind/internal/model"
)

const feedbackSystem = "You classify user feedback on activity recommendations. Respond with JSON only."

const feedbackExamples = `CATEGORIES:
- satisfied: the user is happy with the results.
- new_search: the user wants a different activity or a completely different kind of search.
- refinement: the user wants the same activity adjusted (distance, difficulty, duration, location nuance, equipment, terrain).
- unclear: the intent cannot be determined.

EXAMPLES:
"Perfect, thanks!" -> satisfied
"These look great" -> satisfied
"Actually, I prefer cycling instead" -> new_search
"I'd rather do something indoors" -> new_search
"These are too difficult" -> refinement
"Longer routes, could also be more in the outskirts" -> refinement
"Hmm" -> unclear`

func feedbackPrompt(feedback, original string, previous []model.ActivityRecommendation) string {
	var shown strings.Builder
	for _, r := range previous {
		fmt.Fprintf(&shown, "- %s (%s, %s)\n", r.Name, r.Difficulty, r.Duration)
	}
	if shown.Len() == 0 {
		shown.WriteString("- none\n")
	}

	return fmt.Sprintf(`Classify the user's feedback on the recommendations below.

ORIGINAL REQUEST: %q

RECOMMENDATIONS SHOWN:
%s
FEEDBACK: %q

%s

Return "status", a one sentence "reasoning", and "changes": an object of the specific changes requested (for example {"difficulty": "easier"}).`,
		original, shown.String(), feedback, feedbackExamples)
}
