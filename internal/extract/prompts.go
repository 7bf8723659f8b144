package extract

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/ppiankov/wayfind/internal/model"
)

const truncatedMarker = "...[truncated]"

const classifierSystem = "You analyze web page structure to decide how activity data can be extracted from it."

const classifierPrompt = `Classify this web page so activity data can be extracted from it safely.

USER INTENT: %s
SOURCE URL: %s
CONTENT:
%s

PAGE TYPES:
- individual_activity: the page is about one specific trail, route, venue or class, usually with details for that one activity.
- activity_list: the page lists several distinct activities, e.g. "10 best trails near Vienna" or a category page. It may link to a page per activity.
- mixed_content: blog posts, general guides or pages that mention activities without focusing on any.

For activity_list pages:
- activity_count is the number of distinct named activities listed.
- sub_urls are links from the page to detail pages of individual listed activities, copied exactly.
- best_match_url is the sub_url whose activity best matches the user intent, or null if there is none.

confidence is your certainty in page_type, from 0.0 to 1.0.
Do not report metrics here. On list pages they belong to different activities.`

const rankerSystem = "You extract the individually named activities from a list page and rank them against the user's intent."

const rankerPrompt = `Extract the distinct, individually named activities listed on this page.

USER INTENT: %s
SOURCE URL: %s
CONTENT:
%s

For each activity give:
- name: the specific name used on the page (a trail, route, venue or class), never a category such as "Running routes".
- description: one short sentence from the page.
- sub_url: the link to its own detail page if present, else null.
- relevance: how well it matches the user intent, from 0.0 to 1.0.
- has_details: true if the page states measurements (distance, time, elevation) for this activity.

Return at most %d candidates, best match first.`

const extractorSystem = "You extract structured information about one specific activity from web content. Never mix data from different activities."

const extractorPrompt = `Extract the single most specific named activity from this web content.

USER INTENT: %s
SOURCE URL: %s
CONTENT:
%s

DATA MIXING:
If the page describes several activities, metrics for one must never be reported for another.
When you cannot tell which activity a measurement belongs to, leave every metric null.

Pick a concrete activity such as "Donauinsel 5km Loop", not a category such as "Running Routes in Vienna".
` + extractionRules

const focusedPrompt = `Extract information about this one target activity from the content.

TARGET ACTIVITY: %s
TARGET DESCRIPTION: %s
USER INTENT: %s
SOURCE URL: %s
CONTENT:
%s

Report only what the content states about "%s". Ignore every other activity on the page.
Fill a metric only when it clearly belongs to the target. Ambiguous values stay null.
` + extractionRules

const extractionRules = `
FIELDS:
- name, location, description (route details, landmarks, terrain).
- difficulty, duration, equipment, weather_suitability, indoor_outdoor ("indoor" or "outdoor").
- metrics, each only if explicitly stated, using the source's exact wording:
  distance ("3.9 mi"), elevation_gain ("301 ft"), estimated_time ("1 hr 25 min"),
  average_rating ("4.6/5"), surface_type ("paved"), starting_point, route_type ("loop").
  Never guess. Unknown metrics are null.
- extraction_confidence: "high", "medium" or "low".
- relevance to the user intent, strictly:
  1.0      exact activity, location and preferences
  0.8-0.9  right type of specific activity, good location match
  0.6-0.7  specific activity, related type or location
  0.4-0.5  somewhat specific, loosely related
  0.2-0.3  generic or barely related
  0.0-0.1  unrelated or too generic`

// truncate caps content at limit runes.
func truncate(content string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(content) <= limit {
		return content
	}
	return string([]rune(content)[:limit]) + truncatedMarker
}

func intentJSON(intent model.SearchIntent) string {
	raw, err := json.Marshal(intent)
	if err != nil {
		return fmt.Sprintf("%s in %s", intent.ActivityType, intent.Location)
	}
	return string(raw)
}
