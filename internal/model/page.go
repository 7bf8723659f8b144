package model

// PageType classifies a fetched page.
type PageType string

const (
	PageIndividualActivity PageType = "individual_activity"
	PageActivityList       PageType = "activity_list"
	PageMixedContent       PageType = "mixed_content"
)

// Valid reports whether t is a known page type.
func (t PageType) Valid() bool {
	switch t {
	case PageIndividualActivity, PageActivityList, PageMixedContent:
		return true
	}
	return false
}

// Strategy is how a fetched page is turned into an activity record.
type Strategy string

const (
	StrategyDirect        Strategy = "direct"
	StrategySubPageFollow Strategy = "sub_page_follow"
	StrategyListSelection Strategy = "list_selection"
	StrategyFailed        Strategy = "failed"
)

// PageAssessment is the classifier's view of one fetched page. It is
// consumed immediately by the coordinator and never retained.
type PageAssessment struct {
	PageType              PageType `json:"page_type"`
	HasMultipleActivities bool     `json:"has_multiple_activities"`
	ActivityCount         int      `json:"activity_count"`
	Confidence            float64  `json:"confidence"`
	SubURLs               []string `json:"sub_urls,omitempty"`
	BestMatchURL          string   `json:"best_match_url,omitempty"`
}

// Normalize clamps numeric fields and maps unknown page types to mixed content.
func (a *PageAssessment) Normalize() {
	if !a.PageType.Valid() {
		a.PageType = PageMixedContent
	}
	if a.ActivityCount < 0 {
		a.ActivityCount = 0
	}
	a.Confidence = Clamp01(a.Confidence)
	if a.ActivityCount > 1 {
		a.HasMultipleActivities = true
	}
}

// IsMultiList reports whether the page lists more than one activity.
func (a PageAssessment) IsMultiList() bool {
	return a.PageType == PageActivityList && a.ActivityCount > 1
}

// FallbackAssessment is used when classification itself fails.
func FallbackAssessment(confidence float64) PageAssessment {
	return PageAssessment{
		PageType:      PageMixedContent,
		ActivityCount: 1,
		Confidence:    Clamp01(confidence),
	}
}

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
