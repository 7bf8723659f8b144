package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/fetch"
	"github.com/ppiankov/wayfind/internal/llm"
	"github.com/ppiankov/wayfind/internal/model"
)

// Extractor produces one activity record from page content.
type Extractor struct {
	llm  llm.Completer
	opts Options
}

// NewExtractor creates an activity extractor.
func NewExtractor(c llm.Completer, opts Options) *Extractor {
	return &Extractor{llm: c, opts: opts.withDefaults()}
}

// activityRecord is the model's answer. Equipment arrives as a string or a list.
type activityRecord struct {
	Name               string          `json:"name"`
	Location           string          `json:"location"`
	Description        string          `json:"description"`
	Difficulty         string          `json:"difficulty"`
	Duration           string          `json:"duration"`
	Equipment          json.RawMessage `json:"equipment"`
	WeatherSuitability string          `json:"weather_suitability"`
	IndoorOutdoor      string          `json:"indoor_outdoor"`
	Metrics            *model.Metrics  `json:"metrics"`
	Relevance          float64         `json:"relevance"`
	Confidence         string          `json:"extraction_confidence"`
}

// Extract reads one activity from page. With a nil target the most
// specific named activity is chosen; otherwise only data attributable to
// target is reported. multiList marks page as a list of several
// activities, which drops metrics from an unfocused read. Failures yield
// the sentinel record.
func (e *Extractor) Extract(ctx context.Context, page *fetch.Page, intent model.SearchIntent, target *model.ActivityCandidate, multiList bool) model.ExtractedActivity {
	content := truncate(page.Text, e.opts.MaxContentChars)

	var prompt, system string
	if target != nil {
		system = "Extract information for the specific target activity only. Do not mix data from multiple activities."
		prompt = fmt.Sprintf(focusedPrompt,
			target.Name, target.Description, intentJSON(intent), page.URL, content, target.Name)
	} else {
		system = extractorSystem
		prompt = fmt.Sprintf(extractorPrompt, intentJSON(intent), page.URL, content)
	}

	rec, err := llm.Infer[activityRecord](ctx, e.llm, llm.Call{
		Shape:  activityShape,
		System: system,
		Prompt: prompt,
	})
	if err != nil {
		e.opts.Metrics.InferenceFailure(activityShape.Name)
		e.opts.Logger.Warn("activity extraction failed",
			zap.String("url", page.URL), zap.Bool("focused", target != nil), zap.Error(err))
		reason := "Extraction failed: " + err.Error()
		if target != nil {
			reason = "Focused extraction failed: " + err.Error()
		}
		return model.FailedActivity(page.URL, reason)
	}

	if strings.TrimSpace(rec.Name) == "" {
		return model.FailedActivity(page.URL, "no specific activity found")
	}

	a := rec.activity(page.URL)
	a.EnforceInvariants(multiList, target != nil)
	return a
}

func (r activityRecord) activity(sourceURL string) model.ExtractedActivity {
	a := model.ExtractedActivity{
		SourceURL:          sourceURL,
		Name:               r.Name,
		Location:           r.Location,
		Description:        strings.TrimSpace(r.Description),
		Difficulty:         r.Difficulty,
		Duration:           r.Duration,
		Equipment:          equipment(r.Equipment),
		WeatherSuitability: r.WeatherSuitability,
		IndoorOutdoor:      r.IndoorOutdoor,
		Relevance:          r.Relevance,
		Confidence:         model.Confidence(strings.ToLower(strings.TrimSpace(r.Confidence))),
	}
	if r.Metrics != nil {
		a.Metrics = *r.Metrics
	}
	return a
}

func equipment(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		kept := list[:0]
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				kept = append(kept, item)
			}
		}
		return strings.Join(kept, ", ")
	}
	return ""
}
