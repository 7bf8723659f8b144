package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/wayfind/internal/llm/llmtest"
	"github.com/ppiankov/wayfind/internal/model"
)

const original = "running route in Vienna, hard"

var shown = []model.ActivityRecommendation{{Name: "Prater Hauptallee", Difficulty: "easy", Duration: "45 min"}}

func verdictJSON(status, reasoning string) string {
	return `{"status": "` + status + `", "reasoning": "` + reasoning + `", "changes": {}}`
}

func classify(t *testing.T, script *llmtest.Script, text string) model.TurnFeedback {
	t.Helper()
	return NewClassifier(script, Options{}).Classify(context.Background(), text, original, shown)
}

func TestClassify_Satisfied(t *testing.T) {
	script := llmtest.New().On("turn_feedback", verdictJSON("satisfied", "The user is happy."))

	got := classify(t, script, "Perfect, thanks!")

	assert.Equal(t, model.FeedbackSatisfied, got.Status)
	assert.Equal(t, model.SignalNone, got.Signal)
	assert.Equal(t, "Perfect, thanks!", got.UserText)

	reqs := script.Requests("turn_feedback")
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "Prater Hauptallee")
	assert.Contains(t, reqs[0].Prompt, `ORIGINAL REQUEST: "running route in Vienna, hard"`)
}

func TestClassify_KeywordsOverrideModel(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		model    string
		want     model.FeedbackStatus
		keywords string
	}{
		{"pivot over satisfied", "Actually, I prefer cycling instead", "satisfied", model.FeedbackNewSearch, "prefer, instead"},
		{"pivot over refinement", "I'd rather do something indoors", "refinement", model.FeedbackNewSearch, "rather"},
		{"tweak over unclear", "These are too difficult", "unclear", model.FeedbackRefinement, "too difficult"},
		{"tweak over new search", "Longer routes in the outskirts", "new_search", model.FeedbackRefinement, "longer, outskirts"},
		{"pivot wins a tie", "How about something shorter instead?", "refinement", model.FeedbackNewSearch, "how about, instead"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := llmtest.New().On("turn_feedback", verdictJSON(tt.model, "Model reading."))

			got := classify(t, script, tt.text)

			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.keywords, got.Changes["keywords"])
			assert.Equal(t, 1, script.Calls("turn_feedback"))
		})
	}
}

func TestClassify_ProceedSkipsModel(t *testing.T) {
	for _, text := range []string{"proceed", "Go ahead!", "yes", "ok, continue"} {
		t.Run(text, func(t *testing.T) {
			script := llmtest.New()

			got := classify(t, script, text)

			assert.Equal(t, model.SignalBypassClarification, got.Signal)
			assert.Equal(t, model.FeedbackRefinement, got.Status)
			assert.Equal(t, original, got.Changes["request"])
			assert.Zero(t, script.Calls(""))
		})
	}
}

func TestClassify_ProceedBeatsKeywords(t *testing.T) {
	got := classify(t, llmtest.New(), "yes, proceed instead")
	assert.Equal(t, model.SignalBypassClarification, got.Signal)
}

func TestClassify_Quit(t *testing.T) {
	for _, text := range []string{"Bye", "quit", "Exit.", "  goodbye! ", "STOP"} {
		t.Run(text, func(t *testing.T) {
			script := llmtest.New()
			got := classify(t, script, text)

			assert.Equal(t, model.FeedbackSatisfied, got.Status)
			assert.Equal(t, model.SignalQuit, got.Signal)
			assert.Zero(t, script.Calls(""))
		})
	}
}

func TestClassify_QuitWordInsideSentence(t *testing.T) {
	tests := []struct {
		text     string
		want     model.FeedbackStatus
		keywords string
	}{
		{"How about a non-stop cycling route instead?", model.FeedbackNewSearch, "how about, instead"},
		{"Something closer to the metro exit please", model.FeedbackRefinement, "closer"},
		{"Stop showing these, I'd rather go cycling instead", model.FeedbackNewSearch, "rather, instead"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			script := llmtest.New().On("turn_feedback", verdictJSON("refinement", "Wants changes."))

			got := classify(t, script, tt.text)

			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, model.SignalNone, got.Signal)
			assert.Equal(t, tt.keywords, got.Changes["keywords"])
			assert.Equal(t, 1, script.Calls("turn_feedback"))
		})
	}
}

func TestClassify_SatisfiedPhrases(t *testing.T) {
	t.Run("model failing", func(t *testing.T) {
		script := llmtest.New().Fail("turn_feedback", errors.New("upstream timeout"))

		got := classify(t, script, "Perfect, thanks!")

		assert.Equal(t, model.FeedbackSatisfied, got.Status)
		assert.Equal(t, model.SignalNone, got.Signal)
		assert.Equal(t, "perfect, thanks", got.Changes["keywords"])
		assert.Contains(t, got.Changes["error"], "upstream timeout")
	})

	t.Run("over an unclear reading", func(t *testing.T) {
		script := llmtest.New().On("turn_feedback", verdictJSON("unclear", "Hard to tell."))

		got := classify(t, script, "Looks good to me")

		assert.Equal(t, model.FeedbackSatisfied, got.Status)
	})

	t.Run("tweak still wins", func(t *testing.T) {
		script := llmtest.New().On("turn_feedback", verdictJSON("satisfied", "Happy."))

		got := classify(t, script, "Great, but something shorter")

		assert.Equal(t, model.FeedbackRefinement, got.Status)
		assert.Equal(t, "shorter", got.Changes["keywords"])
	})
}

func TestClassify_ReasoningMentionsNewSearch(t *testing.T) {
	script := llmtest.New().On("turn_feedback",
		verdictJSON("unclear", "Sounds like a new_search for another sport."))

	got := classify(t, script, "swimming maybe")

	assert.Equal(t, model.FeedbackNewSearch, got.Status)
}

func TestClassify_ModelChangesAreKept(t *testing.T) {
	script := llmtest.New().On("turn_feedback",
		`{"status": "refinement", "reasoning": "wants easier", "changes": {"difficulty": "easy", "max_km": 5, "note": null}}`)

	got := classify(t, script, "something for beginners")

	assert.Equal(t, model.FeedbackRefinement, got.Status)
	assert.Equal(t, map[string]string{"difficulty": "easy", "max_km": "5"}, got.Changes)
}

func TestClassify_InferenceFailure(t *testing.T) {
	t.Run("no keyword", func(t *testing.T) {
		script := llmtest.New().Fail("turn_feedback", errors.New("rate limited"))

		got := classify(t, script, "Hmm")

		assert.Equal(t, model.FeedbackUnclear, got.Status)
		assert.Contains(t, got.Changes["error"], "rate limited")
	})

	t.Run("keyword still decides", func(t *testing.T) {
		script := llmtest.New().On("turn_feedback", `{"status": "bogus"}`)

		got := classify(t, script, "These are too difficult")

		assert.Equal(t, model.FeedbackRefinement, got.Status)
		assert.NotEmpty(t, got.Changes["error"])
	})
}

func TestClassify_WholeWordsOnly(t *testing.T) {
	script := llmtest.New().On("turn_feedback", verdictJSON("satisfied", "Happy."))

	// "preferably" is not "prefer" and "eyes" does not hold "yes".
	got := classify(t, script, "My eyes say these are fine, preferably")

	assert.Equal(t, model.FeedbackSatisfied, got.Status)
	assert.Equal(t, model.SignalNone, got.Signal)
}
