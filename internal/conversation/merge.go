package conversation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/wayfind/internal/llm"
)

var mergeShape = llm.NewShape("merged_request", map[string]any{
	"type":     "object",
	"required": []string{"request"},
	"properties": map[string]any{
		"request": map[string]any{"type": "string", "minLength": 1},
	},
})

const mergeSystem = "You rewrite activity requests. Respond with JSON only."

const mergePrompt = `Combine the original activity request with the user's feedback into one new request.

ORIGINAL REQUEST: %q
FEEDBACK: %q

RULES:
- Keep the activity type and location of the original.
- Keep original preferences the feedback does not contradict.
- Apply what the feedback changes: duration or distance, difficulty, location nuance (outskirts, closer, ...), equipment or terrain.
- Return a single short request in the user's words.

EXAMPLE:
"running route in Vienna, hard" + "longer routes, could also be more in the outskirts" -> "long running routes in Vienna outskirts, hard difficulty"`

type merged struct {
	Request string `json:"request"`
}

// merge folds feedback into original. It never fails: the two texts are
// joined when inference fails.
func (o *Orchestrator) merge(ctx context.Context, original, feedback string) string {
	fallback := strings.TrimSpace(original + " " + feedback)
	if o.llm == nil {
		return fallback
	}

	m, err := llm.Infer[merged](ctx, o.llm, llm.Call{
		Shape:     mergeShape,
		System:    mergeSystem,
		Prompt:    fmt.Sprintf(mergePrompt, original, feedback),
		MaxTokens: 200,
	})
	if err != nil || strings.TrimSpace(m.Request) == "" {
		o.metrics.InferenceFailure(mergeShape.Name)
		o.log.Warn("request merge failed, joining texts", zap.Error(err))
		return fallback
	}
	return strings.TrimSpace(m.Request)
}
