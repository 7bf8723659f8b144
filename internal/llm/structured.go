package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation is returned when a model's JSON does not match the
// requested shape.
var ErrSchemaViolation = errors.New("response does not match schema")

// Shape names a record type and the JSON schema its instances must satisfy.
type Shape struct {
	Name   string
	Schema map[string]any

	loader gojsonschema.JSONLoader
}

// NewShape builds a Shape from a JSON schema document.
func NewShape(name string, schema map[string]any) Shape {
	return Shape{Name: name, Schema: schema, loader: gojsonschema.NewGoLoader(schema)}
}

// Call is one structured inference request.
type Call struct {
	Shape     Shape
	System    string
	Prompt    string
	MaxTokens int
}

// Infer asks c for a JSON object matching call.Shape and decodes it into T.
// Markdown fences and surrounding prose are stripped before validation.
func Infer[T any](ctx context.Context, c Completer, call Call) (T, error) {
	var out T

	resp, err := c.Complete(ctx, CompletionRequest{
		System:    call.System,
		Prompt:    call.Prompt + schemaHint(call.Shape),
		Shape:     call.Shape.Name,
		JSON:      true,
		Schema:    call.Shape.Schema,
		MaxTokens: call.MaxTokens,
	})
	if err != nil {
		return out, fmt.Errorf("infer %s: %w", call.Shape.Name, err)
	}

	raw := CleanJSON(resp.Text)
	if raw == "" {
		return out, fmt.Errorf("infer %s: %w", call.Shape.Name, ErrEmptyResponse)
	}

	if err := call.Shape.validate(raw); err != nil {
		return out, fmt.Errorf("infer %s: %w", call.Shape.Name, err)
	}

	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("infer %s: decode: %w", call.Shape.Name, err)
	}
	return out, nil
}

func (s Shape) validate(raw string) error {
	if s.Schema == nil {
		return nil
	}
	loader := s.loader
	if loader == nil {
		loader = gojsonschema.NewGoLoader(s.Schema)
	}
	result, err := gojsonschema.Validate(loader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(msgs, "; "))
	}
	return nil
}

func schemaHint(s Shape) string {
	if s.Schema == nil {
		return ""
	}
	doc, err := json.Marshal(s.Schema)
	if err != nil {
		return ""
	}
	return "\n\nReturn only a JSON object that conforms to this JSON schema:\n" + string(doc)
}

// CleanJSON strips code fences and any prose around the outermost JSON object.
func CleanJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
