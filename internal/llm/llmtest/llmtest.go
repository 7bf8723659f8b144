// Package llmtest provides a scripted Completer for tests of code that
// runs structured inference.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ppiankov/wayfind/internal/llm"
)

type reply struct {
	contains string
	text     string
	err      error
}

// Script answers completion requests from canned replies keyed by the
// request's shape name. Replies for a shape are used in order; the last
// matching reply is reused for every later request.
type Script struct {
	mu       sync.Mutex
	replies  map[string][]reply
	requests []llm.CompletionRequest
}

// New returns an empty script.
func New() *Script {
	return &Script{replies: make(map[string][]reply)}
}

// On queues text as a reply for shape.
func (s *Script) On(shape, text string) *Script {
	return s.add(shape, reply{text: text})
}

// OnPrompt queues text as a reply for shape, used only when the prompt
// contains substr.
func (s *Script) OnPrompt(shape, substr, text string) *Script {
	return s.add(shape, reply{contains: substr, text: text})
}

// Fail queues err as a reply for shape.
func (s *Script) Fail(shape string, err error) *Script {
	return s.add(shape, reply{err: err})
}

func (s *Script) add(shape string, r reply) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[shape] = append(s.replies[shape], r)
	return s
}

// Complete implements llm.Completer.
func (s *Script) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	queue := s.replies[req.Shape]
	var matches []int
	for i, r := range queue {
		if r.contains == "" || strings.Contains(req.Prompt, r.contains) {
			matches = append(matches, i)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("llmtest: no reply scripted for shape %q", req.Shape)
	}

	i := matches[0]
	r := queue[i]
	if len(matches) > 1 {
		s.replies[req.Shape] = append(queue[:i:i], queue[i+1:]...)
	}
	if r.err != nil {
		return nil, r.err
	}
	return &llm.CompletionResponse{Text: r.text, Model: "scripted"}, nil
}

// Calls reports how many requests asked for shape. An empty shape counts
// every request.
func (s *Script) Calls(shape string) int {
	return len(s.Requests(shape))
}

// Requests returns the requests that asked for shape, in arrival order.
func (s *Script) Requests(shape string) []llm.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []llm.CompletionRequest
	for _, r := range s.requests {
		if shape == "" || r.Shape == shape {
			out = append(out, r)
		}
	}
	return out
}
