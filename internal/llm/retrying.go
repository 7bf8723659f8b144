package llm

import (
	"context"
	"errors"

	"github.com/ppiankov/wayfind/internal/model"
	"github.com/ppiankov/wayfind/internal/retry"
)

type retryingProvider struct {
	Provider
	policy retry.Policy
}

// WithRetry wraps p so failed completions are retried under policy.
// Missing credentials are never retried.
func WithRetry(p Provider, policy retry.Policy) Provider {
	if policy.Attempts <= 1 {
		return p
	}
	if policy.Retryable == nil {
		policy.Retryable = func(err error) bool {
			return !errors.Is(err, model.ErrMissingCredential)
		}
	}
	return &retryingProvider{Provider: p, policy: policy}
}

func (r *retryingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return retry.Value(ctx, r.policy, func(ctx context.Context) (*CompletionResponse, error) {
		return r.Provider.Complete(ctx, req)
	})
}
