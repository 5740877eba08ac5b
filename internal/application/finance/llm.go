package finance

import (
	"context"

	"github.com/spendlens/backend/internal/infrastructure/llm"
)

// CompletionClient is the narrow language-model surface the expense
// categorizer needs. Implementations must honor ctx cancellation and are
// expected to be unreliable: callers treat every error as recoverable.
type CompletionClient interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}
