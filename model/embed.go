package model

import (
	"context"
	"fmt"
)

// Embedder turns text or raw image bytes into a fixed-length vector. The
// dimensionality is a deployment-wide constant.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
	Dimension() int
}

// ProviderError wraps quota or service failures from the embedding
// provider so callers can tell them apart from their own errors.
type ProviderError struct {
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
