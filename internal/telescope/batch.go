package telescope

import (
	"context"

	"github.com/google/uuid"
)

type batchKey struct{}

// WithBatch returns a context carrying a fresh batch ID. Entries recorded
// under the same batch belong to the same request.
func WithBatch(ctx context.Context) context.Context {
	return context.WithValue(ctx, batchKey{}, uuid.New().String())
}

// BatchID returns the batch ID in ctx, or a new one if none was set.
func BatchID(ctx context.Context) string {
	if id, ok := ctx.Value(batchKey{}).(string); ok {
		return id
	}
	return uuid.New().String()
}
