package backend

import (
	"context"

	"github.com/google/uuid"
	"github.com/okian/spartakiad/pkg/logger"
)

// withRequestID returns ctx carrying a request id, adding a fresh uuid when
// ctx has none, and the id itself.
func withRequestID(ctx context.Context) (context.Context, string) {
	if id, ok := logger.RequestID(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return logger.ContextWithRequestID(ctx, id), id
}
