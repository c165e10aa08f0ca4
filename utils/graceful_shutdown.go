package utils

import (
	"context"
)

// GracefulShutdown runs cleanup once ctx is cancelled and then calls cancel to release it.
func GracefulShutdown(ctx context.Context, cancel context.CancelFunc, cleanup func()) {
	<-ctx.Done()
	cleanup()
	cancel()
}
