// Package shutdown turns OS termination signals into context cancellation.
package shutdown

import (
	"context"
	"os"
	"os/signal"
)

// Context returns a child of parent that is cancelled on the first
// termination signal. The returned stop func cancels it and stops signal
// delivery.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()
	return ctx, cancel
}
