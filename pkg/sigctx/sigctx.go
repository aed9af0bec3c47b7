package sigctx

import (
	"context"
	"os/signal"
	"syscall"
)

// NotifyContext is cancelled on the first interrupt or termination signal.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
}
