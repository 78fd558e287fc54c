package diagnose

import (
	"context"
	"time"

	"github.com/netinspect/k8s-netinspect/pkg/errkind"
)

// runWithTimeout runs fn under its own deadline. When the deadline passes first, fn is abandoned,
// its eventual result is discarded and a Timeout error is returned. Cancellation of ctx itself
// is reported as an aborted run.
func runWithTimeout[T any](ctx context.Context, budget time.Duration, what string, fn func(context.Context) (T, error)) (T, error) {
	stepCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	// Buffered so an abandoned fn can still deliver and exit.
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(stepCtx)
		done <- outcome{value: v, err: err}
	}()

	var zero T
	select {
	case o := <-done:
		if o.err != nil && stepCtx.Err() != nil {
			return zero, deadlineError(ctx, budget, what)
		}
		return o.value, o.err
	case <-stepCtx.Done():
		return zero, deadlineError(ctx, budget, what)
	}
}

func deadlineError(parent context.Context, budget time.Duration, what string) error {
	if err := parent.Err(); err != nil {
		return errkind.Wrap(errkind.InternalError, err, what+" aborted: "+err.Error())
	}
	return errkind.Newf(errkind.Timeout, "%s timed out after %s", what, budget)
}
