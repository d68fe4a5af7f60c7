package session

import (
	"context"
	"fmt"
)

// withContextCancelHook runs onContextDone once ctx is done, unless stop is
// closed first.
func withContextCancelHook(ctx context.Context, onContextDone func(), stop <-chan struct{}) {
	if ctx == nil || ctx.Done() == nil {
		return
	}

	go func() {
		select {
		case <-ctx.Done():
			onContextDone()
		case <-stop:
		}
	}()
}

type workerRun func(context.Context) error

func panicSafeNamedWorker(name string, run func(context.Context) error) workerRun {
	return func(ctx context.Context) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("%s worker panicked: %v", name, recovered)
			}
		}()

		if err = run(ctx); err != nil {
			return fmt.Errorf("%s worker failed: %w", name, err)
		}

		return nil
	}
}
