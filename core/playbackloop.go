package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/koscakluka/signspell/core/animation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultPollInterval = 50 * time.Millisecond

// Renderer shows a single animation unit and returns once it is done showing
// it. How long that takes for a given pacing is up to the renderer.
type Renderer interface {
	Render(ctx context.Context, label string, payload json.RawMessage, pacing Pacing) error
}

type RendererFunc func(ctx context.Context, label string, payload json.RawMessage, pacing Pacing) error

func (f RendererFunc) Render(ctx context.Context, label string, payload json.RawMessage, pacing Pacing) error {
	return f(ctx, label, payload, pacing)
}

// PullSource is implemented by [Session].
type PullSource interface {
	Next() (animation.Unit, bool)
	Pacing() Pacing
}

type PlayOptions struct {
	pollInterval time.Duration
}

type PlayOption func(*PlayOptions)

// WithPollInterval sets how long Play waits before pulling again from an
// empty queue.
func WithPollInterval(interval time.Duration) PlayOption {
	return func(o *PlayOptions) {
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

// Play pulls units from source and renders them one at a time until ctx is
// done. An empty queue is polled again after the poll interval, playback is
// never pushed by the producer. Renderer failures are recorded and playback
// moves on to the next unit.
func Play(ctx context.Context, source PullSource, renderer Renderer, opts ...PlayOption) error {
	options := PlayOptions{pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "play animations")
	defer span.End()

	poll := time.NewTimer(options.pollInterval)
	defer poll.Stop()

	played := 0
	for {
		if err := ctx.Err(); err != nil {
			span.SetAttributes(attribute.Int("playback.units_played", played))
			return err
		}

		unit, ok := source.Next()
		if !ok {
			poll.Reset(options.pollInterval)
			select {
			case <-ctx.Done():
			case <-poll.C:
			}
			continue
		}

		played++
		if err := renderUnit(ctx, renderer, unit, source.Pacing()); err != nil && ctx.Err() == nil {
			span.RecordError(err)
			logger.Warn("failed to render animation unit", "label", unit.Label, "error", err)
		}
	}
}

func renderUnit(ctx context.Context, renderer Renderer, unit animation.Unit, pacing Pacing) error {
	ctx, span := tracer.Start(ctx, "render animation unit")
	defer span.End()
	span.SetAttributes(
		attribute.String("animation.label", unit.Label),
		attribute.Int("playback.pacing", int(pacing)),
	)

	render := panicSafeNamedWorker("renderer", func(ctx context.Context) error {
		return renderer.Render(ctx, unit.Label, unit.Animation, pacing)
	})
	if err := render(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
