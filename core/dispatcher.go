package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrEmptyInput is returned when the text to translate is blank.
	ErrEmptyInput = errors.New("text to translate is empty")
	// ErrPlaybackPending is returned by serialized sessions while animations
	// from an earlier request are still waiting to be played.
	ErrPlaybackPending = errors.New("previous animations are still playing")
	// ErrNoChannel is returned when the session has no channel configured.
	ErrNoChannel = errors.New("no channel configured")
)

type requestSender interface {
	RequestAnimation(ctx context.Context, text string) error
}

type requestDispatcher struct {
	channel requestSender

	// pending reports queued units when requests are serialized, nil otherwise
	pending func() int

	onRequested func(text string)
}

// Dispatch sends a single fire-and-forget request for the trimmed text.
func (d *requestDispatcher) Dispatch(ctx context.Context, text string) error {
	ctx, span := tracer.Start(ctx, "dispatch animation request")
	defer span.End()

	text = strings.TrimSpace(text)
	span.SetAttributes(attribute.Int("request.text_length", len(text)))
	if text == "" {
		return ErrEmptyInput
	}

	if d.pending != nil {
		if queued := d.pending(); queued > 0 {
			span.SetAttributes(attribute.Int("request.queued_units", queued))
			return ErrPlaybackPending
		}
	}

	if d.channel == nil {
		return ErrNoChannel
	}

	if err := d.channel.RequestAnimation(ctx, text); err != nil {
		err = fmt.Errorf("failed to send animation request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if d.onRequested != nil {
		d.onRequested(text)
	}
	return nil
}
