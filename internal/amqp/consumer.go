package amqp

import (
	"context"
	"errors"
	"time"

	"github.com/rabbitmq/amqp091-go"

	applog "cmoney/internal/log"
)

// BatchHandler processes decoded events. A nil error acknowledges every
// delivery of the batch; an error requeues all of them.
type BatchHandler func(ctx context.Context, events []*TransactionEvent) error

type BatchOptions struct {
	// Size is the largest batch handed to the handler (default 10).
	Size int
	// FlushInterval bounds how long the first event of a partial batch
	// waits (default 2s).
	FlushInterval time.Duration
}

func (o BatchOptions) normalized() BatchOptions {
	if o.Size <= 0 {
		o.Size = 10
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 2 * time.Second
	}
	return o
}

// drainBatches groups deliveries from msgs and hands them to handler.
// Settlement uses the last delivery tag with multiple=true, so all
// deliveries must come from one channel. Malformed bodies are rejected
// without requeue. On shutdown the unflushed batch is requeued.
func drainBatches(ctx context.Context, msgs <-chan amqp091.Delivery, opts BatchOptions, handler BatchHandler) error {
	opts = opts.normalized()

	var (
		pending []amqp091.Delivery
		events  []*TransactionEvent
		timer   *time.Timer
		timeout <-chan time.Time
	)

	reset := func() {
		pending, events = nil, nil
		if timer != nil {
			timer.Stop()
		}
		timeout = nil
	}

	flush := func() {
		if len(pending) == 0 {
			return
		}
		last := pending[len(pending)-1]
		if err := handler(ctx, events); err != nil {
			amqpLog(ctx).ErrorContext(ctx, "Failed to handle transaction event batch, requeueing",
				applog.FieldError, err,
				"batch_size", len(events))
			if nackErr := last.Nack(true, true); nackErr != nil {
				amqpLog(ctx).ErrorContext(ctx, "Failed to nack batch", applog.FieldError, nackErr)
			}
		} else if ackErr := last.Ack(true); ackErr != nil {
			amqpLog(ctx).ErrorContext(ctx, "Failed to ack batch", applog.FieldError, ackErr)
		}
		reset()
	}

	for {
		select {
		case <-ctx.Done():
			if len(pending) > 0 {
				_ = pending[len(pending)-1].Nack(true, true)
			}
			reset()
			amqpLog(ctx).InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()

		case <-timeout:
			flush()

		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}

			ev, err := TransactionEventFromJSON(delivery.Body)
			if err != nil {
				amqpLog(ctx).ErrorContext(ctx, "Failed to decode transaction event", applog.FieldError, err)
				_ = delivery.Nack(false, false)
				continue
			}

			pending = append(pending, delivery)
			events = append(events, ev)
			if len(pending) == 1 {
				timer = time.NewTimer(opts.FlushInterval)
				timeout = timer.C
			}
			if len(pending) >= opts.Size {
				flush()
			}
		}
	}
}
