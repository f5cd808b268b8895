package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mannat244/AstroApp/internal/service"
)

// DeliverySource is satisfied by mq.Consumer; tests feed deliveries directly.
type DeliverySource interface {
	Deliveries(ctx context.Context, consumerTag string) (<-chan amqp.Delivery, error)
}

type Worker struct {
	src      DeliverySource
	notifier Notifier
	tag      string
}

func NewWorker(src DeliverySource, n Notifier, consumerTag string) *Worker {
	return &Worker{src: src, notifier: n, tag: consumerTag}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
// Undecodable payloads are rejected without requeue so they dead-letter;
// notifier errors requeue the delivery for another attempt.
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.src.Deliveries(ctx, w.tag)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := w.Handle(d.RoutingKey, d.Body); err != nil {
				if isDecodeErr(err) {
					log.Printf("[notify] poison message key=%s err=%v", d.RoutingKey, err)
					_ = d.Nack(false, false)
				} else {
					log.Printf("[notify] handle key=%s err=%v, requeue", d.RoutingKey, err)
					_ = d.Nack(false, true)
				}
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle dispatches one event body by routing key. Unknown keys are logged
// and dropped so a binding widened before a deploy does not wedge the queue.
func (w *Worker) Handle(key string, body []byte) error {
	switch key {
	case service.RKBookingReserved:
		ev, err := decode[service.BookingReserved](body)
		if err != nil {
			return err
		}
		return w.notifier.Notify("Booking reserved",
			fmt.Sprintf("Slot %s held for %s on %s at %s, %d %s due.",
				ev.BookingID, ev.ServiceName, ev.Date, ev.TimeLabel, ev.Amount, strings.ToUpper(ev.Currency)))

	case service.RKBookingExpired:
		ev, err := decode[service.BookingExpired](body)
		if err != nil {
			return err
		}
		return w.notifier.Notify("Booking expired",
			fmt.Sprintf("Booking %s was abandoned before payment; the slot is open again.", ev.BookingID))

	case service.RKPaymentPaid:
		ev, err := decode[service.PaymentPaid](body)
		if err != nil {
			return err
		}
		return w.notifier.Notify("Payment received",
			fmt.Sprintf("Booking %s confirmed, %d %s via %s (ref=%s).",
				ev.BookingID, ev.Amount, strings.ToUpper(ev.Currency), ev.Mode, ev.PaymentReference))

	case service.RKPaymentFailed:
		ev, err := decode[service.PaymentFailed](body)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Payment failed for booking %s.", ev.BookingID)
		if ev.Reason != "" {
			msg = fmt.Sprintf("%s Reason: %s", msg, ev.Reason)
		}
		return w.notifier.Notify("Payment failed", msg)

	default:
		log.Printf("[notify] skip unknown key=%s", key)
		return nil
	}
}

type decodeError struct{ err error }

func (e decodeError) Error() string { return e.err.Error() }
func (e decodeError) Unwrap() error { return e.err }

func isDecodeErr(err error) bool {
	_, ok := err.(decodeError)
	return ok
}

func decode[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, decodeError{fmt.Errorf("decode payload: %w", err)}
	}
	return t, nil
}
