package service

import "context"

// Routing keys for the booking topic exchange.
const (
	RKBookingReserved = "booking.reserved"
	RKBookingExpired  = "booking.expired"
	RKPaymentPaid     = "payment.paid"
	RKPaymentFailed   = "payment.failed"
)

// EventPublisher is satisfied by mq.Publisher; tests plug in a fake.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type BookingReserved struct {
	BookingID   string `json:"booking_id"`
	RequesterID string `json:"requester_id"`
	ServiceName string `json:"service_name"`
	Date        string `json:"date"`
	TimeLabel   string `json:"time_label"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

type BookingExpired struct {
	BookingID string `json:"booking_id"`
}

type PaymentPaid struct {
	BookingID        string `json:"booking_id"`
	PaymentReference string `json:"payment_reference"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Mode             string `json:"mode"`
}

type PaymentFailed struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}
