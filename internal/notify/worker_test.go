package notify

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mannat244/AstroApp/internal/service"
)

type recordingNotifier struct {
	subjects []string
	messages []string
	err      error
}

func (r *recordingNotifier) Notify(subject, message string) error {
	if r.err != nil {
		return r.err
	}
	r.subjects = append(r.subjects, subject)
	r.messages = append(r.messages, message)
	return nil
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandlePaymentPaid(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(nil, n, "test")

	body := mustJSON(t, service.PaymentPaid{
		BookingID:        "2024-12-25_1000AM",
		PaymentReference: "403993715531",
		Amount:           300,
		Currency:         "INR",
		Mode:             "UPI",
	})
	require.NoError(t, w.Handle(service.RKPaymentPaid, body))
	require.Len(t, n.messages, 1)
	assert.Equal(t, "Payment received", n.subjects[0])
	assert.Contains(t, n.messages[0], "2024-12-25_1000AM")
	assert.Contains(t, n.messages[0], "300 INR")
	assert.Contains(t, n.messages[0], "403993715531")
}

func TestHandleBookingReserved(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(nil, n, "test")

	body := mustJSON(t, service.BookingReserved{
		BookingID:   "2024-12-25_1000AM",
		ServiceName: "Kundali Matching",
		Date:        "2024-12-25",
		TimeLabel:   "10:00 AM",
		Amount:      300,
		Currency:    "INR",
	})
	require.NoError(t, w.Handle(service.RKBookingReserved, body))
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Kundali Matching")
	assert.Contains(t, n.messages[0], "10:00 AM")
}

func TestHandlePaymentFailedWithReason(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(nil, n, "test")

	body := mustJSON(t, service.PaymentFailed{BookingID: "2024-12-25_1000AM", Reason: "Bank declined"})
	require.NoError(t, w.Handle(service.RKPaymentFailed, body))
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Bank declined")
}

func TestHandleUnknownKeyIsDropped(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(nil, n, "test")

	assert.NoError(t, w.Handle("court.created", []byte(`{}`)))
	assert.Empty(t, n.messages)
}

func TestHandlePoisonPayload(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(nil, n, "test")

	err := w.Handle(service.RKPaymentPaid, []byte(`{not json`))
	require.Error(t, err)
	assert.True(t, isDecodeErr(err), "decode failures must be distinguishable so they dead-letter")
	assert.Empty(t, n.messages)
}

func TestHandleNotifierErrorPropagates(t *testing.T) {
	n := &recordingNotifier{err: errors.New("smtp down")}
	w := NewWorker(nil, n, "test")

	body := mustJSON(t, service.BookingExpired{BookingID: "2024-12-25_1000AM"})
	err := w.Handle(service.RKBookingExpired, body)
	require.Error(t, err)
	assert.False(t, isDecodeErr(err), "delivery failures requeue rather than dead-letter")
}
