package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mannat244/AstroApp/internal/domain"
	"github.com/mannat244/AstroApp/internal/payu"
	"github.com/mannat244/AstroApp/internal/ratelimit"
	"github.com/mannat244/AstroApp/internal/repository"
	"github.com/mannat244/AstroApp/internal/slot"
)

var testRequester = Requester{ID: "user-1", Name: "Asha Rao", Email: "asha@example.com"}

func reserveInput() ReserveInput {
	return ReserveInput{
		Date:            "2024-12-25",
		TimeLabel:       "10:00 AM",
		ServiceCategory: "kundali",
		ServiceID:       "k1",
		Mode:            domain.ModeOnline,
		Details:         domain.Details{BeneficiaryName: "Asha <b>Rao</b>", BirthDate: "1994-03-21"},
	}
}

func TestReserveSnapshotsCatalog(t *testing.T) {
	repo := newTestRepo(t)
	pub := &fakePublisher{}
	svc := newBookingSvc(repo, pub)

	b, err := svc.Reserve(context.Background(), testRequester, reserveInput())
	require.NoError(t, err)

	assert.Equal(t, "2024-12-25_1000AM", b.ID)
	assert.Equal(t, domain.StatusInitiated, b.Status)
	assert.Equal(t, "Kundali Matching", b.ServiceName)
	assert.EqualValues(t, 300, b.Amount, "amount comes from the catalog, not the client")
	assert.Equal(t, "INR", b.Currency)
	assert.Equal(t, "https://meet.jit.si/2024-12-25_1000AM", b.MeetingLink)
	assert.Equal(t, "Asha bRaob", b.Details.BeneficiaryName, "details are sanitized before the write-once store")

	assert.Equal(t, []string{RKBookingReserved}, pub.keys())
}

func TestReserveInPersonHasNoMeetingLink(t *testing.T) {
	repo := newTestRepo(t)
	svc := newBookingSvc(repo, nil)

	in := reserveInput()
	in.Mode = domain.ModeInPerson
	b, err := svc.Reserve(context.Background(), testRequester, in)
	require.NoError(t, err)
	assert.Empty(t, b.MeetingLink)
}

func TestReserveValidation(t *testing.T) {
	repo := newTestRepo(t)
	svc := newBookingSvc(repo, nil)
	ctx := context.Background()

	in := reserveInput()
	in.TimeLabel = "09:00 AM"
	_, err := svc.Reserve(ctx, testRequester, in)
	assert.ErrorIs(t, err, slot.ErrBadLabel)

	in = reserveInput()
	in.Date = "25-12-2024"
	_, err = svc.Reserve(ctx, testRequester, in)
	assert.ErrorIs(t, err, slot.ErrBadDate)

	in = reserveInput()
	in.ServiceID = "zzz"
	_, err = svc.Reserve(ctx, testRequester, in)
	assert.Error(t, err)

	in = reserveInput()
	in.Mode = "telepathy"
	_, err = svc.Reserve(ctx, testRequester, in)
	assert.Error(t, err)
}

func TestReserveSlotTaken(t *testing.T) {
	repo := newTestRepo(t)
	svc := newBookingSvc(repo, nil)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, testRequester, reserveInput())
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, Requester{ID: "user-2", Name: "B", Email: "b@example.com"}, reserveInput())
	assert.ErrorIs(t, err, repository.ErrSlotTaken)
}

func TestReserveRateLimited(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewBookingSvc(repo, ratelimit.New(1, time.Minute), nil, PayUConfig{MerchantKey: testKey, Salt: testSalt})
	ctx := context.Background()

	_, err := svc.Reserve(ctx, testRequester, reserveInput())
	require.NoError(t, err)

	in := reserveInput()
	in.TimeLabel = "11:00 AM"
	_, err = svc.Reserve(ctx, testRequester, in)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestCheckout(t *testing.T) {
	repo := newTestRepo(t)
	svc := newBookingSvc(repo, nil)
	ctx := context.Background()

	b, err := svc.Reserve(ctx, testRequester, reserveInput())
	require.NoError(t, err)

	p, err := svc.Checkout(ctx, b.ID, testRequester.ID)
	require.NoError(t, err)
	assert.Equal(t, "300.00", p.Amount)
	assert.Equal(t, "Kundali Matching", p.ProductInfo)
	assert.Equal(t, b.ID, p.TxnID)
	want := payu.RequestHash(payu.RequestFields{
		Key:         testKey,
		TxnID:       b.ID,
		Amount:      "300.00",
		ProductInfo: "Kundali Matching",
		FirstName:   "Asha Rao",
		Email:       "asha@example.com",
	}, testSalt)
	assert.Equal(t, want, p.Hash)

	// Someone else's booking: rejected.
	_, err = svc.Checkout(ctx, b.ID, "user-2")
	assert.ErrorIs(t, err, ErrForbidden)

	// Terminal bookings are no longer payable.
	_, _, err = repo.ApplyPaymentResult(ctx, repository.PaymentResult{TxnID: b.ID, Success: true, PaymentReference: "p"})
	require.NoError(t, err)
	_, err = svc.Checkout(ctx, b.ID, testRequester.ID)
	assert.ErrorIs(t, err, ErrNotPayable)
}

func TestAvailability(t *testing.T) {
	repo := newTestRepo(t)
	svc := newBookingSvc(repo, nil)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, testRequester, reserveInput())
	require.NoError(t, err)

	slots, err := svc.Availability(ctx, "2024-12-25")
	require.NoError(t, err)
	require.Len(t, slots, len(slot.Labels))
	for _, si := range slots {
		assert.Equal(t, si.Label == "10:00 AM", si.Taken, "label %s", si.Label)
	}

	_, err = svc.Availability(ctx, "not-a-date")
	assert.ErrorIs(t, err, slot.ErrBadDate)
}
