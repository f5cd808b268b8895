package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mannat244/AstroApp/internal/catalog"
	"github.com/mannat244/AstroApp/internal/domain"
	"github.com/mannat244/AstroApp/internal/payu"
	"github.com/mannat244/AstroApp/internal/ratelimit"
	"github.com/mannat244/AstroApp/internal/repository"
	"github.com/mannat244/AstroApp/internal/sanitize"
	"github.com/mannat244/AstroApp/internal/slot"
)

var (
	ErrRateLimited = errors.New("too_many_attempts")
	ErrForbidden   = errors.New("not_your_booking")
	ErrNotPayable  = errors.New("booking_not_payable")
)

// PayUConfig is everything the engine needs to build checkout payloads.
type PayUConfig struct {
	MerchantKey string
	Salt        string
	CheckoutURL string
	SuccessURL  string
	FailureURL  string
}

type BookingSvc struct {
	repo    *repository.BookingRepo
	limiter *ratelimit.Limiter
	pub     EventPublisher
	payu    PayUConfig
}

func NewBookingSvc(repo *repository.BookingRepo, limiter *ratelimit.Limiter, pub EventPublisher, pc PayUConfig) *BookingSvc {
	return &BookingSvc{repo: repo, limiter: limiter, pub: pub, payu: pc}
}

type Requester struct {
	ID    string
	Name  string
	Email string
}

type ReserveInput struct {
	Date            string
	TimeLabel       string
	ServiceCategory string
	ServiceID       string
	Mode            string
	Details         domain.Details
}

// Reserve atomically claims the slot and snapshots the purchased service.
// The price and product name come from the catalog, never from the client.
func (s *BookingSvc) Reserve(ctx context.Context, req Requester, in ReserveInput) (*domain.Booking, error) {
	id, err := slot.ID(in.Date, in.TimeLabel)
	if err != nil {
		return nil, err
	}

	mode := in.Mode
	if mode == "" {
		mode = domain.ModeOnline
	}
	if mode != domain.ModeOnline && mode != domain.ModeInPerson {
		return nil, fmt.Errorf("invalid mode %q", in.Mode)
	}

	if ok, wait := s.limiter.Allow(req.ID); !ok {
		return nil, fmt.Errorf("%w: retry in %s", ErrRateLimited, wait.Round(time.Second))
	}

	_, svc, err := catalog.Find(in.ServiceCategory, in.ServiceID)
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		ID:              id,
		RequesterID:     req.ID,
		RequesterName:   req.Name,
		RequesterEmail:  req.Email,
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		ServiceCategory: in.ServiceCategory,
		Amount:          svc.Price,
		Currency:        catalog.Currency,
		Details:         sanitize.Details(in.Details),
		Date:            in.Date,
		TimeLabel:       in.TimeLabel,
		Mode:            mode,
	}
	if mode == domain.ModeOnline {
		b.MeetingLink = slot.MeetingLink(id)
	}

	if err := s.repo.Reserve(ctx, b); err != nil {
		return nil, err
	}

	if s.pub != nil {
		if err := s.pub.PublishJSON(ctx, RKBookingReserved, BookingReserved{
			BookingID:   b.ID,
			RequesterID: b.RequesterID,
			ServiceName: b.ServiceName,
			Date:        b.Date,
			TimeLabel:   b.TimeLabel,
			Amount:      b.Amount,
			Currency:    b.Currency,
		}); err != nil {
			log.Printf("[booking] publish %s: %v", RKBookingReserved, err)
		}
	}
	return b, nil
}

// CheckoutPayload is the form the client posts to the hosted checkout. The
// hash binds the catalog amount and product name, so tampering with the form
// gets the payment rejected by the processor.
type CheckoutPayload struct {
	Action      string `json:"action"`
	Key         string `json:"key"`
	TxnID       string `json:"txnid"`
	Amount      string `json:"amount"`
	ProductInfo string `json:"productinfo"`
	FirstName   string `json:"firstname"`
	Email       string `json:"email"`
	SuccessURL  string `json:"surl"`
	FailureURL  string `json:"furl"`
	Hash        string `json:"hash"`
}

// Checkout recomputes the authorization hash server-side from the stored
// record. Safe to call repeatedly while the booking is still initiated.
func (s *BookingSvc) Checkout(ctx context.Context, id, requesterID string) (CheckoutPayload, error) {
	b, err := s.repo.ByID(ctx, id)
	if err != nil {
		return CheckoutPayload{}, err
	}
	if b.RequesterID != requesterID {
		return CheckoutPayload{}, ErrForbidden
	}
	if b.Status != domain.StatusInitiated {
		return CheckoutPayload{}, fmt.Errorf("%w: status %s", ErrNotPayable, b.Status)
	}

	amount := catalog.FormatAmount(b.Amount)
	hash := payu.RequestHash(payu.RequestFields{
		Key:         s.payu.MerchantKey,
		TxnID:       b.ID,
		Amount:      amount,
		ProductInfo: b.ServiceName,
		FirstName:   b.RequesterName,
		Email:       b.RequesterEmail,
	}, s.payu.Salt)

	return CheckoutPayload{
		Action:      s.payu.CheckoutURL,
		Key:         s.payu.MerchantKey,
		TxnID:       b.ID,
		Amount:      amount,
		ProductInfo: b.ServiceName,
		FirstName:   b.RequesterName,
		Email:       b.RequesterEmail,
		SuccessURL:  s.payu.SuccessURL,
		FailureURL:  s.payu.FailureURL,
		Hash:        hash,
	}, nil
}

// SlotInfo is one entry of a day's availability grid.
type SlotInfo struct {
	Label string `json:"label"`
	Taken bool   `json:"taken"`
}

func (s *BookingSvc) Availability(ctx context.Context, date string) ([]SlotInfo, error) {
	if _, err := time.Parse(slot.DateLayout, date); err != nil {
		return nil, slot.ErrBadDate
	}
	taken, err := s.repo.TakenLabels(ctx, date)
	if err != nil {
		return nil, err
	}
	takenSet := make(map[string]bool, len(taken))
	for _, l := range taken {
		takenSet[l] = true
	}
	out := make([]SlotInfo, 0, len(slot.Labels))
	for _, l := range slot.Labels {
		out = append(out, SlotInfo{Label: l, Taken: takenSet[l]})
	}
	return out, nil
}

func (s *BookingSvc) Get(ctx context.Context, id, requesterID string) (*domain.Booking, error) {
	b, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.RequesterID != requesterID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *BookingSvc) ListMine(ctx context.Context, requesterID string) ([]domain.Booking, error) {
	return s.repo.ListByRequester(ctx, requesterID)
}

// RunExpiry sweeps abandoned initiated bookings every interval, releasing
// their slots after ttl. Runs until ctx is cancelled.
func (s *BookingSvc) RunExpiry(ctx context.Context, interval, ttl time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			expired, err := s.repo.ExpireStale(ctx, ttl)
			if err != nil {
				log.Printf("[booking] expiry sweep: %v", err)
				continue
			}
			for _, id := range expired {
				log.Printf("[booking] expired abandoned booking %s", id)
				if s.pub != nil {
					if err := s.pub.PublishJSON(ctx, RKBookingExpired, BookingExpired{BookingID: id}); err != nil {
						log.Printf("[booking] publish %s: %v", RKBookingExpired, err)
					}
				}
			}
			s.limiter.Sweep()
		}
	}
}
