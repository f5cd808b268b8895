package service

import (
	"context"
	"errors"
	"log"

	"github.com/mannat244/AstroApp/internal/catalog"
	"github.com/mannat244/AstroApp/internal/domain"
	"github.com/mannat244/AstroApp/internal/payu"
	"github.com/mannat244/AstroApp/internal/repository"
)

var ErrHashMismatch = errors.New("hash_mismatch")

// Verifier is satisfied by payu.Client.
type Verifier interface {
	VerifyPayment(ctx context.Context, txnid string) (payu.TxnStatus, error)
}

// ConfirmSvc reconciles the three completion channels (webhook push, manual
// verify poll, live view retries) into one idempotent status update. All
// paths funnel into the repository's guarded transition, so whichever signal
// lands first wins and the rest become no-ops.
type ConfirmSvc struct {
	repo     *repository.BookingRepo
	verifier Verifier
	key      string
	salt     string
	pub      EventPublisher
}

func NewConfirmSvc(repo *repository.BookingRepo, verifier Verifier, key, salt string, pub EventPublisher) *ConfirmSvc {
	return &ConfirmSvc{repo: repo, verifier: verifier, key: key, salt: salt, pub: pub}
}

// WebhookNotice is the processor's form-encoded callback payload.
type WebhookNotice struct {
	Status      string
	TxnID       string
	Amount      string
	ProductInfo string
	FirstName   string
	Email       string
	Hash        string
	MihPayID    string
	Mode        string
	ErrorMsg    string
}

// HandleWebhook authenticates and applies one webhook delivery. Deliveries
// are at-least-once: a duplicate for an already-terminal record returns the
// record with applied=false and no error, so the processor gets its 2xx and
// stops retrying.
func (s *ConfirmSvc) HandleWebhook(ctx context.Context, n WebhookNotice) (*domain.Booking, bool, error) {
	ok := payu.VerifyResponseHash(s.key, s.salt, payu.ResponseFields{
		Status:      n.Status,
		TxnID:       n.TxnID,
		Amount:      n.Amount,
		ProductInfo: n.ProductInfo,
		FirstName:   n.FirstName,
		Email:       n.Email,
	}, n.Hash)
	if !ok {
		log.Printf("[confirm] webhook hash mismatch for txnid %s", n.TxnID)
		return nil, false, ErrHashMismatch
	}

	return s.apply(ctx, repository.PaymentResult{
		TxnID:            n.TxnID,
		Success:          n.Status == "success",
		PaymentReference: n.MihPayID,
		PaymentMode:      n.Mode,
		FailureReason:    n.ErrorMsg,
	})
}

// VerifyPending is the manual poll: it asks the processor for the
// authoritative status of txnid and applies the same transition as the
// webhook path. Safe to call repeatedly and concurrently with a webhook.
func (s *ConfirmSvc) VerifyPending(ctx context.Context, txnid string) (*domain.Booking, bool, error) {
	b, err := s.repo.ByID(ctx, txnid)
	if err != nil {
		return nil, false, err
	}
	if b.Terminal() {
		return b, false, nil
	}

	ts, err := s.verifier.VerifyPayment(ctx, txnid)
	if err != nil {
		return nil, false, err
	}
	switch {
	case ts.Success():
		return s.apply(ctx, repository.PaymentResult{
			TxnID:            txnid,
			Success:          true,
			PaymentReference: ts.MihPayID,
			PaymentMode:      ts.Mode,
		})
	case ts.Failure():
		return s.apply(ctx, repository.PaymentResult{
			TxnID:         txnid,
			Success:       false,
			FailureReason: ts.ErrorMessage,
		})
	default:
		// Still pending at the processor; nothing to record yet.
		return b, false, nil
	}
}

// Status is the read-only live view of a record; it never mutates anything.
func (s *ConfirmSvc) Status(ctx context.Context, txnid string) (*domain.Booking, error) {
	return s.repo.ByID(ctx, txnid)
}

func (s *ConfirmSvc) apply(ctx context.Context, res repository.PaymentResult) (*domain.Booking, bool, error) {
	b, applied, err := s.repo.ApplyPaymentResult(ctx, res)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		// Expected under duplicate delivery; worth a trace, not an error.
		if b.Terminal() {
			log.Printf("[confirm] duplicate terminal signal for %s ignored (status=%s)", res.TxnID, b.Status)
		}
		return b, false, nil
	}

	if s.pub != nil {
		var pubErr error
		if b.Status == domain.StatusConfirmed {
			pubErr = s.pub.PublishJSON(ctx, RKPaymentPaid, PaymentPaid{
				BookingID:        b.ID,
				PaymentReference: b.PaymentReference,
				Amount:           b.Amount,
				Currency:         catalog.Currency,
				Mode:             b.PaymentMode,
			})
		} else {
			pubErr = s.pub.PublishJSON(ctx, RKPaymentFailed, PaymentFailed{
				BookingID: b.ID,
				Reason:    b.FailureReason,
			})
		}
		if pubErr != nil {
			log.Printf("[confirm] publish payment event for %s: %v", b.ID, pubErr)
		}
	}
	return b, true, nil
}
