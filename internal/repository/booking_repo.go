package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mannat244/AstroApp/internal/domain"
)

var (
	ErrSlotTaken = errors.New("slot_taken")
	ErrNotFound  = errors.New("booking_not_found")
)

type BookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Booking{}, &domain.BookingArchive{})
}

// Reserve writes b with status "initiated" iff the slot is free, i.e. no
// record exists for b.ID or the only extant record is a failed attempt.
//
// The write is a single compare-and-set upsert: ON CONFLICT (id) the row is
// replaced only WHERE its status is 'failed'. Two racers on the same id
// serialize on the primary key, so exactly one sees a row written; the other
// gets RowsAffected == 0 and ErrSlotTaken. A failed attempt that gets
// overwritten is copied to the archive inside the same transaction.
func (r *BookingRepo) Reserve(ctx context.Context, b *domain.Booking) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Booking
		err := tx.Take(&existing, "id = ?", b.ID).Error
		switch {
		case err == nil:
			if existing.Blocking() {
				return ErrSlotTaken
			}
			// Failed attempt about to be resold; keep its history.
			arch := existing.Archive(now)
			if err := tx.Create(&arch).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		b.Status = domain.StatusInitiated
		b.PaymentReference = ""
		b.PaymentMode = ""
		b.FailureReason = ""
		b.CreatedAt = now
		b.UpdatedAt = now

		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Table: "bookings", Name: "status"}, Value: domain.StatusFailed},
			}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":                 b.Status,
				"requester_id":           b.RequesterID,
				"requester_name":         b.RequesterName,
				"requester_email":        b.RequesterEmail,
				"service_id":             b.ServiceID,
				"service_name":           b.ServiceName,
				"service_category":       b.ServiceCategory,
				"amount":                 b.Amount,
				"currency":               b.Currency,
				"detail_beneficiary_name": b.Details.BeneficiaryName,
				"detail_birth_place":      b.Details.BirthPlace,
				"detail_birth_date":       b.Details.BirthDate,
				"detail_birth_time":       b.Details.BirthTime,
				"detail_property_size":    b.Details.PropertySize,
				"date":              b.Date,
				"time_label":        b.TimeLabel,
				"mode":              b.Mode,
				"meeting_link":      b.MeetingLink,
				"payment_reference": "",
				"payment_mode":      "",
				"failure_reason":    "",
				"created_at":        b.CreatedAt,
				"updated_at":        b.UpdatedAt,
			}),
		}).Create(b)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSlotTaken
		}
		return nil
	})
}

// PaymentResult is a verified terminal signal for one transaction id,
// regardless of which channel delivered it.
type PaymentResult struct {
	TxnID            string
	Success          bool
	PaymentReference string
	PaymentMode      string
	FailureReason    string
}

// ApplyPaymentResult moves an initiated booking to its terminal state. The
// transition itself is a guarded UPDATE (WHERE status='initiated'), so
// duplicate or racing signals converge: the first one applies, every later
// one is a no-op reporting applied=false. Terminal records are never moved
// backward, whatever the incoming signal says.
func (r *BookingRepo) ApplyPaymentResult(ctx context.Context, res PaymentResult) (*domain.Booking, bool, error) {
	b, err := r.ByID(ctx, res.TxnID)
	if err != nil {
		return nil, false, err
	}
	if b.Terminal() {
		return b, false, nil
	}

	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if res.Success {
		updates["status"] = domain.StatusConfirmed
		updates["payment_reference"] = res.PaymentReference
		updates["payment_mode"] = res.PaymentMode
	} else {
		updates["status"] = domain.StatusFailed
		reason := res.FailureReason
		if reason == "" {
			reason = "Transaction Failed"
		}
		updates["failure_reason"] = reason
	}

	q := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ? AND status = ?", res.TxnID, domain.StatusInitiated).
		Updates(updates)
	if q.Error != nil {
		return nil, false, q.Error
	}

	applied := q.RowsAffected == 1
	b, err = r.ByID(ctx, res.TxnID)
	if err != nil {
		return nil, false, err
	}
	return b, applied, nil
}

// ExpireStale fails initiated bookings older than ttl so their slots go back
// on the market. Each expiry goes through the same guarded transition as a
// payment signal, so a webhook racing the sweep still wins or loses cleanly.
func (r *BookingRepo) ExpireStale(ctx context.Context, ttl time.Duration) ([]string, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	var stale []domain.Booking
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.StatusInitiated, cutoff).
		Find(&stale).Error; err != nil {
		return nil, err
	}

	var expired []string
	for _, b := range stale {
		q := r.db.WithContext(ctx).Model(&domain.Booking{}).
			Where("id = ? AND status = ?", b.ID, domain.StatusInitiated).
			Updates(map[string]interface{}{
				"status":         domain.StatusFailed,
				"failure_reason": "abandoned",
				"updated_at":     time.Now().UTC(),
			})
		if q.Error != nil {
			return expired, q.Error
		}
		if q.RowsAffected == 1 {
			expired = append(expired, b.ID)
		}
	}
	return expired, nil
}

func (r *BookingRepo) ByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).Take(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// TakenLabels lists the time labels already blocking a calendar date.
func (r *BookingRepo) TakenLabels(ctx context.Context, date string) ([]string, error) {
	var labels []string
	err := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("date = ? AND status IN ?", date, []string{domain.StatusInitiated, domain.StatusConfirmed}).
		Order("time_label ASC").
		Pluck("time_label", &labels).Error
	return labels, err
}

func (r *BookingRepo) ListByRequester(ctx context.Context, requesterID string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// ArchivedAttempts returns the preserved history for a slot id.
func (r *BookingRepo) ArchivedAttempts(ctx context.Context, id string) ([]domain.BookingArchive, error) {
	var out []domain.BookingArchive
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", id).
		Order("archived_at ASC").
		Find(&out).Error
	return out, err
}
