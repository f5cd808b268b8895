package domain

import "time"

const (
	StatusInitiated = "initiated"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

const (
	ModeOnline   = "online"
	ModeInPerson = "in-person"
)

// Details holds the sanitized subject data captured at booking time.
// Write-once: it is set by the reserving transaction and never mutated.
type Details struct {
	BeneficiaryName string `json:"beneficiary_name"`
	BirthPlace      string `json:"birth_place"`
	BirthDate       string `json:"birth_date"` // YYYY-MM-DD
	BirthTime       string `json:"birth_time"` // HH:MM
	PropertySize    string `json:"property_size"`
}

// Booking is one reserved slot. The ID is the deterministic slot identifier
// and doubles as the payment transaction reference, so the primary key is
// what enforces at-most-one booking per slot.
type Booking struct {
	ID string `gorm:"primaryKey" json:"id"`

	Status string `gorm:"index" json:"status"` // initiated|confirmed|failed

	RequesterID    string `gorm:"index" json:"requester_id"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`

	ServiceID       string `json:"service_id"`
	ServiceName     string `json:"service_name"`
	ServiceCategory string `json:"service_category"`
	Amount          int64  `json:"amount"` // whole currency units, catalog snapshot
	Currency        string `json:"currency"`

	Details Details `gorm:"embedded;embeddedPrefix:detail_" json:"details"`

	Date        string `gorm:"index" json:"date"` // YYYY-MM-DD
	TimeLabel   string `json:"time_label"`
	Mode        string `json:"mode"`
	MeetingLink string `json:"meeting_link,omitempty"` // set iff mode is online

	// Set only when the record turns terminal.
	PaymentReference string `json:"payment_reference,omitempty"`
	PaymentMode      string `json:"payment_mode,omitempty"`
	FailureReason    string `json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) Terminal() bool {
	return b.Status == StatusConfirmed || b.Status == StatusFailed
}

// Blocking reports whether this record keeps the slot off the market.
// A failed attempt does not; its slot is immediately re-bookable.
func (b *Booking) Blocking() bool {
	return b.Status == StatusInitiated || b.Status == StatusConfirmed
}

// BookingArchive keeps a copy of a failed attempt that was overwritten by a
// later reservation of the same slot, so no history is silently lost.
type BookingArchive struct {
	ArchiveID uint   `gorm:"primaryKey;autoIncrement"`
	BookingID string `gorm:"index"` // original slot id

	Status          string
	RequesterID     string
	RequesterName   string
	RequesterEmail  string
	ServiceID       string
	ServiceName     string
	ServiceCategory string
	Amount          int64
	Currency        string

	Details Details `gorm:"embedded;embeddedPrefix:detail_"`

	Date        string
	TimeLabel   string
	Mode        string
	MeetingLink string

	PaymentReference string
	PaymentMode      string
	FailureReason    string

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ArchivedAt time.Time
}

// Archive snapshots the booking for the archive table.
func (b *Booking) Archive(now time.Time) BookingArchive {
	return BookingArchive{
		BookingID:        b.ID,
		Status:           b.Status,
		RequesterID:      b.RequesterID,
		RequesterName:    b.RequesterName,
		RequesterEmail:   b.RequesterEmail,
		ServiceID:        b.ServiceID,
		ServiceName:      b.ServiceName,
		ServiceCategory:  b.ServiceCategory,
		Amount:           b.Amount,
		Currency:         b.Currency,
		Details:          b.Details,
		Date:             b.Date,
		TimeLabel:        b.TimeLabel,
		Mode:             b.Mode,
		MeetingLink:      b.MeetingLink,
		PaymentReference: b.PaymentReference,
		PaymentMode:      b.PaymentMode,
		FailureReason:    b.FailureReason,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
		ArchivedAt:       now,
	}
}
