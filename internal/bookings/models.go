package bookings

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusAttended  BookingStatus = "attended"
	BookingStatusNoShow    BookingStatus = "no-show"
)

// Booking policy. Changing these requires a redeploy.
const (
	MinTicketsPerBooking = 1
	MaxTicketsPerBooking = 10
	CancellationCutoff   = 24 * time.Hour
)

type AttendeeInfo struct {
	Name  string `json:"name" gorm:"size:100;not null"`
	Email string `json:"email" gorm:"size:255;not null"`
	Phone string `json:"phone,omitempty" gorm:"size:20"`
}

// Booking is created only once a checkout session is verified as paid.
// Rows are never deleted; cancellation is a status change.
type Booking struct {
	ID               uuid.UUID     `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID           uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	EventID          uuid.UUID     `json:"event_id" gorm:"type:uuid;not null;index"`
	TicketQuantity   int           `json:"ticket_quantity" gorm:"not null;check:ticket_quantity BETWEEN 1 AND 10"`
	TotalAmount      float64       `json:"total_amount" gorm:"not null;check:total_amount >= 0"`
	PaymentStatus    PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`
	BookingStatus    BookingStatus `json:"booking_status" gorm:"type:varchar(20);not null;default:'confirmed'"`
	StripeSessionID  string        `json:"stripe_session_id" gorm:"size:255;not null;uniqueIndex:idx_bookings_stripe_session_id"`
	PaymentIntentID  string        `json:"payment_intent_id,omitempty" gorm:"size:255"`
	BookingReference string        `json:"booking_reference" gorm:"size:32;not null;uniqueIndex:idx_bookings_booking_reference"`
	Attendee         AttendeeInfo  `json:"attendee_info" gorm:"embedded;embeddedPrefix:attendee_"`
	CheckedIn        bool          `json:"checked_in" gorm:"not null;default:false"`
	CheckedInAt      *time.Time    `json:"checked_in_at,omitempty"`
	RefundAmount     float64       `json:"refund_amount" gorm:"not null;default:0"`
	RefundReason     string        `json:"refund_reason,omitempty" gorm:"size:300"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}

// BeforeCreate backfills a missing or malformed reference
func (b *Booking) BeforeCreate(_ *gorm.DB) error {
	if IsValidReference(b.BookingReference) {
		return nil
	}
	ref, err := NewReference(time.Now())
	if err != nil {
		return err
	}
	b.BookingReference = ref
	return nil
}

func (b *Booking) PricePerTicket() float64 {
	if b.TicketQuantity == 0 {
		return 0
	}
	return b.TotalAmount / float64(b.TicketQuantity)
}

func (b *Booking) IsActive() bool {
	return b.BookingStatus == BookingStatusConfirmed && b.PaymentStatus == PaymentStatusPaid
}

func (b *Booking) IsCancelled() bool {
	return b.BookingStatus == BookingStatusCancelled
}

func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusPaid
}

func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:               b.ID.String(),
		BookingReference: b.BookingReference,
		UserID:           b.UserID.String(),
		EventID:          b.EventID.String(),
		TicketQuantity:   b.TicketQuantity,
		TotalAmount:      b.TotalAmount,
		PricePerTicket:   b.PricePerTicket(),
		PaymentStatus:    b.PaymentStatus,
		BookingStatus:    b.BookingStatus,
		IsActive:         b.IsActive(),
		Attendee:         b.Attendee,
		CheckedIn:        b.CheckedIn,
		CheckedInAt:      b.CheckedInAt,
		RefundAmount:     b.RefundAmount,
		RefundReason:     b.RefundReason,
		CancelledAt:      b.CancelledAt,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}
