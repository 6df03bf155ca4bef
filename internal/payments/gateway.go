package payments

import (
	"context"
	"math"
	"strconv"
	"strings"

	"eventix/internal/shared/apperrors"
	"eventix/internal/shared/config"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	SessionPaid              PaymentStatus = "paid"
	SessionUnpaid            PaymentStatus = "unpaid"
	SessionNoPaymentRequired PaymentStatus = "no_payment_required"
)

// Webhook event types we act on
const (
	EventCheckoutSessionCompleted   = "checkout.session.completed"
	EventPaymentIntentPaymentFailed = "payment_intent.payment_failed"
)

const (
	metaEventID        = "eventId"
	metaUserID         = "userId"
	metaTicketQuantity = "ticketQuantity"
	metaAttendeeName   = "attendeeName"
	metaAttendeeEmail  = "attendeeEmail"
	metaAttendeePhone  = "attendeePhone"
)

const RefundReasonRequestedByCustomer = "requested_by_customer"

var (
	ErrSessionNotFound  = apperrors.NotFound("Payment session not found")
	ErrInvalidSessionID = apperrors.InvalidArgument("Invalid payment session ID")
	ErrMetadataInvalid  = apperrors.InvalidArgument("Payment session is missing booking details")
)

type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type CheckoutRequest struct {
	EventID          uuid.UUID
	EventTitle       string
	EventDescription string
	UnitPrice        float64
	Quantity         int
	Attendee         Attendee
	CallerID         uuid.UUID
}

type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"url"`
}

// SessionMetadata is the booking request echoed back by the provider
type SessionMetadata struct {
	EventID  uuid.UUID
	UserID   uuid.UUID
	Quantity int
	Attendee Attendee
}

type Session struct {
	ID              string
	PaymentStatus   PaymentStatus
	SettledAmount   float64
	PaymentIntentID string
	Metadata        map[string]string
}

func (s *Session) IsPaid() bool {
	return s.PaymentStatus == SessionPaid
}

// BookingDetails decodes the booking parameters written at checkout creation
func (s *Session) BookingDetails() (SessionMetadata, error) {
	return decodeMetadata(s.Metadata)
}

type Refund struct {
	ID     string
	Amount float64
}

type WebhookEvent struct {
	ID              string
	Type            string
	SessionID       string
	PaymentIntentID string
	Metadata        map[string]string
}

// Gateway wraps the checkout provider. Implementations return apperrors kinds:
// NotFound and InvalidArgument for bad session ids, UpstreamFailure otherwise.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
	IssueRefund(ctx context.Context, paymentIntentID, reason string) (*Refund, error)
	VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)
}

// NewGateway picks the sandbox or Stripe implementation from config
func NewGateway(cfg *config.Config) Gateway {
	if cfg.UseSandboxPayments() {
		return NewSandboxGateway(cfg.Payments)
	}
	return NewStripeGateway(cfg.Payments)
}

// ToMinorUnits converts a major-unit price to cents
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

func encodeMetadata(req CheckoutRequest) map[string]string {
	return map[string]string{
		metaEventID:        req.EventID.String(),
		metaUserID:         req.CallerID.String(),
		metaTicketQuantity: strconv.Itoa(req.Quantity),
		metaAttendeeName:   req.Attendee.Name,
		metaAttendeeEmail:  req.Attendee.Email,
		metaAttendeePhone:  req.Attendee.Phone,
	}
}

func decodeMetadata(meta map[string]string) (SessionMetadata, error) {
	eventID, err := uuid.Parse(meta[metaEventID])
	if err != nil {
		return SessionMetadata{}, ErrMetadataInvalid
	}
	userID, err := uuid.Parse(meta[metaUserID])
	if err != nil {
		return SessionMetadata{}, ErrMetadataInvalid
	}
	quantity, err := strconv.Atoi(meta[metaTicketQuantity])
	if err != nil {
		return SessionMetadata{}, ErrMetadataInvalid
	}
	if strings.TrimSpace(meta[metaAttendeeName]) == "" || strings.TrimSpace(meta[metaAttendeeEmail]) == "" {
		return SessionMetadata{}, ErrMetadataInvalid
	}

	return SessionMetadata{
		EventID:  eventID,
		UserID:   userID,
		Quantity: quantity,
		Attendee: Attendee{
			Name:  meta[metaAttendeeName],
			Email: meta[metaAttendeeEmail],
			Phone: meta[metaAttendeePhone],
		},
	}, nil
}
