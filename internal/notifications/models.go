package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationTypeBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationTypeBookingCheckedIn NotificationType = "BOOKING_CHECKED_IN"
	NotificationTypePaymentFailed    NotificationType = "PAYMENT_FAILED"
)

type NotificationStatus string

const (
	NotificationStatusPending  NotificationStatus = "PENDING"
	NotificationStatusQueued   NotificationStatus = "QUEUED"
	NotificationStatusSending  NotificationStatus = "SENDING"
	NotificationStatusSent     NotificationStatus = "SENT"
	NotificationStatusFailed   NotificationStatus = "FAILED"
	NotificationStatusRetrying NotificationStatus = "RETRYING"
	NotificationStatusExpired  NotificationStatus = "EXPIRED"
)

// EmailNotification is the message carried on the notification topic
type EmailNotification struct {
	ID   uuid.UUID        `json:"id"`
	Type NotificationType `json:"type"`

	RecipientID    uuid.UUID `json:"recipient_id"`
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name"`

	Subject      string                 `json:"subject"`
	TemplateData map[string]interface{} `json:"template_data"`

	EventID   *uuid.UUID `json:"event_id,omitempty"`
	BookingID *uuid.UUID `json:"booking_id,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Status     NotificationStatus `json:"status"`
	RetryCount int                `json:"retry_count"`
	MaxRetries int                `json:"max_retries"`
	LastError  *string            `json:"last_error,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	SentAt     *time.Time         `json:"sent_at,omitempty"`
}

type NotificationBuilder struct {
	notification *EmailNotification
}

func NewNotificationBuilder() *NotificationBuilder {
	now := time.Now()
	return &NotificationBuilder{
		notification: &EmailNotification{
			ID:           uuid.New(),
			Status:       NotificationStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
			MaxRetries:   3,
			TemplateData: make(map[string]interface{}),
		},
	}
}

func (nb *NotificationBuilder) WithType(notType NotificationType) *NotificationBuilder {
	nb.notification.Type = notType
	return nb
}

func (nb *NotificationBuilder) WithRecipient(userID uuid.UUID, email, name string) *NotificationBuilder {
	nb.notification.RecipientID = userID
	nb.notification.RecipientEmail = email
	nb.notification.RecipientName = name
	return nb
}

func (nb *NotificationBuilder) WithTemplateData(data map[string]interface{}) *NotificationBuilder {
	nb.notification.TemplateData = data
	return nb
}

func (nb *NotificationBuilder) WithEventContext(eventID uuid.UUID) *NotificationBuilder {
	nb.notification.EventID = &eventID
	return nb
}

func (nb *NotificationBuilder) WithBookingContext(bookingID uuid.UUID) *NotificationBuilder {
	nb.notification.BookingID = &bookingID
	return nb
}

func (nb *NotificationBuilder) WithExpiration(expiresAt time.Time) *NotificationBuilder {
	nb.notification.ExpiresAt = &expiresAt
	return nb
}

// Build fills in the subject from the type unless one was set
func (nb *NotificationBuilder) Build() *EmailNotification {
	if nb.notification.Subject == "" {
		nb.notification.Subject = SubjectFor(nb.notification.Type, nb.notification.TemplateData)
	}
	return nb.notification
}

func SubjectFor(notType NotificationType, data map[string]interface{}) string {
	title, hasTitle := data["event_title"]
	switch notType {
	case NotificationTypeBookingConfirmed:
		if hasTitle {
			return fmt.Sprintf("Booking confirmed for %v", title)
		}
		return "Your booking is confirmed"
	case NotificationTypeBookingCancelled:
		if hasTitle {
			return fmt.Sprintf("Booking cancelled for %v", title)
		}
		return "Your booking has been cancelled"
	case NotificationTypeBookingCheckedIn:
		if hasTitle {
			return fmt.Sprintf("Welcome to %v", title)
		}
		return "You are checked in"
	case NotificationTypePaymentFailed:
		return "Your payment did not go through"
	default:
		return "Notification from Eventix"
	}
}

// GetPartitionKey keeps one recipient's messages ordered on a single partition
func (en *EmailNotification) GetPartitionKey() string {
	return en.RecipientID.String()
}

func (en *EmailNotification) ToJSON() ([]byte, error) {
	return json.Marshal(en)
}

func (en *EmailNotification) IsExpired(now time.Time) bool {
	return en.ExpiresAt != nil && now.After(*en.ExpiresAt)
}

func (en *EmailNotification) MarkSent(now time.Time) {
	en.Status = NotificationStatusSent
	en.SentAt = &now
	en.UpdatedAt = now
}

func (en *EmailNotification) MarkFailed(err error, now time.Time) {
	en.Status = NotificationStatusFailed
	en.UpdatedAt = now
	errorStr := err.Error()
	en.LastError = &errorStr
}
