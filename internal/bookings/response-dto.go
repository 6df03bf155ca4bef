package bookings

import (
	"time"

	"eventix/internal/events"
	"eventix/internal/users"
)

type BookingResponse struct {
	ID               string        `json:"id"`
	BookingReference string        `json:"booking_reference"`
	UserID           string        `json:"user_id"`
	EventID          string        `json:"event_id"`
	TicketQuantity   int           `json:"ticket_quantity"`
	TotalAmount      float64       `json:"total_amount"`
	PricePerTicket   float64       `json:"price_per_ticket"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	BookingStatus    BookingStatus `json:"booking_status"`
	IsActive         bool          `json:"is_active"`
	Attendee         AttendeeInfo  `json:"attendee_info"`
	CheckedIn        bool          `json:"checked_in"`
	CheckedInAt      *time.Time    `json:"checked_in_at,omitempty"`
	RefundAmount     float64       `json:"refund_amount"`
	RefundReason     string        `json:"refund_reason,omitempty"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	Event            *EventSummary `json:"event,omitempty"`
	User             *UserSummary  `json:"user,omitempty"`
}

// EventSummary is the slice of event data shown next to a booking
type EventSummary struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Category events.Category `json:"category"`
	Date     time.Time       `json:"date"`
	Venue    events.Venue    `json:"venue"`
	Price    float64         `json:"price"`
}

func summarizeEvent(e *events.Event) *EventSummary {
	if e == nil {
		return nil
	}
	return &EventSummary{
		ID:       e.ID.String(),
		Title:    e.Title,
		Category: e.Category,
		Date:     e.Date,
		Venue:    e.Venue,
		Price:    e.Price,
	}
}

// UserSummary identifies the account behind a booking in admin listings
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func summarizeUser(u *users.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:    u.ID.String(),
		Name:  u.FullName(),
		Email: u.Email,
	}
}

type CheckoutResponse struct {
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
}

type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

type AttendeeListResponse struct {
	EventID   string            `json:"event_id"`
	Count     int               `json:"count"`
	Attendees []BookingResponse `json:"attendees"`
}
