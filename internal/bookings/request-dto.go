package bookings

type AttendeeRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,attendee_email"`
	Phone string `json:"phone" validate:"omitempty,attendee_phone"`
}

// CreateCheckoutRequest is checked by the engine so precondition order is preserved
type CreateCheckoutRequest struct {
	EventID        string          `json:"event_id" binding:"required"`
	TicketQuantity int             `json:"ticket_quantity"`
	Attendee       AttendeeRequest `json:"attendee_info"`
}

type ConfirmPaymentRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=300"`
}

type BookingListQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (q *BookingListQuery) normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
}
