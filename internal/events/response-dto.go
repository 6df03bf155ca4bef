package events

import "time"

type EventResponse struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Category         Category    `json:"category"`
	Date             time.Time   `json:"date"`
	StartTime        string      `json:"start_time"`
	EndTime          string      `json:"end_time"`
	Venue            Venue       `json:"venue"`
	Price            float64     `json:"price"`
	TotalTickets     int         `json:"total_tickets"`
	AvailableTickets int         `json:"available_tickets"`
	SoldTickets      int         `json:"sold_tickets"`
	IsSoldOut        bool        `json:"is_sold_out"`
	IsUpcoming       bool        `json:"is_upcoming"`
	Status           EventStatus `json:"status"`
	ImageURL         string      `json:"image_url"`
	Requirements     string      `json:"requirements,omitempty"`
	OrganizerID      string      `json:"organizer_id"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}
