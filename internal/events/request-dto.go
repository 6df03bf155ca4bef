package events

import "time"

type VenueRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Address  string `json:"address" validate:"required,max=255"`
	City     string `json:"city" validate:"required,max=100"`
	State    string `json:"state" validate:"required,max=100"`
	ZipCode  string `json:"zip_code" validate:"required,max=20"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

type CreateEventRequest struct {
	Title        string       `json:"title" validate:"required,max=100"`
	Description  string       `json:"description" validate:"required,max=1000"`
	Category     string       `json:"category" validate:"required,event_category"`
	Date         time.Time    `json:"date" validate:"required"`
	StartTime    string       `json:"start_time" validate:"required,hhmm"`
	EndTime      string       `json:"end_time" validate:"required,hhmm"`
	Venue        VenueRequest `json:"venue"`
	Price        *float64     `json:"price" validate:"required,min=0"`
	TotalTickets int          `json:"total_tickets" validate:"required,min=1"`
	Status       string       `json:"status" validate:"omitempty,oneof=draft published"`
	ImageURL     string       `json:"image_url" validate:"omitempty,url,max=500"`
	Requirements string       `json:"requirements" validate:"max=500"`
}

type UpdateEventRequest struct {
	Title        *string       `json:"title" validate:"omitempty,max=100"`
	Description  *string       `json:"description" validate:"omitempty,max=1000"`
	Category     *string       `json:"category" validate:"omitempty,event_category"`
	Date         *time.Time    `json:"date"`
	StartTime    *string       `json:"start_time" validate:"omitempty,hhmm"`
	EndTime      *string       `json:"end_time" validate:"omitempty,hhmm"`
	Venue        *VenueRequest `json:"venue"`
	Price        *float64      `json:"price" validate:"omitempty,min=0"`
	TotalTickets *int          `json:"total_tickets" validate:"omitempty,min=1"`
	Status       *string       `json:"status" validate:"omitempty,oneof=draft published cancelled completed"`
	ImageURL     *string       `json:"image_url" validate:"omitempty,url,max=500"`
	Requirements *string       `json:"requirements" validate:"omitempty,max=500"`
}

type EventListQuery struct {
	Page     int    `form:"page" validate:"omitempty,min=1"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Category string `form:"category" validate:"omitempty,event_category"`
	Status   string `form:"status" validate:"omitempty,oneof=draft published cancelled completed"`

	// set by the controller for public listings
	UpcomingOnly bool `form:"-"`
}

func (q *EventListQuery) normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 25
	}
}
