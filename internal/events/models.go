package events

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

type Category string

const (
	CategoryConference Category = "Conference"
	CategoryWorkshop   Category = "Workshop"
	CategorySeminar    Category = "Seminar"
	CategoryConcert    Category = "Concert"
	CategorySports     Category = "Sports"
	CategoryFestival   Category = "Festival"
	CategoryExhibition Category = "Exhibition"
	CategoryNetworking Category = "Networking"
	CategoryTraining   Category = "Training"
	CategoryOther      Category = "Other"
)

var categories = []Category{
	CategoryConference, CategoryWorkshop, CategorySeminar, CategoryConcert, CategorySports,
	CategoryFestival, CategoryExhibition, CategoryNetworking, CategoryTraining, CategoryOther,
}

func IsValidCategory(c string) bool {
	for _, known := range categories {
		if string(known) == c {
			return true
		}
	}
	return false
}

type Venue struct {
	Name     string `json:"name" gorm:"size:200;not null"`
	Address  string `json:"address" gorm:"size:255;not null"`
	City     string `json:"city" gorm:"size:100;not null;index:idx_events_venue_location"`
	State    string `json:"state" gorm:"size:100;not null;index:idx_events_venue_location"`
	ZipCode  string `json:"zip_code" gorm:"size:20;not null"`
	Capacity int    `json:"capacity" gorm:"not null"`
}

// Event holds both the listing data and the ticket inventory counters.
// AvailableTickets is only written through Reserve, Release and AdjustCapacity.
type Event struct {
	ID               uuid.UUID   `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title            string      `json:"title" gorm:"not null;size:100"`
	Description      string      `json:"description" gorm:"type:text;not null"`
	Category         Category    `json:"category" gorm:"type:varchar(30);not null;index:idx_events_date_category_status,priority:2"`
	Date             time.Time   `json:"date" gorm:"not null;index:idx_events_date_category_status,priority:1"`
	StartTime        string      `json:"start_time" gorm:"type:varchar(5);not null"`
	EndTime          string      `json:"end_time" gorm:"type:varchar(5);not null"`
	Venue            Venue       `json:"venue" gorm:"embedded;embeddedPrefix:venue_"`
	Price            float64     `json:"price" gorm:"not null;check:price >= 0"`
	TotalTickets     int         `json:"total_tickets" gorm:"not null;check:total_tickets >= 1"`
	AvailableTickets int         `json:"available_tickets" gorm:"not null"`
	Status           EventStatus `json:"status" gorm:"type:varchar(20);default:'published';index:idx_events_date_category_status,priority:3"`
	ImageURL         string      `json:"image_url" gorm:"size:500"`
	Requirements     string      `json:"requirements" gorm:"size:500"`
	OrganizerID      uuid.UUID   `json:"organizer_id" gorm:"type:uuid;not null"`
	CreatedAt        time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}

func (e *Event) SoldTickets() int {
	return e.TotalTickets - e.AvailableTickets
}

func (e *Event) IsSoldOut() bool {
	return e.AvailableTickets == 0
}

func (e *Event) IsUpcoming(now time.Time) bool {
	return e.Date.After(now)
}

func (e *Event) IsBookable(now time.Time) bool {
	return e.Status == EventStatusPublished && e.IsUpcoming(now)
}

func (e *Event) ToResponse(now time.Time) EventResponse {
	return EventResponse{
		ID:               e.ID.String(),
		Title:            e.Title,
		Description:      e.Description,
		Category:         e.Category,
		Date:             e.Date,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		Venue:            e.Venue,
		Price:            e.Price,
		TotalTickets:     e.TotalTickets,
		AvailableTickets: e.AvailableTickets,
		SoldTickets:      e.SoldTickets(),
		IsSoldOut:        e.IsSoldOut(),
		IsUpcoming:       e.IsUpcoming(now),
		Status:           e.Status,
		ImageURL:         e.ImageURL,
		Requirements:     e.Requirements,
		OrganizerID:      e.OrganizerID.String(),
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}
