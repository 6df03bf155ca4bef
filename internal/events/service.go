package events

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"eventix/internal/shared/apperrors"
	"eventix/internal/shared/constants"
	"eventix/pkg/cache"
	"eventix/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Service interface {
	CreateEvent(ctx context.Context, organizerID uuid.UUID, req CreateEventRequest) (*EventResponse, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, req UpdateEventRequest) (*EventResponse, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	ListEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)
	ListByCategory(ctx context.Context, category string, page, limit int) (*PaginatedEvents, error)

	// Invalidate drops cached reads for an event after its inventory changed
	Invalidate(ctx context.Context, eventID uuid.UUID)
}

// PaidBookingChecker reports whether any paid booking references an event
type PaidBookingChecker interface {
	HasPaidBookings(ctx context.Context, eventID uuid.UUID) (bool, error)
}

type service struct {
	repo         Repository
	bookings     PaidBookingChecker
	cacheService cache.Service
	validate     *validator.Validate
	log          *logger.Logger
	now          func() time.Time
}

func NewService(repo Repository, bookings PaidBookingChecker, cacheService cache.Service) Service {
	return &service{
		repo:         repo,
		bookings:     bookings,
		cacheService: cacheService,
		validate:     NewValidator(),
		log:          logger.GetDefault(),
		now:          time.Now,
	}
}

func (s *service) CreateEvent(ctx context.Context, organizerID uuid.UUID, req CreateEventRequest) (*EventResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, err, "Invalid event data")
	}

	now := s.now()
	if !req.Date.After(now) {
		return nil, apperrors.InvalidArgument("Event date must be in the future")
	}
	if !startBeforeEnd(req.StartTime, req.EndTime) {
		return nil, apperrors.InvalidArgument("End time must be after start time")
	}

	status := EventStatusPublished
	if req.Status != "" {
		status = EventStatus(req.Status)
	}

	event := &Event{
		ID:               uuid.New(),
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Category:         Category(req.Category),
		Date:             req.Date.UTC(),
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Venue:            venueFromRequest(req.Venue),
		Price:            *req.Price,
		TotalTickets:     req.TotalTickets,
		AvailableTickets: req.TotalTickets,
		Status:           status,
		ImageURL:         req.ImageURL,
		Requirements:     req.Requirements,
		OrganizerID:      organizerID,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.invalidateLists(ctx)
	s.log.LogEventCreated(ctx, event.ID.String(), organizerID.String())

	resp := event.ToResponse(now)
	return &resp, nil
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	key := constants.BuildEventDetailKey(id.String())

	var cached EventResponse
	if s.cacheService != nil {
		if err := s.cacheService.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := event.ToResponse(s.now())
	s.setCache(ctx, key, resp, constants.TTL_EVENT_DETAIL)
	return &resp, nil
}

func (s *service) UpdateEvent(ctx context.Context, id uuid.UUID, req UpdateEventRequest) (*EventResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, err, "Invalid event data")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if req.Date != nil && !req.Date.After(now) {
		return nil, apperrors.InvalidArgument("Event date must be in the future")
	}

	if req.StartTime != nil || req.EndTime != nil {
		start, end := current.StartTime, current.EndTime
		if req.StartTime != nil {
			start = *req.StartTime
		}
		if req.EndTime != nil {
			end = *req.EndTime
		}
		if !startBeforeEnd(start, end) {
			return nil, apperrors.InvalidArgument("End time must be after start time")
		}
	}

	updates := buildUpdates(req)

	var capacity *CapacityChange
	if req.TotalTickets != nil {
		capacity = &CapacityChange{ExpectedTotal: current.TotalTickets, NewTotal: *req.TotalTickets}
	}

	event, err := s.repo.Update(ctx, id, updates, capacity)
	if err != nil {
		switch {
		case errors.Is(err, ErrCapacityBelowSold):
			return nil, apperrors.InvalidArgument("Total tickets cannot be less than the %d tickets already sold", current.SoldTickets())
		case errors.Is(err, ErrCapacityChanged):
			return nil, ErrEventCapacityChanged
		}
		return nil, err
	}

	s.Invalidate(ctx, id)

	resp := event.ToResponse(now)
	return &resp, nil
}

func (s *service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if s.bookings != nil {
		hasPaid, err := s.bookings.HasPaidBookings(ctx, id)
		if err != nil {
			return err
		}
		if hasPaid {
			return apperrors.InvalidState("Cannot delete event with confirmed bookings")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.Invalidate(ctx, id)
	return nil
}

func (s *service) ListEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, err, "Invalid query parameters")
	}
	query.normalize()

	cacheable := query.UpcomingOnly && query.Status == string(EventStatusPublished)
	key := constants.BuildEventListKey(query.Page, query.Limit, query.Category)
	if cacheable && s.cacheService != nil {
		var cached PaginatedEvents
		if err := s.cacheService.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	now := s.now()
	events, total, err := s.repo.List(ctx, query, now)
	if err != nil {
		return nil, err
	}

	result := &PaginatedEvents{
		Events:     make([]EventResponse, len(events)),
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
	}
	for i := range events {
		result.Events[i] = events[i].ToResponse(now)
	}

	if cacheable {
		s.setCache(ctx, key, result, constants.TTL_EVENT_LIST)
	}
	return result, nil
}

func (s *service) ListByCategory(ctx context.Context, category string, page, limit int) (*PaginatedEvents, error) {
	if !IsValidCategory(category) {
		return nil, apperrors.InvalidArgument("Unknown category %q", category)
	}
	return s.ListEvents(ctx, EventListQuery{
		Page:         page,
		Limit:        limit,
		Category:     category,
		Status:       string(EventStatusPublished),
		UpcomingOnly: true,
	})
}

func (s *service) Invalidate(ctx context.Context, eventID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, constants.BuildEventDetailKey(eventID.String())); err != nil {
		s.log.WarnContext(ctx, "event cache invalidation failed", "event_id", eventID.String(), "error", err)
	}
	s.invalidateLists(ctx)
}

func (s *service) invalidateLists(ctx context.Context) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.DeletePattern(ctx, constants.PATTERN_INVALIDATE_EVENT_LISTS); err != nil {
		s.log.WarnContext(ctx, "event list cache invalidation failed", "error", err)
	}
}

func (s *service) setCache(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Set(ctx, key, value, ttl); err != nil {
		s.log.WarnContext(ctx, "event cache write failed", "key", key, "error", err)
	}
}

func venueFromRequest(v VenueRequest) Venue {
	return Venue{
		Name:     v.Name,
		Address:  v.Address,
		City:     v.City,
		State:    v.State,
		ZipCode:  v.ZipCode,
		Capacity: v.Capacity,
	}
}

// buildUpdates maps the optional fields to columns; total_tickets goes through CapacityChange
func buildUpdates(req UpdateEventRequest) map[string]interface{} {
	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Date != nil {
		updates["date"] = req.Date.UTC()
	}
	if req.StartTime != nil {
		updates["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		updates["end_time"] = *req.EndTime
	}
	if req.Venue != nil {
		updates["venue_name"] = req.Venue.Name
		updates["venue_address"] = req.Venue.Address
		updates["venue_city"] = req.Venue.City
		updates["venue_state"] = req.Venue.State
		updates["venue_zip_code"] = req.Venue.ZipCode
		updates["venue_capacity"] = req.Venue.Capacity
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Requirements != nil {
		updates["requirements"] = *req.Requirements
	}
	return updates
}
