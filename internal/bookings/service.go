package bookings

import (
	"context"
	"errors"
	"strings"
	"time"

	"eventix/internal/events"
	"eventix/internal/notifications"
	"eventix/internal/payments"
	"eventix/internal/shared/apperrors"
	"eventix/internal/shared/constants"
	"eventix/internal/users"
	"eventix/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	defaultCancellationReason = "Cancelled by user"

	// reference collisions are retried with a fresh reference this many times
	maxReferenceAttempts = 3
)

var (
	ErrNotBookingOwner        = apperrors.Unauthorized("Not authorized to access this booking")
	ErrAdminRequired          = apperrors.Unauthorized("Admin access required")
	ErrEventNotBookable       = apperrors.InvalidState("Event is not available for booking")
	ErrEventInPast            = apperrors.InvalidState("Cannot book tickets for past events")
	ErrInvalidTicketQuantity  = apperrors.InvalidArgument("Ticket quantity must be between %d and %d", MinTicketsPerBooking, MaxTicketsPerBooking)
	ErrPaymentNotCompleted    = apperrors.PaymentNotCompleted("Payment not completed")
	ErrTicketsNoLongerAvail   = apperrors.InsufficientInventory("Tickets no longer available")
	ErrConfirmationInProgress = apperrors.Conflict("Payment confirmation already in progress for this session")
	ErrBookingBusy            = apperrors.Conflict("Booking is being updated by another request")
	ErrAlreadyCancelled       = apperrors.Conflict("Booking is already cancelled")
	ErrNotCancellable         = apperrors.InvalidState("Only confirmed bookings can be cancelled")
	ErrCancelUnpaid           = apperrors.InvalidState("Cannot cancel unpaid booking")
	ErrCancellationWindow     = apperrors.InvalidState("Cannot cancel booking less than 24 hours before event")
	ErrCheckInUnpaid          = apperrors.Conflict("Cannot check in unpaid booking")
	ErrCheckInCancelled       = apperrors.Conflict("Cannot check in cancelled booking")
	ErrAlreadyCheckedIn       = apperrors.Conflict("Attendee already checked in")
	ErrCheckInNoShow          = apperrors.Conflict("Booking was marked as no-show")
)

// Caller is the authenticated identity behind a request
type Caller struct {
	UserID uuid.UUID
	Role   users.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == users.RoleAdmin
}

func (c Caller) canAccess(b *Booking) bool {
	return c.IsAdmin() || b.UserID == c.UserID
}

// EventStore is the read side of the events repository
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

// EventCache drops cached event reads after inventory moves
type EventCache interface {
	Invalidate(ctx context.Context, eventID uuid.UUID)
}

// Service is the booking lifecycle engine. It is the only writer of booking
// status and, through the repository transactions, of event inventory.
type Service interface {
	InitiateCheckout(ctx context.Context, caller Caller, req CreateCheckoutRequest) (*CheckoutResponse, error)

	// ConfirmPayment is idempotent per session id. created is false when the
	// booking already existed.
	ConfirmPayment(ctx context.Context, caller Caller, sessionID string) (booking *BookingResponse, created bool, err error)

	CancelBooking(ctx context.Context, caller Caller, bookingID uuid.UUID, reason string) (*BookingResponse, error)
	CheckIn(ctx context.Context, caller Caller, bookingID uuid.UUID) (*BookingResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*payments.WebhookEvent, error)

	GetBooking(ctx context.Context, caller Caller, bookingID uuid.UUID) (*BookingResponse, error)
	MyBookings(ctx context.Context, caller Caller, query BookingListQuery) (*PaginatedBookings, error)

	// AllBookings lists every booking newest first with its event and user attached. Admin only.
	AllBookings(ctx context.Context, caller Caller, query BookingListQuery) (*PaginatedBookings, error)
	EventAttendees(ctx context.Context, caller Caller, eventID uuid.UUID) (*AttendeeListResponse, error)
}

type service struct {
	repo       Repository
	events     EventStore
	gateway    payments.Gateway
	locker     Locker
	publisher  notifications.Publisher
	eventCache EventCache
	validate   *validator.Validate
	log        *logger.Logger
	now        func() time.Time
}

// NewService wires the engine. locker, publisher and eventCache may be nil.
func NewService(repo Repository, eventStore EventStore, gateway payments.Gateway, locker Locker, publisher notifications.Publisher, eventCache EventCache) Service {
	if locker == nil {
		locker = noopLocker{}
	}
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}
	return &service{
		repo:       repo,
		events:     eventStore,
		gateway:    gateway,
		locker:     locker,
		publisher:  publisher,
		eventCache: eventCache,
		validate:   newValidator(),
		log:        logger.GetDefault(),
		now:        time.Now,
	}
}

func (s *service) InitiateCheckout(ctx context.Context, caller Caller, req CreateCheckoutRequest) (*CheckoutResponse, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, apperrors.InvalidArgument("Invalid event ID")
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != events.EventStatusPublished {
		return nil, ErrEventNotBookable
	}
	if !event.IsUpcoming(s.now()) {
		return nil, ErrEventInPast
	}
	if req.TicketQuantity < MinTicketsPerBooking || req.TicketQuantity > MaxTicketsPerBooking {
		return nil, ErrInvalidTicketQuantity
	}
	if err := s.validate.Struct(req.Attendee); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, err, "Invalid attendee information")
	}
	if event.AvailableTickets < req.TicketQuantity {
		return nil, apperrors.InsufficientInventory("Only %d tickets available", event.AvailableTickets)
	}

	// No inventory is held here; an abandoned checkout must not lock tickets.
	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		EventID:          event.ID,
		EventTitle:       event.Title,
		EventDescription: truncate(event.Description, 100),
		UnitPrice:        event.Price,
		Quantity:         req.TicketQuantity,
		Attendee: payments.Attendee{
			Name:  strings.TrimSpace(req.Attendee.Name),
			Email: strings.TrimSpace(req.Attendee.Email),
			Phone: strings.TrimSpace(req.Attendee.Phone),
		},
		CallerID: caller.UserID,
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "checkout session created",
		"session_id", session.SessionID,
		"event_id", event.ID.String(),
		"user_id", caller.UserID.String(),
		"ticket_quantity", req.TicketQuantity,
	)

	return &CheckoutResponse{SessionID: session.SessionID, SessionURL: session.RedirectURL}, nil
}

func (s *service) ConfirmPayment(ctx context.Context, caller Caller, sessionID string) (*BookingResponse, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, false, apperrors.InvalidArgument("Session ID is required")
	}

	if existing, err := s.existingBooking(ctx, caller, sessionID); existing != nil || err != nil {
		return existing, false, err
	}

	lockKey := constants.BuildConfirmSessionLockKey(sessionID)
	token, acquired, err := s.locker.Acquire(ctx, lockKey, confirmLockTTL)
	switch {
	case err != nil:
		// the unique session index still guarantees a single booking
		s.log.WarnContext(ctx, "confirmation lock unavailable, continuing without it", "session_id", sessionID, "error", err)
	case !acquired:
		if existing, err := s.existingBooking(ctx, caller, sessionID); existing != nil || err != nil {
			return existing, false, err
		}
		return nil, false, ErrConfirmationInProgress
	default:
		defer s.releaseLock(ctx, lockKey, token)
	}

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if !session.IsPaid() {
		return nil, false, ErrPaymentNotCompleted
	}

	// The session, not the request body, says what was bought
	details, err := session.BookingDetails()
	if err != nil {
		return nil, false, err
	}
	if !caller.IsAdmin() && details.UserID != caller.UserID {
		return nil, false, ErrNotBookingOwner
	}
	if details.Quantity < MinTicketsPerBooking || details.Quantity > MaxTicketsPerBooking {
		return nil, false, ErrInvalidTicketQuantity
	}

	event, err := s.events.GetByID(ctx, details.EventID)
	if err != nil {
		return nil, false, err
	}
	if event.AvailableTickets < details.Quantity {
		s.reportUnfulfilledPayment(ctx, session, details)
		return nil, false, ErrTicketsNoLongerAvail
	}

	booking := &Booking{
		UserID:          details.UserID,
		EventID:         details.EventID,
		TicketQuantity:  details.Quantity,
		TotalAmount:     session.SettledAmount,
		PaymentStatus:   PaymentStatusPaid,
		BookingStatus:   BookingStatusConfirmed,
		StripeSessionID: session.ID,
		PaymentIntentID: session.PaymentIntentID,
		Attendee: AttendeeInfo{
			Name:  details.Attendee.Name,
			Email: details.Attendee.Email,
			Phone: details.Attendee.Phone,
		},
	}

	persisted, created, err := s.createBooking(ctx, booking)
	if err != nil {
		if errors.Is(err, events.ErrInsufficientTickets) {
			s.reportUnfulfilledPayment(ctx, session, details)
			return nil, false, ErrTicketsNoLongerAvail
		}
		return nil, false, err
	}
	if !created {
		return s.toResponse(ctx, persisted), false, nil
	}

	s.log.LogPaymentConfirmed(ctx, session.ID, persisted.ID.String(), persisted.TotalAmount)
	s.log.LogBookingCreated(ctx, persisted.ID.String(), persisted.EventID.String(), persisted.UserID.String())
	s.invalidateEvent(ctx, persisted.EventID)
	s.notify(ctx, notifications.NotificationTypeBookingConfirmed, persisted, event)

	resp := persisted.ToResponse()
	resp.Event = summarizeEvent(event)
	return &resp, true, nil
}

// createBooking inserts the booking and reserves inventory atomically. A unique
// violation resolves to the winner's booking when the session already has one,
// otherwise the reference collided and a new one is drawn.
func (s *service) createBooking(ctx context.Context, booking *Booking) (*Booking, bool, error) {
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		ref, err := NewReference(s.now())
		if err != nil {
			return nil, false, err
		}
		booking.ID = uuid.New()
		booking.BookingReference = ref

		err = s.repo.CreateAndReserve(ctx, booking)
		if err == nil {
			return booking, true, nil
		}
		if !errors.Is(err, ErrDuplicateBooking) {
			return nil, false, err
		}

		winner, lookupErr := s.repo.GetBySessionID(ctx, booking.StripeSessionID)
		if lookupErr == nil {
			return winner, false, nil
		}
		if !errors.Is(lookupErr, ErrBookingNotFound) {
			return nil, false, lookupErr
		}
		s.log.WarnContext(ctx, "booking reference collision, retrying", "reference", ref, "attempt", attempt)
	}
	return nil, false, apperrors.New(apperrors.KindInternal, "Could not allocate a unique booking reference")
}

func (s *service) existingBooking(ctx context.Context, caller Caller, sessionID string) (*BookingResponse, error) {
	booking, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !caller.canAccess(booking) {
		return nil, ErrNotBookingOwner
	}
	return s.toResponse(ctx, booking), nil
}

// reportUnfulfilledPayment flags a settled charge that produced no booking.
// Refunding it is an operator decision.
func (s *service) reportUnfulfilledPayment(ctx context.Context, session *payments.Session, details payments.SessionMetadata) {
	s.log.LogInventoryInconsistency(ctx, "paid checkout session could not be fulfilled", map[string]interface{}{
		"session_id":        session.ID,
		"payment_intent_id": session.PaymentIntentID,
		"event_id":          details.EventID.String(),
		"user_id":           details.UserID.String(),
		"ticket_quantity":   details.Quantity,
		"settled_amount":    session.SettledAmount,
	})
}

func (s *service) CancelBooking(ctx context.Context, caller Caller, bookingID uuid.UUID, reason string) (*BookingResponse, error) {
	reason = strings.TrimSpace(reason)
	if err := s.validate.Struct(CancelBookingRequest{Reason: reason}); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, err, "Cancellation reason must be at most 300 characters")
	}
	if reason == "" {
		reason = defaultCancellationReason
	}

	unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !caller.canAccess(booking) {
		return nil, ErrNotBookingOwner
	}
	if booking.IsCancelled() {
		return nil, ErrAlreadyCancelled
	}
	if booking.BookingStatus != BookingStatusConfirmed {
		return nil, ErrNotCancellable
	}
	if !booking.IsPaid() {
		return nil, ErrCancelUnpaid
	}

	event, err := s.events.GetByID(ctx, booking.EventID)
	if err != nil {
		return nil, err
	}
	if event.Date.Sub(s.now()) < CancellationCutoff {
		return nil, ErrCancellationWindow
	}

	// A failed refund leaves the booking untouched
	if booking.PaymentIntentID != "" {
		refund, err := s.gateway.IssueRefund(ctx, booking.PaymentIntentID, payments.RefundReasonRequestedByCustomer)
		if err != nil {
			return nil, err
		}
		booking.RefundAmount = refund.Amount
		booking.PaymentStatus = PaymentStatusRefunded
	}

	cancelledAt := s.now()
	booking.BookingStatus = BookingStatusCancelled
	booking.RefundReason = reason
	booking.CancelledAt = &cancelledAt

	if err := s.repo.CancelAndRelease(ctx, booking); err != nil {
		if booking.PaymentStatus == PaymentStatusRefunded {
			s.log.LogInventoryInconsistency(ctx, "refund issued but cancellation was not persisted", map[string]interface{}{
				"booking_id":        booking.ID.String(),
				"event_id":          booking.EventID.String(),
				"payment_intent_id": booking.PaymentIntentID,
				"refund_amount":     booking.RefundAmount,
				"ticket_quantity":   booking.TicketQuantity,
				"error":             err.Error(),
			})
		}
		return nil, err
	}

	s.log.LogBookingCancelled(ctx, booking.ID.String(), booking.EventID.String(), caller.UserID.String(), booking.RefundAmount)
	s.invalidateEvent(ctx, booking.EventID)
	s.notify(ctx, notifications.NotificationTypeBookingCancelled, booking, event)

	resp := booking.ToResponse()
	resp.Event = summarizeEvent(event)
	return &resp, nil
}

func (s *service) CheckIn(ctx context.Context, caller Caller, bookingID uuid.UUID) (*BookingResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrAdminRequired
	}

	unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch {
	case !booking.IsPaid():
		return nil, ErrCheckInUnpaid
	case booking.IsCancelled():
		return nil, ErrCheckInCancelled
	case booking.CheckedIn:
		return nil, ErrAlreadyCheckedIn
	case booking.BookingStatus == BookingStatusNoShow:
		return nil, ErrCheckInNoShow
	}

	checkedInAt := s.now()
	if err := s.repo.MarkCheckedIn(ctx, booking.ID, checkedInAt); err != nil {
		return nil, err
	}
	booking.CheckedIn = true
	booking.CheckedInAt = &checkedInAt
	booking.BookingStatus = BookingStatusAttended

	s.log.LogBookingCheckedIn(ctx, booking.ID.String(), booking.EventID.String(), caller.UserID.String())

	event, err := s.events.GetByID(ctx, booking.EventID)
	if err != nil {
		s.log.WarnContext(ctx, "event lookup after check-in failed", "booking_id", booking.ID.String(), "error", err)
		event = nil
	}
	s.notify(ctx, notifications.NotificationTypeBookingCheckedIn, booking, event)

	resp := booking.ToResponse()
	resp.Event = summarizeEvent(event)
	return &resp, nil
}

// HandleWebhook verifies the provider's signature and records the event.
// Bookings are created by ConfirmPayment, so a completed session needs no action here.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*payments.WebhookEvent, error) {
	evt, err := s.gateway.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		s.log.WarnContext(ctx, "webhook signature verification failed", "error", err)
		return nil, err
	}

	switch evt.Type {
	case payments.EventCheckoutSessionCompleted:
		s.log.InfoContext(ctx, "payment succeeded", "webhook_id", evt.ID, "session_id", evt.SessionID)
	case payments.EventPaymentIntentPaymentFailed:
		s.log.WarnContext(ctx, "payment failed", "webhook_id", evt.ID, "payment_intent_id", evt.PaymentIntentID)
		s.notifyPaymentFailed(ctx, evt)
	default:
		s.log.DebugContext(ctx, "unhandled webhook event type", "type", evt.Type)
	}

	return evt, nil
}

func (s *service) GetBooking(ctx context.Context, caller Caller, bookingID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !caller.canAccess(booking) {
		return nil, ErrNotBookingOwner
	}
	return s.toResponse(ctx, booking), nil
}

func (s *service) MyBookings(ctx context.Context, caller Caller, query BookingListQuery) (*PaginatedBookings, error) {
	query.normalize()
	bookings, total, err := s.repo.ListByUser(ctx, caller.UserID, query)
	if err != nil {
		return nil, err
	}
	return s.paginate(ctx, bookings, total, query, false)
}

func (s *service) AllBookings(ctx context.Context, caller Caller, query BookingListQuery) (*PaginatedBookings, error) {
	if !caller.IsAdmin() {
		return nil, ErrAdminRequired
	}
	query.normalize()
	bookings, total, err := s.repo.ListAll(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.paginate(ctx, bookings, total, query, true)
}

// paginate attaches event summaries, and user summaries when withUsers is set
func (s *service) paginate(ctx context.Context, bookings []Booking, total int64, query BookingListQuery, withUsers bool) (*PaginatedBookings, error) {
	eventIDs := make([]uuid.UUID, 0, len(bookings))
	userIDs := make([]uuid.UUID, 0, len(bookings))
	seenEvents := make(map[uuid.UUID]bool, len(bookings))
	seenUsers := make(map[uuid.UUID]bool, len(bookings))
	for _, b := range bookings {
		if !seenEvents[b.EventID] {
			seenEvents[b.EventID] = true
			eventIDs = append(eventIDs, b.EventID)
		}
		if withUsers && !seenUsers[b.UserID] {
			seenUsers[b.UserID] = true
			userIDs = append(userIDs, b.UserID)
		}
	}

	eventsByID, err := s.repo.EventsByID(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	usersByID := map[uuid.UUID]*users.User{}
	if withUsers {
		if usersByID, err = s.repo.UsersByID(ctx, userIDs); err != nil {
			return nil, err
		}
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp := bookings[i].ToResponse()
		resp.Event = summarizeEvent(eventsByID[bookings[i].EventID])
		resp.User = summarizeUser(usersByID[bookings[i].UserID])
		responses = append(responses, resp)
	}

	return &PaginatedBookings{
		Bookings:   responses,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: CalculateTotalPages(total, query.Limit),
	}, nil
}

func (s *service) EventAttendees(ctx context.Context, caller Caller, eventID uuid.UUID) (*AttendeeListResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrAdminRequired
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, err
	}

	attendees := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		attendees = append(attendees, bookings[i].ToResponse())
	}
	return &AttendeeListResponse{
		EventID:   eventID.String(),
		Count:     len(attendees),
		Attendees: attendees,
	}, nil
}

func (s *service) toResponse(ctx context.Context, booking *Booking) *BookingResponse {
	resp := booking.ToResponse()
	event, err := s.events.GetByID(ctx, booking.EventID)
	if err == nil {
		resp.Event = summarizeEvent(event)
	}
	return &resp
}

// lockBooking serializes cancel and check-in per booking id
func (s *service) lockBooking(ctx context.Context, bookingID uuid.UUID) (func(), error) {
	key := constants.BuildBookingLockKey(bookingID.String())
	token, acquired, err := s.locker.Acquire(ctx, key, bookingLockTTL)
	if err != nil {
		s.log.WarnContext(ctx, "booking lock unavailable, continuing without it", "booking_id", bookingID.String(), "error", err)
		return func() {}, nil
	}
	if !acquired {
		return nil, ErrBookingBusy
	}
	return func() { s.releaseLock(ctx, key, token) }, nil
}

func (s *service) releaseLock(ctx context.Context, key, token string) {
	if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
		s.log.WarnContext(ctx, "lock release failed", "key", key, "error", err)
	}
}

func (s *service) invalidateEvent(ctx context.Context, eventID uuid.UUID) {
	if s.eventCache != nil {
		s.eventCache.Invalidate(ctx, eventID)
	}
}

func (s *service) notify(ctx context.Context, notType notifications.NotificationType, booking *Booking, event *events.Event) {
	data := map[string]interface{}{
		"booking_reference": booking.BookingReference,
		"ticket_quantity":   booking.TicketQuantity,
		"total_amount":      booking.TotalAmount,
		"refund_amount":     booking.RefundAmount,
		"attendee_name":     booking.Attendee.Name,
	}
	if event != nil {
		data["event_title"] = event.Title
		data["event_date"] = event.Date.Format("Monday, January 2, 2006")
		data["event_start_time"] = event.StartTime
		data["venue_name"] = event.Venue.Name
		data["venue_city"] = event.Venue.City
	}

	notification := notifications.NewNotificationBuilder().
		WithType(notType).
		WithRecipient(booking.UserID, booking.Attendee.Email, booking.Attendee.Name).
		WithBookingContext(booking.ID).
		WithEventContext(booking.EventID).
		WithTemplateData(data).
		Build()

	// the booking is already committed; a lost email must not fail the request
	if err := s.publisher.Publish(ctx, notification); err != nil {
		s.log.WarnContext(ctx, "booking notification not published",
			"type", string(notType),
			"booking_id", booking.ID.String(),
			"error", err,
		)
	}
}

func (s *service) notifyPaymentFailed(ctx context.Context, evt *payments.WebhookEvent) {
	details, err := (&payments.Session{Metadata: evt.Metadata}).BookingDetails()
	if err != nil {
		return
	}

	notification := notifications.NewNotificationBuilder().
		WithType(notifications.NotificationTypePaymentFailed).
		WithRecipient(details.UserID, details.Attendee.Email, details.Attendee.Name).
		WithEventContext(details.EventID).
		WithTemplateData(map[string]interface{}{
			"attendee_name":   details.Attendee.Name,
			"ticket_quantity": details.Quantity,
		}).
		Build()

	if err := s.publisher.Publish(ctx, notification); err != nil {
		s.log.WarnContext(ctx, "payment failure notification not published", "payment_intent_id", evt.PaymentIntentID, "error", err)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
