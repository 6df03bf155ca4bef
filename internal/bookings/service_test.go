package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"eventix/internal/events"
	"eventix/internal/notifications"
	"eventix/internal/payments"
	"eventix/internal/shared/apperrors"
	"eventix/internal/shared/config"
	"eventix/internal/users"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testWebhookSecret = "whsec_test_secret"

type fixture struct {
	store     *memoryStore
	gateway   *payments.SandboxGateway
	publisher *recordingPublisher
	cache     *recordingCache
	svc       Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemoryStore()
	gateway := payments.NewSandboxGateway(config.PaymentsConfig{
		ClientURL:     "http://localhost:3000",
		WebhookSecret: testWebhookSecret,
	})
	publisher := &recordingPublisher{}
	cache := &recordingCache{}

	return &fixture{
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		cache:     cache,
		svc:       NewService(store, memoryEvents{store: store}, gateway, nil, publisher, cache),
	}
}

func (f *fixture) addEvent(tickets int, startsIn time.Duration) *events.Event {
	event := &events.Event{
		ID:               uuid.New(),
		Title:            "Go Conference",
		Description:      strings.Repeat("A conference about Go. ", 10),
		Category:         events.CategoryConference,
		Date:             time.Now().Add(startsIn),
		StartTime:        "09:00",
		EndTime:          "17:00",
		Venue:            events.Venue{Name: "Hall A", City: "Berlin", Capacity: tickets},
		Price:            19.99,
		TotalTickets:     tickets,
		AvailableTickets: tickets,
		Status:           events.EventStatusPublished,
		OrganizerID:      uuid.New(),
	}
	f.store.addEvent(event)
	return event
}

func (f *fixture) checkout(t *testing.T, caller Caller, eventID uuid.UUID, quantity int) string {
	t.Helper()
	resp, err := f.svc.InitiateCheckout(context.Background(), caller, checkoutRequest(eventID, quantity))
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func (f *fixture) book(t *testing.T, caller Caller, eventID uuid.UUID, quantity int) *BookingResponse {
	t.Helper()
	booking, created, err := f.svc.ConfirmPayment(context.Background(), caller, f.checkout(t, caller, eventID, quantity))
	require.NoError(t, err)
	require.True(t, created)
	return booking
}

func (f *fixture) assertInventoryConsistent(t *testing.T, eventID uuid.UUID) {
	t.Helper()
	event := f.store.event(eventID)
	assert.Equal(t, event.TotalTickets, event.AvailableTickets+f.store.activeTickets(eventID),
		"available tickets plus held tickets must equal total tickets")
	assert.GreaterOrEqual(t, event.AvailableTickets, 0)
}

func checkoutRequest(eventID uuid.UUID, quantity int) CreateCheckoutRequest {
	return CreateCheckoutRequest{
		EventID:        eventID.String(),
		TicketQuantity: quantity,
		Attendee: AttendeeRequest{
			Name:  "Ada Lovelace",
			Email: "ada@example.com",
			Phone: "+4915112345678",
		},
	}
}

func newUser() Caller {
	return Caller{UserID: uuid.New(), Role: users.RoleUser}
}

func newAdmin() Caller {
	return Caller{UserID: uuid.New(), Role: users.RoleAdmin}
}

func bookingID(t *testing.T, b *BookingResponse) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(b.ID)
	require.NoError(t, err)
	return id
}

func TestInitiateCheckoutPreconditions(t *testing.T) {
	f := newFixture(t)
	user := newUser()

	upcoming := f.addEvent(4, 72*time.Hour)
	past := f.addEvent(10, -time.Hour)
	draft := f.addEvent(10, 72*time.Hour)
	draft.Status = events.EventStatusDraft
	f.store.addEvent(draft)

	badEmail := checkoutRequest(upcoming.ID, 1)
	badEmail.Attendee.Email = "not-an-email"
	badPhone := checkoutRequest(upcoming.ID, 1)
	badPhone.Attendee.Phone = "call me"
	noName := checkoutRequest(upcoming.ID, 1)
	noName.Attendee.Name = ""
	badID := checkoutRequest(upcoming.ID, 1)
	badID.EventID = "not-a-uuid"

	tests := []struct {
		name string
		req  CreateCheckoutRequest
		kind apperrors.Kind
	}{
		{"malformed event id", badID, apperrors.KindInvalidArgument},
		{"unknown event", checkoutRequest(uuid.New(), 1), apperrors.KindNotFound},
		{"draft event", checkoutRequest(draft.ID, 1), apperrors.KindInvalidState},
		{"past event", checkoutRequest(past.ID, 1), apperrors.KindInvalidState},
		{"zero tickets", checkoutRequest(upcoming.ID, 0), apperrors.KindInvalidArgument},
		{"too many tickets", checkoutRequest(upcoming.ID, MaxTicketsPerBooking+1), apperrors.KindInvalidArgument},
		{"invalid email", badEmail, apperrors.KindInvalidArgument},
		{"invalid phone", badPhone, apperrors.KindInvalidArgument},
		{"missing name", noName, apperrors.KindInvalidArgument},
		{"more than available", checkoutRequest(upcoming.ID, 5), apperrors.KindInsufficientInventory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.InitiateCheckout(context.Background(), user, tt.req)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}

	_, err := f.svc.InitiateCheckout(context.Background(), user, checkoutRequest(upcoming.ID, 5))
	assert.EqualError(t, err, "Only 4 tickets available")
}

func TestInitiateCheckoutHoldsNoInventory(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent(10, 72*time.Hour)

	resp, err := f.svc.InitiateCheckout(context.Background(), newUser(), checkoutRequest(event.ID, 3))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.SessionID, "cs_"))
	assert.Contains(t, resp.SessionURL, resp.SessionID)

	assert.Equal(t, 10, f.store.event(event.ID).AvailableTickets)
	assert.Zero(t, f.store.count())
}

func TestConfirmPaymentCreatesBooking(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(100, 72*time.Hour)

	sessionID := f.checkout(t, user, event.ID, 3)
	booking, created, err := f.svc.ConfirmPayment(context.Background(), user, sessionID)
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, user.UserID.String(), booking.UserID)
	assert.Equal(t, 3, booking.TicketQuantity)
	assert.InDelta(t, 59.97, booking.TotalAmount, 0.001)
	assert.InDelta(t, 19.99, booking.PricePerTicket, 0.001)
	assert.Equal(t, PaymentStatusPaid, booking.PaymentStatus)
	assert.Equal(t, BookingStatusConfirmed, booking.BookingStatus)
	assert.True(t, booking.IsActive)
	assert.True(t, IsValidReference(booking.BookingReference))
	assert.Equal(t, "ada@example.com", booking.Attendee.Email)
	require.NotNil(t, booking.Event)
	assert.Equal(t, "Go Conference", booking.Event.Title)

	assert.Equal(t, 97, f.store.event(event.ID).AvailableTickets)
	f.assertInventoryConsistent(t, event.ID)
	assert.Equal(t, []notifications.NotificationType{notifications.NotificationTypeBookingConfirmed}, f.publisher.types())
	assert.Contains(t, f.cache.invalidated, event.ID)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(10, 72*time.Hour)
	sessionID := f.checkout(t, user, event.ID, 2)

	first, created, err := f.svc.ConfirmPayment(context.Background(), user, sessionID)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.svc.ConfirmPayment(context.Background(), user, "  "+sessionID+"  ")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.BookingReference, second.BookingReference)

	assert.Equal(t, 1, f.store.count())
	assert.Equal(t, 8, f.store.event(event.ID).AvailableTickets)
	assert.Len(t, f.publisher.types(), 1)
}

func TestConcurrentConfirmationsOfOneSession(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(10, 72*time.Hour)
	sessionID := f.checkout(t, user, event.ID, 2)

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ids      = make(map[string]bool)
		creators int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			booking, created, err := f.svc.ConfirmPayment(context.Background(), user, sessionID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[booking.ID] = true
			if created {
				creators++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, creators)
	assert.Len(t, ids, 1)
	assert.Equal(t, 1, f.store.count())
	assert.Equal(t, 8, f.store.event(event.ID).AvailableTickets)
	f.assertInventoryConsistent(t, event.ID)
}

func TestConcurrentConfirmationsNeverOversell(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent(5, 72*time.Hour)

	const buyers = 12
	sessions := make([]string, buyers)
	callers := make([]Caller, buyers)
	for i := range sessions {
		callers[i] = newUser()
		sessions[i] = f.checkout(t, callers[i], event.ID, 1)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		soldOut   int
	)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := f.svc.ConfirmPayment(context.Background(), callers[i], sessions[i])
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.KindOf(err) == apperrors.KindInsufficientInventory:
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, buyers-5, soldOut)
	assert.Equal(t, 0, f.store.event(event.ID).AvailableTickets)
	f.assertInventoryConsistent(t, event.ID)
}

func TestLastTicketGoesToExactlyOneBuyer(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent(1, 72*time.Hour)

	alice, bob := newUser(), newUser()
	aliceSession := f.checkout(t, alice, event.ID, 1)
	bobSession := f.checkout(t, bob, event.ID, 1)

	errs := make(chan error, 2)
	go func() {
		_, _, err := f.svc.ConfirmPayment(context.Background(), alice, aliceSession)
		errs <- err
	}()
	go func() {
		_, _, err := f.svc.ConfirmPayment(context.Background(), bob, bobSession)
		errs <- err
	}()

	var failures []error
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			failures = append(failures, err)
		}
	}

	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], ErrTicketsNoLongerAvail)
	assert.Equal(t, 1, f.store.count())
	assert.Equal(t, 0, f.store.event(event.ID).AvailableTickets)
}

func TestConfirmPaymentRejectsUnpaidSession(t *testing.T) {
	f := newFixture(t)
	f.gateway.SetAutoPay(false)
	user := newUser()
	event := f.addEvent(10, 72*time.Hour)
	sessionID := f.checkout(t, user, event.ID, 2)

	_, _, err := f.svc.ConfirmPayment(context.Background(), user, sessionID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindPaymentNotCompleted, apperrors.KindOf(err))
	assert.Zero(t, f.store.count())
	assert.Equal(t, 10, f.store.event(event.ID).AvailableTickets)

	require.NoError(t, f.gateway.CompletePayment(sessionID))
	_, created, err := f.svc.ConfirmPayment(context.Background(), user, sessionID)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestConfirmPaymentErrors(t *testing.T) {
	f := newFixture(t)
	owner := newUser()
	event := f.addEvent(10, 72*time.Hour)
	sessionID := f.checkout(t, owner, event.ID, 1)

	t.Run("empty session id", func(t *testing.T) {
		_, _, err := f.svc.ConfirmPayment(context.Background(), owner, "   ")
		assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
	})

	t.Run("unknown session", func(t *testing.T) {
		_, _, err := f.svc.ConfirmPayment(context.Background(), owner, "cs_sandbox_missing")
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("another user's session", func(t *testing.T) {
		_, _, err := f.svc.ConfirmPayment(context.Background(), newUser(), sessionID)
		assert.ErrorIs(t, err, ErrNotBookingOwner)
		assert.Zero(t, f.store.count())
	})

	t.Run("provider outage", func(t *testing.T) {
		f.gateway.FailRetrievals(apperrors.Upstream(errors.New("timeout"), "Payment provider failed to retrieve checkout session"))
		defer f.gateway.FailRetrievals(nil)

		_, _, err := f.svc.ConfirmPayment(context.Background(), owner, sessionID)
		assert.Equal(t, apperrors.KindUpstreamFailure, apperrors.KindOf(err))
	})

	t.Run("admin may confirm on behalf of the buyer", func(t *testing.T) {
		booking, created, err := f.svc.ConfirmPayment(context.Background(), newAdmin(), sessionID)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, owner.UserID.String(), booking.UserID)
	})

	t.Run("existing booking is private", func(t *testing.T) {
		_, _, err := f.svc.ConfirmPayment(context.Background(), newUser(), sessionID)
		assert.ErrorIs(t, err, ErrNotBookingOwner)
	})
}

func TestConfirmPaymentWhileAnotherRequestHoldsTheLock(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(10, 72*time.Hour)
	sessionID := f.checkout(t, user, event.ID, 1)

	locked := NewService(f.store, memoryEvents{store: f.store}, f.gateway, busyLocker{}, nil, nil)
	_, _, err := locked.ConfirmPayment(context.Background(), user, sessionID)
	assert.ErrorIs(t, err, ErrConfirmationInProgress)
	assert.Zero(t, f.store.count())

	// once the booking exists the busy lock no longer matters
	original, _, err := f.svc.ConfirmPayment(context.Background(), user, sessionID)
	require.NoError(t, err)
	again, created, err := locked.ConfirmPayment(context.Background(), user, sessionID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, original.ID, again.ID)
}

func TestConfirmPaymentWhenEventSoldOutAfterPayment(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent(2, 72*time.Hour)

	late := newUser()
	lateSession := f.checkout(t, late, event.ID, 2)
	f.book(t, newUser(), event.ID, 1)

	_, _, err := f.svc.ConfirmPayment(context.Background(), late, lateSession)
	assert.ErrorIs(t, err, ErrTicketsNoLongerAvail)
	assert.Equal(t, 1, f.store.count())
	f.assertInventoryConsistent(t, event.ID)
}

func TestCancelBookingRefundsAndRestoresInventory(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(10, 72*time.Hour)
	booking := f.book(t, user, event.ID, 3)
	require.Equal(t, 7, f.store.event(event.ID).AvailableTickets)

	cancelled, err := f.svc.CancelBooking(context.Background(), user, bookingID(t, booking), "")
	require.NoError(t, err)

	assert.Equal(t, BookingStatusCancelled, cancelled.BookingStatus)
	assert.Equal(t, PaymentStatusRefunded, cancelled.PaymentStatus)
	assert.InDelta(t, booking.TotalAmount, cancelled.RefundAmount, 0.001)
	assert.Equal(t, defaultCancellationReason, cancelled.RefundReason)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.False(t, cancelled.IsActive)

	assert.Equal(t, 10, f.store.event(event.ID).AvailableTickets)
	f.assertInventoryConsistent(t, event.ID)
	assert.Equal(t, 1, f.gateway.RefundCalls())
	assert.Contains(t, f.publisher.types(), notifications.NotificationTypeBookingCancelled)

	_, err = f.svc.CancelBooking(context.Background(), user, bookingID(t, booking), "again")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, 10, f.store.event(event.ID).AvailableTickets)
	assert.Equal(t, 1, f.gateway.RefundCalls())
}

func TestCancelBookingInsideCutoffChangesNothing(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(10, 12*time.Hour)
	booking := f.book(t, user, event.ID, 2)

	_, err := f.svc.CancelBooking(context.Background(), user, bookingID(t, booking), "changed my mind")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
	assert.ErrorIs(t, err, ErrCancellationWindow)

	stored := f.store.booking(bookingID(t, booking))
	assert.Equal(t, BookingStatusConfirmed, stored.BookingStatus)
	assert.Equal(t, PaymentStatusPaid, stored.PaymentStatus)
	assert.Nil(t, stored.CancelledAt)
	assert.Equal(t, 8, f.store.event(event.ID).AvailableTickets)
	assert.Zero(t, f.gateway.RefundCalls())
}

func TestCancelBookingRefundFailureLeavesBookingActive(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(10, 72*time.Hour)
	booking := f.book(t, user, event.ID, 2)

	f.gateway.FailRefunds(errors.New("card network unavailable"))
	_, err := f.svc.CancelBooking(context.Background(), user, bookingID(t, booking), "")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstreamFailure, apperrors.KindOf(err))

	stored := f.store.booking(bookingID(t, booking))
	assert.Equal(t, BookingStatusConfirmed, stored.BookingStatus)
	assert.Equal(t, PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, 8, f.store.event(event.ID).AvailableTickets)
}

func TestCancelBookingPersistFailureAfterRefund(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(10, 72*time.Hour)
	booking := f.book(t, user, event.ID, 2)

	f.store.cancelErr = errors.New("connection reset")
	_, err := f.svc.CancelBooking(context.Background(), user, bookingID(t, booking), "")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

	stored := f.store.booking(bookingID(t, booking))
	assert.Equal(t, BookingStatusConfirmed, stored.BookingStatus)
	assert.Equal(t, 8, f.store.event(event.ID).AvailableTickets)
}

func TestCancelBookingAccess(t *testing.T) {
	f := newFixture(t)
	owner := newUser()
	event := f.addEvent(10, 72*time.Hour)

	booking := f.book(t, owner, event.ID, 1)
	_, err := f.svc.CancelBooking(context.Background(), newUser(), bookingID(t, booking), "")
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = f.svc.CancelBooking(context.Background(), owner, uuid.New(), "")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = f.svc.CancelBooking(context.Background(), owner, bookingID(t, booking), strings.Repeat("x", 301))
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))

	cancelled, err := f.svc.CancelBooking(context.Background(), newAdmin(), bookingID(t, booking), "Event overbooked")
	require.NoError(t, err)
	assert.Equal(t, "Event overbooked", cancelled.RefundReason)
}

func TestCancelBookingRejectsAttendedBooking(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(10, 72*time.Hour)
	booking := f.book(t, user, event.ID, 1)

	_, err := f.svc.CheckIn(context.Background(), newAdmin(), bookingID(t, booking))
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(context.Background(), user, bookingID(t, booking), "")
	assert.ErrorIs(t, err, ErrNotCancellable)
	assert.Equal(t, 9, f.store.event(event.ID).AvailableTickets)
}

func TestCancelBookingWhileLocked(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(10, 72*time.Hour)
	booking := f.book(t, user, event.ID, 1)

	locked := NewService(f.store, memoryEvents{store: f.store}, f.gateway, busyLocker{}, nil, nil)
	_, err := locked.CancelBooking(context.Background(), user, bookingID(t, booking), "")
	assert.ErrorIs(t, err, ErrBookingBusy)
	_, err = locked.CheckIn(context.Background(), newAdmin(), bookingID(t, booking))
	assert.ErrorIs(t, err, ErrBookingBusy)
}

func TestCheckIn(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	admin := newAdmin()
	event := f.addEvent(10, 72*time.Hour)
	booking := f.book(t, user, event.ID, 2)
	id := bookingID(t, booking)

	_, err := f.svc.CheckIn(context.Background(), user, id)
	assert.ErrorIs(t, err, ErrAdminRequired)

	checkedIn, err := f.svc.CheckIn(context.Background(), admin, id)
	require.NoError(t, err)
	assert.True(t, checkedIn.CheckedIn)
	assert.Equal(t, BookingStatusAttended, checkedIn.BookingStatus)
	require.NotNil(t, checkedIn.CheckedInAt)
	firstCheckIn := *checkedIn.CheckedInAt

	_, err = f.svc.CheckIn(context.Background(), admin, id)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	stored := f.store.booking(id)
	require.NotNil(t, stored.CheckedInAt)
	assert.True(t, firstCheckIn.Equal(*stored.CheckedInAt))
	assert.Equal(t, 8, f.store.event(event.ID).AvailableTickets)
	assert.Contains(t, f.publisher.types(), notifications.NotificationTypeBookingCheckedIn)
}

func TestCheckInRejectsInactiveBookings(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	admin := newAdmin()
	event := f.addEvent(10, 72*time.Hour)

	cancelled := f.book(t, user, event.ID, 1)
	_, err := f.svc.CancelBooking(context.Background(), user, bookingID(t, cancelled), "")
	require.NoError(t, err)

	// refunded bookings fail the payment check first
	_, err = f.svc.CheckIn(context.Background(), admin, bookingID(t, cancelled))
	assert.ErrorIs(t, err, ErrCheckInUnpaid)

	noShow := f.book(t, user, event.ID, 1)
	_, err = f.store.MarkNoShows(context.Background(), []uuid.UUID{event.ID})
	require.NoError(t, err)
	_, err = f.svc.CheckIn(context.Background(), admin, bookingID(t, noShow))
	assert.ErrorIs(t, err, ErrCheckInNoShow)

	_, err = f.svc.CheckIn(context.Background(), admin, uuid.New())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestGetBooking(t *testing.T) {
	f := newFixture(t)
	owner := newUser()
	event := f.addEvent(10, 72*time.Hour)
	booking := f.book(t, owner, event.ID, 1)

	got, err := f.svc.GetBooking(context.Background(), owner, bookingID(t, booking))
	require.NoError(t, err)
	assert.Equal(t, booking.BookingReference, got.BookingReference)
	require.NotNil(t, got.Event)
	assert.Equal(t, event.ID.String(), got.Event.ID)

	_, err = f.svc.GetBooking(context.Background(), newUser(), bookingID(t, booking))
	assert.ErrorIs(t, err, ErrNotBookingOwner)

	_, err = f.svc.GetBooking(context.Background(), newAdmin(), bookingID(t, booking))
	assert.NoError(t, err)
}

func TestMyBookingsPaginates(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	first := f.addEvent(10, 72*time.Hour)
	second := f.addEvent(10, 96*time.Hour)

	f.book(t, user, first.ID, 1)
	f.book(t, user, second.ID, 1)
	f.book(t, user, first.ID, 2)
	f.book(t, newUser(), first.ID, 1)

	page, err := f.svc.MyBookings(context.Background(), user, BookingListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Bookings, 2)
	for _, b := range page.Bookings {
		assert.Equal(t, user.UserID.String(), b.UserID)
		assert.NotNil(t, b.Event)
	}

	last, err := f.svc.MyBookings(context.Background(), user, BookingListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, last.Bookings, 1)

	defaults, err := f.svc.MyBookings(context.Background(), user, BookingListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, 10, defaults.Limit)
}

func TestEventAttendees(t *testing.T) {
	f := newFixture(t)
	admin := newAdmin()
	event := f.addEvent(10, 72*time.Hour)

	kept := f.book(t, newUser(), event.ID, 2)
	attended := f.book(t, newUser(), event.ID, 1)
	gone := newUser()
	cancelled := f.book(t, gone, event.ID, 1)

	_, err := f.svc.CheckIn(context.Background(), admin, bookingID(t, attended))
	require.NoError(t, err)
	_, err = f.svc.CancelBooking(context.Background(), gone, bookingID(t, cancelled), "")
	require.NoError(t, err)

	list, err := f.svc.EventAttendees(context.Background(), admin, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)

	ids := []string{list.Attendees[0].ID, list.Attendees[1].ID}
	assert.ElementsMatch(t, []string{kept.ID, attended.ID}, ids)

	_, err = f.svc.EventAttendees(context.Background(), newUser(), event.ID)
	assert.ErrorIs(t, err, ErrAdminRequired)

	_, err = f.svc.EventAttendees(context.Background(), admin, uuid.New())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestHandleWebhook(t *testing.T) {
	f := newFixture(t)

	t.Run("bad signature", func(t *testing.T) {
		_, err := f.svc.HandleWebhook(context.Background(), []byte(`{"id":"evt_1"}`), "t=1,v1=deadbeef")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindSignatureInvalid, apperrors.KindOf(err))
	})

	t.Run("payment failure notifies the attendee", func(t *testing.T) {
		payload := []byte(fmt.Sprintf(`{
			"id": "evt_failed",
			"object": "event",
			"type": "payment_intent.payment_failed",
			"data": {"object": {"id": "pi_1", "object": "payment_intent", "metadata": {
				"eventId": %q, "userId": %q, "ticketQuantity": "2",
				"attendeeName": "Ada Lovelace", "attendeeEmail": "ada@example.com"
			}}}
		}`, uuid.NewString(), uuid.NewString()))
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testWebhookSecret})

		evt, err := f.svc.HandleWebhook(context.Background(), signed.Payload, signed.Header)
		require.NoError(t, err)
		assert.Equal(t, payments.EventPaymentIntentPaymentFailed, evt.Type)
		assert.Equal(t, []notifications.NotificationType{notifications.NotificationTypePaymentFailed}, f.publisher.types())
	})

	t.Run("completed session creates nothing", func(t *testing.T) {
		payload := []byte(`{
			"id": "evt_done",
			"object": "event",
			"type": "checkout.session.completed",
			"data": {"object": {"id": "cs_test_1", "object": "checkout.session"}}
		}`)
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testWebhookSecret})

		evt, err := f.svc.HandleWebhook(context.Background(), signed.Payload, signed.Header)
		require.NoError(t, err)
		assert.Equal(t, "cs_test_1", evt.SessionID)
		assert.Zero(t, f.store.count())
	})
}

func TestNewReferenceIsUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		ref, err := NewReference(now)
		require.NoError(t, err)
		require.True(t, IsValidReference(ref), ref)
		require.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestIsValidReference(t *testing.T) {
	assert.True(t, IsValidReference("BKLZ3K9Q2ABCDE"))
	assert.False(t, IsValidReference("bklz3k9q2abcde"))
	assert.False(t, IsValidReference("BK"))
	assert.False(t, IsValidReference("XX123"))
}

func TestCancelBookingCutoffBoundary(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	svc := f.svc.(*service)

	onTime := f.addEvent(10, 72*time.Hour)
	onTimeBooking := f.book(t, user, onTime.ID, 2)
	late := f.addEvent(10, 72*time.Hour)
	lateBooking := f.book(t, user, late.ID, 2)

	// exactly the cutoff before the event is still allowed
	svc.now = func() time.Time { return onTime.Date.Add(-CancellationCutoff) }
	cancelled, err := f.svc.CancelBooking(context.Background(), user, bookingID(t, onTimeBooking), "")
	require.NoError(t, err)
	assert.Equal(t, BookingStatusCancelled, cancelled.BookingStatus)
	assert.Equal(t, 10, f.store.event(onTime.ID).AvailableTickets)
	assert.Equal(t, 1, f.gateway.RefundCalls())

	// one nanosecond later the window has closed
	svc.now = func() time.Time { return late.Date.Add(-CancellationCutoff + time.Nanosecond) }
	_, err = f.svc.CancelBooking(context.Background(), user, bookingID(t, lateBooking), "")
	assert.ErrorIs(t, err, ErrCancellationWindow)

	stored := f.store.booking(bookingID(t, lateBooking))
	assert.Equal(t, BookingStatusConfirmed, stored.BookingStatus)
	assert.Equal(t, PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, 8, f.store.event(late.ID).AvailableTickets)
	assert.Equal(t, 1, f.gateway.RefundCalls())
}

func TestConfirmPaymentRetriesReferenceCollision(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(5, 72*time.Hour)

	store := &collidingStore{memoryStore: f.store, collisions: 1}
	f.svc = NewService(store, memoryEvents{store: f.store}, f.gateway, nil, f.publisher, f.cache)

	booking, created, err := f.svc.ConfirmPayment(context.Background(), user, f.checkout(t, user, event.ID, 2))
	require.NoError(t, err)
	assert.True(t, created)

	require.Len(t, store.attempts, 2)
	assert.Equal(t, store.attempts[1], booking.BookingReference)
	assert.Equal(t, 1, f.store.count())
	assert.Equal(t, 3, f.store.event(event.ID).AvailableTickets)
	f.assertInventoryConsistent(t, event.ID)
}

func TestConfirmPaymentGivesUpAfterReferenceAttempts(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	event := f.addEvent(5, 72*time.Hour)

	store := &collidingStore{memoryStore: f.store, collisions: maxReferenceAttempts}
	f.svc = NewService(store, memoryEvents{store: f.store}, f.gateway, nil, f.publisher, f.cache)

	_, created, err := f.svc.ConfirmPayment(context.Background(), user, f.checkout(t, user, event.ID, 2))
	require.Error(t, err)
	assert.False(t, created)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

	assert.Len(t, store.attempts, maxReferenceAttempts)
	assert.Zero(t, f.store.count())
	assert.Equal(t, 5, f.store.event(event.ID).AvailableTickets)
	assert.Empty(t, f.publisher.types())
}

func TestAllBookingsAttachesEventAndUser(t *testing.T) {
	f := newFixture(t)
	ada := newUser()
	grace := newUser()
	f.store.addUser(&users.User{ID: ada.UserID, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	f.store.addUser(&users.User{ID: grace.UserID, FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"})

	event := f.addEvent(10, 72*time.Hour)
	first := f.book(t, ada, event.ID, 1)
	time.Sleep(time.Millisecond)
	second := f.book(t, grace, event.ID, 2)

	_, err := f.svc.AllBookings(context.Background(), ada, BookingListQuery{})
	assert.ErrorIs(t, err, ErrAdminRequired)

	page, err := f.svc.AllBookings(context.Background(), newAdmin(), BookingListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalCount)
	require.Len(t, page.Bookings, 2)

	newest := page.Bookings[0]
	assert.Equal(t, second.ID, newest.ID)
	require.NotNil(t, newest.User)
	assert.Equal(t, "Grace Hopper", newest.User.Name)
	assert.Equal(t, "grace@example.com", newest.User.Email)
	require.NotNil(t, newest.Event)
	assert.Equal(t, event.Title, newest.Event.Title)

	assert.Equal(t, first.ID, page.Bookings[1].ID)
	require.NotNil(t, page.Bookings[1].User)
	assert.Equal(t, ada.UserID.String(), page.Bookings[1].User.ID)

	// user summaries stay out of the caller's own listing
	mine, err := f.svc.MyBookings(context.Background(), ada, BookingListQuery{})
	require.NoError(t, err)
	require.Len(t, mine.Bookings, 1)
	assert.Nil(t, mine.Bookings[0].User)
}
