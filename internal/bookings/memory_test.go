package bookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"eventix/internal/events"
	"eventix/internal/notifications"
	"eventix/internal/users"

	"github.com/google/uuid"
)

// memoryStore keeps bookings and events behind one mutex so CreateAndReserve and
// CancelAndRelease stay as atomic as their database transactions
type memoryStore struct {
	mu         sync.Mutex
	bookings   map[uuid.UUID]*Booking
	bySession  map[string]uuid.UUID
	references map[string]bool
	events     map[uuid.UUID]*events.Event
	users      map[uuid.UUID]*users.User

	cancelErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		bookings:   make(map[uuid.UUID]*Booking),
		bySession:  make(map[string]uuid.UUID),
		references: make(map[string]bool),
		events:     make(map[uuid.UUID]*events.Event),
		users:      make(map[uuid.UUID]*users.User),
	}
}

func (m *memoryStore) addUser(u *users.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *u
	m.users[u.ID] = &copied
}

func (m *memoryStore) addEvent(e *events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *e
	m.events[e.ID] = &copied
}

func (m *memoryStore) event(id uuid.UUID) events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.events[id]
}

func (m *memoryStore) booking(id uuid.UUID) Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.bookings[id]
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

// activeTickets sums tickets held by bookings that still count against inventory
func (m *memoryStore) activeTickets(eventID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.bookings {
		if b.EventID == eventID && b.BookingStatus != BookingStatusCancelled {
			total += b.TicketQuantity
		}
	}
	return total
}

func (m *memoryStore) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *memoryStore) GetBySessionID(ctx context.Context, sessionID string) (*Booking, error) {
	m.mu.Lock()
	id, ok := m.bySession[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrBookingNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *memoryStore) CreateAndReserve(_ context.Context, booking *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.bySession[booking.StripeSessionID]; taken || m.references[booking.BookingReference] {
		return ErrDuplicateBooking
	}
	event, ok := m.events[booking.EventID]
	if !ok {
		return events.ErrEventNotFound
	}
	if event.AvailableTickets < booking.TicketQuantity {
		return events.ErrInsufficientTickets
	}

	event.AvailableTickets -= booking.TicketQuantity
	now := time.Now()
	booking.CreatedAt, booking.UpdatedAt = now, now
	copied := *booking
	m.bookings[booking.ID] = &copied
	m.bySession[booking.StripeSessionID] = booking.ID
	m.references[booking.BookingReference] = true
	return nil
}

func (m *memoryStore) CancelAndRelease(_ context.Context, booking *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancelErr != nil {
		return m.cancelErr
	}
	stored, ok := m.bookings[booking.ID]
	if !ok || stored.BookingStatus != BookingStatusConfirmed || stored.PaymentStatus != PaymentStatusPaid {
		return ErrBookingStateChanged
	}
	event := m.events[booking.EventID]
	if event.AvailableTickets+booking.TicketQuantity > event.TotalTickets {
		return events.ErrInventoryOverflow
	}

	event.AvailableTickets += booking.TicketQuantity
	stored.BookingStatus = booking.BookingStatus
	stored.PaymentStatus = booking.PaymentStatus
	stored.RefundAmount = booking.RefundAmount
	stored.RefundReason = booking.RefundReason
	stored.CancelledAt = booking.CancelledAt
	return nil
}

func (m *memoryStore) MarkCheckedIn(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok || b.CheckedIn || b.BookingStatus != BookingStatusConfirmed || b.PaymentStatus != PaymentStatusPaid {
		return ErrBookingStateChanged
	}
	b.CheckedIn = true
	b.CheckedInAt = &at
	b.BookingStatus = BookingStatusAttended
	return nil
}

func (m *memoryStore) ListByUser(_ context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	return m.page(func(b *Booking) bool { return b.UserID == userID }, query)
}

func (m *memoryStore) ListAll(_ context.Context, query BookingListQuery) ([]Booking, int64, error) {
	return m.page(func(*Booking) bool { return true }, query)
}

func (m *memoryStore) page(match func(*Booking) bool, query BookingListQuery) ([]Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query.normalize()
	var found []Booking
	for _, b := range m.bookings {
		if match(b) {
			found = append(found, *b)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.After(found[j].CreatedAt) })

	total := int64(len(found))
	start := (query.Page - 1) * query.Limit
	if start >= len(found) {
		return []Booking{}, total, nil
	}
	end := start + query.Limit
	if end > len(found) {
		end = len(found)
	}
	return found[start:end], total, nil
}

func (m *memoryStore) ListAttendees(_ context.Context, eventID uuid.UUID) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Booking
	for _, b := range m.bookings {
		if b.EventID == eventID && b.PaymentStatus == PaymentStatusPaid &&
			(b.BookingStatus == BookingStatusConfirmed || b.BookingStatus == BookingStatusAttended) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) EventsByID(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[uuid.UUID]*events.Event, len(ids))
	for _, id := range ids {
		if e, ok := m.events[id]; ok {
			copied := *e
			out[id] = &copied
		}
	}
	return out, nil
}

func (m *memoryStore) UsersByID(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[uuid.UUID]*users.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			copied := *u
			out[id] = &copied
		}
	}
	return out, nil
}

func (m *memoryStore) HasPaidBookings(_ context.Context, eventID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.EventID == eventID && b.PaymentStatus == PaymentStatusPaid {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) MarkNoShows(_ context.Context, eventIDs []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make(map[uuid.UUID]bool, len(eventIDs))
	for _, id := range eventIDs {
		ids[id] = true
	}
	var n int64
	for _, b := range m.bookings {
		if ids[b.EventID] && b.BookingStatus == BookingStatusConfirmed && b.PaymentStatus == PaymentStatusPaid && !b.CheckedIn {
			b.BookingStatus = BookingStatusNoShow
			n++
		}
	}
	return n, nil
}

// collidingStore fails the next collisions inserts with ErrDuplicateBooking,
// the way a taken booking reference does
type collidingStore struct {
	*memoryStore

	collideMu  sync.Mutex
	collisions int
	attempts   []string
}

func (c *collidingStore) CreateAndReserve(ctx context.Context, booking *Booking) error {
	c.collideMu.Lock()
	c.attempts = append(c.attempts, booking.BookingReference)
	collide := c.collisions > 0
	if collide {
		c.collisions--
	}
	c.collideMu.Unlock()

	if collide {
		return ErrDuplicateBooking
	}
	return c.memoryStore.CreateAndReserve(ctx, booking)
}

// memoryEvents exposes the store's events through the EventStore interface
type memoryEvents struct {
	store *memoryStore
}

func (e memoryEvents) GetByID(_ context.Context, id uuid.UUID) (*events.Event, error) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	ev, ok := e.store.events[id]
	if !ok {
		return nil, events.ErrEventNotFound
	}
	copied := *ev
	return &copied, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []*notifications.EmailNotification
}

func (p *recordingPublisher) Publish(_ context.Context, n *notifications.EmailNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return nil
}

func (p *recordingPublisher) types() []notifications.NotificationType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notifications.NotificationType, 0, len(p.sent))
	for _, n := range p.sent {
		out = append(out, n.Type)
	}
	return out
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []uuid.UUID
}

func (c *recordingCache) Invalidate(_ context.Context, eventID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, eventID)
}

// busyLocker never grants a lock
type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (string, bool, error) {
	return "", false, nil
}

func (busyLocker) Release(context.Context, string, string) error {
	return nil
}
