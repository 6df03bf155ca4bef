package bookings

import (
	"context"
	"errors"
	"math"
	"time"

	"eventix/internal/events"
	"eventix/internal/shared/apperrors"
	"eventix/internal/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound = apperrors.NotFound("Booking not found")

	// ErrDuplicateBooking is a unique index rejection on insert. The caller decides
	// whether the session id or the reference collided.
	ErrDuplicateBooking = errors.New("booking violates a unique constraint")

	// ErrBookingStateChanged means a conditional update matched no row because
	// another request moved the booking first
	ErrBookingStateChanged = apperrors.Conflict("Booking was modified by another request")
)

type Repository interface {
	// CreateAndReserve inserts the booking and decrements the event's available
	// tickets in one transaction. Either both commit or neither does.
	CreateAndReserve(ctx context.Context, booking *Booking) error

	// CancelAndRelease persists the cancellation fields of a confirmed, paid booking
	// and returns its tickets to the event in one transaction.
	CancelAndRelease(ctx context.Context, booking *Booking) error

	MarkCheckedIn(ctx context.Context, id uuid.UUID, at time.Time) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)
	ListAll(ctx context.Context, query BookingListQuery) ([]Booking, int64, error)
	ListAttendees(ctx context.Context, eventID uuid.UUID) ([]Booking, error)
	EventsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*events.Event, error)
	UsersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*users.User, error)
	HasPaidBookings(ctx context.Context, eventID uuid.UUID) (bool, error)
	MarkNoShows(ctx context.Context, eventIDs []uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateAndReserve(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateBooking
			}
			return err
		}
		return events.Reserve(tx, booking.EventID, booking.TicketQuantity)
	})
}

func (r *repository) CancelAndRelease(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Booking{}).
			Where("id = ? AND booking_status = ? AND payment_status = ?",
				booking.ID, BookingStatusConfirmed, PaymentStatusPaid).
			Updates(map[string]interface{}{
				"booking_status": booking.BookingStatus,
				"payment_status": booking.PaymentStatus,
				"refund_amount":  booking.RefundAmount,
				"refund_reason":  booking.RefundReason,
				"cancelled_at":   booking.CancelledAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBookingStateChanged
		}
		return events.Release(tx, booking.EventID, booking.TicketQuantity)
	})
}

func (r *repository) MarkCheckedIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND checked_in = ? AND booking_status = ? AND payment_status = ?",
			id, false, BookingStatusConfirmed, PaymentStatusPaid).
		Updates(map[string]interface{}{
			"checked_in":     true,
			"checked_in_at":  at,
			"booking_status": BookingStatusAttended,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookingStateChanged
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) GetBySessionID(ctx context.Context, sessionID string) (*Booking, error) {
	return r.first(ctx, "stripe_session_id = ?", sessionID)
}

func (r *repository) first(ctx context.Context, query string, arg interface{}) (*Booking, error) {
	var booking Booking
	if err := r.db.WithContext(ctx).Where(query, arg).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	return r.page(r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID), query)
}

func (r *repository) ListAll(ctx context.Context, query BookingListQuery) ([]Booking, int64, error) {
	return r.page(r.db.WithContext(ctx).Model(&Booking{}), query)
}

// page counts db's matches and returns one page, newest first
func (r *repository) page(db *gorm.DB, query BookingListQuery) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	query.normalize()

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := db.Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

func (r *repository) ListAttendees(ctx context.Context, eventID uuid.UUID) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND payment_status = ? AND booking_status IN ?",
			eventID, PaymentStatusPaid, []BookingStatus{BookingStatusConfirmed, BookingStatusAttended}).
		Order("created_at ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) EventsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*events.Event, error) {
	out := make(map[uuid.UUID]*events.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var found []events.Event
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	for i := range found {
		out[found[i].ID] = &found[i]
	}
	return out, nil
}

func (r *repository) UsersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*users.User, error) {
	out := make(map[uuid.UUID]*users.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var found []users.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	for i := range found {
		out[found[i].ID] = &found[i]
	}
	return out, nil
}

func (r *repository) HasPaidBookings(ctx context.Context, eventID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Where("event_id = ? AND payment_status = ?", eventID, PaymentStatusPaid).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// MarkNoShows flips confirmed, paid bookings that never checked in
func (r *repository) MarkNoShows(ctx context.Context, eventIDs []uuid.UUID) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("event_id IN ? AND booking_status = ? AND payment_status = ? AND checked_in = ?",
			eventIDs, BookingStatusConfirmed, PaymentStatusPaid, false).
		Update("booking_status", BookingStatusNoShow)
	return result.RowsAffected, result.Error
}

// CalculateTotalPages rounds up so a partial last page still counts
func CalculateTotalPages(totalCount int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(limit)))
}
