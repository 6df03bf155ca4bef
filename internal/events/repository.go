package events

import (
	"context"
	"errors"
	"time"

	"eventix/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound        = apperrors.NotFound("Event not found")
	ErrEventCapacityChanged = apperrors.Conflict("Event tickets were changed by another request, reload and retry")
)

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}, capacity *CapacityChange) (*Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query EventListQuery, now time.Time) ([]Event, int64, error)
	Reserve(ctx context.Context, eventID uuid.UUID, quantity int) error
	Release(ctx context.Context, eventID uuid.UUID, quantity int) error
	MarkPastEventsCompleted(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return FindByID(r.db.WithContext(ctx), id)
}

// FindByID loads an event with db, which may be a transaction
func FindByID(db *gorm.DB, id uuid.UUID) (*Event, error) {
	var event Event
	if err := db.Where("id = ?", id).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// Update applies the column updates and an optional capacity change in one transaction
func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}, capacity *CapacityChange) (*Event, error) {
	var event *Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if capacity != nil {
			if err := AdjustCapacity(tx, id, *capacity); err != nil {
				return err
			}
		}

		if len(updates) > 0 {
			result := tx.Model(&Event{}).Where("id = ?", id).Updates(updates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrEventNotFound
			}
		}

		var err error
		event, err = FindByID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Event{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, query EventListQuery, now time.Time) ([]Event, int64, error) {
	var events []Event
	var totalCount int64

	query.normalize()
	db := r.db.WithContext(ctx).Model(&Event{})

	if query.Category != "" {
		db = db.Where("category = ?", query.Category)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.UpcomingOnly {
		db = db.Where("date >= ?", now)
	}

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := db.Order("date ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&events).Error

	return events, totalCount, err
}

func (r *repository) Reserve(ctx context.Context, eventID uuid.UUID, quantity int) error {
	return Reserve(r.db.WithContext(ctx), eventID, quantity)
}

func (r *repository) Release(ctx context.Context, eventID uuid.UUID, quantity int) error {
	return Release(r.db.WithContext(ctx), eventID, quantity)
}

func (r *repository) MarkPastEventsCompleted(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Event{}).
			Where("status = ? AND date < ?", EventStatusPublished, now).
			Order("date ASC").
			Limit(limit).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&Event{}).
			Where("id IN ? AND status = ?", ids, EventStatusPublished).
			Update("status", EventStatusCompleted).Error
	})
	return ids, err
}
