package events

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientTickets means the conditional decrement matched no row
	ErrInsufficientTickets = errors.New("insufficient tickets available")

	// ErrInventoryOverflow means a release would push available above total
	ErrInventoryOverflow = errors.New("release exceeds total tickets")

	ErrCapacityBelowSold = errors.New("total tickets cannot drop below tickets already sold")

	// ErrCapacityChanged means total_tickets no longer holds the value the caller read
	ErrCapacityChanged = errors.New("total tickets changed concurrently")
)

// CapacityChange moves total_tickets from ExpectedTotal to NewTotal
type CapacityChange struct {
	ExpectedTotal int
	NewTotal      int
}

func (c CapacityChange) delta() int {
	return c.NewTotal - c.ExpectedTotal
}

// Reserve decrements available_tickets in a single conditional UPDATE.
// db may be a transaction so the decrement commits with the booking insert.
func Reserve(db *gorm.DB, eventID uuid.UUID, quantity int) error {
	result := db.Model(&Event{}).
		Where("id = ? AND available_tickets >= ?", eventID, quantity).
		Update("available_tickets", gorm.Expr("available_tickets - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := FindByID(db, eventID); err != nil {
			return err
		}
		return ErrInsufficientTickets
	}
	return nil
}

// Release returns tickets to the event, never exceeding total_tickets
func Release(db *gorm.DB, eventID uuid.UUID, quantity int) error {
	result := db.Model(&Event{}).
		Where("id = ? AND available_tickets + ? <= total_tickets", eventID, quantity).
		Update("available_tickets", gorm.Expr("available_tickets + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := FindByID(db, eventID); err != nil {
			return err
		}
		return ErrInventoryOverflow
	}
	return nil
}

// AdjustCapacity shifts total and available by the same delta so sold tickets stay constant.
// The row must still carry ExpectedTotal.
func AdjustCapacity(db *gorm.DB, eventID uuid.UUID, change CapacityChange) error {
	delta := change.delta()
	if delta == 0 {
		return nil
	}

	result := db.Model(&Event{}).
		Where("id = ? AND total_tickets = ? AND available_tickets + ? >= 0", eventID, change.ExpectedTotal, delta).
		Updates(map[string]interface{}{
			"total_tickets":     gorm.Expr("total_tickets + ?", delta),
			"available_tickets": gorm.Expr("available_tickets + ?", delta),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		current, err := FindByID(db, eventID)
		if err != nil {
			return err
		}
		if current.TotalTickets != change.ExpectedTotal {
			return ErrCapacityChanged
		}
		return ErrCapacityBelowSold
	}
	return nil
}
