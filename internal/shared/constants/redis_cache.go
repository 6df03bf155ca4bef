package constants

import (
	"fmt"
	"time"
)

// Redis key registry for the Eventix application
// Pattern: eventix:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_SEMI_STATIC_MEDIUM = 2 * time.Hour    // 2 hours - for event details
	TTL_SEMI_STATIC_QUICK  = 15 * time.Minute // 15 minutes - for upcoming events
	TTL_DYNAMIC_QUICK      = 2 * time.Minute  // 2 minutes - for availability-sensitive reads
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "eventix"
)

// ================== EVENTS MODULE ==================

const (
	CACHE_KEY_EVENTS_LIST  = CACHE_PREFIX + ":events:list"         // + :page:X:limit:Y:category:Z
	CACHE_KEY_EVENT_DETAIL = CACHE_PREFIX + ":events:detail:uuid:" // + event-id
)

const (
	TTL_EVENT_LIST   = TTL_SEMI_STATIC_QUICK // 15 minutes
	TTL_EVENT_DETAIL = TTL_DYNAMIC_QUICK     // 2 minutes, availableTickets changes on every booking
)

// ================== BOOKINGS MODULE ==================

// Locks guarding confirmation, cancellation and check-in
const (
	LOCK_KEY_CONFIRM_SESSION = CACHE_PREFIX + ":bookings:lock:session:" // + checkout-session-id
	LOCK_KEY_BOOKING         = CACHE_PREFIX + ":bookings:lock:uuid:"    // + booking-id
)

// ================== CACHE INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_EVENT_LISTS = CACHE_KEY_EVENTS_LIST + ":*"
)

// ================== HELPER FUNCTIONS ==================

// BuildEventListKey -> "eventix:events:list:page:1:limit:10:category:Concert"
func BuildEventListKey(page, limit int, category string) string {
	key := fmt.Sprintf("%s:page:%d:limit:%d", CACHE_KEY_EVENTS_LIST, page, limit)
	if category != "" {
		key += ":category:" + category
	}
	return key
}

func BuildEventDetailKey(eventID string) string {
	return CACHE_KEY_EVENT_DETAIL + eventID
}

func BuildConfirmSessionLockKey(sessionID string) string {
	return LOCK_KEY_CONFIRM_SESSION + sessionID
}

func BuildBookingLockKey(bookingID string) string {
	return LOCK_KEY_BOOKING + bookingID
}
