package events

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var timeOfDayPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// NewValidator returns a validator with the event-specific tags registered
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timeOfDayPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("event_category", func(fl validator.FieldLevel) bool {
		return IsValidCategory(fl.Field().String())
	})
	return v
}

// minutesOfDay converts "H:MM" or "HH:MM" to minutes after midnight
func minutesOfDay(hhmm string) (int, bool) {
	if !timeOfDayPattern.MatchString(hhmm) {
		return 0, false
	}
	parts := strings.SplitN(hhmm, ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m, true
}

func startBeforeEnd(start, end string) bool {
	s, ok := minutesOfDay(start)
	if !ok {
		return false
	}
	e, ok := minutesOfDay(end)
	if !ok {
		return false
	}
	return s < e
}
