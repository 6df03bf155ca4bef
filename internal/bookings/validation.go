package bookings

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	attendeeEmailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	attendeePhonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("attendee_email", func(fl validator.FieldLevel) bool {
		return attendeeEmailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("attendee_phone", func(fl validator.FieldLevel) bool {
		return attendeePhonePattern.MatchString(fl.Field().String())
	})
	return v
}
