package bookings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventix/internal/shared/middleware"
	"eventix/internal/shared/utils/response"
)

const stripeSignatureHeader = "Stripe-Signature"

type Controller interface {
	CreateCheckoutSession(c *gin.Context)
	ConfirmPayment(c *gin.Context)
	GetMyBookings(c *gin.Context)
	GetBooking(c *gin.Context)
	CancelBooking(c *gin.Context)
	CheckIn(c *gin.Context)
	GetEventAttendees(c *gin.Context)
	GetAllBookings(c *gin.Context)
	HandleWebhook(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CreateCheckoutSession(c *gin.Context) {
	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondValidationError(c, err)
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	checkout, err := ctrl.service.InitiateCheckout(c.Request.Context(), caller, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Checkout session created", checkout, nil)
}

// ConfirmPayment answers 201 when this call created the booking and 200 when it already existed
func (ctrl *controller) ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondValidationError(c, err)
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	booking, created, err := ctrl.service.ConfirmPayment(c.Request.Context(), caller, req.SessionID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	if created {
		response.RespondJSON(c, "success", http.StatusCreated, "Booking confirmed successfully", booking, nil)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking already confirmed", booking, nil)
}

func (ctrl *controller) GetMyBookings(c *gin.Context) {
	var query BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondValidationError(c, err)
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	bookings, err := ctrl.service.MyBookings(c.Request.Context(), caller, query)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", bookings, nil)
}

func (ctrl *controller) GetAllBookings(c *gin.Context) {
	var query BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondValidationError(c, err)
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	bookings, err := ctrl.service.AllBookings(c.Request.Context(), caller, query)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", bookings, nil)
}

func (ctrl *controller) GetBooking(c *gin.Context) {
	bookingID, ok := parseUUIDParam(c, "id", "Invalid booking ID")
	if !ok {
		return
	}
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), caller, bookingID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

func (ctrl *controller) CancelBooking(c *gin.Context) {
	bookingID, ok := parseUUIDParam(c, "id", "Invalid booking ID")
	if !ok {
		return
	}

	// the body is optional
	var req CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondValidationError(c, err)
			return
		}
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	booking, err := ctrl.service.CancelBooking(c.Request.Context(), caller, bookingID, req.Reason)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled successfully", booking, nil)
}

func (ctrl *controller) CheckIn(c *gin.Context) {
	bookingID, ok := parseUUIDParam(c, "id", "Invalid booking ID")
	if !ok {
		return
	}
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	booking, err := ctrl.service.CheckIn(c.Request.Context(), caller, bookingID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Attendee checked in successfully", booking, nil)
}

func (ctrl *controller) GetEventAttendees(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "eventId", "Invalid event ID")
	if !ok {
		return
	}
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	attendees, err := ctrl.service.EventAttendees(c.Request.Context(), caller, eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Attendees retrieved successfully", attendees, nil)
}

// HandleWebhook needs the untouched body; the signature covers the raw bytes
func (ctrl *controller) HandleWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Could not read request body", nil, nil)
		return
	}

	evt, err := ctrl.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		response.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "type": evt.Type})
}

func callerFromContext(c *gin.Context) (Caller, bool) {
	userID, role, ok := middleware.CallerFromContext(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return Caller{}, false
	}
	return Caller{UserID: userID, Role: role}, true
}

func parseUUIDParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, message, nil, nil)
		return uuid.Nil, false
	}
	return id, true
}
