package response

import (
	"net/http"

	"eventix/internal/shared/apperrors"
	"eventix/pkg/logger"

	"github.com/gin-gonic/gin"
)

// StatusForKind maps an error kind to its HTTP status code
func StatusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindInvalidArgument,
		apperrors.KindInvalidState,
		apperrors.KindPaymentNotCompleted,
		apperrors.KindSignatureInvalid:
		return http.StatusBadRequest
	case apperrors.KindInsufficientInventory, apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindUnauthorized:
		return http.StatusForbidden
	case apperrors.KindUpstreamFailure:
		return http.StatusBadGateway
	case apperrors.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err using the standard envelope. Internal errors never leak their cause.
func RespondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	code := StatusForKind(kind)
	if code >= http.StatusInternalServerError {
		logger.GetDefault().LogHTTPError(c, err, code)
	}
	RespondJSON(c, "error", code, apperrors.MessageOf(err), nil, &ErrorDetails{Kind: kind})
}

// RespondValidationError reports a request binding or validation failure
func RespondValidationError(c *gin.Context, err error) {
	RespondJSON(c, "error", http.StatusBadRequest, "Invalid request data", nil, &ErrorDetails{
		Kind:   apperrors.KindInvalidArgument,
		Detail: err.Error(),
	})
}
