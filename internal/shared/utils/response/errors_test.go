package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventix/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForKind(t *testing.T) {
	cases := map[apperrors.Kind]int{
		apperrors.KindNotFound:              http.StatusNotFound,
		apperrors.KindInvalidArgument:       http.StatusBadRequest,
		apperrors.KindInvalidState:          http.StatusBadRequest,
		apperrors.KindPaymentNotCompleted:   http.StatusBadRequest,
		apperrors.KindSignatureInvalid:      http.StatusBadRequest,
		apperrors.KindInsufficientInventory: http.StatusConflict,
		apperrors.KindConflict:              http.StatusConflict,
		apperrors.KindUnauthorized:          http.StatusForbidden,
		apperrors.KindUpstreamFailure:       http.StatusBadGateway,
		apperrors.KindRateLimited:           http.StatusTooManyRequests,
		apperrors.KindInternal:              http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusForKind(kind), string(kind))
	}
}

func TestRespondErrorHidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		code    int
		message string
		kind    apperrors.Kind
	}{
		{"typed", apperrors.InsufficientInventory("Only 2 tickets available"), http.StatusConflict, "Only 2 tickets available", apperrors.KindInsufficientInventory},
		{"untyped", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error", apperrors.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/bookings/my-bookings", nil)

			RespondError(c, tt.err)

			assert.Equal(t, tt.code, w.Code)
			var body struct {
				Status  string       `json:"status"`
				Message string       `json:"message"`
				Errors  ErrorDetails `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, tt.kind, body.Errors.Kind)
		})
	}
}

func TestRespondJSONOmitsErrorsOnSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondJSON(c, "success", http.StatusOK, "ok", gin.H{"id": 1}, nil)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotContains(t, body, "errors")
	assert.EqualValues(t, http.StatusOK, body["status_code"])
}
