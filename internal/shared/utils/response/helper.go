package response

import "github.com/gin-gonic/gin"

// RespondJSON writes the standard envelope. errs is nil on success.
func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errs *ErrorDetails) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errs,
	})
}
