package middleware

import (
	"errors"
	"net/http"

	"go-form-relay/internal/delivery/http/response"
	"go-form-relay/pkg/apperror"
	"go-form-relay/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				logger.Log.Warn("Request failed",
					"request_id", c.GetString("RequestID"),
					"status", appErr.Code,
					"error", appErr.Err,
				)
			}
			var detail interface{}
			if appErr.Expose && appErr.Err != nil {
				detail = appErr.Cause()
			}
			response.Error(c, appErr.Code, appErr.Message, detail)
			return
		}

		// SECURITY: Never expose internal error details to clients.
		logger.Log.Error("Internal Server Error", "request_id", c.GetString("RequestID"), "error", err)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
