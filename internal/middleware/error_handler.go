package middleware

import (
	"errors"
	"log/slog"

	apiError "site-content-store/internal/errors"

	"github.com/gin-gonic/gin"
)

func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *apiError.APIError
		// a raw error we didn't wrap is treated as internal
		if !errors.As(err, &apiErr) {
			apiErr = apiError.Internal(err)
		}

		if logger != nil {
			attrs := []any{
				slog.Int("status", apiErr.Status),
				slog.String("method", c.Request.Method),
				slog.String("path", c.FullPath()),
			}
			if apiErr.Internal != nil {
				attrs = append(attrs, slog.String("cause", apiErr.Internal.Error()))
			}
			if apiErr.Status >= 500 {
				logger.Error(apiErr.Message, attrs...)
			} else {
				logger.Info(apiErr.Message, attrs...)
			}
		}

		c.AbortWithStatusJSON(apiErr.Status, apiErr)
	}
}
