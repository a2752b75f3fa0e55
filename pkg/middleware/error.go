package middleware

import (
	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error renders the last error pushed with c.Error as the errutil envelope.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		v := errutil.From(last.Err)
		if v.Code.HTTPStatus() >= 500 {
			zap.L().Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(last.Err),
			)
		}
		c.JSON(v.Code.HTTPStatus(), v.JSON())
	}
}
