package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type TimeoutConfig struct {
	Duration time.Duration
}

func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{Duration: 30 * time.Second}
}

// Timeout bounds request handling through the request context. Handlers,
// repositories and drivers observe the deadline via ctx; the handler chain
// itself runs on the request goroutine, so no concurrent writes to the gin
// context can occur. If the deadline passed and nothing was written, the
// request fails here.
func Timeout(config TimeoutConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), config.Duration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			httputil.RespondWithError(c, errors.Timeout("request timed out"))
			c.Abort()
		}
	}
}
