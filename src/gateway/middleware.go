package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
	"github.com/warp-contracts/stager/src/utils/config"
	"github.com/warp-contracts/stager/src/utils/logger"
	"github.com/warp-contracts/stager/src/utils/monitoring"
	"golang.org/x/time/rate"
)

const requestIdHeader = "X-Request-Id"

var errRateLimited = errors.New("too many requests")

// Takes the caller's request id or generates one
func requestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIdHeader)
		if id == "" {
			id = xid.New().String()
		}
		c.Set(logger.RequestIdKey, id)
		c.Header(requestIdHeader, id)
		c.Next()
	}
}

// Rejects requests above the configured rate. Zero rate disables limiting.
func rateLimit(config config.Gateway, monitor monitoring.Monitor) gin.HandlerFunc {
	if config.RequestsPerSecond <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	burst := config.RequestsBurst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			monitor.GetReport().Gateway.Errors.RateLimited.Inc()
			logger.LOGE(c, errRateLimited, http.StatusTooManyRequests).Debug("Rate limited")
			return
		}
		c.Next()
	}
}
