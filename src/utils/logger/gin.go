package logger

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Key under which gateway middleware stores the request id
const RequestIdKey = "request_id"

var httpLogger = NewSublogger("http")

// Logger entry for the request handled in this context
func LOG(c *gin.Context) *logrus.Entry {
	return httpLogger.WithFields(logrus.Fields{
		"request_id": c.GetString(RequestIdKey),
		"method":     c.Request.Method,
		"path":       c.FullPath(),
	})
}

// Aborts the request with the given status and returns a logger with the error attached
func LOGE(c *gin.Context, err error, status int) *logrus.Entry {
	entry := LOG(c).WithField("status", status)
	if err != nil {
		entry = entry.WithError(err)
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
	} else {
		c.AbortWithStatus(status)
	}
	return entry
}
