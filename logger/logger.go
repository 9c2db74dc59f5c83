package logger

import (
	"os"
	"time"

	"aura/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const serviceName = "aura-api"

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// Tests and tools never call Init, so make sure Log is usable without it.
func init() {
	Init("info", false)
}

// Init (re)configures the global logger. Release mode logs JSON so the
// hosting platform can index fields.
func Init(level string, release bool) {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	if release {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	Log = logger.WithFields(logrus.Fields{"service": serviceName, "release": release})
}

// Middleware logs one line per request. It replaces gin's default logger so
// request logs share the service fields.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := Log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		})
		if userID := c.GetString(middleware.ContextUserID); userID != "" {
			entry = entry.WithField("userId", userID)
		}
		if len(c.Errors) > 0 {
			entry.Error(c.Errors.String())
			return
		}
		if c.Writer.Status() >= 500 {
			entry.Warn("request failed")
			return
		}
		entry.Info("request")
	}
}
