package utils

import (
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// Logger is the process-wide structured logger
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if os.Getenv("LOG_LEVEL") == "debug" {
		Logger.SetLevel(logrus.DebugLevel)
	}
}

// LogError logs an error with structured fields and forwards it to Sentry
// when a DSN is configured
func LogError(err error, message string, fields map[string]interface{}) {
	Logger.WithFields(logrus.Fields(fields)).WithError(err).Error(message)

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			for k, v := range fields {
				scope.SetExtra(k, v)
			}
			hub.CaptureException(err)
		})
	}
}

// LogEvent logs a domain event with structured data
func LogEvent(eventType string, data map[string]interface{}) {
	Logger.WithFields(logrus.Fields(data)).Info(eventType)
}
