package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger: level from LOG_LEVEL, JSON
// output in production, colored text everywhere else.
func NewLogger(service string) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("ENVIRONMENT") == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	logger.AddHook(&serviceHook{service: service})
	return logger
}

// serviceHook stamps the service name on every entry.
type serviceHook struct {
	service string
}

func (h *serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceHook) Fire(entry *logrus.Entry) error {
	entry.Data["service"] = h.service
	return nil
}
