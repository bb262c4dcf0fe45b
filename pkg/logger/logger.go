package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the application logger. JSON output in production so log
// shippers can parse entries; human-readable text elsewhere.
func New(env string, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}
