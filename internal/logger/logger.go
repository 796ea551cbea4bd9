package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide structured logger.
var Logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return l
}

// Init applies the configured level and switches to JSON output outside development.
func Init(level string, appEnv string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Logger.SetLevel(parsed)
	if appEnv != "development" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	}
}
