package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the agent-wide logger.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

func SetLogOutput(w io.Writer) {
	Logger.SetOutput(w)
}

func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithBridge returns a logger scoped to one OVS bridge.
func WithBridge(bridge string) *logrus.Entry {
	return Logger.WithField("bridge", bridge)
}

// Writer exposes the logger as an io.Writer at the given level, for libraries
// that only accept a *log.Logger.
func Writer(level logrus.Level) *io.PipeWriter {
	return Logger.WriterLevel(level)
}
