// Package logging builds the process logger.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to w. Debug enables debug level; otherwise
// only warnings and errors are logged. Format is "json" or "text".
func New(w io.Writer, debug bool, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors:    true,
			DisableTimestamp: !debug,
		})
	}
	return log
}
