// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup applies level and format ("text" or "json") to the standard logger.
// Unknown levels fall back to info.
func Setup(level, format string) {
	configure(log.StandardLogger(), os.Stderr, level, format)
}

func configure(logger *log.Logger, out io.Writer, level, format string) {
	logger.SetOutput(out)

	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logger.SetFormatter(&log.JSONFormatter{})
		return
	}
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
