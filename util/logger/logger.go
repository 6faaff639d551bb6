// Package logger provides the process-wide structured logger used by the
// storage and indexing packages.
package logger

import (
	"os"

	logger "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var L = &logger.Logger{
	Out:   os.Stderr,
	Level: logger.InfoLevel,
	Formatter: &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	},
}

// Component returns a logger pre-tagged with a "component" field, used so
// buffer-pool and tree log lines can be filtered independently.
func Component(name string) *logger.Entry {
	return L.WithField("component", name)
}
