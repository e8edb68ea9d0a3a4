package event

import (
	"github.com/go-logr/logr"
	"go.uber.org/atomic"
)

var pkgLog atomic.Pointer[logr.Logger]

// SetLogger sets the logger used to report misuse of events.
func SetLogger(l logr.Logger) { pkgLog.Store(&l) }

// Log returns the package logger, discarding until SetLogger is called.
func Log() logr.Logger {
	if l := pkgLog.Load(); l != nil {
		return *l
	}
	return logr.Discard()
}
