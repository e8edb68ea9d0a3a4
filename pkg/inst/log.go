package inst

import (
	"go.uber.org/atomic"

	"github.com/go-logr/logr"
)

var pkgLog atomic.Pointer[logr.Logger]

// SetLogger sets the logger failed Getters report to.
// Until called, failures are discarded.
func SetLogger(l logr.Logger) {
	pkgLog.Store(&l)
}

// Log returns the package logger.
func Log() logr.Logger {
	if l := pkgLog.Load(); l != nil {
		return *l
	}
	return logr.Discard()
}
