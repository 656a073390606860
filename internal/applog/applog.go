// Package applog sets up the process-wide leveled logger shared by
// dispatch, messaging, filetransfer and cmd/linkchatd, following the backend/
// formatter setup in kryptco-kr/logging.go.
package applog

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/op/go-logging"
)

var stderrFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.6s} ▶ %{module} %{message}`,
)

var configured bool

// Setup installs a stderr backend at defaultLevel, overridable for all
// modules at once via the LINKCHAT_LOG_LEVEL environment variable. It is safe to call more
// than once; later calls are no-ops.
func Setup(defaultLevel logging.Level) {
	if configured {
		return
	}
	configured = true

	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, stderrFormat)
	leveled := logging.AddModuleLevel(formatted)

	level := defaultLevel
	switch os.Getenv("LINKCHAT_LOG_LEVEL") {
	case "CRITICAL":
		level = logging.CRITICAL
	case "ERROR":
		level = logging.ERROR
	case "WARNING":
		level = logging.WARNING
	case "NOTICE":
		level = logging.NOTICE
	case "INFO":
		level = logging.INFO
	case "DEBUG":
		level = logging.DEBUG
	}
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
}

// Get returns a named logger for a component (e.g. "dispatch", "filetransfer").
func Get(name string) *logging.Logger {
	if !configured {
		Setup(logging.NOTICE)
	}
	return logging.MustGetLogger(name)
}

// RecoverToLog recovers a panic from f, logging it as a handler error
// instead of letting it unwind past the caller. Modeled on
// kryptco-kr/panicrecover.go's RecoverToLog.
func RecoverToLog(log *logging.Logger, f func()) {
	defer func() {
		if x := recover(); x != nil {
			if log != nil {
				log.Error(fmt.Sprintf("handler panic: %v", x))
				log.Error(string(debug.Stack()))
			}
		}
	}()
	f()
}
