// Package logger provides the zerolog adapter behind core/logger.Logger.
package logger

import corelogger "github.com/kilianp07/cspbc/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.Nop

// New returns a Logger for the given component. Output format and level are
// taken from the APP_ENV and CSPBC_LOG_LEVEL variables.
func New(component string) Logger {
	return NewZerologLogger(component, OptionsFromEnv())
}
