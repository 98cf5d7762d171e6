// logger/logger.go
package logger

import (
	"go.uber.org/zap"
)

// Log is the process-wide sugared logger. Init must run before any
// package logs through it.
var Log *zap.SugaredLogger

// Init builds the global logger. debug selects the human-readable
// development encoder with debug-level output over production JSON.
func Init(debug bool) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync flushes any buffered entries. Called on shutdown; flush errors on
// stderr sinks are expected and ignored by callers.
func Sync() error {
	if Log == nil {
		return nil
	}
	return Log.Sync()
}
