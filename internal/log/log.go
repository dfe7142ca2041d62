// Package log provides centralized logging functionality using zap logger.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var log *zap.SugaredLogger

// Init initializes the package-level logger.
func Init(debug bool) error {
	var (
		zapLogger *zap.Logger
		err       error
	)

	if debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	log = zapLogger.Sugar()
	return nil
}

// Get returns the sugared logger, falling back to a production logger if Init was not called.
func Get() *zap.SugaredLogger {
	if log == nil {
		zapLogger, _ := zap.NewProduction()
		log = zapLogger.Sugar()
	}
	return log
}

// Named returns a child logger for a component.
func Named(component string) *zap.SugaredLogger {
	return Get().Named(component)
}

// Sync flushes any buffered log entries.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
