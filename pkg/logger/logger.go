// Package logger supplies the zap-sugared-logger constructor the rest of
// the module threads through every component's Config struct.
package logger

import (
	"go.uber.org/zap"
)

// New builds a production zap logger named after the calling service and
// returns it sugared, matching the logging idiom used throughout the store.
func New(service string) *zap.SugaredLogger {
	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}
	return base.Named(service).Sugar()
}

// NewNop returns a logger that discards everything, for tests that don't
// care about log output.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
