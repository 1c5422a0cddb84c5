// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// New creates a sugared logger for the given environment. "dev" gets the
// human readable development encoder; anything else logs production JSON
// tagged with the environment name.
func New(env string) *zap.SugaredLogger {
	logger, err := build(env)
	if err != nil {
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}
	return logger.Sugar()
}

func build(env string) (*zap.Logger, error) {
	if IsDev(env) {
		return zap.NewDevelopment(zap.AddStacktrace(zap.ErrorLevel))
	}
	return zap.NewProduction(
		zap.AddStacktrace(zap.ErrorLevel),
		zap.Fields(zap.String("env", env)),
	)
}

// IsDev reports whether env selects the development logger
func IsDev(env string) bool {
	return strings.ToLower(strings.TrimSpace(env)) == "dev"
}
