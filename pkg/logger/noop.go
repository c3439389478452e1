package logger

import (
	"fmt"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
)

// Logger is re-exported from eigensdk-go for convenience.
// This allows users of this package to work with loggers without importing sdklogging separately.
type Logger = sdklogging.Logger

// NewNoOpLogger creates a logger that drops everything
func NewNoOpLogger() Logger {
	return sdklogging.NewNoopLogger()
}

// EnsureLogger returns the logger if not nil, otherwise returns a no-op logger.
// This is a convenience function to safely use optional logger parameters.
func EnsureLogger(logger Logger) Logger {
	if logger == nil {
		return NewNoOpLogger()
	}
	return logger
}

// ForWallet tags every line with the wallet identity and its batch position.
func ForWallet(logger Logger, identity string, position, total int) Logger {
	return EnsureLogger(logger).With("wallet", ShortIdentity(identity), "position", fmt.Sprintf("%d/%d", position, total))
}

// ShortIdentity renders the 0xABCD... style prefixes used in operator output.
func ShortIdentity(identity string) string {
	if len(identity) <= 6 {
		return identity
	}
	return identity[:6] + "..."
}
