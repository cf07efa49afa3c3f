// Package slogx carries small log/slog attribute helpers shared across the
// module.
package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr for the provided error under the "error" key.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Stringer returns a slog.Attr with the string representation of value.
// Useful for logging identifiers like uuid.UUID without eager formatting at
// the call site.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}
