package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfHandler returns a slog handler that ships JSON records to a
// Graylog server over chunked UDP GELF. Record delivery is best-effort;
// the MultiHandler keeps logging locally when Graylog is unreachable.
func NewGelfHandler(address string, level slog.Level) (slog.Handler, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("connecting to graylog at %s: %w", address, err)
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
}
