package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// ParseSpool runs parse over the spooled document on its own goroutine and waits for the
// result or for ctx to end. The worker releases the spool once parsing stops, so the
// temporary file is removed on every path, including after the caller has given up.
func ParseSpool[T any](ctx context.Context, spool *Spool, logger *slog.Logger, parse func(io.Reader) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		var o outcome
		o.value, o.err = parseFile(spool, parse)
		if err := spool.Release(); err != nil {
			logger.Warn("failed to remove temporary file", "path", spool.Path, "error", err)
		}
		done <- o
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func parseFile[T any](spool *Spool, parse func(io.Reader) (T, error)) (T, error) {
	f, err := spool.Open()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("opening %s: %w", spool.Path, err)
	}
	defer func() { _ = f.Close() }()
	return parse(f)
}
