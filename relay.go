package zipstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Relay copies src to dst in chunks of at most chunkSize bytes. Each chunk is
// written to dst before the next read, so at most one chunk is buffered.
// After every written chunk onChunk (if non-nil) is called with its size and,
// when delay is positive, Relay pauses for delay.
//
// Relay returns nil once src reports io.EOF; no empty trailing write is made.
// It stops early with an error when ctx is done, a read fails, or a write
// fails.
func Relay(ctx context.Context, dst io.Writer, src io.Reader, chunkSize int, delay time.Duration, onChunk func(n int)) (int64, error) {
	if chunkSize <= 0 {
		return 0, fmt.Errorf("relay: %w: chunk size must be positive", ErrInvalidInput)
	}

	buf := make([]byte, chunkSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("relay: %w", err)
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("relay: write chunk: %w", err)
			}
			written += int64(n)

			if onChunk != nil {
				onChunk(n)
			}

			if delay > 0 {
				if err := sleep(ctx, delay); err != nil {
					return written, fmt.Errorf("relay: %w", err)
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("relay: read chunk: %w", readErr)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
