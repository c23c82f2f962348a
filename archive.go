package zipstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Archive is a single in-flight download: the archiver subprocess producing
// the zip bytes and the bookkeeping of what was relayed to the client.
//
// An Archive is owned by one request goroutine. Stream and Close must be
// called from that goroutine; Close must always be called.
type Archive struct {
	id        uuid.UUID
	name      string
	proc      Process
	cfg       StreamConfig
	startedAt time.Time

	killed atomic.Bool

	bytes    int64
	chunks   int64
	eof      bool
	err      error
	closed   bool
	record   Download
	closeErr error
}

// NewArchive wraps a running archiver process for the archive called name.
func NewArchive(name string, proc Process, cfg StreamConfig) *Archive {
	return &Archive{
		id:        uuid.New(),
		name:      name,
		proc:      proc,
		cfg:       cfg.withDefaults(),
		startedAt: time.Now().UTC(),
	}
}

func (a *Archive) ID() uuid.UUID { return a.id }

func (a *Archive) Name() string { return a.name }

// Filename is the attachment file name announced to the client.
func (a *Archive) Filename() string { return a.name + ".zip" }

// Stream relays the archiver output to w until end-of-stream, a write
// failure, or cancellation of ctx. Cancellation kills the archiver so that
// a read blocked on its output returns promptly.
func (a *Archive) Stream(ctx context.Context, w io.Writer) error {
	stop := context.AfterFunc(ctx, a.kill)
	defer stop()

	n, err := Relay(ctx, w, a.proc, a.cfg.ChunkSize, a.cfg.Delay, func(int) { a.chunks++ })
	a.bytes = n

	// A kill from ctx closes the pipe, which reads as a clean end-of-stream.
	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("relay: %w", ctx.Err())
	}

	if err != nil {
		a.err = fmt.Errorf("stream archive %s: %w", a.name, err)
		return a.err
	}

	a.eof = true
	return nil
}

// Close makes sure the archiver is no longer running and has been reaped,
// then returns the download record. If the output was relayed to the end,
// Close first gives the archiver up to the grace period to exit on its own;
// otherwise it kills it right away. Close is idempotent.
//
// The returned error joins the stream error (if any) with a failure to reap.
func (a *Archive) Close() (Download, error) {
	if a.closed {
		return a.record, a.closeErr
	}
	a.closed = true

	if a.eof {
		t := time.NewTimer(a.cfg.Grace)
		select {
		case <-a.proc.Done():
		case <-t.C:
		}
		t.Stop()
	}

	exitedOnItsOwn := isDone(a.proc.Done()) && !a.killed.Load()
	if !exitedOnItsOwn {
		a.kill()
	}

	code, waitErr := a.proc.Wait()
	if waitErr != nil {
		waitErr = fmt.Errorf("reap archiver for %s: %w", a.name, waitErr)
	}
	_ = a.proc.Close()

	outcome := OutcomeAborted
	if exitedOnItsOwn && a.eof {
		outcome = OutcomeCompleted
		if code != 0 {
			outcome = OutcomeAnomaly
		}
	}

	a.record = Download{
		ID:         a.id,
		Archive:    a.name,
		Outcome:    outcome,
		BytesSent:  a.bytes,
		Chunks:     a.chunks,
		ExitCode:   code,
		StartedAt:  a.startedAt,
		FinishedAt: time.Now().UTC(),
	}
	a.closeErr = errors.Join(a.err, waitErr)

	return a.record, a.closeErr
}

func (a *Archive) kill() {
	a.killed.Store(true)
	_ = a.proc.Kill()
}

func isDone(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
