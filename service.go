package zipstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Process is a running archiver subprocess. Reading from it yields the
// archiver's standard output.
//
// Implementations must allow Kill to be called concurrently with Read, and
// must tolerate Kill after the process has already exited.
type Process interface {
	io.Reader

	// Done returns a channel that is closed once the process has exited
	// and been reaped by the implementation.
	Done() <-chan struct{}

	// Kill forcibly terminates the process. It does not wait for it.
	Kill() error

	// Wait blocks until the process has been reaped.
	//
	// Returns:
	//   - int: the exit code, or -1 if the process was terminated by a signal
	//   - error: a failure to reap that is not an exit status
	Wait() (int, error)

	// Close releases the read end of the output pipe.
	Close() error
}

// Spawner starts archiver subprocesses.
type Spawner interface {
	// Spawn starts the archiver with its working directory set to dir and its
	// standard output connected to the returned Process.
	//
	// Returns:
	//   - Process: the running archiver, owned by the caller
	//   - error: ErrNotFound if dir does not exist, ErrInternal if the archiver
	//     executable cannot be started, or other errors
	//
	// The caller is responsible for killing and reaping the process.
	Spawn(ctx context.Context, dir string) (Process, error)
}

// DirectoryStore resolves archive names to directories under the archive root.
type DirectoryStore interface {
	// Resolve returns the directory path for the archive called name.
	//
	// Returns:
	//   - string: a path usable as a subprocess working directory
	//   - error: ErrNotFound if no such directory exists inside the root
	//
	// Implementations must not resolve names to anything outside the root.
	Resolve(ctx context.Context, name string) (string, error)
}

// DownloadRepo persists download records.
// Implementations must handle concurrent access safely.
type DownloadRepo interface {
	// Record stores a finished download.
	Record(ctx context.Context, d Download) error

	// List returns downloads ordered by (started_at, id) descending, most recent
	// first, optionally filtered by archive name.
	//
	// Returns:
	//   - ListResult: matching downloads and a cursor for the next page
	//   - error: ErrInvalidInput for a malformed cursor, or database errors
	List(ctx context.Context, q ListQuery) (ListResult, error)

	// Prune deletes downloads that started before the given time.
	//
	// Returns:
	//   - int64: number of deleted records
	//   - error: any database error
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// ServiceConfig holds configuration options for ArchiveService.
type ServiceConfig struct {
	Stream        StreamConfig
	RecordTimeout time.Duration // Timeout for writing a download record (default: 5s)
	Logger        *slog.Logger  // Defaults to slog.Default()
}

// ArchiveService opens archives for streaming and records how they ended.
type ArchiveService struct {
	store         DirectoryStore
	spawner       Spawner
	repo          DownloadRepo
	stream        StreamConfig
	recordTimeout time.Duration
	logger        *slog.Logger
}

// NewArchiveService creates an ArchiveService. repo may be nil, in which case
// downloads are only logged.
func NewArchiveService(store DirectoryStore, spawner Spawner, repo DownloadRepo, cfg ServiceConfig) (*ArchiveService, error) {
	if store == nil {
		return nil, fmt.Errorf("new archive service: %w: directory store is required", ErrInvalidInput)
	}
	if spawner == nil {
		return nil, fmt.Errorf("new archive service: %w: spawner is required", ErrInvalidInput)
	}

	recordTimeout := cfg.RecordTimeout
	if recordTimeout <= 0 {
		recordTimeout = 5 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ArchiveService{
		store:         store,
		spawner:       spawner,
		repo:          repo,
		stream:        cfg.Stream.withDefaults(),
		recordTimeout: recordTimeout,
		logger:        logger,
	}, nil
}

// Open validates name, resolves its directory and starts an archiver for it.
//
// Returns:
//   - *Archive: the started download; the caller must call Finish exactly once
//   - error: ErrInvalidInput for an unacceptable name, ErrNotFound when the
//     directory does not exist, or a wrapped spawn error
//
// No subprocess exists when an error is returned.
func (s *ArchiveService) Open(ctx context.Context, name string) (*Archive, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if !IsValidArchiveName(name) {
		return nil, fmt.Errorf("open archive %q: %w", name, ErrInvalidInput)
	}

	dir, err := s.store.Resolve(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("archive not found", "archive", name)
		}
		return nil, fmt.Errorf("open archive %s: %w", name, err)
	}

	proc, err := s.spawner.Spawn(ctx, dir)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// the directory vanished between Resolve and Spawn
			s.logger.Warn("archive not found", "archive", name)
		}
		return nil, fmt.Errorf("open archive %s: %w", name, err)
	}

	a := NewArchive(name, proc, s.stream)
	s.logger.Info("archive download started", "archive", name, "download_id", a.ID())

	return a, nil
}

// Finish closes the archive (killing and reaping its archiver if needed),
// logs the outcome and stores the download record when a repo is configured.
// Recording uses a background context so that it completes even after the
// client connection is gone; a recording failure is logged, not returned.
func (s *ArchiveService) Finish(a *Archive) Download {
	d, err := a.Close()

	attrs := []any{
		"archive", d.Archive,
		"download_id", d.ID,
		"bytes", d.BytesSent,
		"chunks", d.Chunks,
		"duration", d.Duration(),
	}

	switch d.Outcome {
	case OutcomeCompleted:
		s.logger.Info("archive download completed", attrs...)
	case OutcomeAnomaly:
		s.logger.Warn("archive subprocess exited abnormally", append(attrs, "exit_code", d.ExitCode)...)
	default:
		s.logger.Warn("archive download failed", append(attrs, "err", err)...)
	}

	if s.repo == nil {
		return d
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.recordTimeout)
	defer cancel()

	if recErr := s.repo.Record(ctx, d); recErr != nil {
		s.logger.Error("failed to record download", "download_id", d.ID, "err", recErr)
	}

	return d
}

// History lists recorded downloads.
func (s *ArchiveService) History(ctx context.Context, q ListQuery) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list downloads: %w", err)
	}

	if s.repo == nil {
		return ListResult{}, fmt.Errorf("list downloads: %w", ErrHistoryDisabled)
	}

	if q.Archive != "" && !IsValidArchiveName(q.Archive) {
		return ListResult{}, fmt.Errorf("list downloads: %w: invalid archive name", ErrInvalidInput)
	}

	result, err := s.repo.List(ctx, q)
	if err != nil {
		return ListResult{}, fmt.Errorf("list downloads: %w", err)
	}

	return result, nil
}
