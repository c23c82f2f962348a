package zipstream_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sagarc03/zipstream"
)

// fakeProcess behaves like an archiver subprocess: its output is a pipe that
// reads EOF once the process exits, and Kill makes it exit with -1.
type fakeProcess struct {
	pr       *io.PipeReader
	pw       *io.PipeWriter
	done     chan struct{}
	exitOnce sync.Once
	code     int
	kills    atomic.Int32
	closed   atomic.Bool
}

func newFakeProcess() *fakeProcess {
	pr, pw := io.Pipe()
	return &fakeProcess{pr: pr, pw: pw, done: make(chan struct{})}
}

// emit writes data as process output. It blocks until the data is read.
func (p *fakeProcess) emit(data []byte) {
	_, _ = p.pw.Write(data)
}

// closeOutput ends the output without exiting.
func (p *fakeProcess) closeOutput() {
	_ = p.pw.Close()
}

// exit ends the output and the process.
func (p *fakeProcess) exit(code int) {
	p.exitOnce.Do(func() {
		p.code = code
		_ = p.pw.Close()
		close(p.done)
	})
}

func (p *fakeProcess) Read(b []byte) (int, error) { return p.pr.Read(b) }

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Kill() error {
	p.kills.Add(1)
	p.exit(-1)
	return nil
}

func (p *fakeProcess) Wait() (int, error) {
	<-p.done
	return p.code, nil
}

func (p *fakeProcess) Close() error {
	p.closed.Store(true)
	return p.pr.Close()
}

func (p *fakeProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

type SpyDirectoryStore struct {
	mock.Mock
}

func (s *SpyDirectoryStore) Resolve(ctx context.Context, name string) (string, error) {
	args := s.Called(ctx, name)
	return args.String(0), args.Error(1)
}

type SpySpawner struct {
	mock.Mock
}

func (s *SpySpawner) Spawn(ctx context.Context, dir string) (zipstream.Process, error) {
	args := s.Called(ctx, dir)
	proc, _ := args.Get(0).(zipstream.Process)
	return proc, args.Error(1)
}

type SpyDownloadRepo struct {
	mock.Mock
}

func (s *SpyDownloadRepo) Record(ctx context.Context, d zipstream.Download) error {
	args := s.Called(ctx, d)
	return args.Error(0)
}

func (s *SpyDownloadRepo) List(ctx context.Context, q zipstream.ListQuery) (zipstream.ListResult, error) {
	args := s.Called(ctx, q)
	return args.Get(0).(zipstream.ListResult), args.Error(1)
}

func (s *SpyDownloadRepo) Prune(ctx context.Context, before time.Time) (int64, error) {
	args := s.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
