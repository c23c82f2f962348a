package http_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/zipstream"
	zipstreamhttp "github.com/sagarc03/zipstream/http"
)

// fakeProcess stands in for the zip subprocess. Its output is a pipe fed by
// a goroutine; Kill ends the output and makes the process exit with -1.
type fakeProcess struct {
	pr   *io.PipeReader
	pw   *io.PipeWriter
	done chan struct{}
	once sync.Once
	code int
}

// startFakeProcess emits payload and exits with code. With endless set it
// emits 50 KB chunks until killed instead.
func startFakeProcess(payload []byte, code int, endless bool) *fakeProcess {
	pr, pw := io.Pipe()
	p := &fakeProcess{pr: pr, pw: pw, done: make(chan struct{})}

	go func() {
		if endless {
			chunk := bytes.Repeat([]byte("z"), 50_000)
			for {
				if _, err := p.pw.Write(chunk); err != nil {
					return
				}
			}
		}
		if _, err := p.pw.Write(payload); err != nil {
			return
		}
		p.exit(code)
	}()

	return p
}

func (p *fakeProcess) exit(code int) {
	p.once.Do(func() {
		p.code = code
		_ = p.pw.Close()
		close(p.done)
	})
}

func (p *fakeProcess) Read(b []byte) (int, error) { return p.pr.Read(b) }
func (p *fakeProcess) Done() <-chan struct{}      { return p.done }
func (p *fakeProcess) Kill() error                { p.exit(-1); return nil }
func (p *fakeProcess) Close() error               { return p.pr.Close() }

func (p *fakeProcess) Wait() (int, error) {
	<-p.done
	return p.code, nil
}

func (p *fakeProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// stubStore knows a fixed set of archive directories.
type stubStore struct {
	dirs map[string]bool
}

func (s *stubStore) Resolve(_ context.Context, name string) (string, error) {
	if !s.dirs[name] {
		return "", fmt.Errorf("resolve %s: %w", name, zipstream.ErrNotFound)
	}
	return "/srv/archives/" + name, nil
}

// stubSpawner hands out processes built by newProc and remembers them.
type stubSpawner struct {
	mu      sync.Mutex
	newProc func() *fakeProcess
	procs   []*fakeProcess
}

func (s *stubSpawner) Spawn(_ context.Context, _ string) (zipstream.Process, error) {
	p := s.newProc()
	s.mu.Lock()
	s.procs = append(s.procs, p)
	s.mu.Unlock()
	return p, nil
}

func (s *stubSpawner) last() *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.procs) == 0 {
		return nil
	}
	return s.procs[len(s.procs)-1]
}

// recordingRepo publishes every recorded download on a channel.
type recordingRepo struct {
	records chan zipstream.Download
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{records: make(chan zipstream.Download, 16)}
}

func (r *recordingRepo) Record(_ context.Context, d zipstream.Download) error {
	r.records <- d
	return nil
}

func (r *recordingRepo) List(context.Context, zipstream.ListQuery) (zipstream.ListResult, error) {
	return zipstream.ListResult{}, nil
}

func (r *recordingRepo) Prune(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *recordingRepo) next(t *testing.T) zipstream.Download {
	t.Helper()
	select {
	case d := <-r.records:
		return d
	case <-time.After(10 * time.Second):
		t.Fatal("no download was recorded")
		return zipstream.Download{}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newArchiveService(t *testing.T, spawner *stubSpawner, repo zipstream.DownloadRepo, dirs ...string) *zipstream.ArchiveService {
	t.Helper()

	known := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		known[d] = true
	}

	s, err := zipstream.NewArchiveService(&stubStore{dirs: known}, spawner, repo, zipstream.ServiceConfig{
		Stream: zipstream.StreamConfig{Grace: 100 * time.Millisecond},
		Logger: discardLogger(),
	})
	require.NoError(t, err)
	return s
}

func newRouter(cfg zipstreamhttp.HandlerConfig, service zipstreamhttp.Service) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	return zipstreamhttp.NewHandler(&cfg, service).Router()
}

// failingWriter accepts headers but fails every body write, like a
// connection the client has already closed.
type failingWriter struct {
	header http.Header
	status int
}

func newFailingWriter() *failingWriter {
	return &failingWriter{header: make(http.Header)}
}

func (f *failingWriter) Header() http.Header { return f.header }

func (f *failingWriter) WriteHeader(code int) { f.status = code }

func (f *failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("write: connection reset by peer")
}

type SpyService struct {
	mock.Mock
}

func (s *SpyService) Open(ctx context.Context, name string) (*zipstream.Archive, error) {
	args := s.Called(ctx, name)
	a, _ := args.Get(0).(*zipstream.Archive)
	return a, args.Error(1)
}

func (s *SpyService) Finish(a *zipstream.Archive) zipstream.Download {
	args := s.Called(a)
	return args.Get(0).(zipstream.Download)
}

func (s *SpyService) History(ctx context.Context, q zipstream.ListQuery) (zipstream.ListResult, error) {
	args := s.Called(ctx, q)
	return args.Get(0).(zipstream.ListResult), args.Error(1)
}
