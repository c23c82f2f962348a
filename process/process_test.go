package process_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/process"
)

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not found in PATH", name)
	}
}

func waitWithTimeout(t *testing.T, p zipstream.Process) int {
	t.Helper()

	type result struct {
		code int
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		code, err := p.Wait()
		ch <- result{code, err}
	}()

	select {
	case r := <-ch:
		require.NoError(t, r.err)
		return r.code
	case <-time.After(10 * time.Second):
		t.Fatal("process was not reaped")
		return 0
	}
}

func TestSpawner_Zip(t *testing.T) {
	requireTool(t, "zip")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("bravo"), 0o644))

	p, err := process.NewSpawner(nil).Spawn(context.Background(), dir)
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	data, err := io.ReadAll(p)
	require.NoError(t, err)
	assert.Zero(t, waitWithTimeout(t, p))

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	contents := make(map[string]string)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		contents[f.Name] = string(b)
	}
	sort.Strings(names)

	assert.Contains(t, names, "a.txt")
	assert.Contains(t, names, "sub/b.txt")
	assert.Equal(t, "alpha", contents["a.txt"])
	assert.Equal(t, "bravo", contents["sub/b.txt"])
}

func TestSpawner_Output(t *testing.T) {
	requireTool(t, "sh")

	p, err := process.NewSpawner([]string{"sh", "-c", "pwd; echo done"}).Spawn(context.Background(), t.TempDir())
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	data, err := io.ReadAll(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "done\n")
	assert.Zero(t, waitWithTimeout(t, p))

	select {
	case <-p.Done():
	default:
		t.Fatal("Done must be closed after Wait")
	}
}

func TestSpawner_ExitCode(t *testing.T) {
	requireTool(t, "sh")

	p, err := process.NewSpawner([]string{"sh", "-c", "exit 3"}).Spawn(context.Background(), t.TempDir())
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	_, _ = io.Copy(io.Discard, p)
	assert.Equal(t, 3, waitWithTimeout(t, p))
}

func TestSpawner_MissingDirectory(t *testing.T) {
	requireTool(t, "sh")

	missing := filepath.Join(t.TempDir(), "gone")

	p, err := process.NewSpawner([]string{"sh", "-c", "true"}).Spawn(context.Background(), missing)
	assert.ErrorIs(t, err, zipstream.ErrNotFound)
	assert.Nil(t, p)
}

func TestSpawner_MissingExecutable(t *testing.T) {
	p, err := process.NewSpawner([]string{"zipstream-no-such-archiver"}).Spawn(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, zipstream.ErrInternal)
	assert.Nil(t, p)
}

func TestSpawner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := process.NewSpawner([]string{"sh", "-c", "true"}).Spawn(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcess_Kill(t *testing.T) {
	requireTool(t, "sleep")

	p, err := process.NewSpawner([]string{"sleep", "30"}).Spawn(context.Background(), t.TempDir())
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	pid := p.(*process.Process).Pid()
	assert.Positive(t, pid)

	readDone := make(chan error, 1)
	go func() {
		_, err := io.ReadAll(p)
		readDone <- err
	}()

	require.NoError(t, p.Kill())
	assert.Equal(t, -1, waitWithTimeout(t, p))

	select {
	case err := <-readDone:
		assert.NoError(t, err, "output must read as EOF once the process is gone")
	case <-time.After(10 * time.Second):
		t.Fatal("read did not return after kill")
	}

	// killing a reaped process is a no-op
	assert.NoError(t, p.Kill())
}

func TestProcess_Close(t *testing.T) {
	requireTool(t, "sh")

	p, err := process.NewSpawner([]string{"sh", "-c", "true"}).Spawn(context.Background(), t.TempDir())
	require.NoError(t, err)

	waitWithTimeout(t, p)
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close(), "Close is idempotent")
}
