// Package process runs archiver subprocesses for zipstream.
//
// The archiver's standard output is connected through an os.Pipe owned by the
// Process rather than exec.Cmd.StdoutPipe, so the process can be reaped in the
// background while its output is still being read. Standard error is
// discarded.
package process

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"sync"

	"github.com/sagarc03/zipstream"
)

// DefaultCommand archives the working directory recursively to standard output.
var DefaultCommand = []string{"zip", "-r", "-", "."}

// Spawner starts a fixed command in a per-call working directory.
type Spawner struct {
	command []string
}

// NewSpawner creates a Spawner for the given argv. An empty command falls
// back to DefaultCommand.
func NewSpawner(command []string) *Spawner {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &Spawner{command: append([]string(nil), command...)}
}

// Spawn starts the command with dir as its working directory. A missing dir
// is reported as zipstream.ErrNotFound; a missing executable as
// zipstream.ErrInternal.
func (s *Spawner) Spawn(ctx context.Context, dir string) (zipstream.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("spawn: %w", err)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("spawn: create pipe: %w", err)
	}

	cmd := exec.Command(s.command[0], s.command[1:]...) //nolint:gosec // command comes from trusted config
	cmd.Dir = dir
	cmd.Stdout = pw

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, classifyStartError(s.command[0], dir, err)
	}

	// The child holds its own copy of the write end.
	_ = pw.Close()

	p := &Process{
		cmd:    cmd,
		stdout: pr,
		done:   make(chan struct{}),
	}
	go p.reap()

	return p, nil
}

func classifyStartError(name, dir string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Op == "chdir" && errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("spawn in %s: %w", dir, zipstream.ErrNotFound)
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("spawn %s: %w: %w", name, zipstream.ErrInternal, err)
	}

	return fmt.Errorf("spawn %s: %w", name, err)
}

// Process is a started archiver. It implements zipstream.Process.
type Process struct {
	cmd    *exec.Cmd
	stdout *os.File
	done   chan struct{}

	exitCode int
	waitErr  error

	closeOnce sync.Once
	closeErr  error
}

func (p *Process) reap() {
	err := p.cmd.Wait()
	p.exitCode = p.cmd.ProcessState.ExitCode()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		p.waitErr = err
	}

	close(p.done)
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *Process) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Kill sends SIGKILL to the process. Killing an already reaped process is a
// no-op.
func (p *Process) Kill() error {
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (p *Process) Wait() (int, error) {
	<-p.done
	return p.exitCode, p.waitErr
}

func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.stdout.Close()
	})
	return p.closeErr
}
