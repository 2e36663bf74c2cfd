package process

import (
	"context"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sync"

	"github.com/Iron-Ham/uccibridge/internal/errors"
)

// ExecSpawner launches engines with os/exec.
type ExecSpawner struct{}

// Spawn resolves spec.Path, connects pipes to the child's standard input
// and output, and starts it. The child is not bound to ctx: an engine
// outlives the call that started it.
func (ExecSpawner) Spawn(ctx context.Context, spec Spec) (Process, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, errors.NewStartError(errors.StartSpawnFailed, spec.Path, ctx.Err())
	default:
	}

	path, err := exec.LookPath(spec.Path)
	if err != nil {
		return nil, errors.NewStartError(classifyStartError(err), spec.Path, err)
	}

	cmd := exec.Command(path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stderr = spec.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.NewStartError(errors.StartPipeFailed, path, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, errors.NewStartError(errors.StartPipeFailed, path, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.NewStartError(classifyStartError(err), path, err)
	}

	return &execProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
	}, nil
}

func classifyStartError(err error) errors.StartErrorKind {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, exec.ErrDot):
		return errors.StartNotFound
	case errors.Is(err, fs.ErrPermission):
		return errors.StartPermissionDenied
	default:
		return errors.StartSpawnFailed
	}
}

// execProcess is a Process backed by an *exec.Cmd.
type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	waitOnce sync.Once
	waitErr  error
}

func (p *execProcess) Stdin() io.Writer  { return p.stdin }
func (p *execProcess) Stdout() io.Reader { return p.stdout }

func (p *execProcess) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *execProcess) CloseInput() error {
	return ignoreClosed(p.stdin.Close())
}

// CloseOutput closes the parent's read end of the stdout pipe. The pipe
// is pollable, so a concurrent Read returns os.ErrClosed.
func (p *execProcess) CloseOutput() error {
	return ignoreClosed(p.stdout.Close())
}

func (p *execProcess) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
	})
	return p.waitErr
}

func ignoreClosed(err error) error {
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

// Ensure execProcess implements Process.
var _ Process = (*execProcess)(nil)

// Ensure ExecSpawner implements Spawner.
var _ Spawner = ExecSpawner{}
