package sandbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/codevhq/codev/pkg/logger"
)

// LocalContainer is a Container backed by a scratch directory on the host
// filesystem. It is the sandbox used by the terminal client; commands run
// with the scratch directory as working directory.
type LocalContainer struct {
	rootDir string
	fs      *localFS
}

// BootLocal creates a local container in a fresh temp directory.
func BootLocal(ctx context.Context) (Container, error) {
	dir, err := os.MkdirTemp("", "codev-sandbox-")
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox dir: %w", err)
	}
	logger.Debugf("local sandbox at %s", dir)
	return &LocalContainer{rootDir: dir, fs: &localFS{base: dir}}, nil
}

// FS returns the container filesystem rooted at the scratch directory.
func (c *LocalContainer) FS() FS { return c.fs }

// Spawn starts a command inside the container.
func (c *LocalContainer) Spawn(ctx context.Context, command string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = c.rootDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", command, err)
	}

	p := &localProcess{
		cmd:    cmd,
		output: make(chan Chunk, 64),
	}
	go p.pump(stdout, stderr)
	return p, nil
}

// Dispose removes the scratch directory.
func (c *LocalContainer) Dispose() error {
	return os.RemoveAll(c.rootDir)
}

type localFS struct {
	base string
}

func (f *localFS) resolve(path string) string {
	return filepath.Join(f.base, filepath.FromSlash(path))
}

func (f *localFS) Mkdir(path string) error {
	// MkdirAll tolerates existing directories.
	return os.MkdirAll(f.resolve(path), 0o755)
}

func (f *localFS) WriteFile(path string, contents string) error {
	full := f.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(contents), 0o644)
}

func (f *localFS) ReadFile(path string) (string, error) {
	b, err := os.ReadFile(f.resolve(path))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type localProcess struct {
	cmd    *exec.Cmd
	output chan Chunk

	killOnce sync.Once
	killErr  error
}

// pump copies both output streams into the chunk channel and closes it when
// the process exits.
func (p *localProcess) pump(stdout, stderr io.Reader) {
	var wg sync.WaitGroup
	for _, r := range []io.Reader{stdout, stderr} {
		wg.Add(1)
		go func(r io.Reader) {
			defer wg.Done()
			buf := make([]byte, 4096)
			for {
				n, err := r.Read(buf)
				if n > 0 {
					chunk := make([]byte, n)
					copy(chunk, buf[:n])
					p.output <- Chunk{Bytes: chunk}
				}
				if err != nil {
					return
				}
			}
		}(r)
	}
	wg.Wait()
	if err := p.cmd.Wait(); err != nil {
		logger.Tracef("sandbox process exited: %v", err)
	}
	close(p.output)
}

func (p *localProcess) Output() <-chan Chunk { return p.output }

func (p *localProcess) Kill() error {
	p.killOnce.Do(func() {
		if p.cmd.Process != nil {
			p.killErr = p.cmd.Process.Kill()
		}
	})
	return p.killErr
}
