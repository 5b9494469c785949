package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/codevhq/codev/internal/workspace"
	"github.com/codevhq/codev/pkg/logger"
)

// ErrRunActive is returned when a run is started while another is active.
// Runs are not queued; callers serialize them.
var ErrRunActive = errors.New("a run is already active")

// ErrInstallActive is returned when an install step overlaps another.
var ErrInstallActive = errors.New("an install is already active")

// BootFunc lazily creates the container on first need.
type BootFunc func(ctx context.Context) (Container, error)

// RunConfig carries the output sinks for a run.
type RunConfig struct {
	// Logs receives decoded process output and runner status lines,
	// append-only.
	Logs func(text string)
	// OnPreview receives each detected server URL exactly once per
	// detection.
	OnPreview func(url string)
}

// Runner owns a per-session sandbox container: lazily booted, reused across
// runs, explicitly destroyed by Stop. At most one run and one install are
// active at a time.
type Runner struct {
	boot BootFunc

	mu         sync.Mutex
	container  Container
	runProc    Process
	running    bool
	installing bool
}

// NewRunner creates a runner that boots its container on first use.
func NewRunner(boot BootFunc) *Runner {
	return &Runner{boot: boot}
}

const installCommand = `(pnpm install --no-frozen-lockfile || npm install --no-audit --no-fund)`

// Run materializes the tree into the sandbox, installs dependencies when a
// package manifest is present, starts the workspace and streams its output.
//
// Run returns once the start command is spawned; streaming continues in the
// background until the process exits or Stop is called. Install failures are
// reported to the log sink and do not abort the run.
func (r *Runner) Run(ctx context.Context, tree workspace.Tree, cfg RunConfig) error {
	logs := cfg.Logs
	if logs == nil {
		logs = func(string) {}
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrRunActive
	}
	r.running = true
	r.mu.Unlock()

	ok := false
	defer func() {
		if !ok {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
		}
	}()

	container, err := r.acquire(ctx)
	if err != nil {
		logs("Failed to boot sandbox: " + err.Error() + "\n")
		return err
	}

	root := treeRoot(tree)
	if root == "" {
		return errors.New("empty workspace tree")
	}

	logs("Writing workspace to container...\n")
	res, err := NewMaterializer(container).WriteTree(tree)
	if err != nil {
		logs("Write failed: " + err.Error() + "\n")
		return err
	}
	logs("Workspace written (" + res.Method + ")\n")

	hasManifest := tree.Lookup(root+"/package.json") != nil
	if hasManifest {
		logs("Installing dependencies...\n")
		if err := r.install(ctx, container, root, logs); err != nil {
			logs("Dependency install failed (continuing): " + err.Error() + "\n")
		}
	}

	runCommand := r.resolveRunCommand(container, root, hasManifest)
	logs("Starting: " + runCommand + "\n")

	proc, err := container.Spawn(ctx, "sh", "-lc", runCommand)
	if err != nil {
		logs("Failed to start: " + err.Error() + "\n")
		return err
	}

	r.mu.Lock()
	r.runProc = proc
	r.mu.Unlock()

	go r.stream(proc, cfg)

	ok = true
	return nil
}

// install runs the dependency install command and drains its output into the
// log sink. It returns when the install process exits.
func (r *Runner) install(ctx context.Context, container Container, root string, logs func(string)) error {
	r.mu.Lock()
	if r.installing {
		r.mu.Unlock()
		return ErrInstallActive
	}
	r.installing = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.installing = false
		r.mu.Unlock()
	}()

	proc, err := container.Spawn(ctx, "sh", "-lc", fmt.Sprintf("cd %s && %s", root, installCommand))
	if err != nil {
		return err
	}
	for chunk := range proc.Output() {
		logs(DecodeChunk(chunk))
	}
	return nil
}

// resolveRunCommand prefers the manifest's start script over the default
// interpreter invocation.
func (r *Runner) resolveRunCommand(container Container, root string, hasManifest bool) string {
	runCommand := fmt.Sprintf("cd %s && node index.js", root)
	if !hasManifest {
		return runCommand
	}

	raw, err := container.FS().ReadFile(root + "/package.json")
	if err != nil {
		return runCommand
	}
	var manifest struct {
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal([]byte(raw), &manifest); err != nil {
		return runCommand
	}
	if _, ok := manifest.Scripts["start"]; ok {
		runCommand = fmt.Sprintf("cd %s && npm run start", root)
	}
	return runCommand
}

// stream decodes run output into the log sink and scans it for a server URL.
func (r *Runner) stream(proc Process, cfg RunConfig) {
	var detector URLDetector
	for chunk := range proc.Output() {
		text := DecodeChunk(chunk)
		if cfg.Logs != nil {
			cfg.Logs(text)
		}
		if url, ok := detector.Feed(text); ok && cfg.OnPreview != nil {
			cfg.OnPreview(url)
		}
	}

	r.mu.Lock()
	if r.runProc == proc {
		r.runProc = nil
		r.running = false
	}
	r.mu.Unlock()
}

// Stop kills the active run and disposes the container, swallowing errors
// from both steps. The cached container reference is cleared so a subsequent
// run boots fresh.
func (r *Runner) Stop() {
	r.mu.Lock()
	proc := r.runProc
	container := r.container
	r.runProc = nil
	r.container = nil
	r.running = false
	r.mu.Unlock()

	if proc != nil {
		if err := proc.Kill(); err != nil {
			logger.Debugf("sandbox kill failed: %v", err)
		}
	}
	if container != nil {
		if err := container.Dispose(); err != nil {
			logger.Debugf("sandbox dispose failed: %v", err)
		}
	}
}

// acquire returns the cached container, booting one on first use.
func (r *Runner) acquire(ctx context.Context) (Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.container != nil {
		return r.container, nil
	}
	container, err := r.boot(ctx)
	if err != nil {
		return nil, err
	}
	r.container = container
	return container, nil
}

// treeRoot returns the single root directory name of a converted workspace
// tree.
func treeRoot(tree workspace.Tree) string {
	for name := range tree {
		return name
	}
	return ""
}
