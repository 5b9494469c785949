// Package sandbox materializes workspaces into an isolated execution
// environment and runs them, streaming process output back to the caller.
package sandbox

import (
	"context"

	"github.com/codevhq/codev/internal/workspace"
)

// Chunk is the normalized unit of process output crossing the container
// boundary: either decoded text or a raw byte sequence. Transports must
// produce one of the two; the decoder turns both into UTF-8 text.
type Chunk struct {
	Text  string
	Bytes []byte
}

// Process is a spawned command inside a container.
type Process interface {
	// Output streams combined stdout/stderr. The channel closes when the
	// process exits or is killed.
	Output() <-chan Chunk
	// Kill terminates the process. Killing an exited process is a no-op.
	Kill() error
}

// FS is the container filesystem surface.
type FS interface {
	// Mkdir creates a directory. Creating an existing directory is not an
	// error.
	Mkdir(path string) error
	WriteFile(path string, contents string) error
	ReadFile(path string) (string, error)
}

// Container is an isolated execution environment.
type Container interface {
	FS() FS
	// Spawn starts a command with arguments inside the container.
	Spawn(ctx context.Context, command string, args ...string) (Process, error)
	// Dispose tears the container down and releases its resources.
	Dispose() error
}

// Mounter is the optional bulk-mount capability. Containers that implement it
// can take a whole file tree in one call.
type Mounter interface {
	Mount(tree workspace.Tree) error
}
