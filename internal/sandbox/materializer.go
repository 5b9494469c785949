package sandbox

import (
	"fmt"
	"sort"

	"github.com/codevhq/codev/internal/workspace"
)

// Write methods reported by the materializer.
const (
	MethodMount     = "mount"
	MethodWriteFile = "writeFile"
)

// WriteResult reports how a tree was materialized. Method is always set on
// success; a failed materialization returns an error instead, never a partial
// silent success.
type WriteResult struct {
	Method string
}

// Materializer writes file trees into a container. The write strategy is
// picked once at construction from the container's capabilities: bulk mount
// when available, recursive per-file writes otherwise.
type Materializer struct {
	fs      FS
	mounter Mounter
}

// NewMaterializer builds a materializer for the container.
func NewMaterializer(c Container) *Materializer {
	m := &Materializer{fs: c.FS()}
	if mounter, ok := c.(Mounter); ok {
		m.mounter = mounter
	}
	return m
}

// WriteTree materializes the tree into the container. Mount-capable
// containers get one bulk mount; when the mount fails or the capability is
// absent, the tree is written file by file, creating parent directories
// first. Already-existing directories are tolerated.
func (m *Materializer) WriteTree(tree workspace.Tree) (WriteResult, error) {
	if m.mounter != nil {
		if err := m.mounter.Mount(tree); err == nil {
			return WriteResult{Method: MethodMount}, nil
		}
		// Mount failed; fall back to per-file writes.
	}

	if m.fs == nil {
		return WriteResult{}, fmt.Errorf("container exposes no filesystem")
	}

	for _, rootName := range sortedKeys(workspace.Dir(tree)) {
		node := tree[rootName]
		if err := m.fs.Mkdir(rootName); err != nil {
			return WriteResult{}, fmt.Errorf("mkdir %s: %w", rootName, err)
		}
		if err := m.writeNode(rootName, node); err != nil {
			return WriteResult{}, err
		}
	}
	return WriteResult{Method: MethodWriteFile}, nil
}

func (m *Materializer) writeNode(path string, node *workspace.Node) error {
	if node == nil {
		return nil
	}
	if node.File != nil {
		if err := m.fs.WriteFile(path, node.File.Contents); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}
	for _, name := range sortedKeys(node.Dir) {
		child := node.Dir[name]
		childPath := path + "/" + name
		if child.Dir != nil {
			if err := m.fs.Mkdir(childPath); err != nil {
				return fmt.Errorf("mkdir %s: %w", childPath, err)
			}
		}
		if err := m.writeNode(childPath, child); err != nil {
			return err
		}
	}
	return nil
}

// sortedKeys keeps write order deterministic across runs.
func sortedKeys(d workspace.Dir) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
