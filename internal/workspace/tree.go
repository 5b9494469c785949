package workspace

import "strings"

// Node is a single entry in a file tree: exactly one of File or Dir is set.
type Node struct {
	File *File
	Dir  Dir
}

// File holds file contents.
type File struct {
	Contents string
}

// Dir maps segment names to child nodes.
type Dir map[string]*Node

// Tree is the top-level mapping from root directory names to nodes. A
// converted workspace always has a single root directory.
type Tree Dir

// DefaultRoot is the root directory name used when materializing a workspace.
const DefaultRoot = "app"

// ToTree converts the workspace into a nested file tree under the given root
// directory. Conversion is deterministic: path segments become directory
// nodes, the final segment becomes a file node, and a non-empty readme is
// injected as README.md at the root.
func (w Workspace) ToTree(rootName string) Tree {
	if rootName == "" {
		rootName = DefaultRoot
	}

	root := &Node{Dir: Dir{}}
	tree := Tree{rootName: root}

	for _, f := range w.Files {
		path := strings.TrimLeft(f.Path, "/")
		if path == "" {
			continue
		}
		segments := strings.Split(path, "/")
		cur := root.Dir
		for i, seg := range segments {
			if i == len(segments)-1 {
				cur[seg] = &Node{File: &File{Contents: f.Content}}
				continue
			}
			child, ok := cur[seg]
			if !ok || child.Dir == nil {
				child = &Node{Dir: Dir{}}
				cur[seg] = child
			}
			cur = child.Dir
		}
	}

	if w.Readme != "" {
		root.Dir["README.md"] = &Node{File: &File{Contents: w.Readme}}
	}

	return tree
}

// Lookup resolves a slash-separated path (including the root segment) to a
// node, or nil when absent.
func (t Tree) Lookup(path string) *Node {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 {
		return nil
	}

	node, ok := t[segments[0]]
	if !ok {
		return nil
	}
	for _, seg := range segments[1:] {
		if node.Dir == nil {
			return nil
		}
		node, ok = node.Dir[seg]
		if !ok {
			return nil
		}
	}
	return node
}
