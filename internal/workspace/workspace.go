// Package workspace models the multi-file project description produced by the
// AI generation backend and turns raw model replies into validated structures.
package workspace

// TypeWorkspace is the tag a generation reply must carry to be treated as a
// workspace.
const TypeWorkspace = "workspace"

// FileEntry is a single generated file.
//
// Path is slash-separated with no leading slash; directories are inferred by
// splitting it.
type FileEntry struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
}

// Workspace is the structured multi-file project produced by the generation
// backend.
type Workspace struct {
	Type   string      `json:"type"`
	Files  []FileEntry `json:"files"`
	Readme string      `json:"readme,omitempty"`
}
