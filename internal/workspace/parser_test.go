package workspace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleWorkspace() Workspace {
	return Workspace{
		Type: TypeWorkspace,
		Files: []FileEntry{
			{Path: "package.json", Language: "json", Content: `{"name":"demo"}`},
			{Path: "src/index.js", Language: "js", Content: "console.log('hi')\n"},
		},
		Readme: "# Demo\n",
	}
}

func TestParseRoundTrip(t *testing.T) {
	raw, err := json.Marshal(sampleWorkspace())
	require.NoError(t, err)

	ws, ok := Parse(string(raw))
	require.True(t, ok)
	require.Equal(t, sampleWorkspace(), ws)
}

func TestParseFencedEqualsUnfenced(t *testing.T) {
	raw, err := json.Marshal(sampleWorkspace())
	require.NoError(t, err)

	plain, ok := Parse(string(raw))
	require.True(t, ok)

	fenced, ok := Parse("```json\n" + string(raw) + "\n```")
	require.True(t, ok)
	require.Equal(t, plain, fenced)

	bare, ok := Parse("```\n" + string(raw) + "\n```")
	require.True(t, ok)
	require.Equal(t, plain, bare)
}

func TestParseReparseIsNoop(t *testing.T) {
	ws, ok := Parse(`{"type":"workspace","files":[{"path":"a.js","content":"x"}]}`)
	require.True(t, ok)

	raw, err := json.Marshal(ws)
	require.NoError(t, err)
	again, ok := Parse(string(raw))
	require.True(t, ok)
	require.Equal(t, ws, again)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"",
		"hello there",
		"{not json",
		`{"type":"message","files":[]}`,
		`{"type":"workspace"}`,
		`["workspace"]`,
		"```\n\n```",
	} {
		_, ok := Parse(raw)
		require.False(t, ok, "input %q should not parse", raw)
	}
}

func TestStripCodeFence(t *testing.T) {
	require.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, StripCodeFence(`{"a":1}`))
	require.Equal(t, "plain text", StripCodeFence("  plain text  "))
}

func TestToTreeNestedPath(t *testing.T) {
	ws := Workspace{
		Type:  TypeWorkspace,
		Files: []FileEntry{{Path: "src/index.js", Content: "x"}},
	}
	tree := ws.ToTree("app")

	node := tree.Lookup("app/src/index.js")
	require.NotNil(t, node)
	require.NotNil(t, node.File)
	require.Equal(t, "x", node.File.Contents)

	dir := tree.Lookup("app/src")
	require.NotNil(t, dir)
	require.NotNil(t, dir.Dir)
}

func TestToTreeDeterministic(t *testing.T) {
	ws := sampleWorkspace()
	require.Equal(t, ws.ToTree("app"), ws.ToTree("app"))
}

func TestToTreeInjectsReadme(t *testing.T) {
	tree := sampleWorkspace().ToTree("app")
	node := tree.Lookup("app/README.md")
	require.NotNil(t, node)
	require.NotNil(t, node.File)
	require.Equal(t, "# Demo\n", node.File.Contents)
}

func TestToTreeSkipsEmptyAndLeadingSlash(t *testing.T) {
	ws := Workspace{
		Type: TypeWorkspace,
		Files: []FileEntry{
			{Path: "", Content: "ignored"},
			{Path: "/index.js", Content: "x"},
		},
	}
	tree := ws.ToTree("")

	root := tree.Lookup(DefaultRoot)
	require.NotNil(t, root)
	require.Len(t, root.Dir, 1)

	node := tree.Lookup(DefaultRoot + "/index.js")
	require.NotNil(t, node)
	require.Equal(t, "x", node.File.Contents)
}
