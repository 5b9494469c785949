package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func TestHasMentionCaseCombinations(t *testing.T) {
	for _, text := range []string{
		"@ai build a server",
		"@AI build a server",
		"@Ai build a server",
		"@aI build a server",
		"please @AI make it so",
	} {
		require.True(t, HasMention(text), "text %q", text)
	}

	for _, text := range []string{
		"hello there",
		"email me at x@ai.example.com", // no trailing space after token
		"",
	} {
		require.False(t, HasMention(text), "text %q", text)
	}
}

func TestExtractPromptStripsAllOccurrences(t *testing.T) {
	prompt, err := ExtractPrompt("@AI build @ai a hello world server")
	require.NoError(t, err)
	require.Equal(t, "build a hello world server", prompt)
}

func TestExtractPromptEmpty(t *testing.T) {
	_, err := ExtractPrompt("@ai ")
	require.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = ExtractPrompt("@AI @ai   ")
	require.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestDispatchNoMention(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	d := NewDispatcher(gen)

	_, dispatched := d.Dispatch(context.Background(), "just chatting")
	require.False(t, dispatched)
	require.Empty(t, gen.prompts)
}

func TestDispatchSuccess(t *testing.T) {
	gen := &fakeGenerator{reply: `{"type":"workspace","files":[]}`}
	d := NewDispatcher(gen)

	res, dispatched := d.Dispatch(context.Background(), "@AI build a hello world server")
	require.True(t, dispatched)
	require.True(t, res.Success)
	require.Equal(t, gen.reply, res.Result)
	require.Equal(t, []string{"build a hello world server"}, gen.prompts)
}

func TestDispatchEmptyPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	d := NewDispatcher(gen)

	res, dispatched := d.Dispatch(context.Background(), "@ai ")
	require.True(t, dispatched)
	require.False(t, res.Success)
	require.NotEmpty(t, res.Error)
	require.Empty(t, gen.prompts)
}

func TestDispatchBackendFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	d := NewDispatcher(gen)

	res, dispatched := d.Dispatch(context.Background(), "@ai do a thing")
	require.True(t, dispatched)
	require.False(t, res.Success)
	require.Contains(t, res.Error, "quota exceeded")
}
