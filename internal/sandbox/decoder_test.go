package sandbox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEquivalentShapes(t *testing.T) {
	const want = "Server running on port 3000\n"
	raw := []byte(want)

	ints := make([]int, len(raw))
	anys := make([]any, len(raw))
	for i, b := range raw {
		ints[i] = int(b)
		anys[i] = float64(b)
	}

	require.Equal(t, want, Decode(want))
	require.Equal(t, want, Decode(raw))
	require.Equal(t, want, Decode(ints))
	require.Equal(t, want, Decode(anys))
	require.Equal(t, want, Decode(Chunk{Text: want}))
	require.Equal(t, want, Decode(Chunk{Bytes: raw}))
}

func TestDecodeNil(t *testing.T) {
	require.Equal(t, "", Decode(nil))
}

func TestDecodeInvalidUTF8(t *testing.T) {
	out := Decode([]byte{0xff, 'o', 'k'})
	require.Contains(t, out, "ok")
	require.True(t, len(out) > 2)
}

func TestDecodeUTF8Multibyte(t *testing.T) {
	const want = "héllo → wörld"
	require.Equal(t, want, Decode([]byte(want)))
}
