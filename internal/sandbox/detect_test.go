package sandbox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestURLDetectorFindsAndResets(t *testing.T) {
	var d URLDetector

	url, ok := d.Feed("Server listening\n")
	require.False(t, ok)
	require.Empty(t, url)

	url, ok = d.Feed("http://localhost:5173/\n")
	require.True(t, ok)
	require.Equal(t, "http://localhost:5173/", url)

	// Buffer reset: the same text is not re-reported.
	url, ok = d.Feed("more logs\n")
	require.False(t, ok)
	require.Empty(t, url)
}

func TestURLDetectorAccumulatesAcrossChunks(t *testing.T) {
	var d URLDetector

	url, ok := d.Feed("listening on ")
	require.False(t, ok)
	require.Empty(t, url)

	url, ok = d.Feed("http://127.0.0.1:8080\n")
	require.True(t, ok)
	require.Equal(t, "http://127.0.0.1:8080", url)
}

func TestURLDetectorSecondDetectionAfterReset(t *testing.T) {
	var d URLDetector

	url, ok := d.Feed("http://localhost:3000\n")
	require.True(t, ok)
	require.Equal(t, "http://localhost:3000", url)

	url, ok = d.Feed("restarted at http://localhost:4000\n")
	require.True(t, ok)
	require.Equal(t, "http://localhost:4000", url)
}

func TestDetectServerURLBareHostPort(t *testing.T) {
	url, ok := detectServerURL("listening on localhost:3000")
	require.True(t, ok)
	require.Equal(t, "http://localhost:3000", url)

	url, ok = detectServerURL("bound to 127.0.0.1:9999")
	require.True(t, ok)
	require.Equal(t, "http://127.0.0.1:9999", url)
}

func TestDetectServerURLNoMatch(t *testing.T) {
	_, ok := detectServerURL("compiling modules...")
	require.False(t, ok)
}
