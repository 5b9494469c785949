package sandbox

import (
	"regexp"
	"strings"
)

var (
	urlPattern      = regexp.MustCompile(`(?i)https?://[^\s/]+(?:/[^\s]*)?`)
	hostPortPattern = regexp.MustCompile(`(?i)(?:127\.0\.0\.1|localhost):\d+`)
)

// maxDetectBuffer caps the sliding buffer so an unmatched stream cannot grow
// without bound. URLs never span more than a couple of log lines.
const maxDetectBuffer = 64 * 1024

// URLDetector scans accumulated process output for an embedded server URL.
//
// Feed appends decoded text to a sliding buffer and reports the first match;
// the buffer resets after each report so one announcement yields one
// detection.
type URLDetector struct {
	buf strings.Builder
}

// Feed appends text and returns a detected URL, if any.
func (d *URLDetector) Feed(text string) (string, bool) {
	d.buf.WriteString(text)
	s := d.buf.String()

	if url, ok := detectServerURL(s); ok {
		d.buf.Reset()
		return url, true
	}

	if d.buf.Len() > maxDetectBuffer {
		// Keep the tail; a URL split across the boundary is unlikely but a
		// runaway buffer is worse.
		tail := s[len(s)-maxDetectBuffer/2:]
		d.buf.Reset()
		d.buf.WriteString(tail)
	}
	return "", false
}

// detectServerURL extracts the first server URL from text, recognizing full
// http(s) URLs and bare localhost/127.0.0.1 host:port forms.
func detectServerURL(text string) (string, bool) {
	if m := urlPattern.FindString(text); m != "" {
		return strings.TrimRight(m, `.,;'")]`), true
	}
	if m := hostPortPattern.FindString(text); m != "" {
		return "http://" + m, true
	}
	return "", false
}
