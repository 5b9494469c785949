package workspace

import (
	"encoding/json"
	"strings"
)

// StripCodeFence removes a single leading/trailing triple-backtick fence, if
// present. The opening fence may carry a language tag ("```json").
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop the language tag up to the first newline.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		// Fence with no body.
		s = strings.TrimSuffix(s, "```")
		return strings.TrimSpace(s)
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Parse turns a raw generation reply into a Workspace.
//
// It never fails loudly: malformed input, non-JSON text, or JSON lacking the
// workspace tag and a files array all return ok=false so callers degrade to
// rendering the reply as plain text.
func Parse(raw string) (Workspace, bool) {
	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return Workspace{}, false
	}

	var ws Workspace
	if err := json.Unmarshal([]byte(cleaned), &ws); err != nil {
		return Workspace{}, false
	}
	if ws.Type != TypeWorkspace || ws.Files == nil {
		return Workspace{}, false
	}
	return ws, true
}
