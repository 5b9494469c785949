package handlers

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Socket rejection codes surfaced to clients alongside the error message.
const (
	CodeInvalidProjectID = "INVALID_PROJECT_ID"
	CodeNoSocketToken    = "NO_SOCKET_TOKEN"
)

// SocketError is a connection rejection with a machine-readable code.
type SocketError struct {
	Code    string
	Message string
}

func (e *SocketError) Error() string { return e.Message }

// Handshake carries the raw connection-attempt material the credential
// sources draw from.
type Handshake struct {
	// Auth is the handshake auth payload (may be nil).
	Auth map[string]any
	// Headers are the HTTP headers of the handshake request.
	Headers map[string][]string
	// Query are the handshake query parameters.
	Query map[string][]string
}

// CredentialSource extracts an optional bearer credential from a handshake.
type CredentialSource func(h Handshake) (string, bool)

// credentialSources is the fixed priority order: explicit auth payload field,
// Authorization header, then the token cookie. First present wins.
var credentialSources = []CredentialSource{
	authPayloadToken,
	authorizationHeaderToken,
	cookieToken,
}

// ResolveCredential walks the credential sources in priority order.
func ResolveCredential(h Handshake) (string, bool) {
	for _, source := range credentialSources {
		if token, ok := source(h); ok {
			return token, true
		}
	}
	return "", false
}

func authPayloadToken(h Handshake) (string, bool) {
	if h.Auth == nil {
		return "", false
	}
	token, _ := h.Auth["token"].(string)
	return token, token != ""
}

func authorizationHeaderToken(h Handshake) (string, bool) {
	value := headerValue(h.Headers, "Authorization")
	if !strings.HasPrefix(value, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(value, "Bearer ")
	return token, token != ""
}

func cookieToken(h Handshake) (string, bool) {
	cookies := parseCookies(headerValue(h.Headers, "Cookie"))
	token := cookies["token"]
	return token, token != ""
}

// ValidateHandshake resolves the project id and bearer credential from a
// handshake. Both failures carry a machine-readable code.
func ValidateHandshake(h Handshake) (projectID, token string, err error) {
	projectID = queryValue(h.Query, "projectId")
	if _, parseErr := uuid.Parse(projectID); parseErr != nil {
		return "", "", &SocketError{Code: CodeInvalidProjectID, Message: "Invalid project ID"}
	}

	token, ok := ResolveCredential(h)
	if !ok {
		return "", "", &SocketError{Code: CodeNoSocketToken, Message: "Unauthorized: socket token not found"}
	}

	return projectID, token, nil
}

// headerValue returns the first header value for name, case-insensitively.
func headerValue(headers map[string][]string, name string) string {
	for key, values := range headers {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// queryValue returns the first query value for name.
func queryValue(query map[string][]string, name string) string {
	if values, ok := query[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// parseCookies parses a Cookie header value into a name -> value map.
func parseCookies(header string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			continue
		}
		value := pair[idx+1:]
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		cookies[pair[:idx]] = value
	}
	return cookies
}
