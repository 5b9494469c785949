package types

// Common response types

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SocketAuthPayload is the Socket.IO handshake auth object sent by clients.
type SocketAuthPayload struct {
	Token string `json:"token"`
}

// SocketErrorPayload is emitted to a client before a connection is rejected.
type SocketErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ProjectMessagePayload is the client -> server "project-message" event body.
type ProjectMessagePayload struct {
	Text   string `json:"text"`
	Sender string `json:"sender,omitempty"`
	Author string `json:"author,omitempty"`
}

// ProjectMessageEvent is the server -> client "project-message" event body.
//
// User is the author label ("AI" for assistant replies), Timestamp is
// milliseconds since epoch.
type ProjectMessageEvent struct {
	User      string `json:"user"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Sender kinds carried in client-side message logs.
const (
	SenderHuman     = "human"
	SenderAssistant = "assistant"
)
