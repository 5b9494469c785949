package handlers

// AuthContext identifies the authenticated session behind an event.
type AuthContext struct {
	userID   string
	label    string
	socketID string
	roomID   string
}

// NewAuthContext builds an auth context for handler calls.
func NewAuthContext(userID, label, socketID, roomID string) AuthContext {
	return AuthContext{userID: userID, label: label, socketID: socketID, roomID: roomID}
}

// UserID returns the authenticated user id.
func (a AuthContext) UserID() string { return a.userID }

// Label returns the display label used as the message author (the user's
// email).
func (a AuthContext) Label() string { return a.label }

// SocketID returns the originating socket id.
func (a AuthContext) SocketID() string { return a.socketID }

// RoomID returns the room the session is bound to.
func (a AuthContext) RoomID() string { return a.roomID }
