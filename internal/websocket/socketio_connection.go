package websocket

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/codevhq/codev/internal/websocket/handlers"
	"github.com/codevhq/codev/pkg/logger"
	"github.com/codevhq/codev/pkg/types"
	socket "github.com/zishang520/socket.io/servers/socket/v3"
)

func (s *SocketIOServer) handleConnection(client *socket.Socket) {
	socketID := string(client.Id())

	logger.Infof("Socket.IO connection attempt (socket ID: %s)", socketID)

	handshake := client.Handshake()
	h := handlers.Handshake{
		Auth:    handshake.Auth,
		Headers: handshake.Headers.Header(),
		Query:   handshake.Query.Query(),
	}

	projectID, token, err := handlers.ValidateHandshake(h)
	if err != nil {
		s.reject(client, socketID, err)
		return
	}

	if s.blacklist != nil && s.blacklist.IsRevoked(token) {
		s.reject(client, socketID, errors.New("Unauthorized: invalid socket token"))
		return
	}

	if s.jwtManager == nil {
		// Unconfigured secret: no partial session, ever.
		s.reject(client, socketID, errors.New("Server misconfiguration: JWT secret missing"))
		return
	}

	claims, err := s.jwtManager.VerifyToken(token)
	if err != nil {
		logger.Warnf("Socket.IO invalid token (socket %s): %v", socketID, err)
		s.reject(client, socketID, errors.New("Unauthorized: invalid socket token"))
		return
	}

	// Project lookup is not fatal here; downstream consumers re-check.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if _, err := s.queries.GetProjectByID(ctx, projectID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Warnf("Project lookup failed for %s: %v", projectID, err)
	}
	cancel()

	// The session is bound to exactly one room for its lifetime.
	sd := &SocketData{
		UserID: claims.UserID,
		Label:  claims.Email,
		RoomID: projectID,
		Socket: client,
	}
	if sd.Label == "" {
		sd.Label = claims.UserID
	}
	s.socketData.Store(socketID, sd)

	logger.Infof("Socket.IO client joined room %s (user: %s)", projectID, sd.UserID)

	s.registerClientHandlers(client, socketID)

	client.On("disconnect", func(...any) {
		s.socketData.Delete(socketID)
		logger.Infof("Socket.IO client left room %s (socket: %s)", projectID, socketID)
	})
}

// reject emits an error payload and drops the connection. No partial session
// is created.
func (s *SocketIOServer) reject(client *socket.Socket, socketID string, err error) {
	payload := types.SocketErrorPayload{Message: err.Error()}
	var sockErr *handlers.SocketError
	if errors.As(err, &sockErr) {
		payload.Code = sockErr.Code
	}
	logger.Warnf("Socket.IO connection rejected (socket %s): %s", socketID, err.Error())
	client.Emit("error", payload)
	client.Disconnect(true)
}

func (s *SocketIOServer) registerClientHandlers(client *socket.Socket, socketID string) {
	// project-message: evaluate the AI dispatcher, then relay to the rest
	// of the room. Events from one socket are handled to completion in
	// order; the generation call happens inline.
	client.On("project-message", func(data ...any) {
		sd := s.getSocketData(socketID)
		if sd.RoomID == "" {
			return
		}
		if len(data) == 0 {
			return
		}

		var payload types.ProjectMessagePayload
		if err := decodeAny(data[0], &payload); err != nil {
			logger.Warnf("project-message decode error: %v (type=%T)", err, data[0])
			return
		}
		if payload.Text == "" {
			return
		}

		logger.Tracef("project-message from %s in room %s", sd.UserID, sd.RoomID)

		auth := handlers.NewAuthContext(sd.UserID, sd.Label, socketID, sd.RoomID)
		instructions := handlers.ProjectMessage(context.Background(), s.dispatcher, auth, payload, time.Now())
		s.executeBroadcasts(instructions, socketID)
	})
}
