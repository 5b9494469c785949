package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/codevhq/codev/internal/crypto"
	"github.com/codevhq/codev/internal/websocket/handlers"
	"github.com/codevhq/codev/pkg/logger"
	"github.com/codevhq/codev/pkg/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced at the HTTP layer.
	},
}

// SimpleServer is a plain WebSocket room gateway (not Socket.IO) for clients
// that cannot speak the Socket.IO protocol. It implements the same
// authentication and room contract as the Socket.IO gateway.
type SimpleServer struct {
	jwtManager *crypto.JWTManager
	blacklist  *crypto.TokenBlacklist
	dispatcher handlers.Dispatcher
	mu         sync.RWMutex
	clients    map[*websocket.Conn]*ClientInfo
	nextID     int
}

// ClientInfo stores information about a connected client.
type ClientInfo struct {
	SocketID string
	UserID   string
	Label    string
	RoomID   string
	Conn     *websocket.Conn
	writeMu  sync.Mutex
}

// Event is a plain WebSocket frame.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// NewSimpleServer creates a plain WebSocket gateway.
func NewSimpleServer(jwtManager *crypto.JWTManager, blacklist *crypto.TokenBlacklist, dispatcher handlers.Dispatcher) *SimpleServer {
	return &SimpleServer{
		jwtManager: jwtManager,
		blacklist:  blacklist,
		dispatcher: dispatcher,
		clients:    make(map[*websocket.Conn]*ClientInfo),
	}
}

// HandleWebSocket upgrades and services one connection.
func (s *SimpleServer) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h := handlers.Handshake{
		Headers: c.Request.Header,
		Query:   c.Request.URL.Query(),
	}

	projectID, token, err := handlers.ValidateHandshake(h)
	if err != nil {
		// Plain WS clients cannot send a Socket.IO auth payload; allow a
		// first frame {type:"auth", data:{token}} before giving up.
		var sockErr *handlers.SocketError
		if errors.As(err, &sockErr) && sockErr.Code == handlers.CodeNoSocketToken {
			h.Auth = s.readAuthFrame(conn)
			projectID, token, err = handlers.ValidateHandshake(h)
		}
		if err != nil {
			s.rejectConn(conn, err)
			return
		}
	}
	if s.blacklist != nil && s.blacklist.IsRevoked(token) {
		s.rejectConn(conn, &handlers.SocketError{Message: "Unauthorized: invalid socket token"})
		return
	}
	if s.jwtManager == nil {
		s.rejectConn(conn, &handlers.SocketError{Message: "Server misconfiguration: JWT secret missing"})
		return
	}
	claims, err := s.jwtManager.VerifyToken(token)
	if err != nil {
		s.rejectConn(conn, &handlers.SocketError{Message: "Unauthorized: invalid socket token"})
		return
	}

	s.mu.Lock()
	s.nextID++
	info := &ClientInfo{
		SocketID: "ws-" + time.Now().Format("150405") + "-" + string(rune('a'+s.nextID%26)),
		UserID:   claims.UserID,
		Label:    claims.Email,
		RoomID:   projectID,
		Conn:     conn,
	}
	if info.Label == "" {
		info.Label = claims.UserID
	}
	s.clients[conn] = info
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	logger.Infof("WebSocket client joined room %s (user: %s)", projectID, info.UserID)

	for {
		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warnf("WebSocket error: %v", err)
			}
			break
		}
		s.handleEvent(info, &event)
	}

	logger.Infof("WebSocket client left room %s (user: %s)", projectID, info.UserID)
}

func (s *SimpleServer) handleEvent(client *ClientInfo, event *Event) {
	switch event.Type {
	case "project-message":
		var payload types.ProjectMessagePayload
		if err := decodeAny(event.Data, &payload); err != nil || payload.Text == "" {
			return
		}
		auth := handlers.NewAuthContext(client.UserID, client.Label, client.SocketID, client.RoomID)
		instructions := handlers.ProjectMessage(context.Background(), s.dispatcher, auth, payload, time.Now())
		s.executeBroadcasts(instructions, client.SocketID)

	default:
		logger.Debugf("Unknown event type: %s", event.Type)
	}
}

func (s *SimpleServer) executeBroadcasts(instructions []handlers.BroadcastInstruction, senderSocketID string) {
	s.mu.RLock()
	members := make([]*ClientInfo, 0, len(s.clients))
	for _, info := range s.clients {
		members = append(members, info)
	}
	s.mu.RUnlock()

	for _, instr := range instructions {
		for _, info := range members {
			if info.RoomID != instr.RoomID() {
				continue
			}
			if instr.Scope() == handlers.ScopeOthers && info.SocketID == senderSocketID {
				continue
			}
			s.writeEvent(info, Event{Type: "project-message", Data: map[string]any{
				"user":      instr.Event().User,
				"message":   instr.Event().Message,
				"timestamp": instr.Event().Timestamp,
			}})
		}
	}
}

// writeEvent serializes writes per connection; send failures drop the frame
// silently (at-most-once delivery).
func (s *SimpleServer) writeEvent(info *ClientInfo, event Event) {
	info.writeMu.Lock()
	defer info.writeMu.Unlock()
	if err := info.Conn.WriteJSON(event); err != nil {
		logger.Tracef("WebSocket write to %s dropped: %v", info.SocketID, err)
	}
}

// readAuthFrame waits briefly for one auth frame and returns its data, or nil.
func (s *SimpleServer) readAuthFrame(conn *websocket.Conn) map[string]any {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	var event Event
	if err := conn.ReadJSON(&event); err != nil || event.Type != "auth" {
		return nil
	}
	return event.Data
}

func (s *SimpleServer) rejectConn(conn *websocket.Conn, err error) {
	payload := types.SocketErrorPayload{Message: err.Error()}
	if sockErr, ok := err.(*handlers.SocketError); ok {
		payload.Code = sockErr.Code
	}
	_ = conn.WriteJSON(Event{Type: "error", Data: map[string]any{
		"message": payload.Message,
		"code":    payload.Code,
	}})
}
