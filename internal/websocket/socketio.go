package websocket

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/codevhq/codev/internal/crypto"
	"github.com/codevhq/codev/internal/models"
	"github.com/codevhq/codev/internal/websocket/handlers"
	"github.com/codevhq/codev/pkg/logger"
	"github.com/codevhq/codev/pkg/types"
	"github.com/gin-gonic/gin"
	socket "github.com/zishang520/socket.io/servers/socket/v3"
	sockettypes "github.com/zishang520/socket.io/v3/pkg/types"
)

// SocketIOServer is the Socket.IO room gateway: it authenticates incoming
// connections, binds each one to its project room, and relays chat events.
type SocketIOServer struct {
	db         *sql.DB
	queries    *models.Queries
	jwtManager *crypto.JWTManager
	blacklist  *crypto.TokenBlacklist
	dispatcher handlers.Dispatcher
	server     *socket.Server
	socketData sync.Map // socket id -> *SocketData
}

// NewSocketIOServer creates the Socket.IO gateway.
//
// dispatcher may be nil when no generation backend is configured; mention
// messages are then relayed like any other chat message.
func NewSocketIOServer(db *sql.DB, jwtManager *crypto.JWTManager, blacklist *crypto.TokenBlacklist, dispatcher handlers.Dispatcher) *SocketIOServer {
	opts := socket.DefaultServerOptions()

	opts.SetCors(&sockettypes.Cors{
		Origin:      "*",
		Credentials: false,
	})

	// SocketIOPingInterval defines how frequently the server pings clients
	// to detect stale/disconnected sockets.
	const SocketIOPingInterval = 5 * time.Second

	// SocketIOPingTimeout defines how long the server waits before
	// considering a socket dead (no pong received).
	const SocketIOPingTimeout = 15 * time.Second

	opts.SetPingTimeout(SocketIOPingTimeout)
	opts.SetPingInterval(SocketIOPingInterval)
	opts.SetPath("/socket.io")

	server := socket.NewServer(nil, opts)

	s := &SocketIOServer{
		db:         db,
		queries:    models.New(db),
		jwtManager: jwtManager,
		blacklist:  blacklist,
		dispatcher: dispatcher,
		server:     server,
	}

	s.server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		s.handleConnection(client)
	})

	return s
}

// messageEmitter is the subset of *socket.Socket used for room fan-out.
type messageEmitter interface {
	Emit(ev string, args ...any) error
}

// SocketData stores connection metadata for each socket. RoomID is fixed for
// the socket's lifetime; there is no room switching.
type SocketData struct {
	UserID string
	Label  string
	RoomID string
	Socket messageEmitter
}

func decodeAny(input any, out any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// emitToRoom sends the event to every member of the room, optionally
// skipping one socket. Disconnected sockets are skipped silently; delivery
// is at-most-once with no retry.
func (s *SocketIOServer) emitToRoom(roomID string, event types.ProjectMessageEvent, skipSocketID string) {
	s.socketData.Range(func(key, value any) bool {
		sd, ok := value.(*SocketData)
		if !ok {
			return true
		}
		if skipSocketID != "" && key == skipSocketID {
			return true
		}
		if sd.RoomID != roomID || sd.Socket == nil {
			return true
		}
		logger.Tracef("Emitting project-message to socket %v (room %s)", key, roomID)
		sd.Socket.Emit("project-message", event)
		return true
	})
}

// executeBroadcasts applies handler-produced broadcast instructions.
func (s *SocketIOServer) executeBroadcasts(instructions []handlers.BroadcastInstruction, senderSocketID string) {
	for _, instr := range instructions {
		skip := ""
		if instr.Scope() == handlers.ScopeOthers {
			skip = senderSocketID
		}
		s.emitToRoom(instr.RoomID(), instr.Event(), skip)
	}
}

// getSocketData retrieves socket metadata by socket ID.
func (s *SocketIOServer) getSocketData(socketID string) *SocketData {
	if data, ok := s.socketData.Load(socketID); ok {
		if sd, ok := data.(*SocketData); ok {
			return sd
		}
	}
	return &SocketData{}
}

// HandleSocketIO creates a Gin handler for Socket.IO.
func (s *SocketIOServer) HandleSocketIO() gin.HandlerFunc {
	httpHandler := s.server.ServeHandler(nil)

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.Status(http.StatusOK)
			return
		}

		logger.Tracef("Socket.IO request: %s %s", c.Request.Method, c.Request.URL.Path)
		httpHandler.ServeHTTP(c.Writer, c.Request)
	}
}

// Close shuts down the Socket.IO server.
func (s *SocketIOServer) Close() error {
	s.server.Close(nil)
	return nil
}
