package client

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/codevhq/codev/pkg/logger"
	"github.com/codevhq/codev/pkg/types"
	socket "github.com/zishang520/socket.io/clients/socket/v3"
	sockettypes "github.com/zishang520/socket.io/v3/pkg/types"
)

// MessageHandler receives room chat events.
type MessageHandler func(types.ProjectMessageEvent)

// ErrorHandler receives server-side rejection payloads.
type ErrorHandler func(types.SocketErrorPayload)

// Client is a Socket.IO client bound to one project room.
type Client struct {
	serverURL string
	token     string
	projectID string

	socket    *socket.Socket
	mu        sync.RWMutex
	onMessage MessageHandler
	onError   ErrorHandler
	connected bool
}

// New creates a room client. Connect must be called before use.
func New(serverURL, token, projectID string) *Client {
	return &Client{
		serverURL: serverURL,
		token:     token,
		projectID: projectID,
	}
}

// OnMessage registers the chat event handler.
func (c *Client) OnMessage(handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = handler
}

// OnError registers the rejection handler.
func (c *Client) OnError(handler ErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = handler
}

// Connect establishes the Socket.IO connection. The token travels in the
// handshake auth payload and the project id in the URL query, so the server
// can bind the socket to its room before any event is exchanged.
func (c *Client) Connect() error {
	opts := socket.DefaultOptions()
	opts.SetPath("/socket.io")
	opts.SetTransports(sockettypes.NewSet(socket.Polling, socket.WebSocket))
	opts.SetAuth(map[string]interface{}{
		"token": c.token,
	})

	target := c.serverURL + "/?projectId=" + url.QueryEscape(c.projectID)

	logger.Debugf("Connecting to %s", target)

	sock, err := socket.Connect(target, opts)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.socket = sock
	c.mu.Unlock()

	sock.On(sockettypes.EventName("connect"), func(...any) {
		c.mu.Lock()
		c.connected = true
		c.mu.Unlock()
		logger.Debugf("Connected (socket %s)", sock.Id())
	})

	sock.On(sockettypes.EventName("disconnect"), func(args ...any) {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		if len(args) > 0 {
			logger.Debugf("Disconnected: %v", args[0])
		}
	})

	sock.On(sockettypes.EventName("connect_error"), func(args ...any) {
		if len(args) > 0 {
			logger.Warnf("Connection error: %v", args[0])
		}
	})

	sock.On(sockettypes.EventName("error"), func(args ...any) {
		if len(args) == 0 {
			return
		}
		var payload types.SocketErrorPayload
		if m, ok := args[0].(map[string]interface{}); ok {
			payload.Message, _ = m["message"].(string)
			payload.Code, _ = m["code"].(string)
		}
		c.mu.RLock()
		handler := c.onError
		c.mu.RUnlock()
		if handler != nil {
			go handler(payload)
		}
	})

	sock.On(sockettypes.EventName("project-message"), func(args ...any) {
		if len(args) == 0 {
			return
		}
		event, ok := decodeMessageEvent(args[0])
		if !ok {
			return
		}
		c.mu.RLock()
		handler := c.onMessage
		c.mu.RUnlock()
		if handler != nil {
			go handler(event)
		}
	})

	return nil
}

func decodeMessageEvent(raw any) (types.ProjectMessageEvent, bool) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return types.ProjectMessageEvent{}, false
	}
	var event types.ProjectMessageEvent
	event.User, _ = m["user"].(string)
	event.Message, _ = m["message"].(string)
	switch ts := m["timestamp"].(type) {
	case float64:
		event.Timestamp = int64(ts)
	case int64:
		event.Timestamp = ts
	}
	return event, true
}

// WaitForConnect waits for the socket to report connected or times out.
func (c *Client) WaitForConnect(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.IsConnected() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return c.IsConnected()
}

// SendMessage emits a chat message into the room.
func (c *Client) SendMessage(text string) error {
	c.mu.RLock()
	sock := c.socket
	c.mu.RUnlock()

	if sock == nil {
		return fmt.Errorf("not connected")
	}

	sock.Emit("project-message", map[string]interface{}{
		"text":   text,
		"sender": types.SenderHuman,
	})
	return nil
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	sock := c.socket
	connected := c.connected
	c.mu.RUnlock()

	if connected {
		return true
	}
	if sock != nil && sock.Connected() {
		c.mu.Lock()
		c.connected = true
		c.mu.Unlock()
		return true
	}
	return false
}

// Close drops the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.socket != nil {
		c.socket.Disconnect()
		c.socket = nil
	}
	c.connected = false
	return nil
}
