package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/codevhq/codev/internal/ai"
	"github.com/codevhq/codev/internal/websocket/handlers"
	"github.com/codevhq/codev/internal/workspace"
	"github.com/codevhq/codev/pkg/types"
	"github.com/stretchr/testify/require"
)

type recordingSocket struct {
	events []types.ProjectMessageEvent
}

func (r *recordingSocket) Emit(ev string, args ...any) error {
	if ev != "project-message" || len(args) == 0 {
		return nil
	}
	if event, ok := args[0].(types.ProjectMessageEvent); ok {
		r.events = append(r.events, event)
	}
	return nil
}

type staticGenerator struct {
	reply string
}

func (g staticGenerator) Generate(context.Context, string) (string, error) {
	return g.reply, nil
}

func newTestGateway(dispatcher handlers.Dispatcher) (*SocketIOServer, *recordingSocket, *recordingSocket) {
	s := &SocketIOServer{dispatcher: dispatcher}

	a := &recordingSocket{}
	b := &recordingSocket{}
	s.socketData.Store("sock-a", &SocketData{UserID: "ua", Label: "a@example.com", RoomID: "P1", Socket: a})
	s.socketData.Store("sock-b", &SocketData{UserID: "ub", Label: "b@example.com", RoomID: "P1", Socket: b})
	// A member of a different room must never see P1 traffic.
	s.socketData.Store("sock-c", &SocketData{UserID: "uc", Label: "c@example.com", RoomID: "P2", Socket: &recordingSocket{}})

	return s, a, b
}

func (s *SocketIOServer) deliver(t *testing.T, senderSocketID, text string) {
	t.Helper()
	sd := s.getSocketData(senderSocketID)
	auth := handlers.NewAuthContext(sd.UserID, sd.Label, senderSocketID, sd.RoomID)
	instrs := handlers.ProjectMessage(context.Background(), s.dispatcher, auth, types.ProjectMessagePayload{Text: text}, time.Now())
	s.executeBroadcasts(instrs, senderSocketID)
}

func TestPlainMessageBroadcastToOthers(t *testing.T) {
	s, a, b := newTestGateway(nil)

	s.deliver(t, "sock-a", "hello room")

	// B receives the relay; A does not get an echo.
	require.Len(t, a.events, 0)
	require.Len(t, b.events, 1)
	require.Equal(t, "a@example.com", b.events[0].User)
	require.Equal(t, "hello room", b.events[0].Message)
}

func TestAIMentionBroadcastToAll(t *testing.T) {
	reply := `{"type":"workspace","files":[{"path":"index.js","language":"js","content":"require('http').createServer((q,r)=>r.end('hi')).listen(3000)\n"}],"readme":"# hello"}`
	dispatcher := ai.NewDispatcher(staticGenerator{reply: reply})

	s, a, b := newTestGateway(dispatcher)
	s.deliver(t, "sock-a", "@AI build a hello world server")

	// Both A and B receive the assistant reply.
	require.Len(t, a.events, 1)
	require.Equal(t, handlers.AILabel, a.events[0].User)

	// B additionally receives the relayed original message.
	require.Len(t, b.events, 2)
	require.Equal(t, handlers.AILabel, b.events[0].User)
	require.Equal(t, "@AI build a hello world server", b.events[1].Message)

	// The assistant reply parses into a workspace with at least one file.
	ws, ok := workspace.Parse(a.events[0].Message)
	require.True(t, ok)
	require.NotEmpty(t, ws.Files)
}

func TestRoomIsolation(t *testing.T) {
	s, _, _ := newTestGateway(nil)

	other := &recordingSocket{}
	s.socketData.Store("sock-d", &SocketData{UserID: "ud", Label: "d@example.com", RoomID: "P2", Socket: other})

	s.deliver(t, "sock-a", "only for P1")
	require.Empty(t, other.events)
}

func TestDisconnectedSocketSkipped(t *testing.T) {
	s, _, b := newTestGateway(nil)
	s.socketData.Delete("sock-b")

	s.deliver(t, "sock-a", "after b left")
	require.Empty(t, b.events)
}
