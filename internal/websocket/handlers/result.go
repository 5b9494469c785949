package handlers

import "github.com/codevhq/codev/pkg/types"

// BroadcastScope describes who in the room receives an event.
type BroadcastScope int

const (
	// ScopeOthers delivers to every room member except the sender.
	ScopeOthers BroadcastScope = iota
	// ScopeAll delivers to every room member, the sender included.
	ScopeAll
)

// BroadcastInstruction describes a single room emission produced by a
// handler call. The transport adapter executes it.
type BroadcastInstruction struct {
	scope  BroadcastScope
	roomID string
	event  types.ProjectMessageEvent
}

// Scope returns who should receive the event.
func (b BroadcastInstruction) Scope() BroadcastScope { return b.scope }

// RoomID returns the target room.
func (b BroadcastInstruction) RoomID() string { return b.roomID }

// Event returns the event payload.
func (b BroadcastInstruction) Event() types.ProjectMessageEvent { return b.event }
