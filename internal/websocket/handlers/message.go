package handlers

import (
	"context"
	"time"

	"github.com/codevhq/codev/internal/ai"
	"github.com/codevhq/codev/pkg/logger"
	"github.com/codevhq/codev/pkg/types"
)

// AILabel is the author label on assistant replies.
const AILabel = "AI"

// Dispatcher is the mention-dispatch surface used by the message handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, text string) (ai.Result, bool)
}

// ProjectMessage handles a "project-message" event: it evaluates the mention
// dispatcher and always relays the original message to the rest of the room.
//
// The relay goes to every member except the sender; an assistant reply goes
// to the whole room, sender included. A backend failure yields no assistant
// broadcast — the room stays usable and the absence of a reply is the only
// user-visible signal.
func ProjectMessage(ctx context.Context, dispatcher Dispatcher, auth AuthContext, payload types.ProjectMessagePayload, now time.Time) []BroadcastInstruction {
	var instructions []BroadcastInstruction

	if dispatcher != nil {
		if result, dispatched := dispatcher.Dispatch(ctx, payload.Text); dispatched {
			if result.Success {
				instructions = append(instructions, BroadcastInstruction{
					scope:  ScopeAll,
					roomID: auth.RoomID(),
					event: types.ProjectMessageEvent{
						User:      AILabel,
						Message:   result.Result,
						Timestamp: now.UnixMilli(),
					},
				})
			} else {
				logger.Warnf("AI dispatch failed for room %s: %s", auth.RoomID(), result.Error)
			}
		}
	}

	instructions = append(instructions, BroadcastInstruction{
		scope:  ScopeOthers,
		roomID: auth.RoomID(),
		event: types.ProjectMessageEvent{
			User:      auth.Label(),
			Message:   payload.Text,
			Timestamp: now.UnixMilli(),
		},
	})

	return instructions
}
