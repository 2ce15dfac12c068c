package relay

import (
	"github.com/npardo/go-relay/internal/types"
)

// Events sent by clients over the push channel.
const (
	EventJoin          = "join"
	EventJoinGroup     = "join_group"
	EventJoinStream    = "join_stream"
	EventSendGift      = "send_gift"
	EventSendSuperLike = "send_super_like"
	EventEndStream     = "end_stream"
	EventLeaveStream   = "leave_stream"
)

// Events pushed to clients.
const (
	EventReceiveMessage = "receive_message"
	EventViewerJoined   = "viewer_joined"
	EventViewerLeft     = "viewer_left"
	EventGiftSent       = "gift_sent"
	EventSuperLikeSent  = "super_like_sent"
	EventStreamEnded    = "stream_ended"
	EventError          = "error"
)

// ClientMessage is a frame received from a client. Which fields are
// meaningful depends on the event.
type ClientMessage struct {
	Event    string `json:"event"`
	UserId   int    `json:"user_id,omitempty"`
	GroupId  string `json:"group_id,omitempty"`
	StreamId string `json:"stream_id,omitempty"`
	IsHost   bool   `json:"is_host,omitempty"`
}

// ServerMessage is a frame pushed to a client.
type ServerMessage struct {
	Event       string         `json:"event"`
	Message     *types.Message `json:"message,omitempty"`
	ViewerCount *int           `json:"viewer_count,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func newMessageEvent(msg *types.Message) *ServerMessage {
	return &ServerMessage{
		Event:   EventReceiveMessage,
		Message: msg,
	}
}

func newViewerEvent(event string, viewerCount int) *ServerMessage {
	return &ServerMessage{
		Event:       event,
		ViewerCount: &viewerCount,
	}
}

func newStreamEvent(event string) *ServerMessage {
	return &ServerMessage{Event: event}
}

func errInvalidEvent(reason string) *ServerMessage {
	return &ServerMessage{
		Event: EventError,
		Error: reason,
	}
}
