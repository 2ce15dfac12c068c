package relay

import (
	"strings"

	"github.com/npardo/go-relay/internal/types"
)

// ValidationError reports the trigger payload fields that are missing for
// the resolved event class. Nothing is broadcast when validation fails.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing " + strings.Join(e.Fields, ", ")
}

// HandleTrigger classifies an inbound trigger payload and fans it out to the
// resolved room. Precedence: group, then stream, then direct. The returned
// value names the delivery target for the caller's acknowledgement: the room
// name for group and stream events, the receiver's user id for direct ones.
// Delivery is fire-and-forget; an empty room simply receives nothing.
func (r *Relay) HandleTrigger(msg *types.Message) (any, error) {
	switch {
	case msg.GroupId != "":
		if msg.Message == "" {
			return nil, &ValidationError{Fields: []string{"message"}}
		}

		out := *msg
		out.IsGroup = true
		room := groupRoom(msg.GroupId)
		r.BroadcastRoom(room, newMessageEvent(&out), nil)
		r.stats.Incr(statNumTriggerMessages)

		return room, nil
	case msg.StreamId != "":
		if msg.Message == "" {
			return nil, &ValidationError{Fields: []string{"message"}}
		}

		out := *msg
		out.IsStream = true
		r.broadcastStream(msg.StreamId, newMessageEvent(&out))
		r.stats.Incr(statNumTriggerMessages)

		return streamRoom(msg.StreamId), nil
	case msg.ReceiverId != 0:
		if msg.Message == "" {
			return nil, &ValidationError{Fields: []string{"message"}}
		}

		out := *msg
		event := newMessageEvent(&out)

		r.mu.Lock()
		r.broadcastRoomLocked(personalRoom(msg.ReceiverId), event, nil)
		// echo to the sender's own personal room so any open connection of
		// the sender sees the sent message
		if msg.SenderId != 0 && msg.SenderId != msg.ReceiverId {
			r.broadcastRoomLocked(personalRoom(msg.SenderId), event, nil)
		}
		r.mu.Unlock()
		r.stats.Incr(statNumTriggerMessages)

		return msg.ReceiverId, nil
	default:
		if msg.Message == "" {
			return nil, &ValidationError{Fields: []string{"receiver_id", "message"}}
		}

		return nil, &ValidationError{Fields: []string{"receiver_id"}}
	}
}

// broadcastStream delivers a trigger-originated event to every participant
// of the stream session. No-op if the session does not exist.
func (r *Relay) broadcastStream(streamId string, msg *ServerMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.streams[streamId]; ok {
		s.broadcast(msg, nil)
	}
}
