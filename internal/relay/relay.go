package relay

import (
	"log"
	"strconv"
	"sync"

	"github.com/npardo/go-relay/internal/stats"
)

const (
	statNumConnections     = "NumActiveConnections"
	statNumBoundUsers      = "NumBoundUsers"
	statNumStreams         = "NumActiveStreams"
	statNumTriggerMessages = "NumTriggerMessages"
)

type eventHandler func(c *Client, msg *ClientMessage)

// Relay owns all connection, room and stream state. Every mutation happens
// under mu, and broadcasts only enqueue into per-client buffered channels, so
// no lock is ever held across network I/O. Events dispatched to the same room
// are ordered by the lock.
type Relay struct {
	log   *log.Logger
	stats stats.StatsProvider

	mu      sync.Mutex
	clients map[*Client]struct{}
	// users maps a user id to its single live connection (last join wins)
	users    map[int]*Client
	rooms    map[string]map[*Client]struct{}
	streams  map[string]*StreamSession
	handlers map[string]eventHandler
}

func NewRelay(logger *log.Logger, statsProvider stats.StatsProvider) (*Relay, error) {
	r := &Relay{
		log:     logger,
		stats:   statsProvider,
		clients: make(map[*Client]struct{}),
		users:   make(map[int]*Client),
		rooms:   make(map[string]map[*Client]struct{}),
		streams: make(map[string]*StreamSession),
	}

	r.handlers = map[string]eventHandler{
		EventJoin:          r.handleJoin,
		EventJoinGroup:     r.handleJoinGroup,
		EventJoinStream:    r.handleJoinStream,
		EventSendGift:      r.handleSendGift,
		EventSendSuperLike: r.handleSendSuperLike,
		EventEndStream:     r.handleEndStream,
		EventLeaveStream:   r.handleLeaveStream,
	}

	for _, name := range []string{
		statNumConnections,
		statNumBoundUsers,
		statNumStreams,
		statNumTriggerMessages,
	} {
		r.stats.RegisterMetric(name)
	}

	return r, nil
}

// RegisterClient adds a freshly upgraded connection. The connection carries
// no identity until it announces one with a join event.
func (r *Relay) RegisterClient(c *Client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()

	r.stats.Incr(statNumConnections)
	r.log.Printf("registered connection %q", c.id)
}

// DisconnectClient tears down all state owned by a connection: its stream
// membership (applying the same transition as an explicit leave), its room
// memberships and its user binding. Safe to call for a connection that
// already left everything.
func (r *Relay) DisconnectClient(c *Client) {
	r.mu.Lock()

	if c.streamId != "" {
		r.leaveStreamLocked(c, c.streamId)
	}

	for name := range c.rooms {
		r.leaveRoomLocked(name, c)
	}

	r.unbindUserLocked(c)

	_, registered := r.clients[c]
	delete(r.clients, c)
	r.mu.Unlock()

	if registered {
		r.stats.Decr(statNumConnections)
	}
	r.log.Printf("disconnected connection %q", c.id)
}

// BindUser records userId as the owner of connection c and joins c to the
// user's personal room. An existing binding for the same id is replaced and
// the previous connection is evicted from the personal room, so pushes only
// reach the most recently joined connection.
func (r *Relay) BindUser(c *Client, userId int) {
	r.mu.Lock()

	if c.userId != 0 && c.userId != userId {
		// connection re-announced as a different user
		r.leaveRoomLocked(personalRoom(c.userId), c)
		r.unbindUserLocked(c)
	}

	prev, existed := r.users[userId]
	if existed && prev != c {
		r.leaveRoomLocked(personalRoom(userId), prev)
		prev.userId = 0
	}

	r.users[userId] = c
	c.userId = userId
	r.joinRoomLocked(personalRoom(userId), c)
	r.mu.Unlock()

	if !existed {
		r.stats.Incr(statNumBoundUsers)
	}
	r.log.Printf("user %d joined room %q on connection %q", userId, personalRoom(userId), c.id)
}

// unbindUserLocked removes the binding whose value is c, if any. Called with
// mu held.
func (r *Relay) unbindUserLocked(c *Client) {
	if c.userId == 0 {
		return
	}

	if bound, ok := r.users[c.userId]; ok && bound == c {
		delete(r.users, c.userId)
		r.stats.Decr(statNumBoundUsers)
	}
	c.userId = 0
}

// Shutdown stops every live connection. Each client's read pump runs its own
// cleanup as the connection closes.
func (r *Relay) Shutdown() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()

	r.log.Printf("stopping %d connections", len(clients))
	for _, c := range clients {
		c.stopClient()
	}
}

func personalRoom(userId int) string {
	return strconv.Itoa(userId)
}

func groupRoom(groupId string) string {
	return "group_" + groupId
}

func streamRoom(streamId string) string {
	return "stream_" + streamId
}

func (r *Relay) handleJoin(c *Client, msg *ClientMessage) {
	if msg.UserId == 0 {
		c.queueMessage(errInvalidEvent("join requires user_id"))
		return
	}

	r.BindUser(c, msg.UserId)
}

func (r *Relay) handleJoinGroup(c *Client, msg *ClientMessage) {
	if msg.GroupId == "" {
		c.queueMessage(errInvalidEvent("join_group requires group_id"))
		return
	}

	r.mu.Lock()
	r.joinRoomLocked(groupRoom(msg.GroupId), c)
	r.mu.Unlock()

	r.log.Printf("connection %q joined room %q", c.id, groupRoom(msg.GroupId))
}

func (r *Relay) handleJoinStream(c *Client, msg *ClientMessage) {
	if msg.StreamId == "" {
		c.queueMessage(errInvalidEvent("join_stream requires stream_id"))
		return
	}

	r.JoinStream(c, msg.StreamId, msg.IsHost)
}

func (r *Relay) handleSendGift(c *Client, msg *ClientMessage) {
	if msg.StreamId == "" {
		c.queueMessage(errInvalidEvent("send_gift requires stream_id"))
		return
	}

	r.GiftEvent(msg.StreamId, EventGiftSent)
}

func (r *Relay) handleSendSuperLike(c *Client, msg *ClientMessage) {
	if msg.StreamId == "" {
		c.queueMessage(errInvalidEvent("send_super_like requires stream_id"))
		return
	}

	r.GiftEvent(msg.StreamId, EventSuperLikeSent)
}

func (r *Relay) handleEndStream(c *Client, msg *ClientMessage) {
	if msg.StreamId == "" {
		c.queueMessage(errInvalidEvent("end_stream requires stream_id"))
		return
	}

	r.EndStream(msg.StreamId)
}

func (r *Relay) handleLeaveStream(c *Client, msg *ClientMessage) {
	if msg.StreamId == "" {
		c.queueMessage(errInvalidEvent("leave_stream requires stream_id"))
		return
	}

	r.LeaveStream(c, msg.StreamId)
}
