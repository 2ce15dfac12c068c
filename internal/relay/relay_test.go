package relay

import (
	"testing"

	"github.com/npardo/go-relay/internal/stats"
	"github.com/npardo/go-relay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// newTestRelay creates a Relay instance for testing purposes
func newTestRelay(t *testing.T, su *stats.MockStatsUpdater) *Relay {
	su.On("RegisterMetric", mock.Anything).Return(nil).Times(4)

	logger := testutil.TestLogger(t)
	r, err := NewRelay(logger, su)
	if err != nil {
		t.Fatalf("failed to create test Relay: %v", err)
	}
	return r
}

// newTestClient creates a client that is not backed by a real websocket
// connection. queueMessage only touches the send channel, so broadcasts in
// tests are observable by reading from it.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	return &Client{
		id:    "test",
		send:  make(chan *ServerMessage, 256),
		stop:  make(chan struct{}),
		rooms: make(map[string]struct{}),
		log:   testutil.TestLogger(t),
	}
}

// receivedEvents drains the client's send channel and returns the event
// names queued so far.
func receivedEvents(c *Client) []string {
	var events []string
	for {
		select {
		case msg := <-c.send:
			events = append(events, msg.Event)
		default:
			return events
		}
	}
}

func TestNewRelay(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("RegisterMetric", mock.Anything).Return(nil).Times(4)

	logger := testutil.TestLogger(t)
	r, err := NewRelay(logger, su)
	assert.NoError(t, err, "expected no error creating Relay")
	assert.NotNil(t, r, "expected Relay to be non-nil")
	assert.Equal(t, logger, r.log, "expected logger to be set")
	assert.NotNil(t, r.clients, "expected clients map to be initialized")
	assert.NotNil(t, r.users, "expected users map to be initialized")
	assert.NotNil(t, r.rooms, "expected rooms map to be initialized")
	assert.NotNil(t, r.streams, "expected streams map to be initialized")

	for _, event := range []string{
		EventJoin, EventJoinGroup, EventJoinStream, EventSendGift,
		EventSendSuperLike, EventEndStream, EventLeaveStream,
	} {
		assert.Contains(t, r.handlers, event, "expected handler for event %q", event)
	}
}

func TestRegisterClient_DisconnectClient(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("Incr", statNumConnections).Once()
	su.On("Decr", statNumConnections).Once()
	defer su.AssertExpectations(t)

	r := newTestRelay(t, su)
	c := newTestClient(t)

	r.RegisterClient(c)
	assert.Contains(t, r.clients, c, "expected client to be registered")

	r.DisconnectClient(c)
	assert.NotContains(t, r.clients, c, "expected client to be removed")

	// disconnecting again must not decrement connection stats twice
	r.DisconnectClient(c)
}

func TestBindUser(t *testing.T) {
	t.Run("binds user and joins personal room", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", statNumBoundUsers).Once()
		defer su.AssertExpectations(t)

		r := newTestRelay(t, su)
		c := newTestClient(t)

		r.BindUser(c, 42)
		assert.Equal(t, c, r.users[42], "expected user 42 to map to client")
		assert.Equal(t, 42, c.userId, "expected client to record its user id")
		assert.Contains(t, r.rooms["42"], c, "expected client in its personal room")
	})

	t.Run("last join wins", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", statNumBoundUsers).Once()
		defer su.AssertExpectations(t)

		r := newTestRelay(t, su)
		first := newTestClient(t)
		second := newTestClient(t)

		r.BindUser(first, 42)
		r.BindUser(second, 42)

		assert.Equal(t, second, r.users[42], "expected newest connection to own the binding")
		assert.Equal(t, 0, first.userId, "expected previous connection to lose its identity")
		assert.NotContains(t, r.rooms["42"], first, "expected previous connection evicted from personal room")
		assert.Contains(t, r.rooms["42"], second, "expected new connection in personal room")
	})

	t.Run("rebinding to a different id releases the old one", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", statNumBoundUsers).Times(2)
		su.On("Decr", statNumBoundUsers).Once()
		defer su.AssertExpectations(t)

		r := newTestRelay(t, su)
		c := newTestClient(t)

		r.BindUser(c, 1)
		r.BindUser(c, 2)

		assert.NotContains(t, r.users, 1, "expected old binding to be removed")
		assert.Equal(t, c, r.users[2], "expected new binding")
		assert.NotContains(t, r.rooms, "1", "expected old personal room to be garbage collected")
		assert.Contains(t, r.rooms["2"], c, "expected client in new personal room")
	})
}

func TestDisconnectClient_cleansUpAllState(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("Incr", mock.Anything).Maybe()
	su.On("Decr", mock.Anything).Maybe()

	r := newTestRelay(t, su)
	c := newTestClient(t)
	other := newTestClient(t)

	r.RegisterClient(c)
	r.BindUser(c, 7)
	r.handleJoinGroup(c, &ClientMessage{Event: EventJoinGroup, GroupId: "g1"})
	r.JoinStream(other, "s1", false)
	r.JoinStream(c, "s1", false)

	r.DisconnectClient(c)

	assert.NotContains(t, r.users, 7, "expected user binding removed")
	assert.NotContains(t, r.rooms, "7", "expected personal room garbage collected")
	assert.NotContains(t, r.rooms["group_g1"], c, "expected client removed from group room")
	assert.NotContains(t, r.streams["s1"].participants, c, "expected client removed from stream")
	assert.NotContains(t, r.clients, c, "expected client removed from registry")
}

func TestDisconnectClient_staleBindingIsNoop(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("Incr", mock.Anything).Maybe()

	r := newTestRelay(t, su)
	first := newTestClient(t)
	second := newTestClient(t)

	r.BindUser(first, 42)
	r.BindUser(second, 42)

	// the overwritten connection going away must not disturb the new binding
	r.DisconnectClient(first)
	assert.Equal(t, second, r.users[42], "expected newest binding to survive stale disconnect")
}

func TestHandleJoin_requiresUserId(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	r := newTestRelay(t, su)
	c := newTestClient(t)

	r.handleJoin(c, &ClientMessage{Event: EventJoin})

	assert.Equal(t, []string{EventError}, receivedEvents(c), "expected an error event for join without user_id")
	assert.Empty(t, r.users, "expected no binding to be created")
}

func TestShutdown_stopsAllClients(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("Incr", mock.Anything).Maybe()

	r := newTestRelay(t, su)
	c := newTestClient(t)
	r.RegisterClient(c)

	r.Shutdown()

	select {
	case <-c.stop:
		// stop channel closed as expected
	default:
		t.Error("expected client stop channel to be closed")
	}
}
