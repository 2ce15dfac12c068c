package relay

// StreamSession is the live state of one ongoing stream: a participant set
// and an optional host. The viewer count is always derived from those two,
// never stored, so it cannot drift from the membership under concurrent
// join/leave/disconnect.
type StreamSession struct {
	id           string
	participants map[*Client]struct{}
	host         *Client
}

// viewerCount is the number of participants excluding the host.
func (s *StreamSession) viewerCount() int {
	n := len(s.participants)
	if s.host != nil {
		n--
	}
	if n < 0 {
		n = 0
	}

	return n
}

// joinAnnounceCount is the viewer count announced on a join: the membership
// count excluding both the host and the connection that just joined.
func (s *StreamSession) joinAnnounceCount() int {
	n := len(s.participants) - 1
	if s.host != nil {
		n--
	}
	if n < 0 {
		n = 0
	}

	return n
}

func (s *StreamSession) broadcast(msg *ServerMessage, skip *Client) {
	for c := range s.participants {
		if c == skip {
			continue
		}

		if !c.queueMessage(msg) {
			c.log.Printf("dropped %q event for connection %q in stream %q", msg.Event, c.id, s.id)
		}
	}
}

// JoinStream adds c to the stream's participant set, creating the session on
// first join. A host join records c as the session host. The other members
// are told the viewer count excluding the connection that just joined. A
// connection already recorded in a
// different stream leaves that stream first, so a connection belongs to at
// most one stream at a time.
func (r *Relay) JoinStream(c *Client, streamId string, isHost bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.streamId != "" && c.streamId != streamId {
		r.leaveStreamLocked(c, c.streamId)
	}

	s, ok := r.streams[streamId]
	if !ok {
		s = &StreamSession{
			id:           streamId,
			participants: make(map[*Client]struct{}),
		}
		r.streams[streamId] = s
		r.stats.Incr(statNumStreams)
		r.log.Printf("created stream session %q", streamId)
	}

	s.participants[c] = struct{}{}
	if isHost {
		// a later host join replaces the recorded host
		if s.host != nil && s.host != c {
			s.host.isHost = false
		}
		s.host = c
	} else if s.host == c {
		// the recorded host re-announced itself as a viewer
		s.host = nil
	}
	c.streamId = streamId
	c.isHost = isHost

	s.broadcast(newViewerEvent(EventViewerJoined, s.joinAnnounceCount()), c)
	r.log.Printf("connection %q joined stream %q (host=%t, viewers=%d)",
		c.id, streamId, isHost, s.viewerCount())
}

// LeaveStream removes c from the stream. A host leaving always terminates
// the session for everyone; a viewer leaving updates the remaining members'
// viewer count. Leaving a stream that does not exist is a no-op.
func (r *Relay) LeaveStream(c *Client, streamId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveStreamLocked(c, streamId)
}

// leaveStreamLocked applies the leave transition. Called with mu held. The
// same transition runs on abrupt disconnect, using the stream id and host
// flag recorded on the connection at join time.
func (r *Relay) leaveStreamLocked(c *Client, streamId string) {
	s, ok := r.streams[streamId]
	if !ok {
		// session already gone, just clear any stale affiliation
		if c.streamId == streamId {
			c.streamId = ""
			c.isHost = false
		}
		return
	}

	if _, member := s.participants[c]; !member {
		return
	}

	wasHost := s.host == c
	delete(s.participants, c)
	if wasHost {
		s.host = nil
	}
	c.streamId = ""
	c.isHost = false

	if wasHost {
		// host departure terminates the stream for everyone, regardless
		// of how many participants remain
		s.broadcast(newStreamEvent(EventStreamEnded), nil)
		r.deleteStreamLocked(s)
		return
	}

	s.broadcast(newViewerEvent(EventViewerLeft, s.viewerCount()), nil)
	if len(s.participants) == 0 {
		r.deleteStreamLocked(s)
	}
}

// EndStream is the explicit host-initiated termination: every member gets a
// stream_ended event and the session is deleted. Ending a stream that does
// not exist is a no-op.
func (r *Relay) EndStream(streamId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.streams[streamId]
	if !ok {
		return
	}

	s.host = nil
	s.broadcast(newStreamEvent(EventStreamEnded), nil)
	r.deleteStreamLocked(s)
}

// GiftEvent broadcasts a gift_sent or super_like_sent event to every member
// of the stream, sender included. No state changes; no-op if the session
// does not exist.
func (r *Relay) GiftEvent(streamId, event string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.streams[streamId]
	if !ok {
		return
	}

	s.broadcast(newStreamEvent(event), nil)
}

// deleteStreamLocked removes the session and clears the stream affiliation
// of any remaining participants. Deleting an already-deleted session is
// safe. Called with mu held.
func (r *Relay) deleteStreamLocked(s *StreamSession) {
	if _, ok := r.streams[s.id]; !ok {
		return
	}

	for c := range s.participants {
		c.streamId = ""
		c.isHost = false
	}

	delete(r.streams, s.id)
	r.stats.Decr(statNumStreams)
	r.log.Printf("deleted stream session %q", s.id)
}
