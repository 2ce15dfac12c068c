package relay

// Rooms are named broadcast groups: personal rooms keyed by the decimal user
// id, group rooms keyed by "group_<id>". They are created lazily on first
// join and garbage-collected when the last member leaves; broadcasting to a
// room that does not exist is a no-op.

// joinRoomLocked adds c to the named room, creating the room if needed.
// Called with mu held.
func (r *Relay) joinRoomLocked(name string, c *Client) {
	members, ok := r.rooms[name]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[name] = members
	}

	members[c] = struct{}{}
	c.rooms[name] = struct{}{}
}

// leaveRoomLocked removes c from the named room. Leaving a room c is not a
// member of is a no-op. Called with mu held.
func (r *Relay) leaveRoomLocked(name string, c *Client) {
	delete(c.rooms, name)

	members, ok := r.rooms[name]
	if !ok {
		return
	}

	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, name)
	}
}

// broadcastRoomLocked queues msg to every member of the named room except
// skip. Called with mu held so deliveries to the same room keep their order.
func (r *Relay) broadcastRoomLocked(name string, msg *ServerMessage, skip *Client) {
	for c := range r.rooms[name] {
		if c == skip {
			continue
		}

		if !c.queueMessage(msg) {
			r.log.Printf("dropped %q event for connection %q in room %q", msg.Event, c.id, name)
		}
	}
}

// BroadcastRoom queues msg to every member of the named room except skip,
// which may be nil.
func (r *Relay) BroadcastRoom(name string, msg *ServerMessage, skip *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastRoomLocked(name, msg, skip)
}
