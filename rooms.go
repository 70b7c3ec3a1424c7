package bancho

import (
	"strings"
	"time"
)

// RoomKind distinguishes the three kinds of chat rooms.
type RoomKind int

const (
	RoomChannel RoomKind = iota
	RoomPrivate
	RoomLobby
)

func (k RoomKind) String() string {
	switch k {
	case RoomPrivate:
		return "private"
	case RoomLobby:
		return "lobby"
	default:
		return "channel"
	}
}

// ChatMessage is one line of chat scoped to a room.
type ChatMessage struct {
	RoomID string
	Author string
	Text   string
	Time   time.Time
}

// Room is a chat conversation: a channel, a one-to-one query, or a
// multiplayer lobby's chat channel. Lobby semantics live in LobbyState; a
// Room only tracks the conversation itself.
type Room struct {
	ID       string
	Kind     RoomKind
	Messages []ChatMessage
	Unread   int
	Active   bool
}

func (r *Room) clone() Room {
	c := *r
	c.Messages = append([]ChatMessage(nil), r.Messages...)
	return c
}

// roomRegistry holds one room per joined channel or private conversation.
// Room ids are unique; at most one room is active at a time. Like lobbyStore,
// it performs no locking of its own.
type roomRegistry struct {
	rooms  map[string]*Room
	order  []string // insertion order, for stable rooms-list snapshots
	active string
}

func newRoomRegistry() *roomRegistry {
	return &roomRegistry{rooms: make(map[string]*Room)}
}

func (r *roomRegistry) get(id string) *Room {
	return r.rooms[id]
}

// createChannel registers a channel room. Channels with the multiplayer
// prefix are lobby rooms. Returns the existing room when id is already known.
func (r *roomRegistry) createChannel(id string) *Room {
	if room := r.rooms[id]; room != nil {
		return room
	}
	kind := RoomChannel
	if strings.HasPrefix(id, LobbyPrefix) {
		kind = RoomLobby
	}
	room := &Room{ID: id, Kind: kind}
	r.rooms[id] = room
	r.order = append(r.order, id)
	return room
}

// createPrivate registers a one-to-one conversation with peer. Private rooms
// are also created lazily on the first inbound message from an unknown peer.
func (r *roomRegistry) createPrivate(peer string) *Room {
	if room := r.rooms[peer]; room != nil {
		return room
	}
	room := &Room{ID: peer, Kind: RoomPrivate}
	r.rooms[peer] = room
	r.order = append(r.order, peer)
	return room
}

// appendMessage adds m to the room's log, incrementing the unread counter
// unless the room is active. Reports whether the room exists.
func (r *roomRegistry) appendMessage(id string, m ChatMessage) bool {
	room := r.rooms[id]
	if room == nil {
		return false
	}
	room.Messages = append(room.Messages, m)
	if !room.Active {
		room.Unread++
	}
	return true
}

// setActive marks the named room active, deactivating the previous active
// room and clearing the new one's unread counter.
func (r *roomRegistry) setActive(id string) bool {
	room := r.rooms[id]
	if room == nil {
		return false
	}
	if prev := r.rooms[r.active]; prev != nil {
		prev.Active = false
	}
	room.Active = true
	room.Unread = 0
	r.active = id
	return true
}

// remove deletes the named room, clearing the active pointer if it pointed at
// the removed room.
func (r *roomRegistry) remove(id string) bool {
	if _, ok := r.rooms[id]; !ok {
		return false
	}
	delete(r.rooms, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.active == id {
		r.active = ""
	}
	return true
}

// snapshot returns cloned rooms in insertion order plus the active room id.
func (r *roomRegistry) snapshot() ([]Room, string) {
	rooms := make([]Room, 0, len(r.order))
	for _, id := range r.order {
		if room := r.rooms[id]; room != nil {
			rooms = append(rooms, room.clone())
		}
	}
	return rooms, r.active
}
