package bancho

// A Notifier receives state-change events from the client. It is how a UI
// layer observes the session without sharing any mutable state: every payload
// is a snapshot cloned before the call.
//
// ConnectionStatusChanged, MessageReceived, LobbyUpdated, UserJoined,
// UserParted and RoomError are called from the connection loop goroutine.
// RoomsUpdated and ActiveRoomChanged may additionally be called from whichever
// goroutine invoked a registry-only operation such as SetActiveRoom.
// Implementations that need to do slow work should hand the event off to
// their own queue; the connection loop calls handlers synchronously because
// message ordering matters.
type Notifier interface {
	// ConnectionStatusChanged reports session establishment and loss.
	ConnectionStatusChanged(connected bool)

	// RoomsUpdated reports the full joined-rooms list and the active room id
	// after any change to the set of rooms.
	RoomsUpdated(rooms []Room, activeID string)

	// ActiveRoomChanged reports the newly active room, or nil when the active
	// room was closed.
	ActiveRoomChanged(room *Room)

	// LobbyUpdated carries the full updated lobby state after each mutation,
	// not a diff. It is a local-process event; simplicity beats bandwidth.
	LobbyUpdated(lobby LobbyState)

	// MessageReceived reports one chat message. active distinguishes a
	// message that arrived in the active room from one that arrived in an
	// inactive room and bumped its unread counter.
	MessageReceived(msg ChatMessage, active bool)

	// UserJoined and UserParted report other users entering and leaving a
	// channel we are in.
	UserJoined(roomID, username string)
	UserParted(roomID, username string)

	// RoomError reports a failed join: channel nonexistent, invite-only,
	// banned, full, or bad key.
	RoomError(roomID, reason string)
}

// nil-safe emit helpers. A client with no Notifier drops all events.

func (c *Client) notifyStatus(connected bool) {
	if c.Notifier != nil {
		c.Notifier.ConnectionStatusChanged(connected)
	}
}

func (c *Client) notifyRooms(rooms []Room, activeID string) {
	if c.Notifier != nil {
		c.Notifier.RoomsUpdated(rooms, activeID)
	}
}

func (c *Client) notifyActiveRoom(room *Room) {
	if c.Notifier != nil {
		c.Notifier.ActiveRoomChanged(room)
	}
}

func (c *Client) notifyLobby(lobby LobbyState) {
	if c.Notifier != nil {
		c.Notifier.LobbyUpdated(lobby)
	}
}

func (c *Client) notifyMessage(m ChatMessage, active bool) {
	if c.Notifier != nil {
		c.Notifier.MessageReceived(m, active)
	}
}

func (c *Client) notifyUserJoined(roomID, username string) {
	if c.Notifier != nil {
		c.Notifier.UserJoined(roomID, username)
	}
}

func (c *Client) notifyUserParted(roomID, username string) {
	if c.Notifier != nil {
		c.Notifier.UserParted(roomID, username)
	}
}

func (c *Client) notifyRoomError(roomID, reason string) {
	if c.Notifier != nil {
		c.Notifier.RoomError(roomID, reason)
	}
}
