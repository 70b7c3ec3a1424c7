package bancho

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

// DefaultAddr is the production Bancho IRC endpoint. The IRC port speaks
// plaintext only; use DialFn to connect through anything else.
const DefaultAddr = "irc.ppy.sh:6667"

var (
	// ErrAlreadyConnected is returned by Connect when a session is already
	// established or being established.
	ErrAlreadyConnected = errors.New("bancho: already connected")

	// ErrNotConnected is returned by commands that require a live transport.
	ErrNotConnected = errors.New("bancho: not connected")

	// ErrAlreadyJoined is returned when joining a room that is already in the
	// registry.
	ErrAlreadyJoined = errors.New("bancho: already in this room")

	// ErrNoSuchRoom is returned when an operation names a room the registry
	// does not hold.
	ErrNoSuchRoom = errors.New("bancho: no such room")
)

// Phase is the connection lifecycle state of a Client.
type Phase int

const (
	Disconnected Phase = iota
	Connecting
	Connected
	Disconnecting
)

func (p Phase) String() string {
	switch p {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "disconnected"
	}
}

// A Client manages one session with the Bancho IRC server and maintains a
// live view of joined rooms and multiplayer lobby state.
//
// Exactly one connection loop goroutine runs per live session. It owns the
// transport and is the only writer to the room registry and lobby store while
// the session is active; every other goroutine either reads snapshots or
// enqueues commands. A single coarse lock guards the combined state, which is
// sufficient because there is no other writer to contend with.
type Client struct {

	// The address ("host:port") of the IRC server.
	// Addr is only used when DialFn is nil; empty means DefaultAddr.
	Addr string

	// The account name used when connecting (required).
	Nickname string

	// The IRC token for the account (Bancho sends it as the connection
	// password). Held only for the session; never persisted by the client.
	Password string

	// DialFn overrides how the connection is established. The returned
	// stream must consist of CRLF-delimited IRC messages; it can be a TCP
	// connection, a proxy, or a server mock.
	//
	// When DialFn is nil, the default behavior dials Addr with net.Dial.
	DialFn func() (io.ReadWriteCloser, error)

	// Notifier receives state-change events. May be nil.
	Notifier Notifier

	// ErrorLog specifies an optional logger for errors returned from parsing
	// and encoding frames. If nil, logging is done via the log package's
	// standard logger.
	ErrorLog *log.Logger

	mu       sync.Mutex
	phase    Phase
	identity string
	conn     io.ReadWriteCloser
	queue    *commandQueue
	rooms    *roomRegistry
	lobbies  *lobbyStore
	wg       sync.WaitGroup
}

// Connect dials the server, sends the registration frames, and starts the
// connection loop. It returns once the session is being established; the
// Connecting→Connected transition is reported through the Notifier when the
// server acknowledges registration.
//
// Rooms joined during a previous session are re-joined automatically, except
// private conversations, which have no channel to join.
//
// Cancelling ctx closes the session gracefully, equivalent to Disconnect.
func (c *Client) Connect(ctx context.Context) error {
	if c.Nickname == "" {
		panic("bancho: client nickname cannot be empty")
	}

	c.mu.Lock()
	if c.phase != Disconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.phase = Connecting
	c.identity = c.Nickname
	c.ensureStateLocked()
	c.mu.Unlock()

	dial := c.DialFn
	if dial == nil {
		addr := c.Addr
		if addr == "" {
			addr = DefaultAddr
		}
		dial = func() (io.ReadWriteCloser, error) {
			return net.Dial("tcp", addr)
		}
	}

	conn, err := dial()
	if err != nil {
		c.mu.Lock()
		c.phase = Disconnected
		c.identity = ""
		c.mu.Unlock()
		return fmt.Errorf("bancho: dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.queue = newCommandQueue()
	c.mu.Unlock()

	if c.Password != "" {
		c.writeLine(pass(c.Password))
	}
	c.writeLine(nick(c.Nickname))
	c.writeLine(user(c.Nickname, c.Nickname))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
	return nil
}

// Reconnect re-establishes a session with the credentials the client was
// configured with. It fails with ErrAlreadyConnected when a session is live.
func (c *Client) Reconnect(ctx context.Context) error {
	if c.Nickname == "" {
		return errors.New("bancho: no previous session configuration")
	}
	return c.Connect(ctx)
}

// Wait blocks until the current session's goroutines have fully exited.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Phase returns the current connection lifecycle state.
func (c *Client) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// run owns the session from after registration until teardown.
func (c *Client) run(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	queue := c.queue
	c.mu.Unlock()

	done := make(chan struct{})
	lines := c.startReading(conn, done)
	c.loop(ctx, queue, lines)
	close(done)

	c.mu.Lock()
	c.phase = Disconnected
	c.identity = ""
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	// commands still queued are dropped; producers now observe ErrQueueClosed
	queue.close()
	c.mu.Unlock()

	c.notifyStatus(false)
}

// loop is the fairness-preserving merge of inbound frames and queued
// commands. Whichever source resolves first is serviced; the other stays
// pending for the next iteration.
func (c *Client) loop(ctx context.Context, queue *commandQueue, lines <-chan string) {
	for {
		select {
		case <-ctx.Done():
			c.setPhase(Disconnecting)
			c.writeLine(quit("closing link"))
			return
		case raw, ok := <-lines:
			if !ok {
				// transport error or end-of-stream
				return
			}
			m, err := parseLine(raw)
			if err != nil {
				// A parse error might be caused by a malformed line from the
				// remote server or a bug in our codec. Both are interesting
				// but not a reason for the session to exit.
				c.logf("bancho: parse %q: %v", raw, err)
				continue
			}
			c.handleLine(m)
		case <-queue.ready:
			cmd, ok := queue.pop()
			if !ok {
				continue
			}
			if c.handleCommand(cmd) {
				return
			}
		}
	}
}

func (c *Client) startReading(conn io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(lines)

		s := bufio.NewScanner(conn)
		for s.Scan() {
			l := s.Text()
			if l == "" {
				continue
			}
			select {
			case lines <- l:
			case <-done:
				// the loop exited first; stop without blocking on a send
				// that nobody will receive
				return
			}
		}
		// reported here rather than through shared state so that a reader
		// still draining from a previous session cannot be attributed to a
		// newer one
		if err := s.Err(); err != nil {
			c.logf("bancho: read: %v", err)
		}
	}()
	return lines
}

// handleLine classifies one inbound frame and dispatches it.
func (c *Client) handleLine(m *line) {
	switch m.command {
	case cmdPing:
		c.writeLine(pong(m.params.get(1)))

	case rplWelcome:
		c.mu.Lock()
		c.phase = Connected
		var rejoin []string
		if c.rooms != nil {
			for _, id := range c.rooms.order {
				if room := c.rooms.get(id); room != nil && room.Kind != RoomPrivate {
					rejoin = append(rejoin, id)
				}
			}
		}
		c.mu.Unlock()

		c.notifyStatus(true)
		for _, id := range rejoin {
			c.writeLine(join(id))
		}

	case cmdPrivmsg, cmdNotice:
		c.handleChat(m)

	case cmdJoin:
		c.handleJoin(m)

	case cmdPart:
		c.handlePart(m)

	default:
		if reason, ok := joinFailures[m.command]; ok {
			c.handleJoinFailure(m.params.get(2), reason)
		}
	}
}

// handleChat appends one chat line to its room and, for lobby rooms, runs it
// through the announcer rule table.
func (c *Client) handleChat(m *line) {
	author := m.source.name()
	text := m.text()
	target := m.target()
	if author == "" || target == "" {
		return
	}

	c.mu.Lock()
	c.ensureStateLocked()

	// A message addressed to our own nick is a query, filed under the peer
	// who sent it; everything else is filed under the target channel.
	roomID := target
	private := strings.EqualFold(target, c.identity)
	if private {
		roomID = author
	}

	room := c.rooms.get(roomID)
	if room == nil && !private && !strings.HasPrefix(roomID, "#") {
		// a frame addressed to neither a channel nor us, like the server's
		// registration-time "NOTICE * :...", has no room to live in
		c.mu.Unlock()
		return
	}
	roomsChanged := false
	if room == nil {
		if private {
			room = c.rooms.createPrivate(roomID)
		} else {
			room = c.rooms.createChannel(roomID)
		}
		roomsChanged = true
	}

	cm := ChatMessage{RoomID: roomID, Author: author, Text: text, Time: time.Now()}
	c.rooms.appendMessage(roomID, cm)
	active := room.Active

	var lobbySnap *LobbyState
	if room.Kind == RoomLobby {
		if changed := applyLobbyText(c.lobbies, roomID, author, text); changed != nil {
			snap := changed.clone()
			lobbySnap = &snap
		}
	}

	var roomsSnap []Room
	var activeID string
	if roomsChanged {
		roomsSnap, activeID = c.rooms.snapshot()
	}
	c.mu.Unlock()

	if roomsChanged {
		c.notifyRooms(roomsSnap, activeID)
	}
	c.notifyMessage(cm, active)
	if lobbySnap != nil {
		c.notifyLobby(*lobbySnap)
	}
}

func (c *Client) handleJoin(m *line) {
	who := m.source.name()
	ch := m.params.get(1)
	if ch == "" || who == "" {
		return
	}

	c.mu.Lock()
	self := strings.EqualFold(who, c.identity)
	if !self {
		c.mu.Unlock()
		c.notifyUserJoined(ch, who)
		return
	}

	c.ensureStateLocked()
	var lobbySnap *LobbyState
	roomsChanged := c.rooms.get(ch) == nil
	room := c.rooms.createChannel(ch)
	// a join echo for a room created optimistically by JoinChannel changes
	// nothing and emits nothing
	if room.Kind == RoomLobby && roomsChanged {
		snap := c.lobbies.ensure(ch).clone()
		lobbySnap = &snap
	}
	roomsSnap, activeID := c.rooms.snapshot()
	c.mu.Unlock()

	if roomsChanged {
		c.notifyRooms(roomsSnap, activeID)
	}
	if lobbySnap != nil {
		c.notifyLobby(*lobbySnap)
	}
}

func (c *Client) handlePart(m *line) {
	who := m.source.name()
	ch := m.params.get(1)
	if ch == "" || who == "" {
		return
	}

	c.mu.Lock()
	self := strings.EqualFold(who, c.identity)
	if !self {
		c.mu.Unlock()
		c.notifyUserParted(ch, who)
		return
	}
	c.removeRoomAndUnlock(ch)
}

// handleJoinFailure rolls back the optimistically-created room for a join the
// server rejected.
func (c *Client) handleJoinFailure(ch, reason string) {
	if ch == "" {
		return
	}
	c.mu.Lock()
	c.removeRoomAndUnlock(ch)
	c.notifyRoomError(ch, reason)
}

// removeRoomAndUnlock deletes a room and any lobby state attached to it, then
// releases the lock and emits the follow-up events. The caller must hold
// c.mu.
func (c *Client) removeRoomAndUnlock(id string) {
	c.ensureStateLocked()
	wasActive := c.rooms.active == id
	removed := c.rooms.remove(id)
	c.lobbies.remove(id)
	roomsSnap, activeID := c.rooms.snapshot()
	c.mu.Unlock()

	if !removed {
		return
	}
	c.notifyRooms(roomsSnap, activeID)
	if wasActive {
		c.notifyActiveRoom(nil)
	}
}

// handleCommand executes one queued command. It reports true when the loop
// should terminate.
func (c *Client) handleCommand(cmd command) (done bool) {
	switch v := cmd.(type) {
	case sendMessage:
		if v.text == "!mp settings" {
			// the reply will be a full Slot listing; rebuild occupancy from
			// scratch rather than merging into stale slots
			c.refreshSlots(v.roomID)
		}
		c.writeLine(msg(v.roomID, v.text))
		c.echoLocal(v.roomID, v.text)

	case sendPrivateMessage:
		c.writeLine(msg(v.peer, v.text))
		c.echoLocal(v.peer, v.text)

	case joinChannel:
		c.writeLine(join(v.id))

	case leaveChannel:
		c.writeLine(part(v.id))

	case disconnect:
		c.setPhase(Disconnecting)
		c.writeLine(quit("Goodbye!"))
		return true
	}
	return false
}

// echoLocal appends outgoing text to the target room as a message authored by
// the local identity, so the sender sees their own message without waiting
// for a server echo (which Bancho never sends).
func (c *Client) echoLocal(roomID, text string) {
	c.mu.Lock()
	c.ensureStateLocked()
	cm := ChatMessage{RoomID: roomID, Author: c.identity, Text: text, Time: time.Now()}
	ok := c.rooms.appendMessage(roomID, cm)
	var active bool
	if room := c.rooms.get(roomID); room != nil {
		active = room.Active
	}
	c.mu.Unlock()

	if ok {
		c.notifyMessage(cm, active)
	}
}

func (c *Client) refreshSlots(roomID string) {
	c.mu.Lock()
	var snap *LobbyState
	if changed := c.lobbies.vacateAll(roomID); changed != nil {
		s := changed.clone()
		snap = &s
	}
	c.mu.Unlock()

	if snap != nil {
		c.notifyLobby(*snap)
	}
}

// writeLine encodes and writes one frame to the connection. Write errors are
// not returned: IRC provides no delivery guarantees, so the only meaningful
// reaction is to close the connection and let the reader tear the session
// down.
func (c *Client) writeLine(l *line) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		c.logf("bancho: writeLine: no connection; frame: %#v", l)
		return
	}
	if _, err := conn.Write(l.encode()); err != nil {
		c.logf("bancho: write: %v", err)
		_ = conn.Close()
	}
}

func (c *Client) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

func (c *Client) ensureStateLocked() {
	if c.rooms == nil {
		c.rooms = newRoomRegistry()
		c.lobbies = newLobbyStore()
	}
}

// push enqueues a command for the connection loop. Commands need a live
// session; the queue itself never blocks or rejects on volume.
func (c *Client) push(cmd command) error {
	c.mu.Lock()
	if c.phase != Connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	q := c.queue
	c.mu.Unlock()

	if q == nil {
		return ErrNotConnected
	}
	return q.push(cmd)
}

// SendMessage sends text to a joined room. Messages to private rooms are
// routed to the peer directly.
func (c *Client) SendMessage(roomID, text string) error {
	c.mu.Lock()
	if c.phase != Connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	room := c.rooms.get(roomID)
	if room == nil {
		c.mu.Unlock()
		return ErrNoSuchRoom
	}
	private := room.Kind == RoomPrivate
	c.mu.Unlock()

	if private {
		return c.push(sendPrivateMessage{peer: roomID, text: text})
	}
	return c.push(sendMessage{roomID: roomID, text: text})
}

// SendPrivateMessage sends text directly to a user, opening a private
// conversation room if one does not exist yet.
func (c *Client) SendPrivateMessage(peer, text string) error {
	c.mu.Lock()
	if c.phase != Connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.ensureStateLocked()
	created := c.rooms.get(peer) == nil
	if created {
		c.rooms.createPrivate(peer)
	}
	roomsSnap, activeID := c.rooms.snapshot()
	c.mu.Unlock()

	if created {
		c.notifyRooms(roomsSnap, activeID)
	}
	return c.push(sendPrivateMessage{peer: peer, text: text})
}

// JoinChannel requests to join a channel (or multiplayer lobby channel). The
// room appears in the registry immediately; if the server rejects the join,
// the room is removed again and RoomError fires.
func (c *Client) JoinChannel(id string) error {
	c.mu.Lock()
	if c.phase != Connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.ensureStateLocked()
	if c.rooms.get(id) != nil {
		c.mu.Unlock()
		return ErrAlreadyJoined
	}
	room := c.rooms.createChannel(id)
	var lobbySnap *LobbyState
	if room.Kind == RoomLobby {
		snap := c.lobbies.ensure(id).clone()
		lobbySnap = &snap
	}
	roomsSnap, activeID := c.rooms.snapshot()
	c.mu.Unlock()

	c.notifyRooms(roomsSnap, activeID)
	if lobbySnap != nil {
		c.notifyLobby(*lobbySnap)
	}
	return c.push(joinChannel{id: id})
}

// LeaveChannel parts a joined channel and drops its room and any lobby state.
func (c *Client) LeaveChannel(id string) error {
	c.mu.Lock()
	if c.phase != Connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.ensureStateLocked()
	room := c.rooms.get(id)
	if room == nil || room.Kind == RoomPrivate {
		c.mu.Unlock()
		return ErrNoSuchRoom
	}
	c.removeRoomAndUnlock(id)
	return c.push(leaveChannel{id: id})
}

// Disconnect closes the session gracefully. Joined rooms and lobby state are
// preserved so a later Connect can restore them.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.phase == Disconnected || c.phase == Disconnecting {
		c.mu.Unlock()
		return ErrNotConnected
	}
	q := c.queue
	c.mu.Unlock()

	if q == nil {
		return ErrNotConnected
	}
	return q.push(disconnect{})
}

// SetActiveRoom marks one room as the active conversation, clearing its
// unread counter. It works whether or not a session is live.
func (c *Client) SetActiveRoom(id string) error {
	c.mu.Lock()
	c.ensureStateLocked()
	if !c.rooms.setActive(id) {
		c.mu.Unlock()
		return ErrNoSuchRoom
	}
	active := c.rooms.get(id).clone()
	roomsSnap, activeID := c.rooms.snapshot()
	c.mu.Unlock()

	c.notifyActiveRoom(&active)
	c.notifyRooms(roomsSnap, activeID)
	return nil
}

// StartPrivateConversation opens an empty private room with peer without
// sending anything. A no-op when the conversation already exists.
func (c *Client) StartPrivateConversation(peer string) {
	c.mu.Lock()
	c.ensureStateLocked()
	if c.rooms.get(peer) != nil {
		c.mu.Unlock()
		return
	}
	c.rooms.createPrivate(peer)
	roomsSnap, activeID := c.rooms.snapshot()
	c.mu.Unlock()

	c.notifyRooms(roomsSnap, activeID)
}

// CloseConversation discards a private room and its message history. There is
// nothing to tell the server; queries have no channel membership.
func (c *Client) CloseConversation(peer string) error {
	c.mu.Lock()
	c.ensureStateLocked()
	room := c.rooms.get(peer)
	if room == nil || room.Kind != RoomPrivate {
		c.mu.Unlock()
		return ErrNoSuchRoom
	}
	c.removeRoomAndUnlock(peer)
	return nil
}

// SetMappool attaches a mappool id to a lobby, or detaches it when id is nil.
func (c *Client) SetMappool(roomID string, id *int64) error {
	c.mu.Lock()
	c.ensureStateLocked()
	changed := c.lobbies.setMappool(roomID, id)
	if changed == nil {
		c.mu.Unlock()
		return ErrNoSuchRoom
	}
	snap := changed.clone()
	c.mu.Unlock()

	c.notifyLobby(snap)
	return nil
}

// Rooms returns a snapshot of all joined rooms in join order and the id of
// the active room, if any.
func (c *Client) Rooms() ([]Room, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rooms == nil {
		return nil, ""
	}
	return c.rooms.snapshot()
}

// Room returns a snapshot of one room.
func (c *Client) Room(id string) (Room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rooms == nil {
		return Room{}, false
	}
	room := c.rooms.get(id)
	if room == nil {
		return Room{}, false
	}
	return room.clone(), true
}

// Lobby returns a snapshot of one multiplayer lobby's tracked state.
func (c *Client) Lobby(roomID string) (LobbyState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lobbies == nil {
		return LobbyState{}, false
	}
	l := c.lobbies.get(roomID)
	if l == nil {
		return LobbyState{}, false
	}
	return l.clone(), true
}

// logf reports conditions which are noteworthy but not a reason for the
// session to exit.
func (c *Client) logf(format string, args ...any) {
	if c.ErrorLog == nil {
		log.Printf(format, args...)
		return
	}
	c.ErrorLog.Printf(format, args...)
}
