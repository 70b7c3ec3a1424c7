package bancho

import "strings"

// SlotCount is the fixed number of player slots in a multiplayer lobby.
const SlotCount = 16

// TeamMode is a lobby's team arrangement.
type TeamMode int

const (
	HeadToHead TeamMode = iota
	TagCoop
	TeamVs
	TagTeamVs
)

func (m TeamMode) String() string {
	switch m {
	case TagCoop:
		return "TagCoop"
	case TeamVs:
		return "TeamVs"
	case TagTeamVs:
		return "TagTeamVs"
	default:
		return "HeadToHead"
	}
}

// WinCondition is the scoring rule a lobby's matches are decided by.
type WinCondition int

const (
	Score WinCondition = iota
	Accuracy
	Combo
	ScoreV2
)

func (w WinCondition) String() string {
	switch w {
	case Accuracy:
		return "Accuracy"
	case Combo:
		return "Combo"
	case ScoreV2:
		return "ScoreV2"
	default:
		return "Score"
	}
}

// MatchStatus describes a lobby's game-round lifecycle.
type MatchStatus int

const (
	MatchIdle MatchStatus = iota
	MatchReady
	MatchStarting
	MatchActive
)

func (s MatchStatus) String() string {
	switch s {
	case MatchReady:
		return "ready"
	case MatchStarting:
		return "starting"
	case MatchActive:
		return "active"
	default:
		return "idle"
	}
}

// Team is a player's team assignment in team modes.
type Team int

const (
	TeamNone Team = iota
	TeamRed
	TeamBlue
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "none"
	}
}

// Player is the occupant of a lobby slot.
type Player struct {
	Username  string
	Team      Team
	IsReady   bool
	IsPlaying bool
	IsHost    bool
}

// PlayerSlot is one of the 16 fixed positions in a lobby. Slot ids are 1..16
// and never change once the lobby exists.
type PlayerSlot struct {
	ID     int
	Player *Player
}

// CurrentMap is the beatmap a lobby currently has selected.
type CurrentMap struct {
	BeatmapID  int64
	Artist     string
	Title      string
	Difficulty string
}

// LobbySettings holds the room-level settings announced by BanchoBot.
// Settings start absent on a fresh lobby and materialize with defaults on the
// first applicable announcement.
type LobbySettings struct {
	RoomName     string
	TeamMode     TeamMode
	WinCondition WinCondition
	Size         int
	Password     string
}

// LobbyState is the tracked state of one multiplayer lobby.
type LobbyState struct {
	RoomID       string
	Settings     *LobbySettings
	CurrentMap   *CurrentMap
	Slots        []PlayerSlot
	MatchStatus  MatchStatus
	Host         string // empty when no host is assigned
	Freemod      bool
	SelectedMods []string
	MappoolID    *int64
}

func newLobbyState(roomID string) *LobbyState {
	slots := make([]PlayerSlot, SlotCount)
	for i := range slots {
		slots[i].ID = i + 1
	}
	return &LobbyState{
		RoomID:      roomID,
		Slots:       slots,
		MatchStatus: MatchIdle,
	}
}

// clone returns a deep copy safe to hand outside the client's lock.
func (l *LobbyState) clone() LobbyState {
	c := *l
	c.Slots = make([]PlayerSlot, len(l.Slots))
	copy(c.Slots, l.Slots)
	for i, s := range c.Slots {
		if s.Player != nil {
			p := *s.Player
			c.Slots[i].Player = &p
		}
	}
	if l.Settings != nil {
		s := *l.Settings
		c.Settings = &s
	}
	if l.CurrentMap != nil {
		m := *l.CurrentMap
		c.CurrentMap = &m
	}
	if l.SelectedMods != nil {
		c.SelectedMods = append([]string(nil), l.SelectedMods...)
	}
	if l.MappoolID != nil {
		id := *l.MappoolID
		c.MappoolID = &id
	}
	return c
}

// slot returns the slot with the given id, or nil if id is out of range.
func (l *LobbyState) slot(id int) *PlayerSlot {
	if id < 1 || id > len(l.Slots) {
		return nil
	}
	return &l.Slots[id-1]
}

// find returns the slot currently occupied by username, or nil.
// Username comparison is case-insensitive.
func (l *LobbyState) find(username string) *PlayerSlot {
	for i := range l.Slots {
		if p := l.Slots[i].Player; p != nil && strings.EqualFold(p.Username, username) {
			return &l.Slots[i]
		}
	}
	return nil
}

// ensureSettings materializes the settings block with defaults so that
// mutation operations never reach through a nil pointer.
func (l *LobbyState) ensureSettings() *LobbySettings {
	if l.Settings == nil {
		l.Settings = &LobbySettings{Size: SlotCount}
	}
	return l.Settings
}

// lobbyStore holds one LobbyState per multiplayer room. It exposes named
// mutation operations only; each returns the mutated state, or nil when the
// named lobby does not exist (a no-op, not an error). The store performs no
// locking of its own: during a session it is owned by the connection loop,
// and all access goes through the client's lock.
type lobbyStore struct {
	lobbies map[string]*LobbyState
}

func newLobbyStore() *lobbyStore {
	return &lobbyStore{lobbies: make(map[string]*LobbyState)}
}

// ensure returns the lobby for roomID, creating it if necessary.
func (s *lobbyStore) ensure(roomID string) *LobbyState {
	l, ok := s.lobbies[roomID]
	if !ok {
		l = newLobbyState(roomID)
		s.lobbies[roomID] = l
	}
	return l
}

func (s *lobbyStore) get(roomID string) *LobbyState {
	return s.lobbies[roomID]
}

func (s *lobbyStore) remove(roomID string) {
	delete(s.lobbies, roomID)
}

func (s *lobbyStore) setRoomName(roomID, name string) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	l.ensureSettings().RoomName = name
	return l
}

func (s *lobbyStore) setModes(roomID string, mode TeamMode, win WinCondition) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	settings := l.ensureSettings()
	settings.TeamMode = mode
	settings.WinCondition = win
	return l
}

func (s *lobbyStore) setMap(roomID string, m CurrentMap) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	l.CurrentMap = &m
	return l
}

func (s *lobbyStore) setMods(roomID string, mods []string, freemod bool) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	l.SelectedMods = mods
	l.Freemod = freemod
	return l
}

// occupySlot places player into the given slot, vacating any slot the same
// username previously occupied so that a player never appears twice.
func (s *lobbyStore) occupySlot(roomID string, slotID int, player Player) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	slot := l.slot(slotID)
	if slot == nil {
		return nil
	}
	if prev := l.find(player.Username); prev != nil && prev != slot {
		prev.Player = nil
	}
	slot.Player = &player
	return l
}

// vacateByUsername removes username from whichever slot holds them.
func (s *lobbyStore) vacateByUsername(roomID, username string) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	if slot := l.find(username); slot != nil {
		slot.Player = nil
	}
	return l
}

// vacateAll empties every slot. Used when a "!mp settings" refresh is about
// to rebuild occupancy from scratch.
func (s *lobbyStore) vacateAll(roomID string) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	for i := range l.Slots {
		l.Slots[i].Player = nil
	}
	return l
}

// setMatchStatus updates the match phase. Entering MatchReady marks every
// occupied slot's player as ready; occupancy itself is unchanged.
func (s *lobbyStore) setMatchStatus(roomID string, status MatchStatus) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	l.MatchStatus = status
	if status == MatchReady {
		for i := range l.Slots {
			if p := l.Slots[i].Player; p != nil {
				p.IsReady = true
			}
		}
	}
	return l
}

// setHost assigns the lobby host. Exactly the slot holding username (if any)
// ends with IsHost set.
func (s *lobbyStore) setHost(roomID, username string) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	l.Host = username
	for i := range l.Slots {
		if p := l.Slots[i].Player; p != nil {
			p.IsHost = strings.EqualFold(p.Username, username)
		}
	}
	return l
}

// clearHost removes the host assignment from the lobby and every player.
func (s *lobbyStore) clearHost(roomID string) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	l.Host = ""
	for i := range l.Slots {
		if p := l.Slots[i].Player; p != nil {
			p.IsHost = false
		}
	}
	return l
}

// moveToSlot relocates username to newSlotID, keeping the Player as-is except
// for an optional team change announced alongside the move.
func (s *lobbyStore) moveToSlot(roomID, username string, newSlotID int, team Team, hasTeam bool) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	dest := l.slot(newSlotID)
	if dest == nil {
		return nil
	}
	from := l.find(username)
	if from == nil {
		return l
	}
	player := from.Player
	from.Player = nil
	if hasTeam {
		player.Team = team
	}
	dest.Player = player
	return l
}

func (s *lobbyStore) setMappool(roomID string, id *int64) *LobbyState {
	l := s.get(roomID)
	if l == nil {
		return nil
	}
	l.MappoolID = id
	return l
}
