package bancho

import (
	"fmt"
	"testing"
)

const testRoom = "#mp_555"

func newTestStore() *lobbyStore {
	st := newLobbyStore()
	st.ensure(testRoom)
	return st
}

func TestLobbySlotInvariant(t *testing.T) {
	st := newTestStore()

	// a messy sequence of mutations must never disturb the fixed slot layout
	st.occupySlot(testRoom, 1, Player{Username: "PlayerOne"})
	st.occupySlot(testRoom, 16, Player{Username: "PlayerTwo"})
	st.moveToSlot(testRoom, "PlayerOne", 8, TeamRed, true)
	st.vacateByUsername(testRoom, "PlayerTwo")
	st.setMatchStatus(testRoom, MatchReady)
	st.vacateAll(testRoom)

	l := st.get(testRoom)
	if len(l.Slots) != SlotCount {
		t.Fatalf("lobby has %d slots; want %d", len(l.Slots), SlotCount)
	}
	for i, s := range l.Slots {
		if s.ID != i+1 {
			t.Errorf("slot at index %d has id %d; want %d", i, s.ID, i+1)
		}
	}
}

func TestOccupySlotVacatesPreviousSlot(t *testing.T) {
	st := newTestStore()
	st.occupySlot(testRoom, 3, Player{Username: "PlayerOne"})
	st.occupySlot(testRoom, 7, Player{Username: "PlayerOne"})

	l := st.get(testRoom)
	var held []int
	for _, s := range l.Slots {
		if s.Player != nil {
			held = append(held, s.ID)
		}
	}
	if len(held) != 1 || held[0] != 7 {
		t.Errorf("PlayerOne occupies slots %v; want [7]", held)
	}
}

func TestMoveToSlot(t *testing.T) {
	st := newTestStore()
	st.occupySlot(testRoom, 2, Player{Username: "PlayerOne", IsReady: true})

	st.moveToSlot(testRoom, "PlayerOne", 5, TeamBlue, true)
	l := st.get(testRoom)
	if p := l.slot(2).Player; p != nil {
		t.Error("source slot still occupied after move")
	}
	p := l.slot(5).Player
	if p == nil {
		t.Fatal("destination slot empty after move")
	}
	if p.Team != TeamBlue {
		t.Errorf("team = %v; want %v", p.Team, TeamBlue)
	}
	if !p.IsReady {
		t.Error("ready flag lost in move")
	}

	// a move without a team clause keeps the previous team
	st.moveToSlot(testRoom, "PlayerOne", 6, TeamNone, false)
	if p := st.get(testRoom).slot(6).Player; p.Team != TeamBlue {
		t.Errorf("team after teamless move = %v; want %v", p.Team, TeamBlue)
	}
}

func TestSetMatchStatusReadyMarksOccupants(t *testing.T) {
	st := newTestStore()
	st.occupySlot(testRoom, 1, Player{Username: "PlayerOne"})
	st.occupySlot(testRoom, 2, Player{Username: "PlayerTwo"})

	st.setMatchStatus(testRoom, MatchReady)

	l := st.get(testRoom)
	if l.MatchStatus != MatchReady {
		t.Errorf("match status = %v; want %v", l.MatchStatus, MatchReady)
	}
	occupied := 0
	for _, s := range l.Slots {
		if s.Player == nil {
			continue
		}
		occupied++
		if !s.Player.IsReady {
			t.Errorf("%s not marked ready", s.Player.Username)
		}
	}
	if occupied != 2 {
		t.Errorf("occupancy changed: %d occupied slots; want 2", occupied)
	}
}

func TestHostConsistency(t *testing.T) {
	st := newTestStore()
	for i := 1; i <= 3; i++ {
		st.occupySlot(testRoom, i, Player{Username: fmt.Sprintf("Player%d", i)})
	}

	st.setHost(testRoom, "Player2")
	l := st.get(testRoom)
	if l.Host != "Player2" {
		t.Errorf("host = %q; want %q", l.Host, "Player2")
	}
	for _, s := range l.Slots {
		if s.Player == nil {
			continue
		}
		want := s.Player.Username == "Player2"
		if s.Player.IsHost != want {
			t.Errorf("%s IsHost = %v; want %v", s.Player.Username, s.Player.IsHost, want)
		}
	}

	// reassignment moves the flag
	st.setHost(testRoom, "player3") // case-insensitive match
	l = st.get(testRoom)
	for _, s := range l.Slots {
		if s.Player == nil {
			continue
		}
		want := s.Player.Username == "Player3"
		if s.Player.IsHost != want {
			t.Errorf("after reassignment, %s IsHost = %v; want %v", s.Player.Username, s.Player.IsHost, want)
		}
	}

	st.clearHost(testRoom)
	l = st.get(testRoom)
	if l.Host != "" {
		t.Errorf("host after clear = %q; want empty", l.Host)
	}
	for _, s := range l.Slots {
		if s.Player != nil && s.Player.IsHost {
			t.Errorf("%s still flagged host after clear", s.Player.Username)
		}
	}
}

func TestMutationsOnUnknownLobbyAreNoOps(t *testing.T) {
	st := newLobbyStore()
	if got := st.setRoomName("#mp_404", "ghost"); got != nil {
		t.Error("setRoomName on unknown lobby returned state")
	}
	if got := st.occupySlot("#mp_404", 1, Player{Username: "PlayerOne"}); got != nil {
		t.Error("occupySlot on unknown lobby returned state")
	}
	if got := st.setMatchStatus("#mp_404", MatchActive); got != nil {
		t.Error("setMatchStatus on unknown lobby returned state")
	}
}

func TestEnsureSettingsDefaults(t *testing.T) {
	st := newTestStore()
	l := st.get(testRoom)
	if l.Settings != nil {
		t.Fatal("fresh lobby should have no settings block")
	}
	st.setRoomName(testRoom, "Winter Cup")
	if l.Settings == nil {
		t.Fatal("settings block not materialized")
	}
	if l.Settings.Size != SlotCount {
		t.Errorf("default size = %d; want %d", l.Settings.Size, SlotCount)
	}
	if l.Settings.TeamMode != HeadToHead || l.Settings.WinCondition != Score {
		t.Errorf("defaults = %v/%v; want %v/%v",
			l.Settings.TeamMode, l.Settings.WinCondition, HeadToHead, Score)
	}
}

func TestLobbyCloneIsDeep(t *testing.T) {
	st := newTestStore()
	st.occupySlot(testRoom, 1, Player{Username: "PlayerOne"})
	st.setRoomName(testRoom, "Winter Cup")
	st.setMap(testRoom, CurrentMap{BeatmapID: 999, Artist: "Camellia", Title: "Experiment", Difficulty: "Insane"})
	st.setMods(testRoom, []string{"HD"}, false)

	snap := st.get(testRoom).clone()
	st.vacateAll(testRoom)
	st.setRoomName(testRoom, "changed")
	st.get(testRoom).SelectedMods[0] = "changed"
	st.get(testRoom).CurrentMap.Title = "changed"

	if snap.slot(1).Player == nil || snap.slot(1).Player.Username != "PlayerOne" {
		t.Error("snapshot occupancy changed by later mutation")
	}
	if snap.Settings.RoomName != "Winter Cup" {
		t.Error("snapshot settings changed by later mutation")
	}
	if snap.SelectedMods[0] != "HD" {
		t.Error("snapshot mods share backing array with live state")
	}
	if snap.CurrentMap.Title != "Experiment" {
		t.Error("snapshot map shares pointer with live state")
	}
}

func TestSetMappool(t *testing.T) {
	st := newTestStore()
	id := int64(42)
	if got := st.setMappool(testRoom, &id); got == nil {
		t.Fatal("setMappool returned nil for existing lobby")
	}
	if got := st.get(testRoom).MappoolID; got == nil || *got != 42 {
		t.Errorf("mappool id = %v; want 42", got)
	}
	st.setMappool(testRoom, nil)
	if st.get(testRoom).MappoolID != nil {
		t.Error("mappool id not detached")
	}
}
