package bancho

import (
	"reflect"
	"testing"
)

// feed runs a sequence of announcer lines through the rule table against a
// fresh lobby and returns the store.
func feed(t *testing.T, lines ...string) *lobbyStore {
	t.Helper()
	st := newLobbyStore()
	for _, l := range lines {
		applyLobbyText(st, testRoom, Announcer, l)
	}
	return st
}

func TestRoomNameAnnouncement(t *testing.T) {
	st := feed(t, "Room name: Winter Cup, History: https://osu.ppy.sh/mp/12345")
	l := st.get(testRoom)
	if l == nil || l.Settings == nil {
		t.Fatal("no settings after room name announcement")
	}
	if l.Settings.RoomName != "Winter Cup" {
		t.Errorf("room name = %q; want %q", l.Settings.RoomName, "Winter Cup")
	}
}

func TestSlotListing(t *testing.T) {
	st := feed(t, "Slot 1  https://osu.ppy.sh/u/2 PlayerOne [Host / Team Blue]")
	p := st.get(testRoom).slot(1).Player
	if p == nil {
		t.Fatal("slot 1 empty after slot listing")
	}
	if p.Username != "PlayerOne" {
		t.Errorf("username = %q; want %q", p.Username, "PlayerOne")
	}
	if !p.IsHost {
		t.Error("host marker not extracted")
	}
	if p.Team != TeamBlue {
		t.Errorf("team = %v; want %v", p.Team, TeamBlue)
	}
	if !p.IsReady {
		t.Error("occupant with no Not Ready/No Map marker should be ready")
	}
}

func TestSlotListingVariants(t *testing.T) {
	tt := []struct {
		name string
		line string
		want Player
	}{{
		"not ready",
		"Slot 2  Not Ready https://osu.ppy.sh/u/3 PlayerTwo [Team Red]",
		Player{Username: "PlayerTwo", Team: TeamRed},
	}, {
		"no map",
		"Slot 3  No Map https://osu.ppy.sh/u/4 PlayerThree",
		Player{Username: "PlayerThree"},
	}, {
		"ready without team",
		"Slot 4  Ready https://osu.ppy.sh/u/5 PlayerFour",
		Player{Username: "PlayerFour", IsReady: true},
	}}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := parseSlotInfo(tc.line[len("Slot N  "):])
			if !ok {
				t.Fatal("parseSlotInfo found no occupant")
			}
			if p != tc.want {
				t.Errorf("parseSlotInfo = %#v; want %#v", p, tc.want)
			}
		})
	}
}

func TestSlotWithoutUsernameLeavesSlotUntouched(t *testing.T) {
	st := feed(t,
		"Slot 1  https://osu.ppy.sh/u/2 PlayerOne [Host]",
		"Slot 1  garbage with no profile link",
	)
	p := st.get(testRoom).slot(1).Player
	if p == nil || p.Username != "PlayerOne" {
		t.Error("unparseable slot line should not disturb existing occupancy")
	}
}

func TestActiveModsWithFreemod(t *testing.T) {
	st := feed(t, "Active mods: Hidden, HardRock, Freemod")
	l := st.get(testRoom)
	if want := []string{"HD", "HR"}; !reflect.DeepEqual(l.SelectedMods, want) {
		t.Errorf("mods = %v; want %v", l.SelectedMods, want)
	}
	if !l.Freemod {
		t.Error("freemod flag not set")
	}
}

func TestModsChangedAnnouncements(t *testing.T) {
	st := feed(t, "Enabled DoubleTime, disabled FreeMod")
	l := st.get(testRoom)
	if want := []string{"DT"}; !reflect.DeepEqual(l.SelectedMods, want) {
		t.Errorf("mods = %v; want %v", l.SelectedMods, want)
	}
	if l.Freemod {
		t.Error("freemod should be disabled")
	}

	applyLobbyText(st, testRoom, Announcer, "Disabled all mods, enabled FreeMod")
	if len(l.SelectedMods) != 0 || !l.Freemod {
		t.Errorf("after freemod enable: mods=%v freemod=%v; want none/true", l.SelectedMods, l.Freemod)
	}

	applyLobbyText(st, testRoom, Announcer, "Disabled all mods, disabled FreeMod")
	if len(l.SelectedMods) != 0 || l.Freemod {
		t.Errorf("after full reset: mods=%v freemod=%v; want none/false", l.SelectedMods, l.Freemod)
	}
}

func TestNormalizeMod(t *testing.T) {
	tt := []struct{ in, want string }{
		{"Hidden", "HD"},
		{"HardRock", "HR"},
		{"DoubleTime", "DT"},
		{"Nightcore", "NC"},
		{"Unknown123", "Unknown123"},
	}
	for _, tc := range tt {
		if got := normalizeMod(tc.in); got != tc.want {
			t.Errorf("normalizeMod(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestBeatmapChanged(t *testing.T) {
	st := feed(t, "Beatmap changed to: Camellia - Experiment [Insane] (https://osu.ppy.sh/b/999)")
	m := st.get(testRoom).CurrentMap
	if m == nil {
		t.Fatal("no current map after beatmap announcement")
	}
	want := CurrentMap{BeatmapID: 999, Artist: "Camellia", Title: "Experiment", Difficulty: "Insane"}
	if *m != want {
		t.Errorf("current map = %#v; want %#v", *m, want)
	}
}

func TestBeatmapArtistTitleSplitsOnFirstSeparator(t *testing.T) {
	st := feed(t, "Beatmap: https://osu.ppy.sh/b/42 ZUN - Necrofantasia - Remix [Lunatic]")
	m := st.get(testRoom).CurrentMap
	if m == nil {
		t.Fatal("no current map")
	}
	if m.Artist != "ZUN" || m.Title != "Necrofantasia - Remix" {
		t.Errorf("artist/title = %q/%q; want ZUN/Necrofantasia - Remix", m.Artist, m.Title)
	}
}

func TestBeatmapWithoutSeparatorIsIgnored(t *testing.T) {
	st := feed(t,
		"Beatmap changed to: Camellia - Experiment [Insane] (https://osu.ppy.sh/b/999)",
		"Beatmap changed to: NoSeparatorHere [Hard] (https://osu.ppy.sh/b/1000)",
	)
	m := st.get(testRoom).CurrentMap
	if m == nil || m.BeatmapID != 999 {
		t.Error("partial extraction failure should leave the previous map in place")
	}
}

func TestPlayerJoinAndLeave(t *testing.T) {
	st := feed(t, "PlayerOne joined in slot 3 for team red.")
	p := st.get(testRoom).slot(3).Player
	if p == nil || p.Username != "PlayerOne" || p.Team != TeamRed {
		t.Fatalf("slot 3 after join = %#v", p)
	}

	applyLobbyText(st, testRoom, Announcer, "PlayerOne left the game.")
	if st.get(testRoom).slot(3).Player != nil {
		t.Error("slot still occupied after leave")
	}
}

func TestMatchLifecycle(t *testing.T) {
	st := feed(t,
		"PlayerOne joined in slot 1.",
		"PlayerTwo joined in slot 2.",
		"All players are ready",
	)
	l := st.get(testRoom)
	if l.MatchStatus != MatchReady {
		t.Fatalf("status = %v; want %v", l.MatchStatus, MatchReady)
	}

	applyLobbyText(st, testRoom, Announcer, "The match has started!")
	if l.MatchStatus != MatchActive {
		t.Errorf("status = %v; want %v", l.MatchStatus, MatchActive)
	}
	for _, s := range l.Slots {
		if s.Player != nil && !s.Player.IsReady {
			t.Errorf("%s lost ready flag across match start", s.Player.Username)
		}
	}

	applyLobbyText(st, testRoom, Announcer, "The match has finished!")
	if l.MatchStatus != MatchIdle {
		t.Errorf("status after finish = %v; want %v", l.MatchStatus, MatchIdle)
	}

	applyLobbyText(st, testRoom, Announcer, "The match has started!")
	applyLobbyText(st, testRoom, Announcer, "Host aborted the match")
	if l.MatchStatus != MatchIdle {
		t.Errorf("status after abort = %v; want %v", l.MatchStatus, MatchIdle)
	}
}

func TestHostAnnouncements(t *testing.T) {
	st := feed(t,
		"PlayerOne joined in slot 1.",
		"Changed match host to PlayerOne",
	)
	l := st.get(testRoom)
	if l.Host != "PlayerOne" {
		t.Fatalf("host = %q; want PlayerOne", l.Host)
	}
	if !l.slot(1).Player.IsHost {
		t.Error("slot host flag not set")
	}

	applyLobbyText(st, testRoom, Announcer, "Cleared match host")
	if l.Host != "" || l.slot(1).Player.IsHost {
		t.Error("host not fully cleared")
	}
}

func TestPlayerMovedWithTeam(t *testing.T) {
	st := feed(t,
		"PlayerOne joined in slot 1 for team blue.",
		"PlayerOne moved to slot 9 for team red",
	)
	l := st.get(testRoom)
	if l.slot(1).Player != nil {
		t.Error("origin slot still occupied")
	}
	p := l.slot(9).Player
	if p == nil || p.Team != TeamRed {
		t.Errorf("slot 9 = %#v; want PlayerOne on red", p)
	}
}

func TestRoomRenamed(t *testing.T) {
	st := feed(t, `Room name updated to "Grand Finals"`)
	if got := st.get(testRoom).Settings.RoomName; got != "Grand Finals" {
		t.Errorf("room name = %q; want Grand Finals", got)
	}
}

func TestTeamModeAndWinCondition(t *testing.T) {
	st := feed(t, "Team mode: Team Vs, Win condition: Score V2")
	s := st.get(testRoom).Settings
	if s.TeamMode != TeamVs || s.WinCondition != ScoreV2 {
		t.Errorf("modes = %v/%v; want %v/%v", s.TeamMode, s.WinCondition, TeamVs, ScoreV2)
	}

	// unrecognized labels fall back to the defaults
	applyLobbyText(st, testRoom, Announcer, "Team mode: Mystery, Win condition: Mystery")
	if s.TeamMode != HeadToHead || s.WinCondition != Score {
		t.Errorf("fallback modes = %v/%v; want %v/%v", s.TeamMode, s.WinCondition, HeadToHead, Score)
	}
}

func TestParticipantLeftFiresForAnyAuthor(t *testing.T) {
	st := newLobbyStore()
	st.ensure("#mp_123")
	st.occupySlot("#mp_123", 1, Player{Username: "PlayerOne"})

	// the departure notice names the lobby itself and comes from the server,
	// not the announcer
	if got := applyLobbyText(st, "#mp_123", "cho.ppy.sh", "PlayerOne left #mp_123"); got == nil {
		t.Fatal("participant-left rule did not fire for a non-announcer author")
	}
	if st.get("#mp_123").slot(1).Player != nil {
		t.Error("slot still occupied after departure notice")
	}
}

func TestNonAnnouncerLinesAreOtherwiseIgnored(t *testing.T) {
	st := newLobbyStore()
	st.ensure(testRoom)

	if got := applyLobbyText(st, testRoom, "PlayerOne", "Slot 1  https://osu.ppy.sh/u/2 Impostor [Host]"); got != nil {
		t.Error("slot rule fired for a non-announcer author")
	}
	if st.get(testRoom).slot(1).Player != nil {
		t.Error("non-announcer chatter mutated slot state")
	}
}

func TestUnmatchedAnnouncerLineIsIgnored(t *testing.T) {
	st := newLobbyStore()
	if got := applyLobbyText(st, testRoom, Announcer, "Queue mode: Host Rotate"); got != nil {
		t.Error("unrecognized announcer line reported a mutation")
	}
	// the announcer line still ensured the lobby exists
	if st.get(testRoom) == nil {
		t.Error("announcer line did not ensure lobby state")
	}
}

func TestAnnouncerCheckIsCaseSensitive(t *testing.T) {
	st := newLobbyStore()
	st.ensure(testRoom)
	if got := applyLobbyText(st, testRoom, "banchobot", "All players are ready"); got != nil {
		t.Error("announcer identity must be byte-exact")
	}
}
