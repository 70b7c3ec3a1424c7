package bancho

import (
	"regexp"
	"strconv"
	"strings"
)

// Announcer is the reserved nickname that narrates lobby state changes.
// The identity check is byte-exact; nobody else can register this name.
const Announcer = "BanchoBot"

// LobbyPrefix is the channel-id prefix reserved for multiplayer lobbies.
const LobbyPrefix = "#mp_"

// A lobbyRule matches one recognized announcer sentence and applies its
// effect to the lobby store. Rules are evaluated top to bottom against each
// received line; the first match wins and parsing stops, so order in the
// table is a contract, not an optimization. A line matching no rule is
// ignored: the announcer's vocabulary is a superset of what we track.
type lobbyRule struct {
	// anyAuthor marks the one rule that fires for lines from any author.
	// Every other rule requires the line to be authored by the Announcer.
	anyAuthor bool

	// match returns the capture groups for a matching line (index 0 being
	// the whole line, as with FindStringSubmatch), or nil.
	match func(text string) []string

	// apply mutates the store and returns the changed lobby, or nil when a
	// partial extraction failure left state untouched.
	apply func(st *lobbyStore, roomID string, g []string) *LobbyState
}

// applyLobbyText runs one chat line from a multiplayer-lobby room through the
// rule table. It returns the mutated lobby state when a rule changed
// something, or nil when the line was ignored or changed nothing.
func applyLobbyText(st *lobbyStore, roomID, author, text string) *LobbyState {
	fromAnnouncer := author == Announcer
	if fromAnnouncer {
		st.ensure(roomID)
	}
	for _, r := range lobbyRules {
		if !r.anyAuthor && !fromAnnouncer {
			continue
		}
		g := r.match(text)
		if g == nil {
			continue
		}
		return r.apply(st, roomID, g)
	}
	return nil
}

var (
	reLeftLobby      = regexp.MustCompile(`^(.+) left (#mp_\d+)$`)
	reRoomName       = regexp.MustCompile(`^Room name: (.+), History: https://osu\.ppy\.sh/mp/(\d+)$`)
	reModes          = regexp.MustCompile(`^Team mode: (.+), Win condition: (.+)$`)
	reSlot           = regexp.MustCompile(`^Slot (\d+)\s+(.+)$`)
	reBeatmap        = regexp.MustCompile(`^Beatmap: https://osu\.ppy\.sh/b/(\d+) (.+) \[(.+)\]$`)
	reBeatmapChanged = regexp.MustCompile(`^Beatmap changed to: (.+) \[(.+)\] \(https://osu\.ppy\.sh/b/(\d+)\)$`)
	reBeatmapChURL   = regexp.MustCompile(`^Beatmap changed to: https://osu\.ppy\.sh/b/(\d+) (.+) \[(.+)\]$`)
	reActiveMods     = regexp.MustCompile(`^Active mods: (.+)$`)
	reEnabledMods    = regexp.MustCompile(`^Enabled (.+), disabled FreeMod$`)
	rePlayerJoined   = regexp.MustCompile(`^(.+) joined in slot (\d+)( for team (red|blue))?\.?$`)
	rePlayerLeft     = regexp.MustCompile(`^(.+) left the game\.?$`)
	reHostChanged    = regexp.MustCompile(`^Changed match host to (.+)$`)
	rePlayerMoved    = regexp.MustCompile(`^(.+) moved to slot (\d+)( for team (red|blue))?$`)
	reRoomRenamed    = regexp.MustCompile(`^Room name updated to "(.+)"$`)

	// user-profile URL followed by the username token inside a slot line
	reSlotUser = regexp.MustCompile(`https?://osu\.ppy\.sh/u/\d+\s+([^\s\[]+)`)
)

func matchRE(re *regexp.Regexp) func(string) []string {
	return re.FindStringSubmatch
}

func matchExact(want string) func(string) []string {
	return func(text string) []string {
		if text == want {
			return []string{text}
		}
		return nil
	}
}

var lobbyRules = []lobbyRule{
	// A participant leaving the lobby channel is reported by the server, not
	// the announcer, so this rule fires for any author. The lobby is named in
	// the sentence itself.
	{
		anyAuthor: true,
		match:     matchRE(reLeftLobby),
		apply: func(st *lobbyStore, _ string, g []string) *LobbyState {
			return st.vacateByUsername(g[2], g[1])
		},
	},
	{
		match: matchRE(reRoomName),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			return st.setRoomName(roomID, g[1])
		},
	},
	{
		match: matchRE(reModes),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			return st.setModes(roomID, parseTeamMode(g[1]), parseWinCondition(g[2]))
		},
	},
	{
		match: matchRE(reSlot),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			slotID, err := strconv.Atoi(g[1])
			if err != nil {
				return nil
			}
			player, ok := parseSlotInfo(g[2])
			if !ok {
				// no extractable username; leave the slot unchanged
				return nil
			}
			return st.occupySlot(roomID, slotID, player)
		},
	},
	{
		match: matchRE(reBeatmap),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			return applyBeatmap(st, roomID, g[1], g[2], g[3])
		},
	},
	{
		match: matchRE(reBeatmapChanged),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			return applyBeatmap(st, roomID, g[3], g[1], g[2])
		},
	},
	{
		match: matchRE(reBeatmapChURL),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			return applyBeatmap(st, roomID, g[1], g[2], g[3])
		},
	},
	{
		match: matchRE(reActiveMods),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			mods, freemod := parseModList(g[1])
			return st.setMods(roomID, mods, freemod)
		},
	},
	{
		match: matchRE(reEnabledMods),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			mods, _ := parseModList(g[1])
			return st.setMods(roomID, mods, false)
		},
	},
	{
		match: matchExact("Disabled all mods, enabled FreeMod"),
		apply: func(st *lobbyStore, roomID string, _ []string) *LobbyState {
			return st.setMods(roomID, nil, true)
		},
	},
	{
		match: matchExact("Disabled all mods, disabled FreeMod"),
		apply: func(st *lobbyStore, roomID string, _ []string) *LobbyState {
			return st.setMods(roomID, nil, false)
		},
	},
	{
		match: matchRE(rePlayerJoined),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			slotID, err := strconv.Atoi(g[2])
			if err != nil {
				return nil
			}
			return st.occupySlot(roomID, slotID, Player{
				Username: g[1],
				Team:     parseTeam(g[4]),
			})
		},
	},
	{
		match: matchRE(rePlayerLeft),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			return st.vacateByUsername(roomID, g[1])
		},
	},
	{
		match: matchExact("All players are ready"),
		apply: func(st *lobbyStore, roomID string, _ []string) *LobbyState {
			return st.setMatchStatus(roomID, MatchReady)
		},
	},
	{
		match: matchExact("The match has started!"),
		apply: func(st *lobbyStore, roomID string, _ []string) *LobbyState {
			return st.setMatchStatus(roomID, MatchActive)
		},
	},
	{
		match: func(text string) []string {
			if text == "The match was aborted" || strings.Contains(text, "aborted the match") {
				return []string{text}
			}
			return nil
		},
		apply: func(st *lobbyStore, roomID string, _ []string) *LobbyState {
			return st.setMatchStatus(roomID, MatchIdle)
		},
	},
	{
		match: func(text string) []string {
			if strings.Contains(text, "finished playing") || text == "The match has finished!" {
				return []string{text}
			}
			return nil
		},
		apply: func(st *lobbyStore, roomID string, _ []string) *LobbyState {
			return st.setMatchStatus(roomID, MatchIdle)
		},
	},
	{
		match: matchExact("Cleared match host"),
		apply: func(st *lobbyStore, roomID string, _ []string) *LobbyState {
			return st.clearHost(roomID)
		},
	},
	{
		match: matchRE(reHostChanged),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			return st.setHost(roomID, g[1])
		},
	},
	{
		match: matchRE(rePlayerMoved),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			slotID, err := strconv.Atoi(g[2])
			if err != nil {
				return nil
			}
			hasTeam := g[4] != ""
			return st.moveToSlot(roomID, g[1], slotID, parseTeam(g[4]), hasTeam)
		},
	},
	{
		match: matchRE(reRoomRenamed),
		apply: func(st *lobbyStore, roomID string, g []string) *LobbyState {
			return st.setRoomName(roomID, g[1])
		},
	},
}

// applyBeatmap records the current map. combined is the "Artist - Title"
// field, split on the first " - " occurrence; titles containing " - " stay
// intact. A combined field with no separator is a partial extraction failure
// and leaves state unchanged.
func applyBeatmap(st *lobbyStore, roomID, id, combined, difficulty string) *LobbyState {
	beatmapID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil
	}
	artist, title, ok := strings.Cut(combined, " - ")
	if !ok {
		return nil
	}
	return st.setMap(roomID, CurrentMap{
		BeatmapID:  beatmapID,
		Artist:     artist,
		Title:      title,
		Difficulty: difficulty,
	})
}

// parseSlotInfo extracts the occupant described by the tail of a
// "Slot N ..." line. ok is false when no username token follows the profile
// URL, in which case the caller must leave the slot untouched.
func parseSlotInfo(text string) (Player, bool) {
	g := reSlotUser.FindStringSubmatch(text)
	if g == nil {
		return Player{}, false
	}
	username := strings.TrimSpace(g[1])
	if username == "" {
		return Player{}, false
	}
	p := Player{
		Username: username,
		IsReady:  !strings.Contains(text, "Not Ready") && !strings.Contains(text, "No Map"),
		IsHost:   strings.Contains(text, "[Host"),
	}
	switch {
	case strings.Contains(text, "Team Blue"):
		p.Team = TeamBlue
	case strings.Contains(text, "Team Red"):
		p.Team = TeamRed
	}
	return p, true
}

// parseTeamMode maps the announcer's free-text label to a TeamMode.
// Unrecognized labels fall back to HeadToHead.
func parseTeamMode(label string) TeamMode {
	switch label {
	case "Tag Coop":
		return TagCoop
	case "Team Vs":
		return TeamVs
	case "Tag Team Vs":
		return TagTeamVs
	default:
		return HeadToHead
	}
}

// parseWinCondition maps the announcer's free-text label to a WinCondition.
// Unrecognized labels fall back to Score.
func parseWinCondition(label string) WinCondition {
	switch label {
	case "Accuracy":
		return Accuracy
	case "Combo":
		return Combo
	case "Score V2":
		return ScoreV2
	default:
		return Score
	}
}

func parseTeam(label string) Team {
	switch label {
	case "red":
		return TeamRed
	case "blue":
		return TeamBlue
	default:
		return TeamNone
	}
}

// modNames maps the announcer's long mod names to the two-letter codes used
// everywhere else in the osu! ecosystem. Names not in the table pass through
// unchanged so that game modes with mods we have not enumerated keep working.
var modNames = map[string]string{
	"Hidden":      "HD",
	"HardRock":    "HR",
	"DoubleTime":  "DT",
	"Flashlight":  "FL",
	"NoFail":      "NF",
	"Easy":        "EZ",
	"HalfTime":    "HT",
	"SuddenDeath": "SD",
	"Perfect":     "PF",
	"Relax":       "RX",
	"Nightcore":   "NC",
	"SpunOut":     "SO",
}

// normalizeMod converts one long mod name to its short code.
func normalizeMod(name string) string {
	if short, ok := modNames[name]; ok {
		return short
	}
	return name
}

// parseModList splits a comma-separated mod list, normalizes each name, and
// strips a Freemod token into the returned flag.
func parseModList(list string) (mods []string, freemod bool) {
	for _, name := range strings.Split(list, ", ") {
		if strings.EqualFold(name, "Freemod") {
			freemod = true
			continue
		}
		mods = append(mods, normalizeMod(name))
	}
	return mods, freemod
}
