/*
Package bancho implements a client for the osu! Bancho chat server with
multiplayer lobby tracking.

A Client speaks the plaintext IRC dialect that Bancho exposes on
irc.ppy.sh:6667. On top of the chat session it maintains a registry of joined
rooms (channels, private conversations, and multiplayer lobby channels) and,
for each lobby channel, a LobbyState rebuilt from the announcement lines
BanchoBot writes into the channel: slot occupancy, the selected beatmap, room
settings, mods, the host, and the match phase.

Client

Configure a Client with struct fields and start it with Connect:

	client := &bancho.Client{
		Nickname: "playerone",
		Password: os.Getenv("OSU_IRC_TOKEN"),
		Notifier: ui,
	}
	err := client.Connect(ctx)

Connect returns once the session is being established. All further progress
arrives through the Notifier: ConnectionStatusChanged when registration
completes or the connection drops, MessageReceived for chat lines,
LobbyUpdated whenever a BanchoBot announcement changes tracked lobby state.

Commands such as SendMessage and JoinChannel enqueue work for the connection
loop and return immediately. The queue is unbounded, so callers are never
blocked by a slow connection; commands only fail when no session is live.

Lobby tracking

Joining a channel whose name starts with "#mp_" creates a LobbyState
alongside the room. Each BanchoBot line in that channel is matched against an
ordered rule table; the first matching rule mutates the state and a full
snapshot is delivered via LobbyUpdated. Sending "!mp settings" clears slot
occupancy first so the reply's slot listing rebuilds it from scratch.

The subdirectories hold supporting packages: banchotest provides an
in-process mock server for tests, store persists mappools and credentials,
osuapi fetches beatmap and user data from the osu! web API, and oauth
receives the tokens that osuapi needs.
*/
package bancho
