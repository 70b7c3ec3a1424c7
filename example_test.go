package bancho_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"

	"github.com/osukit/bancho"
	"github.com/osukit/bancho/ircdebug"
)

// consoleNotifier prints a few interesting events and ignores the rest.
type consoleNotifier struct{}

func (consoleNotifier) ConnectionStatusChanged(connected bool) {
	fmt.Println("connected:", connected)
}
func (consoleNotifier) RoomsUpdated(rooms []bancho.Room, activeID string) {}
func (consoleNotifier) ActiveRoomChanged(room *bancho.Room)               {}
func (consoleNotifier) LobbyUpdated(lobby bancho.LobbyState) {
	fmt.Println("lobby", lobby.RoomID, "is", lobby.MatchStatus)
}
func (consoleNotifier) MessageReceived(m bancho.ChatMessage, active bool) {
	fmt.Printf("[%s] %s: %s\n", m.RoomID, m.Author, m.Text)
}
func (consoleNotifier) UserJoined(roomID, username string) {}
func (consoleNotifier) UserParted(roomID, username string) {}
func (consoleNotifier) RoomError(roomID, reason string) {
	fmt.Println("could not join", roomID+":", reason)
}

func ExampleClient() {
	client := &bancho.Client{
		Nickname: "playerone",
		Password: os.Getenv("OSU_IRC_TOKEN"),
		Notifier: consoleNotifier{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		log.Fatal(err)
	}

	// once ConnectionStatusChanged(true) has fired:
	//	client.JoinChannel("#mp_12345")
	//	client.SendMessage("#mp_12345", "!mp settings")

	client.Wait()
}

// Wrap the dialed connection with ircdebug to watch raw traffic while
// developing against the live server.
func ExampleClient_dialFn() {
	client := &bancho.Client{
		Nickname: "playerone",
		DialFn: func() (io.ReadWriteCloser, error) {
			conn, err := net.Dial("tcp", bancho.DefaultAddr)
			if err != nil {
				return nil, err
			}
			return ircdebug.WriteTo(os.Stdout, conn, "-> ", "<- "), nil
		},
	}
	_ = client
}
