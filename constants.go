package bancho

// irc verbs used by the Bancho protocol subset.
const (
	cmdJoin    = "JOIN"    // Join a channel.
	cmdNick    = "NICK"    // Define a nickname.
	cmdNotice  = "NOTICE"  // Send a notice to specific users or channels.
	cmdPart    = "PART"    // Leave a channel.
	cmdPass    = "PASS"    // Set a connection password.
	cmdPing    = "PING"    // Test for the presence of an active client or server.
	cmdPong    = "PONG"    // Reply to a PING message.
	cmdPrivmsg = "PRIVMSG" // Send messages to users or channels.
	cmdQuit    = "QUIT"    // Terminate the client session.
	cmdUser    = "USER"    // Specify the username and realname of a new user.
)

// connection and error numerics the client reacts to.
const (
	rplWelcome = "001" // "Welcome to the osu!Bancho."

	rplErrNoSuchChannel  = "403" // "<channel name> :No such channel"
	rplErrChannelIsFull  = "471" // "<channel> :Cannot join channel (+l)"
	rplErrInviteOnlyChan = "473" // "<channel> :Cannot join channel (+i)"
	rplErrBannedFromChan = "474" // "<channel> :Cannot join channel (+b)"
	rplErrBadChannelKey  = "475" // "<channel> :Cannot join channel (+k)"
)

// joinFailures maps join-rejection numerics to the reason reported through
// Notifier.RoomError.
var joinFailures = map[string]string{
	rplErrNoSuchChannel:  "channel does not exist",
	rplErrChannelIsFull:  "channel is full",
	rplErrInviteOnlyChan: "channel is invite only",
	rplErrBannedFromChan: "you are banned from this channel",
	rplErrBadChannelKey:  "wrong channel password",
}
