package bancho

// Outbound intents carried on the command queue. Each is consumed exactly
// once by the connection loop; commands still queued when the loop exits are
// dropped.
type command interface{ isCommand() }

type sendMessage struct {
	roomID string
	text   string
}

type sendPrivateMessage struct {
	peer string
	text string
}

type joinChannel struct{ id string }

type leaveChannel struct{ id string }

type disconnect struct{}

func (sendMessage) isCommand()        {}
func (sendPrivateMessage) isCommand() {}
func (joinChannel) isCommand()        {}
func (leaveChannel) isCommand()       {}
func (disconnect) isCommand()         {}

// msg constructs a new frame of type PRIVMSG, with target being the intended
// target channel or nickname, and text being the message body.
func msg(target, text string) *line {
	return newLine(cmdPrivmsg, target, text)
}

// join constructs a channel join frame.
func join(channel string) *line {
	return newLine(cmdJoin, channel)
}

// part constructs a leave (depart) frame for channel.
func part(channel string) *line {
	return newLine(cmdPart, channel)
}

// quit constructs a frame that will cause the server to terminate the
// client's connection.
func quit(reason string) *line {
	return newLine(cmdQuit, reason)
}

// pong builds the reply to a PING from the connection. The reply text must be
// the same as the original PING text.
func pong(reply string) *line {
	return newLine(cmdPong, reply)
}

// pass specifies the connection password. Bancho uses the account's IRC
// token here, sent before NICK/USER.
func pass(password string) *line {
	return newLine(cmdPass, password)
}

// nick defines the connection nickname.
func nick(name string) *line {
	return newLine(cmdNick, name)
}

// user specifies the username and realname of a new user at the beginning of
// a connection.
func user(name, realname string) *line {
	// The second param (mode) and third param are not useful here; "0" and
	// "*" follow rfc2812 convention.
	return newLine(cmdUser, name, "0", "*", realname)
}
