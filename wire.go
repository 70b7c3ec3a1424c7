package bancho

import (
	"errors"
	"strings"
)

// line represents one incoming or outgoing IRC frame.
//
// Bancho speaks a plain subset of the IRC protocol: no message tags, no CTCP,
// and only a handful of verbs and numerics (see constants.go). The codec here
// covers exactly that subset; it is not a general IRC parser.
type line struct {
	source  prefix
	command string
	params  params
}

// newLine constructs an outgoing frame with cmd as the verb and args as the
// message parameters. Only the last argument may contain SPACE; it is always
// encoded as the trailing component.
func newLine(cmd string, args ...string) *line {
	return &line{
		command: strings.ToUpper(cmd),
		params:  args,
	}
}

var errEmptyLine = errors.New("empty line")

// parseLine decodes a single frame read from the connection.
// raw must not include the trailing CR-LF pair.
func parseLine(raw string) (*line, error) {
	raw = strings.TrimRight(raw, "\r\n")
	if raw == "" {
		return nil, errEmptyLine
	}

	m := &line{}

	if raw[0] == ':' {
		src, rest, ok := strings.Cut(raw[1:], " ")
		if !ok {
			return nil, errors.New("line contained a prefix but no command")
		}
		m.source = parsePrefix(src)
		raw = rest
	}

	// the trailing component may contain spaces and is split off first so that
	// the remaining params can be split on single spaces.
	var trailing string
	var hasTrailing bool
	if head, tail, ok := strings.Cut(raw, " :"); ok {
		raw = head
		trailing = tail
		hasTrailing = true
	}

	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, errors.New("line contained no command")
	}
	m.command = strings.ToUpper(fields[0])
	m.params = fields[1:]
	if hasTrailing {
		m.params = append(m.params, trailing)
	}
	return m, nil
}

// encode returns the frame as a CR-LF terminated protocol line.
func (m *line) encode() []byte {
	var b strings.Builder
	b.Grow(64)
	b.WriteString(m.command)
	for i, p := range m.params {
		b.WriteByte(' ')
		// for simplicity, always write the last param in the trailing
		// component. proper parsers handle this normally.
		if i == len(m.params)-1 {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// text returns the free-form text portion of a chat frame.
func (m *line) text() string {
	switch m.command {
	case cmdPrivmsg, cmdNotice:
		return m.params.get(2)
	default:
		return ""
	}
}

// target returns the channel or nickname a chat frame was addressed to.
func (m *line) target() string {
	return m.params.get(1)
}

// params contains the slice of arguments for a frame.
type params []string

// get returns the nth parameter (starting at 1), or "" if it did not exist.
// Parameters have meaning based on their position in the argument list, so
// callers may simply compare ordinal parameter n against the empty string
// without worrying whether it was present.
func (p params) get(n int) string {
	if n > len(p) || n < 1 {
		return ""
	}
	return p[n-1]
}

// prefix is the optional frame prefix indicating the source of a message.
//
// Example nickname prefix:
//
//	:BanchoBot!cho@ppy.sh PRIVMSG #mp_12345 :Room name: Winter Cup, ...
//
// Example server prefix:
//
//	:cho.ppy.sh 403 Someone #foo :No such channel
type prefix struct {
	nick string
	user string
	host string
}

func parsePrefix(src string) prefix {
	nick, addr, ok := strings.Cut(src, "!")
	if !ok {
		// rfc1459: a prefix without !user@host is either a bare nickname or a
		// server name. Server names contain dots; nicknames cannot.
		if strings.Contains(src, ".") {
			return prefix{host: src}
		}
		return prefix{nick: src}
	}
	user, host, _ := strings.Cut(addr, "@")
	return prefix{nick: nick, user: user, host: host}
}

// isServer reports whether the frame originated from the server rather than
// another client.
func (p prefix) isServer() bool {
	return p.nick == "" && p.host != ""
}

// name returns the display name of the message source: the nickname when one
// is present, otherwise the server host.
func (p prefix) name() string {
	if p.nick != "" {
		return p.nick
	}
	return p.host
}

func (p prefix) String() string {
	switch {
	case p.nick == "" && p.user == "" && p.host == "":
		return ""
	case p.nick == "" && p.user == "":
		return p.host
	case p.user == "":
		return p.nick
	default:
		return p.nick + "!" + p.user + "@" + p.host
	}
}
