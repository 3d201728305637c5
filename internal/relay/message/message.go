// Package message builds the text lines relayed between peers.
package message

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// ServerName - display name of the relay itself, peers can not take it.
	ServerName = "SERVER"
	// ServerPrefix - prefix of lines generated by the relay itself.
	ServerPrefix = ServerName + ": "
)

// Format - tags message body with sender display name.
func Format(sender, body string) string {
	return sender + ": " + body
}

// Joined - builds announcement of a newly connected peer.
func Joined(name string) string {
	return ServerPrefix + name + " has entered the chat."
}

// Left - builds announcement of a disconnected peer.
func Left(name string) string {
	return ServerPrefix + name + " has left the chat."
}

// NameReserved - builds notice sent to the connection which has asked for reserved name.
func NameReserved(name string) string {
	return ServerPrefix + "name \"" + name + "\" is reserved, choose another one."
}

// Reserved - reports whether lines of the sender with this name would look like server lines.
func Reserved(name string) bool {
	return IsServer(Format(name, ""))
}

// IsServer - reports whether the line was generated by the relay.
func IsServer(line string) bool {
	return strings.HasPrefix(line, ServerPrefix)
}

// Sanitize - makes single printable line from received text.
// Invalid UTF-8 sequences and control characters are dropped,
// a run of line terminators is replaced with a single space, other spaces are kept as is.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	b := strings.Builder{}
	b.Grow(len(s))
	var prev rune
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if r == utf8.RuneError && size <= 1 {
			continue
		}
		switch {
		case r == '\n' || r == '\r':
			if prev != '\n' && prev != '\r' {
				b.WriteByte(' ')
			}
		case r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r):
			// drop
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}
