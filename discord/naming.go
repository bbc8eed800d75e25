package discord

import (
	"fmt"
	"strings"
)

type NameFormat int

const (
	Plain NameFormat = iota
	WithPrefix
	Colored
	ColoredWithPrefix
)

func (f NameFormat) prefixed() bool {
	return f == WithPrefix || f == ColoredWithPrefix
}

func (f NameFormat) colored() bool {
	return f == Colored || f == ColoredWithPrefix
}

// Overrides provides user-chosen display names keyed by entity id.
type Overrides interface {
	Rename(id ID) (string, bool)
}

// Namer derives display names and mention tokens.
type Namer struct {
	Overrides Overrides
	// Color returns the two-digit mIRC color code used for a name. Names
	// are not colored when Color is nil.
	Color func(name string) string
}

func (n *Namer) rename(id ID) (string, bool) {
	if n.Overrides == nil {
		return "", false
	}
	name, ok := n.Overrides.Rename(id)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

func (n *Namer) format(name string, sigil string, f NameFormat) string {
	if f.prefixed() {
		name = sigil + name
	}
	if f.colored() && n.Color != nil {
		name = Colorize(name, n.Color(strings.TrimPrefix(name, sigil)))
	}
	return name
}

// Colorize wraps s in mIRC color control bytes. code must be two digits.
func Colorize(s, code string) string {
	return "\x03" + code + s + "\x03"
}

func (n *Namer) rawUserName(u User) string {
	if name, ok := n.rename(u.ID); ok {
		return name
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func (n *Namer) UserName(u User, f NameFormat) string {
	return n.format(n.rawUserName(u), "@", f)
}

// MemberName resolves the member override, then the nickname, then the
// user name path.
func (n *Namer) MemberName(m *Member, f NameFormat) string {
	var name string
	if override, ok := n.rename(m.User.ID); ok {
		name = override
	} else if m.Nick != "" {
		name = m.Nick
	} else {
		name = n.rawUserName(m.User)
	}
	return n.format(name, "@", f)
}

func (n *Namer) RoleName(r Role, f NameFormat) string {
	name := r.Name
	if override, ok := n.rename(r.ID); ok {
		name = override
	}
	return n.format(name, "@", f)
}

func (n *Namer) ServerName(s *Server, f NameFormat) string {
	name := s.Name
	if override, ok := n.rename(s.ID); ok {
		name = override
	}
	return n.format(name, "", f)
}

func (n *Namer) ChannelName(ref ChannelRef, f NameFormat) string {
	switch ref := ref.(type) {
	case PublicChannel:
		name := ref.Channel.Name
		if override, ok := n.rename(ref.Channel.ID); ok {
			name = override
		}
		return n.format(name, "#", f)
	case PrivateChannel:
		if override, ok := n.rename(ref.Channel.ID); ok {
			return n.format(override, "", f)
		}
		if u, ok := ref.Recipient(); ok {
			return n.format(n.rawUserName(u), "", f)
		}
		return n.format(ref.Channel.ID.String(), "", f)
	case GroupChannel:
		if override, ok := n.rename(ref.Channel.ID); ok {
			return n.format(override, "", f)
		}
		if ref.Channel.Name != "" {
			return n.format(ref.Channel.Name, "", f)
		}
		names := make([]string, 0, len(ref.Channel.Recipients))
		for _, u := range ref.Channel.Recipients {
			names = append(names, n.rawUserName(u))
		}
		return n.format(strings.Join(names, ", "), "", f)
	default:
		panic("unreachable")
	}
}

// SurfaceAddress returns the key identifying the surface of a channel and
// its short display name. Private and group channels use the zero server id.
func (n *Namer) SurfaceAddress(ref ChannelRef) (key, short string) {
	switch ref := ref.(type) {
	case PublicChannel:
		key = fmt.Sprintf("%v.%v", ref.Server.ID, ref.Channel.ID)
		short = n.ServerName(ref.Server, Plain) + " " + n.ChannelName(ref, WithPrefix)
	case PrivateChannel:
		key = fmt.Sprintf("0.%v", ref.Channel.ID)
		short = n.ChannelName(ref, Plain)
	case GroupChannel:
		key = fmt.Sprintf("0.%v", ref.Channel.ID)
		short = n.ChannelName(ref, Plain)
	default:
		panic("unreachable")
	}
	return key, short
}

// ServerAddress returns the key of the placeholder surface of a server.
// It never collides with channel keys, which always contain a dot.
func ServerAddress(s *Server) string {
	return s.ID.String()
}

func UserMention(id ID) string    { return "<@" + id.String() + ">" }
func MemberMention(id ID) string  { return "<@!" + id.String() + ">" }
func RoleMention(id ID) string    { return "<@&" + id.String() + ">" }
func ChannelMention(id ID) string { return "<#" + id.String() + ">" }

// StripFormatting removes mIRC formatting control codes from s.
func StripFormatting(s string) string {
	if !strings.ContainsAny(s, "\x02\x03\x0F\x16\x1D\x1E\x1F") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0x02, 0x0F, 0x16, 0x1D, 0x1E, 0x1F:
		case 0x03:
			i += colorCodeLen(s[i+1:])
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func colorCodeLen(s string) int {
	digits := func(s string) int {
		n := 0
		for n < len(s) && n < 2 && '0' <= s[n] && s[n] <= '9' {
			n++
		}
		return n
	}
	n := digits(s)
	if n == 0 {
		return 0
	}
	if n < len(s) && s[n] == ',' {
		if m := digits(s[n+1:]); m > 0 {
			return n + 1 + m
		}
	}
	return n
}
