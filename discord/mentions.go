package discord

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// NameMapping associates the human-readable form of an entity with its
// mention token.
type NameMapping struct {
	Name    string
	Mention string
}

// Resolver rewrites mentions between their wire and human forms.
type Resolver struct {
	State *State
	Namer *Namer
}

// AllNames returns every nameable entity in the scope of a channel, longest
// names first. Equal lengths keep their discovery order: for each member, the
// user name form precedes the member display form.
func (r *Resolver) AllNames(ref ChannelRef) []NameMapping {
	var names []NameMapping
	addUser := func(u User) {
		names = append(names, NameMapping{
			Name:    r.Namer.UserName(u, WithPrefix),
			Mention: UserMention(u.ID),
		})
	}
	switch ref := ref.(type) {
	case PublicChannel:
		s := ref.Server
		for i := range s.Members {
			m := &s.Members[i]
			addUser(m.User)
			names = append(names, NameMapping{
				Name:    r.Namer.MemberName(m, WithPrefix),
				Mention: MemberMention(m.User.ID),
			})
		}
		for _, role := range s.Roles {
			names = append(names, NameMapping{
				Name:    r.Namer.RoleName(role, WithPrefix),
				Mention: RoleMention(role.ID),
			})
		}
		for _, c := range s.Channels {
			names = append(names, NameMapping{
				Name:    r.Namer.ChannelName(PublicChannel{Server: s, Channel: c}, WithPrefix),
				Mention: ChannelMention(c.ID),
			})
		}
	case PrivateChannel:
		if u, ok := ref.Recipient(); ok {
			addUser(u)
		}
	case GroupChannel:
		for _, u := range ref.Channel.Recipients {
			addUser(u)
		}
	default:
		panic("unreachable")
	}
	sort.SliceStable(names, func(i, j int) bool {
		return len(names[i].Name) > len(names[j].Name)
	})
	return names
}

// ReplaceOutgoing replaces the names typed by the user with mention tokens.
// At each position the longest matching name wins, and replaced text is not
// scanned again.
func (r *Resolver) ReplaceOutgoing(ref ChannelRef, text string) string {
	names := r.AllNames(ref)
	if len(names) == 0 {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); {
		matched := false
		for _, nm := range names {
			if nm.Name == "" || nm.Name[0] != text[i] {
				continue
			}
			if strings.HasPrefix(text[i:], nm.Name) {
				sb.WriteString(nm.Mention)
				i += len(nm.Name)
				matched = true
				break
			}
		}
		if !matched {
			_, size := utf8.DecodeRuneInString(text[i:])
			sb.WriteString(text[i : i+size])
			i += size
		}
	}
	return sb.String()
}

var tokenRegex = regexp.MustCompile(`<(?:(@!?|@&|#)(\d+)|a?:(\w+):\d+)>`)

const unknownName = "unknown"

// ReplaceIncoming replaces mention tokens in text received on a channel with
// colored display names. mentioned lists the users the message declared as
// mentioned, used for users outside the channel scope.
func (r *Resolver) ReplaceIncoming(ref ChannelRef, text string, mentioned []User) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}
	matches := tokenRegex.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for _, m := range matches {
		sb.WriteString(text[last:m[0]])
		last = m[1]
		if m[6] >= 0 {
			// custom emoji
			sb.WriteString(":" + text[m[6]:m[7]] + ":")
			continue
		}
		kind := text[m[2]:m[3]]
		id := ParseID(text[m[4]:m[5]])
		switch kind {
		case "@", "@!":
			sb.WriteString(r.userName(ref, id, mentioned))
		case "@&":
			sb.WriteString(r.roleName(ref, id))
		case "#":
			sb.WriteString(r.channelName(id))
		}
	}
	sb.WriteString(text[last:])
	return sb.String()
}

func (r *Resolver) userName(ref ChannelRef, id ID, mentioned []User) string {
	switch ref := ref.(type) {
	case PublicChannel:
		if m, ok := ref.Server.Member(id); ok {
			return r.Namer.MemberName(m, ColoredWithPrefix)
		}
	case PrivateChannel, GroupChannel:
		for _, u := range ref.Info().Recipients {
			if u.ID == id {
				return r.Namer.UserName(u, ColoredWithPrefix)
			}
		}
	default:
		panic("unreachable")
	}
	if self := r.State.CurrentUser(); self.ID == id {
		return r.Namer.UserName(self, ColoredWithPrefix)
	}
	for _, u := range mentioned {
		if u.ID == id {
			return r.Namer.UserName(u, ColoredWithPrefix)
		}
	}
	return r.Namer.format(unknownName, "@", ColoredWithPrefix)
}

func (r *Resolver) roleName(ref ChannelRef, id ID) string {
	if ref, ok := ref.(PublicChannel); ok {
		if role, ok := ref.Server.Role(id); ok {
			return r.Namer.RoleName(*role, ColoredWithPrefix)
		}
	}
	return r.Namer.format(unknownName, "@", ColoredWithPrefix)
}

func (r *Resolver) channelName(id ID) string {
	if ref, ok := r.State.FindChannel(id); ok {
		return r.Namer.ChannelName(ref, ColoredWithPrefix)
	}
	return r.Namer.format(unknownName, "#", ColoredWithPrefix)
}
