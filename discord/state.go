package discord

import (
	"errors"
	"fmt"
)

// ChannelRef is a channel located in the mirror: PublicChannel,
// PrivateChannel or GroupChannel.
type ChannelRef interface {
	Info() *Channel
	isChannelRef()
}

type PublicChannel struct {
	Server  *Server
	Channel *Channel
}

type PrivateChannel struct {
	Channel *Channel
}

type GroupChannel struct {
	Channel *Channel
}

func (c PublicChannel) Info() *Channel  { return c.Channel }
func (c PrivateChannel) Info() *Channel { return c.Channel }
func (c GroupChannel) Info() *Channel   { return c.Channel }

func (PublicChannel) isChannelRef()  {}
func (PrivateChannel) isChannelRef() {}
func (GroupChannel) isChannelRef()   {}

// Recipient returns the other end of a private channel.
func (c PrivateChannel) Recipient() (User, bool) {
	if len(c.Channel.Recipients) == 0 {
		return User{}, false
	}
	return c.Channel.Recipients[0], true
}

// State mirrors the remote account: servers, their channels, members and
// roles, and private conversations.
//
// State is not safe for concurrent use; it is owned by the event loop.
type State struct {
	user    User
	servers []*Server
	private []*Channel
}

// NewState builds the mirror from the initial snapshot. It fails when the
// snapshot is not coherent, in which case the connection cannot be used.
func NewState(ready Ready) (*State, error) {
	if ready.User.ID == 0 {
		return nil, errors.New("ready: missing current user")
	}
	st := &State{user: ready.User}
	seen := make(map[ID]struct{})
	checkChannel := func(c *Channel) error {
		if c.ID == 0 {
			return errors.New("ready: channel without id")
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("ready: duplicate channel %v", c.ID)
		}
		seen[c.ID] = struct{}{}
		return nil
	}
	for _, rs := range ready.Servers {
		if rs.ID == 0 {
			return nil, errors.New("ready: server without id")
		}
		s := copyServer(rs)
		for _, c := range s.Channels {
			if err := checkChannel(c); err != nil {
				return nil, err
			}
		}
		for _, m := range s.Members {
			if m.User.ID == 0 {
				return nil, fmt.Errorf("ready: member without user in server %v", s.ID)
			}
		}
		st.servers = append(st.servers, s)
	}
	for _, rc := range ready.PrivateChannels {
		c := rc
		if err := checkChannel(&c); err != nil {
			return nil, err
		}
		st.private = append(st.private, &c)
	}
	return st, nil
}

func copyServer(s Server) *Server {
	cp := s
	cp.Channels = make([]*Channel, 0, len(s.Channels))
	for _, c := range s.Channels {
		cc := *c
		cc.ServerID = s.ID
		cp.Channels = append(cp.Channels, &cc)
	}
	cp.Members = append([]Member(nil), s.Members...)
	cp.Roles = append([]Role(nil), s.Roles...)
	cp.Emojis = append([]Emoji(nil), s.Emojis...)
	return &cp
}

func (st *State) CurrentUser() User {
	return st.user
}

func (st *State) Servers() []*Server {
	return st.servers
}

func (st *State) PrivateChannels() []*Channel {
	return st.private
}

func (st *State) FindServer(id ID) (*Server, bool) {
	for _, s := range st.servers {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

func (st *State) FindChannel(id ID) (ChannelRef, bool) {
	for _, s := range st.servers {
		if _, c := s.channel(id); c != nil {
			return PublicChannel{Server: s, Channel: c}, true
		}
	}
	for _, c := range st.private {
		if c.ID == id {
			return privateRef(c), true
		}
	}
	return nil, false
}

func (st *State) FindMember(serverID, userID ID) (*Member, bool) {
	s, ok := st.FindServer(serverID)
	if !ok {
		return nil, false
	}
	return s.Member(userID)
}

func privateRef(c *Channel) ChannelRef {
	if c.Kind == ChannelGroup {
		return GroupChannel{Channel: c}
	}
	return PrivateChannel{Channel: c}
}

// Apply updates the mirror with an event. Events that reference unknown
// servers or channels are dropped.
func (st *State) Apply(ev Event) {
	switch ev := ev.(type) {
	case ChannelCreateEvent:
		st.upsertChannel(ev.Channel)
	case ChannelUpdateEvent:
		st.upsertChannel(ev.Channel)
	case ChannelDeleteEvent:
		st.removeChannel(ev.Channel.ID)
	case ChannelRecipientAddEvent:
		if c := st.group(ev.ChannelID); c != nil {
			for _, u := range c.Recipients {
				if u.ID == ev.User.ID {
					return
				}
			}
			c.Recipients = append(c.Recipients, ev.User)
		}
	case ChannelRecipientRemoveEvent:
		if c := st.group(ev.ChannelID); c != nil {
			for i, u := range c.Recipients {
				if u.ID == ev.User.ID {
					c.Recipients = append(c.Recipients[:i], c.Recipients[i+1:]...)
					break
				}
			}
		}
	case ServerCreateEvent:
		s := copyServer(ev.Server)
		for i, old := range st.servers {
			if old.ID == s.ID {
				st.servers[i] = s
				return
			}
		}
		st.servers = append(st.servers, s)
	case ServerUpdateEvent:
		s, ok := st.FindServer(ev.Server.ID)
		if !ok {
			return
		}
		s.Name = ev.Server.Name
		if ev.Server.Roles != nil {
			s.Roles = append([]Role(nil), ev.Server.Roles...)
		}
		if ev.Server.Emojis != nil {
			s.Emojis = append([]Emoji(nil), ev.Server.Emojis...)
		}
	case ServerDeleteEvent:
		for i, s := range st.servers {
			if s.ID == ev.ServerID {
				st.servers = append(st.servers[:i], st.servers[i+1:]...)
				return
			}
		}
	case ServerMemberAddEvent:
		if s, ok := st.FindServer(ev.ServerID); ok {
			s.upsertMember(ev.Member)
		}
	case ServerMemberUpdateEvent:
		if s, ok := st.FindServer(ev.ServerID); ok {
			s.upsertMember(ev.Member)
		}
	case ServerMemberRemoveEvent:
		if s, ok := st.FindServer(ev.ServerID); ok {
			s.removeMember(ev.User.ID)
		}
	case ServerMembersChunkEvent:
		if s, ok := st.FindServer(ev.ServerID); ok {
			for _, m := range ev.Members {
				s.upsertMember(m)
			}
		}
	case ServerRoleCreateEvent:
		st.upsertRole(ev.ServerID, ev.Role)
	case ServerRoleUpdateEvent:
		st.upsertRole(ev.ServerID, ev.Role)
	case ServerRoleDeleteEvent:
		s, ok := st.FindServer(ev.ServerID)
		if !ok {
			return
		}
		for i, r := range s.Roles {
			if r.ID == ev.RoleID {
				s.Roles = append(s.Roles[:i], s.Roles[i+1:]...)
				break
			}
		}
		for i := range s.Members {
			m := &s.Members[i]
			for j, r := range m.RoleIDs {
				if r == ev.RoleID {
					m.RoleIDs = append(m.RoleIDs[:j:j], m.RoleIDs[j+1:]...)
					break
				}
			}
		}
	case ServerEmojisUpdateEvent:
		if s, ok := st.FindServer(ev.ServerID); ok {
			s.Emojis = append([]Emoji(nil), ev.Emojis...)
		}
	case UserUpdateEvent:
		if ev.User.ID == st.user.ID {
			st.user = ev.User
		}
	case Ready, ResumedEvent, ConnectionEvent:
		// the snapshot is only used once, by NewState
	case MessageCreateEvent, MessageUpdateEvent, MessageDeleteEvent, MessageDeleteBulkEvent, MessageAckEvent:
	case ChannelPinsUpdateEvent, PresenceUpdateEvent, TypingStartEvent, VoiceStateUpdateEvent:
	case UnknownEvent:
	default:
	}
}

func (st *State) group(id ID) *Channel {
	for _, c := range st.private {
		if c.ID == id && c.Kind == ChannelGroup {
			return c
		}
	}
	return nil
}

func (st *State) upsertChannel(c Channel) {
	if ref, ok := st.FindChannel(c.ID); ok {
		old := ref.Info()
		serverID := old.ServerID
		*old = c
		old.ServerID = serverID
		return
	}
	switch c.Kind {
	case ChannelPrivate, ChannelGroup:
		c.ServerID = 0
		st.private = append(st.private, &c)
	default:
		s, ok := st.FindServer(c.ServerID)
		if !ok {
			return
		}
		s.Channels = append(s.Channels, &c)
	}
}

func (st *State) removeChannel(id ID) {
	for _, s := range st.servers {
		if i, _ := s.channel(id); i >= 0 {
			s.Channels = append(s.Channels[:i], s.Channels[i+1:]...)
			return
		}
	}
	for i, c := range st.private {
		if c.ID == id {
			st.private = append(st.private[:i], st.private[i+1:]...)
			return
		}
	}
}

func (st *State) upsertRole(serverID ID, role Role) {
	s, ok := st.FindServer(serverID)
	if !ok {
		return
	}
	for i := range s.Roles {
		if s.Roles[i].ID == role.ID {
			s.Roles[i] = role
			return
		}
	}
	s.Roles = append(s.Roles, role)
}
