package weecord

import (
	"sort"
	"strings"

	"git.sr.ht/~delthas/weecord/discord"
)

const defaultTitle = "Channel Title"

func surfaceType(ref discord.ChannelRef) string {
	switch ref.(type) {
	case discord.PublicChannel:
		return "channel"
	case discord.PrivateChannel, discord.GroupChannel:
		return "private"
	default:
		panic("unreachable")
	}
}

// selfName returns the plain display name of the current user in the scope
// of a channel.
func (s *Session) selfName(ref discord.ChannelRef) string {
	me := s.state.CurrentUser()
	return s.authorName(ref, me, discord.Plain)
}

func channelTitle(ref discord.ChannelRef) string {
	if topic := ref.Info().Topic; topic != "" {
		return topic
	}
	return defaultTitle
}

// EnsureSurface returns the surface of a channel, creating it when missing.
// Channels that cannot hold messages have no surface.
func (s *Session) EnsureSurface(ref discord.ChannelRef) (surface Surface, created bool) {
	if !ref.Info().Kind.Messageable() {
		return nil, false
	}
	address, short := s.namer.SurfaceAddress(ref)
	// an existing surface may still be bound to a previous session
	surface, created = s.host.NewSurface(address, short, s.input(ref.Info().ID, address), func() {
		delete(s.pending, address)
	})
	surface.SetProperty("short_name", short)
	surface.SetProperty("localvar_type", surfaceType(ref))
	surface.SetProperty("localvar_nick", s.selfName(ref))
	if !created {
		return surface, false
	}

	surface.SetProperty("title", channelTitle(ref))
	surface.SetProperty("type", "formatted")
	surface.SetProperty("nicklist", "1")
	s.SyncRoster(surface, ref)
	if s.backlog > 0 {
		s.requestBacklog(address, ref.Info().ID)
	} else {
		surface.LoadBacklog()
	}
	return surface, true
}

// EnsureServerSurface returns the placeholder surface of a server.
func (s *Session) EnsureServerSurface(srv *discord.Server) Surface {
	address := discord.ServerAddress(srv)
	name := s.namer.ServerName(srv, discord.Plain)
	surface, created := s.host.NewSurface(address, name, nil, nil)
	if created {
		surface.SetProperty("type", "formatted")
		surface.SetProperty("nicklist", "0")
	}
	surface.SetProperty("short_name", name)
	surface.SetProperty("title", name)
	surface.SetProperty("localvar_type", "server")
	return surface
}

// SyncRoster adds the display name of everyone in a channel to the nick
// list of its surface.
func (s *Session) SyncRoster(surface Surface, ref discord.ChannelRef) {
	for _, name := range s.rosterNames(ref) {
		surface.AddNick(name)
	}
}

func (s *Session) rosterNames(ref discord.ChannelRef) []string {
	var names []string
	switch ref := ref.(type) {
	case discord.PublicChannel:
		for i := range ref.Server.Members {
			names = append(names, s.namer.MemberName(&ref.Server.Members[i], discord.Plain))
		}
	case discord.PrivateChannel, discord.GroupChannel:
		for _, u := range ref.Info().Recipients {
			names = append(names, s.namer.UserName(u, discord.Plain))
		}
		names = append(names, s.namer.UserName(s.state.CurrentUser(), discord.Plain))
	default:
		panic("unreachable")
	}
	return names
}

// syncServer ensures the surfaces of a server and refreshes their rosters.
func (s *Session) syncServer(srv *discord.Server) {
	s.EnsureServerSurface(srv)
	channels := append([]*discord.Channel(nil), srv.Channels...)
	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].Position < channels[j].Position
	})
	for _, c := range channels {
		ref := discord.PublicChannel{Server: srv, Channel: c}
		surface, created := s.EnsureSurface(ref)
		if surface != nil && !created {
			s.SyncRoster(surface, ref)
		}
	}
}

func (s *Session) openAndSyncBuffers() {
	for _, srv := range s.state.Servers() {
		s.syncServer(srv)
	}
}

// syncPrivate refreshes the surfaces of private conversations that are
// already open.
func (s *Session) syncPrivate() {
	for _, c := range s.state.PrivateChannels() {
		ref, ok := s.state.FindChannel(c.ID)
		if !ok {
			continue
		}
		address, _ := s.namer.SurfaceAddress(ref)
		if s.host.SearchSurface(address) == nil {
			continue
		}
		surface, _ := s.EnsureSurface(ref)
		s.SyncRoster(surface, ref)
	}
}

// rosters returns the names listed in every open surface, by address.
func (s *Session) rosters() map[string][]string {
	r := make(map[string][]string)
	add := func(ref discord.ChannelRef) {
		if !ref.Info().Kind.Messageable() {
			return
		}
		address, _ := s.namer.SurfaceAddress(ref)
		if s.host.SearchSurface(address) == nil {
			return
		}
		r[address] = s.rosterNames(ref)
	}
	for _, srv := range s.state.Servers() {
		for _, c := range srv.Channels {
			add(discord.PublicChannel{Server: srv, Channel: c})
		}
	}
	for _, c := range s.state.PrivateChannels() {
		if ref, ok := s.state.FindChannel(c.ID); ok {
			add(ref)
		}
	}
	return r
}

// resyncNames refreshes every surface after the name overrides changed,
// and removes the names listed in before that are gone.
func (s *Session) resyncNames(before map[string][]string) {
	s.openAndSyncBuffers()
	s.syncPrivate()
	after := s.rosters()
	for address, names := range before {
		surface := s.host.SearchSurface(address)
		if surface == nil {
			continue
		}
		current := make(map[string]bool, len(after[address]))
		for _, name := range after[address] {
			current[name] = true
		}
		for _, name := range names {
			if !current[name] {
				surface.RemoveNick(name)
			}
		}
	}
}

// channelAt returns the channel whose surface has the given address.
func (s *Session) channelAt(address string) (discord.ChannelRef, bool) {
	_, id, ok := strings.Cut(address, ".")
	if !ok {
		return nil, false
	}
	return s.state.FindChannel(discord.ParseID(id))
}
