package weecord

import (
	"fmt"

	"git.sr.ht/~delthas/weecord/discord"
)

// Dispatch applies an event to the mirror, then updates the surfaces it
// affects.
func (s *Session) Dispatch(ev discord.Event) {
	switch ev := ev.(type) {
	case discord.MessageCreateEvent:
		surface, ref, ok := s.messageSurface(ev.Message.ChannelID, ev)
		if !ok {
			return
		}
		s.printMessage(surface, ref, ev.Message)
	case discord.MessageUpdateEvent:
		surface, ref, ok := s.messageSurface(ev.ChannelID, ev)
		if !ok {
			return
		}
		s.printUpdate(surface, ref, ev)
	case discord.MessageDeleteEvent:
		surface, ref, ok := s.messageSurface(ev.ChannelID, ev)
		if !ok {
			return
		}
		s.handleDelete(surface, ref, ev.ID)
	case discord.MessageDeleteBulkEvent:
		surface, ref, ok := s.messageSurface(ev.ChannelID, ev)
		if !ok {
			return
		}
		for _, id := range ev.IDs {
			s.handleDelete(surface, ref, id)
		}
	case discord.ServerCreateEvent:
		s.state.Apply(ev)
		if srv, ok := s.state.FindServer(ev.Server.ID); ok {
			s.syncServer(srv)
		}
	case discord.ServerUpdateEvent:
		s.state.Apply(ev)
		if srv, ok := s.state.FindServer(ev.Server.ID); ok {
			s.syncServer(srv)
		}
	case discord.ServerDeleteEvent:
		srv, ok := s.state.FindServer(ev.ServerID)
		if !ok {
			return
		}
		address := discord.ServerAddress(srv)
		s.state.Apply(ev)
		if surface := s.host.SearchSurface(address); surface != nil {
			surface.Print(nil, "", "Server removed")
		}
	case discord.ServerMemberAddEvent:
		s.state.Apply(ev)
		s.resyncServer(ev.ServerID)
	case discord.ServerMemberUpdateEvent:
		stale := s.memberNames(ev.ServerID, ev.Member.User.ID)
		s.state.Apply(ev)
		s.removeStaleNames(ev.ServerID, stale, s.memberNames(ev.ServerID, ev.Member.User.ID))
		s.resyncServer(ev.ServerID)
	case discord.ServerMemberRemoveEvent:
		stale := s.memberNames(ev.ServerID, ev.User.ID)
		s.state.Apply(ev)
		s.removeStaleNames(ev.ServerID, stale, nil)
		s.resyncServer(ev.ServerID)
	case discord.ServerMembersChunkEvent:
		s.state.Apply(ev)
		s.resyncServer(ev.ServerID)
	case discord.PresenceUpdateEvent:
		s.resyncServer(ev.ServerID)
	case discord.ServerRoleCreateEvent, discord.ServerRoleUpdateEvent, discord.ServerRoleDeleteEvent, discord.ServerEmojisUpdateEvent:
		s.state.Apply(ev)
	case discord.ChannelCreateEvent:
		s.state.Apply(ev)
		if ref, ok := s.state.FindChannel(ev.Channel.ID); ok {
			s.syncChannel(ref)
		}
	case discord.ChannelUpdateEvent:
		s.state.Apply(ev)
		if ref, ok := s.state.FindChannel(ev.Channel.ID); ok {
			if surface := s.syncChannel(ref); surface != nil {
				surface.SetProperty("title", channelTitle(ref))
			}
		}
	case discord.ChannelDeleteEvent:
		ref, ok := s.state.FindChannel(ev.Channel.ID)
		if !ok {
			return
		}
		address, _ := s.namer.SurfaceAddress(ref)
		s.state.Apply(ev)
		if surface := s.host.SearchSurface(address); surface != nil {
			surface.Print(nil, "", "Channel deleted")
		}
	case discord.ChannelRecipientAddEvent:
		s.state.Apply(ev)
		s.resyncPrivate(ev.ChannelID)
	case discord.ChannelRecipientRemoveEvent:
		ref, ok := s.state.FindChannel(ev.ChannelID)
		if !ok {
			return
		}
		address, _ := s.namer.SurfaceAddress(ref)
		s.state.Apply(ev)
		if surface := s.host.SearchSurface(address); surface != nil {
			surface.RemoveNick(s.namer.UserName(ev.User, discord.Plain))
		}
		s.resyncPrivate(ev.ChannelID)
	case discord.UserUpdateEvent:
		s.state.Apply(ev)
		s.openAndSyncBuffers()
		s.syncPrivate()
	case discord.ConnectionEvent:
		switch {
		case !ev.Connected:
			s.host.MainSurface().Print(nil, "!!", "Disconnected from Discord, reconnecting...")
		case !s.connected:
			// the first connection happens while dialing and is reported by the app
			s.connected = true
		default:
			s.host.MainSurface().Print(nil, "--", "Reconnected to Discord")
		}
	case discord.Ready, discord.ResumedEvent:
		s.logger().Debug("gateway session resumed")
	case discord.MessageAckEvent, discord.ChannelPinsUpdateEvent, discord.TypingStartEvent, discord.VoiceStateUpdateEvent:
	case discord.UnknownEvent:
		s.logger().Debug("ignoring unknown event", "name", ev.Name)
	default:
		s.logger().Debug("ignoring event", "type", fmt.Sprintf("%T", ev))
	}
}

// messageSurface returns the surface a message event renders to. Events
// of surfaces waiting for their backlog are queued and reported as not ok.
func (s *Session) messageSurface(channel discord.ID, ev discord.Event) (Surface, discord.ChannelRef, bool) {
	ref, ok := s.state.FindChannel(channel)
	if !ok {
		return nil, nil, false
	}
	surface, _ := s.EnsureSurface(ref)
	if surface == nil {
		return nil, nil, false
	}
	if queued, ok := s.pending[surface.Address()]; ok {
		s.pending[surface.Address()] = append(queued, ev)
		return nil, nil, false
	}
	return surface, ref, true
}

func (s *Session) handleDelete(surface Surface, ref discord.ChannelRef, id discord.ID) {
	old, ok := s.printDelete(surface, ref, id)
	if !ok {
		return
	}
	s.onDelete(ref, old.Author, old.Content)
}

// onDelete forwards a deleted message to the channel configured for its
// server.
func (s *Session) onDelete(ref discord.ChannelRef, author, content string) {
	pub, ok := ref.(discord.PublicChannel)
	if !ok || s.opts == nil {
		return
	}
	dest, ok := s.opts.OnDelete(pub.Server.ID)
	if !ok {
		return
	}
	if _, ok := s.state.FindChannel(dest); !ok {
		return
	}
	text := fmt.Sprintf("AUTO: Deleted message by %s in %s: %s", author, s.namer.ChannelName(ref, discord.Plain), content)
	o := outgoing{
		channel:  dest,
		text:     discord.StripFormatting(text),
		onDelete: true,
	}
	select {
	case s.sends <- o:
	default:
		s.host.MainSurface().Print(nil, "", fmt.Sprintf("Failed to send on_delete message: %v", errSendQueueFull))
	}
}

// syncChannel ensures the surface of a channel and refreshes its roster.
func (s *Session) syncChannel(ref discord.ChannelRef) Surface {
	surface, created := s.EnsureSurface(ref)
	if surface != nil && !created {
		s.SyncRoster(surface, ref)
	}
	return surface
}

func (s *Session) resyncServer(id discord.ID) {
	if srv, ok := s.state.FindServer(id); ok {
		s.syncServer(srv)
	}
}

// resyncPrivate refreshes the surface of a group conversation, if open.
func (s *Session) resyncPrivate(id discord.ID) {
	ref, ok := s.state.FindChannel(id)
	if !ok {
		return
	}
	address, _ := s.namer.SurfaceAddress(ref)
	if s.host.SearchSurface(address) == nil {
		return
	}
	s.syncChannel(ref)
}

// memberNames returns the names under which a member is listed.
func (s *Session) memberNames(server, user discord.ID) []string {
	m, ok := s.state.FindMember(server, user)
	if !ok {
		return nil
	}
	return []string{s.namer.MemberName(m, discord.Plain)}
}

// removeStaleNames removes the names in stale but not in current from the
// nick lists of a server.
func (s *Session) removeStaleNames(server discord.ID, stale, current []string) {
	srv, ok := s.state.FindServer(server)
	if !ok {
		return
	}
	var names []string
outer:
	for _, name := range stale {
		for _, c := range current {
			if c == name {
				continue outer
			}
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return
	}
	for _, c := range srv.Channels {
		if !c.Kind.Messageable() {
			continue
		}
		address, _ := s.namer.SurfaceAddress(discord.PublicChannel{Server: srv, Channel: c})
		surface := s.host.SearchSurface(address)
		if surface == nil {
			continue
		}
		for _, name := range names {
			surface.RemoveNick(name)
		}
	}
}
