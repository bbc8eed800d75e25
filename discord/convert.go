package discord

import (
	"encoding/json"

	"github.com/bwmarrin/discordgo"
)

func convertUser(u *discordgo.User) User {
	if u == nil {
		return User{}
	}
	return User{
		ID:         ParseID(u.ID),
		Username:   u.Username,
		GlobalName: u.GlobalName,
		Bot:        u.Bot,
	}
}

func convertUsers(us []*discordgo.User) []User {
	if len(us) == 0 {
		return nil
	}
	r := make([]User, 0, len(us))
	for _, u := range us {
		if u != nil {
			r = append(r, convertUser(u))
		}
	}
	return r
}

func convertIDs(ids []string) []ID {
	if len(ids) == 0 {
		return nil
	}
	r := make([]ID, 0, len(ids))
	for _, id := range ids {
		r = append(r, ParseID(id))
	}
	return r
}

func convertMember(m *discordgo.Member) Member {
	return Member{
		User:    convertUser(m.User),
		Nick:    m.Nick,
		RoleIDs: convertIDs(m.Roles),
	}
}

func convertMembers(ms []*discordgo.Member) []Member {
	r := make([]Member, 0, len(ms))
	for _, m := range ms {
		if m != nil {
			r = append(r, convertMember(m))
		}
	}
	return r
}

func convertRole(r *discordgo.Role) Role {
	return Role{
		ID:    ParseID(r.ID),
		Name:  r.Name,
		Color: r.Color,
	}
}

func convertEmojis(es []*discordgo.Emoji) []Emoji {
	r := make([]Emoji, 0, len(es))
	for _, e := range es {
		if e == nil || e.ID == "" {
			continue
		}
		r = append(r, Emoji{
			ID:       ParseID(e.ID),
			Name:     e.Name,
			Animated: e.Animated,
		})
	}
	return r
}

func convertChannelKind(t discordgo.ChannelType) ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		return ChannelText
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return ChannelVoice
	case discordgo.ChannelTypeDM:
		return ChannelPrivate
	case discordgo.ChannelTypeGroupDM:
		return ChannelGroup
	default:
		return ChannelCategory
	}
}

func convertChannel(c *discordgo.Channel) Channel {
	return Channel{
		ID:         ParseID(c.ID),
		ServerID:   ParseID(c.GuildID),
		Name:       c.Name,
		Topic:      c.Topic,
		Kind:       convertChannelKind(c.Type),
		Position:   c.Position,
		Recipients: convertUsers(c.Recipients),
	}
}

func convertServer(g *discordgo.Guild) Server {
	s := Server{
		ID:      ParseID(g.ID),
		Name:    g.Name,
		Members: convertMembers(g.Members),
		Emojis:  convertEmojis(g.Emojis),
	}
	for _, c := range g.Channels {
		if c == nil {
			continue
		}
		ch := convertChannel(c)
		s.Channels = append(s.Channels, &ch)
	}
	for _, r := range g.Roles {
		if r != nil {
			s.Roles = append(s.Roles, convertRole(r))
		}
	}
	return s
}

func convertAttachments(as []*discordgo.MessageAttachment) []Attachment {
	if len(as) == 0 {
		return nil
	}
	r := make([]Attachment, 0, len(as))
	for _, a := range as {
		r = append(r, Attachment{
			ID:       ParseID(a.ID),
			Filename: a.Filename,
			URL:      a.URL,
			ProxyURL: a.ProxyURL,
			Size:     a.Size,
		})
	}
	return r
}

func convertMessage(m *discordgo.Message) Message {
	return Message{
		ID:              ParseID(m.ID),
		ChannelID:       ParseID(m.ChannelID),
		ServerID:        ParseID(m.GuildID),
		Author:          convertUser(m.Author),
		Content:         m.Content,
		Timestamp:       m.Timestamp,
		Edited:          m.EditedTimestamp != nil,
		MentionEveryone: m.MentionEveryone,
		Mentions:        convertUsers(m.Mentions),
		MentionRoles:    convertIDs(m.MentionRoles),
		Attachments:     convertAttachments(m.Attachments),
	}
}

func convertReady(r *discordgo.Ready) Ready {
	ready := Ready{
		SessionID: r.SessionID,
		User:      convertUser(r.User),
	}
	for _, g := range r.Guilds {
		if g == nil || g.Unavailable {
			// delivered later by a guild create
			continue
		}
		ready.Servers = append(ready.Servers, convertServer(g))
	}
	for _, c := range r.PrivateChannels {
		if c != nil {
			ready.PrivateChannels = append(ready.PrivateChannels, convertChannel(c))
		}
	}
	return ready
}

type rawRecipientEvent struct {
	ChannelID string          `json:"channel_id"`
	User      *discordgo.User `json:"user"`
}

type rawAckEvent struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// convertRawEvent handles the events discordgo has no type for.
func convertRawEvent(e *discordgo.Event) (Event, error) {
	switch e.Type {
	case "CHANNEL_RECIPIENT_ADD", "CHANNEL_RECIPIENT_REMOVE":
		var raw rawRecipientEvent
		if err := json.Unmarshal(e.RawData, &raw); err != nil {
			return nil, err
		}
		if e.Type == "CHANNEL_RECIPIENT_ADD" {
			return ChannelRecipientAddEvent{ChannelID: ParseID(raw.ChannelID), User: convertUser(raw.User)}, nil
		}
		return ChannelRecipientRemoveEvent{ChannelID: ParseID(raw.ChannelID), User: convertUser(raw.User)}, nil
	case "MESSAGE_ACK":
		var raw rawAckEvent
		if err := json.Unmarshal(e.RawData, &raw); err != nil {
			return nil, err
		}
		return MessageAckEvent{ChannelID: ParseID(raw.ChannelID), MessageID: ParseID(raw.MessageID)}, nil
	default:
		return UnknownEvent{Name: e.Type}, nil
	}
}

// convertEvent maps a discordgo event to an Event. ok is false for events
// that carry nothing for the mirror or the user, including the raw copy
// discordgo emits alongside every typed event.
func convertEvent(ev interface{}) (e Event, ok bool, err error) {
	switch ev := ev.(type) {
	case *discordgo.Event:
		if ev.Struct != nil {
			return nil, false, nil
		}
		e, err = convertRawEvent(ev)
		return e, err == nil, err
	case *discordgo.Connect:
		return ConnectionEvent{Connected: true}, true, nil
	case *discordgo.Disconnect:
		return ConnectionEvent{Connected: false}, true, nil
	case *discordgo.Resumed:
		return ResumedEvent{}, true, nil
	case *discordgo.MessageCreate:
		if ev.Message == nil {
			return nil, false, nil
		}
		return MessageCreateEvent{Message: convertMessage(ev.Message)}, true, nil
	case *discordgo.MessageUpdate:
		if ev.Message == nil {
			return nil, false, nil
		}
		m := ev.Message
		u := MessageUpdateEvent{
			ID:              ParseID(m.ID),
			ChannelID:       ParseID(m.ChannelID),
			ServerID:        ParseID(m.GuildID),
			Timestamp:       m.Timestamp,
			MentionEveryone: m.MentionEveryone,
			Mentions:        convertUsers(m.Mentions),
			MentionRoles:    convertIDs(m.MentionRoles),
			Attachments:     convertAttachments(m.Attachments),
		}
		if m.Author != nil {
			author := convertUser(m.Author)
			u.Author = &author
		}
		if m.Content != "" || m.EditedTimestamp != nil {
			content := m.Content
			u.Content = &content
		}
		return u, true, nil
	case *discordgo.MessageDelete:
		if ev.Message == nil {
			return nil, false, nil
		}
		return MessageDeleteEvent{
			ID:        ParseID(ev.ID),
			ChannelID: ParseID(ev.ChannelID),
			ServerID:  ParseID(ev.GuildID),
		}, true, nil
	case *discordgo.MessageDeleteBulk:
		return MessageDeleteBulkEvent{
			IDs:       convertIDs(ev.Messages),
			ChannelID: ParseID(ev.ChannelID),
			ServerID:  ParseID(ev.GuildID),
		}, true, nil
	case *discordgo.GuildCreate:
		if ev.Guild == nil || ev.Unavailable {
			return nil, false, nil
		}
		return ServerCreateEvent{Server: convertServer(ev.Guild)}, true, nil
	case *discordgo.GuildUpdate:
		if ev.Guild == nil {
			return nil, false, nil
		}
		return ServerUpdateEvent{Server: convertServer(ev.Guild)}, true, nil
	case *discordgo.GuildDelete:
		if ev.Guild == nil {
			return nil, false, nil
		}
		return ServerDeleteEvent{ServerID: ParseID(ev.ID)}, true, nil
	case *discordgo.GuildMemberAdd:
		if ev.Member == nil {
			return nil, false, nil
		}
		return ServerMemberAddEvent{ServerID: ParseID(ev.GuildID), Member: convertMember(ev.Member)}, true, nil
	case *discordgo.GuildMemberUpdate:
		if ev.Member == nil {
			return nil, false, nil
		}
		return ServerMemberUpdateEvent{ServerID: ParseID(ev.GuildID), Member: convertMember(ev.Member)}, true, nil
	case *discordgo.GuildMemberRemove:
		if ev.Member == nil {
			return nil, false, nil
		}
		return ServerMemberRemoveEvent{ServerID: ParseID(ev.GuildID), User: convertUser(ev.User)}, true, nil
	case *discordgo.GuildMembersChunk:
		return ServerMembersChunkEvent{ServerID: ParseID(ev.GuildID), Members: convertMembers(ev.Members)}, true, nil
	case *discordgo.GuildRoleCreate:
		if ev.GuildRole == nil || ev.Role == nil {
			return nil, false, nil
		}
		return ServerRoleCreateEvent{ServerID: ParseID(ev.GuildID), Role: convertRole(ev.Role)}, true, nil
	case *discordgo.GuildRoleUpdate:
		if ev.GuildRole == nil || ev.Role == nil {
			return nil, false, nil
		}
		return ServerRoleUpdateEvent{ServerID: ParseID(ev.GuildID), Role: convertRole(ev.Role)}, true, nil
	case *discordgo.GuildRoleDelete:
		return ServerRoleDeleteEvent{ServerID: ParseID(ev.GuildID), RoleID: ParseID(ev.RoleID)}, true, nil
	case *discordgo.GuildEmojisUpdate:
		return ServerEmojisUpdateEvent{ServerID: ParseID(ev.GuildID), Emojis: convertEmojis(ev.Emojis)}, true, nil
	case *discordgo.ChannelCreate:
		if ev.Channel == nil {
			return nil, false, nil
		}
		return ChannelCreateEvent{Channel: convertChannel(ev.Channel)}, true, nil
	case *discordgo.ChannelUpdate:
		if ev.Channel == nil {
			return nil, false, nil
		}
		return ChannelUpdateEvent{Channel: convertChannel(ev.Channel)}, true, nil
	case *discordgo.ChannelDelete:
		if ev.Channel == nil {
			return nil, false, nil
		}
		return ChannelDeleteEvent{Channel: convertChannel(ev.Channel)}, true, nil
	case *discordgo.ChannelPinsUpdate:
		return ChannelPinsUpdateEvent{ChannelID: ParseID(ev.ChannelID)}, true, nil
	case *discordgo.PresenceUpdate:
		return PresenceUpdateEvent{
			ServerID: ParseID(ev.GuildID),
			User:     convertUser(ev.User),
			Status:   string(ev.Status),
		}, true, nil
	case *discordgo.TypingStart:
		return TypingStartEvent{
			ChannelID: ParseID(ev.ChannelID),
			ServerID:  ParseID(ev.GuildID),
			UserID:    ParseID(ev.UserID),
		}, true, nil
	case *discordgo.UserUpdate:
		if ev.User == nil {
			return nil, false, nil
		}
		return UserUpdateEvent{User: convertUser(ev.User)}, true, nil
	case *discordgo.VoiceStateUpdate:
		if ev.VoiceState == nil {
			return nil, false, nil
		}
		return VoiceStateUpdateEvent{
			ServerID:  ParseID(ev.GuildID),
			ChannelID: ParseID(ev.ChannelID),
			UserID:    ParseID(ev.UserID),
		}, true, nil
	default:
		return nil, false, nil
	}
}
