package weecord

import (
	"strings"

	"github.com/dustin/go-humanize"

	"git.sr.ht/~delthas/weecord/discord"
)

const (
	unknownAuthor = "[unknown]"
	noContent     = "<no content>"
)

// isSelfMentioned reports whether a message written by author highlights
// the current user.
func isSelfMentioned(st *discord.State, ref discord.ChannelRef, author discord.ID, everyone bool, mentions []discord.User, roles []discord.ID) bool {
	me := st.CurrentUser()
	if author == me.ID {
		return false
	}
	if everyone {
		return true
	}
	for _, u := range mentions {
		if u.ID == me.ID {
			return true
		}
	}
	pub, ok := ref.(discord.PublicChannel)
	if !ok {
		return false
	}
	member, ok := pub.Server.Member(me.ID)
	if !ok {
		return false
	}
	for _, r := range roles {
		if member.HasRole(r) {
			return true
		}
	}
	return false
}

// notifyTags returns the notification tags of a message line, followed by
// its nick, message id and author id tags. author is zero when unknown.
func (s *Session) notifyTags(ref discord.ChannelRef, msg discord.ID, author discord.ID, authorName string, selfMentioned bool) []string {
	var tags []string
	switch {
	case author != 0 && author == s.state.CurrentUser().ID:
		tags = []string{"no_highlight", "notify_none"}
	case s.muted(ref):
		tags = []string{"notify_none"}
	case selfMentioned:
		tags = []string{"notify_highlight"}
	default:
		switch ref.(type) {
		case discord.PublicChannel:
			tags = []string{"notify_message"}
		case discord.PrivateChannel, discord.GroupChannel:
			tags = []string{"notify_private"}
		default:
			panic("unreachable")
		}
	}
	tags = append(tags, "nick_"+discord.StripFormatting(authorName), messageTag(msg))
	if author != 0 {
		tags = append(tags, authorTag(author))
	}
	return tags
}

func (s *Session) muted(ref discord.ChannelRef) bool {
	if s.opts == nil {
		return false
	}
	if s.opts.Muted(ref.Info().ID) {
		return true
	}
	if pub, ok := ref.(discord.PublicChannel); ok {
		return s.opts.Muted(pub.Server.ID)
	}
	return false
}

// authorName returns the colored display name of a user in a channel.
func (s *Session) authorName(ref discord.ChannelRef, u discord.User, f discord.NameFormat) string {
	switch ref := ref.(type) {
	case discord.PublicChannel:
		if m, ok := ref.Server.Member(u.ID); ok {
			return s.namer.MemberName(m, f)
		}
	case discord.PrivateChannel, discord.GroupChannel:
	default:
		panic("unreachable")
	}
	return s.namer.UserName(u, f)
}

// renderBody resolves mentions in content and appends attachment links.
func (s *Session) renderBody(ref discord.ChannelRef, content string, mentioned []discord.User, attachments []discord.Attachment) string {
	var parts []string
	if content != "" {
		parts = append(parts, s.resolver.ReplaceIncoming(ref, content, mentioned))
	}
	for _, a := range attachments {
		link := a.ProxyURL
		if link == "" {
			link = a.URL
		}
		if a.Size > 0 {
			link += " (" + humanize.Bytes(uint64(a.Size)) + ")"
		}
		parts = append(parts, link)
	}
	return strings.Join(parts, "\n")
}

// printMessage renders a new message to its surface.
func (s *Session) printMessage(surface Surface, ref discord.ChannelRef, m discord.Message) {
	author := s.authorName(ref, m.Author, discord.Colored)
	selfMentioned := isSelfMentioned(s.state, ref, m.Author.ID, m.MentionEveryone, m.Mentions, m.MentionRoles)
	tags := s.notifyTags(ref, m.ID, m.Author.ID, author, selfMentioned)
	surface.Print(tags, author, s.renderBody(ref, m.Content, m.Mentions, m.Attachments))
}

// printBacklog renders a fetched message without notifying.
func (s *Session) printBacklog(surface Surface, ref discord.ChannelRef, m discord.Message) {
	author := s.authorName(ref, m.Author, discord.Colored)
	tags := []string{"no_highlight", "notify_none", "nick_" + discord.StripFormatting(author), messageTag(m.ID), authorTag(m.Author.ID)}
	surface.Print(tags, author, s.renderBody(ref, m.Content, m.Mentions, m.Attachments))
}

// printUpdate renders an edited message. Pieces the event omits are
// recovered from the surface history.
func (s *Session) printUpdate(surface Surface, ref discord.ChannelRef, ev discord.MessageUpdateEvent) {
	old, found := Recover(surface, ev.ID)

	author, authorID := unknownAuthor, old.AuthorID
	if ev.Author != nil {
		author = s.authorName(ref, *ev.Author, discord.Colored)
		authorID = ev.Author.ID
	} else if found {
		author = old.Author
	}
	var body string
	if ev.Content != nil {
		body = s.renderBody(ref, *ev.Content, ev.Mentions, ev.Attachments)
	} else if found {
		body = old.Content
	}
	if body == "" {
		body = noContent
	}
	if found && ev.Author != nil && ev.Content != nil && author == old.Author && body == old.Content {
		return
	}

	selfMentioned := isSelfMentioned(s.state, ref, authorID, ev.MentionEveryone, ev.Mentions, ev.MentionRoles)
	tags := s.notifyTags(ref, ev.ID, authorID, author, selfMentioned)
	surface.Print(tags, author, editMarker+body)
}

// printDelete renders the removal of a message from its last rendering.
// It returns false when the message cannot be found.
func (s *Session) printDelete(surface Surface, ref discord.ChannelRef, id discord.ID) (Recovered, bool) {
	old, ok := Recover(surface, id)
	if !ok {
		return Recovered{}, false
	}
	tags := s.notifyTags(ref, id, old.AuthorID, old.Author, false)
	surface.Print(tags, old.Author, deleteMarker+old.Content)
	return old, true
}
