package weecord

import (
	"strings"

	"git.sr.ht/~delthas/weecord/discord"
)

// recoverDepth is how many lines are searched for a previous rendering.
const recoverDepth = 100

const (
	editMarker   = "EDIT: "
	deleteMarker = "DELETE: "
)

const (
	messageTagPrefix = "discord_messageid_"
	authorTagPrefix  = "discord_authorid_"
)

func messageTag(id discord.ID) string {
	return messageTagPrefix + id.String()
}

func authorTag(id discord.ID) string {
	return authorTagPrefix + id.String()
}

// Recovered is the last rendering of a message.
type Recovered struct {
	Author string
	// AuthorID is zero when the line carries no author tag.
	AuthorID discord.ID
	// Content is the body without edit or delete marker.
	Content string
}

// Recover finds the last rendering of a message in the history of a
// surface.
func Recover(s Surface, id discord.ID) (Recovered, bool) {
	tag := messageTag(id)
	for _, l := range s.History(recoverDepth) {
		if !l.HasTag(tag) {
			continue
		}
		r := Recovered{
			Author:  l.Prefix,
			Content: l.Message,
		}
		if c, ok := strings.CutPrefix(r.Content, editMarker); ok {
			r.Content = c
		} else if c, ok := strings.CutPrefix(r.Content, deleteMarker); ok {
			r.Content = c
		}
		for _, t := range l.Tags {
			if v, ok := strings.CutPrefix(t, authorTagPrefix); ok {
				r.AuthorID = discord.ParseID(v)
				break
			}
		}
		return r, true
	}
	return Recovered{}, false
}
