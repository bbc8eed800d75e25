package weecord

import (
	_ "embed"
	"encoding/json"
	"sort"
	"strings"
)

//go:embed emoji.json
var emojiJSON []byte

type emoji struct {
	Emoji string
	Alias string
}

// emojiData is sorted by alias.
var emojiData []emoji

func init() {
	type rawEmoji struct {
		Emoji   string   `json:"emoji"`
		Aliases []string `json:"aliases"`
	}
	var data []rawEmoji
	_ = json.Unmarshal(emojiJSON, &data)
	for _, e := range data {
		for _, alias := range e.Aliases {
			emojiData = append(emojiData, emoji{
				Emoji: e.Emoji,
				Alias: alias,
			})
		}
	}
	sort.Slice(emojiData, func(i, j int) bool {
		return emojiData[i].Alias < emojiData[j].Alias
	})
}

// findEmoji returns the emojis whose alias starts with s, the exact match
// first.
func findEmoji(s string) []emoji {
	b := sort.Search(len(emojiData), func(i int) bool {
		return emojiData[i].Alias >= s
	})
	e := b
	for e < len(emojiData) && strings.HasPrefix(emojiData[e].Alias, s) {
		e++
	}
	if b == e {
		return nil
	}
	// emojiData[b] is the exact match, if any, since it sorts first.
	return emojiData[b:e]
}
