package weecord

import (
	"fmt"
	"sort"
	"strings"

	"git.sr.ht/~delthas/weecord/discord"
	"git.sr.ht/~delthas/weecord/ui"
)

func (app *App) completions(cursorIdx int, text []rune) []ui.Completion {
	var cs []ui.Completion

	if len(text) == 0 {
		return cs
	}

	if app.win.CurrentBuffer() != app.win.Home() {
		cs = app.completionsChannelMembers(cs, cursorIdx, text)
	}
	cs = app.completionsCommands(cs, cursorIdx, text)
	cs = app.completionsEmoji(cs, cursorIdx, text)

	if cs != nil {
		cs = append(cs, ui.Completion{
			Text:      text,
			CursorIdx: cursorIdx,
		})
	}

	return cs
}

// completionsChannelMembers completes the word before the cursor with the
// names listed in the current buffer, as mentions.
func (app *App) completionsChannelMembers(cs []ui.Completion, cursorIdx int, text []rune) []ui.Completion {
	if isCommand(text) {
		return cs
	}
	var start int
	for start = cursorIdx - 1; 0 <= start; start-- {
		if text[start] == ' ' {
			break
		}
	}
	start++
	word := text[start:cursorIdx]
	if len(word) > 0 && word[0] == '@' {
		word = word[1:]
	}
	if len(word) == 0 {
		return cs
	}
	wordCf := strings.ToLower(string(word))
	for _, name := range app.win.CurrentBuffer().Nicks() {
		if !strings.HasPrefix(strings.ToLower(name), wordCf) {
			continue
		}
		nickComp := []rune("@" + name + " ")
		c := make([]rune, 0, len(text)+len(nickComp))
		c = append(c, text[:start]...)
		c = append(c, nickComp...)
		c = append(c, text[cursorIdx:]...)
		cs = append(cs, ui.Completion{
			StartIdx:  start,
			EndIdx:    cursorIdx,
			Text:      c,
			Display:   []rune(name),
			CursorIdx: start + len(nickComp),
		})
	}
	return cs
}

func (app *App) completionsCommands(cs []ui.Completion, cursorIdx int, text []rune) []ui.Completion {
	if !hasPrefix(text, []rune("/")) {
		return cs
	}
	for i := 0; i < cursorIdx; i++ {
		if text[i] == ' ' {
			return cs
		}
	}
	if cursorIdx < len(text) && text[cursorIdx] != ' ' {
		return cs
	}

	uText := strings.ToUpper(string(text[1:cursorIdx]))
	names := make([]string, 0, len(commands))
	for name := range commands {
		if strings.HasPrefix(name, uText) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		c := make([]rune, len(text)+len(name)-len(uText))
		copy(c[:1], []rune("/"))
		copy(c[1:], []rune(strings.ToLower(name)))
		copy(c[1+len(name):], text[cursorIdx:])

		cs = append(cs, ui.Completion{
			StartIdx:  0,
			EndIdx:    cursorIdx,
			Text:      c,
			CursorIdx: 1 + len(name),
		})
	}
	return cs
}

// serverEmojis returns the custom emojis usable in the current buffer.
func (app *App) serverEmojis() []discord.Emoji {
	_, ref, ok := app.currentChannel()
	if !ok {
		return nil
	}
	pub, ok := ref.(discord.PublicChannel)
	if !ok {
		return nil
	}
	return pub.Server.Emojis
}

// emojiToken is the text Discord expects for a custom emoji.
func emojiToken(e discord.Emoji) string {
	if e.Animated {
		return fmt.Sprintf("<a:%s:%s>", e.Name, e.ID)
	}
	return fmt.Sprintf("<:%s:%s>", e.Name, e.ID)
}

func (app *App) completionsEmoji(cs []ui.Completion, cursorIdx int, text []rune) []ui.Completion {
	var start int
	for start = cursorIdx - 1; start >= 0; start-- {
		r := text[start]
		if r == ':' {
			break
		}
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || (r >= '0' && r <= '9')) {
			return cs
		}
	}
	if start < 0 {
		return cs
	}
	start++
	word := text[start:cursorIdx]
	if len(word) == 0 {
		return cs
	}
	w := strings.ToLower(string(word))

	add := func(value, display string) {
		c := make([]rune, 0, len(text)+len([]rune(value))-len(word)-1)
		c = append(c, text[:start-1]...)
		c = append(c, []rune(value)...)
		if cursorIdx < len(text) {
			c = append(c, text[cursorIdx:]...)
		}
		cs = append(cs, ui.Completion{
			StartIdx:  start - 1,
			EndIdx:    cursorIdx,
			Text:      c,
			Display:   []rune(display),
			CursorIdx: start - 1 + len([]rune(value)),
		})
	}

	for _, e := range app.serverEmojis() {
		if strings.HasPrefix(strings.ToLower(e.Name), w) {
			add(emojiToken(e), fmt.Sprintf(":%s:", e.Name))
		}
	}
	for _, emoji := range findEmoji(w) {
		add(emoji.Emoji, fmt.Sprintf("%v (%v)", emoji.Emoji, emoji.Alias))
	}
	return cs
}

func hasPrefix(s, prefix []rune) bool {
	return len(prefix) <= len(s) && equal(prefix, s[:len(prefix)])
}

func equal(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
