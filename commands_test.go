package weecord

import (
	"errors"
	"testing"

	"git.sr.ht/~delthas/weecord/discord"
)

func TestFieldsN(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want []string
	}{
		{"", 2, nil},
		{"a", 2, []string{"a"}},
		{"42 Bobby the Great", 2, []string{"42", "Bobby the Great"}},
		{"  a   b  ", 2, []string{"a", "b"}},
		{"a b c", maxArgsInfinite, []string{"a", "b", "c"}},
		{"a b c", 1, []string{"a b c"}},
	}
	for _, tt := range tests {
		got := fieldsN(tt.in, tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("fieldsN(%q, %d): expected %q, got %q", tt.in, tt.n, tt.want, got)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("fieldsN(%q, %d): expected %q, got %q", tt.in, tt.n, tt.want, got)
				break
			}
		}
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in        string
		command   string
		args      string
		isCommand bool
	}{
		{"hello", "", "hello", false},
		{"//not a command", "", "/not a command", false},
		{"/rename 42 Bob", "RENAME", "42 Bob", true},
		{"/quit", "QUIT", "", true},
	}
	for _, tt := range tests {
		command, args, isCommand := parseCommand(tt.in)
		if command != tt.command || args != tt.args || isCommand != tt.isCommand {
			t.Errorf("parseCommand(%q): got (%q, %q, %v)", tt.in, command, args, isCommand)
		}
	}
}

func TestFindCommand(t *testing.T) {
	if name, _, err := findCommand("REN"); err != nil || name != "RENAME" {
		t.Errorf("expected RENAME, got %q (%v)", name, err)
	}
	if name, _, err := findCommand("B"); err != nil || name != "BUFFER" {
		t.Errorf("expected BUFFER, got %q (%v)", name, err)
	}
	if _, _, err := findCommand("T"); err == nil {
		t.Errorf("expected an ambiguous command error")
	}
	if _, _, err := findCommand("JOIN"); !errors.Is(err, errUnknownCommand) {
		t.Errorf("expected an unknown command error, got %v", err)
	}
}

func TestFindEmoji(t *testing.T) {
	got := findEmoji("thumbs")
	if len(got) != 2 {
		t.Fatalf("expected 2 emojis, got %v", got)
	}
	if got := findEmoji("smile"); len(got) == 0 || got[0].Alias != "smile" {
		t.Errorf("expected the exact match first, got %v", got)
	}
	if got := findEmoji("zzzzzz"); got != nil {
		t.Errorf("expected no emoji, got %v", got)
	}
}

func TestEmojiToken(t *testing.T) {
	if got := emojiToken(discord.Emoji{ID: 5, Name: "blob"}); got != "<:blob:5>" {
		t.Errorf("unexpected token %q", got)
	}
	if got := emojiToken(discord.Emoji{ID: 6, Name: "party", Animated: true}); got != "<a:party:6>" {
		t.Errorf("unexpected token %q", got)
	}
}
