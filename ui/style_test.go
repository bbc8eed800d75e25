package ui

import (
	"testing"

	"git.sr.ht/~rockorager/vaxis"
)

func assertIRCString(t *testing.T, input string, expected StyledString) {
	actual := IRCString(input)
	if actual.string != expected.string {
		t.Errorf("%q: expected string %q, got %q", input, expected.string, actual.string)
	}
	if len(actual.styles) != len(expected.styles) {
		t.Errorf("%q: expected %d styles, got %d", input, len(expected.styles), len(actual.styles))
		return
	}
	for i := range actual.styles {
		if actual.styles[i] != expected.styles[i] {
			t.Errorf("%q: style #%d expected to be %+v, got %+v", input, i, expected.styles[i], actual.styles[i])
		}
	}
}

func TestIRCString(t *testing.T) {
	assertIRCString(t, "", StyledString{
		string: "",
		styles: nil,
	})

	assertIRCString(t, "hello", StyledString{
		string: "hello",
		styles: nil,
	})
	assertIRCString(t, "\x02hello", StyledString{
		string: "hello",
		styles: []rangedStyle{
			{Start: 0, Style: vaxis.Style{Attribute: vaxis.AttrBold}},
		},
	})
	assertIRCString(t, "\x035hello", StyledString{
		string: "hello",
		styles: []rangedStyle{
			{Start: 0, Style: vaxis.Style{Foreground: vaxis.IndexColor(1)}},
		},
	})
	assertIRCString(t, "\x0305hello", StyledString{
		string: "hello",
		styles: []rangedStyle{
			{Start: 0, Style: vaxis.Style{Foreground: vaxis.IndexColor(1)}},
		},
	})
	assertIRCString(t, "\x0305,0hello", StyledString{
		string: "hello",
		styles: []rangedStyle{
			{Start: 0, Style: vaxis.Style{Foreground: vaxis.IndexColor(1), Background: vaxis.IndexColor(15)}},
		},
	})
	assertIRCString(t, "\x035,00hello", StyledString{
		string: "hello",
		styles: []rangedStyle{
			{Start: 0, Style: vaxis.Style{Foreground: vaxis.IndexColor(1), Background: vaxis.IndexColor(15)}},
		},
	})
	assertIRCString(t, "\x0305,00hello", StyledString{
		string: "hello",
		styles: []rangedStyle{
			{Start: 0, Style: vaxis.Style{Foreground: vaxis.IndexColor(1), Background: vaxis.IndexColor(15)}},
		},
	})

	assertIRCString(t, "\x035,hello", StyledString{
		string: ",hello",
		styles: []rangedStyle{
			{Start: 0, Style: vaxis.Style{Foreground: vaxis.IndexColor(1)}},
		},
	})
	assertIRCString(t, "\x0305,hello", StyledString{
		string: ",hello",
		styles: []rangedStyle{
			{Start: 0, Style: vaxis.Style{Foreground: vaxis.IndexColor(1)}},
		},
	})
	assertIRCString(t, "\x03050hello", StyledString{
		string: "0hello",
		styles: []rangedStyle{
			{Start: 0, Style: vaxis.Style{Foreground: vaxis.IndexColor(1)}},
		},
	})
	assertIRCString(t, "\x0305,000hello", StyledString{
		string: "0hello",
		styles: []rangedStyle{
			{Start: 0, Style: vaxis.Style{Foreground: vaxis.IndexColor(1), Background: vaxis.IndexColor(15)}},
		},
	})
}

func TestIRCStringReset(t *testing.T) {
	s := IRCString("\x0304@alice\x03 hi")
	if s.String() != "@alice hi" {
		t.Fatalf("expected %q, got %q", "@alice hi", s.String())
	}
	if len(s.styles) != 2 {
		t.Fatalf("expected 2 styles, got %d", len(s.styles))
	}
	if s.styles[1].Start != len("@alice") || s.styles[1].Style != (vaxis.Style{}) {
		t.Errorf("expected reset after the name, got %+v", s.styles[1])
	}
}

func TestParseURLs(t *testing.T) {
	s := PlainString("see https://example.com/a.png now").ParseURLs()
	if len(s.styles) != 2 {
		t.Fatalf("expected 2 styles, got %d: %+v", len(s.styles), s.styles)
	}
	if s.styles[0].Start != 4 || s.styles[0].Style.Hyperlink != "https://example.com/a.png" {
		t.Errorf("unexpected link style %+v", s.styles[0])
	}
	if s.styles[1].Start != 4+len("https://example.com/a.png") || s.styles[1].Style.Hyperlink != "" {
		t.Errorf("unexpected style after link %+v", s.styles[1])
	}

	plain := PlainString("no links here").ParseURLs()
	if plain.styles != nil {
		t.Errorf("expected no styles, got %+v", plain.styles)
	}
}

func TestStripCodes(t *testing.T) {
	if got := StripCodes("\x0312,01x\x02y\x0F"); got != "xy" {
		t.Errorf("expected %q, got %q", "xy", got)
	}
}

func TestWriteStyledString(t *testing.T) {
	var sb StyledStringBuilder
	sb.WriteString("Names: ")
	sb.WriteStyledString(ColorString("bob", ColorRed))
	s := sb.StyledString()
	if s.String() != "Names: bob" {
		t.Fatalf("expected %q, got %q", "Names: bob", s.String())
	}
	found := false
	for _, st := range s.styles {
		if st.Start == len("Names: ") && st.Style.Foreground == ColorRed {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the name style to be shifted, got %+v", s.styles)
	}
}
