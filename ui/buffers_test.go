package ui

import (
	"reflect"
	"testing"
	"time"
)

func TestNewLines(t *testing.T) {
	tests := []struct {
		body  string
		width int
		want  []int
	}{
		{"hello world foo", 11, []int{12}},
		{"hello world", 5, []int{6}},
		{"hello wonderful", 9, []int{6}},
		{"abcdefghij", 4, []int{4, 8}},
		{"short", 80, []int{}},
		{"one\ntwo", 80, []int{4}},
		{"aa bbbbbbbb", 5, []int{3, 8}},
	}
	for _, tt := range tests {
		l := Line{Body: PlainString(tt.body)}
		if got := l.NewLines(nil, tt.width); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q at width %d: expected %v, got %v", tt.body, tt.width, tt.want, got)
		}
	}
}

func TestLineFromTags(t *testing.T) {
	tests := []struct {
		tags      []string
		notify    NotifyType
		highlight bool
	}{
		{nil, NotifyNone, false},
		{[]string{"no_highlight", "notify_none"}, NotifyNone, false},
		{[]string{"notify_message", "nick_alice"}, NotifyUnread, false},
		{[]string{"notify_highlight"}, NotifyHighlight, true},
		{[]string{"notify_private"}, NotifyHighlight, true},
		{[]string{"no_highlight", "notify_private"}, NotifyUnread, false},
	}
	for _, tt := range tests {
		notify, highlight := LineFromTags(tt.tags)
		if notify != tt.notify || highlight != tt.highlight {
			t.Errorf("%v: expected (%v, %v), got (%v, %v)", tt.tags, tt.notify, tt.highlight, notify, highlight)
		}
	}
}

func TestBufferHistory(t *testing.T) {
	bs := NewBufferList(ConfigColors{})
	b, added := bs.Add("100.10", "Guild #general")
	if !added {
		t.Fatalf("expected buffer to be added")
	}
	if again, added := bs.Add("100.10", "other"); added || again != b {
		t.Fatalf("expected the existing buffer to be returned")
	}
	now := time.Now()
	for i, msg := range []string{"first", "second", "third"} {
		bs.AddLine(b, NewLine(now.Add(time.Duration(i)), []string{"notify_message"}, "alice", msg), true)
	}
	h := b.History(2)
	if len(h) != 2 || h[0].Message != "third" || h[1].Message != "second" {
		t.Errorf("unexpected history %+v", h)
	}
	if len(b.History(100)) != 3 {
		t.Errorf("expected the history to be bounded by the buffer length")
	}
	if !b.unread {
		t.Errorf("expected unread buffer")
	}
}

func TestRetainedBacklog(t *testing.T) {
	bs := NewBufferList(ConfigColors{})
	b, _ := bs.Add("0.20", "bob")
	bs.AddLine(b, NewLine(time.Now(), nil, "bob", "hello"), true)
	if !bs.Remove("0.20") {
		t.Fatalf("expected buffer to be removed")
	}
	if bs.At("0.20") != nil {
		t.Fatalf("buffer still present")
	}

	b, _ = bs.Add("0.20", "bob")
	if n := bs.LoadBacklog(b); n != 1 {
		t.Fatalf("expected 1 retained line, got %d", n)
	}
	if h := b.History(1); h[0].Message != "hello" {
		t.Errorf("unexpected retained line %+v", h[0])
	}
	if n := bs.LoadBacklog(b); n != 0 {
		t.Errorf("retained lines loaded twice")
	}
	if bs.Remove("") {
		t.Errorf("home buffer must not be removable")
	}
}

func TestNicks(t *testing.T) {
	var b Buffer
	for _, n := range []string{"bob", "Alice", "carol", "bob"} {
		b.AddNick(n)
	}
	if want := []string{"Alice", "bob", "carol"}; !reflect.DeepEqual(b.Nicks(), want) {
		t.Errorf("expected %v, got %v", want, b.Nicks())
	}
	b.RemoveNick("bob")
	if want := []string{"Alice", "carol"}; !reflect.DeepEqual(b.Nicks(), want) {
		t.Errorf("expected %v, got %v", want, b.Nicks())
	}
}

func TestHighlightCount(t *testing.T) {
	bs := NewBufferList(ConfigColors{})
	b, _ := bs.Add("100.10", "Guild #general")
	if notify := bs.AddLine(b, NewLine(time.Now(), []string{"notify_highlight"}, "alice", "@me"), true); !notify {
		t.Errorf("expected highlight to be notified")
	}
	if bs.Highlights() != 1 {
		t.Errorf("expected 1 highlight, got %d", bs.Highlights())
	}
	bs.To(bs.Index(b))
	if bs.Highlights() != 0 {
		t.Errorf("expected highlights to be cleared on switch")
	}
	if notify := bs.AddLine(b, NewLine(time.Now(), []string{"notify_highlight"}, "alice", "@me"), true); notify {
		t.Errorf("focused current buffer should not notify")
	}
}
