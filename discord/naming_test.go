package discord

import "testing"

type renames map[ID]string

func (r renames) Rename(id ID) (string, bool) {
	name, ok := r[id]
	return name, ok
}

func TestMemberName(t *testing.T) {
	n := &Namer{Overrides: renames{3: "Robert"}}
	tests := []struct {
		member Member
		format NameFormat
		want   string
	}{
		{Member{User: User{ID: 2, Username: "alice"}, Nick: "Ali"}, Plain, "Ali"},
		{Member{User: User{ID: 2, Username: "alice"}}, WithPrefix, "@alice"},
		{Member{User: User{ID: 2, Username: "alice", GlobalName: "Alice A."}}, Plain, "Alice A."},
		{Member{User: User{ID: 3, Username: "bob"}, Nick: "bobby"}, WithPrefix, "@Robert"},
	}
	for _, tt := range tests {
		if got := n.MemberName(&tt.member, tt.format); got != tt.want {
			t.Errorf("MemberName(%+v): expected %q, got %q", tt.member, tt.want, got)
		}
	}
}

func TestColoredName(t *testing.T) {
	n := &Namer{Color: func(string) string { return "05" }}
	got := n.UserName(User{ID: 2, Username: "alice"}, ColoredWithPrefix)
	if want := "\x0305@alice\x03"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if stripped := StripFormatting(got); stripped != "@alice" {
		t.Errorf("StripFormatting: expected %q, got %q", "@alice", stripped)
	}
	if stripped := StripFormatting("\x0312,01x\x02y\x0F"); stripped != "xy" {
		t.Errorf("StripFormatting: expected %q, got %q", "xy", stripped)
	}
}

func TestSurfaceAddressStable(t *testing.T) {
	st := testState(t)
	n := &Namer{}
	st.Apply(ChannelCreateEvent{Channel: Channel{ID: 12, ServerID: 100, Name: "general", Kind: ChannelText}})

	a, _ := st.FindChannel(10)
	b, _ := st.FindChannel(12)
	keyA, shortA := n.SurfaceAddress(a)
	keyB, _ := n.SurfaceAddress(b)
	if keyA == keyB {
		t.Errorf("channels with the same name share address %q", keyA)
	}
	if keyA != "100.10" {
		t.Errorf("expected key 100.10, got %q", keyA)
	}
	if shortA != "Guild #general" {
		t.Errorf("expected short name %q, got %q", "Guild #general", shortA)
	}

	st.Apply(ChannelUpdateEvent{Channel: Channel{ID: 10, ServerID: 100, Name: "renamed", Kind: ChannelText}})
	a, _ = st.FindChannel(10)
	if key, _ := n.SurfaceAddress(a); key != keyA {
		t.Errorf("address changed after update: %q -> %q", keyA, key)
	}

	p, _ := st.FindChannel(20)
	key, short := n.SurfaceAddress(p)
	if key != "0.20" || short != "bob" {
		t.Errorf("private address: got (%q, %q)", key, short)
	}
	g, _ := st.FindChannel(21)
	if _, short := n.SurfaceAddress(g); short != "alice, bob" {
		t.Errorf("group short name: got %q", short)
	}
}

func TestRenameKeepsFormatting(t *testing.T) {
	n := &Namer{Overrides: renames{10: "main"}}
	st := testState(t)
	ref, _ := st.FindChannel(10)
	if got := n.ChannelName(ref, WithPrefix); got != "#main" {
		t.Errorf("expected #main, got %q", got)
	}
}
