package discord

import "testing"

func testResolver(t *testing.T) (*Resolver, *State) {
	st := testState(t)
	return &Resolver{State: st, Namer: &Namer{}}, st
}

func TestReplaceOutgoingLongestFirst(t *testing.T) {
	r, st := testResolver(t)
	st.Apply(ServerMembersChunkEvent{ServerID: 100, Members: []Member{
		{User: User{ID: 7, Username: "Al"}},
		{User: User{ID: 8, Username: "Alice"}},
	}})
	ref, _ := st.FindChannel(10)

	got := r.ReplaceOutgoing(ref, "hi @Alice and @Al")
	if want := "hi <@8> and <@7>"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestReplaceOutgoingScopes(t *testing.T) {
	r, st := testResolver(t)
	tests := []struct {
		channel ID
		in      string
		want    string
	}{
		{10, "ping @Ali", "ping <@!2>"},
		{10, "ping @mods in #general", "ping <@&500> in <#10>"},
		{20, "hey @bob", "hey <@3>"},
		{20, "hey @alice", "hey @alice"},
		{21, "@alice @bob", "<@2> <@3>"},
		{10, "plain text", "plain text"},
	}
	for _, tt := range tests {
		ref, _ := st.FindChannel(tt.channel)
		if got := r.ReplaceOutgoing(ref, tt.in); got != tt.want {
			t.Errorf("%q in %v: expected %q, got %q", tt.in, tt.channel, tt.want, got)
		}
	}
}

func TestReplaceIncoming(t *testing.T) {
	r, st := testResolver(t)
	ref, _ := st.FindChannel(10)
	tests := []struct {
		in   string
		want string
	}{
		{"hi <@2> and <@999>", "hi @Ali and @unknown"},
		{"<@!2>", "@Ali"},
		{"<@1>", "@me"},
		{"<@&500> <@&501>", "@mods @unknown"},
		{"see <#10> or <#20> or <#77>", "see #general or bob or #unknown"},
		{"<:blobcat:12345> <a:party:6789>", ":blobcat: :party:"},
		{"no tokens <here>", "no tokens <here>"},
	}
	for _, tt := range tests {
		if got := r.ReplaceIncoming(ref, tt.in, nil); got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.in, tt.want, got)
		}
	}

	priv, _ := st.FindChannel(20)
	if got := r.ReplaceIncoming(priv, "<@3> <@&500>", nil); got != "@bob @unknown" {
		t.Errorf("private scope: got %q", got)
	}
	outsider := []User{{ID: 42, Username: "zed"}}
	if got := r.ReplaceIncoming(ref, "<@42>", outsider); got != "@zed" {
		t.Errorf("mention list fallback: got %q", got)
	}
}

func TestReplaceIncomingColored(t *testing.T) {
	r, st := testResolver(t)
	r.Namer.Color = func(string) string { return "03" }
	ref, _ := st.FindChannel(10)
	if got, want := r.ReplaceIncoming(ref, "<@999>", nil), "\x0303@unknown\x03"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
