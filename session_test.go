package weecord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"git.sr.ht/~delthas/weecord/discord"
)

type fakeSurface struct {
	address string
	name    string
	input   func(string)
	props   map[string]string
	nicks   map[string]bool
	lines   []HistoryLine
	loads   int
}

func (s *fakeSurface) Address() string { return s.address }

func (s *fakeSurface) SetProperty(key, value string) { s.props[key] = value }

func (s *fakeSurface) Property(key string) string { return s.props[key] }

func (s *fakeSurface) Print(tags []string, prefix, message string) {
	s.lines = append(s.lines, HistoryLine{
		Tags:    tags,
		Prefix:  prefix,
		Message: message,
	})
}

func (s *fakeSurface) AddNick(nick string) { s.nicks[nick] = true }

func (s *fakeSurface) RemoveNick(nick string) { delete(s.nicks, nick) }

func (s *fakeSurface) History(limit int) []HistoryLine {
	var r []HistoryLine
	for i := len(s.lines) - 1; i >= 0 && len(r) < limit; i-- {
		r = append(r, s.lines[i])
	}
	return r
}

func (s *fakeSurface) LoadBacklog() int {
	s.loads++
	return 0
}

// messages returns the plain bodies printed to the surface, oldest first.
func (s *fakeSurface) messages() []string {
	var r []string
	for _, l := range s.lines {
		r = append(r, discord.StripFormatting(l.Message))
	}
	return r
}

type fakeHost struct {
	surfaces map[string]*fakeSurface
	main     *fakeSurface
	created  int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		surfaces: make(map[string]*fakeSurface),
		main:     newFakeSurface("", "home"),
	}
}

func newFakeSurface(address, name string) *fakeSurface {
	return &fakeSurface{
		address: address,
		name:    name,
		props:   make(map[string]string),
		nicks:   make(map[string]bool),
	}
}

func (h *fakeHost) NewSurface(address, name string, input func(string), close func()) (Surface, bool) {
	if s, ok := h.surfaces[address]; ok {
		s.input = input
		return s, false
	}
	s := newFakeSurface(address, name)
	s.input = input
	h.surfaces[address] = s
	h.created++
	return s, true
}

func (h *fakeHost) SearchSurface(address string) Surface {
	if s, ok := h.surfaces[address]; ok {
		return s
	}
	return nil
}

func (h *fakeHost) MainSurface() Surface {
	return h.main
}

func (h *fakeHost) NickColor(name string) string {
	return "05"
}

type fakeTransport struct {
	mu      sync.Mutex
	events  chan discord.Event
	sent    []string
	backlog map[discord.ID][]discord.Message
	fetch   error
	members []discord.ID
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events:  make(chan discord.Event),
		backlog: make(map[discord.ID][]discord.Message),
	}
}

func (t *fakeTransport) Recv() (discord.Event, error) {
	ev, ok := <-t.events
	if !ok {
		return nil, discord.ErrClosed
	}
	return ev, nil
}

func (t *fakeTransport) Send(ctx context.Context, channel discord.ID, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, text)
	return nil
}

func (t *fakeTransport) RecentMessages(ctx context.Context, channel discord.ID, limit int) ([]discord.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.backlog[channel], t.fetch
}

func (t *fakeTransport) RequestMembers(servers []discord.ID) error {
	t.members = append(t.members, servers...)
	return nil
}

func (t *fakeTransport) Close() error {
	return nil
}

var (
	userMe    = discord.User{ID: 1, Username: "me"}
	userAlice = discord.User{ID: 2, Username: "alice"}
	userBob   = discord.User{ID: 3, Username: "bob"}
)

func testReady() discord.Ready {
	return discord.Ready{
		User: userMe,
		Servers: []discord.Server{
			{
				ID:   100,
				Name: "Guild",
				Channels: []*discord.Channel{
					{ID: 10, ServerID: 100, Name: "general", Kind: discord.ChannelText, Position: 1},
					{ID: 11, ServerID: 100, Name: "lounge", Kind: discord.ChannelVoice, Position: 2},
					{ID: 12, ServerID: 100, Name: "log", Kind: discord.ChannelText, Position: 3},
				},
				Members: []discord.Member{
					{User: userMe, RoleIDs: []discord.ID{500}},
					{User: userAlice, Nick: "Ali"},
					{User: userBob},
				},
				Roles: []discord.Role{{ID: 500, Name: "mods"}},
			},
		},
		PrivateChannels: []discord.Channel{
			{ID: 20, Kind: discord.ChannelPrivate, Recipients: []discord.User{userBob}},
		},
	}
}

type testSession struct {
	*Session
	host      *fakeHost
	transport *fakeTransport
	posted    chan any
}

func newTestSession(t *testing.T, backlog int, opts *Options) *testSession {
	ts := &testSession{
		host:      newFakeHost(),
		transport: newFakeTransport(),
		posted:    make(chan any, 16),
	}
	s, err := NewSession(SessionParams{
		Ready:     testReady(),
		Transport: ts.transport,
		Host:      ts.host,
		Options:   opts,
		Backlog:   backlog,
		Post: func(ev any) {
			ts.posted <- ev
		},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { s.cancel() })
	ts.Session = s
	return ts
}

func (ts *testSession) surface(t *testing.T, address string) *fakeSurface {
	t.Helper()
	s, ok := ts.host.surfaces[address]
	if !ok {
		t.Fatalf("surface %q: not found", address)
	}
	return s
}

func message(id, channel discord.ID, author discord.User, content string) discord.Message {
	return discord.Message{
		ID:        id,
		ChannelID: channel,
		Author:    author,
		Content:   content,
		Timestamp: time.Unix(0, 0),
	}
}

func hasTag(tags []string, tag string) bool {
	return HistoryLine{Tags: tags}.HasTag(tag)
}

func TestEnsureSurfaceIdempotent(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	ref, _ := ts.state.FindChannel(10)

	first, created := ts.EnsureSurface(ref)
	if !created {
		t.Fatalf("expected the first call to create the surface")
	}
	second, created := ts.EnsureSurface(ref)
	if created {
		t.Errorf("expected the second call to reuse the surface")
	}
	if first != second {
		t.Errorf("expected the same surface")
	}
	if ts.host.created != 1 {
		t.Errorf("expected 1 surface, got %d", ts.host.created)
	}

	s := ts.surface(t, "100.10")
	if got := s.Property("short_name"); got != "Guild #general" {
		t.Errorf("short_name: expected %q, got %q", "Guild #general", got)
	}
	if got := s.Property("localvar_type"); got != "channel" {
		t.Errorf("localvar_type: expected channel, got %q", got)
	}
	if got := s.Property("title"); got != defaultTitle {
		t.Errorf("title: expected %q, got %q", defaultTitle, got)
	}
	for _, nick := range []string{"me", "Ali", "bob"} {
		if !s.nicks[nick] {
			t.Errorf("expected nick %q in the roster", nick)
		}
	}
	if s.loads != 1 {
		t.Errorf("expected the retained backlog to be loaded once, got %d", s.loads)
	}
}

func TestEnsureSurfaceSkipsVoice(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	ref, _ := ts.state.FindChannel(11)
	if s, _ := ts.EnsureSurface(ref); s != nil {
		t.Errorf("expected no surface for a voice channel")
	}
}

func TestOpenAndSyncBuffers(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	ts.openAndSyncBuffers()
	ts.openAndSyncBuffers()

	for _, address := range []string{"100", "100.10", "100.12"} {
		ts.surface(t, address)
	}
	if ts.host.created != 3 {
		t.Errorf("expected 3 surfaces, got %d", ts.host.created)
	}
	if got := ts.surface(t, "100").Property("localvar_type"); got != "server" {
		t.Errorf("expected server surface, got %q", got)
	}
}

func TestRecover(t *testing.T) {
	s := newFakeSurface("100.10", "general")
	s.Print([]string{"notify_message", messageTag(41)}, "alice", "first")
	s.Print([]string{"notify_message", messageTag(42), authorTag(3)}, "Bob", "hello")
	s.Print([]string{"notify_message", messageTag(44)}, "alice", "other")

	r, ok := Recover(s, 42)
	if !ok || r.Author != "Bob" || r.Content != "hello" || r.AuthorID != 3 {
		t.Errorf("expected (Bob, 3, hello), got (%+v, %v)", r, ok)
	}
	if r, _ := Recover(s, 41); r.AuthorID != 0 {
		t.Errorf("expected no author id without tag, got %d", r.AuthorID)
	}
	if _, ok := Recover(s, 43); ok {
		t.Errorf("expected message 43 not to be found")
	}

	s.Print([]string{"notify_message", messageTag(42)}, "Bob", editMarker+"hello again")
	if r, _ := Recover(s, 42); r.Content != "hello again" {
		t.Errorf("expected the last rendering without marker, got %q", r.Content)
	}
}

func TestRecoverDepth(t *testing.T) {
	s := newFakeSurface("100.10", "general")
	s.Print([]string{messageTag(1)}, "Bob", "old")
	for i := 0; i < recoverDepth; i++ {
		s.Print([]string{messageTag(2)}, "alice", "filler")
	}
	if _, ok := Recover(s, 1); ok {
		t.Errorf("expected lines past the search depth to be ignored")
	}
}

func TestIsSelfMentioned(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	pub, _ := ts.state.FindChannel(10)
	priv, _ := ts.state.FindChannel(20)
	tests := []struct {
		name     string
		ref      discord.ChannelRef
		author   discord.ID
		everyone bool
		mentions []discord.User
		roles    []discord.ID
		want     bool
	}{
		{"plain", pub, 2, false, nil, nil, false},
		{"everyone", pub, 2, true, nil, nil, true},
		{"user", pub, 2, false, []discord.User{userMe}, nil, true},
		{"other user", pub, 2, false, []discord.User{userBob}, nil, false},
		{"own role", pub, 2, false, nil, []discord.ID{500}, true},
		{"other role", pub, 2, false, nil, []discord.ID{501}, false},
		{"role in private", priv, 3, false, nil, []discord.ID{500}, false},
		{"self authored", pub, 1, true, []discord.User{userMe}, nil, false},
	}
	for _, tt := range tests {
		got := isSelfMentioned(ts.state, tt.ref, tt.author, tt.everyone, tt.mentions, tt.roles)
		if got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestNotifyTags(t *testing.T) {
	opts, _ := LoadOptions("", map[string]string{"mute.12": "true"})
	ts := newTestSession(t, 0, opts)
	general, _ := ts.state.FindChannel(10)
	muted, _ := ts.state.FindChannel(12)
	priv, _ := ts.state.FindChannel(20)
	tests := []struct {
		name      string
		ref       discord.ChannelRef
		author    discord.ID
		mentioned bool
		want      string
	}{
		{"public", general, 2, false, "notify_message"},
		{"private", priv, 3, false, "notify_private"},
		{"highlight", general, 2, true, "notify_highlight"},
		{"muted", muted, 2, true, "notify_none"},
		{"self", general, 1, false, "no_highlight"},
	}
	for _, tt := range tests {
		tags := ts.notifyTags(tt.ref, 42, tt.author, "\x0305Bob\x03", tt.mentioned)
		if tags[0] != tt.want {
			t.Errorf("%s: expected %q first, got %v", tt.name, tt.want, tags)
		}
		if !hasTag(tags, "nick_Bob") || !hasTag(tags, "discord_messageid_42") {
			t.Errorf("%s: expected nick and id tags, got %v", tt.name, tags)
		}
		if !hasTag(tags, authorTag(tt.author)) {
			t.Errorf("%s: expected author tag, got %v", tt.name, tags)
		}
	}
	if tags := ts.notifyTags(general, 42, 0, "Bob", false); len(tags) != 3 {
		t.Errorf("expected no author tag for an unknown author, got %v", tags)
	}
}

func TestDispatchMessageCreate(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	m := message(42, 10, userAlice, "hi <@1>")
	m.Mentions = []discord.User{userMe}
	m.Attachments = []discord.Attachment{{URL: "https://cdn/a.png", ProxyURL: "https://proxy/a.png", Size: 2048}}
	ts.Dispatch(discord.MessageCreateEvent{Message: m})

	s := ts.surface(t, "100.10")
	if len(s.lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(s.lines))
	}
	l := s.lines[0]
	if got := discord.StripFormatting(l.Prefix); got != "Ali" {
		t.Errorf("expected author Ali, got %q", got)
	}
	if want := "hi @me\nhttps://proxy/a.png (2.0 kB)"; discord.StripFormatting(l.Message) != want {
		t.Errorf("expected %q, got %q", want, discord.StripFormatting(l.Message))
	}
	if !hasTag(l.Tags, "notify_highlight") {
		t.Errorf("expected highlight, got %v", l.Tags)
	}
}

func TestDispatchOrder(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	for i, text := range []string{"one", "two", "three"} {
		ts.Dispatch(discord.MessageCreateEvent{Message: message(discord.ID(i+1), 10, userBob, text)})
	}
	got := ts.surface(t, "100.10").messages()
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDispatchUpdate(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	ts.Dispatch(discord.MessageCreateEvent{Message: message(42, 10, userBob, "helo")})
	s := ts.surface(t, "100.10")

	content := "hello"
	ts.Dispatch(discord.MessageUpdateEvent{ID: 42, ChannelID: 10, Content: &content})
	last := s.lines[len(s.lines)-1]
	if got := discord.StripFormatting(last.Prefix); got != "bob" {
		t.Errorf("expected the author to be recovered, got %q", got)
	}
	if last.Message != editMarker+"hello" {
		t.Errorf("expected edit line, got %q", last.Message)
	}

	// the body is recovered when the update carries none
	ts.Dispatch(discord.MessageUpdateEvent{ID: 42, ChannelID: 10, Author: &userBob})
	if len(s.lines) != 3 {
		t.Fatalf("expected an edit line with the previous body, got %v", s.messages())
	}
	if last = s.lines[2]; last.Message != editMarker+"hello" {
		t.Errorf("expected the recovered body, got %q", last.Message)
	}

	// nothing changed
	ts.Dispatch(discord.MessageUpdateEvent{ID: 42, ChannelID: 10, Author: &userBob, Content: &content})
	if len(s.lines) != 3 {
		t.Errorf("expected an unchanged update to be dropped, got %v", s.messages())
	}

	empty := ""
	ts.Dispatch(discord.MessageUpdateEvent{ID: 99, ChannelID: 10, Content: &empty})
	last = s.lines[len(s.lines)-1]
	if last.Prefix != unknownAuthor || last.Message != editMarker+noContent {
		t.Errorf("expected unknown author and no content, got (%q, %q)", last.Prefix, last.Message)
	}

	ts.Dispatch(discord.MessageUpdateEvent{ID: 98, ChannelID: 10})
	last = s.lines[len(s.lines)-1]
	if last.Prefix != unknownAuthor || last.Message != editMarker+noContent {
		t.Errorf("expected placeholders for an unknown message, got (%q, %q)", last.Prefix, last.Message)
	}
}

func TestReconstructedSelfAuthored(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	ts.Dispatch(discord.MessageCreateEvent{Message: message(42, 20, userMe, "mine")})
	s := ts.surface(t, "0.20")

	ts.Dispatch(discord.MessageDeleteEvent{ID: 42, ChannelID: 20})
	if len(s.lines) != 2 {
		t.Fatalf("expected a delete line, got %v", s.messages())
	}
	if tags := s.lines[1].Tags; !hasTag(tags, "notify_none") || hasTag(tags, "notify_private") {
		t.Errorf("expected an own deleted message not to notify, got %v", tags)
	}

	ts.Dispatch(discord.MessageCreateEvent{Message: message(43, 10, userMe, "hey")})
	content := "hey <@1>"
	ts.Dispatch(discord.MessageUpdateEvent{
		ID:        43,
		ChannelID: 10,
		Content:   &content,
		Mentions:  []discord.User{userMe},
	})
	general := ts.surface(t, "100.10")
	last := general.lines[len(general.lines)-1]
	if hasTag(last.Tags, "notify_highlight") || !hasTag(last.Tags, "no_highlight") {
		t.Errorf("expected an own edit not to highlight, got %v", last.Tags)
	}
}

func TestDispatchDelete(t *testing.T) {
	opts, _ := LoadOptions("", map[string]string{"on_delete.100": "12"})
	ts := newTestSession(t, 0, opts)
	ts.Dispatch(discord.MessageCreateEvent{Message: message(42, 10, userBob, "secret")})
	ts.Dispatch(discord.MessageDeleteEvent{ID: 42, ChannelID: 10, ServerID: 100})
	ts.Dispatch(discord.MessageDeleteEvent{ID: 43, ChannelID: 10, ServerID: 100})

	s := ts.surface(t, "100.10")
	if len(s.lines) != 2 {
		t.Fatalf("expected unknown deletions to be dropped, got %d lines", len(s.lines))
	}
	last := s.lines[1]
	if last.Message != deleteMarker+"secret" {
		t.Errorf("expected delete line, got %q", last.Message)
	}
	if !hasTag(last.Tags, "notify_message") || !hasTag(last.Tags, messageTag(42)) {
		t.Errorf("unexpected tags %v", last.Tags)
	}

	select {
	case o := <-ts.sends:
		if o.channel != 12 || !o.onDelete {
			t.Errorf("expected a redirect to channel 12, got %+v", o)
		}
		if want := "AUTO: Deleted message by bob in general: secret"; o.text != want {
			t.Errorf("expected %q, got %q", want, o.text)
		}
	default:
		t.Errorf("expected the deleted message to be redirected")
	}
}

func TestDispatchMemberUpdate(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	ts.openAndSyncBuffers()
	s := ts.surface(t, "100.10")

	ts.Dispatch(discord.ServerMemberUpdateEvent{ServerID: 100, Member: discord.Member{User: userAlice, Nick: "Alicia"}})
	if s.nicks["Ali"] || !s.nicks["Alicia"] {
		t.Errorf("expected Ali to be renamed to Alicia, got %v", s.nicks)
	}

	ts.Dispatch(discord.ServerMemberRemoveEvent{ServerID: 100, User: userBob})
	if s.nicks["bob"] {
		t.Errorf("expected bob to be removed, got %v", s.nicks)
	}
}

func TestDispatchConnection(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	ts.Dispatch(discord.ConnectionEvent{Connected: true})
	if got := ts.host.main.messages(); len(got) != 0 {
		t.Errorf("expected the first connection to be silent, got %v", got)
	}
	ts.Dispatch(discord.ConnectionEvent{Connected: false})
	ts.Dispatch(discord.ConnectionEvent{Connected: true})
	got := ts.host.main.messages()
	if len(got) != 2 || got[1] != "Reconnected to Discord" {
		t.Errorf("expected a disconnection then a reconnection, got %v", got)
	}
}

func TestResyncNames(t *testing.T) {
	opts, _ := LoadOptions("", nil)
	ts := newTestSession(t, 0, opts)
	ts.openAndSyncBuffers()
	priv, _ := ts.state.FindChannel(20)
	ts.EnsureSurface(priv)

	before := ts.rosters()
	if err := opts.Set("rename.3", "robert"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ts.resyncNames(before)
	for _, address := range []string{"100.10", "100.12", "0.20"} {
		s := ts.surface(t, address)
		if s.nicks["bob"] || !s.nicks["robert"] {
			t.Errorf("%s: expected bob to be renamed to robert, got %v", address, s.nicks)
		}
	}

	before = ts.rosters()
	if err := opts.Delete("rename.3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ts.resyncNames(before)
	if s := ts.surface(t, "100.10"); s.nicks["robert"] || !s.nicks["bob"] {
		t.Errorf("expected the rename to be undone, got %v", s.nicks)
	}
}

func TestDispatchUnknownEvent(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	ts.Dispatch(discord.UnknownEvent{Name: "GUILD_SCHEDULED_EVENT_CREATE"})
	ts.Dispatch(discord.TypingStartEvent{ChannelID: 10, UserID: 2})
	if ts.host.created != 0 || len(ts.host.main.lines) != 0 {
		t.Errorf("expected unknown events to be ignored")
	}
}

func TestBacklogBeforeLiveMessages(t *testing.T) {
	ts := newTestSession(t, 2, nil)
	ts.transport.backlog[10] = []discord.Message{
		message(1, 10, userBob, "old"),
		message(2, 10, userAlice, "recent"),
	}

	// the first message opens the surface, which starts fetching
	ts.Dispatch(discord.MessageCreateEvent{Message: message(2, 10, userAlice, "recent")})
	ts.Dispatch(discord.MessageCreateEvent{Message: message(3, 10, userBob, "live")})
	s := ts.surface(t, "100.10")
	if len(s.lines) != 0 {
		t.Fatalf("expected live messages to wait for the backlog, got %v", s.messages())
	}

	select {
	case ev := <-ts.posted:
		ts.Handle(ev)
	case <-time.After(5 * time.Second):
		t.Fatalf("backlog was never loaded")
	}

	got := s.messages()
	want := []string{"old", "recent", "live"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if !hasTag(s.lines[0].Tags, "notify_none") {
		t.Errorf("expected backlog lines not to notify, got %v", s.lines[0].Tags)
	}
}

func TestBacklogFailure(t *testing.T) {
	ts := newTestSession(t, 2, nil)
	ts.transport.fetch = errors.New("forbidden")
	ts.Dispatch(discord.MessageCreateEvent{Message: message(3, 10, userBob, "live")})

	select {
	case ev := <-ts.posted:
		ts.Handle(ev)
	case <-time.After(5 * time.Second):
		t.Fatalf("backlog was never loaded")
	}

	s := ts.surface(t, "100.10")
	if s.loads != 1 {
		t.Errorf("expected the retained backlog to be loaded instead")
	}
	got := s.messages()
	if len(got) != 2 || got[1] != "live" {
		t.Errorf("expected an error line then the live message, got %v", got)
	}
}

func TestSend(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	ref, _ := ts.state.FindChannel(10)
	if err := ts.Send(ref, "100.10", "hi @Ali"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	o := <-ts.sends
	if o.channel != 10 || o.text != "hi <@!2>" {
		t.Errorf("unexpected outgoing message %+v", o)
	}

	for i := 0; i < sendQueueSize; i++ {
		if err := ts.Send(ref, "100.10", "spam"); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if err := ts.Send(ref, "100.10", "spam"); !errors.Is(err, errSendQueueFull) {
		t.Errorf("expected a full queue, got %v", err)
	}
}

func TestSurfaceInput(t *testing.T) {
	ts := newTestSession(t, 0, nil)
	ts.openAndSyncBuffers()
	s := ts.surface(t, "100.10")
	s.input("hello")
	if o := <-ts.sends; o.text != "hello" || o.address != "100.10" {
		t.Errorf("unexpected outgoing message %+v", o)
	}
}

func TestDispatchRosterOrder(t *testing.T) {
	carol := discord.User{ID: 4, Username: "carol"}
	dave := discord.User{ID: 5, Username: "dave"}

	ts := newTestSession(t, 0, nil)
	ts.Dispatch(discord.ChannelCreateEvent{Channel: discord.Channel{ID: 13, ServerID: 100, Name: "new", Kind: discord.ChannelText}})
	ts.Dispatch(discord.ServerMemberAddEvent{ServerID: 100, Member: discord.Member{User: carol}})
	ts.Dispatch(discord.MessageCreateEvent{Message: message(50, 13, carol, "x")})

	s := ts.surface(t, "100.13")
	if !s.nicks["carol"] {
		t.Errorf("expected carol in the roster, got %v", s.nicks)
	}
	if got := s.messages(); len(got) != 1 || got[0] != "x" {
		t.Errorf("expected the message to be rendered, got %v", got)
	}

	// a message from someone not yet listed still renders
	ts.Dispatch(discord.MessageCreateEvent{Message: message(51, 13, dave, "y")})
	if s.nicks["dave"] {
		t.Errorf("expected dave not to be listed before joining")
	}
	if got := s.messages(); len(got) != 2 || got[1] != "y" {
		t.Errorf("expected the message to be rendered, got %v", got)
	}
	ts.Dispatch(discord.ServerMemberAddEvent{ServerID: 100, Member: discord.Member{User: dave}})
	if !s.nicks["dave"] {
		t.Errorf("expected dave in the roster after joining")
	}
}

type panicHost struct {
	*fakeHost
}

func (panicHost) NickColor(name string) string {
	panic("no colors")
}

func TestHandleRecoversPanics(t *testing.T) {
	h := newFakeHost()
	s, err := NewSession(SessionParams{
		Ready:     testReady(),
		Transport: newFakeTransport(),
		Host:      panicHost{h},
		Post:      func(any) {},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.Handle(discord.MessageCreateEvent{Message: message(1, 10, userBob, "x")})
	got := h.main.messages()
	if len(got) != 1 || !strings.HasPrefix(got[0], "Internal error") {
		t.Errorf("expected a diagnostic, got %v", got)
	}
}
