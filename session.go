package weecord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"git.sr.ht/~delthas/weecord/discord"
)

const (
	sendQueueSize = 64
	sendTimeout   = 30 * time.Second
	fetchTimeout  = 20 * time.Second
)

// DefaultBacklog is the number of messages fetched for new surfaces.
const DefaultBacklog = 50

var errSendQueueFull = errors.New("too many messages waiting to be sent")

// listenerStopped is posted once the transport stops delivering events.
type listenerStopped struct {
	err error
}

type sendFailed struct {
	address string
	err     error
}

type backlogLoaded struct {
	address  string
	channel  discord.ID
	messages []discord.Message
	err      error
}

type onDeleteFailed struct {
	err error
}

type outgoing struct {
	address  string
	channel  discord.ID
	text     string
	onDelete bool
}

type SessionParams struct {
	Logger    *slog.Logger
	Ready     discord.Ready
	Transport Transport
	Host      Host
	Options   *Options
	// Backlog is the number of messages fetched for new surfaces. Zero
	// disables fetching.
	Backlog int
	// Post hands a session event to the event loop, which must call
	// Session.Handle with it. It is called from other goroutines.
	Post func(any)
}

// Session binds one connection to the host. Except for Start and Close,
// its methods must be called from the event loop.
type Session struct {
	Logger *slog.Logger

	state     *discord.State
	transport Transport
	host      Host
	opts      *Options
	namer     *discord.Namer
	resolver  *discord.Resolver
	backlog   int

	post  func(any)
	sends chan outgoing

	// connected is set once the gateway reported its first connection.
	connected bool

	// pending holds the message events of surfaces waiting for their
	// backlog, in arrival order.
	pending map[string][]discord.Event

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession builds the mirror from the initial snapshot.
func NewSession(params SessionParams) (*Session, error) {
	st, err := discord.NewState(params.Ready)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Logger:    params.Logger,
		state:     st,
		transport: params.Transport,
		host:      params.Host,
		opts:      params.Options,
		backlog:   params.Backlog,
		post:      params.Post,
		sends:     make(chan outgoing, sendQueueSize),
		pending:   make(map[string][]discord.Event),
	}
	s.namer = &discord.Namer{
		Color: params.Host.NickColor,
	}
	if params.Options != nil {
		s.namer.Overrides = params.Options
	}
	s.resolver = &discord.Resolver{
		State: st,
		Namer: s.namer,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

func (s *Session) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

func (s *Session) State() *discord.State {
	return s.state
}

func (s *Session) Namer() *discord.Namer {
	return s.namer
}

func (s *Session) Resolver() *discord.Resolver {
	return s.resolver
}

// Start opens the surfaces of every server and starts the listener and
// sender goroutines.
func (s *Session) Start() {
	s.openAndSyncBuffers()
	s.syncPrivate()

	servers := make([]discord.ID, 0, len(s.state.Servers()))
	for _, srv := range s.state.Servers() {
		servers = append(servers, srv.ID)
	}
	if len(servers) > 0 {
		if err := s.transport.RequestMembers(servers); err != nil {
			s.logger().Warn("failed to request members", "error", err)
		}
	}

	go s.listen()
	go s.sender()
}

// Close stops the goroutines of the session and closes its transport.
func (s *Session) Close() error {
	s.cancel()
	return s.transport.Close()
}

func (s *Session) listen() {
	for {
		ev, err := s.transport.Recv()
		if err != nil {
			s.post(listenerStopped{err: err})
			return
		}
		s.post(ev)
	}
}

func (s *Session) sender() {
	for {
		var o outgoing
		select {
		case <-s.ctx.Done():
			return
		case o = <-s.sends:
		}
		ctx, cancel := context.WithTimeout(s.ctx, sendTimeout)
		err := s.transport.Send(ctx, o.channel, o.text)
		cancel()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger().Warn("failed to send message", "channel", o.channel, "error", err)
			if o.onDelete {
				s.post(onDeleteFailed{err: err})
			} else {
				s.post(sendFailed{address: o.address, err: err})
			}
		}
	}
}

// Send queues text, with mentions replaced, for sending to a channel.
func (s *Session) Send(ref discord.ChannelRef, address, text string) error {
	o := outgoing{
		address: address,
		channel: ref.Info().ID,
		text:    s.resolver.ReplaceOutgoing(ref, text),
	}
	select {
	case s.sends <- o:
		return nil
	default:
		return errSendQueueFull
	}
}

// input returns the input callback of the surface of a channel.
func (s *Session) input(id discord.ID, address string) func(string) {
	return func(text string) {
		defer s.guard("input")
		ref, ok := s.state.FindChannel(id)
		if !ok {
			s.printError(address, fmt.Errorf("channel no longer exists"))
			return
		}
		if err := s.Send(ref, address, text); err != nil {
			s.printError(address, err)
		}
	}
}

func (s *Session) printError(address string, err error) {
	surface := s.host.SearchSurface(address)
	if surface == nil {
		surface = s.host.MainSurface()
	}
	surface.Print(nil, "", fmt.Sprintf("Discord: error sending message - %v", err))
}

func (s *Session) requestBacklog(address string, channel discord.ID) {
	s.pending[address] = []discord.Event{}
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, fetchTimeout)
		defer cancel()
		msgs, err := s.transport.RecentMessages(ctx, channel, s.backlog)
		if s.ctx.Err() != nil {
			return
		}
		s.post(backlogLoaded{
			address:  address,
			channel:  channel,
			messages: msgs,
			err:      err,
		})
	}()
}

// guard reports a panic of an entry point as a diagnostic instead of
// crashing the interface.
func (s *Session) guard(what string) {
	if r := recover(); r != nil {
		s.logger().Error("internal error", "in", what, "panic", r)
		s.host.MainSurface().Print(nil, "!!", fmt.Sprintf("Internal error in %s: %v", what, r))
	}
}

// Handle processes an event posted by the session.
func (s *Session) Handle(ev any) {
	defer s.guard(fmt.Sprintf("%T", ev))
	switch ev := ev.(type) {
	case discord.Event:
		s.Dispatch(ev)
	case sendFailed:
		s.printError(ev.address, ev.err)
	case backlogLoaded:
		s.handleBacklog(ev)
	case onDeleteFailed:
		s.host.MainSurface().Print(nil, "", fmt.Sprintf("Failed to send on_delete message: %v", ev.err))
	default:
		s.logger().Debug("unhandled session event", "type", fmt.Sprintf("%T", ev))
	}
}

func (s *Session) handleBacklog(ev backlogLoaded) {
	queued, ok := s.pending[ev.address]
	if !ok {
		return
	}
	delete(s.pending, ev.address)
	surface := s.host.SearchSurface(ev.address)
	ref, found := s.state.FindChannel(ev.channel)
	if surface == nil || !found {
		return
	}

	seen := make(map[discord.ID]bool)
	if ev.err != nil {
		s.logger().Warn("failed to load backlog", "channel", ev.channel, "error", ev.err)
		surface.Print(nil, "", fmt.Sprintf("Failed to load backlog (loading from disk instead): %v", ev.err))
		surface.LoadBacklog()
	} else {
		for _, m := range ev.messages {
			seen[m.ID] = true
			s.printBacklog(surface, ref, m)
		}
	}
	for _, qe := range queued {
		if c, ok := qe.(discord.MessageCreateEvent); ok && seen[c.Message.ID] {
			continue
		}
		s.Dispatch(qe)
	}
}
