package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

const eventChanSize = 1024

// ErrClosed is returned by Gateway.Recv once the gateway is closed.
var ErrClosed = errors.New("gateway closed")

// ErrAuthentication is returned by Dial when the token is rejected.
var ErrAuthentication = errors.New("authentication failed")

// closeAuthenticationFailed is the gateway close code for invalid tokens.
const closeAuthenticationFailed = 4004

type GatewayOptions struct {
	Logger *slog.Logger
	// Proxy dials through the proxy named by the environment (ALL_PROXY,
	// NO_PROXY).
	Proxy bool
}

// Gateway is a connection to Discord: a gateway websocket delivering
// events and a REST client for sending and fetching messages.
type Gateway struct {
	session *discordgo.Session
	logger  *slog.Logger

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	readyOnce sync.Once
	ready     chan *discordgo.Ready

	sendLimiter  *rate.Limiter
	fetchLimiter *rate.Limiter
}

var setLoggerOnce sync.Once

// Dial logs in with token and waits for the initial snapshot.
func Dial(ctx context.Context, token string, opts GatewayOptions) (*Gateway, Ready, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	setLoggerOnce.Do(func() {
		// discordgo writes to the standard logger by default, which would
		// draw over the terminal UI.
		discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
			level := slog.LevelDebug
			switch msgL {
			case discordgo.LogError:
				level = slog.LevelError
			case discordgo.LogWarning:
				level = slog.LevelWarn
			case discordgo.LogInformational:
				level = slog.LevelInfo
			}
			logger.Log(context.Background(), level, fmt.Sprintf(format, a...), "component", "discordgo")
		}
	})

	s, err := discordgo.New(token)
	if err != nil {
		return nil, Ready{}, fmt.Errorf("create session: %v", err)
	}
	s.LogLevel = discordgo.LogWarning
	s.StateEnabled = false
	s.SyncEvents = true
	s.Identify.Intents = discordgo.IntentsAllWithoutPrivileged | discordgo.IntentGuildMembers | discordgo.IntentMessageContent

	if opts.Proxy {
		dialer := &net.Dialer{
			Timeout: 10 * time.Second,
		}
		dial := proxy.FromEnvironmentUsing(dialer).(proxy.ContextDialer).DialContext
		s.Dialer = &websocket.Dialer{
			NetDialContext:   dial,
			HandshakeTimeout: 20 * time.Second,
		}
		s.Client = &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				DialContext: dial,
			},
		}
	}

	g := &Gateway{
		session: s,
		logger:  logger,
		events:  make(chan Event, eventChanSize),
		done:    make(chan struct{}),
		ready:   make(chan *discordgo.Ready, 1),
		// Discord allows 5 messages per 5 seconds per channel.
		sendLimiter:  rate.NewLimiter(rate.Every(time.Second), 5),
		fetchLimiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
	s.AddHandler(g.handle)

	if err := s.Open(); err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) && ce.Code == closeAuthenticationFailed {
			return nil, Ready{}, fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
		return nil, Ready{}, err
	}
	select {
	case r := <-g.ready:
		ready := convertReady(r)
		logger.Info("gateway ready", "session", ready.SessionID, "servers", len(ready.Servers))
		return g, ready, nil
	case <-ctx.Done():
		g.Close()
		return nil, Ready{}, ctx.Err()
	}
}

// handle runs on the discordgo read loop, one event at a time.
func (g *Gateway) handle(_ *discordgo.Session, ev interface{}) {
	if r, ok := ev.(*discordgo.Ready); ok {
		first := false
		g.readyOnce.Do(func() {
			first = true
			g.ready <- r
		})
		if first {
			return
		}
		// A later ready follows a full reconnection; the mirror is not
		// rebuilt from it.
	}
	e, ok, err := convertEvent(ev)
	if err != nil {
		g.logger.Warn("dropping malformed event", "error", err)
		return
	}
	if !ok {
		return
	}
	select {
	case g.events <- e:
	case <-g.done:
	}
}

// Recv blocks until the next event.
func (g *Gateway) Recv() (Event, error) {
	select {
	case ev := <-g.events:
		return ev, nil
	case <-g.done:
		return nil, ErrClosed
	}
}

func (g *Gateway) Send(ctx context.Context, channel ID, text string) error {
	if err := g.sendLimiter.Wait(ctx); err != nil {
		return err
	}
	_, err := g.session.ChannelMessageSend(channel.String(), text, discordgo.WithContext(ctx))
	return err
}

// RecentMessages returns the last messages of a channel, oldest first.
func (g *Gateway) RecentMessages(ctx context.Context, channel ID, limit int) ([]Message, error) {
	if err := g.fetchLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	ms, err := g.session.ChannelMessages(channel.String(), limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	r := make([]Message, 0, len(ms))
	for _, m := range ms {
		r = append(r, convertMessage(m))
	}
	slices.Reverse(r)
	return r, nil
}

// RequestMembers asks for the member lists of servers; they arrive as
// member chunk events.
func (g *Gateway) RequestMembers(servers []ID) error {
	for _, id := range servers {
		if err := g.session.RequestGuildMembers(id.String(), "", 0, uuid.NewString(), false); err != nil {
			return fmt.Errorf("request members of %v: %v", id, err)
		}
	}
	return nil
}

func (g *Gateway) Close() error {
	var err error
	g.closeOnce.Do(func() {
		close(g.done)
		err = g.session.Close()
	})
	return err
}
