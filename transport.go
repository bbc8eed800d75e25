package weecord

import (
	"context"
	"log/slog"

	"git.sr.ht/~delthas/weecord/discord"
)

// Transport is a live connection to the remote service.
type Transport interface {
	// Recv blocks until the next event. It returns an error once the
	// connection is closed.
	Recv() (discord.Event, error)
	Send(ctx context.Context, channel discord.ID, text string) error
	// RecentMessages returns the last messages of a channel, oldest first.
	RecentMessages(ctx context.Context, channel discord.ID, limit int) ([]discord.Message, error)
	RequestMembers(servers []discord.ID) error
	Close() error
}

// Dialer logs in and returns the connection with its initial snapshot.
type Dialer func(ctx context.Context, token string) (Transport, discord.Ready, error)

// GatewayDialer returns a Dialer connecting to the Discord gateway.
func GatewayDialer(logger *slog.Logger, proxy bool) Dialer {
	return func(ctx context.Context, token string) (Transport, discord.Ready, error) {
		g, ready, err := discord.Dial(ctx, token, discord.GatewayOptions{
			Logger: logger,
			Proxy:  proxy,
		})
		if err != nil {
			return nil, discord.Ready{}, err
		}
		return g, ready, nil
	}
}
