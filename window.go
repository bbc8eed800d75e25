package weecord

import (
	"fmt"
	"time"

	"git.sr.ht/~rockorager/vaxis"

	"git.sr.ht/~delthas/weecord/discord"
	"git.sr.ht/~delthas/weecord/ui"
)

const welcomeMessage = "Welcome to weecord! Enter /help for a list of commands."

func (app *App) initWindow() {
	app.addStatusLine(ui.Line{
		Head: ui.PlainString("--"),
		Body: ui.PlainString(welcomeMessage),
	})
}

type statusLine struct {
	line ui.Line
}

// queueStatusLine posts a status line from another goroutine.
func (app *App) queueStatusLine(line ui.Line) {
	if line.At.IsZero() {
		line.At = time.Now()
	}
	app.postEvent(event{
		content: statusLine{
			line: line,
		},
	})
}

// addStatusLine prints line in the home buffer, and in the current buffer.
func (app *App) addStatusLine(line ui.Line) {
	if line.At.IsZero() {
		line.At = time.Now()
	}
	if b := app.win.CurrentBuffer(); b != app.win.Home() {
		app.win.AddLine(b, line)
	}
	app.win.AddLine(app.win.Home(), line)
}

func (app *App) printStatus(format string, a ...any) {
	app.addStatusLine(ui.Line{
		Head: ui.PlainString("--"),
		Body: ui.PlainSprintf(format, a...),
	})
}

func (app *App) printError(format string, a ...any) {
	app.addStatusLine(ui.Line{
		Head:   ui.ColorString("!!", ui.ColorRed),
		Notify: ui.NotifyUnread,
		Body:   ui.PlainSprintf(format, a...),
	})
}

func (app *App) setStatus() {
	switch {
	case app.imageLoading:
		app.win.SetStatus("Loading image...")
	case app.connecting:
		app.win.SetStatus("Connecting...")
	case app.session == nil:
		app.win.SetStatus("Disconnected")
	default:
		app.win.SetStatus("")
	}
}

// updatePrompt shows the name of the current user in the current channel.
func (app *App) updatePrompt() {
	if s, ref, ok := app.currentChannel(); ok {
		name := s.selfName(ref)
		app.win.SetPrompt(ui.IdentString(app.win.Colors().Nicks, name, true))
		return
	}
	app.win.SetPrompt(ui.Styled(">", vaxis.Style{
		Foreground: app.cfg.Colors.Prompt,
	}))
}

func (app *App) updateTitle() {
	title := "weecord"
	if b := app.win.CurrentBuffer(); b != app.win.Home() {
		title = fmt.Sprintf("%s - %s", b.Name(), title)
	}
	if highlights := app.win.Highlights(); highlights > 0 {
		title = fmt.Sprintf("(%d) %s", highlights, title)
	}
	app.win.SetTitle(title)
}

// currentChannel returns the channel shown in the current buffer.
func (app *App) currentChannel() (*Session, discord.ChannelRef, bool) {
	s := app.session
	if s == nil {
		return nil, nil, false
	}
	ref, ok := s.channelAt(app.win.CurrentBuffer().Address())
	if !ok {
		return nil, nil, false
	}
	return s, ref, true
}
