package weecord

import (
	"context"
	"errors"
	"fmt"
	"html"
	"image"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"git.sr.ht/~rockorager/vaxis"

	"git.sr.ht/~delthas/weecord/discord"
	"git.sr.ht/~delthas/weecord/events"
	"git.sr.ht/~delthas/weecord/ui"
)

const eventChanSize = 1024

const connectTimeout = time.Minute

func isCommand(input []rune) bool {
	// Command can't start with two slashes because that's an escape for
	// a literal slash in the message
	return len(input) >= 1 && input[0] == '/' && !(len(input) >= 2 && input[1] == '/')
}

type event struct {
	src     *Session // nil if UI
	content interface{}
}

// connected is posted by the connection worker.
type connected struct {
	transport Transport
	ready     discord.Ready
	err       error
}

type keyMatch struct {
	keycode rune
	mods    vaxis.ModifierMask
}

type App struct {
	Logger *slog.Logger

	win     *ui.UI
	session *Session
	opts    *Options
	dial    Dialer
	pasting bool

	lastConfirm string

	// events MUST NOT be posted to directly; instead, use App.postEvent.
	events chan event

	cfg       Config
	shortcuts map[keyMatch][]string

	connecting bool

	imageLoading bool

	closing atomic.Bool
}

func NewApp(cfg Config, logger *slog.Logger) (app *App, err error) {
	opts, err := LoadOptions(cfg.OptionsPath, cfg.OptionDefaults())
	if err != nil {
		return nil, err
	}

	app = &App{
		Logger:    logger,
		opts:      opts,
		events:    make(chan event, eventChanSize),
		cfg:       cfg,
		shortcuts: make(map[keyMatch][]string),
	}
	app.dial = GatewayDialer(app.logger(), cfg.Proxy)
	for _, m := range []map[string][]string{defaultCommands, app.cfg.Shortcuts} {
		for name, actions := range m {
			k := keyNameMatch(name)
			if k == nil {
				return nil, fmt.Errorf("unknown key name: %v", name)
			}
			app.shortcuts[*k] = actions
		}
	}

	app.win, err = ui.New(ui.Config{
		NickColWidth:   cfg.NickColWidth,
		ChanColWidth:   cfg.ChanColWidth,
		MemberColWidth: cfg.MemberColWidth,
		AutoComplete: func(cursorIdx int, text []rune) []ui.Completion {
			return app.completions(cursorIdx, text)
		},
		Mouse:             cfg.Mouse,
		HighlightBeep:     cfg.HighlightBeep,
		LocalIntegrations: cfg.LocalIntegrations,
		Colors:            cfg.Colors,
	})
	if err != nil {
		return nil, err
	}

	if cfg.LocalIntegrations {
		ui.DBusStart(func(ev any) {
			app.postEvent(event{
				content: ev,
			})
		})
	}
	app.win.SetPrompt(ui.Styled(">", vaxis.Style{
		Foreground: app.cfg.Colors.Prompt,
	}))

	app.initWindow()

	return app, nil
}

func (app *App) logger() *slog.Logger {
	if app.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return app.Logger
}

func (app *App) Close() {
	app.win.Exit()       // tell all goroutines to stop when possible
	app.postEvent(event{ // tell app.eventLoop to stop
		content: nil,
	})
	if app.session != nil {
		app.session.Close()
	}
	ui.DBusStop()
	app.closing.Store(true)
	go func() {
		// drain remaining events
		for {
			select {
			case <-app.events:
			default:
				return
			}
		}
	}()
}

func (app *App) Run() {
	go app.uiLoop()
	if err := app.connect(); err != nil {
		app.printError("%v", err)
	}
	app.eventLoop()
}

// eventLoop retrieves events (in batches) from the event channel and handle
// them, then draws the interface after each batch is handled.
func (app *App) eventLoop() {
	defer app.win.Close()

	for !app.win.ShouldExit() {
		ev := <-app.events
		if !app.handleEvent(ev) {
			return
		}
		deadline := time.NewTimer(200 * time.Millisecond)
	outer:
		for {
			select {
			case <-deadline.C:
				break outer
			case ev := <-app.events:
				if !app.handleEvent(ev) {
					return
				}
			default:
				if !deadline.Stop() {
					<-deadline.C
				}
				break outer
			}
		}

		if !app.pasting {
			app.setStatus()
			app.updatePrompt()
			app.win.Draw()
			app.updateTitle()
		}
	}
}

func (app *App) postEvent(ev event) {
	if app.closing.Load() {
		return
	}
	app.events <- ev
}

func (app *App) handleEvent(ev event) bool {
	if ev.src == nil {
		if ev.content == nil {
			return false
		}
		if !app.handleUIEvent(ev.content) {
			return false
		}
	} else {
		app.handleSessionEvent(ev.src, ev.content)
	}
	return true
}

func (app *App) uiLoop() {
	for ev := range app.win.Events {
		app.postEvent(event{
			content: ev,
		})
	}
	// the terminal is gone
	app.postEvent(event{
		content: nil,
	})
}

// connect starts logging in with the stored token.
func (app *App) connect() error {
	if app.session != nil {
		return fmt.Errorf("already connected")
	}
	if app.connecting {
		return fmt.Errorf("already connecting")
	}
	token, ok := app.opts.Get("token")
	if !ok {
		return fmt.Errorf("Error: token unset. Run: /token <token>")
	}
	app.connecting = true
	app.printStatus("Connecting...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		t, ready, err := app.dial(ctx, token)
		app.postEvent(event{
			content: connected{
				transport: t,
				ready:     ready,
				err:       err,
			},
		})
	}()
	return nil
}

func (app *App) handleConnected(ev connected) {
	app.connecting = false
	if ev.err != nil {
		app.logger().Error("failed to connect", "error", ev.err)
		if errors.Is(ev.err, discord.ErrAuthentication) {
			app.printError("Login error: %v", ev.err)
		} else {
			app.printError("Connection error: %v", ev.err)
		}
		return
	}
	if app.win.ShouldExit() {
		ev.transport.Close()
		return
	}

	var s *Session
	s, err := NewSession(SessionParams{
		Logger:    app.logger(),
		Ready:     ev.ready,
		Transport: ev.transport,
		Host:      uiHost{win: app.win},
		Options:   app.opts,
		Backlog:   app.cfg.Backlog,
		Post: func(content any) {
			app.postEvent(event{
				src:     s,
				content: content,
			})
		},
	})
	if err != nil {
		ev.transport.Close()
		app.printError("Connection error: %v", err)
		return
	}
	app.session = s
	app.printStatus("Connected")
	s.Start()
}

func (app *App) disconnect() error {
	if app.session == nil {
		return errOffline
	}
	if err := app.session.Close(); err != nil {
		app.logger().Warn("failed to close session", "error", err)
	}
	app.session = nil
	app.printStatus("Disconnected")
	return nil
}

func (app *App) handleSessionEvent(s *Session, ev interface{}) {
	if s != app.session {
		// event from a dropped session
		return
	}
	switch ev := ev.(type) {
	case listenerStopped:
		app.printError("Listening goroutine stopped: %v", ev.err)
		s.Close()
		app.session = nil
	default:
		s.Handle(ev)
	}
}

func (app *App) handleUIEvent(ev interface{}) bool {
	switch ev := ev.(type) {
	case vaxis.Resize:
		app.win.SetWinPixels(ev.XPixel, ev.YPixel)
		app.win.Resize()
	case vaxis.PasteStartEvent:
		app.pasting = true
	case vaxis.PasteEndEvent:
		app.pasting = false
	case vaxis.Mouse:
		app.handleMouseEvent(ev)
	case vaxis.Key:
		app.handleKeyEvent(ev)
	case vaxis.FocusIn:
		app.win.SetFocused(true)
	case vaxis.FocusOut:
		app.win.SetFocused(false)
	case *ui.NotifyEvent:
		if b := app.win.Buffer(ev.Buffer); b != nil {
			app.win.GoToBuffer(b)
		}
	case statusLine:
		app.addStatusLine(ev.line)
	case connected:
		app.handleConnected(ev)
	case *events.EventClickNick:
		app.handleNickEvent(ev)
	case *events.EventImageLoaded:
		app.imageLoading = false
		if ev.Err != nil {
			app.printError("Failed to load %s: %v", ev.Link, ev.Err)
			break
		}
		if !app.win.ShowImage(ev.Image) {
			app.printError("Failed to display %s", ev.Link)
		}
	default:
		app.logger().Debug("unhandled UI event", "type", fmt.Sprintf("%T", ev))
	}
	return true
}

func (app *App) handleMouseEvent(ev vaxis.Mouse) {
	if ev.EventType != vaxis.EventPress {
		return
	}
	x, y := ev.Col, ev.Row
	if app.win.ImageShown() && ev.Button == vaxis.MouseLeftButton {
		app.win.ShowImage(nil)
		return
	}
	switch ev.Button {
	case vaxis.MouseWheelUp:
		app.win.Wheel(x, y, -4)
	case vaxis.MouseWheelDown:
		app.win.Wheel(x, y, 4)
	case vaxis.MouseLeftButton:
		if ev, ok := app.win.Click(x, y).(*events.EventClickNick); ok {
			app.handleNickEvent(ev)
		}
	}
}

func (app *App) handleAction(action string, args ...string) {
	switch action {
	case "quit":
		if !app.win.InputClear() {
			app.win.InputSet("/quit")
		}
	case "set-editor":
		if len(app.win.InputContent()) == 0 {
			app.win.InputSet(strings.Join(args, " "))
		}
	case "cursor-start":
		app.win.InputHome()
	case "cursor-end":
		app.win.InputEnd()
	case "redraw":
		app.win.Resize()
	case "scroll-up":
		app.win.ScrollUp()
	case "scroll-down":
		app.win.ScrollDown()
	case "buffer-next":
		app.win.NextBuffer()
	case "buffer-previous":
		app.win.PreviousBuffer()
	case "buffer-next-unread":
		app.win.NextUnreadBuffer()
	case "cursor-right-word":
		app.win.InputRightWord()
	case "cursor-left-word":
		app.win.InputLeftWord()
	case "cursor-right":
		app.win.InputRight()
	case "cursor-left":
		app.win.InputLeft()
	case "cursor-up":
		app.win.InputUp()
	case "cursor-down":
		app.win.InputDown()
	case "cursor-delete-previous-word":
		app.win.InputDeleteWord()
	case "cursor-delete-previous":
		app.win.InputBackspace()
	case "cursor-delete-next":
		app.win.InputDelete()
	case "auto-complete":
		app.win.InputAutoComplete()
	case "close-overlay":
		if app.win.ImageShown() {
			app.win.ShowImage(nil)
		}
	case "toggle-member-list":
		app.win.ToggleMemberList()
	case "send":
		if !app.win.InputEnter() {
			b := app.win.CurrentBuffer()
			input := string(app.win.InputContent())
			var err error
			for _, part := range strings.Split(input, "\n") {
				if err = app.handleInput(b, part); err != nil {
					app.win.AddLine(b, ui.Line{
						At:     time.Now(),
						Head:   ui.ColorString("!!", ui.ColorRed),
						Notify: ui.NotifyUnread,
						Body:   ui.PlainSprintf("%q: %s", input, err),
					})
					break
				}
			}
			if err == nil {
				app.win.InputFlush()
			}
		}
	case "buffer":
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil && n >= 0 {
				app.win.GoToBufferNo(n)
			} else if args[0] == "last" {
				app.win.GoToBufferNo(app.win.BufferCount() - 1)
			}
		}
	case "none":
	default:
		app.win.AddLine(app.win.CurrentBuffer(), ui.Line{
			At:     time.Now(),
			Head:   ui.ColorString("!!", ui.ColorRed),
			Notify: ui.NotifyUnread,
			Body:   ui.PlainSprintf("shortcut: action %q does not exist", action),
		})
	}
}

var defaultCommands = map[string][]string{
	"Control+c":       {"quit"},
	"Control+k":       {"set-editor", "/buffer "},
	"Control+a":       {"cursor-start"},
	"Control+e":       {"cursor-end"},
	"Control+l":       {"redraw"},
	"Control+u":       {"scroll-up"},
	"Page_Up":         {"scroll-up"},
	"Control+d":       {"scroll-down"},
	"Page_Down":       {"scroll-down"},
	"Control+n":       {"buffer-next"},
	"Control+p":       {"buffer-previous"},
	"Alt+Right":       {"buffer-next"},
	"Shift+Right":     {"buffer-next-unread"},
	"Control+Right":   {"cursor-right-word"},
	"Right":           {"cursor-right"},
	"Alt+Left":        {"buffer-previous"},
	"Control+Left":    {"cursor-left-word"},
	"Left":            {"cursor-left"},
	"Alt+Up":          {"buffer-previous"},
	"Up":              {"cursor-up"},
	"Alt+Down":        {"buffer-next"},
	"Down":            {"cursor-down"},
	"Alt+Home":        {"buffer", "0"},
	"Home":            {"cursor-start"},
	"Alt+End":         {"buffer", "last"},
	"End":             {"cursor-end"},
	"Alt+BackSpace":   {"cursor-delete-previous-word"},
	"BackSpace":       {"cursor-delete-previous"},
	"Shift+BackSpace": {"cursor-delete-previous"},
	"Delete":          {"cursor-delete-next"},
	"Control+w":       {"cursor-delete-previous-word"},
	"Tab":             {"auto-complete"},
	"Escape":          {"close-overlay"},
	"F8":              {"toggle-member-list"},
	"\n":              {"send"},
	"\r":              {"send"},
	"Control+j":       {"send"},
	"KP_Enter":        {"send"},
	"Alt+1":           {"buffer", "0"},
	"Alt+2":           {"buffer", "1"},
	"Alt+3":           {"buffer", "2"},
	"Alt+4":           {"buffer", "3"},
	"Alt+5":           {"buffer", "4"},
	"Alt+6":           {"buffer", "5"},
	"Alt+7":           {"buffer", "6"},
	"Alt+8":           {"buffer", "7"},
	"Alt+9":           {"buffer", "8"},
}

func (app *App) handleKeyEvent(ev vaxis.Key) {
	switch ev.EventType {
	case vaxis.EventPress, vaxis.EventRepeat, vaxis.EventPaste:
	default:
		return
	}
	if len(ev.Text) == 1 && ev.Text[0] < ' ' {
		// Drop control characters text (sent by some terminal emulators)
		ev.Text = ""
	}
	if ev.Modifiers&(vaxis.ModCtrl|vaxis.ModAlt|vaxis.ModSuper|vaxis.ModMeta) != 0 {
		// Drop text when sent with modifiers preventing text
		ev.Text = ""
	}
	if ev.Text != "" {
		for _, r := range ev.Text {
			app.win.InputRune(r)
		}
		return
	}

	if ev.EventType == vaxis.EventPaste {
		for _, keycode := range []rune{'\n', '\r', vaxis.KeyKeyPadEnter} {
			k := keyMatch{
				keycode: keycode,
			}
			for _, km := range keyMatches(ev) {
				if km == k {
					app.win.InputRune('\n')
					return
				}
			}
		}
	}

	for _, km := range keyMatches(ev) {
		if d := app.shortcuts[km]; len(d) != 0 {
			app.handleAction(d[0], d[1:]...)
			return
		}
	}
}

// handleNickEvent inserts a mention of the clicked member in the editor.
func (app *App) handleNickEvent(ev *events.EventClickNick) {
	for _, r := range "@" + ev.Nick + " " {
		app.win.InputRune(r)
	}
}

var patternOpenGraphImage = regexp.MustCompile(`<meta property="og:image" content="(.*?)"/?>`)
var patternOpenGraphVideo = regexp.MustCompile(`<meta property="og:video"`)

func (app *App) fetchImage(link string) (image.Image, error) {
	cHead := http.Client{
		Timeout: 1500 * time.Millisecond,
	}
	res, err := cHead.Head(link)
	if err != nil {
		return nil, err
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}
	contentType, _, err := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("unexpected content type: %v", res.Header.Get("Content-Type"))
	}
	var isHTML bool
	switch contentType {
	case "image/gif", "image/jpeg", "image/png": // Actual image, fetch
	case "text/html": // Might have an opengraph image, try fetching
		isHTML = true
	default:
		return nil, fmt.Errorf("unexpected content type: %v", contentType)
	}
	if isHTML {
		const previewSize = 10 * 1024
		res, err = cHead.Get(link)
		if err != nil {
			return nil, err
		}
		b, err := io.ReadAll(io.LimitReader(res.Body, previewSize))
		res.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("unexpected read error: %v", err)
		}
		if patternOpenGraphVideo.Match(b) {
			// Do not display image (previews) of video objects
			return nil, fmt.Errorf("video embed found")
		}
		m := patternOpenGraphImage.FindSubmatch(b)
		if len(m) < 2 {
			return nil, fmt.Errorf("image embed not found")
		}
		link = html.UnescapeString(string(m[1]))
	}
	cGet := http.Client{
		Timeout: 5 * time.Second,
	}
	res, err = cGet.Get(link)
	if err != nil {
		return nil, err
	}
	img, err := app.win.DecodeImage(res.Body)
	res.Body.Close()
	if err != nil {
		return nil, err
	}
	return img, nil
}

// preview loads the image at link and shows it over the interface.
func (app *App) preview(link string) error {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid link: %q", link)
	}
	if app.imageLoading {
		return fmt.Errorf("an image is already loading")
	}
	app.imageLoading = true
	go func() {
		img, err := app.fetchImage(link)
		app.postEvent(event{
			content: &events.EventImageLoaded{
				Link:  link,
				Image: img,
				Err:   err,
			},
		})
	}()
	return nil
}

func keyNameMatch(name string) *keyMatch {
	parts := strings.Split(name, "+")
	mods := parts[:len(parts)-1]
	key := parts[len(parts)-1]

	var m vaxis.ModifierMask
	for _, mod := range mods {
		switch mod {
		case "Control":
			m |= vaxis.ModCtrl
		case "Shift":
			m |= vaxis.ModShift
		case "Alt":
			m |= vaxis.ModAlt
		case "Super":
			m |= vaxis.ModSuper
		default:
			return nil
		}
	}
	if r, n := utf8.DecodeRuneInString(key); n == len(key) {
		return &keyMatch{
			keycode: r,
			mods:    m,
		}
	}
	if r := ui.KeyNames[key]; r > 0 {
		return &keyMatch{
			keycode: r,
			mods:    m,
		}
	}
	return nil
}

func keyMatches(k vaxis.Key) []keyMatch {
	m := k.Modifiers
	m &^= vaxis.ModCapsLock
	m &^= vaxis.ModNumLock

	keys := []keyMatch{
		{
			keycode: k.Keycode,
			mods:    m,
		},
	}
	if m&vaxis.ModShift != 0 && k.ShiftedCode != 0 {
		// ctrl+. and user pressed ctrl+shift+; on a French keyboard
		keys = append(keys, keyMatch{
			keycode: k.ShiftedCode,
			mods:    m &^ vaxis.ModShift,
		})
	}
	return keys
}

func BuildVersion() (string, bool) {
	if bi, ok := debug.ReadBuildInfo(); ok {
		return bi.Main.Version, true
	} else {
		return "", false
	}
}
