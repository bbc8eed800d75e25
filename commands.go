package weecord

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"github.com/delthas/go-libnp"

	"git.sr.ht/~delthas/weecord/ui"
)

var (
	errOffline = fmt.Errorf("you are disconnected from Discord, run /connect")
)

const maxArgsInfinite = -1

type command struct {
	AllowHome bool
	MinArgs   int
	MaxArgs   int
	Usage     string
	Desc      string
	Handle    func(app *App, args []string) error
}

type commandSet map[string]*command

var commands commandSet

func init() {
	commands = commandSet{
		"HELP": {
			AllowHome: true,
			MaxArgs:   1,
			Usage:     "[command]",
			Desc:      "show the list of commands, or how to use the given one",
			Handle:    commandDoHelp,
		},
		"CONNECT": {
			AllowHome: true,
			Desc:      "log in to Discord with the stored token",
			Handle:    commandDoConnect,
		},
		"DISCONNECT": {
			AllowHome: true,
			Desc:      "log out of Discord",
			Handle:    commandDoDisconnect,
		},
		"TOKEN": {
			AllowHome: true,
			MinArgs:   1,
			MaxArgs:   1,
			Usage:     "<token>",
			Desc:      "store the token used by /connect",
			Handle:    commandDoToken,
		},
		"RENAME": {
			AllowHome: true,
			MinArgs:   1,
			MaxArgs:   2,
			Usage:     "<id> [name]",
			Desc:      "show a server, channel or user under another name; without a name, restore its own",
			Handle:    commandDoRename,
		},
		"MUTE": {
			AllowHome: true,
			MinArgs:   1,
			MaxArgs:   1,
			Usage:     "<id>",
			Desc:      "stop notifications from a server or channel",
			Handle:    commandDoMute,
		},
		"UNMUTE": {
			AllowHome: true,
			MinArgs:   1,
			MaxArgs:   1,
			Usage:     "<id>",
			Desc:      "restore notifications from a server or channel",
			Handle:    commandDoUnmute,
		},
		"ONDELETE": {
			AllowHome: true,
			MinArgs:   1,
			MaxArgs:   2,
			Usage:     "<server id> [channel id]",
			Desc:      "repost messages deleted in a server to a channel; without a channel, stop",
			Handle:    commandDoOnDelete,
		},
		"ME": {
			MinArgs: 1,
			MaxArgs: 1,
			Usage:   "<message>",
			Desc:    "send an action",
			Handle:  commandDoMe,
		},
		"NP": {
			Desc:   "send the current song that is being played on the system",
			Handle: commandDoNP,
		},
		"NAMES": {
			Desc:   "show the member list of the current channel",
			Handle: commandDoNames,
		},
		"TOPIC": {
			Desc:   "show the topic of the current channel",
			Handle: commandDoTopic,
		},
		"BUFFER": {
			AllowHome: true,
			MinArgs:   1,
			MaxArgs:   1,
			Usage:     "<index|name>",
			Desc:      "switch to the buffer at the position or containing a substring",
			Handle:    commandDoBuffer,
		},
		"CLOSE": {
			Desc:   "close the current buffer",
			Handle: commandDoClose,
		},
		"PREVIEW": {
			AllowHome: true,
			MinArgs:   1,
			MaxArgs:   1,
			Usage:     "<link>",
			Desc:      "show the image at the given link",
			Handle:    commandDoPreview,
		},
		"QUIT": {
			AllowHome: true,
			Desc:      "quit weecord",
			Handle:    commandDoQuit,
		},
		"SHRUG": {
			Desc:    "send a shrug to the current channel ¯\\_(ツ)_/¯",
			MaxArgs: maxArgsInfinite,
			Handle:  commandDoShrug,
		},
		"TABLEFLIP": {
			Desc:   "send a tableflip to the current channel (╯°□°)╯︵ ┻━┻",
			Handle: commandDoTableFlip,
		},
	}
}

// noCommand sends content to the channel of the current buffer.
func noCommand(app *App, b *ui.Buffer, content string) error {
	if app.session == nil {
		return errOffline
	}
	if !b.Input(content) {
		return fmt.Errorf("can't send message to this buffer")
	}
	return nil
}

func commandDoHelp(app *App, args []string) (err error) {
	t := time.Now()
	b := app.win.CurrentBuffer()

	addLineCommand := func(sb *ui.StyledStringBuilder, name string, cmd *command) {
		sb.Reset()
		sb.Grow(len(name) + 1 + len(cmd.Usage))
		sb.SetStyle(vaxis.Style{
			Attribute: vaxis.AttrBold,
		})
		sb.WriteString(name)
		sb.SetStyle(vaxis.Style{})
		sb.WriteByte(' ')
		sb.WriteString(cmd.Usage)
		app.win.AddLine(b, ui.Line{
			At:   t,
			Body: sb.StyledString(),
		})
		app.win.AddLine(b, ui.Line{
			At:   t,
			Body: ui.PlainSprintf("  %s", cmd.Desc),
		})
	}

	addLineCommands := func(names []string) {
		sort.Strings(names)
		var sb ui.StyledStringBuilder
		for _, name := range names {
			addLineCommand(&sb, name, commands[name])
		}
	}

	if len(args) == 0 {
		app.win.AddLine(b, ui.Line{
			At:   t,
			Head: ui.PlainString("--"),
			Body: ui.PlainString("Available commands:"),
		})

		cmdNames := make([]string, 0, len(commands))
		for cmdName := range commands {
			cmdNames = append(cmdNames, cmdName)
		}
		addLineCommands(cmdNames)
	} else {
		search := strings.ToUpper(args[0])
		app.win.AddLine(b, ui.Line{
			At:   t,
			Head: ui.PlainString("--"),
			Body: ui.PlainSprintf("Commands that match \"%s\":", search),
		})

		cmdNames := make([]string, 0, len(commands))
		for cmdName := range commands {
			if !strings.Contains(cmdName, search) {
				continue
			}
			cmdNames = append(cmdNames, cmdName)
		}
		if len(cmdNames) == 0 {
			app.win.AddLine(b, ui.Line{
				At:   t,
				Body: ui.PlainSprintf("  no command matches %q", args[0]),
			})
		} else {
			addLineCommands(cmdNames)
		}
	}
	return nil
}

func commandDoConnect(app *App, args []string) (err error) {
	return app.connect()
}

func commandDoDisconnect(app *App, args []string) (err error) {
	return app.disconnect()
}

func commandDoToken(app *App, args []string) (err error) {
	if err := app.opts.Set("token", args[0]); err != nil {
		return fmt.Errorf("failed saving the token: %v", err)
	}
	app.printStatus("Token set. Run: /connect")
	return nil
}

func parseIDArg(s string) error {
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	return nil
}

// setOption stores or clears a runtime option, then refreshes the names
// shown in the surfaces.
func (app *App) setOption(key, value string) error {
	var before map[string][]string
	if s := app.session; s != nil {
		before = s.rosters()
	}
	var err error
	if value == "" {
		err = app.opts.Delete(key)
	} else {
		err = app.opts.Set(key, value)
	}
	if err != nil {
		return fmt.Errorf("failed saving option %q: %v", key, err)
	}
	if s := app.session; s != nil {
		s.resyncNames(before)
	}
	return nil
}

func commandDoRename(app *App, args []string) (err error) {
	if err := parseIDArg(args[0]); err != nil {
		return err
	}
	var name string
	if len(args) == 2 {
		name = args[1]
	}
	if err := app.setOption("rename."+args[0], name); err != nil {
		return err
	}
	if name == "" {
		app.printStatus("Removed the name of %s", args[0])
	} else {
		app.printStatus("Renamed %s to %s", args[0], name)
	}
	return nil
}

func commandDoMute(app *App, args []string) (err error) {
	if err := parseIDArg(args[0]); err != nil {
		return err
	}
	if err := app.setOption("mute."+args[0], "true"); err != nil {
		return err
	}
	app.printStatus("Muted %s", args[0])
	return nil
}

func commandDoUnmute(app *App, args []string) (err error) {
	if err := parseIDArg(args[0]); err != nil {
		return err
	}
	if err := app.setOption("mute."+args[0], ""); err != nil {
		return err
	}
	app.printStatus("Unmuted %s", args[0])
	return nil
}

func commandDoOnDelete(app *App, args []string) (err error) {
	if err := parseIDArg(args[0]); err != nil {
		return err
	}
	var channel string
	if len(args) == 2 {
		channel = args[1]
		if err := parseIDArg(channel); err != nil {
			return err
		}
	}
	if err := app.setOption("on_delete."+args[0], channel); err != nil {
		return err
	}
	if channel == "" {
		app.printStatus("Deleted messages of %s are no longer reposted", args[0])
	} else {
		app.printStatus("Deleted messages of %s are reposted to %s", args[0], channel)
	}
	return nil
}

func commandDoMe(app *App, args []string) (err error) {
	return noCommand(app, app.win.CurrentBuffer(), fmt.Sprintf("_%s_", args[0]))
}

func commandDoNP(app *App, args []string) (err error) {
	song, err := getSong()
	if err != nil {
		return fmt.Errorf("failed detecting the song: %v", err)
	}
	if song == "" {
		return fmt.Errorf("no song was detected")
	}
	return commandDoMe(app, []string{fmt.Sprintf("np: %s", song)})
}

func commandDoNames(app *App, args []string) (err error) {
	b := app.win.CurrentBuffer()
	if !b.ShowNicklist() {
		return fmt.Errorf("this is not a channel")
	}
	var sb ui.StyledStringBuilder
	sb.SetStyle(vaxis.Style{
		Foreground: app.cfg.Colors.Gray,
	})
	sb.WriteString("Names:")
	self := b.Property("localvar_nick")
	for _, name := range b.Nicks() {
		sb.WriteByte(' ')
		sb.WriteStyledString(ui.IdentString(app.cfg.Colors.Nicks, name, name == self))
	}
	app.win.AddLine(b, ui.Line{
		At:   time.Now(),
		Head: ui.PlainString("--"),
		Body: sb.StyledString(),
	})
	return nil
}

func commandDoTopic(app *App, args []string) (err error) {
	b := app.win.CurrentBuffer()
	topic := b.Topic()
	if topic == "" {
		topic = "(no topic)"
	}
	app.win.AddLine(b, ui.Line{
		At:   time.Now(),
		Head: ui.PlainString("--"),
		Body: ui.PlainSprintf("Topic: %s", topic),
	})
	return nil
}

func commandDoBuffer(app *App, args []string) error {
	name := args[0]
	i, err := strconv.Atoi(name)
	if err == nil && i >= 1 && i <= app.win.BufferCount() {
		app.win.GoToBufferNo(i - 1)
		return nil
	}
	if !app.win.JumpBuffer(name) {
		return fmt.Errorf("none of the buffers match %q", name)
	}
	return nil
}

func commandDoClose(app *App, args []string) (err error) {
	b := app.win.CurrentBuffer()
	if !app.win.RemoveBuffer(b.Address()) {
		return fmt.Errorf("this buffer can't be closed")
	}
	return nil
}

func commandDoPreview(app *App, args []string) (err error) {
	return app.preview(args[0])
}

func commandDoQuit(app *App, args []string) (err error) {
	app.win.Exit()
	return nil
}

func commandDoShrug(app *App, args []string) (err error) {
	content := `¯\\\_(ツ)\_/¯`
	if len(args) > 0 {
		content = strings.Join(args, " ") + " " + content
	}
	return noCommand(app, app.win.CurrentBuffer(), content)
}

func commandDoTableFlip(app *App, args []string) (err error) {
	return noCommand(app, app.win.CurrentBuffer(), `(╯°□°)╯︵ ┻━┻`)
}

// implemented from https://golang.org/src/strings/strings.go?s=8055:8085#L310
func fieldsN(s string, n int) []string {
	s = strings.TrimSpace(s)
	if s == "" || n == 0 {
		return nil
	}
	if n == 1 {
		return []string{s}
	}
	var a []string
	na := 0
	fieldStart := 0
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	fieldStart = i
	for i < len(s) {
		if s[i] != ' ' {
			i++
			continue
		}
		a = append(a, s[fieldStart:i])
		na++
		i++
		for i < len(s) && s[i] == ' ' {
			i++
		}
		fieldStart = i
		if n != maxArgsInfinite && na+1 >= n {
			a = append(a, s[fieldStart:])
			return a
		}
	}
	if fieldStart < len(s) {
		a = append(a, s[fieldStart:])
	}
	return a
}

func parseCommand(s string) (command, args string, isCommand bool) {
	if len(s) == 0 || s[0] != '/' {
		return "", s, false
	}
	if len(s) > 1 && s[1] == '/' {
		// Input starts with two slashes.
		return "", s[1:], false
	}

	i := strings.IndexByte(s, ' ')
	if i < 0 {
		i = len(s)
	}

	return strings.ToUpper(s[1:i]), strings.TrimLeft(s[i:], " "), true
}

var errUnknownCommand = errors.New("unknown command")

// findCommand returns the only command starting with name.
func findCommand(name string) (string, *command, error) {
	if strings.HasPrefix("BUFFER", name) {
		name = "BUFFER"
	}
	var chosen string
	for key := range commands {
		if !strings.HasPrefix(key, name) {
			continue
		}
		if chosen != "" {
			return "", nil, fmt.Errorf("ambiguous command %q (could mean %v or %v)", name, chosen, key)
		}
		chosen = key
	}
	if chosen == "" {
		return "", nil, fmt.Errorf("%w %q", errUnknownCommand, name)
	}
	return chosen, commands[chosen], nil
}

func (app *App) handleInput(b *ui.Buffer, content string) error {
	confirmed := content == app.lastConfirm
	app.lastConfirm = content

	if content == "" {
		return nil
	}

	cmdName, rawArgs, isCommand := parseCommand(content)
	if !isCommand {
		if _, _, command := parseCommand(strings.TrimSpace(content)); !confirmed && command {
			// " /FOO BAR"
			return fmt.Errorf("this message looks like a command; remove the spaces at the start, or press enter again to send the message as is")
		}
		return noCommand(app, b, rawArgs)
	}
	if cmdName == "" {
		return fmt.Errorf("lone slash at the beginning")
	}

	chosenCMDName, cmd, err := findCommand(cmdName)
	if err != nil {
		return err
	}

	var args []string
	if rawArgs != "" && cmd.MaxArgs != 0 {
		args = fieldsN(rawArgs, cmd.MaxArgs)
	}

	if len(args) < cmd.MinArgs {
		return fmt.Errorf("usage: %s %s", chosenCMDName, cmd.Usage)
	}
	if b == app.win.Home() && !cmd.AllowHome {
		return fmt.Errorf("command %s cannot be executed from the home buffer", chosenCMDName)
	}

	return cmd.Handle(app, args)
}

func getSong() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()
	info, err := libnp.GetInfo(ctx)
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", nil
	}
	if info.Title == "" {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", info.Title)
	if len(info.Artists) > 0 {
		fmt.Fprintf(&sb, " by **%s**", info.Artists[0])
	}
	if info.Album != "" {
		fmt.Fprintf(&sb, " from **%s**", info.Album)
	}
	if u, err := url.Parse(info.URL); err == nil {
		switch u.Scheme {
		case "http", "https":
			fmt.Fprintf(&sb, " - %s", info.URL)
		}
	}
	return sb.String(), nil
}
