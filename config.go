package weecord

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"git.sr.ht/~emersion/go-scfg"
	"git.sr.ht/~rockorager/vaxis"

	"git.sr.ht/~delthas/weecord/ui"
)

func parseColor(s string, c *vaxis.Color) error {
	if strings.HasPrefix(s, "#") {
		hex, err := strconv.ParseInt(s[1:], 16, 32)
		if err != nil {
			return err
		}

		*c = vaxis.HexColor(uint32(hex))
		return nil
	}

	code, err := strconv.Atoi(s)
	if err != nil {
		return err
	}

	if code == -1 {
		*c = ui.ColorDefault
		return nil
	}

	if code < 0 || code > 255 {
		return fmt.Errorf("color code must be between 0-255. If you meant to use true colors, use #aabbcc notation")
	}

	*c = vaxis.IndexColor(uint8(code))

	return nil
}

type Config struct {
	Token string

	// Backlog is the number of messages fetched when a channel is opened.
	Backlog int

	Mouse             bool
	HighlightBeep     bool
	LocalIntegrations bool
	Proxy             bool

	NickColWidth   int
	ChanColWidth   int
	MemberColWidth int

	Colors ui.ConfigColors

	Shortcuts map[string][]string

	// Renames, Mutes and OnDelete seed the runtime options.
	Renames  map[string]string
	Mutes    []string
	OnDelete map[string]string

	// OptionsPath is where runtime options are persisted.
	OptionsPath string

	Debug   bool
	LogFile string
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "weecord", "weecord.scfg"), nil
}

func Defaults() Config {
	return Config{
		Backlog:           DefaultBacklog,
		Mouse:             true,
		LocalIntegrations: true,
		NickColWidth:      14,
		ChanColWidth:      16,
		MemberColWidth:    16,
		Colors: ui.ConfigColors{
			Prompt: ui.ColorDefault,
			Unread: ui.ColorDefault,
			Nicks: ui.ColorScheme{
				Type: ui.ColorSchemeBase,
			},
		},
		Shortcuts: make(map[string][]string),
		Renames:   make(map[string]string),
		OnDelete:  make(map[string]string),
	}
}

// LoadConfigFile reads the configuration at filename. A missing file
// yields the defaults.
func LoadConfigFile(filename string) (cfg Config, err error) {
	cfg = Defaults()
	cfg.OptionsPath = filepath.Join(filepath.Dir(filename), "options.scfg")

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return cfg, nil
	}
	directives, err := scfg.Load(filename)
	if err != nil {
		return cfg, fmt.Errorf("error parsing scfg: %s", err)
	}
	if err := unmarshal(directives, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// OptionDefaults returns the runtime option values implied by cfg.
func (cfg *Config) OptionDefaults() map[string]string {
	defaults := make(map[string]string)
	if cfg.Token != "" {
		defaults["token"] = cfg.Token
	}
	for id, name := range cfg.Renames {
		defaults["rename."+id] = name
	}
	for _, id := range cfg.Mutes {
		defaults["mute."+id] = "true"
	}
	for server, channel := range cfg.OnDelete {
		defaults["on_delete."+server] = channel
	}
	return defaults
}

func parseBool(d *scfg.Directive, v *bool) error {
	var s string
	if err := d.ParseParams(&s); err != nil {
		return err
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("directive %q: %v", d.Name, err)
	}
	*v = b
	return nil
}

func parseInt(d *scfg.Directive, v *int) error {
	var s string
	if err := d.ParseParams(&s); err != nil {
		return err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("directive %q: %v", d.Name, err)
	}
	*v = n
	return nil
}

func parseID(d *scfg.Directive, s string) error {
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return fmt.Errorf("directive %q: invalid id %q", d.Name, s)
	}
	return nil
}

func unmarshal(directives scfg.Block, cfg *Config) (err error) {
	for _, d := range directives {
		switch d.Name {
		case "token":
			// if a token-cmd is provided, don't use this value
			if directives.Get("token-cmd") != nil {
				continue
			}
			if err := d.ParseParams(&cfg.Token); err != nil {
				return err
			}
		case "token-cmd":
			var cmdName string
			if err := d.ParseParams(&cmdName); err != nil {
				return err
			}

			cmd := exec.Command(cmdName, d.Params[1:]...)
			var stdout []byte
			if stdout, err = cmd.Output(); err != nil {
				return fmt.Errorf("error running token command: %s", err)
			}

			tokenCmdOut := strings.Split(string(stdout), "\n")
			if len(tokenCmdOut) >= 1 {
				cfg.Token = tokenCmdOut[0]
			}
		case "backlog":
			if err := parseInt(d, &cfg.Backlog); err != nil {
				return err
			}
			if cfg.Backlog < 0 || cfg.Backlog > 100 {
				return fmt.Errorf("backlog must be between 0 and 100")
			}
		case "highlight-beep":
			if err := parseBool(d, &cfg.HighlightBeep); err != nil {
				return err
			}
		case "mouse":
			if err := parseBool(d, &cfg.Mouse); err != nil {
				return err
			}
		case "local-integrations":
			if err := parseBool(d, &cfg.LocalIntegrations); err != nil {
				return err
			}
		case "proxy-from-environment":
			if err := parseBool(d, &cfg.Proxy); err != nil {
				return err
			}
		case "debug":
			if err := parseBool(d, &cfg.Debug); err != nil {
				return err
			}
		case "log-file":
			if err := d.ParseParams(&cfg.LogFile); err != nil {
				return err
			}
		case "rename":
			var id, name string
			if err := d.ParseParams(&id, &name); err != nil {
				return err
			}
			if err := parseID(d, id); err != nil {
				return err
			}
			cfg.Renames[id] = name
		case "mute":
			for _, id := range d.Params {
				if err := parseID(d, id); err != nil {
					return err
				}
			}
			cfg.Mutes = append(cfg.Mutes, d.Params...)
		case "on-delete":
			var server, channel string
			if err := d.ParseParams(&server, &channel); err != nil {
				return err
			}
			if err := parseID(d, server); err != nil {
				return err
			}
			if err := parseID(d, channel); err != nil {
				return err
			}
			cfg.OnDelete[server] = channel
		case "pane-widths":
			for _, child := range d.Children {
				switch child.Name {
				case "nicknames":
					if err := parseInt(child, &cfg.NickColWidth); err != nil {
						return err
					}
				case "channels":
					if err := parseInt(child, &cfg.ChanColWidth); err != nil {
						return err
					}
				case "members":
					if err := parseInt(child, &cfg.MemberColWidth); err != nil {
						return err
					}
				default:
					return fmt.Errorf("unknown directive %q", child.Name)
				}
			}
		case "colors":
			for _, child := range d.Children {
				var colorStr string
				if err := child.ParseParams(&colorStr); err != nil {
					return err
				}

				switch child.Name {
				case "nicks":
					switch colorStr {
					case "base":
						cfg.Colors.Nicks.Type = ui.ColorSchemeBase
					case "extended":
						cfg.Colors.Nicks.Type = ui.ColorSchemeExtended
					default:
						return fmt.Errorf("unknown nick color scheme %q", colorStr)
					}
					continue
				}

				var color vaxis.Color
				if err = parseColor(colorStr, &color); err != nil {
					return err
				}
				switch child.Name {
				case "prompt":
					cfg.Colors.Prompt = color
				case "unread":
					cfg.Colors.Unread = color
				case "gray":
					cfg.Colors.Gray = color
				default:
					return fmt.Errorf("unknown directive %q", child.Name)
				}
			}
		case "shortcuts":
			for _, child := range d.Children {
				if len(child.Params) == 0 {
					return fmt.Errorf("shortcut %q: missing action", child.Name)
				}
				cfg.Shortcuts[child.Name] = child.Params
			}
		default:
			return fmt.Errorf("unknown directive %q", d.Name)
		}
	}

	return
}
