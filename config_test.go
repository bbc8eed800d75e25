package weecord

import (
	"os"
	"path/filepath"
	"testing"

	"git.sr.ht/~delthas/weecord/ui"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weecord.scfg")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfigFile(filepath.Join(dir, "weecord.scfg"))
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Backlog != DefaultBacklog || !cfg.Mouse {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if want := filepath.Join(dir, "options.scfg"); cfg.OptionsPath != want {
		t.Errorf("expected options at %q, got %q", want, cfg.OptionsPath)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
token "abc"
backlog 10
mouse false
highlight-beep true
log-file /tmp/weecord.log
rename 42 Bobby
mute 7 8
on-delete 100 12
pane-widths {
	nicknames 10
	members 20
}
colors {
	nicks extended
	prompt 3
	unread #ff0000
}
shortcuts {
	Control+r buffer-next
}
`)
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Token != "abc" || cfg.Backlog != 10 || cfg.Mouse || !cfg.HighlightBeep {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.LogFile != "/tmp/weecord.log" {
		t.Errorf("unexpected log file %q", cfg.LogFile)
	}
	if cfg.NickColWidth != 10 || cfg.MemberColWidth != 20 || cfg.ChanColWidth != 16 {
		t.Errorf("unexpected widths %d %d %d", cfg.NickColWidth, cfg.ChanColWidth, cfg.MemberColWidth)
	}
	if cfg.Colors.Nicks.Type != ui.ColorSchemeExtended {
		t.Errorf("expected the extended nick scheme")
	}
	if len(cfg.Shortcuts["Control+r"]) != 1 {
		t.Errorf("expected a shortcut, got %v", cfg.Shortcuts)
	}

	defaults := cfg.OptionDefaults()
	want := map[string]string{
		"token":         "abc",
		"rename.42":     "Bobby",
		"mute.7":        "true",
		"mute.8":        "true",
		"on_delete.100": "12",
	}
	for k, v := range want {
		if defaults[k] != v {
			t.Errorf("option %q: expected %q, got %q", k, v, defaults[k])
		}
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []string{
		"unknown-directive 1\n",
		"backlog 101\n",
		"backlog many\n",
		"mouse maybe\n",
		"rename bob Bobby\n",
		"colors {\n\tprompt 300\n}\n",
		"colors {\n\tnicks rainbow\n}\n",
		"pane-widths {\n\tsidebar 3\n}\n",
	}
	for _, content := range tests {
		if _, err := LoadConfigFile(writeConfig(t, content)); err == nil {
			t.Errorf("%q: expected an error", content)
		}
	}
}
