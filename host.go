package weecord

import (
	"time"

	"git.sr.ht/~delthas/weecord/ui"
)

// HistoryLine is a line previously printed to a surface.
type HistoryLine struct {
	Tags    []string
	Prefix  string
	Message string
}

// HasTag reports whether the line was printed with the given tag.
func (l HistoryLine) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Surface is an addressable output buffer of the host.
type Surface interface {
	Address() string
	SetProperty(key, value string)
	Property(key string) string
	// Print appends a line. prefix and message may carry mIRC formatting
	// codes.
	Print(tags []string, prefix, message string)
	AddNick(nick string)
	RemoveNick(nick string)
	// History returns at most limit lines, newest first.
	History(limit int) []HistoryLine
	// LoadBacklog restores the lines the host retained from a previous
	// surface at the same address, and returns how many were loaded.
	LoadBacklog() int
}

// Host is the UI the bridge renders into.
type Host interface {
	// NewSurface returns the surface at address, creating it when missing.
	// created reports whether it was just created.
	NewSurface(address, name string, input func(string), close func()) (s Surface, created bool)
	// SearchSurface returns the surface at address, or nil.
	SearchSurface(address string) Surface
	MainSurface() Surface
	// NickColor returns the two-digit mIRC color code of a name.
	NickColor(name string) string
}

type uiHost struct {
	win *ui.UI
}

func (h uiHost) NewSurface(address, name string, input func(string), close func()) (Surface, bool) {
	b, added := h.win.AddBuffer(address, name, input, close)
	return uiSurface{win: h.win, b: b}, added
}

func (h uiHost) SearchSurface(address string) Surface {
	b := h.win.Buffer(address)
	if b == nil {
		return nil
	}
	return uiSurface{win: h.win, b: b}
}

func (h uiHost) MainSurface() Surface {
	return uiSurface{win: h.win, b: h.win.Home()}
}

func (h uiHost) NickColor(name string) string {
	return ui.IdentCode(h.win.Colors().Nicks, name)
}

type uiSurface struct {
	win *ui.UI
	b   *ui.Buffer
}

func (s uiSurface) Address() string {
	return s.b.Address()
}

func (s uiSurface) SetProperty(key, value string) {
	s.b.SetProperty(key, value)
}

func (s uiSurface) Property(key string) string {
	return s.b.Property(key)
}

func (s uiSurface) Print(tags []string, prefix, message string) {
	s.win.AddLine(s.b, ui.NewLine(time.Now(), tags, prefix, message))
}

func (s uiSurface) AddNick(nick string) {
	s.b.AddNick(nick)
}

func (s uiSurface) RemoveNick(nick string) {
	s.b.RemoveNick(nick)
}

func (s uiSurface) History(limit int) []HistoryLine {
	lines := s.b.History(limit)
	r := make([]HistoryLine, 0, len(lines))
	for _, l := range lines {
		r = append(r, HistoryLine{
			Tags:    l.Tags,
			Prefix:  l.Prefix,
			Message: l.Message,
		})
	}
	return r
}

func (s uiSurface) LoadBacklog() int {
	return s.win.LoadBacklog(s.b)
}
