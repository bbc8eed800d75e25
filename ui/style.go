package ui

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"git.sr.ht/~rockorager/vaxis"
	"mvdan.cc/xurls/v2"
)

// mIRC color codes, see <https://modern.ircdocs.horse/formatting.html>.

var baseCodes = []vaxis.Color{
	vaxis.IndexColor(15),
	vaxis.IndexColor(0),
	vaxis.IndexColor(4),
	vaxis.IndexColor(2),
	vaxis.IndexColor(9),
	vaxis.IndexColor(1),
	vaxis.IndexColor(5),
	vaxis.IndexColor(3),
	vaxis.IndexColor(11),
	vaxis.IndexColor(10),
	vaxis.IndexColor(6),
	vaxis.IndexColor(14),
	vaxis.IndexColor(12),
	vaxis.IndexColor(13),
	vaxis.IndexColor(8),
	vaxis.IndexColor(7),
}

var hexCodes = []uint32{
	0x470000, 0x472100, 0x474700, 0x324700, 0x004700, 0x00472c, 0x004747, 0x002747, 0x000047, 0x2e0047, 0x470047, 0x47002a,
	0x740000, 0x743a00, 0x747400, 0x517400, 0x007400, 0x007449, 0x007474, 0x004074, 0x000074, 0x4b0074, 0x740074, 0x740045,
	0xb50000, 0xb56300, 0xb5b500, 0x7db500, 0x00b500, 0x00b571, 0x00b5b5, 0x0063b5, 0x0000b5, 0x7500b5, 0xb500b5, 0xb5006b,
	0xff0000, 0xff8c00, 0xffff00, 0xb2ff00, 0x00ff00, 0x00ffa0, 0x00ffff, 0x008cff, 0x0000ff, 0xa500ff, 0xff00ff, 0xff0098,
	0xff5959, 0xffb459, 0xffff71, 0xcfff60, 0x6fff6f, 0x65ffc9, 0x6dffff, 0x59b4ff, 0x5959ff, 0xc459ff, 0xff66ff, 0xff59bc,
	0xff9c9c, 0xffd39c, 0xffff9c, 0xe2ff9c, 0x9cff9c, 0x9cffdb, 0x9cffff, 0x9cd3ff, 0x9c9cff, 0xdc9cff, 0xff9cff, 0xff94d3,
	0x000000, 0x131313, 0x282828, 0x363636, 0x4d4d4d, 0x656565, 0x818181, 0x9f9f9f, 0xbcbcbc, 0xe2e2e2, 0xffffff,
}

func colorFromCode(code int) vaxis.Color {
	switch {
	case code < 0 || code >= 99:
		return ColorDefault
	case code < 16:
		return baseCodes[code]
	default:
		return vaxis.HexColor(hexCodes[code-16])
	}
}

type rangedStyle struct {
	Start int // byte index at which Style is effective
	Style vaxis.Style
}

// StyledString is a string with styles applied on byte ranges.
type StyledString struct {
	string
	styles []rangedStyle // sorted, elements cannot have the same Start value
}

func PlainString(s string) StyledString {
	return StyledString{string: s}
}

func PlainSprintf(format string, a ...interface{}) StyledString {
	return PlainString(fmt.Sprintf(format, a...))
}

func ColorString(s string, fg vaxis.Color) StyledString {
	return Styled(s, vaxis.Style{Foreground: fg})
}

func Styled(s string, style vaxis.Style) StyledString {
	return StyledString{
		string: s,
		styles: []rangedStyle{{Start: 0, Style: style}},
	}
}

func (s StyledString) String() string {
	return s.string
}

var urlRegex *regexp.Regexp

func init() {
	urlRegex, _ = xurls.StrictMatchingScheme(xurls.AnyScheme)
	urlRegex.Longest()
}

// styleAt returns the style in effect at byte index i.
func (s StyledString) styleAt(i int) vaxis.Style {
	var st vaxis.Style
	for _, rs := range s.styles {
		if rs.Start > i {
			break
		}
		st = rs.Style
	}
	return st
}

// ParseURLs turns the URLs of s into terminal hyperlinks.
func (s StyledString) ParseURLs() StyledString {
	if !strings.Contains(s.string, "://") {
		return s
	}
	urls := urlRegex.FindAllStringIndex(s.string, -1)
	if urls == nil {
		return s
	}

	var styles []rangedStyle
	add := func(start int, st vaxis.Style) {
		if n := len(styles); n > 0 && styles[n-1].Start == start {
			styles[n-1].Style = st
			return
		}
		styles = append(styles, rangedStyle{Start: start, Style: st})
	}
	j := 0
	for _, u := range urls {
		ub, ue := u[0], u[1]
		link := s.string[ub:ue]
		if pu, err := url.Parse(link); err != nil || pu.Scheme == "" {
			link = "https://" + link
		}
		for ; j < len(s.styles) && s.styles[j].Start < ub; j++ {
			add(s.styles[j].Start, s.styles[j].Style)
		}
		st := s.styleAt(ub)
		st.Hyperlink = link
		add(ub, st)
		for ; j < len(s.styles) && s.styles[j].Start < ue; j++ {
			st := s.styles[j].Style
			st.Hyperlink = link
			add(s.styles[j].Start, st)
		}
		if ue < len(s.string) {
			add(ue, s.styleAt(ue))
		}
	}
	for ; j < len(s.styles); j++ {
		add(s.styles[j].Start, s.styles[j].Style)
	}
	return StyledString{string: s.string, styles: styles}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// parseColorNumber parses one or two digits of a color code.
func parseColorNumber(raw string) (color vaxis.Color, n int) {
	for n < len(raw) && n < 2 && isDigit(raw[n]) {
		n++
	}
	if n == 0 {
		return ColorDefault, 0
	}
	code, _ := strconv.Atoi(raw[:n])
	return colorFromCode(code), n
}

// parseColor parses the "fg[,bg]" part of a color control sequence.
func parseColor(raw string) (fg, bg vaxis.Color, hasBg bool, n int) {
	fg, n = parseColorNumber(raw)
	if n == 0 || n >= len(raw) || raw[n] != ',' {
		return fg, ColorDefault, false, n
	}
	bg, m := parseColorNumber(raw[n+1:])
	if m == 0 {
		// lone comma, part of the text
		return fg, ColorDefault, false, n
	}
	return fg, bg, true, n + 1 + m
}

// IRCString parses mIRC formatting codes out of raw. Names and other
// printed text carry their colors this way.
func IRCString(raw string) StyledString {
	var sb StyledStringBuilder
	var current vaxis.Style
	setStyle := func(st vaxis.Style) {
		current = st
		sb.SetStyle(st)
	}
	for len(raw) > 0 {
		r, size := utf8.DecodeRuneInString(raw)
		raw = raw[size:]
		st := current
		switch r {
		case 0x0F:
			setStyle(vaxis.Style{})
		case 0x02:
			st.Attribute ^= vaxis.AttrBold
			setStyle(st)
		case 0x16:
			st.Attribute ^= vaxis.AttrReverse
			setStyle(st)
		case 0x1D:
			st.Attribute ^= vaxis.AttrItalic
			setStyle(st)
		case 0x1E:
			st.Attribute ^= vaxis.AttrStrikethrough
			setStyle(st)
		case 0x1F:
			if st.UnderlineStyle == vaxis.UnderlineOff {
				st.UnderlineStyle = vaxis.UnderlineSingle
			} else {
				st.UnderlineStyle = vaxis.UnderlineOff
			}
			setStyle(st)
		case 0x03:
			fg, bg, hasBg, n := parseColor(raw)
			raw = raw[n:]
			if n == 0 {
				st.Foreground = ColorDefault
				st.Background = ColorDefault
			} else {
				st.Foreground = fg
				if hasBg {
					st.Background = bg
				}
			}
			setStyle(st)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.StyledString()
}

type StyledStringBuilder struct {
	strings.Builder
	styles []rangedStyle
}

func (sb *StyledStringBuilder) Reset() {
	sb.Builder.Reset()
	sb.styles = sb.styles[:0]
}

func (sb *StyledStringBuilder) WriteStyledString(s StyledString) {
	for _, st := range s.styles {
		sb.addStyle(sb.Len()+st.Start, st.Style)
	}
	sb.WriteString(s.string)
}

func (sb *StyledStringBuilder) addStyle(start int, style vaxis.Style) {
	if n := len(sb.styles); n > 0 && sb.styles[n-1].Start == start {
		sb.styles[n-1].Style = style
		return
	}
	if n := len(sb.styles); n > 0 && sb.styles[n-1].Style == style {
		return
	}
	if len(sb.styles) == 0 && style == (vaxis.Style{}) {
		return
	}
	sb.styles = append(sb.styles, rangedStyle{Start: start, Style: style})
}

func (sb *StyledStringBuilder) SetStyle(style vaxis.Style) {
	sb.addStyle(sb.Len(), style)
}

func (sb *StyledStringBuilder) StyledString() StyledString {
	s := sb.String()
	styles := make([]rangedStyle, 0, len(sb.styles))
	for _, style := range sb.styles {
		if len(s) <= style.Start {
			break
		}
		styles = append(styles, style)
	}
	if len(styles) == 0 {
		styles = nil
	}
	return StyledString{
		string: s,
		styles: styles,
	}
}
