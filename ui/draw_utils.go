package ui

import (
	"strings"
	"sync"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"github.com/delthas/go-localeinfo"
	"github.com/rivo/uniseg"
)

var widthCache = make(map[string]int)

// stringWidth returns the width of s in cells. A nil vx measures one cell
// per byte, for tests.
func stringWidth(vx *Vaxis, s string) int {
	if vx == nil {
		return len(s)
	}
	if len(s) == 1 {
		switch c := s[0]; {
		case c == '\n':
			return 1
		case c <= 0x1F:
			return 0
		case c <= 0x7F:
			return 1
		}
	}
	if n, ok := widthCache[s]; ok {
		return n
	}
	n := vx.RenderedWidth(s)
	widthCache[s] = n
	return n
}

func truncate(vx *Vaxis, s string, w int, tail string) string {
	if stringWidth(vx, s) <= w {
		return s
	}
	w -= stringWidth(vx, tail)

	width := 0
	var sb strings.Builder
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		c := g.Str()
		cw := stringWidth(vx, c)
		if width+cw > w {
			break
		}
		width += cw
		sb.WriteString(c)
	}
	sb.WriteString(tail)
	return sb.String()
}

func setCell(vx *Vaxis, x int, y int, r rune, st vaxis.Style) {
	vx.window.SetCell(x, y, vaxis.Cell{
		Character: vaxis.Character{
			Grapheme: string(r),
			Width:    1,
		},
		Style: st,
	})
}

// printCluster draws the grapheme cluster c and returns its width.
func printCluster(vx *Vaxis, x, y int, c string, st vaxis.Style) int {
	if c == "\t" || c == "\n" {
		c = " "
	}
	w := stringWidth(vx, c)
	vx.window.SetCell(x, y, vaxis.Cell{
		Character: vaxis.Character{
			Grapheme: c,
			Width:    w,
		},
		Style: st,
	})
	return w
}

// printString draws s starting at (*x, y), stopping at limit when limit is
// non-negative.
func printString(vx *Vaxis, x *int, y int, s StyledString) {
	printStringLimit(vx, x, y, -1, s)
}

func printStringLimit(vx *Vaxis, x *int, y int, limit int, s StyledString) {
	var st vaxis.Style
	styles := s.styles
	i := 0
	g := uniseg.NewGraphemes(s.string)
	for g.Next() {
		for len(styles) > 0 && styles[0].Start <= i {
			st = styles[0].Style
			styles = styles[1:]
		}
		c := g.Str()
		i += len(c)
		if limit >= 0 && *x+stringWidth(vx, c) > limit {
			return
		}
		*x += printCluster(vx, *x, y, c, st)
	}
}

// printIdent right-aligns s in a column of the given width ending at x+width.
func printIdent(vx *Vaxis, x, y, width int, s StyledString) {
	s.string = truncate(vx, s.string, width, "…")
	x += width - stringWidth(vx, s.string)
	printString(vx, &x, y, s)
}

var dateOnce sync.Once
var dateMonthFirst bool

// loadDateInfo reads from the user locale whether dates are printed as
// mm/dd rather than dd/mm.
func loadDateInfo() {
	l, err := localeinfo.NewLocale("")
	if err != nil {
		return
	}
	format := l.DateFormat()
	index := func(specs ...string) int {
		for _, s := range specs {
			if i := strings.Index(format, s); i >= 0 {
				return i
			}
		}
		return -1
	}
	day := index("%d", "%e")
	month := index("%m", "%b", "%B")
	if day >= 0 && month >= 0 && month < day {
		dateMonthFirst = true
	}
}

func twoDigits(vx *Vaxis, x, y, n int, sep rune, m int, st vaxis.Style) {
	setCell(vx, x+0, y, rune(n/10)+'0', st)
	setCell(vx, x+1, y, rune(n%10)+'0', st)
	setCell(vx, x+2, y, sep, st)
	setCell(vx, x+3, y, rune(m/10)+'0', st)
	setCell(vx, x+4, y, rune(m%10)+'0', st)
}

func printDate(vx *Vaxis, x int, y int, st vaxis.Style, t time.Time) {
	dateOnce.Do(loadDateInfo)
	_, m, d := t.Date()
	if dateMonthFirst {
		twoDigits(vx, x, y, int(m), '/', d, st)
	} else {
		twoDigits(vx, x, y, d, '/', int(m), st)
	}
}

func printTime(vx *Vaxis, x int, y int, st vaxis.Style, t time.Time) {
	twoDigits(vx, x, y, t.Hour(), ':', t.Minute(), st)
}

func clearArea(vx *Vaxis, x0, y0, width, height int) {
	vx.window.New(x0, y0, width, height).Clear()
}
