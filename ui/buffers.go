package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"github.com/rivo/uniseg"
)

// Home is the name of the buffer that holds status lines.
const Home = "home"

// maxLines bounds the history kept per buffer.
const maxLines = 8192

type NotifyType int

const (
	NotifyNone NotifyType = iota
	NotifyUnread
	NotifyHighlight
)

// Line is one entry of a buffer timeline. Prefix and Message keep the text
// as it was printed, formatting codes included; Head and Body are their
// parsed forms.
type Line struct {
	At        time.Time
	Head      StyledString
	Body      StyledString
	Prefix    string
	Message   string
	Tags      []string
	Notify    NotifyType
	Highlight bool

	width    int
	newLines []int
}

// NewLine builds a line from raw text carrying mIRC formatting codes, and
// derives its notification level from tags.
func NewLine(at time.Time, tags []string, prefix, message string) Line {
	notify, highlight := LineFromTags(tags)
	return Line{
		At:        at,
		Head:      IRCString(prefix),
		Body:      IRCString(message),
		Prefix:    prefix,
		Message:   message,
		Tags:      tags,
		Notify:    notify,
		Highlight: highlight,
	}
}

// LineFromTags maps notification tags to a notification level.
func LineFromTags(tags []string) (notify NotifyType, highlight bool) {
	noHighlight := false
	for _, tag := range tags {
		switch tag {
		case "notify_none":
			notify = NotifyNone
		case "notify_message":
			notify = NotifyUnread
		case "notify_private", "notify_highlight":
			notify = NotifyHighlight
			highlight = true
		case "no_highlight":
			noHighlight = true
		}
	}
	if noHighlight {
		highlight = false
		if notify == NotifyHighlight {
			notify = NotifyUnread
		}
	}
	return notify, highlight
}

// HasTag reports whether the line was printed with the given tag.
func (l *Line) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NewLines returns the byte indexes of Body at which rows must be broken
// to fit in width cells. Rows break after the last space that fits, or in
// the middle of a word longer than a row.
func (l *Line) NewLines(vx *Vaxis, width int) []int {
	if l.width == width && l.newLines != nil {
		return l.newLines
	}
	l.width = width
	l.newLines = l.newLines[:0]
	if l.newLines == nil {
		l.newLines = []int{}
	}

	x := 0
	lastSplit := -1
	afterSplit := 0
	i := 0
	g := uniseg.NewGraphemes(l.Body.string)
	for g.Next() {
		c := g.Str()
		if c == "\n" {
			i += len(c)
			l.newLines = append(l.newLines, i)
			x, lastSplit, afterSplit = 0, -1, 0
			continue
		}
		cw := stringWidth(vx, c)
		if x > 0 && x+cw > width && (c == " " || c == "\t") {
			// spaces overflowing a row are not carried over
			i += len(c)
			l.newLines = append(l.newLines, i)
			x, lastSplit, afterSplit = 0, -1, 0
			continue
		}
		if x > 0 && x+cw > width {
			if lastSplit > 0 {
				l.newLines = append(l.newLines, lastSplit)
				x = afterSplit
			} else {
				l.newLines = append(l.newLines, i)
				x = 0
			}
			if x > 0 && x+cw > width {
				l.newLines = append(l.newLines, i)
				x = 0
			}
			lastSplit, afterSplit = -1, 0
		}
		x += cw
		afterSplit += cw
		i += len(c)
		if c == " " || c == "\t" {
			lastSplit = i
			afterSplit = 0
		}
	}
	if n := len(l.newLines); n > 0 && l.newLines[n-1] == len(l.Body.string) {
		l.newLines = l.newLines[:n-1]
	}
	return l.newLines
}

// Buffer is an addressable timeline with a nick list and string properties.
type Buffer struct {
	address string
	name    string
	props   map[string]string

	lines []Line
	nicks []string

	highlights int
	unread     bool
	openedOnce bool

	scrollAmt int
	isAtTop   bool

	input func(text string)
	close func()
}

func (b *Buffer) Address() string {
	return b.address
}

func (b *Buffer) Name() string {
	return b.name
}

// Topic is the text shown above the timeline.
func (b *Buffer) Topic() string {
	return b.props["title"]
}

func (b *Buffer) SetProperty(key, value string) {
	if b.props == nil {
		b.props = make(map[string]string)
	}
	b.props[key] = value
	if key == "short_name" && value != "" {
		b.name = value
	}
}

func (b *Buffer) Property(key string) string {
	return b.props[key]
}

// ShowNicklist reports whether the member column is drawn for this buffer.
func (b *Buffer) ShowNicklist() bool {
	return b.props["nicklist"] == "1"
}

// AddNick inserts nick in the sorted nick list, ignoring duplicates.
func (b *Buffer) AddNick(nick string) {
	i := sort.Search(len(b.nicks), func(i int) bool {
		return nickLess(nick, b.nicks[i]) || nick == b.nicks[i]
	})
	if i < len(b.nicks) && b.nicks[i] == nick {
		return
	}
	b.nicks = append(b.nicks, "")
	copy(b.nicks[i+1:], b.nicks[i:])
	b.nicks[i] = nick
}

func (b *Buffer) RemoveNick(nick string) {
	for i, n := range b.nicks {
		if n == nick {
			b.nicks = append(b.nicks[:i], b.nicks[i+1:]...)
			return
		}
	}
}

// Nicks returns the sorted nick list. It must not be modified.
func (b *Buffer) Nicks() []string {
	return b.nicks
}

func nickLess(a, b string) bool {
	la := strings.ToLower(StripCodes(a))
	lb := strings.ToLower(StripCodes(b))
	if la != lb {
		return la < lb
	}
	return a < b
}

// History returns at most limit lines, newest first.
func (b *Buffer) History(limit int) []Line {
	n := len(b.lines)
	if limit > n {
		limit = n
	}
	lines := make([]Line, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		lines = append(lines, b.lines[i])
	}
	return lines
}

// Input hands text typed in the buffer to its input callback. It returns
// false when the buffer takes no input.
func (b *Buffer) Input(text string) bool {
	if b.input == nil {
		return false
	}
	b.input(text)
	return true
}

func (b *Buffer) addLine(line Line) {
	b.lines = append(b.lines, line)
	if len(b.lines) > maxLines {
		b.lines = append(b.lines[:0], b.lines[len(b.lines)-maxLines:]...)
	}
	if b.scrollAmt != 0 {
		b.scrollAmt += len(line.newLines) + 1
	}
}

// StripCodes removes mIRC formatting codes from s.
func StripCodes(s string) string {
	if !strings.ContainsAny(s, "\x02\x03\x0F\x16\x1D\x1E\x1F") {
		return s
	}
	return IRCString(s).String()
}

type BufferList struct {
	colors ConfigColors

	list     []*Buffer
	current  int
	clicked  int
	retained map[string][]Line

	tlInnerWidth int
	tlHeight     int
}

// NewBufferList returns a list holding the home buffer.
// Call ResizeTimeline once before drawing it.
func NewBufferList(colors ConfigColors) BufferList {
	return BufferList{
		colors:   colors,
		list:     []*Buffer{{name: Home}},
		clicked:  -1,
		retained: make(map[string][]Line),
	}
}

func (bs *BufferList) ResizeTimeline(tlInnerWidth, tlHeight int) {
	bs.tlInnerWidth = tlInnerWidth
	bs.tlHeight = tlHeight - 2
}

// Add returns the buffer at address, creating it when missing.
func (bs *BufferList) Add(address, name string) (b *Buffer, added bool) {
	if b := bs.At(address); b != nil {
		return b, false
	}
	b = &Buffer{address: address, name: name}
	bs.list = append(bs.list, b)
	return b, true
}

func (bs *BufferList) At(address string) *Buffer {
	for _, b := range bs.list[1:] {
		if b.address == address {
			return b
		}
	}
	return nil
}

// Remove drops the buffer at address. Its lines are retained and handed
// back by LoadBacklog if a buffer with the same address is added again.
func (bs *BufferList) Remove(address string) bool {
	for i, b := range bs.list {
		if i == 0 || b.address != address {
			continue
		}
		if len(b.lines) > 0 {
			bs.retained[address] = b.lines
		}
		bs.list = append(bs.list[:i], bs.list[i+1:]...)
		if bs.current >= i {
			bs.current--
		}
		if bs.clicked >= len(bs.list) {
			bs.clicked = -1
		}
		return true
	}
	return false
}

// LoadBacklog prepends the retained lines of b, if any, and returns how
// many were loaded.
func (bs *BufferList) LoadBacklog(b *Buffer) int {
	lines := bs.retained[b.address]
	if len(lines) == 0 {
		return 0
	}
	delete(bs.retained, b.address)
	b.lines = append(lines, b.lines...)
	return len(lines)
}

// AddLine appends line to b and updates its unread state. It returns true
// when the line should be notified to the user.
func (bs *BufferList) AddLine(b *Buffer, line Line, focused bool) (notify bool) {
	b.addLine(line)
	if b == bs.Current() {
		return !focused && line.Notify != NotifyNone
	}
	if line.Notify != NotifyNone {
		b.unread = true
	}
	if line.Highlight {
		b.highlights++
	}
	return line.Notify != NotifyNone
}

func (bs *BufferList) Home() *Buffer {
	return bs.list[0]
}

func (bs *BufferList) Current() *Buffer {
	return bs.list[bs.current]
}

func (bs *BufferList) Index(b *Buffer) int {
	for i, o := range bs.list {
		if o == b {
			return i
		}
	}
	return -1
}

func (bs *BufferList) Len() int {
	return len(bs.list)
}

func (bs *BufferList) To(i int) bool {
	if i < 0 || i >= len(bs.list) || i == bs.current {
		return false
	}
	bs.current = i
	b := bs.list[i]
	b.highlights = 0
	b.unread = false
	return true
}

func (bs *BufferList) Next() {
	bs.To((bs.current + 1) % len(bs.list))
}

func (bs *BufferList) Previous() {
	bs.To((bs.current - 1 + len(bs.list)) % len(bs.list))
}

func (bs *BufferList) NextUnread() {
	for i := 1; i < len(bs.list); i++ {
		c := (bs.current + i) % len(bs.list)
		if bs.list[c].unread {
			bs.To(c)
			return
		}
	}
}

func (bs *BufferList) ScrollUp(n int) {
	b := bs.Current()
	if b.isAtTop {
		return
	}
	b.scrollAmt += n
}

func (bs *BufferList) ScrollDown(n int) {
	b := bs.Current()
	b.scrollAmt -= n
	if b.scrollAmt < 0 {
		b.scrollAmt = 0
	}
}

// Highlights returns the number of highlights in all buffers.
func (bs *BufferList) Highlights() int {
	n := 0
	for _, b := range bs.list {
		n += b.highlights
	}
	return n
}

func (bs *BufferList) DrawVerticalBufferList(vx *Vaxis, x0, y0, width, height int, offset *int) {
	if len(bs.list)-*offset < height {
		*offset = len(bs.list) - height
		if *offset < 0 {
			*offset = 0
		}
	}

	width--
	for y := y0; y < y0+height; y++ {
		setCell(vx, x0+width, y, '│', vaxis.Style{})
	}
	clearArea(vx, x0, y0, width, height)

	for i, b := range bs.list[*offset:] {
		if i >= height {
			break
		}
		bi := *offset + i
		x := x0
		y := y0 + i
		var st vaxis.Style
		if b.unread {
			st.Attribute |= vaxis.AttrBold
			st.Foreground = bs.colors.Unread
		}
		selected := bi == bs.current || bi == bs.clicked
		if selected {
			st.Attribute |= vaxis.AttrReverse
		}
		if bi > 0 && b.Property("localvar_type") != "server" {
			x += 2
		}
		title := truncate(vx, b.name, width-(x-x0), "…")
		printString(vx, &x, y, Styled(title, st))

		if selected {
			rev := vaxis.Style{Attribute: vaxis.AttrReverse}
			for xx := x0; xx < x0+width; xx++ {
				if xx < x0+2 || xx >= x {
					setCell(vx, xx, y, ' ', rev)
				}
			}
		}

		if b.highlights != 0 {
			hlSt := vaxis.Style{Foreground: ColorRed, Attribute: vaxis.AttrReverse}
			text := fmt.Sprintf(" %d ", b.highlights)
			x = x0 + width - len(text)
			printString(vx, &x, y, Styled(text, hlSt))
		}
	}
}

// VerticalBufferOffset returns the index of the buffer drawn at row y of
// the vertical list, or -1.
func (bs *BufferList) VerticalBufferOffset(y int, offset int) int {
	i := y + offset
	if i < 0 || i >= len(bs.list) {
		return -1
	}
	return i
}

func withAttribute(s StyledString, attr vaxis.AttributeMask) StyledString {
	styles := make([]rangedStyle, 0, len(s.styles)+1)
	if len(s.styles) == 0 || s.styles[0].Start != 0 {
		styles = append(styles, rangedStyle{Start: 0, Style: vaxis.Style{Attribute: attr}})
	}
	for _, rs := range s.styles {
		rs.Style.Attribute |= attr
		styles = append(styles, rs)
	}
	return StyledString{string: s.string, styles: styles}
}

func (bs *BufferList) DrawTimeline(vx *Vaxis, x0, y0, nickColWidth int) {
	clearArea(vx, x0, y0, bs.tlInnerWidth+nickColWidth+9, bs.tlHeight+2)

	b := bs.Current()
	if !b.openedOnce {
		b.openedOnce = true
		for i := range b.lines {
			b.lines[i].Body = b.lines[i].Body.ParseURLs()
		}
	}

	xTopic := x0
	printStringLimit(vx, &xTopic, y0, x0+bs.tlInnerWidth+nickColWidth+9, IRCString(b.Topic()))
	y0++
	grayLine := vaxis.Style{Foreground: bs.colors.Gray}
	for x := x0; x < x0+bs.tlInnerWidth+nickColWidth+9; x++ {
		setCell(vx, x, y0, '─', grayLine)
	}
	y0++

	x1 := x0 + 9 + nickColWidth
	yi := b.scrollAmt + y0 + bs.tlHeight
	for i := len(b.lines) - 1; 0 <= i; i-- {
		if yi < y0 {
			break
		}
		line := &b.lines[i]
		nls := line.NewLines(vx, bs.tlInnerWidth)
		yi -= len(nls) + 1
		if y0+bs.tlHeight <= yi {
			continue
		}

		var showDate bool
		if i == 0 || yi <= y0 {
			showDate = true
		} else {
			yb, mb, db := b.lines[i-1].At.Local().Date()
			ya, ma, da := line.At.Local().Date()
			showDate = yb != ya || mb != ma || db != da
		}
		if showDate {
			yd := yi
			if yd < y0 {
				yd = y0
			}
			printDate(vx, x0, yd, vaxis.Style{Attribute: vaxis.AttrBold}, line.At.Local())
		} else if b.lines[i-1].At.Truncate(time.Minute) != line.At.Truncate(time.Minute) && yi >= y0 {
			printTime(vx, x0, yi, grayLine, line.At.Local())
		}

		if yi >= y0 {
			head := line.Head
			if line.Highlight {
				head = withAttribute(head, vaxis.AttrReverse)
			}
			printIdent(vx, x0+7, yi, nickColWidth, head)
		}

		x := x1
		y := yi
		var st vaxis.Style
		styles := line.Body.styles
		bi := 0
		g := uniseg.NewGraphemes(line.Body.string)
		for g.Next() {
			c := g.Str()
			for len(styles) > 0 && styles[0].Start <= bi {
				st = styles[0].Style
				styles = styles[1:]
			}
			if len(nls) > 0 && bi == nls[0] {
				x = x1
				y++
				nls = nls[1:]
				if y0+bs.tlHeight <= y {
					break
				}
			}
			bi += len(c)
			if c == "\n" || x >= x1+bs.tlInnerWidth {
				continue
			}
			if y >= y0 {
				x += printCluster(vx, x, y, c, st)
			} else {
				x += stringWidth(vx, c)
			}
		}
	}

	b.isAtTop = y0 <= yi
}
