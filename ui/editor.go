package ui

import (
	"git.sr.ht/~rockorager/vaxis"
	"github.com/rivo/uniseg"
)

type Completion struct {
	StartIdx  int
	EndIdx    int
	Text      []rune
	Display   []rune
	CursorIdx int // in runes
}

// Editor is the text field where the user writes messages and commands.
type Editor struct {
	ui *UI

	// text is the line being edited.
	text []rune
	// cursor is a rune offset in text.
	cursor int
	// offset is the number of runes skipped when rendering.
	offset int
	width  int

	// history holds previously sent lines; historyIdx == len(history) when
	// editing a new line.
	history    []string
	historyIdx int
	draft      []rune

	autoCache    []Completion
	autoCacheIdx int
}

// NewEditor returns a new Editor.
// Call Resize() once before using it.
func NewEditor(ui *UI) Editor {
	return Editor{ui: ui}
}

func (e *Editor) vx() *Vaxis {
	if e.ui == nil {
		return nil
	}
	return e.ui.vx
}

func (e *Editor) Resize(width int) {
	e.width = width
	e.fixOffset()
}

// Content result must not be modified.
func (e *Editor) Content() []rune {
	return e.text
}

func (e *Editor) Empty() bool {
	return len(e.text) == 0
}

func (e *Editor) textWidth(from, to int) int {
	return stringWidth(e.vx(), string(e.text[from:to]))
}

func (e *Editor) fixOffset() {
	if e.cursor < e.offset {
		e.offset = e.cursor
	}
	for e.offset < e.cursor && e.width > 0 && e.textWidth(e.offset, e.cursor) >= e.width {
		e.offset++
	}
}

func (e *Editor) edited() {
	e.autoCache = nil
	e.fixOffset()
}

func (e *Editor) PutRune(r rune) {
	e.text = append(e.text, 0)
	copy(e.text[e.cursor+1:], e.text[e.cursor:])
	e.text[e.cursor] = r
	e.cursor++
	e.edited()
}

// clusterBefore returns the rune length of the grapheme cluster ending at
// the cursor.
func (e *Editor) clusterBefore() int {
	n := 0
	g := uniseg.NewGraphemes(string(e.text[:e.cursor]))
	for g.Next() {
		n = len(g.Runes())
	}
	return n
}

func (e *Editor) clusterAfter() int {
	g := uniseg.NewGraphemes(string(e.text[e.cursor:]))
	if g.Next() {
		return len(g.Runes())
	}
	return 0
}

func (e *Editor) RemCluster() (ok bool) {
	n := e.clusterBefore()
	if n == 0 {
		return false
	}
	e.text = append(e.text[:e.cursor-n], e.text[e.cursor:]...)
	e.cursor -= n
	e.edited()
	return true
}

func (e *Editor) RemClusterForward() (ok bool) {
	n := e.clusterAfter()
	if n == 0 {
		return false
	}
	e.text = append(e.text[:e.cursor], e.text[e.cursor+n:]...)
	e.edited()
	return true
}

// RemWord removes the word before the cursor, and the spaces after it.
func (e *Editor) RemWord() (ok bool) {
	i := e.cursor
	for i > 0 && e.text[i-1] == ' ' {
		i--
	}
	for i > 0 && e.text[i-1] != ' ' {
		i--
	}
	if i == e.cursor {
		return false
	}
	e.text = append(e.text[:i], e.text[e.cursor:]...)
	e.cursor = i
	e.edited()
	return true
}

// Flush clears the editor and returns its content, which is added to the
// history.
func (e *Editor) Flush() string {
	content := string(e.text)
	if content != "" && (len(e.history) == 0 || e.history[len(e.history)-1] != content) {
		e.history = append(e.history, content)
	}
	e.historyIdx = len(e.history)
	e.draft = nil
	e.text = nil
	e.cursor = 0
	e.offset = 0
	e.autoCache = nil
	return content
}

func (e *Editor) Clear() bool {
	if len(e.text) == 0 {
		return false
	}
	e.text = nil
	e.cursor = 0
	e.edited()
	return true
}

func (e *Editor) Set(text string) {
	e.text = []rune(text)
	e.cursor = len(e.text)
	e.edited()
}

// Enter validates the selected completion. It returns true if the event
// was eaten.
func (e *Editor) Enter() bool {
	if e.autoCache == nil {
		return false
	}
	e.applyCompletion()
	return true
}

func (e *Editor) Right() {
	e.cursor += e.clusterAfter()
	e.edited()
}

func (e *Editor) Left() {
	e.cursor -= e.clusterBefore()
	e.edited()
}

func (e *Editor) RightWord() {
	for e.cursor < len(e.text) && e.text[e.cursor] == ' ' {
		e.cursor++
	}
	for e.cursor < len(e.text) && e.text[e.cursor] != ' ' {
		e.cursor++
	}
	e.edited()
}

func (e *Editor) LeftWord() {
	for e.cursor > 0 && e.text[e.cursor-1] == ' ' {
		e.cursor--
	}
	for e.cursor > 0 && e.text[e.cursor-1] != ' ' {
		e.cursor--
	}
	e.edited()
}

func (e *Editor) Home() {
	e.cursor = 0
	e.edited()
}

func (e *Editor) End() {
	e.cursor = len(e.text)
	e.edited()
}

func (e *Editor) Up() {
	if e.autoCache != nil {
		e.autoCacheIdx = (e.autoCacheIdx + len(e.autoCache) - 1) % len(e.autoCache)
		return
	}
	if e.historyIdx == 0 {
		return
	}
	if e.historyIdx == len(e.history) {
		e.draft = e.text
	}
	e.historyIdx--
	e.Set(e.history[e.historyIdx])
}

func (e *Editor) Down() {
	if e.autoCache != nil {
		e.autoCacheIdx = (e.autoCacheIdx + 1) % len(e.autoCache)
		return
	}
	if e.historyIdx >= len(e.history) {
		return
	}
	e.historyIdx++
	if e.historyIdx == len(e.history) {
		e.Set(string(e.draft))
		e.draft = nil
		return
	}
	e.Set(e.history[e.historyIdx])
}

// AutoComplete applies the only completion at the cursor, or opens the
// completion list when there are several. Further calls cycle through it.
func (e *Editor) AutoComplete() (ok bool) {
	if e.autoCache != nil {
		e.autoCacheIdx = (e.autoCacheIdx + 1) % len(e.autoCache)
		return true
	}
	if e.ui == nil || e.ui.config.AutoComplete == nil {
		return false
	}
	cs := e.ui.config.AutoComplete(e.cursor, e.text)
	if len(cs) == 0 {
		return false
	}
	e.autoCache = cs
	e.autoCacheIdx = 0
	if len(cs) == 1 {
		e.applyCompletion()
	}
	return true
}

func (e *Editor) applyCompletion() {
	c := e.autoCache[e.autoCacheIdx]
	e.text = append([]rune(nil), c.Text...)
	e.cursor = c.CursorIdx
	if e.cursor > len(e.text) {
		e.cursor = len(e.text)
	}
	e.edited()
}

func (e *Editor) Draw(vx *Vaxis, x0, y int, hint string) {
	var st vaxis.Style
	x := x0
	text := e.text[e.offset:]
	if len(e.text) == 0 && hint != "" {
		text = []rune(hint)
		st.Foreground = e.ui.config.Colors.Gray
	}
	for i := 0; i < len(text); {
		g := uniseg.NewGraphemes(string(text[i:]))
		if !g.Next() {
			break
		}
		c := g.Str()
		if x+stringWidth(vx, c) > x0+e.width {
			break
		}
		x += printCluster(vx, x, y, c, st)
		i += len(g.Runes())
	}
	for ; x < x0+e.width; x++ {
		setCell(vx, x, y, ' ', st)
	}

	if e.autoCache != nil {
		n := len(e.autoCache)
		if n > 10 {
			n = 10
		}
		if n > y {
			n = y
		}
		first := e.autoCacheIdx - n/2
		if first < 0 {
			first = 0
		} else if first > len(e.autoCache)-n {
			first = len(e.autoCache) - n
		}
		autoX := x0
		if start := e.autoCache[e.autoCacheIdx].StartIdx; start > e.offset {
			autoX += e.textWidth(e.offset, start)
		}
		for i, c := range e.autoCache[first : first+n] {
			display := c.Display
			if display == nil {
				display = c.Text[c.StartIdx:c.CursorIdx]
			}
			cst := vaxis.Style{Attribute: vaxis.AttrReverse | vaxis.AttrDim}
			if first+i == e.autoCacheIdx {
				cst.Attribute = vaxis.AttrReverse | vaxis.AttrBold
			}
			xc := autoX
			printStringLimit(vx, &xc, y-i-1, x0+e.width, Styled(string(display), cst))
		}
	}

	cursorX := x0 + e.textWidth(e.offset, e.cursor)
	vx.ShowCursor(cursorX, y, vaxis.CursorBeam)
}
