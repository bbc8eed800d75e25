package ui

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"sync/atomic"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/widgets/align"
	"github.com/disintegration/imaging"

	"git.sr.ht/~delthas/weecord/events"
)

type Config struct {
	NickColWidth      int
	ChanColWidth      int
	MemberColWidth    int
	AutoComplete      func(cursorIdx int, text []rune) []Completion
	Mouse             bool
	HighlightBeep     bool
	LocalIntegrations bool
	Colors            ConfigColors
}

type ConfigColors struct {
	Gray   vaxis.Color
	Prompt vaxis.Color
	Unread vaxis.Color
	Nicks  ColorScheme
}

type Vaxis struct {
	*vaxis.Vaxis
	window vaxis.Window
	xPixel int
	yPixel int
}

// NotifyEvent is sent when a desktop notification is clicked.
type NotifyEvent struct {
	Buffer string
}

type UI struct {
	vx     *Vaxis
	Events chan any
	exit   atomic.Bool
	config Config

	bs      BufferList
	e       Editor
	prompt  StyledString
	status  string
	title   string
	focused bool

	channelOffset int
	memberOffset  int
	memberWidth   int

	image vaxis.Image
}

func New(config Config) (ui *UI, err error) {
	ui = &UI{
		config:  config,
		focused: true,
	}
	if ui.config.Colors.Gray == ColorDefault {
		ui.config.Colors.Gray = ColorGray
	}

	vx, err := vaxis.New(vaxis.Options{
		DisableMouse: !config.Mouse,
		CSIuBitMask:  vaxis.CSIuDisambiguate | vaxis.CSIuReportEvents | vaxis.CSIuAlternateKeys,
	})
	if err != nil {
		return nil, err
	}
	ui.vx = &Vaxis{
		Vaxis:  vx,
		window: vx.Window(),
	}
	ui.vx.SetTitle("weecord")
	ui.vx.SetAppID("weecord")

	_, h := ui.vx.window.Size()
	ui.vx.window.Clear()
	ui.vx.ShowCursor(0, h-1, vaxis.CursorBeam)

	ui.Events = make(chan any, 128)
	go func() {
		for !ui.ShouldExit() {
			ev := ui.vx.PollEvent()
			if _, ok := ev.(vaxis.QuitEvent); ok {
				ui.Exit()
				break
			}
			ui.Events <- ev
		}
		close(ui.Events)
	}()

	ui.bs = NewBufferList(ui.config.Colors)
	ui.e = NewEditor(ui)
	ui.Resize()

	return ui, nil
}

func (ui *UI) ShouldExit() bool {
	return ui.exit.Load()
}

func (ui *UI) Exit() {
	ui.exit.Store(true)
}

func (ui *UI) Close() {
	ui.vx.Close()
}

func (ui *UI) Colors() ConfigColors {
	return ui.config.Colors
}

// AddBuffer returns the buffer at address, creating it when missing.
// input receives the lines typed in the buffer; close is called when the
// user closes it. Both replace the callbacks of an existing buffer.
func (ui *UI) AddBuffer(address, name string, input func(string), close func()) (b *Buffer, added bool) {
	b, added = ui.bs.Add(address, name)
	b.input = input
	b.close = close
	return b, added
}

// Buffer returns the buffer at address, or nil.
func (ui *UI) Buffer(address string) *Buffer {
	return ui.bs.At(address)
}

func (ui *UI) Home() *Buffer {
	return ui.bs.Home()
}

func (ui *UI) CurrentBuffer() *Buffer {
	return ui.bs.Current()
}

// RemoveBuffer closes the buffer at address. Its lines are kept for
// LoadBacklog.
func (ui *UI) RemoveBuffer(address string) bool {
	b := ui.bs.At(address)
	if b == nil || !ui.bs.Remove(address) {
		return false
	}
	if b.close != nil {
		b.close()
	}
	ui.memberOffset = 0
	return true
}

func (ui *UI) LoadBacklog(b *Buffer) int {
	return ui.bs.LoadBacklog(b)
}

// AddLine appends line to b, marking b unread and sending a notification
// as line requires.
func (ui *UI) AddLine(b *Buffer, line Line) {
	if !ui.bs.AddLine(b, line, ui.focused) || !line.Highlight {
		return
	}
	header := b.name
	if head := line.Head.String(); head != "" && head != header {
		header = fmt.Sprintf("%s: %s", header, head)
	}
	ui.notify(NotifyEvent{Buffer: b.address}, header, line.Body.String())
	if ui.config.HighlightBeep {
		ui.Beep()
	}
}

func (ui *UI) NextBuffer() {
	ui.bs.Next()
	ui.memberOffset = 0
}

func (ui *UI) PreviousBuffer() {
	ui.bs.Previous()
	ui.memberOffset = 0
}

func (ui *UI) NextUnreadBuffer() {
	ui.bs.NextUnread()
	ui.memberOffset = 0
}

func (ui *UI) GoToBufferNo(i int) {
	if ui.bs.To(i) {
		ui.memberOffset = 0
		ui.scrollToBuffer()
	}
}

func (ui *UI) GoToBuffer(b *Buffer) {
	ui.GoToBufferNo(ui.bs.Index(b))
}

// JumpBuffer switches to the first buffer whose name contains sub.
func (ui *UI) JumpBuffer(sub string) bool {
	sub = strings.ToLower(sub)
	for i, b := range ui.bs.list {
		if strings.Contains(strings.ToLower(b.name), sub) {
			ui.GoToBufferNo(i)
			return true
		}
	}
	return false
}

func (ui *UI) BufferCount() int {
	return ui.bs.Len()
}

func (ui *UI) ScrollUp() {
	ui.bs.ScrollUp(ui.bs.tlHeight / 2)
}

func (ui *UI) ScrollDown() {
	ui.bs.ScrollDown(ui.bs.tlHeight / 2)
}

func (ui *UI) ScrollUpBy(n int) {
	ui.bs.ScrollUp(n)
}

func (ui *UI) ScrollDownBy(n int) {
	ui.bs.ScrollDown(n)
}

func (ui *UI) ScrollChannelUpBy(n int) {
	ui.channelOffset -= n
	if ui.channelOffset < 0 {
		ui.channelOffset = 0
	}
}

func (ui *UI) ScrollChannelDownBy(n int) {
	ui.channelOffset += n
	if ui.channelOffset > ui.bs.Len() {
		ui.channelOffset = ui.bs.Len()
	}
}

func (ui *UI) ScrollMemberUpBy(n int) {
	ui.memberOffset -= n
	if ui.memberOffset < 0 {
		ui.memberOffset = 0
	}
}

func (ui *UI) ScrollMemberDownBy(n int) {
	ui.memberOffset += n
}

func (ui *UI) ToggleMemberList() {
	if ui.config.MemberColWidth == 0 {
		return
	}
	if ui.memberWidth == 0 {
		ui.memberWidth = ui.config.MemberColWidth
	} else {
		ui.memberWidth = -1
	}
}

func (ui *UI) SetFocused(focused bool) {
	ui.focused = focused
	if focused {
		b := ui.bs.Current()
		b.highlights = 0
		b.unread = false
	}
}

func (ui *UI) Highlights() int {
	return ui.bs.Highlights()
}

func (ui *UI) SetStatus(status string) {
	ui.status = status
}

func (ui *UI) SetPrompt(prompt StyledString) {
	ui.prompt = prompt
}

func (ui *UI) SetTitle(title string) {
	if ui.title == title {
		return
	}
	ui.title = title
	ui.vx.SetTitle(title)
}

// InputContent result must not be modified.
func (ui *UI) InputContent() []rune {
	return ui.e.Content()
}

func (ui *UI) InputRune(r rune) {
	ui.e.PutRune(r)
}

// InputEnter returns true if the event was eaten.
func (ui *UI) InputEnter() bool {
	return ui.e.Enter()
}

func (ui *UI) InputRight() {
	ui.e.Right()
}

func (ui *UI) InputRightWord() {
	ui.e.RightWord()
}

func (ui *UI) InputLeft() {
	ui.e.Left()
}

func (ui *UI) InputLeftWord() {
	ui.e.LeftWord()
}

func (ui *UI) InputHome() {
	ui.e.Home()
}

func (ui *UI) InputEnd() {
	ui.e.End()
}

func (ui *UI) InputUp() {
	ui.e.Up()
}

func (ui *UI) InputDown() {
	ui.e.Down()
}

func (ui *UI) InputBackspace() bool {
	return ui.e.RemCluster()
}

func (ui *UI) InputDelete() bool {
	return ui.e.RemClusterForward()
}

func (ui *UI) InputDeleteWord() bool {
	return ui.e.RemWord()
}

func (ui *UI) InputAutoComplete() bool {
	return ui.e.AutoComplete()
}

func (ui *UI) InputFlush() string {
	return ui.e.Flush()
}

func (ui *UI) InputClear() bool {
	return ui.e.Clear()
}

func (ui *UI) InputSet(text string) {
	ui.e.Set(text)
}

func (ui *UI) SetWinPixels(xPixel int, yPixel int) {
	ui.vx.xPixel = xPixel
	ui.vx.yPixel = yPixel
}

func (ui *UI) Resize() {
	ui.vx.window = ui.vx.Window()
	w, h := ui.vx.window.Size()
	if ui.image != nil {
		ui.image.Resize(w*9/10, h*9/10)
	}
	ui.layout()
	ui.vx.Refresh()
}

// layout sizes the timeline and the editor for the current buffer.
func (ui *UI) layout() (memberWidth int) {
	w, h := ui.vx.window.Size()
	if ui.memberWidth >= 0 && ui.bs.Current().ShowNicklist() {
		memberWidth = ui.config.MemberColWidth
	}
	innerWidth := w - 9 - ui.config.ChanColWidth - ui.config.NickColWidth - memberWidth
	if innerWidth <= 0 {
		innerWidth = 1
	}
	ui.e.Resize(innerWidth)
	ui.bs.ResizeTimeline(innerWidth, h-2)
	return memberWidth
}

func (ui *UI) scrollToBuffer() {
	if ui.bs.current < ui.channelOffset {
		ui.channelOffset = ui.bs.current
		return
	}
	_, h := ui.vx.window.Size()
	if first := ui.bs.current - h + 1; ui.channelOffset < first {
		ui.channelOffset = first
	}
}

func (ui *UI) Beep() {
	ui.vx.Bell()
}

// Click handles a mouse press at (x, y). It returns an event for the
// application to handle, or nil.
func (ui *UI) Click(x, y int) any {
	w, _ := ui.vx.window.Size()
	memberWidth := ui.layout()
	switch {
	case x < ui.config.ChanColWidth:
		if i := ui.bs.VerticalBufferOffset(y, ui.channelOffset); i >= 0 {
			ui.GoToBufferNo(i)
		}
	case memberWidth > 0 && x >= w-memberWidth:
		nicks := ui.bs.Current().Nicks()
		i := y - 2 + ui.memberOffset
		if y >= 2 && i < len(nicks) {
			return &events.EventClickNick{
				Buffer: ui.bs.Current().Address(),
				Nick:   nicks[i],
			}
		}
	}
	return nil
}

// Wheel scrolls the pane at (x, y) by n rows. Negative n scrolls up.
func (ui *UI) Wheel(x, y, n int) {
	w, _ := ui.vx.window.Size()
	memberWidth := ui.layout()
	switch {
	case x < ui.config.ChanColWidth:
		if n < 0 {
			ui.ScrollChannelUpBy(-n)
		} else {
			ui.ScrollChannelDownBy(n)
		}
	case memberWidth > 0 && x >= w-memberWidth:
		if n < 0 {
			ui.ScrollMemberUpBy(-n)
		} else {
			ui.ScrollMemberDownBy(n)
		}
	case n < 0:
		ui.ScrollUpBy(-n)
	default:
		ui.ScrollDownBy(n)
	}
}

// ShowImage displays img over the interface; nil hides it.
func (ui *UI) ShowImage(img image.Image) bool {
	if ui.image != nil {
		ui.image.Destroy()
		ui.image = nil
	}
	if img == nil {
		return true
	}
	vi, err := ui.vx.NewImage(img)
	if err != nil {
		return false
	}
	w, h := ui.vx.window.Size()
	vi.Resize(w*9/10, h*9/10)
	ui.image = vi
	return true
}

// ImageShown reports whether an image is displayed over the interface.
func (ui *UI) ImageShown() bool {
	return ui.image != nil
}

// DecodeImage decodes an image and scales it down to fit the window.
func (ui *UI) DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	if ui.vx.xPixel <= 0 || ui.vx.yPixel <= 0 {
		return img, nil
	}
	maxW := ui.vx.xPixel * 9 / 10
	maxH := ui.vx.yPixel * 9 / 10
	if b := img.Bounds(); b.Dx() <= maxW && b.Dy() <= maxH {
		return img, nil
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos), nil
}

func (ui *UI) Draw() {
	w, h := ui.vx.window.Size()
	memberWidth := ui.layout()
	chanWidth := ui.config.ChanColWidth

	ui.bs.DrawTimeline(ui.vx, chanWidth, 0, ui.config.NickColWidth)
	if chanWidth > 0 {
		ui.bs.DrawVerticalBufferList(ui.vx, 0, 0, chanWidth, h, &ui.channelOffset)
	}
	if memberWidth > 0 {
		ui.drawVerticalMemberList(w-memberWidth, 0, memberWidth, h)
	}
	ui.drawStatusBar(chanWidth, h-2, w-chanWidth-memberWidth)

	for x := chanWidth; x < 9+chanWidth+ui.config.NickColWidth; x++ {
		setCell(ui.vx, x, h-1, ' ', vaxis.Style{})
	}
	printIdent(ui.vx, chanWidth+7, h-1, ui.config.NickColWidth, ui.prompt)
	ui.e.Draw(ui.vx, 9+chanWidth+ui.config.NickColWidth, h-1, "")

	if ui.image != nil {
		iw, ih := ui.image.CellSize()
		ui.image.Draw(align.Center(ui.vx.window, iw, ih))
	}

	ui.vx.Render()
}

func (ui *UI) drawStatusBar(x0, y, width int) {
	clearArea(ui.vx, x0, y, width, 1)
	if ui.status == "" {
		return
	}
	gray := vaxis.Style{Foreground: ui.config.Colors.Gray}
	x := x0 + 5 + ui.config.NickColWidth
	printString(ui.vx, &x, y, Styled("--", gray))
	x += 2
	printStringLimit(ui.vx, &x, y, x0+width, Styled(ui.status, gray))
}

func (ui *UI) drawVerticalMemberList(x0, y0, width, height int) {
	for y := y0; y < y0+height; y++ {
		setCell(ui.vx, x0, y, '│', vaxis.Style{})
	}
	x0++
	width--
	clearArea(ui.vx, x0, y0, width, height)

	nicks := ui.bs.Current().Nicks()
	self := ui.bs.Current().Property("localvar_nick")
	gray := vaxis.Style{Foreground: ui.config.Colors.Gray}
	var count string
	if len(nicks) == 1 {
		count = "1 member"
	} else {
		count = fmt.Sprintf("%d members", len(nicks))
	}
	x := x0 + 1
	printString(ui.vx, &x, y0, Styled(truncate(ui.vx, count, width-1, "…"), gray))
	for x := x0; x < x0+width; x++ {
		setCell(ui.vx, x, y0+1, '─', gray)
	}
	y0 += 2
	height -= 2

	if len(nicks)-ui.memberOffset < height {
		ui.memberOffset = len(nicks) - height
		if ui.memberOffset < 0 {
			ui.memberOffset = 0
		}
	}
	for i, nick := range nicks[ui.memberOffset:] {
		if i >= height {
			break
		}
		name := truncate(ui.vx, nick, width-1, "…")
		x := x0 + 1
		printString(ui.vx, &x, y0+i, ColorString(name, IdentColor(ui.config.Colors.Nicks, nick, nick == self)))
	}
}
