package ui

import "git.sr.ht/~rockorager/vaxis"

// KeyNames maps the key names usable in shortcuts to vaxis keycodes.
var KeyNames = map[string]rune{
	"Up":        vaxis.KeyUp,
	"Down":      vaxis.KeyDown,
	"Left":      vaxis.KeyLeft,
	"Right":     vaxis.KeyRight,
	"Home":      vaxis.KeyHome,
	"End":       vaxis.KeyEnd,
	"Page_Up":   vaxis.KeyPgUp,
	"Page_Down": vaxis.KeyPgDown,
	"Insert":    vaxis.KeyInsert,
	"Delete":    vaxis.KeyDelete,
	"BackSpace": vaxis.KeyBackspace,
	"Tab":       vaxis.KeyTab,
	"Escape":    vaxis.KeyEsc,
	"Return":    vaxis.KeyEnter,
	"space":     vaxis.KeySpace,
	"KP_Enter":  vaxis.KeyKeyPadEnter,
	"F1":        vaxis.KeyF01,
	"F2":        vaxis.KeyF02,
	"F3":        vaxis.KeyF03,
	"F4":        vaxis.KeyF04,
	"F5":        vaxis.KeyF05,
	"F6":        vaxis.KeyF06,
	"F7":        vaxis.KeyF07,
	"F8":        vaxis.KeyF08,
	"F9":        vaxis.KeyF09,
	"F10":       vaxis.KeyF10,
	"F11":       vaxis.KeyF11,
	"F12":       vaxis.KeyF12,
}
