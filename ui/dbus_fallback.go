//go:build !linux

package ui

func (ui *UI) notify(target NotifyEvent, title, content string) {
	ui.vx.Notify(title, content)
}

func DBusStart(callback func(any)) {}

func DBusStop() {}
