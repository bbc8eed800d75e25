//go:build linux

package ui

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = "/org/freedesktop/Notifications"
)

var dbusConn *dbus.Conn
var dbusLock sync.Mutex

var notifications = make(map[uint32]NotifyEvent)

func notifyDBus(title, content string) uint32 {
	conn, err := dbus.SessionBus()
	if err != nil {
		return 0
	}
	var id uint32
	obj := conn.Object(notificationsName, notificationsPath)
	err = obj.Call(notificationsName+".Notify", 0, "weecord", uint32(0), "weecord", title, content, []string{
		"default", "Open",
	}, map[string]dbus.Variant{
		"category":      dbus.MakeVariant("im.received"),
		"desktop-entry": dbus.MakeVariant("weecord"),
		"urgency":       dbus.MakeVariant(uint8(1)), // normal
	}, int32(-1)).Store(&id)
	if err != nil {
		return 0
	}
	return id
}

// notify sends a desktop notification, falling back to a terminal
// notification when D-Bus is unavailable.
func (ui *UI) notify(target NotifyEvent, title, content string) {
	if ui.config.LocalIntegrations {
		if id := notifyDBus(title, content); id > 0 {
			dbusLock.Lock()
			notifications[id] = target
			dbusLock.Unlock()
			return
		}
	}
	ui.vx.Notify(title, content)
}

// DBusStart listens for clicks on notifications; callback receives a
// *NotifyEvent for each of them.
func DBusStart(callback func(any)) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(notificationsPath),
		dbus.WithMatchInterface(notificationsName),
	); err != nil {
		return
	}
	c := make(chan *dbus.Signal, 64)
	conn.Signal(c)
	dbusLock.Lock()
	dbusConn = conn
	dbusLock.Unlock()
	go func() {
		for v := range c {
			if len(v.Body) == 0 {
				continue
			}
			id, ok := v.Body[0].(uint32)
			if !ok {
				continue
			}
			dbusLock.Lock()
			target, ok := notifications[id]
			delete(notifications, id)
			dbusLock.Unlock()
			if ok && v.Name == notificationsName+".ActionInvoked" {
				callback(&target)
			}
		}
	}()
}

func DBusStop() {
	dbusLock.Lock()
	c := dbusConn
	dbusConn = nil
	dbusLock.Unlock()
	if c != nil {
		c.Close()
	}
}
