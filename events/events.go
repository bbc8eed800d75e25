package events

import "image"

// EventClickNick is sent when a name of the member list is clicked.
type EventClickNick struct {
	Buffer string
	Nick   string
}

// EventImageLoaded is sent when an image requested by /preview is ready.
type EventImageLoaded struct {
	Link  string
	Image image.Image // nil if error
	Err   error
}
