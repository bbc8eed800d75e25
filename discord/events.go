package discord

import "time"

// Event is a gateway event. The set of implementations is closed; handlers
// switch over it with a default arm for kinds added later.
type Event interface {
	isEvent()
}

// Ready is the initial snapshot delivered after identifying.
type Ready struct {
	SessionID       string
	User            User
	Servers         []Server
	PrivateChannels []Channel
}

type ResumedEvent struct{}

// ConnectionEvent reports a gateway connection state change. The transport
// reconnects on its own; these only inform the user.
type ConnectionEvent struct {
	Connected bool
}

type MessageCreateEvent struct {
	Message Message
}

// MessageUpdateEvent carries the fields the gateway sent; Author and Content
// are nil when omitted.
type MessageUpdateEvent struct {
	ID        ID
	ChannelID ID
	ServerID  ID
	Author    *User
	Content   *string
	Timestamp time.Time

	MentionEveryone bool
	Mentions        []User
	MentionRoles    []ID
	Attachments     []Attachment
}

type MessageDeleteEvent struct {
	ID        ID
	ChannelID ID
	ServerID  ID
}

type MessageDeleteBulkEvent struct {
	IDs       []ID
	ChannelID ID
	ServerID  ID
}

type MessageAckEvent struct {
	ChannelID ID
	MessageID ID
}

type ServerCreateEvent struct {
	Server Server
}

type ServerUpdateEvent struct {
	Server Server
}

type ServerDeleteEvent struct {
	ServerID ID
}

type ServerMemberAddEvent struct {
	ServerID ID
	Member   Member
}

type ServerMemberUpdateEvent struct {
	ServerID ID
	Member   Member
}

type ServerMemberRemoveEvent struct {
	ServerID ID
	User     User
}

type ServerMembersChunkEvent struct {
	ServerID ID
	Members  []Member
}

type ServerRoleCreateEvent struct {
	ServerID ID
	Role     Role
}

type ServerRoleUpdateEvent struct {
	ServerID ID
	Role     Role
}

type ServerRoleDeleteEvent struct {
	ServerID ID
	RoleID   ID
}

type ServerEmojisUpdateEvent struct {
	ServerID ID
	Emojis   []Emoji
}

type ChannelCreateEvent struct {
	Channel Channel
}

type ChannelUpdateEvent struct {
	Channel Channel
}

type ChannelDeleteEvent struct {
	Channel Channel
}

type ChannelPinsUpdateEvent struct {
	ChannelID ID
}

type ChannelRecipientAddEvent struct {
	ChannelID ID
	User      User
}

type ChannelRecipientRemoveEvent struct {
	ChannelID ID
	User      User
}

type PresenceUpdateEvent struct {
	ServerID ID
	User     User
	Status   string
}

type TypingStartEvent struct {
	ChannelID ID
	ServerID  ID
	UserID    ID
}

type UserUpdateEvent struct {
	User User
}

type VoiceStateUpdateEvent struct {
	ServerID  ID
	ChannelID ID
	UserID    ID
}

// UnknownEvent is a gateway event this package does not model.
type UnknownEvent struct {
	Name string
}

func (Ready) isEvent()                       {}
func (ResumedEvent) isEvent()                {}
func (ConnectionEvent) isEvent()             {}
func (MessageCreateEvent) isEvent()          {}
func (MessageUpdateEvent) isEvent()          {}
func (MessageDeleteEvent) isEvent()          {}
func (MessageDeleteBulkEvent) isEvent()      {}
func (MessageAckEvent) isEvent()             {}
func (ServerCreateEvent) isEvent()           {}
func (ServerUpdateEvent) isEvent()           {}
func (ServerDeleteEvent) isEvent()           {}
func (ServerMemberAddEvent) isEvent()        {}
func (ServerMemberUpdateEvent) isEvent()     {}
func (ServerMemberRemoveEvent) isEvent()     {}
func (ServerMembersChunkEvent) isEvent()     {}
func (ServerRoleCreateEvent) isEvent()       {}
func (ServerRoleUpdateEvent) isEvent()       {}
func (ServerRoleDeleteEvent) isEvent()       {}
func (ServerEmojisUpdateEvent) isEvent()     {}
func (ChannelCreateEvent) isEvent()          {}
func (ChannelUpdateEvent) isEvent()          {}
func (ChannelDeleteEvent) isEvent()          {}
func (ChannelPinsUpdateEvent) isEvent()      {}
func (ChannelRecipientAddEvent) isEvent()    {}
func (ChannelRecipientRemoveEvent) isEvent() {}
func (PresenceUpdateEvent) isEvent()         {}
func (TypingStartEvent) isEvent()            {}
func (UserUpdateEvent) isEvent()             {}
func (VoiceStateUpdateEvent) isEvent()       {}
func (UnknownEvent) isEvent()                {}
