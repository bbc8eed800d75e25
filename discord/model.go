package discord

import (
	"strconv"
	"time"
)

// ID is a Discord snowflake.
type ID uint64

// ParseID parses the decimal form of a snowflake. Empty and malformed
// strings yield the zero ID.
func ParseID(s string) ID {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return ID(v)
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

type ChannelKind int

const (
	ChannelText ChannelKind = iota
	ChannelVoice
	// ChannelCategory covers every server channel that cannot hold
	// messages directly (categories, forums, directories).
	ChannelCategory
	ChannelPrivate
	ChannelGroup
)

// Messageable reports whether channels of this kind get a surface.
func (k ChannelKind) Messageable() bool {
	switch k {
	case ChannelText, ChannelPrivate, ChannelGroup:
		return true
	default:
		return false
	}
}

type User struct {
	ID         ID
	Username   string
	GlobalName string
	Bot        bool
}

type Role struct {
	ID    ID
	Name  string
	Color int
}

type Emoji struct {
	ID       ID
	Name     string
	Animated bool
}

type Member struct {
	User    User
	Nick    string
	RoleIDs []ID
}

// HasRole reports whether the member holds the given role.
func (m *Member) HasRole(id ID) bool {
	for _, r := range m.RoleIDs {
		if r == id {
			return true
		}
	}
	return false
}

type Channel struct {
	ID         ID
	ServerID   ID // zero for private and group channels
	Name       string
	Topic      string
	Kind       ChannelKind
	Position   int
	Recipients []User
}

type Server struct {
	ID       ID
	Name     string
	Channels []*Channel
	Members  []Member
	Roles    []Role
	Emojis   []Emoji
}

func (s *Server) channel(id ID) (int, *Channel) {
	for i, c := range s.Channels {
		if c.ID == id {
			return i, c
		}
	}
	return -1, nil
}

// Member returns the member of the server with the given user id.
func (s *Server) Member(id ID) (*Member, bool) {
	for i := range s.Members {
		if s.Members[i].User.ID == id {
			return &s.Members[i], true
		}
	}
	return nil, false
}

func (s *Server) Role(id ID) (*Role, bool) {
	for i := range s.Roles {
		if s.Roles[i].ID == id {
			return &s.Roles[i], true
		}
	}
	return nil, false
}

func (s *Server) upsertMember(m Member) {
	for i := range s.Members {
		if s.Members[i].User.ID == m.User.ID {
			s.Members[i] = m
			return
		}
	}
	s.Members = append(s.Members, m)
}

func (s *Server) removeMember(id ID) {
	for i := range s.Members {
		if s.Members[i].User.ID == id {
			s.Members = append(s.Members[:i], s.Members[i+1:]...)
			return
		}
	}
}

type Attachment struct {
	ID       ID
	Filename string
	URL      string
	ProxyURL string
	Size     int
}

type Message struct {
	ID              ID
	ChannelID       ID
	ServerID        ID
	Author          User
	Content         string
	Timestamp       time.Time
	Edited          bool
	MentionEveryone bool
	Mentions        []User
	MentionRoles    []ID
	Attachments     []Attachment
}
