package core

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// UserID is the opaque, stable identity of a user (a UUID string).
type UserID string

// SessionID identifies a conversation session.
type SessionID int64

// MessageID identifies a persisted message.
type MessageID int64

// RecordID identifies a calendar event, alarm or cached route.
type RecordID int64

func (id SessionID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id MessageID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id RecordID) String() string  { return strconv.FormatInt(int64(id), 10) }

// ParseSessionID parses the decimal form produced by SessionID.String.
func ParseSessionID(s string) (SessionID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return SessionID(n), nil
}

// Role marks the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// NewUserID generates a fresh user identity.
func NewUserID() UserID { return UserID(uuid.NewString()) }

// NewID generates a unique identifier used to correlate function calls and
// log lines across a turn.
func NewID() string { return uuid.NewString() }

// Clock returns the current time. Components accept a Clock so tests can pin
// wall-clock dependent behavior (preamble time, retention horizons).
type Clock func() time.Time
