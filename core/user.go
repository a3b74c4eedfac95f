package core

import "time"

const (
	// DefaultNickname is assigned to users created without a display name.
	DefaultNickname = "사용자"
	// DefaultPrepTime is the default preparation time preference, in seconds.
	DefaultPrepTime = 1800
)

// User is an immutable snapshot of a user record. Deleted users are never
// returned by lookups; the flag is only visible to maintenance code.
type User struct {
	ID         UserID    `json:"id"`
	Nickname   string    `json:"nickname"`
	PrepTime   int       `json:"prep_time"`
	Deleted    bool      `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// UserPatch carries a partial user update. Nil fields are left untouched.
type UserPatch struct {
	Nickname *string
	PrepTime *int
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool { return p.Nickname == nil && p.PrepTime == nil }

// Apply returns a copy of u with the patch applied.
func (p UserPatch) Apply(u User) User {
	if p.Nickname != nil {
		u.Nickname = *p.Nickname
	}
	if p.PrepTime != nil {
		u.PrepTime = *p.PrepTime
	}
	return u
}

// UserStats summarizes the conversation footprint of a user.
type UserStats struct {
	UserID        UserID    `json:"user_id"`
	Nickname      string    `json:"nickname"`
	TotalSessions int       `json:"total_sessions"`
	TotalMessages int       `json:"total_messages"`
	LastActive    time.Time `json:"last_active"`
	CreatedAt     time.Time `json:"created_at"`
}
