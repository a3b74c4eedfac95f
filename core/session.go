package core

import "time"

const (
	// DefaultSessionTitle is used for sessions created lazily by a turn.
	DefaultSessionTitle = "새 대화"
	// DefaultSessionCategory is the category of lazily created sessions.
	DefaultSessionCategory = "general"
)

// Session is a conversation container owned by exactly one user.
//
// Contract:
//   - UpdatedAt is bumped whenever messages are appended
//   - Sessions of a user are listed by UpdatedAt descending
//   - Deleting a session deletes its messages
type Session struct {
	ID        SessionID `json:"id"`
	UserID    UserID    `json:"user_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns an unsaved session with default title and category.
func NewSession(userID UserID, now time.Time) Session {
	return Session{
		UserID:    userID,
		Title:     DefaultSessionTitle,
		Category:  DefaultSessionCategory,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Message is an immutable conversation turn half. Intent and Confidence are
// classification metadata written alongside the message and never read back
// by the conversation loop.
type Message struct {
	ID         MessageID `json:"id"`
	SessionID  SessionID `json:"session_id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Intent     string    `json:"intent,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsUser reports whether the message was authored by the user.
func (m Message) IsUser() bool { return m.Role == RoleUser }

// Exchange is the persisted result of one turn: the stored user and
// assistant messages with their assigned identifiers.
type Exchange struct {
	User      Message
	Assistant Message
}

// ToContent converts a stored message into oracle content.
func (m Message) ToContent() Content {
	return Content{Role: string(m.Role), Parts: []Part{TextPart{Text: m.Content}}}
}
