package core

import (
	"context"
	"time"
)

// UserStore persists users. Lookups never return soft-deleted users.
type UserStore interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id UserID) (User, error)
	UpdateUser(ctx context.Context, id UserID, patch UserPatch, at time.Time) (User, error)
	TouchUser(ctx context.Context, id UserID, at time.Time) error
	SoftDeleteUser(ctx context.Context, id UserID) error
	// ListUsers returns live users, optionally only those last active before
	// the given instant (zero means no filter).
	ListUsers(ctx context.Context, inactiveSince time.Time) ([]User, error)
}

// SessionStore persists sessions. Deletion cascades to messages.
type SessionStore interface {
	CreateSession(ctx context.Context, s Session) (Session, error)
	GetSession(ctx context.Context, id SessionID) (Session, error)
	// ListSessions returns sessions of a user ordered by UpdatedAt
	// descending (ties by id descending). limit <= 0 returns all.
	ListSessions(ctx context.Context, userID UserID, limit int) ([]Session, error)
	RenameSession(ctx context.Context, id SessionID, title string) (Session, error)
	DeleteSessions(ctx context.Context, ids ...SessionID) (int, error)
}

// MessageStore persists immutable messages.
type MessageStore interface {
	// AppendExchange stores the user and assistant messages of one turn and
	// bumps the session's UpdatedAt to at, atomically.
	AppendExchange(ctx context.Context, sessionID SessionID, user, assistant Message, at time.Time) (Exchange, error)
	// StartExchange creates sess and stores its first exchange in one
	// atomic write. Either both exist afterwards or neither does.
	StartExchange(ctx context.Context, sess Session, user, assistant Message, at time.Time) (Session, Exchange, error)
	// RecentMessages returns at most limit messages, newest first.
	RecentMessages(ctx context.Context, sessionID SessionID, limit int) ([]Message, error)
	// ListMessages returns all messages oldest first.
	ListMessages(ctx context.Context, sessionID SessionID) ([]Message, error)
	CountMessages(ctx context.Context, sessionID SessionID) (int, error)
	DeleteMessages(ctx context.Context, ids ...MessageID) (int, error)
}

// CalendarStore persists calendar events.
type CalendarStore interface {
	CreateEvent(ctx context.Context, ev CalendarEvent) (CalendarEvent, error)
	GetEvent(ctx context.Context, id RecordID) (CalendarEvent, error)
	FindEvents(ctx context.Context, q EventQuery) ([]CalendarEvent, error)
	UpdateEvent(ctx context.Context, id RecordID, patch EventPatch, at time.Time) (CalendarEvent, error)
	DeleteEvent(ctx context.Context, id RecordID) error
}

// AlarmStore persists alarms.
type AlarmStore interface {
	CreateAlarm(ctx context.Context, a Alarm) (Alarm, error)
	GetAlarm(ctx context.Context, id RecordID) (Alarm, error)
	FindAlarms(ctx context.Context, q AlarmQuery) ([]Alarm, error)
	UpdateAlarm(ctx context.Context, id RecordID, patch AlarmPatch, at time.Time) (Alarm, error)
	DeleteAlarm(ctx context.Context, id RecordID) error
}

// RouteStore keeps the route history.
type RouteStore interface {
	// SaveRoute stores r. A route with the same endpoints saved at or after
	// dedupeSince (by the same user when r has one) is refreshed in place
	// instead of duplicated.
	SaveRoute(ctx context.Context, r Route, dedupeSince time.Time) (Route, error)
	// FindRoute returns the newest route whose endpoints lie within
	// tolerance degrees of start and end and that was saved at or after
	// since.
	FindRoute(ctx context.Context, start, end Coordinate, tolerance float64, since time.Time) (Route, error)
	// ListRoutes returns routes newest first. An empty userID lists all.
	ListRoutes(ctx context.Context, userID UserID, limit int) ([]Route, error)
	RouteStats(ctx context.Context, userID UserID) (RouteStats, error)
	DeleteRoute(ctx context.Context, id RecordID) error
	DeleteRoutesBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Repository aggregates every store used by the assistant. It is the sole
// long-term owner of persisted state.
type Repository interface {
	UserStore
	SessionStore
	MessageStore
	CalendarStore
	AlarmStore
	RouteStore
}
