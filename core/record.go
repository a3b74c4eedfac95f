package core

import (
	"strings"
	"time"
)

// DefaultAlarmLabel is the label of alarms created without one.
const DefaultAlarmLabel = "알람"

// CalendarEvent is a scheduled entry owned by a user.
type CalendarEvent struct {
	ID          RecordID   `json:"id"`
	UserID      UserID     `json:"user_id"`
	Title       string     `json:"title"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EventPatch is a partial calendar event update. Nil fields are untouched.
type EventPatch struct {
	Title       *string
	StartTime   *time.Time
	EndTime     *time.Time
	Description *string
	Location    *string
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Title == nil && p.StartTime == nil && p.EndTime == nil && p.Description == nil && p.Location == nil
}

// Apply returns a copy of ev with the patch applied.
func (p EventPatch) Apply(ev CalendarEvent, now time.Time) CalendarEvent {
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.StartTime != nil {
		ev.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		end := *p.EndTime
		ev.EndTime = &end
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Location != nil {
		ev.Location = *p.Location
	}
	ev.UpdatedAt = now
	return ev
}

// EventQuery filters calendar events of one user. From is inclusive, To is
// exclusive; a zero bound is open. TitleContains is a case-insensitive
// substring match. Results are ordered by StartTime ascending.
type EventQuery struct {
	UserID        UserID
	TitleContains string
	From          time.Time
	To            time.Time
	Limit         int
}

// Matches reports whether ev satisfies the query.
func (q EventQuery) Matches(ev CalendarEvent) bool {
	if ev.UserID != q.UserID {
		return false
	}
	if !ContainsFold(ev.Title, q.TitleContains) {
		return false
	}
	if !q.From.IsZero() && ev.StartTime.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !ev.StartTime.Before(q.To) {
		return false
	}
	return true
}

// Alarm is a user alarm, optionally linked to a calendar event.
type Alarm struct {
	ID              RecordID  `json:"id"`
	UserID          UserID    `json:"user_id"`
	CalendarEventID *RecordID `json:"calendar_event_id,omitempty"`
	AlarmTime       time.Time `json:"alarm_time"`
	Label           string    `json:"label"`
	Enabled         bool      `json:"enabled"`
	RepeatDays      string    `json:"repeat_days,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AlarmPatch is a partial alarm update. Nil fields are untouched.
type AlarmPatch struct {
	AlarmTime  *time.Time
	Label      *string
	RepeatDays *string
	Enabled    *bool
}

// Empty reports whether the patch changes nothing.
func (p AlarmPatch) Empty() bool {
	return p.AlarmTime == nil && p.Label == nil && p.RepeatDays == nil && p.Enabled == nil
}

// Apply returns a copy of a with the patch applied.
func (p AlarmPatch) Apply(a Alarm, now time.Time) Alarm {
	if p.AlarmTime != nil {
		a.AlarmTime = *p.AlarmTime
	}
	if p.Label != nil {
		a.Label = *p.Label
	}
	if p.RepeatDays != nil {
		a.RepeatDays = *p.RepeatDays
	}
	if p.Enabled != nil {
		a.Enabled = *p.Enabled
	}
	a.UpdatedAt = now
	return a
}

// AlarmQuery filters alarms of one user by a case-insensitive label
// substring. Results are ordered by AlarmTime ascending.
type AlarmQuery struct {
	UserID        UserID
	LabelContains string
	EnabledOnly   bool
	Limit         int
}

// Matches reports whether a satisfies the query.
func (q AlarmQuery) Matches(a Alarm) bool {
	if a.UserID != q.UserID {
		return false
	}
	if q.EnabledOnly && !a.Enabled {
		return false
	}
	return ContainsFold(a.Label, q.LabelContains)
}

// ContainsFold reports whether substr is within s, ignoring case. An empty
// substr matches everything.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
