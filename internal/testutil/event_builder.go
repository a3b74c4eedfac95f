package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sjoneon/DaySync-Server/core"
)

// CalendarEventBuilder seeds a calendar event.
// Example:
//
//	ev := NewCalendarEventBuilder("u-1", "치과").Start(t0).Location("강남").Build(t, repo)
type CalendarEventBuilder struct {
	ev core.CalendarEvent
}

// NewCalendarEventBuilder starts an event titled title for userID.
func NewCalendarEventBuilder(userID core.UserID, title string) *CalendarEventBuilder {
	return &CalendarEventBuilder{ev: core.CalendarEvent{UserID: userID, Title: title}}
}

// Start sets the start time (chainable).
func (b *CalendarEventBuilder) Start(t time.Time) *CalendarEventBuilder { b.ev.StartTime = t; return b }

// End sets the end time (chainable).
func (b *CalendarEventBuilder) End(t time.Time) *CalendarEventBuilder { b.ev.EndTime = &t; return b }

// Location sets the place (chainable).
func (b *CalendarEventBuilder) Location(l string) *CalendarEventBuilder { b.ev.Location = l; return b }

// Build stores the event.
func (b *CalendarEventBuilder) Build(t testing.TB, repo core.CalendarStore) core.CalendarEvent {
	t.Helper()
	ev := b.ev
	if ev.StartTime.IsZero() {
		ev.StartTime = time.Now()
	}
	ev.CreatedAt, ev.UpdatedAt = ev.StartTime, ev.StartTime
	out, err := repo.CreateEvent(context.Background(), ev)
	require.NoError(t, err)
	return out
}

// AlarmBuilder seeds an alarm.
type AlarmBuilder struct {
	a core.Alarm
}

// NewAlarmBuilder starts an enabled alarm for userID at t.
func NewAlarmBuilder(userID core.UserID, label string, t time.Time) *AlarmBuilder {
	return &AlarmBuilder{a: core.Alarm{UserID: userID, Label: label, AlarmTime: t, Enabled: true}}
}

// Disabled turns the alarm off (chainable).
func (b *AlarmBuilder) Disabled() *AlarmBuilder { b.a.Enabled = false; return b }

// Repeat sets the repeat days (chainable).
func (b *AlarmBuilder) Repeat(days string) *AlarmBuilder { b.a.RepeatDays = days; return b }

// Build stores the alarm.
func (b *AlarmBuilder) Build(t testing.TB, repo core.AlarmStore) core.Alarm {
	t.Helper()
	a := b.a
	a.CreatedAt, a.UpdatedAt = a.AlarmTime, a.AlarmTime
	out, err := repo.CreateAlarm(context.Background(), a)
	require.NoError(t, err)
	return out
}
