package daysync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoneon/DaySync-Server/core"
)

func TestCreateEventValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u, err := h.a.CreateUser(ctx, "민수", 0)
	require.NoError(t, err)

	start := testNow.Add(2 * time.Hour)
	before := start.Add(-time.Minute)

	_, err = h.a.CreateEvent(ctx, "ghost", NewEvent{Title: "회의", StartTime: start})
	assert.True(t, core.IsNotFound(err))
	_, err = h.a.CreateEvent(ctx, u.ID, NewEvent{Title: "  ", StartTime: start})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	_, err = h.a.CreateEvent(ctx, u.ID, NewEvent{Title: "회의"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	_, err = h.a.CreateEvent(ctx, u.ID, NewEvent{Title: "회의", StartTime: start, EndTime: &before})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	ev, err := h.a.CreateEvent(ctx, u.ID, NewEvent{Title: " 회의 ", StartTime: start, Location: "본사"})
	require.NoError(t, err)
	assert.Equal(t, "회의", ev.Title)
	assert.Equal(t, u.ID, ev.UserID)
	assert.True(t, ev.CreatedAt.Equal(testNow))

	events, err := h.a.ListEvents(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ev.ID, events[0].ID)
}

func TestUpdateEventChecksOwnershipAndRange(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner, err := h.a.CreateUser(ctx, "민수", 0)
	require.NoError(t, err)
	other, err := h.a.CreateUser(ctx, "지영", 0)
	require.NoError(t, err)

	start := testNow.Add(2 * time.Hour)
	end := start.Add(time.Hour)
	ev, err := h.a.CreateEvent(ctx, owner.ID, NewEvent{Title: "회의", StartTime: start, EndTime: &end})
	require.NoError(t, err)

	title := "팀 회의"
	_, err = h.a.UpdateEvent(ctx, other.ID, ev.ID, core.EventPatch{Title: &title})
	assert.True(t, core.IsNotFound(err), "foreign events look missing")
	_, err = h.a.UpdateEvent(ctx, owner.ID, ev.ID, core.EventPatch{})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	blank := " "
	_, err = h.a.UpdateEvent(ctx, owner.ID, ev.ID, core.EventPatch{Title: &blank})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	// Moving the start past the stored end is rejected on the merged record.
	lateStart := end.Add(time.Hour)
	_, err = h.a.UpdateEvent(ctx, owner.ID, ev.ID, core.EventPatch{StartTime: &lateStart})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	stored, err := h.repo.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.True(t, stored.StartTime.Equal(start), "rejected updates leave the record untouched")

	h.clock.Advance(time.Minute)
	updated, err := h.a.UpdateEvent(ctx, owner.ID, ev.ID, core.EventPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "팀 회의", updated.Title)
	assert.True(t, updated.UpdatedAt.Equal(testNow.Add(time.Minute)))

	_, err = h.a.UpdateEvent(ctx, owner.ID, 999, core.EventPatch{Title: &title})
	assert.True(t, core.IsNotFound(err))
}

func TestDeleteEventUnlinksAlarms(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner, err := h.a.CreateUser(ctx, "민수", 0)
	require.NoError(t, err)
	other, err := h.a.CreateUser(ctx, "지영", 0)
	require.NoError(t, err)

	ev, err := h.a.CreateEvent(ctx, owner.ID, NewEvent{Title: "회의", StartTime: testNow.Add(time.Hour)})
	require.NoError(t, err)
	alarm, err := h.a.CreateAlarm(ctx, owner.ID, NewAlarm{AlarmTime: testNow.Add(30 * time.Minute), CalendarEventID: &ev.ID})
	require.NoError(t, err)
	require.NotNil(t, alarm.CalendarEventID)

	assert.True(t, core.IsNotFound(h.a.DeleteEvent(ctx, other.ID, ev.ID)))
	require.NoError(t, h.a.DeleteEvent(ctx, owner.ID, ev.ID))
	assert.True(t, core.IsNotFound(h.a.DeleteEvent(ctx, owner.ID, ev.ID)))

	alarm, err = h.repo.GetAlarm(ctx, alarm.ID)
	require.NoError(t, err)
	assert.Nil(t, alarm.CalendarEventID)
}

func TestCreateAlarmDefaults(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner, err := h.a.CreateUser(ctx, "민수", 0)
	require.NoError(t, err)
	other, err := h.a.CreateUser(ctx, "지영", 0)
	require.NoError(t, err)

	at := testNow.Add(time.Hour)
	alarm, err := h.a.CreateAlarm(ctx, owner.ID, NewAlarm{AlarmTime: at, Label: "  "})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultAlarmLabel, alarm.Label)
	assert.True(t, alarm.Enabled)
	assert.True(t, alarm.AlarmTime.Equal(at))

	off, err := h.a.CreateAlarm(ctx, owner.ID, NewAlarm{AlarmTime: at, Label: "운동", RepeatDays: "mon", Disabled: true})
	require.NoError(t, err)
	assert.False(t, off.Enabled)
	assert.Equal(t, "mon", off.RepeatDays)

	_, err = h.a.CreateAlarm(ctx, owner.ID, NewAlarm{})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	_, err = h.a.CreateAlarm(ctx, "ghost", NewAlarm{AlarmTime: at})
	assert.True(t, core.IsNotFound(err))

	foreign, err := h.a.CreateEvent(ctx, other.ID, NewEvent{Title: "회의", StartTime: at})
	require.NoError(t, err)
	_, err = h.a.CreateAlarm(ctx, owner.ID, NewAlarm{AlarmTime: at, CalendarEventID: &foreign.ID})
	assert.True(t, core.IsNotFound(err), "alarms cannot link another user's event")

	enabled, err := h.a.ListAlarms(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, alarm.ID, enabled[0].ID)
}

func TestUpdateAndDeleteAlarm(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner, err := h.a.CreateUser(ctx, "민수", 0)
	require.NoError(t, err)
	other, err := h.a.CreateUser(ctx, "지영", 0)
	require.NoError(t, err)

	alarm, err := h.a.CreateAlarm(ctx, owner.ID, NewAlarm{AlarmTime: testNow.Add(time.Hour), Label: "기상"})
	require.NoError(t, err)

	label := "출근"
	_, err = h.a.UpdateAlarm(ctx, other.ID, alarm.ID, core.AlarmPatch{Label: &label})
	assert.True(t, core.IsNotFound(err))
	_, err = h.a.UpdateAlarm(ctx, owner.ID, alarm.ID, core.AlarmPatch{})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	var zero time.Time
	_, err = h.a.UpdateAlarm(ctx, owner.ID, alarm.ID, core.AlarmPatch{AlarmTime: &zero})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	moved := testNow.Add(2 * time.Hour)
	updated, err := h.a.UpdateAlarm(ctx, owner.ID, alarm.ID, core.AlarmPatch{Label: &label, AlarmTime: &moved})
	require.NoError(t, err)
	assert.Equal(t, "출근", updated.Label)
	assert.True(t, updated.AlarmTime.Equal(moved))
	assert.True(t, updated.Enabled)

	assert.True(t, core.IsNotFound(h.a.DeleteAlarm(ctx, other.ID, alarm.ID)))
	require.NoError(t, h.a.DeleteAlarm(ctx, owner.ID, alarm.ID))
	_, err = h.repo.GetAlarm(ctx, alarm.ID)
	assert.True(t, core.IsNotFound(err))
}
