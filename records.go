package daysync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sjoneon/DaySync-Server/core"
)

// ErrInvalidRecord is returned when a direct event or alarm change is
// rejected before reaching the repository.
var ErrInvalidRecord = errors.New("invalid record")

// NewEvent describes a calendar event created outside of a conversation.
type NewEvent struct {
	Title       string
	StartTime   time.Time
	EndTime     *time.Time
	Description string
	Location    string
}

// NewAlarm describes an alarm created outside of a conversation. Alarms
// start enabled unless Disabled is set. An empty Label becomes
// core.DefaultAlarmLabel.
type NewAlarm struct {
	AlarmTime       time.Time
	Label           string
	RepeatDays      string
	CalendarEventID *core.RecordID
	Disabled        bool
}

// CreateEvent stores a calendar event for a live user.
func (a *Assistant) CreateEvent(ctx context.Context, userID core.UserID, in NewEvent) (core.CalendarEvent, error) {
	if _, err := a.GetUser(ctx, userID); err != nil {
		return core.CalendarEvent{}, err
	}
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return core.CalendarEvent{}, fmt.Errorf("%w: title is required", ErrInvalidRecord)
	case in.StartTime.IsZero():
		return core.CalendarEvent{}, fmt.Errorf("%w: start time is required", ErrInvalidRecord)
	case in.EndTime != nil && in.EndTime.Before(in.StartTime):
		return core.CalendarEvent{}, fmt.Errorf("%w: end time before start time", ErrInvalidRecord)
	}

	now := a.opts.Clock()
	ev, err := a.repo.CreateEvent(ctx, core.CalendarEvent{
		UserID:      userID,
		Title:       title,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Description: in.Description,
		Location:    in.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return core.CalendarEvent{}, core.WrapRepository("create event", err)
	}
	a.opts.Logger.Info("event.created", "user_id", string(userID), "event_id", int64(ev.ID))
	return ev, nil
}

// UpdateEvent applies patch to an event owned by userID.
func (a *Assistant) UpdateEvent(ctx context.Context, userID core.UserID, id core.RecordID, patch core.EventPatch) (core.CalendarEvent, error) {
	if patch.Empty() {
		return core.CalendarEvent{}, fmt.Errorf("%w: nothing to update", ErrInvalidRecord)
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return core.CalendarEvent{}, fmt.Errorf("%w: title is required", ErrInvalidRecord)
		}
		patch.Title = &title
	}
	ev, err := a.ownedEvent(ctx, userID, id)
	if err != nil {
		return core.CalendarEvent{}, err
	}
	now := a.opts.Clock()
	if merged := patch.Apply(ev, now); merged.EndTime != nil && merged.EndTime.Before(merged.StartTime) {
		return core.CalendarEvent{}, fmt.Errorf("%w: end time before start time", ErrInvalidRecord)
	}
	updated, err := a.repo.UpdateEvent(ctx, id, patch, now)
	return updated, core.WrapRepository("update event", err)
}

// DeleteEvent removes an event owned by userID. Alarms linked to it are
// kept and unlinked.
func (a *Assistant) DeleteEvent(ctx context.Context, userID core.UserID, id core.RecordID) error {
	if _, err := a.ownedEvent(ctx, userID, id); err != nil {
		return err
	}
	if err := a.repo.DeleteEvent(ctx, id); err != nil {
		return core.WrapRepository("delete event", err)
	}
	a.opts.Logger.Info("event.deleted", "user_id", string(userID), "event_id", int64(id))
	return nil
}

// CreateAlarm stores an alarm for a live user. A linked event must belong
// to the same user.
func (a *Assistant) CreateAlarm(ctx context.Context, userID core.UserID, in NewAlarm) (core.Alarm, error) {
	if _, err := a.GetUser(ctx, userID); err != nil {
		return core.Alarm{}, err
	}
	if in.AlarmTime.IsZero() {
		return core.Alarm{}, fmt.Errorf("%w: alarm time is required", ErrInvalidRecord)
	}
	if in.CalendarEventID != nil {
		if _, err := a.ownedEvent(ctx, userID, *in.CalendarEventID); err != nil {
			return core.Alarm{}, err
		}
	}
	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = core.DefaultAlarmLabel
	}

	now := a.opts.Clock()
	alarm, err := a.repo.CreateAlarm(ctx, core.Alarm{
		UserID:          userID,
		CalendarEventID: in.CalendarEventID,
		AlarmTime:       in.AlarmTime,
		Label:           label,
		Enabled:         !in.Disabled,
		RepeatDays:      in.RepeatDays,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return core.Alarm{}, core.WrapRepository("create alarm", err)
	}
	a.opts.Logger.Info("alarm.created", "user_id", string(userID), "alarm_id", int64(alarm.ID))
	return alarm, nil
}

// UpdateAlarm applies patch to an alarm owned by userID.
func (a *Assistant) UpdateAlarm(ctx context.Context, userID core.UserID, id core.RecordID, patch core.AlarmPatch) (core.Alarm, error) {
	if patch.Empty() {
		return core.Alarm{}, fmt.Errorf("%w: nothing to update", ErrInvalidRecord)
	}
	if patch.AlarmTime != nil && patch.AlarmTime.IsZero() {
		return core.Alarm{}, fmt.Errorf("%w: alarm time is required", ErrInvalidRecord)
	}
	if _, err := a.ownedAlarm(ctx, userID, id); err != nil {
		return core.Alarm{}, err
	}
	updated, err := a.repo.UpdateAlarm(ctx, id, patch, a.opts.Clock())
	return updated, core.WrapRepository("update alarm", err)
}

// DeleteAlarm removes an alarm owned by userID.
func (a *Assistant) DeleteAlarm(ctx context.Context, userID core.UserID, id core.RecordID) error {
	if _, err := a.ownedAlarm(ctx, userID, id); err != nil {
		return err
	}
	if err := a.repo.DeleteAlarm(ctx, id); err != nil {
		return core.WrapRepository("delete alarm", err)
	}
	a.opts.Logger.Info("alarm.deleted", "user_id", string(userID), "alarm_id", int64(id))
	return nil
}

// Records owned by someone else are reported as missing.
func (a *Assistant) ownedEvent(ctx context.Context, userID core.UserID, id core.RecordID) (core.CalendarEvent, error) {
	ev, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return core.CalendarEvent{}, core.WrapRepository("get event", err)
	}
	if ev.UserID != userID {
		return core.CalendarEvent{}, core.NewNotFound("event", id)
	}
	return ev, nil
}

func (a *Assistant) ownedAlarm(ctx context.Context, userID core.UserID, id core.RecordID) (core.Alarm, error) {
	alarm, err := a.repo.GetAlarm(ctx, id)
	if err != nil {
		return core.Alarm{}, core.WrapRepository("get alarm", err)
	}
	if alarm.UserID != userID {
		return core.Alarm{}, core.NewNotFound("alarm", id)
	}
	return alarm, nil
}
