package tool

import (
	"fmt"
	"time"

	"github.com/Sjoneon/DaySync-Server/core"
)

type createAlarmArgs struct {
	AlarmTime  string `json:"alarm_time" description:"알람 시각, ISO-8601 (예: 2025-10-18T18:00:00+09:00)"`
	Label      string `json:"label,omitempty" description:"알람 이름"`
	RepeatDays string `json:"repeat_days,omitempty" description:"반복 요일, 쉼표 구분 (예: 월,수,금)"`
}

type updateAlarmArgs struct {
	TargetLabel string `json:"target_label" description:"수정할 알람의 이름 또는 그 일부"`
	AlarmTime   string `json:"alarm_time,omitempty" description:"새 알람 시각, ISO-8601"`
	Label       string `json:"label,omitempty" description:"새 알람 이름"`
	RepeatDays  string `json:"repeat_days,omitempty" description:"새 반복 요일"`
	Enabled     *bool  `json:"enabled,omitempty" description:"알람 활성화 여부"`
}

type deleteAlarmArgs struct {
	TargetLabel string `json:"target_label" description:"삭제할 알람의 이름 또는 그 일부"`
}

func createAlarm(store Store) HandlerFunc {
	return func(tc *core.ToolContext, args map[string]any) (core.DispatchResult, error) {
		var in createAlarmArgs
		if err := bindArgs(args, &in); err != nil {
			return core.Failure("알람 정보를 해석하지 못했습니다."), nil
		}

		at, err := ParseTime(in.AlarmTime, tc.Location())
		if err != nil {
			return core.Failure("알람 시간 형식을 이해하지 못했습니다: " + in.AlarmTime), nil
		}
		label := in.Label
		if label == "" {
			label = core.DefaultAlarmLabel
		}

		alarm, err := store.CreateAlarm(tc.Context(), core.Alarm{
			UserID:     tc.UserID(),
			AlarmTime:  at,
			Label:      label,
			Enabled:    true,
			RepeatDays: in.RepeatDays,
			CreatedAt:  tc.Now(),
			UpdatedAt:  tc.Now(),
		})
		if err != nil {
			return core.DispatchResult{}, core.WrapRepository("create alarm", err)
		}

		return core.Success(
			fmt.Sprintf("%s에 '%s' 알람을 설정했습니다.", FormatKorean(at), alarm.Label),
			map[string]any{"alarm_id": int64(alarm.ID), "label": alarm.Label, "alarm_time": at.Format(time.RFC3339)},
		), nil
	}
}

func updateAlarm(store Store) HandlerFunc {
	return func(tc *core.ToolContext, args map[string]any) (core.DispatchResult, error) {
		var in updateAlarmArgs
		if err := bindArgs(args, &in); err != nil {
			return core.Failure("알람 수정 정보를 해석하지 못했습니다."), nil
		}

		var patch core.AlarmPatch
		if in.AlarmTime != "" {
			t, err := ParseTime(in.AlarmTime, tc.Location())
			if err != nil {
				return core.Failure("알람 시간 형식을 이해하지 못했습니다: " + in.AlarmTime), nil
			}
			patch.AlarmTime = &t
		}
		if in.Label != "" {
			patch.Label = &in.Label
		}
		if in.RepeatDays != "" {
			patch.RepeatDays = &in.RepeatDays
		}
		patch.Enabled = in.Enabled
		if patch.Empty() {
			return core.Failure("변경할 내용이 없습니다."), nil
		}

		alarm, found, err := firstAlarm(tc, store, in.TargetLabel)
		if err != nil {
			return core.DispatchResult{}, err
		}
		if !found {
			return core.Failure(fmt.Sprintf("'%s' 알람을 찾을 수 없습니다.", in.TargetLabel)), nil
		}

		updated, err := store.UpdateAlarm(tc.Context(), alarm.ID, patch, tc.Now())
		if err != nil {
			return core.DispatchResult{}, core.WrapRepository("update alarm", err)
		}

		state := "켜짐"
		if !updated.Enabled {
			state = "꺼짐"
		}
		return core.Success(
			fmt.Sprintf("'%s' 알람을 수정했습니다. (%s, %s)", updated.Label, FormatKorean(updated.AlarmTime.In(tc.Location())), state),
			map[string]any{"alarm_id": int64(updated.ID), "label": updated.Label, "enabled": updated.Enabled},
		), nil
	}
}

func deleteAlarm(store Store) HandlerFunc {
	return func(tc *core.ToolContext, args map[string]any) (core.DispatchResult, error) {
		var in deleteAlarmArgs
		if err := bindArgs(args, &in); err != nil {
			return core.Failure("알람 삭제 정보를 해석하지 못했습니다."), nil
		}

		alarm, found, err := firstAlarm(tc, store, in.TargetLabel)
		if err != nil {
			return core.DispatchResult{}, err
		}
		if !found {
			return core.Failure(fmt.Sprintf("'%s' 알람을 찾을 수 없습니다.", in.TargetLabel)), nil
		}

		if err := store.DeleteAlarm(tc.Context(), alarm.ID); err != nil {
			return core.DispatchResult{}, core.WrapRepository("delete alarm", err)
		}

		return core.Success(
			fmt.Sprintf("'%s' 알람을 삭제했습니다.", alarm.Label),
			map[string]any{"alarm_id": int64(alarm.ID), "label": alarm.Label},
		), nil
	}
}

func firstAlarm(tc *core.ToolContext, store Store, label string) (core.Alarm, bool, error) {
	alarms, err := store.FindAlarms(tc.Context(), core.AlarmQuery{UserID: tc.UserID(), LabelContains: label, Limit: 1})
	if err != nil {
		return core.Alarm{}, false, core.WrapRepository("find alarms", err)
	}
	if len(alarms) == 0 {
		return core.Alarm{}, false, nil
	}
	return alarms[0], true, nil
}
