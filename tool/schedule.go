package tool

import (
	"fmt"
	"time"

	"github.com/Sjoneon/DaySync-Server/core"
)

const msgEndBeforeStart = "종료 시간이 시작 시간보다 빠릅니다."

type createScheduleArgs struct {
	Title       string `json:"title" description:"일정 제목"`
	StartTime   string `json:"start_time" description:"시작 시각, ISO-8601 (예: 2025-10-18T15:30:00+09:00)"`
	EndTime     string `json:"end_time,omitempty" description:"종료 시각, ISO-8601"`
	Description string `json:"description,omitempty" description:"일정 설명"`
	Location    string `json:"location,omitempty" description:"장소"`
}

type getScheduleInfoArgs struct {
	Title string `json:"title,omitempty" description:"제목에 포함된 단어"`
	Date  string `json:"date,omitempty" description:"조회할 날짜, YYYY-MM-DD"`
}

type updateScheduleArgs struct {
	TargetTitle string `json:"target_title" description:"수정할 일정의 제목 또는 그 일부"`
	Date        string `json:"date,omitempty" description:"수정할 일정의 날짜, YYYY-MM-DD"`
	Title       string `json:"title,omitempty" description:"새 제목"`
	StartTime   string `json:"start_time,omitempty" description:"새 시작 시각, ISO-8601"`
	EndTime     string `json:"end_time,omitempty" description:"새 종료 시각, ISO-8601"`
	Description string `json:"description,omitempty" description:"새 설명"`
	Location    string `json:"location,omitempty" description:"새 장소"`
}

type deleteScheduleArgs struct {
	TargetTitle string `json:"target_title" description:"삭제할 일정의 제목 또는 그 일부"`
	Date        string `json:"date,omitempty" description:"삭제할 일정의 날짜, YYYY-MM-DD"`
}

func createSchedule(store Store) HandlerFunc {
	return func(tc *core.ToolContext, args map[string]any) (core.DispatchResult, error) {
		var in createScheduleArgs
		if err := bindArgs(args, &in); err != nil {
			return core.Failure("일정 정보를 해석하지 못했습니다."), nil
		}

		start, err := ParseTime(in.StartTime, tc.Location())
		if err != nil {
			return core.Failure("시작 시간 형식을 이해하지 못했습니다: " + in.StartTime), nil
		}
		var end *time.Time
		if in.EndTime != "" {
			t, err := ParseTime(in.EndTime, tc.Location())
			if err != nil {
				return core.Failure("종료 시간 형식을 이해하지 못했습니다: " + in.EndTime), nil
			}
			if t.Before(start) {
				return core.Failure(msgEndBeforeStart), nil
			}
			end = &t
		}

		ev, err := store.CreateEvent(tc.Context(), core.CalendarEvent{
			UserID:      tc.UserID(),
			Title:       in.Title,
			StartTime:   start,
			EndTime:     end,
			Description: in.Description,
			Location:    in.Location,
			CreatedAt:   tc.Now(),
			UpdatedAt:   tc.Now(),
		})
		if err != nil {
			return core.DispatchResult{}, core.WrapRepository("create event", err)
		}

		return core.Success(
			fmt.Sprintf("%s에 '%s' 일정을 등록했습니다.", FormatKorean(start), ev.Title),
			map[string]any{"event_id": int64(ev.ID), "title": ev.Title, "start_time": start.Format(time.RFC3339)},
		), nil
	}
}

func getScheduleInfo(store Store) HandlerFunc {
	return func(tc *core.ToolContext, args map[string]any) (core.DispatchResult, error) {
		var in getScheduleInfoArgs
		if err := bindArgs(args, &in); err != nil {
			return core.Failure("조회 조건을 해석하지 못했습니다."), nil
		}

		q := core.EventQuery{UserID: tc.UserID(), TitleContains: in.Title}
		if in.Date != "" {
			day, err := ParseDate(in.Date, tc.Location())
			if err != nil {
				return core.Failure("날짜 형식을 이해하지 못했습니다: " + in.Date), nil
			}
			q.From, q.To = DayRange(day)
		}

		events, err := store.FindEvents(tc.Context(), q)
		if err != nil {
			return core.DispatchResult{}, core.WrapRepository("find events", err)
		}

		items := make([]map[string]any, 0, len(events))
		for _, ev := range events {
			item := map[string]any{
				"id":         int64(ev.ID),
				"title":      ev.Title,
				"start_time": ev.StartTime.In(tc.Location()).Format(time.RFC3339),
				"when":       FormatKorean(ev.StartTime.In(tc.Location())),
			}
			if ev.Location != "" {
				item["location"] = ev.Location
			}
			if ev.Description != "" {
				item["description"] = ev.Description
			}
			items = append(items, item)
		}

		msg := "조회된 일정이 없습니다."
		if len(items) > 0 {
			msg = fmt.Sprintf("일정 %d건을 찾았습니다.", len(items))
		}
		return core.Success(msg, map[string]any{"count": len(items), "events": items}), nil
	}
}

func updateSchedule(store Store) HandlerFunc {
	return func(tc *core.ToolContext, args map[string]any) (core.DispatchResult, error) {
		var in updateScheduleArgs
		if err := bindArgs(args, &in); err != nil {
			return core.Failure("수정 정보를 해석하지 못했습니다."), nil
		}

		q, res, ok := targetEventQuery(tc, in.TargetTitle, in.Date)
		if !ok {
			return res, nil
		}

		var patch core.EventPatch
		if in.Title != "" {
			patch.Title = &in.Title
		}
		if in.StartTime != "" {
			t, err := ParseTime(in.StartTime, tc.Location())
			if err != nil {
				return core.Failure("시작 시간 형식을 이해하지 못했습니다: " + in.StartTime), nil
			}
			patch.StartTime = &t
		}
		if in.EndTime != "" {
			t, err := ParseTime(in.EndTime, tc.Location())
			if err != nil {
				return core.Failure("종료 시간 형식을 이해하지 못했습니다: " + in.EndTime), nil
			}
			patch.EndTime = &t
		}
		if in.Description != "" {
			patch.Description = &in.Description
		}
		if in.Location != "" {
			patch.Location = &in.Location
		}
		if patch.Empty() {
			return core.Failure("변경할 내용이 없습니다."), nil
		}

		ev, found, err := firstEvent(tc, store, q)
		if err != nil {
			return core.DispatchResult{}, err
		}
		if !found {
			return core.Failure(fmt.Sprintf("'%s' 일정을 찾을 수 없습니다.", in.TargetTitle)), nil
		}

		if merged := patch.Apply(ev, tc.Now()); merged.EndTime != nil && merged.EndTime.Before(merged.StartTime) {
			return core.Failure(msgEndBeforeStart), nil
		}

		updated, err := store.UpdateEvent(tc.Context(), ev.ID, patch, tc.Now())
		if err != nil {
			return core.DispatchResult{}, core.WrapRepository("update event", err)
		}

		return core.Success(
			fmt.Sprintf("'%s' 일정을 수정했습니다. (%s)", updated.Title, FormatKorean(updated.StartTime.In(tc.Location()))),
			map[string]any{"event_id": int64(updated.ID), "title": updated.Title},
		), nil
	}
}

func deleteSchedule(store Store) HandlerFunc {
	return func(tc *core.ToolContext, args map[string]any) (core.DispatchResult, error) {
		var in deleteScheduleArgs
		if err := bindArgs(args, &in); err != nil {
			return core.Failure("삭제 정보를 해석하지 못했습니다."), nil
		}

		q, res, ok := targetEventQuery(tc, in.TargetTitle, in.Date)
		if !ok {
			return res, nil
		}

		ev, found, err := firstEvent(tc, store, q)
		if err != nil {
			return core.DispatchResult{}, err
		}
		if !found {
			return core.Failure(fmt.Sprintf("'%s' 일정을 찾을 수 없습니다.", in.TargetTitle)), nil
		}

		if err := store.DeleteEvent(tc.Context(), ev.ID); err != nil {
			return core.DispatchResult{}, core.WrapRepository("delete event", err)
		}

		return core.Success(
			fmt.Sprintf("'%s' 일정을 삭제했습니다.", ev.Title),
			map[string]any{"event_id": int64(ev.ID), "title": ev.Title},
		), nil
	}
}

// targetEventQuery builds the lookup of update/delete. A malformed date is
// reported in-band before any repository access.
func targetEventQuery(tc *core.ToolContext, title, date string) (core.EventQuery, core.DispatchResult, bool) {
	q := core.EventQuery{UserID: tc.UserID(), TitleContains: title, Limit: 1}
	if date != "" {
		day, err := ParseDate(date, tc.Location())
		if err != nil {
			return q, core.Failure("날짜 형식을 이해하지 못했습니다: " + date), false
		}
		q.From, q.To = DayRange(day)
	}
	return q, core.DispatchResult{}, true
}

func firstEvent(tc *core.ToolContext, store Store, q core.EventQuery) (core.CalendarEvent, bool, error) {
	events, err := store.FindEvents(tc.Context(), q)
	if err != nil {
		return core.CalendarEvent{}, false, core.WrapRepository("find events", err)
	}
	if len(events) == 0 {
		return core.CalendarEvent{}, false, nil
	}
	return events[0], true, nil
}
