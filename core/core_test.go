package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct{}

func (l testLogger) Debug(string, ...any) {}
func (l testLogger) Info(string, ...any)  {}
func (l testLogger) Warn(string, ...any)  {}
func (l testLogger) Error(string, ...any) {}

func TestFunctionCall_DecodeArgs(t *testing.T) {
	args, err := FunctionCall{Name: "create_alarm", Arguments: `{"label":"운동","alarm_time":"2025-01-01T10:00:00+09:00"}`}.DecodeArgs()
	require.NoError(t, err)
	assert.Equal(t, "운동", args["label"])

	empty, err := FunctionCall{Name: "get_schedule_info"}.DecodeArgs()
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = FunctionCall{Name: "x", Arguments: "{not json"}.DecodeArgs()
	assert.Error(t, err)
}

func TestContent_Accessors(t *testing.T) {
	c := Content{Role: "assistant", Parts: []Part{
		TextPart{Text: "잠시만요. "},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "a", Name: "first"}},
		TextPart{Text: "확인할게요"},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "b", Name: "second"}},
	}}
	assert.Equal(t, "잠시만요. 확인할게요", c.Text())
	calls := c.FunctionCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Name)
	assert.Empty(t, c.FunctionResponses())
}

func TestEventPatch_ApplyOnlyPresentFields(t *testing.T) {
	start := time.Date(2025, 10, 18, 9, 0, 0, 0, time.UTC)
	ev := CalendarEvent{ID: 1, Title: "회의", StartTime: start, Location: "본사"}
	title := "주간 회의"
	now := start.Add(time.Hour)

	got := EventPatch{Title: &title}.Apply(ev, now)
	assert.Equal(t, "주간 회의", got.Title)
	assert.Equal(t, start, got.StartTime)
	assert.Equal(t, "본사", got.Location)
	assert.Equal(t, now, got.UpdatedAt)
	assert.Equal(t, "회의", ev.Title, "original must not change")
	assert.True(t, EventPatch{}.Empty())
}

func TestEventQuery_DayRangeBounds(t *testing.T) {
	day := time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC)
	q := EventQuery{UserID: "u", From: day, To: day.AddDate(0, 0, 1)}

	assert.True(t, q.Matches(CalendarEvent{UserID: "u", StartTime: day}))
	assert.False(t, q.Matches(CalendarEvent{UserID: "u", StartTime: day.AddDate(0, 0, 1)}))
	assert.False(t, q.Matches(CalendarEvent{UserID: "other", StartTime: day}))
}

func TestErrors_Classification(t *testing.T) {
	nf := NewNotFound("session", SessionID(7))
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", nf)))
	assert.Equal(t, "session 7 not found", nf.Error())

	assert.Same(t, nf, WrapRepository("get", nf))

	wrapped := WrapRepository("insert", errors.New("disk full"))
	var re *RepositoryError
	require.ErrorAs(t, wrapped, &re)
	assert.Equal(t, "insert", re.Op)
	assert.Nil(t, WrapRepository("noop", nil))
}

func TestDispatchResult_AsResponse(t *testing.T) {
	r := Success("알람을 설정했어요", map[string]any{"alarm_id": int64(3)})
	r.Pending = &PendingAction{Kind: PendingWeather}
	resp := r.AsResponse()
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, int64(3), resp["alarm_id"])
	assert.Equal(t, PendingWeather, resp["pending_action"])
	assert.False(t, Failure("x").OK())
}

func TestToolContext_Defaults(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	now := time.Date(2025, 10, 18, 1, 0, 0, 0, time.UTC)
	tc := NewToolContext(context.Background(), "u1", func(o *ToolContextOptions) {
		o.Now = now
		o.Location = loc
		o.Logger = testLogger{}
		o.FunctionCallID = "fc-1"
	})
	assert.Equal(t, UserID("u1"), tc.UserID())
	assert.Equal(t, 10, tc.Now().Hour())
	assert.Equal(t, "fc-1", tc.FunctionCallID())
	assert.NotNil(t, tc.Logger())

	bare := NewToolContext(context.Background(), "u2")
	assert.NotNil(t, bare.Logger(), "nil logger is replaced by a no-op logger")
}
