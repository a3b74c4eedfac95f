package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Sjoneon/DaySync-Server/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testPrompt() Prompt {
	return Prompt{
		Preamble:  "preamble",
		History:   []core.Content{core.NewTextContent(core.RoleUser, "안녕"), core.NewTextContent(core.RoleAssistant, "안녕하세요")},
		Utterance: "3시간 뒤에 운동 알람",
		Tools:     []ToolDefinition{{Type: "function", Function: FunctionDefinition{Name: "create_alarm"}}},
	}
}

func TestCollect_ReturnsResponse(t *testing.T) {
	m := NewMockModel("m").AddText("hello")
	resp, err := Collect(context.Background(), m, Request{})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content.Text())
}

func TestCollect_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockModel("m").AddError(boom)
	_, err := Collect(context.Background(), m, Request{})
	assert.ErrorIs(t, err, boom)
}

func TestMockModel_ScriptExhausted(t *testing.T) {
	m := NewMockModel("m")
	_, err := Collect(context.Background(), m, Request{})
	assert.ErrorContains(t, err, "script exhausted")
}

func TestOracle_GenerateReply_Text(t *testing.T) {
	m := NewMockModel("m").AddText("  네, 알겠습니다.  ")
	o := NewOracle(m)

	reply, err := o.GenerateReply(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "네, 알겠습니다.", reply.Text)
	assert.False(t, reply.HasCall())

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "preamble", reqs[0].Instructions)
	require.Len(t, reqs[0].Contents, 3)
	assert.Equal(t, "3시간 뒤에 운동 알람", reqs[0].Contents[2].Text())
	assert.Len(t, reqs[0].Tools, 1)
}

func TestOracle_GenerateReply_FirstCallOnly(t *testing.T) {
	m := NewMockModel("m").AddContent(core.Content{
		Role: "assistant",
		Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{Name: "create_alarm", Arguments: `{"alarm_time":"2025-10-18T18:00:00+09:00"}`}},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{Name: "delete_alarm"}},
		},
	})
	o := NewOracle(m)

	reply, err := o.GenerateReply(context.Background(), testPrompt())
	require.NoError(t, err)
	require.True(t, reply.HasCall())
	assert.Equal(t, "create_alarm", reply.Call.Name)
	assert.NotEmpty(t, reply.Call.ID)
}

func TestOracle_GenerateReply_EmptyIsOracleError(t *testing.T) {
	m := NewMockModel("m").AddText("   ")
	_, err := NewOracle(m).GenerateReply(context.Background(), testPrompt())

	var oe *core.OracleError
	require.ErrorAs(t, err, &oe)
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestOracle_GenerateReply_NamelessCall(t *testing.T) {
	m := NewMockModel("m").AddCall("c1", " ", "{}")
	_, err := NewOracle(m).GenerateReply(context.Background(), testPrompt())
	assert.ErrorIs(t, err, ErrMalformedCall)
}

func TestOracle_GenerateReply_ModelFailure(t *testing.T) {
	m := NewMockModel("m").AddError(context.DeadlineExceeded)
	_, err := NewOracle(m).GenerateReply(context.Background(), testPrompt())

	var oe *core.OracleError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "generate", oe.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOracle_SubmitFunctionResult(t *testing.T) {
	m := NewMockModel("m").AddText("18시에 운동 알람을 설정했어요.")
	o := NewOracle(m, func(o *OracleOptions) { o.Timeout = time.Second })

	call := &core.FunctionCall{ID: "c1", Name: "create_alarm", Arguments: `{}`}
	result := core.Success("알람을 설정했습니다.", map[string]any{"alarm_id": int64(7)})

	text, err := o.SubmitFunctionResult(context.Background(), testPrompt(), Reply{Call: call}, result)
	require.NoError(t, err)
	assert.Equal(t, "18시에 운동 알람을 설정했어요.", text)

	req := m.Requests()[0]
	require.Len(t, req.Contents, 5)
	assert.Equal(t, []core.FunctionCall{*call}, req.Contents[3].FunctionCalls())

	responses := req.Contents[4].FunctionResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, "c1", responses[0].ID)
	assert.Equal(t, "success", responses[0].Response["status"])
	assert.Equal(t, int64(7), responses[0].Response["alarm_id"])
}

func TestOracle_SubmitFunctionResult_RequiresCall(t *testing.T) {
	_, err := NewOracle(NewMockModel("m")).SubmitFunctionResult(context.Background(), testPrompt(), Reply{Text: "x"}, core.DispatchResult{})
	assert.ErrorIs(t, err, ErrMalformedCall)
}

func TestCollect_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMockModel("m").AddText("late")
	_, err := Collect(ctx, m, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}
