package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/model"
)

func TestToGenaiContents(t *testing.T) {
	contents, err := toGenaiContents([]core.Content{
		core.NewTextContent(core.RoleSystem, "ignored"),
		core.NewTextContent(core.RoleUser, "강남역 가는 길"),
		{Role: "assistant", Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "search_route", Arguments: `{"destination":"강남역"}`}}}},
		{Role: "tool", Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "c1", Name: "search_route", Response: map[string]any{"status": "pending"}}}}},
	})
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	assert.Equal(t, map[string]any{"destination": "강남역"}, contents[1].Parts[0].FunctionCall.Args)
	assert.Equal(t, genai.RoleUser, contents[2].Role)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, "pending", contents[2].Parts[0].FunctionResponse.Response["status"])
}

func TestToGenaiContents_BadArguments(t *testing.T) {
	_, err := toGenaiContents([]core.Content{
		{Role: "assistant", Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{Name: "x", Arguments: "{"}}}},
	})
	assert.Error(t, err)
}

func TestFromGenaiContent(t *testing.T) {
	c := fromGenaiContent(&genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{
		{Text: "thinking", Thought: true},
		genai.NewPartFromText("알람을 만들게요."),
		{FunctionCall: &genai.FunctionCall{ID: "c9", Name: "create_alarm", Args: map[string]any{"alarm_time": "2025-10-18T18:00"}}},
	}})

	assert.Equal(t, "알람을 만들게요.", c.Text())
	calls := c.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "c9", calls[0].ID)
	assert.JSONEq(t, `{"alarm_time":"2025-10-18T18:00"}`, calls[0].Arguments)
}

func TestBuildConfig(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Model = "gemini-test" })
	cfg := m.buildConfig(model.Request{
		Instructions: "preamble",
		Tools: []model.ToolDefinition{{Function: model.FunctionDefinition{
			Name:       "get_weather_info",
			Parameters: map[string]any{"type": "object"},
		}}},
	})

	require.NotNil(t, cfg.SystemInstruction)
	require.Len(t, cfg.Tools, 1)
	require.Len(t, cfg.Tools[0].FunctionDeclarations, 1)
	assert.Equal(t, "get_weather_info", cfg.Tools[0].FunctionDeclarations[0].Name)
	assert.Equal(t, "gemini", m.Info().Provider)
}
