package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/model"
)

func TestBuildMessages(t *testing.T) {
	req := model.Request{
		Instructions: "system preamble",
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "내일 날씨 알려줘"),
			{Role: "assistant", Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "get_weather_info", Arguments: `{"day":"tomorrow"}`}}}},
			{Role: "tool", Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "c1", Name: "get_weather_info", Response: map[string]any{"status": "success"}}}}},
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	require.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "get_weather_info", msgs[2].OfAssistant.ToolCalls[0].Function.Name)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "c1", msgs[3].OfTool.ToolCallID)
}

func TestBuildParams_Tools(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Model = "gpt-test" })
	params := m.buildParams(model.Request{Tools: []model.ToolDefinition{{
		Type:     "function",
		Function: model.FunctionDefinition{Name: "search_route", Parameters: map[string]any{"type": "object"}},
	}}})

	assert.Equal(t, "gpt-test", params.Model)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "search_route", params.Tools[0].Function.Name)
	assert.Equal(t, model.Info{Name: "gpt-test", Provider: "openai", SupportsTools: true}, m.Info())
}
