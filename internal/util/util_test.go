package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alarmArgs struct {
	AlarmTime  string   `json:"alarm_time" description:"when to ring"`
	Label      string   `json:"label,omitempty"`
	RepeatDays []string `json:"repeat_days,omitempty"`
	Enabled    *bool    `json:"enabled"`
}

type weatherArgs struct {
	Day string `json:"day" enum:"today, tomorrow, day_after_tomorrow"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(alarmArgs{})

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"alarm_time"}, schema["required"])

	props := schema["properties"].(map[string]any)
	require.Len(t, props, 4)
	assert.Equal(t, "when to ring", props["alarm_time"].(map[string]any)["description"])
	assert.Equal(t, "boolean", props["enabled"].(map[string]any)["type"])
	assert.Equal(t, map[string]any{"type": "string"}, props["repeat_days"].(map[string]any)["items"])

	enum := CreateSchema(&weatherArgs{})["properties"].(map[string]any)["day"].(map[string]any)["enum"]
	assert.Equal(t, []string{"today", "tomorrow", "day_after_tomorrow"}, enum)
}

func TestCreateSchema_NonStruct(t *testing.T) {
	schema := CreateSchema("nope")
	assert.Empty(t, schema["properties"])
	assert.Nil(t, schema["required"])
}

func TestValidateParameters_CollectsAllMissing(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"title": map[string]any{"type": "string"}, "start_time": map[string]any{"type": "string"}},
		"required":   []any{"title", "start_time"},
	}

	err := ValidateParameters(map[string]any{"title": "  "}, schema)
	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"title", "start_time"}, missing.Fields)
	assert.Equal(t, "missing required fields: title, start_time", err.Error())

	assert.NoError(t, ValidateParameters(map[string]any{"title": "회의", "start_time": "2025-10-18T15:00"}, schema))
}

func TestValidateParameters_TypeAndEnum(t *testing.T) {
	schema := CreateSchema(weatherArgs{})

	err := ValidateParameters(map[string]any{"day": "yesterday"}, schema)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "day", verr.Field)

	err = ValidateParameters(map[string]any{"day": 3.0}, schema)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "expected type string")

	assert.NoError(t, ValidateParameters(map[string]any{"day": "tomorrow", "extra": 1}, schema))
}

func TestValidateParameters_Integer(t *testing.T) {
	schema := map[string]any{"properties": map[string]any{"n": map[string]any{"type": "integer"}}}
	assert.NoError(t, ValidateParameters(map[string]any{"n": 3.0}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"n": 3.5}, schema))
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderTemplate("now: {{.Now}}\n{{bullet .Rules}}", map[string]any{
		"Now":   "2025-10-18 15:00",
		"Rules": []string{"a & b", "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, "now: 2025-10-18 15:00\n- a & b\n- c", out)

	_, err = RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}
