package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/internal/util"
	"github.com/Sjoneon/DaySync-Server/model"
	"github.com/Sjoneon/DaySync-Server/tool"
)

// DefaultHistoryLimit is the number of prior messages replayed to the oracle.
const DefaultHistoryLimit = 10

const preambleTemplate = `당신은 일정, 알람, 경로, 날씨를 도와주는 DaySync 비서입니다.
현재 시각: {{.Now}} ({{.Zone}})

사용할 수 있는 기능:
{{bullet .Intents}}

규칙:
{{bullet .Rules}}`

var behaviorRules = []string{
	"일정, 알람, 경로, 날씨와 관련된 요청에만 답합니다.",
	"필수 정보가 빠졌을 때만 한 번에 하나의 질문으로 확인합니다.",
	"사용자가 이미 알려준 정보는 다시 묻지 않습니다.",
	"사용자에게 ISO-8601 같은 기계용 시간 형식을 요구하지 않습니다. 시간 인자는 직접 변환해서 전달합니다.",
}

// ContextBuilder assembles the bounded prompt of one turn.
type ContextBuilder struct {
	history core.MessageStore
	limit   int
	loc     *time.Location
	tools   []model.ToolDefinition
}

// NewContextBuilder returns a builder reading at most limit prior messages.
func NewContextBuilder(history core.MessageStore, limit int, loc *time.Location, tools []model.ToolDefinition) *ContextBuilder {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if loc == nil {
		loc = time.Local
	}
	return &ContextBuilder{history: history, limit: limit, loc: loc, tools: tools}
}

// History returns the most recent messages of the session, oldest first. A
// zero session id yields no history.
func (b *ContextBuilder) History(ctx context.Context, sessionID core.SessionID) ([]core.Message, error) {
	if sessionID == 0 {
		return nil, nil
	}
	recent, err := b.history.RecentMessages(ctx, sessionID, b.limit)
	if err != nil {
		return nil, core.WrapRepository("recent messages", err)
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

// Preamble renders the system instructions for the instant now.
func (b *ContextBuilder) Preamble(now time.Time, sideContext map[string]any) (string, error) {
	now = now.In(b.loc)

	intents := make([]string, 0, len(b.tools))
	for _, def := range b.tools {
		intents = append(intents, fmt.Sprintf("%s: %s", def.Function.Name, def.Function.Description))
	}

	text, err := util.RenderTemplate(preambleTemplate, map[string]any{
		"Now":     now.Format("2006-01-02 15:04 (Mon)") + " / " + tool.FormatKorean(now),
		"Zone":    b.loc.String(),
		"Intents": intents,
		"Rules":   behaviorRules,
	})
	if err != nil {
		return "", fmt.Errorf("render preamble: %w", err)
	}

	if len(sideContext) > 0 {
		// encoding/json sorts map keys, which keeps the preamble stable.
		raw, err := json.Marshal(sideContext)
		if err != nil {
			return "", fmt.Errorf("encode side context: %w", err)
		}
		text += "\n\n추가 정보:\n" + string(raw)
	}
	return text, nil
}

// Build returns the complete prompt for utterance.
func (b *ContextBuilder) Build(now time.Time, history []core.Message, utterance string, sideContext map[string]any) (model.Prompt, error) {
	preamble, err := b.Preamble(now, sideContext)
	if err != nil {
		return model.Prompt{}, err
	}
	contents := make([]core.Content, 0, len(history))
	for _, m := range history {
		contents = append(contents, m.ToContent())
	}
	return model.Prompt{
		Preamble:  preamble,
		History:   contents,
		Utterance: utterance,
		Tools:     b.tools,
	}, nil
}

// lastAssistantText returns the content of the newest assistant message in
// an oldest-first history.
func lastAssistantText(history []core.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == core.RoleAssistant {
			return history[i].Content
		}
	}
	return ""
}
