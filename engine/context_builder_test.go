package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoneon/DaySync-Server/internal/testutil"
	"github.com/Sjoneon/DaySync-Server/store"
	"github.com/Sjoneon/DaySync-Server/tool"
)

func TestContextBuilderHistoryWindow(t *testing.T) {
	repo := store.NewInMemory()
	testutil.NewUserBuilder("u-1").Build(t, repo)
	sess := testutil.NewSessionBuilder("u-1").At(testNow).Exchanges(8).Build(t, repo)

	b := NewContextBuilder(repo, 4, seoul, nil)
	history, err := b.History(context.Background(), sess.ID)
	require.NoError(t, err)

	got := make([]string, len(history))
	for i, m := range history {
		got[i] = m.Content
	}
	want := []string{"질문 7", "답변 7", "질문 8", "답변 8"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	none, err := b.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContextBuilderPreamble(t *testing.T) {
	defs := tool.NewRegistry(store.NewInMemory()).Definitions()
	b := NewContextBuilder(store.NewInMemory(), 0, seoul, defs)

	text, err := b.Preamble(testNow, map[string]any{"weather": "맑음", "location": "서울"})
	require.NoError(t, err)

	assert.Contains(t, text, "2025-10-18 15:30")
	assert.Contains(t, text, "10월 18일 (토) 오후 3:30")
	assert.Contains(t, text, "- create_alarm: ")
	assert.Contains(t, text, "- get_weather_info: ")
	assert.Contains(t, text, "한 번에 하나의 질문")
	assert.True(t, strings.HasSuffix(text, `{"location":"서울","weather":"맑음"}`), "side context is sorted JSON")

	again, err := b.Preamble(testNow, map[string]any{"location": "서울", "weather": "맑음"})
	require.NoError(t, err)
	assert.Equal(t, text, again)
}

func TestContextBuilderDefaults(t *testing.T) {
	b := NewContextBuilder(store.NewInMemory(), -1, nil, nil)
	assert.Equal(t, DefaultHistoryLimit, b.limit)
	assert.Equal(t, time.Local, b.loc)
}
