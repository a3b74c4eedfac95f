package daysync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoneon/DaySync-Server/config"
	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/engine"
	"github.com/Sjoneon/DaySync-Server/internal/testutil"
	"github.com/Sjoneon/DaySync-Server/model"
	"github.com/Sjoneon/DaySync-Server/store"
)

var (
	seoul   = time.FixedZone("KST", 9*60*60)
	testNow = time.Date(2025, 10, 18, 15, 30, 0, 0, seoul)
)

type harness struct {
	repo  *store.InMemory
	mock  *model.MockModel
	clock *testutil.ManualClock
	a     *Assistant
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:  store.NewInMemory(),
		mock:  model.NewMockModel("scripted"),
		clock: testutil.NewManualClock(testNow),
	}
	h.a = New(model.NewOracle(h.mock), func(o *Options) {
		o.Repository = h.repo
		o.Clock = h.clock.Clock()
		o.Location = seoul
	})
	return h
}

func TestCreateUserDefaults(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	u, err := h.a.CreateUser(ctx, "  ", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, core.DefaultNickname, u.Nickname)
	assert.Equal(t, core.DefaultPrepTime, u.PrepTime)
	assert.True(t, u.CreatedAt.Equal(testNow))

	got, err := h.a.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u, err := h.a.CreateUser(ctx, "민수", 600)
	require.NoError(t, err)

	h.clock.Advance(time.Hour)
	nick := "민수2"
	updated, err := h.a.UpdateUser(ctx, u.ID, core.UserPatch{Nickname: &nick})
	require.NoError(t, err)
	assert.Equal(t, "민수2", updated.Nickname)
	assert.Equal(t, 600, updated.PrepTime)
	assert.True(t, updated.LastActive.Equal(testNow.Add(time.Hour)))

	require.NoError(t, h.a.DeleteUser(ctx, u.ID))
	_, err = h.a.GetUser(ctx, u.ID)
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(h.a.DeleteUser(ctx, u.ID)))
}

func TestChatAndSessionManagement(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u, err := h.a.CreateUser(ctx, "민수", 0)
	require.NoError(t, err)

	h.mock.AddText("안녕하세요!").AddText("네, 말씀하세요.")
	first, err := h.a.Chat(ctx, engine.TurnRequest{UserID: u.ID, Message: "안녕"})
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요!", first.Text)

	sid := first.SessionID
	second, err := h.a.Chat(ctx, engine.TurnRequest{UserID: u.ID, Message: "질문 있어", SessionID: &sid})
	require.NoError(t, err)
	assert.Equal(t, sid, second.SessionID)

	sessions, err := h.a.ListSessions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	msgs, err := h.a.ListMessages(ctx, u.ID, sid)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "안녕", msgs[0].Content)
	assert.Equal(t, "네, 말씀하세요.", msgs[3].Content)

	renamed, err := h.a.RenameSession(ctx, u.ID, sid, "인사")
	require.NoError(t, err)
	assert.Equal(t, "인사", renamed.Title)

	require.NoError(t, h.a.DeleteSession(ctx, u.ID, sid))
	sessions, err = h.a.ListSessions(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionOwnership(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := testutil.NewUserBuilder("owner").CreatedAt(testNow).Build(t, h.repo)
	testutil.NewUserBuilder("other").CreatedAt(testNow).Build(t, h.repo)
	sess := testutil.NewSessionBuilder(owner.ID).At(testNow).Exchanges(1).Build(t, h.repo)

	_, err := h.a.ListMessages(ctx, "other", sess.ID)
	assert.True(t, core.IsNotFound(err))
	_, err = h.a.RenameSession(ctx, "other", sess.ID, "x")
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(h.a.DeleteSession(ctx, "other", sess.ID)))

	msgs, err := h.a.ListMessages(ctx, owner.ID, sess.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestRenameSessionBlankTitle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := testutil.NewUserBuilder("owner").CreatedAt(testNow).Build(t, h.repo)
	sess := testutil.NewSessionBuilder(owner.ID).Title("메모").At(testNow).Build(t, h.repo)

	renamed, err := h.a.RenameSession(ctx, owner.ID, sess.ID, "   ")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultSessionTitle, renamed.Title)
}

func TestUserStats(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.NewUserBuilder("u-1").Nickname("지은").CreatedAt(testNow.Add(-time.Hour)).Build(t, h.repo)
	testutil.NewSessionBuilder(u.ID).At(testNow.Add(-3 * time.Minute)).Exchanges(2).Build(t, h.repo)
	testutil.NewSessionBuilder(u.ID).At(testNow.Add(-2 * time.Minute)).Exchanges(3).Build(t, h.repo)
	testutil.NewSessionBuilder(u.ID).At(testNow.Add(-time.Minute)).Build(t, h.repo)

	stats, err := h.a.UserStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, stats.UserID)
	assert.Equal(t, "지은", stats.Nickname)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 10, stats.TotalMessages)

	_, err = h.a.UserStats(ctx, "ghost")
	assert.True(t, core.IsNotFound(err))
}

func TestCleanupInactiveUsers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	testutil.NewUserBuilder("idle").CreatedAt(testNow.Add(-60 * 24 * time.Hour)).LastActive(testNow.Add(-31 * 24 * time.Hour)).Build(t, h.repo)
	testutil.NewUserBuilder("active").CreatedAt(testNow.Add(-60 * 24 * time.Hour)).LastActive(testNow.Add(-29 * 24 * time.Hour)).Build(t, h.repo)

	n, err := h.a.CleanupInactiveUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = h.a.GetUser(ctx, "idle")
	assert.True(t, core.IsNotFound(err))
	_, err = h.a.GetUser(ctx, "active")
	assert.NoError(t, err)

	n, err = h.a.CleanupInactiveUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestToggleAlarmAndListings(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.NewUserBuilder("u-1").CreatedAt(testNow).Build(t, h.repo)
	testutil.NewUserBuilder("u-2").CreatedAt(testNow).Build(t, h.repo)

	late := testutil.NewAlarmBuilder(u.ID, "운동", testNow.Add(3*time.Hour)).Build(t, h.repo)
	early := testutil.NewAlarmBuilder(u.ID, "기상", testNow.Add(time.Hour)).Build(t, h.repo)
	testutil.NewAlarmBuilder(u.ID, "꺼진 알람", testNow.Add(2*time.Hour)).Disabled().Build(t, h.repo)

	alarms, err := h.a.ListAlarms(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, alarms, 2)
	assert.Equal(t, early.ID, alarms[0].ID)
	assert.Equal(t, late.ID, alarms[1].ID)

	_, err = h.a.ToggleAlarm(ctx, "u-2", late.ID, false)
	assert.True(t, core.IsNotFound(err))

	off, err := h.a.ToggleAlarm(ctx, u.ID, late.ID, false)
	require.NoError(t, err)
	assert.False(t, off.Enabled)

	alarms, err = h.a.ListAlarms(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	assert.Equal(t, early.ID, alarms[0].ID)

	first := testutil.NewCalendarEventBuilder(u.ID, "치과").Start(testNow.Add(24 * time.Hour)).Build(t, h.repo)
	second := testutil.NewCalendarEventBuilder(u.ID, "회의").Start(testNow.Add(48 * time.Hour)).Build(t, h.repo)
	events, err := h.a.ListEvents(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, second.ID, events[0].ID)
	assert.Equal(t, first.ID, events[1].ID)
}

func TestSweepRetention(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.NewUserBuilder("u-1").CreatedAt(testNow.Add(-time.Hour)).Build(t, h.repo)
	for i := 0; i < 16; i++ {
		testutil.NewSessionBuilder(u.ID).At(testNow.Add(time.Duration(i-20) * time.Minute)).Exchanges(1).Build(t, h.repo)
	}

	reports, err := h.a.SweepRetention(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].SessionsCapped)

	sessions, err := h.repo.ListSessions(ctx, u.ID, 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 15)

	reports, err = h.a.SweepRetention(ctx)
	require.NoError(t, err)
	assert.True(t, reports[0].Empty())
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := config.Default()
		cfg.Provider = config.ProviderMock
		a, err := NewFromConfig(ctx, cfg)
		require.NoError(t, err)
		defer a.Close()

		_, ok := a.Repository().(*store.InMemory)
		assert.True(t, ok)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.Provider = config.ProviderMock
		cfg.Store = config.StoreConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "daysync.db")}
		a, err := NewFromConfig(ctx, cfg)
		require.NoError(t, err)

		u, err := a.CreateUser(ctx, "민수", 0)
		require.NoError(t, err)
		got, err := a.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "민수", got.Nickname)
		require.NoError(t, a.Close())
	})

	t.Run("invalid", func(t *testing.T) {
		cfg := config.Default()
		cfg.Provider = "unknown"
		_, err := NewFromConfig(ctx, cfg)
		assert.Error(t, err)
	})
}

func TestNewModelProviders(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		provider string
		model    string
		want     string
	}{
		{config.ProviderOpenAI, "gpt-4o-mini", "openai"},
		{config.ProviderAnthropic, "claude-3-5-haiku-latest", "anthropic"},
		{config.ProviderGemini, "gemini-2.5-flash", "gemini"},
		{config.ProviderMock, "scripted", "mock"},
	} {
		t.Run(tc.provider, func(t *testing.T) {
			cfg := config.Default()
			cfg.Provider = tc.provider
			cfg.Model = tc.model
			cfg.Providers = map[string]config.ProviderConfig{tc.provider: {APIKey: "test-key"}}

			m, err := NewModel(ctx, cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, m.Info().Provider)
			assert.Equal(t, tc.model, m.Info().Name)
		})
	}
}
