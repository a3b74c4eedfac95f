// Package storetest holds behavioral tests shared by every core.Repository
// implementation.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoneon/DaySync-Server/core"
)

// Factory returns a fresh, empty repository for one subtest.
type Factory func(t *testing.T) core.Repository

var base = time.Date(2025, 10, 18, 9, 0, 0, 0, time.UTC)

// Run exercises the repository contract against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newRepo(t)) })
	t.Run("SessionOrdering", func(t *testing.T) { testSessionOrdering(t, newRepo(t)) })
	t.Run("AppendExchange", func(t *testing.T) { testAppendExchange(t, newRepo(t)) })
	t.Run("StartExchange", func(t *testing.T) { testStartExchange(t, newRepo(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, newRepo(t)) })
	t.Run("Events", func(t *testing.T) { testEvents(t, newRepo(t)) })
	t.Run("Alarms", func(t *testing.T) { testAlarms(t, newRepo(t)) })
	t.Run("Routes", func(t *testing.T) { testRoutes(t, newRepo(t)) })
}

func mustUser(t *testing.T, repo core.Repository, id core.UserID, created time.Time) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), core.User{ID: id, CreatedAt: created, LastActive: created})
	require.NoError(t, err)
	return u
}

func mustSession(t *testing.T, repo core.Repository, userID core.UserID, at time.Time) core.Session {
	t.Helper()
	sess, err := repo.CreateSession(context.Background(), core.NewSession(userID, at))
	require.NoError(t, err)
	return sess
}

func testUsers(t *testing.T, repo core.Repository) {
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, core.User{ID: "u-1", CreatedAt: base})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultNickname, u.Nickname)
	assert.Equal(t, core.DefaultPrepTime, u.PrepTime)

	_, err = repo.CreateUser(ctx, core.User{ID: "u-1"})
	require.Error(t, err)

	nick := "민지"
	updated, err := repo.UpdateUser(ctx, "u-1", core.UserPatch{Nickname: &nick}, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "민지", updated.Nickname)
	assert.WithinDuration(t, base.Add(time.Hour), updated.LastActive, 0)

	mustUser(t, repo, "u-2", base.Add(time.Minute))
	require.NoError(t, repo.TouchUser(ctx, "u-2", base.Add(-48*time.Hour)))

	inactive, err := repo.ListUsers(ctx, base)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, core.UserID("u-2"), inactive[0].ID)

	all, err := repo.ListUsers(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, core.UserID("u-1"), all[0].ID)

	require.NoError(t, repo.SoftDeleteUser(ctx, "u-2"))
	_, err = repo.GetUser(ctx, "u-2")
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(repo.TouchUser(ctx, "u-2", base)))
	assert.True(t, core.IsNotFound(repo.SoftDeleteUser(ctx, "u-2")))

	_, err = repo.CreateSession(ctx, core.NewSession("u-2", base))
	assert.True(t, core.IsNotFound(err), "sessions require a live user")

	all, err = repo.ListUsers(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testSessionOrdering(t *testing.T, repo core.Repository) {
	ctx := context.Background()
	mustUser(t, repo, "u-1", base)

	var ids []core.SessionID
	for i := 0; i < 3; i++ {
		ids = append(ids, mustSession(t, repo, "u-1", base.Add(time.Duration(i)*time.Minute)).ID)
	}

	list, err := repo.ListSessions(ctx, "u-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []core.SessionID{ids[2], ids[1], ids[0]}, sessionIDs(list))

	// Appending to the oldest session moves it to the front.
	_, err = repo.AppendExchange(ctx, ids[0],
		core.Message{Role: core.RoleUser, Content: "안녕"},
		core.Message{Role: core.RoleAssistant, Content: "안녕하세요"},
		base.Add(time.Hour))
	require.NoError(t, err)

	list, err = repo.ListSessions(ctx, "u-1", 2)
	require.NoError(t, err)
	assert.Equal(t, []core.SessionID{ids[0], ids[2]}, sessionIDs(list))

	renamed, err := repo.RenameSession(ctx, ids[1], "출근 준비")
	require.NoError(t, err)
	assert.Equal(t, "출근 준비", renamed.Title)

	list, err = repo.ListSessions(ctx, "u-1", 0)
	require.NoError(t, err)
	assert.Equal(t, ids[1], list[2].ID, "renaming does not reorder")

	_, err = repo.RenameSession(ctx, 9999, "x")
	assert.True(t, core.IsNotFound(err))
	_, err = repo.GetSession(ctx, 9999)
	assert.True(t, core.IsNotFound(err))
}

func testAppendExchange(t *testing.T, repo core.Repository) {
	ctx := context.Background()
	mustUser(t, repo, "u-1", base)
	sess := mustSession(t, repo, "u-1", base)

	conf := 0.9
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i+1) * time.Minute)
		ex, err := repo.AppendExchange(ctx, sess.ID,
			core.Message{Role: core.RoleUser, Content: fmt.Sprintf("q%d", i), Intent: "chat", Confidence: &conf},
			core.Message{Role: core.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
			at)
		require.NoError(t, err)
		assert.NotZero(t, ex.User.ID)
		assert.Greater(t, ex.Assistant.ID, ex.User.ID)
		assert.Equal(t, sess.ID, ex.User.SessionID)
		assert.WithinDuration(t, at, ex.Assistant.CreatedAt, 0)
	}

	recent, err := repo.RecentMessages(ctx, sess.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "q2", "a1"}, contents(recent))

	all, err := repo.ListMessages(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "q0", all[0].Content)
	require.NotNil(t, all[0].Confidence)
	assert.InDelta(t, 0.9, *all[0].Confidence, 1e-9)
	assert.Equal(t, "chat", all[0].Intent)
	assert.Nil(t, all[1].Confidence)

	n, err := repo.CountMessages(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	deleted, err := repo.DeleteMessages(ctx, all[0].ID, all[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	n, err = repo.CountMessages(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, base.Add(3*time.Minute), got.UpdatedAt, 0)

	_, err = repo.AppendExchange(ctx, 9999, core.Message{}, core.Message{}, base)
	assert.True(t, core.IsNotFound(err))
	_, err = repo.ListMessages(ctx, 9999)
	assert.True(t, core.IsNotFound(err))
}

func testStartExchange(t *testing.T, repo core.Repository) {
	ctx := context.Background()
	mustUser(t, repo, "u-1", base)
	at := base.Add(time.Minute)

	sess, ex, err := repo.StartExchange(ctx, core.NewSession("u-1", base),
		core.Message{Role: core.RoleUser, Content: "안녕"},
		core.Message{Role: core.RoleAssistant, Content: "안녕하세요"}, at)
	require.NoError(t, err)
	assert.NotZero(t, sess.ID)
	assert.Equal(t, core.DefaultSessionTitle, sess.Title)
	assert.WithinDuration(t, at, sess.UpdatedAt, 0)
	assert.Equal(t, sess.ID, ex.User.SessionID)
	assert.Greater(t, ex.Assistant.ID, ex.User.ID)

	stored, err := repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, at, stored.UpdatedAt, 0)
	all, err := repo.ListMessages(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"안녕", "안녕하세요"}, contents(all))

	_, _, err = repo.StartExchange(ctx, core.NewSession("ghost", base), core.Message{}, core.Message{}, at)
	assert.True(t, core.IsNotFound(err))
	sessions, err := repo.ListSessions(ctx, "ghost", 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func testDeleteCascades(t *testing.T, repo core.Repository) {
	ctx := context.Background()
	mustUser(t, repo, "u-1", base)
	keep := mustSession(t, repo, "u-1", base)
	drop := mustSession(t, repo, "u-1", base)

	for _, sid := range []core.SessionID{keep.ID, drop.ID} {
		_, err := repo.AppendExchange(ctx, sid,
			core.Message{Role: core.RoleUser, Content: "q"},
			core.Message{Role: core.RoleAssistant, Content: "a"}, base)
		require.NoError(t, err)
	}

	n, err := repo.DeleteSessions(ctx, drop.ID, 9999)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := repo.CountMessages(ctx, drop.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	count, err = repo.CountMessages(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	n, err = repo.DeleteSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testEvents(t *testing.T, repo core.Repository) {
	ctx := context.Background()
	mustUser(t, repo, "u-1", base)
	mustUser(t, repo, "u-2", base)

	end := base.Add(26 * time.Hour)
	later, err := repo.CreateEvent(ctx, core.CalendarEvent{UserID: "u-1", Title: "Team 회의", StartTime: base.Add(25 * time.Hour), EndTime: &end, CreatedAt: base, UpdatedAt: base})
	require.NoError(t, err)
	earlier, err := repo.CreateEvent(ctx, core.CalendarEvent{UserID: "u-1", Title: "치과", StartTime: base.Add(time.Hour), CreatedAt: base, UpdatedAt: base})
	require.NoError(t, err)
	_, err = repo.CreateEvent(ctx, core.CalendarEvent{UserID: "u-2", Title: "team 회의", StartTime: base, CreatedAt: base, UpdatedAt: base})
	require.NoError(t, err)

	evs, err := repo.FindEvents(ctx, core.EventQuery{UserID: "u-1"})
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, earlier.ID, evs[0].ID)
	assert.Nil(t, evs[0].EndTime)
	require.NotNil(t, evs[1].EndTime)
	assert.WithinDuration(t, end, *evs[1].EndTime, 0)

	evs, err = repo.FindEvents(ctx, core.EventQuery{UserID: "u-1", TitleContains: "TEAM"})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, later.ID, evs[0].ID)

	evs, err = repo.FindEvents(ctx, core.EventQuery{UserID: "u-1", From: base.Add(time.Hour), To: base.Add(25 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, evs, 1, "From is inclusive and To exclusive")
	assert.Equal(t, earlier.ID, evs[0].ID)

	title := "치과 검진"
	updated, err := repo.UpdateEvent(ctx, earlier.ID, core.EventPatch{Title: &title}, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.WithinDuration(t, base.Add(time.Minute), updated.UpdatedAt, 0)

	got, err := repo.GetEvent(ctx, earlier.ID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, core.UserID("u-1"), got.UserID)

	ref := later.ID
	alarm, err := repo.CreateAlarm(ctx, core.Alarm{UserID: "u-1", CalendarEventID: &ref, AlarmTime: base, Label: "회의", Enabled: true, CreatedAt: base, UpdatedAt: base})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteEvent(ctx, later.ID))
	assert.True(t, core.IsNotFound(repo.DeleteEvent(ctx, later.ID)))

	alarm, err = repo.GetAlarm(ctx, alarm.ID)
	require.NoError(t, err)
	assert.Nil(t, alarm.CalendarEventID, "deleting an event unlinks its alarms")

	_, err = repo.UpdateEvent(ctx, later.ID, core.EventPatch{Title: &title}, base)
	assert.True(t, core.IsNotFound(err))
	_, err = repo.GetEvent(ctx, later.ID)
	assert.True(t, core.IsNotFound(err))
}

func testAlarms(t *testing.T, repo core.Repository) {
	ctx := context.Background()
	mustUser(t, repo, "u-1", base)

	late, err := repo.CreateAlarm(ctx, core.Alarm{UserID: "u-1", AlarmTime: base.Add(2 * time.Hour), Label: "운동", Enabled: true, RepeatDays: "mon,wed", CreatedAt: base, UpdatedAt: base})
	require.NoError(t, err)
	early, err := repo.CreateAlarm(ctx, core.Alarm{UserID: "u-1", AlarmTime: base, Label: "기상", Enabled: false, CreatedAt: base, UpdatedAt: base})
	require.NoError(t, err)

	all, err := repo.FindAlarms(ctx, core.AlarmQuery{UserID: "u-1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, early.ID, all[0].ID)
	assert.Equal(t, "mon,wed", all[1].RepeatDays)

	enabled, err := repo.FindAlarms(ctx, core.AlarmQuery{UserID: "u-1", EnabledOnly: true})
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, late.ID, enabled[0].ID)

	on := true
	toggled, err := repo.UpdateAlarm(ctx, early.ID, core.AlarmPatch{Enabled: &on}, base.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, toggled.Enabled)

	byLabel, err := repo.FindAlarms(ctx, core.AlarmQuery{UserID: "u-1", LabelContains: "기상", Limit: 1})
	require.NoError(t, err)
	require.Len(t, byLabel, 1)
	assert.True(t, byLabel[0].Enabled)

	require.NoError(t, repo.DeleteAlarm(ctx, late.ID))
	_, err = repo.GetAlarm(ctx, late.ID)
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(repo.DeleteAlarm(ctx, late.ID)))
	_, err = repo.UpdateAlarm(ctx, late.ID, core.AlarmPatch{Enabled: &on}, base)
	assert.True(t, core.IsNotFound(err))
}

func sessionIDs(list []core.Session) []core.SessionID {
	out := make([]core.SessionID, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}

func testRoutes(t *testing.T, repo core.Repository) {
	ctx := context.Background()
	gangnam := core.Coordinate{Lat: 37.4979, Lng: 127.0276}
	seoulStn := core.Coordinate{Lat: 37.5547, Lng: 126.9707}
	hongdae := core.Coordinate{Lat: 37.5572, Lng: 126.9245}

	first, err := repo.SaveRoute(ctx, core.Route{UserID: "u-1", Start: gangnam, End: seoulStn, Data: json.RawMessage(`{"v":1}`), CreatedAt: base}, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	// Same endpoints within the window refresh the existing row.
	again, err := repo.SaveRoute(ctx, core.Route{UserID: "u-1", Start: gangnam, End: seoulStn, Data: json.RawMessage(`{"v":2}`), CreatedAt: base.Add(30 * time.Minute)}, base.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.JSONEq(t, `{"v":2}`, string(again.Data))

	// Another user and an older window both create new rows.
	other, err := repo.SaveRoute(ctx, core.Route{UserID: "u-2", Start: gangnam, End: seoulStn, Data: json.RawMessage(`{"v":3}`), CreatedAt: base.Add(40 * time.Minute)}, base)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	stale, err := repo.SaveRoute(ctx, core.Route{UserID: "u-1", Start: gangnam, End: hongdae, Data: json.RawMessage(`{}`), CreatedAt: base.Add(-48 * time.Hour)}, base.Add(-49*time.Hour))
	require.NoError(t, err)

	near := core.Coordinate{Lat: gangnam.Lat + 0.0005, Lng: gangnam.Lng - 0.0005}
	found, err := repo.FindRoute(ctx, near, seoulStn, 0.001, base)
	require.NoError(t, err)
	assert.Equal(t, other.ID, found.ID, "newest match wins")

	_, err = repo.FindRoute(ctx, gangnam, hongdae, 0.001, base.Add(-24*time.Hour))
	assert.True(t, core.IsNotFound(err), "routes older than the window are ignored")
	_, err = repo.FindRoute(ctx, core.Coordinate{Lat: gangnam.Lat + 0.01, Lng: gangnam.Lng}, seoulStn, 0.001, base)
	assert.True(t, core.IsNotFound(err))

	all, err := repo.ListRoutes(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []core.RecordID{other.ID, first.ID, stale.ID}, []core.RecordID{all[0].ID, all[1].ID, all[2].ID})

	mine, err := repo.ListRoutes(ctx, "u-1", 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	st, err := repo.RouteStats(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalRoutes)
	require.NotNil(t, st.FirstSearch)
	require.NotNil(t, st.LastSearch)
	assert.WithinDuration(t, base.Add(-48*time.Hour), *st.FirstSearch, 0)
	assert.WithinDuration(t, base.Add(30*time.Minute), *st.LastSearch, 0)

	empty, err := repo.RouteStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalRoutes)
	assert.Nil(t, empty.FirstSearch)

	n, err := repo.DeleteRoutesBefore(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.DeleteRoute(ctx, other.ID))
	assert.True(t, core.IsNotFound(repo.DeleteRoute(ctx, other.ID)))

	left, err := repo.ListRoutes(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, first.ID, left[0].ID)
}

func contents(msgs []core.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}
