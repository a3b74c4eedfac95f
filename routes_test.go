package daysync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoneon/DaySync-Server/core"
)

var (
	gangnam  = core.Coordinate{Lat: 37.4979, Lng: 127.0276}
	seoulStn = core.Coordinate{Lat: 37.5547, Lng: 126.9707}
)

func TestSaveRouteDedupesWithinWindow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u, err := h.a.CreateUser(ctx, "민수", 0)
	require.NoError(t, err)

	first, err := h.a.SaveRoute(ctx, core.Route{UserID: u.ID, Start: gangnam, End: seoulStn, Data: json.RawMessage(`[{"bus":"402"}]`)})
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(testNow))

	h.clock.Advance(30 * time.Minute)
	again, err := h.a.SaveRoute(ctx, core.Route{UserID: u.ID, Start: gangnam, End: seoulStn, Data: json.RawMessage(`[{"bus":"140"}]`)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.JSONEq(t, `[{"bus":"140"}]`, string(again.Data))
	assert.True(t, again.CreatedAt.Equal(testNow.Add(30*time.Minute)))

	h.clock.Advance(RouteDedupeWindow + time.Minute)
	later, err := h.a.SaveRoute(ctx, core.Route{UserID: u.ID, Start: gangnam, End: seoulStn, Data: json.RawMessage(`[]`)})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, later.ID)

	routes, err := h.a.UserRoutes(ctx, u.ID, 0)
	require.NoError(t, err)
	assert.Len(t, routes, 2)
}

func TestSaveRouteValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.a.SaveRoute(ctx, core.Route{Start: gangnam, End: seoulStn, Data: json.RawMessage(`{broken`)})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	_, err = h.a.SaveRoute(ctx, core.Route{Start: gangnam, End: seoulStn})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	_, err = h.a.SaveRoute(ctx, core.Route{UserID: "ghost", Start: gangnam, End: seoulStn, Data: json.RawMessage(`{}`)})
	assert.True(t, core.IsNotFound(err))

	anon, err := h.a.SaveRoute(ctx, core.Route{Start: gangnam, End: seoulStn, Data: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Empty(t, anon.UserID)
}

func TestFindCachedRoute(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	saved, err := h.a.SaveRoute(ctx, core.Route{Start: gangnam, End: seoulStn, Data: json.RawMessage(`{"min":25}`)})
	require.NoError(t, err)

	nearStart := core.Coordinate{Lat: gangnam.Lat + 0.0004, Lng: gangnam.Lng + 0.0004}
	r, ok, err := h.a.FindCachedRoute(ctx, nearStart, seoulStn)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved.ID, r.ID)

	_, ok, err = h.a.FindCachedRoute(ctx, seoulStn, gangnam)
	require.NoError(t, err)
	assert.False(t, ok, "direction matters")

	h.clock.Advance(RouteCacheWindow + time.Minute)
	_, ok, err = h.a.FindCachedRoute(ctx, gangnam, seoulStn)
	require.NoError(t, err)
	assert.False(t, ok, "stale routes are not served")
}

func TestRouteListingsStatsAndCleanup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u, err := h.a.CreateUser(ctx, "민수", 0)
	require.NoError(t, err)

	for i := 0; i < DefaultRecentRoutes+2; i++ {
		end := core.Coordinate{Lat: seoulStn.Lat + float64(i)*0.01, Lng: seoulStn.Lng}
		userID := core.UserID("")
		if i%2 == 0 {
			userID = u.ID
		}
		_, err := h.a.SaveRoute(ctx, core.Route{UserID: userID, Start: gangnam, End: end, Data: json.RawMessage(`{}`)})
		require.NoError(t, err)
		h.clock.Advance(24 * time.Hour)
	}

	recent, err := h.a.RecentRoutes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, DefaultRecentRoutes)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt), "newest first")

	mine, err := h.a.UserRoutes(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
	_, err = h.a.UserRoutes(ctx, "", 0)
	assert.True(t, core.IsNotFound(err))

	st, err := h.a.RouteStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, (DefaultRecentRoutes+2)/2, st.TotalRoutes)
	require.NotNil(t, st.FirstSearch)
	assert.True(t, st.FirstSearch.Equal(testNow))

	// The clock sits 12 days after the first save; a week-old cutoff keeps
	// the routes saved in the last seven days.
	n, err := h.a.CleanupRoutes(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	left, err := h.a.RecentRoutes(ctx, 100)
	require.NoError(t, err)
	require.Len(t, left, 7)

	require.NoError(t, h.a.DeleteRoute(ctx, left[0].ID))
	assert.True(t, core.IsNotFound(h.a.DeleteRoute(ctx, left[0].ID)))
}
