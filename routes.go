package daysync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sjoneon/DaySync-Server/core"
)

// Route history tuning.
const (
	// RouteDedupeWindow is how long a saved route is refreshed in place when
	// the same endpoints are saved again.
	RouteDedupeWindow = time.Hour
	// RouteCacheWindow bounds how old a route FindCachedRoute may return.
	RouteCacheWindow = 24 * time.Hour
	// RouteTolerance is the per-axis coordinate tolerance, in degrees, of
	// FindCachedRoute.
	RouteTolerance = 0.001

	DefaultRecentRoutes = 10
	DefaultUserRoutes   = 20
	DefaultRouteMaxAge  = 7 * 24 * time.Hour
)

// SaveRoute records a resolved route search. Hosts fulfilling a
// core.PendingRouteSearch action report the result here. UserID is optional but must
// name a live user when set.
func (a *Assistant) SaveRoute(ctx context.Context, r core.Route) (core.Route, error) {
	if len(r.Data) == 0 || !json.Valid(r.Data) {
		return core.Route{}, fmt.Errorf("%w: route data must be valid JSON", ErrInvalidRecord)
	}
	if r.UserID != "" {
		if _, err := a.GetUser(ctx, r.UserID); err != nil {
			return core.Route{}, err
		}
	}
	now := a.opts.Clock()
	r.ID, r.CreatedAt = 0, now
	saved, err := a.repo.SaveRoute(ctx, r, now.Add(-RouteDedupeWindow))
	if err != nil {
		return core.Route{}, core.WrapRepository("save route", err)
	}
	a.opts.Logger.Debug("route.saved", "route_id", int64(saved.ID), "user_id", string(saved.UserID))
	return saved, nil
}

// FindCachedRoute returns the newest route between points near start and
// end saved within RouteCacheWindow. ok is false on a cache miss.
func (a *Assistant) FindCachedRoute(ctx context.Context, start, end core.Coordinate) (core.Route, bool, error) {
	since := a.opts.Clock().Add(-RouteCacheWindow)
	r, err := a.repo.FindRoute(ctx, start, end, RouteTolerance, since)
	switch {
	case core.IsNotFound(err):
		return core.Route{}, false, nil
	case err != nil:
		return core.Route{}, false, core.WrapRepository("find route", err)
	}
	return r, true, nil
}

// RecentRoutes lists the newest routes of every user. A non-positive limit
// means DefaultRecentRoutes.
func (a *Assistant) RecentRoutes(ctx context.Context, limit int) ([]core.Route, error) {
	if limit <= 0 {
		limit = DefaultRecentRoutes
	}
	routes, err := a.repo.ListRoutes(ctx, "", limit)
	return routes, core.WrapRepository("list routes", err)
}

// UserRoutes lists the newest routes of one user. A non-positive limit
// means DefaultUserRoutes.
func (a *Assistant) UserRoutes(ctx context.Context, userID core.UserID, limit int) ([]core.Route, error) {
	if userID == "" {
		return nil, core.UserNotFound(userID)
	}
	if limit <= 0 {
		limit = DefaultUserRoutes
	}
	routes, err := a.repo.ListRoutes(ctx, userID, limit)
	return routes, core.WrapRepository("list routes", err)
}

// RouteStats summarizes one user's route searches.
func (a *Assistant) RouteStats(ctx context.Context, userID core.UserID) (core.RouteStats, error) {
	st, err := a.repo.RouteStats(ctx, userID)
	return st, core.WrapRepository("route stats", err)
}

// DeleteRoute removes one cached route.
func (a *Assistant) DeleteRoute(ctx context.Context, id core.RecordID) error {
	return core.WrapRepository("delete route", a.repo.DeleteRoute(ctx, id))
}

// CleanupRoutes removes routes older than olderThan, or RouteMaxAge when
// olderThan is not positive, and returns how many were removed.
func (a *Assistant) CleanupRoutes(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = a.opts.RouteMaxAge
	}
	cutoff := a.opts.Clock().Add(-olderThan)
	n, err := a.repo.DeleteRoutesBefore(ctx, cutoff)
	if err != nil {
		return 0, core.WrapRepository("delete routes", err)
	}
	a.opts.Logger.Info("route.cleanup", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
	return n, nil
}
