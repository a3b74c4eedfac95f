package core

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Near reports whether c lies within tolerance degrees of o on both axes.
func (c Coordinate) Near(o Coordinate, tolerance float64) bool {
	return math.Abs(c.Lat-o.Lat) <= tolerance && math.Abs(c.Lng-o.Lng) <= tolerance
}

// Route is a route search result resolved by the caller and kept as
// history. UserID is empty for anonymous searches. Data is the caller's
// opaque route payload.
type Route struct {
	ID        RecordID        `json:"id"`
	UserID    UserID          `json:"user_id,omitempty"`
	Start     Coordinate      `json:"start"`
	End       Coordinate      `json:"end"`
	Data      json.RawMessage `json:"route_data"`
	CreatedAt time.Time       `json:"created_at"`
}

// SameEndpoints reports whether r connects exactly the same coordinates.
func (r Route) SameEndpoints(o Route) bool {
	return r.Start == o.Start && r.End == o.End
}

// RouteStats summarizes the route searches of one user.
type RouteStats struct {
	UserID      UserID     `json:"user_id"`
	TotalRoutes int        `json:"total_routes"`
	FirstSearch *time.Time `json:"first_search,omitempty"`
	LastSearch  *time.Time `json:"last_search,omitempty"`
}

// RouteNotFound reports that no cached route connects start and end.
func RouteNotFound(start, end Coordinate) *NotFoundError {
	return &NotFoundError{
		Entity: "route",
		ID:     fmt.Sprintf("%.6f,%.6f->%.6f,%.6f", start.Lat, start.Lng, end.Lat, end.Lng),
	}
}
