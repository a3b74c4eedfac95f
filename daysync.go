// Package daysync is the entry point of the DaySync assistant. An Assistant
// wires a repository, an oracle, the conversation engine and the retention
// manager, and exposes chat, session, user and record management.
//
// Most applications:
//  1. build an Assistant with New (or NewFromConfig)
//  2. create a user
//  3. call Chat for each inbound message, passing the returned session id
//     back on the next turn
package daysync

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/engine"
	"github.com/Sjoneon/DaySync-Server/logging"
	"github.com/Sjoneon/DaySync-Server/model"
	"github.com/Sjoneon/DaySync-Server/retention"
	"github.com/Sjoneon/DaySync-Server/store"
)

// DefaultInactiveUserAge is how long a user may stay idle before
// CleanupInactiveUsers soft-deletes them.
const DefaultInactiveUserAge = 30 * 24 * time.Hour

// Options configures an Assistant.
type Options struct {
	// Repository defaults to an in-memory store.
	Repository core.Repository
	Location   *time.Location
	Clock      core.Clock
	Logger     logging.Logger

	HistoryLimit int
	Retention    retention.Options
	// InactiveUserAge drives CleanupInactiveUsers.
	InactiveUserAge time.Duration
	// RouteMaxAge drives CleanupRoutes.
	RouteMaxAge time.Duration
	// StatsConcurrency bounds the per-session fan-out of UserStats.
	StatsConcurrency int
	Hooks            *engine.Hooks
}

// Assistant is the high-level façade over the engine and the repository.
type Assistant struct {
	opts      Options
	repo      core.Repository
	engine    *engine.Engine
	retention *retention.Manager
}

// New creates an Assistant answering through oracle.
func New(oracle model.Oracle, optFns ...func(o *Options)) *Assistant {
	opts := Options{
		Location:        time.Local,
		Clock:           time.Now,
		Logger:          logging.NoOpLogger{},
		HistoryLimit:    engine.DefaultHistoryLimit,
		InactiveUserAge: DefaultInactiveUserAge,
		RouteMaxAge:     DefaultRouteMaxAge,
		Retention: retention.Options{
			MaxMessagesPerSession: retention.DefaultMaxMessagesPerSession,
			MaxSessionsPerUser:    retention.DefaultMaxSessionsPerUser,
			SessionMaxAge:         retention.DefaultSessionMaxAge,
		},
		StatsConcurrency: 4,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Repository == nil {
		opts.Repository = store.NewInMemory()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.StatsConcurrency <= 0 {
		opts.StatsConcurrency = 4
	}
	if opts.InactiveUserAge <= 0 {
		opts.InactiveUserAge = DefaultInactiveUserAge
	}
	if opts.RouteMaxAge <= 0 {
		opts.RouteMaxAge = DefaultRouteMaxAge
	}
	if opts.Retention.MaxMessagesPerSession <= 0 {
		opts.Retention.MaxMessagesPerSession = retention.DefaultMaxMessagesPerSession
	}
	if opts.Retention.MaxSessionsPerUser <= 0 {
		opts.Retention.MaxSessionsPerUser = retention.DefaultMaxSessionsPerUser
	}
	if opts.Retention.SessionMaxAge <= 0 {
		opts.Retention.SessionMaxAge = retention.DefaultSessionMaxAge
	}

	mgr := retention.New(opts.Repository, func(o *retention.Options) {
		*o = opts.Retention
		o.Clock = opts.Clock
		o.Logger = logging.With(opts.Logger, "component", "retention")
	})

	eng := engine.New(opts.Repository, oracle, func(o *engine.Options) {
		o.HistoryLimit = opts.HistoryLimit
		o.Location = opts.Location
		o.Clock = opts.Clock
		o.Logger = logging.With(opts.Logger, "component", "engine")
		o.Retention = mgr
		o.Hooks = opts.Hooks
	})

	return &Assistant{opts: opts, repo: opts.Repository, engine: eng, retention: mgr}
}

// Close releases the repository when it holds resources.
func (a *Assistant) Close() error {
	if c, ok := a.repo.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Repository exposes the underlying repository.
func (a *Assistant) Repository() core.Repository { return a.repo }

// ---- conversation ----

// Chat runs one conversation turn.
func (a *Assistant) Chat(ctx context.Context, req engine.TurnRequest) (engine.TurnResult, error) {
	return a.engine.Turn(ctx, req)
}

// ListSessions returns the user's sessions, most recent first, bounded by
// the per-user session cap.
func (a *Assistant) ListSessions(ctx context.Context, userID core.UserID) ([]core.Session, error) {
	if _, err := a.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	sessions, err := a.repo.ListSessions(ctx, userID, a.opts.Retention.MaxSessionsPerUser)
	return sessions, core.WrapRepository("list sessions", err)
}

// ListMessages returns the messages of a session owned by userID, oldest
// first.
func (a *Assistant) ListMessages(ctx context.Context, userID core.UserID, sessionID core.SessionID) ([]core.Message, error) {
	if _, err := a.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	msgs, err := a.repo.ListMessages(ctx, sessionID)
	return msgs, core.WrapRepository("list messages", err)
}

// RenameSession changes a session title.
func (a *Assistant) RenameSession(ctx context.Context, userID core.UserID, sessionID core.SessionID, title string) (core.Session, error) {
	if _, err := a.ownedSession(ctx, userID, sessionID); err != nil {
		return core.Session{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = core.DefaultSessionTitle
	}
	sess, err := a.repo.RenameSession(ctx, sessionID, title)
	return sess, core.WrapRepository("rename session", err)
}

// DeleteSession removes a session and its messages.
func (a *Assistant) DeleteSession(ctx context.Context, userID core.UserID, sessionID core.SessionID) error {
	if _, err := a.ownedSession(ctx, userID, sessionID); err != nil {
		return err
	}
	_, err := a.repo.DeleteSessions(ctx, sessionID)
	return core.WrapRepository("delete session", err)
}

func (a *Assistant) ownedSession(ctx context.Context, userID core.UserID, sessionID core.SessionID) (core.Session, error) {
	sess, err := a.repo.GetSession(ctx, sessionID)
	if err != nil {
		return core.Session{}, core.WrapRepository("get session", err)
	}
	if sess.UserID != userID {
		return core.Session{}, core.NewNotFound("session", sessionID)
	}
	return sess, nil
}

// ---- users ----

// CreateUser registers a new user. Empty values take their defaults.
func (a *Assistant) CreateUser(ctx context.Context, nickname string, prepTime int) (core.User, error) {
	now := a.opts.Clock()
	u, err := a.repo.CreateUser(ctx, core.User{
		Nickname:   strings.TrimSpace(nickname),
		PrepTime:   prepTime,
		CreatedAt:  now,
		LastActive: now,
	})
	if err != nil {
		return core.User{}, core.WrapRepository("create user", err)
	}
	a.opts.Logger.Info("user.created", "user_id", string(u.ID))
	return u, nil
}

// GetUser returns a live user.
func (a *Assistant) GetUser(ctx context.Context, id core.UserID) (core.User, error) {
	u, err := a.repo.GetUser(ctx, id)
	return u, core.WrapRepository("get user", err)
}

// UpdateUser applies patch and bumps the last-active time.
func (a *Assistant) UpdateUser(ctx context.Context, id core.UserID, patch core.UserPatch) (core.User, error) {
	u, err := a.repo.UpdateUser(ctx, id, patch, a.opts.Clock())
	return u, core.WrapRepository("update user", err)
}

// DeleteUser soft-deletes the user.
func (a *Assistant) DeleteUser(ctx context.Context, id core.UserID) error {
	if err := a.repo.SoftDeleteUser(ctx, id); err != nil {
		return core.WrapRepository("delete user", err)
	}
	a.opts.Logger.Info("user.deleted", "user_id", string(id))
	return nil
}

// UserStats counts the sessions and messages of a user.
func (a *Assistant) UserStats(ctx context.Context, id core.UserID) (core.UserStats, error) {
	u, err := a.GetUser(ctx, id)
	if err != nil {
		return core.UserStats{}, err
	}
	sessions, err := a.repo.ListSessions(ctx, id, 0)
	if err != nil {
		return core.UserStats{}, core.WrapRepository("list sessions", err)
	}

	counts := make([]int, len(sessions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.StatsConcurrency)
	for i, s := range sessions {
		g.Go(func() error {
			n, err := a.repo.CountMessages(gctx, s.ID)
			if err != nil {
				return core.WrapRepository("count messages", err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.UserStats{}, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return core.UserStats{
		UserID:        u.ID,
		Nickname:      u.Nickname,
		TotalSessions: len(sessions),
		TotalMessages: total,
		LastActive:    u.LastActive,
		CreatedAt:     u.CreatedAt,
	}, nil
}

// CleanupInactiveUsers soft-deletes users idle for longer than
// InactiveUserAge and returns how many were removed.
func (a *Assistant) CleanupInactiveUsers(ctx context.Context) (int, error) {
	cutoff := a.opts.Clock().Add(-a.opts.InactiveUserAge)
	users, err := a.repo.ListUsers(ctx, cutoff)
	if err != nil {
		return 0, core.WrapRepository("list users", err)
	}
	n := 0
	for _, u := range users {
		if err := a.repo.SoftDeleteUser(ctx, u.ID); err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return n, core.WrapRepository("delete user", err)
		}
		n++
	}
	a.opts.Logger.Info("user.cleanup", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
	return n, nil
}

// ---- records ----

// ToggleAlarm enables or disables an alarm owned by userID.
func (a *Assistant) ToggleAlarm(ctx context.Context, userID core.UserID, alarmID core.RecordID, enabled bool) (core.Alarm, error) {
	if _, err := a.ownedAlarm(ctx, userID, alarmID); err != nil {
		return core.Alarm{}, err
	}
	updated, err := a.repo.UpdateAlarm(ctx, alarmID, core.AlarmPatch{Enabled: &enabled}, a.opts.Clock())
	return updated, core.WrapRepository("update alarm", err)
}

// ListEvents returns every event of the user, latest start first.
func (a *Assistant) ListEvents(ctx context.Context, userID core.UserID) ([]core.CalendarEvent, error) {
	events, err := a.repo.FindEvents(ctx, core.EventQuery{UserID: userID})
	if err != nil {
		return nil, core.WrapRepository("find events", err)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].StartTime.After(events[j].StartTime) })
	return events, nil
}

// ListAlarms returns the user's enabled alarms by alarm time.
func (a *Assistant) ListAlarms(ctx context.Context, userID core.UserID) ([]core.Alarm, error) {
	alarms, err := a.repo.FindAlarms(ctx, core.AlarmQuery{UserID: userID, EnabledOnly: true})
	return alarms, core.WrapRepository("find alarms", err)
}

// ---- retention ----

// SweepRetention enforces the per-user retention limits for every live user.
func (a *Assistant) SweepRetention(ctx context.Context) ([]retention.Report, error) {
	users, err := a.repo.ListUsers(ctx, time.Time{})
	if err != nil {
		return nil, core.WrapRepository("list users", err)
	}
	ids := make([]core.UserID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return a.retention.Sweep(ctx, ids)
}
