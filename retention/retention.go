// Package retention bounds how much conversation history a user keeps:
// messages per session, session age and sessions per user.
package retention

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/logging"
)

// Defaults applied when an option is left at zero.
const (
	DefaultMaxMessagesPerSession = 50
	DefaultMaxSessionsPerUser    = 15
	DefaultSessionMaxAge         = 30 * 24 * time.Hour
	DefaultSweepConcurrency      = 4
)

// Store is the slice of the repository retention needs.
type Store interface {
	core.SessionStore
	core.MessageStore
}

// Options configures a Manager.
type Options struct {
	MaxMessagesPerSession int
	MaxSessionsPerUser    int
	SessionMaxAge         time.Duration
	// SweepConcurrency bounds how many users Sweep processes at once.
	SweepConcurrency int
	Clock            core.Clock
	Logger           logging.Logger
}

// Report counts what one enforcement pass removed.
type Report struct {
	UserID          core.UserID `json:"user_id"`
	MessagesDeleted int         `json:"messages_deleted"`
	SessionsExpired int         `json:"sessions_expired"`
	SessionsCapped  int         `json:"sessions_capped"`
}

// Empty reports whether the pass removed nothing.
func (r Report) Empty() bool {
	return r.MessagesDeleted == 0 && r.SessionsExpired == 0 && r.SessionsCapped == 0
}

// Manager enforces the retention limits. Every pass is idempotent: running
// it twice in a row deletes nothing the second time.
type Manager struct {
	store Store
	opts  Options
}

// New creates a Manager over store.
func New(store Store, optFns ...func(o *Options)) *Manager {
	opts := Options{
		MaxMessagesPerSession: DefaultMaxMessagesPerSession,
		MaxSessionsPerUser:    DefaultMaxSessionsPerUser,
		SessionMaxAge:         DefaultSessionMaxAge,
		SweepConcurrency:      DefaultSweepConcurrency,
		Clock:                 time.Now,
		Logger:                logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.SweepConcurrency <= 0 {
		opts.SweepConcurrency = DefaultSweepConcurrency
	}
	return &Manager{store: store, opts: opts}
}

// Enforce applies the message cap to sessionID (when non-zero) and then the
// age and count limits to the sessions of userID.
func (m *Manager) Enforce(ctx context.Context, userID core.UserID, sessionID core.SessionID) (Report, error) {
	report := Report{UserID: userID}
	if sessionID != 0 {
		n, err := m.capMessages(ctx, sessionID)
		if err != nil {
			return report, err
		}
		report.MessagesDeleted = n
	}

	expired, capped, err := m.enforceSessions(ctx, userID)
	report.SessionsExpired, report.SessionsCapped = expired, capped
	if err != nil {
		return report, err
	}

	logging.LogRetention(m.opts.Logger, string(userID), report.MessagesDeleted, report.SessionsExpired, report.SessionsCapped)
	return report, nil
}

// Sweep enforces the per-user limits for every user in userIDs with bounded
// concurrency. Reports are returned in input order; the first failure
// cancels the remaining work.
func (m *Manager) Sweep(ctx context.Context, userIDs []core.UserID) ([]Report, error) {
	reports := make([]Report, len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.SweepConcurrency)
	for i, id := range userIDs {
		g.Go(func() error {
			r, err := m.Enforce(gctx, id, 0)
			reports[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, nil
}

// capMessages deletes the oldest messages beyond the per-session cap.
func (m *Manager) capMessages(ctx context.Context, sessionID core.SessionID) (int, error) {
	limit := m.opts.MaxMessagesPerSession
	if limit <= 0 {
		return 0, nil
	}
	count, err := m.store.CountMessages(ctx, sessionID)
	if err != nil {
		return 0, core.WrapRepository("count messages", err)
	}
	if count <= limit {
		return 0, nil
	}

	msgs, err := m.store.ListMessages(ctx, sessionID)
	if err != nil {
		if core.IsNotFound(err) {
			return 0, nil
		}
		return 0, core.WrapRepository("list messages", err)
	}
	excess := len(msgs) - limit
	if excess <= 0 {
		return 0, nil
	}
	ids := make([]core.MessageID, 0, excess)
	for _, msg := range msgs[:excess] {
		ids = append(ids, msg.ID)
	}
	n, err := m.store.DeleteMessages(ctx, ids...)
	if err != nil {
		return 0, core.WrapRepository("delete messages", err)
	}
	return n, nil
}

// enforceSessions expires stale sessions, then trims the survivors to the
// per-user cap keeping the most recently updated.
func (m *Manager) enforceSessions(ctx context.Context, userID core.UserID) (int, int, error) {
	sessions, err := m.store.ListSessions(ctx, userID, 0)
	if err != nil {
		return 0, 0, core.WrapRepository("list sessions", err)
	}

	var stale, live []core.SessionID
	horizon := m.opts.Clock().Add(-m.opts.SessionMaxAge)
	for _, s := range sessions {
		if m.opts.SessionMaxAge > 0 && s.UpdatedAt.Before(horizon) {
			stale = append(stale, s.ID)
			continue
		}
		live = append(live, s.ID)
	}

	expired, err := m.deleteSessions(ctx, stale)
	if err != nil {
		return 0, 0, err
	}

	var over []core.SessionID
	if limit := m.opts.MaxSessionsPerUser; limit > 0 && len(live) > limit {
		over = live[limit:]
	}
	capped, err := m.deleteSessions(ctx, over)
	if err != nil {
		return expired, 0, err
	}
	return expired, capped, nil
}

func (m *Manager) deleteSessions(ctx context.Context, ids []core.SessionID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := m.store.DeleteSessions(ctx, ids...)
	if err != nil {
		return 0, core.WrapRepository("delete sessions", err)
	}
	return n, nil
}
