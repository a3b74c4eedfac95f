// Package sqlite implements core.Repository on SQLite through the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/store"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store implements core.Repository backed by a SQLite database.
type Store struct {
	db *sql.DB
}

var _ core.Repository = (*Store)(nil)

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps per-connection pragmas in force and lets
	// ":memory:" behave as a single database.
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"}
	if path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// ---- users ----

const userColumns = `id, nickname, prep_time, deleted, created_at, last_active`

// CreateUser inserts u with defaults applied.
func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u = store.WithUserDefaults(u)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, 0, ?, ?)`,
		string(u.ID), u.Nickname, u.PrepTime, ts(u.CreatedAt), ts(u.LastActive))
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("%w: user %s", store.ErrDuplicate, u.ID)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUser returns a live user.
func (s *Store) GetUser(ctx context.Context, id core.UserID) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND deleted = 0`, string(id))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.UserNotFound(id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// UpdateUser applies patch and bumps last_active.
func (s *Store) UpdateUser(ctx context.Context, id core.UserID, patch core.UserPatch, at time.Time) (core.User, error) {
	var out core.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = ? AND deleted = 0`, string(id))
		u, err := scanUser(row)
		if errors.Is(err, sql.ErrNoRows) {
			return core.UserNotFound(id)
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		u = patch.Apply(u)
		u.LastActive = at
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET nickname = ?, prep_time = ?, last_active = ? WHERE id = ?`,
			u.Nickname, u.PrepTime, ts(at), string(id)); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		out = u
		return nil
	})
	return out, err
}

// TouchUser bumps last_active.
func (s *Store) TouchUser(ctx context.Context, id core.UserID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_active = ? WHERE id = ? AND deleted = 0`, ts(at), string(id))
	if err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	return requireRow(res, core.UserNotFound(id))
}

// SoftDeleteUser flags the user as deleted.
func (s *Store) SoftDeleteUser(ctx context.Context, id core.UserID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET deleted = 1 WHERE id = ? AND deleted = 0`, string(id))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res, core.UserNotFound(id))
}

// ListUsers returns live users ordered by creation, optionally only those
// last active before inactiveSince.
func (s *Store) ListUsers(ctx context.Context, inactiveSince time.Time) ([]core.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted = 0`
	var args []any
	if !inactiveSince.IsZero() {
		query += ` AND last_active < ?`
		args = append(args, ts(inactiveSince))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ---- sessions ----

const sessionColumns = `id, user_id, title, category, created_at, updated_at`

// CreateSession inserts a session for a live user.
func (s *Store) CreateSession(ctx context.Context, sess core.Session) (core.Session, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		sess, err = insertSession(ctx, tx, sess)
		return err
	})
	if err != nil {
		return core.Session{}, err
	}
	return sess, nil
}

func insertSession(ctx context.Context, tx *sql.Tx, sess core.Session) (core.Session, error) {
	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE id = ? AND deleted = 0`, string(sess.UserID)).Scan(&n); err != nil {
		return sess, fmt.Errorf("check user: %w", err)
	}
	if n == 0 {
		return sess, core.UserNotFound(sess.UserID)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (user_id, title, category, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		string(sess.UserID), sess.Title, sess.Category, ts(sess.CreatedAt), ts(sess.UpdatedAt))
	if err != nil {
		return sess, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return sess, err
	}
	sess.ID = core.SessionID(id)
	return sess, nil
}

// GetSession returns a session by id.
func (s *Store) GetSession(ctx context.Context, id core.SessionID) (core.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, int64(id))
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, core.NewNotFound("session", id)
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// ListSessions returns the user's sessions, most recently updated first.
func (s *Store) ListSessions(ctx context.Context, userID core.UserID, limit int) ([]core.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = ? ORDER BY updated_at DESC, id DESC`
	args := []any{string(userID)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// RenameSession changes the title without reordering the session list.
func (s *Store) RenameSession(ctx context.Context, id core.SessionID, title string) (core.Session, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET title = ? WHERE id = ?`, title, int64(id))
	if err != nil {
		return core.Session{}, fmt.Errorf("rename session: %w", err)
	}
	if err := requireRow(res, core.NewNotFound("session", id)); err != nil {
		return core.Session{}, err
	}
	return s.GetSession(ctx, id)
}

// DeleteSessions removes sessions; messages go with them via ON DELETE CASCADE.
func (s *Store) DeleteSessions(ctx context.Context, ids ...core.SessionID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ---- messages ----

const messageColumns = `id, session_id, role, content, intent, confidence, created_at`

// AppendExchange inserts both messages and bumps the session in one transaction.
func (s *Store) AppendExchange(ctx context.Context, sessionID core.SessionID, user, assistant core.Message, at time.Time) (core.Exchange, error) {
	var ex core.Exchange
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		ex, err = appendExchange(ctx, tx, sessionID, user, assistant, at)
		return err
	})
	return ex, err
}

// StartExchange inserts the session and its first exchange in one transaction.
func (s *Store) StartExchange(ctx context.Context, sess core.Session, user, assistant core.Message, at time.Time) (core.Session, core.Exchange, error) {
	var ex core.Exchange
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if sess, err = insertSession(ctx, tx, sess); err != nil {
			return err
		}
		ex, err = appendExchange(ctx, tx, sess.ID, user, assistant, at)
		return err
	})
	if err != nil {
		return core.Session{}, core.Exchange{}, err
	}
	sess.UpdatedAt = at
	return sess, ex, nil
}

func appendExchange(ctx context.Context, tx *sql.Tx, sessionID core.SessionID, user, assistant core.Message, at time.Time) (core.Exchange, error) {
	res, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, ts(at), int64(sessionID))
	if err != nil {
		return core.Exchange{}, fmt.Errorf("bump session: %w", err)
	}
	if err := requireRow(res, core.NewNotFound("session", sessionID)); err != nil {
		return core.Exchange{}, err
	}

	stored := make([]core.Message, 0, 2)
	for _, m := range []core.Message{user, assistant} {
		m.SessionID = sessionID
		if m.CreatedAt.IsZero() {
			m.CreatedAt = at
		}
		var conf sql.NullFloat64
		if m.Confidence != nil {
			conf = sql.NullFloat64{Float64: *m.Confidence, Valid: true}
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, role, content, intent, confidence, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			int64(sessionID), string(m.Role), m.Content, m.Intent, conf, ts(m.CreatedAt))
		if err != nil {
			return core.Exchange{}, fmt.Errorf("insert message: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.Exchange{}, err
		}
		m.ID = core.MessageID(id)
		stored = append(stored, m)
	}
	return core.Exchange{User: stored[0], Assistant: stored[1]}, nil
}

// RecentMessages returns at most limit messages, newest first.
func (s *Store) RecentMessages(ctx context.Context, sessionID core.SessionID, limit int) ([]core.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE session_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{int64(sessionID)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryMessages(ctx, query, args...)
}

// ListMessages returns all messages oldest first.
func (s *Store) ListMessages(ctx context.Context, sessionID core.SessionID) ([]core.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE session_id = ? ORDER BY created_at, id`, int64(sessionID))
}

// CountMessages returns the number of messages in the session.
func (s *Store) CountMessages(ctx context.Context, sessionID core.SessionID) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE session_id = ?`, int64(sessionID)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// DeleteMessages removes messages by id.
func (s *Store) DeleteMessages(ctx context.Context, ids ...core.MessageID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]core.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := make([]core.Message, 0)
	for rows.Next() {
		var (
			m         core.Message
			id, sid   int64
			role      string
			conf      sql.NullFloat64
			createdAt int64
		)
		if err := rows.Scan(&id, &sid, &role, &m.Content, &m.Intent, &conf, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ID, m.SessionID, m.Role, m.CreatedAt = core.MessageID(id), core.SessionID(sid), core.Role(role), fromTS(createdAt)
		if conf.Valid {
			c := conf.Float64
			m.Confidence = &c
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ---- calendar events ----

const eventColumns = `id, user_id, title, start_time, end_time, description, location, created_at, updated_at`

// CreateEvent inserts ev.
func (s *Store) CreateEvent(ctx context.Context, ev core.CalendarEvent) (core.CalendarEvent, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_events (user_id, title, start_time, end_time, description, location, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(ev.UserID), ev.Title, ts(ev.StartTime), nullTS(ev.EndTime), ev.Description, ev.Location,
		ts(ev.CreatedAt), ts(ev.UpdatedAt))
	if err != nil {
		return core.CalendarEvent{}, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.CalendarEvent{}, err
	}
	ev.ID = core.RecordID(id)
	return ev, nil
}

// GetEvent returns an event by id.
func (s *Store) GetEvent(ctx context.Context, id core.RecordID) (core.CalendarEvent, error) {
	ev, err := scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM calendar_events WHERE id = ?`, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.CalendarEvent{}, core.NewNotFound("event", id)
	}
	if err != nil {
		return core.CalendarEvent{}, fmt.Errorf("load event: %w", err)
	}
	return ev, nil
}

// FindEvents returns matching events ordered by start time ascending.
func (s *Store) FindEvents(ctx context.Context, q core.EventQuery) ([]core.CalendarEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_events WHERE user_id = ?`
	args := []any{string(q.UserID)}
	if q.TitleContains != "" {
		query += ` AND instr(lower(title), lower(?)) > 0`
		args = append(args, q.TitleContains)
	}
	if !q.From.IsZero() {
		query += ` AND start_time >= ?`
		args = append(args, ts(q.From))
	}
	if !q.To.IsZero() {
		query += ` AND start_time < ?`
		args = append(args, ts(q.To))
	}
	query += ` ORDER BY start_time, id`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer rows.Close()

	out := make([]core.CalendarEvent, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// UpdateEvent applies patch to the event.
func (s *Store) UpdateEvent(ctx context.Context, id core.RecordID, patch core.EventPatch, at time.Time) (core.CalendarEvent, error) {
	var out core.CalendarEvent
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ev, err := scanEvent(tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM calendar_events WHERE id = ?`, int64(id)))
		if errors.Is(err, sql.ErrNoRows) {
			return core.NewNotFound("event", id)
		}
		if err != nil {
			return fmt.Errorf("load event: %w", err)
		}
		ev = patch.Apply(ev, at)
		if _, err := tx.ExecContext(ctx,
			`UPDATE calendar_events SET title = ?, start_time = ?, end_time = ?, description = ?, location = ?, updated_at = ? WHERE id = ?`,
			ev.Title, ts(ev.StartTime), nullTS(ev.EndTime), ev.Description, ev.Location, ts(ev.UpdatedAt), int64(id)); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		out = ev
		return nil
	})
	return out, err
}

// DeleteEvent removes the event; linked alarms are unlinked by the schema.
func (s *Store) DeleteEvent(ctx context.Context, id core.RecordID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireRow(res, core.NewNotFound("event", id))
}

// ---- alarms ----

const alarmColumns = `id, user_id, calendar_event_id, alarm_time, label, enabled, repeat_days, created_at, updated_at`

// CreateAlarm inserts a.
func (s *Store) CreateAlarm(ctx context.Context, a core.Alarm) (core.Alarm, error) {
	var eventID sql.NullInt64
	if a.CalendarEventID != nil {
		eventID = sql.NullInt64{Int64: int64(*a.CalendarEventID), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alarms (user_id, calendar_event_id, alarm_time, label, enabled, repeat_days, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.UserID), eventID, ts(a.AlarmTime), a.Label, boolInt(a.Enabled), a.RepeatDays, ts(a.CreatedAt), ts(a.UpdatedAt))
	if err != nil {
		return core.Alarm{}, fmt.Errorf("insert alarm: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Alarm{}, err
	}
	a.ID = core.RecordID(id)
	return a, nil
}

// GetAlarm returns an alarm by id.
func (s *Store) GetAlarm(ctx context.Context, id core.RecordID) (core.Alarm, error) {
	a, err := scanAlarm(s.db.QueryRowContext(ctx, `SELECT `+alarmColumns+` FROM alarms WHERE id = ?`, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Alarm{}, core.NewNotFound("alarm", id)
	}
	if err != nil {
		return core.Alarm{}, fmt.Errorf("load alarm: %w", err)
	}
	return a, nil
}

// FindAlarms returns matching alarms ordered by alarm time ascending.
func (s *Store) FindAlarms(ctx context.Context, q core.AlarmQuery) ([]core.Alarm, error) {
	query := `SELECT ` + alarmColumns + ` FROM alarms WHERE user_id = ?`
	args := []any{string(q.UserID)}
	if q.LabelContains != "" {
		query += ` AND instr(lower(label), lower(?)) > 0`
		args = append(args, q.LabelContains)
	}
	if q.EnabledOnly {
		query += ` AND enabled = 1`
	}
	query += ` ORDER BY alarm_time, id`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find alarms: %w", err)
	}
	defer rows.Close()

	out := make([]core.Alarm, 0)
	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alarm: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAlarm applies patch to the alarm.
func (s *Store) UpdateAlarm(ctx context.Context, id core.RecordID, patch core.AlarmPatch, at time.Time) (core.Alarm, error) {
	var out core.Alarm
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		a, err := scanAlarm(tx.QueryRowContext(ctx, `SELECT `+alarmColumns+` FROM alarms WHERE id = ?`, int64(id)))
		if errors.Is(err, sql.ErrNoRows) {
			return core.NewNotFound("alarm", id)
		}
		if err != nil {
			return fmt.Errorf("load alarm: %w", err)
		}
		a = patch.Apply(a, at)
		if _, err := tx.ExecContext(ctx,
			`UPDATE alarms SET alarm_time = ?, label = ?, enabled = ?, repeat_days = ?, updated_at = ? WHERE id = ?`,
			ts(a.AlarmTime), a.Label, boolInt(a.Enabled), a.RepeatDays, ts(a.UpdatedAt), int64(id)); err != nil {
			return fmt.Errorf("update alarm: %w", err)
		}
		out = a
		return nil
	})
	return out, err
}

// DeleteAlarm removes the alarm.
func (s *Store) DeleteAlarm(ctx context.Context, id core.RecordID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alarms WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("delete alarm: %w", err)
	}
	return requireRow(res, core.NewNotFound("alarm", id))
}

// ---- routes ----

const routeColumns = `id, user_id, start_lat, start_lng, end_lat, end_lng, route_data, created_at`

// SaveRoute stores r or refreshes a recent route with the same endpoints.
func (s *Store) SaveRoute(ctx context.Context, r core.Route, dedupeSince time.Time) (core.Route, error) {
	var out core.Route
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + routeColumns + ` FROM route_cache
			WHERE start_lat = ? AND start_lng = ? AND end_lat = ? AND end_lng = ? AND created_at >= ?`
		args := []any{r.Start.Lat, r.Start.Lng, r.End.Lat, r.End.Lng, ts(dedupeSince)}
		if r.UserID != "" {
			query += ` AND user_id = ?`
			args = append(args, string(r.UserID))
		}
		query += ` ORDER BY created_at DESC, id DESC LIMIT 1`

		cur, err := scanRoute(tx.QueryRowContext(ctx, query, args...))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			res, err := tx.ExecContext(ctx,
				`INSERT INTO route_cache (user_id, start_lat, start_lng, end_lat, end_lng, route_data, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				string(r.UserID), r.Start.Lat, r.Start.Lng, r.End.Lat, r.End.Lng, string(r.Data), ts(r.CreatedAt))
			if err != nil {
				return fmt.Errorf("insert route: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			out = r
			out.ID = core.RecordID(id)
			return nil
		case err != nil:
			return fmt.Errorf("load route: %w", err)
		}

		cur.Data, cur.CreatedAt = r.Data, r.CreatedAt
		if _, err := tx.ExecContext(ctx,
			`UPDATE route_cache SET route_data = ?, created_at = ? WHERE id = ?`,
			string(cur.Data), ts(cur.CreatedAt), int64(cur.ID)); err != nil {
			return fmt.Errorf("refresh route: %w", err)
		}
		out = cur
		return nil
	})
	return out, err
}

// FindRoute returns the newest nearby route saved at or after since.
func (s *Store) FindRoute(ctx context.Context, start, end core.Coordinate, tolerance float64, since time.Time) (core.Route, error) {
	r, err := scanRoute(s.db.QueryRowContext(ctx,
		`SELECT `+routeColumns+` FROM route_cache
		 WHERE abs(start_lat - ?) <= ? AND abs(start_lng - ?) <= ?
		   AND abs(end_lat - ?) <= ? AND abs(end_lng - ?) <= ?
		   AND created_at >= ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		start.Lat, tolerance, start.Lng, tolerance, end.Lat, tolerance, end.Lng, tolerance, ts(since)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Route{}, core.RouteNotFound(start, end)
	}
	if err != nil {
		return core.Route{}, fmt.Errorf("find route: %w", err)
	}
	return r, nil
}

// ListRoutes returns routes newest first.
func (s *Store) ListRoutes(ctx context.Context, userID core.UserID, limit int) ([]core.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM route_cache`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, string(userID))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	out := make([]core.Route, 0)
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RouteStats summarizes the routes of userID.
func (s *Store) RouteStats(ctx context.Context, userID core.UserID) (core.RouteStats, error) {
	var first, last sql.NullInt64
	st := core.RouteStats{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(created_at), MAX(created_at) FROM route_cache WHERE user_id = ?`,
		string(userID)).Scan(&st.TotalRoutes, &first, &last)
	if err != nil {
		return core.RouteStats{}, fmt.Errorf("route stats: %w", err)
	}
	if first.Valid {
		t := fromTS(first.Int64)
		st.FirstSearch = &t
	}
	if last.Valid {
		t := fromTS(last.Int64)
		st.LastSearch = &t
	}
	return st, nil
}

// DeleteRoute removes one route.
func (s *Store) DeleteRoute(ctx context.Context, id core.RecordID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM route_cache WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	return requireRow(res, core.NewNotFound("route", id))
}

// DeleteRoutesBefore removes routes saved before cutoff.
func (s *Store) DeleteRoutesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM route_cache WHERE created_at < ?`, ts(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete routes: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ---- helpers ----

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(r scanner) (core.User, error) {
	var (
		u                     core.User
		id                    string
		deleted               int
		createdAt, lastActive int64
	)
	if err := r.Scan(&id, &u.Nickname, &u.PrepTime, &deleted, &createdAt, &lastActive); err != nil {
		return core.User{}, err
	}
	u.ID, u.Deleted, u.CreatedAt, u.LastActive = core.UserID(id), deleted != 0, fromTS(createdAt), fromTS(lastActive)
	return u, nil
}

func scanSession(r scanner) (core.Session, error) {
	var (
		sess                 core.Session
		id                   int64
		userID               string
		createdAt, updatedAt int64
	)
	if err := r.Scan(&id, &userID, &sess.Title, &sess.Category, &createdAt, &updatedAt); err != nil {
		return core.Session{}, err
	}
	sess.ID, sess.UserID, sess.CreatedAt, sess.UpdatedAt = core.SessionID(id), core.UserID(userID), fromTS(createdAt), fromTS(updatedAt)
	return sess, nil
}

func scanEvent(r scanner) (core.CalendarEvent, error) {
	var (
		ev                   core.CalendarEvent
		id                   int64
		userID               string
		start                int64
		end                  sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := r.Scan(&id, &userID, &ev.Title, &start, &end, &ev.Description, &ev.Location, &createdAt, &updatedAt); err != nil {
		return core.CalendarEvent{}, err
	}
	ev.ID, ev.UserID, ev.StartTime = core.RecordID(id), core.UserID(userID), fromTS(start)
	ev.CreatedAt, ev.UpdatedAt = fromTS(createdAt), fromTS(updatedAt)
	if end.Valid {
		t := fromTS(end.Int64)
		ev.EndTime = &t
	}
	return ev, nil
}

func scanAlarm(r scanner) (core.Alarm, error) {
	var (
		a                    core.Alarm
		id                   int64
		userID               string
		eventID              sql.NullInt64
		alarmTime            int64
		enabled              int
		createdAt, updatedAt int64
	)
	if err := r.Scan(&id, &userID, &eventID, &alarmTime, &a.Label, &enabled, &a.RepeatDays, &createdAt, &updatedAt); err != nil {
		return core.Alarm{}, err
	}
	a.ID, a.UserID, a.AlarmTime, a.Enabled = core.RecordID(id), core.UserID(userID), fromTS(alarmTime), enabled != 0
	a.CreatedAt, a.UpdatedAt = fromTS(createdAt), fromTS(updatedAt)
	if eventID.Valid {
		ref := core.RecordID(eventID.Int64)
		a.CalendarEventID = &ref
	}
	return a, nil
}

func scanRoute(r scanner) (core.Route, error) {
	var (
		rt        core.Route
		id        int64
		userID    string
		data      string
		createdAt int64
	)
	if err := r.Scan(&id, &userID, &rt.Start.Lat, &rt.Start.Lng, &rt.End.Lat, &rt.End.Lng, &data, &createdAt); err != nil {
		return core.Route{}, err
	}
	rt.ID, rt.UserID, rt.Data, rt.CreatedAt = core.RecordID(id), core.UserID(userID), json.RawMessage(data), fromTS(createdAt)
	return rt, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func ts(t time.Time) int64 { return t.UnixNano() }

func fromTS(n int64) time.Time { return time.Unix(0, n) }

func nullTS(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: ts(*t), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
