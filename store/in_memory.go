package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Sjoneon/DaySync-Server/core"
)

// InMemory is a volatile core.Repository storing records in process local
// maps. It is safe for concurrent access. Returned values are copies.
type InMemory struct {
	mu sync.RWMutex

	users    map[core.UserID]core.User
	sessions map[core.SessionID]core.Session
	messages map[core.SessionID][]core.Message
	events   map[core.RecordID]core.CalendarEvent
	alarms   map[core.RecordID]core.Alarm
	routes   map[core.RecordID]core.Route

	nextSession core.SessionID
	nextMessage core.MessageID
	nextRecord  core.RecordID
	nextRoute   core.RecordID
}

var _ core.Repository = (*InMemory)(nil)

// NewInMemory constructs an empty in-memory repository.
func NewInMemory() *InMemory {
	return &InMemory{
		users:    make(map[core.UserID]core.User),
		sessions: make(map[core.SessionID]core.Session),
		messages: make(map[core.SessionID][]core.Message),
		events:   make(map[core.RecordID]core.CalendarEvent),
		alarms:   make(map[core.RecordID]core.Alarm),
		routes:   make(map[core.RecordID]core.Route),
	}
}

// ---- users ----

// CreateUser stores u. An empty ID is replaced by a fresh UUID and empty
// preferences by their defaults.
func (s *InMemory) CreateUser(_ context.Context, u core.User) (core.User, error) {
	u = WithUserDefaults(u)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return core.User{}, fmt.Errorf("%w: user %s", ErrDuplicate, u.ID)
	}
	s.users[u.ID] = u
	return u, nil
}

// GetUser returns a live user.
func (s *InMemory) GetUser(_ context.Context, id core.UserID) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.liveUserLocked(id)
	if !ok {
		return core.User{}, core.UserNotFound(id)
	}
	return u, nil
}

// UpdateUser applies patch and bumps LastActive to at.
func (s *InMemory) UpdateUser(_ context.Context, id core.UserID, patch core.UserPatch, at time.Time) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.liveUserLocked(id)
	if !ok {
		return core.User{}, core.UserNotFound(id)
	}
	u = patch.Apply(u)
	u.LastActive = at
	s.users[id] = u
	return u, nil
}

// TouchUser bumps LastActive to at.
func (s *InMemory) TouchUser(_ context.Context, id core.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.liveUserLocked(id)
	if !ok {
		return core.UserNotFound(id)
	}
	u.LastActive = at
	s.users[id] = u
	return nil
}

// SoftDeleteUser flags the user as deleted. The record is kept.
func (s *InMemory) SoftDeleteUser(_ context.Context, id core.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.liveUserLocked(id)
	if !ok {
		return core.UserNotFound(id)
	}
	u.Deleted = true
	s.users[id] = u
	return nil
}

// ListUsers returns live users ordered by CreatedAt, optionally only those
// last active before inactiveSince.
func (s *InMemory) ListUsers(_ context.Context, inactiveSince time.Time) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		if u.Deleted {
			continue
		}
		if !inactiveSince.IsZero() && !u.LastActive.Before(inactiveSince) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemory) liveUserLocked(id core.UserID) (core.User, bool) {
	u, ok := s.users[id]
	if !ok || u.Deleted {
		return core.User{}, false
	}
	return u, true
}

// ---- sessions ----

// CreateSession stores a new session for an existing user and assigns its id.
func (s *InMemory) CreateSession(_ context.Context, sess core.Session) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liveUserLocked(sess.UserID); !ok {
		return core.Session{}, core.UserNotFound(sess.UserID)
	}
	s.nextSession++
	sess.ID = s.nextSession
	s.sessions[sess.ID] = sess
	return sess, nil
}

// GetSession returns a session by id.
func (s *InMemory) GetSession(_ context.Context, id core.SessionID) (core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return core.Session{}, core.NewNotFound("session", id)
	}
	return sess, nil
}

// ListSessions returns the user's sessions, most recently updated first.
func (s *InMemory) ListSessions(_ context.Context, userID core.UserID, limit int) ([]core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Session, 0)
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return truncate(out, limit), nil
}

// RenameSession changes the title. UpdatedAt is left untouched so renaming
// does not reorder the session list.
func (s *InMemory) RenameSession(_ context.Context, id core.SessionID, title string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return core.Session{}, core.NewNotFound("session", id)
	}
	sess.Title = title
	s.sessions[id] = sess
	return sess, nil
}

// DeleteSessions removes the sessions and their messages. Unknown ids are
// skipped; the number of deleted sessions is returned.
func (s *InMemory) DeleteSessions(_ context.Context, ids ...core.SessionID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := s.sessions[id]; !ok {
			continue
		}
		delete(s.sessions, id)
		delete(s.messages, id)
		n++
	}
	return n, nil
}

// ---- messages ----

// AppendExchange stores both halves of a turn and bumps the session.
func (s *InMemory) AppendExchange(_ context.Context, sessionID core.SessionID, user, assistant core.Message, at time.Time) (core.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return core.Exchange{}, core.NewNotFound("session", sessionID)
	}
	return s.appendLocked(sess, user, assistant, at), nil
}

// StartExchange creates sess together with its first exchange.
func (s *InMemory) StartExchange(_ context.Context, sess core.Session, user, assistant core.Message, at time.Time) (core.Session, core.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liveUserLocked(sess.UserID); !ok {
		return core.Session{}, core.Exchange{}, core.UserNotFound(sess.UserID)
	}
	s.nextSession++
	sess.ID = s.nextSession
	ex := s.appendLocked(sess, user, assistant, at)
	return s.sessions[sess.ID], ex, nil
}

func (s *InMemory) appendLocked(sess core.Session, user, assistant core.Message, at time.Time) core.Exchange {
	stored := make([]core.Message, 0, 2)
	for _, m := range []core.Message{user, assistant} {
		s.nextMessage++
		m.ID = s.nextMessage
		m.SessionID = sess.ID
		if m.CreatedAt.IsZero() {
			m.CreatedAt = at
		}
		if m.Confidence != nil {
			c := *m.Confidence
			m.Confidence = &c
		}
		stored = append(stored, m)
	}
	s.messages[sess.ID] = append(s.messages[sess.ID], stored...)

	sess.UpdatedAt = at
	s.sessions[sess.ID] = sess

	return core.Exchange{User: stored[0], Assistant: stored[1]}
}

// RecentMessages returns at most limit messages, newest first.
func (s *InMemory) RecentMessages(_ context.Context, sessionID core.SessionID, limit int) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sortedMessagesLocked(sessionID)
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return truncate(msgs, limit), nil
}

// ListMessages returns all messages of the session, oldest first.
func (s *InMemory) ListMessages(_ context.Context, sessionID core.SessionID) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, core.NewNotFound("session", sessionID)
	}
	return s.sortedMessagesLocked(sessionID), nil
}

// CountMessages returns the number of messages in the session.
func (s *InMemory) CountMessages(_ context.Context, sessionID core.SessionID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[sessionID]), nil
}

// DeleteMessages removes messages by id and returns how many were removed.
func (s *InMemory) DeleteMessages(_ context.Context, ids ...core.MessageID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[core.MessageID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sid, msgs := range s.messages {
		kept := msgs[:0]
		for _, m := range msgs {
			if _, ok := drop[m.ID]; ok {
				n++
				continue
			}
			kept = append(kept, m)
		}
		s.messages[sid] = kept
	}
	return n, nil
}

func (s *InMemory) sortedMessagesLocked(sessionID core.SessionID) []core.Message {
	msgs := append([]core.Message(nil), s.messages[sessionID]...)
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
	return msgs
}

// ---- calendar events ----

// CreateEvent stores ev and assigns its id.
func (s *InMemory) CreateEvent(_ context.Context, ev core.CalendarEvent) (core.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecord++
	ev.ID = s.nextRecord
	if ev.EndTime != nil {
		end := *ev.EndTime
		ev.EndTime = &end
	}
	s.events[ev.ID] = ev
	return ev, nil
}

// GetEvent returns an event by id.
func (s *InMemory) GetEvent(_ context.Context, id core.RecordID) (core.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return core.CalendarEvent{}, core.NewNotFound("event", id)
	}
	return ev, nil
}

// FindEvents returns matching events ordered by start time ascending.
func (s *InMemory) FindEvents(_ context.Context, q core.EventQuery) ([]core.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.CalendarEvent, 0)
	for _, ev := range s.events {
		if q.Matches(ev) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return truncate(out, q.Limit), nil
}

// UpdateEvent applies patch to the event.
func (s *InMemory) UpdateEvent(_ context.Context, id core.RecordID, patch core.EventPatch, at time.Time) (core.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return core.CalendarEvent{}, core.NewNotFound("event", id)
	}
	ev = patch.Apply(ev, at)
	s.events[id] = ev
	return ev, nil
}

// DeleteEvent removes the event and unlinks alarms pointing at it.
func (s *InMemory) DeleteEvent(_ context.Context, id core.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return core.NewNotFound("event", id)
	}
	delete(s.events, id)
	for aid, a := range s.alarms {
		if a.CalendarEventID != nil && *a.CalendarEventID == id {
			a.CalendarEventID = nil
			s.alarms[aid] = a
		}
	}
	return nil
}

// ---- alarms ----

// CreateAlarm stores a and assigns its id.
func (s *InMemory) CreateAlarm(_ context.Context, a core.Alarm) (core.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecord++
	a.ID = s.nextRecord
	if a.CalendarEventID != nil {
		ref := *a.CalendarEventID
		a.CalendarEventID = &ref
	}
	s.alarms[a.ID] = a
	return a, nil
}

// GetAlarm returns an alarm by id.
func (s *InMemory) GetAlarm(_ context.Context, id core.RecordID) (core.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alarms[id]
	if !ok {
		return core.Alarm{}, core.NewNotFound("alarm", id)
	}
	return a, nil
}

// FindAlarms returns matching alarms ordered by alarm time ascending.
func (s *InMemory) FindAlarms(_ context.Context, q core.AlarmQuery) ([]core.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Alarm, 0)
	for _, a := range s.alarms {
		if q.Matches(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AlarmTime.Equal(out[j].AlarmTime) {
			return out[i].AlarmTime.Before(out[j].AlarmTime)
		}
		return out[i].ID < out[j].ID
	})
	return truncate(out, q.Limit), nil
}

// UpdateAlarm applies patch to the alarm.
func (s *InMemory) UpdateAlarm(_ context.Context, id core.RecordID, patch core.AlarmPatch, at time.Time) (core.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alarms[id]
	if !ok {
		return core.Alarm{}, core.NewNotFound("alarm", id)
	}
	a = patch.Apply(a, at)
	s.alarms[id] = a
	return a, nil
}

// DeleteAlarm removes the alarm.
func (s *InMemory) DeleteAlarm(_ context.Context, id core.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alarms[id]; !ok {
		return core.NewNotFound("alarm", id)
	}
	delete(s.alarms, id)
	return nil
}

// ---- routes ----

// SaveRoute stores r or refreshes a recent route with the same endpoints.
func (s *InMemory) SaveRoute(_ context.Context, r core.Route, dedupeSince time.Time) (core.Route, error) {
	r.Data = append([]byte(nil), r.Data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	var dup *core.Route
	for _, cur := range s.routes {
		if !cur.SameEndpoints(r) || cur.CreatedAt.Before(dedupeSince) {
			continue
		}
		if r.UserID != "" && cur.UserID != r.UserID {
			continue
		}
		if dup == nil || newerRoute(cur, *dup) {
			c := cur
			dup = &c
		}
	}
	if dup != nil {
		dup.Data = r.Data
		dup.CreatedAt = r.CreatedAt
		s.routes[dup.ID] = *dup
		return *dup, nil
	}
	s.nextRoute++
	r.ID = s.nextRoute
	s.routes[r.ID] = r
	return r, nil
}

// FindRoute returns the newest nearby route saved at or after since.
func (s *InMemory) FindRoute(_ context.Context, start, end core.Coordinate, tolerance float64, since time.Time) (core.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *core.Route
	for _, r := range s.routes {
		if r.CreatedAt.Before(since) || !r.Start.Near(start, tolerance) || !r.End.Near(end, tolerance) {
			continue
		}
		if best == nil || newerRoute(r, *best) {
			c := r
			best = &c
		}
	}
	if best == nil {
		return core.Route{}, core.RouteNotFound(start, end)
	}
	return *best, nil
}

// ListRoutes returns routes newest first.
func (s *InMemory) ListRoutes(_ context.Context, userID core.UserID, limit int) ([]core.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Route, 0)
	for _, r := range s.routes {
		if userID == "" || r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerRoute(out[i], out[j]) })
	return truncate(out, limit), nil
}

// RouteStats summarizes the routes of userID.
func (s *InMemory) RouteStats(_ context.Context, userID core.UserID) (core.RouteStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := core.RouteStats{UserID: userID}
	for _, r := range s.routes {
		if r.UserID != userID {
			continue
		}
		st.TotalRoutes++
		at := r.CreatedAt
		if st.FirstSearch == nil || at.Before(*st.FirstSearch) {
			first := at
			st.FirstSearch = &first
		}
		if st.LastSearch == nil || at.After(*st.LastSearch) {
			last := at
			st.LastSearch = &last
		}
	}
	return st, nil
}

// DeleteRoute removes one route.
func (s *InMemory) DeleteRoute(_ context.Context, id core.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.routes[id]; !ok {
		return core.NewNotFound("route", id)
	}
	delete(s.routes, id)
	return nil
}

// DeleteRoutesBefore removes routes saved before cutoff.
func (s *InMemory) DeleteRoutesBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, r := range s.routes {
		if r.CreatedAt.Before(cutoff) {
			delete(s.routes, id)
			n++
		}
	}
	return n, nil
}

func newerRoute(a, b core.Route) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
