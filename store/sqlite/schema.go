package sqlite

// Timestamps are stored as Unix nanoseconds so ORDER BY is chronological.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
    id          TEXT PRIMARY KEY,
    nickname    TEXT NOT NULL,
    prep_time   INTEGER NOT NULL DEFAULT 1800,
    deleted     INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    last_active INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    TEXT NOT NULL REFERENCES users(id),
    title      TEXT NOT NULL,
    category   TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_updated ON sessions(user_id, updated_at);

CREATE TABLE IF NOT EXISTS messages (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    intent     TEXT NOT NULL DEFAULT '',
    confidence REAL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session_created ON messages(session_id, created_at, id);

CREATE TABLE IF NOT EXISTS calendar_events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id     TEXT NOT NULL REFERENCES users(id),
    title       TEXT NOT NULL,
    start_time  INTEGER NOT NULL,
    end_time    INTEGER,
    description TEXT NOT NULL DEFAULT '',
    location    TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_user_start ON calendar_events(user_id, start_time);

CREATE TABLE IF NOT EXISTS alarms (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id           TEXT NOT NULL REFERENCES users(id),
    calendar_event_id INTEGER REFERENCES calendar_events(id) ON DELETE SET NULL,
    alarm_time        INTEGER NOT NULL,
    label             TEXT NOT NULL,
    enabled           INTEGER NOT NULL DEFAULT 1,
    repeat_days       TEXT NOT NULL DEFAULT '',
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alarms_user_time ON alarms(user_id, alarm_time);

CREATE TABLE IF NOT EXISTS route_cache (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    TEXT NOT NULL DEFAULT '',
    start_lat  REAL NOT NULL,
    start_lng  REAL NOT NULL,
    end_lat    REAL NOT NULL,
    end_lng    REAL NOT NULL,
    route_data TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_routes_endpoints ON route_cache(start_lat, start_lng, end_lat, end_lng);
CREATE INDEX IF NOT EXISTS idx_routes_user_created ON route_cache(user_id, created_at);
`
