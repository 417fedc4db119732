package repository

// schema is portable between SQLite and PostgreSQL: timestamps are RFC 3339
// text and form data is JSON text. Safe to run on every open.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL DEFAULT '',
    admin BOOLEAN NOT NULL DEFAULT FALSE,
    applied BOOLEAN NOT NULL DEFAULT FALSE,
    accepted BOOLEAN NOT NULL DEFAULT FALSE,
    confirmed BOOLEAN NOT NULL DEFAULT FALSE,
    application_branch TEXT NOT NULL DEFAULT '',
    confirmation_branch TEXT NOT NULL DEFAULT '',
    confirmation_deadline TEXT,
    application_data TEXT NOT NULL DEFAULT '[]',
    confirmation_data TEXT NOT NULL DEFAULT '[]',
    application_start_time TEXT,
    application_submit_time TEXT,
    confirmation_start_time TEXT,
    confirmation_submit_time TEXT,
    team_id TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    seq BIGINT NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email)) WHERE email <> '';
CREATE INDEX IF NOT EXISTS idx_users_application_branch ON users(application_branch);
CREATE INDEX IF NOT EXISTS idx_users_confirmation_branch ON users(confirmation_branch);

CREATE TABLE IF NOT EXISTS branch_schedules (
    name TEXT PRIMARY KEY,
    open_at TEXT NOT NULL,
    close_at TEXT NOT NULL,
    allow_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
    auto_accept BOOLEAN NOT NULL DEFAULT FALSE,
    uses_rolling_deadline BOOLEAN NOT NULL DEFAULT FALSE,
    auto_confirm BOOLEAN NOT NULL DEFAULT FALSE,
    is_acceptance BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS settings (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
