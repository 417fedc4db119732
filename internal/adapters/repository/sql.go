package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	settingTeamsEnabled = "teams_enabled"
	settingQREnabled    = "qr_enabled"
)

// SQLStore persists state through database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string
	opts   options
}

var _ Store = (*SQLStore)(nil)

// OpenSQL opens dsn with driver, creates the schema and returns the store.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite handles one writer at a time
	}
	s, err := NewSQLStore(ctx, db, driver, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database and creates the schema.
func NewSQLStore(ctx context.Context, db *sql.DB, driver string, opts ...Option) (*SQLStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &SQLStore{db: db, driver: driver, opts: o}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return s, nil
}

// rebind rewrites ? placeholders as $1..$n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const userColumns = `id, email, name, admin, applied, accepted, confirmed,
    application_branch, confirmation_branch, confirmation_deadline,
    application_data, confirmation_data,
    application_start_time, application_submit_time, confirmation_start_time, confirmation_submit_time,
    team_id, created_at`

// encodeUser returns the userColumns values of u, in order.
func encodeUser(u *model.User) ([]any, error) {
	appData, err := json.Marshal(nonNilItems(u.ApplicationData))
	if err != nil {
		return nil, fmt.Errorf("encode application data: %w", err)
	}
	confData, err := json.Marshal(nonNilItems(u.ConfirmationData))
	if err != nil {
		return nil, fmt.Errorf("encode confirmation data: %w", err)
	}
	var deadline sql.NullString
	if u.ConfirmationDeadline != nil {
		raw, err := json.Marshal(u.ConfirmationDeadline)
		if err != nil {
			return nil, fmt.Errorf("encode deadline: %w", err)
		}
		deadline = sql.NullString{String: string(raw), Valid: true}
	}
	return []any{
		u.ID, u.Email, u.Name, u.Admin, u.Applied, u.Accepted, u.Confirmed,
		u.ApplicationBranch, u.ConfirmationBranch, deadline,
		string(appData), string(confData),
		nullTime(u.ApplicationStartTime), nullTime(u.ApplicationSubmitTime),
		nullTime(u.ConfirmationStartTime), nullTime(u.ConfirmationSubmitTime),
		u.TeamID, formatTime(u.CreatedAt),
	}, nil
}

func nonNilItems(items []model.FormItem) []model.FormItem {
	if items == nil {
		return []model.FormItem{}
	}
	return items
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var appData, confData, created string
	var deadline, appStart, appSubmit, confStart, confSubmit sql.NullString
	if err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Admin, &u.Applied, &u.Accepted, &u.Confirmed,
		&u.ApplicationBranch, &u.ConfirmationBranch, &deadline,
		&appData, &confData,
		&appStart, &appSubmit, &confStart, &confSubmit,
		&u.TeamID, &created,
	); err != nil {
		return nil, err
	}
	if deadline.Valid {
		u.ConfirmationDeadline = &model.Deadline{}
		if err := json.Unmarshal([]byte(deadline.String), u.ConfirmationDeadline); err != nil {
			return nil, fmt.Errorf("decode deadline: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(appData), &u.ApplicationData); err != nil {
		return nil, fmt.Errorf("decode application data: %w", err)
	}
	if err := json.Unmarshal([]byte(confData), &u.ConfirmationData); err != nil {
		return nil, fmt.Errorf("decode confirmation data: %w", err)
	}
	var err error
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	for _, p := range []struct {
		src sql.NullString
		dst **time.Time
	}{
		{appStart, &u.ApplicationStartTime},
		{appSubmit, &u.ApplicationSubmitTime},
		{confStart, &u.ConfirmationStartTime},
		{confSubmit, &u.ConfirmationSubmitTime},
	} {
		if !p.src.Valid {
			continue
		}
		t, err := parseTime(p.src.String)
		if err != nil {
			return nil, err
		}
		*p.dst = &t
	}
	if len(u.ApplicationData) == 0 {
		u.ApplicationData = nil
	}
	if len(u.ConfirmationData) == 0 {
		u.ConfirmationData = nil
	}
	return &u, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode time %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// isUniqueViolation reports whether err is a unique constraint failure from
// either driver. SQLite codes are masked to the primary result code since
// extended codes depend on the connection.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// CreateUser inserts u, stamping CreatedAt when unset.
func (s *SQLStore) CreateUser(ctx context.Context, u *model.User) (err error) {
	defer func(start time.Time) { observe("create_user", start, err) }(time.Now())
	if err = validateUser(u); err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.opts.now().UTC()
	}
	args, err := encodeUser(u)
	if err != nil {
		return err
	}
	var exists int
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM users WHERE id = ?`), u.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: user %s", ErrConflict, u.ID)
	}
	query := `INSERT INTO users (` + userColumns + `, seq)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
        (SELECT COALESCE(MAX(seq), 0) + 1 FROM users))`
	if _, err = s.db.ExecContext(ctx, s.rebind(query), args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s", ErrConflict, u.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateUser replaces every column of the stored user.
func (s *SQLStore) UpdateUser(ctx context.Context, u *model.User) (err error) {
	defer func(start time.Time) { observe("update_user", start, err) }(time.Now())
	if err = validateUser(u); err != nil {
		return err
	}
	cols, err := encodeUser(u)
	if err != nil {
		return err
	}
	query := `UPDATE users SET email = ?, name = ?, admin = ?, applied = ?, accepted = ?, confirmed = ?,
        application_branch = ?, confirmation_branch = ?, confirmation_deadline = ?,
        application_data = ?, confirmation_data = ?,
        application_start_time = ?, application_submit_time = ?, confirmation_start_time = ?, confirmation_submit_time = ?,
        team_id = ?, created_at = ?
        WHERE id = ?`
	args := append(append([]any{}, cols[1:]...), cols[0])
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s", ErrConflict, u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, u.ID)
	}
	return nil
}

// GetUser loads one user by id.
func (s *SQLStore) GetUser(ctx context.Context, id string) (u *model.User, err error) {
	defer func(start time.Time) { observe("get_user", start, err) }(time.Now())
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	u, err = scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail loads the user with email, ignoring case.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (u *model.User, err error) {
	defer func(start time.Time) { observe("get_user_by_email", start, err) }(time.Now())
	want := normaliseEmail(email)
	if want == "" {
		return nil, fmt.Errorf("%w: empty email", ErrNotFound)
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = ? ORDER BY seq LIMIT 1`
	u, err = scanUser(s.db.QueryRowContext(ctx, s.rebind(query), want))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: email %s", ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func whereClause(f Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if f.Applied != nil {
		add("applied = ?", *f.Applied)
	}
	if f.Accepted != nil {
		add("accepted = ?", *f.Accepted)
	}
	if f.Confirmed != nil {
		add("confirmed = ?", *f.Confirmed)
	}
	if f.Admin != nil {
		add("admin = ?", *f.Admin)
	}
	if f.ApplicationBranch != "" {
		add("application_branch = ?", f.ApplicationBranch)
	}
	if f.ConfirmationBranch != "" {
		add("confirmation_branch = ?", f.ConfirmationBranch)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListUsers returns matching users in creation order.
func (s *SQLStore) ListUsers(ctx context.Context, f Filter) (users []*model.User, err error) {
	defer func(start time.Time) { observe("list_users", start, err) }(time.Now())
	where, args := whereClause(f)
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users`+where+` ORDER BY seq`), args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()
	users = []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CountUsers counts matching users.
func (s *SQLStore) CountUsers(ctx context.Context, f Filter) (n int, err error) {
	defer func(start time.Time) { observe("count_users", start, err) }(time.Now())
	where, args := whereClause(f)
	if err = s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM users`+where), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Schedules loads every branch schedule.
func (s *SQLStore) Schedules(ctx context.Context) (out map[string]branch.Schedule, err error) {
	defer func(start time.Time) { observe("schedules", start, err) }(time.Now())
	rows, err := s.db.QueryContext(ctx, `SELECT name, open_at, close_at, allow_anonymous, auto_accept,
        uses_rolling_deadline, auto_confirm, is_acceptance FROM branch_schedules`)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out = make(map[string]branch.Schedule)
	for rows.Next() {
		var (
			name, openAt, closeAt string
			sch                   branch.Schedule
		)
		if err := rows.Scan(&name, &openAt, &closeAt, &sch.AllowAnonymous, &sch.AutoAccept,
			&sch.UsesRollingDeadline, &sch.AutoConfirm, &sch.IsAcceptance); err != nil {
			return nil, fmt.Errorf("load schedules: %w", err)
		}
		if sch.Open, err = parseTime(openAt); err != nil {
			return nil, err
		}
		if sch.Close, err = parseTime(closeAt); err != nil {
			return nil, err
		}
		out[name] = sch
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	return out, nil
}

// PutSchedule upserts the schedule of name.
func (s *SQLStore) PutSchedule(ctx context.Context, name string, sch branch.Schedule) (err error) {
	defer func(start time.Time) { observe("put_schedule", start, err) }(time.Now())
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: missing branch name", ErrInvalidSchedule)
	}
	query := `INSERT INTO branch_schedules (name, open_at, close_at, allow_anonymous, auto_accept,
        uses_rolling_deadline, auto_confirm, is_acceptance)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (name) DO UPDATE SET open_at = excluded.open_at, close_at = excluded.close_at,
        allow_anonymous = excluded.allow_anonymous, auto_accept = excluded.auto_accept,
        uses_rolling_deadline = excluded.uses_rolling_deadline, auto_confirm = excluded.auto_confirm,
        is_acceptance = excluded.is_acceptance`
	_, err = s.db.ExecContext(ctx, s.rebind(query), name, formatTime(sch.Open), formatTime(sch.Close),
		sch.AllowAnonymous, sch.AutoAccept, sch.UsesRollingDeadline, sch.AutoConfirm, sch.IsAcceptance)
	if err != nil {
		return fmt.Errorf("put schedule: %w", err)
	}
	return nil
}

// Settings loads the site settings, falling back to defaults per key.
func (s *SQLStore) Settings(ctx context.Context) (st model.Settings, err error) {
	defer func(start time.Time) { observe("settings", start, err) }(time.Now())
	st = s.opts.defaults
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM settings`)
	if err != nil {
		return st, fmt.Errorf("load settings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return st, fmt.Errorf("load settings: %w", err)
		}
		on, perr := strconv.ParseBool(value)
		if perr != nil {
			continue
		}
		switch name {
		case settingTeamsEnabled:
			st.TeamsEnabled = on
		case settingQREnabled:
			st.QREnabled = on
		}
	}
	if err := rows.Err(); err != nil {
		return st, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

// PutSettings upserts every setting.
func (s *SQLStore) PutSettings(ctx context.Context, st model.Settings) (err error) {
	defer func(start time.Time) { observe("put_settings", start, err) }(time.Now())
	query := s.rebind(`INSERT INTO settings (name, value) VALUES (?, ?)
        ON CONFLICT (name) DO UPDATE SET value = excluded.value`)
	for name, on := range map[string]bool{settingTeamsEnabled: st.TeamsEnabled, settingQREnabled: st.QREnabled} {
		if _, err = s.db.ExecContext(ctx, query, name, strconv.FormatBool(on)); err != nil {
			return fmt.Errorf("put settings: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error { return s.db.Close() }
