package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// --- users ---

// GetUser returns a profile by user id, or domain.ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, timezone, tier, credits, name, username, first_seen, last_seen
		FROM users
		WHERE user_id = ?`,
		userID,
	)

	var (
		u         domain.UserProfile
		tier      string
		firstSeen int64
		lastNS    sql.NullInt64
	)
	if err := row.Scan(&u.UserID, &u.Timezone, &tier, &u.Credits, &u.Name, &u.Username, &firstSeen, &lastNS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
		}
		return nil, err
	}
	u.Tier = domain.Tier(tier)
	u.FirstSeen = time.Unix(firstSeen, 0).UTC()
	u.LastSeen = fromNullInt64(lastNS)
	return &u, nil
}

// PutUser inserts or updates a profile.
func (r *SQLiteRepo) PutUser(ctx context.Context, u *domain.UserProfile) error {
	if u == nil {
		return errors.New("nil profile")
	}
	first := u.FirstSeen.UTC().Unix()
	if u.FirstSeen.IsZero() {
		first = time.Now().UTC().Unix()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, timezone, tier, credits, name, username, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			timezone  = excluded.timezone,
			tier      = excluded.tier,
			credits   = excluded.credits,
			name      = excluded.name,
			username  = excluded.username,
			last_seen = excluded.last_seen`,
		u.UserID, u.Timezone, string(u.Tier), u.Credits, u.Name, u.Username, first, toNullInt64(u.LastSeen),
	)
	return err
}

// ListUserIDs returns every known user id (used by broadcast).
func (r *SQLiteRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- reminders ---

const reminderColumns = `id, chat_id, user_id, text, due_at, timezone, created_at,
	snoozes_used, recur_kind, recur_interval, recur_dow, done`

func scanReminder(scan func(dest ...any) error) (*domain.Reminder, error) {
	var (
		rem       domain.Reminder
		dueAt     int64
		createdAt int64
		kind      sql.NullString
		interval  sql.NullInt64
		dow       sql.NullInt64
		doneInt   int
	)
	err := scan(&rem.ID, &rem.ChatID, &rem.UserID, &rem.Text, &dueAt, &rem.Timezone,
		&createdAt, &rem.SnoozesUsed, &kind, &interval, &dow, &doneInt)
	if err != nil {
		return nil, err
	}
	rem.DueAt = time.Unix(dueAt, 0).UTC()
	rem.CreatedAt = time.Unix(createdAt, 0).UTC()
	rem.Recurring = fromRecurColumns(kind, interval, dow)
	rem.Done = doneInt != 0
	return &rem, nil
}

// GetReminder returns a reminder by id, or domain.ErrNotFound.
func (r *SQLiteRepo) GetReminder(ctx context.Context, id string) (*domain.Reminder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	rem, err := scanReminder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reminder %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return rem, nil
}

// PutReminder inserts or updates a reminder.
func (r *SQLiteRepo) PutReminder(ctx context.Context, rem *domain.Reminder) error {
	if rem == nil {
		return errors.New("nil reminder")
	}
	kind, interval, dow := toRecurColumns(rem.Recurring)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (
			id, chat_id, user_id, text, due_at, timezone, created_at,
			snoozes_used, recur_kind, recur_interval, recur_dow, done
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text           = excluded.text,
			due_at         = excluded.due_at,
			snoozes_used   = excluded.snoozes_used,
			recur_kind     = excluded.recur_kind,
			recur_interval = excluded.recur_interval,
			recur_dow      = excluded.recur_dow,
			done           = excluded.done`,
		rem.ID, rem.ChatID, rem.UserID, rem.Text, rem.DueAt.UTC().Unix(), rem.Timezone,
		rem.CreatedAt.UTC().Unix(), rem.SnoozesUsed, kind, interval, dow, boolToInt(rem.Done),
	)
	return err
}

// DeleteReminder removes a reminder; deleting an unknown id is a no-op.
func (r *SQLiteRepo) DeleteReminder(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	return err
}

// ListByUser returns a user's reminders ordered by due instant ascending.
func (r *SQLiteRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = ? ORDER BY due_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	return collectReminders(rows)
}

// ListAllReminders returns every reminder; used to re-arm timers on startup.
func (r *SQLiteRepo) ListAllReminders(ctx context.Context) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders ORDER BY due_at ASC`)
	if err != nil {
		return nil, err
	}
	return collectReminders(rows)
}

func collectReminders(rows *sql.Rows) ([]domain.Reminder, error) {
	defer rows.Close()
	var res []domain.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *rem)
	}
	return res, rows.Err()
}

// CountActive returns the number of not-done reminders owned by the user.
func (r *SQLiteRepo) CountActive(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reminders WHERE user_id = ? AND done = 0`, userID).Scan(&n)
	return n, err
}

// --- redeem codes ---

// GetCode returns a redeem code, or domain.ErrNotFound.
func (r *SQLiteRepo) GetCode(ctx context.Context, code string) (*domain.RedeemCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT code, kind, amount, expires_at, max_uses, used, plan_name
		FROM codes
		WHERE code = ?`, code)

	var (
		c     domain.RedeemCode
		kind  string
		expNS sql.NullInt64
	)
	if err := row.Scan(&c.Code, &kind, &c.Amount, &expNS, &c.MaxUses, &c.Used, &c.PlanName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("code %s: %w", code, domain.ErrNotFound)
		}
		return nil, err
	}
	c.Kind = domain.CodeKind(kind)
	c.ExpiresAt = fromNullInt64(expNS)
	return &c, nil
}

// PutCode inserts or updates a redeem code.
func (r *SQLiteRepo) PutCode(ctx context.Context, c *domain.RedeemCode) error {
	if c == nil {
		return errors.New("nil code")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO codes (code, kind, amount, expires_at, max_uses, used, plan_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			used = excluded.used`,
		c.Code, string(c.Kind), c.Amount, toNullInt64(c.ExpiresAt), c.MaxUses, c.Used, c.PlanName,
	)
	return err
}

// IncrementCodeUse bumps the consumed-use counter for a code.
func (r *SQLiteRepo) IncrementCodeUse(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE codes SET used = used + 1 WHERE code = ?`, code)
	return err
}
