// Package storage is the durable ledger store on SQLite. Records and
// accounts are plain rows; the balance is never stored, only derived.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"paghetta/internal/core"

	_ "modernc.org/sqlite"
)

// timeFormat is how instants are stored. RFC 3339 keeps sqlite's date()
// usable on the column, which the duplicate guard relies on.
const timeFormat = time.RFC3339

const (
	syncPending = "pending"
	syncDone    = "synced"
	syncError   = "error"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- accounts ---

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, fmt.Errorf("validate account: %w", err)
	}

	paidThrough := sql.NullString{}
	if !a.PaidThrough.IsZero() {
		paidThrough = sql.NullString{String: a.PaidThrough.UTC().Format(timeFormat), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (username, password_hash, role, weekly_rate_cents, paid_through)
		 VALUES (?, ?, ?, ?, ?)`,
		a.Username, a.PasswordHash, string(a.Role), a.WeeklyRate.Cents, paidThrough)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account insert id: %w", err)
	}
	a.ID = id

	slog.InfoContext(ctx, "Account created", "id", a.ID, "username", a.Username, "role", a.Role)
	return a, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, weekly_rate_cents, paid_through
		 FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *SQLiteRepository) GetAccountByUsername(ctx context.Context, username string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, weekly_rate_cents, paid_through
		 FROM accounts WHERE username = ?`, username)
	return scanAccount(row)
}

// GetDependentAccount returns the first dependent account. The household
// model has a single dependent today, but nothing below this call assumes
// that cardinality.
func (r *SQLiteRepository) GetDependentAccount(ctx context.Context) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, weekly_rate_cents, paid_through
		 FROM accounts WHERE role = ? ORDER BY id LIMIT 1`, string(core.RoleDependent))
	return scanAccount(row)
}

func (r *SQLiteRepository) UpdateAccountCredentials(ctx context.Context, id int64, username, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET username = ?, password_hash = ? WHERE id = ?`,
		username, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update account credentials: %w", err)
	}
	return requireRowAffected(res)
}

func (r *SQLiteRepository) UpdateWeeklyRate(ctx context.Context, id int64, rate core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET weekly_rate_cents = ? WHERE id = ?`, rate.Cents, id)
	if err != nil {
		return fmt.Errorf("update weekly rate: %w", err)
	}
	if err := requireRowAffected(res); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Weekly rate updated", "account_id", id, "rate_cents", rate.Cents)
	return nil
}

// SetPaidThrough moves the settlement watermark without emitting records.
// Used when an account is settled for the first time (no back-pay) and
// when settlement skips a zero rate.
func (r *SQLiteRepository) SetPaidThrough(ctx context.Context, id int64, t time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET paid_through = ? WHERE id = ?`,
		t.UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("set paid_through: %w", err)
	}
	return requireRowAffected(res)
}

// --- records ---

func (r *SQLiteRepository) AppendRecord(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := rec.Validate(); err != nil {
		return core.Record{}, fmt.Errorf("validate record: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO records (account_id, recorded_at, amount_cents, note, category)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.AccountID, rec.Date.UTC().Format(timeFormat), rec.Amount.Cents, rec.Note, rec.Category)
	if err != nil {
		return core.Record{}, fmt.Errorf("insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Record{}, fmt.Errorf("record insert id: %w", err)
	}
	rec.ID = id

	slog.InfoContext(ctx, "Record saved",
		"id", rec.ID,
		"account_id", rec.AccountID,
		"amount_cents", rec.Amount.Cents,
		"category", rec.Category)

	return rec, nil
}

func (r *SQLiteRepository) GetRecord(ctx context.Context, id int64) (core.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, recorded_at, amount_cents, note, category
		 FROM records WHERE id = ?`, id)
	return scanRecord(row)
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if err := requireRowAffected(res); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Record deleted", "id", id)
	return nil
}

// ListRecords returns every record for an account, newest first.
func (r *SQLiteRepository) ListRecords(ctx context.Context, accountID int64) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, recorded_at, amount_cents, note, category
		 FROM records WHERE account_id = ?
		 ORDER BY recorded_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListRecordsBetween is the range query: from/to bounds are optional (zero
// time = open) and to is inclusive through the end of its calendar day.
func (r *SQLiteRepository) ListRecordsBetween(ctx context.Context, accountID int64, from, to time.Time) ([]core.Record, error) {
	q := `SELECT id, account_id, recorded_at, amount_cents, note, category
	      FROM records WHERE account_id = ?`
	args := []any{accountID}
	if !from.IsZero() {
		q += ` AND recorded_at >= ?`
		args = append(args, from.UTC().Format(timeFormat))
	}
	if !to.IsZero() {
		q += ` AND date(recorded_at) <= date(?)`
		args = append(args, to.UTC().Format(timeFormat))
	}
	q += ` ORDER BY recorded_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list records between: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// HasDuplicate implements the duplicate guard: same account, identical
// amount, identical note (case-sensitive) and a timestamp on the same
// calendar day. Deliberately a heuristic; two genuinely distinct same-day
// twins are indistinguishable and the second one is dropped.
func (r *SQLiteRepository) HasDuplicate(ctx context.Context, accountID int64, day time.Time, amount core.Money, note string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM records
		 WHERE account_id = ? AND amount_cents = ? AND note = ?
		   AND date(recorded_at) = date(?)
		 LIMIT 1`,
		accountID, amount.Cents, note, day.UTC().Format(timeFormat)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("duplicate lookup: %w", err)
	}
	return true, nil
}

// ApplyAccruals inserts the given accrual records and advances the
// account's watermark in one transaction. A crash can therefore never
// leave an emitted record without the matching watermark advance, which
// would double-pay on retry.
func (r *SQLiteRepository) ApplyAccruals(ctx context.Context, accountID int64, accruals []core.Record, paidThrough time.Time) ([]core.Record, error) {
	if len(accruals) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settlement tx: %w", err)
	}
	defer tx.Rollback()

	applied := make([]core.Record, 0, len(accruals))
	for _, rec := range accruals {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO records (account_id, recorded_at, amount_cents, note, category)
			 VALUES (?, ?, ?, ?, ?)`,
			accountID, rec.Date.UTC().Format(timeFormat), rec.Amount.Cents, rec.Note, rec.Category)
		if err != nil {
			return nil, fmt.Errorf("insert accrual: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("accrual insert id: %w", err)
		}
		rec.ID = id
		rec.AccountID = accountID
		applied = append(applied, rec)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET paid_through = ? WHERE id = ?`,
		paidThrough.UTC().Format(timeFormat), accountID)
	if err != nil {
		return nil, fmt.Errorf("advance watermark: %w", err)
	}
	if err := requireRowAffected(res); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settlement tx: %w", err)
	}

	slog.InfoContext(ctx, "Accruals applied",
		"account_id", accountID,
		"count", len(applied),
		"paid_through", paidThrough.Format("2006-01-02"))

	return applied, nil
}

// --- sheet mirror sync bookkeeping ---

// ListPendingSyncRecords returns records not yet mirrored, oldest first.
func (r *SQLiteRepository) ListPendingSyncRecords(ctx context.Context, limit int) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, recorded_at, amount_cents, note, category
		 FROM records WHERE sync_status = ?
		 ORDER BY id LIMIT ?`, syncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *SQLiteRepository) MarkRecordSynced(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET sync_status = ?, synced_at = ? WHERE id = ?`,
		syncDone, time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("mark record synced: %w", err)
	}
	return requireRowAffected(res)
}

func (r *SQLiteRepository) MarkRecordSyncError(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET sync_status = ? WHERE id = ?`, syncError, id)
	if err != nil {
		return fmt.Errorf("mark record sync error: %w", err)
	}
	if err := requireRowAffected(res); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Record marked with sync error", "id", id)
	return nil
}

// --- scanning helpers ---

func scanAccount(row *sql.Row) (core.Account, error) {
	var (
		a           core.Account
		role        string
		paidThrough sql.NullString
	)
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &role, &a.WeeklyRate.Cents, &paidThrough)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.Role = core.Role(role)
	if paidThrough.Valid {
		t, err := time.Parse(timeFormat, paidThrough.String)
		if err != nil {
			return core.Account{}, fmt.Errorf("parse paid_through: %w", err)
		}
		a.PaidThrough = t
	}
	return a, nil
}

func scanRecord(row *sql.Row) (core.Record, error) {
	var (
		rec  core.Record
		date string
	)
	err := row.Scan(&rec.ID, &rec.AccountID, &date, &rec.Amount.Cents, &rec.Note, &rec.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.Date, err = time.Parse(timeFormat, date)
	if err != nil {
		return core.Record{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]core.Record, error) {
	var out []core.Record
	for rows.Next() {
		var (
			rec  core.Record
			date string
		)
		if err := rows.Scan(&rec.ID, &rec.AccountID, &date, &rec.Amount.Cents, &rec.Note, &rec.Category); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		t, err := time.Parse(timeFormat, date)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		rec.Date = t
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return out, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
