package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ogulcanaydogan/binwatch/pkg/model"
)

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Readers keep working while the monitor writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateBin(ctx context.Context, bin *model.Bin) error {
	if bin.ID == "" {
		bin.ID = uuid.New().String()
	}
	if bin.CreatedAt.IsZero() {
		bin.CreatedAt = time.Now()
	}
	bin.CreatedAt = bin.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bins (id, name, type, location, created_at) VALUES (?, ?, ?, ?, ?)`,
		bin.ID, bin.Name, bin.Type, bin.Location, bin.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("bin %q: %w", bin.Name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert bin: %w", err)
	}
	return nil
}

func (s *SQLite) GetBin(ctx context.Context, id string) (*model.Bin, error) {
	var b model.Bin
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, location, created_at FROM bins WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Type, &b.Location, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bin %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bin: %w", err)
	}
	return &b, nil
}

func (s *SQLite) ListBins(ctx context.Context) ([]model.Bin, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, location, created_at FROM bins ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list bins: %w", err)
	}
	defer rows.Close()

	var bins []model.Bin
	for rows.Next() {
		var b model.Bin
		if err := rows.Scan(&b.ID, &b.Name, &b.Type, &b.Location, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bin row: %w", err)
		}
		bins = append(bins, b)
	}
	return bins, rows.Err()
}

func (s *SQLite) DeleteBin(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM bins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bin: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bin %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite) RecordReading(ctx context.Context, reading *model.FillReading) error {
	batch := []model.FillReading{*reading}
	if _, err := s.RecordReadings(ctx, batch); err != nil {
		return err
	}
	*reading = batch[0]
	return nil
}

func (s *SQLite) RecordReadings(ctx context.Context, readings []model.FillReading) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin readings batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fill_readings (id, bin_id, bin_type, percentage, timestamp) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert fill reading: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range readings {
		r := &readings[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.Timestamp.IsZero() {
			r.Timestamp = time.Now()
		}
		r.Timestamp = r.Timestamp.UTC()

		result, err := stmt.ExecContext(ctx, r.ID, r.BinID, r.BinType, r.Percentage, r.Timestamp)
		if err != nil {
			return 0, fmt.Errorf("insert fill reading %s: %w", r.ID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("check rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit readings batch: %w", err)
	}
	return inserted, nil
}

func (s *SQLite) QueryReadings(ctx context.Context, filter model.ReadingFilter) ([]model.FillReading, error) {
	query := "SELECT id, bin_id, bin_type, percentage, timestamp FROM fill_readings"

	var conditions []string
	var args []any
	if filter.BinID != "" {
		conditions = append(conditions, "bin_id = ?")
		args = append(args, filter.BinID)
	}
	conditions, args = appendTimeRange(conditions, args, filter.StartTime, filter.EndTime)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []model.FillReading
	for rows.Next() {
		var r model.FillReading
		if err := rows.Scan(&r.ID, &r.BinID, &r.BinType, &r.Percentage, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan reading row: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func (s *SQLite) FindNotificationByFillID(ctx context.Context, fillID string) (*model.Notification, error) {
	var n model.Notification
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, timestamp, is_read, bin_id, fill_id FROM notifications WHERE fill_id = ?`, fillID,
	).Scan(&n.ID, &n.Title, &n.Timestamp, &n.IsRead, &n.BinID, &n.FillID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification for reading %q: %w", fillID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return &n, nil
}

func (s *SQLite) CreateNotification(ctx context.Context, n *model.Notification) (bool, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	n.Timestamp = n.Timestamp.UTC()

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, title, timestamp, is_read, bin_id, fill_id)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fill_id) DO NOTHING`,
		n.ID, n.Title, n.Timestamp, n.IsRead, n.BinID, n.FillID,
	)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return rows > 0, nil
}

func (s *SQLite) QueryNotifications(ctx context.Context, filter model.NotificationFilter) ([]model.Notification, error) {
	query := "SELECT id, title, timestamp, is_read, bin_id, fill_id FROM notifications"

	var conditions []string
	var args []any
	if filter.UnreadOnly {
		conditions = append(conditions, "is_read = 0")
	}
	conditions, args = appendTimeRange(conditions, args, filter.StartTime, filter.EndTime)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Timestamp, &n.IsRead, &n.BinID, &n.FillID); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *SQLite) MarkNotificationRead(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND is_read = 0`, id)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return rows > 0, nil
}

func (s *SQLite) MarkNotificationUnread(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification unread: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("notification %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite) DeleteAllNotifications(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reset: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM notifications`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reset: %w", err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// appendTimeRange adds half-open [start, end) conditions on the timestamp column.
// Times are stored in UTC, so bounds are normalised before comparison.
func appendTimeRange(conditions []string, args []any, start, end time.Time) ([]string, []any) {
	if !start.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, start.UTC())
	}
	if !end.IsZero() {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, end.UTC())
	}
	return conditions, args
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
