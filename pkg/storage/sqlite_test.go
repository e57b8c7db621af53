package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/binwatch/pkg/model"
	"github.com/ogulcanaydogan/binwatch/pkg/storage"
)

func newTestDB(t *testing.T) *storage.SQLite {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_CreateAndGetBin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bin := &model.Bin{Name: "BIN-001", Type: "plastic", Location: "Block A"}
	require.NoError(t, db.CreateBin(ctx, bin))
	assert.NotEmpty(t, bin.ID)
	assert.False(t, bin.CreatedAt.IsZero())

	got, err := db.GetBin(ctx, bin.ID)
	require.NoError(t, err)
	assert.Equal(t, "BIN-001", got.Name)
	assert.Equal(t, "plastic", got.Type)
	assert.Equal(t, "Block A", got.Location)
}

func TestSQLite_CreateBin_DuplicateName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBin(ctx, &model.Bin{Name: "BIN-001", Type: "paper"}))
	err := db.CreateBin(ctx, &model.Bin{Name: "BIN-001", Type: "glass"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestSQLite_GetBin_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetBin(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLite_ListBins_SortedByName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"BIN-C", "BIN-A", "BIN-B"} {
		require.NoError(t, db.CreateBin(ctx, &model.Bin{Name: name, Type: "general"}))
	}

	bins, err := db.ListBins(ctx)
	require.NoError(t, err)
	require.Len(t, bins, 3)
	assert.Equal(t, "BIN-A", bins[0].Name)
	assert.Equal(t, "BIN-C", bins[2].Name)
}

func TestSQLite_DeleteBin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bin := &model.Bin{Name: "BIN-001", Type: "plastic"}
	require.NoError(t, db.CreateBin(ctx, bin))
	require.NoError(t, db.DeleteBin(ctx, bin.ID))

	err := db.DeleteBin(ctx, bin.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLite_QueryReadings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	now := time.Now()
	readings := []*model.FillReading{
		{BinID: "BIN-1", BinType: "plastic", Percentage: 40, Timestamp: now.Add(-2 * time.Hour)},
		{BinID: "BIN-1", BinType: "plastic", Percentage: 100, Timestamp: now.Add(-1 * time.Hour)},
		{BinID: "BIN-2", BinType: "paper", Percentage: 70, Timestamp: now},
	}
	for _, r := range readings {
		require.NoError(t, db.RecordReading(ctx, r))
		assert.NotEmpty(t, r.ID)
	}

	all, err := db.QueryReadings(ctx, model.ReadingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first
	assert.Equal(t, "BIN-2", all[0].BinID)

	bin1, err := db.QueryReadings(ctx, model.ReadingFilter{BinID: "BIN-1"})
	require.NoError(t, err)
	assert.Len(t, bin1, 2)
}

func TestSQLite_QueryReadings_TimeFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, db.RecordReading(ctx, &model.FillReading{BinID: "BIN-1", Percentage: 100, Timestamp: now}))

	results, err := db.QueryReadings(ctx, model.ReadingFilter{
		StartTime: now.Add(-1 * time.Hour),
		EndTime:   now.Add(1 * time.Hour),
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = db.QueryReadings(ctx, model.ReadingFilter{
		StartTime: now.Add(1 * time.Hour),
		EndTime:   now.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Len(t, results, 0)
}

func TestSQLite_QueryReadings_NonUTCBounds(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2026, 6, 1, 23, 30, 0, 0, loc) // 04:30 UTC on the 2nd
	require.NoError(t, db.RecordReading(ctx, &model.FillReading{BinID: "BIN-1", Percentage: 100, Timestamp: ts}))

	start, end := model.DayBounds(ts, loc)
	results, err := db.QueryReadings(ctx, model.ReadingFilter{StartTime: start, EndTime: end})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSQLite_RecordReadings_SkipsStoredIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.RecordReading(ctx, &model.FillReading{ID: "doc-1", BinID: "BIN-1", Percentage: 40}))

	batch := []model.FillReading{
		{ID: "doc-2", BinID: "BIN-2", Percentage: 100},
		{ID: "doc-1", BinID: "BIN-1", Percentage: 90},
		{BinID: "BIN-3", Percentage: 10},
	}
	inserted, err := db.RecordReadings(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.NotEmpty(t, batch[2].ID)

	readings, err := db.QueryReadings(ctx, model.ReadingFilter{})
	require.NoError(t, err)
	assert.Len(t, readings, 3)

	// The stored reading keeps its original value.
	stored, err := db.QueryReadings(ctx, model.ReadingFilter{BinID: "BIN-1"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 40.0, stored[0].Percentage)
}

func TestSQLite_RecordReadings_CancelledLeavesNothing(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.RecordReadings(ctx, []model.FillReading{{BinID: "BIN-1", Percentage: 100}})
	require.Error(t, err)

	readings, err := db.QueryReadings(context.Background(), model.ReadingFilter{})
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestSQLite_CreateNotification_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &model.Notification{Title: "BIN-1(plastic) is already full", BinID: "BIN-1", FillID: "fill-1"}
	created, err := db.CreateNotification(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second := &model.Notification{Title: "dup", BinID: "BIN-1", FillID: "fill-1"}
	created, err = db.CreateNotification(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := db.FindNotificationByFillID(ctx, "fill-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "BIN-1(plastic) is already full", got.Title)
	assert.False(t, got.IsRead)
}

func TestSQLite_FindNotificationByFillID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.FindNotificationByFillID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLite_QueryNotifications_UnreadOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	now := time.Now()
	unread := &model.Notification{Title: "a", BinID: "BIN-1", FillID: "f1", Timestamp: now.Add(-time.Minute)}
	read := &model.Notification{Title: "b", BinID: "BIN-2", FillID: "f2", Timestamp: now, IsRead: true}
	_, err := db.CreateNotification(ctx, unread)
	require.NoError(t, err)
	_, err = db.CreateNotification(ctx, read)
	require.NoError(t, err)

	all, err := db.QueryNotifications(ctx, model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Oldest first
	assert.Equal(t, "f1", all[0].FillID)

	onlyUnread, err := db.QueryNotifications(ctx, model.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, onlyUnread, 1)
	assert.Equal(t, "f1", onlyUnread[0].FillID)
}

func TestSQLite_MarkNotificationRead(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n := &model.Notification{Title: "a", BinID: "BIN-1", FillID: "f1"}
	_, err := db.CreateNotification(ctx, n)
	require.NoError(t, err)

	changed, err := db.MarkNotificationRead(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = db.MarkNotificationRead(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := db.FindNotificationByFillID(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, got.IsRead)
}

func TestSQLite_MarkNotificationUnread(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n := &model.Notification{Title: "BIN-1(paper) is already full", BinID: "BIN-1", FillID: "r1"}
	_, err := db.CreateNotification(ctx, n)
	require.NoError(t, err)

	claimed, err := db.MarkNotificationRead(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, db.MarkNotificationUnread(ctx, n.ID))

	claimed, err = db.MarkNotificationRead(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	assert.ErrorIs(t, db.MarkNotificationUnread(ctx, "missing"), storage.ErrNotFound)
}

func TestSQLite_DeleteAllNotifications(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	deleted, err := db.DeleteAllNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	for _, id := range []string{"f1", "f2", "f3"} {
		_, err := db.CreateNotification(ctx, &model.Notification{Title: id, BinID: "BIN-1", FillID: id})
		require.NoError(t, err)
	}

	deleted, err = db.DeleteAllNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	remaining, err := db.QueryNotifications(ctx, model.NotificationFilter{})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestSQLite_MigrationIdempotency(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db1, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	db1.Close()

	db2, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	db2.Close()
}
