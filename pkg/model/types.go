package model

import (
	"fmt"
	"time"
)

// DefaultFullThreshold is the fill percentage at which a bin counts as full.
const DefaultFullThreshold = 100.0

// Bin is a registered waste bin.
type Bin struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	Location  string    `json:"location,omitempty" db:"location"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FillReading is a single fill-level telemetry sample reported by a bin sensor.
type FillReading struct {
	ID         string    `json:"id" db:"id"`
	BinID      string    `json:"bin_id" db:"bin_id"`
	BinType    string    `json:"bin_type" db:"bin_type"`
	Percentage float64   `json:"percentage" db:"percentage"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// Notification records that a bin was observed full. FillID points at the
// reading it was derived from; at most one notification exists per reading.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	BinID     string    `json:"bin_id" db:"bin_id"`
	FillID    string    `json:"fill_id" db:"fill_id"`
}

// ReadingFilter controls which readings are returned by a query.
type ReadingFilter struct {
	BinID     string    `json:"bin_id,omitempty"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

// NotificationFilter controls which notifications are returned by a query.
type NotificationFilter struct {
	UnreadOnly bool      `json:"unread_only,omitempty"`
	StartTime  time.Time `json:"start_time,omitempty"`
	EndTime    time.Time `json:"end_time,omitempty"`
}

// FullBinTitle builds the notification title shown for a full bin.
func FullBinTitle(bin, binType string) string {
	return fmt.Sprintf("%s(%s) is already full", bin, binType)
}

// DayBounds returns local midnight of the day containing t and the following midnight.
func DayBounds(t time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 1)
	return start, end
}

// IsSameDay reports whether a and b fall on the same calendar date in loc.
func IsSameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
