// Package stats records page visits and serves the aggregated counts
// behind the document reading view.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alphadocs/alphadocs/internal/db"
)

// timeLayout is the stored timestamp format. Lexicographic order on
// these strings matches chronological order, which the day-window
// queries rely on.
const timeLayout = time.RFC3339

// topLimit caps the most-visited list.
const topLimit = 3

// Store persists and aggregates visits.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a visit store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// SetClock overrides the time source (testing).
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// RecordVisit stores one visit unless the same IP already visited the
// same path today. Returns whether a new row was written.
func (s *Store) RecordVisit(ctx context.Context, path, ip string) (bool, error) {
	if path == "" {
		path = "/"
	}
	dayStart := s.dayStart(0)

	var existing int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM visits WHERE ip_address = ?1 AND path = ?2 AND timestamp >= ?3`,
		ip, path, dayStart.Format(timeLayout)).Scan(&existing)
	if err != nil {
		return false, fmt.Errorf("checking visit dedup: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO visits (id, path, ip_address, timestamp) VALUES (?1, ?2, ?3, ?4)`,
		uuid.NewString(), path, ip, s.now().UTC().Format(timeLayout))
	if err != nil {
		return false, fmt.Errorf("recording visit: %w", err)
	}
	return true, nil
}

// DailyCount is one day of the visit trend.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary aggregates total visits and the last seven days, zero-filled
// so the trend chart always has a full week of points.
type Summary struct {
	TotalVisits int          `json:"total_visits"`
	DailyVisits []DailyCount `json:"daily_visits"`
}

// Summarize computes the summary, optionally scoped to one path.
func (s *Store) Summarize(ctx context.Context, path string) (*Summary, error) {
	out := &Summary{}

	totalQuery := `SELECT COUNT(*) FROM visits`
	args := []any{}
	if path != "" {
		totalQuery += ` WHERE path = ?1`
		args = append(args, path)
	}
	if err := s.db.QueryRowContext(ctx, totalQuery, args...).Scan(&out.TotalVisits); err != nil {
		return nil, fmt.Errorf("counting visits: %w", err)
	}

	weekStart := s.dayStart(-6)
	dailyQuery := `SELECT substr(timestamp, 1, 10) AS day, COUNT(*) FROM visits WHERE timestamp >= ?1`
	args = []any{weekStart.Format(timeLayout)}
	if path != "" {
		dailyQuery += ` AND path = ?2`
		args = append(args, path)
	}
	dailyQuery += ` GROUP BY day`

	rows, err := s.db.QueryContext(ctx, dailyQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying daily visits: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("scanning daily visits: %w", err)
		}
		counts[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating daily visits: %w", err)
	}

	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i).Format("2006-01-02")
		out.DailyVisits = append(out.DailyVisits, DailyCount{Date: day, Count: counts[day]})
	}
	return out, nil
}

// TopPath is one entry of the most-visited document list.
type TopPath struct {
	Slug  string `json:"slug"`
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// TopArticles returns the most visited /docs/ paths, at most three.
func (s *Store) TopArticles(ctx context.Context) ([]TopPath, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, COUNT(*) AS count FROM visits
		 WHERE path LIKE '/docs/%'
		 GROUP BY path
		 ORDER BY count DESC
		 LIMIT ?1`, topLimit)
	if err != nil {
		return nil, fmt.Errorf("querying top articles: %w", err)
	}
	defer rows.Close()

	out := []TopPath{}
	for rows.Next() {
		var entry TopPath
		if err := rows.Scan(&entry.Path, &entry.Count); err != nil {
			return nil, fmt.Errorf("scanning top articles: %w", err)
		}
		if i := lastSlash(entry.Path); i >= 0 {
			entry.Slug = entry.Path[i+1:]
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

// dayStart returns midnight UTC of today shifted by offset days.
func (s *Store) dayStart(offsetDays int) time.Time {
	now := s.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, offsetDays)
}
