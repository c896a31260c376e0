package device

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500

	// historyTimeFormat is fixed-width so text ordering matches time ordering.
	historyTimeFormat = "2006-01-02T15:04:05.000000Z"
)

// SQLiteStateHistoryRepository implements StateHistoryRepository on the
// light_state_history table.
type SQLiteStateHistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStateHistoryRepository creates a new SQLite state history repository.
//
// Parameters:
//   - db: Open SQLite connection with migrations applied
//
// Returns:
//   - *SQLiteStateHistoryRepository: Repository instance ready for use
func NewSQLiteStateHistoryRepository(db *sql.DB) *SQLiteStateHistoryRepository {
	return &SQLiteStateHistoryRepository{db: db, now: time.Now}
}

// RecordStateChange inserts one row. A zero state.At is recorded as now and
// an empty source as device.
func (r *SQLiteStateHistoryRepository) RecordStateChange(ctx context.Context, state light.State) error {
	if state.Name == "" {
		return ErrLightNameRequired
	}

	source := state.Source
	if source == "" {
		source = light.SourceDevice
	}
	at := state.At
	if at.IsZero() {
		at = r.now()
	}

	var brightness, red, green, blue sql.NullInt64
	if state.Brightness != nil {
		brightness = sql.NullInt64{Int64: int64(*state.Brightness), Valid: true}
	}
	if state.Color != nil {
		red = sql.NullInt64{Int64: int64(state.Color.R), Valid: true}
		green = sql.NullInt64{Int64: int64(state.Color.G), Valid: true}
		blue = sql.NullInt64{Int64: int64(state.Color.B), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO light_state_history
		 (light, source, is_on, brightness, color_r, color_g, color_b, optimistic, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		state.Name,
		string(source),
		boolToInt(state.On),
		brightness,
		red, green, blue,
		boolToInt(state.Optimistic),
		at.UTC().Format(historyTimeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting light state history: %w", err)
	}
	return nil
}

// GetHistory returns entries for a light ordered newest first.
// limit defaults to 50 and is capped at 500.
func (r *SQLiteStateHistoryRepository) GetHistory(ctx context.Context, name string, limit int) ([]StateHistoryEntry, error) {
	if name == "" {
		return nil, ErrLightNameRequired
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, light, source, is_on, brightness, color_r, color_g, color_b, optimistic, recorded_at
		 FROM light_state_history
		 WHERE light = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		name,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying light state history: %w", err)
	}
	defer rows.Close()

	entries := make([]StateHistoryEntry, 0, limit)
	for rows.Next() {
		entry, err := scanHistoryRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating light state history: %w", err)
	}
	return entries, nil
}

func scanHistoryRow(rows *sql.Rows) (StateHistoryEntry, error) {
	var (
		entry                        StateHistoryEntry
		source, recordedAt           string
		isOn, optimistic             int64
		brightness, red, green, blue sql.NullInt64
	)
	if err := rows.Scan(&entry.ID, &entry.Light, &source, &isOn,
		&brightness, &red, &green, &blue, &optimistic, &recordedAt); err != nil {
		return StateHistoryEntry{}, fmt.Errorf("scanning light state history: %w", err)
	}

	entry.Source = light.ChangeSource(source)
	entry.On = isOn != 0
	entry.Optimistic = optimistic != 0
	if brightness.Valid {
		level := int(brightness.Int64)
		entry.Brightness = &level
	}
	if red.Valid && green.Valid && blue.Valid {
		entry.Color = &light.RGB{R: int(red.Int64), G: int(green.Int64), B: int(blue.Int64)}
	}

	ts, err := parseHistoryTimestamp(recordedAt)
	if err != nil {
		return StateHistoryEntry{}, err
	}
	entry.RecordedAt = ts
	return entry, nil
}

// PruneHistory deletes entries recorded before now-olderThan.
func (r *SQLiteStateHistoryRepository) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidRetention
	}

	cutoff := r.now().UTC().Add(-olderThan).Format(historyTimeFormat)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM light_state_history WHERE recorded_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting light state history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

// parseHistoryTimestamp parses a recorded_at value.
func parseHistoryTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("recorded_at is empty")
	}
	ts, err := time.Parse(historyTimeFormat, value)
	if err == nil {
		return ts, nil
	}
	if fallback, fallbackErr := time.Parse(time.RFC3339Nano, value); fallbackErr == nil {
		return fallback, nil
	}
	return time.Time{}, fmt.Errorf("parsing recorded_at: %w", err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
