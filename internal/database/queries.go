package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"textsummarizer/internal/domain"
)

func (d *Database) RecordAttempt(ctx context.Context, attempt domain.Attempt) error {
	kind := strings.TrimSpace(attempt.Kind)
	if kind == "" {
		return errors.New("attempt kind is empty")
	}

	createdAt := attempt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `insert into attempts
	(user_id, chat_id, kind, input_chars, summary_chars, duration_ms, created_at)
	values (?, ?, ?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query,
		attempt.UserID,
		attempt.ChatID,
		kind,
		attempt.InputChars,
		attempt.SummaryChars,
		attempt.Duration.Milliseconds(),
		createdAt.UTC().Unix(),
	)

	return err
}

func (d *Database) GetUserStats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	query := `select kind, count(*), max(created_at)
	from attempts
	where user_id = ?
	group by kind
	order by count(*) desc, kind`

	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"userID", userID,
				"operation", "GetUserStats")
		}
	}()

	stats := &domain.UserStats{UserID: userID}
	var lastUnix int64

	for rows.Next() {
		var kc domain.KindCount
		var kindLastUnix int64
		if err = rows.Scan(&kc.Kind, &kc.Count, &kindLastUnix); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		stats.Kinds = append(stats.Kinds, kc)
		stats.Total += kc.Count
		lastUnix = max(lastUnix, kindLastUnix)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	if lastUnix > 0 {
		stats.LastAt = time.Unix(lastUnix, 0).UTC()
	}

	return stats, nil
}

// PruneAttempts deletes journal rows created before the given time and
// returns how many were removed.
func (d *Database) PruneAttempts(ctx context.Context, before time.Time) (int64, error) {
	query := "delete from attempts where created_at < ?"

	res, err := d.db.ExecContext(ctx, query, before.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("execute query: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return n, nil
}
