package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"focusflow/internal/model"
)

type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) AddDaily(ctx context.Context, userID, day string, inc model.StatsIncrement, now time.Time) (*model.DailyStats, error) {
	sessions := 0
	if inc.IsSessionComplete {
		sessions = 1
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO daily_stats (user_id, day, focus_seconds, focus_sessions, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, day) DO UPDATE SET
		     focus_seconds = focus_seconds + excluded.focus_seconds,
		     focus_sessions = focus_sessions + excluded.focus_sessions,
		     updated_at = excluded.updated_at`,
		userID,
		day,
		inc.AddSeconds,
		sessions,
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert daily stats: %w", err)
	}

	row := tx.QueryRowContext(
		ctx,
		`SELECT day, focus_seconds, focus_sessions FROM daily_stats WHERE user_id = ? AND day = ?`,
		userID,
		day,
	)
	stats, err := scanDailyStats(row)
	if err != nil {
		return nil, fmt.Errorf("reload daily stats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return stats, nil
}

// GetDaily returns the totals of userID for day. A day without activity yields zero totals.
func (r *StatsRepository) GetDaily(ctx context.Context, userID, day string) (*model.DailyStats, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT day, focus_seconds, focus_sessions FROM daily_stats WHERE user_id = ? AND day = ?`,
		userID,
		day,
	)
	stats, err := scanDailyStats(row)
	if errors.Is(err, ErrNotFound) {
		return &model.DailyStats{Day: day}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily stats: %w", err)
	}
	return stats, nil
}

func (r *StatsRepository) ListRange(ctx context.Context, userID, from, to string) ([]model.DailyStats, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT day, focus_seconds, focus_sessions
		 FROM daily_stats
		 WHERE user_id = ? AND day >= ? AND day <= ?
		 ORDER BY day ASC`,
		userID,
		from,
		to,
	)
	if err != nil {
		return nil, fmt.Errorf("list daily stats: %w", err)
	}
	defer rows.Close()

	days := make([]model.DailyStats, 0, 7)
	for rows.Next() {
		stats, scanErr := scanDailyStats(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan daily stats: %w", scanErr)
		}
		days = append(days, *stats)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily stats: %w", err)
	}
	return days, nil
}

func (r *StatsRepository) Ranks(ctx context.Context, from, to string, limit int) ([]model.RankEntry, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT u.username, SUM(s.focus_seconds) AS total, SUM(s.focus_sessions)
		 FROM daily_stats s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.day >= ? AND s.day <= ?
		 GROUP BY s.user_id, u.username
		 HAVING total > 0
		 ORDER BY total DESC, u.username ASC
		 LIMIT ?`,
		from,
		to,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query ranks: %w", err)
	}
	defer rows.Close()

	entries := make([]model.RankEntry, 0, limit)
	for rows.Next() {
		entry := model.RankEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&entry.Username, &entry.TotalFocusTime, &entry.FocusSessions); err != nil {
			return nil, fmt.Errorf("scan rank: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranks: %w", err)
	}
	return entries, nil
}

func scanDailyStats(s scanner) (*model.DailyStats, error) {
	var stats model.DailyStats
	if err := s.Scan(&stats.Day, &stats.TotalFocusTime, &stats.FocusSessions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &stats, nil
}
