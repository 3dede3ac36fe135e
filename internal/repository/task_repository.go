package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"focusflow/internal/model"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.StoredTask) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO tasks (id, user_id, title, focus_sessions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Title,
		task.FocusSessions,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (*model.StoredTask, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, title, focus_sessions, created_at, updated_at
		 FROM tasks
		 WHERE id = ?`,
		id,
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]model.StoredTask, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, title, focus_sessions, created_at, updated_at
		 FROM tasks
		 WHERE user_id = ?
		 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.StoredTask, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan task: %w", scanErr)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) IncrementSessions(ctx context.Context, id string, now time.Time) (*model.StoredTask, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`UPDATE tasks
		 SET focus_sessions = focus_sessions + 1,
		     updated_at = ?
		 WHERE id = ?`,
		formatTime(now),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("increment sessions: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	row := tx.QueryRowContext(
		ctx,
		`SELECT id, user_id, title, focus_sessions, created_at, updated_at
		 FROM tasks
		 WHERE id = ?`,
		id,
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("reload task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user tasks: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanTask(s scanner) (*model.StoredTask, error) {
	var task model.StoredTask
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.FocusSessions,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}
	task.CreatedAt = parsedCreatedAt
	task.UpdatedAt = parsedUpdatedAt
	return &task, nil
}
