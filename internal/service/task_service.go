package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "focusflow/internal/errors"
	"focusflow/internal/log"
	"focusflow/internal/model"
	"focusflow/internal/repository"
)

const maxTitleLength = 200

type TaskService struct {
	repo *repository.TaskRepository
}

func NewTaskService(repo *repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Create(ctx context.Context, userID, title string) (*model.Task, *apperrors.APIError) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.BadRequest("invalid_title", "title is required")
	}
	if len(title) > maxTitleLength {
		return nil, apperrors.BadRequest("invalid_title", "title is too long")
	}

	now := time.Now().UTC()
	stored := model.StoredTask{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &stored); err != nil {
		log.ErrorErr(log.CatDB, "create task", err, "user", userID)
		return nil, apperrors.Internal("failed to create task")
	}

	task := stored.Task()
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, *apperrors.APIError) {
	stored, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.ErrorErr(log.CatDB, "list tasks", err, "user", userID)
		return nil, apperrors.Internal("failed to list tasks")
	}

	tasks := make([]model.Task, 0, len(stored))
	for _, row := range stored {
		tasks = append(tasks, row.Task())
	}
	return tasks, nil
}

func (s *TaskService) IncrementSession(ctx context.Context, userID, taskID string) (*model.Task, *apperrors.APIError) {
	if apiErr := s.ensureOwner(ctx, userID, taskID); apiErr != nil {
		return nil, apiErr
	}

	stored, err := s.repo.IncrementSessions(ctx, taskID, time.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		log.ErrorErr(log.CatDB, "increment sessions", err, "task", taskID)
		return nil, apperrors.Internal("failed to update task")
	}

	task := stored.Task()
	return &task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) *apperrors.APIError {
	if apiErr := s.ensureOwner(ctx, userID, taskID); apiErr != nil {
		return apiErr
	}

	err := s.repo.Delete(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		log.ErrorErr(log.CatDB, "delete task", err, "task", taskID)
		return apperrors.Internal("failed to delete task")
	}
	return nil
}

func (s *TaskService) Clear(ctx context.Context, userID string) *apperrors.APIError {
	n, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		log.ErrorErr(log.CatDB, "clear tasks", err, "user", userID)
		return apperrors.Internal("failed to clear tasks")
	}
	log.Debug(log.CatHTTP, "tasks cleared", "user", userID, "count", n)
	return nil
}

func (s *TaskService) ensureOwner(ctx context.Context, userID, taskID string) *apperrors.APIError {
	task, err := s.repo.Get(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return apperrors.Internal("failed to get task")
	}
	if task.UserID != userID {
		return apperrors.Forbidden("task belongs to another user")
	}
	return nil
}
