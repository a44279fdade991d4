package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markflow/markflow/internal/workflow/model"
)

// TaskService owns the coarse task lifecycle. Step-level execution lives in
// InstanceService; this only tracks the task rows dashboards list.
type TaskService struct {
	db *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

func (s *TaskService) CreateTask(ctx context.Context, req *model.CreateTaskDTO) (*model.Task, error) {
	task := &model.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TaskStatusDraft,
		Category:    req.Category,
		CreatorID:   req.CreatorID,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &model.InvalidReferenceError{Kind: "task", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return &task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, offset, limit int) ([]model.Task, error) {
	var tasks []model.Task
	if err := s.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, patch *model.UpdateTaskDTO) (*model.Task, error) {
	var updated model.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &model.InvalidReferenceError{Kind: "task", ID: id.String()}
			}
			return fmt.Errorf("failed to query task: %w", err)
		}

		if patch.Title != nil {
			if *patch.Title == "" {
				return &model.ValidationError{Field: "title", Reason: "task title must not be empty"}
			}
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Category != nil {
			task.Category = *patch.Category
		}
		if patch.StartDate != nil {
			task.StartDate = patch.StartDate
		}
		if patch.DueDate != nil {
			task.DueDate = patch.DueDate
		}

		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("failed to save task: %w", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *TaskService) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status model.TaskStatus) (*model.Task, error) {
	switch status {
	case model.TaskStatusDraft, model.TaskStatusInProgress, model.TaskStatusLegalReview,
		model.TaskStatusApproved, model.TaskStatusCompleted, model.TaskStatusRejected:
	default:
		return nil, &model.ValidationError{Field: "status", Reason: "unknown task status " + string(status)}
	}

	var updated model.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &model.InvalidReferenceError{Kind: "task", ID: id.String()}
			}
			return fmt.Errorf("failed to query task: %w", err)
		}
		task.Status = status
		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("failed to save task: %w", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.Task{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return &model.InvalidReferenceError{Kind: "task", ID: id.String()}
		}
		// Step instances die with their task
		if err := tx.Delete(&model.TaskStep{}, "task_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete task steps: %w", err)
		}
		return nil
	})
}
