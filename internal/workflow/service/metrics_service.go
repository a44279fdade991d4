package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/markflow/markflow/internal/workflow/model"
)

// MetricsService derives the dashboard aggregates from task and step state.
// Read-only; it consumes what the other services write.
type MetricsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMetricsService(db *gorm.DB) *MetricsService {
	return &MetricsService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type statusCount struct {
	Status string
	Count  int64
}

// TaskMetrics returns task and step counts grouped by status plus the number
// of live steps past their SLA due date.
func (s *MetricsService) TaskMetrics(ctx context.Context) (*model.TaskMetricsDTO, error) {
	metrics := &model.TaskMetricsDTO{
		TasksByStatus: map[model.TaskStatus]int64{},
		StepsByStatus: map[model.StepStatus]int64{},
	}

	var taskCounts []statusCount
	if err := s.db.WithContext(ctx).Model(&model.Task{}).
		Select("status, count(*) as count").Group("status").Scan(&taskCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	for _, c := range taskCounts {
		metrics.TasksByStatus[model.TaskStatus(c.Status)] = c.Count
	}

	var stepCounts []statusCount
	if err := s.db.WithContext(ctx).Model(&model.TaskStep{}).
		Select("status, count(*) as count").Group("status").Scan(&stepCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count steps by status: %w", err)
	}
	for _, c := range stepCounts {
		metrics.StepsByStatus[model.StepStatus(c.Status)] = c.Count
	}

	if err := s.db.WithContext(ctx).Model(&model.TaskStep{}).
		Where("due_date < ? AND status IN ?", s.now(),
			[]model.StepStatus{model.StepStatusWaiting, model.StepStatusInProgress}).
		Count(&metrics.OverdueSteps).Error; err != nil {
		return nil, fmt.Errorf("failed to count overdue steps: %w", err)
	}

	return metrics, nil
}
