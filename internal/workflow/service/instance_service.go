package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markflow/markflow/internal/workflow/model"
)

// StepTransitionResult is what one executed action produced: the updated
// step plus any dependent steps the transition activated.
type StepTransitionResult struct {
	Step           *model.TaskStep
	ActivatedSteps []model.TaskStep
}

// InstanceService owns task step instances: creating them by applying a
// workflow to a task, and driving them through the action state machine.
// Every write runs in a transaction that re-reads the step first, so
// concurrent actions on the same instance serialize to at most one
// transition.
type InstanceService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewInstanceService(db *gorm.DB) *InstanceService {
	return &InstanceService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// ApplyWorkflowToTask creates one step instance per workflow block, all in
// waiting status. Steps whose blocks have no dependencies are activated
// immediately: StartDate is stamped and DueDate derived from the block SLA.
// Dependent steps stay dormant until their dependency steps complete.
func (s *InstanceService) ApplyWorkflowToTask(ctx context.Context, taskID, workflowID uuid.UUID, req *model.ApplyWorkflowDTO) ([]model.TaskStep, error) {
	var created []model.TaskStep

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &model.InvalidReferenceError{Kind: "task", ID: taskID.String()}
			}
			return fmt.Errorf("failed to query task: %w", err)
		}

		var workflow model.Workflow
		if err := tx.First(&workflow, "id = ?", workflowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &model.InvalidReferenceError{Kind: "workflow", ID: workflowID.String()}
			}
			return fmt.Errorf("failed to query workflow: %w", err)
		}

		now := s.now()
		steps := make([]model.TaskStep, 0, len(workflow.Blocks))
		for _, block := range workflow.Blocks {
			assignee := block.AssignedUserID
			if req != nil {
				if userID, ok := req.Assignments[block.ID]; ok {
					assignee = userID
				}
			}

			step := model.TaskStep{
				TaskID:         taskID,
				WorkflowID:     workflowID,
				BlockID:        block.ID,
				Status:         model.StepStatusWaiting,
				AssignedUserID: assignee,
				Comments:       []model.TaskComment{},
				Attachments:    []model.TaskAttachment{},
				Actions:        []model.TaskStepAction{},
			}
			if len(block.Dependencies) == 0 {
				start := now
				due := now.Add(time.Duration(block.SLA) * time.Hour)
				step.StartDate = &start
				step.DueDate = &due
			}
			steps = append(steps, step)
		}

		if len(steps) > 0 {
			if err := tx.Create(&steps).Error; err != nil {
				return fmt.Errorf("failed to create task steps: %w", err)
			}
		}
		created = steps
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "workflow applied to task",
		"task_id", taskID,
		"workflow_id", workflowID,
		"steps", len(created),
	)
	return created, nil
}

// GetStepsByTaskID returns every step instance bound to a task.
func (s *InstanceService) GetStepsByTaskID(ctx context.Context, taskID uuid.UUID) ([]model.TaskStep, error) {
	var steps []model.TaskStep
	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at ASC").Find(&steps).Error; err != nil {
		return nil, fmt.Errorf("failed to query task steps: %w", err)
	}
	return steps, nil
}

// ExecuteAction runs one action against a step. The action must be in the
// owning block's allowed set and the actor must either be the assigned user
// or, when no user is assigned, hold the block's role. Completing a step
// activates dependent steps whose dependencies are now all completed.
func (s *InstanceService) ExecuteAction(ctx context.Context, taskID, stepID uuid.UUID, action model.StepAction, userID, comment string) (*StepTransitionResult, error) {
	result := &StepTransitionResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		step, block, err := s.loadStepAndBlock(tx, taskID, stepID)
		if err != nil {
			return err
		}

		if !block.AllowsAction(action) {
			return &model.ActionNotAllowedError{Action: action, Reason: "block " + block.ID + " does not allow it"}
		}
		if err := s.authorize(tx, step, block, action, userID); err != nil {
			return err
		}

		updated, err := ApplyAction(*step, action, userID, comment, s.now())
		if err != nil {
			return err
		}
		if err := tx.Save(&updated).Error; err != nil {
			return fmt.Errorf("failed to save task step: %w", err)
		}
		result.Step = &updated

		if updated.Status == model.StepStatusCompleted {
			activated, err := s.activateDependents(tx, &updated)
			if err != nil {
				return err
			}
			result.ActivatedSteps = activated
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "step action executed",
		"task_id", taskID,
		"step_id", stepID,
		"action", action,
		"status", result.Step.Status,
		"activated", len(result.ActivatedSteps),
	)
	return result, nil
}

// StartStep moves a waiting step to in-progress. This is the bare status
// transition the PATCH endpoint accepts alongside explicit actions.
func (s *InstanceService) StartStep(ctx context.Context, taskID, stepID uuid.UUID, userID string) (*model.TaskStep, error) {
	var started model.TaskStep

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		step, block, err := s.loadStepAndBlock(tx, taskID, stepID)
		if err != nil {
			return err
		}
		if err := s.authorize(tx, step, block, "start", userID); err != nil {
			return err
		}

		updated, err := StartStep(*step, s.now())
		if err != nil {
			return err
		}
		if err := tx.Save(&updated).Error; err != nil {
			return fmt.Errorf("failed to save task step: %w", err)
		}
		started = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &started, nil
}

// AddComment is a convenience wrapper around ExecuteAction for the comment
// action.
func (s *InstanceService) AddComment(ctx context.Context, taskID, stepID uuid.UUID, req *model.AddCommentDTO) (*model.TaskStep, error) {
	result, err := s.ExecuteAction(ctx, taskID, stepID, model.ActionComment, req.UserID, req.Text)
	if err != nil {
		return nil, err
	}
	return result.Step, nil
}

// AddAttachment records an uploaded file on a step. The upload action must
// be in the block's allowed set; status never changes.
func (s *InstanceService) AddAttachment(ctx context.Context, taskID, stepID uuid.UUID, userID string, attachment model.TaskAttachment) (*model.TaskStep, error) {
	var updated model.TaskStep

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		step, block, err := s.loadStepAndBlock(tx, taskID, stepID)
		if err != nil {
			return err
		}

		if !block.AllowsAction(model.ActionUpload) {
			return &model.ActionNotAllowedError{Action: model.ActionUpload, Reason: "block " + block.ID + " does not allow it"}
		}
		if err := s.authorize(tx, step, block, model.ActionUpload, userID); err != nil {
			return err
		}

		next, err := ApplyUpload(*step, attachment, userID, s.now())
		if err != nil {
			return err
		}
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("failed to save task step: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// loadStepAndBlock fetches the step within the transaction together with its
// owning workflow block.
func (s *InstanceService) loadStepAndBlock(tx *gorm.DB, taskID, stepID uuid.UUID) (*model.TaskStep, *model.WorkflowBlock, error) {
	var step model.TaskStep
	if err := tx.First(&step, "id = ? AND task_id = ?", stepID, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &model.InvalidReferenceError{Kind: "step", ID: stepID.String()}
		}
		return nil, nil, fmt.Errorf("failed to query task step: %w", err)
	}

	var workflow model.Workflow
	if err := tx.First(&workflow, "id = ?", step.WorkflowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &model.InvalidReferenceError{Kind: "workflow", ID: step.WorkflowID.String()}
		}
		return nil, nil, fmt.Errorf("failed to query workflow: %w", err)
	}

	block := workflow.BlockByID(step.BlockID)
	if block == nil {
		return nil, nil, &model.InvalidReferenceError{Kind: "block", ID: step.BlockID}
	}
	return &step, block, nil
}

// authorize checks who may act on a step. An assigned user is exclusive;
// otherwise any user holding the block's role may act; a block with neither
// is open to everyone.
func (s *InstanceService) authorize(tx *gorm.DB, step *model.TaskStep, block *model.WorkflowBlock, action model.StepAction, userID string) error {
	if step.AssignedUserID != "" {
		if step.AssignedUserID != userID {
			return &model.ActionNotAllowedError{Action: action, Reason: "step is assigned to another user"}
		}
		return nil
	}
	if block.Role == "" {
		return nil
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return &model.ActionNotAllowedError{Action: action, Reason: "unknown acting user"}
	}
	var user model.User
	if err := tx.First(&user, "id = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.ActionNotAllowedError{Action: action, Reason: "unknown acting user"}
		}
		return fmt.Errorf("failed to query user: %w", err)
	}
	if user.Position != block.Role {
		return &model.ActionNotAllowedError{Action: action, Reason: "user lacks role " + block.Role}
	}
	return nil
}

// activateDependents stamps StartDate on sibling steps whose dependency
// steps are now all completed. Mirrors dependency unlock propagation: the
// edge set decides when a dormant step becomes workable.
func (s *InstanceService) activateDependents(tx *gorm.DB, completed *model.TaskStep) ([]model.TaskStep, error) {
	var workflow model.Workflow
	if err := tx.First(&workflow, "id = ?", completed.WorkflowID).Error; err != nil {
		return nil, fmt.Errorf("failed to query workflow: %w", err)
	}

	var siblings []model.TaskStep
	if err := tx.Where("task_id = ?", completed.TaskID).Find(&siblings).Error; err != nil {
		return nil, fmt.Errorf("failed to query sibling steps: %w", err)
	}

	statusByBlock := make(map[string]model.StepStatus, len(siblings))
	for _, sibling := range siblings {
		statusByBlock[sibling.BlockID] = sibling.Status
	}
	statusByBlock[completed.BlockID] = completed.Status

	now := s.now()
	var activated []model.TaskStep
	for i := range siblings {
		sibling := &siblings[i]
		if sibling.Status != model.StepStatusWaiting || sibling.StartDate != nil {
			continue
		}
		block := workflow.BlockByID(sibling.BlockID)
		if block == nil || len(block.Dependencies) == 0 {
			continue
		}

		ready := true
		for _, dep := range block.Dependencies {
			if statusByBlock[dep] != model.StepStatusCompleted {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}

		start := now
		due := now.Add(time.Duration(block.SLA) * time.Hour)
		sibling.StartDate = &start
		sibling.DueDate = &due
		if err := tx.Save(sibling).Error; err != nil {
			return nil, fmt.Errorf("failed to activate step %s: %w", sibling.ID, err)
		}
		activated = append(activated, *sibling)
	}
	return activated, nil
}
