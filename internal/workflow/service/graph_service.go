package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markflow/markflow/internal/workflow/model"
)

// DefaultSLAHours is the SLA a freshly placed block starts with.
const DefaultSLAHours = 24

// GraphService owns workflow authoring: graph CRUD plus the editor gestures
// (place block, connect, remove, configure). Every mutation runs in a
// transaction over the workflow's jsonb snapshot, so edits on one workflow
// are serialized and either apply fully or not at all.
type GraphService struct {
	db       *gorm.DB
	registry *RegistryService
}

func NewGraphService(db *gorm.DB, registry *RegistryService) *GraphService {
	return &GraphService{db: db, registry: registry}
}

// CreateWorkflow creates an empty graph at version 1.
func (s *GraphService) CreateWorkflow(ctx context.Context, req *model.CreateWorkflowDTO) (*model.Workflow, error) {
	if req == nil || req.Name == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "workflow name must not be empty"}
	}

	workflow := &model.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Version:     1,
		Blocks:      []model.WorkflowBlock{},
		Connections: []model.WorkflowConnection{},
	}
	if err := s.db.WithContext(ctx).Create(workflow).Error; err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}
	return workflow, nil
}

// GetWorkflow retrieves one workflow by ID.
func (s *GraphService) GetWorkflow(ctx context.Context, id uuid.UUID) (*model.Workflow, error) {
	var workflow model.Workflow
	if err := s.db.WithContext(ctx).First(&workflow, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &model.InvalidReferenceError{Kind: "workflow", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to query workflow: %w", err)
	}
	return &workflow, nil
}

// ListWorkflows returns workflows ordered by last update, newest first.
func (s *GraphService) ListWorkflows(ctx context.Context, offset, limit int) ([]model.Workflow, error) {
	var workflows []model.Workflow
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Offset(offset).Limit(limit).Find(&workflows).Error; err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	return workflows, nil
}

// DeleteWorkflow removes a workflow.
func (s *GraphService) DeleteWorkflow(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&model.Workflow{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete workflow: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &model.InvalidReferenceError{Kind: "workflow", ID: id.String()}
	}
	return nil
}

// AddBlock places a new block on the canvas. The label is seeded from the
// registry's default for the block type.
func (s *GraphService) AddBlock(ctx context.Context, workflowID uuid.UUID, req *model.AddBlockDTO) (*model.WorkflowBlock, error) {
	var added model.WorkflowBlock
	err := s.mutate(ctx, workflowID, func(w *model.Workflow) error {
		added = model.WorkflowBlock{
			ID:           uuid.NewString(),
			Type:         req.Type,
			Label:        s.registry.ResolveDefaultLabel(ctx, req.Type),
			SLA:          DefaultSLAHours,
			Status:       model.BlockStatusTodo,
			Dependencies: []string{},
			Actions:      []model.StepAction{},
			Position:     req.Position,
		}
		w.Blocks = append(w.Blocks, added)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// RemoveBlock deletes a block and cascades to every connection touching it
// and every derived dependency entry.
func (s *GraphService) RemoveBlock(ctx context.Context, workflowID uuid.UUID, blockID string) error {
	return s.mutate(ctx, workflowID, func(w *model.Workflow) error {
		if !w.DropBlock(blockID) {
			return &model.InvalidReferenceError{Kind: "block", ID: blockID}
		}
		return nil
	})
}

// Connect adds a directed edge between two existing blocks. Fails if either
// endpoint is missing or if the edge would create a dependency cycle.
func (s *GraphService) Connect(ctx context.Context, workflowID uuid.UUID, req *model.ConnectDTO) (*model.WorkflowConnection, error) {
	var added model.WorkflowConnection
	err := s.mutate(ctx, workflowID, func(w *model.Workflow) error {
		if !w.HasBlock(req.Source) {
			return &model.InvalidReferenceError{Kind: "block", ID: req.Source}
		}
		if !w.HasBlock(req.Target) {
			return &model.InvalidReferenceError{Kind: "block", ID: req.Target}
		}
		if w.CreatesCycle(req.Source, req.Target) {
			return &model.CycleError{Source: req.Source, Target: req.Target}
		}

		added = model.WorkflowConnection{
			ID:     uuid.NewString(),
			Source: req.Source,
			Target: req.Target,
			Label:  req.Label,
		}
		w.Connections = append(w.Connections, added)
		w.RebuildDependencies()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// UpdateBlockConfig merges a partial configuration patch into a block. SLA
// must stay a positive integer and the label must stay non-empty.
func (s *GraphService) UpdateBlockConfig(ctx context.Context, workflowID uuid.UUID, blockID string, patch *model.UpdateBlockConfigDTO) (*model.WorkflowBlock, error) {
	var updated model.WorkflowBlock
	err := s.mutate(ctx, workflowID, func(w *model.Workflow) error {
		block := w.BlockByID(blockID)
		if block == nil {
			return &model.InvalidReferenceError{Kind: "block", ID: blockID}
		}

		if patch.SLA != nil && *patch.SLA <= 0 {
			return &model.ValidationError{Field: "sla", Reason: "sla must be a positive number of hours"}
		}
		if patch.Label != nil && *patch.Label == "" {
			return &model.ValidationError{Field: "label", Reason: "block label must not be empty"}
		}
		if patch.Actions != nil {
			known := model.KnownActions()
			for _, a := range *patch.Actions {
				found := false
				for _, k := range known {
					if a == k {
						found = true
						break
					}
				}
				if !found {
					return &model.ValidationError{Field: "actions", Reason: "unknown action " + string(a)}
				}
			}
		}

		if patch.Label != nil {
			block.Label = *patch.Label
		}
		if patch.Description != nil {
			block.Description = *patch.Description
		}
		if patch.Role != nil {
			block.Role = *patch.Role
		}
		if patch.AssignedUserID != nil {
			block.AssignedUserID = *patch.AssignedUserID
		}
		if patch.SLA != nil {
			block.SLA = *patch.SLA
		}
		if patch.Status != nil {
			block.Status = *patch.Status
		}
		if patch.Actions != nil {
			block.Actions = *patch.Actions
		}
		updated = *block
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SaveWorkflow replaces the stored snapshot with the submitted one,
// increments the version and refreshes the dependency views. The submitted
// graph is validated as a whole; a failed save leaves the stored workflow
// untouched.
func (s *GraphService) SaveWorkflow(ctx context.Context, id uuid.UUID, submitted *model.Workflow) (*model.Workflow, error) {
	if submitted.Name == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "workflow name must not be empty"}
	}
	if err := validateGraph(submitted); err != nil {
		return nil, err
	}

	var saved model.Workflow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Workflow
		if err := tx.First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &model.InvalidReferenceError{Kind: "workflow", ID: id.String()}
			}
			return fmt.Errorf("failed to query workflow: %w", err)
		}

		current.Name = submitted.Name
		current.Description = submitted.Description
		current.Blocks = submitted.Blocks
		current.Connections = submitted.Connections
		current.RebuildDependencies()
		current.Version++

		if err := tx.Save(&current).Error; err != nil {
			return fmt.Errorf("failed to save workflow: %w", err)
		}
		saved = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// validateGraph checks a submitted snapshot: every edge references existing
// blocks, no block carries a non-positive SLA or empty label, and the edge
// set is acyclic.
func validateGraph(w *model.Workflow) error {
	for i := range w.Blocks {
		if w.Blocks[i].Label == "" {
			return &model.ValidationError{Field: "label", Reason: "block " + w.Blocks[i].ID + " has an empty label"}
		}
		if w.Blocks[i].SLA <= 0 {
			return &model.ValidationError{Field: "sla", Reason: "block " + w.Blocks[i].ID + " has a non-positive sla"}
		}
	}

	probe := model.Workflow{Blocks: w.Blocks}
	for _, conn := range w.Connections {
		if !w.HasBlock(conn.Source) {
			return &model.InvalidReferenceError{Kind: "block", ID: conn.Source}
		}
		if !w.HasBlock(conn.Target) {
			return &model.InvalidReferenceError{Kind: "block", ID: conn.Target}
		}
		if probe.CreatesCycle(conn.Source, conn.Target) {
			return &model.CycleError{Source: conn.Source, Target: conn.Target}
		}
		probe.Connections = append(probe.Connections, conn)
	}
	return nil
}

// mutate loads the workflow inside a transaction, applies fn to the value
// and persists the result. fn returning an error rolls everything back.
func (s *GraphService) mutate(ctx context.Context, workflowID uuid.UUID, fn func(w *model.Workflow) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var workflow model.Workflow
		if err := tx.First(&workflow, "id = ?", workflowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &model.InvalidReferenceError{Kind: "workflow", ID: workflowID.String()}
			}
			return fmt.Errorf("failed to query workflow: %w", err)
		}

		if err := fn(&workflow); err != nil {
			return err
		}

		if err := tx.Save(&workflow).Error; err != nil {
			return fmt.Errorf("failed to save workflow: %w", err)
		}
		return nil
	})
}
