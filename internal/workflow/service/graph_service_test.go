package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/markflow/markflow/internal/workflow/model"
)

func newGraphService(db *gorm.DB) *GraphService {
	return NewGraphService(db, NewRegistryService(db))
}

func createWorkflowWithBlocks(t *testing.T, service *GraphService, count int) (*model.Workflow, []model.WorkflowBlock) {
	t.Helper()
	ctx := context.Background()

	workflow, err := service.CreateWorkflow(ctx, &model.CreateWorkflowDTO{Name: "Campaign Launch"})
	require.NoError(t, err)

	blocks := make([]model.WorkflowBlock, 0, count)
	for i := 0; i < count; i++ {
		block, err := service.AddBlock(ctx, workflow.ID, &model.AddBlockDTO{Type: model.BlockTypeCreate})
		require.NoError(t, err)
		blocks = append(blocks, *block)
	}
	return workflow, blocks
}

func TestGraphService_CreateWorkflow(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)

	workflow, err := service.CreateWorkflow(context.Background(), &model.CreateWorkflowDTO{
		Name:        "Campaign Launch",
		Description: "Spring campaign",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, workflow.ID)
	assert.Equal(t, 1, workflow.Version)
	assert.Empty(t, workflow.Blocks)
	assert.Empty(t, workflow.Connections)
}

func TestGraphService_CreateWorkflow_RequiresName(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)

	_, err := service.CreateWorkflow(context.Background(), &model.CreateWorkflowDTO{})

	var validationErr *model.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestGraphService_AddBlock_Defaults(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()

	workflow, err := service.CreateWorkflow(ctx, &model.CreateWorkflowDTO{Name: "Campaign Launch"})
	require.NoError(t, err)

	block, err := service.AddBlock(ctx, workflow.ID, &model.AddBlockDTO{
		Type:     model.BlockTypeReview,
		Position: model.Position{X: 120, Y: 80},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, block.ID)
	assert.Equal(t, "Review", block.Label)
	assert.Equal(t, DefaultSLAHours, block.SLA)
	assert.Equal(t, model.BlockStatusTodo, block.Status)
	assert.Empty(t, block.Dependencies)
	assert.Equal(t, model.Position{X: 120, Y: 80}, block.Position)

	stored, err := service.GetWorkflow(ctx, workflow.ID)
	require.NoError(t, err)
	require.Len(t, stored.Blocks, 1)
	assert.Equal(t, block.ID, stored.Blocks[0].ID)
}

func TestGraphService_AddBlock_UnknownTypeGetsPlaceholderLabel(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()

	workflow, err := service.CreateWorkflow(ctx, &model.CreateWorkflowDTO{Name: "Campaign Launch"})
	require.NoError(t, err)

	block, err := service.AddBlock(ctx, workflow.ID, &model.AddBlockDTO{Type: "custom-unknown"})

	require.NoError(t, err)
	assert.Equal(t, model.DefaultStepLabel, block.Label)
}

func TestGraphService_Connect_RebuildsDependencies(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()
	workflow, blocks := createWorkflowWithBlocks(t, service, 2)

	conn, err := service.Connect(ctx, workflow.ID, &model.ConnectDTO{
		Source: blocks[0].ID,
		Target: blocks[1].ID,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, conn.ID)

	stored, err := service.GetWorkflow(ctx, workflow.ID)
	require.NoError(t, err)
	require.Len(t, stored.Connections, 1)
	assert.Equal(t, []string{blocks[0].ID}, stored.BlockByID(blocks[1].ID).Dependencies)
	assert.Empty(t, stored.BlockByID(blocks[0].ID).Dependencies)
}

func TestGraphService_Connect_RejectsCycle(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()
	workflow, blocks := createWorkflowWithBlocks(t, service, 2)

	_, err := service.Connect(ctx, workflow.ID, &model.ConnectDTO{Source: blocks[0].ID, Target: blocks[1].ID})
	require.NoError(t, err)

	_, err = service.Connect(ctx, workflow.ID, &model.ConnectDTO{Source: blocks[1].ID, Target: blocks[0].ID})

	var cycleErr *model.CycleError
	assert.ErrorAs(t, err, &cycleErr)

	// The rejected edge must not be persisted.
	stored, err := service.GetWorkflow(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Connections, 1)
}

func TestGraphService_Connect_RejectsMissingEndpoint(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()
	workflow, blocks := createWorkflowWithBlocks(t, service, 1)

	_, err := service.Connect(ctx, workflow.ID, &model.ConnectDTO{Source: blocks[0].ID, Target: "ghost"})

	var referenceErr *model.InvalidReferenceError
	assert.ErrorAs(t, err, &referenceErr)
}

func TestGraphService_RemoveBlock_CascadesConnections(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()
	workflow, blocks := createWorkflowWithBlocks(t, service, 3)

	_, err := service.Connect(ctx, workflow.ID, &model.ConnectDTO{Source: blocks[0].ID, Target: blocks[1].ID})
	require.NoError(t, err)
	_, err = service.Connect(ctx, workflow.ID, &model.ConnectDTO{Source: blocks[1].ID, Target: blocks[2].ID})
	require.NoError(t, err)

	require.NoError(t, service.RemoveBlock(ctx, workflow.ID, blocks[1].ID))

	stored, err := service.GetWorkflow(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Blocks, 2)
	assert.Empty(t, stored.Connections)
	assert.Empty(t, stored.BlockByID(blocks[2].ID).Dependencies)
}

func TestGraphService_RemoveBlock_Missing(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	workflow, _ := createWorkflowWithBlocks(t, service, 1)

	err := service.RemoveBlock(context.Background(), workflow.ID, "ghost")

	var referenceErr *model.InvalidReferenceError
	assert.ErrorAs(t, err, &referenceErr)
}

func TestGraphService_UpdateBlockConfig(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()
	workflow, blocks := createWorkflowWithBlocks(t, service, 1)

	label := "Legal Review"
	role := "legal"
	sla := 48
	actions := []model.StepAction{model.ActionApprove, model.ActionReject}

	updated, err := service.UpdateBlockConfig(ctx, workflow.ID, blocks[0].ID, &model.UpdateBlockConfigDTO{
		Label:   &label,
		Role:    &role,
		SLA:     &sla,
		Actions: &actions,
	})

	require.NoError(t, err)
	assert.Equal(t, "Legal Review", updated.Label)
	assert.Equal(t, "legal", updated.Role)
	assert.Equal(t, 48, updated.SLA)
	assert.Equal(t, actions, updated.Actions)
	// Untouched fields keep their values.
	assert.Equal(t, model.BlockStatusTodo, updated.Status)
}

func TestGraphService_UpdateBlockConfig_Validation(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()
	workflow, blocks := createWorkflowWithBlocks(t, service, 1)

	t.Run("non-positive sla", func(t *testing.T) {
		sla := 0
		_, err := service.UpdateBlockConfig(ctx, workflow.ID, blocks[0].ID, &model.UpdateBlockConfigDTO{SLA: &sla})

		var validationErr *model.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("empty label", func(t *testing.T) {
		label := ""
		_, err := service.UpdateBlockConfig(ctx, workflow.ID, blocks[0].ID, &model.UpdateBlockConfigDTO{Label: &label})

		var validationErr *model.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("unknown action", func(t *testing.T) {
		actions := []model.StepAction{"escalate"}
		_, err := service.UpdateBlockConfig(ctx, workflow.ID, blocks[0].ID, &model.UpdateBlockConfigDTO{Actions: &actions})

		var validationErr *model.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("missing block", func(t *testing.T) {
		label := "X"
		_, err := service.UpdateBlockConfig(ctx, workflow.ID, "ghost", &model.UpdateBlockConfigDTO{Label: &label})

		var referenceErr *model.InvalidReferenceError
		assert.ErrorAs(t, err, &referenceErr)
	})
}

func TestGraphService_SaveWorkflow_BumpsVersion(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()
	workflow, blocks := createWorkflowWithBlocks(t, service, 2)

	submitted := &model.Workflow{
		Name:        "Campaign Launch v2",
		Description: "Revised",
		Blocks:      blocks,
		Connections: []model.WorkflowConnection{
			{ID: "c1", Source: blocks[0].ID, Target: blocks[1].ID},
		},
	}

	saved, err := service.SaveWorkflow(ctx, workflow.ID, submitted)

	require.NoError(t, err)
	assert.Equal(t, "Campaign Launch v2", saved.Name)
	assert.Equal(t, 2, saved.Version)
	// Dependencies are derived on save.
	assert.Equal(t, []string{blocks[0].ID}, saved.BlockByID(blocks[1].ID).Dependencies)
}

func TestGraphService_SaveWorkflow_InvalidGraphLeavesStoredUntouched(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()
	workflow, blocks := createWorkflowWithBlocks(t, service, 2)

	submitted := &model.Workflow{
		Name:   "Campaign Launch",
		Blocks: blocks,
		Connections: []model.WorkflowConnection{
			{ID: "c1", Source: blocks[0].ID, Target: blocks[1].ID},
			{ID: "c2", Source: blocks[1].ID, Target: blocks[0].ID},
		},
	}

	_, err := service.SaveWorkflow(ctx, workflow.ID, submitted)

	var cycleErr *model.CycleError
	assert.ErrorAs(t, err, &cycleErr)

	stored, err := service.GetWorkflow(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Empty(t, stored.Connections)
}

func TestGraphService_SaveWorkflow_RejectsBadBlocks(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()
	workflow, _ := createWorkflowWithBlocks(t, service, 0)

	t.Run("empty label", func(t *testing.T) {
		submitted := &model.Workflow{
			Name:   "Campaign Launch",
			Blocks: []model.WorkflowBlock{{ID: "b1", Label: "", SLA: 24}},
		}
		_, err := service.SaveWorkflow(ctx, workflow.ID, submitted)

		var validationErr *model.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("non-positive sla", func(t *testing.T) {
		submitted := &model.Workflow{
			Name:   "Campaign Launch",
			Blocks: []model.WorkflowBlock{{ID: "b1", Label: "Review", SLA: -1}},
		}
		_, err := service.SaveWorkflow(ctx, workflow.ID, submitted)

		var validationErr *model.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("dangling edge", func(t *testing.T) {
		submitted := &model.Workflow{
			Name:        "Campaign Launch",
			Blocks:      []model.WorkflowBlock{{ID: "b1", Label: "Review", SLA: 24}},
			Connections: []model.WorkflowConnection{{ID: "c1", Source: "b1", Target: "ghost"}},
		}
		_, err := service.SaveWorkflow(ctx, workflow.ID, submitted)

		var referenceErr *model.InvalidReferenceError
		assert.ErrorAs(t, err, &referenceErr)
	})
}

func TestGraphService_DeleteWorkflow(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()
	workflow, _ := createWorkflowWithBlocks(t, service, 0)

	require.NoError(t, service.DeleteWorkflow(ctx, workflow.ID))

	_, err := service.GetWorkflow(ctx, workflow.ID)
	var referenceErr *model.InvalidReferenceError
	assert.ErrorAs(t, err, &referenceErr)

	err = service.DeleteWorkflow(ctx, workflow.ID)
	assert.ErrorAs(t, err, &referenceErr)
}

func TestGraphService_ListWorkflows(t *testing.T) {
	db := setupTestDB(t)
	service := newGraphService(db)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := service.CreateWorkflow(ctx, &model.CreateWorkflowDTO{Name: name})
		require.NoError(t, err)
	}

	workflows, err := service.ListWorkflows(ctx, 0, 2)
	require.NoError(t, err)
	assert.Len(t, workflows, 2)
}
