package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildGraph() Workflow {
	return Workflow{
		Blocks: []WorkflowBlock{
			{ID: "draft", Type: BlockTypeCreate, Label: "Create Content", SLA: 24},
			{ID: "review", Type: BlockTypeReview, Label: "Review", SLA: 24},
			{ID: "publish", Type: BlockTypePublish, Label: "Publish", SLA: 24},
		},
		Connections: []WorkflowConnection{
			{ID: "c1", Source: "draft", Target: "review"},
			{ID: "c2", Source: "review", Target: "publish"},
		},
	}
}

func TestWorkflow_RebuildDependencies(t *testing.T) {
	w := buildGraph()
	w.RebuildDependencies()

	assert.Empty(t, w.BlockByID("draft").Dependencies)
	assert.Equal(t, []string{"draft"}, w.BlockByID("review").Dependencies)
	assert.Equal(t, []string{"review"}, w.BlockByID("publish").Dependencies)
}

func TestWorkflow_RebuildDependencies_ClearsStale(t *testing.T) {
	w := buildGraph()
	w.Blocks[0].Dependencies = []string{"ghost"}
	w.RebuildDependencies()

	assert.Empty(t, w.BlockByID("draft").Dependencies)
}

func TestWorkflow_CreatesCycle(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		cycle  bool
	}{
		{name: "forward edge", source: "draft", target: "publish", cycle: false},
		{name: "direct back edge", source: "review", target: "draft", cycle: true},
		{name: "transitive back edge", source: "publish", target: "draft", cycle: true},
		{name: "self edge", source: "review", target: "review", cycle: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := buildGraph()
			assert.Equal(t, tt.cycle, w.CreatesCycle(tt.source, tt.target))
		})
	}
}

func TestWorkflow_DropBlock_Cascades(t *testing.T) {
	w := buildGraph()
	w.RebuildDependencies()

	ok := w.DropBlock("review")

	assert.True(t, ok)
	assert.Nil(t, w.BlockByID("review"))
	assert.Empty(t, w.Connections)
	assert.Empty(t, w.BlockByID("publish").Dependencies)
}

func TestWorkflow_DropBlock_Missing(t *testing.T) {
	w := buildGraph()
	assert.False(t, w.DropBlock("ghost"))
	assert.Len(t, w.Blocks, 3)
	assert.Len(t, w.Connections, 2)
}

func TestWorkflowBlock_AllowsAction(t *testing.T) {
	block := WorkflowBlock{Actions: []StepAction{ActionApprove, ActionComment}}

	assert.True(t, block.AllowsAction(ActionApprove))
	assert.True(t, block.AllowsAction(ActionComment))
	assert.False(t, block.AllowsAction(ActionReject))
	assert.False(t, block.AllowsAction(ActionUpload))
}

func TestStepStatus_IsTerminal(t *testing.T) {
	assert.False(t, StepStatusWaiting.IsTerminal())
	assert.False(t, StepStatusInProgress.IsTerminal())
	assert.True(t, StepStatusCompleted.IsTerminal())
	assert.True(t, StepStatusRejected.IsTerminal())
	assert.True(t, StepStatusReturned.IsTerminal())
}
