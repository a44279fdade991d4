package model

// BlockStatus is the display default a workflow block is authored with. It is
// distinct from StepStatus: the runtime state machine never reads it.
type BlockStatus string

const (
	BlockStatusTodo       BlockStatus = "todo"
	BlockStatusInProgress BlockStatus = "in-progress"
	BlockStatusCompleted  BlockStatus = "completed"
	BlockStatusBlocked    BlockStatus = "blocked"
)

// StepAction is a user-triggered operation against a task step.
type StepAction string

const (
	ActionApprove StepAction = "approve"
	ActionReject  StepAction = "reject"
	ActionComment StepAction = "comment"
	ActionUpload  StepAction = "upload"
	ActionReturn  StepAction = "return"
)

// KnownActions lists every action a block may allow.
func KnownActions() []StepAction {
	return []StepAction{ActionApprove, ActionReject, ActionComment, ActionUpload, ActionReturn}
}

// Position is the canvas position of a block in the workflow editor.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WorkflowBlock is a block definition placed in a specific workflow graph
// with its own configuration.
//
// Dependencies is a derived view: it is rebuilt from the connection set on
// every graph mutation and must never be written directly.
type WorkflowBlock struct {
	ID             string       `json:"id"`
	Type           string       `json:"type"` // Built-in type or custom block definition ID
	Label          string       `json:"label"`
	Description    string       `json:"description"`
	Role           string       `json:"role"` // Role responsible for the step
	AssignedUserID string       `json:"assignedUserId,omitempty"`
	SLA            int          `json:"sla"` // Budgeted duration in hours
	Status         BlockStatus  `json:"status"`
	Dependencies   []string     `json:"dependencies"`
	Actions        []StepAction `json:"actions"`
	Position       Position     `json:"position"`
}

// AllowsAction reports whether the block's action set contains action.
func (b *WorkflowBlock) AllowsAction(action StepAction) bool {
	for _, a := range b.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// WorkflowConnection is a directed edge meaning "target depends on source".
type WorkflowConnection struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Label        string `json:"label,omitempty"`
}

// Workflow is a named, versioned directed graph of blocks and connections.
// Blocks and connections are stored as a single jsonb snapshot so a save is
// always atomic.
type Workflow struct {
	BaseModel
	Name        string               `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Description string               `gorm:"type:text;column:description" json:"description"`
	Version     int                  `gorm:"column:version;not null;default:1" json:"version"`
	Blocks      []WorkflowBlock      `gorm:"type:jsonb;column:blocks;serializer:json;not null" json:"blocks"`
	Connections []WorkflowConnection `gorm:"type:jsonb;column:connections;serializer:json;not null" json:"connections"`
}

func (w *Workflow) TableName() string {
	return "workflows"
}

// BlockByID returns a pointer into w.Blocks for the given block ID, or nil.
func (w *Workflow) BlockByID(blockID string) *WorkflowBlock {
	for i := range w.Blocks {
		if w.Blocks[i].ID == blockID {
			return &w.Blocks[i]
		}
	}
	return nil
}

// HasBlock reports whether the graph contains a block with the given ID.
func (w *Workflow) HasBlock(blockID string) bool {
	return w.BlockByID(blockID) != nil
}

// RebuildDependencies recomputes every block's Dependencies list from the
// connection set. Connections are the single source of truth for the
// dependency graph; this keeps the two representations from drifting.
func (w *Workflow) RebuildDependencies() {
	deps := make(map[string][]string, len(w.Blocks))
	for _, conn := range w.Connections {
		deps[conn.Target] = append(deps[conn.Target], conn.Source)
	}
	for i := range w.Blocks {
		if d, ok := deps[w.Blocks[i].ID]; ok {
			w.Blocks[i].Dependencies = d
		} else {
			w.Blocks[i].Dependencies = []string{}
		}
	}
}

// CreatesCycle reports whether adding an edge source->target would create a
// cycle in the dependency graph, i.e. whether source is reachable from
// target over the existing edges. A self-edge always cycles.
func (w *Workflow) CreatesCycle(source, target string) bool {
	if source == target {
		return true
	}

	adjacent := make(map[string][]string, len(w.Blocks))
	for _, conn := range w.Connections {
		adjacent[conn.Source] = append(adjacent[conn.Source], conn.Target)
	}

	visited := make(map[string]bool)
	stack := []string{target}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == source {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, adjacent[current]...)
	}
	return false
}

// DropBlock removes the block and cascades: every connection touching it is
// removed and the dependency views are rebuilt so no dangling reference
// survives. Returns false if the block is not in the graph.
func (w *Workflow) DropBlock(blockID string) bool {
	index := -1
	for i := range w.Blocks {
		if w.Blocks[i].ID == blockID {
			index = i
			break
		}
	}
	if index < 0 {
		return false
	}

	w.Blocks = append(w.Blocks[:index], w.Blocks[index+1:]...)

	remaining := make([]WorkflowConnection, 0, len(w.Connections))
	for _, conn := range w.Connections {
		if conn.Source != blockID && conn.Target != blockID {
			remaining = append(remaining, conn)
		}
	}
	w.Connections = remaining

	w.RebuildDependencies()
	return true
}
