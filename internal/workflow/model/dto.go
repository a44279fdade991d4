package model

import "time"

// RegisterBlockDTO creates a custom block definition.
type RegisterBlockDTO struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// CreateWorkflowDTO creates an empty workflow graph.
type CreateWorkflowDTO struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// AddBlockDTO places a block of the given type on the canvas.
type AddBlockDTO struct {
	Type     string   `json:"type" binding:"required"` // Built-in type or custom block definition ID
	Position Position `json:"position"`
}

// ConnectDTO adds a directed edge between two blocks.
type ConnectDTO struct {
	Source string `json:"source" binding:"required"`
	Target string `json:"target" binding:"required"`
	Label  string `json:"label,omitempty"`
}

// UpdateBlockConfigDTO is a partial update of a block's configuration. Nil
// fields are left untouched.
type UpdateBlockConfigDTO struct {
	Label          *string       `json:"label,omitempty"`
	Description    *string       `json:"description,omitempty"`
	Role           *string       `json:"role,omitempty"`
	AssignedUserID *string       `json:"assignedUserId,omitempty"`
	SLA            *int          `json:"sla,omitempty"`
	Status         *BlockStatus  `json:"status,omitempty"`
	Actions        *[]StepAction `json:"actions,omitempty"`
}

// ApplyWorkflowDTO applies a workflow to a task. Assignments maps block IDs
// to user IDs and overrides each block's own assignee.
type ApplyWorkflowDTO struct {
	Assignments map[string]string `json:"assignments"`
}

// UpdateStepStatusDTO drives one step transition. The explicit Action field
// is the recommended path; a bare Status of "in-progress" is accepted as the
// start transition.
type UpdateStepStatusDTO struct {
	UserID  string      `json:"userId" binding:"required"`
	Action  *StepAction `json:"action,omitempty"`
	Status  *StepStatus `json:"status,omitempty"`
	Comment string      `json:"comment,omitempty"`
}

// AddCommentDTO appends a comment to a step.
type AddCommentDTO struct {
	UserID string `json:"userId" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// CreateTaskDTO creates a marketing task.
type CreateTaskDTO struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	CreatorID   string     `json:"creatorId" binding:"required"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// UpdateTaskDTO is a partial update of a task.
type UpdateTaskDTO struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// UpdateTaskStatusDTO moves a task through its coarse lifecycle.
type UpdateTaskStatusDTO struct {
	Status TaskStatus `json:"status" binding:"required"`
}

// CreateUserDTO registers a team member.
type CreateUserDTO struct {
	Name      string  `json:"name" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Position  string  `json:"position" binding:"required"`
	Whatsapp  string  `json:"whatsapp,omitempty"`
	ManagerID *string `json:"managerId,omitempty"`
	Avatar    string  `json:"avatar,omitempty"`
}

// TaskMetricsDTO is the dashboard aggregate over tasks and step instances.
type TaskMetricsDTO struct {
	TasksByStatus map[TaskStatus]int64 `json:"tasksByStatus"`
	StepsByStatus map[StepStatus]int64 `json:"stepsByStatus"`
	OverdueSteps  int64                `json:"overdueSteps"`
}
