package model

import (
	"time"

	"github.com/google/uuid"
)

// StepStatus is the runtime status of a task step instance. It is a separate
// enum from BlockStatus on purpose: one is an authoring default, the other
// drives the state machine.
type StepStatus string

const (
	StepStatusWaiting    StepStatus = "waiting"     // Created, not yet worked on
	StepStatusInProgress StepStatus = "in-progress" // Work has started
	StepStatusCompleted  StepStatus = "completed"   // Approved; terminal
	StepStatusRejected   StepStatus = "rejected"    // Rejected; terminal
	StepStatusReturned   StepStatus = "returned"    // Sent back to the requester; terminal
)

// IsTerminal reports whether the status ends the step's lifecycle. A terminal
// step never transitions again.
func (s StepStatus) IsTerminal() bool {
	return s == StepStatusCompleted || s == StepStatusRejected || s == StepStatusReturned
}

// TaskComment is an append-only comment on a task step.
type TaskComment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskAttachment is the metadata of a file attached to a task step.
// Append-only; the binary lives behind the storage driver.
type TaskAttachment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FileName  string    `json:"fileName"`
	FileURL   string    `json:"fileUrl"`
	FileType  string    `json:"fileType"` // MIME type
	FileSize  int64     `json:"fileSize"` // Bytes
	Timestamp time.Time `json:"timestamp"`
}

// TaskStepAction is one executed action in a step's audit history, in
// execution order.
type TaskStepAction struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Action    StepAction `json:"action"`
	Timestamp time.Time  `json:"timestamp"`
	Comment   string     `json:"comment,omitempty"`
}

// TaskStep is the runtime execution record of one workflow block, bound to
// one task. One row is created per block when a workflow is applied.
type TaskStep struct {
	BaseModel
	TaskID         uuid.UUID        `gorm:"type:uuid;column:task_id;index;not null" json:"taskId"`
	WorkflowID     uuid.UUID        `gorm:"type:uuid;column:workflow_id;not null" json:"workflowId"`
	BlockID        string           `gorm:"type:varchar(100);column:block_id;not null" json:"blockId"`
	Status         StepStatus       `gorm:"type:varchar(20);column:status;not null" json:"status"`
	AssignedUserID string           `gorm:"type:varchar(100);column:assigned_user_id" json:"assignedUserId"`
	StartDate      *time.Time       `gorm:"type:timestamptz;column:start_date" json:"startDate,omitempty"`
	DueDate        *time.Time       `gorm:"type:timestamptz;column:due_date" json:"dueDate,omitempty"`
	CompletedDate  *time.Time       `gorm:"type:timestamptz;column:completed_date" json:"completedDate,omitempty"`
	Comments       []TaskComment    `gorm:"type:jsonb;column:comments;serializer:json;not null" json:"comments"`
	Attachments    []TaskAttachment `gorm:"type:jsonb;column:attachments;serializer:json;not null" json:"attachments"`
	Actions        []TaskStepAction `gorm:"type:jsonb;column:actions;serializer:json;not null" json:"actions"`
}

func (t *TaskStep) TableName() string {
	return "task_steps"
}
