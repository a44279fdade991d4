package model

import "time"

// TaskStatus represents the overall status of a marketing task.
type TaskStatus string

const (
	TaskStatusDraft       TaskStatus = "draft"
	TaskStatusInProgress  TaskStatus = "in_progress"
	TaskStatusLegalReview TaskStatus = "legal_review"
	TaskStatusApproved    TaskStatus = "approved"
	TaskStatusCompleted   TaskStatus = "completed"
	TaskStatusRejected    TaskStatus = "rejected"
)

// Task is a unit of marketing work a workflow can be applied to. Its step
// instances carry the per-block execution state; the task itself only tracks
// the coarse lifecycle shown on dashboards.
type Task struct {
	BaseModel
	Title       string     `gorm:"type:varchar(255);column:title;not null" json:"title"`
	Description string     `gorm:"type:text;column:description" json:"description"`
	Status      TaskStatus `gorm:"type:varchar(20);column:status;not null" json:"status"`
	Category    string     `gorm:"type:varchar(100);column:category" json:"category"`
	CreatorID   string     `gorm:"type:varchar(100);column:creator_id;not null" json:"creatorId"`
	StartDate   *time.Time `gorm:"type:timestamptz;column:start_date" json:"startDate,omitempty"`
	DueDate     *time.Time `gorm:"type:timestamptz;column:due_date" json:"dueDate,omitempty"`
}

func (t *Task) TableName() string {
	return "tasks"
}
