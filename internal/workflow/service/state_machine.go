package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/markflow/markflow/internal/workflow/model"
)

// The step state machine. All functions here are pure: they take a step
// value and return the updated value, leaving persistence and dependency
// propagation to the instance service.
//
// Lifecycle: waiting -> in-progress -> {completed | rejected | returned}.
// The three result states are terminal. comment and upload never change
// status.

// terminalStatusFor maps a state-changing action to the status it produces.
func terminalStatusFor(action model.StepAction) (model.StepStatus, bool) {
	switch action {
	case model.ActionApprove:
		return model.StepStatusCompleted, true
	case model.ActionReject:
		return model.StepStatusRejected, true
	case model.ActionReturn:
		return model.StepStatusReturned, true
	default:
		return "", false
	}
}

// ApplyAction applies one action to a step value at the given instant and
// returns the updated copy. The step is unchanged on error.
func ApplyAction(step model.TaskStep, action model.StepAction, userID, comment string, now time.Time) (model.TaskStep, error) {
	switch action {
	case model.ActionApprove, model.ActionReject, model.ActionReturn:
		if step.Status.IsTerminal() {
			return step, &model.InvalidStateError{Status: step.Status, Action: action}
		}
		next, _ := terminalStatusFor(action)
		step.Status = next
		completed := now
		step.CompletedDate = &completed
		step.Actions = append(step.Actions, model.TaskStepAction{
			ID:        uuid.NewString(),
			UserID:    userID,
			Action:    action,
			Timestamp: now,
			Comment:   comment,
		})
		return step, nil

	case model.ActionComment:
		if comment == "" {
			return step, &model.ValidationError{Field: "text", Reason: "comment text must not be empty"}
		}
		step.Comments = append(step.Comments, model.TaskComment{
			ID:        uuid.NewString(),
			UserID:    userID,
			Text:      comment,
			Timestamp: now,
		})
		return step, nil

	case model.ActionUpload:
		return step, &model.ValidationError{Field: "action", Reason: "uploads go through the attachments endpoint"}

	default:
		return step, &model.ValidationError{Field: "action", Reason: "unknown action " + string(action)}
	}
}

// ApplyUpload records an attachment on a step. Status is never changed.
func ApplyUpload(step model.TaskStep, attachment model.TaskAttachment, userID string, now time.Time) (model.TaskStep, error) {
	if attachment.FileName == "" {
		return step, &model.ValidationError{Field: "file", Reason: "a file is required"}
	}
	attachment.UserID = userID
	attachment.Timestamp = now
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	step.Attachments = append(step.Attachments, attachment)
	return step, nil
}

// StartStep moves a waiting step to in-progress. This is the only bare
// status transition the PATCH endpoint accepts; terminal statuses must
// arrive through actions.
func StartStep(step model.TaskStep, now time.Time) (model.TaskStep, error) {
	if step.Status != model.StepStatusWaiting {
		return step, &model.InvalidStateError{Status: step.Status, Action: model.StepAction("start")}
	}
	step.Status = model.StepStatusInProgress
	if step.StartDate == nil {
		start := now
		step.StartDate = &start
	}
	return step, nil
}
