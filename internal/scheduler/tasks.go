// Package scheduler moves due sequence messages from the database to the
// delivery worker. A dispatcher polls for enrollments whose next message
// time has arrived, claims them and enqueues an asynq task per enrollment;
// the worker consumes the tasks and hands them to the enrollment engine via
// the event bus.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSequenceMessageDue = "sequences.message_due"

type SequenceMessageDuePayload struct {
	EnrollmentID string `json:"enrollmentId"`
	TenantID     string `json:"tenantId"`
}

func NewSequenceMessageDueTask(payload SequenceMessageDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSequenceMessageDue, data), nil
}

func ParseSequenceMessageDuePayload(task *asynq.Task) (SequenceMessageDuePayload, error) {
	var payload SequenceMessageDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SequenceMessageDuePayload{}, err
	}
	return payload, nil
}
