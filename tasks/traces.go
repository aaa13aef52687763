package tasks

import (
	"qurrium.com/pqp/redis"
	"qurrium.com/pqp/utils/maps"
)

const TracesDB redis.DB = 2

type TaskStatus string

const (
	TaskStatusProcessing       TaskStatus = "processing"
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

func (s TaskStatus) Submitted() bool {
	return s == TaskStatusSubmitted || s == TaskStatusStarted || s == TaskStatusProcessing
}

// TraceTask is the unit a worker picks up: one dataset's estimation run.
type TraceTask struct {
	maps.BaseDocument
	DatasetID           string            `json:"dataset_id"`
	JobID               string            `json:"job_id"`
	MeasurementsFileKey string            `json:"measurements_file_key"`
	SubsystemsFileKey   string            `json:"subsystems_file_key"`
	TaskStatuses        TraceTaskStatuses `json:"task_statuses"`
}

type TraceTaskStatuses struct {
	PQP TraceTaskInfo `json:"pqp"`
}

type TraceTaskInfo struct {
	ResultsFileKey    string     `json:"results_file_key"`
	StartedAt         *string    `json:"started_at"`
	CompletedAt       *string    `json:"completed_at"`
	Attempts          int        `json:"attempts"`
	Status            TaskStatus `json:"status"`
	Dependencies      []string   `json:"dependencies"`
	ErrorMessages     []string   `json:"error_messages"`
}

type TraceTasks struct {
	client redis.Client
}

func (tasks TraceTasks) Get(redisKey string) (*TraceTask, error) {
	var task TraceTask
	err := tasks.client.GetPartialDocument(redisKey, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks TraceTasks) Update(redisKey string, updateFunc func(task *TraceTask)) error {
	var task TraceTask
	return tasks.client.UpdatePartialDocument(redisKey, &task, updateFunc)
}
