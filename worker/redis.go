package worker

import (
	"fmt"

	"qurrium.com/pqp/tasks"
)

type redisTransactions interface {
	getTraceTask(redisKey string) (*tasks.TraceTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	getDatasetTask(task *Task) (*tasks.DatasetTaskCached, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	err := wrapper.tasksClient.Traces.Update(task.redisKey, func(task *tasks.TraceTask) {
		task.TaskStatuses.PQP.Status = tasks.TaskStatusStarted
		task.TaskStatuses.PQP.Attempts += 1
		task.TaskStatuses.PQP.StartedAt = getFormattedNow()
		task.TaskStatuses.PQP.CompletedAt = nil
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	err := wrapper.tasksClient.Traces.Update(task.redisKey, func(traceTask *tasks.TraceTask) {
		traceTask.TaskStatuses.PQP.Status = tasks.TaskStatusCanceled
		traceTask.TaskStatuses.PQP.StartedAt = getFormattedNow()
		traceTask.TaskStatuses.PQP.CompletedAt = getFormattedNow()
		traceTask.TaskStatuses.PQP.Attempts += 1
		traceTask.TaskStatuses.PQP.ErrorMessages = append(
			traceTask.TaskStatuses.PQP.ErrorMessages,
			errorMessages...,
		)
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	err := wrapper.tasksClient.Datasets.Update(task.traceTask.DatasetID, func(datasetTask *tasks.DatasetTask) {
		datasetTask.FailedTasks = append(datasetTask.FailedTasks, "pqp")
		datasetTask.FailedTraces[task.redisKey] = append(datasetTask.FailedTraces[task.redisKey], "pqp")
	})
	if err != nil {
		return err
	}
	err = wrapper.tasksClient.Traces.Update(task.redisKey, func(traceTask *tasks.TraceTask) {
		traceTask.TaskStatuses.PQP.Status = tasks.TaskStatusCompletedFailure
		traceTask.TaskStatuses.PQP.StartedAt = getFormattedNow()
		traceTask.TaskStatuses.PQP.CompletedAt = getFormattedNow()
		traceTask.TaskStatuses.PQP.Attempts += 1
		traceTask.TaskStatuses.PQP.ErrorMessages = append(
			traceTask.TaskStatuses.PQP.ErrorMessages,
			fmt.Sprintf(
				"Task has exceeded retries. (Attempts: %d, max retries: %d )",
				traceTask.TaskStatuses.PQP.Attempts,
				maxRetries,
			),
		)
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Traces.Update(task.redisKey, func(traceTask *tasks.TraceTask) {
		traceTask.TaskStatuses.PQP.Status = tasks.TaskStatusFailed
		traceTask.TaskStatuses.PQP.CompletedAt = getFormattedNow()
		traceTask.TaskStatuses.PQP.ErrorMessages = append(traceTask.TaskStatuses.PQP.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Traces.Update(task.redisKey, func(traceTask *tasks.TraceTask) {
		if !traceTask.TaskStatuses.PQP.Status.Complete() {
			traceTask.TaskStatuses.PQP.Status = tasks.TaskStatusCompletedSuccess
		}
		traceTask.TaskStatuses.PQP.CompletedAt = getFormattedNow()
		traceTask.TaskStatuses.PQP.ResultsFileKey = getResultsFileKey(task)
	})
}

func (wrapper *redisClientWrapper) getTraceTask(redisKey string) (*tasks.TraceTask, error) {
	return wrapper.tasksClient.Traces.Get(redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(task.traceTask.JobID)
}

func (wrapper *redisClientWrapper) getDatasetTask(task *Task) (*tasks.DatasetTaskCached, error) {
	return wrapper.tasksClient.Datasets.GetCached(task.traceTask.DatasetID)
}
