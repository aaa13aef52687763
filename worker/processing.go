package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"qurrium.com/pqp/estimator"
	"qurrium.com/pqp/tasks"
	"qurrium.com/pqp/utils"
)

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery  *amqp.Delivery
	traceTask *tasks.TraceTask
	message   *Message
	redisKey  string
	pqpLogger *zerolog.Logger
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	task, err := worker.createTask(delivery)
	rejectLogger := worker.pqpLogger.With().Str("message_id", delivery.MessageId).Logger()
	if err != nil {
		worker.pqpLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("tid", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.pingSequencer(task, *task.message); err != nil {
		task.pqpLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.pqpLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.pqpLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	err := json.Unmarshal(delivery.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	traceTask, err := worker.redis.getTraceTask(message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace task for message, got error %w", err)
	}
	taskLogger := worker.pqpLogger.With().Str("tid", message.RedisKey).Logger()
	task := Task{
		delivery:  delivery,
		traceTask: traceTask,
		redisKey:  message.RedisKey,
		message:   &message,
		pqpLogger: &taskLogger,
	}
	return &task, nil
}

func (worker *Worker) processTask(task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.pqpLogger.Err(err).
			Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(task); err != nil {
		task.pqpLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update TaskInfo: %w", err)
	}
	if err = worker.runPipeline(task); err != nil {
		task.pqpLogger.Err(err).Msg("Got error while running pipeline")
		if err = worker.redis.onTaskFailedWithError(task, err); err != nil {
			return err
		}
		return nil
	}
	task.pqpLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(task); err != nil {
		task.pqpLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.pqpLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.traceTask.TaskStatuses.PQP.Attempts)
	measurements, err := worker.s3.getMeasurementsData(task)
	if err != nil {
		task.pqpLogger.Err(err).Caller().Msg("Could not fetch measurements data from s3")
		return fmt.Errorf("failed fetch measurements from s3: %w", err)
	}
	subsystems, err := worker.s3.getSubsystemsData(task)
	if err != nil {
		task.pqpLogger.Err(err).Caller().Msg("Could not fetch subsystems data from s3")
		return fmt.Errorf("failed fetch subsystems from s3: %w", err)
	}
	request := estimator.Request{
		Tid:          task.redisKey,
		Measurements: string(measurements),
		Subsystems:   string(subsystems),
	}
	result, ok := <-worker.ppln(context.Background(), request)
	if !ok {
		task.pqpLogger.Error().Msg("Pipeline channel was closed before returning anything")
		return errors.New("pipeline channel was closed before returning anything")
	}
	if result.Err != nil {
		return result.Err
	}
	task.pqpLogger.Info().Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResultsFile(task, result.Data); err != nil {
		task.pqpLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldPerformTask(task *Task) (bool, error) {
	taskInfo := task.traceTask.TaskStatuses.PQP
	taskLogger := task.pqpLogger

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	taskJob, err := worker.redis.getJobTask(task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for trace task")
		return false, err
	}
	if taskJob.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		err := worker.redis.onTaskCancelled(task)
		return false, err
	}
	var datasetTask *tasks.DatasetTaskCached
	if taskJob.StopDatasetsOnFailure {
		datasetTask, err = worker.redis.getDatasetTask(task)
		if err != nil {
			return false, err
		}
		if datasetTask == nil {
			return false, fmt.Errorf("dataset task not found")
		}
	}
	if taskJob.StopDatasetsOnFailure && len(datasetTask.FailedTasks) > 0 {
		failedTask := datasetTask.FailedTasks[0]
		taskLogger.Info().Msgf("Task is not required because the \"%s\" already completed failure "+
			"and dataset won't be processed successfully. Sending back to Sequencer.", failedTask)
		err := worker.redis.onTaskCancelled(
			task,
			fmt.Sprintf(
				"Task was marked as \"%s\" because of the current dataset has failed "+
					"in the \"%s\" worker and won't be processed successfully.",
				tasks.TaskStatusCanceled,
				failedTask,
			),
		)
		return false, err
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("PQP task has exceeded retries. Sending back to Sequencer.")
		err = worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
		return false, err
	}
	return true, nil
}
