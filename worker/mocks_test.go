package worker

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"qurrium.com/pqp/estimator"
	"qurrium.com/pqp/tasks"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type pipelineMock struct {
	ppln   estimator.Pipeline
	config pipelineMockConfig
	calls  pipelineCall
}

type pipelineMockConfig struct {
	closeEarly bool
	fail       bool
	result     string
}

type pipelineCall struct {
	pipeline bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
}

type redisMockConfig struct {
	getTraceTask          withValue
	getJobTask            withValue
	getDatasetTask        withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getTraceTask          bool
	getJobTask            bool
	getDatasetTask        bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config rmqMockConfig
	calls  rmqMockCalls
}

type rmqMockConfig struct {
	pingSequencer       failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	pingSequencer       bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
}

type s3MockConfig struct {
	getMeasurementsData withValue
	getSubsystemsData   withValue
	saveResultsFile     failingMethod
}

type s3MockCalls struct {
	getMeasurementsData bool
	getSubsystemsData   bool
	saveResultsFile     bool
}

func (mock s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func getPipelineMock(config pipelineMockConfig) *pipelineMock {
	mock := pipelineMock{config: config}
	switch {
	case config.closeEarly:
		mock.ppln = func(ctx context.Context, request estimator.Request) <-chan estimator.Response {
			mock.calls.pipeline = true
			ch := make(chan estimator.Response)
			close(ch)
			return ch
		}
	case config.fail:
		mock.ppln = func(ctx context.Context, request estimator.Request) <-chan estimator.Response {
			mock.calls.pipeline = true
			ch := make(chan estimator.Response, 1)
			ch <- estimator.Response{Err: errors.New("mock: estimation failed")}
			close(ch)
			return ch
		}
	default:
		mock.ppln = func(ctx context.Context, request estimator.Request) <-chan estimator.Response {
			mock.calls.pipeline = true
			ch := make(chan estimator.Response, 1)
			ch <- estimator.Response{Data: mock.config.result}
			close(ch)
			return ch
		}
	}
	return &mock
}

func (mock *redisMock) getTraceTask(redisKey string) (*tasks.TraceTask, error) {
	mock.calls.getTraceTask = true
	if mock.config.getTraceTask.fail {
		return nil, errors.New("failed to get trace task")
	}
	switch mock.config.getTraceTask.returnedValue.(type) {
	case tasks.TraceTask:
		task := mock.config.getTraceTask.returnedValue.(tasks.TraceTask)
		return &task, nil
	default:
		return &tasks.TraceTask{}, nil
	}
}

func (mock *redisMock) getJobTask(task *Task) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	switch mock.config.getJobTask.returnedValue.(type) {
	case tasks.JobTask:
		jobTask := mock.config.getJobTask.returnedValue.(tasks.JobTask)
		return &jobTask, nil
	default:
		return &tasks.JobTask{}, nil
	}
}

func (mock *redisMock) getDatasetTask(task *Task) (*tasks.DatasetTaskCached, error) {
	mock.calls.getDatasetTask = true
	if mock.config.getDatasetTask.fail {
		return nil, errors.New("failed to get dataset task")
	}
	switch mock.config.getDatasetTask.returnedValue.(type) {
	case tasks.DatasetTaskCached:
		datasetTaskCached := mock.config.getDatasetTask.returnedValue.(tasks.DatasetTaskCached)
		return &datasetTaskCached, nil
	default:
		return &tasks.DatasetTaskCached{}, nil
	}
}

func (mock *redisMock) onTaskStarted(task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update trace task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update trace task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update trace task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update trace task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(task *Task) error {
	mock.calls.onTaskComplete = true
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update trace task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, pqpLogger *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return nil
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) pingSequencer(task *Task, message Message) error {
	mock.calls.pingSequencer = true
	if mock.config.pingSequencer.fail {
		return errors.New("failed to ping sequencer")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) getMeasurementsData(task *Task) ([]byte, error) {
	mock.calls.getMeasurementsData = true
	if mock.config.getMeasurementsData.fail {
		return nil, errors.New("mock: failed to load measurements from s3")
	}
	switch mock.config.getMeasurementsData.returnedValue.(type) {
	case []byte:
		return mock.config.getMeasurementsData.returnedValue.([]byte), nil
	default:
		return []byte("X 0 X 0\nZ 1 Z 1\n"), nil
	}
}

func (mock *s3Mock) getSubsystemsData(task *Task) ([]byte, error) {
	mock.calls.getSubsystemsData = true
	if mock.config.getSubsystemsData.fail {
		return nil, errors.New("mock: failed to load subsystems from s3")
	}
	switch mock.config.getSubsystemsData.returnedValue.(type) {
	case []byte:
		return mock.config.getSubsystemsData.returnedValue.([]byte), nil
	default:
		return []byte("2\n1 0\n"), nil
	}
}

func (mock *s3Mock) saveResultsFile(task *Task, result string) error {
	mock.calls.saveResultsFile = true
	if mock.config.saveResultsFile.fail {
		return errors.New("failed to upload results")
	}
	return nil
}
