package worker

import (
	"qurrium.com/pqp/s3client"
)

type s3Transactions interface {
	saveResultsFile(task *Task, result string) error
	getMeasurementsData(task *Task) ([]byte, error)
	getSubsystemsData(task *Task) ([]byte, error)
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

func (wrapper *s3ClientWrapper) saveResultsFile(task *Task, result string) error {
	resultsFileKey := getResultsFileKey(task)
	_, err := wrapper.s3Client.Upload(result, resultsFileKey)
	return err
}

func (wrapper *s3ClientWrapper) getMeasurementsData(task *Task) ([]byte, error) {
	return wrapper.s3Client.Download(task.traceTask.MeasurementsFileKey)
}

func (wrapper *s3ClientWrapper) getSubsystemsData(task *Task) ([]byte, error) {
	return wrapper.s3Client.Download(task.traceTask.SubsystemsFileKey)
}
