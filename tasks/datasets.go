package tasks

import (
	"qurrium.com/pqp/redis"
	"qurrium.com/pqp/utils/maps"
	"sync"
)

const DatasetsDB redis.DB = 0

// DatasetTask tracks one uploaded dataset across all of its trace tasks.
type DatasetTask struct {
	maps.BaseDocument
	FailedTasks  []string            `json:"failed_tasks"`
	FailedTraces map[string][]string `json:"failed_traces"`
}

type DatasetTaskCached struct {
	maps.BaseDocument
	DatasetInfo map[string]interface{} `json:"dataset_info"`
	FailedTasks []string               `json:"failed_tasks"`
	JobID       string                 `json:"job_id"`
	WorkType    string                 `json:"work_type"`
}

type DatasetTasks struct {
	client redis.Client
}

func (tasks DatasetTasks) Get(redisKey string) (*DatasetTask, error) {
	var task DatasetTask
	err := tasks.client.GetPartialDocument(redisKey, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks DatasetTasks) GetCached(redisKey string) (*DatasetTaskCached, error) {
	var task DatasetTaskCached
	err := tasks.client.GetPartialDocument(cachedPropertiesKey(redisKey), &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks DatasetTasks) Update(redisKey string, updateFunc func(task *DatasetTask)) (err error) {
	releaseLock, err := tasks.client.Lock(redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = releaseLock()
			return
		}
		err = releaseLock()
	}()
	var task DatasetTask
	var cached DatasetTaskCached

	err = tasks.client.GetPartialDocument(redisKey, &task)
	if err != nil {
		return err
	}
	err = maps.ApplyUpdates(&task, updateFunc)
	if err != nil {
		return err
	}
	err = maps.CopyValues(&task, &cached)
	if err != nil {
		return err
	}
	errChan := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		errChan <- tasks.client.SaveDoc(redisKey, &task)
		wg.Done()
	}()
	go func() {
		errChan <- tasks.client.SaveDoc(cachedPropertiesKey(redisKey), &cached)
		wg.Done()
	}()
	wg.Wait()
	close(errChan)
	for err = range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}
