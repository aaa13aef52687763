package tasks

import (
	"fmt"
	"qurrium.com/pqp/redis"
)

type Client struct {
	Datasets DatasetTasks
	Traces   TraceTasks
	Jobs     JobTasks
}

// NewClient is a preferred way for working with TaskInfos
func NewClient() (Client, error) {
	datasetRedisClient, err := redis.NewClient(DatasetsDB)
	if err != nil {
		return Client{}, err
	}
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		return Client{}, err
	}
	tracesRedisClient, err := redis.NewClient(TracesDB)
	if err != nil {
		return Client{}, err
	}
	return Client{
		Datasets: DatasetTasks{client: datasetRedisClient},
		Jobs:     JobTasks{client: jobsRedisClient},
		Traces:   TraceTasks{client: tracesRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Traces.client.Close()
	_ = client.Datasets.client.Close()
	_ = client.Jobs.client.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
