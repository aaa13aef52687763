package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"qurrium.com/pqp/api"
	"qurrium.com/pqp/estimator"
	"qurrium.com/pqp/logger"
	"qurrium.com/pqp/types"
	"qurrium.com/pqp/worker"
)

type Config struct {
	ConfigPath    string `envconfig:"PQP_CONFIG_PATH" required:"true"`
	TraceWorkers  int    `envconfig:"PQP_TRACE_WORKERS" default:"0"`
	RestAPIActive bool   `envconfig:"PQP_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"PQP_REST_API_PORT" default:"10000"`
}

const pipelineStartMaxRetries = 5

func main() {
	logger.SetupLogging()
	pqpLogger := logger.NewLogger("Main")
	fatalErrLogger := pqpLogger.Fatal().Caller()
	wrapLogs := flag.String("wrap-logs", "", "run the given binary with its stderr collected as JSON logs")
	flag.Parse()

	// relaunch ourselves (or any binary) under the logs supervisor
	if *wrapLogs != "" {
		logger.WrapProcess(*wrapLogs, flag.Args()...)
		return
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	//Load Pipeline
	pipelineChannel := make(chan estimator.Pipeline)
	go func() {
		for retry := 0; retry < pipelineStartMaxRetries; retry++ {
			cfgs, err := types.LoadConfigurations(config.ConfigPath)
			if err != nil {
				pqpLogger.Err(err).Msg("Failed to load configurations. Retrying in 5 sec")
				time.Sleep(5 * time.Second)
				continue
			}
			pqpLogger.Info().Msgf("Loaded %d configurations", len(cfgs))
			pqpLogger.Info().Msg("Starting pipelines loading")

			pipelineParams := estimator.GetDefaultParams(cfgs)
			pipelineParams.Workers = config.TraceWorkers
			ppln, err := estimator.ShadowEstimate(pipelineParams)
			if err != nil {
				pqpLogger.Err(err).Msg("Failed to start shadow estimate pipeline. Retrying in 5 sec")
				time.Sleep(5 * time.Second)
				continue
			}
			pqpLogger.Info().Msg("Pipelines loaded")
			pipelineChannel <- ppln
			return
		}
		fatalErrLogger.Msg("Could not start pipelines after 5 retries, exiting")
		os.Exit(1)
	}()

	// block until pipeline loads
	ppln := <-pipelineChannel

	if config.RestAPIActive {
		go func() {
			pqpLogger.Info().Msg("Starting API service")
			apiRequest := &api.Request{
				Pipeline: ppln,
			}
			http.HandleFunc("/", apiRequest.ProcessData)
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			pqpLogger.Info().Msgf("REST API on %s", host)
			err := http.ListenAndServe(host, nil)
			fatalErrLogger.Err(err).Msg("REST API stopped with error")
		}()
	}

	pqpLogger.Info().Msg("Start PQP Worker")
	for {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			pqpLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
			os.Exit(1)
		}
		err = rmqWorker.StartWorker()
		if err != nil {
			pqpLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
}
