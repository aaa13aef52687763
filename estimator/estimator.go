package estimator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"qurrium.com/pqp/logger"
	"qurrium.com/pqp/pqp"
	"qurrium.com/pqp/trace"
	"qurrium.com/pqp/types"
	"qurrium.com/pqp/utils"
)

const progressLogEvery = 1000

type Params struct {
	Configurations []types.Configuration `json:"configurations"`
	// Workers bounds every trace reduction whose configuration does not set
	// its own count; <= 0 means hardware parallelism.
	Workers int `json:"workers"`
}

func GetDefaultParams(cfgs []types.Configuration) Params {
	return Params{
		Configurations: cfgs,
	}
}

// ShadowEstimate builds the pipeline: parse the PQP files once, then run
// every configuration's trace reductions and fold the per-subsystem
// estimates into one JSON document.
func ShadowEstimate(params Params) (Pipeline, error) {
	pqpLogger := logger.NewLogger("Shadow estimate pipeline")
	if len(params.Configurations) == 0 {
		return nil, fmt.Errorf("no configurations supplied")
	}
	pqpLogger.Info().
		Interface("params", params).
		Msg("Starting shadow estimate pipeline (see parameters in 'params' field)")

	return func(ctx context.Context, request Request) <-chan Response {
		responseChan := make(chan Response, 1)
		pplnLog := pqpLogger.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Msg("Started shadow estimate pipeline")

		go func() {
			defer close(responseChan)

			records, err := pqp.ReadMeasurements(strings.NewReader(request.Measurements))
			if err != nil {
				pplnLog.Err(err).Msg("Failed to parse measurement records")
				responseChan <- Response{Err: fmt.Errorf("parsing measurements: %w", err)}
				return
			}
			var requestSubsystems [][]int
			if strings.TrimSpace(request.Subsystems) != "" {
				sys, err := pqp.ReadSubsystems(strings.NewReader(request.Subsystems))
				if err != nil {
					pplnLog.Err(err).Msg("Failed to parse subsystems file")
					responseChan <- Response{Err: fmt.Errorf("parsing subsystems: %w", err)}
					return
				}
				requestSubsystems = sys.Subsystems
			}

			fingerprint := fmt.Sprintf("%016x", utils.FingerprintRecords(records))
			pplnLog.Info().
				Int("num_records", len(records)).
				Str("dataset_fingerprint", fingerprint).
				Msg("Parsed measurement records")

			resultChannel := make(chan configResult)
			for _, cfg := range params.Configurations {
				go func(cfg types.Configuration) {
					resultChannel <- runConfiguration(
						ctx, cfg, params, records, requestSubsystems, fingerprint, pplnLog,
					)
				}(cfg)
			}

			response := make(map[string]interface{})
			for range params.Configurations {
				res := <-resultChannel
				if res.Err != nil {
					pplnLog.Err(res.Err).
						Str("config_name", res.ConfigName).
						Msg("Configuration failed, aborting request")
					responseChan <- Response{Err: res.Err}
					return
				}
				pplnLog.Info().
					Str("config_name", res.ConfigName).
					Msg("Finished estimates for configuration")
				response[res.ConfigName] = res.Data
			}

			buf, err := json.Marshal(response)
			if err != nil {
				pplnLog.Err(err).Msg("Failed to marshal response")
				responseChan <- Response{Err: err}
				return
			}
			pplnLog.Info().Msg("Finished shadow estimate pipeline")
			responseChan <- Response{Data: string(buf)}
		}()

		return responseChan
	}, nil
}

func runConfiguration(
	ctx context.Context,
	cfg types.Configuration,
	params Params,
	records [][]string,
	requestSubsystems [][]int,
	fingerprint string,
	pplnLog zerolog.Logger,
) configResult {
	cfgLog := pplnLog.With().
		Str("config_name", cfg.Name).
		Uint64("config_hash", cfg.GetHashCode()).
		Logger()

	subsystems := cfg.Params.PQP.Subsystems
	if len(subsystems) == 0 {
		subsystems = requestSubsystems
	}
	if len(subsystems) == 0 {
		return configResult{
			ConfigName: cfg.Name,
			Err:        fmt.Errorf("configuration %s: no subsystems in configuration or request", cfg.Name),
		}
	}

	workers := cfg.Params.PQP.Workers
	if workers <= 0 {
		workers = params.Workers
	}
	engine := trace.New(trace.Config{
		Workers: workers,
		Progress: func(done, total int64) {
			if done == total || done%progressLogEvery == 0 {
				cfgLog.Debug().
					Int64("rows_done", done).
					Int64("rows_total", total).
					Msg("Trace reduction progress")
			}
		},
	})

	data := ConfigEstimates{
		DatasetFingerprint: fingerprint,
		NumRecords:         len(records),
		Estimates:          make([]SubsystemEstimate, 0, len(subsystems)),
	}
	for _, positions := range subsystems {
		total, err := engine.ComputeTotal(ctx, records, positions)
		if err != nil {
			return configResult{
				ConfigName: cfg.Name,
				Err:        fmt.Errorf("configuration %s, subsystem %v: %w", cfg.Name, positions, err),
			}
		}
		estimate := SubsystemEstimate{
			Positions:  append([]int{}, positions...),
			TraceTotal: total,
			PairCount:  len(records) * (len(records) - 1) / 2,
		}
		addDerived(&estimate, cfg, cfgLog)
		data.Estimates = append(data.Estimates, estimate)
	}
	return configResult{ConfigName: cfg.Name, Data: data}
}

// addDerived attaches the feature-gated quantities. The purity estimator is
// the pair average of the trace totals; its Rényi-2 entropy only exists for
// a positive purity, which sampling noise does not guarantee.
func addDerived(estimate *SubsystemEstimate, cfg types.Configuration, cfgLog zerolog.Logger) {
	if estimate.PairCount == 0 {
		return
	}
	purity := estimate.TraceTotal / float64(estimate.PairCount)
	if cfg.CheckFeature(types.PurityFeature) {
		estimate.Purity = &purity
	}
	if cfg.CheckFeature(types.EntropyFeature) {
		if purity <= 0 {
			cfgLog.Warn().
				Float64("purity", purity).
				Interface("positions", estimate.Positions).
				Msg("Non-positive purity estimate, skipping entropy")
			return
		}
		entropy := -math.Log2(purity)
		estimate.Renyi2Entropy = &entropy
	}
}
