package types

import (
	"errors"
	"io/ioutil"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	"qurrium.com/pqp/logger"
	"qurrium.com/pqp/utils"
)

const (
	// pipeline type
	ShadowEstimatePipeline = "shadow_estimate"

	// features
	PurityFeature  = "purity"
	EntropyFeature = "entropy"
)

type TraceParams struct {
	// Subsystems pins qubit subsets for this configuration; when empty the
	// subsystems file shipped with the request is used instead.
	Subsystems [][]int `yaml:"subsystems" json:"subsystems"`
	Workers    int     `yaml:"workers" json:"workers"`
}

type ParamsConfig struct {
	PQP TraceParams `yaml:"PQP" json:"pqp"`
}

type Configuration struct {
	Name     string       `json:"name"`
	FilePath string       `json:"file_path"`
	Params   ParamsConfig `yaml:"params" json:"params"`
	Pipeline string       `yaml:"pipeline" json:"pipeline"`
	Features []string     `yaml:"features" json:"features"`
}

func (cfg Configuration) CheckFeature(featureName string) bool {
	for _, feat := range cfg.Features {
		if feat == featureName {
			return true
		}
	}

	return false
}

func (cfg Configuration) GetHashCode() uint64 {
	parts := []string{strings.ToLower(cfg.Name), cfg.Pipeline}
	for _, subsystem := range cfg.Params.PQP.Subsystems {
		for _, pos := range subsystem {
			parts = append(parts, strconv.Itoa(pos))
		}
		parts = append(parts, ";")
	}
	return utils.HashTokens(parts)
}

func LoadConfigurations(dirPath string) ([]Configuration, error) {
	pqpLogger := logger.NewLogger("LoadConfigurations")

	files, err := ioutil.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan Configuration, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.FileInfo) {
			defer wg.Done()
			cfg := Configuration{
				Name:     strings.Split(file.Name(), ".yaml")[0],
				FilePath: path.Join(dirPath, file.Name()),
			}
			buf, err := ioutil.ReadFile(cfg.FilePath)
			if err != nil {
				pqpLogger.Err(err).Str("file_path", cfg.FilePath).Msg("Could not read configuration file")
				return
			}
			if err := yaml.Unmarshal(buf, &cfg); err != nil {
				pqpLogger.Err(err).Str("file_path", cfg.FilePath).Msg("Could not unmarshal configuration file")
				return
			}

			// check pipeline type
			if cfg.Pipeline != ShadowEstimatePipeline {
				pqpLogger.Err(errors.New("wrong pipeline type")).
					Str("file_path", cfg.FilePath).
					Msg("Skipping configuration")
				return
			}

			configChan <- cfg
		}(f)
	}

	go func() {
		wg.Wait()
		close(configChan)
	}()

	configs := make([]Configuration, 0, len(configChan))
	for cfg := range configChan {
		configs = append(configs, cfg)
	}
	return configs, nil
}
