// Package experiment implements functionality for running an
// experiment: a single run of PPO on a vectorized environment, with
// metrics written to a log directory and per-episode data tracked to
// disk.
package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"path/filepath"

	"github.com/samuelfneumann/goppo/environment/envconfig"
	"github.com/samuelfneumann/goppo/experiment/tracker"
	"github.com/samuelfneumann/goppo/logger"
	"github.com/samuelfneumann/goppo/plot"
	"github.com/samuelfneumann/goppo/policy"
	"github.com/samuelfneumann/goppo/ppo2"
)

// Filenames of the episode data saved to the log directory
const (
	ReturnFile        = "returns.bin"
	EpisodeLengthFile = "lengths.bin"
	LearningCurveFile = "returns.html"
)

// Config represents a configuration of an experiment.
//
// If LogDir is empty, metrics are only written to standard output and
// neither checkpoints nor episode data are saved.
type Config struct {
	EnvConf  envconfig.Config
	NumEnvs  int
	Parallel bool

	Policy policy.Config
	PPO    ppo2.Config

	LogDir  string
	Formats []logger.Format
}

// DefaultConfig returns a Config training a default policy with the
// default PPO configuration on 8 copies of Cartpole
func DefaultConfig() Config {
	return Config{
		EnvConf: envconfig.NewConfig(envconfig.Cartpole, envconfig.Balance,
			false, 500, 0.99),
		NumEnvs:  8,
		Parallel: false,
		Policy:   policy.DefaultConfig(),
		PPO:      ppo2.DefaultConfig(),
		Formats:  []logger.Format{logger.Stdout, logger.CSV},
	}
}

// NewConfig decodes a Config from JSON. Fields missing from the JSON
// keep their values from DefaultConfig.
func NewConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("newConfig: could not decode: %v", err)
	}
	return c, nil
}

// Load reads a Config from a JSON file
func Load(filename string) (Config, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("load: could not read config: %v", err)
	}

	c, err := NewConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}
	return c, nil
}

// Validate returns an error if the Config is invalid
func (c Config) Validate() error {
	if c.NumEnvs <= 0 {
		return fmt.Errorf("validate: number of environments must be "+
			"positive, have(%v)", c.NumEnvs)
	}
	if err := c.EnvConf.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := c.PPO.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	return nil
}

// formats returns the logger formats to use. Formats which need a
// directory are dropped when no log directory is set.
func (c Config) formats() []logger.Format {
	if c.LogDir != "" {
		return c.Formats
	}

	formats := make([]logger.Format, 0, len(c.Formats))
	for _, f := range c.Formats {
		if f == logger.Stdout {
			formats = append(formats, f)
		} else {
			log.Printf("run: no log directory, not writing %v output", f)
		}
	}
	return formats
}

// Run runs the experiment and returns the trained model. If the
// experiment is stopped through ctx, the partially trained model is
// returned along with the error, and episode data collected so far is
// still saved.
func (c Config) Run(ctx context.Context) (ppo2.Model, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("run: %v", err)
	}

	metrics, err := logger.NewWithFormats(c.LogDir, c.formats()...)
	if err != nil {
		return nil, fmt.Errorf("run: %v", err)
	}
	defer metrics.Close()

	if c.LogDir != "" {
		if err := c.save(filepath.Join(c.LogDir, "config.json")); err != nil {
			// Function schedules cannot be encoded
			log.Printf("run: %v", err)
		}
	}

	vec, err := c.EnvConf.CreateVec(c.NumEnvs, c.PPO.Seed, c.Parallel)
	if err != nil {
		return nil, fmt.Errorf("run: %v", err)
	}

	var trackers []tracker.Tracker
	var returns *tracker.Return
	if c.LogDir != "" {
		returns = tracker.NewReturn(filepath.Join(c.LogDir, ReturnFile))
		trackers = []tracker.Tracker{
			returns,
			tracker.NewEpisodeLength(filepath.Join(c.LogDir,
				EpisodeLengthFile)),
		}
	}

	log.Printf("run: training on %v %v environments for %v timesteps",
		c.NumEnvs, c.EnvConf.Environment, c.PPO.TotalTimesteps)
	model, learnErr := ppo2.Learn(ctx, c.Policy.Factory(), vec, c.PPO,
		metrics, trackers...)

	for _, t := range trackers {
		if err := t.Save(); err != nil && learnErr == nil {
			learnErr = fmt.Errorf("run: could not save episode data: %v",
				err)
		}
	}
	if returns != nil && len(returns.Data()) > 0 {
		if err := c.plot(returns.Data()); err != nil && learnErr == nil {
			learnErr = err
		}
	}

	if learnErr != nil {
		return model, fmt.Errorf("run: %w", learnErr)
	}
	return model, nil
}

// plot saves the learning curve of the episode returns to the log
// directory
func (c Config) plot(returns []float64) error {
	title := fmt.Sprintf("%v %v", c.EnvConf.Environment, c.EnvConf.Task)
	err := plot.SaveLearningCurve(filepath.Join(c.LogDir, LearningCurveFile),
		title,
		plot.Series{Name: "Episode return", Values: returns},
		plot.Series{
			Name:   fmt.Sprintf("Mean of last %v", ppo2.EpisodeBufferSize),
			Values: plot.MovingAverage(returns, ppo2.EpisodeBufferSize),
		},
	)
	if err != nil {
		return fmt.Errorf("plot: %v", err)
	}
	return nil
}

// save writes the Config as JSON to filename
func (c Config) save(filename string) error {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return fmt.Errorf("save: could not encode config: %v", err)
	}
	if err := ioutil.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("save: could not write config: %v", err)
	}
	return nil
}
