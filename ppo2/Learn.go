// Package ppo2 implements Proximal Policy Optimization with a clipped
// surrogate objective and generalized advantage estimation.
//
// Learn alternates between collecting rollouts from a vectorized
// environment with a Runner and performing several epochs of minibatch
// updates on each rollout with a Model.
package ppo2

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	env "github.com/samuelfneumann/goppo/environment"
	"github.com/samuelfneumann/goppo/experiment/checkpointer"
	"github.com/samuelfneumann/goppo/experiment/tracker"
	"github.com/samuelfneumann/goppo/logger"
	"github.com/samuelfneumann/goppo/utils/progressbar"
	"golang.org/x/exp/rand"
)

// CheckpointDir is the subdirectory of the log directory in which
// checkpoints are saved
const CheckpointDir = "checkpoints"

// Learn trains a Model constructed by factory on the environment e for
// cfg.TotalTimesteps steps and returns it. Metrics are written to
// metrics, which may be nil. Every completed episode is tracked by
// each of the trackers.
//
// Training may be cancelled through ctx between updates, in which case
// the partially trained Model is returned along with the context's
// error. The environment is closed when Learn returns.
func Learn(ctx context.Context, factory ModelFactory, e env.VecEnv,
	cfg Config, metrics *logger.Logger,
	trackers ...tracker.Tracker) (model Model, err error) {
	defer func() {
		if closeErr := e.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("learn: could not close environment: %v",
				closeErr)
		}
	}()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("learn: %w", err)
	}
	if metrics == nil {
		metrics = logger.Discard()
	}

	nenvs := e.NumEnvs()
	nbatch := nenvs * cfg.NSteps
	nbatchTrain := nbatch / cfg.NMinibatches
	nupdates := cfg.TotalTimesteps / nbatch
	if nupdates < 1 {
		return nil, fmt.Errorf("learn: total timesteps %v less than batch "+
			"size %v: %w", cfg.TotalTimesteps, nbatch, ErrBatchSize)
	}

	model, err = factory(ModelConfig{
		ObservationSpec: e.ObservationSpec(),
		ActionSpec:      e.ActionSpec(),
		NBatchAct:       nenvs,
		NBatchTrain:     nbatchTrain,
		NSteps:          cfg.NSteps,
		EntCoef:         cfg.EntCoef,
		VFCoef:          cfg.VFCoef,
		MaxGradNorm:     cfg.MaxGradNorm,
		Seed:            cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("learn: could not create model: %v", err)
	}
	recurrent := !model.InitialState().IsNone()

	if cfg.LoadPath != "" {
		if err := model.Load(cfg.LoadPath); err != nil {
			return nil, fmt.Errorf("learn: could not load model: %v", err)
		}
		log.Printf("learn: loaded model from %v", cfg.LoadPath)
	}

	runner, err := NewRunner(e, model, cfg.NSteps, cfg.Gamma, cfg.Lambda)
	if err != nil {
		return nil, fmt.Errorf("learn: %v", err)
	}

	var ckpt checkpointer.Checkpointer
	if cfg.SaveInterval > 0 && metrics.Dir() != "" {
		dir := filepath.Join(metrics.Dir(), CheckpointDir)
		ckpt, err = checkpointer.NewNStep(cfg.SaveInterval, model,
			checkpointer.UpdateFilename(dir), true)
		if err != nil {
			return nil, fmt.Errorf("learn: %v", err)
		}
	}

	var bar *progressbar.ManualProgressBar
	if cfg.ShowProgress {
		bar = progressbar.NewManualProgressBar(os.Stderr, 50, nupdates)
		defer bar.Close()
	}

	epBuffer := NewEpisodeBuffer(EpisodeBufferSize)
	rng := rand.New(rand.NewSource(cfg.Seed))
	tfirststart := time.Now()

	for update := 1; update <= nupdates; update++ {
		select {
		case <-ctx.Done():
			return model, fmt.Errorf("learn: stopped before update %v: %w",
				update, ctx.Err())
		default:
		}

		if err := checkBatchSize(nenvs, cfg.NSteps, cfg.NMinibatches,
			recurrent); err != nil {
			return model, fmt.Errorf("learn: %w", err)
		}

		tstart := time.Now()
		frac := FractionRemaining(update, nupdates)
		lrnow := cfg.LearningRate.At(frac)
		cliprangenow := cfg.ClipRange.At(frac)

		batch, err := runner.Run()
		if err != nil {
			return model, fmt.Errorf("learn: update %v: %v", update, err)
		}

		epBuffer.Extend(batch.EpisodeInfos...)
		for _, t := range trackers {
			for _, ep := range batch.EpisodeInfos {
				t.Track(ep)
			}
		}

		var mblossvals []Losses
		for epoch := 0; epoch < cfg.NOptEpochs; epoch++ {
			var inds, envs [][]int
			if recurrent {
				inds, envs, err = RecurrentMinibatches(rng, nenvs, cfg.NSteps,
					nenvs/cfg.NMinibatches)
			} else {
				inds, err = FlatMinibatches(rng, nbatch, nbatchTrain)
			}
			if err != nil {
				return model, fmt.Errorf("learn: %w", err)
			}

			for i := range inds {
				var mbEnvs []int
				if recurrent {
					mbEnvs = envs[i]
				}

				losses, err := model.Train(lrnow, cliprangenow,
					batch.Gather(inds[i], mbEnvs))
				if err != nil {
					return model, fmt.Errorf("learn: update %v: could not "+
						"train: %v", update, err)
				}
				mblossvals = append(mblossvals, losses)
			}
		}
		lossvals := MeanLosses(mblossvals).Values()

		tnow := time.Now()
		var fps int
		if elapsed := tnow.Sub(tstart).Seconds(); elapsed > 0 {
			fps = int(float64(nbatch) / elapsed)
		}

		if update%cfg.LogInterval == 0 || update == 1 {
			metrics.LogKV("serial_timesteps", update*cfg.NSteps)
			metrics.LogKV("nupdates", update)
			metrics.LogKV("total_timesteps", update*nbatch)
			metrics.LogKV("fps", fps)
			metrics.LogKV("explained_variance",
				ExplainedVariance(batch.Values, batch.Returns))
			metrics.LogKV("eprewmean", epBuffer.MeanReturn())
			metrics.LogKV("eplenmean", epBuffer.MeanLength())
			metrics.LogKV("time_elapsed", tnow.Sub(tfirststart).Seconds())
			for i, name := range LossNames {
				metrics.LogKV(name, lossvals[i])
			}
			if err := metrics.DumpKVs(); err != nil {
				return model, fmt.Errorf("learn: %v", err)
			}
		}

		if ckpt != nil {
			path, saved, err := ckpt.Checkpoint(update)
			if err != nil {
				return model, fmt.Errorf("learn: %v", err)
			}
			if saved {
				log.Printf("learn: saving to %v", path)
			}
		}

		if bar != nil {
			bar.Increment()
			if err := bar.Display(); err != nil {
				return model, fmt.Errorf("learn: %v", err)
			}
		}
	}

	return model, nil
}
