package ppo2

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/samuelfneumann/goppo/logger"
	"gonum.org/v1/gonum/floats"
)

func factoryFor(m Model) ModelFactory {
	return func(ModelConfig) (Model, error) {
		return m, nil
	}
}

func TestLearn(t *testing.T) {
	const nenvs, nsteps = 2, 8

	e := newCountEnv(nenvs, 4)
	model := &constModel{nenvs: nenvs}

	var buf bytes.Buffer
	dir := t.TempDir()
	metrics, err := logger.New(dir, logger.NewCSVOutput(&buf))
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.NSteps = nsteps
	cfg.TotalTimesteps = 4 * nenvs * nsteps
	cfg.NOptEpochs = 3
	cfg.LogInterval = 2
	cfg.SaveInterval = 3
	cfg.LearningRate = Linear(1)
	cfg.LoadPath = "params"

	rec := &recorder{}
	trained, err := Learn(context.Background(), factoryFor(model), e, cfg,
		metrics, rec)
	if err != nil {
		t.Fatal(err)
	}
	if trained != model {
		t.Error("learn did not return the constructed model")
	}
	if !e.closed {
		t.Error("environment not closed")
	}
	if model.loaded != "params" {
		t.Errorf("want model loaded from params have %q", model.loaded)
	}

	// 4 updates of 3 epochs of 4 minibatches
	if len(model.minibatch) != 48 {
		t.Fatalf("want 48 training steps have %v", len(model.minibatch))
	}
	for _, mb := range model.minibatch {
		if mb.Len() != nenvs*nsteps/4 {
			t.Fatalf("want minibatch size %v have %v", nenvs*nsteps/4,
				mb.Len())
		}
	}

	// The learning rate is annealed linearly, once per update
	for update := 0; update < 4; update++ {
		want := 1 - float64(update)/4
		for _, lr := range model.lrs[update*12 : (update+1)*12] {
			if lr != want {
				t.Errorf("update %v: want learning rate %v have %v",
					update+1, want, lr)
			}
		}
	}
	for _, c := range model.clipRanges {
		if c != 0.2 {
			t.Fatalf("want clip range 0.2 have %v", c)
		}
	}

	// Each environment completes 2 episodes per update
	if len(rec.episodes) != 16 {
		t.Errorf("want 16 tracked episodes have %v", len(rec.episodes))
	}

	wantSaved := []string{
		filepath.Join(dir, CheckpointDir, "00001"),
		filepath.Join(dir, CheckpointDir, "00003"),
	}
	if len(model.saved) != len(wantSaved) {
		t.Fatalf("want checkpoints %v have %v", wantSaved, model.saved)
	}
	for i := range wantSaved {
		if model.saved[i] != wantSaved[i] {
			t.Errorf("want checkpoint %v have %v", wantSaved[i],
				model.saved[i])
		}
	}

	// Logged on updates 1, 2, and 4
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("want header and 3 rows have %v records", len(records))
	}

	header := records[0]
	wantKeys := append([]string{"serial_timesteps", "nupdates",
		"total_timesteps", "fps", "explained_variance", "eprewmean",
		"eplenmean", "time_elapsed"}, LossNames...)
	if len(header) != len(wantKeys) {
		t.Errorf("want keys %v have %v", wantKeys, header)
	}

	col := make(map[string]int)
	for i, key := range header {
		col[key] = i
	}
	for _, key := range wantKeys {
		if _, ok := col[key]; !ok {
			t.Errorf("key %v not logged", key)
		}
	}

	value := func(row int, key string) float64 {
		v, err := strconv.ParseFloat(records[row][col[key]], 64)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}

	for i, update := range []float64{1, 2, 4} {
		row := i + 1
		if v := value(row, "nupdates"); v != update {
			t.Errorf("row %v: want nupdates %v have %v", row, update, v)
		}
		if v := value(row, "total_timesteps"); v != update*nenvs*nsteps {
			t.Errorf("row %v: want total_timesteps %v have %v", row,
				update*nenvs*nsteps, v)
		}
		if v := value(row, "serial_timesteps"); v != update*nsteps {
			t.Errorf("row %v: want serial_timesteps %v have %v", row,
				update*nsteps, v)
		}
		if v := value(row, "eprewmean"); v != 4 {
			t.Errorf("row %v: want eprewmean 4 have %v", row, v)
		}
		losses := make([]float64, len(LossNames))
		for j, name := range LossNames {
			losses[j] = value(row, name)
		}
		if !floats.Equal(losses, []float64{1, 2, 3, 4, 5}) {
			t.Errorf("row %v: unexpected losses %v", row, losses)
		}
	}
}

func TestLearnRecurrent(t *testing.T) {
	const nenvs, nsteps = 4, 3

	model := &constModel{nenvs: nenvs, recurrent: true}
	cfg := DefaultConfig()
	cfg.NSteps = nsteps
	cfg.TotalTimesteps = nenvs * nsteps
	cfg.NMinibatches = 2
	cfg.NOptEpochs = 1

	if _, err := Learn(context.Background(), factoryFor(model),
		newCountEnv(nenvs, 5), cfg, nil); err != nil {
		t.Fatal(err)
	}

	if len(model.minibatch) != 2 {
		t.Fatalf("want 2 training steps have %v", len(model.minibatch))
	}

	seen := make(map[float64]bool)
	for _, mb := range model.minibatch {
		if mb.Len() != 2*nsteps {
			t.Errorf("want minibatch size %v have %v", 2*nsteps, mb.Len())
		}

		// Each minibatch holds whole environments, whose initial states
		// identify them
		state, ok := mb.States.Value()
		if !ok {
			t.Fatal("recurrent minibatch has no state")
		}
		if r, _ := state.Dims(); r != 2 {
			t.Fatalf("want 2 state rows have %v", r)
		}
		for i := 0; i < 2; i++ {
			seen[state.At(i, 0)] = true

			// Observations of an environment are consecutive steps
			for k := 0; k < nsteps; k++ {
				if obs := mb.Observations.At(i*nsteps+k, 0); obs != float64(k) {
					t.Errorf("want observation %v have %v", k, obs)
				}
			}
		}
	}
	if len(seen) != nenvs {
		t.Errorf("want all %v environments trained on, have %v", nenvs,
			len(seen))
	}
}

func TestLearnBatchSizeErrors(t *testing.T) {
	tests := []struct {
		name         string
		nenvs        int
		nsteps       int
		nminibatches int
		recurrent    bool
	}{
		{"flat", 3, 3, 2, false},
		{"recurrent", 3, 4, 2, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e := newCountEnv(test.nenvs, 5)
			model := &constModel{nenvs: test.nenvs, recurrent: test.recurrent}

			cfg := DefaultConfig()
			cfg.NSteps = test.nsteps
			cfg.NMinibatches = test.nminibatches
			cfg.TotalTimesteps = 10 * test.nenvs * test.nsteps

			_, err := Learn(context.Background(), factoryFor(model), e, cfg,
				nil)
			if !errors.Is(err, ErrBatchSize) {
				t.Errorf("want ErrBatchSize have %v", err)
			}
			if e.stepped != 0 || len(model.minibatch) != 0 {
				t.Error("data consumed before batch size error")
			}
			if !e.closed {
				t.Error("environment not closed")
			}
		})
	}
}

func TestLearnStops(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NSteps = 4
	cfg.NMinibatches = 1
	cfg.TotalTimesteps = 40

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	model := &constModel{nenvs: 1}
	_, err := Learn(ctx, factoryFor(model), newCountEnv(1, 5), cfg, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled have %v", err)
	}
	if len(model.minibatch) != 0 {
		t.Error("trained after cancellation")
	}

	e := newCountEnv(1, 5)
	e.failAt = 6
	if _, err := Learn(context.Background(), factoryFor(&constModel{nenvs: 1}),
		e, cfg, nil); err == nil {
		t.Error("expected environment error to stop training")
	}

	cfg.ClipRange = Schedule{}
	_, err = Learn(context.Background(), factoryFor(&constModel{nenvs: 1}),
		newCountEnv(1, 5), cfg, nil)
	if !errors.Is(err, ErrSchedule) {
		t.Errorf("want ErrSchedule have %v", err)
	}
}

func TestLearnNoEpisodes(t *testing.T) {
	var buf bytes.Buffer
	metrics, err := logger.New("", logger.NewCSVOutput(&buf))
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.NSteps = 4
	cfg.NMinibatches = 2
	cfg.TotalTimesteps = 4

	// Episodes are longer than the single update
	if _, err := Learn(context.Background(), factoryFor(&constModel{nenvs: 1}),
		newCountEnv(1, 100), cfg, metrics); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	for i, key := range records[0] {
		if key == "eprewmean" || key == "eplenmean" {
			v, err := strconv.ParseFloat(records[1][i], 64)
			if err != nil || !math.IsNaN(v) {
				t.Errorf("%v: want NaN have %v", key, records[1][i])
			}
		}
	}
}
