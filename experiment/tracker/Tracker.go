// Package tracker implements Trackers, which track and save data about
// the episodes completed during training
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	env "github.com/samuelfneumann/goppo/environment"
)

// Interface Tracker keeps track of data about completed episodes and
// saves the data after training has finished
type Tracker interface {
	Track(ep env.EpisodeInfo)
	Save() error
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %v", err)
	}
	defer file.Close()

	var data []float64
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %v", err)
	}
	return data, nil
}

// episodeData tracks a single value per episode and gob-encodes the
// tracked values to a file
type episodeData struct {
	filename string
	data     []float64
	extract  func(env.EpisodeInfo) float64
}

func (e *episodeData) Track(ep env.EpisodeInfo) {
	e.data = append(e.data, e.extract(ep))
}

// Data returns a copy of the data tracked so far
func (e *episodeData) Data() []float64 {
	return append([]float64(nil), e.data...)
}

func (e *episodeData) Save() error {
	file, err := os.Create(e.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(e.data); err != nil {
		return fmt.Errorf("save: could not encode data: %v", err)
	}
	return file.Sync()
}
