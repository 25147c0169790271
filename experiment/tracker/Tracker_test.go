package tracker

import (
	"path/filepath"
	"testing"

	env "github.com/samuelfneumann/goppo/environment"
	"gonum.org/v1/gonum/floats"
)

func TestTrackers(t *testing.T) {
	dir := t.TempDir()
	ret := NewReturn(filepath.Join(dir, "return.bin"))
	length := NewEpisodeLength(filepath.Join(dir, "length.bin"))

	episodes := []env.EpisodeInfo{
		{Return: 10.5, Length: 11},
		{Return: -2, Length: 3},
	}
	for _, ep := range episodes {
		for _, tr := range []Tracker{ret, length} {
			tr.Track(ep)
		}
	}

	tests := []struct {
		name     string
		tracker  Tracker
		filename string
		want     []float64
	}{
		{"Return", ret, "return.bin", []float64{10.5, -2}},
		{"EpisodeLength", length, "length.bin", []float64{11, 3}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := test.tracker.Save(); err != nil {
				t.Fatal(err)
			}
			data, err := LoadData(filepath.Join(dir, test.filename))
			if err != nil {
				t.Fatal(err)
			}
			if !floats.Equal(data, test.want) {
				t.Errorf("want %v have %v", test.want, data)
			}
		})
	}

	if _, err := LoadData(filepath.Join(dir, "missing.bin")); err == nil {
		t.Error("expected error loading missing file")
	}
}
