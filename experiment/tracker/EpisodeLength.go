package tracker

import env "github.com/samuelfneumann/goppo/environment"

// EpisodeLength tracks and saves the number of steps in each completed
// episode
type EpisodeLength struct {
	episodeData
}

// NewEpisodeLength creates and returns a new *EpisodeLength Tracker
// which saves its data to filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{episodeData{
		filename: filename,
		extract: func(ep env.EpisodeInfo) float64 {
			return float64(ep.Length)
		},
	}}
}
