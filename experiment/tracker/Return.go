package tracker

import env "github.com/samuelfneumann/goppo/environment"

// Return tracks and saves the return of each completed episode.
//
// Returns are measured by the environment.EpisodeReporter that
// reported the episode, so if the rewards of an environment are
// modified by a wrapper inside the reporter, the modified rewards are
// tracked. Episodes still running when training stops are not tracked.
type Return struct {
	episodeData
}

// NewReturn creates and returns a new *Return Tracker which saves its
// data to filename
func NewReturn(filename string) *Return {
	return &Return{episodeData{
		filename: filename,
		extract:  func(ep env.EpisodeInfo) float64 { return ep.Return },
	}}
}
