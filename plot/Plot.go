// Package plot renders learning curves as interactive HTML line charts
package plot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
)

// Series is a named sequence of values, one per episode
type Series struct {
	Name   string
	Values []float64
}

// MovingAverage returns the mean of each value and the window-1 values
// before it. The first window-1 values are averaged over fewer values.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}

	avg := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		avg[i] = stat.Mean(values[start:i+1], nil)
	}
	return avg
}

// LearningCurve writes an HTML line chart of the series to w. The x
// axis is the episode number, starting at 1.
func LearningCurve(w io.Writer, title string, series ...Series) error {
	if len(series) == 0 {
		return fmt.Errorf("learningCurve: no series to plot")
	}

	episodes := 0
	for _, s := range series {
		if len(s.Values) > episodes {
			episodes = len(s.Values)
		}
	}
	x := make([]int, episodes)
	for i := range x {
		x[i] = i + 1
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Episode"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	line.SetXAxis(x)

	for _, s := range series {
		items := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			items[i] = opts.LineData{Value: v}
		}
		line.AddSeries(s.Name, items)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("learningCurve: could not render: %v", err)
	}
	return nil
}

// SaveLearningCurve writes the chart of LearningCurve to filename,
// creating parent directories as needed
func SaveLearningCurve(filename, title string, series ...Series) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("saveLearningCurve: could not create directory: "+
			"%v", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("saveLearningCurve: could not create file: %v",
			err)
	}
	defer file.Close()

	if err := LearningCurve(file, title, series...); err != nil {
		return fmt.Errorf("saveLearningCurve: %v", err)
	}
	return file.Sync()
}
