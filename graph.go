// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package webotron

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const maxticks = 40
const maxlabels = 8
const goodCutoff = 90
const badCutoff = 60
const yticknum = 20

type labelCount struct {
	name  string
	count int
}

// createLine creates a horizontal line with a particular y value for
// a graph
func createLine(name string, xvalues []float64, y float64, c drawing.Color) chart.ContinuousSeries {
	var yvalues []float64
	for range xvalues {
		yvalues = append(yvalues, y)
	}
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xvalues,
		YValues: yvalues,
		Style: chart.Style{
			StrokeColor:     c,
			StrokeDashArray: []float64{5.0, 5.0},
		},
	}
}

// TopLabels returns the names of the n most frequently found labels,
// most frequent first, with ties broken alphabetically.
func TopLabels(labels []Label, n int) []string {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l.Name]++
	}
	var lc []labelCount
	for name, c := range counts {
		lc = append(lc, labelCount{name, c})
	}
	sort.Slice(lc, func(i, j int) bool {
		if lc[i].count != lc[j].count {
			return lc[i].count > lc[j].count
		}
		return lc[i].name < lc[j].name
	})
	var names []string
	for i := 0; i < len(lc) && i < n; i++ {
		names = append(names, lc[i].name)
	}
	return names
}

// LabelGraph creates a graph of the confidence of the most common
// labels found in a video, over the course of the video
func LabelGraph(labels []Label, title string, w io.Writer) error {
	top := TopLabels(labels, maxlabels)
	times := make(map[int64]bool)
	for _, l := range labels {
		times[l.Timestamp] = true
	}
	if len(times) < 2 {
		return errors.New("Not enough labels at different times")
	}

	sorted := make([]Label, len(labels))
	copy(sorted, labels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	graph := chart.Chart{
		Title:  title,
		Width:  1920,
		Height: 1080,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: chart.YAxis{
			Name: "Confidence",
			Range: &chart.ContinuousRange{
				Min: 0.0,
				Max: 100.0,
			},
		},
	}

	var allx []float64
	for i, name := range top {
		var xvalues, yvalues []float64
		for _, l := range sorted {
			if l.Name != name {
				continue
			}
			xvalues = append(xvalues, float64(l.Timestamp)/1000)
			yvalues = append(yvalues, l.Confidence)
		}
		c := chart.GetDefaultColor(i)
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name: name,
			Style: chart.Style{
				StrokeColor: c,
				DotColor:    c,
				DotWidth:    3,
			},
			XValues: xvalues,
			YValues: yvalues,
		})
	}

	// Ticks every so often along the whole video
	for _, l := range sorted {
		x := float64(l.Timestamp) / 1000
		if len(allx) == 0 || allx[len(allx)-1] != x {
			allx = append(allx, x)
		}
	}
	tickevery := len(allx) / maxticks
	if tickevery < 1 {
		tickevery = 1
	}
	var ticks, yticks []chart.Tick
	for i, x := range allx {
		if i%tickevery == 0 {
			ticks = append(ticks, chart.Tick{Value: x, Label: fmt.Sprintf("%.1f", x)})
		}
	}
	last := allx[len(allx)-1]
	ticks[len(ticks)-1] = chart.Tick{Value: last, Label: fmt.Sprintf("%.1f", last)}
	for i := 0; i <= yticknum; i++ {
		n := float64(i*100) / yticknum
		yticks = append(yticks, chart.Tick{Value: n, Label: fmt.Sprintf("%.0f", n)})
	}
	graph.XAxis = chart.XAxis{
		Name:  "Seconds",
		Range: &chart.ContinuousRange{Min: allx[0], Max: last},
		Ticks: ticks,
	}
	graph.YAxis.Ticks = yticks

	graph.Series = append(graph.Series,
		createLine(fmt.Sprintf("%d%%", goodCutoff), allx, goodCutoff, chart.ColorAlternateGreen),
		createLine(fmt.Sprintf("%d%%", badCutoff), allx, badCutoff, chart.ColorRed))
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	return graph.Render(chart.PNG, w)
}
