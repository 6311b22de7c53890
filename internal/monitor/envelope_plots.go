// Package monitor renders debug views of reverberation envelopes: an HTML
// line chart of the time series for one store cell, and a PNG heatmap of a
// full frequency-by-time matrix. Both are offline artifacts for eyeballing a
// run, not part of the export format.
package monitor

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/eigenverb"
)

// WriteEnvelopeChart renders the intensity time series of one store cell as
// an HTML line chart, one series per envelope frequency.
func WriteEnvelopeChart(c *eigenverb.Collection, azimuth, srcBeam, rcvBeam int, path string) error {
	env, err := c.Envelope(azimuth, srcBeam, rcvBeam)
	if err != nil {
		return err
	}

	times := c.TravelTimes().Values()
	xAxis := make([]string, len(times))
	for i, t := range times {
		xAxis[i] = fmt.Sprintf("%.2f", t)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Reverberation envelope az=%d src=%d rcv=%d", azimuth, srcBeam, rcvBeam),
			Subtitle: fmt.Sprintf("source=%d receiver=%d pulse=%gs",
				c.SourceID(), c.ReceiverID(), c.PulseLength()),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "two-way travel time (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "intensity"}),
	)

	line.SetXAxis(xAxis)
	for f := 0; f < c.Frequencies().Len(); f++ {
		series := make([]opts.LineData, len(times))
		for t := range times {
			series[t] = opts.LineData{Value: env.At(f, t)}
		}
		line.AddSeries(fmt.Sprintf("%.0f Hz", c.Frequencies().At(f)), series)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart %s: %w", path, err)
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		return fmt.Errorf("rendering chart %s: %w", path, err)
	}
	return nil
}

// envelopeGrid adapts one envelope matrix to the plotter.GridXYZ interface:
// columns are travel time, rows are frequency.
type envelopeGrid struct {
	c   *eigenverb.Collection
	env *mat.Dense
}

func (g envelopeGrid) Dims() (int, int)       { return g.c.TravelTimes().Len(), g.c.Frequencies().Len() }
func (g envelopeGrid) X(col int) float64      { return g.c.TravelTimes().At(col) }
func (g envelopeGrid) Y(row int) float64      { return g.c.Frequencies().At(row) }
func (g envelopeGrid) Z(col, row int) float64 { return g.env.At(row, col) }

// PlotEnvelopeGrid renders one store cell as a PNG heatmap: travel time on
// the X axis, frequency on the Y axis.
func PlotEnvelopeGrid(c *eigenverb.Collection, azimuth, srcBeam, rcvBeam int, path string) error {
	env, err := c.Envelope(azimuth, srcBeam, rcvBeam)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Envelope intensity az=%d src=%d rcv=%d", azimuth, srcBeam, rcvBeam)
	p.X.Label.Text = "two-way travel time (s)"
	p.Y.Label.Text = "frequency (Hz)"

	heat := plotter.NewHeatMap(envelopeGrid{c: c, env: env}, palette.Heat(64, 1))
	p.Add(heat)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving heatmap %s: %w", path, err)
	}
	return nil
}
