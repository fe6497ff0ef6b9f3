package charts

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// File names written by Render, relative to the output directory.
const (
	DataFile      = "charts.json"
	HistogramFile = "holdings_histogram.png"
	BoxPlotFile   = "segment_boxplot.png"
	CDFFile       = "holdings_cdf.png"
	DensityFile   = "segment_density.png"
)

const (
	figureWidth  = 8 * vg.Inch
	figureHeight = 5 * vg.Inch
	markerRadius = 3
	boxHalfWidth = 0.3
	densityAlpha = 0x80
)

var palette = []color.NRGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

var (
	meanColor   = color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	medianColor = color.NRGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
)

func paletteColor(i int, alpha uint8) color.NRGBA {
	c := palette[i%len(palette)]
	c.A = alpha
	return c
}

// Render writes the chart data as JSON plus one PNG per figure into dir and
// returns the written paths. Pie shares are kept in the JSON only.
func (s *Service) Render(set ChartSet, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	written := make([]string, 0, 5)

	dataPath := filepath.Join(dir, DataFile)
	if err := writeJSON(dataPath, set); err != nil {
		return nil, err
	}
	written = append(written, dataPath)

	figures := []struct {
		name  string
		build func(ChartSet) (*plot.Plot, error)
	}{
		{HistogramFile, histogramPlot},
		{BoxPlotFile, boxPlot},
		{CDFFile, cdfPlot},
		{DensityFile, densityPlot},
	}

	for _, fig := range figures {
		p, err := fig.build(set)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s: %w", fig.name, err)
		}
		path := filepath.Join(dir, fig.name)
		if err := p.Save(figureWidth, figureHeight, path); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", fig.name, err)
		}
		written = append(written, path)
	}

	s.log.Info().Str("dir", dir).Int("files", len(written)).Msg("Rendered charts")
	return written, nil
}

func writeJSON(path string, set ChartSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("failed to encode chart data: %w", err)
	}
	return f.Close()
}

func histogramBins(h Histogram) []plotter.HistogramBin {
	bins := make([]plotter.HistogramBin, len(h.Counts))
	for i, c := range h.Counts {
		bins[i] = plotter.HistogramBin{Min: h.Edges[i], Max: h.Edges[i+1], Weight: c}
	}
	return bins
}

func verticalLine(x, top float64, c color.Color) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: top}})
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
	return line, nil
}

func histogramPlot(set ChartSet) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Holding distribution"
	if set.Title != "" {
		p.Title.Text = set.Title + ": holding distribution"
	}
	p.X.Label.Text = "log10(holding + 1)"
	p.Y.Label.Text = "Investors"

	h := &plotter.Histogram{
		Bins:      histogramBins(set.LogHistogram),
		FillColor: paletteColor(0, 0xb0),
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(h)

	top := 0.0
	for _, c := range set.LogHistogram.Counts {
		top = max(top, c)
	}

	meanLine, err := verticalLine(set.LogMean, top, meanColor)
	if err != nil {
		return nil, err
	}
	medianLine, err := verticalLine(set.LogMedian, top, medianColor)
	if err != nil {
		return nil, err
	}
	p.Add(meanLine, medianLine)
	p.Legend.Add(fmt.Sprintf("Mean %.2f", set.Mean), meanLine)
	p.Legend.Add(fmt.Sprintf("Median %.2f", set.Median), medianLine)
	p.Legend.Top = true

	return p, nil
}

// boxPlot draws precomputed Tukey boxes, one per segment, at x = 0, 1, ...
func boxPlot(set ChartSet) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Holdings by segment"
	p.Y.Label.Text = "Holding"

	names := make([]string, len(set.Boxes))
	for i, b := range set.Boxes {
		names[i] = b.Label
		x := float64(i)
		c := paletteColor(i, 0xff)

		box, err := plotter.NewPolygon(plotter.XYs{
			{X: x - boxHalfWidth, Y: b.Q1},
			{X: x + boxHalfWidth, Y: b.Q1},
			{X: x + boxHalfWidth, Y: b.Q3},
			{X: x - boxHalfWidth, Y: b.Q3},
		})
		if err != nil {
			return nil, err
		}
		box.Color = paletteColor(i, 0x60)
		box.LineStyle.Color = c

		segments := []plotter.XYs{
			{{X: x - boxHalfWidth, Y: b.Median}, {X: x + boxHalfWidth, Y: b.Median}},
			{{X: x, Y: b.Q3}, {X: x, Y: b.WhiskerHigh}},
			{{X: x, Y: b.Q1}, {X: x, Y: b.WhiskerLow}},
			{{X: x - boxHalfWidth/2, Y: b.WhiskerHigh}, {X: x + boxHalfWidth/2, Y: b.WhiskerHigh}},
			{{X: x - boxHalfWidth/2, Y: b.WhiskerLow}, {X: x + boxHalfWidth/2, Y: b.WhiskerLow}},
		}
		p.Add(box)
		for _, xys := range segments {
			line, err := plotter.NewLine(xys)
			if err != nil {
				return nil, err
			}
			line.LineStyle.Color = c
			p.Add(line)
		}
	}
	if len(names) > 0 {
		p.NominalX(names...)
	}
	return p, nil
}

func cdfPlot(set ChartSet) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Cumulative distribution of holdings"
	p.X.Label.Text = "Holding (log scale)"
	p.Y.Label.Text = "Cumulative investors (%)"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{}
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(set.CDF))
	for i, pt := range set.CDF {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = paletteColor(0, 0xff)
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)

	if len(set.CDFMarkers) > 0 {
		marks := make(plotter.XYs, len(set.CDFMarkers))
		for i, m := range set.CDFMarkers {
			marks[i] = plotter.XY{X: m.X, Y: m.Y}
		}
		scatter, err := plotter.NewScatter(marks)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Color = meanColor
		scatter.GlyphStyle.Radius = vg.Points(markerRadius)
		p.Add(scatter)
		for _, m := range set.CDFMarkers {
			p.Legend.Add(fmt.Sprintf("P%g: %.2f", m.Y, m.X))
		}
	}
	p.Legend.Top = false
	p.Legend.Left = false

	return p, nil
}

func densityPlot(set ChartSet) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Holding density by segment"
	p.X.Label.Text = "log10(holding + 1)"
	p.Y.Label.Text = "Density"

	for i, d := range set.Densities {
		h := &plotter.Histogram{
			Bins:      histogramBins(d),
			FillColor: paletteColor(i, densityAlpha),
			LineStyle: plotter.DefaultLineStyle,
		}
		h.LineStyle.Color = paletteColor(i, 0xff)
		p.Add(h)
		p.Legend.Add(d.Label, h)
	}
	p.Legend.Top = true
	return p, nil
}
