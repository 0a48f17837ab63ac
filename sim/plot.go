package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Labels contains plot title and axis labels
type Labels struct {
	Title string
	X     string
	Y     string
}

// NewPlot creates new plot of the simulation from the three data sources:
// truth:   true system values
// measure: measurement values
// filter:  filter values
// Each data source stores one point per row: X in the first column and Y in the second one.
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * either of the supplied data matrices is nil
// * either of the supplied data matrices does not have at least 2 columns
// * gonum plot fails to be created
func NewPlot(l Labels, truth, measure, filter *mat.Dense) (*plot.Plot, error) {
	if truth == nil || measure == nil || filter == nil {
		return nil, fmt.Errorf("invalid data supplied")
	}

	for _, m := range []*mat.Dense{truth, measure, filter} {
		if _, c := m.Dims(); c < 2 {
			return nil, fmt.Errorf("invalid data dimensions: %d columns", c)
		}
	}

	p := plot.New()

	p.Title.Text = l.Title
	p.X.Label.Text = l.X
	p.Y.Label.Text = l.Y

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	// true values are drawn as a solid line
	truthLine, err := plotter.NewLine(makePoints(truth))
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %w", err)
	}
	truthLine.LineStyle.Color = color.RGBA{B: 255, A: 255}
	truthLine.LineStyle.Width = vg.Points(1.5)

	p.Add(truthLine)
	p.Legend.Add("truth", truthLine)

	// measurements are scattered
	measScatter, err := plotter.NewScatter(makePoints(measure))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %w", err)
	}
	measScatter.GlyphStyle.Color = color.RGBA{G: 200, A: 128}
	measScatter.GlyphStyle.Radius = vg.Points(2)

	p.Add(measScatter)
	p.Legend.Add("measurement", measScatter)

	// filter estimates are drawn as a dashed line with crosses
	filterLine, filterPoints, err := plotter.NewLinePoints(makePoints(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to create line points: %w", err)
	}
	filterLine.LineStyle.Color = color.RGBA{R: 255, A: 255}
	filterLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	filterPoints.Shape = draw.CrossGlyph{}
	filterPoints.Color = color.RGBA{R: 255, A: 255}
	filterPoints.Radius = vg.Points(3)

	p.Add(filterLine, filterPoints)
	p.Legend.Add("filtered", filterLine, filterPoints)

	return p, nil
}

// Series is a named data series.
// Data stores one point per row: X in the first column and Y in the second one.
type Series struct {
	Name string
	Data *mat.Dense
}

// NewComparisonPlot creates a plot which overlays several named series, e.g. estimates
// of filters run with different noise settings, or a gain trace.
// truth and measure are drawn first when they are not nil.
// It returns error if no series is given or if any of the data matrices has less than 2 columns.
func NewComparisonPlot(l Labels, truth, measure *mat.Dense, series ...Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no data series supplied")
	}

	for _, m := range []*mat.Dense{truth, measure} {
		if m == nil {
			continue
		}
		if _, c := m.Dims(); c < 2 {
			return nil, fmt.Errorf("invalid data dimensions: %d columns", c)
		}
	}

	for _, s := range series {
		if s.Data == nil {
			return nil, fmt.Errorf("invalid data supplied for series %q", s.Name)
		}
		if _, c := s.Data.Dims(); c < 2 {
			return nil, fmt.Errorf("invalid data dimensions of series %q: %d columns", s.Name, c)
		}
	}

	p := plot.New()

	p.Title.Text = l.Title
	p.X.Label.Text = l.X
	p.Y.Label.Text = l.Y
	p.Add(plotter.NewGrid())

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	if truth != nil {
		truthLine, err := plotter.NewLine(makePoints(truth))
		if err != nil {
			return nil, fmt.Errorf("failed to create line: %w", err)
		}
		truthLine.LineStyle.Color = color.RGBA{G: 160, A: 255}
		truthLine.LineStyle.Width = vg.Points(2)

		p.Add(truthLine)
		p.Legend.Add("truth", truthLine)
	}

	if measure != nil {
		measScatter, err := plotter.NewScatter(makePoints(measure))
		if err != nil {
			return nil, fmt.Errorf("failed to create scatter: %w", err)
		}
		measScatter.GlyphStyle.Color = color.RGBA{R: 255, A: 128}
		measScatter.GlyphStyle.Shape = draw.CrossGlyph{}
		measScatter.GlyphStyle.Radius = vg.Points(3)

		p.Add(measScatter)
		p.Legend.Add("measurement", measScatter)
	}

	for i, s := range series {
		line, points, err := plotter.NewLinePoints(makePoints(s.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to create line points for %q: %w", s.Name, err)
		}
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Dashes = plotutil.Dashes(i)
		line.LineStyle.Width = vg.Points(1.5)
		points.Shape = plotutil.Shape(i)
		points.Color = plotutil.Color(i)

		p.Add(line, points)
		p.Legend.Add(s.Name, line, points)
	}

	return p, nil
}

func makePoints(m *mat.Dense) plotter.XYs {
	r, _ := m.Dims()
	pts := make(plotter.XYs, r)
	for i := 0; i < r; i++ {
		pts[i].X = m.At(i, 0)
		pts[i].Y = m.At(i, 1)
	}

	return pts
}
