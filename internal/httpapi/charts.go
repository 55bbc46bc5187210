package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/viz"
)

// Chart kinds for node history charts.
const (
	ChartOccupancy = "occupancy"
	ChartPanic     = "panic"
)

const (
	chartWidth  = 640
	chartHeight = 320
)

var (
	safeChartColor = drawing.ColorFromHex("a9bb95")
	nodeChartColor = drawing.ColorFromHex("fac1b7")
)

// SeriesChart describes one line chart over timesteps.
type SeriesChart struct {
	Title string
	YName string
	Color drawing.Color
	XMax  float64
	YMax  float64
	X     []float64
	Y     []float64
}

// SafeChart builds the safe-agent history chart up to t.
func SafeChart(points []core.CountPoint, t int) SeriesChart {
	c := SeriesChart{Title: "Number of people at safety:", YName: "People", Color: safeChartColor, XMax: float64(t)}
	for _, p := range points {
		c.X = append(c.X, float64(p.Time))
		c.Y = append(c.Y, float64(p.Count))
	}
	return c
}

// OccupancyChart builds the node occupancy chart up to t.
func OccupancyChart(ns core.NodeSeries, t int) SeriesChart {
	c := SeriesChart{Title: fmt.Sprintf("Number of people at node %d:", ns.NodeID), YName: "People", Color: nodeChartColor, XMax: float64(t)}
	for _, p := range ns.Occupancy {
		c.X = append(c.X, float64(p.Time))
		c.Y = append(c.Y, float64(p.Count))
	}
	return c
}

// PanicChart builds the node average panic chart up to t. Panic is bounded
// to [0,1] so the y-axis is fixed.
func PanicChart(ns core.NodeSeries, t int) SeriesChart {
	c := SeriesChart{Title: fmt.Sprintf("Average panic level at node %d:", ns.NodeID), YName: "Panic", Color: nodeChartColor, XMax: float64(t), YMax: 1}
	for _, p := range ns.Panic {
		c.X = append(c.X, float64(p.Time))
		c.Y = append(c.Y, p.Panic)
	}
	return c
}

// RenderPNG draws the chart. Axis ranges are explicit so single-point and
// flat series render.
func (c SeriesChart) RenderPNG() ([]byte, error) {
	xs, ys := c.X, c.Y
	switch len(xs) {
	case 0:
		xs, ys = []float64{0, c.XMax}, []float64{0, 0}
	case 1:
		xs, ys = []float64{xs[0], xs[0]}, []float64{ys[0], ys[0]}
	}

	xMax := c.XMax
	for _, x := range xs {
		xMax = max(xMax, x)
	}
	if xMax <= 0 {
		xMax = 1
	}
	yMax := c.YMax
	for _, y := range ys {
		yMax = max(yMax, y)
	}
	if yMax <= 0 {
		yMax = 1
	}

	ch := chart.Chart{
		Title:      c.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Time (s)", Range: &chart.ContinuousRange{Min: 0, Max: xMax}},
		YAxis:      chart.YAxis{Name: c.YName, Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    c.YName,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: c.Color,
					StrokeWidth: 2,
					FillColor:   c.Color.WithAlpha(96),
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart %q: %w", c.Title, err)
	}
	return buf.Bytes(), nil
}

func (s *Server) handleSafeChart(w http.ResponseWriter, r *http.Request) {
	t, err := intParam(r, "t", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.svc.SafeSeries(r.Context(), viz.SafeSeriesRequest{Snapshot: r.URL.Query().Get("snapshot"), Timestep: t})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeChart(w, r, SafeChart(resp.Points, t))
}

func (s *Server) handleNodeChart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: node id %q", errBadQuery, r.PathValue("id")))
		return
	}
	kind, ok := strings.CutSuffix(r.PathValue("kind"), ".png")
	if !ok || (kind != ChartOccupancy && kind != ChartPanic) {
		s.writeError(w, r, fmt.Errorf("%w: chart kind %q", errBadQuery, r.PathValue("kind")))
		return
	}
	t, err := intParam(r, "t", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ns, err := s.svc.NodeSeries(r.Context(), viz.NodeSeriesRequest{Snapshot: r.URL.Query().Get("snapshot"), NodeID: &id, Timestep: t})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if kind == ChartPanic {
		s.writeChart(w, r, PanicChart(ns, t))
		return
	}
	s.writeChart(w, r, OccupancyChart(ns, t))
}

func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, c SeriesChart) {
	png, err := c.RenderPNG()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
