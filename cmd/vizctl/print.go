package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/viz"
)

type bundleStats struct {
	people      int
	occupied    int
	hazardNodes int
	trapped     int
}

func statsOf(b core.RenderBundle) bundleStats {
	var s bundleStats
	if l, ok := b.Layer(core.LayerPeople); ok {
		for _, m := range l.Markers {
			s.people += int(m.Value)
			if m.Value > 0 {
				s.occupied++
			}
		}
	}
	if l, ok := b.Layer(core.LayerHazard); ok {
		for _, m := range l.Markers {
			if m.Size > 0 && m.Class != "absent" {
				s.hazardNodes++
			}
		}
	}
	if l, ok := b.Layer(core.LayerTrapped); ok {
		s.trapped = len(l.Markers)
	}
	return s
}

func printBundle(w io.Writer, b core.RenderBundle) {
	fmt.Fprintf(w, "t=%d selection=%s hazard=%s agent_scale=%s\n", b.Time, b.Selection, b.HazardType, b.AgentScale)
	for _, l := range b.Layers {
		fmt.Fprintf(w, "  %-8s %s markers\n", l.Name, humanize.Comma(int64(len(l.Markers))))
	}
	s := statsOf(b)
	fmt.Fprintf(w, "  people on open nodes %s across %s nodes, %s hazard nodes, %s trapped\n",
		humanize.Comma(int64(s.people)), humanize.Comma(int64(s.occupied)),
		humanize.Comma(int64(s.hazardNodes)), humanize.Comma(int64(s.trapped)))
}

func printFrameLine(w io.Writer, b core.RenderBundle) {
	s := statsOf(b)
	fmt.Fprintf(w, "t=%-6d people=%-8s hazard_nodes=%-6s trapped=%s\n",
		b.Time, humanize.Comma(int64(s.people)), humanize.Comma(int64(s.hazardNodes)), humanize.Comma(int64(s.trapped)))
}

func printNodeSeries(w io.Writer, ns core.NodeSeries) {
	fmt.Fprintf(w, "Number of people at node %d:\n", ns.NodeID)
	for _, p := range ns.Occupancy {
		fmt.Fprintf(w, "  t=%-6d %s\n", p.Time, humanize.Comma(int64(p.Count)))
	}
	fmt.Fprintf(w, "Average panic level at node %d:\n", ns.NodeID)
	for _, p := range ns.Panic {
		fmt.Fprintf(w, "  t=%-6d %s\n", p.Time, humanize.FtoaWithDigits(p.Panic, 3))
	}
}

func printTimeline(w io.Writer, r viz.TimelineResponse) {
	v := r.View
	fmt.Fprintf(w, "%s (%s), centre %.4f,%.4f zoom %g\n", v.DisplayName, v.Hazard, v.Center.Lat, v.Center.Lon, v.Zoom)
	fmt.Fprintf(w, "timeline 0..%d step %d: %s grid steps, %s hazard columns\n",
		r.Slider.Max, r.Slider.Step, humanize.Comma(int64(len(r.Timesteps))), humanize.Comma(int64(len(r.HazardTimesteps))))
	for _, m := range r.Slider.Marks {
		if m.Label != "" {
			fmt.Fprintf(w, "  mark %d %q\n", m.Value, m.Label)
		}
	}
}
