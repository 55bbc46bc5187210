package httpapi

import (
	"net/http"

	geojson "github.com/paulmach/go.geojson"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/viz"
)

// FeatureCollection renders b as GeoJSON with one Point feature per marker.
func FeatureCollection(b core.RenderBundle) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, layer := range b.Layers {
		for _, m := range layer.Markers {
			f := geojson.NewPointFeature([]float64{m.Lon, m.Lat})
			f.ID = m.NodeID
			f.SetProperty("layer", string(layer.Name))
			f.SetProperty("time", b.Time)
			f.SetProperty("size", m.Size)
			f.SetProperty("color", m.Color.String())
			f.SetProperty("value", m.Value)
			if m.Opacity > 0 {
				f.SetProperty("opacity", m.Opacity)
			}
			if m.Symbol != "" {
				f.SetProperty("symbol", m.Symbol)
			}
			if m.Label != "" {
				f.SetProperty("label", m.Label)
			}
			if m.Class != "" {
				f.SetProperty("class", m.Class)
			}
			fc.AddFeature(f)
		}
	}
	return fc
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	t, err := intParam(r, "t", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	bundle, err := s.svc.Markers(r.Context(), viz.MarkersRequest{
		Snapshot:     q.Get("snapshot"),
		Timestep:     t,
		Selection:    optionalParam(r, "selection"),
		AgentScheme:  q.Get("agent"),
		HazardScheme: q.Get("hazard"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := FeatureCollection(bundle).MarshalJSON()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(body)
}
