package viz

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/snapshot"
	"github.com/signalsfoundry/hazardscope/timectrl"
)

// DefaultSelection applies when a request carries no selection field.
const DefaultSelection = core.SelectBoth

// MarkersRequest asks for the RenderBundle at one timestep.
type MarkersRequest struct {
	Snapshot     string  `json:"snapshot,omitempty"`
	Timestep     int     `json:"timestep"`
	Selection    *string `json:"selection,omitempty"`
	AgentScheme  string  `json:"agent_scheme,omitempty"`
	HazardScheme string  `json:"hazard_scheme,omitempty"`
}

// FramesRequest asks for RenderBundles at several timesteps.
type FramesRequest struct {
	Snapshot     string  `json:"snapshot,omitempty"`
	Timesteps    []int   `json:"timesteps"`
	Selection    *string `json:"selection,omitempty"`
	AgentScheme  string  `json:"agent_scheme,omitempty"`
	HazardScheme string  `json:"hazard_scheme,omitempty"`
}

// FramesResponse holds bundles in request order.
type FramesResponse struct {
	Frames []core.RenderBundle `json:"frames"`
}

// HeaderRequest asks for the map caption.
type HeaderRequest struct {
	Snapshot  string  `json:"snapshot,omitempty"`
	Selection *string `json:"selection,omitempty"`
}

// HeaderResponse carries the map caption.
type HeaderResponse struct {
	Header string `json:"header"`
}

// SafeSeriesRequest asks for the safe-agent series up to a timestep.
type SafeSeriesRequest struct {
	Snapshot string `json:"snapshot,omitempty"`
	Timestep int    `json:"timestep"`
}

// SafeSeriesResponse carries the safe-agent series.
type SafeSeriesResponse struct {
	Points []core.CountPoint `json:"points"`
}

// NodeSeriesRequest asks for one node's histories up to a timestep.
type NodeSeriesRequest struct {
	Snapshot string `json:"snapshot,omitempty"`
	NodeID   *int   `json:"node_id,omitempty"`
	Timestep int    `json:"timestep"`
}

// TimelineRequest asks for the slider and map view.
type TimelineRequest struct {
	Snapshot string `json:"snapshot,omitempty"`
}

// TimelineResponse describes the timeline and initial camera.
type TimelineResponse struct {
	Slider          timectrl.Slider `json:"slider"`
	View            snapshot.View   `json:"view"`
	Timesteps       []int           `json:"timesteps"`
	HazardTimesteps []int           `json:"hazard_timesteps"`
}

// ReloadRequest asks the server to reload a slot from its loader.
type ReloadRequest struct {
	Snapshot string `json:"snapshot,omitempty"`
}

// ReloadResponse describes the newly published snapshot.
type ReloadResponse struct {
	Snapshot snapshot.Summary `json:"snapshot"`
}

func selectionOrDefault(s *string) core.Selection {
	if s == nil {
		return DefaultSelection
	}
	return core.ParseSelection(*s)
}

func slotOrDefault(s string) string {
	if s == "" {
		return snapshot.SlotPreloaded
	}
	return s
}

// EncodeStruct converts v to a Struct via its JSON form.
func EncodeStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return out, nil
}

// DecodeStruct fills v from s. Unknown fields are rejected.
func DecodeStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	b, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}
