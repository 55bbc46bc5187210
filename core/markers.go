package core

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/kb"
	"github.com/signalsfoundry/hazardscope/model"
)

// Selection picks which layers a RenderBundle carries.
type Selection string

const (
	SelectBoth   Selection = "both"
	SelectPeople Selection = "people"
	SelectHazard Selection = "hazard"
	SelectNone   Selection = "none"
)

// ParseSelection maps a selection string onto a Selection. "disaster" is
// accepted for SelectHazard. Empty or unrecognised values select only the
// base node layer.
func ParseSelection(s string) Selection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both":
		return SelectBoth
	case "people", "people-only":
		return SelectPeople
	case "hazard", "hazard-only", "disaster":
		return SelectHazard
	default:
		return SelectNone
	}
}

// LayerName identifies a RenderBundle layer.
type LayerName string

const (
	LayerNodes   LayerName = "nodes"
	LayerPeople  LayerName = "people"
	LayerHazard  LayerName = "hazard"
	LayerTrapped LayerName = "trapped"
)

// Layers returns the layers included for s, in draw order.
func (s Selection) Layers() []LayerName {
	switch s {
	case SelectBoth:
		return []LayerName{LayerNodes, LayerPeople, LayerHazard, LayerTrapped}
	case SelectPeople:
		return []LayerName{LayerNodes, LayerPeople, LayerTrapped}
	case SelectHazard:
		return []LayerName{LayerNodes, LayerHazard, LayerTrapped}
	default:
		return []LayerName{LayerNodes}
	}
}

// Fixed marker styling.
const (
	NodeMarkerSize    = 1.75
	PeopleOpacity     = 0.8
	TrappedMarkerSize = 10
	TrappedSymbol     = "hospital"

	peopleSizeExponent = 0.45
	peopleSizeScale    = 4
)

// Marker is one renderable point.
type Marker struct {
	NodeID  int     `json:"node_id"`
	Lon     float64 `json:"lon"`
	Lat     float64 `json:"lat"`
	Size    float64 `json:"size"`
	Color   Color   `json:"color"`
	Opacity float64 `json:"opacity,omitempty"`
	Symbol  string  `json:"symbol,omitempty"`
	Label   string  `json:"label,omitempty"`
	Class   string  `json:"class,omitempty"`
	Value   float64 `json:"value"`
}

// Layer is a named group of markers.
type Layer struct {
	Name    LayerName `json:"name"`
	Markers []Marker  `json:"markers"`
}

// RenderBundle is everything the map needs for one timestep.
type RenderBundle struct {
	Time       int              `json:"time"`
	Selection  Selection        `json:"selection"`
	HazardType model.HazardType `json:"hazard_type"`
	AgentScale string           `json:"agent_scale"`
	Layers     []Layer          `json:"layers"`
}

// Layer returns the named layer if the bundle carries it.
func (b RenderBundle) Layer(name LayerName) (Layer, bool) {
	for _, l := range b.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// PeopleMarkerSize is the sub-linear size transform for occupancy counts.
func PeopleMarkerSize(count int) float64 {
	if count <= 0 {
		return 0
	}
	return math.Pow(float64(count), peopleSizeExponent) * peopleSizeScale
}

// Composer assembles RenderBundles from a reconstructor and the hazard log.
type Composer struct {
	reg    *kb.Registry
	log    *EventLog
	state  *Reconstructor
	hazard model.HazardType
	logger logging.Logger
}

// ComposerOption customises Composer construction.
type ComposerOption func(*Composer)

// WithComposerLogger attaches a logger used for non-fatal warnings.
func WithComposerLogger(l logging.Logger) ComposerOption {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewComposer binds a composer to one scenario's data and hazard type.
func NewComposer(reg *kb.Registry, log *EventLog, hazard model.HazardType, opts ...ComposerOption) *Composer {
	c := &Composer{
		reg:    reg,
		log:    log,
		state:  NewReconstructor(reg, log),
		hazard: hazard,
		logger: logging.Noop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Compose builds the bundle for timestep t. All layers are computed for
// every call; selection only decides which are emitted. Unknown palette
// names fail with *UnknownPaletteError and a missing hazard column with
// *MissingColumnError. A scenario without a hazard policy renders neutral
// hazard markers and logs a warning.
func (c *Composer) Compose(ctx context.Context, t int, selection Selection, agentScheme, hazardScheme string) (RenderBundle, error) {
	scale, err := AgentScale(agentScheme)
	if err != nil {
		return RenderBundle{}, err
	}
	if err := ValidateHazardPalette(c.hazard, hazardScheme); err != nil {
		return RenderBundle{}, err
	}

	var intensities map[int]float64
	if c.hazard.Known() {
		if intensities, err = c.log.HazardAt(t); err != nil {
			return RenderBundle{}, err
		}
	} else {
		c.logger.Warn(ctx, "no hazard policy for scenario; rendering neutral hazard markers",
			logging.String("hazard_type", string(c.hazard)),
			logging.Err(ErrUnknownHazardType),
		)
	}

	derived := c.state.Reconstruct(t)
	layers := map[LayerName]Layer{
		LayerNodes:   c.nodeLayer(),
		LayerPeople:  c.peopleLayer(derived, scale),
		LayerTrapped: c.trappedLayer(derived),
	}
	if layers[LayerHazard], err = c.hazardLayer(intensities, hazardScheme); err != nil {
		return RenderBundle{}, err
	}

	bundle := RenderBundle{
		Time:       t,
		Selection:  selection,
		HazardType: c.hazard,
		AgentScale: scale.Name,
	}
	for _, name := range selection.Layers() {
		bundle.Layers = append(bundle.Layers, layers[name])
	}
	return bundle, nil
}

func (c *Composer) nodeLayer() Layer {
	markers := make([]Marker, 0, c.reg.Len())
	c.reg.Each(func(_ int, n model.Node) {
		markers = append(markers, Marker{
			NodeID: n.ID,
			Lon:    n.Lon,
			Lat:    n.Lat,
			Size:   NodeMarkerSize,
			Color:  nodeColor,
			Label:  strconv.Itoa(n.ID),
		})
	})
	return Layer{Name: LayerNodes, Markers: markers}
}

// peopleLayer draws occupancy per node. Impassable nodes are drawn empty;
// agents caught there are shown by the trapped overlay instead.
func (c *Composer) peopleLayer(d DerivedState, scale ColorScale) Layer {
	values := make([]int, 0, c.reg.Len())
	lo, hi := math.MaxInt, math.MinInt
	c.reg.Each(func(_ int, n model.Node) {
		v := d.Occupancy[n.ID]
		if d.Impassable.Has(n.ID) {
			v = 0
		}
		values = append(values, v)
		lo = min(lo, v)
		hi = max(hi, v)
	})

	markers := make([]Marker, 0, len(values))
	c.reg.Each(func(i int, n model.Node) {
		v := values[i]
		pos := 0.0
		if hi > lo {
			pos = float64(v-lo) / float64(hi-lo)
		}
		markers = append(markers, Marker{
			NodeID:  n.ID,
			Lon:     n.Lon,
			Lat:     n.Lat,
			Size:    PeopleMarkerSize(v),
			Color:   scale.At(pos),
			Opacity: PeopleOpacity,
			Value:   float64(v),
		})
	})
	return Layer{Name: LayerPeople, Markers: markers}
}

func (c *Composer) hazardLayer(intensities map[int]float64, scheme string) (Layer, error) {
	markers := make([]Marker, 0, c.reg.Len())
	var err error
	c.reg.Each(func(_ int, n model.Node) {
		if err != nil {
			return
		}
		v := intensities[n.ID]
		class, cerr := Classify(v, c.hazard, scheme)
		if cerr != nil {
			err = cerr
			return
		}
		markers = append(markers, Marker{
			NodeID: n.ID,
			Lon:    n.Lon,
			Lat:    n.Lat,
			Size:   class.Size,
			Color:  class.Color,
			Class:  class.Label(),
			Value:  v,
		})
	})
	if err != nil {
		return Layer{}, err
	}
	return Layer{Name: LayerHazard, Markers: markers}, nil
}

func (c *Composer) trappedLayer(d DerivedState) Layer {
	markers := make([]Marker, 0, len(d.Trapped))
	c.reg.Each(func(_ int, n model.Node) {
		if !d.Trapped.Has(n.ID) {
			return
		}
		markers = append(markers, Marker{
			NodeID: n.ID,
			Lon:    n.Lon,
			Lat:    n.Lat,
			Size:   TrappedMarkerSize,
			Color:  trappedColor,
			Symbol: TrappedSymbol,
			Value:  float64(d.Occupancy[n.ID]),
		})
	})
	return Layer{Name: LayerTrapped, Markers: markers}
}
