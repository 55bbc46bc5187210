package core

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/signalsfoundry/hazardscope/model"
)

func layerNames(b RenderBundle) []LayerName {
	out := make([]LayerName, 0, len(b.Layers))
	for _, l := range b.Layers {
		out = append(out, l.Name)
	}
	return out
}

func TestParseSelection(t *testing.T) {
	cases := map[string]Selection{
		"both":     SelectBoth,
		"People":   SelectPeople,
		"disaster": SelectHazard,
		"hazard":   SelectHazard,
		"":         SelectNone,
		"anything": SelectNone,
	}
	for in, want := range cases {
		if got := ParseSelection(in); got != want {
			t.Fatalf("ParseSelection(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestComposeSelectionLayers(t *testing.T) {
	f := loadFixture(t)
	c := NewComposer(f.reg, f.log, model.HazardFlood)

	cases := []struct {
		sel  Selection
		want []LayerName
	}{
		{SelectBoth, []LayerName{LayerNodes, LayerPeople, LayerHazard, LayerTrapped}},
		{SelectPeople, []LayerName{LayerNodes, LayerPeople, LayerTrapped}},
		{SelectHazard, []LayerName{LayerNodes, LayerHazard, LayerTrapped}},
		{SelectNone, []LayerName{LayerNodes}},
	}
	for _, tc := range cases {
		b, err := c.Compose(context.Background(), 100, tc.sel, "", "")
		if err != nil {
			t.Fatalf("Compose(%s): %v", tc.sel, err)
		}
		if got := layerNames(b); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Compose(%s) layers = %v, want %v", tc.sel, got, tc.want)
		}
	}
}

func TestComposeLayerContents(t *testing.T) {
	f := loadFixture(t)
	c := NewComposer(f.reg, f.log, model.HazardFlood)

	b, err := c.Compose(context.Background(), 100, SelectBoth, "Reds", "Blue")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if b.Time != 100 || b.HazardType != model.HazardFlood || b.AgentScale != "Reds" {
		t.Fatalf("bundle header = %+v", b)
	}

	nodes, _ := b.Layer(LayerNodes)
	if len(nodes.Markers) != 3 || nodes.Markers[0].Label != "1" || nodes.Markers[0].Size != NodeMarkerSize {
		t.Fatalf("nodes layer = %+v", nodes.Markers)
	}

	people, _ := b.Layer(LayerPeople)
	if got := []float64{people.Markers[0].Value, people.Markers[1].Value, people.Markers[2].Value}; !reflect.DeepEqual(got, []float64{1, 0, 0}) {
		t.Fatalf("people values = %v, want impassable node zeroed", got)
	}
	if people.Markers[0].Size != 4 || people.Markers[1].Size != 0 {
		t.Fatalf("people sizes = %v, %v", people.Markers[0].Size, people.Markers[1].Size)
	}
	reds, _ := AgentScale("Reds")
	if people.Markers[0].Color != reds.At(1) || people.Markers[2].Color != reds.At(0) {
		t.Fatalf("people colours not scaled to min/max")
	}
	if people.Markers[0].Opacity != PeopleOpacity {
		t.Fatalf("people opacity = %v", people.Markers[0].Opacity)
	}

	hazard, _ := b.Layer(LayerHazard)
	wantClass := []string{"band0", "band1", "absent"}
	for i, m := range hazard.Markers {
		if m.Class != wantClass[i] {
			t.Fatalf("hazard marker %d class = %q, want %q", i, m.Class, wantClass[i])
		}
	}
	if hazard.Markers[2].Size != 0 {
		t.Fatalf("absent hazard marker should have size 0")
	}

	trapped, _ := b.Layer(LayerTrapped)
	if len(trapped.Markers) != 1 {
		t.Fatalf("trapped markers = %+v, want one", trapped.Markers)
	}
	tm := trapped.Markers[0]
	if tm.NodeID != 2 || tm.Symbol != TrappedSymbol || tm.Size != TrappedMarkerSize || tm.Color.String() != "#ffffff" {
		t.Fatalf("trapped marker = %+v", tm)
	}
}

func TestComposeSelectionDoesNotHideErrors(t *testing.T) {
	f := loadFixture(t)
	c := NewComposer(f.reg, f.log, model.HazardFlood)

	_, err := c.Compose(context.Background(), 300, SelectNone, "", "")
	var mce *MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatalf("missing hazard column err = %v, want *MissingColumnError", err)
	}

	_, err = c.Compose(context.Background(), 100, SelectNone, "Nope", "")
	var upe *UnknownPaletteError
	if !errors.As(err, &upe) || upe.Kind != "agent" {
		t.Fatalf("unknown agent palette err = %v", err)
	}

	_, err = c.Compose(context.Background(), 100, SelectPeople, "", "Nope")
	if !errors.As(err, &upe) || upe.Kind != "hazard" {
		t.Fatalf("unknown hazard palette err = %v", err)
	}
}

func TestComposeUnknownHazardTypeIsNeutral(t *testing.T) {
	f := loadFixture(t)
	c := NewComposer(f.reg, f.log, model.HazardUnknown)

	b, err := c.Compose(context.Background(), 300, SelectBoth, "", "")
	if err != nil {
		t.Fatalf("unknown hazard type should not fail: %v", err)
	}
	hazard, ok := b.Layer(LayerHazard)
	if !ok || len(hazard.Markers) != f.reg.Len() {
		t.Fatalf("hazard layer = %+v", hazard)
	}
	for _, m := range hazard.Markers {
		if m.Class != "neutral" || m.Size != NeutralMarkerSize {
			t.Fatalf("hazard marker = %+v, want neutral", m)
		}
	}
}

func TestPeopleMarkerSize(t *testing.T) {
	if PeopleMarkerSize(0) != 0 {
		t.Fatalf("size of empty node should be 0")
	}
	if got, want := PeopleMarkerSize(10), math.Pow(10, 0.45)*4; got != want {
		t.Fatalf("PeopleMarkerSize(10) = %v, want %v", got, want)
	}
}
