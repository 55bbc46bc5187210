package core

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/hazardscope/model"
)

func TestDepthBandBoundaries(t *testing.T) {
	cases := []struct {
		depth float64
		band  int
	}{
		{0, BandAbsent},
		{0.01, 0},
		{1, 0},
		{1.0001, 1},
		{5, 1},
		{5.0001, 2},
		{10, 2},
		{10.5, 3},
		{15, 3},
		{15.0001, 4},
		{120, 4},
	}
	for _, tc := range cases {
		if got := DepthBand(tc.depth); got != tc.band {
			t.Fatalf("DepthBand(%v) = %d, want %d", tc.depth, got, tc.band)
		}
	}
}

func TestClassifyFlood(t *testing.T) {
	blue := floodShades["Blue"]

	absent, err := Classify(0, model.HazardFlood, "Blue")
	if err != nil {
		t.Fatalf("Classify(0): %v", err)
	}
	if absent.Visible() || absent.Color != blue[1] || absent.Label() != "absent" {
		t.Fatalf("absent class = %+v", absent)
	}

	deep, err := Classify(20, model.HazardFlood, "Blue")
	if err != nil {
		t.Fatalf("Classify(20): %v", err)
	}
	if deep.Band != 4 || deep.Size != HazardMarkerSize || deep.Color != blue[5] {
		t.Fatalf("deep class = %+v", deep)
	}

	shallow, _ := Classify(0.5, model.HazardFlood, "")
	if shallow.Band != 0 || shallow.Color != floodShades[DefaultFloodPalette][1] {
		t.Fatalf("default palette class = %+v", shallow)
	}
}

func TestClassifyZeroIsAbsentForEveryPalette(t *testing.T) {
	schemes := map[model.HazardType][]string{
		model.HazardFlood: append(HazardPalettes(), ""),
		model.HazardFire:  append(sortedKeys(fireShades), ""),
	}
	for hazard, names := range schemes {
		for _, scheme := range names {
			c, err := Classify(0, hazard, scheme)
			if err != nil {
				t.Fatalf("Classify(0, %s, %q): %v", hazard, scheme, err)
			}
			if c.Band != BandAbsent || c.Visible() {
				t.Fatalf("Classify(0, %s, %q) = %+v, want absent", hazard, scheme, c)
			}
		}
	}
}

func TestDepthBandIsMonotonic(t *testing.T) {
	prev := DepthBand(0.001)
	for depth := 0.001; depth <= 40; depth += 0.037 {
		band := DepthBand(depth)
		if band < prev {
			t.Fatalf("DepthBand(%v) = %d after band %d", depth, band, prev)
		}
		prev = band
	}
	if prev != 4 {
		t.Fatalf("deepest band = %d, want 4", prev)
	}

	for _, scheme := range HazardPalettes() {
		prevBand := -1
		for depth := 0.25; depth <= 40; depth += 0.25 {
			c, err := Classify(depth, model.HazardFlood, scheme)
			if err != nil {
				t.Fatalf("Classify(%v, %q): %v", depth, scheme, err)
			}
			if !c.Visible() || c.Band < prevBand {
				t.Fatalf("Classify(%v, %q) = %+v after band %d", depth, scheme, c, prevBand)
			}
			prevBand = c.Band
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for _, depth := range []float64{0, 0.3, 4.2, 9.9, 14, 33} {
		a, errA := Classify(depth, model.HazardFlood, "Blue")
		b, errB := Classify(depth, model.HazardFlood, "Blue")
		if errA != nil || errB != nil {
			t.Fatalf("Classify(%v) errors: %v, %v", depth, errA, errB)
		}
		if a != b {
			t.Fatalf("Classify(%v) not deterministic: %+v vs %+v", depth, a, b)
		}
	}
}

func TestClassifyFire(t *testing.T) {
	burning, err := Classify(0.2, model.HazardFire, "Yellow")
	if err != nil {
		t.Fatalf("Classify fire: %v", err)
	}
	if burning.Band != BandPresent || burning.Size != HazardMarkerSize || burning.Color != fireShades["Yellow"] {
		t.Fatalf("burning class = %+v", burning)
	}

	calm, _ := Classify(0, model.HazardFire, "Yellow")
	if calm.Visible() || calm.Color.String() != "rgba(255, 255, 255, 0.7)" {
		t.Fatalf("no-fire class = %+v", calm)
	}
}

func TestClassifyUnknownHazardIsNeutral(t *testing.T) {
	class, err := Classify(42, model.HazardUnknown, "NoSuchPalette")
	if err != nil {
		t.Fatalf("unknown hazard should not fail: %v", err)
	}
	if class.Band != BandNeutral || class.Size != NeutralMarkerSize || class.Color != neutralColor {
		t.Fatalf("neutral class = %+v", class)
	}
}

func TestClassifyUnknownPalette(t *testing.T) {
	for _, h := range []model.HazardType{model.HazardFlood, model.HazardFire} {
		_, err := Classify(3, h, "Purple")
		var upe *UnknownPaletteError
		if !errors.As(err, &upe) || upe.Kind != "hazard" || upe.Name != "Purple" {
			t.Fatalf("%s: err = %v, want *UnknownPaletteError", h, err)
		}
		if err := ValidateHazardPalette(h, "Purple"); err == nil {
			t.Fatalf("%s: ValidateHazardPalette accepted Purple", h)
		}
	}
}
