package core

import "github.com/signalsfoundry/hazardscope/model"

// Band values outside the 0..4 depth range.
const (
	BandAbsent  = -1
	BandPresent = 5  // fire
	BandNeutral = -2 // no policy for the hazard type
)

// Marker sizes for the hazard layer.
const (
	HazardMarkerSize  = 70
	NeutralMarkerSize = 1.75
)

// Default hazard palettes per hazard type.
const (
	DefaultFloodPalette = "Blue"
	DefaultFirePalette  = "Red"
)

// HazardClass is the render class of one hazard reading.
type HazardClass struct {
	Band  int
	Size  float64
	Color Color
}

// Visible reports whether the class draws a marker.
func (c HazardClass) Visible() bool { return c.Size > 0 }

// Label is a short class name for rendering legends.
func (c HazardClass) Label() string {
	switch c.Band {
	case BandAbsent:
		return "absent"
	case BandNeutral:
		return "neutral"
	case BandPresent:
		return "present"
	case 0:
		return "band0"
	case 1:
		return "band1"
	case 2:
		return "band2"
	case 3:
		return "band3"
	default:
		return "band4"
	}
}

// Classify maps a raw hazard intensity onto a render class. It is pure.
//
// Flood depths cascade from the highest threshold down with strict
// comparisons, so a depth exactly on 1, 5, 10 or 15 falls in the lower band.
// A zero reading is absent. Fire readings are present when > 0. Hazard types
// without a policy yield the neutral marker and never fail; an unknown scheme
// for a known hazard type fails with *UnknownPaletteError.
func Classify(intensity float64, hazard model.HazardType, scheme string) (HazardClass, error) {
	switch hazard {
	case model.HazardFlood:
		if scheme == "" {
			scheme = DefaultFloodPalette
		}
		shades, ok := floodShades[scheme]
		if !ok {
			return HazardClass{}, &UnknownPaletteError{Kind: "hazard", Name: scheme}
		}
		band := DepthBand(intensity)
		if band == BandAbsent {
			return HazardClass{Band: BandAbsent, Size: 0, Color: shades[1]}, nil
		}
		return HazardClass{Band: band, Size: HazardMarkerSize, Color: shades[band+1]}, nil

	case model.HazardFire:
		if scheme == "" {
			scheme = DefaultFirePalette
		}
		shade, ok := fireShades[scheme]
		if !ok {
			return HazardClass{}, &UnknownPaletteError{Kind: "hazard", Name: scheme}
		}
		if intensity > 0 {
			return HazardClass{Band: BandPresent, Size: HazardMarkerSize, Color: shade}, nil
		}
		return HazardClass{Band: BandAbsent, Size: 0, Color: noFireColor}, nil

	default:
		return HazardClass{Band: BandNeutral, Size: NeutralMarkerSize, Color: neutralColor}, nil
	}
}

// DepthBand is the flood depth cascade: 0 for (0,1], 1 for (1,5], 2 for
// (5,10], 3 for (10,15], 4 above 15 and BandAbsent for a zero depth.
func DepthBand(depth float64) int {
	switch {
	case depth == 0:
		return BandAbsent
	case depth > 15:
		return 4
	case depth > 10:
		return 3
	case depth > 5:
		return 2
	case depth > 1:
		return 1
	default:
		return 0
	}
}

// ValidateHazardPalette checks scheme against the palettes for hazard.
func ValidateHazardPalette(hazard model.HazardType, scheme string) error {
	_, err := Classify(0, hazard, scheme)
	return err
}
