package model

import "strings"

// HazardType selects how hazard intensities are classified for rendering.
type HazardType string

const (
	HazardUnknown HazardType = ""
	HazardFlood   HazardType = "flood"
	HazardFire    HazardType = "fire"
)

// ParseHazardType maps a free-form tag onto a HazardType. Unrecognised tags
// map to HazardUnknown rather than failing so that partially configured
// scenarios still render.
func ParseHazardType(s string) HazardType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flood", "flooding":
		return HazardFlood
	case "fire", "wildfire":
		return HazardFire
	default:
		return HazardUnknown
	}
}

// Known reports whether the hazard type has a classification policy.
func (h HazardType) Known() bool {
	return h == HazardFlood || h == HazardFire
}

// DisplayName is the noun used in map headers.
func (h HazardType) DisplayName() string {
	switch h {
	case HazardFlood:
		return "flood"
	case HazardFire:
		return "wildfire"
	default:
		return "hazard"
	}
}
