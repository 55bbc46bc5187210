package model

import "strings"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location describes a study area the upstream simulator ships data for.
type Location struct {
	Key         string
	DisplayName string
	Hazard      HazardType
	Center      Coordinates
	Zoom        float64
}

var locations = map[string]Location{
	"oroville": {
		Key:         "oroville",
		DisplayName: "Oroville, CA, USA",
		Hazard:      HazardFlood,
		Center:      Coordinates{Lat: 39.5, Lon: -121.59},
		Zoom:        11.1,
	},
	"mosul": {
		Key:         "mosul",
		DisplayName: "Mosul, Iraq",
		Hazard:      HazardFlood,
		Center:      Coordinates{Lat: 36.3566, Lon: 43.164},
		Zoom:        11,
	},
	"santamaria": {
		Key:         "santamaria",
		DisplayName: "Santa Maria, CA, USA",
		Hazard:      HazardFire,
		Center:      Coordinates{Lat: 34.9353, Lon: -120.438626},
		Zoom:        11.15,
	},
}

// LookupLocation returns the known location for key (case-insensitive). The
// boolean is false for unknown keys, in which case a world view carrying the
// raw key as its display name is returned.
func LookupLocation(key string) (Location, bool) {
	norm := strings.ToLower(strings.TrimSpace(key))
	if loc, ok := locations[norm]; ok {
		return loc, true
	}
	name := strings.TrimSpace(key)
	if name == "" {
		name = "unknown location"
	}
	return Location{
		Key:         norm,
		DisplayName: name,
		Hazard:      HazardUnknown,
		Center:      Coordinates{Lat: 15, Lon: 0},
		Zoom:        0.6,
	}, false
}
