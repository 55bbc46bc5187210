package core

import (
	"fmt"

	"github.com/signalsfoundry/hazardscope/model"
)

// MapHeader is the one-line caption shown above the map for a selection.
func MapHeader(loc model.Location, hazard model.HazardType, selection Selection) string {
	place, noun := loc.DisplayName, hazard.DisplayName()
	switch selection {
	case SelectBoth:
		return fmt.Sprintf("Map of %s, showing movement of the disaster and people in the event of a %s.", place, noun)
	case SelectPeople:
		return fmt.Sprintf("Map of %s, showing people's movement in the event of a %s.", place, noun)
	case SelectHazard:
		return fmt.Sprintf("Map of %s, showing disaster movement in the event of a %s", place, noun)
	default:
		return "Map of " + place
	}
}
