// Package units provides shared constants and validation for display length
// units. Input radii are always centimetres.
package units

import (
	"fmt"
	"strings"
)

// Unit constants
const (
	MM = "mm"
	CM = "cm"
	M  = "m"
	IN = "in"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MM, CM, M, IN}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// FromCentimetres returns the factor that converts centimetres to unit.
func FromCentimetres(unit string) (float64, error) {
	switch unit {
	case MM:
		return 10, nil
	case CM:
		return 1, nil
	case M:
		return 0.01, nil
	case IN:
		return 1 / 2.54, nil
	default:
		return 0, fmt.Errorf("unknown length unit %q (valid: %s)", unit, GetValidUnitsString())
	}
}
