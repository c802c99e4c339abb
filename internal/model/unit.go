package model

import "strings"

// ParseUnit coerces free-text units from parsed inventory into the closed
// unit set. Anything unrecognized counts pieces.
func ParseUnit(s string) Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kg", "kgs", "kilogram", "kilograms":
		return UnitKg
	case "t", "ton", "tons", "tonne", "tonnes":
		return UnitTons
	default:
		return UnitCount
	}
}
