package models

import (
	"math"
	"strconv"
	"strings"
)

// Typographic minus signs that show up in pasted coordinates.
var minusNormalizer = strings.NewReplacer(
	"‐", "-",
	"‑", "-",
	"‒", "-",
	"–", "-",
	"−", "-",
)

// ParseCoordinates parses a "lat,lng" pair. It never panics; anything that is
// not exactly two in-range finite numbers yields ok == false.
func ParseCoordinates(s string) (lat, lng float64, ok bool) {
	parts := strings.Split(minusNormalizer.Replace(s), ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

// ExtractLocations returns the map projection of every complaint that has
// usable coordinates, silently skipping the rest.
func ExtractLocations(complaints []Complaint) []ComplaintLocation {
	locations := make([]ComplaintLocation, 0, len(complaints))
	for i := range complaints {
		if loc, ok := complaints[i].Location(); ok {
			locations = append(locations, loc)
		}
	}
	return locations
}
