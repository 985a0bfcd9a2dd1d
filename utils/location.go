package utils

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	earthRadiusKm = 6371.0

	// DefaultRadiusKm is used when a search does not specify a usable maxDistance
	DefaultRadiusKm = 10.0
)

// GeoPoint is a latitude/longitude pair in decimal degrees
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Locatable is anything that may carry coordinates and can be annotated with a distance
type Locatable interface {
	Coordinates() (lat, lon *float64)
	SetDistance(km *float64)
}

// CalculateDistance returns the haversine distance between two points in km,
// rounded to one decimal place
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := degreesToRadians(lat1)
	lat2Rad := degreesToRadians(lat2)
	deltaLat := degreesToRadians(lat2 - lat1)
	deltaLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return RoundTo1(earthRadiusKm * c)
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// RoundTo1 rounds v to one decimal place
func RoundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// FilterByDistance keeps the items within radiusKm of ref, annotated with their
// distance and sorted nearest first. Items missing either coordinate are dropped.
//
// A nil ref disables filtering: every item is returned in its original order
// with a nil distance.
func FilterByDistance[T Locatable](items []T, ref *GeoPoint, radiusKm float64) []T {
	if ref == nil {
		out := make([]T, len(items))
		copy(out, items)
		for _, item := range out {
			item.SetDistance(nil)
		}
		return out
	}

	if radiusKm <= 0 || math.IsNaN(radiusKm) {
		radiusKm = DefaultRadiusKm
	}

	type ranked struct {
		item T
		km   float64
	}
	matches := make([]ranked, 0, len(items))
	for _, item := range items {
		lat, lon := item.Coordinates()
		if lat == nil || lon == nil {
			continue
		}

		d := CalculateDistance(ref.Latitude, ref.Longitude, *lat, *lon)
		if d <= radiusKm {
			item.SetDistance(&d)
			matches = append(matches, ranked{item: item, km: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].km < matches[j].km
	})

	out := make([]T, len(matches))
	for i, m := range matches {
		out[i] = m.item
	}
	return out
}

// ParseRadius parses a maxDistance query value, falling back to DefaultRadiusKm
// for empty, malformed or non-positive input
func ParseRadius(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultRadiusKm
	}
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return DefaultRadiusKm
	}
	return r
}

// ParseGeoPoint builds a reference point from latitude/longitude query values.
// It returns nil, nil when either value is absent.
func ParseGeoPoint(rawLat, rawLon string) (*GeoPoint, error) {
	rawLat, rawLon = strings.TrimSpace(rawLat), strings.TrimSpace(rawLon)
	if rawLat == "" || rawLon == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, ErrInvalidCoordinates
	}
	return &GeoPoint{Latitude: lat, Longitude: lon}, nil
}
