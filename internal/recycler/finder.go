// Package recycler locates e-waste recycling centers near a batch.
package recycler

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/reclaimworks/assay-cli/pkg/geocode"
)

// Center is one recycling facility candidate.
type Center struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	Rating        float64  `json:"rating,omitempty"`
	IsOpen        *bool    `json:"isOpen,omitempty"`
	AcceptedTypes []string `json:"acceptedTypes"`
	DistanceMiles float64  `json:"distanceMiles"`
}

// Query narrows a nearby search.
type Query struct {
	Address     string  // geocoded when Lat/Lng are zero
	Lat         float64
	Lng         float64
	RadiusMiles float64 // default 25
	TypeFilter  string  // keep only centers accepting this type
}

const (
	earthRadiusMiles   = 3958.8
	metersPerMile      = 1609.34
	defaultRadiusMiles = 25
)

// Finder searches for recycling centers via the geocoding client.
type Finder struct {
	geo geocode.Client
}

// NewFinder creates a Finder.
func NewFinder(geo geocode.Client) *Finder {
	return &Finder{geo: geo}
}

// Nearby returns candidate centers sorted by distance ascending.
func (f *Finder) Nearby(ctx context.Context, q Query) ([]Center, error) {
	origin := geom.Coord{q.Lng, q.Lat}
	if q.Lat == 0 && q.Lng == 0 {
		if q.Address == "" {
			return nil, eris.New("recycler: address or coordinates required")
		}
		pt, err := f.geo.Geocode(ctx, q.Address)
		if err != nil {
			return nil, eris.Wrap(err, "recycler: geocode origin")
		}
		origin = geom.Coord{pt.Lng, pt.Lat}
	}

	radius := q.RadiusMiles
	if radius <= 0 {
		radius = defaultRadiusMiles
	}

	places, err := f.geo.NearbySearch(ctx,
		geocode.Point{Lat: origin.Y(), Lng: origin.X()},
		int(radius*metersPerMile),
		"electronics recycling",
	)
	if err != nil {
		return nil, eris.Wrap(err, "recycler: nearby search")
	}

	centers := make([]Center, 0, len(places))
	for _, p := range places {
		accepted := inferAcceptedTypes(p.Name)
		if q.TypeFilter != "" && !contains(accepted, q.TypeFilter) {
			continue
		}
		centers = append(centers, Center{
			ID:            p.PlaceID,
			Name:          p.Name,
			Address:       p.Address,
			Lat:           p.Location.Lat,
			Lng:           p.Location.Lng,
			Rating:        p.Rating,
			IsOpen:        p.OpenNow,
			AcceptedTypes: accepted,
			DistanceMiles: distanceMiles(origin, geom.Coord{p.Location.Lng, p.Location.Lat}),
		})
	}

	sort.Slice(centers, func(i, j int) bool {
		return centers[i].DistanceMiles < centers[j].DistanceMiles
	})
	return centers, nil
}

// distanceMiles is the haversine great-circle distance between two
// lng/lat coordinates.
func distanceMiles(a, b geom.Coord) float64 {
	lat1 := a.Y() * math.Pi / 180
	lat2 := b.Y() * math.Pi / 180
	dLat := (b.Y() - a.Y()) * math.Pi / 180
	dLng := (b.X() - a.X()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// inferAcceptedTypes guesses what a facility takes from its name. Plain
// recyclers with no specialty hints accept everything.
func inferAcceptedTypes(name string) []string {
	lower := strings.ToLower(name)

	var types []string
	if strings.Contains(lower, "battery") || strings.Contains(lower, "batteries") {
		types = append(types, "battery")
	}
	if strings.Contains(lower, "computer") || strings.Contains(lower, "laptop") || strings.Contains(lower, "pc") {
		types = append(types, "laptop")
	}
	if strings.Contains(lower, "phone") || strings.Contains(lower, "mobile") {
		types = append(types, "smartphone")
	}
	if strings.Contains(lower, "scrap") || strings.Contains(lower, "metal") {
		types = append(types, "pcb", "cable")
	}
	if len(types) == 0 {
		types = []string{"laptop", "smartphone", "pcb", "battery", "cable", "other"}
	}
	return types
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
