package recycler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/reclaimworks/assay-cli/pkg/geocode"
)

type fakeGeo struct {
	geocoded  geocode.Point
	places    []geocode.Place
	geocodes  int
	searchPt  geocode.Point
	searchRad int
}

func (f *fakeGeo) Geocode(_ context.Context, _ string) (*geocode.Point, error) {
	f.geocodes++
	p := f.geocoded
	return &p, nil
}

func (f *fakeGeo) NearbySearch(_ context.Context, origin geocode.Point, radiusMeters int, _ string) ([]geocode.Place, error) {
	f.searchPt = origin
	f.searchRad = radiusMeters
	return f.places, nil
}

func TestNearby(t *testing.T) {
	t.Parallel()

	places := []geocode.Place{
		{PlaceID: "far", Name: "City Recycling", Location: geocode.Point{Lat: 40.9, Lng: -74.2}},
		{PlaceID: "near", Name: "Battery Depot", Location: geocode.Point{Lat: 40.71, Lng: -74.01}},
	}

	t.Run("sorted by distance ascending", func(t *testing.T) {
		t.Parallel()
		geo := &fakeGeo{places: places}
		centers, err := NewFinder(geo).Nearby(context.Background(), Query{Lat: 40.7128, Lng: -74.006})
		require.NoError(t, err)
		require.Len(t, centers, 2)
		assert.Equal(t, "near", centers[0].ID)
		assert.Equal(t, "far", centers[1].ID)
		assert.Less(t, centers[0].DistanceMiles, centers[1].DistanceMiles)
		assert.Zero(t, geo.geocodes)
	})

	t.Run("geocodes address when no coordinates", func(t *testing.T) {
		t.Parallel()
		geo := &fakeGeo{geocoded: geocode.Point{Lat: 40.7128, Lng: -74.006}, places: places}
		_, err := NewFinder(geo).Nearby(context.Background(), Query{Address: "New York, NY"})
		require.NoError(t, err)
		assert.Equal(t, 1, geo.geocodes)
		assert.InDelta(t, 40.7128, geo.searchPt.Lat, 0.0001)
	})

	t.Run("default radius is 25 miles", func(t *testing.T) {
		t.Parallel()
		geo := &fakeGeo{places: nil}
		_, err := NewFinder(geo).Nearby(context.Background(), Query{Lat: 40.7, Lng: -74})
		require.NoError(t, err)
		miles := 25.0
		assert.Equal(t, int(miles*metersPerMile), geo.searchRad)
	})

	t.Run("type filter drops non-accepting centers", func(t *testing.T) {
		t.Parallel()
		geo := &fakeGeo{places: places}
		centers, err := NewFinder(geo).Nearby(context.Background(), Query{
			Lat: 40.7128, Lng: -74.006, TypeFilter: "battery",
		})
		require.NoError(t, err)
		require.Len(t, centers, 2)
		// "City Recycling" has no specialty hint so it accepts everything;
		// "Battery Depot" accepts batteries explicitly.
	})

	t.Run("type filter excludes specialists", func(t *testing.T) {
		t.Parallel()
		geo := &fakeGeo{places: []geocode.Place{
			{PlaceID: "b", Name: "Battery Depot", Location: geocode.Point{Lat: 40.71, Lng: -74.01}},
		}}
		centers, err := NewFinder(geo).Nearby(context.Background(), Query{
			Lat: 40.7128, Lng: -74.006, TypeFilter: "laptop",
		})
		require.NoError(t, err)
		assert.Empty(t, centers)
	})

	t.Run("no address and no coordinates", func(t *testing.T) {
		t.Parallel()
		_, err := NewFinder(&fakeGeo{}).Nearby(context.Background(), Query{})
		assert.Error(t, err)
	})
}

func TestDistanceMiles(t *testing.T) {
	t.Parallel()

	// New York to Los Angeles, roughly 2450 miles.
	nyc := geom.Coord{-74.006, 40.7128}
	la := geom.Coord{-118.2437, 34.0522}
	assert.InDelta(t, 2445, distanceMiles(nyc, la), 20)

	// Identical points.
	assert.InDelta(t, 0, distanceMiles(nyc, nyc), 0.0001)
}

func TestInferAcceptedTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want []string
	}{
		{"Battery Warehouse", []string{"battery"}},
		{"Computer & Phone Recycling", []string{"laptop", "smartphone"}},
		{"Ace Scrap Metal", []string{"pcb", "cable"}},
		{"Green Earth Recycling", []string{"laptop", "smartphone", "pcb", "battery", "cable", "other"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, inferAcceptedTypes(tt.name))
		})
	}
}
