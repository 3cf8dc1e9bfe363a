package tracks

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestGeometryOf(t *testing.T) {
	assert.Equal(t, Geometry{}, GeometryOf(nil))

	coords := []Coordinate{
		{Timestamp: 1, Latitude: 0, Longitude: 0},
		{Timestamp: 2, Latitude: 0, Longitude: 1},
		{Timestamp: 3, Latitude: 1, Longitude: 1},
	}
	g := GeometryOf(coords)

	assert.Equal(t, 3, g.Points)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, g.Bound)
	// two one-degree legs near the equator, ~111 km each
	assert.InDelta(t, 2*111_195.0, g.LengthMeters, 500)
}

func TestLineString_LonLatOrder(t *testing.T) {
	ls := LineString([]Coordinate{{Latitude: 56.9, Longitude: 24.1}})
	assert.Equal(t, orb.LineString{{24.1, 56.9}}, ls)
}
