package tracks

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Geometry is the map-facing shape of a parsed track.
type Geometry struct {
	Bound        orb.Bound `json:"bound"`
	LengthMeters float64   `json:"length_m"`
	Points       int       `json:"points"`
}

// LineString converts coordinates to an orb line in lon/lat order.
func LineString(coords []Coordinate) orb.LineString {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point{c.Longitude, c.Latitude})
	}
	return ls
}

// GeometryOf computes the bounding box and haversine length of a track.
// An empty track has a zero Geometry.
func GeometryOf(coords []Coordinate) Geometry {
	if len(coords) == 0 {
		return Geometry{}
	}

	ls := LineString(coords)
	length := 0.0
	for i := 1; i < len(ls); i++ {
		length += geo.DistanceHaversine(ls[i-1], ls[i])
	}

	return Geometry{
		Bound:        ls.Bound(),
		LengthMeters: length,
		Points:       len(ls),
	}
}
