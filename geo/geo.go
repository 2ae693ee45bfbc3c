package geo

import "math"

const earthRadiusM = 6371000

// Point - a WGS84 coordinate pair
type Point struct {
	Latitude  float64
	Longitude float64
}

// Haversine - great-circle distance between two points, in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLam := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLam/2)*math.Sin(dLam/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// SegmentMidpoints splits a way polyline into pieces of approximately
// segmentLengthM meters and returns the midpoint of each piece. Linear
// interpolation between nodes is good enough at sub-kilometer scale.
func SegmentMidpoints(coords []Point, segmentLengthM float64) []Point {
	var midpoints []Point
	for i := 0; i+1 < len(coords); i++ {
		a := coords[i]
		b := coords[i+1]

		distance := Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
		n := int(distance / segmentLengthM)
		if n < 1 {
			n = 1
		}

		for j := 0; j < n; j++ {
			t := (float64(j) + 0.5) / float64(n)
			midpoints = append(midpoints, Point{
				Latitude:  a.Latitude + t*(b.Latitude-a.Latitude),
				Longitude: a.Longitude + t*(b.Longitude-a.Longitude),
			})
		}
	}
	return midpoints
}
