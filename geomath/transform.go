// Package geomath provides the geographic-to-Cartesian coordinate transforms
// shared by the globe renderer and the data layers.
//
// All geometry lives in unit-sphere space: the base globe mesh has radius 1.0
// and altitude is modeled as a radial offset scaled by [AltitudeScale].
package geomath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AltitudeScale converts a record's altitude value to a radial offset in
// unit-sphere space. An altitude of 1000 lifts a point 1.0 radius above
// the surface.
const AltitudeScale = 0.001

// LonLatToCartesian converts geographic coordinates (degrees) to Cartesian
// coordinates in a right-handed world space where +Y is the north pole and
// longitude 0 lies on the +X axis.
//
// The poles are a singularity: at lat = ±90° the longitude no longer
// contributes to the result.
func LonLatToCartesian(lonDeg, latDeg, altitude, radius float64) mgl64.Vec3 {
	lon := mgl64.DegToRad(lonDeg)
	lat := mgl64.DegToRad(latDeg)
	r := radius + altitude*AltitudeScale

	return mgl64.Vec3{
		r * math.Cos(lat) * math.Cos(lon),
		r * math.Sin(lat),
		r * math.Cos(lat) * math.Sin(lon),
	}
}

// CartesianToLonLat is the inverse of [LonLatToCartesian] for the given base
// radius. The radius is recovered from the Euclidean norm, so the result is
// undefined for the zero vector.
func CartesianToLonLat(p mgl64.Vec3, baseRadius float64) (lonDeg, latDeg, altitude float64) {
	r := p.Len()
	lonDeg = mgl64.RadToDeg(math.Atan2(p.Z(), p.X()))
	latDeg = mgl64.RadToDeg(math.Asin(p.Y() / r))
	altitude = (r - baseRadius) / AltitudeScale
	return lonDeg, latDeg, altitude
}
