package texture

import "math"

// Default dimensions of the procedural earth texture. Equirectangular 2:1
// so longitude maps linearly to u and latitude to v.
const (
	defaultEarthWidth  = 512
	defaultEarthHeight = 256
)

// generateEarthRGBA builds the procedural fallback earth texture: a
// multi-frequency sinusoidal land mask over a latitude-shaded ocean, with
// ice caps near the poles. Deterministic for a given size.
func generateEarthRGBA(w, h int) []byte {
	pixels := make([]byte, w*h*4)

	for y := 0; y < h; y++ {
		// v in [0,1], latitude in [-90,90] with 0 at the equator.
		v := float64(y) / float64(h-1)
		lat := (0.5 - v) * math.Pi

		for x := 0; x < w; x++ {
			u := float64(x) / float64(w-1)
			lon := (u - 0.5) * 2 * math.Pi

			var r, g, b uint8
			switch {
			case math.Abs(lat) > 1.25:
				// Polar ice.
				r, g, b = 235, 240, 245
			case landMask(lon, lat) > 0.3:
				// Land, darker toward high latitudes.
				shade := 1.0 - 0.4*math.Abs(lat)/(math.Pi/2)
				r = uint8(90 * shade)
				g = uint8(140 * shade)
				b = uint8(70 * shade)
			default:
				// Ocean, deeper blue toward the equator.
				depth := 1.0 - 0.5*math.Abs(lat)/(math.Pi/2)
				r = uint8(18 * depth)
				g = uint8(60 * depth)
				b = uint8(130 * depth)
			}

			i := (y*w + x) * 4
			pixels[i] = r
			pixels[i+1] = g
			pixels[i+2] = b
			pixels[i+3] = 255
		}
	}
	return pixels
}

// landMask returns a pseudo-continent value in roughly [-1.5, 1.5] built
// from a few sinusoidal octaves. Values above the caller's threshold read
// as land.
func landMask(lon, lat float64) float64 {
	v := math.Sin(lon*2.0)*math.Cos(lat*3.0) +
		0.5*math.Sin(lon*5.0+1.3)*math.Sin(lat*4.0) +
		0.25*math.Cos(lon*9.0-0.7)*math.Cos(lat*7.0+2.1)
	// Suppress land at extreme latitudes so coastlines stay mid-globe.
	return v * math.Cos(lat)
}

// generateFlatNormalRGBA builds a uniform normal map encoding the +Z
// normal (128, 128, 255).
func generateFlatNormalRGBA(w, h int) []byte {
	pixels := make([]byte, w*h*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i] = 128
		pixels[i+1] = 128
		pixels[i+2] = 255
		pixels[i+3] = 255
	}
	return pixels
}
