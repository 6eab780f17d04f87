// Package globe renders the textured sphere and the latitude/longitude
// overlay grid. Geometry generation is CPU-side and deterministic; the
// Renderer owns the GPU pipelines and mesh buffers.
package globe

import (
	"math"
)

// SphereVertexStride is the byte stride of an enhanced sphere vertex:
// position (vec3) + normal (vec3) + uv (vec2).
const SphereVertexStride = 32

// NaiveVertexStride is the byte stride of a position-only sphere vertex.
const NaiveVertexStride = 12

// GridRadius places the overlay slightly above the unit sphere so the
// depth test does not swallow the lines.
const GridRadius = 1.01

// Grid line spacing: meridians every 10 degrees of longitude, parallels
// every 10 degrees of latitude excluding the poles.
const (
	gridMeridians       = 36
	gridParallels       = 17
	gridSegmentsPerLine = 64
)

// SphereMesh holds interleaved vertex data and triangle indices for a
// unit sphere.
type SphereMesh struct {
	// Vertices is interleaved float32 data; the stride depends on the
	// generator that produced the mesh.
	Vertices []float32

	// Indices is a triangle list over Vertices.
	Indices []uint32
}

// VertexCount returns the number of vertices for the given stride in floats.
func (m *SphereMesh) vertexCount(floatsPerVertex int) int {
	return len(m.Vertices) / floatsPerVertex
}

// EnhancedSphere generates a unit sphere with per-vertex normals and
// equirectangular texture coordinates. The mesh has (n+1)^2 vertices and
// 6n(n-1) indices: triangles that would collapse at the poles are skipped.
//
// n is the subdivision count per axis and must be at least 2.
func EnhancedSphere(n int) *SphereMesh {
	if n < 2 {
		n = 2
	}

	verts := make([]float32, 0, (n+1)*(n+1)*8)
	for y := 0; y <= n; y++ {
		// Polar angle from the north pole.
		theta := float64(y) / float64(n) * math.Pi
		sinT, cosT := math.Sincos(theta)
		for x := 0; x <= n; x++ {
			phi := float64(x) / float64(n) * 2 * math.Pi
			sinP, cosP := math.Sincos(phi)

			px := float32(sinT * cosP)
			py := float32(cosT)
			pz := float32(sinT * sinP)

			verts = append(verts,
				px, py, pz, // position
				px, py, pz, // normal equals position on a unit sphere
				float32(float64(x)/float64(n)), // u
				float32(float64(y)/float64(n)), // v
			)
		}
	}

	indices := make([]uint32, 0, 6*n*(n-1))
	stride := uint32(n + 1)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			a := uint32(y)*stride + uint32(x)
			b := a + stride

			// The top row's first triangle and the bottom row's second
			// triangle have two identical pole vertices.
			if y != 0 {
				indices = append(indices, a, b, a+1)
			}
			if y != n-1 {
				indices = append(indices, a+1, b, b+1)
			}
		}
	}

	return &SphereMesh{Vertices: verts, Indices: indices}
}

// NaiveSphere generates a position-only unit sphere with (n+1)^2 vertices
// and 6n^2 indices. Degenerate pole triangles are kept; the mesh is meant
// for untextured rendering where the waste does not matter.
func NaiveSphere(n int) *SphereMesh {
	if n < 2 {
		n = 2
	}

	verts := make([]float32, 0, (n+1)*(n+1)*3)
	for y := 0; y <= n; y++ {
		theta := float64(y) / float64(n) * math.Pi
		sinT, cosT := math.Sincos(theta)
		for x := 0; x <= n; x++ {
			phi := float64(x) / float64(n) * 2 * math.Pi
			sinP, cosP := math.Sincos(phi)
			verts = append(verts,
				float32(sinT*cosP),
				float32(cosT),
				float32(sinT*sinP),
			)
		}
	}

	indices := make([]uint32, 0, 6*n*n)
	stride := uint32(n + 1)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			a := uint32(y)*stride + uint32(x)
			b := a + stride
			indices = append(indices, a, b, a+1, a+1, b, b+1)
		}
	}

	return &SphereMesh{Vertices: verts, Indices: indices}
}

// GridLines generates line-list vertices (vec3 pairs) for the overlay
// grid: 36 meridians and 17 parallels at GridRadius.
func GridLines() []float32 {
	segs := gridSegmentsPerLine
	// Each segment contributes two vertices of three floats.
	verts := make([]float32, 0, (gridMeridians+gridParallels)*segs*6)

	appendPoint := func(lonRad, latRad float64) []float32 {
		sinLat, cosLat := math.Sincos(latRad)
		sinLon, cosLon := math.Sincos(lonRad)
		return []float32{
			float32(GridRadius * cosLat * cosLon),
			float32(GridRadius * sinLat),
			float32(GridRadius * cosLat * sinLon),
		}
	}

	// Meridians: full half-circles pole to pole every 10 degrees.
	for m := 0; m < gridMeridians; m++ {
		lon := float64(m) * 10 * math.Pi / 180
		for s := 0; s < segs; s++ {
			lat0 := -math.Pi/2 + float64(s)/float64(segs)*math.Pi
			lat1 := -math.Pi/2 + float64(s+1)/float64(segs)*math.Pi
			verts = append(verts, appendPoint(lon, lat0)...)
			verts = append(verts, appendPoint(lon, lat1)...)
		}
	}

	// Parallels: closed circles every 10 degrees from -80 to +80.
	for p := 0; p < gridParallels; p++ {
		lat := (float64(p) - 8) * 10 * math.Pi / 180
		for s := 0; s < segs; s++ {
			lon0 := float64(s) / float64(segs) * 2 * math.Pi
			lon1 := float64(s+1) / float64(segs) * 2 * math.Pi
			verts = append(verts, appendPoint(lon0, lat)...)
			verts = append(verts, appendPoint(lon1, lat)...)
		}
	}

	return verts
}
