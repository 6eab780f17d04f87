// Package geojson parses GeoJSON documents into typed features and
// extracts flat point, line, and polygon coordinate sets for building
// layers.
package geojson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// maxDocumentBytes caps how much of a remote document is read.
const maxDocumentBytes = 64 << 20

var (
	// ErrInvalidDocument reports JSON that is not a GeoJSON object.
	ErrInvalidDocument = errors.New("geojson: invalid document")
	// ErrNoGeometries reports a document with no usable geometry.
	ErrNoGeometries = errors.New("geojson: no geometries found")
	// ErrFetchFailed reports a non-2xx response from the remote source.
	ErrFetchFailed = errors.New("geojson: fetch failed")
)

// Geometry is a single GeoJSON geometry. Coordinates stay raw until a
// typed accessor decodes them for the geometry's type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature pairs a geometry with its properties.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is the top-level GeoJSON container.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// BBox is the lon/lat bounding box of an extracted coordinate set.
type BBox struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

func (b *BBox) extend(pt [2]float64, first bool) {
	if first {
		b.MinLon, b.MaxLon = pt[0], pt[0]
		b.MinLat, b.MaxLat = pt[1], pt[1]
		return
	}
	if pt[0] < b.MinLon {
		b.MinLon = pt[0]
	}
	if pt[1] < b.MinLat {
		b.MinLat = pt[1]
	}
	if pt[0] > b.MaxLon {
		b.MaxLon = pt[0]
	}
	if pt[1] > b.MaxLat {
		b.MaxLat = pt[1]
	}
}

// Parse decodes a GeoJSON document. Bare Feature and bare geometry
// documents are wrapped into a single-feature collection.
func Parse(data []byte) (*FeatureCollection, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	switch probe.Type {
	case "FeatureCollection":
		var fc FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		return &fc, nil
	case "Feature":
		var f Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		return &FeatureCollection{Type: "FeatureCollection", Features: []Feature{f}}, nil
	case "Point", "MultiPoint", "LineString", "MultiLineString", "Polygon", "MultiPolygon":
		var g Geometry
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		return &FeatureCollection{
			Type:     "FeatureCollection",
			Features: []Feature{{Type: "Feature", Geometry: &g}},
		}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidDocument)
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidDocument, probe.Type)
	}
}

// LoadFeatureCollection fetches and parses a GeoJSON document from url.
func LoadFeatureCollection(ctx context.Context, client *http.Client, url string) (*FeatureCollection, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("geojson: request %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geojson: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetchFailed, url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("geojson: read %s: %w", url, err)
	}
	fc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	log.Printf("geojson: loaded %s (%d features)", url, len(fc.Features))
	return fc, nil
}

// ExtractPoints flattens all Point and MultiPoint geometries in the
// collection into lon/lat pairs.
func ExtractPoints(fc *FeatureCollection) ([][2]float64, BBox, error) {
	var points [][2]float64
	var bbox BBox
	for _, f := range fc.Features {
		g := f.Geometry
		if g == nil {
			continue
		}
		switch g.Type {
		case "Point":
			var pt [2]float64
			if err := json.Unmarshal(g.Coordinates, &pt); err != nil {
				continue
			}
			bbox.extend(pt, len(points) == 0)
			points = append(points, pt)
		case "MultiPoint":
			var pts [][2]float64
			if err := json.Unmarshal(g.Coordinates, &pts); err != nil {
				continue
			}
			for _, pt := range pts {
				bbox.extend(pt, len(points) == 0)
				points = append(points, pt)
			}
		}
	}
	if len(points) == 0 {
		return nil, BBox{}, ErrNoGeometries
	}
	return points, bbox, nil
}

// ExtractLines flattens all LineString and MultiLineString geometries
// into coordinate paths.
func ExtractLines(fc *FeatureCollection) ([][][2]float64, error) {
	var lines [][][2]float64
	for _, f := range fc.Features {
		g := f.Geometry
		if g == nil {
			continue
		}
		switch g.Type {
		case "LineString":
			var ls [][2]float64
			if err := json.Unmarshal(g.Coordinates, &ls); err != nil || len(ls) < 2 {
				continue
			}
			lines = append(lines, ls)
		case "MultiLineString":
			var mls [][][2]float64
			if err := json.Unmarshal(g.Coordinates, &mls); err != nil {
				continue
			}
			for _, ls := range mls {
				if len(ls) >= 2 {
					lines = append(lines, ls)
				}
			}
		}
	}
	if len(lines) == 0 {
		return nil, ErrNoGeometries
	}
	return lines, nil
}

// ExtractPolygons flattens all Polygon and MultiPolygon geometries. Each
// polygon is a list of rings, the first being the outer boundary.
func ExtractPolygons(fc *FeatureCollection) ([][][][2]float64, error) {
	var polys [][][][2]float64
	for _, f := range fc.Features {
		g := f.Geometry
		if g == nil {
			continue
		}
		switch g.Type {
		case "Polygon":
			var poly [][][2]float64
			if err := json.Unmarshal(g.Coordinates, &poly); err != nil || len(poly) == 0 {
				continue
			}
			polys = append(polys, poly)
		case "MultiPolygon":
			var mp [][][][2]float64
			if err := json.Unmarshal(g.Coordinates, &mp); err != nil {
				continue
			}
			for _, poly := range mp {
				if len(poly) > 0 {
					polys = append(polys, poly)
				}
			}
		}
	}
	if len(polys) == 0 {
		return nil, ErrNoGeometries
	}
	return polys, nil
}
