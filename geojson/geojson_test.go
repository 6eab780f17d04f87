package geojson

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleCollection = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [139.69, 35.69]},
			"properties": {"name": "Tokyo"}
		},
		{
			"type": "Feature",
			"geometry": {"type": "MultiPoint", "coordinates": [[-74.01, 40.71], [-0.13, 51.51]]},
			"properties": null
		},
		{
			"type": "Feature",
			"geometry": {"type": "LineString", "coordinates": [[0, 0], [30, 10], [60, 20]]},
			"properties": {"name": "route"}
		},
		{
			"type": "Feature",
			"geometry": {"type": "MultiLineString", "coordinates": [[[1, 1], [2, 2]], [[3, 3]]]},
			"properties": null
		},
		{
			"type": "Feature",
			"geometry": {"type": "Polygon", "coordinates": [[[0, 0], [10, 0], [10, 10], [0, 0]]]},
			"properties": null
		},
		{
			"type": "Feature",
			"geometry": null,
			"properties": null
		}
	]
}`

func TestParseFeatureCollection(t *testing.T) {
	fc, err := Parse([]byte(sampleCollection))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(fc.Features) != 6 {
		t.Errorf("features = %d, want 6", len(fc.Features))
	}
	if name, _ := fc.Features[0].Properties["name"].(string); name != "Tokyo" {
		t.Errorf("properties name = %q, want Tokyo", name)
	}
}

func TestParseWrapsBareFeatureAndGeometry(t *testing.T) {
	fc, err := Parse([]byte(`{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1, 2]}}`))
	if err != nil {
		t.Fatalf("Parse bare feature failed: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("features = %d, want 1", len(fc.Features))
	}

	fc, err = Parse([]byte(`{"type": "Point", "coordinates": [1, 2]}`))
	if err != nil {
		t.Fatalf("Parse bare geometry failed: %v", err)
	}
	pts, _, err := ExtractPoints(fc)
	if err != nil {
		t.Fatalf("ExtractPoints failed: %v", err)
	}
	if len(pts) != 1 || pts[0] != [2]float64{1, 2} {
		t.Errorf("points = %v, want [[1 2]]", pts)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"not json", "not json at all"},
		{"missing type", `{"features": []}`},
		{"unsupported type", `{"type": "Topology"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.doc)); !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidDocument", tc.doc, err)
			}
		})
	}
}

func TestExtractPoints(t *testing.T) {
	fc, err := Parse([]byte(sampleCollection))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	pts, bbox, err := ExtractPoints(fc)
	if err != nil {
		t.Fatalf("ExtractPoints failed: %v", err)
	}
	if len(pts) != 3 {
		t.Fatalf("points = %d, want 3", len(pts))
	}
	if pts[0] != [2]float64{139.69, 35.69} {
		t.Errorf("first point = %v", pts[0])
	}
	if bbox.MinLon != -74.01 || bbox.MaxLon != 139.69 {
		t.Errorf("bbox lon = [%v, %v], want [-74.01, 139.69]", bbox.MinLon, bbox.MaxLon)
	}
	if bbox.MinLat != 35.69 || bbox.MaxLat != 51.51 {
		t.Errorf("bbox lat = [%v, %v], want [35.69, 51.51]", bbox.MinLat, bbox.MaxLat)
	}
}

func TestExtractLines(t *testing.T) {
	fc, err := Parse([]byte(sampleCollection))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	lines, err := ExtractLines(fc)
	if err != nil {
		t.Fatalf("ExtractLines failed: %v", err)
	}
	// The single-coordinate MultiLineString part is dropped.
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if len(lines[0]) != 3 {
		t.Errorf("first line has %d coords, want 3", len(lines[0]))
	}
}

func TestExtractPolygons(t *testing.T) {
	fc, err := Parse([]byte(sampleCollection))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	polys, err := ExtractPolygons(fc)
	if err != nil {
		t.Fatalf("ExtractPolygons failed: %v", err)
	}
	if len(polys) != 1 {
		t.Fatalf("polygons = %d, want 1", len(polys))
	}
	if len(polys[0][0]) != 4 {
		t.Errorf("outer ring has %d coords, want 4", len(polys[0][0]))
	}
}

func TestExtractEmpty(t *testing.T) {
	fc := &FeatureCollection{Type: "FeatureCollection"}
	if _, _, err := ExtractPoints(fc); !errors.Is(err, ErrNoGeometries) {
		t.Errorf("ExtractPoints error = %v, want ErrNoGeometries", err)
	}
	if _, err := ExtractLines(fc); !errors.Is(err, ErrNoGeometries) {
		t.Errorf("ExtractLines error = %v, want ErrNoGeometries", err)
	}
	if _, err := ExtractPolygons(fc); !errors.Is(err, ErrNoGeometries) {
		t.Errorf("ExtractPolygons error = %v, want ErrNoGeometries", err)
	}
}

func TestLoadFeatureCollection(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write([]byte(sampleCollection))
	}))
	defer srv.Close()

	fc, err := LoadFeatureCollection(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("LoadFeatureCollection failed: %v", err)
	}
	if len(fc.Features) != 6 {
		t.Errorf("features = %d, want 6", len(fc.Features))
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
}

func TestLoadFeatureCollectionErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := LoadFeatureCollection(context.Background(), srv.Client(), srv.URL); !errors.Is(err, ErrFetchFailed) {
		t.Errorf("error = %v, want ErrFetchFailed", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadFeatureCollection(ctx, srv.Client(), srv.URL); err == nil {
		t.Error("canceled context should fail")
	}
}
