// Command globedemo renders one frame of the globe offscreen and writes
// it to a PNG: lit earth, lat/lon grid, and the sample city points.
package main

import (
	"flag"
	"image/png"
	"log"
	"os"

	webgpugeo "github.com/cuijiying/webgpu-geo"
	"github.com/cuijiying/webgpu-geo/geomath"
	"github.com/cuijiying/webgpu-geo/layer"
)

func main() {
	var (
		width  = flag.Uint("width", 1024, "image width")
		height = flag.Uint("height", 768, "image height")
		output = flag.String("output", "globe.png", "output file")
		lon    = flag.Float64("lon", 10, "center longitude in degrees")
		lat    = flag.Float64("lat", 25, "center latitude in degrees")
		zoom   = flag.Float64("zoom", 1.2, "zoom level")
		grid   = flag.Bool("grid", true, "show lat/lon grid lines")
	)
	flag.Parse()

	opts := webgpugeo.DefaultOptions()
	opts.Width = uint32(*width)
	opts.Height = uint32(*height)
	opts.Zoom = *zoom
	opts.Center = [2]float64{*lon, *lat}
	opts.ShowGridLines = *grid
	opts.BackgroundColor = [4]float64{0.01, 0.01, 0.03, 1}

	c, err := webgpugeo.New(opts)
	if err != nil {
		log.Fatalf("Failed to create controller: %v", err)
	}
	defer c.Destroy()

	points := make([]layer.Point, 0, 12)
	for _, city := range geomath.SampleCities() {
		points = append(points, layer.Point{
			Lon:   city.Lon,
			Lat:   city.Lat,
			Color: [4]float32{1, 0.75, 0.25, 1},
			Size:  1 + 2*float32(city.Population)/40_000_000,
		})
	}
	if _, err := c.AddPointLayer("cities", "Major cities", points); err != nil {
		log.Fatalf("Failed to add city layer: %v", err)
	}

	img, err := c.RenderToImage()
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *output, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatalf("Failed to encode PNG: %v", err)
	}

	log.Printf("Globe saved to %s (%dx%d)", *output, *width, *height)
}
