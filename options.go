package webgpugeo

// Zoom limits. Zoom maps to camera distance as distance = zoomBaseDistance/zoom,
// so zoom 1 places the camera at distance 3 from the globe center.
const (
	MinZoom = 0.5
	MaxZoom = 10.0

	zoomBaseDistance = 3.0
)

// Default offscreen output size when the options leave it unset.
const (
	defaultWidth  = 800
	defaultHeight = 600
)

// Options configures a Controller. Start from DefaultOptions and override
// fields; New normalizes out-of-range values.
type Options struct {
	// Zoom is the initial zoom level, clamped to [MinZoom, MaxZoom].
	// Zero means the default of 1.
	Zoom float64

	// Center is the initial lon/lat (degrees) facing the camera.
	Center [2]float64

	// Width and Height are the output dimensions in pixels. Zero means
	// the defaults. Ignored after SetSurfaceTarget.
	Width  uint32
	Height uint32

	// Detail is the sphere subdivision count per axis. Zero means the
	// renderer default.
	Detail int

	// EnableControl enables the pointer, wheel, and key handlers.
	EnableControl bool

	// BackgroundColor is the clear color as non-premultiplied RGBA in
	// [0, 1].
	BackgroundColor [4]float64

	// ShowGridLines builds and displays the lat/lon grid overlay at
	// construction.
	ShowGridLines bool

	// AutoRotateSpeed is the idle spin rate in radians per second used
	// when auto-rotation is on. Zero means the default.
	AutoRotateSpeed float64
}

// DefaultOptions returns the standard configuration: zoom 1, centered on
// lon/lat (0, 0), control enabled, opaque black background, grid hidden.
func DefaultOptions() Options {
	return Options{
		Zoom:            1,
		Center:          [2]float64{0, 0},
		Width:           defaultWidth,
		Height:          defaultHeight,
		EnableControl:   true,
		BackgroundColor: [4]float64{0, 0, 0, 1},
		ShowGridLines:   false,
		AutoRotateSpeed: 0.2,
	}
}

// normalize fills zero fields with defaults and clamps ranges.
func (o *Options) normalize() {
	if o.Zoom == 0 {
		o.Zoom = 1
	}
	o.Zoom = clampZoom(o.Zoom)
	if o.Width == 0 {
		o.Width = defaultWidth
	}
	if o.Height == 0 {
		o.Height = defaultHeight
	}
	if o.AutoRotateSpeed == 0 {
		o.AutoRotateSpeed = 0.2
	}
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
