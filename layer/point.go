package layer

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/cuijiying/webgpu-geo/geomath"
	"github.com/cuijiying/webgpu-geo/globe"
	"github.com/cuijiying/webgpu-geo/gpu"
	"github.com/cuijiying/webgpu-geo/shader"
)

// pointRecordStride is the byte stride of one point instance record:
// position (vec3) + color (vec4) + size (f32).
const pointRecordStride = 32

// defaultPointSizeScale converts record sizes to pixel radii.
const defaultPointSizeScale = 4

// Point is one geographic marker in a PointLayer.
type Point struct {
	// Lon and Lat are in degrees; Altitude in the unit described by
	// geomath.AltitudeScale.
	Lon, Lat, Altitude float64

	// Color is straight (non-premultiplied) RGBA.
	Color [4]float32

	// Size is the marker radius multiplier; 1 is the base size.
	Size float32

	// Payload is an opaque caller value carried with the point, never
	// touched by rendering.
	Payload any
}

// PointLayer renders markers as camera-facing discs with a smooth circular
// mask, one instance per point.
type PointLayer struct {
	Base

	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	points []Point
	dirty  bool

	res       *pipelineResources
	vertBuf   hal.Buffer
	instances uint32

	// SizeScale converts point sizes to pixel radii.
	sizeScale float32

	initialized bool
}

var _ Layer = (*PointLayer)(nil)

// NewPointLayer creates an empty point layer with the given id and
// display name.
func NewPointLayer(id, name string) *PointLayer {
	return &PointLayer{
		Base:      NewBase(id, name),
		sizeScale: defaultPointSizeScale,
	}
}

// AddPoint appends a marker. The buffer is rebuilt on the next render.
func (l *PointLayer) AddPoint(p Point) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points = append(l.points, p)
	l.dirty = true
}

// SetPoints replaces all markers.
func (l *PointLayer) SetPoints(points []Point) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points = append(l.points[:0], points...)
	l.dirty = true
}

// Clear removes all markers.
func (l *PointLayer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points = l.points[:0]
	l.dirty = true
}

// Count returns the number of markers.
func (l *PointLayer) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.points)
}

// SetSizeScale changes the size-to-pixel conversion factor.
func (l *PointLayer) SetSizeScale(s float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s > 0 {
		l.sizeScale = s
	}
}

// Initialize creates the instanced disc pipeline.
func (l *PointLayer) Initialize(device hal.Device, queue hal.Queue) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized {
		return fmt.Errorf("layer: %q already initialized", l.id)
	}

	res, err := createLayerPipeline(device, "points_"+l.id, shader.Point(),
		gputypes.PrimitiveTopologyTriangleList,
		[]gputypes.VertexBufferLayout{{
			ArrayStride: pointRecordStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // center
				{Format: gputypes.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1}, // color
				{Format: gputypes.VertexFormatFloat32, Offset: 28, ShaderLocation: 2},   // size
			},
		}})
	if err != nil {
		return err
	}

	l.device = device
	l.queue = queue
	l.res = res
	l.dirty = true
	l.initialized = true
	return nil
}

// Update is a no-op; point layers have no animation state.
func (l *PointLayer) Update(dt float64) {}

// Render uploads dirty instance data, writes the uniforms, and records one
// instanced draw. Record order follows point insertion order.
func (l *PointLayer) Render(rp hal.RenderPassEncoder, fs *globe.FrameState) {
	if !l.Visible() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized || rp == nil {
		return
	}

	if l.dirty {
		if err := l.rebuildBufferLocked(); err != nil {
			return
		}
	}
	if l.instances == 0 {
		return
	}

	params := [4]float32{
		l.sizeScale,
		fs.Time,
		2 / float32(max32(fs.ViewportWidth, 1)),
		2 / float32(max32(fs.ViewportHeight, 1)),
	}
	l.queue.WriteBuffer(l.res.uniformBuf, 0, packLayerUniforms(fs, l.Base.Opacity(), params))

	rp.SetPipeline(l.res.pipeline)
	rp.SetBindGroup(0, l.res.bindGroup, nil)
	rp.SetVertexBuffer(0, l.vertBuf, 0)
	rp.Draw(6, l.instances, 0, 0)
}

// rebuildBufferLocked re-uploads the instance records.
func (l *PointLayer) rebuildBufferLocked() error {
	if l.vertBuf != nil {
		l.device.DestroyBuffer(l.vertBuf)
		l.vertBuf = nil
	}
	l.instances = 0
	l.dirty = false

	if len(l.points) == 0 {
		return nil
	}

	data := make([]byte, len(l.points)*pointRecordStride)
	for i, p := range l.points {
		pos := geomath.LonLatToCartesian(p.Lon, p.Lat, p.Altitude, 1)
		off := i * pointRecordStride
		putF32 := func(o int, v float32) {
			binary.LittleEndian.PutUint32(data[off+o:], math.Float32bits(v))
		}
		putF32(0, float32(pos.X()))
		putF32(4, float32(pos.Y()))
		putF32(8, float32(pos.Z()))
		putF32(12, p.Color[0])
		putF32(16, p.Color[1])
		putF32(20, p.Color[2])
		putF32(24, p.Color[3])
		putF32(28, p.Size)
	}

	buf, err := gpu.CreateVertexBuffer(l.device, l.queue, "points_"+l.id+"_instances", data)
	if err != nil {
		return err
	}
	l.vertBuf = buf
	l.instances = uint32(len(l.points))
	return nil
}

// Destroy releases GPU resources. Safe to call multiple times.
func (l *PointLayer) Destroy() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.device == nil {
		return
	}
	if l.vertBuf != nil {
		l.device.DestroyBuffer(l.vertBuf)
		l.vertBuf = nil
	}
	if l.res != nil {
		l.res.destroy(l.device)
		l.res = nil
	}
	l.instances = 0
	l.initialized = false
	l.device = nil
	l.queue = nil
}

func max32(v, min uint32) uint32 {
	if v < min {
		return min
	}
	return v
}
