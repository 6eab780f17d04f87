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

// lineVertexStride is the byte stride of one line vertex: position (vec3)
// + color (vec4).
const lineVertexStride = 28

// lineSurfaceOffset lifts polylines slightly off the sphere so they are
// not lost to the depth test.
const lineSurfaceOffset = 0.002

// LinePath is one geographic polyline with a shared color.
type LinePath struct {
	// Coords are (lon, lat) pairs in degrees.
	Coords [][2]float64

	// Color is straight (non-premultiplied) RGBA.
	Color [4]float32
}

// LineLayer renders geographic polylines as line-list segments following
// the sphere surface.
type LineLayer struct {
	Base

	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	paths []LinePath
	dirty bool

	res      *pipelineResources
	vertBuf  hal.Buffer
	vertices uint32

	initialized bool
}

var _ Layer = (*LineLayer)(nil)

// NewLineLayer creates an empty line layer with the given id and display
// name.
func NewLineLayer(id, name string) *LineLayer {
	return &LineLayer{Base: NewBase(id, name)}
}

// AddPath appends a polyline. Paths with fewer than two coordinates are
// ignored.
func (l *LineLayer) AddPath(p LinePath) {
	if len(p.Coords) < 2 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, p)
	l.dirty = true
}

// Clear removes all polylines.
func (l *LineLayer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = l.paths[:0]
	l.dirty = true
}

// Count returns the number of polylines.
func (l *LineLayer) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.paths)
}

// Initialize creates the line pipeline.
func (l *LineLayer) Initialize(device hal.Device, queue hal.Queue) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized {
		return fmt.Errorf("layer: %q already initialized", l.id)
	}

	res, err := createLayerPipeline(device, "lines_"+l.id, shader.Line(),
		gputypes.PrimitiveTopologyLineList,
		[]gputypes.VertexBufferLayout{{
			ArrayStride: lineVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1}, // color
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

// Update is a no-op; line layers have no animation state.
func (l *LineLayer) Update(dt float64) {}

// Render uploads dirty vertex data, writes the uniforms, and records the
// line-list draw.
func (l *LineLayer) Render(rp hal.RenderPassEncoder, fs *globe.FrameState) {
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
	if l.vertices == 0 {
		return
	}

	l.queue.WriteBuffer(l.res.uniformBuf, 0, packLayerUniforms(fs, l.Base.Opacity(), [4]float32{1, fs.Time, 0, 0}))

	rp.SetPipeline(l.res.pipeline)
	rp.SetBindGroup(0, l.res.bindGroup, nil)
	rp.SetVertexBuffer(0, l.vertBuf, 0)
	rp.Draw(l.vertices, 1, 0, 0)
}

func (l *LineLayer) rebuildBufferLocked() error {
	if l.vertBuf != nil {
		l.device.DestroyBuffer(l.vertBuf)
		l.vertBuf = nil
	}
	l.vertices = 0
	l.dirty = false

	total := 0
	for _, p := range l.paths {
		total += (len(p.Coords) - 1) * 2
	}
	if total == 0 {
		return nil
	}

	data := make([]byte, total*lineVertexStride)
	off := 0
	putVertex := func(lon, lat float64, color [4]float32) {
		pos := geomath.LonLatToCartesian(lon, lat, 0, 1+lineSurfaceOffset)
		binary.LittleEndian.PutUint32(data[off:], math.Float32bits(float32(pos.X())))
		binary.LittleEndian.PutUint32(data[off+4:], math.Float32bits(float32(pos.Y())))
		binary.LittleEndian.PutUint32(data[off+8:], math.Float32bits(float32(pos.Z())))
		for i, c := range color {
			binary.LittleEndian.PutUint32(data[off+12+i*4:], math.Float32bits(c))
		}
		off += lineVertexStride
	}
	for _, p := range l.paths {
		for i := 0; i+1 < len(p.Coords); i++ {
			putVertex(p.Coords[i][0], p.Coords[i][1], p.Color)
			putVertex(p.Coords[i+1][0], p.Coords[i+1][1], p.Color)
		}
	}

	buf, err := gpu.CreateVertexBuffer(l.device, l.queue, "lines_"+l.id+"_verts", data)
	if err != nil {
		return err
	}
	l.vertBuf = buf
	l.vertices = uint32(total)
	return nil
}

// Destroy releases GPU resources. Safe to call multiple times.
func (l *LineLayer) Destroy() {
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
	l.vertices = 0
	l.initialized = false
	l.device = nil
	l.queue = nil
}
