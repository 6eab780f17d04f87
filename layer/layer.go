// Package layer implements composable data overlays for the globe: the
// Layer interface, a z-ordered Manager, and the built-in point and line
// layers.
package layer

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/cuijiying/webgpu-geo/globe"
)

// UniformBlockSize is the byte size of the layer uniform block: a mat4x4
// view-projection, a vec4 (camera position, opacity in w), and a vec4 of
// pipeline parameters.
const UniformBlockSize = 64 + 16 + 16

// Layer is a renderable overlay. Implementations must tolerate Render and
// Update before Initialize and after Destroy as no-ops.
type Layer interface {
	// ID returns the unique layer identifier used by the Manager.
	ID() string

	// Name returns the human-readable display name.
	Name() string

	// Initialize creates the layer's GPU resources. Called once by the
	// Manager when the layer is added.
	Initialize(device hal.Device, queue hal.Queue) error

	// Update advances animation state by dt seconds.
	Update(dt float64)

	// Render records the layer's draws into the frame's render pass.
	Render(rp hal.RenderPassEncoder, fs *globe.FrameState)

	// Destroy releases GPU resources. Must be idempotent.
	Destroy()

	Visible() bool
	SetVisible(visible bool)

	// Opacity is in [0, 1]; SetOpacity clamps.
	Opacity() float64
	SetOpacity(opacity float64)

	ZIndex() int
	SetZIndex(z int)
}

// Base carries the identity and display state shared by all layers. Embed
// it and implement the GPU methods.
type Base struct {
	mu      sync.Mutex
	id      string
	name    string
	visible bool
	opacity float64
	zIndex  int
}

// NewBase creates layer state with the given id and display name, visible
// at full opacity.
func NewBase(id, name string) Base {
	return Base{id: id, name: name, visible: true, opacity: 1}
}

// ID returns the layer identifier.
func (b *Base) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

// Name returns the display name.
func (b *Base) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

// Visible reports whether the layer should render.
func (b *Base) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// SetVisible toggles rendering of the layer.
func (b *Base) SetVisible(visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visible = visible
}

// Opacity returns the layer opacity in [0, 1].
func (b *Base) Opacity() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opacity
}

// SetOpacity sets the layer opacity, clamping to [0, 1].
func (b *Base) SetOpacity(opacity float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opacity = math.Min(1, math.Max(0, opacity))
}

// ZIndex returns the stacking order; higher renders later.
func (b *Base) ZIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.zIndex
}

// SetZIndex sets the stacking order.
func (b *Base) SetZIndex(z int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.zIndex = z
}

// packLayerUniforms serializes the layer uniform block: the model-view-
// projection matrix, camera position with opacity, and the four pipeline
// parameters.
func packLayerUniforms(fs *globe.FrameState, opacity float64, params [4]float32) []byte {
	buf := make([]byte, UniformBlockSize)
	viewProj := fs.Projection.Mul4(fs.View).Mul4(fs.Model)
	off := 0
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(viewProj[i]))
		off += 4
	}
	for i, v := range [4]float32{fs.CameraPos[0], fs.CameraPos[1], fs.CameraPos[2], float32(opacity)} {
		binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(v))
	}
	off += 16
	for i, v := range params {
		binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(v))
	}
	return buf
}
