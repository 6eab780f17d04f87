// Package webgpugeo renders an interactive 3D globe on the GPU: a textured
// and lit sphere with an optional lat/lon grid overlay and a stack of
// geographic data layers, driven by an orbit camera.
//
// The Controller ties the subsystems together and owns their lifecycles.
// Construct one with New for a real GPU device or NewWithDevice to supply
// your own, add layers, then either drive frames yourself with RenderFrame
// or run the frame loop with Start.
package webgpugeo

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"

	"github.com/cuijiying/webgpu-geo/camera"
	"github.com/cuijiying/webgpu-geo/globe"
	"github.com/cuijiying/webgpu-geo/gpu"
	"github.com/cuijiying/webgpu-geo/layer"
	"github.com/cuijiying/webgpu-geo/texture"
)

var (
	// ErrControllerDestroyed reports use after Destroy.
	ErrControllerDestroyed = errors.New("webgpugeo: controller destroyed")
	// ErrAlreadyRunning reports a second Start without a Stop.
	ErrAlreadyRunning = errors.New("webgpugeo: frame loop already running")
)

// Input tuning.
const (
	orbitSensitivity = 0.005 // radians per pixel of pointer drag
	wheelZoomFactor  = 1.1   // zoom multiplier per wheel notch
	keyOrbitStep     = 0.05  // radians per arrow key press
	frameInterval    = 16 * time.Millisecond
)

// Controller is the top-level globe map. It owns the GPU device, camera,
// globe renderer, texture manager, and layer stack. Safe for concurrent
// use; input handlers may run while the frame loop renders.
type Controller struct {
	mu sync.Mutex

	dev      *gpu.Device
	cam      *camera.Camera
	renderer *globe.Renderer
	layers   *layer.Manager
	textures *texture.Manager
	target   gpu.RenderTarget

	width  uint32
	height uint32

	zoom        float64
	center      [2]float64
	background  [4]float64
	lightDir    mgl32.Vec3
	gridVisible bool

	controlEnabled bool
	autoRotate     bool
	rotateSpeed    float64
	spin           float64

	epoch     time.Time
	running   bool
	stop      chan struct{}
	loopDone  sync.WaitGroup
	destroyed bool
}

// New creates a controller on a freshly acquired GPU device.
func New(opts Options) (*Controller, error) {
	dev, err := gpu.New()
	if err != nil {
		return nil, err
	}
	c, err := NewWithDevice(dev, opts)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return c, nil
}

// NewWithDevice creates a controller on an existing device. The caller
// keeps ownership of the device's backend; Destroy still calls Close,
// which is a no-op for externally supplied devices.
func NewWithDevice(dev *gpu.Device, opts Options) (*Controller, error) {
	if dev == nil || dev.Closed() {
		return nil, gpu.ErrDeviceClosed
	}
	opts.normalize()

	c := &Controller{
		dev:            dev,
		width:          opts.Width,
		height:         opts.Height,
		zoom:           opts.Zoom,
		center:         opts.Center,
		background:     opts.BackgroundColor,
		lightDir:       mgl32.Vec3{1, 0.6, 0.5}.Normalize(),
		controlEnabled: opts.EnableControl,
		rotateSpeed:    opts.AutoRotateSpeed,
		epoch:          time.Now(),
	}

	c.cam = camera.New(float32(opts.Width) / float32(opts.Height))
	c.cam.SetDistance(float32(zoomBaseDistance / opts.Zoom))

	c.textures = texture.NewManager(dev.HAL(), dev.Queue())
	earth, err := c.textures.DefaultEarth()
	if err != nil {
		c.textures.Destroy()
		return nil, fmt.Errorf("webgpugeo: earth texture: %w", err)
	}
	sampler, err := c.textures.Sampler(texture.SamplerConfig{})
	if err != nil {
		c.textures.Destroy()
		return nil, fmt.Errorf("webgpugeo: sampler: %w", err)
	}

	c.renderer = globe.NewRenderer(opts.Detail)
	if err := c.renderer.Init(dev.HAL(), dev.Queue(), earth.View(), sampler); err != nil {
		c.textures.Destroy()
		return nil, fmt.Errorf("webgpugeo: globe renderer: %w", err)
	}

	c.layers = layer.NewManager(dev.HAL(), dev.Queue())

	if opts.ShowGridLines {
		if _, err := c.renderer.EnsureGrid(); err != nil {
			c.destroyLocked()
			return nil, fmt.Errorf("webgpugeo: grid: %w", err)
		}
		c.gridVisible = true
	}

	log.Printf("webgpugeo: controller ready (%dx%d, zoom %.2f)", opts.Width, opts.Height, opts.Zoom)
	return c, nil
}

// Device returns the underlying GPU device.
func (c *Controller) Device() *gpu.Device {
	return c.dev
}

// SetZoom sets the zoom level, clamped to [MinZoom, MaxZoom], and moves
// the camera to the matching distance.
func (c *Controller) SetZoom(zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = clampZoom(zoom)
	c.cam.SetDistance(float32(zoomBaseDistance / c.zoom))
}

// GetZoom returns the current zoom level.
func (c *Controller) GetZoom() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// SetCenter rotates the globe so the given lon/lat (degrees) faces the
// camera. Latitude is clamped to [-90, 90].
func (c *Controller) SetCenter(lon, lat float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center = [2]float64{lon, math.Min(90, math.Max(-90, lat))}
}

// GetCenter returns the current lon/lat center.
func (c *Controller) GetCenter() (lon, lat float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.center[0], c.center[1]
}

// SetAutoRotate toggles the idle spin applied by the frame loop.
func (c *Controller) SetAutoRotate(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoRotate = on
}

// AutoRotate reports whether idle spin is on.
func (c *Controller) AutoRotate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoRotate
}

// SetLightDirection sets the directional light. The vector is normalized;
// a zero vector is ignored.
func (c *Controller) SetLightDirection(x, y, z float32) {
	v := mgl32.Vec3{x, y, z}
	if v.Len() == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lightDir = v.Normalize()
}

// AddLayer initializes and registers a layer. Fails on duplicate ids and
// initialization errors.
func (c *Controller) AddLayer(l layer.Layer) error {
	return c.layers.Add(l)
}

// AddPointLayer builds a point layer from the given points, registers it,
// and returns it for further mutation.
func (c *Controller) AddPointLayer(id, name string, points []layer.Point) (*layer.PointLayer, error) {
	pl := layer.NewPointLayer(id, name)
	pl.SetPoints(points)
	if err := c.layers.Add(pl); err != nil {
		return nil, err
	}
	return pl, nil
}

// AddLineLayer builds a line layer from the given paths and registers it.
func (c *Controller) AddLineLayer(id, name string, paths []layer.LinePath) (*layer.LineLayer, error) {
	ll := layer.NewLineLayer(id, name)
	for _, p := range paths {
		ll.AddPath(p)
	}
	if err := c.layers.Add(ll); err != nil {
		return nil, err
	}
	return ll, nil
}

// RemoveLayer destroys and removes a layer. Returns false for unknown ids.
func (c *Controller) RemoveLayer(id string) bool {
	return c.layers.Remove(id)
}

// Layer returns a registered layer by id.
func (c *Controller) Layer(id string) (layer.Layer, bool) {
	return c.layers.Get(id)
}

// SetLayerVisible toggles a layer. Returns false for unknown ids.
func (c *Controller) SetLayerVisible(id string, visible bool) bool {
	l, ok := c.layers.Get(id)
	if !ok {
		return false
	}
	l.SetVisible(visible)
	return true
}

// SetLayerOpacity sets a layer's opacity, clamped to [0, 1]. Returns
// false for unknown ids.
func (c *Controller) SetLayerOpacity(id string, opacity float64) bool {
	l, ok := c.layers.Get(id)
	if !ok {
		return false
	}
	l.SetOpacity(opacity)
	return true
}

// SetLayerZIndex reorders a layer in the stack. Returns false for unknown
// ids.
func (c *Controller) SetLayerZIndex(id string, z int) bool {
	return c.layers.SetZIndex(id, z)
}

// SetGridLinesVisible shows or hides the lat/lon grid overlay. Grid
// geometry is built lazily on first show and kept for later toggles.
func (c *Controller) SetGridLinesVisible(visible bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrControllerDestroyed
	}
	if visible {
		if _, err := c.renderer.EnsureGrid(); err != nil {
			return err
		}
	}
	c.gridVisible = visible
	return nil
}

// ToggleGridLines flips grid visibility and returns the new state.
func (c *Controller) ToggleGridLines() (bool, error) {
	c.mu.Lock()
	visible := !c.gridVisible
	c.mu.Unlock()
	if err := c.SetGridLinesVisible(visible); err != nil {
		return c.GridLinesVisible(), err
	}
	return visible, nil
}

// GridLinesVisible reports whether the grid overlay is shown.
func (c *Controller) GridLinesVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gridVisible
}

// Resize updates the offscreen output size and the camera aspect ratio.
func (c *Controller) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
	c.cam.SetAspectRatio(float32(width) / float32(height))
}

// SetSurfaceTarget switches rendering onto an externally owned surface
// view, for embedding in a windowed application. The caller keeps
// ownership of the view and must call this again when the surface is
// recreated or resized.
func (c *Controller) SetSurfaceTarget(view hal.TextureView, width, height uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrControllerDestroyed
	}
	c.target.SetSurfaceTarget(c.dev.HAL(), view, width, height)
	c.width, c.height = width, height
	c.cam.SetAspectRatio(float32(width) / float32(height))
	return nil
}

// HandlePointerDelta orbits the camera by a pointer drag in pixels.
// No-op when control is disabled. Returns false when the vertical motion
// was rejected at the orbit limit.
func (c *Controller) HandlePointerDelta(dx, dy float64) bool {
	c.mu.Lock()
	enabled := c.controlEnabled && !c.destroyed
	c.mu.Unlock()
	if !enabled {
		return false
	}
	return c.cam.Orbit(float32(dx*orbitSensitivity), float32(dy*orbitSensitivity))
}

// HandleWheel zooms by wheel notches; positive delta zooms in. No-op when
// control is disabled.
func (c *Controller) HandleWheel(delta float64) {
	c.mu.Lock()
	enabled := c.controlEnabled && !c.destroyed
	zoom := c.zoom
	c.mu.Unlock()
	if !enabled {
		return
	}
	c.SetZoom(zoom * math.Pow(wheelZoomFactor, delta))
}

// HandleKey processes a key press: arrows orbit, +/- zoom, g toggles the
// grid, r toggles auto-rotation. Returns true when the key was handled.
func (c *Controller) HandleKey(key string) bool {
	c.mu.Lock()
	enabled := c.controlEnabled && !c.destroyed
	c.mu.Unlock()
	if !enabled {
		return false
	}
	switch key {
	case "ArrowLeft":
		c.cam.Orbit(-keyOrbitStep, 0)
	case "ArrowRight":
		c.cam.Orbit(keyOrbitStep, 0)
	case "ArrowUp":
		c.cam.Orbit(0, -keyOrbitStep)
	case "ArrowDown":
		c.cam.Orbit(0, keyOrbitStep)
	case "+", "=":
		c.SetZoom(c.GetZoom() * wheelZoomFactor)
	case "-":
		c.SetZoom(c.GetZoom() / wheelZoomFactor)
	case "g":
		if _, err := c.ToggleGridLines(); err != nil {
			log.Printf("webgpugeo: grid toggle: %v", err)
		}
	case "r":
		c.SetAutoRotate(!c.AutoRotate())
	default:
		return false
	}
	return true
}

// frameState snapshots everything a frame needs under the lock.
func (c *Controller) frameState() *globe.FrameState {
	c.mu.Lock()
	defer c.mu.Unlock()

	lon := mgl32.DegToRad(float32(c.center[0] + c.spin*180/math.Pi))
	lat := mgl32.DegToRad(float32(c.center[1]))
	model := mgl32.HomogRotate3DX(lat).Mul4(
		mgl32.HomogRotate3DY(lon - math.Pi/2))

	return &globe.FrameState{
		Model:          model,
		View:           c.cam.ViewMatrix(),
		Projection:     c.cam.ProjectionMatrix(),
		CameraPos:      c.cam.Position(),
		LightDir:       c.lightDir,
		Time:           float32(time.Since(c.epoch).Seconds()),
		ViewportWidth:  c.width,
		ViewportHeight: c.height,
	}
}

// recordFrame ensures the target, opens the pass, and records all draws.
// The returned encoder has the full frame recorded but not submitted.
func (c *Controller) recordFrame() (hal.CommandEncoder, error) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return nil, ErrControllerDestroyed
	}
	width, height := c.width, c.height
	background := c.background
	gridVisible := c.gridVisible
	c.mu.Unlock()

	fs := c.frameState()
	c.renderer.UpdateUniforms(fs)

	c.mu.Lock()
	err := c.target.Ensure(c.dev.HAL(), width, height)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("webgpugeo: render target: %w", err)
	}

	encoder, err := c.dev.HAL().CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "globe_frame"})
	if err != nil {
		return nil, fmt.Errorf("webgpugeo: command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("globe_frame"); err != nil {
		return nil, fmt.Errorf("webgpugeo: begin encoding: %w", err)
	}

	rp := c.renderer.BeginFrame(encoder, &c.target, background)
	if rp == nil {
		encoder.DiscardEncoding()
		return nil, errors.New("webgpugeo: globe renderer not initialized")
	}
	c.renderer.RecordGlobe(rp)
	if gridVisible {
		c.renderer.RecordGrid(rp)
	}
	c.layers.Render(rp, fs)
	rp.End()
	return encoder, nil
}

// RenderFrame renders one frame synchronously and waits for the GPU.
func (c *Controller) RenderFrame() error {
	encoder, err := c.recordFrame()
	if err != nil {
		return err
	}
	return gpu.Submit(c.dev.HAL(), c.dev.Queue(), encoder)
}

// RenderToImage renders one frame offscreen and reads it back as RGBA.
// Only valid in offscreen mode.
func (c *Controller) RenderToImage() (*image.RGBA, error) {
	encoder, err := c.recordFrame()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !c.target.Offscreen() {
		c.mu.Unlock()
		return nil, errors.New("webgpugeo: readback requires an offscreen target")
	}
	tex := c.target.ColorTexture()
	width, height := c.target.Size()
	c.mu.Unlock()

	pixels, err := gpu.SubmitAndReadbackRGBA(c.dev.HAL(), c.dev.Queue(), encoder, tex, width, height)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	copy(img.Pix, pixels)
	return img, nil
}

// Start launches the frame loop: roughly 60 ticks per second, each tick
// advancing auto-rotation and layer animation before rendering a frame.
// The loop runs until Stop, Destroy, or ctx cancellation.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return ErrControllerDestroyed
	}
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.stop = make(chan struct{})
	stop := c.stop
	c.mu.Unlock()

	c.loopDone.Add(1)
	go c.runLoop(ctx, stop)
	return nil
}

func (c *Controller) runLoop(ctx context.Context, stop chan struct{}) {
	defer c.loopDone.Done()
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			c.mu.Lock()
			if c.autoRotate {
				c.spin += c.rotateSpeed * dt
			}
			c.mu.Unlock()

			c.layers.Update(dt)
			if err := c.RenderFrame(); err != nil {
				if errors.Is(err, ErrControllerDestroyed) {
					return
				}
				log.Printf("webgpugeo: frame: %v", err)
			}
		}
	}
}

// Stop halts the frame loop. Resources stay alive; Start may be called
// again. No-op when the loop is not running.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stop)
	c.mu.Unlock()
	c.loopDone.Wait()
}

// Running reports whether the frame loop is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Textures returns the controller's texture manager, for loading remote
// imagery onto layers.
func (c *Controller) Textures() *texture.Manager {
	return c.textures
}

// Destroy stops the loop and releases every resource. Idempotent.
func (c *Controller) Destroy() {
	c.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyLocked()
}

func (c *Controller) destroyLocked() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	if c.layers != nil {
		c.layers.Destroy()
	}
	if c.renderer != nil {
		c.renderer.Destroy()
	}
	if c.textures != nil {
		c.textures.Destroy()
	}
	c.target.Destroy(c.dev.HAL())
	c.dev.Close()
	log.Printf("webgpugeo: controller destroyed")
}
