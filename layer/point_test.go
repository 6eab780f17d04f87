package layer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/cuijiying/webgpu-geo/geomath"
	"github.com/cuijiying/webgpu-geo/globe"
	"github.com/cuijiying/webgpu-geo/gpu"
)

func testFrameState() *globe.FrameState {
	return &globe.FrameState{
		Model:          mgl32.Ident4(),
		View:           mgl32.LookAtV(mgl32.Vec3{0, 0, 3}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}),
		Projection:     mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 100),
		CameraPos:      mgl32.Vec3{0, 0, 3},
		LightDir:       mgl32.Vec3{1, 0, 0},
		ViewportWidth:  64,
		ViewportHeight: 64,
	}
}

// beginLayerPass opens a render pass over a fresh offscreen target for
// exercising layer draws.
func beginLayerPass(t *testing.T, device hal.Device) (hal.CommandEncoder, hal.RenderPassEncoder, *gpu.RenderTarget) {
	t.Helper()
	rt := &gpu.RenderTarget{}
	if err := rt.Ensure(device, 64, 64); err != nil {
		t.Fatalf("Ensure target failed: %v", err)
	}
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "layer_test_encoder"})
	if err != nil {
		rt.Destroy(device)
		t.Fatalf("CreateCommandEncoder failed: %v", err)
	}
	if err := encoder.BeginEncoding("layer_test"); err != nil {
		rt.Destroy(device)
		t.Fatalf("BeginEncoding failed: %v", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "layer_test_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       rt.ColorView(),
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{A: 1},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            rt.DepthView(),
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 1.0,
			StencilLoadOp:   gputypes.LoadOpClear,
			StencilStoreOp:  gputypes.StoreOpDiscard,
		},
	})
	return encoder, rp, rt
}

func TestPointLayerData(t *testing.T) {
	l := NewPointLayer("cities", "Major cities")
	if l.ID() != "cities" {
		t.Errorf("ID = %q, want cities", l.ID())
	}
	if l.Name() != "Major cities" {
		t.Errorf("Name = %q, want Major cities", l.Name())
	}
	if l.Count() != 0 {
		t.Errorf("initial Count = %d, want 0", l.Count())
	}

	l.AddPoint(Point{Lon: 139.69, Lat: 35.69, Color: [4]float32{1, 0, 0, 1}, Size: 2, Payload: "Tokyo"})
	l.AddPoint(Point{Lon: -74.01, Lat: 40.71, Color: [4]float32{0, 1, 0, 1}, Size: 1})
	if l.Count() != 2 {
		t.Errorf("Count = %d, want 2", l.Count())
	}

	l.SetPoints([]Point{{Lon: 0, Lat: 0, Size: 1}})
	if l.Count() != 1 {
		t.Errorf("Count after SetPoints = %d, want 1", l.Count())
	}

	l.Clear()
	if l.Count() != 0 {
		t.Errorf("Count after Clear = %d, want 0", l.Count())
	}
}

func TestPointLayerDefensiveNoOps(t *testing.T) {
	l := NewPointLayer("early", "")
	l.AddPoint(Point{Size: 1})

	// Safe before Initialize.
	l.Update(0.016)
	l.Render(nil, testFrameState())
	l.Destroy()
}

func TestPointLayerRenderCities(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	l := NewPointLayer("cities", "Major cities")
	for _, c := range geomath.SampleCities() {
		l.AddPoint(Point{
			Lon:     c.Lon,
			Lat:     c.Lat,
			Color:   [4]float32{1, 0.7, 0.2, 1},
			Size:    1 + float32(c.Population)/40_000_000,
			Payload: c,
		})
	}
	if l.Count() != 12 {
		t.Fatalf("Count = %d, want 12", l.Count())
	}

	if err := l.Initialize(device, queue); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer l.Destroy()

	// Double initialize is rejected.
	if err := l.Initialize(device, queue); err == nil {
		t.Error("second Initialize should fail")
	}

	encoder, rp, rt := beginLayerPass(t, device)
	defer rt.Destroy(device)

	l.Render(rp, testFrameState())
	rp.End()
	if err := gpu.Submit(device, queue, encoder); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
}

func TestPointLayerDirtyRebuild(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	l := NewPointLayer("dots", "")
	l.AddPoint(Point{Lon: 10, Lat: 20, Size: 1})
	if err := l.Initialize(device, queue); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer l.Destroy()

	encoder, rp, rt := beginLayerPass(t, device)
	defer rt.Destroy(device)

	fs := testFrameState()
	l.Render(rp, fs)

	// Mutating the data marks the buffer dirty; the next render rebuilds
	// and draws the new instance count without error.
	l.AddPoint(Point{Lon: -30, Lat: 45, Size: 2})
	l.Render(rp, fs)

	// Emptying the layer makes Render a draw-nothing no-op.
	l.Clear()
	l.Render(rp, fs)

	rp.End()
	if err := gpu.Submit(device, queue, encoder); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
}

func TestPointLayerInvisibleSkipsRender(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	l := NewPointLayer("hidden", "")
	l.AddPoint(Point{Size: 1})
	if err := l.Initialize(device, queue); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer l.Destroy()

	l.SetVisible(false)
	// A nil pass would panic if the visibility check did not short
	// circuit the draw.
	l.Render(nil, testFrameState())
}

func TestPointLayerDestroyIdempotent(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	l := NewPointLayer("d", "")
	if err := l.Initialize(device, queue); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	l.Destroy()
	l.Destroy()

	// Render after Destroy is a no-op.
	l.Render(nil, testFrameState())
}

func TestPackLayerUniforms(t *testing.T) {
	fs := testFrameState()
	data := packLayerUniforms(fs, 0.5, [4]float32{4, 1.5, 0.03125, 0.03125})
	if len(data) != UniformBlockSize {
		t.Fatalf("uniform block size = %d, want %d", len(data), UniformBlockSize)
	}

	// camera.w carries the opacity, directly after the matrix.
	opacityOff := 64 + 12
	if data[opacityOff] != 0 || data[opacityOff+1] != 0 ||
		data[opacityOff+2] != 0 || data[opacityOff+3] != 0x3f {
		t.Errorf("opacity bytes = %v, want float32(0.5) LE", data[opacityOff:opacityOff+4])
	}
	// params.x = 4.
	paramsOff := 64 + 16
	if data[paramsOff+3] != 0x40 || data[paramsOff+2] != 0x80 {
		t.Errorf("params.x bytes = %v, want float32(4) LE", data[paramsOff:paramsOff+4])
	}
}
