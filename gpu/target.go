package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ColorFormat is the color attachment format used by all render pipelines.
const ColorFormat = gputypes.TextureFormatBGRA8Unorm

// DepthFormat is the depth attachment format used by all render pipelines.
const DepthFormat = gputypes.TextureFormatDepth24PlusStencil8

// RenderTarget holds the color and depth textures for one output. It has
// two modes: offscreen (owns a readable color texture) and surface (renders
// into a caller-provided texture view; only the depth texture is owned).
//
// Textures are recreated lazily when the requested size changes.
type RenderTarget struct {
	colorTex  hal.Texture
	colorView hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView

	surfaceView hal.TextureView

	width  uint32
	height uint32
}

// SetSurfaceTarget switches the target to render into the given view.
// Cached textures are invalidated when the mode or size changes. The caller
// retains ownership of the view. Pass nil to return to offscreen mode.
func (t *RenderTarget) SetSurfaceTarget(device hal.Device, view hal.TextureView, w, h uint32) {
	modeChanged := (view == nil) != (t.surfaceView == nil)
	sizeChanged := w != t.width || h != t.height
	if modeChanged || sizeChanged {
		t.Destroy(device)
	}
	t.surfaceView = view
	if view != nil {
		t.width = w
		t.height = h
	}
}

// Ensure creates or recreates the textures for the requested size. A no-op
// when the size matches and textures exist. In surface mode only the depth
// texture is created.
func (t *RenderTarget) Ensure(device hal.Device, w, h uint32) error {
	if w == 0 || h == 0 {
		return fmt.Errorf("gpu: invalid render target size %dx%d", w, h)
	}
	if t.width == w && t.height == h && t.depthTex != nil {
		if t.surfaceView != nil || t.colorTex != nil {
			return nil
		}
	}
	surfaceView := t.surfaceView
	t.Destroy(device)
	t.surfaceView = surfaceView

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	if t.surfaceView == nil {
		colorTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         "target_color",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        ColorFormat,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			return fmt.Errorf("gpu: create color texture: %w", err)
		}
		t.colorTex = colorTex

		colorView, err := device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
			Label: "target_color_view",
		})
		if err != nil {
			t.Destroy(device)
			return fmt.Errorf("gpu: create color view: %w", err)
		}
		t.colorView = colorView
	}

	depthTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "target_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Destroy(device)
		return fmt.Errorf("gpu: create depth texture: %w", err)
	}
	t.depthTex = depthTex

	depthView, err := device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label: "target_depth_view",
	})
	if err != nil {
		t.Destroy(device)
		return fmt.Errorf("gpu: create depth view: %w", err)
	}
	t.depthView = depthView

	t.width = w
	t.height = h
	return nil
}

// ColorView returns the view to use as the color attachment: the surface
// view when set, otherwise the offscreen color view.
func (t *RenderTarget) ColorView() hal.TextureView {
	if t.surfaceView != nil {
		return t.surfaceView
	}
	return t.colorView
}

// ColorTexture returns the offscreen color texture, or nil in surface mode.
func (t *RenderTarget) ColorTexture() hal.Texture { return t.colorTex }

// DepthView returns the depth attachment view.
func (t *RenderTarget) DepthView() hal.TextureView { return t.depthView }

// Size returns the current target dimensions.
func (t *RenderTarget) Size() (uint32, uint32) { return t.width, t.height }

// Offscreen reports whether the target owns a readable color texture.
func (t *RenderTarget) Offscreen() bool { return t.surfaceView == nil }

// Destroy releases owned textures in reverse creation order. The surface
// view is not destroyed. Safe to call multiple times.
func (t *RenderTarget) Destroy(device hal.Device) {
	if device == nil {
		return
	}
	if t.depthView != nil {
		device.DestroyTextureView(t.depthView)
		t.depthView = nil
	}
	if t.depthTex != nil {
		device.DestroyTexture(t.depthTex)
		t.depthTex = nil
	}
	if t.colorView != nil {
		device.DestroyTextureView(t.colorView)
		t.colorView = nil
	}
	if t.colorTex != nil {
		device.DestroyTexture(t.colorTex)
		t.colorTex = nil
	}
	t.surfaceView = nil
	t.width = 0
	t.height = 0
}
