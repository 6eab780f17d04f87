// Package texture manages GPU textures and samplers for the globe: a
// procedural fallback earth texture, a flat normal map, and images fetched
// over HTTP. Decoded images are converted to RGBA and uploaded once; repeat
// requests are served from the cache.
package texture

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	xdraw "golang.org/x/image/draw"
)

// Texture is an uploaded 2D color texture with its sampleable view.
type Texture struct {
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

// View returns the sampleable texture view.
func (t *Texture) View() hal.TextureView { return t.view }

// Size returns the texture dimensions in pixels.
func (t *Texture) Size() (uint32, uint32) { return t.width, t.height }

func (t *Texture) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// uploadRGBA creates an RGBA8 texture and uploads tightly packed pixels.
func uploadRGBA(device hal.Device, queue hal.Queue, label string, pixels []byte, w, h uint32) (*Texture, error) {
	if uint64(len(pixels)) != uint64(w)*uint64(h)*4 {
		return nil, fmt.Errorf("texture: pixel data size %d does not match %dx%d", len(pixels), w, h)
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("texture: create %s: %w", label, err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("texture: create %s view: %w", label, err)
	}

	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)

	return &Texture{tex: tex, view: view, width: w, height: h}, nil
}

// imageToRGBA converts any decoded image to tightly packed RGBA bytes,
// rescaling to maxDim on the longest side when the source is larger.
func imageToRGBA(img image.Image, maxDim int) ([]byte, uint32, uint32) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if maxDim > 0 && (w > maxDim || h > maxDim) {
		scale := float64(maxDim) / float64(w)
		if h > w {
			scale = float64(maxDim) / float64(h)
		}
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == bounds.Dx() && h == bounds.Dy() {
		xdraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, xdraw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(rgba, rgba.Bounds(), img, bounds, xdraw.Src, nil)
	}
	return rgba.Pix, uint32(w), uint32(h)
}
