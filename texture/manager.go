package texture

import (
	"context"
	"fmt"
	"image"
	"log"
	"net/http"
	"sync"
	"time"

	// Register decoders for the formats earth imagery commonly ships in.
	_ "image/jpeg"
	_ "image/png"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/cuijiying/webgpu-geo/internal/cache"
)

// Reserved cache keys for the built-in textures.
const (
	KeyDefaultEarth  = "default:earth"
	KeyDefaultNormal = "default:normal"
)

// maxTextureDim bounds downloaded imagery; larger sources are rescaled.
const maxTextureDim = 4096

// SamplerConfig identifies a sampler variant. The zero value is the default
// globe sampler: clamped addressing with linear filtering.
type SamplerConfig struct {
	Repeat  bool
	Nearest bool
}

// Manager creates and caches textures and samplers for one device.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue
	client *http.Client

	textures  *cache.Cache[string, *Texture]
	samplers  *cache.Cache[SamplerConfig, hal.Sampler]
	destroyed bool
}

// NewManager creates a texture manager for the given device and queue.
func NewManager(device hal.Device, queue hal.Queue) *Manager {
	return &Manager{
		device:   device,
		queue:    queue,
		client:   &http.Client{Timeout: 30 * time.Second},
		textures: cache.New[string, *Texture](),
		samplers: cache.New[SamplerConfig, hal.Sampler](),
	}
}

// SetHTTPClient replaces the HTTP client used by LoadFromURL.
func (m *Manager) SetHTTPClient(client *http.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if client != nil {
		m.client = client
	}
}

// DefaultEarth returns the procedural earth texture, creating and caching
// it on first use.
func (m *Manager) DefaultEarth() (*Texture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return nil, fmt.Errorf("texture: manager destroyed")
	}
	return m.textures.GetOrCreate(KeyDefaultEarth, func() (*Texture, error) {
		pixels := generateEarthRGBA(defaultEarthWidth, defaultEarthHeight)
		return uploadRGBA(m.device, m.queue, "earth_default", pixels, defaultEarthWidth, defaultEarthHeight)
	})
}

// DefaultNormal returns the flat normal map, creating and caching it on
// first use.
func (m *Manager) DefaultNormal() (*Texture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return nil, fmt.Errorf("texture: manager destroyed")
	}
	return m.textures.GetOrCreate(KeyDefaultNormal, func() (*Texture, error) {
		pixels := generateFlatNormalRGBA(4, 4)
		return uploadRGBA(m.device, m.queue, "normal_default", pixels, 4, 4)
	})
}

// Get returns a cached texture by key.
func (m *Manager) Get(key string) (*Texture, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return nil, false
	}
	return m.textures.Get(key)
}

// LoadFromURL fetches, decodes, and uploads an image, caching it under the
// URL. A cached entry is returned without a network round-trip. Decode
// failures and non-200 responses are returned as errors; callers normally
// fall back to DefaultEarth.
func (m *Manager) LoadFromURL(ctx context.Context, url string) (*Texture, error) {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return nil, fmt.Errorf("texture: manager destroyed")
	}
	if tex, ok := m.textures.Get(url); ok {
		m.mu.Unlock()
		return tex, nil
	}
	client := m.client
	m.mu.Unlock()

	// Fetch and decode outside the lock; uploads are quick, downloads
	// are not.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("texture: request %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("texture: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("texture: fetch %s: status %s", url, resp.Status)
	}

	img, format, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", url, err)
	}
	pixels, w, h := imageToRGBA(img, maxTextureDim)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return nil, fmt.Errorf("texture: manager destroyed")
	}
	tex, err := m.textures.GetOrCreate(url, func() (*Texture, error) {
		return uploadRGBA(m.device, m.queue, "earth_url", pixels, w, h)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("texture: loaded %s (%s, %dx%d)", url, format, w, h)
	return tex, nil
}

// Sampler returns the cached sampler for the given configuration, creating
// it on first use.
func (m *Manager) Sampler(cfg SamplerConfig) (hal.Sampler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return nil, fmt.Errorf("texture: manager destroyed")
	}
	return m.samplers.GetOrCreate(cfg, func() (hal.Sampler, error) {
		address := gputypes.AddressModeClampToEdge
		if cfg.Repeat {
			address = gputypes.AddressModeRepeat
		}
		filter := gputypes.FilterModeLinear
		if cfg.Nearest {
			filter = gputypes.FilterModeNearest
		}
		sampler, err := m.device.CreateSampler(&hal.SamplerDescriptor{
			Label:        fmt.Sprintf("sampler_repeat=%v_nearest=%v", cfg.Repeat, cfg.Nearest),
			AddressModeU: address,
			AddressModeV: address,
			AddressModeW: address,
			MagFilter:    filter,
			MinFilter:    filter,
			MipmapFilter: filter,
		})
		if err != nil {
			return nil, fmt.Errorf("texture: create sampler: %w", err)
		}
		return sampler, nil
	})
}

// Stats returns hit/miss counters for the texture cache.
func (m *Manager) Stats() cache.Stats {
	return m.textures.Stats()
}

// Destroy releases all cached textures and samplers. Safe to call multiple
// times.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return
	}
	m.destroyed = true

	m.textures.Clear(func(t *Texture) { t.destroy(m.device) })
	m.samplers.Clear(func(s hal.Sampler) { m.device.DestroySampler(s) })
}
