package layer

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/cuijiying/webgpu-geo/globe"
)

// Manager owns a set of layers and renders them in z order. Layers with
// equal z-index keep their position in the order sequence, which starts
// as insertion order and can be spliced with MoveToTop and MoveToBottom.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	entries   map[string]Layer
	order     []string
	destroyed bool
}

// NewManager creates an empty layer manager bound to the given device.
func NewManager(device hal.Device, queue hal.Queue) *Manager {
	return &Manager{
		device:  device,
		queue:   queue,
		entries: make(map[string]Layer),
	}
}

// Add initializes the layer and registers it at the end of the order
// sequence. A duplicate id is rejected before initialization; an
// initialization failure leaves no trace of the layer in the manager.
func (m *Manager) Add(l Layer) error {
	if l == nil {
		return fmt.Errorf("layer: nil layer")
	}
	id := l.ID()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return fmt.Errorf("layer: manager destroyed")
	}
	if _, exists := m.entries[id]; exists {
		return fmt.Errorf("layer: duplicate id %q", id)
	}

	if err := l.Initialize(m.device, m.queue); err != nil {
		return fmt.Errorf("layer: initialize %q: %w", id, err)
	}

	m.entries[id] = l
	m.order = append(m.order, id)
	log.Printf("layer: added %q (z=%d)", id, l.ZIndex())
	return nil
}

// Remove destroys and unregisters the layer. Returns false when the id is
// unknown.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	l, ok := m.entries[id]
	if ok {
		delete(m.entries, id)
		m.spliceOutLocked(id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	l.Destroy()
	log.Printf("layer: removed %q", id)
	return true
}

// Get returns the layer with the given id.
func (m *Manager) Get(id string) (Layer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.entries[id]
	return l, ok
}

// Count returns the number of registered layers.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// SetZIndex changes a layer's stacking order. Returns false when the id is
// unknown.
func (m *Manager) SetZIndex(id string, z int) bool {
	l, ok := m.Get(id)
	if !ok {
		return false
	}
	l.SetZIndex(z)
	return true
}

// MoveToTop splices the layer to the end of the order sequence. Its
// z-index is untouched, so the move is only visible among layers of equal
// z-index. Returns false when the id is unknown.
func (m *Manager) MoveToTop(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return false
	}
	m.spliceOutLocked(id)
	m.order = append(m.order, id)
	return true
}

// MoveToBottom splices the layer to the front of the order sequence,
// leaving its z-index untouched. Returns false when the id is unknown.
func (m *Manager) MoveToBottom(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return false
	}
	m.spliceOutLocked(id)
	m.order = append([]string{id}, m.order...)
	return true
}

// spliceOutLocked removes id from the order sequence. Caller holds m.mu.
func (m *Manager) spliceOutLocked(id string) {
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

// Ordered returns the layers sorted by z-index; equal z-index values keep
// their order-sequence position.
func (m *Manager) Ordered() []Layer {
	m.mu.Lock()
	layers := make([]Layer, 0, len(m.order))
	for _, id := range m.order {
		layers = append(layers, m.entries[id])
	}
	m.mu.Unlock()

	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].ZIndex() < layers[j].ZIndex()
	})
	return layers
}

// Update advances all visible layers by dt seconds.
func (m *Manager) Update(dt float64) {
	for _, l := range m.Ordered() {
		if !l.Visible() {
			continue
		}
		l.Update(dt)
	}
}

// Render records all visible layers in z order.
func (m *Manager) Render(rp hal.RenderPassEncoder, fs *globe.FrameState) {
	for _, l := range m.Ordered() {
		if !l.Visible() {
			continue
		}
		l.Render(rp, fs)
	}
}

// Clear destroys and removes all layers.
func (m *Manager) Clear() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]Layer)
	m.order = nil
	m.mu.Unlock()

	for _, l := range entries {
		l.Destroy()
	}
}

// Destroy clears all layers and rejects further additions. Safe to call
// multiple times.
func (m *Manager) Destroy() {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return
	}
	m.destroyed = true
	entries := m.entries
	m.entries = make(map[string]Layer)
	m.order = nil
	m.mu.Unlock()

	for _, l := range entries {
		l.Destroy()
	}
}
