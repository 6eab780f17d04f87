package layer

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/cuijiying/webgpu-geo/globe"
)

func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// fakeLayer is a Layer stub that records lifecycle calls.
type fakeLayer struct {
	Base
	initErr    error
	inited     bool
	destroyed  int
	updates    int
	renders    int
	renderSeen *[]string
}

func newFakeLayer(id string, z int) *fakeLayer {
	l := &fakeLayer{Base: NewBase(id, id)}
	l.SetZIndex(z)
	return l
}

func (f *fakeLayer) Initialize(device hal.Device, queue hal.Queue) error {
	if f.initErr != nil {
		return f.initErr
	}
	f.inited = true
	return nil
}

func (f *fakeLayer) Update(dt float64) { f.updates++ }

func (f *fakeLayer) Render(rp hal.RenderPassEncoder, fs *globe.FrameState) {
	f.renders++
	if f.renderSeen != nil {
		*f.renderSeen = append(*f.renderSeen, f.ID())
	}
}

func (f *fakeLayer) Destroy() { f.destroyed++ }

func TestManagerAddRemove(t *testing.T) {
	m := NewManager(nil, nil)
	defer m.Destroy()

	a := newFakeLayer("a", 0)
	if err := m.Add(a); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !a.inited {
		t.Error("Add should initialize the layer")
	}
	if m.Count() != 1 {
		t.Errorf("Count = %d, want 1", m.Count())
	}

	// Duplicate id rejected.
	if err := m.Add(newFakeLayer("a", 0)); err == nil {
		t.Error("duplicate id should be rejected")
	}
	if m.Count() != 1 {
		t.Errorf("Count after duplicate = %d, want 1", m.Count())
	}

	if got, ok := m.Get("a"); !ok || got != Layer(a) {
		t.Error("Get should return the added layer")
	}

	if !m.Remove("a") {
		t.Error("Remove of existing layer should return true")
	}
	if a.destroyed != 1 {
		t.Errorf("Remove should destroy the layer once, got %d", a.destroyed)
	}
	if m.Remove("a") {
		t.Error("Remove of missing layer should return false")
	}
}

func TestManagerAddNil(t *testing.T) {
	m := NewManager(nil, nil)
	defer m.Destroy()
	if err := m.Add(nil); err == nil {
		t.Error("Add(nil) should fail")
	}
}

func TestManagerInitFailureLeavesNoTrace(t *testing.T) {
	m := NewManager(nil, nil)
	defer m.Destroy()

	bad := newFakeLayer("bad", 0)
	bad.initErr = errors.New("pipeline exploded")
	if err := m.Add(bad); err == nil {
		t.Fatal("Add should propagate the initialization error")
	}
	if m.Count() != 0 {
		t.Errorf("Count after failed Add = %d, want 0", m.Count())
	}
	if _, ok := m.Get("bad"); ok {
		t.Error("failed layer should not be registered")
	}

	// The id is free for a retry.
	bad.initErr = nil
	if err := m.Add(bad); err != nil {
		t.Errorf("retry Add failed: %v", err)
	}
}

func TestManagerRenderOrder(t *testing.T) {
	m := NewManager(nil, nil)
	defer m.Destroy()

	var seen []string
	mk := func(id string, z int) *fakeLayer {
		l := newFakeLayer(id, z)
		l.renderSeen = &seen
		return l
	}

	// Added high-z first; render order must follow z, not insertion.
	if err := m.Add(mk("high", 5)); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(mk("low", 1)); err != nil {
		t.Fatal(err)
	}

	m.Render(nil, &globe.FrameState{})
	if len(seen) != 2 || seen[0] != "low" || seen[1] != "high" {
		t.Errorf("render order = %v, want [low high]", seen)
	}

	// Flipping z-index flips the order.
	seen = seen[:0]
	if !m.SetZIndex("low", 10) {
		t.Fatal("SetZIndex failed")
	}
	m.Render(nil, &globe.FrameState{})
	if len(seen) != 2 || seen[0] != "high" || seen[1] != "low" {
		t.Errorf("render order after SetZIndex = %v, want [high low]", seen)
	}
}

func TestManagerEqualZKeepsInsertionOrder(t *testing.T) {
	m := NewManager(nil, nil)
	defer m.Destroy()

	var seen []string
	for _, id := range []string{"first", "second", "third"} {
		l := newFakeLayer(id, 3)
		l.renderSeen = &seen
		if err := m.Add(l); err != nil {
			t.Fatal(err)
		}
	}

	m.Render(nil, &globe.FrameState{})
	want := []string{"first", "second", "third"}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("render order = %v, want %v", seen, want)
		}
	}
}

func TestManagerMoveToTopBottom(t *testing.T) {
	m := NewManager(nil, nil)
	defer m.Destroy()

	for _, id := range []string{"a", "b", "c"} {
		if err := m.Add(newFakeLayer(id, 0)); err != nil {
			t.Fatal(err)
		}
	}

	if !m.MoveToTop("a") {
		t.Fatal("MoveToTop failed")
	}
	ordered := m.Ordered()
	if ordered[len(ordered)-1].ID() != "a" {
		t.Errorf("after MoveToTop last layer = %q, want a", ordered[len(ordered)-1].ID())
	}

	if !m.MoveToBottom("c") {
		t.Fatal("MoveToBottom failed")
	}
	ordered = m.Ordered()
	if ordered[0].ID() != "c" {
		t.Errorf("after MoveToBottom first layer = %q, want c", ordered[0].ID())
	}

	if m.MoveToTop("missing") || m.MoveToBottom("missing") {
		t.Error("moves of unknown ids should return false")
	}
}

func TestManagerMovesSpliceOrderOnly(t *testing.T) {
	m := NewManager(nil, nil)
	defer m.Destroy()

	low := newFakeLayer("low", 1)
	high := newFakeLayer("high", 5)
	if err := m.Add(low); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(high); err != nil {
		t.Fatal(err)
	}

	// Moving splices the order sequence without rewriting z-indexes, so a
	// low-z layer stays below a high-z layer even after MoveToTop.
	if !m.MoveToTop("low") {
		t.Fatal("MoveToTop failed")
	}
	if low.ZIndex() != 1 {
		t.Errorf("MoveToTop changed zIndex to %d, want 1", low.ZIndex())
	}
	ordered := m.Ordered()
	if ordered[0].ID() != "low" || ordered[1].ID() != "high" {
		t.Errorf("order after MoveToTop = [%s %s], want [low high]", ordered[0].ID(), ordered[1].ID())
	}

	if !m.MoveToBottom("high") {
		t.Fatal("MoveToBottom failed")
	}
	if high.ZIndex() != 5 {
		t.Errorf("MoveToBottom changed zIndex to %d, want 5", high.ZIndex())
	}

	// Among equal z-indexes the splice position decides.
	mid := newFakeLayer("mid", 1)
	if err := m.Add(mid); err != nil {
		t.Fatal(err)
	}
	if !m.MoveToBottom("low") {
		t.Fatal("MoveToBottom failed")
	}
	ordered = m.Ordered()
	if ordered[0].ID() != "low" || ordered[1].ID() != "mid" {
		t.Errorf("equal-z order = [%s %s], want [low mid]", ordered[0].ID(), ordered[1].ID())
	}
}

func TestManagerSkipsInvisibleLayers(t *testing.T) {
	m := NewManager(nil, nil)
	defer m.Destroy()

	l := newFakeLayer("hidden", 0)
	if err := m.Add(l); err != nil {
		t.Fatal(err)
	}
	l.SetVisible(false)

	m.Render(nil, &globe.FrameState{})
	if l.renders != 0 {
		t.Errorf("invisible layer rendered %d times, want 0", l.renders)
	}

	m.Update(0.016)
	if l.updates != 0 {
		t.Errorf("invisible layer updated %d times, want 0", l.updates)
	}

	l.SetVisible(true)
	m.Update(0.016)
	if l.updates != 1 {
		t.Errorf("visible layer updated %d times, want 1", l.updates)
	}
}

func TestManagerClearAndDestroy(t *testing.T) {
	m := NewManager(nil, nil)

	a := newFakeLayer("a", 0)
	b := newFakeLayer("b", 0)
	if err := m.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(b); err != nil {
		t.Fatal(err)
	}

	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count after Clear = %d, want 0", m.Count())
	}
	if a.destroyed != 1 || b.destroyed != 1 {
		t.Error("Clear should destroy all layers")
	}

	// Adding after Clear still works.
	c := newFakeLayer("c", 0)
	if err := m.Add(c); err != nil {
		t.Fatal(err)
	}

	m.Destroy()
	m.Destroy()
	if c.destroyed != 1 {
		t.Error("Destroy should destroy remaining layers once")
	}
	if err := m.Add(newFakeLayer("d", 0)); err == nil {
		t.Error("Add after Destroy should fail")
	}
}

func TestBaseOpacityClamp(t *testing.T) {
	b := NewBase("test", "Test")
	if b.Opacity() != 1 {
		t.Errorf("default opacity = %v, want 1", b.Opacity())
	}

	b.SetOpacity(1.5)
	if b.Opacity() != 1 {
		t.Errorf("opacity after SetOpacity(1.5) = %v, want 1", b.Opacity())
	}
	b.SetOpacity(-0.5)
	if b.Opacity() != 0 {
		t.Errorf("opacity after SetOpacity(-0.5) = %v, want 0", b.Opacity())
	}
	b.SetOpacity(0.25)
	if b.Opacity() != 0.25 {
		t.Errorf("opacity = %v, want 0.25", b.Opacity())
	}
}
