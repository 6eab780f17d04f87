// Package gpu wraps wgpu/hal device acquisition and the small set of
// resource helpers shared by the globe and layer pipelines: shader
// compilation, buffer upload, render targets, and pixel readback.
package gpu

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

var (
	// ErrNoBackend is returned when no GPU backend is registered.
	ErrNoBackend = errors.New("gpu: no backend available")

	// ErrNoAdapter is returned when the backend exposes no adapters.
	ErrNoAdapter = errors.New("gpu: no adapters found")

	// ErrDeviceClosed is returned when an operation is attempted on a
	// closed device.
	ErrDeviceClosed = errors.New("gpu: device closed")
)

// Device owns a hal device and queue plus the instance they were created
// from. When the device is shared (NewFromHAL), Close releases nothing.
//
// Device is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	adapterName string
	external    bool // shared device, not destroyed on Close
	closed      bool
}

// New acquires a GPU device from the first suitable adapter. Discrete and
// integrated GPUs are preferred over software adapters.
func New() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrNoBackend
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}

	log.Printf("gpu: device initialized (%s)", selected.Info.Name)
	return &Device{
		instance:    instance,
		device:      openDev.Device,
		queue:       openDev.Queue,
		adapterName: selected.Info.Name,
	}, nil
}

// NewFromHAL wraps an externally owned hal device and queue. Close will not
// destroy them.
func NewFromHAL(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, errors.New("gpu: nil device or queue")
	}
	return &Device{
		device:   device,
		queue:    queue,
		external: true,
	}, nil
}

// HAL returns the underlying hal device, or nil after Close.
func (d *Device) HAL() hal.Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device
}

// Queue returns the underlying hal queue, or nil after Close.
func (d *Device) Queue() hal.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue
}

// AdapterName returns the name of the selected adapter. Empty for shared
// devices.
func (d *Device) AdapterName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adapterName
}

// Closed reports whether Close has been called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close releases the device and instance. Safe to call multiple times.
// Shared devices (NewFromHAL) are not destroyed.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true

	if !d.external {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}
