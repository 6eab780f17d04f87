package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// CreateAndUploadBuffer creates a GPU buffer and uploads data to it.
func CreateAndUploadBuffer(device hal.Device, queue hal.Queue, label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// CreateVertexBuffer creates a vertex buffer and uploads data to it.
func CreateVertexBuffer(device hal.Device, queue hal.Queue, label string, data []byte) (hal.Buffer, error) {
	return CreateAndUploadBuffer(device, queue, label, data,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
}

// CreateIndexBuffer creates an index buffer and uploads data to it.
func CreateIndexBuffer(device hal.Device, queue hal.Queue, label string, data []byte) (hal.Buffer, error) {
	return CreateAndUploadBuffer(device, queue, label, data,
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
}

// CreateUniformBuffer creates a uniform buffer and uploads data to it.
func CreateUniformBuffer(device hal.Device, queue hal.Queue, label string, data []byte) (hal.Buffer, error) {
	return CreateAndUploadBuffer(device, queue, label, data,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
}
