package layer

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/cuijiying/webgpu-geo/gpu"
)

// pipelineResources bundles the GPU objects every layer pipeline needs:
// compiled shader, layouts, the render pipeline, and the per-layer uniform
// buffer with its bind group.
type pipelineResources struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup
}

// createLayerPipeline builds a premultiplied-alpha render pipeline over the
// shared layer uniform block. Depth testing is on, depth writes off, so
// overlays never punch holes in each other.
func createLayerPipeline(device hal.Device, label, wgsl string, topology gputypes.PrimitiveTopology, vertexLayout []gputypes.VertexBufferLayout) (*pipelineResources, error) {
	res := &pipelineResources{}

	shaderMod, err := gpu.CreateShaderModule(device, label+"_shader", wgsl)
	if err != nil {
		return nil, err
	}
	res.shader = shaderMod

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label + "_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	})
	if err != nil {
		res.destroy(device)
		return nil, fmt.Errorf("create %s bind layout: %w", label, err)
	}
	res.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		res.destroy(device)
		return nil, fmt.Errorf("create %s pipeline layout: %w", label, err)
	}
	res.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shaderMod,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout,
		},
		Fragment: &hal.FragmentState{
			Module:     shaderMod,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    gpu.ColorFormat,
				Blend:     &premulBlend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            gpu.DepthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilReadMask:  0x00,
			StencilWriteMask: 0x00,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		res.destroy(device)
		return nil, fmt.Errorf("create %s pipeline: %w", label, err)
	}
	res.pipeline = pipeline

	uniformBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_uniform",
		Size:  UniformBlockSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		res.destroy(device)
		return nil, fmt.Errorf("create %s uniform buffer: %w", label, err)
	}
	res.uniformBuf = uniformBuf

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label + "_bind",
		Layout: bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: UniformBlockSize,
			}},
		},
	})
	if err != nil {
		res.destroy(device)
		return nil, fmt.Errorf("create %s bind group: %w", label, err)
	}
	res.bindGroup = bindGroup

	return res, nil
}

// destroy releases resources in reverse creation order. Safe on partially
// built sets.
func (r *pipelineResources) destroy(device hal.Device) {
	if device == nil {
		return
	}
	if r.bindGroup != nil {
		device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.uniformBuf != nil {
		device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	if r.pipeline != nil {
		device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.bindLayout != nil {
		device.DestroyBindGroupLayout(r.bindLayout)
		r.bindLayout = nil
	}
	if r.shader != nil {
		device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}
