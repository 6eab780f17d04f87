package globe

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/cuijiying/webgpu-geo/gpu"
	"github.com/cuijiying/webgpu-geo/shader"
)

// DefaultDetail is the sphere subdivision count used when none is given.
const DefaultDetail = 64

// GridState tracks the lazily built grid overlay.
type GridState int

const (
	// GridAbsent means the grid has not been requested yet.
	GridAbsent GridState = iota

	// GridBuilding means grid resources are being created.
	GridBuilding

	// GridActive means the grid is ready to record.
	GridActive
)

// Renderer owns the sphere and grid pipelines, their mesh buffers, and the
// shared uniform buffer. Create with NewRenderer, then Init once a device
// is available.
//
// Renderer is safe for concurrent use; recording methods are defensive
// no-ops before Init and after Destroy.
type Renderer struct {
	mu sync.Mutex

	device      hal.Device
	queue       hal.Queue
	initialized bool

	detail int

	// Sphere pipeline.
	sphereShader hal.ShaderModule
	sphereLayout hal.BindGroupLayout
	spherePipe   hal.PipelineLayout
	spherePipeln hal.RenderPipeline

	vertBuf    hal.Buffer
	idxBuf     hal.Buffer
	indexCount uint32

	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup

	// Grid pipeline, built lazily by EnsureGrid.
	gridShader  hal.ShaderModule
	gridLayout  hal.BindGroupLayout
	gridPipe    hal.PipelineLayout
	gridPipeln  hal.RenderPipeline
	gridVerts   hal.Buffer
	gridCount   uint32
	gridBinding hal.BindGroup
	gridState   GridState
}

// NewRenderer creates an uninitialized renderer. detail is the sphere
// subdivision count per axis; values below 2 use DefaultDetail.
func NewRenderer(detail int) *Renderer {
	if detail < 2 {
		detail = DefaultDetail
	}
	return &Renderer{detail: detail}
}

// Init compiles the sphere pipeline, uploads the mesh, and creates the
// bind group over the given earth texture view and sampler. Calling Init
// on an initialized renderer is an error.
func (r *Renderer) Init(device hal.Device, queue hal.Queue, texView hal.TextureView, sampler hal.Sampler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return fmt.Errorf("globe: renderer already initialized")
	}
	r.device = device
	r.queue = queue

	if err := r.createSpherePipeline(); err != nil {
		r.destroyLocked()
		return err
	}
	if err := r.uploadSphereMesh(); err != nil {
		r.destroyLocked()
		return err
	}
	if err := r.createBindGroup(texView, sampler); err != nil {
		r.destroyLocked()
		return err
	}

	r.initialized = true
	return nil
}

// Initialized reports whether Init has completed.
func (r *Renderer) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// IndexCount returns the sphere mesh index count.
func (r *Renderer) IndexCount() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexCount
}

func (r *Renderer) createSpherePipeline() error {
	shaderMod, err := gpu.CreateShaderModule(r.device, "globe_shader", shader.Globe(true))
	if err != nil {
		return err
	}
	r.sphereShader = shaderMod

	layout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "globe_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("globe: create bind group layout: %w", err)
	}
	r.sphereLayout = layout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "globe_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.sphereLayout},
	})
	if err != nil {
		return fmt.Errorf("globe: create pipeline layout: %w", err)
	}
	r.spherePipe = pipeLayout

	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "globe_pipeline",
		Layout: r.spherePipe,
		Vertex: hal.VertexState{
			Module:     r.sphereShader,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: SphereVertexStride,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
					{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1}, // normal
					{Format: gputypes.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2}, // uv
				},
			}},
		},
		Fragment: &hal.FragmentState{
			Module:     r.sphereShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    gpu.ColorFormat,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            gpu.DepthFormat,
			DepthWriteEnabled: true,
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
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeBack,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("globe: create pipeline: %w", err)
	}
	r.spherePipeln = pipeline
	return nil
}

func (r *Renderer) uploadSphereMesh() error {
	mesh := EnhancedSphere(r.detail)

	vertBuf, err := gpu.CreateVertexBuffer(r.device, r.queue, "globe_verts", float32Bytes(mesh.Vertices))
	if err != nil {
		return err
	}
	r.vertBuf = vertBuf

	idxBuf, err := gpu.CreateIndexBuffer(r.device, r.queue, "globe_indices", uint32Bytes(mesh.Indices))
	if err != nil {
		return err
	}
	r.idxBuf = idxBuf
	r.indexCount = uint32(len(mesh.Indices))
	return nil
}

func (r *Renderer) createBindGroup(texView hal.TextureView, sampler hal.Sampler) error {
	uniformBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "globe_uniform",
		Size:  UniformBlockSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("globe: create uniform buffer: %w", err)
	}
	r.uniformBuf = uniformBuf

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "globe_bind",
		Layout: r.sphereLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: r.uniformBuf.NativeHandle(), Offset: 0, Size: UniformBlockSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: texView.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("globe: create bind group: %w", err)
	}
	r.bindGroup = bindGroup
	return nil
}

// EnsureGrid builds the grid pipeline and vertex buffer if they do not
// exist. Returns the resulting grid state.
func (r *Renderer) EnsureGrid() (GridState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return GridAbsent, fmt.Errorf("globe: renderer not initialized")
	}
	if r.gridState == GridActive {
		return GridActive, nil
	}
	r.gridState = GridBuilding

	if err := r.createGridPipeline(); err != nil {
		r.destroyGridLocked()
		r.gridState = GridAbsent
		return GridAbsent, err
	}
	r.gridState = GridActive
	return GridActive, nil
}

// GridState returns the current grid overlay state.
func (r *Renderer) GridState() GridState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gridState
}

// DropGrid releases grid resources, returning the state to GridAbsent.
func (r *Renderer) DropGrid() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyGridLocked()
	r.gridState = GridAbsent
}

func (r *Renderer) createGridPipeline() error {
	shaderMod, err := gpu.CreateShaderModule(r.device, "grid_shader", shader.Grid())
	if err != nil {
		return err
	}
	r.gridShader = shaderMod

	layout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "grid_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	})
	if err != nil {
		return fmt.Errorf("globe: create grid bind group layout: %w", err)
	}
	r.gridLayout = layout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "grid_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.gridLayout},
	})
	if err != nil {
		return fmt.Errorf("globe: create grid pipeline layout: %w", err)
	}
	r.gridPipe = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "grid_pipeline",
		Layout: r.gridPipe,
		Vertex: hal.VertexState{
			Module:     r.gridShader,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: NaiveVertexStride,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				},
			}},
		},
		Fragment: &hal.FragmentState{
			Module:     r.gridShader,
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
			Topology: gputypes.PrimitiveTopologyLineList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("globe: create grid pipeline: %w", err)
	}
	r.gridPipeln = pipeline

	gridData := GridLines()
	gridBuf, err := gpu.CreateVertexBuffer(r.device, r.queue, "grid_verts", float32Bytes(gridData))
	if err != nil {
		return err
	}
	r.gridVerts = gridBuf
	r.gridCount = uint32(len(gridData) / 3)

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "grid_bind",
		Layout: r.gridLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: r.uniformBuf.NativeHandle(), Offset: 0, Size: UniformBlockSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("globe: create grid bind group: %w", err)
	}
	r.gridBinding = bindGroup
	return nil
}

// UpdateUniforms writes the frame state into the shared uniform buffer.
// Must be called before recording draws for the frame.
func (r *Renderer) UpdateUniforms(fs *FrameState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized || r.uniformBuf == nil {
		return
	}
	r.queue.WriteBuffer(r.uniformBuf, 0, packUniforms(fs))
}

// BeginFrame starts the frame's render pass on the given target: color
// cleared to clearColor, depth cleared to 1. Returns nil when the renderer
// is not initialized.
func (r *Renderer) BeginFrame(encoder hal.CommandEncoder, target *gpu.RenderTarget, clearColor [4]float64) hal.RenderPassEncoder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return nil
	}
	return encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "globe_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    target.ColorView(),
			LoadOp:  gputypes.LoadOpClear,
			StoreOp: gputypes.StoreOpStore,
			ClearValue: gputypes.Color{
				R: clearColor[0], G: clearColor[1], B: clearColor[2], A: clearColor[3],
			},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              target.DepthView(),
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	})
}

// RecordGlobe records the sphere draw into the render pass. No-op when the
// renderer is not initialized.
func (r *Renderer) RecordGlobe(rp hal.RenderPassEncoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized || rp == nil {
		return
	}
	rp.SetPipeline(r.spherePipeln)
	rp.SetBindGroup(0, r.bindGroup, nil)
	rp.SetVertexBuffer(0, r.vertBuf, 0)
	rp.SetIndexBuffer(r.idxBuf, gputypes.IndexFormatUint32, 0)
	rp.DrawIndexed(r.indexCount, 1, 0, 0, 0)
}

// RecordGrid records the grid overlay draw. No-op unless the grid is
// active.
func (r *Renderer) RecordGrid(rp hal.RenderPassEncoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized || r.gridState != GridActive || rp == nil {
		return
	}
	rp.SetPipeline(r.gridPipeln)
	rp.SetBindGroup(0, r.gridBinding, nil)
	rp.SetVertexBuffer(0, r.gridVerts, 0)
	rp.Draw(r.gridCount, 1, 0, 0)
}

// Destroy releases all GPU resources. Safe to call multiple times.
func (r *Renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyLocked()
}

func (r *Renderer) destroyLocked() {
	if r.device == nil {
		return
	}
	r.destroyGridLocked()

	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.uniformBuf != nil {
		r.device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	if r.idxBuf != nil {
		r.device.DestroyBuffer(r.idxBuf)
		r.idxBuf = nil
	}
	if r.vertBuf != nil {
		r.device.DestroyBuffer(r.vertBuf)
		r.vertBuf = nil
	}
	if r.spherePipeln != nil {
		r.device.DestroyRenderPipeline(r.spherePipeln)
		r.spherePipeln = nil
	}
	if r.spherePipe != nil {
		r.device.DestroyPipelineLayout(r.spherePipe)
		r.spherePipe = nil
	}
	if r.sphereLayout != nil {
		r.device.DestroyBindGroupLayout(r.sphereLayout)
		r.sphereLayout = nil
	}
	if r.sphereShader != nil {
		r.device.DestroyShaderModule(r.sphereShader)
		r.sphereShader = nil
	}
	r.indexCount = 0
	r.initialized = false
}

func (r *Renderer) destroyGridLocked() {
	if r.device == nil {
		return
	}
	if r.gridBinding != nil {
		r.device.DestroyBindGroup(r.gridBinding)
		r.gridBinding = nil
	}
	if r.gridVerts != nil {
		r.device.DestroyBuffer(r.gridVerts)
		r.gridVerts = nil
	}
	if r.gridPipeln != nil {
		r.device.DestroyRenderPipeline(r.gridPipeln)
		r.gridPipeln = nil
	}
	if r.gridPipe != nil {
		r.device.DestroyPipelineLayout(r.gridPipe)
		r.gridPipe = nil
	}
	if r.gridLayout != nil {
		r.device.DestroyBindGroupLayout(r.gridLayout)
		r.gridLayout = nil
	}
	if r.gridShader != nil {
		r.device.DestroyShaderModule(r.gridShader)
		r.gridShader = nil
	}
	r.gridCount = 0
}

// float32Bytes views a float32 slice as its little-endian byte
// representation without copying.
func float32Bytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*4)
}

// uint32Bytes views a uint32 slice as its byte representation without
// copying.
func uint32Bytes(u []uint32) []byte {
	if len(u) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&u[0])), len(u)*4)
}
