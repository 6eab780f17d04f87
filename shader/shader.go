// Package shader provides the WGSL sources for the globe, grid, and point
// pipelines. The package is stateless: every function returns source text for
// a fixed binding layout and the caller owns compilation.
//
// Binding layout (group 0):
//
//	binding 0: uniform block (vertex + fragment)
//	binding 1: color texture (fragment, lit globe only)
//	binding 2: sampler (fragment, lit globe only)
package shader

// Kind selects a pipeline shader.
type Kind int

const (
	// KindGlobeOpaque shades the naive sphere mesh (position only) with a
	// solid color and Lambertian lighting. The normal is derived from the
	// unit-sphere position in the vertex shader.
	KindGlobeOpaque Kind = iota

	// KindGlobeLitTextured shades the enhanced sphere mesh
	// (position + normal + uv) with a sampled color texture, Lambertian
	// diffuse, Blinn-Phong specular, a rim atmosphere term, Schlick
	// fresnel, Reinhard tone mapping, and gamma correction.
	KindGlobeLitTextured

	// KindGrid draws the latitude/longitude overlay as alpha-blended lines
	// with distance fade and a sinusoidal brightness pulse.
	KindGrid

	// KindPoint draws point records as camera-facing discs with a
	// smoothed circular mask.
	KindPoint

	// KindLine draws line records as alpha-blended line segments.
	KindLine
)

// String returns the kind's debug name.
func (k Kind) String() string {
	switch k {
	case KindGlobeOpaque:
		return "globe-opaque"
	case KindGlobeLitTextured:
		return "globe-lit-textured"
	case KindGrid:
		return "grid"
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	default:
		return "unknown"
	}
}

// Source returns the WGSL source for the given pipeline kind.
func Source(k Kind) string {
	switch k {
	case KindGlobeOpaque:
		return globeOpaqueWGSL
	case KindGlobeLitTextured:
		return globeLitWGSL
	case KindGrid:
		return gridWGSL
	case KindPoint:
		return pointWGSL
	case KindLine:
		return lineWGSL
	default:
		return ""
	}
}

// Globe returns the sphere shader, textured and lit when lit is true.
func Globe(lit bool) string {
	if lit {
		return Source(KindGlobeLitTextured)
	}
	return Source(KindGlobeOpaque)
}

// Grid returns the overlay grid shader.
func Grid() string { return Source(KindGrid) }

// Point returns the point layer shader.
func Point() string { return Source(KindPoint) }

// Line returns the line layer shader.
func Line() string { return Source(KindLine) }

// globeUniformsWGSL is the shared uniform block declaration for the globe
// and grid pipelines. The byte layout must match globe.UniformBlockSize.
const globeUniformsWGSL = `
struct Uniforms {
    model : mat4x4<f32>,
    view : mat4x4<f32>,
    proj : mat4x4<f32>,
    light : vec4<f32>,
    camera : vec4<f32>,
};

@group(0) @binding(0) var<uniform> u : Uniforms;
`

const globeOpaqueWGSL = globeUniformsWGSL + `
struct VSOut {
    @builtin(position) clip_pos : vec4<f32>,
    @location(0) normal : vec3<f32>,
};

@vertex
fn vs_main(@location(0) pos : vec3<f32>) -> VSOut {
    var out : VSOut;
    let world = u.model * vec4<f32>(pos, 1.0);
    out.normal = normalize((u.model * vec4<f32>(normalize(pos), 0.0)).xyz);
    out.clip_pos = u.proj * u.view * world;
    return out;
}

@fragment
fn fs_main(in : VSOut) -> @location(0) vec4<f32> {
    let n = normalize(in.normal);
    let l = normalize(u.light.xyz);
    let diffuse = max(dot(n, l), 0.0);
    let base = vec3<f32>(0.08, 0.26, 0.55);
    return vec4<f32>(base * (0.15 + 0.85 * diffuse), 1.0);
}
`

const globeLitWGSL = globeUniformsWGSL + `
@group(0) @binding(1) var earth_tex : texture_2d<f32>;
@group(0) @binding(2) var earth_samp : sampler;

struct VSOut {
    @builtin(position) clip_pos : vec4<f32>,
    @location(0) world_pos : vec3<f32>,
    @location(1) normal : vec3<f32>,
    @location(2) uv : vec2<f32>,
};

@vertex
fn vs_main(@location(0) pos : vec3<f32>,
           @location(1) nrm : vec3<f32>,
           @location(2) uv : vec2<f32>) -> VSOut {
    var out : VSOut;
    let world = u.model * vec4<f32>(pos, 1.0);
    out.world_pos = world.xyz;
    out.normal = normalize((u.model * vec4<f32>(nrm, 0.0)).xyz);
    out.uv = uv;
    out.clip_pos = u.proj * u.view * world;
    return out;
}

@fragment
fn fs_main(in : VSOut) -> @location(0) vec4<f32> {
    let n = normalize(in.normal);
    let l = normalize(u.light.xyz);
    let v = normalize(u.camera.xyz - in.world_pos);
    let h = normalize(l + v);

    let base = textureSample(earth_tex, earth_samp, in.uv).rgb;

    let diffuse = max(dot(n, l), 0.0);
    let specular = pow(max(dot(n, h), 0.0), 32.0) * 0.25;

    let rim = pow(1.0 - max(dot(n, v), 0.0), 3.0);
    let atmosphere = vec3<f32>(0.3, 0.5, 0.9) * rim * 0.6;

    let f0 = 0.04;
    let fresnel = f0 + (1.0 - f0) * pow(1.0 - max(dot(v, h), 0.0), 5.0);

    var color = base * (0.08 + diffuse) + vec3<f32>(specular * fresnel) + atmosphere;
    color = color / (color + vec3<f32>(1.0));
    color = pow(color, vec3<f32>(1.0 / 2.2));
    return vec4<f32>(color, 1.0);
}
`

const gridWGSL = globeUniformsWGSL + `
struct VSOut {
    @builtin(position) clip_pos : vec4<f32>,
    @location(0) world_pos : vec3<f32>,
};

@vertex
fn vs_main(@location(0) pos : vec3<f32>) -> VSOut {
    var out : VSOut;
    let world = u.model * vec4<f32>(pos, 1.0);
    out.world_pos = world.xyz;
    out.clip_pos = u.proj * u.view * world;
    return out;
}

@fragment
fn fs_main(in : VSOut) -> @location(0) vec4<f32> {
    let dist = length(u.camera.xyz - in.world_pos);
    let fade = 1.0 - smoothstep(2.0, 6.0, dist);
    let pulse = 0.75 + 0.25 * sin(u.light.w * 2.0);
    let alpha = 0.35 * fade * pulse;
    return vec4<f32>(vec3<f32>(0.4, 0.75, 1.0) * alpha, alpha);
}
`

// layerUniformsWGSL is the uniform block shared by the data layer pipelines.
// The byte layout must match layer.UniformBlockSize.
const layerUniformsWGSL = `
struct LayerUniforms {
    view_proj : mat4x4<f32>,
    camera : vec4<f32>,
    params : vec4<f32>,
};

@group(0) @binding(0) var<uniform> u : LayerUniforms;
`

const pointWGSL = layerUniformsWGSL + `
struct VSOut {
    @builtin(position) clip_pos : vec4<f32>,
    @location(0) color : vec4<f32>,
    @location(1) corner : vec2<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) vi : u32,
           @location(0) center : vec3<f32>,
           @location(1) color : vec4<f32>,
           @location(2) size : f32) -> VSOut {
    var corners = array<vec2<f32>, 6>(
        vec2<f32>(-1.0, -1.0), vec2<f32>(1.0, -1.0), vec2<f32>(-1.0, 1.0),
        vec2<f32>(-1.0, 1.0), vec2<f32>(1.0, -1.0), vec2<f32>(1.0, 1.0));

    var out : VSOut;
    let corner = corners[vi];
    var clip = u.view_proj * vec4<f32>(center, 1.0);
    let radius = size * u.params.x;
    clip = vec4<f32>(clip.xy + corner * radius * clip.w * u.params.zw, clip.zw);
    out.clip_pos = clip;
    out.color = color;
    out.corner = corner;
    return out;
}

@fragment
fn fs_main(in : VSOut) -> @location(0) vec4<f32> {
    let d = length(in.corner);
    if (d > 1.0) {
        discard;
    }
    let alpha = (1.0 - smoothstep(0.6, 1.0, d)) * in.color.a * u.camera.w;
    return vec4<f32>(in.color.rgb * alpha, alpha);
}
`

const lineWGSL = layerUniformsWGSL + `
struct VSOut {
    @builtin(position) clip_pos : vec4<f32>,
    @location(0) color : vec4<f32>,
};

@vertex
fn vs_main(@location(0) pos : vec3<f32>,
           @location(1) color : vec4<f32>) -> VSOut {
    var out : VSOut;
    out.clip_pos = u.view_proj * vec4<f32>(pos, 1.0);
    out.color = color;
    return out;
}

@fragment
fn fs_main(in : VSOut) -> @location(0) vec4<f32> {
    let alpha = in.color.a * u.camera.w;
    return vec4<f32>(in.color.rgb * alpha, alpha);
}
`
