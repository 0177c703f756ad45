package shader

// FullscreenWGSL draws a single triangle covering the viewport and fills it
// with a constant color.
const FullscreenWGSL = `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    var pos = array<vec2<f32>, 3>(
        vec2<f32>(-1.0, -1.0),
        vec2<f32>(3.0, -1.0),
        vec2<f32>(-1.0, 3.0)
    );
    return vec4<f32>(pos[idx], 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.5, 0.0, 1.0);
}
`

// ClearBufferWGSL zeroes a storage buffer, one u32 per invocation. The
// dispatch must cover the buffer exactly.
const ClearBufferWGSL = `
@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = 0u;
}
`

// Builtin maps the names accepted by graph descriptions to WGSL sources.
var Builtin = map[string]string{
	"fullscreen":   FullscreenWGSL,
	"clear_buffer": ClearBufferWGSL,
}
