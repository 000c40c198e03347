//go:build windows

package webgpu

// WGSL compute shaders. Element kernels run on a 2D grid of 256-wide
// workgroups (see dispatchSize) and address buffers through element offsets
// carried in the uniform block.

// fillShader sets x[offset .. offset+size) to value.
const fillShader = `
@group(0) @binding(0) var<storage, read_write> x: array<f32>;

struct Params {
    size: u32,
    offset: u32,
    value: f32,
}
@group(0) @binding(1) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.y * nwg.x * 256u + gid.x;
    if (idx < params.size) {
        x[params.offset + idx] = params.value;
    }
}
`

// scaleShader multiplies x[offset .. offset+size) by alpha.
const scaleShader = `
@group(0) @binding(0) var<storage, read_write> x: array<f32>;

struct Params {
    size: u32,
    offset: u32,
    alpha: f32,
}
@group(0) @binding(1) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.y * nwg.x * 256u + gid.x;
    if (idx < params.size) {
        x[params.offset + idx] = x[params.offset + idx] * params.alpha;
    }
}
`

// hadamardShader computes dst *= src element-wise.
const hadamardShader = `
@group(0) @binding(0) var<storage, read_write> dst: array<f32>;
@group(0) @binding(1) var<storage, read> src: array<f32>;

struct Params {
    size: u32,
    off_dst: u32,
    off_src: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.y * nwg.x * 256u + gid.x;
    if (idx < params.size) {
        dst[params.off_dst + idx] = dst[params.off_dst + idx] * src[params.off_src + idx];
    }
}
`

// mapShader applies an element-wise function selected by params.fn.
// Function codes follow tensor.UnaryOp.
const mapShader = `
@group(0) @binding(0) var<storage, read_write> x: array<f32>;

struct Params {
    size: u32,
    offset: u32,
    fn_id: u32,
}
@group(0) @binding(1) var<uniform> params: Params;

fn apply(v: f32) -> f32 {
    switch params.fn_id {
        case 1u: { return tanh(v); }
        case 2u: { return 1.0 / (1.0 + exp(-v)); }
        case 3u: { return max(v, 0.0); }
        case 4u: { return sin(v); }
        case 5u: { return max(v, 0.0) + log(1.0 + exp(-abs(v))); }
        default: { return v; }
    }
}

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.y * nwg.x * 256u + gid.x;
    if (idx < params.size) {
        x[params.offset + idx] = apply(x[params.offset + idx]);
    }
}
`

// gemmShader computes c = alpha*op(a)*op(b) + beta*c on row-major operands.
// A transposed operand is stored with its rows and columns exchanged.
const gemmShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> c: array<f32>;

struct Params {
    m: u32,
    n: u32,
    k: u32,
    trans_a: u32,
    trans_b: u32,
    off_a: u32,
    off_b: u32,
    off_c: u32,
    alpha: f32,
    beta: f32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.y;
    let j = gid.x;
    if (i >= params.m || j >= params.n) {
        return;
    }

    var acc = 0.0;
    for (var p = 0u; p < params.k; p = p + 1u) {
        var av: f32;
        if (params.trans_a == 0u) {
            av = a[params.off_a + i * params.k + p];
        } else {
            av = a[params.off_a + p * params.m + i];
        }
        var bv: f32;
        if (params.trans_b == 0u) {
            bv = b[params.off_b + p * params.n + j];
        } else {
            bv = b[params.off_b + j * params.k + p];
        }
        acc = acc + av * bv;
    }

    let ci = params.off_c + i * params.n + j;
    var prev = 0.0;
    if (params.beta != 0.0) {
        prev = params.beta * c[ci];
    }
    c[ci] = params.alpha * acc + prev;
}
`

// dotShader writes one partial sum of x*y per workgroup.
const dotShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read> y: array<f32>;
@group(0) @binding(2) var<storage, read_write> partials: array<f32>;

struct Params {
    size: u32,
    off_x: u32,
    off_y: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

var<workgroup> scratch: array<f32, 256>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>,
        @builtin(local_invocation_id) lid: vec3<u32>,
        @builtin(workgroup_id) wid: vec3<u32>,
        @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.y * nwg.x * 256u + gid.x;
    var v = 0.0;
    if (idx < params.size) {
        v = x[params.off_x + idx] * y[params.off_y + idx];
    }
    scratch[lid.x] = v;
    workgroupBarrier();

    for (var s = 128u; s > 0u; s = s >> 1u) {
        if (lid.x < s) {
            scratch[lid.x] = scratch[lid.x] + scratch[lid.x + s];
        }
        workgroupBarrier();
    }
    if (lid.x == 0u) {
        partials[wid.y * nwg.x + wid.x] = scratch[0];
    }
}
`

// powSumShader writes one partial sum of |x|^p per workgroup.
const powSumShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> partials: array<f32>;

struct Params {
    size: u32,
    offset: u32,
    p: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

var<workgroup> scratch: array<f32, 256>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>,
        @builtin(local_invocation_id) lid: vec3<u32>,
        @builtin(workgroup_id) wid: vec3<u32>,
        @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.y * nwg.x * 256u + gid.x;
    var v = 0.0;
    if (idx < params.size) {
        let a = abs(x[params.offset + idx]);
        if (a != 0.0) {
            v = pow(a, params.p);
        }
    }
    scratch[lid.x] = v;
    workgroupBarrier();

    for (var s = 128u; s > 0u; s = s >> 1u) {
        if (lid.x < s) {
            scratch[lid.x] = scratch[lid.x] + scratch[lid.x + s];
        }
        workgroupBarrier();
    }
    if (lid.x == 0u) {
        partials[wid.y * nwg.x + wid.x] = scratch[0];
    }
}
`
