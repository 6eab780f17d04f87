package globe

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformBlockSize is the byte size of the shared globe/grid uniform block:
// three mat4x4 (model, view, projection) plus two vec4 (light direction
// with time in w, camera position).
const UniformBlockSize = 3*64 + 16 + 16

// FrameState carries the per-frame values every pipeline needs. The
// controller fills one per frame and hands it to the globe renderer and
// each layer.
type FrameState struct {
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4

	CameraPos mgl32.Vec3
	LightDir  mgl32.Vec3

	// Time is seconds since the frame loop started, for animated effects.
	Time float32

	ViewportWidth  uint32
	ViewportHeight uint32
}

// packUniforms serializes the frame state into the 224-byte uniform block.
// Matrices are written column-major, matching WGSL's mat4x4 layout.
func packUniforms(fs *FrameState) []byte {
	buf := make([]byte, UniformBlockSize)
	off := 0
	off = putMat4(buf, off, fs.Model)
	off = putMat4(buf, off, fs.View)
	off = putMat4(buf, off, fs.Projection)
	off = putVec4(buf, off, fs.LightDir[0], fs.LightDir[1], fs.LightDir[2], fs.Time)
	putVec4(buf, off, fs.CameraPos[0], fs.CameraPos[1], fs.CameraPos[2], 0)
	return buf
}

// putMat4 writes a column-major mat4 and returns the new offset.
// mgl32.Mat4 already stores columns contiguously.
func putMat4(buf []byte, off int, m mgl32.Mat4) int {
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(m[i]))
		off += 4
	}
	return off
}

func putVec4(buf []byte, off int, x, y, z, w float32) int {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(x))
	binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(y))
	binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(z))
	binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(w))
	return off + 16
}
