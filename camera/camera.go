// Package camera implements the orbit camera used by the globe renderer.
//
// The camera is defined by a position, a look-at target, and an up vector in
// a right-handed world space. View and projection matrices are cached and
// recomputed only when one of their inputs changes.
package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Orbit limits. Vertical rotation is confined to the open interval
// (minPolarAngle, pi-minPolarAngle) measured between the camera position
// vector and world up, so the up vector can never become parallel to the
// view direction.
const minPolarAngle = 0.1

// Camera is an orbit camera producing view, projection, and view-projection
// matrices. Safe for concurrent use: input handlers mutate it while the
// render goroutine reads the matrices.
type Camera struct {
	mu sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3
	up       mgl32.Vec3

	fov    float32 // vertical field of view in radians
	aspect float32
	near   float32
	far    float32

	view     mgl32.Mat4
	proj     mgl32.Mat4
	viewProj mgl32.Mat4
}

// New creates a camera at (0,0,3) looking at the origin with a 45 degree
// field of view and the given aspect ratio.
func New(aspect float32) *Camera {
	c := &Camera{
		position: mgl32.Vec3{0, 0, 3},
		target:   mgl32.Vec3{0, 0, 0},
		up:       mgl32.Vec3{0, 1, 0},
		fov:      mgl32.DegToRad(45),
		aspect:   aspect,
		near:     0.1,
		far:      100,
	}
	c.recomputeView()
	c.recomputeProjection()
	return c
}

// SetPosition moves the camera. A position equal to the target produces a
// degenerate view matrix; callers must not do that.
func (c *Camera) SetPosition(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = mgl32.Vec3{x, y, z}
	c.recomputeView()
}

// SetTarget changes the look-at target.
func (c *Camera) SetTarget(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = mgl32.Vec3{x, y, z}
	c.recomputeView()
}

// SetAspectRatio updates the projection for a new output aspect ratio.
func (c *Camera) SetAspectRatio(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.recomputeProjection()
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.recomputeProjection()
}

// SetClipPlanes sets the near and far clip distances.
func (c *Camera) SetClipPlanes(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.far = far
	c.recomputeProjection()
}

// Position returns the current camera position.
func (c *Camera) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Target returns the current look-at target.
func (c *Camera) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// ViewMatrix returns the cached look-at matrix.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// ProjectionMatrix returns the cached perspective matrix.
func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proj
}

// ViewProjectionMatrix returns the cached projection*view product.
func (c *Camera) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProj
}

// Distance returns the distance from the camera to its target.
func (c *Camera) Distance() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position.Sub(c.target).Len()
}

// SetDistance moves the camera along its current view direction so that it
// sits at the given distance from the target.
func (c *Camera) SetDistance(d float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	offset := c.position.Sub(c.target)
	l := offset.Len()
	if l == 0 {
		return
	}
	c.position = c.target.Add(offset.Mul(d / l))
	c.recomputeView()
}

// Orbit rotates the camera around its target by dYaw radians horizontally
// and dPitch radians vertically. Updates that would push the polar angle
// (between the position offset and world up) outside the allowed open
// interval are rejected: the camera is left unchanged and false is returned.
func (c *Camera) Orbit(dYaw, dPitch float32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	offset := c.position.Sub(c.target)
	r := float64(offset.Len())
	if r == 0 {
		return false
	}

	polar := math.Acos(float64(offset.Y()) / r)
	yaw := math.Atan2(float64(offset.Z()), float64(offset.X()))

	newPolar := polar + float64(dPitch)
	if newPolar <= minPolarAngle || newPolar >= math.Pi-minPolarAngle {
		return false
	}
	newYaw := yaw + float64(dYaw)

	c.position = c.target.Add(mgl32.Vec3{
		float32(r * math.Sin(newPolar) * math.Cos(newYaw)),
		float32(r * math.Cos(newPolar)),
		float32(r * math.Sin(newPolar) * math.Sin(newYaw)),
	})
	c.recomputeView()
	return true
}

// recomputeView rebuilds the look-at matrix and the cached product.
// Caller holds c.mu.
func (c *Camera) recomputeView() {
	c.view = mgl32.LookAtV(c.position, c.target, c.up)
	c.viewProj = c.proj.Mul4(c.view)
}

// recomputeProjection rebuilds the perspective matrix and the cached product.
// Caller holds c.mu.
func (c *Camera) recomputeProjection() {
	c.proj = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProj = c.proj.Mul4(c.view)
}
