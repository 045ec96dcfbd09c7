package scene

import (
	"math"

	"github.com/achilleasa/raygun/types"
)

// The number of 4-vectors used to encode a camera.
const CameraVec4s = 5

// Viewport describes the raytraced frame.
type Viewport struct {
	Width  float32
	Height float32

	// Vertical field of view in radians.
	FOV float32
}

// The camera type generates primary rays.
type Camera struct {
	origin types.Vec3
	lookAt types.Vec3
	up     types.Vec3

	viewport      Viewport
	focalDistance float32

	// Orthonormal basis derived from origin, look-at and up.
	u, v, w types.Vec3

	// Set whenever the basis changes; cleared by the renderer after uploading.
	dirty bool
}

// Create a new camera.
func NewCamera(origin, lookAt, up types.Vec3, viewport Viewport, focalDistance float32) *Camera {
	c := &Camera{
		origin:        origin,
		lookAt:        lookAt,
		up:            up,
		viewport:      viewport,
		focalDistance: focalDistance,
	}
	c.updateBasis()
	return c
}

func (c *Camera) Origin() types.Vec3 {
	return c.origin
}

func (c *Camera) LookAt() types.Vec3 {
	return c.lookAt
}

func (c *Camera) Up() types.Vec3 {
	return c.up
}

func (c *Camera) Viewport() Viewport {
	return c.viewport
}

func (c *Camera) FocalDistance() float32 {
	return c.focalDistance
}

// Basis returns the (u, v, w) orthonormal basis.
func (c *Camera) Basis() [3]types.Vec3 {
	return [3]types.Vec3{c.u, c.v, c.w}
}

// Direction returns the unit view direction.
func (c *Camera) Direction() types.Vec3 {
	return c.lookAt.Sub(c.origin).Normalize()
}

// Dirty returns true if the camera changed since the last ClearDirty call.
func (c *Camera) Dirty() bool {
	return c.dirty
}

func (c *Camera) ClearDirty() {
	c.dirty = false
}

// Set the viewport used for ray generation.
func (c *Camera) SetViewport(vp Viewport) {
	c.viewport = vp
	c.dirty = true
}

// Set the camera origin.
func (c *Camera) SetOrigin(origin types.Vec3) {
	if origin != c.origin {
		c.origin = origin
		c.updateBasis()
	}
}

// Set the look-at point.
func (c *Camera) SetLookAt(lookAt types.Vec3) {
	if lookAt != c.lookAt {
		c.lookAt = lookAt
		c.updateBasis()
	}
}

// Set the up vector.
func (c *Camera) SetUp(up types.Vec3) {
	if up != c.up {
		c.up = up
		c.updateBasis()
	}
}

// Rotate the view direction by yaw (around the up axis) and pitch (around
// the camera's right axis). Angles are in radians.
func (c *Camera) Rotate(yaw, pitch float32) {
	dir := c.lookAt.Sub(c.origin)
	if yaw != 0 {
		dir = types.QuatFromAxisAngle(c.up, yaw).Rotate(dir)
	}
	if pitch != 0 {
		right := dir.Cross(c.up)
		rotated := types.QuatFromAxisAngle(right, pitch).Rotate(dir)

		// Refuse to pitch past the up axis; the basis degenerates there.
		if math.Abs(float64(rotated.Normalize().Dot(c.up.Normalize()))) < 0.99 {
			dir = rotated
		}
	}
	c.SetLookAt(c.origin.Add(dir))
}

// Translate both origin and look-at by forward/right/up amounts expressed in
// camera space. Forward movement stays on the plane perpendicular to up.
func (c *Camera) Move(forward, right, up float32) {
	upAxis := c.up.Normalize()
	fwdAxis := c.Direction()
	fwdAxis = fwdAxis.Sub(upAxis.Mul(fwdAxis.Dot(upAxis))).Normalize()
	rightAxis := fwdAxis.Cross(upAxis)

	delta := fwdAxis.Mul(forward).Add(rightAxis.Mul(right)).Add(upAxis.Mul(up))
	if delta == (types.Vec3{}) {
		return
	}
	c.origin = c.origin.Add(delta)
	c.lookAt = c.lookAt.Add(delta)
	c.updateBasis()
}

// Ray returns the world-space primary ray through a pixel, where pixel is
// expressed in viewport units with (0, 0) at the bottom-left corner.
func (c *Camera) Ray(pixel types.Vec2) Ray {
	aspect := c.viewport.Height / c.viewport.Width

	p := pixel.DivVec(types.Vec2{c.viewport.Width, c.viewport.Height})
	p = p.Mul(2).Sub(types.Vec2{1, 1})
	p[0] /= aspect
	p = p.Mul(float32(math.Tan(float64(c.viewport.FOV) / 2)))

	dir := c.u.Mul(p[0]).Add(c.v.Mul(p[1])).Add(c.w.Mul(-c.focalDistance))
	return Ray{Origin: c.origin, Dir: dir.Normalize()}
}

// Encode packs the camera as:
//
//	(origin, focal distance), (u, 0), (v, 0), (w, 0), (width, height, fov, 0)
func (c *Camera) Encode() [CameraVec4s]types.Vec4 {
	return [CameraVec4s]types.Vec4{
		c.origin.Vec4(c.focalDistance),
		c.u.Vec4(0),
		c.v.Vec4(0),
		c.w.Vec4(0),
		{c.viewport.Width, c.viewport.Height, c.viewport.FOV, 0},
	}
}

// DecodeCamera rebuilds a camera from its encoded form. The look-at point is
// placed one unit in front of the origin.
func DecodeCamera(d [CameraVec4s]types.Vec4) *Camera {
	c := &Camera{
		origin:        d[0].Vec3(),
		focalDistance: d[0][3],
		u:             d[1].Vec3(),
		v:             d[2].Vec3(),
		w:             d[3].Vec3(),
		viewport:      Viewport{Width: d[4][0], Height: d[4][1], FOV: d[4][2]},
	}
	c.up = c.v
	c.lookAt = c.origin.Sub(c.w)
	return c
}

func (c *Camera) updateBasis() {
	c.w = c.origin.Sub(c.lookAt).Normalize()
	c.u = c.up.Cross(c.w).Normalize()
	c.v = c.w.Cross(c.u)
	c.dirty = true
}
