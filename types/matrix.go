package types

import "github.com/go-gl/mathgl/mgl32"

// A column-major 4x4 matrix.
type Mat4 mgl32.Mat4

// Identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(v[0], v[1], v[2]))
}

// Rotation matrix around an arbitrary axis; angle is in radians.
func Rotate4(axis Vec3, angle float32) Mat4 {
	return Mat4(mgl32.HomogRotate3D(angle, mgl32.Vec3(axis.Normalize())))
}

// Multiply matrix with a 4 component vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Transform a point (w = 1).
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// Check whether two matrices are equal within the mgl32 epsilon.
func (m Mat4) ApproxEqual(m2 Mat4) bool {
	return mgl32.Mat4(m).ApproxEqual(mgl32.Mat4(m2))
}
