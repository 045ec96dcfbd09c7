package types

import "github.com/go-gl/mathgl/mgl32"

// A rotation quaternion.
type Quat mgl32.Quat

// Create a quaternion from an axis vector and an angle in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	return Quat(mgl32.QuatRotate(angle, mgl32.Vec3(axis.Normalize())))
}

// Rotates a vector by the rotation this quaternion represents.
func (q Quat) Rotate(v Vec3) Vec3 {
	return Vec3(mgl32.Quat(q).Rotate(mgl32.Vec3(v)))
}
