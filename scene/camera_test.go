package scene

import (
	"math"
	"testing"

	"github.com/achilleasa/raygun/types"
)

func TestCameraBasis(t *testing.T) {
	cam := NewCamera(types.Vec3{0, 1, -3}, types.Vec3{0, 1, 0}, types.Vec3{0, 1, 0}, Viewport{320, 200, math.Pi / 2}, 1)

	basis := cam.Basis()
	exp := [3]types.Vec3{{-1, 0, 0}, {0, 1, 0}, {0, 0, -1}}
	for axis := range basis {
		if !approxVec(basis[axis], exp[axis], 1e-6) {
			t.Fatalf("[axis %d] expected %v; got %v", axis, exp[axis], basis[axis])
		}
	}

	for i := 0; i < 3; i++ {
		if l := basis[i].Len(); math.Abs(float64(l-1)) > 1e-6 {
			t.Fatalf("expected basis vector %d to be unit length; got %f", i, l)
		}
		for j := i + 1; j < 3; j++ {
			if d := basis[i].Dot(basis[j]); math.Abs(float64(d)) > 1e-6 {
				t.Fatalf("expected basis vectors %d and %d to be orthogonal; dot = %f", i, j, d)
			}
		}
	}
}

func TestCameraBasisRecomputedOnChange(t *testing.T) {
	cam := NewCamera(types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}, types.Vec3{0, 1, 0}, Viewport{320, 200, math.Pi / 2}, 1)
	cam.ClearDirty()

	cam.SetLookAt(types.Vec3{0, 0, -1})
	if cam.Dirty() {
		t.Fatal("expected unchanged look-at to leave the camera clean")
	}

	cam.SetLookAt(types.Vec3{1, 0, 0})
	if !cam.Dirty() {
		t.Fatal("expected camera to be dirty after changing look-at")
	}
	if w := cam.Basis()[2]; !approxVec(w, types.Vec3{-1, 0, 0}, 1e-6) {
		t.Fatalf("expected w to point away from the look-at point; got %v", w)
	}
}

func TestCameraRay(t *testing.T) {
	vp := Viewport{320, 200, math.Pi / 2}
	cam := NewCamera(types.Vec3{0, 1, -3}, types.Vec3{0, 1, 0}, types.Vec3{0, 1, 0}, vp, 1)

	center := cam.Ray(types.Vec2{vp.Width / 2, vp.Height / 2})
	if !approxVec(center.Dir, types.Vec3{0, 0, 1}, 1e-6) {
		t.Fatalf("expected center ray to follow the view direction; got %v", center.Dir)
	}
	if center.Origin != cam.Origin() {
		t.Fatalf("expected ray origin %v; got %v", cam.Origin(), center.Origin)
	}

	// Top edge at fov/2 = 45 degrees above the view direction.
	top := cam.Ray(types.Vec2{vp.Width / 2, vp.Height})
	if !approxVec(top.Dir, types.Vec3{0, float32(math.Sqrt2 / 2), float32(math.Sqrt2 / 2)}, 1e-5) {
		t.Fatalf("expected top ray at 45 degrees; got %v", top.Dir)
	}

	// Horizontal extent is widened by the aspect ratio; u points along world -X here.
	right := cam.Ray(types.Vec2{vp.Width, vp.Height / 2})
	expX := float32(vp.Width / vp.Height)
	exp := types.Vec3{-expX, 0, 1}.Normalize()
	if !approxVec(right.Dir, exp, 1e-5) {
		t.Fatalf("expected right ray %v; got %v", exp, right.Dir)
	}
}

func TestCameraEncodeDecode(t *testing.T) {
	cam := NewCamera(types.Vec3{1, 2, 3}, types.Vec3{1, 2, 4}, types.Vec3{0, 1, 0}, Viewport{320, 200, 1.2}, 1.5)
	dec := DecodeCamera(cam.Encode())

	pixel := types.Vec2{17, 123}
	if a, b := cam.Ray(pixel), dec.Ray(pixel); !approxVec(a.Dir, b.Dir, 1e-6) || a.Origin != b.Origin {
		t.Fatalf("expected decoded camera to generate identical rays; got %v and %v", a, b)
	}
}

func TestCameraMoveAndRotate(t *testing.T) {
	cam := NewCamera(types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}, types.Vec3{0, 1, 0}, Viewport{320, 200, 1}, 1)

	cam.Move(2, 0, 0)
	if !approxVec(cam.Origin(), types.Vec3{0, 0, -2}, 1e-6) {
		t.Fatalf("expected forward move to (0, 0, -2); got %v", cam.Origin())
	}

	cam.Rotate(math.Pi/2, 0)
	if !approxVec(cam.Direction(), types.Vec3{-1, 0, 0}, 1e-5) {
		t.Fatalf("expected yaw to turn the camera towards -X; got %v", cam.Direction())
	}

	cam.Rotate(0, math.Pi/2)
	if d := cam.Direction(); d[1] > 0.99 {
		t.Fatalf("expected pitch past the up axis to be rejected; got %v", d)
	}
}

func approxVec(a, b types.Vec3, eps float32) bool {
	for i := range a {
		if float32(math.Abs(float64(a[i]-b[i]))) > eps {
			return false
		}
	}
	return true
}
