package scene

import (
	"math/rand"
	"testing"

	"github.com/achilleasa/raygun/types"
)

func TestIntersectBarycentricBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randVec := func(scale float32) types.Vec3 {
		return types.Vec3{
			(rng.Float32()*2 - 1) * scale,
			(rng.Float32()*2 - 1) * scale,
			(rng.Float32()*2 - 1) * scale,
		}
	}

	hits := 0
	for i := 0; i < 20000; i++ {
		tri := [3]types.Vec3{randVec(1), randVec(1), randVec(1)}
		ray := Ray{Origin: randVec(3), Dir: randVec(1).Normalize()}

		hit, ok := Intersect(ray, tri)
		if !ok {
			continue
		}
		hits++
		if hit.U < 0 || hit.V < 0 || hit.U+hit.V > 1 || hit.T < 0 {
			t.Fatalf("[iteration %d] barycentric bounds violated: %+v", i, hit)
		}
	}

	if hits == 0 {
		t.Fatal("expected at least one random ray to hit its triangle")
	}
}

func TestIntersect(t *testing.T) {
	tri := [3]types.Vec3{{-1, 0, -1}, {1, 0, -1}, {0, 0, 1}}

	type spec struct {
		ray   Ray
		expOK bool
		expT  float32
	}

	specs := []spec{
		{Ray{types.Vec3{0, 2, 0}, types.Vec3{0, -1, 0}}, true, 2},
		{Ray{types.Vec3{0, -3, 0}, types.Vec3{0, 1, 0}}, true, 3},
		// pointing away
		{Ray{types.Vec3{0, 2, 0}, types.Vec3{0, 1, 0}}, false, 0},
		// outside the triangle
		{Ray{types.Vec3{5, 2, 0}, types.Vec3{0, -1, 0}}, false, 0},
		// parallel to the triangle plane
		{Ray{types.Vec3{-5, 0, 0}, types.Vec3{1, 0, 0}}, false, 0},
	}

	for specIndex, s := range specs {
		hit, ok := Intersect(s.ray, tri)
		if ok != s.expOK {
			t.Fatalf("[spec %d] expected hit = %t; got %t", specIndex, s.expOK, ok)
		}
		if ok && hit.T != s.expT {
			t.Fatalf("[spec %d] expected t = %f; got %f", specIndex, s.expT, hit.T)
		}
	}
}

func TestIntersectDegenerate(t *testing.T) {
	tri := [3]types.Vec3{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}}
	if _, ok := Intersect(Ray{types.Vec3{1, 5, 1}, types.Vec3{0, -1, 0}}, tri); ok {
		t.Fatal("expected degenerate triangle to be rejected")
	}
}

func TestTriangleEncoding(t *testing.T) {
	tri := Triangle{
		Vertices:       [3]types.Vec3{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
		Material:       0,
		Alpha:          0.25,
		UVDivisor:      UVDivisor{4, 255},
		UVTransparency: true,
	}

	enc := tri.Encode()
	if enc[0][3] != -1 {
		t.Fatalf("expected material field -1 for material 0 with UV transparency; got %f", enc[0][3])
	}

	dec, ok := DecodeTriangle(enc)
	if !ok {
		t.Fatal("expected encoded triangle to decode as an occupied slot")
	}
	if dec != tri {
		t.Fatalf("expected decoded triangle %+v; got %+v", tri, dec)
	}

	if _, ok = DecodeTriangle([TriangleVec4s]types.Vec4{}); ok {
		t.Fatal("expected a zeroed record to decode as an empty slot")
	}

	tri.UVDivisor = UVDivisor{}
	if dec, _ = DecodeTriangle(tri.Encode()); dec.UVDivisor != (UVDivisor{1, 1}) {
		t.Fatalf("expected a zero divisor to be stored as (1, 1); got %v", dec.UVDivisor)
	}
}
