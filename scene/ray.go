package scene

import "github.com/achilleasa/raygun/types"

const (
	// Rays whose determinant magnitude falls below this value are treated
	// as parallel to the triangle plane.
	DetEpsilon float32 = 1e-8

	// Barycentric u values down to -UEpsilon are accepted (and clamped) so
	// that rays grazing a shared edge do not leave a one-pixel seam.
	UEpsilon float32 = 1e-5
)

type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Hit holds the ray distance and the barycentric coordinates of an intersection.
type Hit struct {
	T float32
	U float32
	V float32
}

// Intersect runs the Möller–Trumbore test. On success the returned hit
// satisfies u >= 0, v >= 0, u + v <= 1 and t >= 0.
func Intersect(r Ray, vertices [3]types.Vec3) (Hit, bool) {
	e1 := vertices[1].Sub(vertices[0])
	e2 := vertices[2].Sub(vertices[0])

	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if det > -DetEpsilon && det < DetEpsilon {
		return Hit{}, false
	}
	invDet := 1.0 / det

	s := r.Origin.Sub(vertices[0])
	u := s.Dot(p) * invDet
	if u < -UEpsilon || u > 1 {
		return Hit{}, false
	}
	if u < 0 {
		u = 0
	}

	q := s.Cross(e1)
	v := r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}

	t := e2.Dot(q) * invDet
	if !(t >= 0) {
		return Hit{}, false
	}

	return Hit{T: t, U: u, V: v}, true
}
