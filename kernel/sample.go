package kernel

import (
	"math"

	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
)

// sample fetches the nearest atlas texel at uv, snapped to the start of its
// divU x divV texel block. Row 0 is the top of the atlas.
func (b *Buffers) sample(uv types.Vec2, div scene.UVDivisor) types.Vec4 {
	if b.Atlas == nil {
		return types.Vec4{1, 1, 1, 1}
	}

	w, h := b.Atlas.Rect.Dx(), b.Atlas.Rect.Dy()
	x := clampTexel(int(math.Floor(float64(uv[0])*float64(w))), w)
	y := clampTexel(int(math.Floor(float64(uv[1])*float64(h))), h)

	div = div.Normalized()
	x -= x % int(div[0])
	y -= y % int(div[1])

	c := b.Atlas.RGBAAt(b.Atlas.Rect.Min.X+x, b.Atlas.Rect.Min.Y+y)
	return types.Vec4{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

// opaqueAt applies the UV transparency rule to a hit.
func (b *Buffers) opaqueAt(kind scene.Provenance, index int, tri scene.Triangle, hit scene.Hit) bool {
	if !tri.UVTransparency {
		return true
	}
	uv := b.mapping(kind, index).Interpolate(hit.U, hit.V)
	return b.sample(uv, tri.UVDivisor)[3] > 0.5
}

func clampTexel(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}
