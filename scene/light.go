package scene

import "github.com/achilleasa/raygun/types"

// The number of 4-vectors used to encode a light.
const LightVec4s = 2

type LightKind uint8

// Directional and spot lights are encoded for the game layer's benefit; the
// shading kernel treats every light as a point light.
const (
	PointLight LightKind = iota
	DirectionalLight
	SpotLight
)

type Light struct {
	Position  types.Vec3
	Color     types.Vec3
	Intensity float32
	Kind      LightKind
}

// Encode packs the light as (position, kind) / (color, intensity).
func (l Light) Encode() [LightVec4s]types.Vec4 {
	return [LightVec4s]types.Vec4{
		l.Position.Vec4(float32(l.Kind)),
		l.Color.Vec4(l.Intensity),
	}
}

// DecodeLight unpacks a light record.
func DecodeLight(d [LightVec4s]types.Vec4) Light {
	return Light{
		Position:  d[0].Vec3(),
		Kind:      LightKind(d[0][3]),
		Color:     d[1].Vec3(),
		Intensity: d[1][3],
	}
}
