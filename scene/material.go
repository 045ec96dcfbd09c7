package scene

import "github.com/achilleasa/raygun/types"

// The number of 4-vectors used to encode a material.
const MaterialVec4s = 2

// Material describes a surface as seen by the shading kernel.
type Material struct {
	Color types.Vec3

	// Modulate Color with the atlas sample at the hit point.
	Textured bool

	ReflectionColor types.Vec3

	// Reflection weight in [0, 1].
	Reflectivity float32
}

// Encode packs the material as (color, textured) / (reflection color, reflectivity).
func (m Material) Encode() [MaterialVec4s]types.Vec4 {
	var texFlag float32
	if m.Textured {
		texFlag = 1
	}
	return [MaterialVec4s]types.Vec4{
		m.Color.Vec4(texFlag),
		m.ReflectionColor.Vec4(m.Reflectivity),
	}
}

// DecodeMaterial unpacks a material record.
func DecodeMaterial(d [MaterialVec4s]types.Vec4) Material {
	return Material{
		Color:           d[0].Vec3(),
		Textured:        d[0][3] > 0.5,
		ReflectionColor: d[1].Vec3(),
		Reflectivity:    d[1][3],
	}
}
