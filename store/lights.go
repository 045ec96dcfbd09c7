package store

import (
	"fmt"

	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
)

// Lights is rebuilt from scratch every frame.
type Lights struct {
	lights []scene.Light
}

func NewLights() *Lights {
	return &Lights{lights: make([]scene.Light, 0, MaxLights)}
}

func (s *Lights) Reset() {
	s.lights = s.lights[:0]
}

// Push appends a light.
func (s *Lights) Push(l scene.Light) error {
	if len(s.lights) == MaxLights {
		return fmt.Errorf("%w (%d slots)", ErrLightsExhausted, MaxLights)
	}
	s.lights = append(s.lights, l)
	return nil
}

func (s *Lights) Len() int {
	return len(s.lights)
}

func (s *Lights) Get(index int) scene.Light {
	return s.lights[index]
}

// Pack encodes a (count, 0, 0, 0) header followed by the light records.
func (s *Lights) Pack() []types.Vec4 {
	out := make([]types.Vec4, LightVec4s)
	out[0][0] = float32(len(s.lights))
	for index, l := range s.lights {
		enc := l.Encode()
		copy(out[1+index*scene.LightVec4s:], enc[:])
	}
	return out
}
