package atlas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/achilleasa/raygun/asset/model"
	"github.com/achilleasa/raygun/asset/texture"
	"github.com/achilleasa/raygun/log"
	"github.com/achilleasa/raygun/types"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/image/draw"
)

var (
	ErrPackFailed     = errors.New("atlas: textures do not fit")
	ErrUnknownTexture = errors.New("atlas: unknown texture")
	ErrDuplicateName  = errors.New("atlas: duplicate texture name")
	ErrInvalidSize    = errors.New("atlas: invalid size")
)

// Placement is the location of a texture inside the atlas.
type Placement struct {
	Name string
	Rect image.Rectangle
}

// Atlas is a single RGBA image holding every texture used by the scene.
type Atlas struct {
	Image *image.RGBA

	placements map[string]image.Rectangle
}

// Build packs the textures into a width x height atlas and blits each one at
// its placement. An empty texture list yields a blank atlas.
func Build(width, height int, textures []*texture.Texture) (*Atlas, error) {
	logger := log.New("atlas")
	start := time.Now()

	sizes := make(map[string]image.Point, len(textures))
	for _, tex := range textures {
		if _, exists := sizes[tex.Name]; exists {
			return nil, fmt.Errorf("%w %q", ErrDuplicateName, tex.Name)
		}
		sizes[tex.Name] = image.Pt(tex.Width(), tex.Height())
	}

	placements, err := Pack(width, height, sizes)
	if err != nil {
		return nil, err
	}

	a := &Atlas{
		Image:      image.NewRGBA(image.Rect(0, 0, width, height)),
		placements: placements,
	}
	for _, tex := range textures {
		rect := placements[tex.Name]
		draw.Draw(a.Image, rect, tex.Image, image.Point{}, draw.Src)
	}

	logger.Infof("packed %d textures into a %dx%d atlas in %d ms", len(textures), width, height, time.Since(start).Nanoseconds()/1e6)
	return a, nil
}

// Width returns the atlas width in texels.
func (a *Atlas) Width() int {
	return a.Image.Rect.Dx()
}

// Height returns the atlas height in texels.
func (a *Atlas) Height() int {
	return a.Image.Rect.Dy()
}

// Placement returns the atlas rectangle of a texture.
func (a *Atlas) Placement(name string) (image.Rectangle, bool) {
	rect, ok := a.placements[name]
	return rect, ok
}

// Placements returns all placements sorted by texture name.
func (a *Atlas) Placements() []Placement {
	out := make([]Placement, 0, len(a.placements))
	for name, rect := range a.placements {
		out = append(out, Placement{Name: name, Rect: rect})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RemapUV converts an image-local texture coordinate (v pointing up) into
// atlas space (v pointing down, row 0 at the top).
func (a *Atlas) RemapUV(name string, uv types.Vec2) (types.Vec2, error) {
	rect, ok := a.placements[name]
	if !ok {
		return types.Vec2{}, fmt.Errorf("%w %q", ErrUnknownTexture, name)
	}

	size := types.Vec2{float32(a.Width()), float32(a.Height())}
	pixel := types.Vec2{
		float32(rect.Min.X) + uv[0]*float32(rect.Dx()),
		float32(rect.Min.Y) + (1-uv[1])*float32(rect.Dy()),
	}
	return pixel.DivVec(size), nil
}

// LocalUV is the inverse of RemapUV.
func (a *Atlas) LocalUV(name string, atlasUV types.Vec2) (types.Vec2, error) {
	rect, ok := a.placements[name]
	if !ok {
		return types.Vec2{}, fmt.Errorf("%w %q", ErrUnknownTexture, name)
	}

	pixel := atlasUV.MulVec(types.Vec2{float32(a.Width()), float32(a.Height())})
	return types.Vec2{
		(pixel[0] - float32(rect.Min.X)) / float32(rect.Dx()),
		1 - (pixel[1]-float32(rect.Min.Y))/float32(rect.Dy()),
	}, nil
}

// Rewrite converts the texture coordinates of a textured model into atlas
// space. Untextured models are left untouched.
func (a *Atlas) Rewrite(m *model.Model) error {
	if m.Material == nil || m.Material.Texture == "" {
		return nil
	}

	name := m.Material.Texture
	for faceIndex := range m.Faces {
		for corner, uv := range m.Faces[faceIndex].UV {
			remapped, err := a.RemapUV(name, uv)
			if err != nil {
				return fmt.Errorf("atlas: model %q: %w", m.Name, err)
			}
			m.Faces[faceIndex].UV[corner] = remapped
		}
	}
	return nil
}

// Table renders the placement list.
func (a *Atlas) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Texture", "Offset", "Size"})

	used := 0
	for _, p := range a.Placements() {
		used += p.Rect.Dx() * p.Rect.Dy()
		table.Append([]string{
			p.Name,
			fmt.Sprintf("%d, %d", p.Rect.Min.X, p.Rect.Min.Y),
			fmt.Sprintf("%dx%d", p.Rect.Dx(), p.Rect.Dy()),
		})
	}
	coverage := float32(used) / float32(a.Width()*a.Height()) * 100
	table.SetFooter([]string{fmt.Sprintf("%dx%d", a.Width(), a.Height()), "coverage", fmt.Sprintf("%.1f%%", coverage)})
	table.Render()
	return buf.String()
}
