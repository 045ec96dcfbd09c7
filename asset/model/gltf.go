package model

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	"github.com/achilleasa/raygun/asset"
	"github.com/achilleasa/raygun/asset/texture"
	"github.com/achilleasa/raygun/log"
	"github.com/achilleasa/raygun/types"
	"github.com/qmuntal/gltf"
)

type gltfReader struct {
	logger log.Logger
}

func newGltfReader() *gltfReader {
	return &gltfReader{
		logger: log.New("gltf reader"),
	}
}

// Read a glTF/GLB document. Local files are opened through gltf.Open so that
// external buffers and images resolve; streams must be self-contained GLBs.
func (r *gltfReader) Read(res *asset.Resource) (*Model, error) {
	r.logger.Infof(`parsing model from "%s"`, res.Path())
	start := time.Now()

	var doc *gltf.Document
	var err error
	if res.IsRemote() || res.IsStream() {
		doc = new(gltf.Document)
		err = gltf.NewDecoder(res).Decode(doc)
	} else {
		doc, err = gltf.Open(res.Path())
	}
	if err != nil {
		return nil, fmt.Errorf("model: could not decode %s: %w", res.Path(), err)
	}

	if len(doc.Meshes) > 1 {
		return nil, fmt.Errorf("%w: %s defines %d meshes", ErrMultipleMeshes, res.Path(), len(doc.Meshes))
	}
	if len(doc.Meshes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoGeometry, res.Path())
	}

	mdl := &Model{Name: strings.TrimSuffix(res.Name(), res.Ext())}
	materialIndex := -1
	for primIndex, prim := range doc.Meshes[0].Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			r.logger.Warningf("skipping primitive %d with unsupported mode %v", primIndex, prim.Mode)
			continue
		}

		primMaterial := -1
		if prim.Material != nil {
			primMaterial = *prim.Material
		}
		if len(mdl.Faces) > 0 && primMaterial != materialIndex {
			return nil, fmt.Errorf("%w: %s", ErrMultipleMaterials, res.Path())
		}
		materialIndex = primMaterial

		faces, err := readPrimitive(doc, prim)
		if err != nil {
			return nil, fmt.Errorf("model: %s primitive %d: %w", res.Path(), primIndex, err)
		}
		mdl.Faces = append(mdl.Faces, faces...)
	}
	if len(mdl.Faces) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoGeometry, res.Path())
	}

	mdl.Material = DefaultMaterial()
	if materialIndex >= 0 {
		mat, tex, err := readMaterial(doc, materialIndex, res.Name())
		if err != nil {
			return nil, fmt.Errorf("model: %s: %w", res.Path(), err)
		}
		mdl.Material = mat
		if tex != nil {
			mdl.Textures = append(mdl.Textures, tex)
		}
	}

	r.logger.Debugf("parsed %d faces in %d ms", len(mdl.Faces), time.Since(start).Nanoseconds()/1e6)
	return mdl, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) ([]Face, error) {
	posIndex, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("missing POSITION attribute")
	}
	positions, err := readFloats(doc, posIndex, 3)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var uvs [][]float32
	if uvIndex, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = readFloats(doc, uvIndex, 2); err != nil {
			return nil, fmt.Errorf("read uvs: %w", err)
		}
	}

	var indices []int
	if prim.Indices != nil {
		if indices, err = readIndices(doc, *prim.Indices); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]int, len(positions))
		for i := range indices {
			indices[i] = i
		}
	}

	faces := make([]Face, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		var f Face
		for corner := 0; corner < 3; corner++ {
			vi := indices[i+corner]
			if vi >= len(positions) {
				return nil, fmt.Errorf("index %d out of bounds", vi)
			}
			p := positions[vi]
			f.Vertices[corner] = types.Vec3{p[0], p[1], p[2]}
			if vi < len(uvs) {
				// glTF places v=0 at the top of the image.
				f.UV[corner] = types.Vec2{uvs[vi][0], 1 - uvs[vi][1]}
			}
		}
		faces = append(faces, f)
	}
	return faces, nil
}

func readMaterial(doc *gltf.Document, index int, modelName string) (*Material, *texture.Texture, error) {
	if index >= len(doc.Materials) {
		return nil, nil, fmt.Errorf("material %d out of bounds", index)
	}
	src := doc.Materials[index]

	mat := DefaultMaterial()
	mat.Name = src.Name
	mat.UVTransparency = src.AlphaMode == gltf.AlphaMask

	pbr := src.PBRMetallicRoughness
	if pbr == nil {
		return mat, nil, nil
	}

	if pbr.BaseColorFactor != nil {
		f := *pbr.BaseColorFactor
		mat.Color = types.Vec3{float32(f[0]), float32(f[1]), float32(f[2])}
		if src.AlphaMode == gltf.AlphaBlend {
			mat.Alpha = float32(f[3])
		}
	} else {
		mat.Color = types.Vec3{1, 1, 1}
	}

	// An absent metallic factor is treated as a dielectric surface.
	if pbr.MetallicFactor != nil {
		mat.Reflectivity = float32(*pbr.MetallicFactor)
		mat.ReflectionColor = mat.Color
	}

	if pbr.BaseColorTexture == nil {
		return mat, nil, nil
	}

	texIndex := pbr.BaseColorTexture.Index
	if texIndex >= len(doc.Textures) || doc.Textures[texIndex].Source == nil {
		return nil, nil, fmt.Errorf("base color texture %d has no image", texIndex)
	}
	imgIndex := *doc.Textures[texIndex].Source
	if imgIndex >= len(doc.Images) {
		return nil, nil, fmt.Errorf("image %d out of bounds", imgIndex)
	}
	img := doc.Images[imgIndex]

	if img.BufferView == nil {
		// External image; resolved by the catalog relative to the model.
		mat.TexturePath = img.URI
		mat.Texture = img.URI
		return mat, nil, nil
	}

	data, err := bufferViewBytes(doc, *img.BufferView)
	if err != nil {
		return nil, nil, fmt.Errorf("image %d: %w", imgIndex, err)
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("image %d: %w", imgIndex, err)
	}

	mat.Texture = fmt.Sprintf("%s#%d", modelName, imgIndex)
	return mat, texture.FromImage(mat.Texture, decoded), nil
}

func bufferViewBytes(doc *gltf.Document, index int) ([]byte, error) {
	if index >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of bounds", index)
	}
	view := doc.BufferViews[index]
	if view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of bounds", view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data
	end := view.ByteOffset + view.ByteLength
	if data == nil || end > len(data) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer data", index)
	}
	return data[view.ByteOffset:end], nil
}

// Read a float accessor with the given component count.
func readFloats(doc *gltf.Document, index, components int) ([][]float32, error) {
	if index >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of bounds", index)
	}
	acc := doc.Accessors[index]
	if acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("accessor %d: expected float components", index)
	}
	if acc.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", index)
	}

	data, err := bufferViewBytes(doc, *acc.BufferView)
	if err != nil {
		return nil, err
	}
	stride := doc.BufferViews[*acc.BufferView].ByteStride
	if stride == 0 {
		stride = components * 4
	}

	out := make([][]float32, acc.Count)
	for i := range out {
		offset := acc.ByteOffset + i*stride
		if offset+components*4 > len(data) {
			return nil, fmt.Errorf("accessor %d exceeds buffer view", index)
		}
		out[i] = make([]float32, components)
		for c := 0; c < components; c++ {
			bits := binary.LittleEndian.Uint32(data[offset+c*4:])
			out[i][c] = math.Float32frombits(bits)
		}
	}
	return out, nil
}

func readIndices(doc *gltf.Document, index int) ([]int, error) {
	if index >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of bounds", index)
	}
	acc := doc.Accessors[index]
	if acc.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", index)
	}

	data, err := bufferViewBytes(doc, *acc.BufferView)
	if err != nil {
		return nil, err
	}

	var size int
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("accessor %d: unsupported index type", index)
	}
	stride := doc.BufferViews[*acc.BufferView].ByteStride
	if stride == 0 {
		stride = size
	}

	out := make([]int, acc.Count)
	for i := range out {
		offset := acc.ByteOffset + i*stride
		if offset+size > len(data) {
			return nil, fmt.Errorf("accessor %d exceeds buffer view", index)
		}
		switch size {
		case 1:
			out[i] = int(data[offset])
		case 2:
			out[i] = int(binary.LittleEndian.Uint16(data[offset:]))
		default:
			out[i] = int(binary.LittleEndian.Uint32(data[offset:]))
		}
	}
	return out, nil
}
