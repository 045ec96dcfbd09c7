package model

import (
	"bufio"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/raygun/asset"
	"github.com/achilleasa/raygun/log"
	"github.com/achilleasa/raygun/types"
)

type wavefrontReader struct {
	logger log.Logger

	// Material library indexed by name.
	materials map[string]*Material

	// Currently selected and the distinct materials referenced by faces.
	curMaterial  *Material
	usedMaterial *Material

	// Name of every object/group that received faces.
	meshNames []string
	curMesh   string
	meshUsed  bool

	vertexList []types.Vec3
	uvList     []types.Vec2

	faces []Face

	// An error stack that provides additional error information when
	// model files include other files (material libraries).
	errStack []string
}

func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		logger:    log.New("wavefront reader"),
		materials: make(map[string]*Material),
		curMesh:   "default",
	}
}

// Read a single-mesh, single-material model.
func (r *wavefrontReader) Read(res *asset.Resource) (*Model, error) {
	r.logger.Infof(`parsing model from "%s"`, res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}
	if len(r.faces) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoGeometry, res.Path())
	}

	mat := r.usedMaterial
	if mat == nil {
		mat = DefaultMaterial()
	}

	r.logger.Debugf("parsed %d faces in %d ms", len(r.faces), time.Since(start).Nanoseconds()/1e6)
	return &Model{
		Name:     strings.TrimSuffix(res.Name(), res.Ext()),
		Faces:    r.faces,
		Material: mat,
	}, nil
}

// Generate an error that wraps cause and includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, cause error, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	stack := strings.Join(r.errStack, "\n")
	if stack != "" {
		stack = "\n" + stack
	}
	if cause != nil {
		return fmt.Errorf("[%s: %d] %w: %s%s", file, line, cause, msg, stack)
	}
	return fmt.Errorf("[%s: %d] error: %s%s", file, line, msg, stack)
}

// Push a frame to the error stack.
func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

func (r *wavefrontReader) parse(res *asset.Resource) error {
	lineNum := 0

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, nil, `unsupported syntax for "mtllib"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [mtllib]", res.Path(), lineNum))
			libRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err, "could not open material library")
			}
			err = r.parseMaterials(libRes)
			libRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, nil, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			mat, exists := r.materials[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, nil, `undefined material with name "%s"`, lineTokens[1])
			}
			r.curMaterial = mat
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err, "bad vertex")
			}
			r.vertexList = append(r.vertexList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err, "bad texture coordinate")
			}
			r.uvList = append(r.uvList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, nil, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.curMesh = lineTokens[1]
			r.meshUsed = false
		case "f":
			faces, err := r.parseFace(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err, "bad face")
			}

			if !r.meshUsed {
				r.meshUsed = true
				r.meshNames = append(r.meshNames, r.curMesh)
				if len(r.meshNames) > 1 {
					return r.emitError(res.Path(), lineNum, ErrMultipleMeshes, "%q and %q", r.meshNames[0], r.meshNames[1])
				}
			}

			mat := r.curMaterial
			if mat == nil {
				mat = r.defaultMaterial()
			}
			if r.usedMaterial != nil && r.usedMaterial != mat {
				return r.emitError(res.Path(), lineNum, ErrMultipleMaterials, "%q and %q", r.usedMaterial.Name, mat.Name)
			}
			r.usedMaterial = mat

			r.faces = append(r.faces, faces...)
		case "vn", "s":
			// normals are derived from the winding order
		default:
			r.logger.Debugf("[%s: %d] ignoring unsupported directive %q", res.Path(), lineNum, lineTokens[0])
		}
	}

	return scanner.Err()
}

// Select the default material for faces that precede any "usemtl".
func (r *wavefrontReader) defaultMaterial() *Material {
	mat, exists := r.materials[""]
	if !exists {
		mat = DefaultMaterial()
		r.materials[""] = mat
	}
	r.curMaterial = mat
	return mat
}

// Parse face definition. Each face definition consists of 3 or 4 arguments,
// one for each vertex, using one of the formats:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the end
// of the vertex/uv list. Quads are split into two triangles.
func (r *wavefrontReader) parseFace(lineTokens []string) ([]Face, error) {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d`, len(lineTokens)-1)
	}

	var vertices [4]types.Vec3
	var uv [4]types.Vec2
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		offset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList))
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %w", arg, err)
		}
		vertices[arg] = r.vertexList[offset]

		if expIndices > 1 && vTokens[1] != "" {
			offset, err = selectFaceCoordIndex(vTokens[1], len(r.uvList))
			if err != nil {
				return nil, fmt.Errorf("could not parse tex coord for face argument %d: %w", arg, err)
			}
			uv[arg] = r.uvList[offset]
		}
	}

	indiceList := [][3]int{{0, 1, 2}}
	if len(lineTokens) == 5 {
		indiceList = append(indiceList, [3]int{0, 2, 3})
	}

	faces := make([]Face, 0, len(indiceList))
	for _, indices := range indiceList {
		var f Face
		for triIndex, selectIndex := range indices {
			f.Vertices[triIndex] = vertices[selectIndex]
			f.UV[triIndex] = uv[selectIndex]
		}
		faces = append(faces, f)
	}
	return faces, nil
}

// Parse a wavefront material library. Besides the standard Kd/Ks/d/Tr/map_Kd
// directives the following extensions are recognized:
//   - refl r         reflectivity in [0, 1]
//   - uv_transparent treat texels with alpha <= 0.5 as holes
//   - uv_divisor u v atlas texel block size
func (r *wavefrontReader) parseMaterials(res *asset.Resource) error {
	lineNum := 0
	var curMaterial *Material

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		if lineTokens[0] == "newmtl" {
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, nil, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			matName := lineTokens[1]
			if _, exists := r.materials[matName]; exists {
				return r.emitError(res.Path(), lineNum, nil, `material "%s" already defined`, matName)
			}

			curMaterial = DefaultMaterial()
			curMaterial.Name = matName
			r.materials[matName] = curMaterial
			continue
		}

		if curMaterial == nil {
			return r.emitError(res.Path(), lineNum, nil, `got "%s" without a "newmtl"`, lineTokens[0])
		}

		var err error
		switch lineTokens[0] {
		case "Kd":
			curMaterial.Color, err = parseVec3(lineTokens)
		case "Ks":
			curMaterial.ReflectionColor, err = parseVec3(lineTokens)
		case "refl":
			curMaterial.Reflectivity, err = parseFloat32(lineTokens)
		case "d":
			curMaterial.Alpha, err = parseFloat32(lineTokens)
		case "Tr":
			var tr float32
			tr, err = parseFloat32(lineTokens)
			curMaterial.Alpha = 1 - tr
		case "map_Kd":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, nil, `unsupported syntax for "map_Kd"; expected 1 argument; got 0`)
			}
			// Options such as -blendu precede the file name.
			file := strings.Replace(lineTokens[len(lineTokens)-1], `\`, `/`, -1)
			curMaterial.TexturePath = file
			curMaterial.Texture = path.Base(file)
		case "uv_transparent":
			curMaterial.UVTransparency = true
			if len(lineTokens) > 1 {
				curMaterial.UVTransparency, err = strconv.ParseBool(lineTokens[1])
			}
		case "uv_divisor":
			curMaterial.UVDivisor, err = parseDivisor(lineTokens)
		}

		if err != nil {
			return r.emitError(res.Path(), lineNum, err, "bad %q value", lineTokens[0])
		}
	}

	return scanner.Err()
}

// Given an index for a face coord type (vertex, tex) calculate the proper
// offset into the coord list. Wavefront format can also use negative indices
// to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var offset int
	if index < 0 {
		offset = coordListLen + int(index)
	} else {
		offset = int(index - 1)
	}
	if offset < 0 || offset >= coordListLen {
		return -1, fmt.Errorf("index %d out of bounds", index)
	}
	return offset, nil
}

func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}
	return float32(val), nil
}

func parseDivisor(lineTokens []string) ([2]uint8, error) {
	var div [2]uint8
	if len(lineTokens) < 3 {
		return div, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}
	for axis := 0; axis < 2; axis++ {
		v, err := strconv.ParseUint(lineTokens[axis+1], 10, 8)
		if err != nil {
			return div, err
		}
		div[axis] = uint8(v)
	}
	return div, nil
}

func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
