package model

import (
	"fmt"
	"path"
	"strings"

	"github.com/achilleasa/raygun/asset"
)

// The Reader interface is implemented by all model readers.
type Reader interface {
	Read(*asset.Resource) (*Model, error)
}

// Read a model from a resource, selecting the reader based on its extension.
func Read(res *asset.Resource) (*Model, error) {
	var reader Reader
	switch res.Ext() {
	case ".obj":
		reader = newWavefrontReader()
	case ".gltf", ".glb":
		reader = newGltfReader()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, res.Path())
	}
	return reader.Read(res)
}

// ReadFile opens and reads a model from a local path or URL.
func ReadFile(pathToModel string) (*Model, error) {
	res, err := asset.NewResource(pathToModel, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Read(res)
}

// Supported reports whether the file extension of pathToModel has a reader.
func Supported(pathToModel string) bool {
	switch strings.ToLower(path.Ext(pathToModel)) {
	case ".obj", ".gltf", ".glb":
		return true
	}
	return false
}
