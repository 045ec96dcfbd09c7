package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/achilleasa/raygun/asset"
	"github.com/achilleasa/raygun/asset/atlas"
	"github.com/achilleasa/raygun/asset/model"
	"github.com/achilleasa/raygun/asset/texture"
	"github.com/achilleasa/raygun/log"
)

var (
	ErrUnknownModel   = errors.New("catalog: unknown model")
	ErrUnknownTexture = errors.New("catalog: unknown texture")
	ErrDuplicateModel = errors.New("catalog: model already defined")
	ErrFinalized      = errors.New("catalog: already finalized")
	ErrNotFinalized   = errors.New("catalog: not finalized")
)

// Catalog owns the models and textures of a scene. Once finalized, all
// textures live in a single atlas and model texture coordinates point into it.
type Catalog struct {
	logger log.Logger

	models   map[string]*model.Model
	textures map[string]*texture.Texture

	atlas *atlas.Atlas
}

func New() *Catalog {
	return &Catalog{
		logger:   log.New("catalog"),
		models:   make(map[string]*model.Model),
		textures: make(map[string]*texture.Texture),
	}
}

// AddModel registers a model under name together with any textures embedded in it.
func (c *Catalog) AddModel(name string, m *model.Model) error {
	if c.atlas != nil {
		return ErrFinalized
	}
	if _, exists := c.models[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateModel, name)
	}
	c.models[name] = m
	for _, tex := range m.Textures {
		c.textures[tex.Name] = tex
	}
	return nil
}

// AddTexture registers a texture. A texture with the same name is replaced.
func (c *Catalog) AddTexture(tex *texture.Texture) error {
	if c.atlas != nil {
		return ErrFinalized
	}
	c.textures[tex.Name] = tex
	return nil
}

// LoadModel reads a model from a file or URL and registers it under its base
// name. A diffuse texture referenced by the model is loaded relative to the
// model location unless a texture with that name is already registered.
func (c *Catalog) LoadModel(pathToModel string) (string, error) {
	res, err := asset.NewResource(pathToModel, nil)
	if err != nil {
		return "", err
	}
	defer res.Close()

	m, err := model.Read(res)
	if err != nil {
		return "", err
	}

	mat := m.Material
	if mat != nil && mat.TexturePath != "" {
		if _, exists := c.textures[mat.Texture]; !exists {
			if err := c.loadTexture(mat.TexturePath, res, mat.Texture); err != nil {
				return "", fmt.Errorf("%w %q referenced by %s: %v", ErrUnknownTexture, mat.Texture, res.Path(), err)
			}
		}
	}

	if err := c.AddModel(m.Name, m); err != nil {
		return "", err
	}
	c.logger.Infof("loaded model %q (%d triangles)", m.Name, len(m.Faces))
	return m.Name, nil
}

// LoadTexture reads an image from a file or URL and registers it under its base name.
func (c *Catalog) LoadTexture(pathToTexture string) error {
	return c.loadTexture(pathToTexture, nil, "")
}

func (c *Catalog) loadTexture(pathToTexture string, relTo *asset.Resource, name string) error {
	res, err := asset.NewResource(pathToTexture, relTo)
	if err != nil {
		return err
	}
	defer res.Close()

	tex, err := texture.New(res)
	if err != nil {
		return err
	}
	if name != "" {
		tex.Name = name
	}
	return c.AddTexture(tex)
}

// Finalize packs all registered textures into a width x height atlas and
// rewrites the texture coordinates of every textured model.
func (c *Catalog) Finalize(width, height int) error {
	if c.atlas != nil {
		return ErrFinalized
	}
	start := time.Now()

	for _, name := range c.ModelNames() {
		mat := c.models[name].Material
		if mat == nil || mat.Texture == "" {
			continue
		}
		if _, exists := c.textures[mat.Texture]; !exists {
			return fmt.Errorf("%w %q referenced by model %q", ErrUnknownTexture, mat.Texture, name)
		}
	}

	textures := make([]*texture.Texture, 0, len(c.textures))
	for _, tex := range c.textures {
		textures = append(textures, tex)
	}
	sort.Slice(textures, func(i, j int) bool { return textures[i].Name < textures[j].Name })

	a, err := atlas.Build(width, height, textures)
	if err != nil {
		return err
	}
	for _, name := range c.ModelNames() {
		if err := a.Rewrite(c.models[name]); err != nil {
			return err
		}
	}

	c.atlas = a
	c.logger.Noticef("finalized %d models and %d textures in %d ms", len(c.models), len(textures), time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Model returns a finalized model.
func (c *Catalog) Model(name string) (*model.Model, error) {
	if c.atlas == nil {
		return nil, ErrNotFinalized
	}
	m, exists := c.models[name]
	if !exists {
		return nil, fmt.Errorf("%w %q", ErrUnknownModel, name)
	}
	return m, nil
}

// Atlas returns the texture atlas or nil if the catalog is not finalized.
func (c *Catalog) Atlas() *atlas.Atlas {
	return c.atlas
}

// ModelNames returns the sorted list of registered models.
func (c *Catalog) ModelNames() []string {
	names := make([]string, 0, len(c.models))
	for name := range c.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
