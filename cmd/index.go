package cmd

import (
	"github.com/achilleasa/raygun/renderer"
	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/store"
	"github.com/achilleasa/raygun/types"
	"github.com/urfave/cli"
)

// Build the geometry index over the listed models as static geometry and
// report its size.
func BuildIndex(ctx *cli.Context) error {
	setupLogging(ctx)

	setup, _, err := loadScene(ctx)
	if err != nil {
		return err
	}

	tables := store.NewTables()
	for _, r := range setup.changes.Added {
		m, err := setup.catalog.Model(r.Model)
		if err != nil {
			return err
		}
		kind := scene.Static
		if r.Dynamic {
			kind = scene.Dynamic
		}
		for _, tri := range m.Triangles(types.Ident4(), 0) {
			if _, err = tables.Triangles(kind).Alloc(tri); err != nil {
				return err
			}
		}
		bbox := m.BBox()
		logger.Infof("added %d triangles from %q; bounds %v - %v", len(m.Faces), r.Model, bbox[0], bbox[1])
	}

	_, stats, err := renderer.BuildIndex(tables.StaticTriangles)
	if err != nil {
		return err
	}

	logger.Noticef("geometry index\n%s", stats.Table())
	logger.Noticef("scene tables\n%s", tables.Stats())
	return nil
}
