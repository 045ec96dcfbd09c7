package cmd

import (
	"errors"
	"image/png"
	"os"

	"github.com/achilleasa/raygun/asset/atlas"
	"github.com/achilleasa/raygun/asset/catalog"
	"github.com/achilleasa/raygun/asset/model"
	"github.com/urfave/cli"
)

// Pack textures and the textures referenced by models into an atlas image.
func PackAtlas(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing texture or model file arguments")
	}

	cat := catalog.New()
	for _, file := range ctx.Args() {
		var err error
		switch {
		case model.Supported(file):
			_, err = cat.LoadModel(file)
		default:
			err = cat.LoadTexture(file)
		}
		if err != nil {
			return err
		}
	}

	if err := cat.Finalize(ctx.Int("atlas-width"), ctx.Int("atlas-height")); err != nil {
		return err
	}
	a := cat.Atlas()
	logger.Noticef("atlas placements\n%s", a.Table())

	return writeAtlas(a, ctx.String("out"))
}

func writeAtlas(a *atlas.Atlas, imgFile string) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = png.Encode(f, a.Image); err != nil {
		return err
	}
	logger.Noticef("wrote %dx%d atlas to %s", a.Width(), a.Height(), imgFile)
	return nil
}
