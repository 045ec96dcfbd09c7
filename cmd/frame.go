package cmd

import (
	"image/png"
	"os"
	"runtime"
	"time"

	"github.com/achilleasa/raygun/renderer"
	"github.com/urfave/cli"
)

// Render a single frame offscreen and save it as a PNG.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	setup, opts, err := loadScene(ctx)
	if err != nil {
		return err
	}

	backend, err := renderer.NewGLBackend(opts, "raygun", false)
	if err != nil {
		return err
	}
	d, err := renderer.NewDriver(backend, setup.catalog, opts)
	if err != nil {
		backend.Close()
		return err
	}
	defer d.Close()

	if err = d.Frame(setup.changes, setup.lights, setup.camera); err != nil {
		return err
	}
	frame, err := backend.ReadFrame()
	if err != nil {
		return err
	}
	logger.Noticef("frame statistics\n%s", d.Stats().Table())

	imgFile := ctx.String("out")
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	if err = png.Encode(f, frame); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1000000)
	return nil
}
