package cmd

import (
	"bytes"
	"fmt"
	"math"

	"github.com/achilleasa/raygun/kernel"
	"github.com/achilleasa/raygun/renderer"
	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Shade a single pixel on the CPU from the buffers the driver would upload
// and print what the primary ray hits.
func Probe(ctx *cli.Context) error {
	setupLogging(ctx)

	setup, opts, err := loadScene(ctx)
	if err != nil {
		return err
	}

	d, err := renderer.NewDriver(&renderer.HeadlessBackend{}, setup.catalog, opts)
	if err != nil {
		return err
	}
	defer d.Close()

	if err = d.Frame(setup.changes, setup.lights, setup.camera); err != nil {
		return err
	}

	// Pixel rows are counted from the top like image viewers do.
	x, y := ctx.Int("x"), ctx.Int("y")
	if x < 0 || y < 0 || x >= int(opts.FrameW) || y >= int(opts.FrameH) {
		return fmt.Errorf("pixel (%d, %d) is outside the %dx%d frame", x, y, opts.FrameW, opts.FrameH)
	}
	pixel := types.Vec2{float32(x) + 0.5, float32(int(opts.FrameH)-1-y) + 0.5}

	b := d.Buffers()
	ray := kernel.PrimaryRay(b, pixel)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	table.Append([]string{"Ray", fmt.Sprintf("%v -> %v", ray.Origin, ray.Dir)})

	isect, hit := kernel.Trace(b, ray, float32(math.Inf(1)))
	if hit {
		mat, _ := d.Tables().Materials.Get(isect.Record.Material)
		table.Append([]string{"Triangle", isect.Triangle.String()})
		table.Append([]string{"Distance", fmt.Sprintf("%.4f", isect.Hit.T)})
		table.Append([]string{"Barycentrics", fmt.Sprintf("(%.3f, %.3f)", isect.Hit.U, isect.Hit.V)})
		table.Append([]string{"Point", fmt.Sprint(isect.Point)})
		table.Append([]string{"Material", fmt.Sprintf("%d: %+v", isect.Record.Material, mat)})
		table.Append([]string{"Owners", fmt.Sprint(d.Tables().Materials.Owners(isect.Record.Material))})
		table.Append([]string{"Alpha", fmt.Sprint(isect.Record.Alpha)})
		table.Append([]string{"UV transparency", fmt.Sprint(isect.Record.UVTransparency)})
		for index, l := range lightsOf(setup.lights) {
			toLight := l.Position.Sub(isect.Point)
			dir := toLight.Normalize()
			origin := isect.Point.Sub(ray.Dir.Mul(kernel.SurfaceEpsilon))
			shadowed := kernel.Occluded(b, scene.Ray{Origin: origin, Dir: dir}, toLight.Len())
			table.Append([]string{fmt.Sprintf("Light %d", index), fmt.Sprintf("%v shadowed: %t", l.Position, shadowed)})
		}
	} else {
		table.Append([]string{"Triangle", "miss"})
	}
	table.Append([]string{"Color", fmt.Sprint(kernel.Shade(b, pixel))})
	table.Render()

	logger.Noticef("probe for pixel (%d, %d)\n%s", x, y, buf.String())
	return nil
}

func lightsOf(sources []scene.LightSource) []scene.Light {
	var out []scene.Light
	for _, src := range sources {
		if src.Enabled {
			out = append(out, src.Light)
		}
	}
	return out
}
