package main

import (
	"os"

	"github.com/achilleasa/raygun/cmd"
	"github.com/achilleasa/raygun/log"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "raygun"
	app.Usage = "real-time raytracing for low-poly scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render an interactive view of a scene",
			Description: `
Load the listed models as static entities (and any --dynamic models as
spinning dynamic entities) and raytrace them in a window. Arrow keys or WASD
move the camera; drag with the left mouse button to look around.`,
			ArgsUsage: "model1.obj model2.glb ...",
			Flags: append(cmd.SceneFlags(),
				cli.Float64Flag{
					Name:  "scale",
					Value: 3,
					Usage: "window pixels per frame pixel",
				},
			),
			Action: cmd.RenderInteractive,
		},
		{
			Name:      "frame",
			Usage:     "render a single frame to a PNG file",
			ArgsUsage: "model1.obj model2.glb ...",
			Flags: append(cmd.SceneFlags(),
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			),
			Action: cmd.RenderFrame,
		},
		{
			Name:  "atlas",
			Usage: "pack textures into an atlas image",
			Description: `
Pack the listed textures, and the textures referenced by any listed models,
into a single atlas and print the placement of each texture.`,
			ArgsUsage: "texture.png model.obj ...",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "atlas-width",
					Value: 1024,
					Usage: "texture atlas width",
				},
				cli.IntFlag{
					Name:  "atlas-height",
					Value: 1024,
					Usage: "texture atlas height",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "atlas.png",
					Usage: "image filename for the atlas",
				},
			},
			Action: cmd.PackAtlas,
		},
		{
			Name:      "index",
			Usage:     "build the geometry index for a set of models",
			ArgsUsage: "model1.obj model2.glb ...",
			Flags:     cmd.SceneFlags(),
			Action:    cmd.BuildIndex,
		},
		{
			Name:      "probe",
			Usage:     "trace a single pixel on the CPU and print the result",
			ArgsUsage: "model1.obj model2.glb ...",
			Flags: append(cmd.SceneFlags(),
				cli.IntFlag{
					Name:  "x",
					Usage: "pixel column",
				},
				cli.IntFlag{
					Name:  "y",
					Usage: "pixel row counted from the top",
				},
			),
			Action: cmd.Probe,
		},
		{
			Name:   "capacities",
			Usage:  "list the fixed buffer capacities",
			Action: cmd.ListCapacities,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("raygun").Error(err)
		os.Exit(1)
	}
}
