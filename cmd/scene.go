package cmd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/achilleasa/raygun/asset/catalog"
	"github.com/achilleasa/raygun/renderer"
	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
	"github.com/urfave/cli"
)

var errNoModels = errors.New("missing model file arguments")

// SceneFlags are shared by all commands that assemble a scene from model files.
func SceneFlags() []cli.Flag {
	def := renderer.DefaultOptions()
	return []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: int(def.FrameW),
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: int(def.FrameH),
			Usage: "frame height",
		},
		cli.Float64Flag{
			Name:  "fov",
			Value: float64(def.FOV) * 180 / math.Pi,
			Usage: "vertical field of view in degrees",
		},
		cli.IntFlag{
			Name:  "atlas-width",
			Value: int(def.AtlasW),
			Usage: "texture atlas width",
		},
		cli.IntFlag{
			Name:  "atlas-height",
			Value: int(def.AtlasH),
			Usage: "texture atlas height",
		},
		cli.StringSliceFlag{
			Name:  "dynamic, d",
			Value: &cli.StringSlice{},
			Usage: "load a model as a dynamic entity",
		},
		cli.StringSliceFlag{
			Name:  "texture, t",
			Value: &cli.StringSlice{},
			Usage: "add a texture to the atlas",
		},
		cli.StringSliceFlag{
			Name:  "light, l",
			Value: &cli.StringSlice{},
			Usage: "add a point light: x,y,z[,r,g,b[,intensity]]",
		},
		cli.StringFlag{
			Name:  "eye",
			Value: "0,1,-3",
			Usage: "camera position",
		},
		cli.StringFlag{
			Name:  "look-at",
			Value: "0,1,0",
			Usage: "camera target",
		},
	}
}

// A scene assembled from command line arguments.
type sceneSetup struct {
	catalog *catalog.Catalog
	changes scene.Changes
	lights  []scene.LightSource
	camera  *scene.Camera

	// Entities that are animated by the interactive renderer.
	dynamic []scene.Renderable
}

func optionsFromFlags(ctx *cli.Context) renderer.Options {
	opts := renderer.DefaultOptions()
	opts.FrameW = uint32(ctx.Int("width"))
	opts.FrameH = uint32(ctx.Int("height"))
	opts.FOV = float32(ctx.Float64("fov") * math.Pi / 180)
	opts.AtlasW = uint32(ctx.Int("atlas-width"))
	opts.AtlasH = uint32(ctx.Int("atlas-height"))
	if ctx.IsSet("scale") {
		opts.WindowScale = float32(ctx.Float64("scale"))
	}
	return opts
}

// Load the models listed as arguments and build the first frame changes.
func loadScene(ctx *cli.Context) (*sceneSetup, renderer.Options, error) {
	opts := optionsFromFlags(ctx)
	if ctx.NArg() == 0 && len(ctx.StringSlice("dynamic")) == 0 {
		return nil, opts, errNoModels
	}

	setup := &sceneSetup{catalog: catalog.New()}
	for _, texturePath := range ctx.StringSlice("texture") {
		if err := setup.catalog.LoadTexture(texturePath); err != nil {
			return nil, opts, err
		}
	}

	nextID := scene.EntityID(1)
	addEntities := func(paths []string, dynamic bool) error {
		for _, modelPath := range paths {
			name, err := setup.catalog.LoadModel(modelPath)
			if err != nil {
				return err
			}
			r := scene.Renderable{
				Entity:    nextID,
				Model:     name,
				Transform: types.Ident4(),
				Dynamic:   dynamic,
			}
			nextID++
			setup.changes.Added = append(setup.changes.Added, r)
			if dynamic {
				setup.dynamic = append(setup.dynamic, r)
			}
		}
		return nil
	}
	if err := addEntities(ctx.Args(), false); err != nil {
		return nil, opts, err
	}
	if err := addEntities(ctx.StringSlice("dynamic"), true); err != nil {
		return nil, opts, err
	}

	if err := setup.catalog.Finalize(int(opts.AtlasW), int(opts.AtlasH)); err != nil {
		return nil, opts, err
	}

	lightSpecs := ctx.StringSlice("light")
	if len(lightSpecs) == 0 {
		lightSpecs = []string{"0,5,0"}
	}
	for _, spec := range lightSpecs {
		l, err := parseLight(spec)
		if err != nil {
			return nil, opts, err
		}
		setup.lights = append(setup.lights, scene.LightSource{Light: l, Enabled: true})
	}

	eye, err := parseVec3(ctx.String("eye"))
	if err != nil {
		return nil, opts, fmt.Errorf("invalid eye position: %w", err)
	}
	lookAt, err := parseVec3(ctx.String("look-at"))
	if err != nil {
		return nil, opts, fmt.Errorf("invalid look-at position: %w", err)
	}
	setup.camera = scene.NewCamera(eye, lookAt, types.Vec3{0, 1, 0}, opts.Viewport(), opts.FocalDistance)

	return setup, opts, nil
}

// Parse a comma separated float list.
func parseFloats(s string) ([]float32, error) {
	fields := strings.Split(s, ",")
	out := make([]float32, len(fields))
	for index, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
		if err != nil {
			return nil, err
		}
		out[index] = float32(v)
	}
	return out, nil
}

func parseVec3(s string) (types.Vec3, error) {
	v, err := parseFloats(s)
	if err != nil {
		return types.Vec3{}, err
	}
	if len(v) != 3 {
		return types.Vec3{}, fmt.Errorf("expected 3 components; got %d", len(v))
	}
	return types.Vec3{v[0], v[1], v[2]}, nil
}

func parseLight(s string) (scene.Light, error) {
	v, err := parseFloats(s)
	if err != nil {
		return scene.Light{}, fmt.Errorf("invalid light %q: %w", s, err)
	}

	l := scene.Light{Color: types.Vec3{1, 1, 1}, Intensity: 1, Kind: scene.PointLight}
	switch len(v) {
	case 7:
		l.Intensity = v[6]
		fallthrough
	case 6:
		l.Color = types.Vec3{v[3], v[4], v[5]}
		fallthrough
	case 3:
		l.Position = types.Vec3{v[0], v[1], v[2]}
	default:
		return scene.Light{}, fmt.Errorf("invalid light %q: expected 3, 6 or 7 components", s)
	}
	return l, nil
}
