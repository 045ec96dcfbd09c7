package cmd

import (
	"runtime"
	"time"

	"github.com/achilleasa/raygun/renderer"
	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/urfave/cli"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch camera angles.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	// Camera movement speed per frame.
	cameraMoveSpeed float32 = 0.05

	// Mouse look smoothing.
	lookFPS       = 60
	lookFrequency = 8.0
	lookDamping   = 1.0

	// Dynamic entities spin at this rate.
	spinRadiansPerSec = 0.5

	statsInterval = 5 * time.Second
)

// Spring-damped mouse look. Cursor movement sets a target angle and the
// camera follows it over a few frames.
type mouseLook struct {
	spring harmonica.Spring

	targetYaw, targetPitch float64
	yaw, pitch             float64
	yawVel, pitchVel       float64

	dragging      bool
	lastCursorPos types.Vec2
}

func newMouseLook() *mouseLook {
	return &mouseLook{
		spring: harmonica.NewSpring(harmonica.FPS(lookFPS), lookFrequency, lookDamping),
	}
}

// Push a cursor position. Movement only counts while dragging.
func (m *mouseLook) cursor(pos types.Vec2) {
	if m.dragging {
		delta := m.lastCursorPos.Sub(pos)
		m.targetYaw += float64(delta[0] * mouseSensitivityX)
		m.targetPitch += float64(delta[1] * mouseSensitivityY)
	}
	m.lastCursorPos = pos
}

// Advance the spring and rotate the camera by the angle covered this frame.
func (m *mouseLook) update(cam *scene.Camera) {
	prevYaw, prevPitch := m.yaw, m.pitch
	m.yaw, m.yawVel = m.spring.Update(m.yaw, m.yawVel, m.targetYaw)
	m.pitch, m.pitchVel = m.spring.Update(m.pitch, m.pitchVel, m.targetPitch)

	dYaw, dPitch := float32(m.yaw-prevYaw), float32(m.pitch-prevPitch)
	if dYaw != 0 || dPitch != 0 {
		cam.Rotate(dYaw, dPitch)
	}
}

// Render the scene in a window. Arrow keys or WASD move the camera and
// dragging with the left mouse button looks around.
func RenderInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	// GL calls must come from the thread that owns the context.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	setup, opts, err := loadScene(ctx)
	if err != nil {
		return err
	}

	backend, err := renderer.NewGLBackend(opts, "raygun", true)
	if err != nil {
		return err
	}
	d, err := renderer.NewDriver(backend, setup.catalog, opts)
	if err != nil {
		backend.Close()
		return err
	}
	defer d.Close()

	window := backend.Window()
	look := newMouseLook()
	var move types.Vec3
	window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
			return
		}
		if action == glfw.Repeat {
			return
		}

		var amount float32 = 1
		if action == glfw.Release {
			amount = -1
		}
		switch key {
		case glfw.KeyUp, glfw.KeyW:
			move[0] += amount
		case glfw.KeyDown, glfw.KeyS:
			move[0] -= amount
		case glfw.KeyRight, glfw.KeyD:
			move[1] += amount
		case glfw.KeyLeft, glfw.KeyA:
			move[1] -= amount
		case glfw.KeySpace:
			move[2] += amount
		case glfw.KeyLeftControl:
			move[2] -= amount
		}
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		xPos, yPos := w.GetCursorPos()
		look.lastCursorPos = types.Vec2{float32(xPos), float32(yPos)}
		look.dragging = action == glfw.Press
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xPos, yPos float64) {
		look.cursor(types.Vec2{float32(xPos), float32(yPos)})
	})

	changes := setup.changes
	start := time.Now()
	lastStats := start
	for !window.ShouldClose() {
		glfw.PollEvents()

		speed := cameraMoveSpeed
		if window.GetKey(glfw.KeyLeftShift) == glfw.Press {
			speed *= 2
		}
		if move != (types.Vec3{}) {
			setup.camera.Move(move[0]*speed, move[1]*speed, move[2]*speed)
		}
		look.update(setup.camera)

		if err = d.Frame(changes, setup.lights, setup.camera); err != nil {
			return err
		}
		backend.Present()

		changes = spin(setup.dynamic, time.Since(start))
		if time.Since(lastStats) > statsInterval {
			logger.Infof("frame statistics\n%s", d.Stats().Table())
			lastStats = time.Now()
		}
	}

	logger.Noticef("frame statistics\n%s", d.Stats().Table())
	return nil
}

// Rotate the dynamic entities around their local up axis.
func spin(dynamic []scene.Renderable, elapsed time.Duration) scene.Changes {
	var changes scene.Changes
	angle := float32(elapsed.Seconds()) * spinRadiansPerSec
	for _, r := range dynamic {
		r.Transform = types.Rotate4(types.Vec3{0, 1, 0}, angle)
		changes.Changed = append(changes.Changed, r)
	}
	return changes
}
