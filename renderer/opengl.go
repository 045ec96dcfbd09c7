package renderer

import (
	"fmt"
	"image"
	"strings"

	"github.com/achilleasa/raygun/log"
	"github.com/achilleasa/raygun/shader"
	"github.com/achilleasa/raygun/types"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// GLBackend runs the raytracing pass on an OpenGL 3.3 core context owned by a
// glfw window. All methods must be called from the thread that created it.
type GLBackend struct {
	logger log.Logger
	window *glfw.Window
	scale  float32

	program uint32
	vao     uint32
	ubos    map[string]uint32

	atlasTex uint32
	atlasW   int32
	atlasH   int32

	// Intermediate color target.
	frameTex uint32
	frameFbo uint32
	frameW   int32
	frameH   int32
}

// NewGLBackend opens a window sized to the frame times the window scale and
// compiles the raytracing program. Hidden windows are used for offscreen
// rendering.
func NewGLBackend(opts Options, title string, visible bool) (*GLBackend, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("renderer: failed to initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if !visible {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	scale := opts.WindowScale
	if scale <= 0 {
		scale = 1
	}
	window, err := glfw.CreateWindow(int(float32(opts.FrameW)*scale), int(float32(opts.FrameH)*scale), title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("renderer: could not create opengl window: %w", err)
	}
	window.MakeContextCurrent()

	if err = gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("renderer: could not init opengl: %w", err)
	}

	b := &GLBackend{
		logger: log.New("opengl"),
		window: window,
		scale:  scale,
		ubos:   make(map[string]uint32),
	}
	b.logger.Noticef("using %s (%s)", gl.GoStr(gl.GetString(gl.RENDERER)), gl.GoStr(gl.GetString(gl.VERSION)))

	if err = b.init(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// Window returns the window owning the GL context.
func (b *GLBackend) Window() *glfw.Window {
	return b.window
}

func (b *GLBackend) init() error {
	var err error
	if b.program, err = linkProgram(shader.Vertex(), shader.Fragment()); err != nil {
		return err
	}
	gl.UseProgram(b.program)

	// The vertex shader derives positions from gl_VertexID.
	gl.GenVertexArrays(1, &b.vao)

	var maxBlockSize int32
	gl.GetIntegerv(gl.MAX_UNIFORM_BLOCK_SIZE, &maxBlockSize)
	for _, block := range shader.Blocks {
		if block.Bytes() > int(maxBlockSize) {
			return fmt.Errorf("%w: uniform block %s needs %d bytes; device supports %d", ErrShaderCompile, block.Name, block.Bytes(), maxBlockSize)
		}

		blockIndex := gl.GetUniformBlockIndex(b.program, gl.Str(block.Name+"\x00"))
		if blockIndex == gl.INVALID_INDEX {
			// Unused blocks are optimized away by some drivers.
			b.logger.Warningf("uniform block %s is not active", block.Name)
		} else {
			gl.UniformBlockBinding(b.program, blockIndex, block.Binding)
		}

		var ubo uint32
		gl.GenBuffers(1, &ubo)
		gl.BindBuffer(gl.UNIFORM_BUFFER, ubo)
		gl.BufferData(gl.UNIFORM_BUFFER, block.Bytes(), nil, gl.DYNAMIC_DRAW)
		gl.BindBufferBase(gl.UNIFORM_BUFFER, block.Binding, ubo)
		b.ubos[block.Name] = ubo
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)

	gl.GenTextures(1, &b.atlasTex)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.atlasTex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.Uniform1i(gl.GetUniformLocation(b.program, gl.Str(shader.AtlasSampler+"\x00")), 0)

	return checkGLError("init")
}

// UploadBlock replaces the contents of a uniform block.
func (b *GLBackend) UploadBlock(block shader.Block, data []types.Vec4) error {
	ubo, exists := b.ubos[block.Name]
	if !exists {
		return fmt.Errorf("renderer: unknown uniform block %q", block.Name)
	}
	if len(data) == 0 {
		return nil
	}
	if len(data) > block.Vec4s {
		return fmt.Errorf("renderer: %d vec4s do not fit in uniform block %s (%d)", len(data), block.Name, block.Vec4s)
	}

	gl.BindBuffer(gl.UNIFORM_BUFFER, ubo)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(data)*16, gl.Ptr(&data[0][0]))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return checkGLError("upload " + block.Name)
}

// UploadAtlas replaces the atlas texture. Atlas row 0 is stored first so
// v = 0 addresses the top of the atlas image.
func (b *GLBackend) UploadAtlas(atlas *image.RGBA) error {
	bounds := atlas.Bounds()
	w, h := int32(bounds.Dx()), int32(bounds.Dy())
	if w == 0 || h == 0 {
		return nil
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.atlasTex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(atlas.Stride/4))
	if w != b.atlasW || h != b.atlasH {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(atlas.Pix))
		b.atlasW, b.atlasH = w, h
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, w, h, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(atlas.Pix))
	}
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	return checkGLError("upload atlas")
}

// Draw runs the raytracing pass into the intermediate texture. A minimized
// window or a closed surface reports ErrSurfaceLost.
func (b *GLBackend) Draw(width, height uint32) error {
	if b.window.ShouldClose() {
		return fmt.Errorf("%w: window closed", ErrSurfaceLost)
	}
	if fbW, fbH := b.window.GetFramebufferSize(); fbW == 0 || fbH == 0 {
		return fmt.Errorf("%w: zero-sized framebuffer", ErrSurfaceLost)
	}

	if err := b.ensureTarget(int32(width), int32(height)); err != nil {
		return err
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, b.frameFbo)
	gl.Viewport(0, 0, b.frameW, b.frameH)
	gl.Enable(gl.FRAMEBUFFER_SRGB)
	gl.UseProgram(b.program)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.atlasTex)
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.Disable(gl.FRAMEBUFFER_SRGB)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	return checkGLError("draw")
}

// Present scales the intermediate texture onto the window and swaps buffers.
func (b *GLBackend) Present() {
	fbW, fbH := b.window.GetFramebufferSize()
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, b.frameFbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, b.frameW, b.frameH, 0, 0, int32(fbW), int32(fbH), gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	b.window.SwapBuffers()
}

// ReadFrame copies the intermediate texture to an image with row 0 at the top.
func (b *GLBackend) ReadFrame() (*image.RGBA, error) {
	if b.frameFbo == 0 {
		return nil, fmt.Errorf("renderer: no frame has been drawn")
	}

	w, h := int(b.frameW), int(b.frameH)
	pix := make([]uint8, w*h*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, b.frameFbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, b.frameW, b.frameH, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	if err := checkGLError("read frame"); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rowBytes := w * 4
	for y := 0; y < h; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+rowBytes], pix[(h-1-y)*rowBytes:(h-y)*rowBytes])
	}
	return img, nil
}

// Close releases the GL objects and the window.
func (b *GLBackend) Close() {
	if b.window == nil {
		return
	}

	for _, ubo := range b.ubos {
		gl.DeleteBuffers(1, &ubo)
	}
	if b.frameFbo != 0 {
		gl.DeleteFramebuffers(1, &b.frameFbo)
		gl.DeleteTextures(1, &b.frameTex)
	}
	gl.DeleteTextures(1, &b.atlasTex)
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteProgram(b.program)

	b.window.Destroy()
	b.window = nil
	glfw.Terminate()
}

// (Re)create the intermediate sRGB texture if the frame dims changed.
func (b *GLBackend) ensureTarget(width, height int32) error {
	if b.frameFbo != 0 && width == b.frameW && height == b.frameH {
		return nil
	}
	if b.frameFbo != 0 {
		gl.DeleteFramebuffers(1, &b.frameFbo)
		gl.DeleteTextures(1, &b.frameTex)
	}

	gl.GenTextures(1, &b.frameTex)
	gl.BindTexture(gl.TEXTURE_2D, b.frameTex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.SRGB8_ALPHA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	gl.GenFramebuffers(1, &b.frameFbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, b.frameFbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, b.frameTex, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, b.atlasTex)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w: status 0x%x", ErrFramebufferIncomplete, status)
	}

	b.frameW, b.frameH = width, height
	b.logger.Debugf("allocated %dx%d intermediate texture", width, height)
	return nil
}

func linkProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vs, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(infoLog))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("%w: link: %s", ErrShaderCompile, strings.TrimRight(infoLog, "\x00"))
	}
	return program, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(infoLog))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("%w: %s", ErrShaderCompile, strings.TrimRight(infoLog, "\x00"))
	}
	return sh, nil
}

func checkGLError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("renderer: %s: gl error 0x%x", op, code)
	}
	return nil
}
