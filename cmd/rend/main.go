package main

import (
	"encoding/binary"
	"flag"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/rend/core"
	"github.com/devblok/rend/opengl"
	"github.com/devblok/rend/pack"
)

func init() {
	runtime.LockOSThread()
}

var assetFile = flag.String("assets", "", "load shader sources from a pack archive instead of the built-in ones")

var configuration = struct {
	Title           string
	ScreenWidth     int32
	ScreenHeight    int32
	FramesPerSecond int
}{
	Title:           "rend",
	ScreenWidth:     800,
	ScreenHeight:    600,
	FramesPerSecond: 60,
}

var shaderBox = packr.NewBox("./shaders")

// glSurface acquires the OpenGL context that the SDL window made
// current on this thread.
type glSurface struct{}

func (s *glSurface) Context() (core.Context, error) {
	return opengl.NewContext()
}

func newWindow() *sdl.Window {
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)

	window, err := sdl.CreateWindow(configuration.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		configuration.ScreenWidth,
		configuration.ScreenHeight,
		sdl.WINDOW_OPENGL)
	if err != nil {
		panic(err)
	}
	return window
}

// shaderSources resolves the GLSL text either from the embedded box or,
// with -assets, from a pack archive on disk.
func shaderSources() (vertex, fragment string) {
	if *assetFile == "" {
		return shaderBox.String("quad.vert"), shaderBox.String("quad.frag")
	}

	file, err := os.Open(*assetFile)
	if err != nil {
		log.WithError(err).Fatal("failed to open asset archive")
	}
	defer file.Close()

	archive, err := pack.Open(file)
	if err != nil {
		log.WithError(err).Fatal("failed to read asset archive")
	}

	vert, err := archive.ReadAll("quad.vert")
	if err != nil {
		log.WithError(err).Fatal("archive misses quad.vert")
	}
	frag, err := archive.ReadAll("quad.frag")
	if err != nil {
		log.WithError(err).Fatal("archive misses quad.frag")
	}
	return string(vert), string(frag)
}

// triangle holds clip-space positions for one triangle, two floats per
// vertex.
var triangle = []float32{
	-0.5, -0.5,
	0.5, -0.5,
	0.0, 0.5,
}

func floatBytes(values []float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func buildRenderer(vertexSource, fragmentSource string) (*core.Renderer, error) {
	return core.NewBuilder().
		SetSurface(&glSurface{}).
		AddShaderSource("vert", core.VertexShaderType, vertexSource).
		AddShaderSource("frag", core.FragmentShaderType, fragmentSource).
		AddProgramLink(core.ProgramLink{
			ID:               "quad",
			VertexShaderID:   "vert",
			FragmentShaderID: "frag",
		}).
		AddVAO("scene").
		AddBufferLink(core.BufferLink{
			ID: "positions",
			Create: func(ctx *core.BufferContext) (uint32, error) {
				gl := ctx.GL()
				buffer := gl.CreateBuffer()
				gl.BindBuffer(core.ArrayBuffer, buffer)
				gl.BufferData(core.ArrayBuffer, floatBytes(triangle), core.StaticDraw)
				gl.BindBuffer(core.ArrayBuffer, 0)
				return buffer, nil
			},
		}).
		AddAttributeLink(core.AttributeLink{
			ID:        "a_position",
			ProgramID: "quad",
			VAOID:     "scene",
			BufferID:  "positions",
			Create: func(ctx *core.AttributeContext) {
				ctx.GL().VertexAttribPointer(ctx.Location(), 2, core.Float, false, 0, 0)
			},
		}).
		AddUniformLink(core.UniformLink{
			ID:         "u_transform",
			ProgramIDs: []core.ID{"quad"},
			Create: func(ctx *core.UniformContext) {
				rotation := mgl32.HomogRotate3DZ(float32(ctx.Now()) / 1000.0)
				ctx.GL().UniformMatrix4fv(ctx.Location(), [16]float32(rotation))
			},
			UseCreateAsUpdate: true,
		}).
		AddUniformLink(core.UniformLink{
			ID:         "u_now",
			ProgramIDs: []core.ID{"quad"},
			Create: func(ctx *core.UniformContext) {
				ctx.GL().Uniform1f(ctx.Location(), float32(ctx.Now()))
			},
			UseCreateAsUpdate: true,
		}).
		SetRenderCallback(func(r *core.Renderer) {
			gl := r.GL()
			width, height := gl.DrawingBufferSize()
			gl.Viewport(0, 0, width, height)
			gl.ClearColor(0.05, 0.05, 0.08, 1.0)
			gl.Clear(core.ColorBufferBit)
			if err := r.UseProgram("quad"); err != nil {
				panic(err)
			}
			if err := r.UseVAO("scene"); err != nil {
				panic(err)
			}
			gl.DrawArrays(core.Triangles, 0, 3)
		}).
		Build()
}

func main() {
	flag.Parse()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		panic(err)
	}
	defer sdl.Quit()

	window := newWindow()
	defer window.Destroy()

	glContext, err := window.GLCreateContext()
	if err != nil {
		panic(err)
	}
	defer sdl.GLDeleteContext(glContext)
	if err := window.GLMakeCurrent(glContext); err != nil {
		panic(err)
	}

	vertexSource, fragmentSource := shaderSources()
	renderer, err := buildRenderer(vertexSource, fragmentSource)
	if err != nil {
		log.WithError(err).Fatal("failed to build renderer")
	}
	log.Info("renderer ready")

	// Frames run on this locked thread, the only one the GL context is
	// current on, so the ticker paces the loop instead of the renderer's
	// own scheduler.
	fpsTicker := time.NewTicker(time.Second / time.Duration(configuration.FramesPerSecond))
	defer fpsTicker.Stop()
	exitC := make(chan struct{}, 2)

EventLoop:
	for {
		select {
		case <-exitC:
			log.Info("event loop exited")
			break EventLoop
		case <-fpsTicker.C:
			var event sdl.Event
			for event = sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						exitC <- struct{}{}
						continue EventLoop
					}
				case *sdl.QuitEvent:
					exitC <- struct{}{}
					continue EventLoop
				}
			}
			if err := renderer.UpdateAndRender(); err != nil {
				log.WithError(err).Error("frame failed")
				exitC <- struct{}{}
				continue EventLoop
			}
			window.GLSwap()
		}
	}

	renderer.Free()
}
