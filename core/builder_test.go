package core_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/rend/core"
)

const (
	vertexSource   = "void main() { gl_Position = vec4(0.0); }"
	fragmentSource = "void main() {}"
)

// quadBuilder assembles the canonical small graph used across the tests:
// two shaders linked into one program, a vertex buffer, a vertex array
// and one attribute reading the buffer through the program.
func quadBuilder(f *fakeContext, s core.FrameScheduler) *core.Builder {
	return core.NewBuilder().
		SetSurface(&fakeSurface{ctx: f}).
		SetScheduler(s).
		SetRenderCallback(func(r *core.Renderer) {}).
		AddShaderSource("vert", core.VertexShaderType, vertexSource).
		AddShaderSource("frag", core.FragmentShaderType, fragmentSource).
		AddProgramLink(core.ProgramLink{
			ID:               "prog",
			VertexShaderID:   "vert",
			FragmentShaderID: "frag",
		}).
		AddVAO("quad").
		AddBufferLink(core.BufferLink{ID: "positions"}).
		AddAttributeLink(core.AttributeLink{
			ID:        "a_position",
			ProgramID: "prog",
			VAOID:     "quad",
			BufferID:  "positions",
			Create: func(ctx *core.AttributeContext) {
				ctx.GL().VertexAttribPointer(ctx.Location(), 2, core.Float, false, 0, 0)
			},
		})
}

func logIndex(t *testing.T, log []string, substr string) int {
	t.Helper()
	for i, entry := range log {
		if strings.Contains(entry, substr) {
			return i
		}
	}
	t.Fatalf("no %q in context log %v", substr, log)
	return -1
}

func TestBuildRealizesInDependencyOrder(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()

	renderer, err := quadBuilder(f, &stepScheduler{}).Build()
	c.Assert(err, qt.IsNil)
	defer renderer.Free()

	// Shaders must exist before the program links them, and the program,
	// vertex array and buffer must all exist before the attribute is set
	// up against them.
	link := logIndex(t, f.log, "link program")
	c.Assert(logIndex(t, f.log, "create shader 1") < link, qt.Equals, true)
	c.Assert(logIndex(t, f.log, "create shader 2") < link, qt.Equals, true)

	pointer := logIndex(t, f.log, "attrib pointer")
	c.Assert(link < pointer, qt.Equals, true)
	c.Assert(logIndex(t, f.log, "create vao") < pointer, qt.Equals, true)
	c.Assert(logIndex(t, f.log, "create buffer") < pointer, qt.Equals, true)
}

func TestBuildExplicitDependencyOrder(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()

	var order []string
	builder := core.NewBuilder().
		SetSurface(&fakeSurface{ctx: f}).
		SetScheduler(&stepScheduler{}).
		SetRenderCallback(func(r *core.Renderer) {}).
		// Registered dependent-first on purpose: the declared edge, not
		// registration order, decides who is realised first.
		AddBufferLink(core.BufferLink{
			ID: "instances",
			Create: func(ctx *core.BufferContext) (uint32, error) {
				order = append(order, "instances")
				return ctx.GL().CreateBuffer(), nil
			},
			DependsOn: []core.Ref{{Kind: core.KindBuffer, ID: "geometry"}},
		}).
		AddBufferLink(core.BufferLink{
			ID: "geometry",
			Create: func(ctx *core.BufferContext) (uint32, error) {
				order = append(order, "geometry")
				return ctx.GL().CreateBuffer(), nil
			},
		})

	renderer, err := builder.Build()
	c.Assert(err, qt.IsNil)
	defer renderer.Free()
	c.Assert(order, qt.DeepEquals, []string{"geometry", "instances"})
}

func TestBuildWithoutRenderCallback(t *testing.T) {
	c := qt.New(t)

	_, err := core.NewBuilder().
		SetSurface(&fakeSurface{ctx: newFakeContext()}).
		Build()

	var missing *core.MissingRenderCallbackError
	c.Assert(errors.As(err, &missing), qt.Equals, true)
}

func TestBuildWithoutSurface(t *testing.T) {
	c := qt.New(t)

	_, err := core.NewBuilder().
		SetRenderCallback(func(r *core.Renderer) {}).
		Build()

	var acquisition *core.ContextAcquisitionError
	c.Assert(errors.As(err, &acquisition), qt.Equals, true)
}

func TestBuildSurfaceFailure(t *testing.T) {
	c := qt.New(t)

	_, err := core.NewBuilder().
		SetSurface(&fakeSurface{err: errNoDisplay}).
		SetRenderCallback(func(r *core.Renderer) {}).
		Build()

	var acquisition *core.ContextAcquisitionError
	c.Assert(errors.As(err, &acquisition), qt.Equals, true)
	c.Assert(errors.Is(err, errNoDisplay), qt.Equals, true)
}

func TestBuildDuplicateID(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()

	_, err := core.NewBuilder().
		SetSurface(&fakeSurface{ctx: f}).
		SetRenderCallback(func(r *core.Renderer) {}).
		AddBufferLink(core.BufferLink{ID: "b"}).
		AddBufferLink(core.BufferLink{ID: "b"}).
		Build()

	var dup *core.DuplicateIDError
	c.Assert(errors.As(err, &dup), qt.Equals, true)
	c.Assert(dup.Kind, qt.Equals, core.KindBuffer)
	c.Assert(dup.ID, qt.Equals, core.ID("b"))
	c.Assert(f.liveCount(), qt.Equals, 0)
}

func TestBuildSameIDAcrossNamespaces(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()

	// Namespaces are independent, so one name may identify a buffer, a
	// texture and a vertex array at the same time.
	renderer, err := core.NewBuilder().
		SetSurface(&fakeSurface{ctx: f}).
		SetScheduler(&stepScheduler{}).
		SetRenderCallback(func(r *core.Renderer) {}).
		AddBufferLink(core.BufferLink{ID: "shared"}).
		AddTextureLink(core.TextureLink{ID: "shared"}).
		AddVAO("shared").
		Build()

	c.Assert(err, qt.IsNil)
	defer renderer.Free()

	buffer, err := renderer.Buffer("shared")
	c.Assert(err, qt.IsNil)
	texture, err := renderer.Texture("shared")
	c.Assert(err, qt.IsNil)
	vao, err := renderer.VAO("shared")
	c.Assert(err, qt.IsNil)
	c.Assert(buffer != texture && texture != vao && buffer != vao, qt.Equals, true)
}

func TestBuildDanglingReference(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()

	_, err := core.NewBuilder().
		SetSurface(&fakeSurface{ctx: f}).
		SetRenderCallback(func(r *core.Renderer) {}).
		AddShaderSource("vert", core.VertexShaderType, vertexSource).
		AddProgramLink(core.ProgramLink{
			ID:               "prog",
			VertexShaderID:   "vert",
			FragmentShaderID: "missing",
		}).
		Build()

	var unknown *core.UnknownIDError
	c.Assert(errors.As(err, &unknown), qt.Equals, true)
	c.Assert(unknown.Kind, qt.Equals, core.KindShader)
	c.Assert(unknown.ID, qt.Equals, core.ID("missing"))

	// Validation runs before any graphics call.
	c.Assert(f.liveCount(), qt.Equals, 0)
	c.Assert(len(f.log), qt.Equals, 0)
}

func TestBuildCyclicDependency(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()

	_, err := core.NewBuilder().
		SetSurface(&fakeSurface{ctx: f}).
		SetRenderCallback(func(r *core.Renderer) {}).
		AddBufferLink(core.BufferLink{
			ID:        "a",
			DependsOn: []core.Ref{{Kind: core.KindBuffer, ID: "b"}},
		}).
		AddBufferLink(core.BufferLink{
			ID:        "b",
			DependsOn: []core.Ref{{Kind: core.KindBuffer, ID: "a"}},
		}).
		Build()

	var cyclic *core.CyclicDependencyError
	c.Assert(errors.As(err, &cyclic), qt.Equals, true)
	c.Assert(len(cyclic.Cycle) >= 3, qt.Equals, true)
	c.Assert(cyclic.Cycle[0], qt.Equals, cyclic.Cycle[len(cyclic.Cycle)-1])
	c.Assert(strings.Contains(err.Error(), "->"), qt.Equals, true)
	c.Assert(f.liveCount(), qt.Equals, 0)
}

func TestBuildShaderCompileFailure(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()
	f.failCompile[fragmentSource] = true

	_, err := quadBuilder(f, &stepScheduler{}).Build()

	var compile *core.ShaderCompileError
	c.Assert(errors.As(err, &compile), qt.Equals, true)
	c.Assert(compile.ID, qt.Equals, core.ID("frag"))
	c.Assert(compile.Log, qt.Equals, f.compileLog)

	// The vertex shader compiled before the failure; rollback must have
	// released it again.
	c.Assert(f.liveCount(), qt.Equals, 0)
	c.Assert(len(f.deleted) > 0, qt.Equals, true)
}

func TestBuildProgramLinkFailure(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()
	f.failLink = true

	_, err := quadBuilder(f, &stepScheduler{}).Build()

	var link *core.ProgramLinkError
	c.Assert(errors.As(err, &link), qt.Equals, true)
	c.Assert(link.ID, qt.Equals, core.ID("prog"))
	c.Assert(link.Log, qt.Equals, f.linkLog)
	c.Assert(f.liveCount(), qt.Equals, 0)
}

func TestBuildCreateCallbackFailure(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()
	failure := fmt.Errorf("no pixels to upload")

	_, err := quadBuilder(f, &stepScheduler{}).
		AddTextureLink(core.TextureLink{
			ID: "albedo",
			Create: func(ctx *core.TextureContext) (uint32, error) {
				return 0, failure
			},
		}).
		Build()

	var create *core.CreateCallbackError
	c.Assert(errors.As(err, &create), qt.Equals, true)
	c.Assert(create.Kind, qt.Equals, core.KindTexture)
	c.Assert(create.ID, qt.Equals, core.ID("albedo"))
	c.Assert(errors.Is(err, failure), qt.Equals, true)

	// Shaders, program, buffer and vertex array were realised before the
	// texture; every one of them must be gone again.
	c.Assert(f.liveCount(), qt.Equals, 0)
}

func TestBuildAttributeLocationMissing(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()
	f.missingNames["a_position"] = true

	_, err := quadBuilder(f, &stepScheduler{}).Build()

	var location *core.LocationError
	c.Assert(errors.As(err, &location), qt.Equals, true)
	c.Assert(location.Kind, qt.Equals, core.KindAttribute)
	c.Assert(location.ID, qt.Equals, core.ID("a_position"))
	c.Assert(location.Program, qt.Equals, core.ID("prog"))
	c.Assert(f.liveCount(), qt.Equals, 0)
}

func TestBuildUniformLocationMissing(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()
	f.missingNames["u_now"] = true

	_, err := quadBuilder(f, &stepScheduler{}).
		AddUniformLink(core.UniformLink{
			ID:         "u_now",
			ProgramIDs: []core.ID{"prog"},
			Create: func(ctx *core.UniformContext) {
				ctx.GL().Uniform1f(ctx.Location(), float32(ctx.Now()))
			},
		}).
		Build()

	var location *core.LocationError
	c.Assert(errors.As(err, &location), qt.Equals, true)
	c.Assert(location.Kind, qt.Equals, core.KindUniform)
	c.Assert(location.ID, qt.Equals, core.ID("u_now"))
	c.Assert(f.liveCount(), qt.Equals, 0)
}

func TestBuildUniformCreateRunsWithProgramInUse(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()

	var programDuringCreate uint32
	renderer, err := quadBuilder(f, &stepScheduler{}).
		AddUniformLink(core.UniformLink{
			ID:         "u_now",
			ProgramIDs: []core.ID{"prog"},
			Create: func(ctx *core.UniformContext) {
				programDuringCreate = f.currentProgram
				ctx.GL().Uniform1f(ctx.Location(), 0)
			},
		}).
		Build()
	c.Assert(err, qt.IsNil)
	defer renderer.Free()

	program, err := renderer.Program("prog")
	c.Assert(err, qt.IsNil)
	c.Assert(programDuringCreate, qt.Equals, program)
	// The program is released again once initialisation is done.
	c.Assert(f.currentProgram, qt.Equals, uint32(0))
}

func TestBuildTransformFeedbackVaryings(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()

	renderer, err := quadBuilder(f, &stepScheduler{}).
		AddTransformFeedback("capture").
		AddProgramLink(core.ProgramLink{
			ID:                        "feedback",
			VertexShaderID:            "vert",
			FragmentShaderID:          "frag",
			TransformFeedbackVaryings: []string{"v_position"},
		}).
		Build()
	c.Assert(err, qt.IsNil)
	defer renderer.Free()

	logIndex(t, f.log, "varyings")
	tf, err := renderer.TransformFeedback("capture")
	c.Assert(err, qt.IsNil)
	c.Assert(tf != 0, qt.Equals, true)
}

func TestBuildFramebufferAttachesTexture(t *testing.T) {
	c := qt.New(t)
	f := newFakeContext()

	renderer, err := quadBuilder(f, &stepScheduler{}).
		AddTextureLink(core.TextureLink{ID: "target"}).
		AddFramebufferLink(core.FramebufferLink{ID: "offscreen", TextureID: "target"}).
		Build()
	c.Assert(err, qt.IsNil)
	defer renderer.Free()

	texture, err := renderer.Texture("target")
	c.Assert(err, qt.IsNil)
	attach := logIndex(t, f.log, fmt.Sprintf("attach texture %d", texture))
	c.Assert(logIndex(t, f.log, "create framebuffer") < attach, qt.Equals, true)
}
