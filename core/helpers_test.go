package core_test

import (
	"errors"
	"fmt"

	"github.com/devblok/rend/core"
)

// fakeContext implements core.Context against in-memory state. It hands
// out sequential handles, keeps a call log for ordering assertions and
// counts live handles so leak checks stay trivial. Compile and link
// failures are injected per shader source or globally.
type fakeContext struct {
	nextHandle uint32
	live       map[uint32]string
	deleted    []uint32
	log        []string

	sources      map[uint32]string
	failCompile  map[string]bool // keyed by shader source text
	failLink     bool
	compileLog   string
	linkLog      string
	missingNames map[string]bool // names with no attrib/uniform location

	attribLocations  map[string]int32
	uniformLocations map[string]int32
	currentProgram   uint32
	boundVAO         uint32
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		live:             make(map[uint32]string),
		sources:          make(map[uint32]string),
		failCompile:      make(map[string]bool),
		missingNames:     make(map[string]bool),
		attribLocations:  make(map[string]int32),
		uniformLocations: make(map[string]int32),
		compileLog:       "synthetic compile failure",
		linkLog:          "synthetic link failure",
	}
}

func (f *fakeContext) alloc(kind string) uint32 {
	f.nextHandle++
	f.live[f.nextHandle] = kind
	f.record("create %s %d", kind, f.nextHandle)
	return f.nextHandle
}

func (f *fakeContext) release(kind string, handle uint32) {
	delete(f.live, handle)
	f.deleted = append(f.deleted, handle)
	f.record("delete %s %d", kind, handle)
}

func (f *fakeContext) record(format string, args ...interface{}) {
	f.log = append(f.log, fmt.Sprintf(format, args...))
}

// liveCount returns how many handles exist right now.
func (f *fakeContext) liveCount() int { return len(f.live) }

func (f *fakeContext) CreateShader(t core.ShaderType) uint32 { return f.alloc("shader") }
func (f *fakeContext) ShaderSource(shader uint32, src string) {
	f.sources[shader] = src
}
func (f *fakeContext) CompileShader(shader uint32) {
	f.record("compile shader %d", shader)
}
func (f *fakeContext) ShaderCompileSucceeded(shader uint32) bool {
	return !f.failCompile[f.sources[shader]]
}
func (f *fakeContext) ShaderInfoLog(shader uint32) string { return f.compileLog }
func (f *fakeContext) DeleteShader(shader uint32)         { f.release("shader", shader) }

func (f *fakeContext) CreateProgram() uint32 { return f.alloc("program") }
func (f *fakeContext) AttachShader(program, shader uint32) {
	f.record("attach %d to %d", shader, program)
}
func (f *fakeContext) TransformFeedbackVaryings(program uint32, varyings []string, bufferMode uint32) {
	f.record("varyings %d %v", program, varyings)
}
func (f *fakeContext) LinkProgram(program uint32) {
	f.record("link program %d", program)
}
func (f *fakeContext) ProgramLinkSucceeded(program uint32) bool { return !f.failLink }
func (f *fakeContext) ProgramInfoLog(program uint32) string     { return f.linkLog }
func (f *fakeContext) UseProgram(program uint32) {
	f.currentProgram = program
	f.record("use program %d", program)
}
func (f *fakeContext) DeleteProgram(program uint32) { f.release("program", program) }

func (f *fakeContext) location(table map[string]int32, name string) int32 {
	if f.missingNames[name] {
		return -1
	}
	if loc, ok := table[name]; ok {
		return loc
	}
	loc := int32(len(table))
	table[name] = loc
	return loc
}

func (f *fakeContext) GetUniformLocation(program uint32, name string) int32 {
	return f.location(f.uniformLocations, name)
}
func (f *fakeContext) GetAttribLocation(program uint32, name string) int32 {
	return f.location(f.attribLocations, name)
}

func (f *fakeContext) CreateBuffer() uint32 { return f.alloc("buffer") }
func (f *fakeContext) BindBuffer(target, buffer uint32) {
	f.record("bind buffer %d", buffer)
}
func (f *fakeContext) BufferData(target uint32, data []byte, usage uint32) {
	f.record("buffer data %d bytes", len(data))
}
func (f *fakeContext) DeleteBuffer(buffer uint32) { f.release("buffer", buffer) }

func (f *fakeContext) CreateVertexArray() uint32 { return f.alloc("vao") }
func (f *fakeContext) BindVertexArray(vao uint32) {
	f.boundVAO = vao
	f.record("bind vao %d", vao)
}
func (f *fakeContext) DeleteVertexArray(vao uint32) { f.release("vao", vao) }
func (f *fakeContext) EnableVertexAttribArray(location uint32) {
	f.record("enable attrib %d", location)
}
func (f *fakeContext) VertexAttribPointer(location uint32, size int32, xtype uint32, normalized bool, stride, offset int32) {
	f.record("attrib pointer %d", location)
}

func (f *fakeContext) CreateTexture() uint32       { return f.alloc("texture") }
func (f *fakeContext) ActiveTexture(unit uint32)   {}
func (f *fakeContext) BindTexture(target, texture uint32) {
	f.record("bind texture %d", texture)
}
func (f *fakeContext) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
}
func (f *fakeContext) TexParameteri(target, pname uint32, param int32) {}
func (f *fakeContext) DeleteTexture(texture uint32)                    { f.release("texture", texture) }

func (f *fakeContext) CreateFramebuffer() uint32 { return f.alloc("framebuffer") }
func (f *fakeContext) BindFramebuffer(target, framebuffer uint32) {
	f.record("bind framebuffer %d", framebuffer)
}
func (f *fakeContext) FramebufferTexture2D(target, attachment, textarget, texture uint32, level int32) {
	f.record("attach texture %d", texture)
}
func (f *fakeContext) DeleteFramebuffer(framebuffer uint32) { f.release("framebuffer", framebuffer) }

func (f *fakeContext) CreateTransformFeedback() uint32          { return f.alloc("tf") }
func (f *fakeContext) BindTransformFeedback(target, tf uint32)  {}
func (f *fakeContext) DeleteTransformFeedback(tf uint32)        { f.release("tf", tf) }

func (f *fakeContext) Uniform1f(location int32, v float32) {
	f.record("uniform1f %d", location)
}
func (f *fakeContext) Uniform2f(location int32, v0, v1 float32)         {}
func (f *fakeContext) Uniform3f(location int32, v0, v1, v2 float32)     {}
func (f *fakeContext) Uniform4f(location int32, v0, v1, v2, v3 float32) {}
func (f *fakeContext) Uniform1i(location int32, v int32)                {}
func (f *fakeContext) UniformMatrix4fv(location int32, value [16]float32) {}

func (f *fakeContext) Viewport(x, y, width, height int32)     {}
func (f *fakeContext) ClearColor(r, g, b, a float32)          {}
func (f *fakeContext) Clear(mask uint32)                      { f.record("clear") }
func (f *fakeContext) DrawArrays(mode uint32, first, count int32) {
	f.record("draw %d", count)
}
func (f *fakeContext) DrawingBufferSize() (int32, int32) { return 640, 480 }

// fakeSurface hands out a context or an injected error.
type fakeSurface struct {
	ctx core.Context
	err error
}

func (s *fakeSurface) Context() (core.Context, error) {
	return s.ctx, s.err
}

var errNoDisplay = errors.New("no display attached")

// stepScheduler is a synchronous FrameScheduler for tests. Scheduled
// frames queue up and fire only when Step is called, which mirrors the
// cooperative host loop without any goroutines.
type stepScheduler struct {
	pending   []*pendingFrame
	scheduled int
	cancelled int
}

type pendingFrame struct {
	frame     func(now float64)
	cancelled bool
}

func (s *stepScheduler) ScheduleFrame(frame func(now float64)) core.CancelFunc {
	s.scheduled++
	p := &pendingFrame{frame: frame}
	s.pending = append(s.pending, p)
	return func() {
		if !p.cancelled {
			p.cancelled = true
			s.cancelled++
		}
	}
}

// Step fires the oldest pending frame that has not been cancelled.
func (s *stepScheduler) Step(now float64) bool {
	for len(s.pending) > 0 {
		p := s.pending[0]
		s.pending = s.pending[1:]
		if p.cancelled {
			continue
		}
		p.frame(now)
		return true
	}
	return false
}
