// Package core implements a declarative dependency graph over GPU
// resources. Callers describe shaders, programs, buffers, attributes,
// uniforms, vertex arrays, textures, framebuffers and transform feedbacks
// as named links, and the Builder realises them against a live graphics
// context in dependency order. The resulting Renderer drives per-frame
// updates and owns every native handle it created until Free is called.
package core

// ID names a user-defined resource. Each resource kind has its own
// namespace, so the same ID may be reused for, say, a buffer and a shader.
// For attributes and uniforms the ID doubles as the GLSL variable name.
type ID string

// ResourceKind identifies one of the resource namespaces managed by the
// graph. It appears in graph nodes and in error values.
type ResourceKind int

// All resource namespaces.
const (
	KindShader ResourceKind = iota
	KindProgram
	KindBuffer
	KindAttribute
	KindUniform
	KindVertexArray
	KindTexture
	KindFramebuffer
	KindTransformFeedback
)

func (k ResourceKind) String() string {
	switch k {
	case KindShader:
		return "shader"
	case KindProgram:
		return "program"
	case KindBuffer:
		return "buffer"
	case KindAttribute:
		return "attribute"
	case KindUniform:
		return "uniform"
	case KindVertexArray:
		return "vertex array"
	case KindTexture:
		return "texture"
	case KindFramebuffer:
		return "framebuffer"
	case KindTransformFeedback:
		return "transform feedback"
	default:
		return "unknown resource"
	}
}

// ShaderType represents the type of shader source that gets compiled
type ShaderType int

// Identifies shader sources with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (t ShaderType) String() string {
	switch t {
	case VertexShaderType:
		return "vertex"
	case FragmentShaderType:
		return "fragment"
	default:
		return "unknown"
	}
}

// Context is the narrow view of a stateful, handle-based graphics API the
// graph needs. Handles are opaque uint32 values where 0 means "no handle",
// locations are int32 values where -1 means "not found". The gl package
// provides an OpenGL implementation; tests substitute a recording stub.
//
// All calls must happen on the thread that owns the underlying context.
type Context interface {
	// Shaders and programs
	CreateShader(t ShaderType) uint32
	ShaderSource(shader uint32, src string)
	CompileShader(shader uint32)
	ShaderCompileSucceeded(shader uint32) bool
	ShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)
	CreateProgram() uint32
	AttachShader(program, shader uint32)
	TransformFeedbackVaryings(program uint32, varyings []string, bufferMode uint32)
	LinkProgram(program uint32)
	ProgramLinkSucceeded(program uint32) bool
	ProgramInfoLog(program uint32) string
	UseProgram(program uint32)
	DeleteProgram(program uint32)
	GetUniformLocation(program uint32, name string) int32
	GetAttribLocation(program uint32, name string) int32

	// Buffers and vertex state
	CreateBuffer() uint32
	BindBuffer(target, buffer uint32)
	BufferData(target uint32, data []byte, usage uint32)
	DeleteBuffer(buffer uint32)
	CreateVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)
	EnableVertexAttribArray(location uint32)
	VertexAttribPointer(location uint32, size int32, xtype uint32, normalized bool, stride, offset int32)

	// Textures and framebuffers
	CreateTexture() uint32
	ActiveTexture(unit uint32)
	BindTexture(target, texture uint32)
	TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte)
	TexParameteri(target, pname uint32, param int32)
	DeleteTexture(texture uint32)
	CreateFramebuffer() uint32
	BindFramebuffer(target, framebuffer uint32)
	FramebufferTexture2D(target, attachment, textarget, texture uint32, level int32)
	DeleteFramebuffer(framebuffer uint32)

	// Transform feedback
	CreateTransformFeedback() uint32
	BindTransformFeedback(target, tf uint32)
	DeleteTransformFeedback(tf uint32)

	// Uniform upload
	Uniform1f(location int32, v float32)
	Uniform2f(location int32, v0, v1 float32)
	Uniform3f(location int32, v0, v1, v2 float32)
	Uniform4f(location int32, v0, v1, v2, v3 float32)
	Uniform1i(location int32, v int32)
	UniformMatrix4fv(location int32, value [16]float32)

	// Frame operations
	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)
	DrawArrays(mode uint32, first, count int32)
	DrawingBufferSize() (width, height int32)
}

// Surface is the target the Builder acquires a graphics context from,
// typically a window or canvas. The surface is borrowed, never owned:
// freeing a Renderer does not touch it.
type Surface interface {
	// Context returns the live graphics context for this surface.
	Context() (Context, error)
}

// CancelFunc revokes a frame that was scheduled but has not fired yet.
// Calling it after the frame fired is a no-op.
type CancelFunc func()

// FrameScheduler is the host primitive that invokes a callback once on the
// next display refresh. The animation driver re-schedules itself through it
// after every completed frame. The now argument is a monotonic timestamp in
// milliseconds.
type FrameScheduler interface {
	ScheduleFrame(frame func(now float64)) CancelFunc
}

// Symbolic constants for the subset of the graphics API surfaced through
// Context. Values match the native GL enumeration so backends pass them
// straight through.
const (
	ArrayBuffer             uint32 = 0x8892
	ElementArrayBuffer      uint32 = 0x8893
	TransformFeedbackBuffer uint32 = 0x8C8E

	StaticDraw  uint32 = 0x88E4
	DynamicDraw uint32 = 0x88E8
	StreamDraw  uint32 = 0x88E0

	Float        uint32 = 0x1406
	UnsignedByte uint32 = 0x1401

	Points        uint32 = 0x0000
	Lines         uint32 = 0x0001
	Triangles     uint32 = 0x0004
	TriangleStrip uint32 = 0x0005

	ColorBufferBit uint32 = 0x4000
	DepthBufferBit uint32 = 0x0100

	Texture2D        uint32 = 0x0DE1
	TextureUnit0     uint32 = 0x84C0
	RGBA             uint32 = 0x1908
	TextureMinFilter uint32 = 0x2801
	TextureMagFilter uint32 = 0x2800
	Nearest          int32  = 0x2600
	Linear           int32  = 0x2601

	FramebufferTarget uint32 = 0x8D40
	ColorAttachment0  uint32 = 0x8CE0

	TransformFeedbackTarget uint32 = 0x8E22
	InterleavedAttribs      uint32 = 0x8C8C
	SeparateAttribs         uint32 = 0x8C8D
)
