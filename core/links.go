package core

// Ref names a resource in another namespace. Buffer and texture links use
// it to declare explicit ordering dependencies beyond the structural ones.
type Ref struct {
	Kind ResourceKind
	ID   ID
}

// ShaderSource pairs a shader ID with its type and GLSL text. Sources are
// compiled during Build; a compile failure aborts the whole build.
type ShaderSource struct {
	ID     ID
	Type   ShaderType
	Source string
}

// ProgramLink ties a program ID to the vertex and fragment shader IDs that
// get linked into it. When TransformFeedbackVaryings is non-empty the
// varyings are registered before linking; BufferMode defaults to
// InterleavedAttribs when left zero.
type ProgramLink struct {
	ID               ID
	VertexShaderID   ID
	FragmentShaderID ID

	TransformFeedbackVaryings []string
	BufferMode                uint32
}

// BufferCreateFunc constructs one native buffer handle. Implementations
// usually create a buffer, bind it and upload initial data.
type BufferCreateFunc func(ctx *BufferContext) (uint32, error)

// BufferUpdateFunc re-applies dynamic buffer state once per frame.
type BufferUpdateFunc func(ctx *BufferContext)

// BufferLink declares a named GPU buffer. A nil Create yields a bare
// handle from the context with no data uploaded.
type BufferLink struct {
	ID     ID
	Create BufferCreateFunc
	Update BufferUpdateFunc

	// DependsOn forces these resources to be realised first. Their
	// handles are reachable from the callback context.
	DependsOn []Ref
}

// AttributeCreateFunc configures a vertex attribute. It runs with the
// attribute's vertex array and buffer already bound and is expected to
// describe the buffer layout with ctx.GL().VertexAttribPointer, which the
// bound vertex array records.
type AttributeCreateFunc func(ctx *AttributeContext)

// AttributeLink binds a GLSL attribute (named by its ID) to a program, a
// vertex array and a buffer. The attribute location is resolved during
// Build; an absent location fails the build with a LocationError.
type AttributeLink struct {
	ID        ID
	ProgramID ID
	VAOID     ID
	BufferID  ID
	Create    AttributeCreateFunc
}

// UniformFunc initialises or updates a uniform value. It runs with the
// owning program in use, so implementations only upload the value through
// the location in the context.
type UniformFunc func(ctx *UniformContext)

// UniformLink declares a GLSL uniform (named by its ID) present in one or
// more programs. Create runs once per program at build time; Update, when
// set, runs once per frame. Setting UseCreateAsUpdate reuses the create
// callback as the per-frame update, which covers uniforms whose refresh
// logic is identical to their initialisation, such as a running clock.
type UniformLink struct {
	ID         ID
	ProgramIDs []ID
	Create     UniformFunc
	Update     UniformFunc

	// ShouldUpdate, when set, gates Update on every frame.
	ShouldUpdate func(ctx *UniformContext) bool

	UseCreateAsUpdate bool
}

// TextureCreateFunc constructs one native texture handle.
type TextureCreateFunc func(ctx *TextureContext) (uint32, error)

// TextureUpdateFunc re-applies dynamic texture state once per frame.
type TextureUpdateFunc func(ctx *TextureContext)

// TextureLink declares a named texture. A nil Create yields a bare handle.
type TextureLink struct {
	ID     ID
	Create TextureCreateFunc
	Update TextureUpdateFunc

	DependsOn []Ref
}

// FramebufferCreateFunc constructs one native framebuffer handle. The
// context exposes the resolved texture handle when the link names one.
type FramebufferCreateFunc func(ctx *FramebufferContext) (uint32, error)

// FramebufferLink declares a named framebuffer, optionally backed by a
// previously declared texture. With a nil Create the framebuffer is
// allocated directly and the texture, if any, is attached to its first
// color attachment point.
type FramebufferLink struct {
	ID        ID
	TextureID ID // empty means no backing texture
	Create    FramebufferCreateFunc
}

// callbackContext carries what every link callback receives: the live
// graphics context, a monotonic timestamp in milliseconds, the caller's
// user context and lookups into the already-realised handles. Only the
// handles of a link's declared dependencies are guaranteed to exist when
// its callbacks run.
type callbackContext struct {
	gl      Context
	now     float64
	userCtx interface{}
	reg     *registry
}

// GL returns the live graphics context.
func (c *callbackContext) GL() Context { return c.gl }

// Now returns a monotonic timestamp in milliseconds.
func (c *callbackContext) Now() float64 { return c.now }

// UserContext returns the value supplied via Builder.SetUserContext, or
// nil when none was set.
func (c *callbackContext) UserContext() interface{} { return c.userCtx }

// Buffer resolves a dependency buffer handle.
func (c *callbackContext) Buffer(id ID) (uint32, error) {
	return c.reg.lookup(KindBuffer, id)
}

// Texture resolves a dependency texture handle.
func (c *callbackContext) Texture(id ID) (uint32, error) {
	return c.reg.lookup(KindTexture, id)
}

// Program resolves a dependency program handle.
func (c *callbackContext) Program(id ID) (uint32, error) {
	return c.reg.lookup(KindProgram, id)
}

// BufferContext is passed to buffer create and update callbacks.
type BufferContext struct {
	callbackContext
}

// AttributeContext is passed to attribute create callbacks.
type AttributeContext struct {
	callbackContext
	location uint32
	buffer   uint32
}

// Location returns the attribute's resolved location in its program.
func (c *AttributeContext) Location() uint32 { return c.location }

// BufferHandle returns the native handle of the attribute's buffer, which
// is bound to ArrayBuffer for the duration of the callback.
func (c *AttributeContext) BufferHandle() uint32 { return c.buffer }

// UniformContext is passed to uniform create and update callbacks. The
// owning program is in use for the duration of the callback.
type UniformContext struct {
	callbackContext
	location int32
}

// Location returns the uniform's resolved location in the program
// currently in use.
func (c *UniformContext) Location() int32 { return c.location }

// TextureContext is passed to texture create and update callbacks.
type TextureContext struct {
	callbackContext
}

// FramebufferContext is passed to framebuffer create callbacks.
type FramebufferContext struct {
	callbackContext
	texture uint32
}

// TextureHandle returns the native handle of the backing texture, or 0
// when the link declared none.
func (c *FramebufferContext) TextureHandle() uint32 { return c.texture }
