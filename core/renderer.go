package core

import (
	"sync"
	"time"
)

// registry is the ownership record of every native handle a build
// realised, one map per namespace so collisions between namespaces are
// structurally impossible.
type registry struct {
	shaders            map[ID]uint32
	programs           map[ID]uint32
	buffers            map[ID]uint32
	vaos               map[ID]uint32
	textures           map[ID]uint32
	framebuffers       map[ID]uint32
	transformFeedbacks map[ID]uint32

	attributeLocations map[ID]uint32
	uniformLocations   map[ID]map[ID]int32 // uniform ID -> program ID -> location
}

func newRegistry() *registry {
	return &registry{
		shaders:            make(map[ID]uint32),
		programs:           make(map[ID]uint32),
		buffers:            make(map[ID]uint32),
		vaos:               make(map[ID]uint32),
		textures:           make(map[ID]uint32),
		framebuffers:       make(map[ID]uint32),
		transformFeedbacks: make(map[ID]uint32),
		attributeLocations: make(map[ID]uint32),
		uniformLocations:   make(map[ID]map[ID]int32),
	}
}

func (r *registry) namespace(kind ResourceKind) map[ID]uint32 {
	switch kind {
	case KindShader:
		return r.shaders
	case KindProgram:
		return r.programs
	case KindBuffer:
		return r.buffers
	case KindVertexArray:
		return r.vaos
	case KindTexture:
		return r.textures
	case KindFramebuffer:
		return r.framebuffers
	case KindTransformFeedback:
		return r.transformFeedbacks
	default:
		return nil
	}
}

func (r *registry) lookup(kind ResourceKind, id ID) (uint32, error) {
	ns := r.namespace(kind)
	if ns == nil {
		return 0, &UnknownIDError{Kind: kind, ID: id}
	}
	handle, ok := ns[id]
	if !ok {
		return 0, &UnknownIDError{Kind: kind, ID: id}
	}
	return handle, nil
}

// updateStep is one per-frame update, captured at build time so every
// frame replays the exact topological order the handles were created in.
type updateStep struct {
	node Node
	run  func(now float64)
}

// Renderer owns the realised resource graph. It is produced exclusively
// by Builder.Build and must be released with Free once rendering is done;
// no finalizer reclaims the native handles.
//
// A Renderer is not safe for concurrent use. With the ticker scheduler
// frames arrive on the scheduler's goroutine, so callers must not invoke
// Render or UpdateAndRender from another goroutine while animating.
type Renderer struct {
	gl      Context
	surface Surface
	userCtx interface{}

	reg     *registry
	updates []updateStep

	renderCallback RenderCallback
	updateCallback UpdateCallback

	driver *animationDriver
	epoch  time.Time

	mu    sync.Mutex
	freed bool
}

// GL returns the borrowed graphics context.
func (r *Renderer) GL() Context { return r.gl }

// Surface returns the borrowed surface the context was acquired from.
func (r *Renderer) Surface() Surface { return r.surface }

// UserContext returns the value stored with Builder.SetUserContext.
func (r *Renderer) UserContext() interface{} { return r.userCtx }

// Now returns the monotonic timestamp, in milliseconds since the build,
// that update callbacks receive.
func (r *Renderer) Now() float64 {
	return float64(time.Since(r.epoch)) / float64(time.Millisecond)
}

// Shader returns the native handle compiled for a shader ID.
func (r *Renderer) Shader(id ID) (uint32, error) {
	return r.handle(KindShader, id, "Shader")
}

// Program returns the native handle linked for a program ID.
func (r *Renderer) Program(id ID) (uint32, error) {
	return r.handle(KindProgram, id, "Program")
}

// Buffer returns the native handle created for a buffer ID.
func (r *Renderer) Buffer(id ID) (uint32, error) {
	return r.handle(KindBuffer, id, "Buffer")
}

// VAO returns the native handle allocated for a vertex array ID.
func (r *Renderer) VAO(id ID) (uint32, error) {
	return r.handle(KindVertexArray, id, "VAO")
}

// Texture returns the native handle created for a texture ID.
func (r *Renderer) Texture(id ID) (uint32, error) {
	return r.handle(KindTexture, id, "Texture")
}

// Framebuffer returns the native handle created for a framebuffer ID.
func (r *Renderer) Framebuffer(id ID) (uint32, error) {
	return r.handle(KindFramebuffer, id, "Framebuffer")
}

// TransformFeedback returns the native handle allocated for a transform
// feedback ID.
func (r *Renderer) TransformFeedback(id ID) (uint32, error) {
	return r.handle(KindTransformFeedback, id, "TransformFeedback")
}

// AttribLocation returns the location resolved for an attribute ID.
func (r *Renderer) AttribLocation(id ID) (uint32, error) {
	if err := r.guard("AttribLocation"); err != nil {
		return 0, err
	}
	location, ok := r.reg.attributeLocations[id]
	if !ok {
		return 0, &UnknownIDError{Kind: KindAttribute, ID: id}
	}
	return location, nil
}

// UniformLocation returns the location resolved for a uniform ID within
// one of the programs its link named.
func (r *Renderer) UniformLocation(id, programID ID) (int32, error) {
	if err := r.guard("UniformLocation"); err != nil {
		return -1, err
	}
	locations, ok := r.reg.uniformLocations[id]
	if !ok {
		return -1, &UnknownIDError{Kind: KindUniform, ID: id}
	}
	location, ok := locations[programID]
	if !ok {
		return -1, &UnknownIDError{Kind: KindProgram, ID: programID}
	}
	return location, nil
}

// UseProgram makes the program registered under id current.
func (r *Renderer) UseProgram(id ID) error {
	program, err := r.handle(KindProgram, id, "UseProgram")
	if err != nil {
		return err
	}
	r.gl.UseProgram(program)
	return nil
}

// UseVAO binds the vertex array registered under id.
func (r *Renderer) UseVAO(id ID) error {
	vao, err := r.handle(KindVertexArray, id, "UseVAO")
	if err != nil {
		return err
	}
	r.gl.BindVertexArray(vao)
	return nil
}

// Render invokes the render callback once. The callback performs all
// drawing through the Renderer it receives.
func (r *Renderer) Render() error {
	if err := r.guard("Render"); err != nil {
		return err
	}
	r.renderCallback(r)
	return nil
}

// UpdateAndRender runs every link update callback in the dependency order
// captured at build time, then the optional user update hook, then the
// render callback. This is the steady-state per-frame operation.
func (r *Renderer) UpdateAndRender() error {
	return r.updateAndRenderAt(r.Now())
}

func (r *Renderer) updateAndRenderAt(now float64) error {
	if err := r.guard("UpdateAndRender"); err != nil {
		return err
	}
	for _, step := range r.updates {
		step.run(now)
	}
	if r.updateCallback != nil {
		r.updateCallback(r, now)
	}
	r.renderCallback(r)
	return nil
}

// StartAnimating schedules UpdateAndRender to run repeatedly at the
// scheduler's frame cadence. Calling it while already animating is a
// no-op.
func (r *Renderer) StartAnimating() error {
	if err := r.guard("StartAnimating"); err != nil {
		return err
	}
	r.driver.start(func(now float64) {
		// Best effort: a frame racing Free simply does nothing.
		_ = r.updateAndRenderAt(now)
	})
	return nil
}

// StopAnimating cancels the animation loop. It takes effect no later than
// the next frame boundary and is a no-op when not animating.
func (r *Renderer) StopAnimating() {
	r.driver.stop()
}

// Animating reports whether the animation driver is running.
func (r *Renderer) Animating() bool {
	return r.driver.animating()
}

// Free stops any active animation and releases every native handle this
// Renderer owns. It is idempotent and never fails; the surface and its
// context are left untouched. After Free every other operation reports
// UseAfterFreeError.
func (r *Renderer) Free() {
	r.driver.stop()

	r.mu.Lock()
	if r.freed {
		r.mu.Unlock()
		return
	}
	r.freed = true
	r.mu.Unlock()

	for _, shader := range r.reg.shaders {
		r.gl.DeleteShader(shader)
	}
	for _, program := range r.reg.programs {
		r.gl.DeleteProgram(program)
	}
	for _, buffer := range r.reg.buffers {
		r.gl.DeleteBuffer(buffer)
	}
	for _, vao := range r.reg.vaos {
		r.gl.DeleteVertexArray(vao)
	}
	for _, texture := range r.reg.textures {
		r.gl.DeleteTexture(texture)
	}
	for _, framebuffer := range r.reg.framebuffers {
		r.gl.DeleteFramebuffer(framebuffer)
	}
	for _, tf := range r.reg.transformFeedbacks {
		r.gl.DeleteTransformFeedback(tf)
	}
}

func (r *Renderer) guard(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.freed {
		return &UseAfterFreeError{Op: op}
	}
	return nil
}

func (r *Renderer) handle(kind ResourceKind, id ID, op string) (uint32, error) {
	if err := r.guard(op); err != nil {
		return 0, err
	}
	return r.reg.lookup(kind, id)
}
