package core

import "time"

// RenderCallback draws one frame using the realised resources.
type RenderCallback func(r *Renderer)

// UpdateCallback is an optional per-frame hook that runs after every link
// update and before the render callback. now is a monotonic timestamp in
// milliseconds.
type UpdateCallback func(r *Renderer, now float64)

// Builder accumulates a surface, shader sources and resource links, then
// resolves the dependency graph and realises every native handle with
// Build. A Builder performs no graphics calls before Build; failed builds
// release everything they allocated.
type Builder struct {
	surface        Surface
	scheduler      FrameScheduler
	userCtx        interface{}
	renderCallback RenderCallback
	updateCallback UpdateCallback

	shaderSources      []ShaderSource
	programLinks       []ProgramLink
	vaos               []ID
	transformFeedbacks []ID
	bufferLinks        []BufferLink
	textureLinks       []TextureLink
	framebufferLinks   []FramebufferLink
	attributeLinks     []AttributeLink
	uniformLinks       []UniformLink
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetSurface sets the surface the graphics context is acquired from.
func (b *Builder) SetSurface(s Surface) *Builder {
	b.surface = s
	return b
}

// SetScheduler sets the frame scheduler the animation driver runs on.
// When unset, Build falls back to a 60fps TickerScheduler.
func (b *Builder) SetScheduler(s FrameScheduler) *Builder {
	b.scheduler = s
	return b
}

// SetRenderCallback sets the callback invoked once per rendered frame.
func (b *Builder) SetRenderCallback(cb RenderCallback) *Builder {
	b.renderCallback = cb
	return b
}

// SetUpdateCallback sets an optional hook that runs each frame after the
// link updates and before rendering.
func (b *Builder) SetUpdateCallback(cb UpdateCallback) *Builder {
	b.updateCallback = cb
	return b
}

// SetUserContext stores an arbitrary value that every link callback can
// reach through its context. Useful for stateful demo data.
func (b *Builder) SetUserContext(ctx interface{}) *Builder {
	b.userCtx = ctx
	return b
}

// AddShaderSource registers GLSL source text under a shader ID.
func (b *Builder) AddShaderSource(id ID, t ShaderType, src string) *Builder {
	b.shaderSources = append(b.shaderSources, ShaderSource{ID: id, Type: t, Source: src})
	return b
}

// AddProgramLink registers a program built from two registered shaders.
func (b *Builder) AddProgramLink(link ProgramLink) *Builder {
	b.programLinks = append(b.programLinks, link)
	return b
}

// AddVAO registers a bare vertex array object. VAOs need no callback
// beyond allocation; attribute links record their layout into them.
func (b *Builder) AddVAO(id ID) *Builder {
	b.vaos = append(b.vaos, id)
	return b
}

// AddTransformFeedback registers a bare transform feedback object.
func (b *Builder) AddTransformFeedback(id ID) *Builder {
	b.transformFeedbacks = append(b.transformFeedbacks, id)
	return b
}

// AddBufferLink registers a buffer link.
func (b *Builder) AddBufferLink(link BufferLink) *Builder {
	b.bufferLinks = append(b.bufferLinks, link)
	return b
}

// AddTextureLink registers a texture link.
func (b *Builder) AddTextureLink(link TextureLink) *Builder {
	b.textureLinks = append(b.textureLinks, link)
	return b
}

// AddFramebufferLink registers a framebuffer link.
func (b *Builder) AddFramebufferLink(link FramebufferLink) *Builder {
	b.framebufferLinks = append(b.framebufferLinks, link)
	return b
}

// AddAttributeLink registers an attribute link.
func (b *Builder) AddAttributeLink(link AttributeLink) *Builder {
	b.attributeLinks = append(b.attributeLinks, link)
	return b
}

// AddUniformLink registers a uniform link.
func (b *Builder) AddUniformLink(link UniformLink) *Builder {
	b.uniformLinks = append(b.uniformLinks, link)
	return b
}

// Build validates the accumulated links, acquires the graphics context,
// realises every native handle in dependency order and returns the
// Renderer owning them. No partial Renderer is ever returned: the first
// failure releases all handles allocated so far and propagates.
func (b *Builder) Build() (*Renderer, error) {
	if b.renderCallback == nil {
		return nil, &MissingRenderCallbackError{}
	}
	if b.surface == nil {
		return nil, &ContextAcquisitionError{Reason: "no surface was supplied to the builder"}
	}
	gl, err := b.surface.Context()
	if err != nil {
		return nil, &ContextAcquisitionError{Reason: "surface returned no context", Err: err}
	}
	if gl == nil {
		return nil, &ContextAcquisitionError{Reason: "surface returned a nil context"}
	}

	st, err := b.newBuildState(gl)
	if err != nil {
		return nil, err
	}
	order, err := st.graph.sort()
	if err != nil {
		return nil, err
	}

	for _, n := range order {
		if err := st.realize(n); err != nil {
			st.rollback()
			return nil, err
		}
	}

	scheduler := b.scheduler
	if scheduler == nil {
		scheduler = NewTickerScheduler(SchedulerConfiguration{FramesPerSecond: defaultFramesPerSecond})
	}

	return &Renderer{
		gl:             gl,
		surface:        b.surface,
		userCtx:        b.userCtx,
		reg:            st.reg,
		updates:        st.updates,
		renderCallback: b.renderCallback,
		updateCallback: b.updateCallback,
		driver:         &animationDriver{scheduler: scheduler},
		epoch:          st.epoch,
	}, nil
}

// buildState carries everything Build needs while realising nodes: link
// tables keyed by ID, the handle registry being filled, the rollback list
// and the per-frame update plan in topological order.
type buildState struct {
	gl      Context
	userCtx interface{}
	epoch   time.Time

	graph *depGraph
	reg   *registry

	sources      map[ID]ShaderSource
	programs     map[ID]ProgramLink
	buffers      map[ID]BufferLink
	textures     map[ID]TextureLink
	framebuffers map[ID]FramebufferLink
	attributes   map[ID]AttributeLink
	uniforms     map[ID]UniformLink

	cleanup []func()
	updates []updateStep
}

func (b *Builder) newBuildState(gl Context) (*buildState, error) {
	st := &buildState{
		gl:           gl,
		userCtx:      b.userCtx,
		epoch:        time.Now(),
		graph:        newDepGraph(),
		reg:          newRegistry(),
		sources:      make(map[ID]ShaderSource),
		programs:     make(map[ID]ProgramLink),
		buffers:      make(map[ID]BufferLink),
		textures:     make(map[ID]TextureLink),
		framebuffers: make(map[ID]FramebufferLink),
		attributes:   make(map[ID]AttributeLink),
		uniforms:     make(map[ID]UniformLink),
	}

	// Nodes first, in a fixed kind order so the topological tiebreak
	// reproduces the classic realisation sequence: shaders, programs,
	// vertex state, then everything hanging off them.
	for _, s := range b.shaderSources {
		if err := st.graph.add(Node{KindShader, s.ID}); err != nil {
			return nil, err
		}
		st.sources[s.ID] = s
	}
	for _, l := range b.programLinks {
		if err := st.graph.add(Node{KindProgram, l.ID}); err != nil {
			return nil, err
		}
		st.programs[l.ID] = l
	}
	for _, id := range b.vaos {
		if err := st.graph.add(Node{KindVertexArray, id}); err != nil {
			return nil, err
		}
	}
	for _, id := range b.transformFeedbacks {
		if err := st.graph.add(Node{KindTransformFeedback, id}); err != nil {
			return nil, err
		}
	}
	for _, l := range b.bufferLinks {
		if err := st.graph.add(Node{KindBuffer, l.ID}); err != nil {
			return nil, err
		}
		st.buffers[l.ID] = l
	}
	for _, l := range b.textureLinks {
		if err := st.graph.add(Node{KindTexture, l.ID}); err != nil {
			return nil, err
		}
		st.textures[l.ID] = l
	}
	for _, l := range b.framebufferLinks {
		if err := st.graph.add(Node{KindFramebuffer, l.ID}); err != nil {
			return nil, err
		}
		st.framebuffers[l.ID] = l
	}
	for _, l := range b.attributeLinks {
		if err := st.graph.add(Node{KindAttribute, l.ID}); err != nil {
			return nil, err
		}
		st.attributes[l.ID] = l
	}
	for _, l := range b.uniformLinks {
		if err := st.graph.add(Node{KindUniform, l.ID}); err != nil {
			return nil, err
		}
		st.uniforms[l.ID] = l
	}

	// Then the edges. A dangling reference fails here, before any
	// graphics call has been made.
	for _, l := range b.programLinks {
		n := Node{KindProgram, l.ID}
		if err := st.graph.addDep(n, Node{KindShader, l.VertexShaderID}); err != nil {
			return nil, err
		}
		if err := st.graph.addDep(n, Node{KindShader, l.FragmentShaderID}); err != nil {
			return nil, err
		}
	}
	for _, l := range b.bufferLinks {
		if err := st.addUserDeps(Node{KindBuffer, l.ID}, l.DependsOn); err != nil {
			return nil, err
		}
	}
	for _, l := range b.textureLinks {
		if err := st.addUserDeps(Node{KindTexture, l.ID}, l.DependsOn); err != nil {
			return nil, err
		}
	}
	for _, l := range b.framebufferLinks {
		if l.TextureID == "" {
			continue
		}
		if err := st.graph.addDep(Node{KindFramebuffer, l.ID}, Node{KindTexture, l.TextureID}); err != nil {
			return nil, err
		}
	}
	for _, l := range b.attributeLinks {
		n := Node{KindAttribute, l.ID}
		if err := st.graph.addDep(n, Node{KindProgram, l.ProgramID}); err != nil {
			return nil, err
		}
		if err := st.graph.addDep(n, Node{KindVertexArray, l.VAOID}); err != nil {
			return nil, err
		}
		if err := st.graph.addDep(n, Node{KindBuffer, l.BufferID}); err != nil {
			return nil, err
		}
	}
	for _, l := range b.uniformLinks {
		n := Node{KindUniform, l.ID}
		for _, pid := range l.ProgramIDs {
			if err := st.graph.addDep(n, Node{KindProgram, pid}); err != nil {
				return nil, err
			}
		}
	}

	return st, nil
}

func (st *buildState) addUserDeps(n Node, refs []Ref) error {
	for _, ref := range refs {
		if err := st.graph.addDep(n, Node{ref.Kind, ref.ID}); err != nil {
			return err
		}
	}
	return nil
}

func (st *buildState) realize(n Node) error {
	switch n.Kind {
	case KindShader:
		return st.realizeShader(n.ID)
	case KindProgram:
		return st.realizeProgram(n.ID)
	case KindVertexArray:
		return st.realizeVAO(n.ID)
	case KindTransformFeedback:
		return st.realizeTransformFeedback(n.ID)
	case KindBuffer:
		return st.realizeBuffer(n.ID)
	case KindTexture:
		return st.realizeTexture(n.ID)
	case KindFramebuffer:
		return st.realizeFramebuffer(n.ID)
	case KindAttribute:
		return st.realizeAttribute(n.ID)
	case KindUniform:
		return st.realizeUniform(n.ID)
	}
	return nil
}

// rollback releases everything realised so far, newest first, so a failed
// build never leaks a native handle.
func (st *buildState) rollback() {
	for i := len(st.cleanup) - 1; i >= 0; i-- {
		st.cleanup[i]()
	}
	st.cleanup = nil
}

func (st *buildState) now() float64 {
	return float64(time.Since(st.epoch)) / float64(time.Millisecond)
}

func (st *buildState) ctx() callbackContext {
	return callbackContext{gl: st.gl, now: st.now(), userCtx: st.userCtx, reg: st.reg}
}

func (st *buildState) realizeShader(id ID) error {
	src := st.sources[id]
	shader := st.gl.CreateShader(src.Type)
	st.gl.ShaderSource(shader, src.Source)
	st.gl.CompileShader(shader)
	if !st.gl.ShaderCompileSucceeded(shader) {
		log := st.gl.ShaderInfoLog(shader)
		st.gl.DeleteShader(shader)
		return &ShaderCompileError{ID: id, Log: log}
	}
	st.reg.shaders[id] = shader
	st.cleanup = append(st.cleanup, func() { st.gl.DeleteShader(shader) })
	return nil
}

func (st *buildState) realizeProgram(id ID) error {
	link := st.programs[id]
	program := st.gl.CreateProgram()
	st.gl.AttachShader(program, st.reg.shaders[link.VertexShaderID])
	st.gl.AttachShader(program, st.reg.shaders[link.FragmentShaderID])
	if len(link.TransformFeedbackVaryings) > 0 {
		mode := link.BufferMode
		if mode == 0 {
			mode = InterleavedAttribs
		}
		st.gl.TransformFeedbackVaryings(program, link.TransformFeedbackVaryings, mode)
	}
	st.gl.LinkProgram(program)
	if !st.gl.ProgramLinkSucceeded(program) {
		log := st.gl.ProgramInfoLog(program)
		st.gl.DeleteProgram(program)
		return &ProgramLinkError{ID: id, Log: log}
	}
	st.reg.programs[id] = program
	st.cleanup = append(st.cleanup, func() { st.gl.DeleteProgram(program) })
	return nil
}

func (st *buildState) realizeVAO(id ID) error {
	vao := st.gl.CreateVertexArray()
	st.reg.vaos[id] = vao
	st.cleanup = append(st.cleanup, func() { st.gl.DeleteVertexArray(vao) })
	return nil
}

func (st *buildState) realizeTransformFeedback(id ID) error {
	tf := st.gl.CreateTransformFeedback()
	st.reg.transformFeedbacks[id] = tf
	st.cleanup = append(st.cleanup, func() { st.gl.DeleteTransformFeedback(tf) })
	return nil
}

func (st *buildState) realizeBuffer(id ID) error {
	link := st.buffers[id]
	var buffer uint32
	if link.Create == nil {
		buffer = st.gl.CreateBuffer()
	} else {
		var err error
		buffer, err = link.Create(&BufferContext{st.ctx()})
		if err != nil {
			return &CreateCallbackError{Kind: KindBuffer, ID: id, Err: err}
		}
	}
	st.reg.buffers[id] = buffer
	st.cleanup = append(st.cleanup, func() { st.gl.DeleteBuffer(buffer) })
	if link.Update != nil {
		update := link.Update
		st.updates = append(st.updates, updateStep{
			node: Node{KindBuffer, id},
			run: func(now float64) {
				update(&BufferContext{callbackContext{gl: st.gl, now: now, userCtx: st.userCtx, reg: st.reg}})
			},
		})
	}
	return nil
}

func (st *buildState) realizeTexture(id ID) error {
	link := st.textures[id]
	var texture uint32
	if link.Create == nil {
		texture = st.gl.CreateTexture()
	} else {
		var err error
		texture, err = link.Create(&TextureContext{st.ctx()})
		if err != nil {
			return &CreateCallbackError{Kind: KindTexture, ID: id, Err: err}
		}
	}
	st.reg.textures[id] = texture
	st.cleanup = append(st.cleanup, func() { st.gl.DeleteTexture(texture) })
	if link.Update != nil {
		update := link.Update
		st.updates = append(st.updates, updateStep{
			node: Node{KindTexture, id},
			run: func(now float64) {
				update(&TextureContext{callbackContext{gl: st.gl, now: now, userCtx: st.userCtx, reg: st.reg}})
			},
		})
	}
	return nil
}

func (st *buildState) realizeFramebuffer(id ID) error {
	link := st.framebuffers[id]
	var texture uint32
	if link.TextureID != "" {
		texture = st.reg.textures[link.TextureID]
	}

	var framebuffer uint32
	if link.Create == nil {
		framebuffer = st.gl.CreateFramebuffer()
		if texture != 0 {
			st.gl.BindFramebuffer(FramebufferTarget, framebuffer)
			st.gl.FramebufferTexture2D(FramebufferTarget, ColorAttachment0, Texture2D, texture, 0)
			st.gl.BindFramebuffer(FramebufferTarget, 0)
		}
	} else {
		var err error
		framebuffer, err = link.Create(&FramebufferContext{st.ctx(), texture})
		if err != nil {
			return &CreateCallbackError{Kind: KindFramebuffer, ID: id, Err: err}
		}
	}
	st.reg.framebuffers[id] = framebuffer
	st.cleanup = append(st.cleanup, func() { st.gl.DeleteFramebuffer(framebuffer) })
	return nil
}

func (st *buildState) realizeAttribute(id ID) error {
	link := st.attributes[id]
	program := st.reg.programs[link.ProgramID]
	vao := st.reg.vaos[link.VAOID]
	buffer := st.reg.buffers[link.BufferID]

	location := st.gl.GetAttribLocation(program, string(id))
	if location < 0 {
		return &LocationError{Kind: KindAttribute, ID: id, Program: link.ProgramID}
	}

	// The pointer setup recorded by the create callback lands in the
	// bound vertex array.
	st.gl.BindVertexArray(vao)
	st.gl.BindBuffer(ArrayBuffer, buffer)
	st.gl.EnableVertexAttribArray(uint32(location))
	if link.Create != nil {
		link.Create(&AttributeContext{st.ctx(), uint32(location), buffer})
	}
	st.gl.BindVertexArray(0)
	st.gl.BindBuffer(ArrayBuffer, 0)

	st.reg.attributeLocations[id] = uint32(location)
	return nil
}

func (st *buildState) realizeUniform(id ID) error {
	link := st.uniforms[id]
	locations := make(map[ID]int32, len(link.ProgramIDs))
	for _, pid := range link.ProgramIDs {
		program := st.reg.programs[pid]
		location := st.gl.GetUniformLocation(program, string(id))
		if location < 0 {
			return &LocationError{Kind: KindUniform, ID: id, Program: pid}
		}
		locations[pid] = location
		if link.Create != nil {
			st.gl.UseProgram(program)
			link.Create(&UniformContext{st.ctx(), location})
			st.gl.UseProgram(0)
		}
	}
	st.reg.uniformLocations[id] = locations

	update := link.Update
	if link.UseCreateAsUpdate {
		update = link.Create
	}
	if update != nil {
		programIDs := link.ProgramIDs
		shouldUpdate := link.ShouldUpdate
		st.updates = append(st.updates, updateStep{
			node: Node{KindUniform, id},
			run: func(now float64) {
				for _, pid := range programIDs {
					program := st.reg.programs[pid]
					ctx := &UniformContext{
						callbackContext{gl: st.gl, now: now, userCtx: st.userCtx, reg: st.reg},
						locations[pid],
					}
					if shouldUpdate != nil && !shouldUpdate(ctx) {
						continue
					}
					st.gl.UseProgram(program)
					update(ctx)
					st.gl.UseProgram(0)
				}
			},
		})
	}
	return nil
}
