// Package opengl implements core.Context on top of desktop OpenGL via
// the go-gl bindings. It expects a current GL context on the calling
// thread, typically provided by an SDL or GLFW window.
package opengl

import (
	"errors"
	"strings"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/rend/core"
)

// The function pointers are process-wide, so load them only once.
var initOnce sync.Once

// NewContext initialises the OpenGL function pointers and returns a
// context usable with the core builder. Fails when no GL context is
// current on the calling thread.
func NewContext() (*Context, error) {
	var initErr error
	initOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, errors.New("gl.Init(): " + initErr.Error())
	}

	log.WithField("version", gl.GoStr(gl.GetString(gl.VERSION))).
		Debug("OpenGL context ready")
	return &Context{}, nil
}

// Context is a stateless shim over the global GL state of the current
// thread. All methods must run on the thread that owns the GL context.
type Context struct{}

var _ core.Context = (*Context)(nil)

// CreateShader implements core.Context
func (c *Context) CreateShader(t core.ShaderType) uint32 {
	switch t {
	case core.VertexShaderType:
		return gl.CreateShader(gl.VERTEX_SHADER)
	case core.FragmentShaderType:
		return gl.CreateShader(gl.FRAGMENT_SHADER)
	default:
		return 0
	}
}

// ShaderSource implements core.Context
func (c *Context) ShaderSource(shader uint32, src string) {
	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
}

// CompileShader implements core.Context
func (c *Context) CompileShader(shader uint32) {
	gl.CompileShader(shader)
}

// ShaderCompileSucceeded implements core.Context
func (c *Context) ShaderCompileSucceeded(shader uint32) bool {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

// ShaderInfoLog implements core.Context
func (c *Context) ShaderInfoLog(shader uint32) string {
	var length int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(length+1))
	gl.GetShaderInfoLog(shader, length, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}

// DeleteShader implements core.Context
func (c *Context) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

// CreateProgram implements core.Context
func (c *Context) CreateProgram() uint32 {
	return gl.CreateProgram()
}

// AttachShader implements core.Context
func (c *Context) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

// TransformFeedbackVaryings implements core.Context
func (c *Context) TransformFeedbackVaryings(program uint32, varyings []string, bufferMode uint32) {
	terminated := make([]string, len(varyings))
	for i, v := range varyings {
		terminated[i] = v + "\x00"
	}
	names, free := gl.Strs(terminated...)
	gl.TransformFeedbackVaryings(program, int32(len(varyings)), names, bufferMode)
	free()
}

// LinkProgram implements core.Context
func (c *Context) LinkProgram(program uint32) {
	gl.LinkProgram(program)
}

// ProgramLinkSucceeded implements core.Context
func (c *Context) ProgramLinkSucceeded(program uint32) bool {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

// ProgramInfoLog implements core.Context
func (c *Context) ProgramInfoLog(program uint32) string {
	var length int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(length+1))
	gl.GetProgramInfoLog(program, length, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}

// UseProgram implements core.Context
func (c *Context) UseProgram(program uint32) {
	gl.UseProgram(program)
}

// DeleteProgram implements core.Context
func (c *Context) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

// GetUniformLocation implements core.Context
func (c *Context) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// GetAttribLocation implements core.Context
func (c *Context) GetAttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

// CreateBuffer implements core.Context
func (c *Context) CreateBuffer() uint32 {
	var buffer uint32
	gl.GenBuffers(1, &buffer)
	return buffer
}

// BindBuffer implements core.Context
func (c *Context) BindBuffer(target, buffer uint32) {
	gl.BindBuffer(target, buffer)
}

// BufferData implements core.Context
func (c *Context) BufferData(target uint32, data []byte, usage uint32) {
	if len(data) == 0 {
		gl.BufferData(target, 0, nil, usage)
		return
	}
	gl.BufferData(target, len(data), gl.Ptr(data), usage)
}

// DeleteBuffer implements core.Context
func (c *Context) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

// CreateVertexArray implements core.Context
func (c *Context) CreateVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

// BindVertexArray implements core.Context
func (c *Context) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

// DeleteVertexArray implements core.Context
func (c *Context) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

// EnableVertexAttribArray implements core.Context
func (c *Context) EnableVertexAttribArray(location uint32) {
	gl.EnableVertexAttribArray(location)
}

// VertexAttribPointer implements core.Context
func (c *Context) VertexAttribPointer(location uint32, size int32, xtype uint32, normalized bool, stride, offset int32) {
	gl.VertexAttribPointer(location, size, xtype, normalized, stride, gl.PtrOffset(int(offset)))
}

// CreateTexture implements core.Context
func (c *Context) CreateTexture() uint32 {
	var texture uint32
	gl.GenTextures(1, &texture)
	return texture
}

// ActiveTexture implements core.Context
func (c *Context) ActiveTexture(unit uint32) {
	gl.ActiveTexture(unit)
}

// BindTexture implements core.Context
func (c *Context) BindTexture(target, texture uint32) {
	gl.BindTexture(target, texture)
}

// TexImage2D implements core.Context
func (c *Context) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
	if len(pixels) == 0 {
		gl.TexImage2D(target, level, internalFormat, width, height, 0, format, xtype, nil)
		return
	}
	gl.TexImage2D(target, level, internalFormat, width, height, 0, format, xtype, gl.Ptr(pixels))
}

// TexParameteri implements core.Context
func (c *Context) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}

// DeleteTexture implements core.Context
func (c *Context) DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}

// CreateFramebuffer implements core.Context
func (c *Context) CreateFramebuffer() uint32 {
	var framebuffer uint32
	gl.GenFramebuffers(1, &framebuffer)
	return framebuffer
}

// BindFramebuffer implements core.Context
func (c *Context) BindFramebuffer(target, framebuffer uint32) {
	gl.BindFramebuffer(target, framebuffer)
}

// FramebufferTexture2D implements core.Context
func (c *Context) FramebufferTexture2D(target, attachment, textarget, texture uint32, level int32) {
	gl.FramebufferTexture2D(target, attachment, textarget, texture, level)
}

// DeleteFramebuffer implements core.Context
func (c *Context) DeleteFramebuffer(framebuffer uint32) {
	gl.DeleteFramebuffers(1, &framebuffer)
}

// CreateTransformFeedback implements core.Context
func (c *Context) CreateTransformFeedback() uint32 {
	var tf uint32
	gl.GenTransformFeedbacks(1, &tf)
	return tf
}

// BindTransformFeedback implements core.Context
func (c *Context) BindTransformFeedback(target, tf uint32) {
	gl.BindTransformFeedback(target, tf)
}

// DeleteTransformFeedback implements core.Context
func (c *Context) DeleteTransformFeedback(tf uint32) {
	gl.DeleteTransformFeedbacks(1, &tf)
}

// Uniform1f implements core.Context
func (c *Context) Uniform1f(location int32, v float32) {
	gl.Uniform1f(location, v)
}

// Uniform2f implements core.Context
func (c *Context) Uniform2f(location int32, v0, v1 float32) {
	gl.Uniform2f(location, v0, v1)
}

// Uniform3f implements core.Context
func (c *Context) Uniform3f(location int32, v0, v1, v2 float32) {
	gl.Uniform3f(location, v0, v1, v2)
}

// Uniform4f implements core.Context
func (c *Context) Uniform4f(location int32, v0, v1, v2, v3 float32) {
	gl.Uniform4f(location, v0, v1, v2, v3)
}

// Uniform1i implements core.Context
func (c *Context) Uniform1i(location int32, v int32) {
	gl.Uniform1i(location, v)
}

// UniformMatrix4fv implements core.Context
func (c *Context) UniformMatrix4fv(location int32, value [16]float32) {
	gl.UniformMatrix4fv(location, 1, false, &value[0])
}

// Viewport implements core.Context
func (c *Context) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

// ClearColor implements core.Context
func (c *Context) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

// Clear implements core.Context
func (c *Context) Clear(mask uint32) {
	gl.Clear(mask)
}

// DrawArrays implements core.Context
func (c *Context) DrawArrays(mode uint32, first, count int32) {
	gl.DrawArrays(mode, first, count)
}

// DrawingBufferSize implements core.Context
func (c *Context) DrawingBufferSize() (int32, int32) {
	var viewport [4]int32
	gl.GetIntegerv(gl.VIEWPORT, &viewport[0])
	return viewport[2], viewport[3]
}
