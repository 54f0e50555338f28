package core

import (
	"fmt"
	"strings"
)

// DuplicateIDError reports two links registered under the same ID within
// one resource namespace.
type DuplicateIDError struct {
	Kind ResourceKind
	ID   ID
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %q registered more than once", e.Kind, e.ID)
}

// UnknownIDError reports a reference to an ID that was never registered in
// the namespace it is looked up in. It surfaces from Build for dangling
// link dependencies and from Renderer accessors for absent handles.
type UnknownIDError struct {
	Kind ResourceKind
	ID   ID
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("no %s registered under %q", e.Kind, e.ID)
}

// CyclicDependencyError reports a dependency chain that revisits itself.
// Cycle holds the offending nodes in dependency order, with the first node
// repeated at the end.
type CyclicDependencyError struct {
	Cycle []Node
}

func (e *CyclicDependencyError) Error() string {
	parts := make([]string, 0, len(e.Cycle))
	for _, n := range e.Cycle {
		parts = append(parts, n.String())
	}
	return "cyclic dependency: " + strings.Join(parts, " -> ")
}

// MissingRenderCallbackError reports a Build attempt without a render
// callback configured.
type MissingRenderCallbackError struct{}

func (e *MissingRenderCallbackError) Error() string {
	return "no render callback was supplied to the builder"
}

// ContextAcquisitionError reports that no graphics context could be
// obtained from the configured surface, or that no surface was configured
// at all.
type ContextAcquisitionError struct {
	Reason string
	Err    error
}

func (e *ContextAcquisitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("context acquisition failed: %s: %s", e.Reason, e.Err)
	}
	return "context acquisition failed: " + e.Reason
}

func (e *ContextAcquisitionError) Unwrap() error { return e.Err }

// ShaderCompileError reports a shader that failed to compile, carrying the
// info log returned by the graphics API.
type ShaderCompileError struct {
	ID  ID
	Log string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("shader %q failed to compile: %s", e.ID, strings.TrimSpace(e.Log))
}

// ProgramLinkError reports a program that failed to link, carrying the
// info log returned by the graphics API.
type ProgramLinkError struct {
	ID  ID
	Log string
}

func (e *ProgramLinkError) Error() string {
	return fmt.Sprintf("program %q failed to link: %s", e.ID, strings.TrimSpace(e.Log))
}

// LocationError reports an attribute or uniform whose location could not
// be found in the program it was declared against, usually because the
// GLSL variable does not exist or was optimised out.
type LocationError struct {
	Kind    ResourceKind
	ID      ID
	Program ID
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("%s %q has no location in program %q", e.Kind, e.ID, e.Program)
}

// CreateCallbackError wraps a failure returned by a user create callback
// during Build.
type CreateCallbackError struct {
	Kind ResourceKind
	ID   ID
	Err  error
}

func (e *CreateCallbackError) Error() string {
	return fmt.Sprintf("create callback for %s %q failed: %s", e.Kind, e.ID, e.Err)
}

func (e *CreateCallbackError) Unwrap() error { return e.Err }

// UseAfterFreeError reports an operation on a Renderer whose resources
// have already been released.
type UseAfterFreeError struct {
	Op string
}

func (e *UseAfterFreeError) Error() string {
	return fmt.Sprintf("%s called on a freed renderer", e.Op)
}
