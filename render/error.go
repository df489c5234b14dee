package render

import (
	"errors"
	"fmt"
)

// ErrNotCurrent is returned by Render when it is not given a valid
// current context.
var ErrNotCurrent = errors.New("no current context")

// Class is the classification of a rendering error code.
type Class int

const (
	NoError Class = iota
	InvalidEnum
	InvalidValue
	InvalidOperation
	InvalidFramebufferOperation
	OutOfMemory
	StackUnderflow
	StackOverflow
	Unknown
)

var classNames = [...]string{
	NoError:                     "no-error",
	InvalidEnum:                 "invalid-enum",
	InvalidValue:                "invalid-value",
	InvalidOperation:            "invalid-operation",
	InvalidFramebufferOperation: "invalid-framebuffer-operation",
	OutOfMemory:                 "out-of-memory",
	StackUnderflow:              "stack-underflow",
	StackOverflow:               "stack-overflow",
	Unknown:                     "unknown",
}

func (c Class) String() string {
	if (c < 0) || (int(c) >= len(classNames)) {
		return classNames[Unknown]
	}
	return classNames[c]
}

// Classify maps an error code returned by GetError to its class.
func Classify(code Enum) Class {
	switch code {
	case NO_ERROR:
		return NoError
	case INVALID_ENUM:
		return InvalidEnum
	case INVALID_VALUE:
		return InvalidValue
	case INVALID_OPERATION:
		return InvalidOperation
	case INVALID_FRAMEBUFFER_OPERATION:
		return InvalidFramebufferOperation
	case OUT_OF_MEMORY:
		return OutOfMemory
	case STACK_UNDERFLOW:
		return StackUnderflow
	case STACK_OVERFLOW:
		return StackOverflow
	default:
		return Unknown
	}
}

// GraphicsOperationError is returned when a rendering call leaves an
// error code behind.
type GraphicsOperationError struct {
	Op   string
	Code Enum
}

func (err *GraphicsOperationError) Class() Class {
	return Classify(err.Code)
}

func (err *GraphicsOperationError) Error() string {
	return fmt.Sprintf("%v: %v (0x%X)", err.Op, err.Class(), uint32(err.Code))
}

// ShaderCompilationError is returned when a shader fails to compile.
// Log is the driver's diagnostic output.
type ShaderCompilationError struct {
	Stage Enum
	Log   string
}

func (err *ShaderCompilationError) Error() string {
	return fmt.Sprintf("compile %v shader: %v", stageName(err.Stage), err.Log)
}

// ProgramLinkError is returned when a shader program fails to link.
type ProgramLinkError struct {
	Log string
}

func (err *ProgramLinkError) Error() string {
	return fmt.Sprintf("link program: %v", err.Log)
}

func stageName(stage Enum) string {
	switch stage {
	case VERTEX_SHADER:
		return "vertex"
	case FRAGMENT_SHADER:
		return "fragment"
	default:
		return fmt.Sprintf("0x%X", uint32(stage))
	}
}
