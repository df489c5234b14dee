package accel

import (
	"fmt"
	"strings"
)

// Attribute names and values used in attribute lists. They match the
// numeric values used by EGL.
const (
	NONE = 0x3038

	ALPHA_SIZE      = 0x3021
	BLUE_SIZE       = 0x3022
	GREEN_SIZE      = 0x3023
	RED_SIZE        = 0x3024
	DEPTH_SIZE      = 0x3025
	STENCIL_SIZE    = 0x3026
	CONFIG_ID       = 0x3028
	SURFACE_TYPE    = 0x3033
	RENDERABLE_TYPE = 0x3040

	WINDOW_BIT = 0x0004

	OPENGL_ES2_BIT = 0x0004
	OPENGL_BIT     = 0x0008
	OPENGL_ES3_BIT = 0x0040

	CONTEXT_MAJOR_VERSION = 0x3098
	CONTEXT_MINOR_VERSION = 0x30FB
	CONTEXT_PROFILE_MASK  = 0x30FD

	CONTEXT_CORE_PROFILE_BIT          = 0x0001
	CONTEXT_COMPATIBILITY_PROFILE_BIT = 0x0002
)

// API is a client rendering API that contexts can be created for.
type API int32

const (
	OPENGL_ES_API API = 0x30A0
	OPENGL_API    API = 0x30A2
)

func (api API) String() string {
	switch api {
	case OPENGL_ES_API:
		return "OpenGL ES"
	case OPENGL_API:
		return "OpenGL"
	default:
		return fmt.Sprintf("API(0x%X)", int32(api))
	}
}

// Error is an error code reported by a Driver.
type Error int32

const (
	SUCCESS             Error = 0x3000
	NOT_INITIALIZED     Error = 0x3001
	BAD_ACCESS          Error = 0x3002
	BAD_ALLOC           Error = 0x3003
	BAD_ATTRIBUTE       Error = 0x3004
	BAD_CONFIG          Error = 0x3005
	BAD_CONTEXT         Error = 0x3006
	BAD_CURRENT_SURFACE Error = 0x3007
	BAD_DISPLAY         Error = 0x3008
	BAD_MATCH           Error = 0x3009
	BAD_NATIVE_PIXMAP   Error = 0x300A
	BAD_NATIVE_WINDOW   Error = 0x300B
	BAD_PARAMETER       Error = 0x300C
	BAD_SURFACE         Error = 0x300D
	CONTEXT_LOST        Error = 0x300E
)

var errorNames = map[Error]string{
	SUCCESS:             "EGL_SUCCESS",
	NOT_INITIALIZED:     "EGL_NOT_INITIALIZED",
	BAD_ACCESS:          "EGL_BAD_ACCESS",
	BAD_ALLOC:           "EGL_BAD_ALLOC",
	BAD_ATTRIBUTE:       "EGL_BAD_ATTRIBUTE",
	BAD_CONFIG:          "EGL_BAD_CONFIG",
	BAD_CONTEXT:         "EGL_BAD_CONTEXT",
	BAD_CURRENT_SURFACE: "EGL_BAD_CURRENT_SURFACE",
	BAD_DISPLAY:         "EGL_BAD_DISPLAY",
	BAD_MATCH:           "EGL_BAD_MATCH",
	BAD_NATIVE_PIXMAP:   "EGL_BAD_NATIVE_PIXMAP",
	BAD_NATIVE_WINDOW:   "EGL_BAD_NATIVE_WINDOW",
	BAD_PARAMETER:       "EGL_BAD_PARAMETER",
	BAD_SURFACE:         "EGL_BAD_SURFACE",
	CONTEXT_LOST:        "EGL_CONTEXT_LOST",
}

func (err Error) Error() string {
	name, ok := errorNames[err]
	if !ok {
		name = "unknown EGL error"
	}
	return fmt.Sprintf("%v (0x%X)", name, int32(err))
}

// Attribs is a list of attribute name and value pairs, optionally
// terminated by NONE.
type Attribs []int32

// Get returns the value of the first occurrence of the attribute
// name.
func (a Attribs) Get(name int32) (int32, bool) {
	for i := 0; i+1 < len(a); i += 2 {
		if a[i] == NONE {
			break
		}
		if a[i] == name {
			return a[i+1], true
		}
	}
	return 0, false
}

// Pairs calls yield for each pair in the list until it reaches NONE
// or yield returns false.
func (a Attribs) Pairs(yield func(name, value int32) bool) {
	for i := 0; i+1 < len(a); i += 2 {
		if a[i] == NONE {
			return
		}
		if !yield(a[i], a[i+1]) {
			return
		}
	}
}

// Validate checks that the list is made of complete pairs.
func (a Attribs) Validate() error {
	n := len(a)
	if (n > 0) && (a[n-1] == NONE) && (n%2 == 1) {
		n--
	}
	if n%2 != 0 {
		return BAD_ATTRIBUTE
	}
	return nil
}

func (a Attribs) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	first := true
	a.Pairs(func(name, value int32) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "0x%X=%v", name, value)
		return true
	})
	sb.WriteByte(']')
	return sb.String()
}
