package accel

import "fmt"

// DisplayInitError is returned when the driver cannot attach to the
// native display.
type DisplayInitError struct {
	Op  string
	Err error
}

func (err *DisplayInitError) Error() string {
	return fmt.Sprintf("acceleration display %v: %v", err.Op, err.Err)
}

func (err *DisplayInitError) Unwrap() error {
	return err.Err
}

// NoMatchingConfigError is returned when no config satisfies the
// requested attributes. Err is nil if the driver simply returned no
// configs.
type NoMatchingConfigError struct {
	Attribs Attribs
	Err     error
}

func (err *NoMatchingConfigError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("choose config %v: %v", err.Attribs, err.Err)
	}
	return fmt.Sprintf("no config matches %v", err.Attribs)
}

func (err *NoMatchingConfigError) Unwrap() error {
	return err.Err
}

// ContextCreationError is returned when the driver rejects every
// attribute list given to CreateContext. Err is the last rejection.
type ContextCreationError struct {
	Attribs Attribs
	Tried   int
	Err     error
}

func (err *ContextCreationError) Error() string {
	if err.Tried > 1 {
		return fmt.Sprintf("create context %v (and %v fallbacks): %v", err.Attribs, err.Tried-1, err.Err)
	}
	return fmt.Sprintf("create context %v: %v", err.Attribs, err.Err)
}

func (err *ContextCreationError) Unwrap() error {
	return err.Err
}

// SurfaceError is returned when a window surface cannot be created.
type SurfaceError struct {
	Err error
}

func (err *SurfaceError) Error() string {
	return fmt.Sprintf("create window surface: %v", err.Err)
}

func (err *SurfaceError) Unwrap() error {
	return err.Err
}
