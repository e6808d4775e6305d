package pathcodec

import "errors"

var (
	// ErrNilEngine indicates that NewBridge was called without an Engine.
	ErrNilEngine = errors.New("pathcodec: NewBridge called with a nil Engine")

	// ErrNoNativeEngine indicates the binary was built without the native clipping engine.
	// Build with `-tags clipper2` (and cgo enabled) to link against the Clipper2 export library.
	ErrNoNativeEngine = errors.New("pathcodec: native engine not available in this build")

	// ErrNative wraps any failure reported by the engine. The cause is passed through as-is.
	ErrNative = errors.New("pathcodec: native operation failed")

	// ErrMalformedDescriptor indicates a descriptor whose lengths do not add up to its points,
	// or whose count does not match its lengths region.
	ErrMalformedDescriptor = errors.New("pathcodec: malformed descriptor")

	// ErrDoubleRecycle indicates that a handle was recycled while the pool already held it.
	// It is raised as a panic, never returned.
	ErrDoubleRecycle = errors.New("pathcodec: recycle of a handle already held by the pool")

	// ErrClosed indicates an operation on a Bridge after Close.
	ErrClosed = errors.New("pathcodec: bridge is closed")

	// ErrInvalidPrecision indicates a decimal precision outside [0, MaxPrecision].
	ErrInvalidPrecision = errors.New("pathcodec: invalid decimal precision")

	// ErrInvalidFillRule indicates an unknown fill rule name or ordinal.
	ErrInvalidFillRule = errors.New("pathcodec: invalid fill rule")

	// ErrInvalidOp indicates an unknown clip operation.
	ErrInvalidOp = errors.New("pathcodec: invalid clip operation")

	// ErrTruncatedData indicates that a read cursor ran past the end of its region.
	ErrTruncatedData = errors.New("pathcodec: truncated data")
)
