//go:build !clipper2 || !cgo

package pathcodec

// NativeEngine reports ErrNoNativeEngine: this build does not link the Clipper2
// export library. Build with `-tags clipper2` and cgo enabled to use it.
func NativeEngine() (Engine, error) {
	return nil, ErrNoNativeEngine
}
