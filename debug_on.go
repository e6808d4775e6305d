//go:build pathdebug

package pathcodec

// debugChecks turns on diagnostic assertions such as the pool's double-recycle check.
const debugChecks = true
