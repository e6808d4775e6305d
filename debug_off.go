//go:build !pathdebug

package pathcodec

const debugChecks = false
