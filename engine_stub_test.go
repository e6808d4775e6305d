//go:build !clipper2 || !cgo

package pathcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNativeEngineUnavailable(t *testing.T) {
	e, err := NativeEngine()
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrNoNativeEngine)
}
