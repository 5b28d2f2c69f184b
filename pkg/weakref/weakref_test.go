package weakref

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

type thing struct{ n int }

func TestTargetLiveWhileReferenced(t *testing.T) {
	v := &thing{n: 7}
	w := Wrap(v)

	got, ok := w.Target()
	assert.True(t, ok)
	assert.Same(t, v, got)
	runtime.KeepAlive(v)
}

func TestZeroValueHasNoTarget(t *testing.T) {
	var w Weak[thing]
	assert.True(t, w.IsZero())
	_, ok := w.Target()
	assert.False(t, ok)
}
