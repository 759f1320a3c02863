package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func lookingForward() *Frustum {
	proj := mgl64.Perspective(mgl64.DegToRad(70), 16.0/9.0, 0.1, 500)
	view := mgl64.LookAtV(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 1, 0})
	return NewFrustum(proj.Mul4(view))
}

func TestFrustumContainsPoint(t *testing.T) {
	f := lookingForward()

	assert.True(t, f.ContainsPoint(mgl64.Vec3{0, 0, -10}))
	assert.True(t, f.ContainsPoint(mgl64.Vec3{1, 1, -10}))
	assert.False(t, f.ContainsPoint(mgl64.Vec3{0, 0, 10}), "за спиной")
	assert.False(t, f.ContainsPoint(mgl64.Vec3{0, 0, -600}), "дальше дальней плоскости")
	assert.False(t, f.ContainsPoint(mgl64.Vec3{100, 0, -10}), "сбоку")
}

func TestFrustumPlanesNormalized(t *testing.T) {
	f := lookingForward()

	for i, p := range f.Planes {
		assert.InDelta(t, 1.0, p.Normal.Len(), 1e-9, "плоскость %d", i)
	}
	// Ближняя плоскость отстоит от глаза на near
	assert.InDelta(t, 0.1, -f.Planes[4].Distance(mgl64.Vec3{0, 0, 0}), 1e-6)
}

func TestFrustumIntersectsBox(t *testing.T) {
	f := lookingForward()

	cases := []struct {
		name     string
		min, max mgl64.Vec3
		want     bool
	}{
		{"впереди", mgl64.Vec3{-1, -1, -11}, mgl64.Vec3{1, 1, -9}, true},
		{"позади", mgl64.Vec3{-1, -1, 9}, mgl64.Vec3{1, 1, 11}, false},
		{"вокруг зрителя", mgl64.Vec3{-100, -100, -100}, mgl64.Vec3{100, 100, 100}, true},
		{"на границе", mgl64.Vec3{-1, -1, -0.5}, mgl64.Vec3{1, 1, 0.5}, true},
		{"далеко сбоку", mgl64.Vec3{200, -1, -11}, mgl64.Vec3{210, 1, -9}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, f.IntersectsBox(c.min, c.max))
		})
	}
}
