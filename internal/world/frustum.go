package world

import "github.com/go-gl/mathgl/mgl64"

// Plane - плоскость n·p + d = 0, нормаль направлена внутрь объёма
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

// Distance возвращает знаковое расстояние от точки до плоскости
func (p Plane) Distance(pt mgl64.Vec3) float64 {
	return p.Normal.Dot(pt) + p.D
}

func planeFrom(v mgl64.Vec4) Plane {
	n := mgl64.Vec3{v.X(), v.Y(), v.Z()}
	l := n.Len()
	if l == 0 {
		return Plane{Normal: n, D: v.W()}
	}
	return Plane{Normal: n.Mul(1 / l), D: v.W() / l}
}

// Frustum - усечённая пирамида видимости из шести плоскостей
type Frustum struct {
	Planes [6]Plane // left, right, bottom, top, near, far
}

// NewFrustum извлекает плоскости из матрицы projection*view (клиповое пространство OpenGL)
func NewFrustum(viewProj mgl64.Mat4) *Frustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)
	return &Frustum{Planes: [6]Plane{
		planeFrom(r3.Add(r0)),
		planeFrom(r3.Sub(r0)),
		planeFrom(r3.Add(r1)),
		planeFrom(r3.Sub(r1)),
		planeFrom(r3.Add(r2)),
		planeFrom(r3.Sub(r2)),
	}}
}

// ContainsPoint проверяет, что точка лежит внутри или на границе
func (f *Frustum) ContainsPoint(pt mgl64.Vec3) bool {
	for _, p := range f.Planes {
		if p.Distance(pt) < 0 {
			return false
		}
	}
	return true
}

// IntersectsBox сообщает, пересекает ли параллелепипед объём.
// Параллелепипед отсекается, только если все 8 углов лежат за одной плоскостью.
func (f *Frustum) IntersectsBox(min, max mgl64.Vec3) bool {
	for _, p := range f.Planes {
		outside := 0
		for i := 0; i < 8; i++ {
			corner := mgl64.Vec3{min.X(), min.Y(), min.Z()}
			if i&1 != 0 {
				corner[0] = max.X()
			}
			if i&2 != 0 {
				corner[1] = max.Y()
			}
			if i&4 != 0 {
				corner[2] = max.Z()
			}
			if p.Distance(corner) < 0 {
				outside++
			}
		}
		if outside == 8 {
			return false
		}
	}
	return true
}
