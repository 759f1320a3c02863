package engine

import (
	"math"

	"github.com/annel0/zoneworld/internal/world"
	"github.com/go-gl/mathgl/mgl64"
)

const maxPitch = 89.0

// Camera - положение и оптика зрителя. Углы в градусах; yaw = 0 смотрит в -Z.
type Camera struct {
	Position mgl64.Vec3
	Yaw      float64
	Pitch    float64
	FOV      float64 // Вертикальный угол обзора
	Aspect   float64
	Near     float64
	Far      float64
	Reach    float64 // Дальность выделения в блоках
}

// NewCamera создаёт камеру с типовой оптикой
func NewCamera(pos mgl64.Vec3) Camera {
	return Camera{
		Position: pos,
		FOV:      70,
		Aspect:   16.0 / 9.0,
		Near:     0.1,
		Far:      float64(world.ZoneWidth) * 12,
		Reach:    6,
	}
}

// Forward возвращает единичный вектор взгляда
func (c Camera) Forward() mgl64.Vec3 {
	yaw := mgl64.DegToRad(c.Yaw)
	pitch := mgl64.DegToRad(mgl64.Clamp(c.Pitch, -maxPitch, maxPitch))
	return mgl64.Vec3{
		math.Cos(pitch) * math.Sin(yaw),
		math.Sin(pitch),
		-math.Cos(pitch) * math.Cos(yaw),
	}
}

// ViewProjection возвращает матрицу projection*view
func (c Camera) ViewProjection() mgl64.Mat4 {
	proj := mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
	view := mgl64.LookAtV(c.Position, c.Position.Add(c.Forward()), mgl64.Vec3{0, 1, 0})
	return proj.Mul4(view)
}

// View переводит камеру в запрос мира. Длина направления подбирается так,
// чтобы параметрический диапазон луча покрывал Reach блоков.
func (c Camera) View(ray world.RayConfig) world.View {
	scale := c.Reach
	if ray.MaxT > 0 {
		scale = c.Reach / ray.MaxT
	}
	return world.View{
		Position:  c.Position,
		Direction: c.Forward().Mul(scale),
		Frustum:   world.NewFrustum(c.ViewProjection()),
	}
}

// Walk сдвигает камеру по горизонтальной проекции взгляда
func (c *Camera) Walk(distance float64) {
	yaw := mgl64.DegToRad(c.Yaw)
	c.Position = c.Position.Add(mgl64.Vec3{math.Sin(yaw), 0, -math.Cos(yaw)}.Mul(distance))
}

// Turn поворачивает камеру; pitch ограничивается, чтобы взгляд не совпал с осью Y
func (c *Camera) Turn(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 360)
	c.Pitch = mgl64.Clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
}
