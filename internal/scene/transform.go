// Package scene holds the minimal transform graph the locomotion controller
// works against: world-space poses (position + orientation) and a registry of
// viewpoints used as camera-relative facing references.
//
// Axis convention: +Y up, +Z forward, +X right. An identity orientation faces
// down +Z.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	unitRight   = mgl64.Vec3{1, 0, 0}
	unitUp      = mgl64.Vec3{0, 1, 0}
	unitForward = mgl64.Vec3{0, 0, 1}
)

// Transform is a world-space pose. It is frame-driven state: mutate it only
// from the tick goroutine.
type Transform struct {
	pos mgl64.Vec3
	rot mgl64.Quat
}

func NewTransform(pos mgl64.Vec3) *Transform {
	return &Transform{pos: pos, rot: mgl64.QuatIdent()}
}

func (t *Transform) Position() mgl64.Vec3 {
	return t.pos
}

func (t *Transform) SetPosition(pos mgl64.Vec3) {
	t.pos = pos
}

func (t *Transform) Translate(delta mgl64.Vec3) {
	t.pos = t.pos.Add(delta)
}

func (t *Transform) Orientation() mgl64.Quat {
	return t.rot
}

func (t *Transform) SetOrientation(rot mgl64.Quat) {
	t.rot = rot.Normalize()
}

func (t *Transform) Forward() mgl64.Vec3 {
	return t.rot.Rotate(unitForward)
}

func (t *Transform) Right() mgl64.Vec3 {
	return t.rot.Rotate(unitRight)
}

func (t *Transform) Up() mgl64.Vec3 {
	return t.rot.Rotate(unitUp)
}

// YawRotation is an orientation rotated yaw radians about the world up axis.
func YawRotation(yaw float64) mgl64.Quat {
	return mgl64.QuatRotate(yaw, unitUp)
}

// FacingYaw is the upright orientation whose forward axis points along dir
// projected on the horizontal plane. dir need not be normalized; a vertical
// or zero dir yields the identity orientation.
func FacingYaw(dir mgl64.Vec3) mgl64.Quat {
	x, z := dir.X(), dir.Z()
	if x == 0 && z == 0 {
		return mgl64.QuatIdent()
	}
	return YawRotation(math.Atan2(x, z))
}

// AngleBetween is the absolute angle in radians separating the forward axes
// of two orientations.
func AngleBetween(a, b mgl64.Quat) float64 {
	fa := a.Rotate(unitForward)
	fb := b.Rotate(unitForward)
	dot := fa.Dot(fb)
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return math.Acos(dot)
}
