package event

import "github.com/go-gl/mathgl/mgl64"

const (
	EventJump        = "locomotion.jump"
	EventLand        = "locomotion.land"
	EventActivated   = "locomotion.activated"
	EventDeactivated = "locomotion.deactivated"
)

type JumpEvent struct {
	// Velocity is the vertical launch speed, always positive.
	Velocity float64
	Position mgl64.Vec3
}

type LandEvent struct {
	Position mgl64.Vec3
}
