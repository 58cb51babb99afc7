// Package locomotion implements a camera-relative character controller:
// planar movement with an optional sprint speed, gravity integration with a
// grounded stick, jump impulses sized to reach a configured apex height, and
// smooth yaw rotation toward the travel direction.
package locomotion

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/strider/internal/event"
	"github.com/Versifine/strider/internal/input"
	"github.com/Versifine/strider/internal/scene"
)

// groundedVerticalSpeed is the small downward speed held while supported. It
// keeps the collider pressed into the floor across uneven geometry instead of
// letting gravity accumulate.
const groundedVerticalSpeed = -2.0

const inputEpsilon = 1e-6

var worldUp = mgl64.Vec3{0, 1, 0}

// Mover resolves a requested displacement against the environment and reports
// the displacement that actually happened plus ground support.
type Mover interface {
	Move(delta mgl64.Vec3) mgl64.Vec3
	Grounded() bool
	Position() mgl64.Vec3
}

// Facing supplies the basis movement input is interpreted in, typically a
// camera transform.
type Facing interface {
	Forward() mgl64.Vec3
	Right() mgl64.Vec3
}

// FacingResolver finds a fallback facing reference when none was supplied
// explicitly.
type FacingResolver interface {
	MainViewpoint() (Facing, bool)
}

type Config struct {
	MoveSpeed    float64
	SprintSpeed  float64
	RotationRate float64
	// Gravity is the vertical acceleration, negative for downward.
	Gravity float64
	// JumpApexHeight is the peak height a jump reaches over flat ground.
	JumpApexHeight float64
}

func (c Config) validate() error {
	if c.MoveSpeed <= 0 {
		return fmt.Errorf("move speed must be positive, got %v", c.MoveSpeed)
	}
	if c.SprintSpeed <= 0 {
		return fmt.Errorf("sprint speed must be positive, got %v", c.SprintSpeed)
	}
	if c.RotationRate <= 0 {
		return fmt.Errorf("rotation rate must be positive, got %v", c.RotationRate)
	}
	if c.Gravity >= 0 {
		return fmt.Errorf("gravity must be negative, got %v", c.Gravity)
	}
	if c.JumpApexHeight <= 0 {
		return fmt.Errorf("jump apex height must be positive, got %v", c.JumpApexHeight)
	}
	return nil
}

// Controller drives one character body. It is frame-driven: input handlers
// run during Bindings.Dispatch and Update integrates one frame, both on the
// host's tick goroutine.
type Controller struct {
	cfg      Config
	mover    Mover
	body     *scene.Transform
	facing   Facing
	resolver FacingResolver
	bindings input.Bindings
	bus      *event.Bus

	active        bool
	activeFacing  Facing
	moveSub       input.Subscription
	jumpSub       input.Subscription
	sprintSub     input.Subscription
	planarInput   mgl64.Vec2
	verticalSpeed float64
	sprinting     bool
	jumpQueued    bool
	wasGrounded   bool
}

// New builds an inactive controller. facing may be nil if resolver can supply
// a main viewpoint by activation time.
func New(cfg Config, mover Mover, body *scene.Transform, facing Facing, resolver FacingResolver, bindings input.Bindings, bus *event.Bus) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("locomotion config: %w", err)
	}
	if mover == nil {
		return nil, fmt.Errorf("locomotion requires a mover")
	}
	if body == nil {
		return nil, fmt.Errorf("locomotion requires a body transform")
	}
	return &Controller{
		cfg:      cfg,
		mover:    mover,
		body:     body,
		facing:   facing,
		resolver: resolver,
		bindings: bindings,
		bus:      bus,
	}, nil
}

// Activate resolves the facing reference, subscribes to the bound input
// channels, and resets motion state. It fails when no facing reference can
// be found: camera-relative movement is meaningless without one.
func (c *Controller) Activate() error {
	if c.active {
		return fmt.Errorf("controller already active")
	}

	facing := c.facing
	if facing == nil && c.resolver != nil {
		if vp, ok := c.resolver.MainViewpoint(); ok {
			facing = vp
		}
	}
	if facing == nil {
		return fmt.Errorf("no facing reference: supply one or register a main viewpoint")
	}
	c.activeFacing = facing

	if c.bindings.Move != nil {
		c.moveSub = c.bindings.Move.Subscribe(c.onMove)
	}
	if c.bindings.Jump != nil {
		c.jumpSub = c.bindings.Jump.Subscribe(c.onJump)
	}
	if c.bindings.Sprint != nil {
		c.sprintSub = c.bindings.Sprint.Subscribe(c.onSprint)
	}

	c.planarInput = mgl64.Vec2{}
	c.sprinting = false
	c.jumpQueued = false
	c.verticalSpeed = groundedVerticalSpeed
	c.wasGrounded = c.mover.Grounded()
	c.active = true

	c.publish(event.EventActivated, nil)
	slog.Debug("Locomotion activated", "position", c.mover.Position())
	return nil
}

// Deactivate unsubscribes exactly what Activate registered. It is a no-op on
// an inactive controller, and a deactivated controller can be activated again.
func (c *Controller) Deactivate() {
	if !c.active {
		return
	}
	if c.bindings.Move != nil {
		c.bindings.Move.Unsubscribe(c.moveSub)
	}
	if c.bindings.Jump != nil {
		c.bindings.Jump.Unsubscribe(c.jumpSub)
	}
	if c.bindings.Sprint != nil {
		c.bindings.Sprint.Unsubscribe(c.sprintSub)
	}
	c.moveSub, c.jumpSub, c.sprintSub = 0, 0, 0
	c.activeFacing = nil
	c.active = false

	c.publish(event.EventDeactivated, nil)
	slog.Debug("Locomotion deactivated")
}

func (c *Controller) onMove(v mgl64.Vec2) {
	c.planarInput = v
}

// onJump only queues a jump when the body is supported at event time, so a
// jump pressed mid-air does not fire on the next landing.
func (c *Controller) onJump() {
	if c.mover.Grounded() {
		c.jumpQueued = true
	}
}

func (c *Controller) onSprint(pressed bool) {
	c.sprinting = pressed
}

// Update integrates one frame of dt seconds. The host must dispatch input
// bindings first so handler-visible state is current.
func (c *Controller) Update(dt float64) {
	if !c.active || dt <= 0 {
		return
	}

	dir := c.moveDirection()

	if c.mover.Grounded() && c.verticalSpeed <= 0 {
		c.verticalSpeed = groundedVerticalSpeed
	} else {
		c.verticalSpeed += c.cfg.Gravity * dt
	}

	if c.jumpQueued {
		c.jumpQueued = false
		c.verticalSpeed = math.Sqrt(2 * c.cfg.JumpApexHeight * -c.cfg.Gravity)
		c.publish(event.EventJump, event.JumpEvent{
			Velocity: c.verticalSpeed,
			Position: c.mover.Position(),
		})
	}

	speed := c.cfg.MoveSpeed
	if c.sprinting {
		speed = c.cfg.SprintSpeed
	}

	velocity := dir.Mul(speed).Add(worldUp.Mul(c.verticalSpeed))
	actual := c.mover.Move(velocity.Mul(dt))
	c.body.Translate(actual)

	if dir.Len() > inputEpsilon {
		fraction := c.cfg.RotationRate * dt
		if fraction > 1 {
			fraction = 1
		}
		target := scene.FacingYaw(dir)
		c.body.SetOrientation(mgl64.QuatSlerp(c.body.Orientation(), target, fraction))
	}

	grounded := c.mover.Grounded()
	if grounded && !c.wasGrounded {
		c.publish(event.EventLand, event.LandEvent{Position: c.mover.Position()})
	}
	c.wasGrounded = grounded
}

// moveDirection maps the planar input through the facing basis flattened onto
// the horizontal plane. Each basis axis is projected independently: a vertical
// forward contributes nothing, but a horizontal right axis still carries
// strafe input. Zero when input is neutral or the composed vector degenerates.
func (c *Controller) moveDirection() mgl64.Vec3 {
	if c.planarInput.Len() <= inputEpsilon {
		return mgl64.Vec3{}
	}

	forward := flatten(c.activeFacing.Forward())
	right := flatten(c.activeFacing.Right())

	dir := forward.Mul(c.planarInput.Y()).Add(right.Mul(c.planarInput.X()))
	if dir.Len() <= inputEpsilon {
		return mgl64.Vec3{}
	}
	return dir.Normalize()
}

func flatten(v mgl64.Vec3) mgl64.Vec3 {
	flat := mgl64.Vec3{v.X(), 0, v.Z()}
	if flat.Len() <= inputEpsilon {
		return mgl64.Vec3{}
	}
	return flat.Normalize()
}

func (c *Controller) publish(name string, evt any) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(name, evt)
}

func (c *Controller) Active() bool {
	return c.active
}

func (c *Controller) Sprinting() bool {
	return c.sprinting
}

func (c *Controller) VerticalSpeed() float64 {
	return c.verticalSpeed
}
