package locomotion

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/strider/internal/event"
	"github.com/Versifine/strider/internal/input"
	"github.com/Versifine/strider/internal/scene"
)

type stubMover struct {
	grounded bool
	pos      mgl64.Vec3
	moves    []mgl64.Vec3
	clip     func(delta mgl64.Vec3) mgl64.Vec3
}

func (m *stubMover) Move(delta mgl64.Vec3) mgl64.Vec3 {
	m.moves = append(m.moves, delta)
	if m.clip != nil {
		delta = m.clip(delta)
	}
	m.pos = m.pos.Add(delta)
	return delta
}

func (m *stubMover) Grounded() bool {
	return m.grounded
}

func (m *stubMover) Position() mgl64.Vec3 {
	return m.pos
}

func (m *stubMover) lastMove(t *testing.T) mgl64.Vec3 {
	t.Helper()
	if len(m.moves) == 0 {
		t.Fatal("mover was never asked to move")
	}
	return m.moves[len(m.moves)-1]
}

type fixedFacing struct {
	forward mgl64.Vec3
	right   mgl64.Vec3
}

func (f fixedFacing) Forward() mgl64.Vec3 { return f.forward }
func (f fixedFacing) Right() mgl64.Vec3   { return f.right }

type stubResolver struct {
	facing Facing
}

func (r stubResolver) MainViewpoint() (Facing, bool) {
	return r.facing, r.facing != nil
}

func testConfig() Config {
	return Config{
		MoveSpeed:      4,
		SprintSpeed:    7,
		RotationRate:   10,
		Gravity:        -20,
		JumpApexHeight: 1.25,
	}
}

func forwardFacing() fixedFacing {
	return fixedFacing{forward: mgl64.Vec3{0, 0, 1}, right: mgl64.Vec3{1, 0, 0}}
}

func approxEqual(t *testing.T, got, want, tolerance float64, what string) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Fatalf("%s = %v, want %v (tolerance %v)", what, got, want, tolerance)
	}
}

type rig struct {
	ctrl  *Controller
	mover *stubMover
	body  *scene.Transform
	binds input.Bindings
	bus   *event.Bus
}

func newRig(t *testing.T, grounded bool) *rig {
	t.Helper()
	m := &stubMover{grounded: grounded}
	body := scene.NewTransform(mgl64.Vec3{})
	binds := input.Bindings{
		Move:   input.NewAxis2D(),
		Jump:   input.NewTrigger(),
		Sprint: input.NewButton(),
	}
	bus := event.NewBus()

	ctrl, err := New(testConfig(), m, body, forwardFacing(), nil, binds, bus)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ctrl.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	return &rig{ctrl: ctrl, mover: m, body: body, binds: binds, bus: bus}
}

func (r *rig) frame(t *testing.T, dt float64) {
	t.Helper()
	r.binds.Dispatch()
	r.ctrl.Update(dt)
}

func TestNewRejectsInvalidArguments(t *testing.T) {
	m := &stubMover{}
	body := scene.NewTransform(mgl64.Vec3{})

	mutations := map[string]func(*Config){
		"zero move speed":       func(c *Config) { c.MoveSpeed = 0 },
		"negative sprint speed": func(c *Config) { c.SprintSpeed = -1 },
		"zero rotation rate":    func(c *Config) { c.RotationRate = 0 },
		"upward gravity":        func(c *Config) { c.Gravity = 9.81 },
		"zero gravity":          func(c *Config) { c.Gravity = 0 },
		"zero jump height":      func(c *Config) { c.JumpApexHeight = 0 },
	}
	for name, mutate := range mutations {
		cfg := testConfig()
		mutate(&cfg)
		if _, err := New(cfg, m, body, forwardFacing(), nil, input.Bindings{}, nil); err == nil {
			t.Errorf("%s: want config error", name)
		}
	}

	if _, err := New(testConfig(), nil, body, forwardFacing(), nil, input.Bindings{}, nil); err == nil {
		t.Error("want error for nil mover")
	}
	if _, err := New(testConfig(), m, nil, forwardFacing(), nil, input.Bindings{}, nil); err == nil {
		t.Error("want error for nil body transform")
	}
}

func TestActivateRequiresFacingReference(t *testing.T) {
	m := &stubMover{grounded: true}
	body := scene.NewTransform(mgl64.Vec3{})

	ctrl, err := New(testConfig(), m, body, nil, nil, input.Bindings{}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ctrl.Activate(); err == nil {
		t.Fatal("want activation error with no facing and no resolver")
	}

	ctrl, err = New(testConfig(), m, body, nil, stubResolver{}, input.Bindings{}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ctrl.Activate(); err == nil {
		t.Fatal("want activation error when resolver has no main viewpoint")
	}

	ctrl, err = New(testConfig(), m, body, nil, stubResolver{facing: forwardFacing()}, input.Bindings{}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ctrl.Activate(); err != nil {
		t.Fatalf("activation with resolver fallback failed: %v", err)
	}
	if err := ctrl.Activate(); err == nil {
		t.Fatal("want error activating an already active controller")
	}
}

func TestGroundedStickIsDtIndependent(t *testing.T) {
	r := newRig(t, true)

	for _, dt := range []float64{0.001, 0.02, 0.1, 0.5} {
		r.frame(t, dt)
		approxEqual(t, r.ctrl.VerticalSpeed(), groundedVerticalSpeed, 1e-12, "grounded vertical speed")
	}
}

func TestAirborneGravityIntegration(t *testing.T) {
	r := newRig(t, false)
	cfg := testConfig()
	dt := 0.02

	want := groundedVerticalSpeed
	for i := 0; i < 10; i++ {
		r.frame(t, dt)
		want += cfg.Gravity * dt
		approxEqual(t, r.ctrl.VerticalSpeed(), want, 1e-9, "airborne vertical speed")
	}
}

func TestJumpImpulseMagnitude(t *testing.T) {
	r := newRig(t, true)
	cfg := testConfig()

	var jumped []event.JumpEvent
	r.bus.Subscribe(event.EventJump, func(evt any) {
		jumped = append(jumped, evt.(event.JumpEvent))
	})

	r.binds.Jump.Fire()
	r.frame(t, 0.02)

	want := math.Sqrt(2 * cfg.JumpApexHeight * -cfg.Gravity)
	approxEqual(t, r.ctrl.VerticalSpeed(), want, 1e-9, "jump launch speed")
	if len(jumped) != 1 {
		t.Fatalf("jump events = %d, want 1", len(jumped))
	}
	approxEqual(t, jumped[0].Velocity, want, 1e-9, "jump event velocity")
}

func TestJumpReachesApexHeight(t *testing.T) {
	r := newRig(t, true)
	cfg := testConfig()
	dt := 0.001

	r.binds.Jump.Fire()
	r.frame(t, dt)
	r.mover.grounded = false

	peak := r.mover.Position().Y()
	for r.ctrl.VerticalSpeed() > 0 {
		r.frame(t, dt)
		if y := r.mover.Position().Y(); y > peak {
			peak = y
		}
	}

	// Forward Euler overshoots the analytic apex by at most v0*dt.
	approxEqual(t, peak, cfg.JumpApexHeight, 0.02, "jump apex height")
}

func TestJumpIgnoredWhileAirborne(t *testing.T) {
	r := newRig(t, false)

	r.binds.Jump.Fire()
	r.frame(t, 0.02)

	if r.ctrl.VerticalSpeed() > 0 {
		t.Fatalf("airborne jump applied an impulse, vertical speed = %v", r.ctrl.VerticalSpeed())
	}

	// Landing later must not replay the stale press.
	r.mover.grounded = true
	r.frame(t, 0.02)
	approxEqual(t, r.ctrl.VerticalSpeed(), groundedVerticalSpeed, 1e-9, "vertical speed after landing")
}

func TestNeutralInputProducesNoPlanarMotion(t *testing.T) {
	r := newRig(t, true)
	before := r.body.Orientation()

	r.frame(t, 0.02)

	delta := r.mover.lastMove(t)
	approxEqual(t, delta.X(), 0, 1e-12, "neutral delta X")
	approxEqual(t, delta.Z(), 0, 1e-12, "neutral delta Z")
	if scene.AngleBetween(before, r.body.Orientation()) > 1e-12 {
		t.Fatal("orientation changed with neutral input")
	}
}

func TestMoveDirectionFollowsFacingBasis(t *testing.T) {
	cases := []struct {
		name  string
		input mgl64.Vec2
		want  mgl64.Vec3
	}{
		{"forward", mgl64.Vec2{0, 1}, mgl64.Vec3{0, 0, 1}},
		{"back", mgl64.Vec2{0, -1}, mgl64.Vec3{0, 0, -1}},
		{"strafe right", mgl64.Vec2{1, 0}, mgl64.Vec3{1, 0, 0}},
		{"strafe left", mgl64.Vec2{-1, 0}, mgl64.Vec3{-1, 0, 0}},
	}

	cfg := testConfig()
	dt := 0.02
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t, true)
			r.binds.Move.Set(tc.input)
			r.frame(t, dt)

			delta := r.mover.lastMove(t)
			approxEqual(t, delta.X(), tc.want.X()*cfg.MoveSpeed*dt, 1e-9, "delta X")
			approxEqual(t, delta.Z(), tc.want.Z()*cfg.MoveSpeed*dt, 1e-9, "delta Z")
		})
	}
}

func TestDiagonalInputIsNormalized(t *testing.T) {
	r := newRig(t, true)
	cfg := testConfig()
	dt := 0.02

	r.binds.Move.Set(mgl64.Vec2{1, 1})
	r.frame(t, dt)

	delta := r.mover.lastMove(t)
	planar := math.Hypot(delta.X(), delta.Z())
	approxEqual(t, planar, cfg.MoveSpeed*dt, 1e-9, "diagonal planar speed")
}

func TestTiltedFacingIsFlattened(t *testing.T) {
	m := &stubMover{grounded: true}
	body := scene.NewTransform(mgl64.Vec3{})
	binds := input.Bindings{Move: input.NewAxis2D()}
	facing := fixedFacing{
		forward: mgl64.Vec3{0, -0.8, 0.6},
		right:   mgl64.Vec3{1, 0, 0},
	}

	ctrl, err := New(testConfig(), m, body, facing, nil, binds, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ctrl.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	dt := 0.02
	binds.Move.Set(mgl64.Vec2{0, 1})
	binds.Dispatch()
	ctrl.Update(dt)

	delta := m.lastMove(t)
	approxEqual(t, delta.Z(), testConfig().MoveSpeed*dt, 1e-9, "flattened forward delta Z")
	approxEqual(t, delta.X(), 0, 1e-12, "flattened forward delta X")
}

func TestVerticalFacingYieldsNoMotion(t *testing.T) {
	m := &stubMover{grounded: true}
	body := scene.NewTransform(mgl64.Vec3{})
	binds := input.Bindings{Move: input.NewAxis2D()}
	facing := fixedFacing{
		forward: mgl64.Vec3{0, -1, 0},
		right:   mgl64.Vec3{1, 0, 0},
	}

	ctrl, err := New(testConfig(), m, body, facing, nil, binds, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ctrl.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	binds.Move.Set(mgl64.Vec2{0, 1})
	binds.Dispatch()
	ctrl.Update(0.02)

	delta := m.lastMove(t)
	approxEqual(t, delta.X(), 0, 1e-12, "straight-down facing delta X")
	approxEqual(t, delta.Z(), 0, 1e-12, "straight-down facing delta Z")
}

func TestVerticalForwardStillAllowsStrafe(t *testing.T) {
	m := &stubMover{grounded: true}
	body := scene.NewTransform(mgl64.Vec3{})
	binds := input.Bindings{Move: input.NewAxis2D()}
	facing := fixedFacing{
		forward: mgl64.Vec3{0, -1, 0},
		right:   mgl64.Vec3{1, 0, 0},
	}

	ctrl, err := New(testConfig(), m, body, facing, nil, binds, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ctrl.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	dt := 0.02
	binds.Move.Set(mgl64.Vec2{1, 0})
	binds.Dispatch()
	ctrl.Update(dt)

	// The forward axis projects to zero, but the right axis is horizontal
	// and must still carry the strafe component.
	delta := m.lastMove(t)
	approxEqual(t, delta.X(), testConfig().MoveSpeed*dt, 1e-9, "strafe delta X with vertical forward")
	approxEqual(t, delta.Z(), 0, 1e-12, "strafe delta Z with vertical forward")
}

func TestSprintHoldSwitchesSpeed(t *testing.T) {
	r := newRig(t, true)
	cfg := testConfig()
	dt := 0.02

	r.binds.Move.Set(mgl64.Vec2{0, 1})
	r.binds.Sprint.Press()
	r.frame(t, dt)

	if !r.ctrl.Sprinting() {
		t.Fatal("sprint press not observed")
	}
	approxEqual(t, r.mover.lastMove(t).Z(), cfg.SprintSpeed*dt, 1e-9, "sprint delta Z")

	r.binds.Sprint.Release()
	r.frame(t, dt)

	if r.ctrl.Sprinting() {
		t.Fatal("sprint release not observed")
	}
	approxEqual(t, r.mover.lastMove(t).Z(), cfg.MoveSpeed*dt, 1e-9, "walk delta Z")
}

func TestRotationConvergesWithoutOvershoot(t *testing.T) {
	r := newRig(t, true)
	target := scene.FacingYaw(mgl64.Vec3{1, 0, 0})

	r.binds.Move.Set(mgl64.Vec2{1, 0})

	prev := scene.AngleBetween(r.body.Orientation(), target)
	for i := 0; i < 60; i++ {
		r.frame(t, 0.02)
		angle := scene.AngleBetween(r.body.Orientation(), target)
		if angle > prev+1e-9 {
			t.Fatalf("frame %d: angle to target grew from %v to %v", i, prev, angle)
		}
		prev = angle
	}
	if prev > 0.01 {
		t.Fatalf("orientation did not converge, residual angle %v", prev)
	}
}

func TestRotationFractionClampedForLargeDt(t *testing.T) {
	r := newRig(t, true)
	target := scene.FacingYaw(mgl64.Vec3{1, 0, 0})

	r.binds.Move.Set(mgl64.Vec2{1, 0})
	r.frame(t, 1.0) // rotationRate*dt = 10, clamped to a full step

	if angle := scene.AngleBetween(r.body.Orientation(), target); angle > 1e-9 {
		t.Fatalf("large dt should snap to target, residual angle %v", angle)
	}
}

func TestDeactivateDetachesExactlyOwnSubscriptions(t *testing.T) {
	r := newRig(t, true)

	external := 0
	r.binds.Move.Subscribe(func(mgl64.Vec2) { external++ })

	if got := r.binds.Move.SubscriberCount(); got != 2 {
		t.Fatalf("move subscribers while active = %d, want 2", got)
	}

	r.ctrl.Deactivate()

	if got := r.binds.Move.SubscriberCount(); got != 1 {
		t.Fatalf("move subscribers after deactivate = %d, want 1", got)
	}
	if got := r.binds.Jump.SubscriberCount(); got != 0 {
		t.Fatalf("jump subscribers after deactivate = %d, want 0", got)
	}
	if got := r.binds.Sprint.SubscriberCount(); got != 0 {
		t.Fatalf("sprint subscribers after deactivate = %d, want 0", got)
	}

	r.binds.Move.Set(mgl64.Vec2{0, 1})
	r.binds.Dispatch()
	if external != 1 {
		t.Fatalf("external subscriber deliveries = %d, want 1", external)
	}
}

func TestActivationCyclesDoNotAccumulateSubscriptions(t *testing.T) {
	r := newRig(t, true)

	for i := 0; i < 3; i++ {
		r.ctrl.Deactivate()
		if err := r.ctrl.Activate(); err != nil {
			t.Fatalf("cycle %d: Activate failed: %v", i, err)
		}
	}

	if got := r.binds.Move.SubscriberCount(); got != 1 {
		t.Fatalf("move subscribers after cycles = %d, want 1", got)
	}
	if got := r.binds.Jump.SubscriberCount(); got != 1 {
		t.Fatalf("jump subscribers after cycles = %d, want 1", got)
	}
	if got := r.binds.Sprint.SubscriberCount(); got != 1 {
		t.Fatalf("sprint subscribers after cycles = %d, want 1", got)
	}
}

func TestReactivationResetsMotionState(t *testing.T) {
	r := newRig(t, false)

	for i := 0; i < 5; i++ {
		r.frame(t, 0.02)
	}
	if r.ctrl.VerticalSpeed() >= groundedVerticalSpeed {
		t.Fatal("fall should have accelerated past the grounded stick speed")
	}

	r.binds.Sprint.Press()
	r.binds.Dispatch()
	r.ctrl.Update(0.02)

	deactivations := 0
	r.bus.Subscribe(event.EventDeactivated, func(any) { deactivations++ })

	r.ctrl.Deactivate()
	if err := r.ctrl.Activate(); err != nil {
		t.Fatalf("reactivation failed: %v", err)
	}

	if deactivations != 1 {
		t.Fatalf("deactivated events = %d, want 1", deactivations)
	}
	approxEqual(t, r.ctrl.VerticalSpeed(), groundedVerticalSpeed, 1e-12, "vertical speed after reactivation")
	if r.ctrl.Sprinting() {
		t.Fatal("sprint state survived reactivation")
	}
}

func TestMissingChannelsLeaveCapabilitiesInert(t *testing.T) {
	m := &stubMover{grounded: true}
	body := scene.NewTransform(mgl64.Vec3{})

	ctrl, err := New(testConfig(), m, body, forwardFacing(), nil, input.Bindings{}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ctrl.Activate(); err != nil {
		t.Fatalf("Activate with no channels failed: %v", err)
	}

	ctrl.Update(0.02)
	delta := m.lastMove(t)
	approxEqual(t, delta.X(), 0, 1e-12, "channel-less delta X")
	approxEqual(t, delta.Z(), 0, 1e-12, "channel-less delta Z")
}

func TestLandEventOnGroundedTransition(t *testing.T) {
	r := newRig(t, false)

	landings := 0
	r.bus.Subscribe(event.EventLand, func(any) { landings++ })

	r.frame(t, 0.02)
	r.frame(t, 0.02)
	if landings != 0 {
		t.Fatal("land event published while still airborne")
	}

	r.mover.grounded = true
	r.frame(t, 0.02)
	if landings != 1 {
		t.Fatalf("landings after touchdown = %d, want 1", landings)
	}

	r.frame(t, 0.02)
	if landings != 1 {
		t.Fatalf("landings while staying grounded = %d, want 1", landings)
	}
}

func TestUpdateIgnoredWhenInactiveOrDegenerateDt(t *testing.T) {
	r := newRig(t, true)

	r.ctrl.Update(0)
	r.ctrl.Update(-0.02)
	if len(r.mover.moves) != 0 {
		t.Fatal("degenerate dt should not integrate")
	}

	r.ctrl.Deactivate()
	r.ctrl.Update(0.02)
	if len(r.mover.moves) != 0 {
		t.Fatal("inactive controller should not integrate")
	}
	if r.ctrl.Active() {
		t.Fatal("controller should report inactive after Deactivate")
	}
}
