// Package console is an interactive terminal driver for a locomotion
// controller: keys feed the input channels, a fixed-rate tick dispatches them
// and integrates frames, and an orbiting viewpoint supplies the
// camera-relative facing reference.
package console

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/term"

	"github.com/Versifine/strider/internal/input"
	"github.com/Versifine/strider/internal/scene"
)

const (
	defaultTickInterval = 50 * time.Millisecond
	defaultMovePulse    = 180 * time.Millisecond
	orbitYawStep        = 5.0 * math.Pi / 180.0
	orbitDistanceStep   = 0.5
	minOrbitDistance    = 2.0
	maxOrbitDistance    = 10.0
	eyeHeight           = 1.6
)

// Controlled is the per-frame surface of a locomotion controller.
type Controlled interface {
	Update(dt float64)
	Sprinting() bool
	Active() bool
}

// Body is the collider the console reports on and teleports.
type Body interface {
	Position() mgl64.Vec3
	Grounded() bool
	SetPosition(pos mgl64.Vec3)
}

type Console struct {
	ctrl         Controlled
	mover        Body
	body         *scene.Transform
	view         *scene.Transform
	bindings     input.Bindings
	tickInterval time.Duration
	movePulse    time.Duration

	commands chan string

	mu            sync.Mutex
	forwardUntil  time.Time
	backwardUntil time.Time
	leftUntil     time.Time
	rightUntil    time.Time
	lastAxis      mgl64.Vec2
	sprintOn      bool
	orbitYaw      float64
	orbitDistance float64
	commandMode   bool
	commandBuf    []rune
	statusWidth   int
}

func New(ctrl Controlled, mover Body, body, view *scene.Transform, bindings input.Bindings) *Console {
	return &Console{
		ctrl:          ctrl,
		mover:         mover,
		body:          body,
		view:          view,
		bindings:      bindings,
		commands:      make(chan string, 8),
		tickInterval:  defaultTickInterval,
		movePulse:     defaultMovePulse,
		orbitDistance: 5.0,
	}
}

// SetTickRate overrides the default frame rate. Call before Start.
func (c *Console) SetTickRate(hz int) {
	if hz > 0 {
		c.tickInterval = time.Second / time.Duration(hz)
	}
}

// Start puts the terminal in raw mode and runs until ctx is cancelled or the
// user presses Ctrl-C.
func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("console is nil")
	}
	if c.ctrl == nil {
		return fmt.Errorf("console controller is nil")
	}
	if c.mover == nil || c.body == nil || c.view == nil {
		return fmt.Errorf("console body references are nil")
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Print("\r\n")
	}()

	fmt.Println("[strider] console started (W/A/S/D pulse, Space jump, ] sprint, arrows orbit, X clear, : command)")
	c.renderStatusLine()

	tickCtx, cancelTick := context.WithCancel(ctx)
	defer cancelTick()
	go c.tickLoop(tickCtx)

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		}
		if b == 3 { // Ctrl-C: raw mode swallows the signal
			return nil
		}
		c.handleKey(reader, b)
	}
}

func (c *Console) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	dt := c.tickInterval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.drainCommands()
			c.syncMoveAxis()
			c.bindings.Dispatch()
			c.ctrl.Update(dt)
			c.updateViewpoint()
			c.renderStatusLine()
		}
	}
}

// drainCommands runs queued console commands here, on the tick goroutine: it
// is the only goroutine allowed to touch the mover and transforms, so the
// reader goroutine enqueues command text instead of executing it.
func (c *Console) drainCommands() {
	for {
		select {
		case cmd := <-c.commands:
			c.executeCommand(cmd)
		default:
			return
		}
	}
}

// syncMoveAxis expires movement pulses and pushes the axis value to the move
// channel only when it changed, so neutral frames queue no events.
func (c *Console) syncMoveAxis() {
	c.mu.Lock()
	now := time.Now()
	if !c.forwardUntil.IsZero() && !now.Before(c.forwardUntil) {
		c.forwardUntil = time.Time{}
	}
	if !c.backwardUntil.IsZero() && !now.Before(c.backwardUntil) {
		c.backwardUntil = time.Time{}
	}
	if !c.leftUntil.IsZero() && !now.Before(c.leftUntil) {
		c.leftUntil = time.Time{}
	}
	if !c.rightUntil.IsZero() && !now.Before(c.rightUntil) {
		c.rightUntil = time.Time{}
	}

	var axis mgl64.Vec2
	if !c.forwardUntil.IsZero() {
		axis[1] += 1
	}
	if !c.backwardUntil.IsZero() {
		axis[1] -= 1
	}
	if !c.rightUntil.IsZero() {
		axis[0] += 1
	}
	if !c.leftUntil.IsZero() {
		axis[0] -= 1
	}

	changed := axis != c.lastAxis
	c.lastAxis = axis
	c.mu.Unlock()

	if changed && c.bindings.Move != nil {
		c.bindings.Move.Set(axis)
	}
}

// updateViewpoint places the camera behind the body at the current orbit yaw,
// looking the same way, so movement input stays camera-relative.
func (c *Console) updateViewpoint() {
	c.mu.Lock()
	yaw := c.orbitYaw
	distance := c.orbitDistance
	c.mu.Unlock()

	rot := scene.YawRotation(yaw)
	offset := rot.Rotate(mgl64.Vec3{0, 0, -distance}).Add(mgl64.Vec3{0, eyeHeight, 0})
	c.view.SetPosition(c.mover.Position().Add(offset))
	c.view.SetOrientation(rot)
}

func (c *Console) handleKey(reader *bufio.Reader, b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	switch b {
	case ':':
		c.enterCommandMode()
		return
	case 'w', 'W':
		c.pulse(&c.forwardUntil, &c.backwardUntil)
	case 's', 'S':
		c.pulse(&c.backwardUntil, &c.forwardUntil)
	case 'a', 'A':
		c.pulse(&c.leftUntil, &c.rightUntil)
	case 'd', 'D':
		c.pulse(&c.rightUntil, &c.leftUntil)
	case ' ':
		if c.bindings.Jump != nil {
			c.bindings.Jump.Fire()
		}
	case ']':
		c.toggleSprint()
	case 'x', 'X':
		c.clearInput()
	case 27: // ESC + arrow sequence
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return
		}
		arrow, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch arrow {
		case 'D': // left
			c.adjustOrbitYaw(orbitYawStep)
		case 'C': // right
			c.adjustOrbitYaw(-orbitYawStep)
		case 'A': // up
			c.adjustOrbitDistance(-orbitDistanceStep)
		case 'B': // down
			c.adjustOrbitDistance(orbitDistanceStep)
		}
	}
}

// pulse arms one movement direction for the pulse window and releases its
// opposite, mirroring how a held key would behave.
func (c *Console) pulse(until, opposite *time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*until = time.Now().Add(c.movePulse)
	*opposite = time.Time{}
}

func (c *Console) toggleSprint() {
	c.mu.Lock()
	c.sprintOn = !c.sprintOn
	on := c.sprintOn
	c.mu.Unlock()

	if c.bindings.Sprint != nil {
		if on {
			c.bindings.Sprint.Press()
		} else {
			c.bindings.Sprint.Release()
		}
	}
	slog.Debug("Console sprint toggled", "enabled", on)
}

func (c *Console) clearInput() {
	c.mu.Lock()
	c.forwardUntil = time.Time{}
	c.backwardUntil = time.Time{}
	c.leftUntil = time.Time{}
	c.rightUntil = time.Time{}
	sprintWasOn := c.sprintOn
	c.sprintOn = false
	c.mu.Unlock()

	if sprintWasOn && c.bindings.Sprint != nil {
		c.bindings.Sprint.Release()
	}
}

func (c *Console) adjustOrbitYaw(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orbitYaw = normalizeAngle(c.orbitYaw + delta)
}

func (c *Console) adjustOrbitDistance(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orbitDistance += delta
	if c.orbitDistance < minOrbitDistance {
		c.orbitDistance = minOrbitDistance
	}
	if c.orbitDistance > maxOrbitDistance {
		c.orbitDistance = maxOrbitDistance
	}
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	fmt.Print("\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		fmt.Print("\r\n")
		if cmd != "" {
			select {
			case c.commands <- cmd:
			default:
				fmt.Print("[strider] command queue full\r\n")
			}
		}
		return
	case 27: // ESC cancel command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		fmt.Print("\r\n[strider] command cancelled\r\n")
		return
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Printf("\r:%s ", buf)
		fmt.Printf("\r:%s", buf)
		return
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Printf("\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		pos := c.mover.Position()
		fwd := c.body.Forward()
		fmt.Printf("[strider] pos=(%.3f,%.3f,%.3f) facing=(%.2f,%.2f,%.2f) ground=%t sprint=%t active=%t\r\n",
			pos.X(), pos.Y(), pos.Z(),
			fwd.X(), fwd.Y(), fwd.Z(),
			c.mover.Grounded(),
			c.ctrl.Sprinting(),
			c.ctrl.Active(),
		)
	case "tp":
		if len(parts) != 4 {
			fmt.Printf("[strider] usage: :tp <x> <y> <z>\r\n")
			return
		}
		x, err1 := strconv.ParseFloat(parts[1], 64)
		y, err2 := strconv.ParseFloat(parts[2], 64)
		z, err3 := strconv.ParseFloat(parts[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			fmt.Printf("[strider] invalid tp args\r\n")
			return
		}
		pos := mgl64.Vec3{x, y, z}
		c.mover.SetPosition(pos)
		c.body.SetPosition(pos)
		fmt.Printf("[strider] teleported to (%.3f, %.3f, %.3f)\r\n", x, y, z)
	default:
		fmt.Printf("[strider] unknown command: %s\r\n", parts[0])
	}
}

func (c *Console) printHelp() {
	fmt.Print("[strider] keys:\r\n")
	fmt.Print("  W/S/A/D: pulse movement (~180ms)\r\n")
	fmt.Print("  Space: jump\r\n")
	fmt.Print("  ]: toggle sprint\r\n")
	fmt.Print("  Arrow Left/Right: orbit camera\r\n")
	fmt.Print("  Arrow Up/Down: camera distance\r\n")
	fmt.Print("  X: clear all input\r\n")
	fmt.Print("  : enter command mode\r\n")
	fmt.Print("[strider] commands:\r\n")
	fmt.Print("  :tp <x> <y> <z>\r\n")
	fmt.Print("  :state\r\n")
	fmt.Print("  :help\r\n")
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	axis := c.lastAxis
	sprint := c.sprintOn
	yaw := c.orbitYaw
	width := c.statusWidth
	c.mu.Unlock()

	pos := c.mover.Position()
	line := fmt.Sprintf(
		"[MOVE:(%+.0f,%+.0f) SPR:%s | CAM:%.0f° | X:%.2f Y:%.2f Z:%.2f ground:%t]",
		axis.X(), axis.Y(),
		boolLabel(sprint),
		yaw*180.0/math.Pi,
		pos.X(), pos.Y(), pos.Z(),
		c.mover.Grounded(),
	)

	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	fmt.Printf("\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func boolLabel(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func normalizeAngle(a float64) float64 {
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
