// Package mover resolves per-tick displacement of a box collider against a
// voxel block store. It answers the two questions locomotion needs: how far
// the body actually moved, and whether it is resting on a supporting surface.
package mover

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type BlockStore interface {
	IsSolid(x, y, z int) bool
}

// Box is the collider shape: a vertical box centered on the body's feet
// position, extending Height upward.
type Box struct {
	Width  float64
	Height float64
}

const (
	axisTolerance       = 1e-9
	groundProbeDistance = 0.001
)

type Mover struct {
	store    BlockStore
	box      Box
	pos      mgl64.Vec3
	grounded bool
}

func New(store BlockStore, box Box, pos mgl64.Vec3) (*Mover, error) {
	if store == nil {
		return nil, fmt.Errorf("mover requires a block store")
	}
	if box.Width <= 0 || box.Height <= 0 {
		return nil, fmt.Errorf("collider box must have positive dimensions, got width=%v height=%v",
			box.Width, box.Height)
	}
	m := &Mover{store: store, box: box, pos: pos}
	m.grounded = m.probeGround()
	return m, nil
}

// Move sweeps the collider by delta, one axis at a time (Y first so landing
// settles before horizontal sliding), and returns the displacement that
// actually happened after collision clipping.
func (m *Mover) Move(delta mgl64.Vec3) mgl64.Vec3 {
	start := m.pos
	m.pos[1] += m.sweepY(delta.Y())
	m.pos[0] += m.sweepX(delta.X())
	m.pos[2] += m.sweepZ(delta.Z())
	m.grounded = m.probeGround()
	return m.pos.Sub(start)
}

func (m *Mover) Grounded() bool {
	return m.grounded
}

func (m *Mover) Position() mgl64.Vec3 {
	return m.pos
}

// SetPosition teleports the collider and re-probes ground support.
func (m *Mover) SetPosition(pos mgl64.Vec3) {
	m.pos = pos
	m.grounded = m.probeGround()
}

type aabb struct {
	minX, minY, minZ float64
	maxX, maxY, maxZ float64
}

func (m *Mover) bounds() aabb {
	half := m.box.Width / 2
	return aabb{
		minX: m.pos.X() - half,
		minY: m.pos.Y(),
		minZ: m.pos.Z() - half,
		maxX: m.pos.X() + half,
		maxY: m.pos.Y() + m.box.Height,
		maxZ: m.pos.Z() + half,
	}
}

func (m *Mover) probeGround() bool {
	b := m.bounds()
	b.minY -= groundProbeDistance
	b.maxY -= groundProbeDistance
	return m.collides(b)
}

func (m *Mover) collides(b aabb) bool {
	for y := floorForMin(b.minY); y <= floorForMax(b.maxY); y++ {
		for x := floorForMin(b.minX); x <= floorForMax(b.maxX); x++ {
			for z := floorForMin(b.minZ); z <= floorForMax(b.maxZ); z++ {
				if m.store.IsSolid(x, y, z) {
					return true
				}
			}
		}
	}
	return false
}

func (m *Mover) sweepY(delta float64) float64 {
	if nearlyZero(delta) {
		return delta
	}
	b := m.bounds()
	allowed := delta

	if delta > 0 {
		startY := int(math.Floor(b.maxY))
		endY := int(math.Floor(b.maxY + delta))
		for y := startY; y <= endY; y++ {
			for x := floorForMin(b.minX); x <= floorForMax(b.maxX); x++ {
				for z := floorForMin(b.minZ); z <= floorForMax(b.maxZ); z++ {
					if !m.store.IsSolid(x, y, z) {
						continue
					}
					if candidate := float64(y) - b.maxY; candidate < allowed {
						allowed = candidate
					}
				}
			}
		}
	} else {
		startY := int(math.Floor(b.minY + delta))
		endY := int(math.Floor(b.minY - axisTolerance))
		for y := endY; y >= startY; y-- {
			for x := floorForMin(b.minX); x <= floorForMax(b.maxX); x++ {
				for z := floorForMin(b.minZ); z <= floorForMax(b.maxZ); z++ {
					if !m.store.IsSolid(x, y, z) {
						continue
					}
					if candidate := float64(y+1) - b.minY; candidate > allowed {
						allowed = candidate
					}
				}
			}
		}
	}
	return clampResidual(allowed)
}

func (m *Mover) sweepX(delta float64) float64 {
	if nearlyZero(delta) {
		return delta
	}
	b := m.bounds()
	allowed := delta

	if delta > 0 {
		startX := int(math.Floor(b.maxX))
		endX := int(math.Floor(b.maxX + delta))
		for x := startX; x <= endX; x++ {
			for y := floorForMin(b.minY); y <= floorForMax(b.maxY); y++ {
				for z := floorForMin(b.minZ); z <= floorForMax(b.maxZ); z++ {
					if !m.store.IsSolid(x, y, z) {
						continue
					}
					if candidate := float64(x) - b.maxX; candidate < allowed {
						allowed = candidate
					}
				}
			}
		}
	} else {
		startX := int(math.Floor(b.minX + delta))
		endX := int(math.Floor(b.minX - axisTolerance))
		for x := endX; x >= startX; x-- {
			for y := floorForMin(b.minY); y <= floorForMax(b.maxY); y++ {
				for z := floorForMin(b.minZ); z <= floorForMax(b.maxZ); z++ {
					if !m.store.IsSolid(x, y, z) {
						continue
					}
					if candidate := float64(x+1) - b.minX; candidate > allowed {
						allowed = candidate
					}
				}
			}
		}
	}
	return clampResidual(allowed)
}

func (m *Mover) sweepZ(delta float64) float64 {
	if nearlyZero(delta) {
		return delta
	}
	b := m.bounds()
	allowed := delta

	if delta > 0 {
		startZ := int(math.Floor(b.maxZ))
		endZ := int(math.Floor(b.maxZ + delta))
		for z := startZ; z <= endZ; z++ {
			for y := floorForMin(b.minY); y <= floorForMax(b.maxY); y++ {
				for x := floorForMin(b.minX); x <= floorForMax(b.maxX); x++ {
					if !m.store.IsSolid(x, y, z) {
						continue
					}
					if candidate := float64(z) - b.maxZ; candidate < allowed {
						allowed = candidate
					}
				}
			}
		}
	} else {
		startZ := int(math.Floor(b.minZ + delta))
		endZ := int(math.Floor(b.minZ - axisTolerance))
		for z := endZ; z >= startZ; z-- {
			for y := floorForMin(b.minY); y <= floorForMax(b.maxY); y++ {
				for x := floorForMin(b.minX); x <= floorForMax(b.maxX); x++ {
					if !m.store.IsSolid(x, y, z) {
						continue
					}
					if candidate := float64(z+1) - b.minZ; candidate > allowed {
						allowed = candidate
					}
				}
			}
		}
	}
	return clampResidual(allowed)
}

func clampResidual(v float64) float64 {
	if nearlyZero(v) {
		return 0
	}
	return v
}

func floorForMin(v float64) int {
	return int(math.Floor(v + axisTolerance))
}

func floorForMax(v float64) int {
	return int(math.Floor(v - axisTolerance))
}

func nearlyZero(v float64) bool {
	return math.Abs(v) <= axisTolerance
}
