// Package world provides the static voxel geometry the grounded mover
// collides against, plus a yaml arena format so demo levels are data.
package world

// Grid is a sparse block store on integer cell coordinates.
type Grid struct {
	solid map[[3]int]struct{}
}

func NewGrid() *Grid {
	return &Grid{solid: make(map[[3]int]struct{})}
}

func (g *Grid) SetSolid(x, y, z int) {
	g.solid[[3]int{x, y, z}] = struct{}{}
}

func (g *Grid) ClearSolid(x, y, z int) {
	delete(g.solid, [3]int{x, y, z})
}

func (g *Grid) IsSolid(x, y, z int) bool {
	if g == nil {
		return false
	}
	_, ok := g.solid[[3]int{x, y, z}]
	return ok
}

// FillSlab marks a horizontal rectangle of blocks solid at height y,
// inclusive on all bounds.
func (g *Grid) FillSlab(minX, maxX, minZ, maxZ, y int) {
	for x := minX; x <= maxX; x++ {
		for z := minZ; z <= maxZ; z++ {
			g.SetSolid(x, y, z)
		}
	}
}

func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.solid)
}
