package world

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

type arenaFile struct {
	Spawn spawnEntry  `yaml:"spawn"`
	Slabs []slabEntry `yaml:"slabs"`
	Walls []wallEntry `yaml:"walls"`
}

type spawnEntry struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type slabEntry struct {
	MinX int `yaml:"min_x"`
	MaxX int `yaml:"max_x"`
	MinZ int `yaml:"min_z"`
	MaxZ int `yaml:"max_z"`
	Y    int `yaml:"y"`
}

type wallEntry struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Z      int `yaml:"z"`
	Height int `yaml:"height"`
}

// LoadArena reads an arena description and returns its geometry and spawn
// point. A wall entry with zero height still places one block.
func LoadArena(path string) (*Grid, mgl64.Vec3, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mgl64.Vec3{}, fmt.Errorf("read arena: %w", err)
	}

	var file arenaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, mgl64.Vec3{}, fmt.Errorf("parse arena: %w", err)
	}

	grid := NewGrid()
	for i, slab := range file.Slabs {
		if slab.MinX > slab.MaxX || slab.MinZ > slab.MaxZ {
			return nil, mgl64.Vec3{}, fmt.Errorf("arena slab %d has inverted bounds", i)
		}
		grid.FillSlab(slab.MinX, slab.MaxX, slab.MinZ, slab.MaxZ, slab.Y)
	}
	for _, wall := range file.Walls {
		height := wall.Height
		if height < 1 {
			height = 1
		}
		for dy := 0; dy < height; dy++ {
			grid.SetSolid(wall.X, wall.Y+dy, wall.Z)
		}
	}

	spawn := mgl64.Vec3{file.Spawn.X, file.Spawn.Y, file.Spawn.Z}
	return grid, spawn, nil
}
