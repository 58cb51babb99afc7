package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Locomotion LocomotionConfig `yaml:"locomotion"`
	Collider   ColliderConfig   `yaml:"collider"`
	Arena      ArenaConfig      `yaml:"arena"`
	Sim        SimConfig        `yaml:"sim"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type LocomotionConfig struct {
	MoveSpeed    float64 `yaml:"move_speed"`
	SprintSpeed  float64 `yaml:"sprint_speed"`
	RotationRate float64 `yaml:"rotation_rate"`
	// Gravity is the downward acceleration, negative by convention.
	Gravity    float64 `yaml:"gravity"`
	JumpHeight float64 `yaml:"jump_height"`
}

type ColliderConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type ArenaConfig struct {
	File string `yaml:"file"`
}

type SimConfig struct {
	TickRate int `yaml:"tick_rate"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the controller cannot run with. Failing
// here aborts startup instead of producing a silently degraded character.
func (c *Config) Validate() error {
	l := c.Locomotion
	if l.MoveSpeed <= 0 {
		return fmt.Errorf("locomotion.move_speed must be positive, got %v", l.MoveSpeed)
	}
	if l.SprintSpeed <= 0 {
		return fmt.Errorf("locomotion.sprint_speed must be positive, got %v", l.SprintSpeed)
	}
	if l.RotationRate <= 0 {
		return fmt.Errorf("locomotion.rotation_rate must be positive, got %v", l.RotationRate)
	}
	if l.Gravity >= 0 {
		return fmt.Errorf("locomotion.gravity must be negative (downward), got %v", l.Gravity)
	}
	if l.JumpHeight <= 0 {
		return fmt.Errorf("locomotion.jump_height must be positive, got %v", l.JumpHeight)
	}
	if c.Collider.Width <= 0 || c.Collider.Height <= 0 {
		return fmt.Errorf("collider dimensions must be positive, got width=%v height=%v",
			c.Collider.Width, c.Collider.Height)
	}
	if c.Arena.File == "" {
		return fmt.Errorf("arena.file must be set")
	}
	if c.Sim.TickRate <= 0 {
		return fmt.Errorf("sim.tick_rate must be positive, got %d", c.Sim.TickRate)
	}
	return nil
}
