package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Versifine/strider/internal/config"
	"github.com/Versifine/strider/internal/console"
	"github.com/Versifine/strider/internal/event"
	"github.com/Versifine/strider/internal/input"
	"github.com/Versifine/strider/internal/locomotion"
	"github.com/Versifine/strider/internal/logger"
	"github.com/Versifine/strider/internal/mover"
	"github.com/Versifine/strider/internal/scene"
	"github.com/Versifine/strider/internal/world"
)

// sceneResolver adapts the scene's main-viewpoint lookup to the facing
// fallback the controller expects.
type sceneResolver struct {
	scene *scene.Scene
}

func (r sceneResolver) MainViewpoint() (locomotion.Facing, bool) {
	vp, ok := r.scene.MainViewpoint()
	if !ok {
		return nil, false
	}
	return vp, true
}

func main() {

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grid, spawn, err := world.LoadArena(cfg.Arena.File)
	if err != nil {
		slog.Error("Failed to load arena", "error", err, "file", cfg.Arena.File)
		os.Exit(1)
	}
	slog.Info("Arena loaded", "file", cfg.Arena.File, "blocks", grid.Len(), "spawn", spawn)

	body := scene.NewTransform(spawn)
	view := scene.NewTransform(spawn)
	sc := scene.NewScene()
	sc.AddViewpoint(view)

	mv, err := mover.New(grid, mover.Box{
		Width:  cfg.Collider.Width,
		Height: cfg.Collider.Height,
	}, spawn)
	if err != nil {
		slog.Error("Failed to build mover", "error", err)
		os.Exit(1)
	}

	bindings := input.Bindings{
		Move:   input.NewAxis2D(),
		Jump:   input.NewTrigger(),
		Sprint: input.NewButton(),
	}

	bus := event.NewBus()
	bus.Subscribe(event.EventJump, func(evt any) {
		if jump, ok := evt.(event.JumpEvent); ok {
			slog.Debug("Jump", "velocity", jump.Velocity, "position", jump.Position)
		}
	})
	bus.Subscribe(event.EventLand, func(evt any) {
		if land, ok := evt.(event.LandEvent); ok {
			slog.Debug("Landed", "position", land.Position)
		}
	})

	ctrl, err := locomotion.New(locomotion.Config{
		MoveSpeed:      cfg.Locomotion.MoveSpeed,
		SprintSpeed:    cfg.Locomotion.SprintSpeed,
		RotationRate:   cfg.Locomotion.RotationRate,
		Gravity:        cfg.Locomotion.Gravity,
		JumpApexHeight: cfg.Locomotion.JumpHeight,
	}, mv, body, nil, sceneResolver{scene: sc}, bindings, bus)
	if err != nil {
		slog.Error("Failed to build controller", "error", err)
		os.Exit(1)
	}
	if err := ctrl.Activate(); err != nil {
		slog.Error("Failed to activate controller", "error", err)
		os.Exit(1)
	}
	defer ctrl.Deactivate()

	con := console.New(ctrl, mv, body, view, bindings)
	con.SetTickRate(cfg.Sim.TickRate)
	if err := con.Start(ctx); err != nil {
		slog.Error("Console failed", "error", err)
		os.Exit(1)
	}
}
