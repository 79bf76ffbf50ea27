// Package main is the entry point of the MMD viewer.
package main

import (
	"fmt"
	"os"

	"github.com/gopxl/mainthread/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/mmd-viewer/internal/character"
	"github.com/Faultbox/mmd-viewer/internal/config"
	"github.com/Faultbox/mmd-viewer/internal/engine/physics"
	"github.com/Faultbox/mmd-viewer/internal/engine/shader"
	"github.com/Faultbox/mmd-viewer/internal/loader/pmx"
	"github.com/Faultbox/mmd-viewer/internal/logger"
	"github.com/Faultbox/mmd-viewer/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== MMD Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	code := 0
	mainthread.Run(func() {
		mainthread.Call(func() {
			if err := run(cfg); err != nil {
				logger.Error("viewer error", zap.Error(err))
				code = 1
			}
		})
	})
	if code != 0 {
		logger.Sync()
		os.Exit(code)
	}
	logger.Info("viewer closed normally")
}

// run owns the GL context for its whole lifetime, so it executes on the
// main thread.
func run(cfg *config.Config) error {
	loader := pmx.New(logger.Named("pmx"))
	session := character.NewSession(
		loader,
		loader,
		shader.GLCompiler{},
		physics.Springs{Stiffness: cfg.Physics.Stiffness},
		config.NewStore(cfg.Shading()),
		logger.Named("character"),
	)
	scene := character.NewScene(session, character.NewPoolExecutor(cfg.Scene.Workers), character.OptionsFromConfig(cfg))

	v, err := viewer.New(cfg, scene, logger.Named("viewer"))
	if err != nil {
		return err
	}
	// The scene frees GL programs, so it closes before the context.
	defer v.Close()
	defer session.Close()
	defer scene.Close()

	for _, uri := range cfg.Scene.Models {
		scene.Add(uri)
	}
	v.QueueMotions(cfg.Scene.Motions)

	return v.Run()
}
