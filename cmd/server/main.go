// cmd/server/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Reflectix/CounselLab/internal/app"
	"github.com/Reflectix/CounselLab/internal/config"
	"github.com/Reflectix/CounselLab/internal/di"
	"github.com/Reflectix/CounselLab/internal/services"
	"github.com/Reflectix/CounselLab/internal/session"
)

func main() {
	log.Println("starting CounselLab server...")

	// 1. Load the base configuration from the environment.
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	log.Printf("base configuration loaded, port %s", baseConfig.Port)

	// 2. Create the working directories.
	createDirectories(baseConfig)

	// 3. Initialize the configuration system.
	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		log.Fatalf("initializing configuration system: %v", err)
	}

	// 4. Initialize logging, services and routes.
	if err := app.Initialize(); err != nil {
		log.Fatalf("initializing application: %v", err)
	}

	// 5. Verify the service wiring before accepting traffic.
	if err := performHealthCheck(); err != nil {
		log.Fatalf("service health check failed: %v", err)
	}

	log.Printf("server listening on port %s", baseConfig.Port)
	log.Printf("http://localhost:%s/health", baseConfig.Port)

	// 6. Serve until a shutdown signal arrives.
	if err := app.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}

	log.Println("server stopped")
}

// createDirectories ensures the data, storage and log roots exist.
func createDirectories(cfg *config.Config) {
	dirs := []string{
		cfg.DataDir,
		filepath.Join(cfg.DataDir, "scenarios"),
		filepath.Join(cfg.DataDir, "segments"),
		filepath.Join(cfg.DataDir, "responses"),
		filepath.Join(cfg.DataDir, "progress"),
		filepath.Join(cfg.DataDir, "users"),
		cfg.StorageDir,
		cfg.LogDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("creating directory %s: %v", dir, err)
		}
	}
}

// performHealthCheck verifies the core services are registered and
// reachable.
func performHealthCheck() error {
	container := di.GetContainer()

	required := []string{"records", "blobs", "scenario", "response", "progress", "user", "stats", "media", "sessions"}
	for _, name := range required {
		if !container.Has(name) {
			return fmt.Errorf("service %q not registered", name)
		}
	}

	scenarioService, ok := container.Get("scenario").(*services.ScenarioService)
	if !ok {
		return fmt.Errorf("scenario service has the wrong type")
	}
	if _, err := scenarioService.ListScenarios(); err != nil {
		return fmt.Errorf("scenario store not readable: %w", err)
	}

	if _, ok := container.Get("sessions").(*session.Manager); !ok {
		return fmt.Errorf("session manager has the wrong type")
	}

	return nil
}
