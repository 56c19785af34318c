// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Reflectix/CounselLab/internal/api"
	"github.com/Reflectix/CounselLab/internal/config"
	"github.com/Reflectix/CounselLab/internal/di"
	"github.com/Reflectix/CounselLab/internal/services"
	"github.com/Reflectix/CounselLab/internal/session"
	"github.com/Reflectix/CounselLab/internal/storage"
	"github.com/Reflectix/CounselLab/internal/utils"
)

// httpServer is the subset of http.Server the app drives, split out so
// tests can substitute a mock.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App is the application singleton tying config, services and the
// HTTP server together.
type App struct {
	config   *config.AppConfig
	router   http.Handler
	server   httpServer
	stopChan chan os.Signal

	janitorCancel context.CancelFunc
}

var instance *App

// GetApp returns the application singleton.
func GetApp() *App {
	if instance == nil {
		instance = &App{
			stopChan: make(chan os.Signal, 1),
		}
	}
	return instance
}

// Initialize loads configuration, initializes logging and services,
// and builds the router.
func Initialize() error {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	app := GetApp()
	app.config = cfg

	if err := initLogger(cfg.LogDir); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}

	if err := InitServices(); err != nil {
		return fmt.Errorf("initializing services: %w", err)
	}

	if err := api.InitializeAuth(); err != nil {
		return fmt.Errorf("initializing auth: %w", err)
	}

	router, err := api.SetupRouter()
	if err != nil {
		return fmt.Errorf("setting up router: %w", err)
	}
	app.router = router

	return nil
}

// initLogger initializes the file logger under logDir.
func initLogger(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("server_%s.log", time.Now().Format("2006-01-02")))
	return utils.InitLogger(logFile)
}

// InitServices creates and registers every service in dependency
// order: stores first, then the record services, then the session
// manager on top of them.
func InitServices() error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()
	logger := utils.GetLogger()

	// Storage layer
	recordStore, err := storage.NewRecordStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("creating record store: %w", err)
	}
	container.Register("records", recordStore)

	blobStore, err := storage.NewBlobStore(cfg.StorageDir, cfg.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}
	if err := blobStore.EnsureRequiredBuckets(); err != nil {
		return fmt.Errorf("provisioning buckets: %w", err)
	}
	container.Register("blobs", blobStore)

	// Record services
	scenarioService := services.NewScenarioService(recordStore)
	container.Register("scenario", scenarioService)

	responseService := services.NewResponseService(recordStore)
	container.Register("response", responseService)

	progressService := services.NewProgressService(recordStore)
	container.Register("progress", progressService)

	userService := services.NewUserService(recordStore)
	container.Register("user", userService)

	statsService := services.NewStatsService(recordStore, responseService, progressService)
	container.Register("stats", statsService)

	mediaService := services.NewMediaService(blobStore)
	container.Register("media", mediaService)

	// Session manager depends on everything above.
	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	sessionManager := session.NewManager(ttl, scenarioService, responseService, progressService, mediaService)
	container.Register("sessions", sessionManager)

	janitorCtx, cancel := context.WithCancel(context.Background())
	sessionManager.StartJanitor(janitorCtx)
	GetApp().janitorCancel = cancel

	logger.Info("services initialized", map[string]interface{}{
		"services": len(container.GetNames()),
	})
	return nil
}

// Run starts the HTTP server and blocks until a shutdown signal.
func Run() error {
	app := GetApp()

	if app.server == nil {
		app.server = &http.Server{
			Addr:         ":" + app.config.Port,
			Handler:      app.router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
	}

	errChan := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	signal.Notify(app.stopChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-app.stopChan:
		utils.GetLogger().Infof("received signal %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	app.cleanup()
	return nil
}

// cleanup releases service resources: live sessions first so capture
// tracks are stopped before the process exits.
func (a *App) cleanup() {
	container := di.GetContainer()

	if manager, ok := container.Get("sessions").(*session.Manager); ok && manager != nil {
		manager.CloseAll()
	}
	if a.janitorCancel != nil {
		a.janitorCancel()
	}

	utils.GetLogger().Info("application resources released", nil)
}

// GetConfig returns the app's configuration.
func (a *App) GetConfig() *config.AppConfig {
	return a.config
}

// GetDIContainer returns the global DI container.
func GetDIContainer() *di.Container {
	return di.GetContainer()
}

// IsDebugMode reports whether the app runs in debug mode.
func IsDebugMode() bool {
	if instance == nil || instance.config == nil {
		return false
	}
	return instance.config.DebugMode
}
