// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// Singleton instance of the current configuration.
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig holds the full application configuration, persisted to
// data/config.json so settings survive restarts.
type AppConfig struct {
	Port          string `json:"port"`
	DataDir       string `json:"data_dir"`
	StorageDir    string `json:"storage_dir"` // blob store root (bucket directories)
	LogDir        string `json:"log_dir"`
	PublicBaseURL string `json:"public_base_url"` // prefix of public object locators
	DebugMode     bool   `json:"debug_mode"`

	// Session housekeeping
	SessionTTLMinutes int `json:"session_ttl_minutes"`
}

// Config is the base configuration loaded from the environment.
type Config struct {
	Port          string
	DataDir       string
	StorageDir    string
	LogDir        string
	PublicBaseURL string
	DebugMode     bool
}

// Load reads configuration from the environment, falling back to an
// optional .env file.
func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		Port:          getEnv("PORT", "8080"),
		DataDir:       getEnvPath("DATA_DIR", "data"),
		StorageDir:    getEnvPath("STORAGE_DIR", "storage"),
		LogDir:        getEnvPath("LOG_DIR", "logs"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		DebugMode:     getEnvBool("DEBUG_MODE", true),
	}

	if config.PublicBaseURL == "" {
		config.PublicBaseURL = "http://localhost:" + config.Port
	}

	return config, nil
}

// getEnv returns an environment variable or a default.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath returns a path from the environment and ensures it exists.
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			fmt.Printf("warning: failed to create directory %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool returns a boolean environment variable.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// InitConfig initializes the configuration manager, merging the saved
// config file over the base environment configuration.
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	baseConfig, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = &AppConfig{
		Port:              baseConfig.Port,
		DataDir:           baseConfig.DataDir,
		StorageDir:        baseConfig.StorageDir,
		LogDir:            baseConfig.LogDir,
		PublicBaseURL:     baseConfig.PublicBaseURL,
		DebugMode:         baseConfig.DebugMode,
		SessionTTLMinutes: 120,
	}

	// Saved settings win, base paths and port come from the environment.
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.StorageDir = baseConfig.StorageDir
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.PublicBaseURL = baseConfig.PublicBaseURL
				savedConfig.DebugMode = baseConfig.DebugMode
				if savedConfig.SessionTTLMinutes <= 0 {
					savedConfig.SessionTTLMinutes = 120
				}
				currentConfig = &savedConfig
			}
		}
	}

	return saveConfigLocked()
}

// GetCurrentConfig returns a copy of the current configuration.
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		baseConfig, _ := Load()
		return &AppConfig{
			Port:              baseConfig.Port,
			DataDir:           baseConfig.DataDir,
			StorageDir:        baseConfig.StorageDir,
			LogDir:            baseConfig.LogDir,
			PublicBaseURL:     baseConfig.PublicBaseURL,
			DebugMode:         baseConfig.DebugMode,
			SessionTTLMinutes: 120,
		}
	}

	configCopy := *currentConfig
	return &configCopy
}

// UpdateConfig applies a mutation to the current configuration and
// persists it.
func UpdateConfig(update func(*AppConfig)) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("configuration system not initialized")
	}

	update(currentConfig)
	return saveConfigLocked()
}

// SaveConfig persists the current configuration to the config file.
func SaveConfig() error {
	configMutex.Lock()
	defer configMutex.Unlock()
	return saveConfigLocked()
}

func saveConfigLocked() error {
	if currentConfig == nil || configFile == "" {
		return fmt.Errorf("configuration system not initialized")
	}

	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}
	return nil
}
