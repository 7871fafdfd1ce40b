package config

import (
    "fmt"
    "os"
    "path/filepath"

    "gopkg.in/yaml.v3"
    "orderpulse/internal/common"
    "orderpulse/pkg/models"
)

// Business-rule defaults applied when the config leaves them unset.
const (
    DefaultSLABreachMinutes = 40
    DefaultPeakStartHour    = 19
    DefaultPeakEndHour      = 21
    DefaultMinCourierOrders = 30

    DefaultOrdersTable     = "DELIVERY_ORDERS"
    DefaultProjectionTable = "ORDERS_ANALYTICS"
)

func GetConfigPath() string {
    // Check for environment variable first
    if configPath := os.Getenv("ORDERPULSE_CONFIG"); configPath != "" {
        return filepath.Dir(configPath)
    }
    home, _ := os.UserHomeDir()
    return filepath.Join(home, ".orderpulse")
}

func GetConfigFile() string {
    // Check for environment variable first
    if configFile := os.Getenv("ORDERPULSE_CONFIG"); configFile != "" {
        // Validate the path to prevent directory traversal
        cleaned, err := common.CleanPath(configFile)
        if err != nil {
            // Fall back to default if invalid
            return filepath.Join(GetConfigPath(), "config.yaml")
        }
        return cleaned
    }
    return filepath.Join(GetConfigPath(), "config.yaml")
}

func Load() (*models.Config, error) {
    configFile := GetConfigFile()

    cleanedPath, err := common.CleanPath(configFile)
    if err != nil {
        return nil, fmt.Errorf("invalid config file path: %w", err)
    }

    // Missing config is not an error; defaults still apply
    if _, err := os.Stat(cleanedPath); os.IsNotExist(err) {
        cfg := &models.Config{}
        ApplyDefaults(cfg)
        return cfg, nil
    }

    data, err := os.ReadFile(cleanedPath) // #nosec G304 - path is validated
    if err != nil {
        return nil, fmt.Errorf("failed to read config file: %w", err)
    }

    var config models.Config
    if err := yaml.Unmarshal(data, &config); err != nil {
        return nil, fmt.Errorf("failed to unmarshal config: %w", err)
    }
    ApplyDefaults(&config)
    return &config, nil
}

func Save(config *models.Config) error {
    configPath := GetConfigPath()
    if err := os.MkdirAll(configPath, 0700); err != nil {
        return fmt.Errorf("failed to create config directory: %w", err)
    }

    configFile := GetConfigFile()

    data, err := yaml.Marshal(config)
    if err != nil {
        return fmt.Errorf("failed to marshal config: %w", err)
    }

    if err := os.WriteFile(configFile, data, 0600); err != nil {
        return fmt.Errorf("failed to write config file: %w", err)
    }

    return nil
}

func Exists() bool {
    _, err := os.Stat(GetConfigFile())
    return err == nil
}

// ApplyDefaults fills unset pipeline thresholds and table names with their
// default values.
func ApplyDefaults(config *models.Config) {
    if config.Pipeline.SLABreachMinutes == nil {
        config.Pipeline.SLABreachMinutes = intPtr(DefaultSLABreachMinutes)
    }
    if config.Pipeline.PeakStartHour == nil {
        config.Pipeline.PeakStartHour = intPtr(DefaultPeakStartHour)
    }
    if config.Pipeline.PeakEndHour == nil {
        config.Pipeline.PeakEndHour = intPtr(DefaultPeakEndHour)
    }
    if config.Pipeline.MinCourierOrders == nil {
        config.Pipeline.MinCourierOrders = intPtr(DefaultMinCourierOrders)
    }
    if config.Warehouse.OrdersTable == "" {
        config.Warehouse.OrdersTable = DefaultOrdersTable
    }
    if config.Warehouse.ProjectionTable == "" {
        config.Warehouse.ProjectionTable = DefaultProjectionTable
    }
    if config.Logging.Level == "" {
        config.Logging.Level = "info"
    }
}

func intPtr(v int) *int {
    return &v
}
