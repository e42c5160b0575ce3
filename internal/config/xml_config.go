// Package config provides XML-based configuration for the BOM engine host.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"BomEngine"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Chunked upload settings
	Upload UploadConfig `xml:"Upload"`

	// External catalog comparison service
	Catalog RemoteServiceConfig `xml:"Catalog"`

	// External extraction service
	Extraction RemoteServiceConfig `xml:"Extraction"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file and snapshot storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	SnapshotDBPath   string `xml:"SnapshotDBPath"`
	// PublicBaseURL prefixes blob URLs handed back to uploaders. Empty means relative URLs.
	PublicBaseURL string `xml:"PublicBaseURL"`
}

// UploadConfig contains chunked upload settings
type UploadConfig struct {
	ChunkSizeBytes         int    `xml:"ChunkSizeBytes"`
	MaxAttempts            int    `xml:"MaxAttempts"`
	InitialBackoffMillis   int    `xml:"InitialBackoffMillis"`
	StaleSessionMinutes    int    `xml:"StaleSessionMinutes"`
	CleanupIntervalMinutes int    `xml:"CleanupIntervalMinutes"`
	ReassemblyURL          string `xml:"ReassemblyURL"`
}

// RemoteServiceConfig points at an external HTTP service.
type RemoteServiceConfig struct {
	URL            string `xml:"URL"`
	TimeoutSeconds int    `xml:"TimeoutSeconds"`
}

// Timeout returns the configured timeout as a duration.
func (r RemoteServiceConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogMode              string `xml:"LogMode"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	MatchRulesPath       string `xml:"MatchRulesPath"`
}

// DefaultChunkSize is 1 MiB of raw bytes, about 1.37 MiB once base64-encoded,
// which keeps each request well under a 4.5 MiB body ceiling.
const DefaultChunkSize = 1 << 20

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "4500K",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			SnapshotDBPath:   "./data/snapshots.duckdb",
		},
		Upload: UploadConfig{
			ChunkSizeBytes:         DefaultChunkSize,
			MaxAttempts:            3,
			InitialBackoffMillis:   500,
			StaleSessionMinutes:    60,
			CleanupIntervalMinutes: 10,
		},
		Catalog: RemoteServiceConfig{
			TimeoutSeconds: 30,
		},
		Extraction: RemoteServiceConfig{
			TimeoutSeconds: 300,
		},
		Advanced: AdvancedConfig{
			LogMode:              "development",
			EnableRequestLogging: true,
			MatchRulesPath:       "./match_rules.yaml",
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- BOM Engine Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	if u := os.Getenv("CATALOG_COMPARISON_URL"); u != "" {
		c.Catalog.URL = u
	}

	if u := os.Getenv("EXTRACTION_URL"); u != "" {
		c.Extraction.URL = u
	}

	if mode := os.Getenv("LOG_MODE"); mode != "" {
		c.Advanced.LogMode = mode
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.SnapshotDBPath,
		&c.Advanced.MatchRulesPath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		filepath.Dir(c.Storage.SnapshotDBPath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
