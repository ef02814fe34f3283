package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Hansen-L/TTS-Exporter/internal/scene"
)

// Output formats.
const (
	FormatGLB  = "glb"
	FormatGLTF = "gltf"
	FormatWebP = "webp"
	FormatJSON = "json"
)

// Config holds all configurable paths and import settings.
type Config struct {
	// Paths
	SavePath   string `json:"save" toml:"save"`
	OutputPath string `json:"output" toml:"output"`
	CacheDir   string `json:"cache_dir" toml:"cache_dir"`

	// Import settings
	Format       string `json:"format" toml:"format"`
	Rotation     string `json:"rotation" toml:"rotation"`
	FetchTimeout string `json:"fetch_timeout" toml:"fetch_timeout"`
	Workers      int    `json:"workers" toml:"workers"`
	LogLevel     string `json:"log_level" toml:"log_level"`
	Watch        bool   `json:"watch" toml:"watch"`

	// Preview settings
	PreviewSize int `json:"preview_size" toml:"preview_size"`
	Supersample int `json:"supersample" toml:"supersample"`
}

// Load reads a config file: TOML when the extension is .toml, JSON otherwise.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	SavePath    string
	OutputPath  string
	CacheDir    string
	Format      string
	Rotation    string
	LogLevel    string
	PreviewSize int
	Workers     int
	Watch       bool
}

// Resolve applies CLI flags, then fills any empty field with its default.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.SavePath != "" {
		c.SavePath = flags.SavePath
	}
	if flags.OutputPath != "" {
		c.OutputPath = flags.OutputPath
	}
	if flags.CacheDir != "" {
		c.CacheDir = flags.CacheDir
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Rotation != "" {
		c.Rotation = flags.Rotation
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.PreviewSize > 0 {
		c.PreviewSize = flags.PreviewSize
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Watch {
		c.Watch = true
	}

	// Format follows the output extension when only the output is given.
	if c.Format == "" && c.OutputPath != "" {
		c.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(c.OutputPath)), ".")
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format == "" {
		c.Format = FormatGLB
	}

	if c.OutputPath == "" && c.SavePath != "" {
		stem := strings.TrimSuffix(c.SavePath, filepath.Ext(c.SavePath))
		c.OutputPath = stem + "." + c.Format
		if c.OutputPath == c.SavePath {
			c.OutputPath = stem + ".scene." + c.Format
		}
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir()
	}

	if c.Rotation == "" {
		c.Rotation = scene.RotationFull.String()
	}
	if c.FetchTimeout == "" {
		c.FetchTimeout = "60s"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 1024
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
}

// Validate reports settings that Resolve cannot fix.
func (c *Config) Validate() error {
	if c.SavePath == "" {
		return fmt.Errorf("config: no save file given")
	}
	switch c.Format {
	case FormatGLB, FormatGLTF, FormatWebP, FormatJSON:
	default:
		return fmt.Errorf("config: unknown format %q (want glb, gltf, webp or json)", c.Format)
	}
	if _, err := c.RotationMode(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// RotationMode parses Rotation.
func (c *Config) RotationMode() (scene.RotationMode, error) {
	return scene.ParseRotationMode(c.Rotation)
}

// Timeout parses FetchTimeout.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: bad fetch_timeout %q", c.FetchTimeout)
	}
	return d, nil
}

func defaultCacheDir() string {
	// User cache dir first, then the working directory
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "tts-exporter")
	}
	return filepath.Join(".", "tts-cache")
}
