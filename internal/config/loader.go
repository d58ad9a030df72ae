package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"gamelaunch/internal/args"
	"gamelaunch/internal/common/fsutil"
	"gamelaunch/internal/rules"
)

// Defaults for fields left unset.
const (
	DefaultAddr        = ":8787"
	DefaultRootDir     = "~/.minecraft"
	DefaultJavaPath    = "java"
	DefaultMaxHeapMB   = 2048
	DefaultWidth       = 854
	DefaultHeight      = 480
	DefaultUserType    = "legacy"
	DefaultPlayerName  = "Player"
	DefaultConcurrency = 16
	DefaultLogLevel    = "info"
)

// Config holds launcher settings.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	RootDir   string `json:"root_dir" yaml:"root_dir" toml:"root_dir"`
	Isolated  bool   `json:"isolated" yaml:"isolated" toml:"isolated"`
	JavaPath  string `json:"java_path" yaml:"java_path" toml:"java_path"`
	MaxHeapMB int    `json:"max_heap_mb" yaml:"max_heap_mb" toml:"max_heap_mb"`
	Width     int    `json:"width" yaml:"width" toml:"width"`
	Height    int    `json:"height" yaml:"height" toml:"height"`

	Features map[string]bool `json:"features" yaml:"features" toml:"features"`

	PlayerName  string `json:"player_name" yaml:"player_name" toml:"player_name"`
	PlayerUUID  string `json:"player_uuid" yaml:"player_uuid" toml:"player_uuid"`
	AccessToken string `json:"access_token" yaml:"access_token" toml:"access_token"`
	UserType    string `json:"user_type" yaml:"user_type" toml:"user_type"`

	AssetHost   string `json:"asset_host" yaml:"asset_host" toml:"asset_host"`
	Concurrency int    `json:"concurrency" yaml:"concurrency" toml:"concurrency"`

	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogJSON  bool   `json:"log_json" yaml:"log_json" toml:"log_json"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	SuccessMarkers   []string `json:"success_markers" yaml:"success_markers" toml:"success_markers"`
	SuccessTimeout   Duration `json:"success_timeout" yaml:"success_timeout" toml:"success_timeout"`
	SuccessIdleDelay Duration `json:"success_idle_delay" yaml:"success_idle_delay" toml:"success_idle_delay"`
	ResetDelay       Duration `json:"reset_delay" yaml:"reset_delay" toml:"reset_delay"`
	StopGrace        Duration `json:"stop_grace" yaml:"stop_grace" toml:"stop_grace"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// WithDefaults fills unset fields and expands a leading '~' in RootDir.
func (c Config) WithDefaults() (Config, error) {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.RootDir == "" {
		c.RootDir = DefaultRootDir
	}
	root, err := fsutil.ExpandHome(c.RootDir)
	if err != nil {
		return c, err
	}
	if root, err = filepath.Abs(root); err != nil {
		return c, fmt.Errorf("abs path: %w", err)
	}
	c.RootDir = root
	if c.JavaPath == "" {
		c.JavaPath = DefaultJavaPath
	}
	if c.MaxHeapMB <= 0 {
		c.MaxHeapMB = DefaultMaxHeapMB
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.PlayerName == "" {
		c.PlayerName = DefaultPlayerName
	}
	if c.UserType == "" {
		c.UserType = DefaultUserType
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c, nil
}

// LaunchContext builds the context for launching versionID. Player fields are
// copied as configured; callers apply credentials on top.
func (c Config) LaunchContext(versionID string) args.Context {
	features := make(map[string]bool, len(c.Features))
	for k, v := range c.Features {
		features[k] = v
	}
	return args.Context{
		PlayerName:  c.PlayerName,
		PlayerUUID:  c.PlayerUUID,
		AccessToken: c.AccessToken,
		UserType:    c.UserType,
		VersionID:   versionID,
		Root:        c.RootDir,
		Isolated:    c.Isolated,
		Width:       c.Width,
		Height:      c.Height,
		MaxHeapMB:   c.MaxHeapMB,
		Features:    features,
		Platform:    rules.Current(),
	}
}

// Duration is a time.Duration read from strings like "30s" in any format.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalText(b []byte) error { return d.parse(string(b)) }

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error { return d.parse(n.Value) }
