package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// RootConfig is the on-disk layout: a set of named profiles plus the name of
// the one to use when --profile is not given.
type RootConfig struct {
	ActiveConfig string             `mapstructure:"active_config" yaml:"active_config"`
	Configs      map[string]*Config `mapstructure:"configs" yaml:"configs"`
}

type Config struct {
	Audio    AudioConfig    `mapstructure:"audio" yaml:"audio"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Render   RenderConfig   `mapstructure:"render" yaml:"render"`
	Video    VideoConfig    `mapstructure:"video" yaml:"video"`

	// Internal field to track inheritance information for info command
	Inheritance *InheritanceInfo `mapstructure:"-" yaml:"-"`
}

type AudioConfig struct {
	Backend        string  `mapstructure:"backend" yaml:"backend"` // "malgo", "tone", "auto"
	Device         string  `mapstructure:"device" yaml:"device"`   // substring of the capture device name, empty = system default
	SampleRate     int     `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels       int     `mapstructure:"channels" yaml:"channels"`
	ChunkMs        int     `mapstructure:"chunk_ms" yaml:"chunk_ms"`
	OutputBufferMs int     `mapstructure:"output_buffer_ms" yaml:"output_buffer_ms"`
	ToneFrequency  float64 `mapstructure:"tone_frequency" yaml:"tone_frequency"`
	Mute           bool    `mapstructure:"mute" yaml:"mute"`
	// ClickVolume is the gain of the click played on every command.
	ClickVolume float64 `mapstructure:"click_volume" yaml:"click_volume"`
	NoClick     bool    `mapstructure:"no_click" yaml:"no_click"`
}

type AnalysisConfig struct {
	Resolution int     `mapstructure:"resolution" yaml:"resolution"`
	Smoothing  float64 `mapstructure:"smoothing" yaml:"smoothing"`
	MinDB      float64 `mapstructure:"min_db" yaml:"min_db"`
	MaxDB      float64 `mapstructure:"max_db" yaml:"max_db"`
}

type RenderConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
	FPS    int `mapstructure:"fps" yaml:"fps"`
}

type VideoConfig struct {
	Source string `mapstructure:"source" yaml:"source"` // "pattern", "image", "none"
	Path   string `mapstructure:"path" yaml:"path"`
	Filter string `mapstructure:"filter" yaml:"filter"` // initial filter: off, original, grayscale, negative
}

// InheritanceInfo records, per dotted key, whether the resolved value came
// from the selected profile or was inherited from the default profile.
type InheritanceInfo struct {
	Fields map[string]string
}

const (
	Inherited       = "inherited"
	ProfileSpecific = "profile-specific"
)

var defaultConfig = Config{
	Audio: AudioConfig{
		Backend:        "auto",
		SampleRate:     48000,
		Channels:       1,
		ChunkMs:        100,
		OutputBufferMs: 100,
		ToneFrequency:  220,
		ClickVolume:    0.3,
	},
	Analysis: AnalysisConfig{
		Resolution: 2048,
		Smoothing:  0.8,
		MinDB:      -100,
		MaxDB:      -30,
	},
	Render: RenderConfig{
		Width:  1280,
		Height: 720,
		FPS:    60,
	},
	Video: VideoConfig{
		Source: "pattern",
		Filter: "off",
	},
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	c := defaultConfig
	return &c
}

// DefaultPath is where the CLI looks for a config file when --config is not set.
func DefaultPath() string {
	return os.ExpandEnv("$HOME/.config/loopcanvas.yaml")
}

func LoadWithProfile(configFile, profile string) (*Config, error) {
	if configFile == "" {
		return nil, fmt.Errorf("no config file specified, use --config flag")
	}

	rootConfig, err := ReadRootConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	configName := profile
	if configName == "" {
		configName = rootConfig.ActiveConfig
	}
	if configName == "" {
		configName = "default"
	}

	selected, exists := rootConfig.Configs[configName]
	if !exists {
		return nil, fmt.Errorf("configuration profile '%s' not found", configName)
	}

	// Profiles fall back to the "default" profile, which itself falls back
	// to the built-in defaults.
	base := Default()
	if def, ok := rootConfig.Configs["default"]; ok && configName != "default" {
		base = mergeConfigs(base, def)
	}
	resolved := mergeConfigs(base, selected)

	resolved.Video.Path = expandPath(resolved.Video.Path)

	if err := Validate(resolved); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return resolved, nil
}

// LoadOrDefault loads configFile, or returns the built-in defaults when the
// file does not exist.
func LoadOrDefault(configFile, profile string) (*Config, error) {
	if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
		if profile != "" && profile != "default" {
			return nil, fmt.Errorf("profile '%s' requested but config file %s does not exist", profile, configFile)
		}
		return Default(), nil
	}
	return LoadWithProfile(configFile, profile)
}

// ReadRootConfig parses the config file without resolving a profile.
func ReadRootConfig(configFile string) (*RootConfig, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetEnvPrefix("LOOPCANVAS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var rootConfig RootConfig
	if err := v.Unmarshal(&rootConfig); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(rootConfig.Configs) == 0 {
		return nil, fmt.Errorf("configs section is required and cannot be empty")
	}
	for name, profile := range rootConfig.Configs {
		if profile == nil {
			return nil, fmt.Errorf("config '%s' is empty", name)
		}
	}

	return &rootConfig, nil
}

// Profiles lists the profile names found in configFile, sorted, and the
// active one.
func Profiles(configFile string) ([]string, string, error) {
	root, err := ReadRootConfig(configFile)
	if err != nil {
		return nil, "", err
	}
	names := make([]string, 0, len(root.Configs))
	for name := range root.Configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, root.ActiveConfig, nil
}

// UpdateActiveConfig updates the active_config field in the config file
func UpdateActiveConfig(configFile, newActiveConfig string) error {
	if configFile == "" {
		return fmt.Errorf("no config file specified")
	}

	v := viper.New()
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	configs := v.GetStringMap("configs")
	if _, ok := configs[newActiveConfig]; !ok {
		return fmt.Errorf("configuration profile '%s' not found", newActiveConfig)
	}

	v.Set("active_config", newActiveConfig)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configFile, err)
	}

	return nil
}

// mergeConfigs overlays the non-zero fields of profile on top of base and
// records which fields were overridden.
func mergeConfigs(base, profile *Config) *Config {
	result := &Config{Inheritance: &InheritanceInfo{Fields: make(map[string]string)}}
	if base != nil {
		result.Audio = base.Audio
		result.Analysis = base.Analysis
		result.Render = base.Render
		result.Video = base.Video
	}
	if profile == nil {
		return result
	}

	track := func(key string, overridden bool) {
		if overridden {
			result.Inheritance.Fields[key] = ProfileSpecific
		} else {
			result.Inheritance.Fields[key] = Inherited
		}
	}

	str := func(key string, dst *string, v string) {
		if v != "" {
			*dst = v
		}
		track(key, v != "")
	}
	num := func(key string, dst *int, v int) {
		if v != 0 {
			*dst = v
		}
		track(key, v != 0)
	}
	flt := func(key string, dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
		track(key, v != 0)
	}

	str("audio.backend", &result.Audio.Backend, profile.Audio.Backend)
	str("audio.device", &result.Audio.Device, profile.Audio.Device)
	num("audio.sample_rate", &result.Audio.SampleRate, profile.Audio.SampleRate)
	num("audio.channels", &result.Audio.Channels, profile.Audio.Channels)
	num("audio.chunk_ms", &result.Audio.ChunkMs, profile.Audio.ChunkMs)
	num("audio.output_buffer_ms", &result.Audio.OutputBufferMs, profile.Audio.OutputBufferMs)
	flt("audio.tone_frequency", &result.Audio.ToneFrequency, profile.Audio.ToneFrequency)
	// Mute can only be switched on by a profile.
	if profile.Audio.Mute {
		result.Audio.Mute = true
	}
	track("audio.mute", profile.Audio.Mute)
	flt("audio.click_volume", &result.Audio.ClickVolume, profile.Audio.ClickVolume)
	if profile.Audio.NoClick {
		result.Audio.NoClick = true
	}
	track("audio.no_click", profile.Audio.NoClick)

	num("analysis.resolution", &result.Analysis.Resolution, profile.Analysis.Resolution)
	flt("analysis.smoothing", &result.Analysis.Smoothing, profile.Analysis.Smoothing)
	flt("analysis.min_db", &result.Analysis.MinDB, profile.Analysis.MinDB)
	flt("analysis.max_db", &result.Analysis.MaxDB, profile.Analysis.MaxDB)

	num("render.width", &result.Render.Width, profile.Render.Width)
	num("render.height", &result.Render.Height, profile.Render.Height)
	num("render.fps", &result.Render.FPS, profile.Render.FPS)

	str("video.source", &result.Video.Source, profile.Video.Source)
	str("video.path", &result.Video.Path, profile.Video.Path)
	str("video.filter", &result.Video.Filter, profile.Video.Filter)

	return result
}

var filterNames = regexp.MustCompile(`^(off|original|grayscale|negative)$`)

// Validate checks ranges and enumerations of a resolved configuration.
func Validate(c *Config) error {
	switch strings.ToLower(c.Audio.Backend) {
	case "malgo", "tone", "auto":
	default:
		return fmt.Errorf("audio.backend must be 'malgo', 'tone' or 'auto', got: %s", c.Audio.Backend)
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("audio.sample_rate must be between 8000 and 192000, got: %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got: %d", c.Audio.Channels)
	}
	if c.Audio.ChunkMs <= 0 {
		return fmt.Errorf("audio.chunk_ms must be > 0, got: %d", c.Audio.ChunkMs)
	}
	if c.Audio.OutputBufferMs <= 0 {
		return fmt.Errorf("audio.output_buffer_ms must be > 0, got: %d", c.Audio.OutputBufferMs)
	}

	if c.Audio.ClickVolume < 0 || c.Audio.ClickVolume > 1 {
		return fmt.Errorf("audio.click_volume must be in [0, 1], got: %.2f", c.Audio.ClickVolume)
	}

	res := c.Analysis.Resolution
	if res < 32 || res > 32768 || res&(res-1) != 0 {
		return fmt.Errorf("analysis.resolution must be a power of two between 32 and 32768, got: %d", res)
	}
	if c.Analysis.Smoothing < 0 || c.Analysis.Smoothing >= 1 {
		return fmt.Errorf("analysis.smoothing must be in [0, 1), got: %.2f", c.Analysis.Smoothing)
	}
	if c.Analysis.MinDB >= c.Analysis.MaxDB {
		return fmt.Errorf("analysis.min_db (%.1f) must be lower than analysis.max_db (%.1f)", c.Analysis.MinDB, c.Analysis.MaxDB)
	}

	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render size must be positive, got: %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.FPS <= 0 || c.Render.FPS > 240 {
		return fmt.Errorf("render.fps must be between 1 and 240, got: %d", c.Render.FPS)
	}

	switch c.Video.Source {
	case "pattern", "none":
	case "image":
		if c.Video.Path == "" {
			return fmt.Errorf("video.path is required when video.source is 'image'")
		}
	default:
		return fmt.Errorf("video.source must be 'pattern', 'image' or 'none', got: %s", c.Video.Source)
	}
	if !filterNames.MatchString(strings.ToLower(c.Video.Filter)) {
		return fmt.Errorf("video.filter must be one of off, original, grayscale, negative, got: %s", c.Video.Filter)
	}

	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
