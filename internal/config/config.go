package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	OutputVideo   string  `yaml:"output" toml:"output"`
	Quality       string  `yaml:"quality" toml:"quality"`
	Width         int     `yaml:"width" toml:"width"`
	Height        int     `yaml:"height" toml:"height"`
	FPS           int     `yaml:"fps" toml:"fps"`
	Background    string  `yaml:"background" toml:"background"`
	VideoEncoder  string  `yaml:"video_encoder" toml:"video_encoder"`
	EncodeQuality int     `yaml:"encode_quality" toml:"encode_quality"`
	WaitDuration  float64 `yaml:"wait_duration" toml:"wait_duration"`

	DryRun         bool   `yaml:"dry_run" toml:"dry_run"`
	TimelinePath   string `yaml:"timeline" toml:"timeline"`
	SubtitlesPath  string `yaml:"subtitles" toml:"subtitles"`
	EmbedSubtitles bool   `yaml:"embed_subtitles" toml:"embed_subtitles"`
	LastFramePath  string `yaml:"last_frame" toml:"last_frame"`
	AssetsDir      string `yaml:"assets_dir" toml:"assets_dir"`
	EndCardURL     string `yaml:"end_card_url" toml:"end_card_url"`
	Seed           int64  `yaml:"seed" toml:"seed"`

	ShowStats    bool   `yaml:"show_stats" toml:"show_stats"`
	LogLevel     string `yaml:"log_level" toml:"log_level"`
	LogFormat    string `yaml:"log_format" toml:"log_format"`
	BuildVersion string `yaml:"-" toml:"-"`

	Scene SceneConfig `yaml:"scene" toml:"scene"`
}

// SceneConfig sizes the record flow shown in the diagram.
type SceneConfig struct {
	TotalRecords     int     `yaml:"total_records" toml:"total_records"`
	DriverBufferSize int     `yaml:"driver_buffer_size" toml:"driver_buffer_size"`
	ServerBufferSize int     `yaml:"server_buffer_size" toml:"server_buffer_size"`
	Columns          int     `yaml:"columns" toml:"columns"`
	FetchSize        int     `yaml:"fetch_size" toml:"fetch_size"`
	RecordWidth      float64 `yaml:"record_width" toml:"record_width"`
	RecordHeight     float64 `yaml:"record_height" toml:"record_height"`
}

// EncodeParams is what the video encoder needs for one output stream.
type EncodeParams struct {
	Width, Height int
	FPS           int
	Encoder       string
	Quality       int
}

// Preset is a render resolution and frame rate.
type Preset struct {
	Width, Height, FPS int
}

// Presets follow the usual animation render qualities.
var Presets = map[string]Preset{
	"low":        {854, 480, 15},
	"medium":     {1280, 720, 30},
	"high":       {1920, 1080, 60},
	"production": {2560, 1440, 60},
	"fourk":      {3840, 2160, 60},
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Quality:      "medium",
		Width:        1280,
		Height:       720,
		FPS:          30,
		Background:   "#000000",
		WaitDuration: 1.0,
		LogLevel:     "info",
		LogFormat:    "auto",
		Scene: SceneConfig{
			TotalRecords:     20,
			DriverBufferSize: 9,
			ServerBufferSize: 5,
			Columns:          3,
			FetchSize:        1000,
			RecordWidth:      0.6,
			RecordHeight:     0.5,
		},
	}
}

// Load reads a YAML or TOML file over the defaults. The format follows the extension.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension, use .yaml or .toml", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// a preset named in the file sets the size unless the file sets it too
	var set presetKeys
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &set)
	} else {
		err = yaml.Unmarshal(data, &set)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if set.Quality != nil && set.Width == nil && set.Height == nil && set.FPS == nil {
		if err := cfg.ApplyQuality(*set.Quality); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}

type presetKeys struct {
	Quality *string `yaml:"quality" toml:"quality"`
	Width   *int    `yaml:"width" toml:"width"`
	Height  *int    `yaml:"height" toml:"height"`
	FPS     *int    `yaml:"fps" toml:"fps"`
}

// ApplyQuality sets resolution and frame rate from a named preset.
func (c *Config) ApplyQuality(name string) error {
	p, ok := Presets[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("%w: unknown quality %q", ErrInvalid, name)
	}
	c.Quality = strings.ToLower(name)
	c.Width, c.Height, c.FPS = p.Width, p.Height, p.FPS
	return nil
}

// Validate checks the fields the renderer depends on.
func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("resolution %dx%d must be positive", c.Width, c.Height))
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		// yuv420p needs even dimensions
		errs = append(errs, fmt.Errorf("resolution %dx%d must be even", c.Width, c.Height))
	}
	if _, ok := Presets[strings.ToLower(c.Quality)]; c.Quality != "" && !ok {
		errs = append(errs, fmt.Errorf("quality %q is not a known preset", c.Quality))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps %d must be positive", c.FPS))
	}
	if !c.DryRun && strings.TrimSpace(c.OutputVideo) == "" {
		errs = append(errs, errors.New("output path is required unless dry_run is set"))
	}
	if c.WaitDuration < 0 {
		errs = append(errs, fmt.Errorf("wait_duration %f must not be negative", c.WaitDuration))
	}
	switch c.LogFormat {
	case "", "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be auto, text or json", c.LogFormat))
	}

	s := c.Scene
	if s.Columns <= 0 || s.DriverBufferSize < s.Columns {
		errs = append(errs, fmt.Errorf("driver buffer of %d records cannot fill %d columns", s.DriverBufferSize, s.Columns))
	} else if s.DriverBufferSize%s.Columns != 0 {
		errs = append(errs, fmt.Errorf("driver buffer size %d must be a multiple of columns %d", s.DriverBufferSize, s.Columns))
	}
	if s.ServerBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("server buffer size %d must be positive", s.ServerBufferSize))
	}
	// the script pulls two records with next and processes up to the seventh
	if s.DriverBufferSize < 7 {
		errs = append(errs, fmt.Errorf("driver buffer size %d must be at least 7", s.DriverBufferSize))
	}
	if s.TotalRecords <= s.DriverBufferSize {
		errs = append(errs, fmt.Errorf("total records %d must exceed the driver buffer size %d", s.TotalRecords, s.DriverBufferSize))
	}
	if s.RecordWidth <= 0 || s.RecordHeight <= 0 {
		errs = append(errs, fmt.Errorf("record size %gx%g must be positive", s.RecordWidth, s.RecordHeight))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Encode returns the encoder parameters for the configured output.
func (c *Config) Encode() EncodeParams {
	return EncodeParams{
		Width:   c.Width,
		Height:  c.Height,
		FPS:     c.FPS,
		Encoder: c.VideoEncoder,
		Quality: c.EncodeQuality,
	}
}
