package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/rulergrid/internal/geom"
	"github.com/inamate/rulergrid/internal/projection"
	"github.com/inamate/rulergrid/internal/viewport"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AccessKeyHash  string `envconfig:"ACCESS_KEY_HASH"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`

	MinZoom        float64 `envconfig:"MIN_ZOOM" default:"0.1"`
	MaxZoom        float64 `envconfig:"MAX_ZOOM" default:"10"`
	ZoomStep       float64 `envconfig:"ZOOM_STEP" default:"1.02"`
	XDivisions     int     `envconfig:"X_DIVISIONS" default:"45"`
	YDivisions     int     `envconfig:"Y_DIVISIONS" default:"45"`
	RulerThickness float64 `envconfig:"RULER_THICKNESS" default:"30"`
	ViewWidth      int     `envconfig:"VIEW_WIDTH" default:"800"`
	ViewHeight     int     `envconfig:"VIEW_HEIGHT" default:"800"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.XDivisions < 1 || cfg.YDivisions < 1 {
		return nil, fmt.Errorf("divisions must be positive, got %dx%d", cfg.XDivisions, cfg.YDivisions)
	}
	if cfg.ViewWidth < 1 || cfg.ViewHeight < 1 {
		return nil, fmt.Errorf("view size must be positive, got %dx%d", cfg.ViewWidth, cfg.ViewHeight)
	}
	return &cfg, nil
}

// Limits returns the normalized zoom limits.
func (c *Config) Limits() viewport.Limits {
	return viewport.Limits{MinZoom: c.MinZoom, MaxZoom: c.MaxZoom, ZoomStep: c.ZoomStep}.Normalize()
}

func (c *Config) Divisions() viewport.Divisions {
	return viewport.Divisions{X: c.XDivisions, Y: c.YDivisions}
}

func (c *Config) Layout() projection.Layout {
	l := projection.DefaultLayout()
	if c.RulerThickness > 0 {
		l.TopBarHeight = c.RulerThickness
		l.LeftBarWidth = c.RulerThickness
	}
	return l
}

// ViewBounds is the default surface of a server-side viewer: the viewport
// sits right of the left ruler and below the top one.
func (c *Config) ViewBounds() geom.Rect {
	l := c.Layout()
	return geom.Rect{X: l.LeftBarWidth, Y: l.TopBarHeight, Width: float64(c.ViewWidth), Height: float64(c.ViewHeight)}
}

func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
