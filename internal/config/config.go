package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/boxsim/internal/collision"
	"github.com/san-kum/boxsim/internal/dynamics"
	"github.com/san-kum/boxsim/internal/scene"
	"github.com/san-kum/boxsim/internal/sim"
	"github.com/san-kum/boxsim/internal/vec"
)

const (
	DefaultScene       = "drop"
	DefaultDt          = 1.0 / 60.0
	DefaultDuration    = 10.0
	DefaultIterations  = 10
	DefaultRecordEvery = 1
	DefaultGravity     = -10.0
	DefaultHalfExtent  = 100.0
)

var ErrInvalidConfig = errors.New("config: invalid config")

type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v Vec) vec() vec.Vec2 { return vec.V(v.X, v.Y) }

type BoundsConfig struct {
	Min Vec `yaml:"min"`
	Max Vec `yaml:"max"`
}

// SceneParams are passed to the scene builder. Zero keeps the scene's own
// default.
type SceneParams struct {
	Count       int     `yaml:"count,omitempty"`
	Spacing     float64 `yaml:"spacing,omitempty"`
	Radius      float64 `yaml:"radius,omitempty"`
	Restitution float64 `yaml:"restitution,omitempty"`
	Friction    float64 `yaml:"friction,omitempty"`
	MotorSpeed  float64 `yaml:"motor_speed,omitempty"`
	MotorTorque float64 `yaml:"motor_torque,omitempty"`
	Ratio       float64 `yaml:"ratio,omitempty"`
}

type Config struct {
	Scene       string  `yaml:"scene"`
	Dt          float64 `yaml:"dt"`
	Duration    float64 `yaml:"duration"`
	Iterations  int     `yaml:"iterations"`
	RecordEvery int     `yaml:"record_every"`

	Gravity            Vec          `yaml:"gravity"`
	Bounds             BoundsConfig `yaml:"bounds"`
	AllowSleep         bool         `yaml:"allow_sleep"`
	WarmStarting       bool         `yaml:"warm_starting"`
	PositionCorrection bool         `yaml:"position_correction"`

	Params SceneParams `yaml:"params"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene:       DefaultScene,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Iterations:  DefaultIterations,
		RecordEvery: DefaultRecordEvery,
		Gravity:     Vec{Y: DefaultGravity},
		Bounds: BoundsConfig{
			Min: Vec{X: -DefaultHalfExtent, Y: -DefaultHalfExtent},
			Max: Vec{X: DefaultHalfExtent, Y: DefaultHalfExtent},
		},
		AllowSleep:         true,
		WarmStarting:       true,
		PositionCorrection: true,
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) Validate() error {
	switch {
	case c.Scene == "":
		return fmt.Errorf("%w: scene is empty", ErrInvalidConfig)
	case !(c.Dt > 0):
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	case !(c.Duration > 0):
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, c.Duration)
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	case c.RecordEvery < 0:
		return fmt.Errorf("%w: record_every must not be negative, got %d", ErrInvalidConfig, c.RecordEvery)
	case !finite(c.Gravity.X) || !finite(c.Gravity.Y):
		return fmt.Errorf("%w: gravity is not finite", ErrInvalidConfig)
	case !(c.Bounds.Min.X < c.Bounds.Max.X) || !(c.Bounds.Min.Y < c.Bounds.Max.Y):
		return fmt.Errorf("%w: bounds min must be below max", ErrInvalidConfig)
	case c.Params.Count < 0 || c.Params.Radius < 0 || c.Params.Friction < 0 || c.Params.Restitution < 0:
		return fmt.Errorf("%w: negative scene parameter", ErrInvalidConfig)
	}
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func (c *Config) ToWorldDef() dynamics.WorldDef {
	return dynamics.WorldDef{
		Bounds:             collision.AABB{Min: c.Bounds.Min.vec(), Max: c.Bounds.Max.vec()},
		Gravity:            c.Gravity.vec(),
		AllowSleep:         c.AllowSleep,
		WarmStarting:       c.WarmStarting,
		PositionCorrection: c.PositionCorrection,
	}
}

func (c *Config) ToRunConfig() sim.RunConfig {
	return sim.RunConfig{
		Dt:          c.Dt,
		Duration:    c.Duration,
		Iterations:  c.Iterations,
		RecordEvery: c.RecordEvery,
	}
}

// ToParams returns the scene builder input; opts are handed to the world.
func (c *Config) ToParams(opts ...dynamics.Option) scene.Params {
	return scene.Params{
		World:       c.ToWorldDef(),
		Options:     opts,
		Count:       c.Params.Count,
		Spacing:     c.Params.Spacing,
		Radius:      c.Params.Radius,
		Restitution: c.Params.Restitution,
		Friction:    c.Params.Friction,
		MotorSpeed:  c.Params.MotorSpeed,
		MotorTorque: c.Params.MotorTorque,
		Ratio:       c.Params.Ratio,
	}
}
