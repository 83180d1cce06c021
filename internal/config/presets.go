package config

import "slices"

func preset(sceneName string, duration float64, mod func(c *Config)) *Config {
	c := DefaultConfig()
	c.Scene = sceneName
	c.Duration = duration
	if mod != nil {
		mod(c)
	}
	return c
}

var Presets = map[string]map[string]*Config{
	"drop": {
		"default": preset("drop", 5, nil),
		"bouncy": preset("drop", 8, func(c *Config) {
			c.Params.Restitution = 0.8
		}),
		"floaty": preset("drop", 15, func(c *Config) {
			c.Gravity.Y = -2
		}),
	},
	"stack": {
		"small": preset("stack", 5, func(c *Config) { c.Params.Count = 3 }),
		"tall": preset("stack", 15, func(c *Config) {
			c.Params.Count = 10
			c.Iterations = 20
		}),
		"no-warm": preset("stack", 10, func(c *Config) {
			c.WarmStarting = false
		}),
	},
	"pendulum": {
		"free": preset("pendulum", 20, nil),
		"motor": preset("pendulum", 10, func(c *Config) {
			c.Params.MotorTorque = 500
			c.Params.MotorSpeed = 2
		}),
		"long": preset("pendulum", 30, func(c *Config) { c.Params.Spacing = 6 }),
	},
	"chain": {
		"short": preset("chain", 10, func(c *Config) { c.Params.Count = 5 }),
		"long": preset("chain", 15, func(c *Config) {
			c.Params.Count = 30
			c.Iterations = 20
		}),
	},
	"bridge": {
		"default": preset("bridge", 10, nil),
		"long": preset("bridge", 10, func(c *Config) {
			c.Params.Count = 30
			c.Iterations = 20
		}),
	},
	"pulley": {
		"balanced": preset("pulley", 5, nil),
		"geared":   preset("pulley", 5, func(c *Config) { c.Params.Ratio = 2 }),
	},
	"gear": {
		"double":  preset("gear", 5, nil),
		"reverse": preset("gear", 5, func(c *Config) { c.Params.Ratio = -1 }),
	},
	"slider": {
		"default": preset("slider", 10, nil),
		"fast": preset("slider", 10, func(c *Config) {
			c.Params.MotorSpeed = 6
			c.Params.MotorTorque = 200
		}),
	},
	"mouse": {
		"slow": preset("mouse", 10, func(c *Config) { c.Params.MotorSpeed = 0.5 }),
		"fast": preset("mouse", 10, func(c *Config) { c.Params.MotorSpeed = 3 }),
	},
	"fast": {
		"bullet":  preset("fast", 2, nil),
		"railgun": preset("fast", 2, func(c *Config) { c.Params.MotorSpeed = 400 }),
		"bouncy":  preset("fast", 2, func(c *Config) { c.Params.Restitution = 0.5 }),
	},
	"distance": {
		"gentle": preset("distance", 10, func(c *Config) { c.Params.MotorTorque = 5 }),
		"strong": preset("distance", 10, func(c *Config) { c.Params.MotorTorque = 100 }),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(sceneName, name string) *Config {
	scenePresets, ok := Presets[sceneName]
	if !ok {
		return nil
	}
	cfg, ok := scenePresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names of a scene in sorted order.
func ListPresets(sceneName string) []string {
	scenePresets, ok := Presets[sceneName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
