package config

import (
	"sort"

	"github.com/san-kum/fieldsim/internal/field"
)

// Presets are named run configurations. "ambient" and "listening" carry
// the two historical substrate variants; the rest tune the pulse source.
var Presets = map[string]func() *Config{
	"ambient": func() *Config {
		return DefaultConfig()
	},
	"listening": func() *Config {
		cfg := DefaultConfig()
		cfg.Substrate = field.ListeningSubstrateConfig(cfg.Size)
		return cfg
	},
	"quiet": func() *Config {
		cfg := DefaultConfig()
		cfg.Pulse.Probability = 0.04
		cfg.Steps = 3600
		return cfg
	},
	"storm": func() *Config {
		cfg := DefaultConfig()
		cfg.Pulse.Probability = 0.35
		cfg.Pulse.Radius = 30
		cfg.Steps = 1200
		return cfg
	},
}

func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
