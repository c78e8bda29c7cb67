package config

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fieldsim/internal/field"
	"github.com/san-kum/fieldsim/internal/sim"
)

const (
	DefaultSize           = 180
	DefaultSteps          = 1800
	DefaultReportInterval = 60
)

// Config bundles the per-layer parameters of one simulation run. The
// top-level Size is authoritative: it overrides each layer's size when
// the simulator is built, so all grids always share one shape.
type Config struct {
	Size           int   `yaml:"size"`
	Steps          int   `yaml:"steps"`
	ReportInterval int   `yaml:"report_interval"`
	Seed           int64 `yaml:"seed"`

	Substrate    field.SubstrateConfig    `yaml:"substrate"`
	Response     field.ResponseConfig     `yaml:"response"`
	Accumulation field.AccumulationConfig `yaml:"accumulation"`
	Pulse        field.PulseConfig        `yaml:"pulse"`
	Feedback     sim.FeedbackConfig       `yaml:"feedback"`
}

func DefaultConfig() *Config {
	return &Config{
		Size:           DefaultSize,
		Steps:          DefaultSteps,
		ReportInterval: DefaultReportInterval,
		Substrate:      field.AmbientSubstrateConfig(DefaultSize),
		Response:       field.DefaultResponseConfig(DefaultSize),
		Accumulation:   field.DefaultAccumulationConfig(DefaultSize),
		Pulse:          field.DefaultPulseConfig(DefaultSize),
		Feedback:       sim.DefaultFeedbackConfig(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

// Build constructs a simulator from the config. Layer sizes follow the
// top-level Size; construction fails fast on any invalid parameter.
func (c *Config) Build(rng *rand.Rand) (*sim.Simulator, error) {
	if c.Size <= 0 {
		return nil, fmt.Errorf("config: size %d must be positive", c.Size)
	}

	subCfg := c.Substrate
	subCfg.Size = c.Size
	sub, err := field.NewSubstrate(subCfg, rng)
	if err != nil {
		return nil, err
	}

	respCfg := c.Response
	respCfg.Size = c.Size
	resp, err := field.NewResponse(respCfg)
	if err != nil {
		return nil, err
	}

	accCfg := c.Accumulation
	accCfg.Size = c.Size
	acc, err := field.NewAccumulation(accCfg, rng)
	if err != nil {
		return nil, err
	}

	pulseCfg := c.Pulse
	pulseCfg.Size = c.Size
	pulses, err := field.NewPulseGenerator(pulseCfg, rng)
	if err != nil {
		return nil, err
	}

	s := sim.New(sub, resp, acc, pulses)
	s.SetFeedback(c.Feedback)
	return s, nil
}
