// Package scenario runs scripted sequences of simulation runs described
// in YAML, for reproducible batch studies across presets and seeds.
package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/metrics"
	"github.com/san-kum/fieldsim/internal/sim"
)

// Scenario is an ordered list of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step describes one run: a preset plus overrides. A zero Steps count
// falls back to the preset's own step count.
type Step struct {
	Preset string `yaml:"preset"`
	Steps  int    `yaml:"steps"`
	Seed   int64  `yaml:"seed"`
	Size   int    `yaml:"size"`
}

// RunResult pairs a step with its outcome.
type RunResult struct {
	Step   Step
	Result *sim.Result
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}

	return &sc, nil
}

// Run executes every step in order. Each step gets a fresh simulator
// and its own seeded random stream, so steps never contaminate each
// other.
func Run(ctx context.Context, sc *Scenario, progress func(i int, step Step)) ([]RunResult, error) {
	results := make([]RunResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		cfg := config.GetPreset(step.Preset)
		if cfg == nil {
			return results, fmt.Errorf("step %d: unknown preset %q (available: %v)",
				i+1, step.Preset, config.ListPresets())
		}

		if step.Size > 0 {
			cfg.Size = step.Size
		}
		steps := step.Steps
		if steps == 0 {
			steps = cfg.Steps
		}

		if progress != nil {
			progress(i, step)
		}

		s, err := cfg.Build(rand.New(rand.NewSource(step.Seed)))
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		for _, m := range metrics.Defaults() {
			s.AddMetric(m)
		}

		result, err := s.Run(ctx, steps)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		results = append(results, RunResult{Step: step, Result: result})
	}

	return results, nil
}
