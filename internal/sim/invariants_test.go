package sim_test

import (
	"context"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/metrics"
	"github.com/san-kum/fieldsim/internal/sim"
)

// buildEcosystem wires a full simulator at a reduced size so a few
// hundred steps stay fast.
func buildEcosystem(seed int64) *sim.Simulator {
	cfg := config.GetPreset("ambient")
	cfg.Size = 96
	cfg.Pulse.Margin = 20
	cfg.Pulse.Radius = 12

	s, err := cfg.Build(rand.New(rand.NewSource(seed)))
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Ecosystem invariants", func() {
	var s *sim.Simulator
	var result *sim.Result

	BeforeEach(func() {
		s = buildEcosystem(42)
		for _, m := range metrics.Defaults() {
			s.AddMetric(m)
		}

		var err error
		result, err = s.Run(context.Background(), 400)
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps every layer inside its configured bounds", func() {
		subCfg := s.Substrate().Config()
		for _, v := range s.Substrate().Grid().Cells {
			Expect(v).To(And(
				BeNumerically(">=", subCfg.ClampLow),
				BeNumerically("<=", subCfg.ClampHigh),
			))
		}

		respCfg := s.Response().Config()
		for _, v := range s.Response().Grid().Cells {
			Expect(v).To(And(
				BeNumerically(">=", 0.0),
				BeNumerically("<=", respCfg.Ceiling),
			))
		}

		Expect(s.Accumulation().Grid().IsValid()).To(BeTrue())
	})

	It("emits a gap-free, strictly increasing manifestation sequence", func() {
		for i, m := range result.Manifestations {
			Expect(m.Seq).To(Equal(i))
			Expect(m.Strength).To(BeNumerically(">", 0.0))
		}
	})

	It("records one history entry per step", func() {
		Expect(result.Steps).To(Equal(400))
		Expect(s.History().Len()).To(Equal(400))
	})

	It("never lets the cumulative manifestation count decrease", func() {
		counts := s.History().ManifestCount
		for i := 1; i < len(counts); i++ {
			Expect(counts[i]).To(BeNumerically(">=", counts[i-1]))
		}
	})

	It("collects the default metrics", func() {
		Expect(result.Metrics).To(HaveKey("activity"))
		Expect(result.Metrics).To(HaveKey("emission_rate"))
		Expect(result.Metrics).To(HaveKey("peak_field"))
	})

	It("reproduces a run exactly from the same seed", func() {
		other := buildEcosystem(42)
		_, err := other.Run(context.Background(), 400)
		Expect(err).NotTo(HaveOccurred())

		Expect(other.History().SubstrateMean).To(Equal(s.History().SubstrateMean))
		Expect(other.History().ManifestCount).To(Equal(s.History().ManifestCount))
	})
})
