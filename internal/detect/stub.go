package detect

import (
	"context"
	"math/rand/v2"

	"github.com/reclaimworks/assay-cli/internal/model"
)

const stubVersion = "stub-v1"

// Labels a stub detection can emit, in the order they are drawn.
var stubVocabulary = []string{
	"cpu",
	"ram",
	"pcb",
	"battery",
	"cable",
	"display",
	"power_supply",
}

// StubDetector synthesizes plausible detections without a real vision
// model, for local development and tests.
type StubDetector struct {
	rng *rand.Rand
}

// NewStub returns a StubDetector with a non-deterministic source.
func NewStub() *StubDetector {
	return &StubDetector{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewStubSeeded returns a StubDetector with reproducible output.
func NewStubSeeded(seed uint64) *StubDetector {
	return &StubDetector{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (d *StubDetector) Version() string { return stubVersion }

// Detect ignores the image bytes and fabricates 2-4 label summaries with
// counts 1-5 and confidences in [0.65, 0.95), plus matching raw boxes.
func (d *StubDetector) Detect(_ context.Context, _ []byte) (*model.DetectionOutput, error) {
	n := 2 + d.rng.IntN(3)
	labels := stubVocabulary[:n]

	out := &model.DetectionOutput{
		ModelVersion: stubVersion,
	}
	for _, label := range labels {
		out.SummaryLabels = append(out.SummaryLabels, model.DetectionLabel{
			Label:          label,
			Count:          1 + d.rng.IntN(5),
			ConfidenceMean: 0.65 + d.rng.Float64()*0.3,
		})

		boxes := 1 + d.rng.IntN(3)
		for i := 0; i < boxes; i++ {
			out.RawBoxes = append(out.RawBoxes, model.BoundingBox{
				X:          d.rng.Float64() * 640,
				Y:          d.rng.Float64() * 480,
				Width:      50 + d.rng.Float64()*100,
				Height:     50 + d.rng.Float64()*100,
				Confidence: 0.65 + d.rng.Float64()*0.3,
				Label:      label,
			})
		}
	}

	return out, nil
}
