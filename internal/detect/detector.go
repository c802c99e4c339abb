// Package detect defines the image detection boundary of the pipeline.
package detect

import (
	"context"

	"github.com/reclaimworks/assay-cli/internal/model"
)

// Detector runs object detection over a single image.
type Detector interface {
	Detect(ctx context.Context, image []byte) (*model.DetectionOutput, error)
	Version() string
}
