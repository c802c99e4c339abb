// Package inventory turns free-text inventory submissions into normalized
// batch inventory lines.
package inventory

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/reclaimworks/assay-cli/internal/model"
)

// ParsedItem is a best-effort extraction from one segment of free text.
// Unit stays raw here; the normalizer coerces it into the closed unit set.
type ParsedItem struct {
	RawLabel   string           `json:"rawLabel"`
	Quantity   float64          `json:"quantity"`
	Unit       string           `json:"unit"`
	Confidence model.Confidence `json:"confidence"`
}

var (
	segmentSplit = regexp.MustCompile(`[,\n;]+`)

	// "intel core i7 laptops - 10" or "mixed cables - 2.5 kg"
	dashQty = regexp.MustCompile(`^(.+?)\s*-\s*(\d+(?:\.\d+)?)\s*(.*)$`)

	// "5 iPhones"
	leadingQty = regexp.MustCompile(`(\d+(?:\.\d+)?)\s+(.+)`)
)

// ParseText splits text on commas, semicolons, and newlines and extracts
// an item from each segment. Segments matching neither pattern are
// silently dropped.
func ParseText(text string) []ParsedItem {
	var items []ParsedItem

	for _, seg := range segmentSplit.Split(text, -1) {
		line := strings.TrimSpace(seg)
		if line == "" {
			continue
		}

		if m := dashQty.FindStringSubmatch(line); m != nil {
			qty, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			unit := strings.TrimSpace(m[3])
			if unit == "" {
				unit = string(model.UnitCount)
			}
			items = append(items, ParsedItem{
				RawLabel:   strings.TrimSpace(m[1]),
				Quantity:   qty,
				Unit:       unit,
				Confidence: model.ConfidenceHigh,
			})
			continue
		}

		if m := leadingQty.FindStringSubmatch(line); m != nil {
			qty, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			items = append(items, ParsedItem{
				RawLabel:   strings.TrimSpace(m[2]),
				Quantity:   qty,
				Unit:       string(model.UnitCount),
				Confidence: model.ConfidenceHigh,
			})
		}
	}

	return items
}
