package inventory

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/reclaimworks/assay-cli/internal/model"
)

// Category keyword sets, checked in this order. First substring hit wins,
// so "laptop battery" classifies as laptop.
var categories = []struct {
	Type     model.InventoryType
	Keywords []string
}{
	{model.TypeLaptop, []string{"laptop", "computer", "notebook"}},
	{model.TypeSmartphone, []string{"phone", "iphone", "android"}},
	{model.TypePCB, []string{"pcb", "board", "circuit"}},
	{model.TypeBattery, []string{"battery", "cell"}},
	{model.TypeCable, []string{"cable", "wire", "cord"}},
}

var fold = cases.Fold()

// Normalize maps a raw label into the closed taxonomy. Matching is
// case-insensitive and total; anything unmatched is TypeOther.
func Normalize(label string) model.InventoryType {
	lower := fold.String(label)
	for _, cat := range categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				return cat.Type
			}
		}
	}
	return model.TypeOther
}
