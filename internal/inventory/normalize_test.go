package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reclaimworks/assay-cli/internal/model"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  model.InventoryType
	}{
		{"Intel Core i7 laptops", model.TypeLaptop},
		{"desktop computer", model.TypeLaptop},
		{"NOTEBOOK", model.TypeLaptop},
		{"iPhones", model.TypeSmartphone},
		{"android handsets", model.TypeSmartphone},
		{"old phones", model.TypeSmartphone},
		{"motherboard", model.TypePCB},
		{"circuit scrap", model.TypePCB},
		{"PCB offcuts", model.TypePCB},
		{"lithium batteries", model.TypeBattery},
		{"18650 cells", model.TypeBattery},
		{"mixed cables", model.TypeCable},
		{"copper wire", model.TypeCable},
		{"power cords", model.TypeCable},
		{"assorted junk", model.TypeOther},
		{"", model.TypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.label))
		})
	}

	t.Run("laptop wins over battery", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, model.TypeLaptop, Normalize("laptop battery"))
	})
}
