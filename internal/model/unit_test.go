package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUnit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Unit
	}{
		{"kg", UnitKg},
		{"KG", UnitKg},
		{"kgs", UnitKg},
		{"kilograms", UnitKg},
		{" kilogram ", UnitKg},
		{"t", UnitTons},
		{"tons", UnitTons},
		{"tonnes", UnitTons},
		{"count", UnitCount},
		{"pieces", UnitCount},
		{"", UnitCount},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseUnit(tt.in), "input %q", tt.in)
	}
}
