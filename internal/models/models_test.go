package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceMinorUnits(t *testing.T) {
	tests := []struct {
		price float64
		want  int64
	}{
		{49.99, 4999},
		{100, 10000},
		{9.99, 999},
		{0.5, 50},
		{0, 0},
	}

	for _, tt := range tests {
		course := Course{Price: tt.price}
		assert.Equal(t, tt.want, course.PriceMinorUnits(), "price %v", tt.price)
	}
}
