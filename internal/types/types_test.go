package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberOrString(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		text    string
		value   float64
		isFloat bool
	}{
		{"Number", `{"cost": 50000}`, "50000", 50000, true},
		{"NumericString", `{"cost": "12500.5"}`, "12500.5", 12500.5, true},
		{"Free", `{"cost": "Free"}`, "Free", 0, false},
		{"NaN", `{"cost": "NaN"}`, "NaN", 0, false},
		{"Infinity", `{"cost": "Infinity"}`, "Infinity", 0, false},
		{"NegativeInf", `{"cost": "-inf"}`, "-inf", 0, false},
		{"Overflow", `{"cost": 1e400}`, "1e400", 0, false},
		{"Null", `{"cost": null}`, "", 0, true},
		{"Missing", `{}`, "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var place ItineraryPlace
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &place))
			assert.Equal(t, tt.text, string(place.Cost))

			f, err := place.Cost.Float()
			if !tt.isFloat {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.value, f, 1e-9)
		})
	}

	t.Run("RejectsObjects", func(t *testing.T) {
		var place ItineraryPlace
		assert.Error(t, json.Unmarshal([]byte(`{"cost": {"amount": 1}}`), &place))
	})
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total     int64
		pageSize  int
		totalPage int
	}{
		{0, 4, 0},
		{4, 4, 1},
		{9, 4, 3},
		{9, 0, 0},
	}
	for _, tt := range tests {
		p := NewPagination(tt.total, 2, tt.pageSize)
		assert.Equal(t, tt.totalPage, p.TotalPage, "total=%d size=%d", tt.total, tt.pageSize)
		assert.Equal(t, 2, p.CurrentPage)
		assert.Equal(t, tt.total, p.TotalItems)
	}
}
