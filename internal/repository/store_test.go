package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		in         Page
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"zero value", Page{}, 1, 20, 0},
		{"second page", Page{Page: 2, Limit: 10}, 2, 10, 10},
		{"limit capped", Page{Page: 3, Limit: 500}, 3, 100, 200},
		{"negative page", Page{Page: -4, Limit: 5}, 1, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOffset, tt.in.Offset())
		})
	}
}
