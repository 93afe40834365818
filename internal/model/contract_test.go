package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContract_RemainingDays(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name   string
		end    *time.Time
		want   int
		wantOK bool
	}{
		{"no end date", nil, 0, false},
		{"ten days ahead", ptr(now.Add(10 * day)), 10, true},
		{"partial day rounds up", ptr(now.Add(36 * time.Hour)), 2, true},
		{"expired", ptr(now.Add(-3 * day)), -3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Contract{ContractEndDate: tt.end}
			got, ok := c.RemainingDays(now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func ptr[T any](v T) *T { return &v }
