package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPayout(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		reward      string
		taskDay     int
		completedAt time.Time
		expected    string
	}{
		{
			name:        "On the scheduled day pays full reward",
			reward:      "0.01",
			taskDay:     2,
			completedAt: start.AddDate(0, 0, 1).Add(10 * time.Hour),
			expected:    "0.01",
		},
		{
			name:        "Completed early pays full reward",
			reward:      "0.01",
			taskDay:     5,
			completedAt: start,
			expected:    "0.01",
		},
		{
			name:        "One day late loses ten percent",
			reward:      "1",
			taskDay:     1,
			completedAt: start.AddDate(0, 0, 1).Add(time.Hour),
			expected:    "0.9",
		},
		{
			name:        "Three days late pays seventy percent",
			reward:      "0.01",
			taskDay:     2,
			completedAt: start.AddDate(0, 0, 4).Add(time.Hour),
			expected:    "0.007",
		},
		{
			name:        "Five days late hits the floor",
			reward:      "1",
			taskDay:     1,
			completedAt: start.AddDate(0, 0, 5).Add(time.Hour),
			expected:    "0.5",
		},
		{
			name:        "Very late never pays below half",
			reward:      "1",
			taskDay:     1,
			completedAt: start.AddDate(0, 0, 30),
			expected:    "0.5",
		},
		{
			name:        "Completion before campaign start reads as day one",
			reward:      "1",
			taskDay:     1,
			completedAt: start.AddDate(0, 0, -3),
			expected:    "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reward := decimal.RequireFromString(tt.reward)
			expected := decimal.RequireFromString(tt.expected)

			got := Payout(reward, tt.taskDay, start, tt.completedAt)

			assert.True(t, got.Equal(expected),
				"expected %s, got %s", expected, got)
		})
	}
}

func TestPayout_Bounds(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	reward := decimal.RequireFromString("0.42")
	floor := reward.Mul(decimal.RequireFromString("0.5"))

	for late := 0; late < 20; late++ {
		completedAt := start.AddDate(0, 0, late).Add(time.Minute)
		got := Payout(reward, 1, start, completedAt)

		assert.True(t, got.LessThanOrEqual(reward),
			"payout %s exceeds reward at %d days late", got, late)
		assert.True(t, got.GreaterThanOrEqual(floor),
			"payout %s below floor at %d days late", got, late)
	}
}

func TestReferralCut(t *testing.T) {
	cut := ReferralCut(decimal.RequireFromString("0.007"))
	assert.True(t, cut.Equal(decimal.RequireFromString("0.0007")),
		"expected 0.0007, got %s", cut)

	assert.True(t, ReferralCut(decimal.Zero).IsZero())
}
