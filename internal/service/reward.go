package service

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	// penaltyPerDay shaves 10% off the payout for each day a task is
	// completed past its scheduled day.
	penaltyPerDay = decimal.NewFromFloat(0.1)

	// penaltyFloor caps the decay: a late task always pays at least
	// half its reward, never zero.
	penaltyFloor = decimal.NewFromFloat(0.5)

	// referralRate is the referrer's cut of every credit their invitee
	// earns, paid on top rather than deducted.
	referralRate = decimal.NewFromFloat(0.1)
)

// Payout is the single reward formula. Both the immediate completion
// path and the admin approval path go through here, so a task pays the
// same no matter how it was finished.
func Payout(reward decimal.Decimal, taskDay int, campaignStart, completedAt time.Time) decimal.Decimal {
	daysLate := dayNumber(campaignStart, completedAt) - taskDay
	if daysLate <= 0 {
		return reward
	}

	factor := decimal.NewFromInt(1).Sub(penaltyPerDay.Mul(decimal.NewFromInt(int64(daysLate))))
	if factor.LessThan(penaltyFloor) {
		factor = penaltyFloor
	}

	return reward.Mul(factor)
}

// ReferralCut returns the bonus the referrer earns on a credit.
func ReferralCut(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(referralRate)
}

// dayNumber is the 1-based day an instant falls on, counted from the
// campaign start. Instants before the start land on day 1.
func dayNumber(start, at time.Time) int {
	day := int(at.Sub(start).Hours()/24) + 1
	if day < 1 {
		return 1
	}
	return day
}
