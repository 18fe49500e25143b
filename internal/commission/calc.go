package commission

import (
	"errors"
	"math"
)

var ErrInvalidInput = errors.New("invalid_commission_input")

// Breakdown is the base split of one order's commission.
type Breakdown struct {
	OrderAmount         float64 `json:"order_amount"`
	TotalCommission     float64 `json:"total_commission"`
	PublisherCommission float64 `json:"publisher_commission"`
	PlatformCommission  float64 `json:"platform_commission"`
	OfferRate           float64 `json:"offer_rate"`
	ShareRate           float64 `json:"share_rate"`
}

// VolumeBonusRule unlocks an extra bonus percentage once the order amount
// reaches the threshold. Rules are not required to be sorted.
type VolumeBonusRule struct {
	Threshold float64 `json:"threshold"`
	Bonus     float64 `json:"bonus"`
}

// Tier is the externally assigned publisher level; only the flat bonus
// amount participates in the math here.
type Tier struct {
	Level int     `json:"level"`
	Name  string  `json:"name"`
	Bonus float64 `json:"bonus"`
}

// BonusConfig carries the optional volume and tier bonuses for enhanced mode.
type BonusConfig struct {
	VolumeBonuses []VolumeBonusRule
	Tier          *Tier
}

// EnhancedBreakdown extends Breakdown with additive bonuses. Bonuses raise
// the publisher commission only; the platform share stays on the base split.
type EnhancedBreakdown struct {
	Breakdown
	BaseCommission float64 `json:"base_commission"`
	VolumeBonus    float64 `json:"volume_bonus"`
	TierBonus      float64 `json:"tier_bonus"`
}

// Calculate computes the base commission split.
//
// totalCommission = orderAmount × offerRate / 100
// publisherCommission = totalCommission × shareRate / 100
// platformCommission = totalCommission − publisherCommission
func Calculate(orderAmount, offerRate, shareRate float64) (Breakdown, error) {
	if orderAmount < 0 || offerRate < 0 || shareRate < 0 {
		return Breakdown{}, ErrInvalidInput
	}
	if shareRate > 100 {
		return Breakdown{}, ErrInvalidInput
	}

	total := orderAmount * offerRate / 100
	publisher := total * shareRate / 100
	platform := total - publisher

	return Breakdown{
		OrderAmount:         round2(orderAmount),
		TotalCommission:     round2(total),
		PublisherCommission: round2(publisher),
		PlatformCommission:  round2(platform),
		OfferRate:           offerRate,
		ShareRate:           shareRate,
	}, nil
}

// CalculateEnhanced computes the base split plus volume and tier bonuses.
func CalculateEnhanced(orderAmount, offerRate, shareRate float64, bonus BonusConfig) (EnhancedBreakdown, error) {
	base, err := Calculate(orderAmount, offerRate, shareRate)
	if err != nil {
		return EnhancedBreakdown{}, err
	}

	volume := volumeBonus(orderAmount, bonus.VolumeBonuses)
	tier := tierBonus(bonus.Tier)

	out := EnhancedBreakdown{
		Breakdown:      base,
		BaseCommission: base.PublisherCommission,
		VolumeBonus:    round2(volume),
		TierBonus:      round2(tier),
	}
	out.PublisherCommission = round2(base.PublisherCommission + volume + tier)
	return out, nil
}

// volumeBonus selects the highest bonus percentage among the rules whose
// threshold the order amount reaches, and applies it to the order amount.
func volumeBonus(orderAmount float64, rules []VolumeBonusRule) float64 {
	maxBonus := 0.0
	for _, rule := range rules {
		if orderAmount >= rule.Threshold && rule.Bonus > maxBonus {
			maxBonus = rule.Bonus
		}
	}
	return orderAmount * maxBonus / 100
}

func tierBonus(tier *Tier) float64 {
	if tier == nil {
		return 0
	}
	return tier.Bonus
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
