package commission

import "github.com/bwmarrin/snowflake"

// BatchItem is one conversion entering a portfolio calculation.
type BatchItem struct {
	PublisherID snowflake.ID
	OrderAmount float64
	OfferRate   float64
}

// BatchSummary aggregates enhanced breakdowns across conversions.
type BatchSummary struct {
	TotalConversions         int     `json:"total_conversions"`
	TotalOrderAmount         float64 `json:"total_order_amount"`
	TotalCommission          float64 `json:"total_commission"`
	TotalPublisherCommission float64 `json:"total_publisher_commission"`
	TotalPlatformCommission  float64 `json:"total_platform_commission"`
	TotalVolumeBonus         float64 `json:"total_volume_bonus"`
	TotalTierBonus           float64 `json:"total_tier_bonus"`
	AverageCommission        float64 `json:"average_commission"`
}

// DefaultShareRate applies when a publisher has no configured share rate.
const DefaultShareRate = 80.0

// CalculateBatch aggregates the enhanced breakdowns of a set of conversions.
// shareRates maps publisher IDs to their share rate; missing publishers fall
// back to defaultRate (or DefaultShareRate when defaultRate is zero).
func CalculateBatch(items []BatchItem, shareRates map[snowflake.ID]float64, defaultRate float64, bonus BonusConfig) (BatchSummary, error) {
	if defaultRate == 0 {
		defaultRate = DefaultShareRate
	}

	var summary BatchSummary
	for _, item := range items {
		shareRate, ok := shareRates[item.PublisherID]
		if !ok {
			shareRate = defaultRate
		}

		result, err := CalculateEnhanced(item.OrderAmount, item.OfferRate, shareRate, bonus)
		if err != nil {
			return BatchSummary{}, err
		}

		summary.TotalOrderAmount += result.OrderAmount
		summary.TotalCommission += result.TotalCommission
		summary.TotalPublisherCommission += result.PublisherCommission
		summary.TotalPlatformCommission += result.PlatformCommission
		summary.TotalVolumeBonus += result.VolumeBonus
		summary.TotalTierBonus += result.TierBonus
	}

	summary.TotalConversions = len(items)
	summary.TotalOrderAmount = round2(summary.TotalOrderAmount)
	summary.TotalCommission = round2(summary.TotalCommission)
	summary.TotalPublisherCommission = round2(summary.TotalPublisherCommission)
	summary.TotalPlatformCommission = round2(summary.TotalPlatformCommission)
	summary.TotalVolumeBonus = round2(summary.TotalVolumeBonus)
	summary.TotalTierBonus = round2(summary.TotalTierBonus)
	if len(items) > 0 {
		summary.AverageCommission = round2(summary.TotalPublisherCommission / float64(len(items)))
	}

	return summary, nil
}
