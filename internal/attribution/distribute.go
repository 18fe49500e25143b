package attribution

import (
	"math"

	"github.com/bwmarrin/snowflake"
)

// Share is the slice of a commission assigned to one touchpoint.
type Share struct {
	ClickID     snowflake.ID
	LinkID      snowflake.ID
	PublisherID snowflake.ID
	Weight      float64
	Role        Role
	Amount      float64
}

// DistributeCommission splits a commission amount across weighted
// touchpoints. Each share is rounded to cents independently; callers
// treat the weighted sum, not the share sum, as authoritative.
func DistributeCommission(amount float64, weighted []WeightedTouchpoint) []Share {
	out := make([]Share, 0, len(weighted))
	for _, wt := range weighted {
		if wt.Weight == 0 {
			continue
		}
		out = append(out, Share{
			ClickID:     wt.ClickID,
			LinkID:      wt.LinkID,
			PublisherID: wt.PublisherID,
			Weight:      wt.Weight,
			Role:        wt.Role,
			Amount:      math.Round(amount*wt.Weight*100) / 100,
		})
	}
	return out
}
