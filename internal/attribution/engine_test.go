package attribution

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(zap.NewNop(), nil)
}

func touchpoints(n int, step time.Duration) []Touchpoint {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]Touchpoint, n)
	for i := range out {
		out[i] = Touchpoint{
			ClickID:     snowflake.ID(i + 1),
			LinkID:      snowflake.ID(100 + i),
			PublisherID: 7,
			OccurredAt:  base.Add(time.Duration(i) * step),
		}
	}
	return out
}

func TestAttributeFirstClick(t *testing.T) {
	e := newTestEngine(t)
	res := e.Attribute(context.Background(), ModelFirstClick, touchpoints(3, time.Hour))
	require.False(t, res.FellBack)
	require.Equal(t, 1.0, res.Weighted[0].Weight)
	require.Equal(t, RoleFirst, res.Weighted[0].Role)
	require.Equal(t, 0.0, res.Weighted[1].Weight)
	require.Equal(t, 0.0, res.Weighted[2].Weight)
}

func TestAttributeLastClick(t *testing.T) {
	e := newTestEngine(t)
	res := e.Attribute(context.Background(), ModelLastClick, touchpoints(3, time.Hour))
	require.Equal(t, 0.0, res.Weighted[0].Weight)
	require.Equal(t, 1.0, res.Weighted[2].Weight)
	require.Equal(t, RoleLast, res.Weighted[2].Role)
}

func TestAttributeMultiTouchEqualSplit(t *testing.T) {
	e := newTestEngine(t)
	res := e.Attribute(context.Background(), ModelMultiTouch, touchpoints(4, time.Hour))
	for _, wt := range res.Weighted {
		require.Equal(t, 0.25, wt.Weight)
		require.Equal(t, RoleMulti, wt.Role)
	}
}

func TestAttributeTimeDecayAnchorsOnLastTouchpoint(t *testing.T) {
	e := newTestEngine(t)
	tps := touchpoints(3, 24*time.Hour)
	res := e.Attribute(context.Background(), ModelTimeDecay, tps)

	// Last touchpoint has zero age and keeps full weight.
	require.Equal(t, 1.0, res.Weighted[2].Weight)
	// Older touchpoints decay monotonically.
	require.Less(t, res.Weighted[0].Weight, res.Weighted[1].Weight)
	require.Less(t, res.Weighted[1].Weight, res.Weighted[2].Weight)
	require.Greater(t, res.Weighted[0].Weight, 0.0)
}

func TestAttributePositionBased(t *testing.T) {
	e := newTestEngine(t)

	res := e.Attribute(context.Background(), ModelPositionBased, touchpoints(3, time.Hour))
	require.Equal(t, 0.4, res.Weighted[0].Weight)
	require.Equal(t, 0.2, res.Weighted[1].Weight)
	require.Equal(t, 0.4, res.Weighted[2].Weight)
	require.Equal(t, RoleMiddle, res.Weighted[1].Role)

	res = e.Attribute(context.Background(), ModelPositionBased, touchpoints(5, time.Hour))
	require.Equal(t, 0.4, res.Weighted[0].Weight)
	for _, wt := range res.Weighted[1:4] {
		require.InDelta(t, 0.0667, wt.Weight, 1e-9)
	}
	require.Equal(t, 0.4, res.Weighted[4].Weight)
}

func TestAttributePositionBasedSingleTouchpoint(t *testing.T) {
	e := newTestEngine(t)
	res := e.Attribute(context.Background(), ModelPositionBased, touchpoints(1, time.Hour))
	require.Len(t, res.Weighted, 1)
	require.Equal(t, 1.0, res.Weighted[0].Weight)
	require.Equal(t, RoleOnly, res.Weighted[0].Role)
}

func TestAttributePositionBasedTwoTouchpoints(t *testing.T) {
	e := newTestEngine(t)
	res := e.Attribute(context.Background(), ModelPositionBased, touchpoints(2, time.Hour))
	require.Equal(t, 0.5, res.Weighted[0].Weight)
	require.Equal(t, 0.5, res.Weighted[1].Weight)
}

func TestAttributeSortsOutOfOrderTouchpoints(t *testing.T) {
	e := newTestEngine(t)
	tps := touchpoints(3, time.Hour)
	tps[0], tps[2] = tps[2], tps[0]
	res := e.Attribute(context.Background(), ModelFirstClick, tps)
	require.Equal(t, snowflake.ID(1), res.Weighted[0].ClickID)
	require.Equal(t, 1.0, res.Weighted[0].Weight)
}

func TestAttributeUnknownModelFallsBackToLastClick(t *testing.T) {
	e := newTestEngine(t)
	res := e.Attribute(context.Background(), Model("linear-regression"), touchpoints(2, time.Hour))
	require.True(t, res.FellBack)
	require.Equal(t, ModelLastClick, res.Model)
	require.Equal(t, 1.0, res.Weighted[1].Weight)
}

func TestAttributeEmptySequence(t *testing.T) {
	e := newTestEngine(t)
	res := e.Attribute(context.Background(), ModelLastClick, nil)
	require.Empty(t, res.Weighted)
	require.False(t, res.FellBack)
}

func TestParseModel(t *testing.T) {
	require.Equal(t, ModelTimeDecay, ParseModel(" Time-Decay "))
	require.Equal(t, ModelPositionBased, ParseModel("position-based"))
	require.Equal(t, ModelLastClick, ParseModel("nonsense"))
	require.Equal(t, ModelLastClick, ParseModel(""))
}

func TestDistributeCommission(t *testing.T) {
	weighted := []WeightedTouchpoint{
		{Touchpoint: Touchpoint{ClickID: 1, PublisherID: 7}, Weight: 0.4, Role: RoleFirst},
		{Touchpoint: Touchpoint{ClickID: 2, PublisherID: 7}, Weight: 0.2, Role: RoleMiddle},
		{Touchpoint: Touchpoint{ClickID: 3, PublisherID: 7}, Weight: 0.4, Role: RoleLast},
	}
	shares := DistributeCommission(25.0, weighted)
	require.Len(t, shares, 3)
	require.Equal(t, 10.0, shares[0].Amount)
	require.Equal(t, 5.0, shares[1].Amount)
	require.Equal(t, 10.0, shares[2].Amount)
}

func TestDistributeCommissionSkipsZeroWeights(t *testing.T) {
	weighted := []WeightedTouchpoint{
		{Touchpoint: Touchpoint{ClickID: 1}, Weight: 0, Role: RoleIgnored},
		{Touchpoint: Touchpoint{ClickID: 2}, Weight: 1.0, Role: RoleLast},
	}
	shares := DistributeCommission(12.34, weighted)
	require.Len(t, shares, 1)
	require.Equal(t, snowflake.ID(2), shares[0].ClickID)
	require.Equal(t, 12.34, shares[0].Amount)
}
