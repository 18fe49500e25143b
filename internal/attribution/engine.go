package attribution

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/refgate/refgate/internal/observability/metrics"
)

// Touchpoint is one recorded click feeding an attribution run.
type Touchpoint struct {
	ClickID     snowflake.ID
	LinkID      snowflake.ID
	PublisherID snowflake.ID
	OccurredAt  time.Time
}

// WeightedTouchpoint is a touchpoint with its assigned credit share.
// Weights carry four decimal places and, outside of time-decay, sum
// to 1.0 across the sequence.
type WeightedTouchpoint struct {
	Touchpoint
	Weight float64
	Role   Role
}

// Result holds one attribution run. FellBack is set when the requested
// model could not be applied and last-click was used instead.
type Result struct {
	Model    Model
	Weighted []WeightedTouchpoint
	FellBack bool
}

// Engine applies attribution models to touchpoint sequences.
type Engine struct {
	decayWindow time.Duration
	log         *zap.Logger
	metrics     *metrics.Metrics
}

// DefaultDecayWindow is the time-decay half-life scale: a touchpoint a
// full week before the last click keeps 1/e of its weight.
const DefaultDecayWindow = 7 * 24 * time.Hour

func NewEngine(log *zap.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		decayWindow: DefaultDecayWindow,
		log:         log.Named("attribution.engine"),
		metrics:     m,
	}
}

// Attribute weights the touchpoints under the requested model. The
// sequence is sorted oldest-first before weighting. A panic inside a
// model function is recovered and the run falls back to last-click:
// attribution must never sink a conversion.
func (e *Engine) Attribute(ctx context.Context, model Model, tps []Touchpoint) Result {
	if len(tps) == 0 {
		return Result{Model: model}
	}
	sorted := make([]Touchpoint, len(tps))
	copy(sorted, tps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	weighted, fellBack := e.apply(ctx, model, sorted)
	applied := model
	if fellBack {
		applied = ModelLastClick
	}
	e.metrics.RecordAttribution(ctx, string(applied))
	if fellBack {
		e.metrics.RecordAttributionFallback(ctx, string(model))
	}
	return Result{Model: applied, Weighted: weighted, FellBack: fellBack}
}

func (e *Engine) apply(ctx context.Context, model Model, tps []Touchpoint) (weighted []WeightedTouchpoint, fellBack bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("attribution model panicked, falling back to last-click",
				zap.String("model", string(model)),
				zap.Int("touchpoints", len(tps)),
				zap.Any("panic", r))
			weighted = lastClick(tps)
			fellBack = true
		}
	}()

	switch model {
	case ModelFirstClick:
		return firstClick(tps), false
	case ModelLastClick:
		return lastClick(tps), false
	case ModelMultiTouch:
		return multiTouch(tps), false
	case ModelTimeDecay:
		return e.timeDecay(tps), false
	case ModelPositionBased:
		return positionBased(tps), false
	default:
		e.log.Warn("unknown attribution model, using last-click", zap.String("model", string(model)))
		return lastClick(tps), true
	}
}

func firstClick(tps []Touchpoint) []WeightedTouchpoint {
	out := zeroWeights(tps, RoleIgnored)
	out[0].Weight = 1.0
	out[0].Role = RoleFirst
	return out
}

func lastClick(tps []Touchpoint) []WeightedTouchpoint {
	out := zeroWeights(tps, RoleIgnored)
	last := len(out) - 1
	out[last].Weight = 1.0
	out[last].Role = RoleLast
	return out
}

func multiTouch(tps []Touchpoint) []WeightedTouchpoint {
	out := zeroWeights(tps, RoleMulti)
	w := round4(1.0 / float64(len(tps)))
	for i := range out {
		out[i].Weight = w
	}
	return out
}

// timeDecay weights each touchpoint by exp(-age/window), where age is
// measured back from the last touchpoint. Weights are not normalized;
// the last touchpoint always carries 1.0.
func (e *Engine) timeDecay(tps []Touchpoint) []WeightedTouchpoint {
	out := zeroWeights(tps, RoleTimeDecay)
	anchor := tps[len(tps)-1].OccurredAt
	for i := range out {
		age := anchor.Sub(out[i].OccurredAt)
		out[i].Weight = round4(math.Exp(-age.Seconds() / e.decayWindow.Seconds()))
	}
	return out
}

// positionBased gives 40% to the first and last touchpoints and splits
// the remaining 20% across the interior. A single touchpoint takes the
// full credit; with two, the middle share folds into the endpoints.
func positionBased(tps []Touchpoint) []WeightedTouchpoint {
	n := len(tps)
	switch n {
	case 1:
		out := zeroWeights(tps, RoleOnly)
		out[0].Weight = 1.0
		return out
	case 2:
		out := zeroWeights(tps, RoleMiddle)
		out[0].Weight, out[0].Role = 0.5, RoleFirst
		out[1].Weight, out[1].Role = 0.5, RoleLast
		return out
	default:
		out := zeroWeights(tps, RoleMiddle)
		mid := round4(0.2 / float64(n-2))
		for i := range out {
			out[i].Weight = mid
		}
		out[0].Weight, out[0].Role = 0.4, RoleFirst
		out[n-1].Weight, out[n-1].Role = 0.4, RoleLast
		return out
	}
}

func zeroWeights(tps []Touchpoint, role Role) []WeightedTouchpoint {
	out := make([]WeightedTouchpoint, len(tps))
	for i, tp := range tps {
		out[i] = WeightedTouchpoint{Touchpoint: tp, Role: role}
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
