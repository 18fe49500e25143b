package ledger

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/refgate/refgate/internal/ledger/domain"
)

const sweepInterval = time.Hour

// Sweeper periodically matures pending commissions whose hold-back has
// passed. Sweep errors log and the next tick retries.
type Sweeper struct {
	svc domain.Service
	log *zap.Logger
}

func NewSweeper(svc domain.Service, log *zap.Logger) *Sweeper {
	return &Sweeper{
		svc: svc,
		log: log.Named("ledger.sweeper"),
	}
}

func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.svc.Release(ctx); err != nil {
				s.log.Error("release sweep failed", zap.Error(err))
			}
		}
	}
}

func startSweeper(lc fx.Lifecycle, sweeper *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sweeper.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
