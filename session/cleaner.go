package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const cleanerBatch = 500

// Expirer deletes sessions that expired before now.
type Expirer interface {
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

// StartCleaner removes expired sessions every interval until ctx is done.
func StartCleaner(ctx context.Context, st Expirer, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := SweepExpired(ctx, st, time.Now(), log)
				if n > 0 {
					log.Info("expired sessions removed", zap.Int64("count", n))
				}
			}
		}
	}()
}

// SweepExpired deletes expired sessions in batches and returns the total removed.
func SweepExpired(ctx context.Context, st Expirer, now time.Time, log *zap.Logger) int64 {
	var total int64
	for ctx.Err() == nil {
		n, err := st.DeleteExpired(ctx, now, cleanerBatch)
		if err != nil {
			log.Warn("session cleaner failed", zap.Error(err))
			return total
		}
		total += n
		if n < cleanerBatch {
			return total
		}
	}
	return total
}
