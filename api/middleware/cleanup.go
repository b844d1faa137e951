package middleware

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/gharseva/gharseva-backend/internal/automation"
	"github.com/gharseva/gharseva-backend/pkg/logger"
)

const cleanupTimeout = 30 * time.Second

// CleanupNotifications runs the retention sweep with a small independent
// probability on each wrapped request. The cadence is load-proportional
// rather than scheduled; over- or under-running has no correctness
// impact, only storage growth.
func CleanupNotifications(engine *automation.Engine, logg *logger.Logger, daysOld int, probability float64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if engine == nil || probability <= 0 || daysOld <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			if rand.Float64() >= probability {
				return
			}

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
				defer cancel()

				deleted, err := engine.CleanupOld(ctx, daysOld, nil)
				if logg == nil {
					return
				}
				if err != nil {
					logg.Error(ctx, "opportunistic notification cleanup failed", err)
					return
				}
				if deleted > 0 {
					logCtx := logg.WithField(ctx, "rows_deleted", deleted)
					logg.Info(logCtx, "opportunistic notification cleanup")
				}
			}()
		})
	}
}
