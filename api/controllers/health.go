package controllers

import (
	"net/http"

	"github.com/gharseva/gharseva-backend/api/responses"
	"github.com/gharseva/gharseva-backend/pkg/config"
	"github.com/gharseva/gharseva-backend/pkg/db"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/logger"
	"github.com/gharseva/gharseva-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GharSeva-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every stateful dependency; a single failure makes
// the whole endpoint report unavailable.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GharSeva-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["postgres"] = "down"
				healthy = false
			} else {
				checks["postgres"] = "up"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = "down"
				healthy = false
			} else {
				checks["redis"] = "up"
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
