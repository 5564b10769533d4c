package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/arjnair/dineflow-backend/api/responses"
	"github.com/arjnair/dineflow-backend/pkg/config"
	"github.com/arjnair/dineflow-backend/pkg/logger"
)

const envHeader = "X-DineFlow-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness of each wired dependency. Nil dependencies
// are skipped so binaries without a given client can reuse the handler.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, redis, pubsub pinger) http.HandlerFunc {
	checks := []struct {
		name string
		dep  pinger
	}{
		{"db", db},
		{"redis", redis},
		{"pubsub", pubsub},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := map[string]string{"status": "ready"}
		healthy := true
		for _, check := range checks {
			if check.dep == nil {
				continue
			}
			if err := check.dep.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(ctx, "readiness check failed: "+check.name, err)
				}
				status[check.name] = "unreachable"
				healthy = false
				continue
			}
			status[check.name] = "ok"
		}

		if !healthy {
			status["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
