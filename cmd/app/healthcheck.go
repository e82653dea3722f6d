package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// healthCheckHandler reports the build, whether the post store answers and how
// the auto-publish reconciler has fared since start. An unreachable store turns
// the status into "degraded" with a 503.
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status, code, reachable := "available", http.StatusOK, true
	if err := app.postService.Ping(ctx); err != nil {
		app.logger.Warn("post store unreachable", slog.String("error", err.Error()))
		status, code, reachable = "degraded", http.StatusServiceUnavailable, false
	}

	env := envelope{
		"status": status,
		"system_info": map[string]string{
			"environment": app.config.Environment,
			"version":     app.config.Version,
		},
		"post_store": map[string]bool{"reachable": reachable},
		"reconciler": app.postService.ReconcileStats(),
	}

	err := app.writeJSON(w, code, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
