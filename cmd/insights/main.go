package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/robfig/cron/v3"

	"github.com/deusflow/insights/internal/app"
	"github.com/deusflow/insights/internal/config"
	"github.com/deusflow/insights/internal/logger"
	"github.com/deusflow/insights/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}
	logger.Init(cfg.Debug)

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	ctx := context.Background()

	// Default is a single batch pass (the scheduler normally lives in CI).
	// SCHEDULE switches to an in-process cron loop.
	if cfg.Schedule == "" {
		if err := app.Run(ctx, cfg); err != nil {
			log.Fatalf("Run failed: %v", err)
		}
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, func() {
		if err := app.Run(ctx, cfg); err != nil {
			metrics.Global.SetError(err.Error())
			log.Printf("Scheduled run failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid SCHEDULE %q: %v", cfg.Schedule, err)
	}
	log.Printf("Scheduling runs with %q", cfg.Schedule)
	c.Run()
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	log.Printf("Starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
