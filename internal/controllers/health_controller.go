package controllers

import (
	"fmt"
	"net/http"
	"time"

	"tracer/internal/services"
)

type HealthController struct {
	store     services.DataStoreInterface
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Series        int     `json:"series"`
	DataPoints    int     `json:"datapoints"`
	Revision      uint64  `json:"revision"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Series:        hc.store.SeriesCount(),
		DataPoints:    hc.store.DataPointCount(),
		Revision:      hc.store.Revision(),
	})
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(store services.DataStoreInterface) *HealthController {
	return &HealthController{
		store:     store,
		startTime: time.Now(),
	}
}
