// Package http provides the thin, local-only health/metrics surface
// this module exposes directly (SPEC_FULL.md's Non-goals carve out a
// full HTTP/REST routing layer, but keep this glue), grounded in the
// teacher's interfaces/http/health.go SystemInfo/CheckResult idiom.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/jthadison/wyckvol/internal/supervisor"
)

// HealthHandler serves GET /health, reporting process-level health and
// the supervisor's run registries.
type HealthHandler struct {
	supervisor *supervisor.Supervisor
	startTime  time.Time
	version    string
}

// NewHealthHandler builds a HealthHandler for sup.
func NewHealthHandler(sup *supervisor.Supervisor, version string) *HealthHandler {
	return &HealthHandler{supervisor: sup, startTime: time.Now(), version: version}
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status    string                 `json:"status"` // healthy, degraded, unhealthy
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version"`
	System    SystemInfo             `json:"system"`
	Checks    map[string]CheckResult `json:"checks"`
}

// SystemInfo reports Go runtime statistics.
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemAllocBytes uint64 `json:"mem_alloc_bytes"`
	NumGC         uint32 `json:"num_gc"`
}

// CheckResult is one named health check's outcome.
type CheckResult struct {
	Status  string `json:"status"` // pass, warn, fail
	Message string `json:"message"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := HealthResponse{
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).String(),
		Version:   h.version,
		System: SystemInfo{
			GoVersion:     runtime.Version(),
			NumGoroutines: runtime.NumGoroutine(),
			MemAllocBytes: mem.Alloc,
			NumGC:         mem.NumGC,
		},
		Checks: make(map[string]CheckResult),
	}

	if resp.System.NumGoroutines > 1000 {
		resp.Checks["goroutines"] = CheckResult{Status: "warn", Message: fmt.Sprintf("high goroutine count: %d", resp.System.NumGoroutines)}
	} else {
		resp.Checks["goroutines"] = CheckResult{Status: "pass", Message: "normal"}
	}

	if h.supervisor != nil {
		for kind, running := range h.supervisor.RunningCounts() {
			resp.Checks[fmt.Sprintf("runs_%s", kind)] = CheckResult{Status: "pass", Message: fmt.Sprintf("%d running", running)}
		}
	}

	resp.Status = "healthy"
	for _, c := range resp.Checks {
		if c.Status == "fail" {
			resp.Status = "unhealthy"
		} else if c.Status == "warn" && resp.Status == "healthy" {
			resp.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	switch resp.Status {
	case "unhealthy":
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
