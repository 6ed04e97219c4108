package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"demandcli/internal/infrastructure"
	ws "demandcli/internal/websocket"
)

// HealthStatus is the health endpoint response
type HealthStatus struct {
	Status    string             `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
	Version   string             `json:"version"`
	Uptime    string             `json:"uptime"`
	Runtime   map[string]any     `json:"runtime,omitempty"`
	Services  map[string]Service `json:"services,omitempty"`
}

// Service is one dependency's health within the status response
type Service struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionInfo is the version endpoint response
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// HealthService answers the health, readiness and version endpoints
type HealthService struct {
	version   string
	buildTime string
	hub       *ws.Hub
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. hub may be nil when the
// server runs without WebSocket support.
func NewHealthService(version, buildTime string, hub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Health returns the full health status including runtime statistics
func (s *HealthService) Health(ctx context.Context) HealthStatus {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Runtime: map[string]any{
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
			"alloc_bytes":    memStats.Alloc,
			"num_gc":         memStats.NumGC,
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
		},
		Services: map[string]Service{},
	}

	if s.hub != nil {
		status.Services["websocket"] = Service{
			Status:  "healthy",
			Message: clientsMessage(s.hub.ClientCount()),
		}
	}

	return status
}

// Liveness reports whether the process is alive. It never fails; its value
// is in answering at all.
func (s *HealthService) Liveness(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	}
}

// Readiness reports whether the server can take extraction requests
func (s *HealthService) Readiness(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	}
}

// Version returns build and runtime version information
func (s *HealthService) Version(ctx context.Context) VersionInfo {
	return VersionInfo{
		Version:   s.version,
		BuildTime: s.buildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

func clientsMessage(count int) string {
	if count == 1 {
		return "1 client connected"
	}
	return fmt.Sprintf("%d clients connected", count)
}
