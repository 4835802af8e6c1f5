package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"chat-hub/contract"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// StatsProvider reports coordinator-level gauges (live connections,
// in-flight typing indicators) alongside process health.
type StatsProvider func() map[string]any

// TelemetryWorker periodically logs process health (CPU, RSS,
// goroutines) and coordinator gauges. Observability only; it never
// influences routing.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	stats    StatsProvider
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration, stats StatsProvider) *TelemetryWorker {
	return &TelemetryWorker{log: log, interval: interval, stats: stats}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			attrs := []any{"goroutines", runtime.NumGoroutine()}

			if memInfo, err := p.MemoryInfo(); err == nil {
				attrs = append(attrs, "rss_mb", memInfo.RSS/1024/1024)
			}
			if cpu, err := p.CPUPercent(); err == nil {
				attrs = append(attrs, "cpu_percent", cpu)
			}
			for key, value := range w.stats() {
				attrs = append(attrs, key, value)
			}
			w.log.Info("telemetry", attrs...)
		}
	}
}
