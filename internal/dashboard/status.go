package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultStatusInterval is the period of the status log line.
const DefaultStatusInterval = 30 * time.Second

// RunStatus logs a status line every interval until ctx is done.
func (d *Dashboard) RunStatus(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logStatus()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.logStatus()
		}
	}
}

func (d *Dashboard) logStatus() {
	st := d.Status()
	d.log.Info("status updated",
		zap.Time("at", d.now()),
		zap.Bool("connected", st.Connected),
		zap.Int("pushes", st.Pushes),
		zap.String("online", formatOnline(st.Aggregates)),
		zap.Int("values", st.Aggregates.TotalValues),
		zap.Int("warnings", st.Aggregates.WarningCount))
}
