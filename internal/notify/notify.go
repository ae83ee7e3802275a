package notify

import (
	"go.uber.org/zap"

	"energy_dashboard/internal/dashboard"
)

// Multi fans a notification out to every notifier in order.
type Multi []dashboard.Notifier

func (m Multi) Notify(n dashboard.Notification) {
	for _, target := range m {
		target.Notify(n)
	}
}

// Log writes notifications to a zap logger.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Notify(n dashboard.Notification) {
	fields := []zap.Field{
		zap.String("level", string(n.Level)),
		zap.Bool("persistent", n.Persistent),
		zap.Time("at", n.At),
	}
	switch n.Level {
	case dashboard.LevelError:
		l.Logger.Error(n.Message, fields...)
	case dashboard.LevelWarning:
		l.Logger.Warn(n.Message, fields...)
	default:
		l.Logger.Info(n.Message, fields...)
	}
}

// severity orders levels for filtering.
func severity(l dashboard.Level) int {
	switch l {
	case dashboard.LevelError:
		return 3
	case dashboard.LevelWarning:
		return 2
	case dashboard.LevelSuccess, dashboard.LevelInfo:
		return 1
	default:
		return 0
	}
}

// AtLeast passes through notifications at or above lowest.
func AtLeast(lowest dashboard.Level, next dashboard.Notifier) dashboard.Notifier {
	return filter{min: severity(lowest), next: next}
}

type filter struct {
	min  int
	next dashboard.Notifier
}

func (f filter) Notify(n dashboard.Notification) {
	if severity(n.Level) >= f.min {
		f.next.Notify(n)
	}
}
