package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"energy_dashboard/internal/api"
	"energy_dashboard/internal/chart"
	"energy_dashboard/internal/config"
	"energy_dashboard/internal/dashboard"
	"energy_dashboard/internal/ingest"
	"energy_dashboard/internal/metrics"
	"energy_dashboard/internal/model"
	"energy_dashboard/internal/notify"
	"energy_dashboard/internal/replay"
	"energy_dashboard/internal/widget"
	"energy_dashboard/internal/ws"
)

const shutdownTimeout = 10 * time.Second

var (
	servePort   int
	serveRecord string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard server",
	Long: `Connect to the IoT platform (or replay a capture), apply every configuration
and values push to the display and serve it to browsers.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (overrides the configuration)")
	serveCmd.Flags().StringVar(&serveRecord, "record", "", "Append every received push to this capture file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Web.Port = servePort
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	hub := ws.NewHub(log.Named("ws"))
	hub.OnCount(m.SetClients)
	bridge := ws.NewBridge(hub, log.Named("ws"))

	notifiers := notify.Multi{bridge, notify.Log{Logger: log.Named("notify")}}
	if tg := cfg.Notify.Telegram; tg.Enabled {
		bot, err := notify.NewTelegram(tg.TokenFile, tg.ChatID, log.Named("telegram"))
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		go bot.Run(ctx)
		notifiers = append(notifiers, notify.AtLeast(dashboard.LevelWarning, bot))
	}

	dash := dashboard.New(dashboard.Options{
		Sink:             bridge,
		Notifier:         notifiers,
		Recorder:         m,
		Logger:           log.Named("dashboard"),
		DeviceTotal:      cfg.Dashboard.DeviceTotal,
		WarningThreshold: cfg.Dashboard.WarningThreshold,
	})

	var target widget.Dashboard = dash
	if serveRecord != "" {
		f, err := os.OpenFile(serveRecord, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open capture: %w", err)
		}
		defer f.Close()
		target = newRecordingTarget(dash, ingest.NewWriter(f), log.Named("record"))
		log.Info("recording pushes", zap.String("file", serveRecord))
	}

	var rc ws.ReplayControl
	if cfg.Widget.Backend == config.BackendReplay {
		eng, err := startReplay(ctx, cfg.Widget.Replay, dash, target, bridge, m, log.Named("replay"))
		if err != nil {
			return err
		}
		rc = eng
	} else {
		link, err := widget.Start(ctx, cfg.Widget, target, m, log.Named("widget"))
		if err != nil {
			log.Error("widget link unavailable, serving without live values", zap.Error(err))
		}
		defer link.Close()
	}

	go dash.RunStatus(ctx, cfg.Dashboard.StatusInterval)

	charts := chart.Synthetic{}
	router := api.NewRouter(api.Options{
		Dashboard:   dash,
		Charts:      charts,
		WS:          ws.NewHandler(hub, dash, charts, rc, log.Named("ws")),
		Metrics:     m.Handler(),
		Recorder:    m,
		FrontendDir: cfg.Web.FrontendDir,
		StaleAfter:  cfg.Dashboard.StaleAfter,
		Logger:      log.Named("http"),
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("backend", cfg.Widget.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startReplay plays a capture into the dashboard in place of a live link.
func startReplay(ctx context.Context, cfg config.ReplayConfig, dash *dashboard.Dashboard, target replay.Target, cb replay.Callback, m *metrics.Collector, log *zap.Logger) (*replay.Engine, error) {
	pushes, err := ingest.ParseFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("load capture: %w", err)
	}
	dash.SetPublisher(replay.NewPublisher(log))
	dash.SetConnected(true, nil)
	m.SetConnected(true)

	eng := replay.New(pushes, target, cb, log)
	eng.SetSpeed(cfg.Speed)
	eng.SetLoop(cfg.Loop)
	go eng.Run(ctx)
	return eng, nil
}

// recordingTarget appends every push to a capture before applying it.
type recordingTarget struct {
	*dashboard.Dashboard
	w   *ingest.Writer
	log *zap.Logger
	now func() time.Time
}

func newRecordingTarget(d *dashboard.Dashboard, w *ingest.Writer, log *zap.Logger) *recordingTarget {
	if log == nil {
		log = zap.NewNop()
	}
	return &recordingTarget{Dashboard: d, w: w, log: log, now: time.Now}
}

func (t *recordingTarget) ApplyConfiguration(cfg model.Configuration) dashboard.ConfigSet {
	c := cfg
	if err := t.w.Write(model.Push{At: t.now(), Kind: model.PushConfiguration, Configuration: &c}); err != nil {
		t.log.Warn("record configuration", zap.Error(err))
	}
	return t.Dashboard.ApplyConfiguration(cfg)
}

func (t *recordingTarget) ApplyValues(r dashboard.Resolver) dashboard.Aggregates {
	if snap, ok := r.(model.ValueSnapshot); ok {
		if err := t.w.Write(model.Push{At: t.now(), Kind: model.PushValues, Values: snap}); err != nil {
			t.log.Warn("record values", zap.Error(err))
		}
	}
	return t.Dashboard.ApplyValues(r)
}
