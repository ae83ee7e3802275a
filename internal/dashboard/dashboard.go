package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"energy_dashboard/internal/model"
	"energy_dashboard/internal/store"
)

// DefaultDeviceTotal is the number of metering panels behind one widget.
const DefaultDeviceTotal = 5

// Level is the severity of a user-facing notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a user-facing message. Persistent notifications stay
// visible until the condition clears.
type Notification struct {
	Level      Level     `json:"level"`
	Message    string    `json:"message"`
	Persistent bool      `json:"persistent,omitempty"`
	At         time.Time `json:"at"`
}

// Notifier delivers notifications to users.
type Notifier interface {
	Notify(n Notification)
}

// Recorder observes pipeline activity, typically for metrics.
type Recorder interface {
	ConfigurationApplied(descriptors int)
	ValuesApplied(agg Aggregates)
	ActionPublished(action string, err error)
}

// ConfirmFunc asks the user to confirm a control action.
type ConfirmFunc func(prompt string) bool

// ResetPrompt is the question shown before resetting peak values.
const ResetPrompt = "Are you sure you want to reset the peak values?"

// Options configures a Dashboard. Nil collaborators are replaced by no-ops.
type Options struct {
	Store            *store.Store
	Sink             Sink
	Notifier         Notifier
	Publisher        ActionPublisher
	Recorder         Recorder
	Logger           *zap.Logger
	DeviceTotal      int
	WarningThreshold float64
	Now              func() time.Time
}

// Dashboard owns the display state of one widget session and applies
// configuration and value pushes to it.
type Dashboard struct {
	mu sync.Mutex

	store     *store.Store
	sink      Sink
	notifier  Notifier
	publisher ActionPublisher
	recorder  Recorder
	log       *zap.Logger
	now       func() time.Time

	deviceTotal int
	threshold   float64

	config    ConfigSet
	agg       Aggregates
	pushes    int
	lastPush  time.Time
	lastReset time.Time
	connected bool
}

func New(opts Options) *Dashboard {
	d := &Dashboard{
		store:       opts.Store,
		sink:        opts.Sink,
		notifier:    opts.Notifier,
		publisher:   opts.Publisher,
		recorder:    opts.Recorder,
		log:         opts.Logger,
		now:         opts.Now,
		deviceTotal: opts.DeviceTotal,
		threshold:   opts.WarningThreshold,
	}
	if d.store == nil {
		d.store = store.New()
	}
	if d.sink == nil {
		d.sink = nopSink{}
	}
	if d.notifier == nil {
		d.notifier = nopNotifier{}
	}
	if d.recorder == nil {
		d.recorder = nopRecorder{}
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.deviceTotal <= 0 {
		d.deviceTotal = DefaultDeviceTotal
	}
	if d.threshold <= 0 {
		d.threshold = DefaultWarningThreshold
	}
	d.config = MapConfiguration(nil, nil)
	return d
}

// SetPublisher replaces the action publisher.
func (d *Dashboard) SetPublisher(p ActionPublisher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.publisher = p
}

// ApplyConfiguration maps a configuration push. Absent fields keep their
// previous value; present fields replace it wholesale.
func (d *Dashboard) ApplyConfiguration(cfg model.Configuration) ConfigSet {
	d.mu.Lock()
	defer d.mu.Unlock()

	descriptors := d.descriptors()
	if cfg.RealtimeConfigs != nil {
		descriptors = cfg.RealtimeConfigs
	}
	actions := d.config.Actions
	if cfg.Actions != nil {
		actions = cfg.Actions
	}
	d.config = MapConfiguration(descriptors, actions)

	fields := []zap.Field{
		zap.Int("descriptors", len(descriptors)),
		zap.Int("actions", len(d.config.Actions)),
	}
	for _, g := range Groups {
		fields = append(fields, zap.Int(string(g), len(d.config.Group(g))))
	}
	d.log.Info("configuration mapped", fields...)
	for _, g := range Groups {
		if !d.config.Enabled(g) {
			d.log.Debug("group disabled",
				zap.String("group", string(g)),
				zap.Int("members", len(d.config.Group(g))),
				zap.Int("required", g.MinMembers()))
		}
	}

	d.recorder.ConfigurationApplied(len(descriptors))
	return d.config
}

// descriptors reassembles the flat descriptor list from the current set.
func (d *Dashboard) descriptors() []model.MetricDescriptor {
	var out []model.MetricDescriptor
	for _, g := range Groups {
		out = append(out, d.config.Group(g)...)
	}
	return out
}

// ApplyValues applies a values push and recomputes the header aggregates.
func (d *Dashboard) ApplyValues(r Resolver) Aggregates {
	var pending []Notification

	d.mu.Lock()
	sink := recordingSink{d: d}
	res := ApplyValues(r, d.config, sink)
	agg := ComputeAggregates(res.DisplayedCount, d.deviceTotal, res.THD, d.threshold)
	WriteAggregates(sink, agg)

	prev := d.agg
	d.agg = agg
	d.pushes++
	d.lastPush = d.now()

	switch {
	case prev.WarningCount == 0 && agg.WarningCount > 0:
		pending = append(pending, d.notification(LevelWarning, "THD above threshold on one or more phases."))
	case prev.WarningCount > 0 && agg.WarningCount == 0:
		pending = append(pending, d.notification(LevelInfo, "THD back within limits."))
	}
	d.mu.Unlock()

	d.log.Debug("values applied",
		zap.Int("displayed", agg.TotalValues),
		zap.Int("online", agg.OnlineDevices),
		zap.Int("warnings", agg.WarningCount))
	d.recorder.ValuesApplied(agg)
	d.notify(pending...)
	return agg
}

// ResetPeak asks for confirmation and then dispatches the reset action.
// It returns false with a nil error when the user declines.
func (d *Dashboard) ResetPeak(ctx context.Context, confirm ConfirmFunc) (bool, error) {
	d.mu.Lock()
	actions := d.config.Actions
	pub := d.publisher
	d.mu.Unlock()

	if len(actions) == 0 || pub == nil || !pub.IsConnected() {
		d.log.Warn("peak reset rejected", zap.Error(ErrNotConnected))
		d.notify(d.notification(LevelError, "Cannot reset. Check the connection to the IoT platform."))
		return false, ErrNotConnected
	}

	if confirm != nil && !confirm(ResetPrompt) {
		return false, nil
	}

	action, err := ResetPeak(ctx, actions, pub, lockedSink{d: d})
	d.recorder.ActionPublished(action.Name, err)
	if err != nil {
		d.log.Error("peak reset failed", zap.Error(err))
		d.notify(d.notification(LevelError, "Failed to reset peak values."))
		return false, err
	}

	d.mu.Lock()
	d.lastReset = d.now()
	d.mu.Unlock()

	d.log.Info("peak values reset", zap.String("action_id", string(action.ID)), zap.String("action", action.Name))
	d.notify(d.notification(LevelSuccess, "Peak values reset."))
	return true, nil
}

// SetConnected records the widget connection state. A failure shows a
// persistent connection error.
func (d *Dashboard) SetConnected(ok bool, cause error) {
	d.mu.Lock()
	d.connected = ok
	text := "connected"
	if !ok {
		text = "error"
	}
	recordingSink{d: d}.WriteSlot(model.SlotValue{Slot: model.SlotConnectionStatus, Text: text})
	d.mu.Unlock()

	if ok {
		d.log.Info("widget connected")
		return
	}
	d.log.Error("widget connection failed", zap.Error(cause))
	n := d.notification(LevelError, "IoT platform connection error. Check the widget configuration.")
	n.Persistent = true
	d.notify(n)
}

// Connected reports the last recorded widget connection state.
func (d *Dashboard) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// Config returns the current configuration set.
func (d *Dashboard) Config() ConfigSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}

// Aggregates returns the header figures of the last values push.
func (d *Dashboard) Aggregates() Aggregates {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.agg
}

// Display returns what every written slot currently shows.
func (d *Dashboard) Display() []model.SlotValue {
	return d.store.All()
}

// Stale returns the slots that have not been refreshed within maxAge.
func (d *Dashboard) Stale(maxAge time.Duration) []model.Slot {
	return d.store.Stale(d.now(), maxAge)
}

// THDReadings returns the THD figures currently displayed; slots never
// written read as zero.
func (d *Dashboard) THDReadings() THDReadings {
	v := func(s model.Slot) float64 {
		f, _ := d.store.Value(s)
		return f
	}
	return THDReadings{
		Total:   v(model.SlotTHD),
		Current: [3]float64{v(model.SlotTHDI1), v(model.SlotTHDI2), v(model.SlotTHDI3)},
		Voltage: [3]float64{v(model.SlotTHDU1N), v(model.SlotTHDU2N), v(model.SlotTHDU3N)},
	}
}

// AnalyzeTHD analyzes the THD figures currently displayed.
func (d *Dashboard) AnalyzeTHD() THDAnalysis {
	return AnalyzeTHD(d.THDReadings())
}

// Details builds the detail rows of a group from the displayed values.
func (d *Dashboard) Details(g Group) ([]DetailItem, error) {
	d.mu.Lock()
	lastReset := d.lastReset
	d.mu.Unlock()
	return BuildDetails(g, d.store.Value, lastReset)
}

// Status is a point-in-time summary of the dashboard.
type Status struct {
	Connected  bool           `json:"connected"`
	Pushes     int            `json:"pushes"`
	LastPush   time.Time      `json:"last_push"`
	LastReset  time.Time      `json:"last_reset"`
	Aggregates Aggregates     `json:"aggregates"`
	Groups     map[Group]bool `json:"groups"`
}

// Status returns a summary of the dashboard state.
func (d *Dashboard) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	groups := make(map[Group]bool, len(Groups))
	for _, g := range Groups {
		groups[g] = d.config.Enabled(g)
	}
	return Status{
		Connected:  d.connected,
		Pushes:     d.pushes,
		LastPush:   d.lastPush,
		LastReset:  d.lastReset,
		Aggregates: d.agg,
		Groups:     groups,
	}
}

func (d *Dashboard) notification(level Level, msg string) Notification {
	return Notification{Level: level, Message: msg, At: d.now()}
}

func (d *Dashboard) notify(ns ...Notification) {
	for _, n := range ns {
		d.notifier.Notify(n)
	}
}

// recordingSink stamps writes, keeps them in the store and forwards them.
type recordingSink struct {
	d *Dashboard
}

func (s recordingSink) WriteSlot(v model.SlotValue) {
	v.UpdatedAt = s.d.now()
	s.d.store.Set(v)
	s.d.sink.WriteSlot(v)
}

// lockedSink is a recordingSink for callers that do not hold d.mu. Each
// write is ordered against ApplyValues so the store and the sink agree.
type lockedSink struct {
	d *Dashboard
}

func (s lockedSink) WriteSlot(v model.SlotValue) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	recordingSink{d: s.d}.WriteSlot(v)
}

type nopSink struct{}

func (nopSink) WriteSlot(model.SlotValue) {}

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

type nopRecorder struct{}

func (nopRecorder) ConfigurationApplied(int)      {}
func (nopRecorder) ValuesApplied(Aggregates)      {}
func (nopRecorder) ActionPublished(string, error) {}
