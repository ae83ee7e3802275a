package replay

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"energy_dashboard/internal/dashboard"
	"energy_dashboard/internal/model"
)

const tickInterval = 100 * time.Millisecond

// Speed bounds.
const (
	MinSpeed = 0.1
	MaxSpeed = 3600
)

// State represents the current replay state.
type State struct {
	Time     time.Time `json:"time"`
	Speed    float64   `json:"speed"`
	Running  bool      `json:"running"`
	Loop     bool      `json:"loop"`
	Position int       `json:"position"`
	Total    int       `json:"total"`
}

// Callback receives replay state changes.
type Callback interface {
	OnState(state State)
}

// Target receives replayed pushes.
type Target interface {
	ApplyConfiguration(cfg model.Configuration) dashboard.ConfigSet
	ApplyValues(r dashboard.Resolver) dashboard.Aggregates
}

// Engine replays a recorded capture into a dashboard. Recorded gaps between
// pushes are divided by the speed multiplier.
type Engine struct {
	mu       sync.Mutex
	target   Target
	callback Callback
	log      *zap.Logger

	pushes  []model.Push
	pos     int
	running bool
	loop    bool
	speed   float64
	simTime time.Time
	tick    time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates an engine over pushes, ordered by time. cb may be nil.
func New(pushes []model.Push, target Target, cb Callback, log *zap.Logger) *Engine {
	sorted := make([]model.Push, len(pushes))
	copy(sorted, pushes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		target:   target,
		callback: cb,
		log:      log,
		pushes:   sorted,
		speed:    1,
		tick:     tickInterval,
	}
	e.rewind()
	return e
}

func (e *Engine) rewind() {
	e.pos = 0
	if len(e.pushes) > 0 {
		e.simTime = e.pushes[0].At
	}
}

// State returns the current replay state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	return State{
		Time:     e.simTime,
		Speed:    e.speed,
		Running:  e.running,
		Loop:     e.loop,
		Position: e.pos,
		Total:    len(e.pushes),
	}
}

// Running reports whether the replay loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// SetSpeed sets the replay speed multiplier.
func (e *Engine) SetSpeed(speed float64) {
	speed = min(max(speed, MinSpeed), MaxSpeed)

	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()

	e.broadcastState()
}

// SetLoop makes the replay start over after the last push.
func (e *Engine) SetLoop(loop bool) {
	e.mu.Lock()
	e.loop = loop
	e.mu.Unlock()
}

// Start begins the replay loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running || len(e.pushes) == 0 {
		e.mu.Unlock()
		return
	}
	if e.pos >= len(e.pushes) {
		e.rewind()
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	stop, done := e.stopCh, e.doneCh
	e.mu.Unlock()

	e.log.Info("replay started", zap.Int("pushes", len(e.pushes)), zap.Float64("speed", e.State().Speed))
	e.broadcastState()
	go e.run(stop, done)
}

// Pause stops the replay loop.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	e.broadcastState()
}

// Done returns a channel closed when the current run ends. It is nil before
// the first Start.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doneCh
}

// Run starts the replay and blocks until it ends or ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.Start()
	done := e.Done()
	if done == nil {
		return
	}
	select {
	case <-ctx.Done():
		e.Pause()
	case <-done:
	}
}

// Step applies the next push immediately and reports whether one was
// applied.
func (e *Engine) Step() bool {
	e.mu.Lock()
	if e.pos >= len(e.pushes) {
		e.mu.Unlock()
		return false
	}
	p := e.pushes[e.pos]
	e.pos++
	e.simTime = p.At
	e.mu.Unlock()

	e.apply(p)
	e.broadcastState()
	return true
}

// Drain applies every remaining push immediately and returns how many were
// applied.
func (e *Engine) Drain() int {
	n := 0
	for e.Step() {
		n++
	}
	return n
}

func (e *Engine) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if e.advance() {
				return
			}
		}
	}
}

// advance moves replay time forward one tick, applies the pushes that fall
// due and reports whether the replay ended.
func (e *Engine) advance() bool {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return true
	}
	e.simTime = e.simTime.Add(time.Duration(float64(e.tick) * e.speed))
	var due []model.Push
	for e.pos < len(e.pushes) && !e.pushes[e.pos].At.After(e.simTime) {
		due = append(due, e.pushes[e.pos])
		e.pos++
	}
	ended := e.pos >= len(e.pushes)
	if ended && e.loop {
		e.rewind()
		ended = false
	}
	if ended {
		e.running = false
		close(e.stopCh)
	}
	e.mu.Unlock()

	for _, p := range due {
		e.apply(p)
	}
	if len(due) > 0 || ended {
		e.broadcastState()
	}
	if ended {
		e.log.Info("replay finished")
	}
	return ended
}

func (e *Engine) apply(p model.Push) {
	switch p.Kind {
	case model.PushConfiguration:
		if p.Configuration != nil {
			e.target.ApplyConfiguration(*p.Configuration)
		}
	case model.PushValues:
		e.target.ApplyValues(p.Values)
	default:
		e.log.Warn("replay push skipped", zap.String("type", string(p.Kind)))
	}
}

func (e *Engine) broadcastState() {
	if e.callback == nil {
		return
	}
	e.callback.OnState(e.State())
}
