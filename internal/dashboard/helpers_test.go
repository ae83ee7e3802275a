package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"energy_dashboard/internal/model"
)

var base = time.Date(2024, 11, 21, 12, 0, 0, 0, time.UTC)

// recordSink remembers every write and the latest value per slot.
type recordSink struct {
	mu     sync.Mutex
	writes []model.SlotValue
	slots  map[model.Slot]model.SlotValue
}

func newRecordSink() *recordSink {
	return &recordSink{slots: make(map[model.Slot]model.SlotValue)}
}

func (s *recordSink) WriteSlot(v model.SlotValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, v)
	s.slots[v.Slot] = v
}

func (s *recordSink) text(slot model.Slot) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[slot].Text
}

func (s *recordSink) has(slot model.Slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[slot]
	return ok
}

func (s *recordSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

type published struct {
	id    model.ID
	value int
}

type fakePublisher struct {
	mu        sync.Mutex
	connected bool
	err       error
	calls     []published
}

func (p *fakePublisher) PublishAction(_ context.Context, id model.ID, value int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, published{id: id, value: value})
	return nil
}

func (p *fakePublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

type fakeNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (n *fakeNotifier) Notify(item Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
}

func (n *fakeNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}

var errBroker = errors.New("broker unavailable")

// descriptors returns n descriptors with ids "1".."n".
func descriptors(n int) []model.MetricDescriptor {
	out := make([]model.MetricDescriptor, n)
	for i := range out {
		out[i] = model.MetricDescriptor{ID: model.ID(fmt.Sprint(i + 1)), Name: fmt.Sprintf("metric %d", i+1)}
	}
	return out
}

// snapshot builds a snapshot from id -> value pairs.
func snapshot(values map[string]float64) model.ValueSnapshot {
	snap := make(model.ValueSnapshot, len(values))
	for id, v := range values {
		snap[model.ID(id)] = model.ValueRecord{Value: v, Present: true}
	}
	return snap
}

// fullSnapshot gives every one of the 19 standard descriptors a value.
func fullSnapshot() model.ValueSnapshot {
	return snapshot(map[string]float64{
		"1": 230.44, "2": 231.05, "3": 229.96,
		"4": 12.31, "5": 11.94, "6": 12.06,
		"7": 8.345, "8": 2.1, "9": 8.6,
		"10": 11.2, "11": 15.7, "12": 1234.56,
		"13": 2.4, "14": 3.1, "15": 2.8, "16": 2.9, "17": 1.7, "18": 1.8, "19": 1.6,
	})
}
