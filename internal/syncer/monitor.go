package syncer

import (
	"context"
	"log"
	"sync"
	"time"
)

type Trigger string

const (
	TriggerOnline Trigger = "online"
	TriggerTick   Trigger = "tick"
	TriggerWake   Trigger = "wake"
)

type Prober interface {
	Healthy(ctx context.Context) bool
}

// Monitor watches connectivity to the remote service and notifies
// subscribers when a synchronization pass should run: on the transition
// back to online, on every periodic tick while online, and on a manual
// wake. While offline it stays silent.
type Monitor struct {
	prober   Prober
	interval time.Duration

	mu     sync.Mutex
	subs   map[int]func(Trigger)
	nextID int
	online bool
}

func NewMonitor(prober Prober, interval time.Duration) *Monitor {
	return &Monitor{
		prober:   prober,
		interval: interval,
		subs:     make(map[int]func(Trigger)),
	}
}

// Subscribe registers a trigger callback and returns its unsubscribe
// func. Callers must unsubscribe on teardown.
func (m *Monitor) Subscribe(fn func(Trigger)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Start probes until the context is cancelled. It performs an immediate
// probe so queued work left over from a previous run is picked up at
// startup.
func (m *Monitor) Start(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	healthy := m.prober.Healthy(ctx)

	m.mu.Lock()
	wasOnline := m.online
	m.online = healthy
	m.mu.Unlock()

	if !healthy {
		if wasOnline {
			log.Println("Remote service unreachable, suspending sync triggers")
		}
		return
	}

	if !wasOnline {
		log.Println("Remote service reachable, triggering sync")
		m.notify(TriggerOnline)
		return
	}
	m.notify(TriggerTick)
}

// Wake requests an out-of-band pass (the deferred-retry hook exposed on
// the local API). It only fires when the remote is reachable.
func (m *Monitor) Wake(ctx context.Context) bool {
	healthy := m.prober.Healthy(ctx)

	m.mu.Lock()
	m.online = healthy
	m.mu.Unlock()

	if !healthy {
		return false
	}
	m.notify(TriggerWake)
	return true
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) notify(trigger Trigger) {
	m.mu.Lock()
	subs := make([]func(Trigger), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(trigger)
	}
}
