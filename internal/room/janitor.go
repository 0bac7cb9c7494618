package room

import (
	"time"

	"go.uber.org/zap"

	"github.com/okvist/wordrack/internal/obslog"
)

// Janitor periodically expires lapsed disconnections and evicts stale
// rooms. Eviction goes through the Evict hook, which must refuse while
// a mutating operation is in flight on the room.
type Janitor struct {
	Registry   *Registry
	Interval   time.Duration
	EmptyTTL   time.Duration
	StartedTTL time.Duration

	// OnDeparture retires the expired seat from the running session
	// and informs the remaining players.
	OnDeparture func(Departure)
	// Evict takes the room's play lock without waiting, re-checks
	// staleness and deletes the room. False postpones to the next
	// sweep.
	Evict func(code string) bool

	stop chan struct{}
	done chan struct{}
}

func (j *Janitor) Start() {
	if j.Interval <= 0 {
		j.Interval = time.Minute
	}
	j.stop = make(chan struct{})
	j.done = make(chan struct{})
	go j.run()
}

func (j *Janitor) Stop() {
	if j.stop == nil {
		return
	}
	close(j.stop)
	<-j.done
	j.stop = nil
}

func (j *Janitor) run() {
	defer close(j.done)
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			j.Sweep()
		case <-j.stop:
			return
		}
	}
}

// Sweep runs one pass. Exposed so tests and shutdown can force one.
func (j *Janitor) Sweep() {
	departures := j.Registry.ExpireDeparted()
	for _, d := range departures {
		if j.OnDeparture != nil {
			j.OnDeparture(d)
		}
	}

	evicted := 0
	candidates := j.Registry.StaleRooms(j.EmptyTTL, j.StartedTTL)
	for _, code := range candidates {
		if j.Evict == nil {
			if j.Registry.RemoveIfStale(code, j.EmptyTTL, j.StartedTTL) {
				evicted++
			}
			continue
		}
		if j.Evict(code) {
			evicted++
		} else {
			obslog.L().Debug("janitor_room_busy", zap.String("code", code))
		}
	}

	if len(departures) > 0 || evicted > 0 {
		obslog.L().Info("janitor_sweep",
			zap.Int("departures", len(departures)),
			zap.Int("evicted", evicted))
	}
}
