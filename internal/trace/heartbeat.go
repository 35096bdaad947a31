package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits a driver-scope event at a fixed interval so that a long
// verification run shows it is still alive.
type Heartbeat struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartHeartbeat begins beating into tracer. It returns nil, which Stop
// accepts, when tracing is off or interval is not positive.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{}), done: make(chan struct{})}
	go h.beat(tracer, interval)
	return h
}

func (h *Heartbeat) beat(tracer Tracer, interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for n := 1; ; n++ {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			ev := newEvent(KindHeartbeat, ScopeDriver, "heartbeat", now)
			ev.Detail = fmt.Sprintf("#%d after %s", n, now.Sub(start).Round(time.Millisecond))
			tracer.Emit(ev)
		}
	}
}

// Stop ends the heartbeat and waits for its goroutine. It is safe to call
// more than once.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
