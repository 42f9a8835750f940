package fluid

import "sync"

// barrier is a reusable rendezvous point for the worker pool plus the
// orchestrating goroutine. Every party must arrive before any proceeds; the
// generation counter lets the same barrier gate consecutive phases.
type barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	arrived    int
	generation int
}

func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// wait blocks until all parties have arrived at the current generation.
func (b *barrier) wait() {
	b.mu.Lock()
	gen := b.generation
	b.arrived++
	if b.arrived == b.parties {
		b.arrived = 0
		b.generation++
		b.cond.Broadcast()
	} else {
		for gen == b.generation {
			b.cond.Wait()
		}
	}
	b.mu.Unlock()
}
