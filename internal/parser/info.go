package parser

import (
	"sync"
	"time"
)

// Status is a point-in-time snapshot of one parser's health.
type Status struct {
	Name      string
	Processed uint64
	LastSeen  time.Time
}

// Registry tracks running parsers so operators can inspect throughput and
// liveness. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	parsers []*Parser
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Add(p *Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers = append(r.parsers, p)
}

// Statuses snapshots every registered parser.
func (r *Registry) Statuses() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.parsers))
	for _, p := range r.parsers {
		out = append(out, Status{
			Name:      p.Name(),
			Processed: p.Processed(),
			LastSeen:  p.LastSeen(),
		})
	}
	return out
}

// Stalled returns parsers that decoded nothing within maxIdle. A parser
// that never decoded anything is reported only once it has polled items.
func (r *Registry) Stalled(maxIdle time.Duration, now time.Time) []Status {
	out := make([]Status, 0)
	for _, status := range r.Statuses() {
		if status.Processed == 0 {
			continue
		}
		if status.LastSeen.IsZero() || now.Sub(status.LastSeen) > maxIdle {
			out = append(out, status)
		}
	}
	return out
}
