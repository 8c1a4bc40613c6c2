// Package metrics tracks process-wide request counters for the
// monitoring endpoints. Counters reset only on process restart.
package metrics

import (
	"fmt"
	"net/http"
	"sync"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Counters holds monotonically increasing request totals guarded by a
// single lock.
type Counters struct {
	mu         sync.Mutex
	total      int64
	successful int64
	failed     int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Total       int64  `json:"total"`
	Successful  int64  `json:"successful"`
	Failed      int64  `json:"failed"`
	SuccessRate string `json:"success_rate"`
}

// Record bumps the counters for a finished request. Statuses below 400
// count as successful.
func (c *Counters) Record(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	if status < http.StatusBadRequest {
		c.successful++
	} else {
		c.failed++
	}
}

// Snapshot returns a copy of the current totals.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.total
	if total == 0 {
		total = 1
	}
	return Snapshot{
		Total:       c.total,
		Successful:  c.successful,
		Failed:      c.failed,
		SuccessRate: fmt.Sprintf("%.2f%%", float64(c.successful)/float64(total)*100),
	}
}

// Middleware records the outcome of every request passing through it.
func (c *Counters) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.Record(status)
	})
}
