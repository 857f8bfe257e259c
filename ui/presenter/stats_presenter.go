package presenter

import (
	"fmt"
	"time"

	"github.com/soocke/promptcam/domain/pipeline"
)

// WorkerInfo is the read side of the inference worker.
type WorkerInfo interface {
	Stats() pipeline.WorkerStats
	Status() string
}

// QueueInfo reports queue pressure.
type QueueInfo interface {
	Dropped() uint64
}

// ResultInfo returns the result currently on screen.
type ResultInfo interface {
	Current() pipeline.AnnotatedFrame
}

// StatsView displays model status and pipeline counters.
type StatsView interface {
	SetStatus(string)
	SetStats(string)
}

// StatsPresenter forwards model status changes to the status bar and
// refreshes the counters line about once per second.
type StatsPresenter struct {
	worker   WorkerInfo
	queue    QueueInfo
	result   ResultInfo
	view     StatsView
	interval time.Duration

	lastStatus string
	lastPush   time.Time
}

func NewStatsPresenter(worker WorkerInfo, queue QueueInfo, result ResultInfo, view StatsView) *StatsPresenter {
	return &StatsPresenter{worker: worker, queue: queue, result: result, view: view, interval: time.Second}
}

// Tick pushes values to the view.
func (p *StatsPresenter) Tick(now time.Time) {
	if p == nil || p.worker == nil || p.view == nil {
		return
	}
	if s := p.worker.Status(); s != p.lastStatus {
		p.lastStatus = s
		if s != "" {
			p.view.SetStatus(s)
		}
	}
	if !p.lastPush.IsZero() && now.Sub(p.lastPush) < p.interval {
		return
	}
	p.lastPush = now
	p.view.SetStats(p.line())
}

func (p *StatsPresenter) line() string {
	st := p.worker.Stats()
	var dropped uint64
	if p.queue != nil {
		dropped = p.queue.Dropped()
	}
	var cur pipeline.AnnotatedFrame
	if p.result != nil {
		cur = p.result.Current()
	}
	return fmt.Sprintf("mode %s | %d regions | %d ms | frame %d | dropped %d | failed %d",
		cur.Mode, len(cur.Regions), cur.Latency.Milliseconds(), cur.Frame.Sequence, dropped, st.Failures)
}
