package scheduler

import "time"

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// ManualTicker only ticks when told to. Tick blocks until the job has received the tick.
type ManualTicker struct {
	ch chan time.Time
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time)}
}

func (m *ManualTicker) C() <-chan time.Time { return m.ch }
func (m *ManualTicker) Stop()               {}

func (m *ManualTicker) Tick() {
	m.ch <- time.Now()
}

// Func lets a single ManualTicker be injected as the tick source of a job.
func (m *ManualTicker) Func() TickerFunc {
	return func(time.Duration) Ticker { return m }
}
