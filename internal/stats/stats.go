package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"time"
)

// StatsProvider is the metrics surface the relay components record against.
type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
	Run()
}

// StatsUpdater maintains relay runtime counters in an expvar map served on
// GET /debug/vars. Updates flow through a channel so callers never contend
// on the map.
type StatsUpdater struct {
	vars       *expvar.Map
	updateChan chan *metricsUpdateReq
	done       chan struct{}
}

type metricsUpdateReq struct {
	name  string
	value int
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	expvarData := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		expvarData[kv.Key] = value
	})

	json.NewEncoder(w).Encode(expvarData)
}

// NewStatsUpdater creates a new stats updater instance.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		updateChan: make(chan *metricsUpdateReq, 512),
		done:       make(chan struct{}),
	}
	mux.Handle("GET /debug/vars", http.HandlerFunc(su.expvarHandler))
	su.vars = expvar.NewMap("relay-stats")
	su.initializeMetrics()

	return su
}

func (su *StatsUpdater) initializeMetrics() {
	startTime := time.Now()
	su.vars.Set("Uptime", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))
}

func (su *StatsUpdater) updateMetrics() {
	for {
		select {
		case req := <-su.updateChan:
			metric := su.vars.Get(req.name)
			if metric == nil {
				panic("metric not found: " + req.name)
			}

			metric.(*expvar.Int).Add(int64(req.value))
		case <-su.done:
			return
		}
	}
}

// record enqueues an update without blocking. Updates arriving after Stop,
// from connections still tearing down during shutdown, are discarded once
// the buffer fills rather than blocking or panicking.
func (su *StatsUpdater) record(name string, value int) {
	select {
	case su.updateChan <- &metricsUpdateReq{name: name, value: value}:
	default:
	}
}

func (su *StatsUpdater) Incr(name string) {
	su.record(name, 1)
}

func (su *StatsUpdater) Decr(name string) {
	su.record(name, -1)
}

func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, expvar.NewInt(name))
}

func (su *StatsUpdater) Run() {
	go su.updateMetrics()
}

// Stop ends the update loop. Incr and Decr stay safe to call afterwards;
// their updates are simply no longer applied.
func (su *StatsUpdater) Stop() {
	close(su.done)
}
