package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency    = metric.NewHistogram("1m1s")
	RelayedPerSecond   = metric.NewCounter("10s1s")
	DroppedPerSecond   = metric.NewCounter("10s1s")
	BadFramesPerSecond = metric.NewCounter("10s1s")
	RelaxedPerSecond   = metric.NewCounter("10s1s")
	ImprovedPerSecond  = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("dvsim:Relayed/s", RelayedPerSecond)
	expvar.Publish("dvsim:Dropped/s", DroppedPerSecond)
	expvar.Publish("dvsim:BadFrames/s", BadFramesPerSecond)
	expvar.Publish("dvsim:Relaxed/s", RelaxedPerSecond)
	expvar.Publish("dvsim:Improved/s", ImprovedPerSecond)
	expvar.Publish("dvsim:DispatchLatency (µs)", DispatchLatency)
}
