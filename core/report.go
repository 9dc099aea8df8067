package core

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/encodeous/dvsim/state"
	"github.com/jellydator/ttlcache/v3"
)

// Reporter logs the routing tables advertised to the relay. A table that was already logged unchanged within
// state.ReportDedupTTL is not logged again.
type Reporter struct {
	log  *slog.Logger
	seen *ttlcache.Cache[state.NodeId, string]
}

func NewReporter(log *slog.Logger) *Reporter {
	return &Reporter{
		log: log,
		seen: ttlcache.New[state.NodeId, string](
			ttlcache.WithTTL[state.NodeId, string](state.ReportDedupTTL),
			ttlcache.WithDisableTouchOnHit[state.NodeId, string](),
		),
	}
}

// Report logs every table in snapshot that changed since it was last logged, and returns the nodes it logged
func (r *Reporter) Report(snapshot map[state.NodeId]state.DistanceVector) []state.NodeId {
	r.seen.DeleteExpired()
	logged := make([]state.NodeId, 0)
	for _, id := range slices.Sorted(maps.Keys(snapshot)) {
		line := snapshot[id].String()
		if item := r.seen.Get(id); item != nil && item.Value() == line {
			continue
		}
		r.seen.Set(id, line, ttlcache.DefaultTTL)
		r.log.Info("routing table", "node", id, "table", line)
		logged = append(logged, id)
	}
	return logged
}
