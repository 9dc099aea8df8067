package core

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/encodeous/dvsim/state"
)

// Inspect renders the sessions and the latest advertised tables known to the relay
func (r *Relay) Inspect() (string, error) {
	res, err := r.env.DispatchWait(func(s *RelayState) (any, error) {
		return s.inspect(), nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (s *RelayState) inspect() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("Bootstrapped: %t\n", s.Bootstrapped))

	sb.WriteString("\nNodes:\n")
	for _, id := range s.Topology.Identities() {
		sb.WriteString(fmt.Sprintf(" - %s\n", id))
		if peer, ok := s.Registry[id]; ok {
			sb.WriteString(fmt.Sprintf("   Session: %s\n", peer.link))
			sb.WriteString(fmt.Sprintf("   Dropped: %d\n", peer.Dropped()))
		} else {
			sb.WriteString("   Session: (none)\n")
		}
		sb.WriteString(fmt.Sprintf("   Neighbours: %v\n", s.Topology.Neighbours(id)))
	}

	sb.WriteString("\nAdvertised Tables:\n")
	rt := make([]string, 0)
	if len(s.Snapshot) == 0 {
		rt = append(rt, " (none)")
	}
	for _, id := range slices.Sorted(maps.Keys(s.Snapshot)) {
		rt = append(rt, fmt.Sprintf(" - %s: %s", id, s.Snapshot[id]))
	}
	sb.WriteString(strings.Join(rt, "\n") + "\n")
	return sb.String()
}

// InspectHandler serves Relay.Inspect as plain text
func InspectHandler(r *Relay) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		res, err := r.Inspect()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, res)
	})
}

// InspectGet fetches the inspect output from the debug server of a running relay
func InspectGet(ctx context.Context, debugAddr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+debugAddr+"/debug/inspect", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", state.ErrConnection, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", state.ErrConnection, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("relay returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}
