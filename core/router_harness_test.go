package core

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/encodeous/dvsim/state"
)

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

// RouterHarness records everything the algorithm asks of its Router
type RouterHarness struct {
	actions []HarnessEvent
	sent    []state.DistanceVector
	sendErr error
}

func (h *RouterHarness) SendUpdate(table state.DistanceVector) error {
	h.sent = append(h.sent, table)
	h.actions = append(h.actions, MakeEvent("SEND_UPDATE", table))
	return h.sendErr
}

func (h *RouterHarness) Log(event RouterEvent, desc string, args ...any) {
	if event == RouteImproved {
		// improvements are visible in the sent tables
		return
	}
	h.actions = append(h.actions, MakeEvent(event.String(), args...))
}

type HarnessEvents []HarnessEvent

func (h HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range h {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	return strings.Join(out, "\n")
}

func (h HarnessEvents) AssertContains(t *testing.T, msg string) {
	t.Helper()
	if !slices.ContainsFunc(h, func(e HarnessEvent) bool {
		return e.Message == msg
	}) {
		t.Errorf("expected event %s, got:\n%s", msg, h.String())
	}
}

// GetActions returns and clears the recorded actions
func (h *RouterHarness) GetActions() HarnessEvents {
	a := h.actions
	h.actions = nil
	return a
}

// LastSent returns the last table the router advertised, or nil
func (h *RouterHarness) LastSent() state.DistanceVector {
	if len(h.sent) == 0 {
		return nil
	}
	return h.sent[len(h.sent)-1]
}

func fin(c uint32) state.Distance {
	return state.Finite(c)
}

var inf = state.Unreachable
