package state

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

type NodeId string

// Distance is either a finite cost or Unreachable. The zero value is Unreachable.
type Distance struct {
	cost   uint32
	finite bool
}

func Finite(cost uint32) Distance {
	return Distance{cost: min(cost, MaxCost), finite: true}
}

// FromWire converts a wire/config integer, where any negative value means unreachable.
func FromWire(v int64) Distance {
	if v < 0 {
		return Unreachable
	}
	if v > int64(MaxCost) {
		return Finite(MaxCost)
	}
	return Finite(uint32(v))
}

func (d Distance) IsFinite() bool {
	return d.finite
}

// Cost returns the finite cost, and false if the distance is unreachable.
func (d Distance) Cost() (uint32, bool) {
	return d.cost, d.finite
}

func (d Distance) Wire() int64 {
	if !d.finite {
		return WireUnreachable
	}
	return int64(d.cost)
}

func (d Distance) String() string {
	if !d.finite {
		return "inf"
	}
	return strconv.FormatUint(uint64(d.cost), 10)
}

func (d Distance) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, d.Wire(), 10), nil
}

func (d *Distance) UnmarshalJSON(data []byte) error {
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("distance must be an integer: %w", err)
	}
	*d = FromWire(v)
	return nil
}

// IsBetter reports whether a is strictly shorter than b. Unreachable is never better than anything,
// and any finite distance is better than Unreachable.
func IsBetter(a, b Distance) bool {
	if !a.finite {
		return false
	}
	if !b.finite {
		return true
	}
	return a.cost < b.cost
}

// Add sums two distances. If either is unreachable the result is unreachable.
func Add(a, b Distance) Distance {
	if !a.finite || !b.finite {
		return Unreachable
	}
	return Finite(uint32(min(uint64(MaxCost), uint64(a.cost)+uint64(b.cost))))
}

// DistanceVector is one node's view of the cost to every other node
type DistanceVector map[NodeId]Distance

func (v DistanceVector) Clone() DistanceVector {
	if v == nil {
		return nil
	}
	return maps.Clone(v)
}

func (v DistanceVector) Equal(o DistanceVector) bool {
	return maps.Equal(v, o)
}

func (v DistanceVector) String() string {
	sb := strings.Builder{}
	sb.WriteString("{")
	for i, id := range slices.Sorted(maps.Keys(v)) {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", id, v[id]))
	}
	sb.WriteString("}")
	return sb.String()
}
