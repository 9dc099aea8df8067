package state

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/goccy/go-yaml"
)

// SimCfg is the configuration shared by the relay and the simulate command
type SimCfg struct {
	// Bind is the address the relay listens on, and the address nodes dial
	Bind netip.AddrPort `yaml:"bind"`
	// Costs lists the direct-link cost from each node to its neighbours. A missing cost or -1 means there is no link.
	Costs   map[NodeId]map[NodeId]int64 `yaml:"costs"`
	LogPath string                      `yaml:"log_path,omitempty"` // if not empty, logs are also written to this file
}

// DefaultSimCfg returns the six node network the simulator ships with. Its links are
// u-v 2, u-w 5, u-x 1, v-w 3, v-x 2, w-x 3, w-y 1, w-z 5, x-y 1 and y-z 2.
func DefaultSimCfg() *SimCfg {
	return &SimCfg{
		Bind: netip.AddrPortFrom(netip.IPv4Unspecified(), uint16(DefaultPort)),
		Costs: map[NodeId]map[NodeId]int64{
			"u": {"v": 2, "x": 1, "w": 5},
			"v": {"u": 2, "x": 2, "w": 3},
			"w": {"u": 5, "v": 3, "x": 3, "y": 1, "z": 5},
			"x": {"u": 1, "v": 2, "w": 3, "y": 1},
			"y": {"x": 1, "w": 1, "z": 2},
			"z": {"w": 5, "y": 2},
		},
	}
}

// Topology expands the configured costs into a full matrix. Every row holds every identity:
// a zero cost to itself, the configured cost to its neighbours and Unreachable for everything else.
func (c *SimCfg) Topology() Topology {
	topo := make(Topology, len(c.Costs))
	for a := range c.Costs {
		row := make(DistanceVector, len(c.Costs))
		for b := range c.Costs {
			row[b] = Unreachable
		}
		for b, cost := range c.Costs[a] {
			row[b] = FromWire(cost)
		}
		row[a] = Finite(0)
		topo[a] = row
	}
	return topo
}

// ExpandSimCfg fills in defaults for fields left empty
func ExpandSimCfg(cfg *SimCfg) {
	if !cfg.Bind.IsValid() {
		cfg.Bind = DefaultSimCfg().Bind
	}
}

func ParseSimCfg(data []byte) (*SimCfg, error) {
	cfg := &SimCfg{}
	err := yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	ExpandSimCfg(cfg)
	err = SimConfigValidator(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func ReadSimCfg(path string) (*SimCfg, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return ParseSimCfg(file)
}

func WriteSimCfg(path string, cfg *SimCfg) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
