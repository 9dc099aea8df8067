package state

import (
	"fmt"
	"regexp"
)

var namePattern, _ = regexp.Compile("^[0-9a-z._-]+$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func SimConfigValidator(cfg *SimCfg) error {
	if len(cfg.Costs) == 0 {
		return fmt.Errorf("%w: topology must define at least one node", ErrConfig)
	}
	if !cfg.Bind.IsValid() {
		return fmt.Errorf("%w: bind address is invalid", ErrConfig)
	}
	for a, row := range cfg.Costs {
		if err := NameValidator(string(a)); err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
		for b, cost := range row {
			if _, ok := cfg.Costs[b]; !ok {
				return fmt.Errorf("%w: node %s links to undefined node %s", ErrConfig, a, b)
			}
			if cost < WireUnreachable {
				return fmt.Errorf("%w: cost %s -> %s is %d, must be non-negative or %d", ErrConfig, a, b, cost, WireUnreachable)
			}
			if a == b && cost != 0 {
				return fmt.Errorf("%w: cost from %s to itself must be 0, got %d", ErrConfig, a, cost)
			}
		}
	}
	return nil
}
