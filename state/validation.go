package state

import (
	"fmt"
	"regexp"
)

var namePattern, _ = regexp.Compile("^[0-9a-z._-]+$")

// NameValidator checks that a router id is usable as a stable identifier.
func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

// TopologyValidator checks the structural invariants of a topology config:
// unique router ids, links referencing declared routers, no self-links, and
// positive link costs.
func TopologyValidator(cfg *TopologyCfg) error {
	seen := make(map[RouterID]bool, len(cfg.Routers))
	for _, r := range cfg.Routers {
		if err := NameValidator(string(r.Id)); err != nil {
			return err
		}
		if seen[r.Id] {
			return fmt.Errorf("duplicate router id %s", r.Id)
		}
		seen[r.Id] = true
		for _, p := range r.Prefixes {
			if !p.IsValid() {
				return fmt.Errorf("router %s has an invalid prefix", r.Id)
			}
		}
	}
	for _, l := range cfg.Links {
		if !seen[l.A] {
			return fmt.Errorf("link references unknown router %s", l.A)
		}
		if !seen[l.B] {
			return fmt.Errorf("link references unknown router %s", l.B)
		}
		if l.A == l.B {
			return fmt.Errorf("router %s cannot be linked to itself", l.A)
		}
		if l.Cost <= 0 {
			return fmt.Errorf("link %s-%s must have a positive cost, got %d", l.A, l.B, l.Cost)
		}
		if l.AAddr.IsValid() != l.BAddr.IsValid() {
			return fmt.Errorf("link %s-%s must set both addresses or neither", l.A, l.B)
		}
	}
	if cfg.HelloInterval < 0 {
		return fmt.Errorf("hello_interval must be positive, got %s", cfg.HelloInterval)
	}
	return nil
}
