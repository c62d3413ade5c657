package state

import (
	"net/netip"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// RouterCfg declares one router in a topology.
type RouterCfg struct {
	Id       RouterID       `yaml:"id"`
	Prefixes []netip.Prefix `yaml:"prefixes,omitempty"`
}

// LinkCfg declares one point-to-point link between two routers. Addresses
// are optional; when omitted the manager allocates a /31-style pair.
type LinkCfg struct {
	A     RouterID   `yaml:"a"`
	B     RouterID   `yaml:"b"`
	Cost  int        `yaml:"cost"`
	AAddr netip.Addr `yaml:"a_addr,omitempty"`
	BAddr netip.Addr `yaml:"b_addr,omitempty"`
}

// TopologyCfg is the full declarative description of a simulated network.
type TopologyCfg struct {
	Routers []RouterCfg `yaml:"routers"`
	Links   []LinkCfg   `yaml:"links,omitempty"`
	// LogPath, if set, duplicates log output into this file.
	LogPath string `yaml:"log_path,omitempty"`
	// HelloInterval overrides the default Hello cadence when positive. The
	// dead interval scales with it.
	HelloInterval time.Duration `yaml:"hello_interval,omitempty"`
}

// LoadTopology reads and validates a topology config file.
func LoadTopology(path string) (*TopologyCfg, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTopology(buf)
}

// ParseTopology parses and validates a yaml topology document.
func ParseTopology(buf []byte) (*TopologyCfg, error) {
	cfg := &TopologyCfg{}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, err
	}
	if err := TopologyValidator(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Router returns the config block for id, if present.
func (c *TopologyCfg) Router(id RouterID) (RouterCfg, bool) {
	for _, r := range c.Routers {
		if r.Id == id {
			return r, true
		}
	}
	return RouterCfg{}, false
}
