// Package config loads the hangar settings snapshot. Settings are immutable
// at runtime; a reload produces a fresh snapshot, never in-place mutation.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Zone is a named sphere with independent save/load permission flags.
type Zone struct {
	Name   string  `yaml:"name"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Z      float64 `yaml:"z"`
	Radius float64 `yaml:"radius"`

	AllowSave bool `yaml:"allow_save"`
	AllowLoad bool `yaml:"allow_load"`
}

// Limits are the hangar inventory quotas. Zero means unlimited.
type Limits struct {
	MaxSlots       int `yaml:"max_slots"`
	MaxSmallGrids  int `yaml:"max_small_grids"`
	MaxLargeGrids  int `yaml:"max_large_grids"`
	MaxStaticGrids int `yaml:"max_static_grids"`
	MaxBlocks      int `yaml:"max_blocks"`
	MaxPCU         int `yaml:"max_pcu"`
}

// Settings is the admission policy snapshot read by every pipeline stage.
type Settings struct {
	Enabled bool `yaml:"enabled"`

	AllowInGravity bool    `yaml:"allow_in_gravity"`
	MaxGravity     float64 `yaml:"max_gravity"` // in g; 0 = unlimited

	SaveCooldownSec int `yaml:"save_cooldown_sec"`

	// Hostile proximity. PlayerDistance gates the cheap player scan,
	// GridDistance + GridMinBlocks together gate the spatial grid scan.
	PlayerDistance float64 `yaml:"player_distance_m"`
	GridDistance   float64 `yaml:"grid_distance_m"`
	GridMinBlocks  int     `yaml:"grid_min_blocks"`

	Limits Limits `yaml:"limits"`

	Zones []Zone `yaml:"zones"`
}

// Load reads settings.yaml and validates the zone list.
func Load(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("settings.yaml: %w", err)
	}
	for i, z := range s.Zones {
		if z.Radius <= 0 {
			return nil, fmt.Errorf("settings.yaml: zone %q (index %d): radius must be > 0", z.Name, i)
		}
	}
	return &s, nil
}

// Runtime holds deployment-level settings taken from the environment.
type Runtime struct {
	Addr      string `env:"HANGARD_ADDR" envDefault:":8080"`
	DataDir   string `env:"HANGARD_DATA" envDefault:"./data"`
	NodeID    string `env:"HANGARD_NODE_ID" envDefault:"node_1"`
	PeerWSURL string `env:"HANGARD_PEER_WS"`
}

func LoadRuntime() (Runtime, error) {
	var r Runtime
	if err := env.Parse(&r); err != nil {
		return r, fmt.Errorf("runtime env: %w", err)
	}
	return r, nil
}
