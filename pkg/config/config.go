// Package config holds the simulation tunables and loads them from TOML or
// YAML files.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	emerr "github.com/matzehuels/emergence/pkg/errors"
)

// Config is the full set of simulation tunables.
type Config struct {
	// EntityCounts is the shape of the entity tree.
	EntityCounts Counts `toml:"entity_counts" yaml:"entity_counts"`
	// Radius is the radius of the root entity.
	Radius float64 `toml:"radius" yaml:"radius"`
	// DepthRadius overrides the entity radius per depth. Missing depths are
	// estimated from the tree.
	DepthRadius []float64 `toml:"depth_radius" yaml:"depth_radius"`
	// Colors is the colour per depth: "#rrggbb", "#rgb" or "random".
	Colors []string `toml:"colors" yaml:"colors"`

	ImpulsePerParticle     float64 `toml:"impulse_per_particle" yaml:"impulse_per_particle"`
	OvershootScaling       float64 `toml:"overshoot_scaling" yaml:"overshoot_scaling"`
	MaxDisplacementScaling float64 `toml:"max_displacement_scaling" yaml:"max_displacement_scaling"`
	InitialScaling         float64 `toml:"initial_scaling" yaml:"initial_scaling"`
	ParticleRestitution    float64 `toml:"particle_restitution" yaml:"particle_restitution"`
	MaxRelations           int     `toml:"max_relations" yaml:"max_relations"`
	// Slowdown divides the physics timestep.
	Slowdown float64 `toml:"slowdown" yaml:"slowdown"`

	TickRate         int   `toml:"tick_rate" yaml:"tick_rate"`
	Seed             int64 `toml:"seed" yaml:"seed"`
	InitialImpulse   bool  `toml:"initial_impulse" yaml:"initial_impulse"`
	ShowRelations    bool  `toml:"show_relations" yaml:"show_relations"`
	RelationInterval int   `toml:"relation_interval" yaml:"relation_interval"`
	ShowParticles    bool  `toml:"show_particles" yaml:"show_particles"`
	// BoundaryBudget caps the boundary search per hull rebuild; 0 is
	// unlimited.
	BoundaryBudget int `toml:"boundary_budget" yaml:"boundary_budget"`
}

// Default returns the built-in configuration: three levels of three, a
// root radius of 10 and a 60 Hz tick.
func Default() Config {
	return Config{
		EntityCounts:           Uniform(3, 3, 3),
		Radius:                 10,
		Colors:                 []string{"#4f6d7a", "#c0d6df", "#dd6e42", "#e8dab2"},
		ImpulsePerParticle:     0.02,
		OvershootScaling:       1,
		MaxDisplacementScaling: 0.5,
		InitialScaling:         1,
		ParticleRestitution:    0,
		MaxRelations:           200,
		Slowdown:               1,
		TickRate:               60,
		Seed:                   1,
		InitialImpulse:         true,
		ShowRelations:          false,
		RelationInterval:       120,
		ShowParticles:          true,
	}
}

// Load reads a config file, layering it over Default. The format is chosen
// by extension: .toml, .yaml or .yml.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := emerr.ValidatePath(path); err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, emerr.Wrap(emerr.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, emerr.Wrap(emerr.ErrCodeInvalidConfig, err, "read %s", path)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, emerr.Wrap(emerr.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, emerr.Wrap(emerr.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		return cfg, emerr.New(emerr.ErrCodeInvalidFormat, "unsupported config format %q", ext)
	}
	return cfg, cfg.Validate()
}

// Validate checks every field and returns the first problem.
func (c Config) Validate() error {
	if c.EntityCounts.IsZero() {
		return emerr.New(emerr.ErrCodeInvalidEntityCounts, "entity_counts is required")
	}
	if err := c.EntityCounts.Validate(); err != nil {
		return err
	}
	if c.Radius <= 0 {
		return invalid("radius must be positive, got %g", c.Radius)
	}
	for i, r := range c.DepthRadius {
		if r <= 0 {
			return invalid("depth_radius[%d] must be positive, got %g", i, r)
		}
	}
	for _, col := range c.Colors {
		if err := emerr.ValidateColor(col); err != nil {
			return err
		}
	}
	switch {
	case c.ImpulsePerParticle < 0:
		return invalid("impulse_per_particle must not be negative")
	case c.OvershootScaling < 0:
		return invalid("overshoot_scaling must not be negative")
	case c.MaxDisplacementScaling <= 0:
		return invalid("max_displacement_scaling must be positive")
	case c.InitialScaling < 0:
		return invalid("initial_scaling must not be negative")
	case c.ParticleRestitution < 0 || c.ParticleRestitution > 1:
		return invalid("particle_restitution must be in [0, 1], got %g", c.ParticleRestitution)
	case c.MaxRelations < 0:
		return invalid("max_relations must not be negative")
	case c.Slowdown <= 0:
		return invalid("slowdown must be positive, got %g", c.Slowdown)
	case c.TickRate <= 0:
		return invalid("tick_rate must be positive, got %d", c.TickRate)
	case c.ShowRelations && c.RelationInterval <= 0:
		return invalid("relation_interval must be positive when show_relations is set")
	case c.BoundaryBudget < 0:
		return invalid("boundary_budget must not be negative")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return emerr.New(emerr.ErrCodeInvalidConfig, format, args...)
}

// Color returns the configured colour for depth, or "" when unset.
func (c Config) Color(depth int) string {
	if depth < len(c.Colors) {
		return c.Colors[depth]
	}
	return ""
}

// TickSeconds returns the duration of one tick in seconds.
func (c Config) TickSeconds() float64 {
	return 1 / float64(c.TickRate)
}

// Encode renders c as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, emerr.Wrap(emerr.ErrCodeInternal, err, "encode config")
	}
	return buf.Bytes(), nil
}
