package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emerr "github.com/matzehuels/emergence/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParseCounts(t *testing.T) {
	tests := []struct {
		name      string
		in        any
		want      string
		particles int
		depth     int
	}{
		{"single level", []any{3}, "[3]", 3, 1},
		{"uniform", []any{2, 3}, "[[3], [3]]", 6, 2},
		{"nested", []any{[]any{3}, []any{4}, []any{5}}, "[[3], [4], [5]]", 12, 2},
		{"nested uniform", []any{[]any{int64(2), int64(3)}, []any{4}}, "[[[3], [3]], [4]]", 10, 3},
		{"yaml floats", []any{float64(3)}, "[3]", 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCounts(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
			assert.Equal(t, tt.particles, c.TotalParticles())
			assert.Equal(t, tt.depth, c.Depth())
			require.NoError(t, c.Validate())
		})
	}
}

func TestParseCountsErrors(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"empty", []any{}},
		{"not a list", 3},
		{"zero", []any{0}},
		{"mixed", []any{3, []any{2}}},
		{"fraction", []any{1.5}},
		{"nested empty", []any{[]any{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCounts(tt.in)
			require.Error(t, err)
			assert.True(t, emerr.Is(err, emerr.ErrCodeInvalidEntityCounts))
		})
	}
}

func TestShape(t *testing.T) {
	c := Nested(Uniform(3), Uniform(5), Uniform(2, 2))
	assert.Equal(t, []int{3, 5, 2}, c.Shape())
	assert.Equal(t, []int{3}, Uniform(3).Shape())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   emerr.Code
	}{
		{"no counts", func(c *Config) { c.EntityCounts = Counts{} }, emerr.ErrCodeInvalidEntityCounts},
		{"radius", func(c *Config) { c.Radius = 0 }, emerr.ErrCodeInvalidConfig},
		{"depth radius", func(c *Config) { c.DepthRadius = []float64{1, -1} }, emerr.ErrCodeInvalidConfig},
		{"color", func(c *Config) { c.Colors = []string{"blue"} }, emerr.ErrCodeInvalidColor},
		{"restitution", func(c *Config) { c.ParticleRestitution = 2 }, emerr.ErrCodeInvalidConfig},
		{"slowdown", func(c *Config) { c.Slowdown = 0 }, emerr.ErrCodeInvalidConfig},
		{"tick rate", func(c *Config) { c.TickRate = 0 }, emerr.ErrCodeInvalidConfig},
		{"relation interval", func(c *Config) { c.ShowRelations, c.RelationInterval = true, 0 }, emerr.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.code, emerr.GetCode(err))
		})
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
entity_counts = [[3], [4], [5]]
radius = 12.5
colors = ["#fff", "random"]
slowdown = 2
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "[[3], [4], [5]]", c.EntityCounts.String())
	assert.Equal(t, 12.5, c.Radius)
	assert.Equal(t, []string{"#fff", "random"}, c.Colors)
	assert.Equal(t, 2.0, c.Slowdown)
	assert.Equal(t, Default().TickRate, c.TickRate, "unset fields keep defaults")
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entity_counts: [3, 3]
radius: 4
show_relations: true
relation_interval: 30
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, c.EntityCounts.TotalParticles())
	assert.Equal(t, 4.0, c.Radius)
	assert.True(t, c.ShowRelations)
	assert.Equal(t, 30, c.RelationInterval)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.Equal(t, emerr.ErrCodeFileNotFound, emerr.GetCode(err))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{}`), 0o644))
	_, err = Load(bad)
	assert.Equal(t, emerr.ErrCodeInvalidFormat, emerr.GetCode(err))

	invalidRadius := filepath.Join(dir, "r.toml")
	require.NoError(t, os.WriteFile(invalidRadius, []byte("radius = -1\n"), 0o644))
	_, err = Load(invalidRadius)
	assert.Equal(t, emerr.ErrCodeInvalidConfig, emerr.GetCode(err))
}

func TestEncodeRoundTrip(t *testing.T) {
	c := Default()
	c.EntityCounts = Nested(Uniform(3), Uniform(2, 4))
	data, err := c.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), "entity_counts = [[3], [[4], [4]]]")

	path := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c.EntityCounts.String(), back.EntityCounts.String())
	assert.Equal(t, c.Radius, back.Radius)
}
