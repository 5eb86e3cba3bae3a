package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer derives cache keys for simulation artifacts.
type Keyer interface {
	// SceneKey identifies a rendered scene of a simulation.
	SceneKey(configHash string, opts SceneKeyOpts) string
	// TreeKey identifies a rendered entity tree.
	TreeKey(configHash string, opts TreeKeyOpts) string
}

// SceneKeyOpts are the render inputs that change a scene artifact.
type SceneKeyOpts struct {
	Ticks     int    `json:"ticks"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Labels    bool   `json:"labels"`
	Particles bool   `json:"particles"`
	Reveal    int    `json:"reveal"`
}

// TreeKeyOpts are the render inputs that change a tree artifact.
type TreeKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// DefaultKeyer produces "scene:<sha256>" and "tree:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) SceneKey(configHash string, opts SceneKeyOpts) string {
	return hashKey("scene", configHash, opts)
}

func (DefaultKeyer) TreeKey(configHash string, opts TreeKeyOpts) string {
	return hashKey("tree", configHash, opts)
}

// hashKey joins prefix and the SHA-256 of the JSON-encoded parts.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
