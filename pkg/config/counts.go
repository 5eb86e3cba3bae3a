package config

import (
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	emerr "github.com/matzehuels/emergence/pkg/errors"
)

// Counts describes one compound entity of the tree. Exactly one of
// Particles or Children is set.
//
// In files the tree is a nested array. A list of plain numbers is uniform
// branching: [4, 3] is four compounds of three particles each, and [3] is
// three particles. A list of lists spells the children out one by one:
// [[3], [4], [5]] is three compounds holding 3, 4 and 5 particles.
type Counts struct {
	Particles int
	Children  []Counts
}

// Uniform returns the tree with levels[0] children at the top, levels[1]
// under each of those and so on. The last level counts particles.
func Uniform(levels ...int) Counts {
	if len(levels) == 0 {
		return Counts{}
	}
	if len(levels) == 1 {
		return Counts{Particles: levels[0]}
	}
	child := Uniform(levels[1:]...)
	c := Counts{Children: make([]Counts, levels[0])}
	for i := range c.Children {
		c.Children[i] = child.clone()
	}
	return c
}

// Nested returns a compound whose children are the given subtrees.
func Nested(children ...Counts) Counts {
	return Counts{Children: children}
}

func (c Counts) clone() Counts {
	out := Counts{Particles: c.Particles}
	if c.Children != nil {
		out.Children = make([]Counts, len(c.Children))
		for i, ch := range c.Children {
			out.Children[i] = ch.clone()
		}
	}
	return out
}

// IsZero reports whether no tree has been configured.
func (c Counts) IsZero() bool { return c.Particles == 0 && len(c.Children) == 0 }

// Len returns the number of direct children (compounds or particles).
func (c Counts) Len() int {
	if len(c.Children) > 0 {
		return len(c.Children)
	}
	return c.Particles
}

// Depth returns the number of compound levels, counting c itself.
func (c Counts) Depth() int {
	d := 0
	for _, ch := range c.Children {
		d = max(d, ch.Depth())
	}
	return d + 1
}

// Shape returns the largest branching factor found at each depth. It is
// the radix used for particle unique indices.
func (c Counts) Shape() []int {
	var shape []int
	var walk func(Counts, int)
	walk = func(n Counts, d int) {
		if d == len(shape) {
			shape = append(shape, 0)
		}
		shape[d] = max(shape[d], n.Len())
		for _, ch := range n.Children {
			walk(ch, d+1)
		}
	}
	walk(c, 0)
	return shape
}

// TotalParticles returns the number of leaf particles in the tree.
func (c Counts) TotalParticles() int {
	if len(c.Children) == 0 {
		return c.Particles
	}
	n := 0
	for _, ch := range c.Children {
		n += ch.TotalParticles()
	}
	return n
}

// Validate reports the first structural problem.
func (c Counts) Validate() error {
	return c.validate("root")
}

func (c Counts) validate(path string) error {
	if len(c.Children) > 0 {
		if c.Particles != 0 {
			return emerr.New(emerr.ErrCodeInvalidEntityCounts, "%s: has both particles and children", path)
		}
		for i, ch := range c.Children {
			if err := ch.validate(path + "." + strconv.Itoa(i)); err != nil {
				return err
			}
		}
		return nil
	}
	if c.Particles < 1 {
		return emerr.New(emerr.ErrCodeInvalidEntityCounts, "%s: needs at least one particle", path)
	}
	return nil
}

// String renders c in the nested array form accepted by Parse.
func (c Counts) String() string {
	var b strings.Builder
	c.write(&b)
	return b.String()
}

func (c Counts) write(b *strings.Builder) {
	b.WriteByte('[')
	if len(c.Children) == 0 {
		b.WriteString(strconv.Itoa(c.Particles))
	}
	for i, ch := range c.Children {
		if i > 0 {
			b.WriteString(", ")
		}
		ch.write(b)
	}
	b.WriteByte(']')
}

// ParseCounts converts a decoded nested array into a tree.
func ParseCounts(v any) (Counts, error) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return Counts{}, emerr.New(emerr.ErrCodeInvalidEntityCounts, "entity counts must be a non-empty array, got %v", v)
	}
	nums := make([]int, 0, len(list))
	for _, item := range list {
		n, ok := toInt(item)
		if !ok {
			break
		}
		nums = append(nums, n)
	}
	if len(nums) == len(list) {
		for _, n := range nums {
			if n < 1 {
				return Counts{}, emerr.New(emerr.ErrCodeInvalidEntityCounts, "entity counts must be positive, got %d", n)
			}
		}
		return Uniform(nums...), nil
	}
	if len(nums) > 0 {
		return Counts{}, emerr.New(emerr.ErrCodeInvalidEntityCounts, "cannot mix numbers and arrays in %v", v)
	}
	c := Counts{Children: make([]Counts, 0, len(list))}
	for _, item := range list {
		ch, err := ParseCounts(item)
		if err != nil {
			return Counts{}, err
		}
		c.Children = append(c.Children, ch)
	}
	return c, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

// UnmarshalTOML implements toml.Unmarshaler.
func (c *Counts) UnmarshalTOML(v any) error {
	parsed, err := ParseCounts(v)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalTOML implements toml.Marshaler.
func (c Counts) MarshalTOML() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Counts) UnmarshalYAML(n *yaml.Node) error {
	var v any
	if err := n.Decode(&v); err != nil {
		return err
	}
	parsed, err := ParseCounts(v)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
