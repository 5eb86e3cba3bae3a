// Package boundary recovers the ordered outer ring of a cluster from its
// chain adjacency.
//
// The chain is sparse and may branch: joints created during growth and
// formation leave extra edges between boundary particles. [BuildOrderedIDs]
// finds the longest simple cycle through the outer particles that returns to
// the first outer id, which is the ring a blob outline is drawn through.
//
// The search is exhaustive depth-first search. Each branch carries its own
// copy of the visited set, so sibling branches never see each other's state,
// and every branch either closes, dead-ends, or strictly grows its visited
// set. Worst-case cost is exponential in the local branching factor; use
// [WithBudget] to cap it.
package boundary

import "maps"

// Option configures BuildOrderedIDs.
type Option func(*search)

// WithBudget caps the number of branch expansions. Once exhausted the best
// cycle found so far is returned. A non-positive budget means unlimited.
func WithBudget(n int) Option {
	return func(s *search) { s.budget = n }
}

type search struct {
	chain  map[string][]string
	outer  map[string]bool
	start  string
	budget int
	spent  int
	best   []string
}

// BuildOrderedIDs returns the longest cycle that starts and ends at
// outerIDs[0], visiting only ids in outerIDs and following chain edges.
// The result lists k+1 ids for a cycle of k distinct ids (first == last).
//
// It returns nil when fewer than three outer ids are given or when no cycle
// of at least three ids closes back at the start. Among cycles of equal
// length the first one found wins.
func BuildOrderedIDs(chain map[string][]string, outerIDs []string, opts ...Option) []string {
	if len(outerIDs) < 3 {
		return nil
	}
	s := &search{
		chain: chain,
		outer: make(map[string]bool, len(outerIDs)),
		start: outerIDs[0],
	}
	for _, id := range outerIDs {
		s.outer[id] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	s.walk(s.start, []string{s.start}, map[string]bool{s.start: true})
	return s.best
}

func (s *search) exhausted() bool {
	return s.budget > 0 && s.spent >= s.budget
}

// walk extends path from id. visited belongs to this branch only.
func (s *search) walk(id string, path []string, visited map[string]bool) {
	s.spent++
	for _, next := range s.chain[id] {
		if s.exhausted() {
			return
		}
		if next == s.start {
			if len(path) >= 3 && len(path)+1 > len(s.best) {
				closed := make([]string, len(path)+1)
				copy(closed, path)
				closed[len(path)] = s.start
				s.best = closed
			}
			continue
		}
		if !s.outer[next] || visited[next] {
			continue
		}
		branch := maps.Clone(visited)
		branch[next] = true
		s.walk(next, append(path[:len(path):len(path)], next), branch)
	}
}
