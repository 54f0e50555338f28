package core

import "fmt"

// Node is one vertex of the dependency graph: a resource kind plus the ID
// it carries within that kind's namespace.
type Node struct {
	Kind ResourceKind
	ID   ID
}

func (n Node) String() string {
	return fmt.Sprintf("%s %q", n.Kind, n.ID)
}

// depGraph accumulates nodes in registration order together with their
// dependency edges, then produces a topological order. Registration order
// doubles as the tiebreak so builds are deterministic.
type depGraph struct {
	nodes []Node
	index map[Node]int
	deps  map[Node][]Node
}

func newDepGraph() *depGraph {
	return &depGraph{
		index: make(map[Node]int),
		deps:  make(map[Node][]Node),
	}
}

// add registers a node. Registering the same node twice reports a
// duplicate within its namespace.
func (g *depGraph) add(n Node) error {
	if _, ok := g.index[n]; ok {
		return &DuplicateIDError{Kind: n.Kind, ID: n.ID}
	}
	g.index[n] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	return nil
}

// addDep records that n must be realised after dep. Both nodes must have
// been added already; a dangling dep reports an unknown ID.
func (g *depGraph) addDep(n, dep Node) error {
	if _, ok := g.index[dep]; !ok {
		return &UnknownIDError{Kind: dep.Kind, ID: dep.ID}
	}
	g.deps[n] = append(g.deps[n], dep)
	return nil
}

// sort returns every node in an order where dependencies strictly precede
// their dependents. A cycle fails with CyclicDependencyError naming it.
func (g *depGraph) sort() ([]Node, error) {
	remaining := make(map[Node]int, len(g.nodes)) // node -> unresolved dep count
	for _, n := range g.nodes {
		remaining[n] = len(g.deps[n])
	}

	order := make([]Node, 0, len(g.nodes))
	done := make(map[Node]bool, len(g.nodes))
	for len(order) < len(g.nodes) {
		progressed := false
		for _, n := range g.nodes {
			if done[n] || remaining[n] != 0 {
				continue
			}
			done[n] = true
			order = append(order, n)
			progressed = true
			for dependent, deps := range g.deps {
				for _, d := range deps {
					if d == n {
						remaining[dependent]--
					}
				}
			}
		}
		if !progressed {
			return nil, &CyclicDependencyError{Cycle: g.findCycle(done)}
		}
	}
	return order, nil
}

// findCycle walks dependency edges among unresolved nodes until one
// repeats, returning the loop with its first node repeated at the end.
func (g *depGraph) findCycle(done map[Node]bool) []Node {
	var start Node
	for _, n := range g.nodes {
		if !done[n] {
			start = n
			break
		}
	}

	seen := make(map[Node]int)
	path := []Node{}
	n := start
	for {
		if at, ok := seen[n]; ok {
			cycle := append([]Node{}, path[at:]...)
			return append(cycle, n)
		}
		seen[n] = len(path)
		path = append(path, n)
		n = next(g, done, n)
	}
}

// next picks the first unresolved dependency of n. Every unresolved node
// has at least one, otherwise sort would have made progress on it.
func next(g *depGraph, done map[Node]bool, n Node) Node {
	for _, d := range g.deps[n] {
		if !done[d] {
			return d
		}
	}
	return n
}
