package module

import (
	"fmt"
	"slices"
	"strings"
)

// dependencyGraph maps module name -> names it depends on, in sorted alias
// order.
type dependencyGraph map[string][]string

// Order returns a construction order for specs in which every module comes
// after all of its dependencies.
//
// The order is deterministic: modules are visited in declaration order and
// dependencies in sorted alias order. Order fails with DUPLICATE_MODULE,
// UNKNOWN_DEPENDENCY or CYCLIC_DEPENDENCY (self-dependency included).
func Order(specs []Spec) ([]string, error) {
	names := make([]string, 0, len(specs))
	index := make(map[string]Spec, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			return nil, &GraphError{Code: ErrCodeConstructionFailed, Message: "module spec has empty name"}
		}
		if _, dup := index[s.Name]; dup {
			return nil, &GraphError{
				Code:    ErrCodeDuplicateModule,
				Message: fmt.Sprintf("module %q declared more than once", s.Name),
				Module:  s.Name,
			}
		}
		index[s.Name] = s
		names = append(names, s.Name)
	}

	graph := make(dependencyGraph, len(specs))
	for _, name := range names {
		spec := index[name]
		edges := []string{}
		for _, alias := range sortedAliases(spec.Dependencies) {
			target := spec.Dependencies[alias]
			if _, ok := index[target]; !ok {
				return nil, &GraphError{
					Code:    ErrCodeUnknownDependency,
					Message: fmt.Sprintf("module %q depends on undeclared module %q (alias %q)", name, target, alias),
					Module:  name,
				}
			}
			edges = append(edges, target)
		}
		graph[name] = edges
	}

	if path := findCycle(graph, names); path != nil {
		return nil, &GraphError{
			Code:    ErrCodeCyclicDependency,
			Message: "module dependencies form a cycle",
			Module:  path[0],
			Path:    path,
		}
	}

	order := make([]string, 0, len(names))
	done := make(map[string]bool, len(names))
	var visit func(string)
	visit = func(n string) {
		if done[n] {
			return
		}
		done[n] = true
		for _, dep := range graph[n] {
			visit(dep)
		}
		order = append(order, n)
	}
	for _, n := range names {
		visit(n)
	}
	return order, nil
}

// Cycles returns every dependency cycle among specs, one path per strongly
// connected component, for diagnostics. Unknown dependencies are ignored.
func Cycles(specs []Spec) [][]string {
	names := make([]string, 0, len(specs))
	known := make(map[string]bool, len(specs))
	for _, s := range specs {
		if !known[s.Name] {
			known[s.Name] = true
			names = append(names, s.Name)
		}
	}
	graph := make(dependencyGraph, len(names))
	for _, s := range specs {
		for _, alias := range sortedAliases(s.Dependencies) {
			if target := s.Dependencies[alias]; known[target] {
				graph[s.Name] = append(graph[s.Name], target)
			}
		}
	}

	rank := declarationRank(names)
	var cycles [][]string
	for _, scc := range tarjanSCC(graph, names) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, cyclePath(scc, graph, rank))
		}
	}
	return cycles
}

// FormatCycle renders a cycle path as "a -> b -> a".
func FormatCycle(path []string) string {
	return strings.Join(path, " -> ")
}

func findCycle(graph dependencyGraph, names []string) []string {
	rank := declarationRank(names)
	for _, scc := range tarjanSCC(graph, names) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			return cyclePath(scc, graph, rank)
		}
	}
	return nil
}

func sortedAliases(deps map[string]string) []string {
	aliases := make([]string, 0, len(deps))
	for a := range deps {
		aliases = append(aliases, a)
	}
	slices.Sort(aliases)
	return aliases
}

func declarationRank(names []string) map[string]int {
	rank := make(map[string]int, len(names))
	for i, n := range names {
		rank[n] = i
	}
	return rank
}

func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components, visiting roots in the
// given order so the result is stable.
func tarjanSCC(graph dependencyGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath returns the shortest cycle through the SCC member declared
// first, closed on that member.
func cyclePath(scc []string, graph dependencyGraph, rank map[string]int) []string {
	start := slices.MinFunc(scc, func(a, b string) int { return rank[a] - rank[b] })
	if hasSelfLoop(start, graph) {
		return []string{start, start}
	}

	inSCC := make(map[string]bool, len(scc))
	for _, n := range scc {
		inSCC[n] = true
	}

	parent := map[string]string{}
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, w := range graph[u] {
			if !inSCC[w] {
				continue
			}
			if w == start {
				path := []string{start}
				for n := u; n != start; n = parent[n] {
					path = append(path, n)
				}
				slices.Reverse(path[1:])
				return append(path, start)
			}
			if !seen[w] {
				seen[w] = true
				parent[w] = u
				queue = append(queue, w)
			}
		}
	}
	return append(slices.Clone(scc), scc[0])
}
