package wiring

// topologicalOrder returns the components in firing order.
//
// Kahn's algorithm with declaration order as the tie break: among all
// components whose producers are placed, the earliest declared goes next.
// The order is therefore a pure function of the declared graph.
//
// If some components cannot be placed the remainder contains a cycle, which
// is located with Tarjan's algorithm and reported as *CycleError.
func topologicalOrder(components []*Component) ([]*Component, error) {
	index := make(map[*Component]int, len(components))
	for i, c := range components {
		index[c] = i
	}

	// In-degree counts transmitters, so parallel edges are counted twice and
	// released twice.
	indegree := make([]int, len(components))
	for i, c := range components {
		indegree[i] = len(c.incoming)
	}

	placed := make([]bool, len(components))
	order := make([]*Component, 0, len(components))
	for len(order) < len(components) {
		next := -1
		for i := range components {
			if !placed[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		placed[next] = true
		c := components[next]
		order = append(order, c)
		for _, t := range c.outgoing {
			indegree[index[t.receiver]]--
		}
	}

	if len(order) == len(components) {
		return order, nil
	}

	graph := make(dependencyGraph)
	var names []string
	for i, c := range components {
		if placed[i] {
			continue
		}
		names = append(names, c.name)
		graph[c.name] = []string{}
		for _, t := range c.outgoing {
			if !placed[index[t.receiver]] {
				graph[c.name] = append(graph[c.name], t.receiver.name)
			}
		}
	}
	return nil, &CycleError{Path: findCycle(names, graph)}
}

// dependencyGraph maps component name → names of components it feeds.
type dependencyGraph map[string][]string

// findCycle returns one cycle through graph as a closed path, e.g. [a b a].
func findCycle(names []string, graph dependencyGraph) []string {
	for _, scc := range tarjanSCC(names, graph) {
		if len(scc) > 1 {
			return reconstructCyclePath(scc, graph)
		}
		if hasSelfLoop(scc[0], graph) {
			return []string{scc[0], scc[0]}
		}
	}
	// Unreachable: Kahn only stalls on a remainder that contains a cycle.
	return names
}

func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components. Nodes are visited in the
// order given so the reported cycle is deterministic.
func tarjanSCC(nodes []string, graph dependencyGraph) [][]string {
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

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath walks edges inside the SCC from its root (the last
// node popped) until it returns there.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
