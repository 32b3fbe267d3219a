package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/packc/internal/ir"
)

// RecursionWarning reports a set of functions that can call each other
// recursively.
//
// Recursion is legal: every call moves to a deeper frame, and the depth
// limit turns runaway recursion into a runtime error. The warning tells the
// author which functions consume frames so the limit can be sized.
type RecursionWarning struct {
	Path    []string `json:"path"`    // Call path: ["a_0", "b_1", "a_0"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeRecursion finds recursive call chains in a lowered module.
//
// The algorithm:
//  1. Build the function → callee graph from every Invoke of every fragment
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as recursion
//
// Warnings are sorted by their path so output is deterministic.
func AnalyzeRecursion(mod *ir.Module) []RecursionWarning {
	graph := buildCallGraph(mod)
	if len(graph) == 0 {
		return []RecursionWarning{}
	}

	sccs := tarjanSCC(graph)

	warnings := []RecursionWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, sccToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b RecursionWarning) int {
		return strings.Compare(strings.Join(a.Path, " "), strings.Join(b.Path, " "))
	})
	return warnings
}

// callGraph maps function ID → IDs of the functions it invokes, in first
// call order.
type callGraph map[string][]string

func buildCallGraph(mod *ir.Module) callGraph {
	graph := make(callGraph)
	for _, fn := range mod.All() {
		edges := []string{}
		for _, fr := range fn.Fragments() {
			for _, c := range fr.Commands {
				inv, ok := c.(*ir.Invoke)
				if ok && !slices.Contains(edges, inv.Callee.ID) {
					edges = append(edges, inv.Callee.ID)
				}
			}
		}
		graph[fn.ID] = edges
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph callGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Nodes are visited in sorted order and each SCC is rotated to start at
// its smallest ID.
func tarjanSCC(graph callGraph) [][]string {
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

		// v is a root node: pop the stack and create an SCC
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
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func sccToWarning(scc []string, graph callGraph) RecursionWarning {
	if len(scc) == 1 {
		id := scc[0]
		return RecursionWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("function calls itself: %s → %s", id, id),
			Level:   "info",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return RecursionWarning{
		Path:    path,
		Message: fmt.Sprintf("mutually recursive functions: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at first node in SCC, follow edges to other SCC members,
// continue until we return to start node.
func reconstructCyclePath(scc []string, graph callGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
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
