// Package graph materializes the requirement graph around a course on demand.
package graph

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/prereq"
)

// CourseStore is the catalog contract used to validate requirement tokens.
type CourseStore interface {
	OfferedBySubjects(ctx context.Context, subjects []string) ([]course.Course, error)
	OfferedRequiring(ctx context.Context, subject string) ([]course.Course, error)
}

// Relation is how a node relates to the root.
type Relation string

// Relations.
const (
	RelPrerequisite Relation = "prerequisite"
	RelCorequisite  Relation = "corequisite"
	RelRequiredBy   Relation = "required_by"
)

// Node is a course reached from the root at a given depth.
type Node struct {
	Course   course.Course
	Relation Relation
	Depth    int
}

// Graph is the requirement neighbourhood of a root course.
type Graph struct {
	Root          course.Course
	Prerequisites []Node
	Corequisites  []Node
	RequiredBy    []Node
}

// Nodes returns all nodes: prerequisites, corequisites, then dependents.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.Prerequisites)+len(g.Corequisites)+len(g.RequiredBy))
	out = append(out, g.Prerequisites...)
	out = append(out, g.Corequisites...)
	return append(out, g.RequiredBy...)
}

// Service builds requirement graphs against the catalog.
type Service struct {
	store CourseStore
}

// New creates a graph service.
func New(store CourseStore) *Service {
	return &Service{store: store}
}

// Materialize walks requirements breadth-first up to maxDepth levels in both directions.
// Tokens that match no offered course are dropped. Every logical course appears at most
// once, at the depth it was first reached, so cycles in noisy requirement text terminate.
func (s *Service) Materialize(ctx context.Context, root *course.Course, maxDepth int) (Graph, error) {
	if maxDepth <= 0 {
		maxDepth = 1
	}
	g := Graph{
		Root:          *root,
		Prerequisites: []Node{},
		Corequisites:  []Node{},
		RequiredBy:    []Node{},
	}
	visited := course.NewTakenSet([]course.Course{*root})

	frontier := []course.Course{*root}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var preTokens, coTokens []string
		for i := range frontier {
			req := prereq.Parse(&frontier[i])
			preTokens = append(preTokens, req.Prerequisites...)
			coTokens = append(coTokens, req.Corequisites...)
		}

		pre, err := s.lookup(ctx, preTokens, visited)
		if err != nil {
			return Graph{}, err
		}
		co, err := s.lookup(ctx, coTokens, visited)
		if err != nil {
			return Graph{}, err
		}
		g.Prerequisites = appendNodes(g.Prerequisites, pre, RelPrerequisite, depth)
		g.Corequisites = appendNodes(g.Corequisites, co, RelCorequisite, depth)
		frontier = append(pre, co...)
	}

	frontier = []course.Course{*root}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []course.Course
		for i := range frontier {
			deps, err := s.requiredBy(ctx, &frontier[i], visited)
			if err != nil {
				return Graph{}, err
			}
			next = append(next, deps...)
		}
		g.RequiredBy = appendNodes(g.RequiredBy, next, RelRequiredBy, depth)
		frontier = next
	}

	return g, nil
}

// lookup resolves tokens to unvisited offered courses and marks them visited.
func (s *Service) lookup(ctx context.Context, tokens []string, visited course.TakenSet) ([]course.Course, error) {
	fresh := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !visited.Has(t) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	found, err := s.store.OfferedBySubjects(ctx, fresh)
	if err != nil {
		return nil, fmt.Errorf("lookup requirements: %w", err)
	}
	return claim(course.Dedupe(found), visited), nil
}

// requiredBy finds offered courses whose requirement text names c under any of its
// identities. The store match is a substring search, so each hit is confirmed by
// token extraction: "6.100" does not match a requirement on "6.1000".
func (s *Service) requiredBy(ctx context.Context, c *course.Course, visited course.TakenSet) ([]course.Course, error) {
	var confirmed []course.Course
	for _, id := range c.Identities() {
		hits, err := s.store.OfferedRequiring(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lookup dependents of %s: %w", id, err)
		}
		for _, h := range hits {
			if prereq.Mentions(h.Prerequisites, id) || prereq.Mentions(h.Corequisites, id) {
				confirmed = append(confirmed, h)
			}
		}
	}
	return claim(course.Dedupe(confirmed), visited), nil
}

// claim keeps courses not yet visited under any identity and marks them visited.
func claim(cs []course.Course, visited course.TakenSet) []course.Course {
	out := cs[:0]
	for i := range cs {
		if visited.Contains(&cs[i]) {
			continue
		}
		for _, id := range cs[i].Identities() {
			visited[id] = struct{}{}
		}
		out = append(out, cs[i])
	}
	return out
}

func appendNodes(nodes []Node, cs []course.Course, rel Relation, depth int) []Node {
	for i := range cs {
		nodes = append(nodes, Node{Course: cs[i], Relation: rel, Depth: depth})
	}
	return nodes
}
