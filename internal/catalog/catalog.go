// Package catalog holds the entity catalog the binder compiles sketches
// against: entities, their fields, and the named relations between them.
//
// Catalogs load from YAML or CUE documents, or by introspecting a SQLite
// database. All name lookups are insensitive to case and surrounding
// whitespace; see normalizeName.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Field is one queryable attribute of an entity.
type Field struct {
	Name string
	Type string
}

// Relation is a named, directed edge from its owning entity to Target.
// FromKey is the column on the owning entity, ToKey the column on the
// target that the join equates.
type Relation struct {
	Name    string
	Target  string
	FromKey string
	ToKey   string
}

// Entity is one queryable entity with its fields and outgoing relations.
type Entity struct {
	Name      string
	Fields    []Field
	Relations []Relation

	fieldIdx    map[string]int
	relationIdx map[string]int
}

// Step is one hop of a join path: the relation taken and the entity it
// was taken from.
type Step struct {
	From     string
	Relation Relation
}

// Catalog is an immutable entity registry with memoized join-path
// discovery. Safe for concurrent use.
type Catalog struct {
	entities map[string]*Entity
	declared []string

	// declaredOrder switches BFS neighbor expansion from lexical to
	// declaration order, changing which equal-length path wins.
	declaredOrder bool

	mu    sync.RWMutex
	paths map[string][]Step
}

// Option adjusts catalog construction.
type Option func(*Catalog)

// WithDeclaredTieBreak resolves equal-length join paths by relation
// declaration order instead of the default lexical order.
func WithDeclaredTieBreak() Option {
	return func(c *Catalog) { c.declaredOrder = true }
}

// New builds a catalog from entity definitions. Entity names must be
// unique after normalization and every relation target must resolve.
func New(entities []Entity, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		entities: make(map[string]*Entity, len(entities)),
		paths:    make(map[string][]Step),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i := range entities {
		e := entities[i]
		key := normalizeName(e.Name)
		if key == "" {
			return nil, fmt.Errorf("entity %d has an empty name", i)
		}
		if _, dup := c.entities[key]; dup {
			return nil, fmt.Errorf("duplicate entity %q", e.Name)
		}
		e.index()
		c.entities[key] = &e
		c.declared = append(c.declared, key)
	}

	for _, key := range c.declared {
		e := c.entities[key]
		for _, r := range e.Relations {
			if _, ok := c.entities[normalizeName(r.Target)]; !ok {
				return nil, fmt.Errorf("entity %q: relation %q targets unknown entity %q",
					e.Name, r.Name, r.Target)
			}
		}
	}
	return c, nil
}

func (e *Entity) index() {
	e.fieldIdx = make(map[string]int, len(e.Fields))
	for i, f := range e.Fields {
		e.fieldIdx[normalizeName(f.Name)] = i
	}
	e.relationIdx = make(map[string]int, len(e.Relations))
	for i, r := range e.Relations {
		e.relationIdx[normalizeName(r.Name)] = i
	}
}

// Entity resolves an entity by name.
func (c *Catalog) Entity(name string) (*Entity, bool) {
	e, ok := c.entities[normalizeName(name)]
	return e, ok
}

// Entities returns all entity names in declaration order.
func (c *Catalog) Entities() []string {
	out := make([]string, 0, len(c.declared))
	for _, key := range c.declared {
		out = append(out, c.entities[key].Name)
	}
	return out
}

// Field resolves a field on the entity by name.
func (e *Entity) Field(name string) (Field, bool) {
	i, ok := e.fieldIdx[normalizeName(name)]
	if !ok {
		return Field{}, false
	}
	return e.Fields[i], true
}

// Relation resolves an outgoing relation on the entity by name.
func (e *Entity) Relation(name string) (Relation, bool) {
	i, ok := e.relationIdx[normalizeName(name)]
	if !ok {
		return Relation{}, false
	}
	return e.Relations[i], true
}

// JoinPath returns the shortest relation path from one entity to
// another. Among equal-length paths the lexically smallest relation-name
// sequence wins (or the first by declaration order under
// WithDeclaredTieBreak). A path from an entity to itself is empty.
// Results are memoized.
func (c *Catalog) JoinPath(from, to string) ([]Step, bool) {
	src, ok := c.entities[normalizeName(from)]
	if !ok {
		return nil, false
	}
	dst, ok := c.entities[normalizeName(to)]
	if !ok {
		return nil, false
	}
	srcKey, dstKey := normalizeName(src.Name), normalizeName(dst.Name)
	if srcKey == dstKey {
		return []Step{}, true
	}

	path := c.memoized("e\x00"+srcKey+"\x00"+dstKey, func() []Step {
		return c.bfs(srcKey, func(key string) bool { return key == dstKey })
	})
	return path, path != nil
}

// FieldPath finds the nearest entity, starting from root, that declares
// the named field, and returns the relation path to it. The root itself
// is nearest of all: a field declared on the root yields an empty path.
// The same shortest-path and tie-break rules as JoinPath apply, so a
// bare field name always resolves to the same join.
func (c *Catalog) FieldPath(root, field string) ([]Step, *Entity, bool) {
	src, ok := c.entities[normalizeName(root)]
	if !ok {
		return nil, nil, false
	}
	fieldKey := normalizeName(field)
	srcKey := normalizeName(src.Name)
	if _, ok := src.Field(field); ok {
		return []Step{}, src, true
	}

	hasField := func(key string) bool {
		_, ok := c.entities[key].fieldIdx[fieldKey]
		return ok
	}
	path := c.memoized("f\x00"+srcKey+"\x00"+fieldKey, func() []Step {
		return c.bfs(srcKey, hasField)
	})
	if path == nil {
		return nil, nil, false
	}
	owner := c.entities[normalizeName(path[len(path)-1].Relation.Target)]
	return path, owner, true
}

// RelationPath resolves a relation by name from the root's point of
// view and returns the full path ending with that relation. A relation
// declared on the root wins outright; otherwise the search finds the
// nearest declaring entity under the same shortest-path and tie-break
// rules as JoinPath. Relation names are their own namespace here: a
// relation need not share its target entity's name.
func (c *Catalog) RelationPath(root, name string) ([]Step, bool) {
	src, ok := c.entities[normalizeName(root)]
	if !ok {
		return nil, false
	}
	relKey := normalizeName(name)
	srcKey := normalizeName(src.Name)

	path := c.memoized("r\x00"+srcKey+"\x00"+relKey, func() []Step {
		if r, ok := src.Relation(name); ok {
			return []Step{{From: src.Name, Relation: r}}
		}
		declares := func(key string) bool {
			_, ok := c.entities[key].relationIdx[relKey]
			return ok
		}
		toOwner := c.bfs(srcKey, declares)
		if toOwner == nil {
			return nil
		}
		owner := c.entities[normalizeName(toOwner[len(toOwner)-1].Relation.Target)]
		r, _ := owner.Relation(name)
		return append(toOwner, Step{From: owner.Name, Relation: r})
	})
	return path, path != nil
}

func (c *Catalog) memoized(key string, compute func() []Step) []Step {
	c.mu.RLock()
	cached, hit := c.paths[key]
	c.mu.RUnlock()
	if hit {
		return cached
	}
	path := compute()
	c.mu.Lock()
	c.paths[key] = path
	c.mu.Unlock()
	return path
}

// bfs explores relations breadth-first until match accepts an entity.
// Neighbors of each node are expanded in tie-break order, so within a
// level the queue holds paths in that order and the first arrival at a
// matching entity is the winner.
func (c *Catalog) bfs(src string, match func(key string) bool) []Step {
	type queued struct {
		entity string
		path   []Step
	}
	visited := map[string]bool{src: true}
	queue := []queued{{entity: src, path: []Step{}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		e := c.entities[cur.entity]
		for _, r := range c.orderedRelations(e) {
			targetKey := normalizeName(r.Target)
			if visited[targetKey] {
				continue
			}
			visited[targetKey] = true
			path := append(append([]Step(nil), cur.path...), Step{From: e.Name, Relation: r})
			if match(targetKey) {
				return path
			}
			queue = append(queue, queued{entity: targetKey, path: path})
		}
	}
	return nil
}

func (c *Catalog) orderedRelations(e *Entity) []Relation {
	if c.declaredOrder {
		return e.Relations
	}
	out := append([]Relation(nil), e.Relations...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// normalizeName canonicalizes an identifier for lookup: NFC form,
// lower case, trimmed, with internal whitespace runs collapsed.
func normalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(norm.NFC.String(name)))
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
