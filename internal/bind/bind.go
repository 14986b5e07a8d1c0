// Package bind compiles a canonical sketch against an entity catalog
// into a relational query. Binding is the strict stage of the pipeline:
// where parse and normalize degrade soft, an unresolvable name here
// aborts with a coded Error.
package bind

import (
	"sort"
	"strings"

	"github.com/fetchgraph/sketch/internal/catalog"
	"github.com/fetchgraph/sketch/internal/relquery"
	"github.com/fetchgraph/sketch/internal/sketch"
)

// Compile binds sk against cat and produces the relational query.
// Every field is schema-verified, every joined entity reachable via a
// discovered join path, and every operator canonical. The first failure
// aborts with an *Error.
func Compile(sk sketch.Sketch, cat *catalog.Catalog) (relquery.Query, error) {
	root, ok := cat.Entity(sk.From)
	if !ok {
		return relquery.Query{}, unknownEntity(sk.From)
	}
	if sk.Take <= 0 {
		return relquery.Query{}, invalidLimit(sk.Take)
	}

	b := &binder{cat: cat, root: root, seen: make(map[string]bool)}

	sel, err := b.compileSelect(sk)
	if err != nil {
		return relquery.Query{}, err
	}

	// Requested joins register before filters so their aliases exist even
	// when no predicate touches them.
	for _, name := range sk.With {
		if _, _, err := b.joinTo(name); err != nil {
			return relquery.Query{}, err
		}
	}

	where := sk.Where
	if where == nil {
		where = sketch.All{}
	}
	filters, err := b.compileWhere(where)
	if err != nil {
		return relquery.Query{}, err
	}

	relations := b.relations
	sort.Slice(relations, func(i, j int) bool { return relations[i].Alias < relations[j].Alias })

	return relquery.Query{
		RootEntity: root.Name,
		Select:     sel,
		Relations:  relations,
		Filters:    filters,
		Limit:      sk.Take,
		Offset:     0,
	}, nil
}

type binder struct {
	cat  *catalog.Catalog
	root *catalog.Entity

	seen      map[string]bool
	relations []relquery.Relation
}

// compileSelect resolves the get list. A wildcard (or empty) get
// compiles to an empty select, the "all fields" sentinel downstream.
func (b *binder) compileSelect(sk sketch.Sketch) ([]string, error) {
	if sk.WantsAllFields() {
		return nil, nil
	}
	out := make([]string, 0, len(sk.Get))
	for _, name := range sk.Get {
		resolved, err := b.resolveField(name)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// joinTo makes the named relation or entity join-reachable from the
// root, registering every hop of the discovered path, and returns the
// final alias and target entity. Relation names resolve first; a
// relation need not share its target entity's name. The root itself is
// reachable with no alias.
func (b *binder) joinTo(name string) (string, *catalog.Entity, error) {
	if path, ok := b.cat.RelationPath(b.root.Name, name); ok {
		target, _ := b.cat.Entity(path[len(path)-1].Relation.Target)
		return b.registerPath(path), target, nil
	}

	target, ok := b.cat.Entity(name)
	if !ok {
		return "", nil, unresolvedField(name, "not a relation or entity in the catalog")
	}
	if target == b.root {
		return "", b.root, nil
	}
	path, ok := b.cat.JoinPath(b.root.Name, target.Name)
	if !ok {
		return "", nil, unresolvedField(name, "no join path from "+b.root.Name)
	}
	return b.registerPath(path), target, nil
}

// registerPath records every hop of a join path and returns the alias of
// its final entity. Each prefix of the path is its own relation:
// realizing the final hop requires every intermediate one.
func (b *binder) registerPath(path []catalog.Step) string {
	parentAlias := b.root.Name
	var relNames []string
	alias := ""
	for _, step := range path {
		relNames = append(relNames, step.Relation.Name)
		alias = b.root.Name + "_" + strings.Join(relNames, "_")
		if !b.seen[alias] {
			b.seen[alias] = true
			stepTarget, _ := b.cat.Entity(step.Relation.Target)
			b.relations = append(b.relations, relquery.Relation{
				Alias:   alias,
				Source:  parentAlias,
				Target:  stepTarget.Name,
				Name:    step.Relation.Name,
				FromKey: step.Relation.FromKey,
				ToKey:   step.Relation.ToKey,
			})
		}
		parentAlias = alias
	}
	return alias
}

// resolveField verifies a field reference and rewrites it to its
// entity-qualified form. "qual.field" resolves the qualifier as a
// relation reachable from the root first, then as a catalog entity, and
// joins to it. A bare name resolves on the nearest entity declaring it,
// starting with the root; a field found across the relation graph joins
// implicitly. Root fields qualify as "<root>.<field>", joined fields as
// "<alias>.<field>".
func (b *binder) resolveField(raw string) (string, error) {
	if i := strings.IndexByte(raw, '.'); i > 0 {
		qualifier, rest := raw[:i], raw[i+1:]
		_, isRelation := b.cat.RelationPath(b.root.Name, qualifier)
		ent, isEntity := b.cat.Entity(qualifier)
		switch {
		case !isRelation && isEntity && ent == b.root:
			f, ok := b.root.Field(rest)
			if !ok {
				return "", unresolvedField(raw, "no field "+rest+" on entity "+b.root.Name)
			}
			return b.root.Name + "." + f.Name, nil
		case isRelation || isEntity:
			alias, target, err := b.joinTo(qualifier)
			if err != nil {
				return "", err
			}
			f, ok := target.Field(rest)
			if !ok {
				return "", unresolvedField(raw, "no field "+rest+" on entity "+target.Name)
			}
			return alias + "." + f.Name, nil
		}
	}

	path, owner, ok := b.cat.FieldPath(b.root.Name, raw)
	if !ok {
		return "", unresolvedField(raw, "no entity reachable from "+b.root.Name+" declares it")
	}
	f, _ := owner.Field(raw)
	if len(path) == 0 {
		return b.root.Name + "." + f.Name, nil
	}
	return b.registerPath(path) + "." + f.Name, nil
}

// compileWhere lowers the predicate tree. Vacuous groups compile to nil
// and single-clause groups collapse to their clause, so the output
// carries no redundant nesting.
func (b *binder) compileWhere(expr sketch.WhereExpr) (relquery.Filter, error) {
	switch e := expr.(type) {
	case sketch.All:
		clauses, err := b.compileGroup(e.Exprs)
		if err != nil {
			return nil, err
		}
		switch len(clauses) {
		case 0:
			return nil, nil
		case 1:
			return clauses[0], nil
		}
		return relquery.AndGroup{Clauses: clauses}, nil
	case sketch.Any:
		clauses, err := b.compileGroup(e.Exprs)
		if err != nil {
			return nil, err
		}
		switch len(clauses) {
		case 0:
			return nil, nil
		case 1:
			return clauses[0], nil
		}
		return relquery.OrGroup{Clauses: clauses}, nil
	case sketch.Not:
		inner, err := b.compileWhere(e.Expr)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			inner = relquery.AndGroup{}
		}
		return relquery.NotGroup{Clause: inner}, nil
	case sketch.Predicate:
		return b.compilePredicate(e)
	default:
		return nil, nil
	}
}

func (b *binder) compileGroup(exprs []sketch.WhereExpr) ([]relquery.Filter, error) {
	var out []relquery.Filter
	for _, e := range exprs {
		f, err := b.compileWhere(e)
		if err != nil {
			return nil, err
		}
		if f != nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (b *binder) compilePredicate(p sketch.Predicate) (relquery.Filter, error) {
	if !sketch.IsCanonical(string(p.Op)) {
		return nil, invalidOperator(string(p.Op))
	}
	field, err := b.resolveField(p.Field)
	if err != nil {
		return nil, err
	}
	return relquery.Comparison{Field: field, Op: p.Op, Value: p.Value}, nil
}
