// Package relsql renders a compiled relational query as parameterized
// SQL in the SQLite dialect. It is a reference rendering for debugging
// and for callers that execute against SQLite directly; richer planners
// consume the relational query itself.
package relsql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fetchgraph/sketch/internal/relquery"
	"github.com/fetchgraph/sketch/internal/sketch"
)

// Statement is a parameterized SQL statement. Values are never
// interpolated into the text; they travel in Args positionally.
type Statement struct {
	SQL  string
	Args []any
}

// Render renders q as a single SELECT. Every statement carries an
// ORDER BY so result order is deterministic.
func Render(q relquery.Query) (Statement, error) {
	r := &renderer{}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(r.selectList(q))
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(q.RootEntity))

	for _, rel := range q.Relations {
		fmt.Fprintf(&b, " JOIN %s AS %s ON %s.%s = %s.%s",
			quoteIdent(rel.Target), quoteIdent(rel.Alias),
			quoteIdent(rel.Source), quoteIdent(rel.FromKey),
			quoteIdent(rel.Alias), quoteIdent(rel.ToKey))
	}

	if q.Filters != nil {
		where, err := r.filter(q.Filters)
		if err != nil {
			return Statement{}, err
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}

	b.WriteString(" ORDER BY 1 ASC")
	b.WriteString(" LIMIT ")
	b.WriteString(strconv.Itoa(q.Limit))
	if q.Offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(q.Offset))
	}

	return Statement{SQL: b.String(), Args: r.args}, nil
}

type renderer struct {
	args []any
}

func (r *renderer) selectList(q relquery.Query) string {
	if len(q.Select) == 0 || (len(q.Select) == 1 && q.Select[0] == sketch.Wildcard) {
		if len(q.Relations) > 0 {
			// Joins widen the row; keep the projection on the root.
			return quoteIdent(q.RootEntity) + ".*"
		}
		return "*"
	}
	parts := make([]string, 0, len(q.Select))
	for _, f := range q.Select {
		parts = append(parts, quoteField(f))
	}
	return strings.Join(parts, ", ")
}

func (r *renderer) filter(f relquery.Filter) (string, error) {
	switch node := f.(type) {
	case relquery.Comparison:
		return r.comparison(node)
	case relquery.AndGroup:
		return r.group(node.Clauses, " AND ", "1=1")
	case relquery.OrGroup:
		return r.group(node.Clauses, " OR ", "1=0")
	case relquery.NotGroup:
		inner, err := r.filter(node.Clause)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	default:
		return "", fmt.Errorf("unsupported filter node %T", f)
	}
}

func (r *renderer) group(clauses []relquery.Filter, sep, empty string) (string, error) {
	if len(clauses) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		s, err := r.filter(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (r *renderer) comparison(c relquery.Comparison) (string, error) {
	field := quoteField(c.Field)
	val := sketch.Unwrap(c.Value)

	switch c.Op {
	case sketch.OpEq:
		if val == nil {
			return field + " IS NULL", nil
		}
		return field + " = " + r.param(val), nil
	case sketch.OpNe:
		if val == nil {
			return field + " IS NOT NULL", nil
		}
		return field + " != " + r.param(val), nil
	case sketch.OpLt, sketch.OpBefore:
		return field + " < " + r.param(val), nil
	case sketch.OpLte:
		return field + " <= " + r.param(val), nil
	case sketch.OpGt, sketch.OpAfter:
		return field + " > " + r.param(val), nil
	case sketch.OpGte:
		return field + " >= " + r.param(val), nil
	case sketch.OpContains:
		return field + " LIKE " + r.param("%"+textOf(val)+"%"), nil
	case sketch.OpStarts:
		return field + " LIKE " + r.param(textOf(val)+"%"), nil
	case sketch.OpEnds:
		return field + " LIKE " + r.param("%"+textOf(val)), nil
	case sketch.OpIs:
		// Case-insensitive equality, per the query's contract.
		return "lower(" + field + ") = lower(" + r.param(val) + ")", nil
	case sketch.OpIn:
		return r.inList(field, c.Value, false)
	case sketch.OpNotIn:
		return r.inList(field, c.Value, true)
	case sketch.OpBetween:
		arr, ok := c.Value.(sketch.Array)
		if !ok || len(arr) != 2 {
			return "", fmt.Errorf("between on %s requires a two-element array", c.Field)
		}
		return field + " BETWEEN " + r.param(sketch.Unwrap(arr[0])) +
			" AND " + r.param(sketch.Unwrap(arr[1])), nil
	case sketch.OpSimilar:
		return "", fmt.Errorf("operator %q has no SQL rendering", c.Op)
	default:
		return "", fmt.Errorf("unsupported operator %q", c.Op)
	}
}

func (r *renderer) inList(field string, value sketch.Value, negate bool) (string, error) {
	arr, ok := value.(sketch.Array)
	if !ok {
		arr = sketch.Array{value}
	}
	if len(arr) == 0 {
		// Vacuous membership: nothing is in the empty set.
		if negate {
			return "1=1", nil
		}
		return "1=0", nil
	}
	params := make([]string, 0, len(arr))
	for _, v := range arr {
		params = append(params, r.param(sketch.Unwrap(v)))
	}
	op := " IN "
	if negate {
		op = " NOT IN "
	}
	return field + op + "(" + strings.Join(params, ", ") + ")", nil
}

func (r *renderer) param(v any) string {
	r.args = append(r.args, v)
	return "?"
}

func textOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// quoteField quotes an alias-qualified field part by part.
func quoteField(f string) string {
	parts := strings.Split(f, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
