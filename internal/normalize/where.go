package normalize

import (
	"github.com/fetchgraph/sketch/internal/diag"
	"github.com/fetchgraph/sketch/internal/rawval"
	"github.com/fetchgraph/sketch/internal/sketch"
)

// normalizeWhere lowers the three equivalent surface shapes of a where
// clause into the canonical tagged tree:
//
//	a. a single predicate tuple [field, value] / [field, op, value]
//	b. a list of such tuples, combined as an implicit conjunction
//	c. an explicit tree using all/any/not keys, applied recursively
//
// An absent or null where lowers to the vacuously-true All{}.
func (n *normalizer) normalizeWhere(node rawval.Node) sketch.WhereExpr {
	switch v := node.Value.(type) {
	case rawval.Null:
		return sketch.All{}
	case rawval.Array:
		if isPredicateTuple(v) {
			if pred, ok := n.normalizeTuple(v, node.Path); ok {
				return sketch.All{Exprs: []sketch.WhereExpr{pred}}
			}
			return sketch.All{}
		}
		return sketch.All{Exprs: n.normalizeGroupList(node)}
	case rawval.Object:
		return n.normalizeWhereObject(node, v)
	default:
		n.diags.Addf(diag.CodeBadWhereGroupType, diag.SeverityError, node.Path,
			"Invalid where; expected list or object, got %s", node.TypeName())
		return sketch.All{}
	}
}

// normalizeWhereObject handles the explicit all/any/not tree and the
// comparison-object form {field, op?, value}.
func (n *normalizer) normalizeWhereObject(node rawval.Node, obj rawval.Object) sketch.WhereExpr {
	if isComparisonObject(obj) {
		if pred, ok := n.normalizeComparisonObject(obj, node.Path); ok {
			return sketch.All{Exprs: []sketch.WhereExpr{pred}}
		}
		return sketch.All{}
	}

	var allNode, anyNode, notNode *rawval.Node
	seen := false
	for i := range obj {
		m := obj[i]
		switch m.Key {
		case "all":
			allNode, seen = &obj[i].Node, true
		case "any":
			anyNode, seen = &obj[i].Node, true
		case "not":
			notNode, seen = &obj[i].Node, true
		default:
			n.diags.Addf(diag.CodeUnknownKey, diag.SeverityWarning, m.Node.Path,
				"Unknown where key %q", m.Key)
		}
	}
	if !seen {
		n.diags.Add(diag.CodeEmptyWhereObject,
			"Where object must include 'all', 'any', or 'not' groups", node.Path, diag.SeverityWarning)
		return sketch.All{}
	}

	var components []sketch.WhereExpr
	if allNode != nil {
		components = append(components, n.normalizeGroupList(*allNode)...)
	}
	if anyNode != nil {
		anyExprs := n.normalizeGroupList(*anyNode)
		if allNode == nil && notNode == nil {
			return sketch.Any{Exprs: anyExprs}
		}
		components = append(components, sketch.Any{Exprs: anyExprs})
	}
	if notNode != nil {
		inner, ok := n.normalizeClauseOrGroup(*notNode)
		if ok {
			if allNode == nil && anyNode == nil {
				return sketch.Not{Expr: inner}
			}
			components = append(components, sketch.Not{Expr: inner})
		}
	}
	return sketch.All{Exprs: components}
}

// normalizeGroupList lowers a list of clauses or nested groups into a
// slice of expressions; non-list input is an error with an empty result.
func (n *normalizer) normalizeGroupList(node rawval.Node) []sketch.WhereExpr {
	arr, ok := node.Value.(rawval.Array)
	if !ok {
		n.diags.Addf(diag.CodeBadWhereGroupType, diag.SeverityError, node.Path,
			"Where group must be a list of clauses, got %s", node.TypeName())
		return nil
	}
	var out []sketch.WhereExpr
	for _, item := range arr {
		if expr, ok := n.normalizeClauseOrGroup(item); ok {
			out = append(out, expr)
		}
	}
	return out
}

func (n *normalizer) normalizeClauseOrGroup(node rawval.Node) (sketch.WhereExpr, bool) {
	switch v := node.Value.(type) {
	case rawval.Array:
		if tupleShaped(v) {
			if pred, ok := n.normalizeTuple(v, node.Path); ok {
				return pred, true
			}
			return nil, false
		}
		// A nested list is a group of clauses, e.g. {not: [[a,1],[b,2]]}.
		return sketch.All{Exprs: n.normalizeGroupList(node)}, true
	case rawval.Object:
		if isComparisonObject(v) {
			if pred, ok := n.normalizeComparisonObject(v, node.Path); ok {
				return pred, true
			}
			return nil, false
		}
		return n.normalizeWhereObject(node, v), true
	default:
		n.diags.Addf(diag.CodeBadClauseArity, diag.SeverityError, node.Path,
			"Clause must be a list, got %s", node.TypeName())
		return nil, false
	}
}

// normalizeTuple lowers [field, value] and [field, op, value] tuples.
// Two-element tuples imply the eq operator.
func (n *normalizer) normalizeTuple(arr rawval.Array, path string) (sketch.WhereExpr, bool) {
	if len(arr) != 2 && len(arr) != 3 {
		n.diags.Add(diag.CodeBadClauseArity,
			"Clause must contain 2 or 3 items", path, diag.SeverityError)
		return nil, false
	}

	fieldVal, ok := arr[0].Value.(rawval.String)
	if !ok || fieldVal == "" {
		n.diags.Addf(diag.CodeBadClausePath, diag.SeverityError, arr[0].Path,
			"Clause field must be a non-empty string, got %s", arr[0].TypeName())
		return nil, false
	}

	op := sketch.OpEq
	valueNode := arr[1]
	if len(arr) == 3 {
		rawOp, ok := arr[1].Value.(rawval.String)
		if !ok {
			n.diags.Addf(diag.CodeUnknownOp, diag.SeverityError, arr[1].Path,
				"Operator must be a string, got %s", arr[1].TypeName())
			return nil, false
		}
		op, ok = n.resolveOperator(string(rawOp), arr[1].Path)
		if !ok {
			return nil, false
		}
		valueNode = arr[2]
	}

	value, ok := n.normalizeValue(valueNode)
	if !ok {
		return nil, false
	}
	return sketch.Predicate{Field: string(fieldVal), Op: op, Value: value}, true
}

// normalizeComparisonObject lowers {field, op?, value, entity?} objects.
// An entity key prefixes the field the way a dotted qualifier would.
func (n *normalizer) normalizeComparisonObject(obj rawval.Object, path string) (sketch.WhereExpr, bool) {
	fieldNode, _ := obj.Get("field")
	fieldVal, ok := fieldNode.Value.(rawval.String)
	if !ok || fieldVal == "" {
		n.diags.Add(diag.CodeBadClausePath,
			"Comparison field must be a non-empty string", path+".field", diag.SeverityError)
		return nil, false
	}
	field := string(fieldVal)

	if entityNode, ok := obj.Get("entity"); ok {
		if entity, ok := entityNode.Value.(rawval.String); ok && entity != "" {
			prefix := string(entity) + "."
			if len(field) < len(prefix) || field[:len(prefix)] != prefix {
				field = prefix + field
			}
		}
	}

	op := sketch.OpEq
	if opNode, ok := obj.Get("op"); ok {
		rawOp, isStr := opNode.Value.(rawval.String)
		if !isStr {
			n.diags.Addf(diag.CodeUnknownOp, diag.SeverityError, opNode.Path,
				"Operator must be a string, got %s", opNode.TypeName())
			return nil, false
		}
		op, ok = n.resolveOperator(string(rawOp), opNode.Path)
		if !ok {
			return nil, false
		}
	}

	valueNode, _ := obj.Get("value")
	value, ok := n.normalizeValue(valueNode)
	if !ok {
		return nil, false
	}
	return sketch.Predicate{Field: field, Op: op, Value: value}, true
}

// normalizeValue converts a raw node into a predicate value: a scalar or
// a flat array of scalars. Objects and nested arrays are rejected.
func (n *normalizer) normalizeValue(node rawval.Node) (sketch.Value, bool) {
	switch v := node.Value.(type) {
	case rawval.Null:
		return sketch.Null{}, true
	case rawval.Bool:
		return sketch.Bool(v), true
	case rawval.Int:
		return sketch.Int(v), true
	case rawval.Float:
		return sketch.Float(v), true
	case rawval.String:
		return sketch.String(v), true
	case rawval.Array:
		out := make(sketch.Array, 0, len(v))
		for _, item := range v {
			switch iv := item.Value.(type) {
			case rawval.Null:
				out = append(out, sketch.Null{})
			case rawval.Bool:
				out = append(out, sketch.Bool(iv))
			case rawval.Int:
				out = append(out, sketch.Int(iv))
			case rawval.Float:
				out = append(out, sketch.Float(iv))
			case rawval.String:
				out = append(out, sketch.String(iv))
			default:
				n.diags.Addf(diag.CodeBadClauseValue, diag.SeverityError, item.Path,
					"Array values must contain scalars only, got %s", item.TypeName())
				return nil, false
			}
		}
		return out, true
	default:
		n.diags.Addf(diag.CodeBadClauseValue, diag.SeverityError, node.Path,
			"Comparison value must be a scalar or array, got %s", node.TypeName())
		return nil, false
	}
}

// tupleShaped reports whether arr reads as a predicate tuple attempt: it
// starts with a string field name. Arity is normalizeTuple's problem, so
// a malformed tuple yields one diagnostic rather than one per element.
func tupleShaped(arr rawval.Array) bool {
	if len(arr) == 0 {
		return false
	}
	_, ok := arr[0].Value.(rawval.String)
	return ok
}

// isPredicateTuple distinguishes a bare [field, ...] tuple from a list
// of clauses at the top of a where: a tuple is 2 or 3 items long and
// starts with a string field name; a clause list holds arrays or
// objects in every position.
func isPredicateTuple(arr rawval.Array) bool {
	return (len(arr) == 2 || len(arr) == 3) && tupleShaped(arr)
}
