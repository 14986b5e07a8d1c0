package parser

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/fetchgraph/sketch/internal/diag"
	"github.com/fetchgraph/sketch/internal/rawval"
)

// FromValue wraps an already-structured Go value into a raw tree. The
// wrap is lossless for JSON-shaped values (nil, bool, numbers, strings,
// []any, map[string]any). Map keys are visited in sorted order so paths
// and normalization output are deterministic. Unsupported types produce
// an error diagnostic and a null node.
func FromValue(v any) (rawval.Node, diag.Diagnostics) {
	w := &valueWalker{}
	node := w.walk(v, "$")
	return node, w.diags
}

type valueWalker struct {
	diags diag.Diagnostics
}

func (w *valueWalker) walk(v any, path string) rawval.Node {
	switch val := v.(type) {
	case nil:
		return rawval.Node{Path: path, Value: rawval.Null{}}
	case bool:
		return rawval.Node{Path: path, Value: rawval.Bool(val)}
	case string:
		return rawval.Node{Path: path, Value: rawval.String(val)}
	case int:
		return rawval.Node{Path: path, Value: rawval.Int(int64(val))}
	case int32:
		return rawval.Node{Path: path, Value: rawval.Int(int64(val))}
	case int64:
		return rawval.Node{Path: path, Value: rawval.Int(val)}
	case float32:
		return w.walkFloat(float64(val), path)
	case float64:
		return w.walkFloat(val, path)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return rawval.Node{Path: path, Value: rawval.Int(n)}
		}
		if f, err := val.Float64(); err == nil {
			return rawval.Node{Path: path, Value: rawval.Float(f)}
		}
		return rawval.Node{Path: path, Value: rawval.String(val.String())}
	case []any:
		arr := make(rawval.Array, 0, len(val))
		for i, item := range val {
			arr = append(arr, w.walk(item, rawval.ElemPath(path, i)))
		}
		return rawval.Node{Path: path, Value: arr}
	case []string:
		arr := make(rawval.Array, 0, len(val))
		for i, item := range val {
			arr = append(arr, w.walk(item, rawval.ElemPath(path, i)))
		}
		return rawval.Node{Path: path, Value: arr}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(rawval.Object, 0, len(val))
		for _, k := range keys {
			obj = append(obj, rawval.Member{Key: k, Node: w.walk(val[k], rawval.ChildPath(path, k))})
		}
		return rawval.Node{Path: path, Value: obj}
	default:
		w.diags.Addf(diag.CodeParseError, diag.SeverityError, path, "Unsupported value type %T", v)
		return rawval.Node{Path: path, Value: rawval.Null{}}
	}
}

// walkFloat keeps JSON-decoded integral numbers as integers so fields
// like take survive a decode round-trip.
func (w *valueWalker) walkFloat(f float64, path string) rawval.Node {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return rawval.Node{Path: path, Value: rawval.Int(int64(f))}
	}
	return rawval.Node{Path: path, Value: rawval.Float(f)}
}
