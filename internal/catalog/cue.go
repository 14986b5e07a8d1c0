package catalog

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// FromCUE builds a catalog from a CUE document with the same shape as
// the YAML form. CUE-authored catalogs get constraint checking for free:
// a schema package can constrain field types or relation keys and
// CompileBytes rejects violations before the catalog is built.
func FromCUE(data []byte, opts ...Option) (*Catalog, error) {
	ctx := cuecontext.New()
	val := ctx.CompileBytes(data)
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("compile catalog cue: %w", err)
	}

	entsVal := val.LookupPath(cue.ParsePath("entities"))
	if !entsVal.Exists() {
		return nil, fmt.Errorf("catalog cue: missing 'entities' field")
	}
	iter, err := entsVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("catalog cue: 'entities' must be a struct: %w", err)
	}

	var entities []Entity
	for iter.Next() {
		name := iter.Selector().Unquoted()
		entity, err := cueEntity(name, iter.Value())
		if err != nil {
			return nil, fmt.Errorf("catalog cue: entity %q: %w", name, err)
		}
		entities = append(entities, entity)
	}
	return New(entities, opts...)
}

// LoadCUE reads and compiles a CUE catalog file.
func LoadCUE(path string, opts ...Option) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return FromCUE(data, opts...)
}

func cueEntity(name string, val cue.Value) (Entity, error) {
	e := Entity{Name: name}

	if fieldsVal := val.LookupPath(cue.ParsePath("fields")); fieldsVal.Exists() {
		list, err := fieldsVal.List()
		if err != nil {
			return e, fmt.Errorf("fields must be a list: %w", err)
		}
		for list.Next() {
			f, err := cueField(list.Value())
			if err != nil {
				return e, err
			}
			e.Fields = append(e.Fields, f)
		}
	}

	if relsVal := val.LookupPath(cue.ParsePath("relations")); relsVal.Exists() {
		iter, err := relsVal.Fields()
		if err != nil {
			return e, fmt.Errorf("relations must be a struct: %w", err)
		}
		for iter.Next() {
			rel, err := cueRelation(iter.Selector().Unquoted(), iter.Value())
			if err != nil {
				return e, err
			}
			e.Relations = append(e.Relations, rel)
		}
	}
	return e, nil
}

func cueField(val cue.Value) (Field, error) {
	if val.Kind() == cue.StringKind {
		name, err := val.String()
		return Field{Name: name}, err
	}
	var f struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := val.Decode(&f); err != nil {
		return Field{}, fmt.Errorf("field must be a name or {name, type}: %w", err)
	}
	return Field{Name: f.Name, Type: f.Type}, nil
}

func cueRelation(name string, val cue.Value) (Relation, error) {
	rel := yamlRelation{}
	if val.Kind() == cue.StringKind {
		target, err := val.String()
		if err != nil {
			return Relation{}, err
		}
		rel.Target = target
		return rel.toRelation(name), nil
	}
	var r struct {
		Target  string `json:"target"`
		FromKey string `json:"from_key"`
		ToKey   string `json:"to_key"`
	}
	if err := val.Decode(&r); err != nil {
		return Relation{}, fmt.Errorf("relation %q must be a target or {target, from_key, to_key}: %w", name, err)
	}
	rel.Target, rel.FromKey, rel.ToKey = r.Target, r.FromKey, r.ToKey
	return rel.toRelation(name), nil
}
