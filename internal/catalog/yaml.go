package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FromYAML builds a catalog from a YAML document of the form:
//
//	entities:
//	  fbs:
//	    fields: [id, name, status]
//	    relations:
//	      as: {target: as, from_key: as_id, to_key: id}
//
// Field entries are either a bare name or a {name, type} mapping.
// Relation entries are either a bare target name, which implies
// from_key "<name>_id" and to_key "id", or a full mapping whose target
// defaults to the relation name. Mapping order is preserved so the
// declared tie-break stays meaningful.
func FromYAML(data []byte, opts ...Option) (*Catalog, error) {
	var doc struct {
		Entities yaml.Node `yaml:"entities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	if doc.Entities.Kind == 0 {
		return nil, fmt.Errorf("catalog yaml: missing 'entities' key")
	}
	if doc.Entities.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("catalog yaml: 'entities' must be a mapping")
	}

	var entities []Entity
	for i := 0; i < len(doc.Entities.Content); i += 2 {
		keyNode, valNode := doc.Entities.Content[i], doc.Entities.Content[i+1]
		var body yamlEntity
		if err := valNode.Decode(&body); err != nil {
			return nil, fmt.Errorf("catalog yaml: entity %q: %w", keyNode.Value, err)
		}
		entities = append(entities, body.toEntity(keyNode.Value))
	}
	return New(entities, opts...)
}

// LoadYAML reads and parses a YAML catalog file.
func LoadYAML(path string, opts ...Option) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return FromYAML(data, opts...)
}

type yamlEntity struct {
	Fields    []yamlField `yaml:"fields"`
	Relations yaml.Node   `yaml:"relations"`
}

func (y yamlEntity) toEntity(name string) Entity {
	e := Entity{Name: name}
	for _, f := range y.Fields {
		e.Fields = append(e.Fields, Field(f))
	}
	if y.Relations.Kind == yaml.MappingNode {
		for i := 0; i < len(y.Relations.Content); i += 2 {
			keyNode, valNode := y.Relations.Content[i], y.Relations.Content[i+1]
			var rel yamlRelation
			if err := valNode.Decode(&rel); err == nil {
				e.Relations = append(e.Relations, rel.toRelation(keyNode.Value))
			}
		}
	}
	return e
}

type yamlField struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

func (f *yamlField) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Name = node.Value
		return nil
	}
	type plain yamlField
	return node.Decode((*plain)(f))
}

type yamlRelation struct {
	Target  string `yaml:"target"`
	FromKey string `yaml:"from_key"`
	ToKey   string `yaml:"to_key"`
}

func (r *yamlRelation) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Target = node.Value
		return nil
	}
	type plain yamlRelation
	return node.Decode((*plain)(r))
}

func (r yamlRelation) toRelation(name string) Relation {
	rel := Relation{Name: name, Target: r.Target, FromKey: r.FromKey, ToKey: r.ToKey}
	if rel.Target == "" {
		rel.Target = name
	}
	if rel.FromKey == "" {
		rel.FromKey = name + "_id"
	}
	if rel.ToKey == "" {
		rel.ToKey = "id"
	}
	return rel
}
