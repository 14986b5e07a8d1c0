package bind

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fetchgraph/sketch/internal/catalog"
	"github.com/fetchgraph/sketch/internal/config"
	"github.com/fetchgraph/sketch/internal/normalize"
	"github.com/fetchgraph/sketch/internal/relquery"
	"github.com/fetchgraph/sketch/internal/sketch"
)

func systemsCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Entity{
		{
			Name: "fbs",
			Fields: []catalog.Field{
				{Name: "id"}, {Name: "name"}, {Name: "status"}, {Name: "as_id"},
			},
			Relations: []catalog.Relation{
				{Name: "as", Target: "as", FromKey: "as_id", ToKey: "id"},
			},
		},
		{
			Name: "as",
			Fields: []catalog.Field{
				{Name: "id"}, {Name: "name"}, {Name: "system_name"}, {Name: "owner_id"},
			},
			Relations: []catalog.Relation{
				{Name: "owner", Target: "owner", FromKey: "owner_id", ToKey: "id"},
			},
		},
		{
			Name:   "owner",
			Fields: []catalog.Field{{Name: "id"}, {Name: "name"}},
		},
	})
	require.NoError(t, err)
	return cat
}

func compileText(t *testing.T, src string, cat *catalog.Catalog) (relquery.Query, error) {
	t.Helper()
	sk, diags := normalize.ParseAndNormalize(src, config.Default())
	require.False(t, diags.HasErrors(), "normalize diags: %s", diags.Summary())
	return Compile(sk, cat)
}

func TestCompile_RootOnly(t *testing.T) {
	q, err := compileText(t, `{from: fbs, where: [[status, active]], take: 10}`, systemsCatalog(t))
	require.NoError(t, err)

	assert.Equal(t, "fbs", q.RootEntity)
	assert.Empty(t, q.Select, "wildcard get compiles to an empty select")
	assert.Empty(t, q.Relations)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 0, q.Offset)

	// A single-clause conjunction collapses to the bare comparison, with
	// the root field entity-qualified.
	cmp, ok := q.Filters.(relquery.Comparison)
	require.True(t, ok, "filters: %#v", q.Filters)
	assert.Equal(t, relquery.Comparison{
		Field: "fbs.status", Op: sketch.OpEq, Value: sketch.String("active"),
	}, cmp)
}

func TestCompile_QualifiedFieldAutoJoins(t *testing.T) {
	q, err := compileText(t, `{from: fbs, where: [[as.name, crm]]}`, systemsCatalog(t))
	require.NoError(t, err)

	require.Len(t, q.Relations, 1)
	assert.Equal(t, relquery.Relation{
		Alias: "fbs_as", Source: "fbs", Target: "as", Name: "as",
		FromKey: "as_id", ToKey: "id",
	}, q.Relations[0])

	cmp := q.Filters.(relquery.Comparison)
	assert.Equal(t, "fbs_as.name", cmp.Field)
}

func TestCompile_TransitiveJoinRegistersPrefixes(t *testing.T) {
	q, err := compileText(t, `{from: fbs, where: [[owner.name, smith]]}`, systemsCatalog(t))
	require.NoError(t, err)

	require.Len(t, q.Relations, 2)
	assert.Equal(t, "fbs_as", q.Relations[0].Alias)
	assert.Equal(t, "fbs", q.Relations[0].Source)
	assert.Equal(t, "fbs_as_owner", q.Relations[1].Alias)
	assert.Equal(t, "fbs_as", q.Relations[1].Source)

	cmp := q.Filters.(relquery.Comparison)
	assert.Equal(t, "fbs_as_owner.name", cmp.Field)
}

// renamedCatalog names every relation differently from its target
// entity, so nothing resolves by accident through entity lookup.
func renamedCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Entity{
		{
			Name:   "fbs",
			Fields: []catalog.Field{{Name: "id"}, {Name: "name"}, {Name: "as_id"}},
			Relations: []catalog.Relation{
				{Name: "linked_as", Target: "as", FromKey: "as_id", ToKey: "id"},
			},
		},
		{
			Name:   "as",
			Fields: []catalog.Field{{Name: "id"}, {Name: "system_name"}, {Name: "owner_id"}},
			Relations: []catalog.Relation{
				{Name: "held_by", Target: "owner", FromKey: "owner_id", ToKey: "id"},
			},
		},
		{
			Name:   "owner",
			Fields: []catalog.Field{{Name: "id"}, {Name: "name"}},
		},
	})
	require.NoError(t, err)
	return cat
}

func TestCompile_WithResolvesRelationNames(t *testing.T) {
	q, err := compileText(t, `{from: fbs, where: [], with: [linked_as]}`, renamedCatalog(t))
	require.NoError(t, err)

	require.Len(t, q.Relations, 1)
	assert.Equal(t, relquery.Relation{
		Alias: "fbs_linked_as", Source: "fbs", Target: "as", Name: "linked_as",
		FromKey: "as_id", ToKey: "id",
	}, q.Relations[0])
}

func TestCompile_QualifierResolvesRelationName(t *testing.T) {
	q, err := compileText(t, `{from: fbs, where: [[linked_as.system_name, contains, ЕСП]]}`, renamedCatalog(t))
	require.NoError(t, err)

	require.Len(t, q.Relations, 1)
	assert.Equal(t, "fbs_linked_as", q.Relations[0].Alias)
	assert.Equal(t, "fbs_linked_as.system_name", q.Filters.(relquery.Comparison).Field)

	// The target entity name still works as a qualifier too.
	q, err = compileText(t, `{from: fbs, where: [[as.system_name, contains, ЕСП]]}`, renamedCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, "fbs_linked_as.system_name", q.Filters.(relquery.Comparison).Field)
}

func TestCompile_TransitiveRelationName(t *testing.T) {
	// held_by is declared one hop away; qualifying by it realizes the
	// whole path under renamed aliases.
	q, err := compileText(t, `{from: fbs, where: [[held_by.name, smith]]}`, renamedCatalog(t))
	require.NoError(t, err)

	require.Len(t, q.Relations, 2)
	assert.Equal(t, "fbs_linked_as", q.Relations[0].Alias)
	assert.Equal(t, "fbs_linked_as_held_by", q.Relations[1].Alias)
	assert.Equal(t, "fbs_linked_as_held_by.name", q.Filters.(relquery.Comparison).Field)
}

func TestCompile_WithAndPredicateShareJoin(t *testing.T) {
	q, err := compileText(t, `{from: fbs, where: [[as.name, crm]], with: [as]}`, systemsCatalog(t))
	require.NoError(t, err)
	assert.Len(t, q.Relations, 1, "join registered once")
}

func TestCompile_WithRoot(t *testing.T) {
	q, err := compileText(t, `{from: fbs, where: [], with: [fbs]}`, systemsCatalog(t))
	require.NoError(t, err)
	assert.Empty(t, q.Relations)
}

func TestCompile_EmptyWhere(t *testing.T) {
	q, err := compileText(t, `{from: fbs, where: []}`, systemsCatalog(t))
	require.NoError(t, err)
	assert.Nil(t, q.Filters)
	assert.Equal(t, 200, q.Limit, "default take flows through")
}

func TestCompile_BooleanTree(t *testing.T) {
	q, err := compileText(t, `{
		from: fbs,
		where: {
			all: [[status, active]],
			any: [[name, a], [name, b]],
			not: [status, legacy],
		},
	}`, systemsCatalog(t))
	require.NoError(t, err)

	and, ok := q.Filters.(relquery.AndGroup)
	require.True(t, ok, "filters: %#v", q.Filters)
	require.Len(t, and.Clauses, 3)
	assert.IsType(t, relquery.Comparison{}, and.Clauses[0])
	or, ok := and.Clauses[1].(relquery.OrGroup)
	require.True(t, ok)
	assert.Len(t, or.Clauses, 2)
	not, ok := and.Clauses[2].(relquery.NotGroup)
	require.True(t, ok)
	assert.IsType(t, relquery.Comparison{}, not.Clause)
}

func TestCompile_BareFieldImpliedJoin(t *testing.T) {
	// system_name lives on "as", not the root; the bare reference joins
	// implicitly and rewrites to the path alias.
	q, err := compileText(t, `{from: fbs, where: [[system_name, contains, ЕСП]], take: 10}`, systemsCatalog(t))
	require.NoError(t, err)

	require.Len(t, q.Relations, 1)
	assert.Equal(t, "fbs_as", q.Relations[0].Alias)

	cmp := q.Filters.(relquery.Comparison)
	assert.Equal(t, "fbs_as.system_name", cmp.Field)
	assert.Equal(t, sketch.OpContains, cmp.Op)
	assert.Equal(t, sketch.String("ЕСП"), cmp.Value)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"op": "query",
		"root_entity": "fbs",
		"relations": ["fbs_as"],
		"filters": {"op": "contains", "field": "fbs_as.system_name", "value": "ЕСП"},
		"limit": 10,
		"offset": 0,
		"case_sensitivity": false
	}`, string(data))
}

func TestCompile_EntityCaseInsensitive(t *testing.T) {
	q, err := compileText(t, `{from: " FBS ", where: [[STATUS, active]]}`, systemsCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, "fbs", q.RootEntity)
	assert.Equal(t, "fbs.status", q.Filters.(relquery.Comparison).Field, "catalog casing wins")
}

func TestCompile_UnknownEntity(t *testing.T) {
	_, err := compileText(t, `{from: ghost, where: []}`, systemsCatalog(t))
	require.Error(t, err)
	assert.True(t, IsUnknownEntity(err), "got %v", err)
}

func TestCompile_UnresolvedField(t *testing.T) {
	_, err := compileText(t, `{from: fbs, where: [[color, red]]}`, systemsCatalog(t))
	require.Error(t, err)
	assert.True(t, IsUnresolvedField(err), "got %v", err)

	_, err = compileText(t, `{from: fbs, where: [[as.color, red]]}`, systemsCatalog(t))
	assert.True(t, IsUnresolvedField(err), "joined entity field: %v", err)

	_, err = compileText(t, `{from: owner, where: [[fbs.name, x]]}`, systemsCatalog(t))
	assert.True(t, IsUnresolvedField(err), "unreachable entity: %v", err)
}

func TestCompile_UnknownWith(t *testing.T) {
	_, err := compileText(t, `{from: fbs, where: [], with: [ghost]}`, systemsCatalog(t))
	require.Error(t, err)
	assert.True(t, IsUnresolvedField(err), "got %v", err)
}

func TestCompile_InvalidOperator(t *testing.T) {
	// Programmatic sketches bypass the normalizer; the binder defends.
	_, err := Compile(sketch.Sketch{
		From: "fbs",
		Take: 10,
		Where: sketch.All{Exprs: []sketch.WhereExpr{
			sketch.Predicate{Field: "status", Op: "bogus", Value: sketch.String("x")},
		}},
	}, systemsCatalog(t))
	require.Error(t, err)
	assert.True(t, IsInvalidOperator(err), "got %v", err)
}

func TestCompile_InvalidLimit(t *testing.T) {
	_, err := Compile(sketch.Sketch{From: "fbs", Take: 0}, systemsCatalog(t))
	require.Error(t, err)
	assert.True(t, IsInvalidLimit(err), "got %v", err)
}

func TestCompile_SelectResolves(t *testing.T) {
	q, err := compileText(t, `{from: fbs, where: [], get: [name, as.name]}`, systemsCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"fbs.name", "fbs_as.name"}, q.Select)
	assert.Len(t, q.Relations, 1, "selected join registered")

	_, err = compileText(t, `{from: fbs, where: [], get: [color]}`, systemsCatalog(t))
	assert.True(t, IsUnresolvedField(err), "got %v", err)
}

func TestCompile_Deterministic(t *testing.T) {
	cat := systemsCatalog(t)
	src := `{from: fbs, where: [[owner.name, a], [as.name, b]], with: [owner, as]}`

	first, err := compileText(t, src, cat)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := compileText(t, src, cat)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompile_Golden(t *testing.T) {
	q, err := compileText(t, `{
		from: fbs,
		get: [name, status],
		where: [[as.name, contains, crm]],
		with: [owner],
		take: 10,
	}`, systemsCatalog(t))
	require.NoError(t, err)

	data, err := json.MarshalIndent(q, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithNameSuffix(".golden"))
	g.Assert(t, "compile_join", data)
}
