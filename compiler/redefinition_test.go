package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/vocabulary/obm"
)

func TestConnectorRedefinitionSuppressesAncestor(t *testing.T) {
	redefining := succession("c2", "b", "a")
	redefining.Redefines = "Base::c1"

	m := newModel(t,
		leaf("A"),
		leaf("B"),
		&model.Class{
			Name:       "Base",
			Properties: []*model.Property{step("a", "A", 1, 1), step("b", "B", 1, 1)},
			Connectors: []*model.Connector{succession("c1", "a", "b")},
		},
		&model.Class{
			Name:       "Derived",
			Generals:   []string{"Base"},
			Connectors: []*model.Connector{redefining},
		},
	)

	res := compile(t, m, "Derived")

	assert.NotContains(t, factsOf(t, res, "Base"), "all x: Base | bijectionFiltered[happensBefore, x.a, x.b]")
	assert.Contains(t, factsOf(t, res, "Derived"), "all x: Derived | bijectionFiltered[happensBefore, x.b, x.a]")

	infos := messagesWith(res, "info")
	require.Len(t, infos, 1)
	assert.Equal(t, "Base", infos[0].Subject)
}

func TestConnectorRedefinitionAcrossTwoLevels(t *testing.T) {
	redefining := succession("late", "b", "a")
	redefining.Redefines = "Root::early"

	m := newModel(t,
		leaf("A"),
		leaf("B"),
		&model.Class{
			Name:       "Root",
			Properties: []*model.Property{step("a", "A", 1, 1), step("b", "B", 1, 1)},
			Connectors: []*model.Connector{succession("early", "a", "b")},
		},
		&model.Class{Name: "Middle", Generals: []string{"Root"}},
		&model.Class{Name: "Leaf", Generals: []string{"Middle"}, Connectors: []*model.Connector{redefining}},
	)

	res := compile(t, m, "Leaf")
	for _, sig := range []string{"Root", "Middle"} {
		for _, f := range factsOf(t, res, sig) {
			assert.NotContains(t, f, "happensBefore")
		}
	}
	assert.Contains(t, factsOf(t, res, "Leaf"), "all x: Leaf | bijectionFiltered[happensBefore, x.b, x.a]")
}

func TestConnectorRedefinitionOfUnknownTarget(t *testing.T) {
	redefining := succession("c2", "b", "a")
	redefining.Redefines = "Base::nope"

	m := newModel(t,
		leaf("A"),
		leaf("B"),
		&model.Class{
			Name:       "Base",
			Properties: []*model.Property{step("a", "A", 1, 1), step("b", "B", 1, 1)},
			Connectors: []*model.Connector{succession("c1", "a", "b")},
		},
		&model.Class{Name: "Derived", Generals: []string{"Base"}, Connectors: []*model.Connector{redefining}},
	)

	res := compile(t, m, "Derived")
	assert.Contains(t, factsOf(t, res, "Base"), "all x: Base | bijectionFiltered[happensBefore, x.a, x.b]")
	assert.Len(t, messagesWith(res, "warning"), 1)
	assert.False(t, res.HasErrors())
}

func TestPropertyRedefinition(t *testing.T) {
	m := newModel(t,
		leaf("A"),
		&model.Class{Name: "A2", Generals: []string{"A"}},
		&model.Class{
			Name:       "Base",
			Properties: []*model.Property{step("a", "A", 0, model.Unbounded)},
		},
		&model.Class{
			Name:     "Derived",
			Generals: []string{"Base"},
			Properties: []*model.Property{{
				Name:      "a",
				Type:      "A2",
				Lower:     1,
				Upper:     1,
				Tags:      []obm.Tag{obm.TagStep},
				Redefines: "a",
			}},
		},
	)

	res := compile(t, m, "Derived")

	derived, ok := res.Signatures.Lookup("Derived")
	require.True(t, ok)
	assert.Empty(t, derived.Fields)
	assert.Equal(t, prefixed("Derived",
		"x.a in A2",
		"#x.a = 1",
		"x.a in x.steps",
		"x.steps in x.a",
	), factsOf(t, res, "Derived"))

	a2, ok := res.Signatures.Lookup("A2")
	require.True(t, ok)
	assert.Equal(t, "A", res.Signatures.ParentOf(a2).Name)
}

func TestPropertyRedefinitionOfUnknownProperty(t *testing.T) {
	m := newModel(t,
		leaf("A"),
		&model.Class{Name: "Base"},
		&model.Class{
			Name:     "Derived",
			Generals: []string{"Base"},
			Properties: []*model.Property{{
				Name: "a", Type: "A", Lower: 1, Upper: 1, Redefines: "a",
			}},
		},
	)

	res := compile(t, m, "Derived")
	derived, _ := res.Signatures.Lookup("Derived")
	assert.Equal(t, []string{"a"}, derived.FieldNames())
	assert.Len(t, messagesWith(res, "warning"), 1)
}
