package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(name string) Spec {
	return Spec{Name: name, New: func(Context, *Deps) (any, error) { return name, nil }}
}

func needs(name string, deps map[string]string) Spec {
	s := leaf(name)
	s.Dependencies = deps
	return s
}

func TestOrder_Empty(t *testing.T) {
	order, err := Order(nil)
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestOrder_DeclarationOrderWithoutDeps(t *testing.T) {
	order, err := Order([]Spec{leaf("c"), leaf("a"), leaf("b")})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, order)
}

func TestOrder_DependenciesFirst(t *testing.T) {
	specs := []Spec{
		needs("haste", map[string]string{"stats": "statTracker"}),
		leaf("statTracker"),
	}

	order, err := Order(specs)
	require.NoError(t, err)
	assert.Equal(t, []string{"statTracker", "haste"}, order)
}

func TestOrder_Diamond(t *testing.T) {
	specs := []Spec{
		needs("A", map[string]string{"b": "B", "c": "C"}),
		needs("B", map[string]string{"d": "D"}),
		needs("C", map[string]string{"d": "D"}),
		leaf("D"),
	}

	order, err := Order(specs)
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "B", "C", "A"}, order)
}

func TestOrder_AliasOrderIsSorted(t *testing.T) {
	// Map iteration order must not leak into the result.
	for range 20 {
		order, err := Order([]Spec{
			needs("root", map[string]string{"z": "Z", "a": "A", "m": "M"}),
			leaf("Z"), leaf("M"), leaf("A"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "M", "Z", "root"}, order)
	}
}

func TestOrder_MutualDependency(t *testing.T) {
	specs := []Spec{
		needs("A", map[string]string{"b": "B"}),
		needs("B", map[string]string{"a": "A"}),
	}

	_, err := Order(specs)
	require.Error(t, err)
	assert.True(t, IsCyclicDependency(err))

	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, []string{"A", "B", "A"}, ge.Path)
	assert.Contains(t, err.Error(), "A -> B -> A")
}

func TestOrder_SelfDependency(t *testing.T) {
	_, err := Order([]Spec{needs("A", map[string]string{"self": "A"})})
	require.Error(t, err)

	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ErrCodeCyclicDependency, ge.Code)
	assert.Equal(t, []string{"A", "A"}, ge.Path)
}

func TestOrder_ThreeNodeCycleBehindDAG(t *testing.T) {
	specs := []Spec{
		leaf("root"),
		needs("x", map[string]string{"y": "y", "r": "root"}),
		needs("y", map[string]string{"z": "z"}),
		needs("z", map[string]string{"x": "x"}),
	}

	_, err := Order(specs)
	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, []string{"x", "y", "z", "x"}, ge.Path)
}

func TestOrder_UnknownDependency(t *testing.T) {
	_, err := Order([]Spec{needs("haste", map[string]string{"stats": "statTracker"})})
	require.Error(t, err)
	assert.True(t, IsUnknownDependency(err))
	assert.Contains(t, err.Error(), `"statTracker"`)
}

func TestOrder_DuplicateModule(t *testing.T) {
	_, err := Order([]Spec{leaf("a"), leaf("a")})
	require.Error(t, err)
	assert.True(t, IsDuplicateModule(err))
}

func TestCycles_ReportsEveryComponent(t *testing.T) {
	specs := []Spec{
		needs("a", map[string]string{"b": "b"}),
		needs("b", map[string]string{"a": "a"}),
		needs("c", map[string]string{"c": "c"}),
		leaf("d"),
	}

	cycles := Cycles(specs)
	require.Len(t, cycles, 2)
	assert.ElementsMatch(t, []string{"a -> b -> a", "c -> c"},
		[]string{FormatCycle(cycles[0]), FormatCycle(cycles[1])})
}

func TestCycles_DAG(t *testing.T) {
	assert.Empty(t, Cycles([]Spec{needs("a", map[string]string{"b": "b"}), leaf("b")}))
}
