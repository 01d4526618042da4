package cells_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurae.example/auraed/internal/cellname"
	"aurae.example/auraed/internal/cells"
	"aurae.example/auraed/internal/logger"
)

func newRootCache() *cells.Cache {
	cgroupFactory, daemonFactory := happyFactories(&fakeCgroup{}, &fakeDaemon{pid: 100})
	return cells.NewRootCache(cgroupFactory, daemonFactory, logger.Noop())
}

func TestCache_Allocate_TopLevel(t *testing.T) {
	root := newRootCache()

	name := cellname.MustParse("web")
	cell, err := root.Allocate(name, cells.Spec{})
	require.NoError(t, err)
	assert.True(t, cell.IsAllocated())
	assert.Equal(t, 1, root.Len())
}

func TestCache_Allocate_Nested(t *testing.T) {
	root := newRootCache()

	_, err := root.Allocate(cellname.MustParse("web"), cells.Spec{})
	require.NoError(t, err)

	child, err := root.Allocate(cellname.MustParse("web/worker"), cells.Spec{})
	require.NoError(t, err)
	assert.True(t, child.IsAllocated())
}

func TestCache_Allocate_DuplicateNameRejected(t *testing.T) {
	root := newRootCache()

	name := cellname.MustParse("web")
	_, err := root.Allocate(name, cells.Spec{})
	require.NoError(t, err)

	_, err = root.Allocate(name, cells.Spec{})
	require.Error(t, err)

	var cellErr *cells.CellError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, cells.KindCellExists, cellErr.Kind)
}

func TestCache_Allocate_MissingParentRejected(t *testing.T) {
	root := newRootCache()

	_, err := root.Allocate(cellname.MustParse("web/worker"), cells.Spec{})
	require.Error(t, err)

	var cellErr *cells.CellError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, cells.KindCellNotFound, cellErr.Kind)
}

func TestCache_Free_RemovesEntry(t *testing.T) {
	root := newRootCache()

	name := cellname.MustParse("web")
	_, err := root.Allocate(name, cells.Spec{})
	require.NoError(t, err)

	require.NoError(t, root.Free(name))
	assert.Equal(t, 0, root.Len())

	err = root.Get(name, func(*cells.Cell) error { return nil })
	var cellErr *cells.CellError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, cells.KindCellNotFound, cellErr.Kind)
}

func TestCache_Get_NotFound(t *testing.T) {
	root := newRootCache()

	err := root.Get(cellname.MustParse("missing"), func(*cells.Cell) error { return nil })
	require.Error(t, err)
}

func TestCache_CellGraph_ReflectsHierarchy(t *testing.T) {
	root := newRootCache()

	_, err := root.Allocate(cellname.MustParse("web"), cells.Spec{})
	require.NoError(t, err)

	_, err = root.Allocate(cellname.MustParse("web/worker"), cells.Spec{})
	require.NoError(t, err)

	graph, err := root.CellGraph(cells.GraphNode{})
	require.NoError(t, err)
	require.Len(t, graph.Children, 1)
	assert.Equal(t, "web", graph.Children[0].Name)
	require.Len(t, graph.Children[0].Children, 1)
	assert.Equal(t, "web/worker", graph.Children[0].Children[0].Name)
}

func TestGraphNode_YAML_RendersNameAndNestedChildren(t *testing.T) {
	root := newRootCache()

	weight, err := cells.NewAllocation("cpu_weight", "", 250)
	require.NoError(t, err)

	_, err = root.Allocate(cellname.MustParse("web"), cells.Spec{CgroupSpec: cells.CgroupSpec{CPUWeight: &weight}})
	require.NoError(t, err)

	graph, err := root.CellGraph(cells.GraphNode{Name: "/"})
	require.NoError(t, err)

	out, err := graph.YAML()
	require.NoError(t, err)

	rendered := string(out)
	assert.Contains(t, rendered, "name: web")
	assert.Contains(t, rendered, "cpu_weight: 250")
}

func TestCache_Shutdown_FreesEveryCell(t *testing.T) {
	root := newRootCache()

	_, err := root.Allocate(cellname.MustParse("web"), cells.Spec{})
	require.NoError(t, err)

	_, err = root.Allocate(cellname.MustParse("api"), cells.Spec{})
	require.NoError(t, err)

	root.Shutdown()

	var cell *cells.Cell
	_ = root.Get(cellname.MustParse("web"), func(c *cells.Cell) error { cell = c; return nil })
	require.NotNil(t, cell)
	assert.True(t, cell.IsFreed())
}
