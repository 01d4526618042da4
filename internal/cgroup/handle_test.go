package cgroup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurae.example/auraed/internal/cellname"
	"aurae.example/auraed/internal/cells"
	"aurae.example/auraed/internal/cgroup"
)

func TestHandle_Create_WritesControlFiles(t *testing.T) {
	root := t.TempDir()
	name := cellname.MustParse("web")

	weight, err := cells.NewAllocation("cpu_weight", "", 500)
	require.NoError(t, err)

	memMax, err := cells.NewAllocation("memory_max", "", 1<<20)
	require.NoError(t, err)

	spec := cells.CgroupSpec{
		CPUWeight: &weight,
		MemoryMax: &memMax,
		CpusetCpus: "0-1",
	}

	h := cgroup.New(root, name, spec)
	require.NoError(t, h.Create())

	assert.DirExists(t, h.Path())

	got, err := os.ReadFile(filepath.Join(h.Path(), "cpu.weight"))
	require.NoError(t, err)
	assert.Equal(t, "500", string(got))

	got, err = os.ReadFile(filepath.Join(h.Path(), "memory.max"))
	require.NoError(t, err)
	assert.Equal(t, "1048576", string(got))

	got, err = os.ReadFile(filepath.Join(h.Path(), "cpuset.cpus"))
	require.NoError(t, err)
	assert.Equal(t, "0-1", string(got))
}

func TestHandle_AddTask_RequiresCreated(t *testing.T) {
	root := t.TempDir()
	h := cgroup.New(root, cellname.MustParse("web"), cells.CgroupSpec{})

	err := h.AddTask(123)
	assert.Error(t, err)
}

func TestHandle_AddTask_WritesPID(t *testing.T) {
	root := t.TempDir()
	h := cgroup.New(root, cellname.MustParse("web"), cells.CgroupSpec{})
	require.NoError(t, h.Create())

	require.NoError(t, h.AddTask(4242))

	got, err := os.ReadFile(filepath.Join(h.Path(), "cgroup.procs"))
	require.NoError(t, err)
	assert.Equal(t, "4242", string(got))
}

func TestHandle_AddTask_RejectsNonPositivePID(t *testing.T) {
	root := t.TempDir()
	h := cgroup.New(root, cellname.MustParse("web"), cells.CgroupSpec{})
	require.NoError(t, h.Create())

	assert.Error(t, h.AddTask(0))
	assert.Error(t, h.AddTask(-1))
}

func TestHandle_Delete_IsIdempotent(t *testing.T) {
	root := t.TempDir()
	h := cgroup.New(root, cellname.MustParse("web"), cells.CgroupSpec{})
	require.NoError(t, h.Create())

	require.NoError(t, h.Delete())
	assert.NoDirExists(t, h.Path())

	require.NoError(t, h.Delete())
}

func TestHandle_Delete_BusyWhenNotEmpty(t *testing.T) {
	root := t.TempDir()
	h := cgroup.New(root, cellname.MustParse("web"), cells.CgroupSpec{})
	require.NoError(t, h.Create())

	require.NoError(t, os.WriteFile(filepath.Join(h.Path(), "child-dummy-file"), nil, 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(h.Path(), "nested"), 0o755))

	err := h.Delete()
	assert.Error(t, err)
}

func TestHandle_V2_AlwaysTrue(t *testing.T) {
	h := cgroup.New(t.TempDir(), cellname.MustParse("web"), cells.CgroupSpec{})
	assert.True(t, h.V2())
}

func TestFactory_ConstructsHandleRootedAtDir(t *testing.T) {
	root := t.TempDir()
	factory := cgroup.Factory(root)

	handle, err := factory(cellname.MustParse("a/b"), cells.CgroupSpec{})
	require.NoError(t, err)

	cgh, ok := handle.(*cgroup.Handle)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "a", "b"), cgh.Path())
}
