package code_analyzer

import (
	"testing"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioFiles() []models.File {
	return []models.File{
		{Name: "a.py", Path: "src/a.py", Content: "def foo():\n    pass\n", Extension: "py"},
		{Name: "b.py", Path: "src/util/b.py", Content: "# comment\nimport os\n", Extension: "py"},
	}
}

func TestBuildTree_NestedDirectories(t *testing.T) {
	tree := BuildTree(scenarioFiles())

	require.NotNil(t, tree)
	assert.Equal(t, RootNodeName, tree.Name)
	assert.Equal(t, "", tree.Path)
	assert.Empty(t, tree.Files)
	require.Len(t, tree.Children, 1)

	src := tree.Children["src"]
	require.NotNil(t, src)
	assert.Equal(t, "src", src.Path)
	require.Len(t, src.Files, 1)
	assert.Equal(t, "a.py", src.Files[0].DisplayName)
	assert.Equal(t, "src", src.Files[0].ParentPath)
	require.Len(t, src.Children, 1)

	util := src.Children["util"]
	require.NotNil(t, util)
	assert.Equal(t, "src/util", util.Path)
	require.Len(t, util.Files, 1)
	assert.Equal(t, "b.py", util.Files[0].DisplayName)
	assert.Equal(t, "src/util", util.Files[0].ParentPath)
	assert.Empty(t, util.Children)
}

func TestBuildTree_RootFiles(t *testing.T) {
	files := []models.File{
		{Name: "main.go"},
		{Name: "README.md", Path: "README.md"},
	}

	tree := BuildTree(files)

	assert.Empty(t, tree.Children)
	require.Len(t, tree.Files, 2)
	assert.Equal(t, "main.go", tree.Files[0].DisplayName)
	assert.Equal(t, "README.md", tree.Files[1].DisplayName)
	assert.Equal(t, "", tree.Files[0].ParentPath)
}

func TestBuildTree_BackslashAndSlashAgree(t *testing.T) {
	forward := []models.File{{Name: "x.js", Path: "app/lib/x.js"}, {Name: "y.js", Path: "app/y.js"}}
	backward := []models.File{{Name: "x.js", Path: `app\lib\x.js`}, {Name: "y.js", Path: `app\y.js`}}

	assert.Equal(t, shape(BuildTree(forward)), shape(BuildTree(backward)))
}

func TestBuildTree_Deterministic(t *testing.T) {
	files := []models.File{
		{Name: "a.go", Path: `cmd\a.go`},
		{Name: "b.go", Path: "cmd/b.go"},
		{Name: "c.go", Path: "internal/x/c.go"},
		{Name: "d.go"},
	}

	first := shape(BuildTree(files))
	second := shape(BuildTree(files))

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a.go", "b.go"}, first["cmd"])
}

func TestBuildTree_EveryFileExactlyOnce(t *testing.T) {
	files := []models.File{
		{Name: "1.py", Path: "a/b/c/1.py"},
		{Name: "2.py", Path: `a\b\2.py`},
		{Name: "3.py", Path: "a/3.py"},
		{Name: "4.py"},
		{Name: "5.py", Path: "5.py"},
		{Name: "6.py", Path: "z//6.py"},
	}

	tree := BuildTree(files)

	assert.Equal(t, len(files), CountTreeFiles(tree))
}

func TestBuildTree_LoneSeparatorCreatesEmptyDirectory(t *testing.T) {
	tree := BuildTree([]models.File{{Name: "a.py", Path: "/a.py"}})

	empty, ok := tree.Children[""]
	require.True(t, ok)
	require.Len(t, empty.Files, 1)
	assert.Equal(t, "a.py", empty.Files[0].DisplayName)
}

// shape flattens a tree into node path -> ordered display names.
func shape(node *models.TreeNode) map[string][]string {
	out := map[string][]string{}
	var walk func(n *models.TreeNode)
	walk = func(n *models.TreeNode) {
		names := []string{}
		for _, f := range n.Files {
			names = append(names, f.DisplayName)
		}
		out[n.Path] = names
		for _, key := range n.ChildOrder {
			walk(n.Children[key])
		}
	}
	walk(node)
	return out
}
